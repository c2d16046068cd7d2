package handlers

import (
	"net/http"

	"github.com/voisoc/backend/internal/models"
)

func (suite *HandlersTestSuite) TestGetUserProfile() {
	w := suite.do(http.MethodGet, "/api/v1/users/"+suite.bob.ID, nil, suite.aliceToken)
	suite.Equal(http.StatusOK, w.Code)

	body := suite.decode(w)
	user := body["user"].(map[string]interface{})
	suite.Equal("bob", user["username"])
	suite.Equal(false, body["is_following"])

	// Email and credentials never appear in a public profile
	suite.NotContains(user, "email")
	suite.NotContains(user, "password_hash")
}

func (suite *HandlersTestSuite) TestGetUserProfileShowsFollowState() {
	suite.do(http.MethodPost, "/api/v1/users/"+suite.bob.ID+"/follow", nil, suite.aliceToken)

	w := suite.do(http.MethodGet, "/api/v1/users/"+suite.bob.ID, nil, suite.aliceToken)
	body := suite.decode(w)
	suite.Equal(true, body["is_following"])
}

func (suite *HandlersTestSuite) TestGetUserProfileNotFound() {
	w := suite.do(http.MethodGet, "/api/v1/users/no-such-user", nil, suite.aliceToken)
	suite.Equal(http.StatusNotFound, w.Code)
}

func (suite *HandlersTestSuite) TestUpdateProfile() {
	w := suite.do(http.MethodPut, "/api/v1/users/me", map[string]interface{}{
		"headline":  "Gopher at large",
		"about":     "I write Go and take photos.",
		"location":  "Nairobi",
		"interests": []string{"go", "photography"},
		"social_links": map[string]string{
			"twitter": "https://twitter.com/alice",
		},
	}, suite.aliceToken)
	suite.Equal(http.StatusOK, w.Code)

	var stored models.User
	suite.Require().NoError(suite.db.First(&stored, "id = ?", suite.alice.ID).Error)
	suite.Equal("Gopher at large", stored.Headline)
	suite.Equal("Nairobi", stored.Location)
	suite.Equal(models.StringArray{"go", "photography"}, stored.Interests)
	suite.Require().NotNil(stored.SocialLinks)
	suite.Equal("https://twitter.com/alice", stored.SocialLinks.Twitter)
}

func (suite *HandlersTestSuite) TestUpdateProfilePartial() {
	suite.do(http.MethodPut, "/api/v1/users/me", map[string]interface{}{
		"headline": "first headline",
		"about":    "original about",
	}, suite.aliceToken)

	// Updating one field leaves the others alone
	w := suite.do(http.MethodPut, "/api/v1/users/me", map[string]interface{}{
		"headline": "second headline",
	}, suite.aliceToken)
	suite.Equal(http.StatusOK, w.Code)

	var stored models.User
	suite.Require().NoError(suite.db.First(&stored, "id = ?", suite.alice.ID).Error)
	suite.Equal("second headline", stored.Headline)
	suite.Equal("original about", stored.About)
}

func (suite *HandlersTestSuite) TestUpdateProfileRejectsEmptyName() {
	w := suite.do(http.MethodPut, "/api/v1/users/me", map[string]interface{}{
		"first_name": "   ",
	}, suite.aliceToken)
	suite.Equal(http.StatusUnprocessableEntity, w.Code)
}

func (suite *HandlersTestSuite) TestUpdateProfileResponseReflectsUpdate() {
	w := suite.do(http.MethodPut, "/api/v1/users/me", map[string]interface{}{
		"interests": []string{"go", "photography"},
		"headline":  "Gopher at large",
	}, suite.aliceToken)
	suite.Require().Equal(http.StatusOK, w.Code)

	body := suite.decode(w)
	user := body["user"].(map[string]interface{})
	suite.Equal("Gopher at large", user["headline"])

	interests, _ := user["interests"].([]interface{})
	suite.Require().Len(interests, 2)
	suite.Equal("go", interests[0])
}

func (suite *HandlersTestSuite) TestUpdateProfileNoFields() {
	w := suite.do(http.MethodPut, "/api/v1/users/me", map[string]interface{}{}, suite.aliceToken)
	suite.Equal(http.StatusBadRequest, w.Code)
}

func (suite *HandlersTestSuite) TestListUsers() {
	w := suite.do(http.MethodGet, "/api/v1/users", nil, suite.aliceToken)
	suite.Equal(http.StatusOK, w.Code)

	body := suite.decode(w)
	suite.Equal(float64(2), body["total"])
	suite.Len(body["users"].([]interface{}), 2)
}

func (suite *HandlersTestSuite) TestListUsersSearch() {
	w := suite.do(http.MethodGet, "/api/v1/users?q=ali", nil, suite.bobToken)
	suite.Equal(http.StatusOK, w.Code)

	body := suite.decode(w)
	users := body["users"].([]interface{})
	suite.Require().Len(users, 1)
	suite.Equal("alice", users[0].(map[string]interface{})["username"])
}

func (suite *HandlersTestSuite) TestDeleteAccount() {
	w := suite.do(http.MethodDelete, "/api/v1/users/me", nil, suite.aliceToken)
	suite.Equal(http.StatusOK, w.Code)

	// Gone from queries, token no longer resolves
	var count int64
	suite.db.Model(&models.User{}).Where("id = ?", suite.alice.ID).Count(&count)
	suite.Equal(int64(0), count)

	w = suite.do(http.MethodGet, "/api/v1/auth/me", nil, suite.aliceToken)
	suite.Equal(http.StatusUnauthorized, w.Code)
}

func (suite *HandlersTestSuite) TestDeleteAccountRemovesOwnedContent() {
	// Mutual follows and a conversation between alice and bob
	suite.do(http.MethodPost, "/api/v1/users/"+suite.bob.ID+"/follow", nil, suite.aliceToken)
	suite.do(http.MethodPost, "/api/v1/users/"+suite.alice.ID+"/follow", nil, suite.bobToken)
	suite.do(http.MethodPost, "/api/v1/messages", map[string]interface{}{
		"recipient_id": suite.bob.ID,
		"text":         "hi bob",
	}, suite.aliceToken)

	w := suite.do(http.MethodDelete, "/api/v1/users/me", nil, suite.aliceToken)
	suite.Require().Equal(http.StatusOK, w.Code)

	var count int64
	suite.db.Model(&models.Post{}).Where("user_id = ?", suite.alice.ID).Count(&count)
	suite.Zero(count)
	suite.db.Model(&models.Message{}).
		Where("sender_id = ? OR recipient_id = ?", suite.alice.ID, suite.alice.ID).Count(&count)
	suite.Zero(count)
	suite.db.Model(&models.Follow{}).
		Where("follower_id = ? OR followee_id = ?", suite.alice.ID, suite.alice.ID).Count(&count)
	suite.Zero(count)

	// Bob's cached counters move with the removed edges
	var bob models.User
	suite.Require().NoError(suite.db.First(&bob, "id = ?", suite.bob.ID).Error)
	suite.Equal(0, bob.FollowerCount)
	suite.Equal(0, bob.FollowingCount)

	// No orphan posts in the feed
	w = suite.do(http.MethodGet, "/api/v1/posts", nil, suite.bobToken)
	suite.Require().Equal(http.StatusOK, w.Code)
	body := suite.decode(w)
	for _, p := range body["posts"].([]interface{}) {
		post := p.(map[string]interface{})
		suite.NotEqual(suite.alice.ID, post["user_id"])
	}
}

func (suite *HandlersTestSuite) promoteToAdmin(userID string) {
	suite.Require().NoError(suite.db.Model(&models.User{}).
		Where("id = ?", userID).
		Update("is_admin", true).Error)
}

func (suite *HandlersTestSuite) TestAdminDeleteUser() {
	// Non-admins cannot delete other accounts
	w := suite.do(http.MethodDelete, "/api/v1/users/"+suite.bob.ID, nil, suite.aliceToken)
	suite.Equal(http.StatusForbidden, w.Code)

	suite.promoteToAdmin(suite.alice.ID)

	w = suite.do(http.MethodDelete, "/api/v1/users/no-such-user", nil, suite.aliceToken)
	suite.Equal(http.StatusNotFound, w.Code)

	w = suite.do(http.MethodDelete, "/api/v1/users/"+suite.bob.ID, nil, suite.aliceToken)
	suite.Equal(http.StatusOK, w.Code)

	var count int64
	suite.db.Model(&models.User{}).Where("id = ?", suite.bob.ID).Count(&count)
	suite.Zero(count)
}

func (suite *HandlersTestSuite) TestPurgeUsers() {
	w := suite.do(http.MethodDelete, "/api/v1/users", nil, suite.bobToken)
	suite.Equal(http.StatusForbidden, w.Code)

	suite.promoteToAdmin(suite.alice.ID)
	w = suite.do(http.MethodDelete, "/api/v1/users", nil, suite.aliceToken)
	suite.Require().Equal(http.StatusOK, w.Code)

	body := suite.decode(w)
	suite.Equal(float64(1), body["count"])

	// Only the admin account survives
	var usernames []string
	suite.db.Model(&models.User{}).Pluck("username", &usernames)
	suite.Equal([]string{"alice"}, usernames)
}
