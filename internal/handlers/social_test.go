package handlers

import (
	"net/http"

	"github.com/voisoc/backend/internal/models"
)

func (suite *HandlersTestSuite) followerCount(userID string) int {
	var user models.User
	suite.Require().NoError(suite.db.First(&user, "id = ?", userID).Error)
	return user.FollowerCount
}

func (suite *HandlersTestSuite) followingCount(userID string) int {
	var user models.User
	suite.Require().NoError(suite.db.First(&user, "id = ?", userID).Error)
	return user.FollowingCount
}

func (suite *HandlersTestSuite) TestFollowUser() {
	w := suite.do(http.MethodPost, "/api/v1/users/"+suite.bob.ID+"/follow", nil, suite.aliceToken)
	suite.Equal(http.StatusOK, w.Code)

	var count int64
	suite.db.Model(&models.Follow{}).
		Where("follower_id = ? AND followee_id = ?", suite.alice.ID, suite.bob.ID).
		Count(&count)
	suite.Equal(int64(1), count)

	suite.Equal(1, suite.followerCount(suite.bob.ID))
	suite.Equal(1, suite.followingCount(suite.alice.ID))
}

func (suite *HandlersTestSuite) TestFollowUserIdempotent() {
	suite.do(http.MethodPost, "/api/v1/users/"+suite.bob.ID+"/follow", nil, suite.aliceToken)
	w := suite.do(http.MethodPost, "/api/v1/users/"+suite.bob.ID+"/follow", nil, suite.aliceToken)
	suite.Equal(http.StatusOK, w.Code)

	body := suite.decode(w)
	suite.Equal("already_following", body["status"])
	suite.Equal(1, suite.followerCount(suite.bob.ID))
}

func (suite *HandlersTestSuite) TestFollowSelfRejected() {
	w := suite.do(http.MethodPost, "/api/v1/users/"+suite.alice.ID+"/follow", nil, suite.aliceToken)
	suite.Equal(http.StatusBadRequest, w.Code)
}

func (suite *HandlersTestSuite) TestFollowUnknownUser() {
	w := suite.do(http.MethodPost, "/api/v1/users/no-such-user/follow", nil, suite.aliceToken)
	suite.Equal(http.StatusNotFound, w.Code)
}

func (suite *HandlersTestSuite) TestUnfollowUser() {
	suite.do(http.MethodPost, "/api/v1/users/"+suite.bob.ID+"/follow", nil, suite.aliceToken)

	w := suite.do(http.MethodDelete, "/api/v1/users/"+suite.bob.ID+"/follow", nil, suite.aliceToken)
	suite.Equal(http.StatusOK, w.Code)

	suite.Equal(0, suite.followerCount(suite.bob.ID))
	suite.Equal(0, suite.followingCount(suite.alice.ID))
}

func (suite *HandlersTestSuite) TestUnfollowWithoutFollowingIsNoop() {
	w := suite.do(http.MethodDelete, "/api/v1/users/"+suite.bob.ID+"/follow", nil, suite.aliceToken)
	suite.Equal(http.StatusOK, w.Code)
	suite.Equal(0, suite.followerCount(suite.bob.ID))
}

func (suite *HandlersTestSuite) TestFollowersAndFollowingLists() {
	suite.do(http.MethodPost, "/api/v1/users/"+suite.bob.ID+"/follow", nil, suite.aliceToken)

	w := suite.do(http.MethodGet, "/api/v1/users/"+suite.bob.ID+"/followers", nil, suite.bobToken)
	suite.Equal(http.StatusOK, w.Code)
	body := suite.decode(w)
	followers := body["followers"].([]interface{})
	suite.Require().Len(followers, 1)
	suite.Equal("alice", followers[0].(map[string]interface{})["username"])

	w = suite.do(http.MethodGet, "/api/v1/users/"+suite.alice.ID+"/following", nil, suite.aliceToken)
	suite.Equal(http.StatusOK, w.Code)
	body = suite.decode(w)
	following := body["following"].([]interface{})
	suite.Require().Len(following, 1)
	suite.Equal("bob", following[0].(map[string]interface{})["username"])

	// Follow is one-directional
	w = suite.do(http.MethodGet, "/api/v1/users/"+suite.alice.ID+"/followers", nil, suite.aliceToken)
	body = suite.decode(w)
	suite.Empty(body["followers"])
}
