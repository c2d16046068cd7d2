package handlers

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"

	"github.com/voisoc/backend/internal/models"
)

// doForm performs a form-encoded request, matching how post creation
// arrives from clients
func (suite *HandlersTestSuite) doForm(method, path string, form url.Values, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	w := httptest.NewRecorder()
	suite.router.ServeHTTP(w, req)
	return w
}

func (suite *HandlersTestSuite) createPost(token, content string) string {
	w := suite.doForm(http.MethodPost, "/api/v1/posts", url.Values{"content": {content}}, token)
	suite.Require().Equal(http.StatusCreated, w.Code)

	body := suite.decode(w)
	post := body["post"].(map[string]interface{})
	return post["id"].(string)
}

func (suite *HandlersTestSuite) TestCreatePost() {
	postID := suite.createPost(suite.aliceToken, "my first real post")

	var stored models.Post
	suite.Require().NoError(suite.db.First(&stored, "id = ?", postID).Error)
	suite.Equal(suite.alice.ID, stored.UserID)
	suite.Equal("my first real post", stored.Content)

	// Registration already seeded one post
	var user models.User
	suite.Require().NoError(suite.db.First(&user, "id = ?", suite.alice.ID).Error)
	suite.Equal(2, user.PostCount)
}

func (suite *HandlersTestSuite) TestCreatePostRequiresContent() {
	w := suite.doForm(http.MethodPost, "/api/v1/posts", url.Values{}, suite.aliceToken)
	suite.Equal(http.StatusBadRequest, w.Code)
}

func (suite *HandlersTestSuite) TestFeedNewestFirst() {
	suite.createPost(suite.aliceToken, "older")
	suite.createPost(suite.bobToken, "newer")

	w := suite.do(http.MethodGet, "/api/v1/posts", nil, suite.aliceToken)
	suite.Equal(http.StatusOK, w.Code)

	body := suite.decode(w)
	posts := body["posts"].([]interface{})
	// Two created here plus two welcome posts from registration
	suite.Require().GreaterOrEqual(len(posts), 2)
	suite.Equal("newer", posts[0].(map[string]interface{})["content"])
	suite.Equal("older", posts[1].(map[string]interface{})["content"])
}

func (suite *HandlersTestSuite) TestGetUserPosts() {
	suite.createPost(suite.aliceToken, "alice only")

	w := suite.do(http.MethodGet, "/api/v1/users/"+suite.alice.ID+"/posts", nil, suite.bobToken)
	suite.Equal(http.StatusOK, w.Code)

	body := suite.decode(w)
	posts := body["posts"].([]interface{})
	for _, p := range posts {
		suite.Equal(suite.alice.ID, p.(map[string]interface{})["user_id"])
	}
}

func (suite *HandlersTestSuite) TestReactToPost() {
	postID := suite.createPost(suite.aliceToken, "react to me")

	for i := 0; i < 2; i++ {
		w := suite.do(http.MethodPost, "/api/v1/posts/"+postID+"/react", map[string]interface{}{
			"kind": models.ReactionLove,
		}, suite.bobToken)
		suite.Equal(http.StatusOK, w.Code)
	}

	var stored models.Post
	suite.Require().NoError(suite.db.First(&stored, "id = ?", postID).Error)
	suite.Equal(2, stored.Love)
	suite.Equal(0, stored.Likes)
}

func (suite *HandlersTestSuite) TestReactToPostInvalidKind() {
	postID := suite.createPost(suite.aliceToken, "react to me")

	w := suite.do(http.MethodPost, "/api/v1/posts/"+postID+"/react", map[string]interface{}{
		"kind": "sparkles",
	}, suite.bobToken)
	suite.Equal(http.StatusBadRequest, w.Code)
}

func (suite *HandlersTestSuite) TestReactToUnknownPost() {
	w := suite.do(http.MethodPost, "/api/v1/posts/no-such-post/react", map[string]interface{}{
		"kind": models.ReactionLikes,
	}, suite.bobToken)
	suite.Equal(http.StatusNotFound, w.Code)
}

func (suite *HandlersTestSuite) TestImpressionsRecordedOnce() {
	postID := suite.createPost(suite.aliceToken, "look at me")

	w := suite.do(http.MethodPost, "/api/v1/posts/"+postID+"/impression", nil, suite.bobToken)
	suite.Equal(http.StatusOK, w.Code)
	body := suite.decode(w)
	suite.Equal("seen", body["status"])

	// Same viewer again does not double count
	w = suite.do(http.MethodPost, "/api/v1/posts/"+postID+"/impression", nil, suite.bobToken)
	suite.Equal(http.StatusOK, w.Code)
	body = suite.decode(w)
	suite.Equal("already_seen", body["status"])

	var stored models.Post
	suite.Require().NoError(suite.db.First(&stored, "id = ?", postID).Error)
	suite.Len(stored.Impressions, 1)
}

func (suite *HandlersTestSuite) TestDeletePost() {
	postID := suite.createPost(suite.aliceToken, "delete me")

	// Another user cannot delete it
	w := suite.do(http.MethodDelete, "/api/v1/posts/"+postID, nil, suite.bobToken)
	suite.Equal(http.StatusForbidden, w.Code)

	w = suite.do(http.MethodDelete, "/api/v1/posts/"+postID, nil, suite.aliceToken)
	suite.Equal(http.StatusOK, w.Code)

	var count int64
	suite.db.Model(&models.Post{}).Where("id = ?", postID).Count(&count)
	suite.Equal(int64(0), count)
}
