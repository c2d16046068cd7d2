package handlers

import (
	"net/http"

	"github.com/voisoc/backend/internal/models"
)

func (suite *HandlersTestSuite) TestRegisterEndpoint() {
	w := suite.do(http.MethodPost, "/api/v1/auth/register", map[string]interface{}{
		"email":      "carol@example.com",
		"username":   "carol",
		"password":   "password123",
		"first_name": "Carol",
		"last_name":  "Mwangi",
		"country":    "Kenya",
	}, "")
	suite.Equal(http.StatusCreated, w.Code)

	body := suite.decode(w)
	suite.NotEmpty(body["token"])
	user := body["user"].(map[string]interface{})
	suite.Equal("carol", user["username"])

	// The public profile must not leak credentials or tokens
	suite.NotContains(user, "password_hash")
	suite.NotContains(user, "email_verify_token")
}

func (suite *HandlersTestSuite) TestRegisterEndpointDuplicateEmail() {
	w := suite.do(http.MethodPost, "/api/v1/auth/register", map[string]interface{}{
		"email":      "alice@example.com",
		"username":   "alice2",
		"password":   "password123",
		"first_name": "Alice",
		"last_name":  "Again",
		"country":    "Kenya",
	}, "")
	suite.Equal(http.StatusConflict, w.Code)
}

func (suite *HandlersTestSuite) TestRegisterEndpointValidation() {
	w := suite.do(http.MethodPost, "/api/v1/auth/register", map[string]interface{}{
		"email":    "not-an-email",
		"username": "x",
	}, "")
	suite.Equal(http.StatusBadRequest, w.Code)
}

func (suite *HandlersTestSuite) TestLoginEndpoint() {
	w := suite.do(http.MethodPost, "/api/v1/auth/login", map[string]interface{}{
		"email":    "alice@example.com",
		"password": "password123",
	}, "")
	suite.Equal(http.StatusOK, w.Code)

	body := suite.decode(w)
	suite.NotEmpty(body["token"])
}

func (suite *HandlersTestSuite) TestLoginEndpointWrongPassword() {
	w := suite.do(http.MethodPost, "/api/v1/auth/login", map[string]interface{}{
		"email":    "alice@example.com",
		"password": "wrong-password",
	}, "")
	suite.Equal(http.StatusUnauthorized, w.Code)
}

func (suite *HandlersTestSuite) TestVerifyEmailEndpoint() {
	var stored models.User
	suite.Require().NoError(suite.db.First(&stored, "id = ?", suite.alice.ID).Error)
	suite.Require().NotNil(stored.EmailVerifyToken)

	w := suite.do(http.MethodGet, "/api/v1/auth/verify?token="+*stored.EmailVerifyToken, nil, "")
	suite.Equal(http.StatusOK, w.Code)

	suite.Require().NoError(suite.db.First(&stored, "id = ?", suite.alice.ID).Error)
	suite.True(stored.EmailVerified)

	// Verification hands back a usable login token
	body := suite.decode(w)
	freshToken, _ := body["token"].(string)
	suite.Require().NotEmpty(freshToken)

	w = suite.do(http.MethodGet, "/api/v1/auth/me", nil, freshToken)
	suite.Equal(http.StatusOK, w.Code)
}

func (suite *HandlersTestSuite) TestLogoutEndpointRevokesToken() {
	w := suite.do(http.MethodPost, "/api/v1/auth/login", map[string]interface{}{
		"email":    "alice@example.com",
		"password": "password123",
	}, "")
	suite.Require().Equal(http.StatusOK, w.Code)

	body := suite.decode(w)
	token := body["token"].(string)
	sessionID := body["session_id"].(string)
	suite.Require().NotEmpty(sessionID)

	w = suite.do(http.MethodGet, "/api/v1/auth/me", nil, token)
	suite.Equal(http.StatusOK, w.Code)

	w = suite.do(http.MethodPost, "/api/v1/auth/logout", map[string]interface{}{
		"session_id": sessionID,
	}, token)
	suite.Equal(http.StatusOK, w.Code)

	// The JWT is unexpired but its session is gone
	w = suite.do(http.MethodGet, "/api/v1/auth/me", nil, token)
	suite.Equal(http.StatusUnauthorized, w.Code)
}

func (suite *HandlersTestSuite) TestVerifyEmailEndpointBadToken() {
	w := suite.do(http.MethodGet, "/api/v1/auth/verify?token=bogus", nil, "")
	suite.Equal(http.StatusBadRequest, w.Code)

	w = suite.do(http.MethodGet, "/api/v1/auth/verify", nil, "")
	suite.Equal(http.StatusBadRequest, w.Code)
}

func (suite *HandlersTestSuite) TestPasswordResetEndpoints() {
	w := suite.do(http.MethodPost, "/api/v1/auth/password-reset", map[string]interface{}{
		"email": "alice@example.com",
	}, "")
	suite.Equal(http.StatusOK, w.Code)

	var reset models.PasswordReset
	suite.Require().NoError(suite.db.First(&reset, "user_id = ?", suite.alice.ID).Error)

	w = suite.do(http.MethodPost, "/api/v1/auth/password-reset/confirm", map[string]interface{}{
		"token":        reset.Token,
		"new_password": "newpassword456",
	}, "")
	suite.Equal(http.StatusOK, w.Code)

	w = suite.do(http.MethodPost, "/api/v1/auth/login", map[string]interface{}{
		"email":    "alice@example.com",
		"password": "newpassword456",
	}, "")
	suite.Equal(http.StatusOK, w.Code)
}

func (suite *HandlersTestSuite) TestPasswordResetUnknownEmailSameResponse() {
	w := suite.do(http.MethodPost, "/api/v1/auth/password-reset", map[string]interface{}{
		"email": "ghost@example.com",
	}, "")
	suite.Equal(http.StatusOK, w.Code)
}
