package auth

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"github.com/voisoc/backend/internal/database"
	"github.com/voisoc/backend/internal/logger"
	"github.com/voisoc/backend/internal/models"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// AuthServiceTestSuite contains auth service tests
type AuthServiceTestSuite struct {
	suite.Suite
	db          *gorm.DB
	authService *Service
}

// SetupSuite initializes test database and auth service
func (suite *AuthServiceTestSuite) SetupSuite() {
	require.NoError(suite.T(), logger.Initialize("error", "/dev/null"))

	db, err := gorm.Open(sqlite.Open("file::memory:?cache=shared"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent), // Quiet during tests
	})
	require.NoError(suite.T(), err)

	// Set global DB for database package
	database.DB = db

	err = db.AutoMigrate(
		&models.User{},
		&models.Session{},
		&models.PasswordReset{},
		&models.Post{},
		&models.Message{},
	)
	require.NoError(suite.T(), err)

	suite.db = db
	suite.authService = NewService([]byte("test-secret"))
}

// SetupTest wipes tables so each test starts clean
func (suite *AuthServiceTestSuite) SetupTest() {
	suite.db.Exec("DELETE FROM messages")
	suite.db.Exec("DELETE FROM posts")
	suite.db.Exec("DELETE FROM sessions")
	suite.db.Exec("DELETE FROM password_resets")
	suite.db.Exec("DELETE FROM users")
}

func (suite *AuthServiceTestSuite) registerAlice() *AuthResponse {
	resp, err := suite.authService.Register(RegisterRequest{
		Email:     "alice@example.com",
		Username:  "alice",
		Password:  "password123",
		FirstName: "Alice",
		LastName:  "Ngugi",
		Country:   "Kenya",
	})
	require.NoError(suite.T(), err)
	return resp
}

func (suite *AuthServiceTestSuite) TestRegisterCreatesUser() {
	resp := suite.registerAlice()

	assert.NotEmpty(suite.T(), resp.Token)
	assert.Equal(suite.T(), "alice", resp.User.Username)
	assert.False(suite.T(), resp.User.EmailVerified)
	assert.NotNil(suite.T(), resp.User.EmailVerifyToken)

	// Password must be stored hashed
	var stored models.User
	require.NoError(suite.T(), suite.db.First(&stored, "username = ?", "alice").Error)
	assert.NotEqual(suite.T(), "password123", stored.PasswordHash)
	assert.NoError(suite.T(), bcrypt.CompareHashAndPassword([]byte(stored.PasswordHash), []byte("password123")))
}

func (suite *AuthServiceTestSuite) TestRegisterSeedsWelcomePost() {
	resp := suite.registerAlice()

	var posts []models.Post
	require.NoError(suite.T(), suite.db.Where("user_id = ?", resp.User.ID).Find(&posts).Error)
	require.Len(suite.T(), posts, 1)
	assert.Equal(suite.T(), welcomePostContent, posts[0].Content)

	var stored models.User
	require.NoError(suite.T(), suite.db.First(&stored, "id = ?", resp.User.ID).Error)
	assert.Equal(suite.T(), 1, stored.PostCount)
}

func (suite *AuthServiceTestSuite) TestRegisterSeedsAdminWelcomeMessage() {
	admin := models.User{
		Email:        "admin@voisoc.example",
		Username:     adminUsername,
		FirstName:    "Voisoc",
		LastName:     "Team",
		PasswordHash: "x",
		IsAdmin:      true,
	}
	require.NoError(suite.T(), suite.db.Create(&admin).Error)

	resp := suite.registerAlice()

	var msgs []models.Message
	require.NoError(suite.T(), suite.db.Where("recipient_id = ?", resp.User.ID).Find(&msgs).Error)
	require.Len(suite.T(), msgs, 1)
	assert.Equal(suite.T(), admin.ID, msgs[0].SenderID)
	assert.Equal(suite.T(), welcomeMessageText, msgs[0].Text)
	assert.Equal(suite.T(), models.MessageStatusSent, msgs[0].Status)
}

func (suite *AuthServiceTestSuite) TestRegisterWithoutAdminSkipsWelcomeMessage() {
	resp := suite.registerAlice()

	var count int64
	suite.db.Model(&models.Message{}).Where("recipient_id = ?", resp.User.ID).Count(&count)
	assert.Zero(suite.T(), count)
}

func (suite *AuthServiceTestSuite) TestRegisterDuplicateEmail() {
	suite.registerAlice()

	_, err := suite.authService.Register(RegisterRequest{
		Email:     "ALICE@example.com",
		Username:  "alice2",
		Password:  "password123",
		FirstName: "Alice",
		LastName:  "Other",
		Country:   "Kenya",
	})
	assert.ErrorIs(suite.T(), err, ErrUserExists)
}

func (suite *AuthServiceTestSuite) TestRegisterDuplicateUsername() {
	suite.registerAlice()

	_, err := suite.authService.Register(RegisterRequest{
		Email:     "other@example.com",
		Username:  "Alice",
		Password:  "password123",
		FirstName: "Other",
		LastName:  "User",
		Country:   "Ghana",
	})
	assert.ErrorIs(suite.T(), err, ErrUsernameExists)
}

func (suite *AuthServiceTestSuite) TestLoginSuccessCreatesSession() {
	suite.registerAlice()

	resp, err := suite.authService.Login(LoginRequest{
		Email:    "alice@example.com",
		Password: "password123",
	}, "203.0.113.7", "test-agent")
	require.NoError(suite.T(), err)
	assert.NotEmpty(suite.T(), resp.Token)
	assert.NotEmpty(suite.T(), resp.SessionID)

	var session models.Session
	require.NoError(suite.T(), suite.db.First(&session, "id = ?", resp.SessionID).Error)
	assert.Equal(suite.T(), resp.User.ID, session.UserID)
	assert.Equal(suite.T(), "203.0.113.7", session.ClientIP)
	assert.Equal(suite.T(), resp.Token, session.Token)
}

func (suite *AuthServiceTestSuite) TestLoginWrongPassword() {
	suite.registerAlice()

	_, err := suite.authService.Login(LoginRequest{
		Email:    "alice@example.com",
		Password: "wrong-password",
	}, "", "")
	assert.ErrorIs(suite.T(), err, ErrInvalidCredentials)
}

func (suite *AuthServiceTestSuite) TestLoginUnknownEmail() {
	_, err := suite.authService.Login(LoginRequest{
		Email:    "ghost@example.com",
		Password: "whatever1",
	}, "", "")
	assert.ErrorIs(suite.T(), err, ErrInvalidCredentials)
}

func (suite *AuthServiceTestSuite) TestValidateTokenRoundtrip() {
	resp := suite.registerAlice()

	user, err := suite.authService.ValidateToken(resp.Token)
	require.NoError(suite.T(), err)
	assert.Equal(suite.T(), resp.User.ID, user.ID)

	_, err = suite.authService.ValidateToken("not-a-token")
	assert.Error(suite.T(), err)
}

func (suite *AuthServiceTestSuite) TestRegisterOpensSession() {
	resp := suite.registerAlice()
	require.NotEmpty(suite.T(), resp.SessionID)

	var session models.Session
	require.NoError(suite.T(), suite.db.First(&session, "id = ?", resp.SessionID).Error)
	assert.Equal(suite.T(), resp.User.ID, session.UserID)
}

func (suite *AuthServiceTestSuite) TestLogoutRevokesToken() {
	suite.registerAlice()

	resp, err := suite.authService.Login(LoginRequest{
		Email:    "alice@example.com",
		Password: "password123",
	}, "", "")
	require.NoError(suite.T(), err)

	_, err = suite.authService.ValidateToken(resp.Token)
	require.NoError(suite.T(), err)

	require.NoError(suite.T(), suite.authService.Logout(resp.SessionID))

	// The JWT itself has not expired, but its session is gone
	_, err = suite.authService.ValidateToken(resp.Token)
	assert.ErrorIs(suite.T(), err, ErrInvalidToken)
}

func (suite *AuthServiceTestSuite) TestLogoutLeavesOtherSessionsAlive() {
	registerResp := suite.registerAlice()

	loginResp, err := suite.authService.Login(LoginRequest{
		Email:    "alice@example.com",
		Password: "password123",
	}, "", "")
	require.NoError(suite.T(), err)

	require.NoError(suite.T(), suite.authService.Logout(loginResp.SessionID))

	// The registration session is independent and still valid
	_, err = suite.authService.ValidateToken(registerResp.Token)
	assert.NoError(suite.T(), err)
}

func (suite *AuthServiceTestSuite) TestVerifyEmail() {
	resp := suite.registerAlice()
	require.NotNil(suite.T(), resp.User.EmailVerifyToken)

	user, err := suite.authService.VerifyEmail(*resp.User.EmailVerifyToken)
	require.NoError(suite.T(), err)
	assert.True(suite.T(), user.EmailVerified)
	assert.Nil(suite.T(), user.EmailVerifyToken)

	// Idempotent for already-verified accounts
	again, err := suite.authService.VerifyEmail(*resp.User.EmailVerifyToken)
	require.NoError(suite.T(), err)
	assert.True(suite.T(), again.EmailVerified)
}

func (suite *AuthServiceTestSuite) TestVerifyEmailRejectsLoginToken() {
	resp := suite.registerAlice()

	// A login token lacks the email_verify purpose claim
	_, err := suite.authService.VerifyEmail(resp.Token)
	assert.ErrorIs(suite.T(), err, ErrInvalidToken)
}

func (suite *AuthServiceTestSuite) TestPasswordResetFlow() {
	resp := suite.registerAlice()

	token, err := suite.authService.RequestPasswordReset("alice@example.com")
	require.NoError(suite.T(), err)
	require.NotNil(suite.T(), token)
	assert.Equal(suite.T(), resp.User.ID, token.UserID)

	require.NoError(suite.T(), suite.authService.ResetPassword(token.Token, "newpassword456"))

	_, err = suite.authService.Login(LoginRequest{
		Email:    "alice@example.com",
		Password: "newpassword456",
	}, "", "")
	assert.NoError(suite.T(), err)

	// Token is single use
	err = suite.authService.ResetPassword(token.Token, "anotherpass789")
	assert.ErrorIs(suite.T(), err, ErrInvalidToken)
}

func (suite *AuthServiceTestSuite) TestPasswordResetUnknownEmail() {
	// No error and no token; callers must not learn whether the email exists
	token, err := suite.authService.RequestPasswordReset("ghost@example.com")
	assert.NoError(suite.T(), err)
	assert.Nil(suite.T(), token)
}

func TestAuthServiceSuite(t *testing.T) {
	suite.Run(t, new(AuthServiceTestSuite))
}
