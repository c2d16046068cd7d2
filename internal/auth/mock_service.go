package auth

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/voisoc/backend/internal/models"
)

// MockCall records a method call for assertion
type MockCall struct {
	Method string
	Args   []interface{}
}

// MockAuthService is a mock implementation of AuthServiceInterface for testing.
type MockAuthService struct {
	mu sync.Mutex

	// Call tracking
	Calls []MockCall

	// Configurable function overrides
	RegisterFunc             func(req RegisterRequest) (*AuthResponse, error)
	LoginFunc                func(req LoginRequest, clientIP, userAgent string) (*AuthResponse, error)
	LogoutFunc               func(sessionID string) error
	FindUserByEmailFunc      func(email string) (*models.User, error)
	ValidateTokenFunc        func(tokenString string) (*models.User, error)
	VerifyEmailFunc          func(tokenString string) (*models.User, error)
	GenerateTokenForUserFunc func(user *models.User) (*AuthResponse, error)
	RequestPasswordResetFunc func(email string) (*models.PasswordReset, error)
	ResetPasswordFunc        func(token, newPassword string) error

	// Default error to return
	DefaultError error

	// Pre-configured users for testing
	Users map[string]*models.User // keyed by email
}

// NewMockAuthService creates a new mock auth service with sensible defaults
func NewMockAuthService() *MockAuthService {
	return &MockAuthService{
		Calls: make([]MockCall, 0),
		Users: make(map[string]*models.User),
	}
}

// recordCall records a method call for later assertion
func (m *MockAuthService) recordCall(method string, args ...interface{}) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Calls = append(m.Calls, MockCall{Method: method, Args: args})
}

// GetCallsForMethod returns calls for a specific method
func (m *MockAuthService) GetCallsForMethod(method string) []MockCall {
	m.mu.Lock()
	defer m.mu.Unlock()
	var result []MockCall
	for _, call := range m.Calls {
		if call.Method == method {
			result = append(result, call)
		}
	}
	return result
}

// Reset clears all recorded calls
func (m *MockAuthService) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Calls = make([]MockCall, 0)
}

// AssertCalled checks if a method was called at least once
func (m *MockAuthService) AssertCalled(method string) bool {
	return len(m.GetCallsForMethod(method)) > 0
}

// AddUser adds a test user to the mock service
func (m *MockAuthService) AddUser(user *models.User) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Users[user.Email] = user
}

// ============================================================================
// AuthServiceInterface implementation
// ============================================================================

func (m *MockAuthService) Register(req RegisterRequest) (*AuthResponse, error) {
	m.recordCall("Register", req)
	if m.RegisterFunc != nil {
		return m.RegisterFunc(req)
	}
	if m.DefaultError != nil {
		return nil, m.DefaultError
	}

	if _, exists := m.Users[req.Email]; exists {
		return nil, ErrUserExists
	}

	user := &models.User{
		ID:        uuid.New().String(),
		Email:     req.Email,
		Username:  req.Username,
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Country:   req.Country,
	}
	m.AddUser(user)

	return &AuthResponse{
		Token:     "mock_token_" + user.ID,
		User:      *user,
		ExpiresAt: time.Now().Add(TokenTTL),
	}, nil
}

func (m *MockAuthService) Login(req LoginRequest, clientIP, userAgent string) (*AuthResponse, error) {
	m.recordCall("Login", req, clientIP, userAgent)
	if m.LoginFunc != nil {
		return m.LoginFunc(req, clientIP, userAgent)
	}
	if m.DefaultError != nil {
		return nil, m.DefaultError
	}

	user, exists := m.Users[req.Email]
	if !exists {
		return nil, ErrInvalidCredentials
	}

	return &AuthResponse{
		Token:     "mock_token_" + user.ID,
		User:      *user,
		ExpiresAt: time.Now().Add(TokenTTL),
		SessionID: uuid.New().String(),
	}, nil
}

func (m *MockAuthService) Logout(sessionID string) error {
	m.recordCall("Logout", sessionID)
	if m.LogoutFunc != nil {
		return m.LogoutFunc(sessionID)
	}
	return m.DefaultError
}

func (m *MockAuthService) FindUserByEmail(email string) (*models.User, error) {
	m.recordCall("FindUserByEmail", email)
	if m.FindUserByEmailFunc != nil {
		return m.FindUserByEmailFunc(email)
	}
	if m.DefaultError != nil {
		return nil, m.DefaultError
	}

	user, exists := m.Users[email]
	if !exists {
		return nil, ErrUserNotFound
	}
	return user, nil
}

func (m *MockAuthService) ValidateToken(tokenString string) (*models.User, error) {
	m.recordCall("ValidateToken", tokenString)
	if m.ValidateTokenFunc != nil {
		return m.ValidateTokenFunc(tokenString)
	}
	if m.DefaultError != nil {
		return nil, m.DefaultError
	}

	// Default: token invalid
	return nil, ErrUserNotFound
}

func (m *MockAuthService) VerifyEmail(tokenString string) (*models.User, error) {
	m.recordCall("VerifyEmail", tokenString)
	if m.VerifyEmailFunc != nil {
		return m.VerifyEmailFunc(tokenString)
	}
	if m.DefaultError != nil {
		return nil, m.DefaultError
	}
	return nil, ErrInvalidToken
}

func (m *MockAuthService) GenerateTokenForUser(user *models.User) (*AuthResponse, error) {
	m.recordCall("GenerateTokenForUser", user)
	if m.GenerateTokenForUserFunc != nil {
		return m.GenerateTokenForUserFunc(user)
	}
	if m.DefaultError != nil {
		return nil, m.DefaultError
	}

	return &AuthResponse{
		Token:     "mock_token_" + user.ID,
		User:      *user,
		ExpiresAt: time.Now().Add(TokenTTL),
		SessionID: uuid.New().String(),
	}, nil
}

func (m *MockAuthService) RequestPasswordReset(email string) (*models.PasswordReset, error) {
	m.recordCall("RequestPasswordReset", email)
	if m.RequestPasswordResetFunc != nil {
		return m.RequestPasswordResetFunc(email)
	}
	if m.DefaultError != nil {
		return nil, m.DefaultError
	}

	return &models.PasswordReset{
		ID:        uuid.New().String(),
		UserID:    "mock_user_id",
		Token:     uuid.New().String(),
		ExpiresAt: time.Now().Add(time.Hour),
	}, nil
}

func (m *MockAuthService) ResetPassword(token, newPassword string) error {
	m.recordCall("ResetPassword", token, newPassword)
	if m.ResetPasswordFunc != nil {
		return m.ResetPasswordFunc(token, newPassword)
	}
	return m.DefaultError
}

// Ensure MockAuthService implements AuthServiceInterface
var _ AuthServiceInterface = (*MockAuthService)(nil)
