package service

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/travism26/system-monitoring-gateway/internal/apperror"
	"github.com/travism26/system-monitoring-gateway/internal/model"
	"github.com/travism26/system-monitoring-gateway/internal/repository"
)

const bcryptCost = 12

// RegisterInput carries the fields accepted at registration.
type RegisterInput struct {
	Email     string
	Password  string
	FirstName string
	LastName  string
	TenantID  *uint
}

// UpdateProfileInput carries the mutable profile fields.
type UpdateProfileInput struct {
	FirstName *string
	LastName  *string
}

// UserService owns account lifecycle: registration, credential checks,
// profile updates, email verification and password resets.
type UserService struct {
	users repository.UserRepository
	now   func() time.Time
}

// NewUserService creates the user service on top of the user repository.
func NewUserService(users repository.UserRepository) *UserService {
	return &UserService{users: users, now: time.Now}
}

// WithClock overrides the time source for tests.
func (s *UserService) WithClock(now func() time.Time) *UserService {
	s.now = now
	return s
}

func randomToken() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("failed to generate token: %w", err)
	}
	return hex.EncodeToString(buf), nil
}

// Register creates a new account with a bcrypt-hashed password.
func (s *UserService) Register(input RegisterInput) (*model.User, error) {
	if input.Email == "" || input.Password == "" {
		return nil, apperror.BadRequest("email and password are required")
	}

	existing, err := s.users.FindByEmail(input.Email)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, apperror.BadRequest("email already registered").WithField("email")
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcryptCost)
	if err != nil {
		return nil, err
	}
	verificationToken, err := randomToken()
	if err != nil {
		return nil, err
	}

	user := &model.User{
		Email:             input.Email,
		Password:          string(hashed),
		FirstName:         input.FirstName,
		LastName:          input.LastName,
		Role:              model.RoleMember,
		TenantID:          input.TenantID,
		Status:            model.UserStatusActive,
		VerificationToken: verificationToken,
	}
	if err := s.users.Create(user); err != nil {
		return nil, err
	}
	return user, nil
}

// Authenticate checks credentials and records last login. Returns (nil, nil)
// on a bad email or password so the handler can respond 401 without leaking
// which part failed.
func (s *UserService) Authenticate(email, password string) (*model.User, error) {
	user, err := s.users.FindByEmail(email)
	if err != nil {
		return nil, err
	}
	if user == nil || user.Status != model.UserStatusActive {
		return nil, nil
	}
	if bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)) != nil {
		return nil, nil
	}

	login := s.now()
	user.LastLogin = &login
	if err := s.users.Update(user); err != nil {
		return nil, err
	}
	return user, nil
}

// GetByID fetches a user; (nil, nil) when missing.
func (s *UserService) GetByID(id uint) (*model.User, error) {
	return s.users.FindByID(id)
}

// UpdateProfile applies partial profile changes.
func (s *UserService) UpdateProfile(userID uint, input UpdateProfileInput) (*model.User, error) {
	user, err := s.users.FindByID(userID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, nil
	}
	if input.FirstName != nil {
		user.FirstName = *input.FirstName
	}
	if input.LastName != nil {
		user.LastName = *input.LastName
	}
	if err := s.users.Update(user); err != nil {
		return nil, err
	}
	return user, nil
}

// VerifyEmail marks the account verified when the token matches.
func (s *UserService) VerifyEmail(token string) (bool, error) {
	user, err := s.users.FindByVerificationToken(token)
	if err != nil {
		return false, err
	}
	if user == nil {
		return false, nil
	}
	user.EmailVerified = true
	user.VerificationToken = ""
	if err := s.users.Update(user); err != nil {
		return false, err
	}
	return true, nil
}

// InitiatePasswordReset issues a reset token valid for 24 hours.
func (s *UserService) InitiatePasswordReset(email string) (bool, error) {
	user, err := s.users.FindByEmail(email)
	if err != nil {
		return false, err
	}
	if user == nil {
		return false, nil
	}

	token, err := randomToken()
	if err != nil {
		return false, err
	}
	expires := s.now().Add(24 * time.Hour)
	user.PasswordResetToken = token
	user.PasswordResetExpires = &expires
	if err := s.users.Update(user); err != nil {
		return false, err
	}
	return true, nil
}

// ResetPassword replaces the password when the reset token is valid and
// unexpired, then clears the token.
func (s *UserService) ResetPassword(token, newPassword string) (bool, error) {
	user, err := s.users.FindByResetToken(token)
	if err != nil {
		return false, err
	}
	if user == nil || user.PasswordResetExpires == nil || user.PasswordResetExpires.Before(s.now()) {
		return false, nil
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcryptCost)
	if err != nil {
		return false, err
	}
	user.Password = string(hashed)
	user.PasswordResetToken = ""
	user.PasswordResetExpires = nil
	if err := s.users.Update(user); err != nil {
		return false, err
	}
	return true, nil
}

// Deactivate soft-disables an account via the status field.
func (s *UserService) Deactivate(userID uint) (bool, error) {
	user, err := s.users.FindByID(userID)
	if err != nil {
		return false, err
	}
	if user == nil {
		return false, nil
	}
	user.Status = model.UserStatusInactive
	if err := s.users.Update(user); err != nil {
		return false, err
	}
	return true, nil
}

// ListByTenant returns the users scoped to a tenant.
func (s *UserService) ListByTenant(tenantID uint) ([]model.User, error) {
	return s.users.ListByTenant(tenantID)
}
