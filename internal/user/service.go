package user

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/badoux/checkmail"
	"golang.org/x/crypto/bcrypt"
)

const (
	maxEmailLength    = 254
	minUsernameLength = 3
	maxUsernameLength = 30
	bcryptCost        = 12
)

var (
	ErrInvalidEmail       = fmt.Errorf("email address is not valid")
	ErrUsernameLength     = fmt.Errorf("username must be between %d and %d characters", minUsernameLength, maxUsernameLength)
	ErrMissingFields      = errors.New("name, username, email and password are required")
	ErrUserAlreadyExists  = errors.New("user with email or username already exists")
	ErrInvalidCategories  = errors.New("categories must be an array of strings")
	ErrInternalError      = errors.New("internal Server Error")
	ErrInvalidCredentials = errors.New("invalid user credentials")
)

type User struct {
	ID            string     `json:"_id"`
	Name          string     `json:"name"`
	Username      string     `json:"username"`
	Email         string     `json:"email"`
	PasswordHash  string     `json:"-"`
	Categories    []string   `json:"categories"`
	ExpenseLogged int        `json:"expenseLogged"`
	HashToken     string     `json:"-"`
	FirstSignupAt time.Time  `json:"userFirstSignUp"`
	LastLoginAt   *time.Time `json:"lastLoginDate,omitempty"`
	CreatedAt     time.Time  `json:"createdAt"`
	UpdatedAt     time.Time  `json:"updatedAt"`
}

type Service interface {
	Register(name, username, email, password string, categories []string) (*User, error)
	GetUserByID(userID string) (*User, error)
	GetUserByLoginOrEmail(loginOrEmail string) (*User, error)
	VerifyPassword(user *User, password string) error
	RecordLogin(userID string) error
	UpdateCategories(userID string, categories []string) (*User, error)
	UpdateProfile(userID string, name, username *string) (*User, error)
	UpdateHashToken(userID, hashToken string) error
	RotateHashToken(userID string) (string, error)
	DeleteUser(userID string) error
}

type service struct {
	repo Repository
}

func NewUserService(repo Repository) Service {
	return &service{repo: repo}
}

func hashPassword(password string) (string, error) {
	hashedPasswordBytes, err := bcrypt.GenerateFromPassword([]byte(password), bcryptCost)
	return string(hashedPasswordBytes), err
}

// newHashToken generates the per-user secret bound into refresh tokens.
func newHashToken() (string, error) {
	tokenBytes := make([]byte, 16)
	if _, err := rand.Read(tokenBytes); err != nil {
		return "", ErrInternalError
	}
	return hex.EncodeToString(tokenBytes), nil
}

func (s *service) Register(name, username, email, password string, categories []string) (*User, error) {
	name = strings.TrimSpace(name)
	username = strings.ToLower(strings.TrimSpace(username))
	email = strings.TrimSpace(email)

	if name == "" || username == "" || email == "" || password == "" {
		return nil, ErrMissingFields
	}
	if len(username) < minUsernameLength || len(username) > maxUsernameLength {
		return nil, ErrUsernameLength
	}
	if len(email) > maxEmailLength {
		return nil, ErrInvalidEmail
	}
	if err := checkmail.ValidateFormat(email); err != nil {
		return nil, ErrInvalidEmail
	}

	existing, err := s.repo.userExistsByUsernameOrEmail(username, email)
	if err != nil && !errors.Is(err, ErrUserNotFound) {
		return nil, ErrInternalError
	}
	if existing != nil {
		return nil, ErrUserAlreadyExists
	}

	passwordHash, err := hashPassword(password)
	if err != nil {
		return nil, ErrInternalError
	}
	hashToken, err := newHashToken()
	if err != nil {
		return nil, err
	}

	if categories == nil {
		categories = []string{}
	}

	newUser := &User{
		Name:         name,
		Username:     username,
		Email:        email,
		PasswordHash: passwordHash,
		Categories:   categories,
		HashToken:    hashToken,
	}
	if err := s.repo.createUser(newUser); err != nil {
		return nil, ErrInternalError
	}
	return newUser, nil
}

func (s *service) GetUserByID(userID string) (*User, error) {
	return s.repo.getUserByID(userID)
}

func (s *service) GetUserByLoginOrEmail(loginOrEmail string) (*User, error) {
	return s.repo.getUserByUsernameOrEmail(strings.ToLower(strings.TrimSpace(loginOrEmail)))
}

func (s *service) VerifyPassword(user *User, password string) error {
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return ErrInvalidCredentials
	}
	return nil
}

func (s *service) RecordLogin(userID string) error {
	return s.repo.updateLastLogin(userID, time.Now())
}

func (s *service) UpdateCategories(userID string, categories []string) (*User, error) {
	if categories == nil {
		return nil, ErrInvalidCategories
	}
	if err := s.repo.updateCategories(userID, categories); err != nil {
		return nil, err
	}
	return s.repo.getUserByID(userID)
}

func (s *service) UpdateProfile(userID string, name, username *string) (*User, error) {
	current, err := s.repo.getUserByID(userID)
	if err != nil {
		return nil, err
	}

	if name != nil {
		trimmed := strings.TrimSpace(*name)
		if trimmed == "" {
			return nil, ErrMissingFields
		}
		current.Name = trimmed
	}
	if username != nil {
		trimmed := strings.ToLower(strings.TrimSpace(*username))
		if len(trimmed) < minUsernameLength || len(trimmed) > maxUsernameLength {
			return nil, ErrUsernameLength
		}
		existing, err := s.repo.getUserByUsernameOrEmail(trimmed)
		if err != nil && !errors.Is(err, ErrUserNotFound) {
			return nil, ErrInternalError
		}
		if existing != nil && existing.ID != userID {
			return nil, ErrUserAlreadyExists
		}
		current.Username = trimmed
	}

	if err := s.repo.updateProfile(userID, current.Name, current.Username); err != nil {
		return nil, err
	}
	return current, nil
}

func (s *service) UpdateHashToken(userID, hashToken string) error {
	return s.repo.updateHashToken(userID, hashToken)
}

func (s *service) DeleteUser(userID string) error {
	return s.repo.deleteUser(userID)
}

// RotateHashToken replaces the refresh-token secret for a user, which
// invalidates every refresh token issued before the rotation.
func (s *service) RotateHashToken(userID string) (string, error) {
	hashToken, err := newHashToken()
	if err != nil {
		return "", err
	}
	if err := s.repo.updateHashToken(userID, hashToken); err != nil {
		return "", err
	}
	return hashToken, nil
}
