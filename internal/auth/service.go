package auth

import (
	"errors"
	"log"
	"net/http"

	"expensetracker/internal/user"
)

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrUserNotFound       = errors.New("user not found")
	ErrInternalError      = errors.New("internal server error")
)

type Service interface {
	Login(emailOrUsername, password string) (*user.User, string, string, error)
	IssueTokenPair(userID, hashToken string) (string, string, error)
	RefreshAccessToken(userID string) (string, string, error)
	Logout(userID string) error
	JWTAccessTokenMiddleware() func(http.Handler) http.Handler
	JWTRefreshTokenMiddleware() func(http.Handler) http.Handler
}

type service struct {
	userService user.Service
	jwtManager  JWTManagerInterface
}

func NewAuthService(userService user.Service, jwtManager JWTManagerInterface) Service {
	return &service{
		userService: userService,
		jwtManager:  jwtManager,
	}
}

func (s *service) Login(emailOrUsername, password string) (*user.User, string, string, error) {
	existingUser, err := s.userService.GetUserByLoginOrEmail(emailOrUsername)
	if err != nil {
		if errors.Is(err, user.ErrUserNotFound) {
			return nil, "", "", ErrInvalidCredentials
		}
		return nil, "", "", ErrInternalError
	}

	if err := s.userService.VerifyPassword(existingUser, password); err != nil {
		return nil, "", "", ErrInvalidCredentials
	}

	if err := s.userService.RecordLogin(existingUser.ID); err != nil {
		log.Printf("could not record login time: %v", err)
	}

	accessToken, refreshToken, err := s.IssueTokenPair(existingUser.ID, existingUser.HashToken)
	if err != nil {
		return nil, "", "", err
	}

	return existingUser, accessToken, refreshToken, nil
}

// IssueTokenPair generates an access and refresh token for the user, the
// refresh token bound to the given hash token.
func (s *service) IssueTokenPair(userID, hashToken string) (string, string, error) {
	accessToken, err := s.jwtManager.GenerateAccessJWT(userID, defaultJWTDuration)
	if err != nil {
		return "", "", ErrInternalError
	}
	refreshToken, err := s.jwtManager.GenerateRefreshJWT(userID, hashToken, defaultJWTRefreshDuration)
	if err != nil {
		return "", "", ErrInternalError
	}
	return accessToken, refreshToken, nil
}

// RefreshAccessToken rotates the user's hash token and issues a fresh
// token pair, so each refresh token is single-use.
func (s *service) RefreshAccessToken(userID string) (string, string, error) {
	hashToken, err := s.userService.RotateHashToken(userID)
	if err != nil {
		return "", "", ErrInternalError
	}
	return s.IssueTokenPair(userID, hashToken)
}

// Logout rotates the hash token without handing the new one out, which
// leaves no valid refresh token in circulation.
func (s *service) Logout(userID string) error {
	if _, err := s.userService.RotateHashToken(userID); err != nil {
		return ErrInternalError
	}
	return nil
}
