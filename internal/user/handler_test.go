package user

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

type mockUserService struct {
	RegisterFunc func(name, username, email, password string, categories []string) (*User, error)
}

func (m *mockUserService) Register(name, username, email, password string, categories []string) (*User, error) {
	if m.RegisterFunc != nil {
		return m.RegisterFunc(name, username, email, password, categories)
	}
	return &User{ID: "user-1", Name: name, Username: username, Email: email, Categories: categories}, nil
}

func (m *mockUserService) GetUserByID(userID string) (*User, error) {
	return &User{ID: userID}, nil
}

func (m *mockUserService) GetUserByLoginOrEmail(loginOrEmail string) (*User, error) {
	return nil, ErrUserNotFound
}

func (m *mockUserService) VerifyPassword(_ *User, _ string) error   { return nil }
func (m *mockUserService) RecordLogin(_ string) error               { return nil }
func (m *mockUserService) UpdateHashToken(_, _ string) error        { return nil }
func (m *mockUserService) RotateHashToken(_ string) (string, error) { return "", nil }
func (m *mockUserService) DeleteUser(_ string) error                { return nil }

func (m *mockUserService) UpdateCategories(_ string, _ []string) (*User, error) {
	return nil, nil
}

func (m *mockUserService) UpdateProfile(_ string, _, _ *string) (*User, error) {
	return nil, nil
}

func staticTokenIssuer(t *testing.T, wantUserID, wantHashToken string) TokenIssuer {
	return func(userID, hashToken string) (string, string, error) {
		assert.Equal(t, wantUserID, userID)
		assert.Equal(t, wantHashToken, hashToken)
		return "test-access-token", "test-refresh-token", nil
	}
}

func TestHandleRegister_IssuesTokenPair(t *testing.T) {
	service := &mockUserService{
		RegisterFunc: func(name, username, email, _ string, categories []string) (*User, error) {
			return &User{ID: "user-1", Name: name, Username: username, Email: email, Categories: categories, HashToken: "hash-1"}, nil
		},
	}
	handler := NewHandler(service, staticTokenIssuer(t, "user-1", "hash-1"))

	body, err := json.Marshal(map[string]interface{}{
		"name":     "Alice",
		"username": "alice",
		"email":    "alice@example.com",
		"password": "secret123",
	})
	assert.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/api/users/register", bytes.NewBuffer(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()

	handler.HandleRegister(w, req)

	res := w.Result()
	defer res.Body.Close()
	assert.Equal(t, http.StatusCreated, res.StatusCode)

	var response map[string]interface{}
	assert.NoError(t, json.NewDecoder(res.Body).Decode(&response))
	assert.Equal(t, "success", response["status"])
	assert.Equal(t, "User registered successfully", response["message"])

	data := response["data"].(map[string]interface{})
	assert.Equal(t, "test-access-token", data["accessToken"])
	assert.Equal(t, "test-refresh-token", data["refreshToken"])
	registered := data["user"].(map[string]interface{})
	assert.Equal(t, "alice", registered["username"])

	var refreshCookie *http.Cookie
	for _, cookie := range res.Cookies() {
		if cookie.Name == "refresh_token" {
			refreshCookie = cookie
		}
	}
	assert.NotNil(t, refreshCookie)
	assert.Equal(t, "test-refresh-token", refreshCookie.Value)
	assert.True(t, refreshCookie.HttpOnly)
}

func TestHandleRegister_Conflict(t *testing.T) {
	service := &mockUserService{
		RegisterFunc: func(_, _, _, _ string, _ []string) (*User, error) {
			return nil, ErrUserAlreadyExists
		},
	}
	issuerCalled := false
	handler := NewHandler(service, func(_, _ string) (string, string, error) {
		issuerCalled = true
		return "", "", nil
	})

	body, _ := json.Marshal(map[string]interface{}{
		"name": "Alice", "username": "alice", "email": "alice@example.com", "password": "secret123",
	})
	req := httptest.NewRequest(http.MethodPost, "/api/users/register", bytes.NewBuffer(body))
	w := httptest.NewRecorder()

	handler.HandleRegister(w, req)

	res := w.Result()
	defer res.Body.Close()
	assert.Equal(t, http.StatusConflict, res.StatusCode)
	assert.False(t, issuerCalled)
	assert.Empty(t, res.Cookies())
}

func TestHandleRegister_InvalidBody(t *testing.T) {
	handler := NewHandler(&mockUserService{}, func(_, _ string) (string, string, error) {
		return "", "", nil
	})

	req := httptest.NewRequest(http.MethodPost, "/api/users/register", bytes.NewBufferString("invalid body"))
	w := httptest.NewRecorder()

	handler.HandleRegister(w, req)

	res := w.Result()
	defer res.Body.Close()
	assert.Equal(t, http.StatusBadRequest, res.StatusCode)
}

func TestHandleAppVersion(t *testing.T) {
	handler := NewHandler(&mockUserService{}, func(_, _ string) (string, string, error) {
		return "", "", nil
	})

	req := httptest.NewRequest(http.MethodGet, "/api/users/app-version", nil)
	w := httptest.NewRecorder()

	handler.HandleAppVersion(w, req)

	res := w.Result()
	defer res.Body.Close()
	assert.Equal(t, http.StatusOK, res.StatusCode)

	var response map[string]interface{}
	assert.NoError(t, json.NewDecoder(res.Body).Decode(&response))
	assert.Equal(t, "App version fetched successfully", response["message"])
	data := response["data"].(map[string]interface{})
	assert.Equal(t, "v1.1.0", data["version"])
}
