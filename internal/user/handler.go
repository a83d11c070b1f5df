package user

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
)

const appVersion = "v1.1.0"

// TokenIssuer hands out an access and refresh token pair for a freshly
// registered user, the refresh token bound to the user's hash token.
type TokenIssuer func(userID, hashToken string) (accessToken, refreshToken string, err error)

type Handler struct {
	userService Service
	issueTokens TokenIssuer
}

func NewHandler(userService Service, issueTokens TokenIssuer) *Handler {
	return &Handler{
		userService: userService,
		issueTokens: issueTokens,
	}
}

func respondJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		http.Error(w, "Failed to encode response", http.StatusInternalServerError)
		log.Printf("JSON encoding error: %v", err)
		return
	}
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]interface{}{
		"status":  "error",
		"message": message,
		"code":    status,
	})
}

func (h *Handler) HandleRegister(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name       string   `json:"name"`
		Username   string   `json:"username"`
		Email      string   `json:"email"`
		Password   string   `json:"password"`
		Categories []string `json:"categories"`
	}

	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	newUser, err := h.userService.Register(req.Name, req.Username, req.Email, req.Password, req.Categories)
	if err != nil {
		if errors.Is(err, ErrUserAlreadyExists) {
			respondError(w, http.StatusConflict, err.Error())
			return
		}
		if errors.Is(err, ErrMissingFields) || errors.Is(err, ErrInvalidEmail) || errors.Is(err, ErrUsernameLength) {
			respondError(w, http.StatusBadRequest, err.Error())
			return
		}
		respondError(w, http.StatusInternalServerError, "Could not register user")
		return
	}

	accessToken, refreshToken, err := h.issueTokens(newUser.ID, newUser.HashToken)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "Could not register user")
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     "refresh_token",
		Value:    refreshToken,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		Path:     "/",
	})

	respondJSON(w, http.StatusCreated, map[string]interface{}{
		"status":  "success",
		"message": "User registered successfully",
		"data": map[string]interface{}{
			"user":         newUser,
			"accessToken":  accessToken,
			"refreshToken": refreshToken,
		},
	})
}

func (h *Handler) HandleAppVersion(w http.ResponseWriter, _ *http.Request) {
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"status":  "success",
		"message": "App version fetched successfully",
		"data": map[string]string{
			"version": appVersion,
		},
	})
}

func (h *Handler) HandleGetCurrentUser(w http.ResponseWriter, r *http.Request) {
	userID, ok := r.Context().Value("userID").(string)
	if !ok {
		respondError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	currentUser, err := h.userService.GetUserByID(userID)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			respondError(w, http.StatusNotFound, ErrUserNotFound.Error())
			return
		}
		respondError(w, http.StatusInternalServerError, "Could not fetch user")
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"status":  "success",
		"message": "User fetched successfully",
		"data":    currentUser,
	})
}

func (h *Handler) HandleUpdateCategories(w http.ResponseWriter, r *http.Request) {
	userID, ok := r.Context().Value("userID").(string)
	if !ok {
		respondError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	var req struct {
		Categories []string `json:"categories"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.Categories == nil {
		respondError(w, http.StatusBadRequest, "Categories must be an array")
		return
	}

	updated, err := h.userService.UpdateCategories(userID, req.Categories)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			respondError(w, http.StatusNotFound, ErrUserNotFound.Error())
			return
		}
		respondError(w, http.StatusInternalServerError, "Could not update categories")
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"status":  "success",
		"message": "Categories updated successfully",
		"data":    updated,
	})
}

func (h *Handler) HandleUpdateProfile(w http.ResponseWriter, r *http.Request) {
	userID, ok := r.Context().Value("userID").(string)
	if !ok {
		respondError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	var req struct {
		Name     *string `json:"name"`
		Username *string `json:"username"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.Name == nil && req.Username == nil {
		respondError(w, http.StatusBadRequest, "Nothing to update")
		return
	}

	updated, err := h.userService.UpdateProfile(userID, req.Name, req.Username)
	if err != nil {
		if errors.Is(err, ErrUserAlreadyExists) {
			respondError(w, http.StatusConflict, err.Error())
			return
		}
		if errors.Is(err, ErrMissingFields) || errors.Is(err, ErrUsernameLength) {
			respondError(w, http.StatusBadRequest, err.Error())
			return
		}
		if errors.Is(err, ErrUserNotFound) {
			respondError(w, http.StatusNotFound, ErrUserNotFound.Error())
			return
		}
		respondError(w, http.StatusInternalServerError, "Could not update profile")
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"status":  "success",
		"message": "Profile updated successfully",
		"data":    updated,
	})
}

func (h *Handler) HandleDeleteAccount(w http.ResponseWriter, r *http.Request) {
	userID, ok := r.Context().Value("userID").(string)
	if !ok {
		respondError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	if err := h.userService.DeleteUser(userID); err != nil {
		if errors.Is(err, ErrUserNotFound) {
			respondError(w, http.StatusNotFound, ErrUserNotFound.Error())
			return
		}
		respondError(w, http.StatusInternalServerError, "Could not delete account")
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     "refresh_token",
		Value:    "",
		HttpOnly: true,
		MaxAge:   -1,
		Path:     "/",
	})

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"status":  "success",
		"message": "Account deleted successfully",
		"data":    map[string]interface{}{},
	})
}
