package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"github.com/mliu/whisper/internal/apperrors"
	"github.com/mliu/whisper/internal/auth"
	"github.com/mliu/whisper/internal/models"
	"github.com/mliu/whisper/internal/store"
)

type AuthHandler struct {
	Store store.Store
}

type Credentials struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

func (h *AuthHandler) Signup(w http.ResponseWriter, r *http.Request) {
	type SignupRequest struct {
		Username string `json:"username"`
		Email    string `json:"email"`
		Password string `json:"password"`
	}

	var req SignupRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, apperrors.Validation("invalid request body"))
		return
	}
	if strings.TrimSpace(req.Username) == "" || strings.TrimSpace(req.Email) == "" || req.Password == "" {
		writeError(w, apperrors.Validation("username, email and password are required"))
		return
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		writeError(w, apperrors.Internal("internal server error"))
		return
	}

	user := &models.User{
		Username: req.Username,
		Email:    req.Email,
		Password: string(hashedPassword),
	}
	if err := h.Store.CreateUser(user); err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, user)
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var creds Credentials
	if err := json.NewDecoder(r.Body).Decode(&creds); err != nil {
		writeError(w, apperrors.Validation("invalid request body"))
		return
	}

	user, err := h.Store.GetUserByUsername(creds.Username)
	if err != nil {
		writeError(w, apperrors.Unauthorized("invalid credentials"))
		return
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(creds.Password)); err != nil {
		writeError(w, apperrors.Unauthorized("invalid credentials"))
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     "user_id",
		Value:    auth.SignCookie(strconv.Itoa(user.ID)),
		Path:     "/",
		HttpOnly: true,
	})

	writeJSON(w, http.StatusOK, user)
}

func (h *AuthHandler) SearchUsers(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("q")
	if query == "" {
		writeJSON(w, http.StatusOK, map[string][]models.User{"users": {}})
		return
	}

	users, err := h.Store.SearchUsers(query)
	if err != nil {
		writeError(w, err)
		return
	}
	if users == nil {
		users = []models.User{}
	}
	writeJSON(w, http.StatusOK, map[string][]models.User{"users": users})
}
