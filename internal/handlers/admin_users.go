package handlers

import (
	"context"
	"crypto/subtle"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"bookwise-backend/internal/auth"
	"bookwise-backend/internal/models"
	"bookwise-backend/internal/transport"
)

type AdminUserCreateRequest struct {
	Username string `json:"username" validate:"required"`
	Email    string `json:"email" validate:"omitempty,email"`
	Password string `json:"password" validate:"required,min=8"`
}

type AdminRegisterRequest struct {
	Username string `json:"username" validate:"required"`
	Email    string `json:"email" validate:"omitempty,email"`
	Password string `json:"password" validate:"required,min=8"`
	SetupKey string `json:"setupKey" validate:"required"`
}

type AdminUserPasswordRequest struct {
	Password string `json:"password" validate:"required,min=8"`
}

func normalizeAdminUserIdentity(username, email string) (string, string) {
	return strings.ToLower(strings.TrimSpace(username)), strings.ToLower(strings.TrimSpace(email))
}

// AdminRegister bootstraps the first admin account. It is open to anyone
// holding the setup key, so the key should be rotated out after onboarding.
func (s *Server) AdminRegister(w http.ResponseWriter, r *http.Request) {
	log := s.logWithRequest(r)
	var req AdminRegisterRequest
	if err := decodeJSON(r, &req); err != nil {
		log.Warn("admin register: invalid json")
		transport.WriteError(w, http.StatusBadRequest, "invalid json", nil)
		return
	}
	req.Username, req.Email = normalizeAdminUserIdentity(req.Username, req.Email)
	if err := s.Val.Struct(req); err != nil {
		log.Warn("admin register: validation error")
		details := validationDetails(s.Val.ValidationErrors(err))
		transport.WriteError(w, http.StatusBadRequest, "validation error", details)
		return
	}
	if s.Cols == nil || s.Cols.Users == nil {
		log.Warn("admin register: not configured")
		transport.WriteError(w, http.StatusServiceUnavailable, "admin users not configured", nil)
		return
	}
	if s.Cfg.AdminSetupKey == "" || s.Cfg.JWTSecret == "" {
		log.Warn("admin register: setup not configured")
		transport.WriteError(w, http.StatusServiceUnavailable, "admin registration not configured", nil)
		return
	}
	if subtle.ConstantTimeCompare([]byte(req.SetupKey), []byte(s.Cfg.AdminSetupKey)) != 1 {
		log.Warn("admin register: invalid setup key", slog.String("username", req.Username))
		transport.WriteError(w, http.StatusUnauthorized, "invalid setup key", nil)
		return
	}

	user, err := s.insertAdminUser(r.Context(), req.Username, req.Email, req.Password)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			log.Warn("admin register: duplicate", slog.String("username", req.Username))
			transport.WriteError(w, http.StatusConflict, "username or email already exists", nil)
			return
		}
		log.Error("admin register: database error", slog.String("error", err.Error()))
		transport.WriteError(w, http.StatusInternalServerError, "database error", nil)
		return
	}

	if err := s.issueAdminSession(w); err != nil {
		log.Error("admin register: token error", slog.String("error", err.Error()))
		transport.WriteError(w, http.StatusInternalServerError, "token error", nil)
		return
	}

	log.Info("admin register: ok", slog.String("user_id", user.ID), slog.String("username", user.Username))
	transport.WriteJSON(w, http.StatusCreated, AdminLoginResponse{Status: "ok"})
}

func (s *Server) AdminCreateUser(w http.ResponseWriter, r *http.Request) {
	log := s.logWithRequest(r)
	var req AdminUserCreateRequest
	if err := decodeJSON(r, &req); err != nil {
		log.Warn("admin users create: invalid json")
		transport.WriteError(w, http.StatusBadRequest, "invalid json", nil)
		return
	}
	req.Username, req.Email = normalizeAdminUserIdentity(req.Username, req.Email)
	if err := s.Val.Struct(req); err != nil {
		log.Warn("admin users create: validation error")
		details := validationDetails(s.Val.ValidationErrors(err))
		transport.WriteError(w, http.StatusBadRequest, "validation error", details)
		return
	}
	if s.Cols == nil || s.Cols.Users == nil {
		log.Warn("admin users create: not configured")
		transport.WriteError(w, http.StatusServiceUnavailable, "admin users not configured", nil)
		return
	}

	user, err := s.insertAdminUser(r.Context(), req.Username, req.Email, req.Password)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			log.Warn("admin users create: duplicate", slog.String("username", req.Username))
			transport.WriteError(w, http.StatusConflict, "username or email already exists", nil)
			return
		}
		log.Error("admin users create: database error", slog.String("error", err.Error()))
		transport.WriteError(w, http.StatusInternalServerError, "database error", nil)
		return
	}

	log.Info("admin users create: ok", slog.String("user_id", user.ID))
	transport.WriteJSON(w, http.StatusCreated, user)
}

func (s *Server) AdminUpdateUserPassword(w http.ResponseWriter, r *http.Request) {
	log := s.logWithRequest(r)
	id := strings.TrimSpace(chi.URLParam(r, "id"))
	if id == "" {
		transport.WriteError(w, http.StatusBadRequest, "missing id", nil)
		return
	}

	var req AdminUserPasswordRequest
	if err := decodeJSON(r, &req); err != nil {
		log.Warn("admin users password: invalid json")
		transport.WriteError(w, http.StatusBadRequest, "invalid json", nil)
		return
	}
	if err := s.Val.Struct(req); err != nil {
		log.Warn("admin users password: validation error")
		details := validationDetails(s.Val.ValidationErrors(err))
		transport.WriteError(w, http.StatusBadRequest, "validation error", details)
		return
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		log.Error("admin users password: hash error", slog.String("error", err.Error()))
		transport.WriteError(w, http.StatusInternalServerError, "password error", nil)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	res, err := s.Cols.Users.UpdateOne(ctx,
		bson.M{"_id": id},
		bson.M{"$set": bson.M{"passwordHash": hash, "updatedAt": time.Now().UTC()}},
	)
	if err != nil {
		log.Error("admin users password: database error", slog.String("error", err.Error()))
		transport.WriteError(w, http.StatusInternalServerError, "database error", nil)
		return
	}
	if res.MatchedCount == 0 {
		transport.WriteError(w, http.StatusNotFound, "user not found", nil)
		return
	}

	log.Info("admin users password: ok", slog.String("user_id", id))
	transport.WriteJSON(w, http.StatusOK, map[string]string{"status": "updated"})
}

func (s *Server) insertAdminUser(ctx context.Context, username, email, password string) (models.User, error) {
	hash, err := auth.HashPassword(password)
	if err != nil {
		return models.User{}, err
	}

	now := time.Now().UTC()
	user := models.User{
		ID:           primitive.NewObjectID().Hex(),
		Username:     username,
		Email:        email,
		PasswordHash: hash,
		Role:         models.UserRoleAdmin,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if _, err := s.Cols.Users.InsertOne(ctx, user); err != nil {
		return models.User{}, err
	}
	return user, nil
}
