package handlers

import (
	"log/slog"
	"net/http"

	"bookwise-backend/internal/cache"
	"bookwise-backend/internal/config"
	"bookwise-backend/internal/db"
	"bookwise-backend/internal/middleware"
	"bookwise-backend/internal/notifications"
	"bookwise-backend/internal/schedule"
	"bookwise-backend/internal/store"
	"bookwise-backend/internal/validation"
)

type Server struct {
	Cfg    *config.Config
	Cols   *db.Collections
	Store  *store.Mongo
	Engine *schedule.Engine
	Val    *validation.Validator
	Log    *slog.Logger
	Cache  cache.Cache
	Mailer notifications.Mailer
}

func (s *Server) logWithRequest(r *http.Request) *slog.Logger {
	if r == nil {
		return s.Log
	}
	if id := middleware.RequestIDFromContext(r.Context()); id != "" {
		return s.Log.With(slog.String("request_id", id))
	}
	return s.Log
}
