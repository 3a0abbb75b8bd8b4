package handlers

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"bookwise-backend/internal/httpx"
	"bookwise-backend/internal/models"
	"bookwise-backend/internal/schedule"
	"bookwise-backend/internal/transport"
	"bookwise-backend/internal/utils"
)

type AdminServiceRequest struct {
	ProviderID          string `json:"providerId" validate:"required"`
	Name                string `json:"name" validate:"required,min=2,max=120"`
	Description         string `json:"description" validate:"omitempty,max=2000"`
	DurationMinutes     int    `json:"durationMinutes" validate:"required,gte=1,lte=1440"`
	BufferBeforeMinutes int    `json:"bufferBeforeMinutes" validate:"gte=0,lte=1440"`
	BufferAfterMinutes  int    `json:"bufferAfterMinutes" validate:"gte=0,lte=1440"`
	SlotIntervalMinutes int    `json:"slotIntervalMinutes" validate:"gte=0,lte=1440"`
	RequiresStaff       bool   `json:"requiresStaff"`
	AnyStaffMember      bool   `json:"anyStaffMember"`
	MaxConcurrent       int    `json:"maxConcurrent" validate:"required,gte=1"`
	PriceCents          int    `json:"priceCents" validate:"gte=0"`
	Currency            string `json:"currency" validate:"omitempty,len=3,uppercase"`
	IsActive            *bool  `json:"isActive"`
	Slug                string `json:"slug"`
}

// PublicListServices lists the active services of an active provider,
// cached per provider.
func (s *Server) PublicListServices(w http.ResponseWriter, r *http.Request) {
	log := s.logWithRequest(r)
	providerID := strings.TrimSpace(chi.URLParam(r, "id"))
	if providerID == "" {
		transport.WriteError(w, http.StatusBadRequest, "missing provider id", nil)
		return
	}

	cacheKey := "services:" + providerID
	if cached, ok, err := s.Cache.Get(r.Context(), cacheKey); err == nil && ok {
		writeCachedJSON(w, http.StatusOK, cached)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	provider, err := s.Store.GetProvider(ctx, providerID)
	if err != nil {
		if errors.Is(err, schedule.ErrNotFound) {
			transport.WriteError(w, http.StatusNotFound, "provider not found", nil)
			return
		}
		log.Error("services public list: database error", slog.String("error", err.Error()))
		transport.WriteError(w, http.StatusInternalServerError, "database error", nil)
		return
	}
	if !provider.IsActive {
		transport.WriteError(w, http.StatusNotFound, "provider not found", nil)
		return
	}

	cursor, err := s.Cols.Services.Find(ctx,
		bson.M{"providerId": providerID, "isActive": true},
		options.Find().SetSort(bson.D{{Key: "name", Value: 1}}),
	)
	if err != nil {
		log.Error("services public list: database error", slog.String("error", err.Error()))
		transport.WriteError(w, http.StatusInternalServerError, "database error", nil)
		return
	}
	defer cursor.Close(ctx)

	items := make([]models.Service, 0)
	if err := cursor.All(ctx, &items); err != nil {
		log.Error("services public list: decode error", slog.String("error", err.Error()))
		transport.WriteError(w, http.StatusInternalServerError, "database error", nil)
		return
	}

	payload := map[string]interface{}{"items": items}
	if raw, err := encodeJSON(payload); err == nil {
		ttl := time.Duration(s.Cfg.CacheTTLSeconds) * time.Second
		_ = s.Cache.Set(r.Context(), cacheKey, raw, ttl)
		writeCachedJSON(w, http.StatusOK, raw)
		return
	}

	log.Info("services public list: ok", slog.Int("count", len(items)))
	transport.WriteJSON(w, http.StatusOK, payload)
}

func (s *Server) PublicGetService(w http.ResponseWriter, r *http.Request) {
	log := s.logWithRequest(r)
	id := strings.TrimSpace(chi.URLParam(r, "id"))
	if id == "" {
		transport.WriteError(w, http.StatusBadRequest, "missing id", nil)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	svc, err := s.Store.GetService(ctx, id)
	if err != nil {
		if errors.Is(err, schedule.ErrNotFound) {
			transport.WriteError(w, http.StatusNotFound, "service not found", nil)
			return
		}
		log.Error("services public get: database error", slog.String("error", err.Error()))
		transport.WriteError(w, http.StatusInternalServerError, "database error", nil)
		return
	}
	if !svc.IsActive {
		transport.WriteError(w, http.StatusNotFound, "service not found", nil)
		return
	}

	transport.WriteJSON(w, http.StatusOK, svc)
}

func (s *Server) AdminListServices(w http.ResponseWriter, r *http.Request) {
	log := s.logWithRequest(r)
	limit, offset, err := httpx.ParseLimitOffset(r.URL.Query(), 20, 100)
	if err != nil {
		transport.WriteError(w, http.StatusBadRequest, err.Error(), nil)
		return
	}

	query := bson.M{}
	if providerID := strings.TrimSpace(r.URL.Query().Get("providerId")); providerID != "" {
		query["providerId"] = providerID
	}
	if r.URL.Query().Get("includeInactive") != "true" {
		query["isActive"] = true
	}

	ctx, cancel := context.WithTimeout(r.Context(), 8*time.Second)
	defer cancel()

	total, err := s.Cols.Services.CountDocuments(ctx, query)
	if err != nil {
		log.Error("admin services list: database error", slog.String("error", err.Error()))
		transport.WriteError(w, http.StatusInternalServerError, "database error", nil)
		return
	}

	cursor, err := s.Cols.Services.Find(ctx, query, options.Find().
		SetSort(bson.D{{Key: "name", Value: 1}}).
		SetLimit(limit).
		SetSkip(offset),
	)
	if err != nil {
		log.Error("admin services list: database error", slog.String("error", err.Error()))
		transport.WriteError(w, http.StatusInternalServerError, "database error", nil)
		return
	}
	defer cursor.Close(ctx)

	items := make([]models.Service, 0)
	if err := cursor.All(ctx, &items); err != nil {
		log.Error("admin services list: decode error", slog.String("error", err.Error()))
		transport.WriteError(w, http.StatusInternalServerError, "database error", nil)
		return
	}

	log.Info("admin services list: ok", slog.Int("count", len(items)))
	transport.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"items":  items,
		"limit":  limit,
		"offset": offset,
		"total":  total,
	})
}

func (s *Server) AdminCreateService(w http.ResponseWriter, r *http.Request) {
	log := s.logWithRequest(r)
	var req AdminServiceRequest
	if err := decodeJSON(r, &req); err != nil {
		log.Warn("admin services create: invalid json")
		transport.WriteError(w, http.StatusBadRequest, "invalid json", nil)
		return
	}
	if err := s.Val.Struct(req); err != nil {
		log.Warn("admin services create: validation error")
		details := validationDetails(s.Val.ValidationErrors(err))
		transport.WriteError(w, http.StatusBadRequest, "validation error", details)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 8*time.Second)
	defer cancel()

	if _, err := s.Store.GetProvider(ctx, req.ProviderID); err != nil {
		if errors.Is(err, schedule.ErrNotFound) {
			transport.WriteError(w, http.StatusBadRequest, "unknown provider", nil)
			return
		}
		log.Error("admin services create: database error", slog.String("error", err.Error()))
		transport.WriteError(w, http.StatusInternalServerError, "database error", nil)
		return
	}

	slug := strings.TrimSpace(req.Slug)
	if slug == "" {
		slug = utils.Slugify(req.Name)
	}

	isActive := true
	if req.IsActive != nil {
		isActive = *req.IsActive
	}

	now := time.Now().UTC()
	service := models.Service{
		ID:                  primitive.NewObjectID().Hex(),
		ProviderID:          req.ProviderID,
		Name:                strings.TrimSpace(req.Name),
		Slug:                slug,
		Description:         strings.TrimSpace(req.Description),
		DurationMinutes:     req.DurationMinutes,
		BufferBeforeMinutes: req.BufferBeforeMinutes,
		BufferAfterMinutes:  req.BufferAfterMinutes,
		SlotIntervalMinutes: req.SlotIntervalMinutes,
		RequiresStaff:       req.RequiresStaff,
		AnyStaffMember:      req.AnyStaffMember,
		MaxConcurrent:       req.MaxConcurrent,
		PriceCents:          req.PriceCents,
		Currency:            req.Currency,
		IsActive:            isActive,
		CreatedAt:           now,
		UpdatedAt:           now,
	}

	if _, err := s.Cols.Services.InsertOne(ctx, service); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			log.Warn("admin services create: slug exists", slog.String("slug", slug))
			transport.WriteError(w, http.StatusConflict, "slug already exists", nil)
			return
		}
		log.Error("admin services create: database error", slog.String("error", err.Error()))
		transport.WriteError(w, http.StatusInternalServerError, "database error", nil)
		return
	}

	s.invalidateServiceCaches(r.Context(), service.ProviderID)
	log.Info("admin services create: ok", slog.String("service_id", service.ID), slog.String("slug", slug))
	transport.WriteJSON(w, http.StatusCreated, service)
}

func (s *Server) AdminUpdateService(w http.ResponseWriter, r *http.Request) {
	log := s.logWithRequest(r)
	id := strings.TrimSpace(chi.URLParam(r, "id"))
	if id == "" {
		transport.WriteError(w, http.StatusBadRequest, "missing id", nil)
		return
	}

	var req AdminServiceRequest
	if err := decodeJSON(r, &req); err != nil {
		log.Warn("admin services update: invalid json")
		transport.WriteError(w, http.StatusBadRequest, "invalid json", nil)
		return
	}
	if err := s.Val.Struct(req); err != nil {
		log.Warn("admin services update: validation error")
		details := validationDetails(s.Val.ValidationErrors(err))
		transport.WriteError(w, http.StatusBadRequest, "validation error", details)
		return
	}

	slug := strings.TrimSpace(req.Slug)
	if slug == "" {
		slug = utils.Slugify(req.Name)
	}
	isActive := true
	if req.IsActive != nil {
		isActive = *req.IsActive
	}

	set := bson.M{
		"name":                strings.TrimSpace(req.Name),
		"slug":                slug,
		"description":         strings.TrimSpace(req.Description),
		"durationMinutes":     req.DurationMinutes,
		"bufferBeforeMinutes": req.BufferBeforeMinutes,
		"bufferAfterMinutes":  req.BufferAfterMinutes,
		"slotIntervalMinutes": req.SlotIntervalMinutes,
		"requiresStaff":       req.RequiresStaff,
		"anyStaffMember":      req.AnyStaffMember,
		"maxConcurrent":       req.MaxConcurrent,
		"priceCents":          req.PriceCents,
		"currency":            req.Currency,
		"isActive":            isActive,
		"updatedAt":           time.Now().UTC(),
	}

	ctx, cancel := context.WithTimeout(r.Context(), 8*time.Second)
	defer cancel()

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var updated models.Service
	if err := s.Cols.Services.FindOneAndUpdate(ctx, bson.M{"_id": id}, bson.M{"$set": set}, opts).Decode(&updated); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			transport.WriteError(w, http.StatusNotFound, "service not found", nil)
			return
		}
		if mongo.IsDuplicateKeyError(err) {
			transport.WriteError(w, http.StatusConflict, "slug already exists", nil)
			return
		}
		log.Error("admin services update: database error", slog.String("error", err.Error()))
		transport.WriteError(w, http.StatusInternalServerError, "database error", nil)
		return
	}

	s.invalidateServiceCaches(r.Context(), updated.ProviderID)
	log.Info("admin services update: ok", slog.String("service_id", id))
	transport.WriteJSON(w, http.StatusOK, updated)
}

// AdminDeactivateService retires a service; existing bookings keep pointing at
// its id and the slot surface simply stops offering it.
func (s *Server) AdminDeactivateService(w http.ResponseWriter, r *http.Request) {
	log := s.logWithRequest(r)
	id := strings.TrimSpace(chi.URLParam(r, "id"))
	if id == "" {
		transport.WriteError(w, http.StatusBadRequest, "missing id", nil)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	set := bson.M{"isActive": false, "updatedAt": time.Now().UTC()}
	var updated models.Service
	if err := s.Cols.Services.FindOneAndUpdate(ctx, bson.M{"_id": id}, bson.M{"$set": set}, opts).Decode(&updated); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			transport.WriteError(w, http.StatusNotFound, "service not found", nil)
			return
		}
		log.Error("admin services deactivate: database error", slog.String("error", err.Error()))
		transport.WriteError(w, http.StatusInternalServerError, "database error", nil)
		return
	}

	s.invalidateServiceCaches(r.Context(), updated.ProviderID)
	log.Info("admin services deactivate: ok", slog.String("service_id", id))
	transport.WriteJSON(w, http.StatusOK, map[string]string{"status": "deactivated"})
}

func (s *Server) invalidateServiceCaches(ctx context.Context, providerID string) {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	_ = s.Cache.Delete(ctx, "services:"+providerID)
	if err := s.Cache.DeletePrefix(ctx, "availability:"+providerID+":"); err != nil {
		s.Log.Warn("availability cache invalidation failed", slog.String("error", err.Error()))
	}
}
