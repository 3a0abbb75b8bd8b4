package providers

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"bookwise-backend/internal/models"
	"bookwise-backend/internal/schedule"
	"bookwise-backend/internal/utils"
)

var (
	ErrNotFound  = errors.New("provider not found")
	ErrSlugTaken = errors.New("provider slug already in use")
)

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (s *Service) Create(ctx context.Context, req UpsertRequest) (models.Provider, error) {
	now := time.Now().UTC()
	isActive := true
	if req.IsActive != nil {
		isActive = *req.IsActive
	}

	item := models.Provider{
		ID:        primitive.NewObjectID().Hex(),
		Name:      strings.TrimSpace(req.Name),
		Slug:      utils.Slugify(req.Name),
		Email:     strings.TrimSpace(req.Email),
		Timezone:  strings.TrimSpace(req.Timezone),
		IsActive:  isActive,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := s.repo.Create(ctx, item); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return models.Provider{}, ErrSlugTaken
		}
		return models.Provider{}, err
	}
	return item, nil
}

func (s *Service) Update(ctx context.Context, id string, req UpsertRequest) (models.Provider, error) {
	isActive := true
	if req.IsActive != nil {
		isActive = *req.IsActive
	}

	set := bson.M{
		"name":      strings.TrimSpace(req.Name),
		"slug":      utils.Slugify(req.Name),
		"email":     strings.TrimSpace(req.Email),
		"timezone":  strings.TrimSpace(req.Timezone),
		"isActive":  isActive,
		"updatedAt": time.Now().UTC(),
	}

	updated, err := s.repo.Update(ctx, strings.TrimSpace(id), set)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return models.Provider{}, ErrNotFound
		}
		if mongo.IsDuplicateKeyError(err) {
			return models.Provider{}, ErrSlugTaken
		}
		return models.Provider{}, err
	}
	return updated, nil
}

// Deactivate is the delete operation: bookings reference providers by id, so
// rows are retired instead of removed.
func (s *Service) Deactivate(ctx context.Context, id string) error {
	set := bson.M{"isActive": false, "updatedAt": time.Now().UTC()}
	if _, err := s.repo.Update(ctx, strings.TrimSpace(id), set); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return ErrNotFound
		}
		return err
	}
	return nil
}

func (s *Service) GetBySlug(ctx context.Context, slug string) (models.Provider, error) {
	item, err := s.repo.GetBySlug(ctx, strings.TrimSpace(slug))
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return models.Provider{}, ErrNotFound
		}
		return models.Provider{}, err
	}
	if !item.IsActive {
		return models.Provider{}, ErrNotFound
	}
	return item, nil
}

func (s *Service) ListPublic(ctx context.Context) ([]models.Provider, error) {
	return s.repo.ListPublic(ctx)
}

func (s *Service) ListAdmin(ctx context.Context, filter AdminListFilter, limit, offset int64) ([]models.Provider, int64, error) {
	items, err := s.repo.ListAdmin(ctx, filter, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	total, err := s.repo.CountAdmin(ctx, filter)
	if err != nil {
		return nil, 0, err
	}
	return items, total, nil
}

func (s *Service) ListHours(ctx context.Context, providerID string) ([]models.BusinessHoursRule, error) {
	if _, err := s.repo.GetByID(ctx, strings.TrimSpace(providerID)); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return s.repo.ListHours(ctx, providerID)
}

// SetHours validates and replaces the weekly template. Open rules must have
// openTime strictly before closeTime; a weekday may appear at most once.
func (s *Service) SetHours(ctx context.Context, providerID string, req SetHoursRequest) ([]models.BusinessHoursRule, error) {
	providerID = strings.TrimSpace(providerID)
	if _, err := s.repo.GetByID(ctx, providerID); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	now := time.Now().UTC()
	seen := make(map[int]bool, len(req.Rules))
	rules := make([]models.BusinessHoursRule, 0, len(req.Rules))
	for _, rr := range req.Rules {
		day := *rr.DayOfWeek
		if seen[day] {
			return nil, fmt.Errorf("%w: duplicate rule for weekday %d", schedule.ErrInvalidTimeRange, day)
		}
		seen[day] = true

		rule := models.BusinessHoursRule{
			ID:         primitive.NewObjectID().Hex(),
			ProviderID: providerID,
			DayOfWeek:  day,
			IsOpen:     *rr.IsOpen,
			CreatedAt:  now,
			UpdatedAt:  now,
		}
		if rule.IsOpen {
			open, err := schedule.ParseClockToMinutes(rr.OpenTime)
			if err != nil {
				return nil, err
			}
			close, err := schedule.ParseClockToMinutes(rr.CloseTime)
			if err != nil {
				return nil, err
			}
			if open >= close {
				return nil, fmt.Errorf("%w: weekday %d opens at or after close", schedule.ErrInvalidTimeRange, day)
			}
			rule.OpenTime = rr.OpenTime
			rule.CloseTime = rr.CloseTime
		}
		rules = append(rules, rule)
	}

	if err := s.repo.ReplaceHours(ctx, providerID, rules); err != nil {
		return nil, err
	}
	return rules, nil
}
