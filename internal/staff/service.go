package staff

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
)

var (
	ErrNotFound         = errors.New("staff member not found")
	ErrOverrideNotFound = errors.New("override not found")
)

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (s *Service) Create(ctx context.Context, req UpsertRequest) (models.StaffMember, error) {
	now := time.Now().UTC()
	isActive := true
	if req.IsActive != nil {
		isActive = *req.IsActive
	}

	item := models.StaffMember{
		ID:         primitive.NewObjectID().Hex(),
		ProviderID: strings.TrimSpace(req.ProviderID),
		Name:       strings.TrimSpace(req.Name),
		Email:      strings.TrimSpace(req.Email),
		ServiceIDs: dedupe(req.ServiceIDs),
		IsActive:   isActive,
		CreatedAt:  now,
		UpdatedAt:  now,
	}

	if err := s.repo.Create(ctx, item); err != nil {
		return models.StaffMember{}, err
	}
	return item, nil
}

func (s *Service) Update(ctx context.Context, id string, req UpsertRequest) (models.StaffMember, error) {
	isActive := true
	if req.IsActive != nil {
		isActive = *req.IsActive
	}

	set := bson.M{
		"name":       strings.TrimSpace(req.Name),
		"email":      strings.TrimSpace(req.Email),
		"serviceIds": dedupe(req.ServiceIDs),
		"isActive":   isActive,
		"updatedAt":  time.Now().UTC(),
	}

	updated, err := s.repo.Update(ctx, strings.TrimSpace(id), set)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return models.StaffMember{}, ErrNotFound
		}
		return models.StaffMember{}, err
	}
	return updated, nil
}

// Deactivate retires the staff member; historical bookings keep the id.
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

func (s *Service) Get(ctx context.Context, id string) (models.StaffMember, error) {
	item, err := s.repo.GetByID(ctx, strings.TrimSpace(id))
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return models.StaffMember{}, ErrNotFound
		}
		return models.StaffMember{}, err
	}
	return item, nil
}

func (s *Service) List(ctx context.Context, filter AdminListFilter, limit, offset int64) ([]models.StaffMember, int64, error) {
	items, err := s.repo.List(ctx, filter, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	total, err := s.repo.Count(ctx, filter)
	if err != nil {
		return nil, 0, err
	}
	return items, total, nil
}

func (s *Service) AssignServices(ctx context.Context, id string, req AssignServicesRequest) (models.StaffMember, error) {
	set := bson.M{
		"serviceIds": dedupe(req.ServiceIDs),
		"updatedAt":  time.Now().UTC(),
	}
	updated, err := s.repo.Update(ctx, strings.TrimSpace(id), set)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return models.StaffMember{}, ErrNotFound
		}
		return models.StaffMember{}, err
	}
	return updated, nil
}

func (s *Service) CreateOverride(ctx context.Context, staffID string, req OverrideRequest) (models.StaffAvailability, error) {
	staffID = strings.TrimSpace(staffID)
	if _, err := s.Get(ctx, staffID); err != nil {
		return models.StaffAvailability{}, err
	}

	start, err := time.Parse(time.RFC3339, req.Start)
	if err != nil {
		return models.StaffAvailability{}, fmt.Errorf("%w: start", schedule.ErrInvalidTime)
	}
	end, err := time.Parse(time.RFC3339, req.End)
	if err != nil {
		return models.StaffAvailability{}, fmt.Errorf("%w: end", schedule.ErrInvalidTime)
	}
	if !end.After(start) {
		return models.StaffAvailability{}, schedule.ErrInvalidTimeRange
	}

	item := models.StaffAvailability{
		ID:        primitive.NewObjectID().Hex(),
		StaffID:   staffID,
		Start:     start.UTC(),
		End:       end.UTC(),
		Type:      req.Type,
		Reason:    strings.TrimSpace(req.Reason),
		CreatedAt: time.Now().UTC(),
	}
	if err := s.repo.CreateOverride(ctx, item); err != nil {
		return models.StaffAvailability{}, err
	}
	return item, nil
}

func (s *Service) DeleteOverride(ctx context.Context, staffID, overrideID string) error {
	deleted, err := s.repo.DeleteOverride(ctx, strings.TrimSpace(staffID), strings.TrimSpace(overrideID))
	if err != nil {
		return err
	}
	if !deleted {
		return ErrOverrideNotFound
	}
	return nil
}

func (s *Service) ListOverrides(ctx context.Context, staffID string, from, to time.Time) ([]models.StaffAvailability, error) {
	staffID = strings.TrimSpace(staffID)
	if _, err := s.Get(ctx, staffID); err != nil {
		return nil, err
	}
	return s.repo.ListOverrides(ctx, staffID, from, to)
}

func dedupe(ids []string) []string {
	seen := make(map[string]bool, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		id = strings.TrimSpace(id)
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	return out
}
