package main

import (
	"context"
	"log"
	"os"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"bookwise-backend/internal/auth"
	"bookwise-backend/internal/config"
	"bookwise-backend/internal/db"
	"bookwise-backend/internal/models"
	"bookwise-backend/internal/utils"
)

// Seeds a demo provider with services, staff and weekly hours so the API is
// usable straight after a fresh deploy. Re-running is safe: every write is an
// upsert keyed on a stable id or slug.

const (
	providerID  = "prov-demo-oslo"
	svcHaircut  = "svc-haircut"
	svcColoring = "svc-coloring"
	svcOpenGym  = "svc-open-gym"
	staffDana   = "staff-dana"
	staffJonas  = "staff-jonas"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	client, cols, err := db.Connect(ctx, cfg.MongoURI, cfg.MongoDB)
	if err != nil {
		log.Fatal(err)
	}
	defer client.Disconnect(context.Background())

	if err := db.EnsureIndexes(ctx, cols); err != nil {
		log.Fatal(err)
	}

	now := time.Now().UTC()

	upsert := func(col *mongo.Collection, filter, onInsert bson.M) {
		_, err := col.UpdateOne(ctx, filter, bson.M{"$setOnInsert": onInsert}, options.Update().SetUpsert(true))
		if err != nil {
			log.Fatalf("seed error on %s: %v", col.Name(), err)
		}
	}

	upsert(cols.Providers, bson.M{"_id": providerID}, bson.M{
		"_id":       providerID,
		"name":      "Oslo Hair & Spa",
		"slug":      utils.Slugify("Oslo Hair & Spa"),
		"email":     "hello@oslohair.example",
		"timezone":  "Europe/Oslo",
		"isActive":  true,
		"createdAt": now,
		"updatedAt": now,
	})

	services := []models.Service{
		{
			ID:                 svcHaircut,
			Name:               "Haircut",
			Description:        "Classic cut with wash and styling.",
			DurationMinutes:    60,
			BufferAfterMinutes: 15,
			RequiresStaff:      true,
			AnyStaffMember:     false,
			MaxConcurrent:      2,
			PriceCents:         45000,
			Currency:           "NOK",
		},
		{
			ID:                  svcColoring,
			Name:                "Coloring",
			Description:         "Full color treatment.",
			DurationMinutes:     90,
			BufferBeforeMinutes: 15,
			BufferAfterMinutes:  15,
			SlotIntervalMinutes: 30,
			RequiresStaff:       true,
			AnyStaffMember:      true,
			MaxConcurrent:       1,
			PriceCents:          120000,
			Currency:            "NOK",
		},
		{
			ID:              svcOpenGym,
			Name:            "Open Spa Access",
			Description:     "Unstaffed spa entry, capacity limited.",
			DurationMinutes: 120,
			MaxConcurrent:   10,
			PriceCents:      25000,
			Currency:        "NOK",
		},
	}
	for _, svc := range services {
		upsert(cols.Services, bson.M{"_id": svc.ID}, bson.M{
			"_id":                 svc.ID,
			"providerId":          providerID,
			"name":                svc.Name,
			"slug":                utils.Slugify(svc.Name),
			"description":         svc.Description,
			"durationMinutes":     svc.DurationMinutes,
			"bufferBeforeMinutes": svc.BufferBeforeMinutes,
			"bufferAfterMinutes":  svc.BufferAfterMinutes,
			"slotIntervalMinutes": svc.SlotIntervalMinutes,
			"requiresStaff":       svc.RequiresStaff,
			"anyStaffMember":      svc.AnyStaffMember,
			"maxConcurrent":       svc.MaxConcurrent,
			"priceCents":          svc.PriceCents,
			"currency":            svc.Currency,
			"isActive":            true,
			"createdAt":           now,
			"updatedAt":           now,
		})
	}

	staffMembers := []struct {
		ID       string
		Name     string
		Services []string
	}{
		{ID: staffDana, Name: "Dana", Services: []string{svcHaircut, svcColoring}},
		{ID: staffJonas, Name: "Jonas", Services: []string{svcHaircut}},
	}
	for _, member := range staffMembers {
		upsert(cols.Staff, bson.M{"_id": member.ID}, bson.M{
			"_id":        member.ID,
			"providerId": providerID,
			"name":       member.Name,
			"serviceIds": member.Services,
			"isActive":   true,
			"createdAt":  now,
			"updatedAt":  now,
		})
	}

	// Open Monday through Saturday; Saturday closes early, Sunday is absent
	// and therefore closed.
	for day := 1; day <= 6; day++ {
		closeTime := "17:00"
		if day == 6 {
			closeTime = "14:00"
		}
		upsert(cols.BusinessHours, bson.M{"providerId": providerID, "dayOfWeek": day}, bson.M{
			"_id":        "hours-demo-" + string(rune('0'+day)),
			"providerId": providerID,
			"dayOfWeek":  day,
			"isOpen":     true,
			"openTime":   "09:00",
			"closeTime":  closeTime,
			"createdAt":  now,
			"updatedAt":  now,
		})
	}

	seedAdmin(ctx, cols, now)

	log.Println("seed complete")
}

func seedAdmin(ctx context.Context, cols *db.Collections, now time.Time) {
	username := envOrDefault("ADMIN_USER", "admin")
	password := os.Getenv("ADMIN_PASSWORD")
	if password == "" {
		log.Println("ADMIN_PASSWORD not set, skipping admin user seed")
		return
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		log.Fatalf("seed admin: %v", err)
	}

	_, err = cols.Users.UpdateOne(ctx,
		bson.M{"username": username},
		bson.M{"$setOnInsert": bson.M{
			"_id":          "user-" + username,
			"username":     username,
			"email":        envOrDefault("ADMIN_EMAIL", ""),
			"passwordHash": hash,
			"role":         models.UserRoleAdmin,
			"createdAt":    now,
			"updatedAt":    now,
		}},
		options.Update().SetUpsert(true),
	)
	if err != nil {
		log.Fatalf("seed admin: %v", err)
	}
}

func envOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
