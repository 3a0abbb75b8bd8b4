package handlers

import (
	"testing"

	"bookwise-backend/internal/models"
)

func TestLostCapacityRaceDeterministic(t *testing.T) {
	overlapping := []models.Booking{{ID: "b1"}, {ID: "b2"}, {ID: "b3"}}

	// Two seats, three overlapping rows: only the largest id withdraws.
	if lostCapacityRace("b1", overlapping, 2) {
		t.Fatalf("b1 holds a seat and must not withdraw")
	}
	if lostCapacityRace("b2", overlapping, 2) {
		t.Fatalf("b2 holds a seat and must not withdraw")
	}
	if !lostCapacityRace("b3", overlapping, 2) {
		t.Fatalf("b3 is over capacity and must withdraw")
	}
}

func TestLostCapacityRaceAtCapacity(t *testing.T) {
	overlapping := []models.Booking{{ID: "b1"}, {ID: "b2"}}
	for _, id := range []string{"b1", "b2"} {
		if lostCapacityRace(id, overlapping, 2) {
			t.Fatalf("no withdrawal at exactly maxConcurrent, id=%s", id)
		}
	}
}
