package event

import (
	"testing"
	"time"

	"eventhub/internal/models"
)

func TestDeriveStatus(t *testing.T) {
	start := time.Date(2026, 9, 10, 18, 0, 0, 0, time.UTC)
	end := start.Add(4 * time.Hour)

	base := models.Event{
		Status:   models.EventUpcoming,
		DateTime: models.DateTime{StartDate: start, EndDate: end},
	}

	cases := []struct {
		name     string
		now      time.Time
		override models.EventStatus
		want     models.EventStatus
	}{
		{"before start", start.Add(-time.Hour), "", models.EventUpcoming},
		{"at start", start, "", models.EventOngoing},
		{"during", start.Add(time.Hour), "", models.EventOngoing},
		{"at end", end, "", models.EventCompleted},
		{"after end", end.Add(time.Hour), "", models.EventCompleted},
		{"cancelled wins over window", start.Add(time.Hour), models.EventCancelled, models.EventCancelled},
		{"postponed wins even after end", end.Add(time.Hour), models.EventPostponed, models.EventPostponed},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			e := base
			if tc.override != "" {
				e.Status = tc.override
			}
			got := DeriveStatus(tc.now, e)
			if got != tc.want {
				t.Errorf("DeriveStatus(%s) = %s, want %s", tc.now, got, tc.want)
			}
		})
	}
}
