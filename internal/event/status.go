package event

import (
	"time"

	"eventhub/internal/models"
)

// DeriveStatus computes an event's status from the clock. Manual overrides
// (cancelled, postponed) always win; otherwise the status follows the
// start/end window.
func DeriveStatus(now time.Time, e models.Event) models.EventStatus {
	if e.Status.ManualOverride() {
		return e.Status
	}
	switch {
	case now.Before(e.DateTime.StartDate):
		return models.EventUpcoming
	case now.Before(e.DateTime.EndDate):
		return models.EventOngoing
	default:
		return models.EventCompleted
	}
}
