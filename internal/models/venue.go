package models

import (
	"math"
	"time"

	"github.com/uptrace/bun"
)

type ApprovalStatus string

const (
	VenuePending  ApprovalStatus = "pending"
	VenueApproved ApprovalStatus = "approved"
	VenueRejected ApprovalStatus = "rejected"
)

type Venue struct {
	bun.BaseModel `bun:"table:venues"`

	ID              string         `bun:"venue_id,pk" json:"id"`
	Name            string         `bun:"name,notnull" json:"name"`
	Address         string         `bun:"address" json:"address"`
	City            string         `bun:"city" json:"city"`
	Capacity        int            `bun:"capacity" json:"capacity"`
	Latitude        float64        `bun:"latitude" json:"latitude"`
	Longitude       float64        `bun:"longitude" json:"longitude"`
	ApprovalStatus  ApprovalStatus `bun:"approval_status" json:"approvalStatus"`
	RejectionReason string         `bun:"rejection_reason,nullzero" json:"rejectionReason,omitempty"`
	OwnerID         string         `bun:"owner_id" json:"ownerId"`
	CreatedAt       time.Time      `bun:"created_at,notnull" json:"createdAt"`
	UpdatedAt       time.Time      `bun:"updated_at" json:"updatedAt"`
}

type VenueRequest struct {
	Name      string  `json:"name"`
	Address   string  `json:"address"`
	City      string  `json:"city"`
	Capacity  int     `json:"capacity"`
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

type ApprovalRequest struct {
	Action          string `json:"action"` // approve | reject
	RejectionReason string `json:"rejectionReason,omitempty"`
}

// DistanceKm returns the great-circle distance from the venue to the given
// coordinates, used for nearest-first event listings.
func (v *Venue) DistanceKm(lat, lon float64) float64 {
	const earthRadiusKm = 6371.0

	rad := func(d float64) float64 { return d * math.Pi / 180 }
	dLat := rad(lat - v.Latitude)
	dLon := rad(lon - v.Longitude)

	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(rad(v.Latitude))*math.Cos(rad(lat))*math.Sin(dLon/2)*math.Sin(dLon/2)
	return earthRadiusKm * 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
}
