package venue_api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"eventhub/internal/auth"
	"eventhub/internal/logger"
	"eventhub/internal/models"
	"eventhub/internal/venue"

	"github.com/go-chi/chi/v5"
)

type Handler struct {
	VenueService *venue.VenueService
	Logger       *logger.Logger
}

func NewHandler(venueService *venue.VenueService, log *logger.Logger) *Handler {
	return &Handler{VenueService: venueService, Logger: log}
}

func (h *Handler) CreateVenue(w http.ResponseWriter, r *http.Request) {
	var req models.VenueRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}

	ownerID := auth.UserID(r.Context())
	created, err := h.VenueService.CreateVenue(r.Context(), ownerID, req)
	if err != nil {
		h.Logger.Error("API", fmt.Sprintf("CreateVenue: %v", err))
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	if err := json.NewEncoder(w).Encode(created); err != nil {
		h.Logger.Error("API", fmt.Sprintf("CreateVenue: failed to encode response: %v", err))
		return
	}
	h.Logger.Info("API", fmt.Sprintf("CreateVenue: venue %s created (pending approval)", created.ID))
}

func (h *Handler) GetVenue(w http.ResponseWriter, r *http.Request) {
	venueID := chi.URLParam(r, "venueId")

	found, err := h.VenueService.GetVenue(r.Context(), venueID)
	if err != nil {
		http.Error(w, "Venue not found", http.StatusNotFound)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(found); err != nil {
		h.Logger.Error("API", fmt.Sprintf("GetVenue: failed to encode response: %v", err))
	}
}

func (h *Handler) ListVenues(w http.ResponseWriter, r *http.Request) {
	status := models.ApprovalStatus(r.URL.Query().Get("status"))

	venues, err := h.VenueService.ListVenues(r.Context(), status)
	if err != nil {
		h.Logger.Error("API", fmt.Sprintf("ListVenues: %v", err))
		http.Error(w, "Failed to list venues: "+err.Error(), http.StatusInternalServerError)
		return
	}
	if venues == nil {
		venues = []models.Venue{}
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(venues); err != nil {
		h.Logger.Error("API", fmt.Sprintf("ListVenues: failed to encode response: %v", err))
	}
}

// SetApproval handles the admin decision; the admin role check sits in the
// route middleware.
func (h *Handler) SetApproval(w http.ResponseWriter, r *http.Request) {
	venueID := chi.URLParam(r, "venueId")
	h.Logger.Info("API", fmt.Sprintf("SetApproval: venueId=%s", venueID))

	var req models.ApprovalRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}

	updated, err := h.VenueService.SetApproval(r.Context(), venueID, req)
	if err != nil {
		h.Logger.Error("API", fmt.Sprintf("SetApproval: %v", err))
		http.Error(w, err.Error(), statusForVenueError(err))
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(updated); err != nil {
		h.Logger.Error("API", fmt.Sprintf("SetApproval: failed to encode response: %v", err))
		return
	}
	h.Logger.Info("API", fmt.Sprintf("SetApproval: venue %s is now %s", updated.ID, updated.ApprovalStatus))
}

func statusForVenueError(err error) int {
	switch {
	case errors.Is(err, venue.ErrVenueNotFound):
		return http.StatusNotFound
	case errors.Is(err, venue.ErrInvalidAction), errors.Is(err, venue.ErrReasonRequired):
		return http.StatusBadRequest
	case errors.Is(err, venue.ErrAlreadyDecided):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}
