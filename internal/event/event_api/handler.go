package event_api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"eventhub/internal/auth"
	"eventhub/internal/event"
	"eventhub/internal/logger"
	"eventhub/internal/models"

	"github.com/go-chi/chi/v5"
)

type Handler struct {
	EventService *event.EventService
	Logger       *logger.Logger
}

func NewHandler(eventService *event.EventService, log *logger.Logger) *Handler {
	return &Handler{EventService: eventService, Logger: log}
}

func (h *Handler) CreateEvent(w http.ResponseWriter, r *http.Request) {
	h.Logger.Info("API", "CreateEvent: received request")

	var req models.EventRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.Logger.Error("API", fmt.Sprintf("CreateEvent: failed to decode request body: %v", err))
		http.Error(w, "Invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}

	organizerID := auth.UserID(r.Context())
	created, err := h.EventService.CreateEvent(r.Context(), organizerID, req)
	if err != nil {
		h.Logger.Error("API", fmt.Sprintf("CreateEvent: %v", err))
		http.Error(w, err.Error(), statusForEventError(err))
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	if err := json.NewEncoder(w).Encode(created); err != nil {
		h.Logger.Error("API", fmt.Sprintf("CreateEvent: failed to encode response: %v", err))
		return
	}
	h.Logger.Info("API", fmt.Sprintf("CreateEvent: event %s created", created.ID))
}

func (h *Handler) UpdateEvent(w http.ResponseWriter, r *http.Request) {
	eventID := chi.URLParam(r, "eventId")
	h.Logger.Info("API", fmt.Sprintf("UpdateEvent: eventId=%s", eventID))

	var req models.EventRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}

	organizerID := auth.UserID(r.Context())
	updated, err := h.EventService.UpdateEvent(r.Context(), eventID, organizerID, req)
	if err != nil {
		h.Logger.Error("API", fmt.Sprintf("UpdateEvent: %v", err))
		http.Error(w, err.Error(), statusForEventError(err))
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(updated); err != nil {
		h.Logger.Error("API", fmt.Sprintf("UpdateEvent: failed to encode response: %v", err))
	}
}

func (h *Handler) GetEvent(w http.ResponseWriter, r *http.Request) {
	eventID := chi.URLParam(r, "eventId")

	found, err := h.EventService.GetEvent(r.Context(), eventID)
	if err != nil {
		h.Logger.Error("API", fmt.Sprintf("GetEvent: event not found: %v", err))
		http.Error(w, "Event not found", http.StatusNotFound)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(found); err != nil {
		h.Logger.Error("API", fmt.Sprintf("GetEvent: failed to encode response: %v", err))
	}
}

func (h *Handler) ListEvents(w http.ResponseWriter, r *http.Request) {
	q := models.EventListQuery{
		Category: r.URL.Query().Get("category"),
		Status:   models.EventStatus(r.URL.Query().Get("status")),
		Sort:     r.URL.Query().Get("sort"),
	}
	if lat, err := strconv.ParseFloat(r.URL.Query().Get("latitude"), 64); err == nil {
		q.Latitude = &lat
	}
	if lon, err := strconv.ParseFloat(r.URL.Query().Get("longitude"), 64); err == nil {
		q.Longitude = &lon
	}
	if page, err := strconv.Atoi(r.URL.Query().Get("page")); err == nil {
		q.Page = page
	}
	if limit, err := strconv.Atoi(r.URL.Query().Get("limit")); err == nil {
		q.Limit = limit
	}

	events, err := h.EventService.ListEvents(r.Context(), q)
	if err != nil {
		h.Logger.Error("API", fmt.Sprintf("ListEvents: %v", err))
		http.Error(w, "Failed to list events: "+err.Error(), http.StatusInternalServerError)
		return
	}
	if events == nil {
		events = []models.Event{}
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(events); err != nil {
		h.Logger.Error("API", fmt.Sprintf("ListEvents: failed to encode response: %v", err))
	}
}

func statusForEventError(err error) int {
	var ve *event.ValidationError
	switch {
	case errors.As(err, &ve):
		return http.StatusBadRequest
	case errors.Is(err, event.ErrCapacityExceeded),
		errors.Is(err, event.ErrVenueCapacityExceeded),
		errors.Is(err, event.ErrVenueNotApproved),
		errors.Is(err, event.ErrEventStarted),
		errors.Is(err, event.ErrCapacityBelowSold):
		return http.StatusUnprocessableEntity
	case errors.Is(err, event.ErrNotOwner):
		return http.StatusForbidden
	case errors.Is(err, event.ErrEventNotFound):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}
