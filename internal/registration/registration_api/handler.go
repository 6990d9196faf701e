package registration_api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"eventhub/internal/auth"
	"eventhub/internal/logger"
	"eventhub/internal/models"
	"eventhub/internal/registration"
	"eventhub/internal/selection"

	"github.com/go-chi/chi/v5"
)

type Handler struct {
	RegistrationService *registration.RegistrationService
	Logger              *logger.Logger
}

func NewHandler(svc *registration.RegistrationService, log *logger.Logger) *Handler {
	return &Handler{RegistrationService: svc, Logger: log}
}

// RegisterFree handles POST /api/events/{eventId}/register.
func (h *Handler) RegisterFree(w http.ResponseWriter, r *http.Request) {
	eventID := chi.URLParam(r, "eventId")
	h.Logger.Info("API", fmt.Sprintf("RegisterFree: eventId=%s", eventID))

	var req models.RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}

	userID := auth.UserID(r.Context())
	reg, err := h.RegistrationService.RegisterFree(r.Context(), userID, eventID, req)
	if err != nil {
		h.Logger.Error("API", fmt.Sprintf("RegisterFree: %v", err))
		http.Error(w, err.Error(), statusForLedgerError(err))
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	if err := json.NewEncoder(w).Encode(reg); err != nil {
		h.Logger.Error("API", fmt.Sprintf("RegisterFree: failed to encode response: %v", err))
		return
	}
	h.Logger.LogRegistration("FREE", reg.ID, fmt.Sprintf("user %s registered for event %s", userID, eventID))
}

// CreateOrder handles POST /payments/create-order.
func (h *Handler) CreateOrder(w http.ResponseWriter, r *http.Request) {
	var req models.CreateOrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}
	h.Logger.Info("API", fmt.Sprintf("CreateOrder: eventId=%s tier=%s qty=%d", req.EventID, req.TicketType, req.Quantity))

	userID := auth.UserID(r.Context())
	resp, err := h.RegistrationService.CreateOrder(r.Context(), userID, req)
	if err != nil {
		h.Logger.Error("API", fmt.Sprintf("CreateOrder: %v", err))
		http.Error(w, err.Error(), statusForLedgerError(err))
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		h.Logger.Error("API", fmt.Sprintf("CreateOrder: failed to encode response: %v", err))
		return
	}
	h.Logger.LogRegistration("ORDER", resp.OrderID, "order opened")
}

// VerifyPayment handles POST /payments/verify.
func (h *Handler) VerifyPayment(w http.ResponseWriter, r *http.Request) {
	var req models.VerifyPaymentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}
	h.Logger.Info("API", fmt.Sprintf("VerifyPayment: orderId=%s", req.OrderID))

	reg, err := h.RegistrationService.VerifyPayment(r.Context(), req)
	if err != nil {
		h.Logger.Error("API", fmt.Sprintf("VerifyPayment: %v", err))
		http.Error(w, err.Error(), statusForLedgerError(err))
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(reg); err != nil {
		h.Logger.Error("API", fmt.Sprintf("VerifyPayment: failed to encode response: %v", err))
		return
	}
	h.Logger.LogRegistration("VERIFY", req.OrderID, fmt.Sprintf("registration %s is %s", reg.ID, reg.PaymentStatus))
}

// ListRegistrations handles GET /api/registrations for the caller.
func (h *Handler) ListRegistrations(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserID(r.Context())

	regs, err := h.RegistrationService.GetRegistrations(r.Context(), userID)
	if err != nil {
		h.Logger.Error("API", fmt.Sprintf("ListRegistrations: %v", err))
		http.Error(w, "Failed to list registrations: "+err.Error(), http.StatusInternalServerError)
		return
	}
	if regs == nil {
		regs = []models.Registration{}
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(regs); err != nil {
		h.Logger.Error("API", fmt.Sprintf("ListRegistrations: failed to encode response: %v", err))
	}
}

func statusForLedgerError(err error) int {
	switch {
	case errors.Is(err, registration.ErrEventNotFound),
		errors.Is(err, registration.ErrOrderNotFound):
		return http.StatusNotFound
	case errors.Is(err, registration.ErrEventFull),
		errors.Is(err, registration.ErrTierUnavailable),
		errors.Is(err, registration.ErrDuplicateRegistration),
		errors.Is(err, registration.ErrRegistrationInProgress),
		errors.Is(err, registration.ErrOrderNotPayable):
		return http.StatusConflict
	case errors.Is(err, registration.ErrPaymentVerificationFailed):
		return http.StatusPaymentRequired
	case errors.Is(err, registration.ErrEventNotOpen),
		errors.Is(err, registration.ErrFreeEvent),
		errors.Is(err, registration.ErrPaidEvent),
		errors.Is(err, selection.ErrNegativeQuantity),
		errors.Is(err, selection.ErrExceedsPerUserLimit),
		errors.Is(err, selection.ErrExceedsAvailable),
		errors.Is(err, selection.ErrUnknownTier):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}
