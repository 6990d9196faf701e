package registration

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"eventhub/internal/clock"
	"eventhub/internal/models"
	"eventhub/internal/monitoring"
	"eventhub/internal/payments"
	"eventhub/internal/registration/db"
	"eventhub/internal/registration/qr"
	"eventhub/internal/selection"
	"eventhub/internal/utils"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type DBLayer interface {
	CreateRegistration(ctx context.Context, reg models.Registration) error
	GetRegistrationByOrderID(ctx context.Context, orderID string) (*models.Registration, error)
	GetActiveRegistration(ctx context.Context, eventID, userID string) (*models.Registration, error)
	GetRegistrationsByUser(ctx context.Context, userID string) ([]models.Registration, error)
	MarkFailed(ctx context.Context, orderID string) error
	CompleteRegistration(ctx context.Context, orderID, ticketNumber string, qrCode []byte) (*models.Registration, bool, error)
	CreateCompletedRegistration(ctx context.Context, reg models.Registration) error
}

type RedisLock interface {
	LockRegistration(eventID, userID, orderID string) (bool, error)
	UnlockRegistration(eventID, userID, orderID string) error
}

type KafkaPublisher interface {
	Publish(topic string, key string, value []byte) error
}

type EventReader interface {
	GetEvent(ctx context.Context, id string) (*models.Event, error)
}

// RegistrationService is the ledger: the authoritative record of who holds a
// ticket for what, and the only code path that mutates tier available/sold
// counts.
type RegistrationService struct {
	DB       DBLayer
	Redis    RedisLock
	Kafka    KafkaPublisher
	Events   EventReader
	Provider payments.Provider
	QR       *qr.Generator
	Clock    clock.Clock

	// Verification retry policy: exponential backoff between attempts,
	// terminal failed state once either budget runs out.
	MaxVerifyAttempts int
	VerifyBackoff     time.Duration
}

func NewRegistrationService(dbl DBLayer, redis RedisLock, kafka KafkaPublisher, events EventReader, provider payments.Provider, qrGen *qr.Generator, clk clock.Clock) *RegistrationService {
	return &RegistrationService{
		DB:                dbl,
		Redis:             redis,
		Kafka:             kafka,
		Events:            events,
		Provider:          provider,
		QR:                qrGen,
		Clock:             clk,
		MaxVerifyAttempts: 3,
		VerifyBackoff:     200 * time.Millisecond,
	}
}

// CreateOrder opens a payment order for one paid-event registration.
func (s *RegistrationService) CreateOrder(ctx context.Context, userID string, req models.CreateOrderRequest) (*models.CreateOrderResponse, error) {
	event, tier, err := s.admissibleEvent(ctx, req.EventID, req.TicketType, req.Quantity)
	if err != nil {
		return nil, err
	}
	if event.Pricing.IsFree {
		return nil, ErrFreeEvent
	}
	if tier == nil {
		return nil, ErrTierUnavailable
	}

	if existing, err := s.DB.GetActiveRegistration(ctx, event.ID, userID); err != nil {
		return nil, fmt.Errorf("failed to check existing registration: %w", err)
	} else if existing != nil {
		if existing.PaymentStatus == models.PaymentPending {
			return nil, ErrRegistrationInProgress
		}
		return nil, ErrDuplicateRegistration
	}

	orderID := utils.GenerateOrderID()

	ok, err := s.Redis.LockRegistration(event.ID, userID, orderID)
	if err != nil {
		return nil, fmt.Errorf("redis lock error: %w", err)
	}
	if !ok {
		return nil, ErrRegistrationInProgress
	}

	amount := decimal.NewFromFloat(tier.Price).Mul(decimal.NewFromInt(int64(req.Quantity)))

	providerOrder, err := s.Provider.CreateOrder(ctx, orderID, amount, tier.Currency)
	if err != nil {
		_ = s.Redis.UnlockRegistration(event.ID, userID, orderID)
		return nil, fmt.Errorf("payment provider error: %w", err)
	}

	now := s.Clock.Now()
	reg := models.Registration{
		ID:            uuid.NewString(),
		EventID:       event.ID,
		UserID:        userID,
		TicketType:    tier.Type,
		Quantity:      req.Quantity,
		Amount:        providerOrder.Amount.InexactFloat64(),
		Currency:      providerOrder.Currency,
		OrderID:       orderID,
		PaymentStatus: models.PaymentPending,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if err := s.DB.CreateRegistration(ctx, reg); err != nil {
		_ = s.Redis.UnlockRegistration(event.ID, userID, orderID)
		return nil, fmt.Errorf("failed to create registration: %w", err)
	}

	s.publish("eventhub.registration.created", reg)
	monitoring.RecordRegistration("pending")

	return &models.CreateOrderResponse{
		OrderID:  orderID,
		Amount:   providerOrder.Amount.InexactFloat64(),
		Currency: providerOrder.Currency,
	}, nil
}

// VerifyPayment settles an order. It is idempotent: verifying an already
// completed order returns the existing registration and decrements nothing.
// On provider rejection the registration ends up failed, which permits a
// fresh order.
func (s *RegistrationService) VerifyPayment(ctx context.Context, req models.VerifyPaymentRequest) (*models.Registration, error) {
	reg, err := s.DB.GetRegistrationByOrderID(ctx, req.OrderID)
	if err != nil {
		return nil, ErrOrderNotFound
	}

	switch reg.PaymentStatus {
	case models.PaymentCompleted:
		monitoring.RecordVerification("duplicate")
		return reg, nil
	case models.PaymentPending:
		// fall through
	default:
		return nil, ErrOrderNotPayable
	}

	if err := s.verifyWithRetry(ctx, req.OrderID, req.PaymentID, req.Signature); err != nil {
		s.failOrder(ctx, reg)
		monitoring.RecordVerification("rejected")
		return nil, ErrPaymentVerificationFailed
	}

	ticketNumber := utils.GenerateTicketNumber(reg.EventID)
	qrCode, err := s.QR.GenerateEncryptedQR(qr.TicketPayload{
		TicketNumber: ticketNumber,
		EventID:      reg.EventID,
		UserID:       reg.UserID,
		TicketType:   reg.TicketType,
		IssuedAt:     s.Clock.Now(),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to generate ticket QR: %w", err)
	}

	completed, transitioned, err := s.DB.CompleteRegistration(ctx, req.OrderID, ticketNumber, qrCode)
	if err != nil {
		if errors.Is(err, db.ErrInsufficientInventory) {
			// Lost the inventory race to another buyer after the lock was
			// taken but before settlement.
			s.failOrder(ctx, reg)
			monitoring.RecordTierSoldOut(reg.EventID)
			return nil, ErrTierUnavailable
		}
		return nil, fmt.Errorf("failed to complete registration: %w", err)
	}
	if !transitioned {
		if completed.PaymentStatus == models.PaymentCompleted {
			monitoring.RecordVerification("duplicate")
			return completed, nil
		}
		return nil, ErrOrderNotPayable
	}

	if err := s.Redis.UnlockRegistration(completed.EventID, completed.UserID, completed.OrderID); err != nil {
		fmt.Printf("Failed to release registration lock for order %s: %v\n", completed.OrderID, err)
	}

	s.publish("eventhub.registration.completed", *completed)
	monitoring.RecordVerification("verified")
	monitoring.RecordRegistration("completed")
	return completed, nil
}

// RegisterFree records an at-most-once registration for a free event; the
// insert and the inventory decrement share one transaction.
func (s *RegistrationService) RegisterFree(ctx context.Context, userID, eventID string, req models.RegisterRequest) (*models.Registration, error) {
	qty := req.Quantity
	if qty == 0 {
		qty = 1
	}

	event, tier, err := s.admissibleEvent(ctx, eventID, req.TicketType, qty)
	if err != nil {
		return nil, err
	}
	if !event.Pricing.IsFree {
		return nil, ErrPaidEvent
	}

	tierType := ""
	if tier != nil {
		tierType = tier.Type
	}

	now := s.Clock.Now()
	ticketNumber := utils.GenerateTicketNumber(event.ID)
	qrCode, err := s.QR.GenerateEncryptedQR(qr.TicketPayload{
		TicketNumber: ticketNumber,
		EventID:      event.ID,
		UserID:       userID,
		TicketType:   tierType,
		IssuedAt:     now,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to generate ticket QR: %w", err)
	}

	reg := models.Registration{
		ID:              uuid.NewString(),
		EventID:         event.ID,
		UserID:          userID,
		TicketType:      tierType,
		Quantity:        qty,
		Amount:          0,
		Currency:        "",
		PaymentStatus:   models.PaymentCompleted,
		TicketNumber:    ticketNumber,
		TicketGenerated: true,
		QRCode:          qrCode,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if err := s.DB.CreateCompletedRegistration(ctx, reg); err != nil {
		if errors.Is(err, db.ErrDuplicateActive) {
			return nil, ErrDuplicateRegistration
		}
		if errors.Is(err, db.ErrInsufficientInventory) {
			monitoring.RecordTierSoldOut(event.ID)
			return nil, ErrEventFull
		}
		return nil, fmt.Errorf("failed to create registration: %w", err)
	}

	s.publish("eventhub.registration.completed", reg)
	monitoring.RecordRegistration("completed")
	return &reg, nil
}

func (s *RegistrationService) GetRegistrations(ctx context.Context, userID string) ([]models.Registration, error) {
	return s.DB.GetRegistrationsByUser(ctx, userID)
}

// admissibleEvent loads the event, checks it is open and has stock, and
// runs the tier request through the selection guard. The returned tier is
// nil when the event has no tiers (tierless free events).
func (s *RegistrationService) admissibleEvent(ctx context.Context, eventID, tierType string, qty int) (*models.Event, *models.TicketTier, error) {
	event, err := s.Events.GetEvent(ctx, eventID)
	if err != nil {
		return nil, nil, ErrEventNotFound
	}
	if event.Status != models.EventUpcoming {
		return nil, nil, ErrEventNotOpen
	}
	monitoring.SetAvailableTickets(event.ID, event.Pricing.AvailableTickets)
	if event.Pricing.AvailableTickets <= 0 {
		return nil, nil, ErrEventFull
	}

	if len(event.Pricing.Tickets) == 0 {
		if qty < 0 {
			return nil, nil, selection.ErrNegativeQuantity
		}
		if qty > selection.MaxPerUser {
			return nil, nil, selection.ErrExceedsPerUserLimit
		}
		return event, nil, nil
	}

	guard := selection.NewGuard(event.Pricing.Tickets)
	if err := guard.SetQuantity(tierType, qty); err != nil {
		if errors.Is(err, selection.ErrExceedsAvailable) || errors.Is(err, selection.ErrUnknownTier) {
			return nil, nil, ErrTierUnavailable
		}
		return nil, nil, err
	}

	for i := range event.Pricing.Tickets {
		if event.Pricing.Tickets[i].Type == tierType {
			return event, &event.Pricing.Tickets[i], nil
		}
	}
	return nil, nil, ErrTierUnavailable
}

// verifyWithRetry calls the provider with exponential backoff. Signature
// mismatches are terminal immediately; only transient provider errors are
// retried.
func (s *RegistrationService) verifyWithRetry(ctx context.Context, orderID, paymentID, signature string) error {
	backoff := s.VerifyBackoff
	var lastErr error

	for attempt := 0; attempt < s.MaxVerifyAttempts; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(backoff):
			}
			backoff *= 2
		}

		lastErr = s.Provider.VerifyPayment(ctx, orderID, paymentID, signature)
		if lastErr == nil {
			return nil
		}
		if errors.Is(lastErr, payments.ErrSignatureMismatch) {
			return lastErr
		}
	}
	return lastErr
}

func (s *RegistrationService) failOrder(ctx context.Context, reg *models.Registration) {
	if err := s.DB.MarkFailed(ctx, reg.OrderID); err != nil {
		fmt.Printf("Failed to mark order %s failed: %v\n", reg.OrderID, err)
	}
	if err := s.Redis.UnlockRegistration(reg.EventID, reg.UserID, reg.OrderID); err != nil {
		fmt.Printf("Failed to release registration lock for order %s: %v\n", reg.OrderID, err)
	}
	failed := *reg
	failed.PaymentStatus = models.PaymentFailed
	s.publish("eventhub.registration.failed", failed)
	monitoring.RecordRegistration("failed")
}

func (s *RegistrationService) publish(topic string, reg models.Registration) {
	event := models.RegistrationEvent{
		Type:         topic,
		Registration: reg.ID,
		EventID:      reg.EventID,
		UserID:       reg.UserID,
		TicketType:   reg.TicketType,
		Status:       string(reg.PaymentStatus),
		Timestamp:    time.Now().UTC(),
	}
	value, err := json.Marshal(event)
	if err != nil {
		return
	}
	if err := s.Kafka.Publish(topic, reg.EventID, value); err != nil {
		fmt.Printf("Kafka publish error (%s): %v\n", topic, err)
	}
}
