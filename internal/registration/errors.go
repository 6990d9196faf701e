package registration

import "errors"

var (
	ErrEventNotFound             = errors.New("event not found")
	ErrEventFull                 = errors.New("event is sold out")
	ErrEventNotOpen              = errors.New("event is not open for registration")
	ErrTierUnavailable           = errors.New("not enough tickets available for this tier")
	ErrDuplicateRegistration     = errors.New("a registration already exists for this user and event")
	ErrRegistrationInProgress    = errors.New("another registration attempt is already in progress")
	ErrOrderNotFound             = errors.New("order not found")
	ErrOrderNotPayable           = errors.New("order is not in a payable state")
	ErrPaymentVerificationFailed = errors.New("payment verification failed")
	ErrFreeEvent                 = errors.New("free events are registered directly, not through payment orders")
	ErrPaidEvent                 = errors.New("paid events require a payment order")
)
