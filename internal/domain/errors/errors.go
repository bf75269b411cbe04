package errors

import "errors"

var (
	ErrAlreadyExists      = errors.New("already exists")
	ErrNotFound           = errors.New("not found")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrInvalidAmount      = errors.New("invalid amount")
	ErrInvalidRole        = errors.New("invalid role")

	ErrPermissionDenied     = errors.New("permission denied")
	ErrInvalidTransition    = errors.New("invalid order status transition")
	ErrRiderAlreadyAssigned = errors.New("rider already assigned")
	ErrRiderUnavailable     = errors.New("rider is not available or not verified")
	ErrProductUnavailable   = errors.New("product unavailable")
	ErrInvalidProduct       = errors.New("invalid product")
	ErrInvalidQuantity      = errors.New("quantity must be at least 1")
	ErrInvalidCoordinates   = errors.New("invalid coordinates")
	ErrInvalidDelivery      = errors.New("invalid delivery method")

	ErrPhoneRequired = errors.New("phone number required")
	ErrInvalidPhone  = errors.New("invalid phone number")

	// ErrPaymentUnavailable is a definitive gateway failure; no money moved.
	ErrPaymentUnavailable = errors.New("payment gateway unavailable")
	// ErrPaymentOutcomeUnknown means the gateway may or may not have acted on the request.
	ErrPaymentOutcomeUnknown = errors.New("payment gateway outcome unknown")
	ErrPayoutPending         = errors.New("payout already in progress")
)
