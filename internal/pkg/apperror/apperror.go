package apperror

import (
	"errors"

	"github.com/gofiber/fiber/v2"
)

// Kind is a stable, machine-checkable error classification. Values are part
// of the API contract and must not change between releases.
type Kind string

const (
	KindValidation          Kind = "validation_error"
	KindSessionExpired      Kind = "session_expired"
	KindInvalidToken        Kind = "invalid_token"
	KindSubscriptionExpired Kind = "subscription_expired"
	KindUpstreamAuth        Kind = "upstream_auth_error"
	KindNoSubscription      Kind = "no_subscription"
	KindAlreadyOnPlan       Kind = "already_on_plan"
	KindPlanTooLow          Kind = "plan_too_low"
	KindQuotaExceeded       Kind = "quota_exceeded"
	KindInvalidSubscription Kind = "invalid_subscription"
	KindPaymentFailed       Kind = "payment_failed"
	KindUpstreamTimeout     Kind = "upstream_timeout"
	KindInvalidSignature    Kind = "invalid_signature"
	KindVerificationFailed  Kind = "verification_failed"
	KindNotFound            Kind = "not_found"
	KindDelivery            Kind = "delivery_error"
	KindInternal            Kind = "internal_server_error"
)

// Error carries a kind plus a human-readable message. The wrapped cause is
// for logs only and is never serialized to a caller.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Err }

// New creates an error with a kind and message.
func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// Wrap attaches a cause to a kinded error. The cause stays server-side.
func Wrap(kind Kind, message string, err error) *Error {
	return &Error{Kind: kind, Message: message, Err: err}
}

// KindOf extracts the kind from err, or KindInternal for unknown errors.
func KindOf(err error) Kind {
	var ae *Error
	if errors.As(err, &ae) {
		return ae.Kind
	}
	return KindInternal
}

// Is reports whether err carries the given kind.
func Is(err error, kind Kind) bool {
	return KindOf(err) == kind
}

// HTTPStatus maps an error kind to its HTTP status code.
func HTTPStatus(kind Kind) int {
	switch kind {
	case KindValidation:
		return fiber.StatusBadRequest
	case KindSessionExpired, KindInvalidToken:
		return fiber.StatusUnauthorized
	case KindSubscriptionExpired:
		return fiber.StatusForbidden
	case KindUpstreamAuth, KindUpstreamTimeout:
		return fiber.StatusBadGateway
	case KindNoSubscription, KindAlreadyOnPlan, KindPlanTooLow, KindQuotaExceeded, KindInvalidSubscription, KindPaymentFailed:
		return fiber.StatusPaymentRequired
	case KindInvalidSignature:
		return fiber.StatusBadRequest
	case KindVerificationFailed:
		return fiber.StatusBadRequest
	case KindNotFound:
		return fiber.StatusNotFound
	default:
		return fiber.StatusInternalServerError
	}
}

// Respond writes the JSON error body for err. Internal causes are hidden
// from the caller; only kind and message are exposed.
func Respond(c *fiber.Ctx, err error) error {
	var ae *Error
	if !errors.As(err, &ae) {
		ae = &Error{Kind: KindInternal, Message: "Internal server error"}
	}
	return c.Status(HTTPStatus(ae.Kind)).JSON(fiber.Map{
		"error":   string(ae.Kind),
		"message": ae.Message,
	})
}
