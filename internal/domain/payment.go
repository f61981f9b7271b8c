package domain

type PaymentMethod string

const (
	PaymentMethodCard   PaymentMethod = "card"
	PaymentMethodPayPal PaymentMethod = "paypal"
	PaymentMethodKlarna PaymentMethod = "klarna"
)

func (m PaymentMethod) Valid() bool {
	switch m {
	case PaymentMethodCard, PaymentMethodPayPal, PaymentMethodKlarna:
		return true
	}
	return false
}

type AttemptStatus string

const (
	AttemptStatusIdle         AttemptStatus = "idle"
	AttemptStatusInitializing AttemptStatus = "initializing"
	AttemptStatusAwaiting     AttemptStatus = "awaiting_confirmation"
	AttemptStatusSucceeded    AttemptStatus = "succeeded"
	AttemptStatusFailed       AttemptStatus = "failed"
)

func (s AttemptStatus) IsTerminal() bool {
	return s == AttemptStatusSucceeded || s == AttemptStatusFailed
}

// String representation (for logging)
func (s AttemptStatus) String() string {
	return string(s)
}

// CanTransitionTo enumerates the legal attempt transitions. A failed or
// still-awaiting attempt may be restarted at initializing (retry or switch of
// method); succeeded is final.
func CanTransitionTo(from, to AttemptStatus) bool {
	switch from {
	case AttemptStatusIdle:
		return to == AttemptStatusInitializing
	case AttemptStatusInitializing:
		return to == AttemptStatusAwaiting || to == AttemptStatusFailed ||
			to == AttemptStatusIdle
	case AttemptStatusAwaiting:
		return to == AttemptStatusSucceeded || to == AttemptStatusFailed ||
			to == AttemptStatusInitializing || to == AttemptStatusIdle
	case AttemptStatusFailed:
		return to == AttemptStatusInitializing || to == AttemptStatusIdle
	}
	return false
}

// PaymentAttempt tracks one in-progress payment confirmation. Exactly one
// attempt is active at a time; starting a new attempt discards any prior
// non-succeeded one.
type PaymentAttempt struct {
	Method            PaymentMethod `json:"method"`
	ExternalReference string        `json:"external_reference,omitempty"`
	Status            AttemptStatus `json:"status"`
	FailureReason     string        `json:"failure_reason,omitempty"`
}
