// Package payment verifies checkout payments against an external gateway.
package payment

import (
	"fmt"

	"github.com/shopspring/decimal"
)

type Status string

const (
	StatusInitiated Status = "INITIATED"
	StatusVerifying Status = "VERIFYING"
	StatusConfirmed Status = "CONFIRMED"
	StatusRejected  Status = "REJECTED"
	StatusErrored   Status = "ERRORED"
)

var transitions = map[Status][]Status{
	StatusInitiated: {StatusVerifying},
	StatusVerifying: {StatusConfirmed, StatusRejected, StatusErrored},
}

// CanTransition reports whether from -> to is allowed. Terminal states have
// no outgoing transitions.
func CanTransition(from, to Status) bool {
	for _, s := range transitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

func (s Status) IsTerminal() bool {
	return len(transitions[s]) == 0
}

// PaymentVerification is the outcome of one verify call. It is never
// persisted on its own.
type PaymentVerification struct {
	Reference string `json:"reference"`
	Status    Status `json:"status"`
	// Amount is what the gateway reports as charged, in major units.
	Amount   decimal.Decimal `json:"amount"`
	Currency string          `json:"currency,omitempty"`
	// Raw is the gateway body when one was received.
	Raw    []byte `json:"-"`
	Reason string `json:"reason,omitempty"`
	Err    error  `json:"-"`
}

func (v *PaymentVerification) advance(to Status) error {
	if !CanTransition(v.Status, to) {
		return fmt.Errorf("payment %s: illegal transition %s -> %s", v.Reference, v.Status, to)
	}
	v.Status = to
	return nil
}

func (v PaymentVerification) Confirmed() bool { return v.Status == StatusConfirmed }
