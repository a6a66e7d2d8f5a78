package payments

import (
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const transactionIDPrefix = "TXN_"

// DefaultApprovalLimit is the largest amount the simulated gateway approves.
var DefaultApprovalLimit = decimal.NewFromInt(1000)

// Decision is the gateway's verdict on a charge. A decline is a business
// outcome, not an error.
type Decision struct {
	Approved bool
	Reason   string
}

// Decider turns a charge amount into an approval decision. Implementations
// must be synchronous and free of side effects so a real gateway can be
// slotted in without touching the transition rules.
type Decider interface {
	Decide(amount decimal.Decimal) Decision
}

// DeciderFunc adapts a plain function to Decider.
type DeciderFunc func(amount decimal.Decimal) Decision

func (f DeciderFunc) Decide(amount decimal.Decimal) Decision {
	return f(amount)
}

// ThresholdDecider approves every amount up to and including Limit.
type ThresholdDecider struct {
	Limit decimal.Decimal
}

// NewThresholdDecider falls back to DefaultApprovalLimit for non-positive limits.
func NewThresholdDecider(limit decimal.Decimal) ThresholdDecider {
	if !limit.IsPositive() {
		limit = DefaultApprovalLimit
	}
	return ThresholdDecider{Limit: limit}
}

func (d ThresholdDecider) Decide(amount decimal.Decimal) Decision {
	if amount.LessThanOrEqual(d.Limit) {
		return Decision{Approved: true}
	}
	return Decision{Reason: "amount exceeds approval limit " + d.Limit.StringFixed(2)}
}

// NewTransactionID returns TXN_ followed by 12 upper-case hex characters
// taken from a random UUID.
func NewTransactionID() string {
	raw := strings.ReplaceAll(uuid.NewString(), "-", "")
	return transactionIDPrefix + strings.ToUpper(raw[:12])
}
