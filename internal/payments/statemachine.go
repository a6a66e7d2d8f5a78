package payments

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/angelmondragon/payments-service/pkg/db/models"
	"github.com/angelmondragon/payments-service/pkg/enums"
	pkgerrors "github.com/angelmondragon/payments-service/pkg/errors"
)

const (
	msgPaymentNotFound  = "Payment not found"
	msgRefundNotAllowed = "Can only refund completed payments"
)

// PENDING and CANCELLED exist in the data model but no flow reaches them yet.
var transitions = map[enums.PaymentStatus][]enums.PaymentStatus{
	enums.PaymentStatusProcessing: {enums.PaymentStatusCompleted, enums.PaymentStatusFailed},
	enums.PaymentStatusCompleted:  {enums.PaymentStatusRefunded},
}

// CanTransition reports whether from -> to is a legal move.
func CanTransition(from, to enums.PaymentStatus) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

func errInvalidTransition(from, to enums.PaymentStatus) *pkgerrors.Error {
	return pkgerrors.New(pkgerrors.CodeStateConflict, fmt.Sprintf("cannot move payment from %s to %s", from, to)).
		WithDetails(map[string]any{"from": from, "to": to})
}

// StateMachine owns the outcome decision and the legal status transitions.
type StateMachine struct {
	decider          Decider
	newTransactionID func() string
}

// NewStateMachine wires a decider; nil falls back to the default threshold rule.
func NewStateMachine(decider Decider) *StateMachine {
	if decider == nil {
		decider = NewThresholdDecider(DefaultApprovalLimit)
	}
	return &StateMachine{decider: decider, newTransactionID: NewTransactionID}
}

// DecideOutcome maps an amount to the terminal status of processing and, on
// approval, a fresh transaction id.
func (m *StateMachine) DecideOutcome(amount decimal.Decimal) (enums.PaymentStatus, *string, Decision) {
	decision := m.decider.Decide(amount)
	if !decision.Approved {
		return enums.PaymentStatusFailed, nil, decision
	}
	txnID := m.newTransactionID()
	return enums.PaymentStatusCompleted, &txnID, decision
}

// Resolve moves a PROCESSING payment to COMPLETED or FAILED in place.
func (m *StateMachine) Resolve(p *models.Payment) (Decision, error) {
	status, txnID, decision := m.DecideOutcome(p.Amount)
	if !CanTransition(p.Status, status) {
		return decision, errInvalidTransition(p.Status, status)
	}
	p.Status = status
	if p.TransactionID == nil {
		p.TransactionID = txnID
	}
	return decision, nil
}

// Refund returns a copy of p in REFUNDED. Anything other than COMPLETED is
// rejected and p is left as it was.
func (m *StateMachine) Refund(p models.Payment) (models.Payment, error) {
	if p.Status != enums.PaymentStatusCompleted {
		return p, pkgerrors.New(pkgerrors.CodeStateConflict, msgRefundNotAllowed).
			WithDetails(map[string]any{"status": p.Status})
	}
	p.Status = enums.PaymentStatusRefunded
	return p, nil
}
