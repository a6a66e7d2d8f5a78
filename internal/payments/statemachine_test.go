package payments

import (
	"regexp"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/angelmondragon/payments-service/pkg/db/models"
	"github.com/angelmondragon/payments-service/pkg/enums"
	pkgerrors "github.com/angelmondragon/payments-service/pkg/errors"
)

var transactionIDPattern = regexp.MustCompile(`^TXN_[0-9A-F]{12}$`)

func TestThresholdDecider(t *testing.T) {
	decider := NewThresholdDecider(decimal.Zero)
	cases := []struct {
		amount   string
		approved bool
	}{
		{"0.01", true},
		{"250.00", true},
		{"1000.00", true},
		{"1000.01", false},
		{"1500.00", false},
	}
	for _, tc := range cases {
		got := decider.Decide(decimal.RequireFromString(tc.amount))
		if got.Approved != tc.approved {
			t.Fatalf("amount %s: expected approved=%v got %v", tc.amount, tc.approved, got.Approved)
		}
		if !got.Approved && got.Reason == "" {
			t.Fatalf("amount %s: decline without reason", tc.amount)
		}
	}
}

func TestNewTransactionIDFormat(t *testing.T) {
	seen := make(map[string]struct{})
	for i := 0; i < 200; i++ {
		id := NewTransactionID()
		if !transactionIDPattern.MatchString(id) {
			t.Fatalf("unexpected transaction id %q", id)
		}
		if _, dup := seen[id]; dup {
			t.Fatalf("duplicate transaction id %q", id)
		}
		seen[id] = struct{}{}
	}
}

func TestCanTransition(t *testing.T) {
	allowed := map[[2]enums.PaymentStatus]bool{
		{enums.PaymentStatusProcessing, enums.PaymentStatusCompleted}: true,
		{enums.PaymentStatusProcessing, enums.PaymentStatusFailed}:    true,
		{enums.PaymentStatusCompleted, enums.PaymentStatusRefunded}:   true,
	}
	statuses := []enums.PaymentStatus{
		enums.PaymentStatusPending,
		enums.PaymentStatusProcessing,
		enums.PaymentStatusCompleted,
		enums.PaymentStatusFailed,
		enums.PaymentStatusCancelled,
		enums.PaymentStatusRefunded,
	}
	for _, from := range statuses {
		for _, to := range statuses {
			want := allowed[[2]enums.PaymentStatus{from, to}]
			if got := CanTransition(from, to); got != want {
				t.Fatalf("%s -> %s: expected %v got %v", from, to, want, got)
			}
		}
	}
}

func TestResolveAssignsTransactionIDOnlyOnApproval(t *testing.T) {
	machine := NewStateMachine(nil)

	approved := models.Payment{Amount: decimal.RequireFromString("999.99"), Status: enums.PaymentStatusProcessing}
	if _, err := machine.Resolve(&approved); err != nil {
		t.Fatalf("resolve approved: %v", err)
	}
	if approved.Status != enums.PaymentStatusCompleted {
		t.Fatalf("expected COMPLETED got %s", approved.Status)
	}
	if approved.TransactionID == nil || !transactionIDPattern.MatchString(*approved.TransactionID) {
		t.Fatalf("expected transaction id, got %v", approved.TransactionID)
	}

	declined := models.Payment{Amount: decimal.RequireFromString("1000.01"), Status: enums.PaymentStatusProcessing}
	decision, err := machine.Resolve(&declined)
	if err != nil {
		t.Fatalf("resolve declined: %v", err)
	}
	if declined.Status != enums.PaymentStatusFailed || declined.TransactionID != nil {
		t.Fatalf("expected FAILED without transaction id, got %s %v", declined.Status, declined.TransactionID)
	}
	if decision.Approved {
		t.Fatalf("expected declined decision")
	}
}

func TestResolveRejectsNonProcessing(t *testing.T) {
	machine := NewStateMachine(DeciderFunc(func(decimal.Decimal) Decision { return Decision{Approved: true} }))
	p := models.Payment{Amount: decimal.NewFromInt(10), Status: enums.PaymentStatusFailed}
	_, err := machine.Resolve(&p)
	if !pkgerrors.HasCode(err, pkgerrors.CodeStateConflict) {
		t.Fatalf("expected state conflict, got %v", err)
	}
	if p.Status != enums.PaymentStatusFailed || p.TransactionID != nil {
		t.Fatalf("payment mutated on rejected transition: %+v", p)
	}
}

func TestRefund(t *testing.T) {
	machine := NewStateMachine(nil)
	txn := "TXN_0123456789AB"
	completed := models.Payment{ID: 3, OrderID: 7, UserID: 9, Amount: decimal.NewFromInt(50), Status: enums.PaymentStatusCompleted, TransactionID: &txn}

	refunded, err := machine.Refund(completed)
	if err != nil {
		t.Fatalf("refund: %v", err)
	}
	if refunded.Status != enums.PaymentStatusRefunded {
		t.Fatalf("expected REFUNDED got %s", refunded.Status)
	}
	if refunded.TransactionID == nil || *refunded.TransactionID != txn || refunded.OrderID != 7 || refunded.UserID != 9 {
		t.Fatalf("refund changed identity fields: %+v", refunded)
	}
	if completed.Status != enums.PaymentStatusCompleted {
		t.Fatalf("refund mutated its input")
	}

	for _, status := range []enums.PaymentStatus{
		enums.PaymentStatusPending,
		enums.PaymentStatusProcessing,
		enums.PaymentStatusFailed,
		enums.PaymentStatusCancelled,
		enums.PaymentStatusRefunded,
	} {
		p := models.Payment{ID: 1, Status: status}
		got, err := machine.Refund(p)
		if !pkgerrors.HasCode(err, pkgerrors.CodeStateConflict) {
			t.Fatalf("%s: expected state conflict, got %v", status, err)
		}
		if pkgerrors.As(err).Message() != "Can only refund completed payments" {
			t.Fatalf("%s: unexpected message %q", status, pkgerrors.As(err).Message())
		}
		if got.Status != status {
			t.Fatalf("%s: status changed to %s", status, got.Status)
		}
	}
}
