package models

import "testing"

func TestTransactionStatus_CanTransitionTo(t *testing.T) {
	tests := []struct {
		from TransactionStatus
		to   TransactionStatus
		want bool
	}{
		{TransactionStatusPending, TransactionStatusProcessing, true},
		{TransactionStatusPending, TransactionStatusCompleted, false},
		{TransactionStatusPending, TransactionStatusFailed, false},
		{TransactionStatusProcessing, TransactionStatusCompleted, true},
		{TransactionStatusProcessing, TransactionStatusFailed, true},
		{TransactionStatusProcessing, TransactionStatusPending, false},
		{TransactionStatusCompleted, TransactionStatusPending, false},
		{TransactionStatusCompleted, TransactionStatusFailed, false},
		{TransactionStatusFailed, TransactionStatusPending, true},
		{TransactionStatusFailed, TransactionStatusProcessing, false},
		{TransactionStatusFailed, TransactionStatusCompleted, false},
	}

	for _, tt := range tests {
		t.Run(string(tt.from)+"_to_"+string(tt.to), func(t *testing.T) {
			if got := tt.from.CanTransitionTo(tt.to); got != tt.want {
				t.Errorf("%s -> %s: got %v, want %v", tt.from, tt.to, got, tt.want)
			}
		})
	}
}

func TestTransactionStatus_IsValid(t *testing.T) {
	for _, s := range []TransactionStatus{"pending", "processing", "completed", "failed"} {
		if !s.IsValid() {
			t.Errorf("expected %q to be valid", s)
		}
	}
	if TransactionStatus("refunded").IsValid() {
		t.Error("expected refunded to be rejected")
	}
}

func TestTransactionStatus_IsTerminal(t *testing.T) {
	tests := map[TransactionStatus]bool{
		TransactionStatusPending:    false,
		TransactionStatusProcessing: false,
		TransactionStatusCompleted:  true,
		TransactionStatusFailed:     true,
	}
	for status, want := range tests {
		if got := status.IsTerminal(); got != want {
			t.Errorf("%s: expected terminal=%v, got %v", status, want, got)
		}
	}
}

func TestPaymentRailType_IsValid(t *testing.T) {
	for _, r := range []PaymentRailType{"instant", "same_day_ach", "standard_ach", "wire"} {
		if !r.IsValid() {
			t.Errorf("expected %q to be valid", r)
		}
	}
	if PaymentRailType("carrier_pigeon").IsValid() {
		t.Error("expected unknown rail to be rejected")
	}
}

func TestTransaction_RetriesLeft(t *testing.T) {
	for count, want := range map[int]int{0: 3, 1: 2, 2: 1, 3: 0, 4: 0} {
		txn := &Transaction{RetryCount: count}
		if got := txn.RetriesLeft(); got != want {
			t.Errorf("retry_count %d: expected %d left, got %d", count, want, got)
		}
	}
}
