package processor

import (
	"testing"
	"time"

	"directpay/internal/models"
)

func TestSimulatedRails_Delay(t *testing.T) {
	rails := NewSimulatedRails(0, 1)

	tests := []struct {
		rail     models.PaymentRailType
		min, max time.Duration
	}{
		{models.PaymentRailInstant, time.Second, 2 * time.Second},
		{models.PaymentRailWire, 5 * time.Second, 10 * time.Second},
		{models.PaymentRailSameDayACH, 30 * time.Second, 60 * time.Second},
		{models.PaymentRailStandardACH, 120 * time.Second, 180 * time.Second},
		{models.PaymentRailType("unknown"), 120 * time.Second, 180 * time.Second},
	}

	for _, tt := range tests {
		t.Run(string(tt.rail), func(t *testing.T) {
			for i := 0; i < 50; i++ {
				d := rails.Delay(tt.rail)
				if d < tt.min || d > tt.max {
					t.Fatalf("delay %s outside [%s, %s]", d, tt.min, tt.max)
				}
			}
		})
	}

	t.Run("scaled", func(t *testing.T) {
		if d := NewSimulatedRails(0, 0).Delay(models.PaymentRailStandardACH); d != 0 {
			t.Errorf("expected zero delay at scale 0, got %s", d)
		}
		d := NewSimulatedRails(0, 0.01).Delay(models.PaymentRailStandardACH)
		if d < 1200*time.Millisecond || d > 1800*time.Millisecond {
			t.Errorf("expected scaled delay within [1.2s, 1.8s], got %s", d)
		}
	})
}

func TestSimulatedRails_Outcome(t *testing.T) {
	t.Run("never_fails_at_zero_rate", func(t *testing.T) {
		rails := NewSimulatedRails(0, 1)
		for i := 0; i < 100; i++ {
			if o := rails.Outcome(); o.Failed {
				t.Fatalf("unexpected failure %q", o.Reason)
			}
		}
	})

	t.Run("always_fails_at_full_rate", func(t *testing.T) {
		rails := NewSimulatedRails(1, 1)
		known := map[string]bool{}
		for _, r := range failureReasons {
			known[r] = true
		}
		for i := 0; i < 100; i++ {
			o := rails.Outcome()
			if !o.Failed {
				t.Fatal("expected failure")
			}
			if !known[o.Reason] {
				t.Fatalf("unknown failure reason %q", o.Reason)
			}
		}
	})
}

func TestRetryDelay(t *testing.T) {
	want := map[int]time.Duration{0: time.Minute, 1: 2 * time.Minute, 2: 4 * time.Minute}
	for count, d := range want {
		if got := retryDelay(count); got != d {
			t.Errorf("retryDelay(%d) = %s, want %s", count, got, d)
		}
	}
}

func TestAutoRetryable(t *testing.T) {
	if !autoRetryable(ReasonInsufficientFunds) {
		t.Error("insufficient funds should be retried automatically")
	}
	for _, r := range []string{ReasonAccountClosed, ReasonInvalidRouting, ReasonFraudBlocked, ReasonSettlementTimeout} {
		if autoRetryable(r) {
			t.Errorf("%q should not be retried automatically", r)
		}
	}
}
