package processor

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"directpay/internal/logger"
	"directpay/internal/models"
	"directpay/internal/queue"
	"directpay/internal/services"
	"directpay/internal/testutil"
)

func init() {
	logger.Init("test")
}

// stubPolicy returns queued outcomes in order, then succeeds.
type stubPolicy struct {
	mu       sync.Mutex
	outcomes []Outcome
	rails    []models.PaymentRailType
}

func (s *stubPolicy) Delay(rail models.PaymentRailType) time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rails = append(s.rails, rail)
	return time.Second
}

func (s *stubPolicy) Outcome() Outcome {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.outcomes) == 0 {
		return Outcome{}
	}
	o := s.outcomes[0]
	s.outcomes = s.outcomes[1:]
	return o
}

type submission struct {
	name    string
	payload interface{}
	delay   time.Duration
}

type recordingSubmitter struct {
	mu    sync.Mutex
	calls []submission
	err   error
}

func (r *recordingSubmitter) Submit(ctx context.Context, name string, payload interface{}) error {
	return r.SubmitAfter(ctx, name, payload, 0)
}

func (r *recordingSubmitter) SubmitAfter(_ context.Context, name string, payload interface{}, delay time.Duration) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return r.err
	}
	r.calls = append(r.calls, submission{name: name, payload: payload, delay: delay})
	return nil
}

func (r *recordingSubmitter) submissions() []submission {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]submission(nil), r.calls...)
}

type harness struct {
	db        *gorm.DB
	payments  services.PaymentServicer
	schedules services.ScheduleServicer
	submitter *recordingSubmitter
	policy    *stubPolicy
	proc      *Processor
	ledger    *testutil.Ledger
}

func newHarness(t *testing.T, outcomes ...Outcome) (*harness, func()) {
	t.Helper()
	db := testutil.SetupTestDB(t)
	payments := services.NewPaymentService(db, services.NewBankAccountService(db), nil)
	schedules := services.NewScheduleService(db)
	submitter := &recordingSubmitter{}
	policy := &stubPolicy{outcomes: outcomes}

	proc := New(payments, schedules, submitter, policy)
	proc.Wait = func(context.Context, time.Duration) error { return nil }

	h := &harness{
		db:        db,
		payments:  payments,
		schedules: schedules,
		submitter: submitter,
		policy:    policy,
		proc:      proc,
		ledger:    testutil.CreateTestLedger(t, db),
	}
	return h, func() { testutil.TeardownTestDB(t, db) }
}

func (h *harness) initiate(t *testing.T, key string) *models.Transaction {
	t.Helper()
	txn, err := h.payments.InitiatePayment(context.Background(), services.InitiatePaymentRequest{
		IdempotencyKey: key,
		LeaseID:        h.ledger.Lease.ID,
		PayerAccountID: h.ledger.Payer.ID,
		PayeeAccountID: h.ledger.Payee.ID,
		Amount:         decimal.RequireFromString("2500.00"),
		RailType:       models.PaymentRailWire,
	})
	testutil.AssertNoError(t, err)
	return txn
}

func (h *harness) nextDue(t *testing.T) time.Time {
	t.Helper()
	schedule, err := h.schedules.GetByLease(context.Background(), h.ledger.Lease.ID)
	testutil.AssertNoError(t, err)
	return schedule.NextDueDate
}

func sameDay(a, b time.Time) bool {
	return a.Format(time.DateOnly) == b.Format(time.DateOnly)
}

func TestProcess(t *testing.T) {
	ctx := context.Background()

	t.Run("success_completes_and_advances_schedule", func(t *testing.T) {
		h, done := newHarness(t)
		defer done()
		txn := h.initiate(t, "ok")

		testutil.AssertNoError(t, h.proc.Process(ctx, txn.ID))

		reloaded := testutil.ReloadTransaction(t, h.db, txn.ID)
		if reloaded.Status != models.TransactionStatusCompleted {
			t.Fatalf("expected completed, got %s", reloaded.Status)
		}
		if reloaded.ProcessingAt == nil || reloaded.CompletedAt == nil {
			t.Error("expected processing_at and completed_at to be set")
		}
		if n := testutil.CountEvents(t, h.db, txn.ID); n != 3 {
			t.Errorf("expected 3 events, got %d", n)
		}
		if !sameDay(h.nextDue(t), testutil.Date(2024, time.March, 1)) {
			t.Errorf("expected schedule advanced to 2024-03-01, got %s", h.nextDue(t).Format(time.DateOnly))
		}
		if len(h.policy.rails) != 1 || h.policy.rails[0] != models.PaymentRailWire {
			t.Errorf("expected one wire settlement, got %v", h.policy.rails)
		}
	})

	t.Run("redelivery_after_completion_is_noop", func(t *testing.T) {
		h, done := newHarness(t)
		defer done()
		txn := h.initiate(t, "twice")

		testutil.AssertNoError(t, h.proc.Process(ctx, txn.ID))
		testutil.AssertNoError(t, h.proc.Process(ctx, txn.ID))

		if n := testutil.CountEvents(t, h.db, txn.ID); n != 3 {
			t.Errorf("expected 3 events, got %d", n)
		}
		if !sameDay(h.nextDue(t), testutil.Date(2024, time.March, 1)) {
			t.Errorf("expected a single advance, got %s", h.nextDue(t).Format(time.DateOnly))
		}
	})

	t.Run("concurrent_deliveries_settle_once", func(t *testing.T) {
		h, done := newHarness(t)
		defer done()
		txn := h.initiate(t, "concurrent")

		var wg sync.WaitGroup
		for i := 0; i < 4; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				if err := h.proc.Process(ctx, txn.ID); err != nil {
					t.Errorf("unexpected error: %v", err)
				}
			}()
		}
		wg.Wait()

		if n := testutil.CountEvents(t, h.db, txn.ID); n != 3 {
			t.Errorf("expected 3 events, got %d", n)
		}
		if !sameDay(h.nextDue(t), testutil.Date(2024, time.March, 1)) {
			t.Errorf("expected a single advance, got %s", h.nextDue(t).Format(time.DateOnly))
		}
	})

	t.Run("processing_owned_elsewhere_is_noop", func(t *testing.T) {
		h, done := newHarness(t)
		defer done()
		txn := testutil.CreateTestTransaction(t, h.db, h.ledger, "owned", models.TransactionStatusProcessing)

		testutil.AssertNoError(t, h.proc.Process(ctx, txn.ID))
		if len(h.policy.rails) != 0 {
			t.Error("expected no settlement attempt")
		}
	})

	t.Run("unknown_transaction_is_dropped", func(t *testing.T) {
		h, done := newHarness(t)
		defer done()

		testutil.AssertNoError(t, h.proc.Process(ctx, "0190a7a0-0000-7000-8000-000000000000"))
	})

	t.Run("non_retryable_failure", func(t *testing.T) {
		h, done := newHarness(t, Outcome{Failed: true, Reason: ReasonAccountClosed})
		defer done()
		txn := h.initiate(t, "closed")

		testutil.AssertNoError(t, h.proc.Process(ctx, txn.ID))

		reloaded := testutil.ReloadTransaction(t, h.db, txn.ID)
		if reloaded.Status != models.TransactionStatusFailed || *reloaded.FailureReason != ReasonAccountClosed {
			t.Errorf("expected failed with %q, got %s", ReasonAccountClosed, reloaded.Status)
		}
		if subs := h.submitter.submissions(); len(subs) != 0 {
			t.Errorf("expected no automatic retry, got %v", subs)
		}
		if !sameDay(h.nextDue(t), testutil.Date(2024, time.February, 1)) {
			t.Error("failed payment must not advance the schedule")
		}
	})

	t.Run("insufficient_funds_schedules_retry", func(t *testing.T) {
		h, done := newHarness(t, Outcome{Failed: true, Reason: ReasonInsufficientFunds})
		defer done()
		txn := h.initiate(t, "nsf")

		testutil.AssertNoError(t, h.proc.Process(ctx, txn.ID))

		subs := h.submitter.submissions()
		if len(subs) != 1 {
			t.Fatalf("expected 1 submission, got %d", len(subs))
		}
		if subs[0].name != TaskRetry || subs[0].delay != time.Minute {
			t.Errorf("expected payment.retry after 1m, got %s after %s", subs[0].name, subs[0].delay)
		}
		payload := subs[0].payload.(RetryPayload)
		if payload.TransactionID != txn.ID || payload.ExpectedRetryCount != 0 {
			t.Errorf("unexpected payload %+v", payload)
		}
	})

	t.Run("retry_submission_error_is_returned", func(t *testing.T) {
		h, done := newHarness(t, Outcome{Failed: true, Reason: ReasonInsufficientFunds})
		defer done()
		h.submitter.err = errors.New("broker down")
		txn := h.initiate(t, "nsf-broker-down")

		if err := h.proc.Process(ctx, txn.ID); err == nil {
			t.Fatal("expected the submission error")
		}

		// The redelivered task finds the failure and resubmits the retry.
		h.submitter.err = nil
		testutil.AssertNoError(t, h.proc.Process(ctx, txn.ID))
		if subs := h.submitter.submissions(); len(subs) != 1 || subs[0].name != TaskRetry {
			t.Errorf("expected the retry to be resubmitted, got %v", subs)
		}
	})

	t.Run("redelivery_with_retries_exhausted_is_noop", func(t *testing.T) {
		h, done := newHarness(t)
		defer done()
		txn := testutil.CreateTestTransaction(t, h.db, h.ledger, "exhausted", models.TransactionStatusFailed)
		testutil.AssertNoError(t, h.db.Model(&models.Transaction{}).Where("id = ?", txn.ID).Updates(map[string]interface{}{
			"failure_reason": ReasonInsufficientFunds,
			"retry_count":    models.MaxRetries,
		}).Error)

		testutil.AssertNoError(t, h.proc.Process(ctx, txn.ID))
		if subs := h.submitter.submissions(); len(subs) != 0 {
			t.Errorf("expected no automatic retry, got %v", subs)
		}
		if len(h.policy.rails) != 0 {
			t.Error("expected no settlement attempt")
		}
	})

	t.Run("interrupted_wait_leaves_processing", func(t *testing.T) {
		h, done := newHarness(t)
		defer done()
		h.proc.Wait = func(context.Context, time.Duration) error { return context.Canceled }
		txn := h.initiate(t, "shutdown")

		testutil.AssertNoError(t, h.proc.Process(ctx, txn.ID))

		reloaded := testutil.ReloadTransaction(t, h.db, txn.ID)
		if reloaded.Status != models.TransactionStatusProcessing {
			t.Errorf("expected processing, got %s", reloaded.Status)
		}
	})
}

func TestHandleRetry(t *testing.T) {
	ctx := context.Background()

	t.Run("backoff_doubles_until_budget_exhausted", func(t *testing.T) {
		nsf := Outcome{Failed: true, Reason: ReasonInsufficientFunds}
		h, done := newHarness(t, nsf, nsf, nsf, nsf)
		defer done()
		txn := h.initiate(t, "exhaust")

		testutil.AssertNoError(t, h.proc.Process(ctx, txn.ID))
		for i := 0; i < models.MaxRetries; i++ {
			subs := h.submitter.submissions()
			if len(subs) != i+1 {
				t.Fatalf("expected %d submissions, got %d", i+1, len(subs))
			}
			payload := subs[i].payload.(RetryPayload)
			testutil.AssertNoError(t, h.proc.HandleRetry(ctx, payload.TransactionID, payload.ExpectedRetryCount))
		}

		var delays []time.Duration
		for _, s := range h.submitter.submissions() {
			delays = append(delays, s.delay)
		}
		want := []time.Duration{time.Minute, 2 * time.Minute, 4 * time.Minute}
		if len(delays) != len(want) {
			t.Fatalf("expected delays %v, got %v", want, delays)
		}
		for i := range want {
			if delays[i] != want[i] {
				t.Errorf("retry %d: expected %s, got %s", i+1, want[i], delays[i])
			}
		}

		reloaded := testutil.ReloadTransaction(t, h.db, txn.ID)
		if reloaded.Status != models.TransactionStatusFailed || reloaded.RetryCount != models.MaxRetries {
			t.Errorf("expected failed with retry_count 3, got %s/%d", reloaded.Status, reloaded.RetryCount)
		}
	})

	t.Run("duplicate_delivery_applies_once", func(t *testing.T) {
		h, done := newHarness(t, Outcome{Failed: true, Reason: ReasonInsufficientFunds})
		defer done()
		txn := h.initiate(t, "dup-retry")
		testutil.AssertNoError(t, h.proc.Process(ctx, txn.ID))

		testutil.AssertNoError(t, h.proc.HandleRetry(ctx, txn.ID, 0))
		testutil.AssertNoError(t, h.proc.HandleRetry(ctx, txn.ID, 0))

		reloaded := testutil.ReloadTransaction(t, h.db, txn.ID)
		if reloaded.Status != models.TransactionStatusCompleted || reloaded.RetryCount != 1 {
			t.Errorf("expected completed after one retry, got %s/%d", reloaded.Status, reloaded.RetryCount)
		}
		if !sameDay(h.nextDue(t), testutil.Date(2024, time.March, 1)) {
			t.Errorf("expected a single advance, got %s", h.nextDue(t).Format(time.DateOnly))
		}
	})

	t.Run("resumes_applied_but_unprocessed_retry", func(t *testing.T) {
		h, done := newHarness(t)
		defer done()
		txn := testutil.CreateTestTransaction(t, h.db, h.ledger, "resume", models.TransactionStatusFailed)
		_, err := h.payments.RetryPaymentIfAt(ctx, txn.ID, 0)
		testutil.AssertNoError(t, err)

		testutil.AssertNoError(t, h.proc.HandleRetry(ctx, txn.ID, 0))

		reloaded := testutil.ReloadTransaction(t, h.db, txn.ID)
		if reloaded.Status != models.TransactionStatusCompleted {
			t.Errorf("expected completed, got %s", reloaded.Status)
		}
	})

	t.Run("client_retry_in_between_wins", func(t *testing.T) {
		h, done := newHarness(t)
		defer done()
		txn := testutil.CreateTestTransaction(t, h.db, h.ledger, "client-first", models.TransactionStatusFailed)
		_, err := h.payments.RetryPayment(ctx, txn.ID)
		testutil.AssertNoError(t, err)
		_, err = h.payments.UpdateStatus(ctx, txn.ID, models.TransactionStatusProcessing, "")
		testutil.AssertNoError(t, err)

		testutil.AssertNoError(t, h.proc.HandleRetry(ctx, txn.ID, 0))

		reloaded := testutil.ReloadTransaction(t, h.db, txn.ID)
		if reloaded.RetryCount != 1 || reloaded.Status != models.TransactionStatusProcessing {
			t.Errorf("expected untouched processing row, got %s/%d", reloaded.Status, reloaded.RetryCount)
		}
	})
}

func TestRegister_EndToEnd(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.TeardownTestDB(t, db)

	broker := queue.NewMemoryBroker(16)
	defer broker.Close()

	payments := services.NewPaymentService(db, services.NewBankAccountService(db), NewDispatcher(broker))
	proc := New(payments, services.NewScheduleService(db), broker, &stubPolicy{})
	proc.Wait = func(context.Context, time.Duration) error { return nil }

	pool := queue.NewPool(broker, queue.PoolConfig{Concurrency: 2})
	proc.Register(pool)

	ctx, cancel := context.WithCancel(context.Background())
	stopped := make(chan struct{})
	go func() {
		defer close(stopped)
		_ = pool.Run(ctx)
	}()
	defer func() {
		cancel()
		<-stopped
	}()

	l := testutil.CreateTestLedger(t, db)
	txn, err := payments.InitiatePayment(context.Background(), services.InitiatePaymentRequest{
		IdempotencyKey: "e2e",
		LeaseID:        l.Lease.ID,
		PayerAccountID: l.Payer.ID,
		PayeeAccountID: l.Payee.ID,
		Amount:         decimal.RequireFromString("2500.00"),
		RailType:       models.PaymentRailInstant,
	})
	testutil.AssertNoError(t, err)

	deadline := time.Now().Add(5 * time.Second)
	for {
		got, err := payments.GetTransaction(context.Background(), txn.ID)
		testutil.AssertNoError(t, err)
		if got.Status == models.TransactionStatusCompleted {
			break
		}
		if time.Now().After(deadline) {
			t.Fatalf("transaction still %s after deadline", got.Status)
		}
		time.Sleep(10 * time.Millisecond)
	}
}
