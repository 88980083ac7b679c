package router

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"directpay/internal/logger"
	"directpay/internal/models"
	"directpay/internal/processor"
	"directpay/internal/queue"
	"directpay/internal/testutil"
)

func init() {
	gin.SetMode(gin.TestMode)
	logger.Init("test")
}

// scriptedRails settles instantly with queued outcomes, then succeeds.
type scriptedRails struct {
	mu       sync.Mutex
	outcomes []processor.Outcome
}

func (s *scriptedRails) Delay(models.PaymentRailType) time.Duration { return 0 }

func (s *scriptedRails) Outcome() processor.Outcome {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.outcomes) == 0 {
		return processor.Outcome{}
	}
	next := s.outcomes[0]
	s.outcomes = s.outcomes[1:]
	return next
}

// testApp is the full stack on SQLite with an in-process worker pool.
type testApp struct {
	DB     *gorm.DB
	Router *gin.Engine
}

func setupApp(t *testing.T, outcomes ...processor.Outcome) *testApp {
	t.Helper()
	db := testutil.SetupTestDB(t)

	broker := queue.NewMemoryBroker(64)
	svc := NewServices(db, processor.NewDispatcher(broker))

	proc := processor.New(svc.Payments, svc.Schedules, broker, &scriptedRails{outcomes: outcomes})
	proc.Wait = func(context.Context, time.Duration) error { return nil }

	pool := queue.NewPool(broker, queue.PoolConfig{Concurrency: 2, MaxAttempts: 3, RetryBackoff: time.Millisecond})
	proc.Register(pool)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = pool.Run(ctx)
	}()
	t.Cleanup(func() {
		cancel()
		<-done
		_ = broker.Close()
		testutil.TeardownTestDB(t, db)
	})

	return &testApp{DB: db, Router: New(svc)}
}

func (a *testApp) request(method, path, body string, headers map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	a.Router.ServeHTTP(rec, req)
	return rec
}

func parseJSON(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var result map[string]interface{}
	if err := json.Unmarshal(rec.Body.Bytes(), &result); err != nil {
		t.Fatalf("failed to parse JSON response: %v\nbody: %s", err, rec.Body.String())
	}
	return result
}

// create posts body and returns the id of the created resource.
func (a *testApp) create(t *testing.T, path, body string) string {
	t.Helper()
	rec := a.request("POST", path, body, nil)
	if rec.Code != http.StatusCreated {
		t.Fatalf("POST %s: expected 201, got %d: %s", path, rec.Code, rec.Body.String())
	}
	return parseJSON(t, rec)["id"].(string)
}

type ledger struct {
	LeaseID string
	Payer   string
	Payee   string
}

// registerLedger creates a landlord, renter, property, lease starting
// 2024-01-01 due on the 1st, and one bank account for each party.
func (a *testApp) registerLedger(t *testing.T) ledger {
	t.Helper()
	landlord := a.create(t, "/api/v1/users", `{"email":"landlord@example.com","full_name":"Lana Lord","role":"landlord"}`)
	renter := a.create(t, "/api/v1/users", `{"email":"renter@example.com","full_name":"Ray Renter","role":"renter"}`)
	property := a.create(t, "/api/v1/properties", fmt.Sprintf(
		`{"landlord_id":%q,"address":"12 Oak Ave","city":"Austin","state":"TX","zip_code":"78701","monthly_rent":"1800.00"}`, landlord))
	lease := a.create(t, "/api/v1/leases", fmt.Sprintf(
		`{"property_id":%q,"renter_id":%q,"start_date":"2024-01-01","end_date":"2024-12-31","rent_amount":"1800.00","due_day_of_month":1}`,
		property, renter))
	payer := a.create(t, "/api/v1/bank-accounts", fmt.Sprintf(
		`{"user_id":%q,"account_number":"000111222333","routing_number":"021000021","bank_name":"Renter Bank"}`, renter))
	payee := a.create(t, "/api/v1/bank-accounts", fmt.Sprintf(
		`{"user_id":%q,"account_number":"000444555666","routing_number":"026009593","bank_name":"Landlord Bank"}`, landlord))
	return ledger{LeaseID: lease, Payer: payer, Payee: payee}
}

func (a *testApp) pay(t *testing.T, l ledger, key string) *httptest.ResponseRecorder {
	t.Helper()
	body := fmt.Sprintf(`{"lease_id":%q,"payer_account_id":%q,"payee_account_id":%q,"amount":"1800.00","rail_type":"instant"}`,
		l.LeaseID, l.Payer, l.Payee)
	return a.request("POST", "/api/v1/payments", body, map[string]string{"Idempotency-Key": key})
}

// awaitStatus polls the payment until it reaches status.
func (a *testApp) awaitStatus(t *testing.T, id string, status models.TransactionStatus) map[string]interface{} {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	var last map[string]interface{}
	for time.Now().Before(deadline) {
		rec := a.request("GET", "/api/v1/payments/"+id, "", nil)
		last = parseJSON(t, rec)
		if last["status"] == string(status) {
			return last
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("payment %s never reached %s, last seen %v", id, status, last)
	return nil
}

func (a *testApp) nextDue(t *testing.T, leaseID string) time.Time {
	t.Helper()
	rec := a.request("GET", "/api/v1/leases/"+leaseID+"/schedule", "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	due, err := time.Parse(time.RFC3339, parseJSON(t, rec)["next_due_date"].(string))
	if err != nil {
		t.Fatalf("bad next_due_date: %v", err)
	}
	return due.UTC()
}

func historyTypes(t *testing.T, a *testApp, id string) []string {
	t.Helper()
	rec := a.request("GET", "/api/v1/payments/"+id+"/history", "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	result := parseJSON(t, rec)
	events := result["events"].([]interface{})
	if int(result["event_count"].(float64)) != len(events) {
		t.Errorf("event_count %v does not match %d events", result["event_count"], len(events))
	}
	types := make([]string, 0, len(events))
	for _, e := range events {
		types = append(types, e.(map[string]interface{})["event_type"].(string))
	}
	return types
}

func TestHealth(t *testing.T) {
	app := setupApp(t)

	rec := app.request("GET", "/api/health", "", nil)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if rec.Header().Get("X-Request-ID") == "" {
		t.Error("expected X-Request-ID header")
	}
}

func TestPaymentFlow_SettlesAndAdvancesSchedule(t *testing.T) {
	app := setupApp(t)
	l := app.registerLedger(t)

	if due := app.nextDue(t, l.LeaseID); !due.Equal(testutil.Date(2024, time.January, 1)) {
		t.Fatalf("expected first due 2024-01-01, got %s", due)
	}

	rec := app.pay(t, l, "rent-2024-01")
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	id := parseJSON(t, rec)["id"].(string)

	settled := app.awaitStatus(t, id, models.TransactionStatusCompleted)
	if settled["completed_at"] == nil {
		t.Error("expected completed_at to be set")
	}

	want := []string{
		string(models.EventPaymentInitiated),
		string(models.EventStatusChange),
		string(models.EventStatusChange),
	}
	if got := historyTypes(t, app, id); strings.Join(got, ",") != strings.Join(want, ",") {
		t.Errorf("expected history %v, got %v", want, got)
	}

	if due := app.nextDue(t, l.LeaseID); !due.Equal(testutil.Date(2024, time.February, 1)) {
		t.Errorf("expected next due 2024-02-01, got %s", due)
	}
}

func TestPaymentFlow_IdempotentReplay(t *testing.T) {
	app := setupApp(t)
	l := app.registerLedger(t)

	first := parseJSON(t, app.pay(t, l, "same-key"))["id"]
	app.awaitStatus(t, first.(string), models.TransactionStatusCompleted)

	rec := app.pay(t, l, "same-key")
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d", rec.Code)
	}
	replay := parseJSON(t, rec)
	if replay["id"] != first {
		t.Errorf("expected replay to return %v, got %v", first, replay["id"])
	}
	if replay["status"] != string(models.TransactionStatusCompleted) {
		t.Errorf("expected replay to report completed, got %v", replay["status"])
	}

	var count int64
	app.DB.Model(&models.Transaction{}).Count(&count)
	if count != 1 {
		t.Errorf("expected 1 transaction, got %d", count)
	}
	if got := len(historyTypes(t, app, first.(string))); got != 3 {
		t.Errorf("replay must not add events, got %d", got)
	}
	if due := app.nextDue(t, l.LeaseID); !due.Equal(testutil.Date(2024, time.February, 1)) {
		t.Errorf("schedule must advance once, got %s", due)
	}
}

func TestPaymentFlow_ClientRetryAfterFailure(t *testing.T) {
	app := setupApp(t, processor.Outcome{Failed: true, Reason: processor.ReasonAccountClosed})
	l := app.registerLedger(t)

	id := parseJSON(t, app.pay(t, l, "retry-me"))["id"].(string)
	failed := app.awaitStatus(t, id, models.TransactionStatusFailed)
	if failed["failure_reason"] != processor.ReasonAccountClosed {
		t.Errorf("expected reason %q, got %v", processor.ReasonAccountClosed, failed["failure_reason"])
	}
	if due := app.nextDue(t, l.LeaseID); !due.Equal(testutil.Date(2024, time.January, 1)) {
		t.Errorf("failed payment must not advance the schedule, got %s", due)
	}

	rec := app.request("POST", "/api/v1/payments/"+id+"/retry", "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	retry := parseJSON(t, rec)
	if retry["retry_count"].(float64) != 1 {
		t.Errorf("expected retry_count 1, got %v", retry["retry_count"])
	}

	settled := app.awaitStatus(t, id, models.TransactionStatusCompleted)
	if settled["failure_reason"] != nil {
		t.Errorf("expected failure_reason cleared, got %v", settled["failure_reason"])
	}

	types := historyTypes(t, app, id)
	if len(types) != 6 || types[3] != string(models.EventRetryAttempted) {
		t.Errorf("unexpected history %v", types)
	}

	rec = app.request("POST", "/api/v1/payments/"+id+"/retry", "", nil)
	if rec.Code != http.StatusConflict {
		t.Errorf("expected 409 retrying a completed payment, got %d", rec.Code)
	}
}

func TestPaymentFlow_Validation(t *testing.T) {
	app := setupApp(t)
	l := app.registerLedger(t)

	t.Run("missing idempotency key", func(t *testing.T) {
		body := fmt.Sprintf(`{"lease_id":%q,"payer_account_id":%q,"payee_account_id":%q,"amount":"10.00"}`, l.LeaseID, l.Payer, l.Payee)
		rec := app.request("POST", "/api/v1/payments", body, nil)
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rec.Code)
		}
	})

	t.Run("unknown payer account", func(t *testing.T) {
		l := l
		l.Payer = "0190a7a0-0000-7000-8000-0000000000ff"
		rec := app.pay(t, l, "ghost")
		if rec.Code != http.StatusNotFound {
			t.Fatalf("expected 404, got %d: %s", rec.Code, rec.Body.String())
		}
	})

	t.Run("duplicate email", func(t *testing.T) {
		rec := app.request("POST", "/api/v1/users", `{"email":"renter@example.com","full_name":"Again","role":"renter"}`, nil)
		if rec.Code != http.StatusConflict {
			t.Fatalf("expected 409, got %d", rec.Code)
		}
	})

	t.Run("lease payments list", func(t *testing.T) {
		app.awaitStatus(t, parseJSON(t, app.pay(t, l, "listed"))["id"].(string), models.TransactionStatusCompleted)
		rec := app.request("GET", "/api/v1/payments/lease/"+l.LeaseID, "", nil)
		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rec.Code)
		}
		if total := parseJSON(t, rec)["total"].(float64); total != 1 {
			t.Errorf("expected 1 payment, got %v", total)
		}
	})
}
