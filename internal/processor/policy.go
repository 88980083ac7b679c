package processor

import (
	"math/rand/v2"
	"sync"
	"time"

	"directpay/internal/models"
)

// Failure reasons reported by the simulated rails.
const (
	ReasonInsufficientFunds = "Insufficient funds"
	ReasonAccountClosed     = "Account closed"
	ReasonInvalidRouting    = "Invalid routing number"
	ReasonFraudBlocked      = "Payment blocked by fraud detection"
	ReasonSettlementTimeout = "Settlement timed out"
)

var failureReasons = []string{
	ReasonInsufficientFunds,
	ReasonAccountClosed,
	ReasonInvalidRouting,
	ReasonFraudBlocked,
}

// Outcome is the result of one settlement attempt.
type Outcome struct {
	Failed bool
	Reason string
}

// SettlementPolicy decides how long a rail takes and whether it succeeds.
type SettlementPolicy interface {
	Delay(rail models.PaymentRailType) time.Duration
	Outcome() Outcome
}

type delayRange struct {
	min, max time.Duration
}

var railDelays = map[models.PaymentRailType]delayRange{
	models.PaymentRailInstant:     {1 * time.Second, 2 * time.Second},
	models.PaymentRailWire:        {5 * time.Second, 10 * time.Second},
	models.PaymentRailSameDayACH:  {30 * time.Second, 60 * time.Second},
	models.PaymentRailStandardACH: {120 * time.Second, 180 * time.Second},
}

// SimulatedRails settles payments after a uniform random delay per rail and
// fails a fixed fraction of them.
type SimulatedRails struct {
	FailureRate float64
	DelayScale  float64

	mu  sync.Mutex
	rng *rand.Rand
}

// NewSimulatedRails creates a policy seeded from the runtime source.
func NewSimulatedRails(failureRate, delayScale float64) *SimulatedRails {
	return &SimulatedRails{
		FailureRate: failureRate,
		DelayScale:  delayScale,
		rng:         rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64())),
	}
}

// Delay returns the settlement wait for rail. Unknown rails settle like
// standard ACH.
func (s *SimulatedRails) Delay(rail models.PaymentRailType) time.Duration {
	r, ok := railDelays[rail]
	if !ok {
		r = railDelays[models.DefaultPaymentRail]
	}

	s.mu.Lock()
	span := r.min + time.Duration(s.rng.Int64N(int64(r.max-r.min)+1))
	s.mu.Unlock()

	return time.Duration(float64(span) * s.DelayScale)
}

// Outcome draws a settlement result.
func (s *SimulatedRails) Outcome() Outcome {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.rng.Float64() >= s.FailureRate {
		return Outcome{}
	}
	return Outcome{Failed: true, Reason: failureReasons[s.rng.IntN(len(failureReasons))]}
}

// autoRetryable reports whether a failure is retried without the client asking.
func autoRetryable(reason string) bool {
	return reason == ReasonInsufficientFunds
}

// retryDelay is the backoff before automatic retry number retryCount+1.
func retryDelay(retryCount int) time.Duration {
	return time.Minute << retryCount
}
