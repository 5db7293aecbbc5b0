package services

import (
	"context"
	"sync"
	"time"

	"github.com/go-faster/errors"
	"github.com/sirupsen/logrus"
	"github.com/yeremiapane/food-storefront/models"
	"github.com/yeremiapane/food-storefront/utils"
)

// Status values of a tracked card session.
const (
	PaymentStatusPending   = "pending"
	PaymentStatusSuccess   = "success"
	PaymentStatusFailed    = "failed"
	PaymentStatusCancelled = "cancelled"
	PaymentStatusExpired   = "expired"
)

// SessionConfirmer settles a pending card session.
type SessionConfirmer interface {
	ConfirmPending(ctx context.Context, sessionKey, sessionID string) error
}

// SessionMetrics counts card session outcomes.
type SessionMetrics struct {
	TotalSessions     int64 `json:"total_sessions"`
	ConfirmedPayments int64 `json:"confirmed_payments"`
	FailedPayments    int64 `json:"failed_payments"`
	PendingPayments   int64 `json:"pending_payments"`
	AvgResponseTime   int64 `json:"avg_response_time_ms"`
}

// SessionMonitor confirms card sessions in the background for customers who
// never come back from the payment page.
type SessionMonitor struct {
	confirmer     SessionConfirmer
	metrics       SessionMetrics
	retryQueue    []models.PendingPayment
	retryInterval time.Duration
	maxAttempts   int
	callTimeout   time.Duration
	mutex         sync.Mutex
	stop          chan struct{}
	done          chan struct{}
	totalLatency  time.Duration
	calls         int64
	sweep         func()
}

func NewSessionMonitor(confirmer SessionConfirmer, retryInterval time.Duration, maxAttempts int) *SessionMonitor {
	if retryInterval <= 0 {
		retryInterval = time.Minute
	}
	if maxAttempts <= 0 {
		maxAttempts = 10
	}
	return &SessionMonitor{
		confirmer:     confirmer,
		retryQueue:    make([]models.PendingPayment, 0),
		retryInterval: retryInterval,
		maxAttempts:   maxAttempts,
		callTimeout:   30 * time.Second,
	}
}

func (sm *SessionMonitor) Start() {
	sm.mutex.Lock()
	if sm.stop != nil {
		sm.mutex.Unlock()
		return
	}
	stop, done := make(chan struct{}), make(chan struct{})
	sm.stop, sm.done = stop, done
	sm.mutex.Unlock()

	go sm.run(stop, done)
	utils.InfoLogger.Println("Payment session monitor started")
}

func (sm *SessionMonitor) Stop() {
	sm.mutex.Lock()
	stop, done := sm.stop, sm.done
	if stop == nil {
		sm.mutex.Unlock()
		return
	}
	select {
	case <-stop:
		// another Stop is already waiting
	default:
		close(stop)
	}
	sm.mutex.Unlock()

	<-done

	sm.mutex.Lock()
	if sm.stop == stop {
		sm.stop, sm.done = nil, nil
	}
	sm.mutex.Unlock()
	utils.InfoLogger.Println("Payment session monitor stopped")
}

// OnTick registers work run after every queue pass, such as evicting idle
// sessions. Call it before Start.
func (sm *SessionMonitor) OnTick(fn func()) {
	sm.mutex.Lock()
	defer sm.mutex.Unlock()
	sm.sweep = fn
}

// Track queues a card session for background confirmation.
func (sm *SessionMonitor) Track(sessionKey, sessionID string) {
	sm.mutex.Lock()
	defer sm.mutex.Unlock()

	for _, p := range sm.retryQueue {
		if p.SessionID == sessionID {
			return
		}
	}

	sm.retryQueue = append(sm.retryQueue, models.PendingPayment{
		SessionKey: sessionKey,
		SessionID:  sessionID,
		Status:     PaymentStatusPending,
		CreatedAt:  time.Now(),
	})
	sm.metrics.TotalSessions++
	sm.metrics.PendingPayments++
	utils.InfoLogger.WithFields(logrus.Fields{"session": sessionKey, "payment_session": sessionID}).Info("tracking payment session")
}

// run owns stop and done; a pass in flight is cancelled once stop closes.
func (sm *SessionMonitor) run(stop <-chan struct{}, done chan<- struct{}) {
	defer close(done)
	ticker := time.NewTicker(sm.retryInterval)
	defer ticker.Stop()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() {
		select {
		case <-stop:
			cancel()
		case <-ctx.Done():
		}
	}()

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			sm.ProcessQueue(ctx)
			sm.mutex.Lock()
			sweep := sm.sweep
			sm.mutex.Unlock()
			if sweep != nil {
				sweep()
			}
		}
	}
}

// ProcessQueue makes one confirmation attempt for every queued session.
func (sm *SessionMonitor) ProcessQueue(ctx context.Context) {
	sm.mutex.Lock()
	if len(sm.retryQueue) == 0 {
		sm.mutex.Unlock()
		return
	}
	queue := make([]models.PendingPayment, len(sm.retryQueue))
	copy(queue, sm.retryQueue)
	sm.retryQueue = make([]models.PendingPayment, 0)
	sm.mutex.Unlock()

	utils.InfoLogger.Printf("Processing payment session queue with %d sessions", len(queue))
	for i, p := range queue {
		if ctx.Err() != nil {
			sm.requeue(queue[i:]...)
			return
		}
		sm.confirm(ctx, p)
	}
}

func (sm *SessionMonitor) confirm(ctx context.Context, p models.PendingPayment) {
	callCtx, cancel := context.WithTimeout(ctx, sm.callTimeout)
	defer cancel()

	start := time.Now()
	err := sm.confirmer.ConfirmPending(callCtx, p.SessionKey, p.SessionID)
	sm.observe(time.Since(start))
	if err != nil && ctx.Err() != nil {
		// shutting down, the attempt does not count
		sm.requeue(p)
		return
	}
	p.Attempts++

	switch {
	case err == nil:
		sm.settle(PaymentStatusSuccess)
		utils.InfoLogger.WithField("payment_session", p.SessionID).Info("payment session confirmed")
	case errors.Is(err, ErrUnknownSession):
		// customer cancelled or already started a new order
		sm.settle(PaymentStatusCancelled)
	case p.Attempts >= sm.maxAttempts:
		sm.settle(PaymentStatusExpired)
		utils.ErrorLogger.WithField("payment_session", p.SessionID).Errorf("giving up on payment session: %v", err)
	default:
		sm.requeue(p)
	}
}

func (sm *SessionMonitor) requeue(p ...models.PendingPayment) {
	sm.mutex.Lock()
	defer sm.mutex.Unlock()
	sm.retryQueue = append(sm.retryQueue, p...)
}

func (sm *SessionMonitor) settle(status string) {
	sm.mutex.Lock()
	defer sm.mutex.Unlock()

	sm.metrics.PendingPayments--
	switch status {
	case PaymentStatusSuccess:
		sm.metrics.ConfirmedPayments++
	case PaymentStatusFailed, PaymentStatusExpired, PaymentStatusCancelled:
		sm.metrics.FailedPayments++
	}
}

func (sm *SessionMonitor) observe(d time.Duration) {
	sm.mutex.Lock()
	defer sm.mutex.Unlock()
	sm.calls++
	sm.totalLatency += d
	sm.metrics.AvgResponseTime = (sm.totalLatency / time.Duration(sm.calls)).Milliseconds()
}

func (sm *SessionMonitor) GetMetrics() SessionMetrics {
	sm.mutex.Lock()
	defer sm.mutex.Unlock()
	return sm.metrics
}

func (sm *SessionMonitor) QueueLength() int {
	sm.mutex.Lock()
	defer sm.mutex.Unlock()
	return len(sm.retryQueue)
}
