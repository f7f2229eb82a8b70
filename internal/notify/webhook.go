package notify

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
)

var errCircuitOpen = errors.New("circuit_open")

type job struct {
	PlayerID string
	Message  Message
	Attempt  int
}

type payload struct {
	PlayerID string `json:"player_id"`
	Message
	SentAt int64 `json:"sent_at"`
}

type poster interface {
	PostJSON(ctx context.Context, endpoint string, headers map[string]string, body any) error
}

// Webhook posts each message as JSON to one endpoint from a small worker pool,
// retrying failures with exponential backoff behind a circuit breaker.
type Webhook struct {
	cfg    Config
	client poster

	dispatchCh chan job
	retryQ     *retryQueue
	done       chan struct{}
	closeOnce  sync.Once
	wg         sync.WaitGroup

	mu                  sync.Mutex
	consecutiveFailures int
	openUntil           time.Time
}

func NewWebhook(cfg Config) *Webhook {
	cfg = cfg.withDefaults()
	w := &Webhook{
		cfg:        cfg,
		client:     NewHTTPClient(cfg.Timeout),
		dispatchCh: make(chan job, cfg.QueueSize),
		done:       make(chan struct{}),
	}
	w.retryQ = newRetryQueue(w.dispatchCh, w.done)
	return w
}

func (w *Webhook) Start(ctx context.Context) {
	for i := 0; i < w.cfg.Workers; i++ {
		w.wg.Add(1)
		go func() {
			defer w.wg.Done()
			w.worker(ctx)
		}()
	}
}

func (w *Webhook) Close() {
	w.closeOnce.Do(func() {
		close(w.done)
	})
	w.wg.Wait()
}

func (w *Webhook) Notify(_ context.Context, playerID string, msg Message) error {
	select {
	case <-w.done:
		return ErrClosed
	default:
	}
	select {
	case w.dispatchCh <- job{PlayerID: playerID, Message: msg}:
		metricNotifyQueuedTotal.Add(1)
		metricNotifyQueueLen.Set(int64(len(w.dispatchCh)))
		return nil
	default:
		metricNotifyDroppedTotal.Add(1)
		return ErrQueueFull
	}
}

func (w *Webhook) worker(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-w.done:
			return
		case j := <-w.dispatchCh:
			metricNotifyQueueLen.Set(int64(len(w.dispatchCh)))
			w.process(ctx, j)
		}
	}
}

func (w *Webhook) process(ctx context.Context, j job) {
	if err := w.beforeSend(time.Now()); err != nil {
		metricNotifyCircuitOpenTotal.Add(1)
		w.retryOrDrop(j, err)
		return
	}
	sendCtx, cancel := context.WithTimeout(ctx, w.cfg.Timeout)
	err := w.client.PostJSON(sendCtx, w.cfg.WebhookURL, nil, payload{
		PlayerID: j.PlayerID,
		Message:  j.Message,
		SentAt:   time.Now().UnixMilli(),
	})
	cancel()
	if err != nil {
		metricNotifyFailedTotal.Add(1)
		w.afterFailure(time.Now())
		w.retryOrDrop(j, err)
		return
	}
	metricNotifySentTotal.Add(1)
	w.afterSuccess()
}

func (w *Webhook) retryOrDrop(j job, err error) bool {
	if j.Attempt >= w.cfg.RetryMax {
		metricNotifyRetryDroppedTotal.Add(1)
		log.Warn().Err(err).Str("player_id", j.PlayerID).Str("kind", string(j.Message.Kind)).Int("attempts", j.Attempt+1).Msg("notify dropped")
		return false
	}
	j.Attempt++
	metricNotifyRetryTotal.Add(1)
	delay := w.cfg.RetryBase * time.Duration(1<<(j.Attempt-1))
	w.retryQ.Enqueue(j, delay)
	return true
}

func (w *Webhook) beforeSend(now time.Time) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if !w.openUntil.IsZero() && now.Before(w.openUntil) {
		return errCircuitOpen
	}
	return nil
}

func (w *Webhook) afterFailure(now time.Time) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.consecutiveFailures++
	if w.consecutiveFailures >= w.cfg.FailureThreshold {
		w.openUntil = now.Add(w.cfg.CircuitOpenDuration)
		w.consecutiveFailures = 0
	}
}

func (w *Webhook) afterSuccess() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.consecutiveFailures = 0
	w.openUntil = time.Time{}
}
