package audit

import (
	"context"
	"time"

	"github.com/alitto/pond/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/fundlock/escrow-ledger/internal/domain"
	"github.com/fundlock/escrow-ledger/internal/logger"
	"github.com/fundlock/escrow-ledger/internal/messaging"
	"github.com/fundlock/escrow-ledger/internal/store"
	"github.com/fundlock/escrow-ledger/internal/store/schema"
)

const dispatchWorkers = 10

// Recorder persists audit events and fans them out to the message broker.
// Persistence happens inside the caller's transaction; broker dispatch is
// asynchronous and best-effort, so a slow or absent broker never blocks or
// fails a ledger operation.
type Recorder struct {
	publisher messaging.Publisher
	pool      pond.Pool
}

// NewRecorder creates a Recorder. publisher may be nil, in which case events
// are persisted but not dispatched.
func NewRecorder(publisher messaging.Publisher) *Recorder {
	return &Recorder{
		publisher: publisher,
		pool:      pond.NewPool(dispatchWorkers),
	}
}

// Append writes the event to the audit trail within the caller's store view.
// It stamps the timestamp and correlation ID if the caller left them unset.
func (r *Recorder) Append(ctx context.Context, s store.Store, event *domain.AuditEvent) error {
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}
	if event.CorrelationID == "" {
		event.CorrelationID = uuid.NewString()
	}

	row := &schema.AuditEvent{
		Type:          string(event.Type),
		InvestmentID:  event.InvestmentID,
		Actor:         string(event.Actor),
		Amount:        event.Amount,
		CorrelationID: event.CorrelationID,
		Detail:        event.Detail,
		CreatedAt:     event.Timestamp,
	}

	return s.AppendAuditEvent(ctx, row)
}

// Dispatch publishes the event to the broker on a worker pool. Call it after
// the enclosing transaction commits; a dispatch failure is logged, never
// surfaced.
func (r *Recorder) Dispatch(event *domain.AuditEvent) {
	if r.publisher == nil {
		return
	}

	ev := *event
	r.pool.Submit(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		if err := r.publisher.PublishAuditEvent(ctx, &ev); err != nil {
			logger.Error(err,
				zap.String("event_type", string(ev.Type)),
				zap.String("correlation_id", ev.CorrelationID))
		}
	})
}

// Close drains pending dispatches and closes the broker connection
func (r *Recorder) Close() {
	r.pool.StopAndWait()
	if r.publisher != nil {
		r.publisher.Close()
	}
}
