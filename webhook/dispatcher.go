package webhook

import (
	"context"
	"errors"
	"fmt"

	"github.com/skillsenselab/drivescribe/feed"
	"github.com/skillsenselab/drivescribe/logger"
	"github.com/skillsenselab/drivescribe/observability"
	"github.com/skillsenselab/drivescribe/pipeline"
	"github.com/skillsenselab/drivescribe/subscription"
)

// Config holds dispatcher policy.
type Config struct {
	// ClientState, when set, must match each notification's clientState;
	// mismatched entries are dropped with a warning.
	ClientState string `yaml:"client_state" mapstructure:"client_state"`
}

// Summary is the result of handling one webhook delivery.
type Summary struct {
	// Outcomes holds per-item outcomes keyed by subscription id.
	Outcomes map[string][]pipeline.Outcome
	// GoneSubscriptions lists entries that referenced subscriptions this
	// service no longer tracks; a non-empty list turns the whole delivery
	// response into a 410 so the remote service stops sending them.
	GoneSubscriptions []string
}

// Gone reports whether any entry referenced an unknown subscription.
func (s Summary) Gone() bool { return len(s.GoneSubscriptions) > 0 }

// Dispatcher turns one webhook delivery into per-subscription processing
// attempts. Entries are isolated from one another: a failure in one never
// aborts the rest of the batch.
type Dispatcher struct {
	subs    subscription.Store
	walker  *feed.Walker
	pipe    *pipeline.Processor
	cfg     Config
	metrics *observability.Metrics
	log     *logger.Logger
}

// NewDispatcher creates a Dispatcher.
func NewDispatcher(
	subs subscription.Store,
	walker *feed.Walker,
	pipe *pipeline.Processor,
	cfg Config,
	metrics *observability.Metrics,
	log *logger.Logger,
) *Dispatcher {
	return &Dispatcher{
		subs:    subs,
		walker:  walker,
		pipe:    pipe,
		cfg:     cfg,
		metrics: metrics,
		log:     log.WithComponent("dispatcher"),
	}
}

// Handle processes every notification in the payload and reports the batch
// disposition. All entries are attempted before the response is decided.
func (d *Dispatcher) Handle(ctx context.Context, payload Payload) Summary {
	d.metrics.RecordDelivery(ctx)

	summary := Summary{Outcomes: make(map[string][]pipeline.Outcome)}
	for _, note := range payload.Value {
		d.metrics.RecordNotification(ctx)

		if d.cfg.ClientState != "" && note.ClientState != d.cfg.ClientState {
			d.log.Warn("Dropping notification with unexpected client state", map[string]interface{}{
				logger.FieldSubscriptionID: note.SubscriptionID,
			})
			continue
		}

		entryLog := d.log.WithFields(map[string]interface{}{
			logger.FieldSubscriptionID: note.SubscriptionID,
		})
		outcomes, err := d.handleNotification(ctx, note)
		if err != nil {
			if errors.Is(err, subscription.ErrNotFound) {
				entryLog.Warn("Notification for unknown subscription")
				summary.GoneSubscriptions = append(summary.GoneSubscriptions, note.SubscriptionID)
				continue
			}
			// Isolate the failure to this entry; the feed position was not
			// advanced, so the next delivery retries the whole pass.
			entryLog.WithError(err).Error("Notification processing failed")
			continue
		}
		summary.Outcomes[note.SubscriptionID] = outcomes
	}
	return summary
}

// handleNotification runs one full pass for one subscription: load record,
// walk the feed, process matches, persist the new cursor.
func (d *Dispatcher) handleNotification(ctx context.Context, note Notification) (outcomes []pipeline.Outcome, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("webhook: notification panic: %v", r)
		}
	}()

	rec, err := d.subs.Load(ctx, note.SubscriptionID)
	if err != nil {
		return nil, err
	}

	result, err := d.walker.Walk(ctx, rec)
	if err != nil {
		// Transient walk failure: no cursor to persist, retry on redelivery.
		return nil, fmt.Errorf("walk feed: %w", err)
	}
	d.metrics.RecordWalk(ctx, result.Pages, result.Terminal != feed.EndOfFeed)

	for _, item := range result.Matches {
		outcome := d.pipe.Process(ctx, item)
		d.metrics.RecordOutcome(ctx, outcome.Kind.String())
		outcomes = append(outcomes, outcome)
	}

	// Per-item failures above do not block the cursor: the pass completed,
	// and failed items are retried via the idempotency guard on the next
	// notification for this feed position onward.
	rec.Cursor = result.Cursor
	if err := d.subs.Save(ctx, rec); err != nil {
		return nil, fmt.Errorf("persist cursor: %w", err)
	}

	d.log.Info("Pass completed", map[string]interface{}{
		logger.FieldSubscriptionID: note.SubscriptionID,
		"terminal":                 result.Terminal.String(),
		"pages":                    result.Pages,
		"matches":                  len(result.Matches),
	})
	return outcomes, nil
}
