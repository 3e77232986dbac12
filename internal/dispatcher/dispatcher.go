// Package dispatcher polls storage for due pending reminders and
// delivers them. Ticks never overlap; a tick that runs long simply
// suppresses the next one.
package dispatcher

import (
	"context"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"

	"remindbot/internal/models"
	"remindbot/internal/reminder"
	"remindbot/internal/schedule"
)

// Store is the storage surface the dispatcher needs.
type Store interface {
	ListDuePending(ctx context.Context, until time.Time, limit int) ([]*models.Reminder, error)
	MarkDone(ctx context.Context, ids []int64) (int64, error)
	Reschedule(ctx context.Context, id int64, nextRunAt time.Time) error
}

// MessageSender delivers one text message to a chat.
type MessageSender interface {
	SendText(chatID int64, text string) error
}

type Dispatcher struct {
	store     Store
	sender    MessageSender
	interval  time.Duration
	batchSize int
	logger    zerolog.Logger
	cron      *cron.Cron
	notify    chan struct{}
	now       func() time.Time

	mu sync.Mutex // serializes ticks from the cron and notify paths
}

// Option configures a Dispatcher.
type Option func(*Dispatcher)

// WithClock overrides the time source, for tests.
func WithClock(now func() time.Time) Option {
	return func(d *Dispatcher) { d.now = now }
}

func New(store Store, sender MessageSender, interval time.Duration, batchSize int, logger zerolog.Logger, opts ...Option) *Dispatcher {
	d := &Dispatcher{
		store:     store,
		sender:    sender,
		interval:  interval,
		batchSize: batchSize,
		logger:    logger,
		notify:    make(chan struct{}, 1),
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Start schedules the periodic tick and the notify listener. It returns
// immediately; Stop shuts both down.
func (d *Dispatcher) Start(ctx context.Context) {
	cronLogger := cronLogAdapter{logger: d.logger}
	d.cron = cron.New(cron.WithChain(
		cron.SkipIfStillRunning(cronLogger),
		cron.Recover(cronLogger),
	))
	d.cron.Schedule(cron.Every(d.interval), cron.FuncJob(func() {
		d.Tick(ctx)
	}))
	d.cron.Start()

	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case <-d.notify:
				d.Tick(ctx)
			}
		}
	}()
}

// Stop halts the periodic tick and waits for a running one to finish.
func (d *Dispatcher) Stop() {
	if d.cron != nil {
		<-d.cron.Stop().Done()
	}
}

// Notify requests an out-of-band tick, used right after reminder
// creation so near-immediate reminders fire without waiting a full
// interval. Coalesces when a request is already queued.
func (d *Dispatcher) Notify() {
	select {
	case d.notify <- struct{}{}:
	default:
	}
}

// Tick runs one dispatch pass: deliver every due pending reminder, then
// reschedule recurring ones and mark the rest done in a single batched
// write. A delivery failure leaves that row pending for the next tick.
func (d *Dispatcher) Tick(ctx context.Context) {
	d.mu.Lock()
	defer d.mu.Unlock()

	now := d.now()
	due, err := d.store.ListDuePending(ctx, now, d.batchSize)
	if err != nil {
		d.logger.Error().Err(err).Msg("due reminder query failed")
		return
	}
	if len(due) == 0 {
		return
	}

	var doneIDs []int64
	for _, item := range due {
		text := reminder.UnwrapPreNotify(item.Text)
		if err := d.sender.SendText(item.ChatID, text); err != nil {
			d.logger.Warn().Err(err).
				Int64("reminder_id", item.ID).
				Int64("chat_id", item.ChatID).
				Msg("reminder delivery failed, will retry")
			continue
		}

		if item.IsRecurring() {
			next := schedule.Next(item.RunAt, item.RecurrenceRule)
			if next == nil {
				doneIDs = append(doneIDs, item.ID)
				continue
			}
			if err := d.store.Reschedule(ctx, item.ID, next.UTC()); err != nil {
				d.logger.Error().Err(err).
					Int64("reminder_id", item.ID).
					Msg("reschedule failed")
			}
			continue
		}
		doneIDs = append(doneIDs, item.ID)
	}

	if len(doneIDs) > 0 {
		if _, err := d.store.MarkDone(ctx, doneIDs); err != nil {
			d.logger.Error().Err(err).Msg("mark done failed")
		}
	}
	d.logger.Debug().Int("due", len(due)).Int("done", len(doneIDs)).Msg("dispatch tick complete")
}

// cronLogAdapter bridges zerolog into the cron logger interface.
type cronLogAdapter struct {
	logger zerolog.Logger
}

func (a cronLogAdapter) Info(msg string, keysAndValues ...interface{}) {
	a.logger.Debug().Fields(keysAndValues).Msg(msg)
}

func (a cronLogAdapter) Error(err error, msg string, keysAndValues ...interface{}) {
	a.logger.Error().Err(err).Fields(keysAndValues).Msg(msg)
}
