package reminder

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/dailytracker/backend/internal/config"
	"github.com/dailytracker/backend/internal/logging"
	"github.com/dailytracker/backend/internal/model/chat"
)

// Slot is one of the two daily reminders.
type Slot string

const (
	Morning Slot = "morning"
	Evening Slot = "evening"
)

var slotTexts = map[Slot]string{
	Morning: "Good morning! Don't forget to write your thoughts and feelings in the journal.",
	Evening: "Good evening! Don't forget to record today's meals.",
}

// ParseSlot accepts "morning" or "evening".
func ParseSlot(raw string) (Slot, error) {
	slot := Slot(raw)
	if _, ok := slotTexts[slot]; !ok {
		return "", fmt.Errorf("unknown reminder slot %q", raw)
	}
	return slot, nil
}

// Text is the message sent for the slot.
func (s Slot) Text() string { return slotTexts[s] }

// RecipientLister yields every user that ever wrote something.
type RecipientLister interface {
	ListKnownUserIDs(ctx context.Context) ([]int64, error)
}

// Result counts one broadcast.
type Result struct {
	Recipients int
	Delivered  int
	Failed     int
}

// Scheduler sends the morning and evening reminders on a daily cron.
type Scheduler struct {
	recipients  RecipientLister
	sender      chat.Sender
	menu        chat.Menu
	cfg         config.ReminderConfig
	logger      logging.Logger
	cron        *cron.Cron
	baseContext context.Context
}

// Option configures a Scheduler.
type Option func(*Scheduler)

// WithMenu attaches menu to every reminder.
func WithMenu(menu chat.Menu) Option {
	return func(s *Scheduler) { s.menu = menu }
}

// WithLogger sets the logger used for broadcast results.
func WithLogger(logger logging.Logger) Option {
	return func(s *Scheduler) { s.logger = logger }
}

// NewScheduler registers both daily jobs. Nothing fires until Start.
func NewScheduler(recipients RecipientLister, sender chat.Sender, cfg config.ReminderConfig, opts ...Option) (*Scheduler, error) {
	s := &Scheduler{
		recipients:  recipients,
		sender:      sender,
		cfg:         cfg,
		logger:      logging.Nop(),
		baseContext: context.Background(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = s.logger.With("component", "reminder")

	loc := cfg.Location
	if loc == nil {
		loc = time.Local
	}
	s.cron = cron.New(cron.WithLocation(loc))

	for slot, at := range map[Slot]config.TimeOfDay{Morning: cfg.MorningAt, Evening: cfg.EveningAt} {
		if _, err := s.cron.AddFunc(Spec(at), func() { s.fire(slot) }); err != nil {
			return nil, fmt.Errorf("schedule %s reminder: %w", slot, err)
		}
	}
	return s, nil
}

// Spec is the cron expression firing every day at t.
func Spec(t config.TimeOfDay) string {
	return fmt.Sprintf("%d %d * * *", t.Minute, t.Hour)
}

// Start runs the cron in its own goroutine. ctx bounds the broadcasts it triggers.
func (s *Scheduler) Start(ctx context.Context) {
	s.baseContext = ctx
	s.cron.Start()
	for _, e := range s.cron.Entries() {
		s.logger.Infow("reminder scheduled", "next", e.Next.Format(time.RFC3339))
	}
}

// Stop halts the cron and waits for running broadcasts.
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
}

// Entries exposes the registered jobs.
func (s *Scheduler) Entries() []cron.Entry {
	return s.cron.Entries()
}

func (s *Scheduler) fire(slot Slot) {
	res, err := s.Broadcast(s.baseContext, slot)
	if err != nil {
		s.logger.Errorw("reminder broadcast failed", "slot", string(slot), "error", err)
		return
	}
	s.logger.Infow("reminder broadcast done", "slot", string(slot),
		"recipients", res.Recipients, "delivered", res.Delivered, "failed", res.Failed)
}

// Broadcast sends the slot text to every known user. A failed recipient never stops the batch.
func (s *Scheduler) Broadcast(ctx context.Context, slot Slot) (Result, error) {
	text := slot.Text()
	if text == "" {
		return Result{}, fmt.Errorf("unknown reminder slot %q", slot)
	}

	ids, err := s.recipients.ListKnownUserIDs(ctx)
	if err != nil {
		return Result{}, fmt.Errorf("list recipients: %w", err)
	}

	res := Result{Recipients: len(ids)}
	for _, id := range ids {
		if err := s.deliver(ctx, id, text); err != nil {
			res.Failed++
			s.logger.Warnw("reminder not delivered", "slot", string(slot), "user_id", id, "error", err)
			continue
		}
		res.Delivered++
	}
	return res, nil
}

func (s *Scheduler) deliver(ctx context.Context, userID int64, text string) error {
	if s.cfg.SendTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.cfg.SendTimeout)
		defer cancel()
	}
	return s.sender.SendText(ctx, userID, text, s.menu)
}
