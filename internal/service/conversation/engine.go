package conversation

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/dailytracker/backend/internal/logging"
	"github.com/dailytracker/backend/internal/model/chat"
	"github.com/dailytracker/backend/internal/model/diary"
	"github.com/dailytracker/backend/internal/model/emotion"
	"github.com/dailytracker/backend/internal/service/session"
)

// JournalWriter is the write side of the entry store.
type JournalWriter interface {
	AppendJournalEntry(ctx context.Context, entry diary.JournalEntry) (int64, error)
	UpsertMealEntry(ctx context.Context, userID int64, day diary.Day, count int, comment *string) error
}

// ReportBuilder renders the report for one user and day.
type ReportBuilder interface {
	Build(ctx context.Context, userID int64, day diary.Day) (string, error)
}

// Outcome describes what one event did to a session.
type Outcome struct {
	UserID  int64
	From    session.State
	To      session.State
	Trigger Trigger
	// Err is the rejection reason. A rejected event leaves the state unchanged.
	Err error
	// Committed is set when the event persisted an entry.
	Committed bool
}

// Engine drives every user's session through the transition table.
type Engine struct {
	sessions *session.Store
	writer   JournalWriter
	reports  ReportBuilder
	sender   chat.Sender
	logger   logging.Logger
	now      func() time.Time
}

// Option configures an Engine.
type Option func(*Engine)

// WithClock sets the clock that dates saved entries.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

// WithLogger sets the engine logger.
func WithLogger(logger logging.Logger) Option {
	return func(e *Engine) { e.logger = logger }
}

// NewEngine creates an engine using the real clock and a no-op logger unless opts override them.
func NewEngine(sessions *session.Store, writer JournalWriter, reports ReportBuilder, sender chat.Sender, opts ...Option) *Engine {
	e := &Engine{
		sessions: sessions,
		writer:   writer,
		reports:  reports,
		sender:   sender,
		logger:   logging.Nop(),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	e.logger = e.logger.With("component", "conversation")
	return e
}

// Handle applies one event. Events of the same user are processed one at a time.
// The returned error reports failed message delivery only; rejections live in Outcome.Err.
func (e *Engine) Handle(ctx context.Context, ev chat.Event) (Outcome, error) {
	in := classify(ev)
	out := Outcome{UserID: ev.UserID, Trigger: in.trigger}

	var deliveryErr error
	_ = e.sessions.Update(ev.UserID, func(sess *session.Session) error {
		t := &turn{ctx: ctx, engine: e, sess: sess, in: in}
		out.From = sess.State
		out.Err = lookup(sess.State, in.trigger)(t)
		out.To = sess.State
		out.Committed = t.committed
		deliveryErr = t.deliveryErr
		return nil
	})

	if out.Err != nil {
		e.logger.Infow("event rejected", "user_id", ev.UserID, "state", out.From.String(),
			"trigger", out.Trigger.String(), "reason", out.Err.Error())
	} else if out.From != out.To {
		e.logger.Debugf("user %d: %s -> %s on %s", ev.UserID, out.From, out.To, out.Trigger)
	}
	if deliveryErr != nil {
		e.logger.Warnw("reply delivery failed", "user_id", ev.UserID, "error", deliveryErr)
	}
	return out, deliveryErr
}

// State returns the user's current state without creating a session.
func (e *Engine) State(userID int64) session.State {
	sess, ok := e.sessions.Get(userID)
	if !ok {
		return session.Idle
	}
	return sess.State
}

// turn is the context of one step.
type turn struct {
	ctx    context.Context
	engine *Engine
	sess   *session.Session
	in     input

	committed   bool
	deliveryErr error
}

func (t *turn) send(text string, menu chat.Menu) {
	if err := t.engine.sender.SendText(t.ctx, t.sess.UserID, text, menu); err != nil {
		t.deliveryErr = errors.Join(t.deliveryErr, err)
	}
}

func (t *turn) today() diary.Day {
	return diary.DayOf(t.engine.now())
}

// prompt returns the question of the current state.
func (t *turn) prompt() (string, chat.Menu) {
	switch t.sess.State {
	case session.Idle:
		return textMainMenu, mainMenu()
	case session.AwaitingEmotions:
		return promptEmotions, emotionMenu(t.picker())
	case session.AwaitingReportDate:
		return promptReportDate, reportMenu()
	}
	return statePrompts[t.sess.State], nil
}

// moveTo runs the exit and entry actions around the state change and asks the next question.
func (t *turn) moveTo(next session.State) {
	if exit := onExit[t.sess.State]; exit != nil {
		exit(t)
	}
	t.sess.State = next
	if enter := onEnter[next]; enter != nil {
		enter(t)
	}
	t.send(t.prompt())
}

// begin discards any draft and starts a new flow.
func (t *turn) begin(state session.State) {
	t.sess.Begin(session.Idle)
	t.moveTo(state)
}

// finish discards the draft, returns to Idle and shows the main menu under text.
func (t *turn) finish(text string) {
	t.sess.Reset()
	t.send(text, mainMenu())
}

// answer returns the trimmed text answer or re-asks the current question.
func (t *turn) answer() (string, error) {
	text := strings.TrimSpace(t.in.text)
	if text == "" {
		question, menu := t.prompt()
		t.send(textEmptyAnswer+"\n"+question, menu)
		return "", ErrEmptyAnswer
	}
	return text, nil
}

func (t *turn) picker() *emotion.Picker {
	if t.sess.Emotions == nil {
		t.engine.logger.Warnw("recreating picker", "user_id", t.sess.UserID, "error", errNoPicker)
		t.sess.Emotions = emotion.NewPicker()
	}
	return t.sess.Emotions
}

func (t *turn) sendReport(day diary.Day) error {
	text, err := t.engine.reports.Build(t.ctx, t.sess.UserID, day)
	if err != nil {
		t.engine.logger.Errorw("build report failed", "user_id", t.sess.UserID, "day", day.String(), "error", err)
		t.send(textReportFailed, nil)
		return err
	}
	t.finish(text)
	return nil
}
