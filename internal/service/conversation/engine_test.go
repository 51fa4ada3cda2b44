package conversation_test

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dailytracker/backend/internal/model/chat"
	"github.com/dailytracker/backend/internal/model/diary"
	"github.com/dailytracker/backend/internal/service/conversation"
	"github.com/dailytracker/backend/internal/service/report"
	"github.com/dailytracker/backend/internal/service/session"
	"github.com/dailytracker/backend/internal/storage"
)

const userID int64 = 42

var now = time.Date(2023, time.November, 15, 20, 30, 0, 0, time.UTC)

type sentMessage struct {
	UserID int64
	Text   string
	Menu   chat.Menu
}

type recordingSender struct {
	mu       sync.Mutex
	messages []sentMessage
}

func (s *recordingSender) SendText(_ context.Context, userID int64, text string, menu chat.Menu) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.messages = append(s.messages, sentMessage{UserID: userID, Text: text, Menu: menu})
	return nil
}

func (s *recordingSender) last(t *testing.T) sentMessage {
	t.Helper()
	s.mu.Lock()
	defer s.mu.Unlock()
	require.NotEmpty(t, s.messages, "no message sent")
	return s.messages[len(s.messages)-1]
}

// flakyStore fails writes while broken is set.
type flakyStore struct {
	*storage.MemoryStore
	broken bool
	writes int
}

func (s *flakyStore) AppendJournalEntry(ctx context.Context, entry diary.JournalEntry) (int64, error) {
	s.writes++
	if s.broken {
		return 0, &storage.Error{Op: "append journal entry", Err: errors.New("disk full")}
	}
	return s.MemoryStore.AppendJournalEntry(ctx, entry)
}

func (s *flakyStore) UpsertMealEntry(ctx context.Context, userID int64, day diary.Day, count int, comment *string) error {
	s.writes++
	if s.broken {
		return &storage.Error{Op: "upsert meal entry", Err: errors.New("disk full")}
	}
	return s.MemoryStore.UpsertMealEntry(ctx, userID, day, count, comment)
}

// flakyReports fails every build while broken is set.
type flakyReports struct {
	*report.Generator
	broken bool
}

func (r *flakyReports) Build(ctx context.Context, userID int64, day diary.Day) (string, error) {
	if r.broken {
		return "", &storage.Error{Op: "query journal entries", Err: errors.New("connection refused")}
	}
	return r.Generator.Build(ctx, userID, day)
}

type harness struct {
	engine   *conversation.Engine
	store    *flakyStore
	sessions *session.Store
	sender   *recordingSender
	reports  *flakyReports
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	clock := func() time.Time { return now }
	h := &harness{
		store:    &flakyStore{MemoryStore: storage.NewMemoryStore()},
		sessions: session.NewStore(session.WithClock(clock)),
		sender:   &recordingSender{},
	}
	h.reports = &flakyReports{Generator: report.NewGenerator(h.store, report.WithClock(clock))}
	h.engine = conversation.NewEngine(h.sessions, h.store, h.reports, h.sender, conversation.WithClock(clock))
	return h
}

func (h *harness) send(t *testing.T, ev chat.Event) conversation.Outcome {
	t.Helper()
	out, err := h.engine.Handle(context.Background(), ev)
	require.NoError(t, err)
	return out
}

func (h *harness) sendAll(t *testing.T, events ...chat.Event) {
	t.Helper()
	for _, ev := range events {
		out := h.send(t, ev)
		require.NoError(t, out.Err, "event %+v rejected in %s", ev, out.From)
	}
}

func (h *harness) journal(t *testing.T) []diary.JournalEntry {
	t.Helper()
	entries, err := h.store.QueryEntriesForDate(context.Background(), userID, diary.DayOf(now))
	require.NoError(t, err)
	return entries
}

func (h *harness) state() session.State {
	return h.engine.State(userID)
}

func text(s string) chat.Event      { return chat.Text(userID, s) }
func command(s string) chat.Event   { return chat.Command(userID, s) }
func selection(s string) chat.Event { return chat.Selection(userID, s) }

// pathTo reaches each state from a fresh Idle session.
var pathTo = map[session.State][]chat.Event{
	session.Idle:              nil,
	session.AwaitingSituation: {selection(chat.TokenStartJournal)},
	session.AwaitingThoughts:  {selection(chat.TokenStartJournal), text("s")},
	session.AwaitingEmotions:  {selection(chat.TokenStartJournal), text("s"), text("t")},
	session.AwaitingSensations: {
		selection(chat.TokenStartJournal), text("s"), text("t"), text("e"),
	},
	session.AwaitingActions: {
		selection(chat.TokenStartJournal), text("s"), text("t"), text("e"), text("b"),
	},
	session.AwaitingDesires: {
		selection(chat.TokenStartJournal), text("s"), text("t"), text("e"), text("b"), text("a"),
	},
	session.AwaitingMealsCount:   {selection(chat.TokenStartMeals)},
	session.AwaitingMealsComment: {selection(chat.TokenStartMeals), text("2")},
	session.AwaitingReportDate:   {selection(chat.TokenReportSelectDate)},
}

// sampleEvent builds an event classified as trigger.
func sampleEvent(trigger conversation.Trigger) chat.Event {
	switch trigger {
	case conversation.TriggerText:
		return text("3")
	case conversation.TriggerStart:
		return command("/start")
	case conversation.TriggerCancel:
		return command("/cancel")
	case conversation.TriggerReset:
		return command("/reset")
	case conversation.TriggerHelp:
		return command("/help")
	case conversation.TriggerEmotionToggle:
		return selection(chat.EmotionToggleToken("Anger"))
	case conversation.TriggerEmotionGroup:
		return selection(chat.EmotionGroupToken("fear"))
	case conversation.TriggerUnknown:
		return command("/dance")
	default:
		return selection(trigger.String())
	}
}

func TestFullJournalFlowPersistsEntry(t *testing.T) {
	h := newHarness(t)

	h.sendAll(t,
		command("/start"),
		selection(chat.TokenStartJournal),
		text("Argument with a coworker"),
		text("He never listens"),
		selection(chat.EmotionToggleToken("Anger")),
		selection(chat.EmotionToggleToken("Frustration")),
		selection(chat.TokenEmotionsConfirm),
		text("Tight chest"),
		text("Left the room"),
	)
	require.Equal(t, session.AwaitingDesires, h.state())

	out := h.send(t, text("To be heard"))
	require.NoError(t, out.Err)
	assert.True(t, out.Committed)
	assert.Equal(t, session.Idle, out.To)

	entries, err := h.store.QueryEntriesForDate(context.Background(), userID, diary.DayOf(now))
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, diary.JournalEntry{
		ID:         entries[0].ID,
		UserID:     userID,
		Date:       diary.NewDay(2023, time.November, 15),
		Situation:  "Argument with a coworker",
		Thoughts:   "He never listens",
		Emotions:   "Anger, Frustration",
		Sensations: "Tight chest",
		Actions:    "Left the room",
		Desires:    "To be heard",
	}, entries[0])

	last := h.sender.last(t)
	assert.Equal(t, "Entry added to your journal!", last.Text)
	assert.Contains(t, last.Menu.Tokens(), chat.TokenStartJournal)
}

func TestFreeTextEmotionsAreStoredVerbatim(t *testing.T) {
	h := newHarness(t)
	h.sendAll(t, pathTo[session.AwaitingEmotions]...)

	out := h.send(t, text("a strange mix of relief and guilt"))
	require.NoError(t, out.Err)
	assert.Equal(t, session.AwaitingSensations, out.To)

	h.sendAll(t, text("b"), text("a"), text("d"))
	entries, err := h.store.QueryEntriesForDate(context.Background(), userID, diary.DayOf(now))
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "a strange mix of relief and guilt", entries[0].Emotions)
}

func TestEmotionToggleTwiceRestoresSelection(t *testing.T) {
	h := newHarness(t)
	h.sendAll(t, pathTo[session.AwaitingEmotions]...)

	h.sendAll(t,
		selection(chat.EmotionToggleToken("Anger")),
		selection(chat.EmotionToggleToken("Anger")),
	)
	sess, ok := h.sessions.Get(userID)
	require.True(t, ok)
	require.NotNil(t, sess.Emotions)
	assert.Equal(t, 0, sess.Emotions.Len())
	assert.Equal(t, session.AwaitingEmotions, sess.State)
}

func TestEmptyEmotionConfirmIsRejected(t *testing.T) {
	h := newHarness(t)
	h.sendAll(t, pathTo[session.AwaitingEmotions]...)

	out := h.send(t, selection(chat.TokenEmotionsConfirm))
	assert.ErrorIs(t, out.Err, conversation.ErrEmptySelection)
	assert.Equal(t, session.AwaitingEmotions, out.To)
	assert.Contains(t, h.sender.last(t).Menu.Tokens(), chat.TokenEmotionsConfirm)
}

func TestEmotionGroupSwitchKeepsSelection(t *testing.T) {
	h := newHarness(t)
	h.sendAll(t, pathTo[session.AwaitingEmotions]...)

	h.sendAll(t,
		selection(chat.EmotionToggleToken("Anger")),
		selection(chat.EmotionGroupToken("fear")),
	)
	last := h.sender.last(t)
	assert.Contains(t, last.Menu.Tokens(), chat.EmotionToggleToken("Anxiety"))
	assert.Contains(t, last.Text, "Anger")

	out := h.send(t, selection(chat.EmotionGroupToken("boredom")))
	assert.ErrorIs(t, out.Err, conversation.ErrUnexpectedInput)

	out = h.send(t, selection(chat.EmotionToggleToken("Smugness")))
	assert.ErrorIs(t, out.Err, conversation.ErrUnexpectedInput)
	assert.Equal(t, session.AwaitingEmotions, out.To)
}

func TestPickerOnlyExistsInsideEmotionsState(t *testing.T) {
	h := newHarness(t)
	h.sendAll(t, pathTo[session.AwaitingThoughts]...)

	sess, _ := h.sessions.Get(userID)
	assert.Nil(t, sess.Emotions)

	h.sendAll(t, text("t"))
	sess, _ = h.sessions.Get(userID)
	assert.NotNil(t, sess.Emotions)

	h.sendAll(t, selection(chat.EmotionToggleToken("Joy")), selection(chat.TokenEmotionsConfirm))
	sess, _ = h.sessions.Get(userID)
	assert.Nil(t, sess.Emotions)
	assert.Equal(t, "Joy", sess.Journal.Emotions)
}

func TestMealsFlow(t *testing.T) {
	h := newHarness(t)
	day := diary.DayOf(now)

	h.sendAll(t, selection(chat.TokenStartMeals))

	out := h.send(t, text("abc"))
	assert.ErrorIs(t, out.Err, conversation.ErrInvalidNumericInput)
	assert.ErrorIs(t, out.Err, conversation.ErrValidation)
	assert.Equal(t, session.AwaitingMealsCount, out.To)
	assert.Equal(t, 0, h.store.writes)

	h.sendAll(t, text("3"))
	require.Equal(t, session.AwaitingMealsComment, h.state())

	out = h.send(t, text("нет"))
	require.NoError(t, out.Err)
	assert.True(t, out.Committed)
	assert.Equal(t, session.Idle, out.To)

	meal, err := h.store.QueryMealForDate(context.Background(), userID, day)
	require.NoError(t, err)
	require.NotNil(t, meal)
	assert.Equal(t, 3, meal.MealsCount)
	assert.Nil(t, meal.Comment)
	assert.Equal(t, "Recorded 3 meals.", h.sender.last(t).Text)
}

func TestMealsCountRejectsNonDigits(t *testing.T) {
	for _, raw := range []string{"", "  ", "-1", "+2", "2.5", "two", "1 2", "9999999999999999999999"} {
		t.Run(raw, func(t *testing.T) {
			h := newHarness(t)
			h.sendAll(t, selection(chat.TokenStartMeals))

			out := h.send(t, text(raw))
			assert.ErrorIs(t, out.Err, conversation.ErrInvalidNumericInput)
			assert.Equal(t, session.AwaitingMealsCount, out.To)
			assert.Zero(t, h.store.writes)
		})
	}
}

func TestMealsCommentVariants(t *testing.T) {
	cases := map[string]*string{
		"no":            nil,
		"No":            nil,
		" НЕТ ":         nil,
		"skipped lunch": strPtr("skipped lunch"),
	}
	for answer, want := range cases {
		t.Run(answer, func(t *testing.T) {
			h := newHarness(t)
			h.sendAll(t, selection(chat.TokenStartMeals), text("0"), text(answer))

			meal, err := h.store.QueryMealForDate(context.Background(), userID, diary.DayOf(now))
			require.NoError(t, err)
			require.NotNil(t, meal)
			assert.Equal(t, 0, meal.MealsCount)
			assert.Equal(t, want, meal.Comment)
		})
	}
}

func TestMealsSameDayReplacesPrevious(t *testing.T) {
	h := newHarness(t)
	day := diary.DayOf(now)

	h.sendAll(t, selection(chat.TokenStartMeals), text("2"), text("no"))
	h.sendAll(t, selection(chat.TokenStartMeals), text("4"), text("late dinner"))

	meal, err := h.store.QueryMealForDate(context.Background(), userID, day)
	require.NoError(t, err)
	assert.Equal(t, 4, meal.MealsCount)
	assert.Equal(t, "late dinner", *meal.Comment)
}

func TestCancelDiscardsDraftFromEveryState(t *testing.T) {
	for _, state := range session.States() {
		if state == session.Idle {
			continue
		}
		t.Run(state.String(), func(t *testing.T) {
			h := newHarness(t)
			h.sendAll(t, pathTo[state]...)
			require.Equal(t, state, h.state())

			out := h.send(t, command("/cancel"))
			require.NoError(t, out.Err)
			assert.Equal(t, session.Idle, out.To)
			assert.Zero(t, h.store.writes)

			sess, _ := h.sessions.Get(userID)
			assert.False(t, sess.HasDraft())
			assert.Equal(t, "Action cancelled. All unsaved data was deleted.", h.sender.last(t).Text)

			rendered, err := h.reports.Build(context.Background(), userID, diary.DayOf(now))
			require.NoError(t, err)
			assert.Contains(t, rendered, report.NoJournalEntries)
			assert.Contains(t, rendered, report.NoMealData)
		})
	}
}

func TestResetIsAcceptedEverywhere(t *testing.T) {
	for _, state := range session.States() {
		t.Run(state.String(), func(t *testing.T) {
			h := newHarness(t)
			h.sendAll(t, pathTo[state]...)

			out := h.send(t, command("/reset"))
			require.NoError(t, out.Err)
			assert.Equal(t, session.Idle, out.To)
			assert.Zero(t, h.store.writes)
		})
	}
}

func TestHelpKeepsState(t *testing.T) {
	for _, state := range session.States() {
		t.Run(state.String(), func(t *testing.T) {
			h := newHarness(t)
			h.sendAll(t, pathTo[state]...)

			out := h.send(t, command("/help"))
			require.NoError(t, out.Err)
			assert.Equal(t, state, out.To)
			assert.Contains(t, h.sender.last(t).Text, "/cancel")
		})
	}
}

func TestUnexpectedInputLeavesStateUnchanged(t *testing.T) {
	for _, state := range session.States() {
		for _, trigger := range conversation.Triggers() {
			if conversation.Accepts(state, trigger) {
				continue
			}
			t.Run(state.String()+"/"+trigger.String(), func(t *testing.T) {
				h := newHarness(t)
				h.sendAll(t, pathTo[state]...)
				before, _ := h.sessions.Get(userID)

				out := h.send(t, sampleEvent(trigger))
				assert.ErrorIs(t, out.Err, conversation.ErrUnexpectedInput)
				assert.Equal(t, state, out.From)
				assert.Equal(t, state, out.To)
				assert.Zero(t, h.store.writes)

				after, _ := h.sessions.Get(userID)
				assert.Equal(t, before.Journal, after.Journal)
				assert.Equal(t, before.Meal, after.Meal)
				if state != session.Idle {
					assert.Contains(t, h.sender.last(t).Text, "/cancel")
				}
			})
		}
	}
}

func TestCancelOutsideFlowIsUnexpected(t *testing.T) {
	h := newHarness(t)
	out := h.send(t, command("/cancel"))
	assert.ErrorIs(t, out.Err, conversation.ErrUnexpectedInput)
	assert.Equal(t, session.Idle, out.To)
	assert.Contains(t, h.sender.last(t).Menu.Tokens(), chat.TokenStartMeals)
}

func TestEmptyAnswerIsRejected(t *testing.T) {
	h := newHarness(t)
	h.sendAll(t, pathTo[session.AwaitingSituation]...)

	out := h.send(t, text("   "))
	assert.ErrorIs(t, out.Err, conversation.ErrEmptyAnswer)
	assert.Equal(t, session.AwaitingSituation, out.To)
	assert.Contains(t, h.sender.last(t).Text, "Describe the situation")
}

func TestStartingJournalMidMealsIsUnexpected(t *testing.T) {
	h := newHarness(t)
	h.sendAll(t, selection(chat.TokenStartMeals), text("2"))

	out := h.send(t, selection(chat.TokenStartJournal))
	assert.ErrorIs(t, out.Err, conversation.ErrUnexpectedInput)

	sess, _ := h.sessions.Get(userID)
	assert.Equal(t, session.MealDraft{Count: 2, Staged: true}, sess.Meal)
}

func TestJournalStorageFailureKeepsDraft(t *testing.T) {
	h := newHarness(t)
	h.sendAll(t, pathTo[session.AwaitingDesires]...)
	h.store.broken = true

	out := h.send(t, text("rest"))
	assert.ErrorIs(t, out.Err, storage.ErrUnavailable)
	assert.False(t, out.Committed)
	assert.Equal(t, session.AwaitingDesires, out.To)
	assert.Empty(t, h.journal(t))
	assert.NotContains(t, h.sender.last(t).Text, "added")

	sess, _ := h.sessions.Get(userID)
	assert.Equal(t, session.JournalDraft{Situation: "s", Thoughts: "t", Emotions: "e", Sensations: "b", Actions: "a"}, sess.Journal)

	h.store.broken = false
	out = h.send(t, text("rest"))
	require.NoError(t, out.Err)
	assert.True(t, out.Committed)
	assert.Len(t, h.journal(t), 1)
}

func TestMealsStorageFailureKeepsCount(t *testing.T) {
	h := newHarness(t)
	h.sendAll(t, pathTo[session.AwaitingMealsComment]...)
	h.store.broken = true

	out := h.send(t, text("no"))
	assert.ErrorIs(t, out.Err, storage.ErrUnavailable)
	assert.Equal(t, session.AwaitingMealsComment, out.To)

	h.store.broken = false
	h.sendAll(t, text("no"))
	meal, err := h.store.QueryMealForDate(context.Background(), userID, diary.DayOf(now))
	require.NoError(t, err)
	require.NotNil(t, meal)
	assert.Equal(t, 2, meal.MealsCount)
}

func TestMealsCommentWithoutCountIsUnexpected(t *testing.T) {
	h := newHarness(t)
	require.NoError(t, h.sessions.Update(userID, func(sess *session.Session) error {
		sess.State = session.AwaitingMealsComment
		return nil
	}))

	out := h.send(t, text("no"))
	assert.ErrorIs(t, out.Err, conversation.ErrUnexpectedInput)
	assert.Equal(t, session.AwaitingMealsComment, out.From)
	assert.Equal(t, session.AwaitingMealsComment, out.To)
	assert.False(t, out.Committed)
	assert.Zero(t, h.store.writes)
	assert.Contains(t, h.sender.last(t).Text, "/cancel")
}

func TestReportFailureKeepsState(t *testing.T) {
	cases := []struct {
		name  string
		setup []chat.Event
		ask   chat.Event
		from  session.State
	}{
		{"today", nil, selection(chat.TokenReportToday), session.Idle},
		{"selected date", pathTo[session.AwaitingReportDate], text("2023-11-15"), session.AwaitingReportDate},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			h := newHarness(t)
			h.sendAll(t, tc.setup...)
			h.reports.broken = true

			out := h.send(t, tc.ask)
			assert.ErrorIs(t, out.Err, storage.ErrUnavailable)
			assert.Equal(t, tc.from, out.From)
			assert.Equal(t, tc.from, out.To)
			assert.Equal(t, "Could not build the report right now. Please try again later.", h.sender.last(t).Text)

			h.reports.broken = false
			out = h.send(t, tc.ask)
			require.NoError(t, out.Err)
			assert.Equal(t, session.Idle, out.To)
			assert.True(t, strings.HasPrefix(h.sender.last(t).Text, "📊 Report for today"))
		})
	}
}

func TestReportToday(t *testing.T) {
	h := newHarness(t)
	h.sendAll(t, selection(chat.TokenRequestReport))
	assert.Contains(t, h.sender.last(t).Menu.Tokens(), chat.TokenReportSelectDate)

	out := h.send(t, selection(chat.TokenReportToday))
	require.NoError(t, out.Err)
	assert.Equal(t, session.Idle, out.To)

	last := h.sender.last(t).Text
	assert.True(t, strings.HasPrefix(last, "📊 Report for today"), last)
	assert.Contains(t, last, report.NoJournalEntries)
	assert.Contains(t, last, report.NoMealData)
}

func TestReportForSelectedDate(t *testing.T) {
	h := newHarness(t)
	h.sendAll(t, selection(chat.TokenRequestReport), selection(chat.TokenReportSelectDate))
	require.Equal(t, session.AwaitingReportDate, h.state())

	out := h.send(t, text("15/11/2023"))
	assert.ErrorIs(t, out.Err, conversation.ErrInvalidDateFormat)
	assert.ErrorIs(t, out.Err, conversation.ErrValidation)
	assert.Equal(t, session.AwaitingReportDate, out.To)

	out = h.send(t, text("2023-11-14"))
	require.NoError(t, out.Err)
	assert.Equal(t, session.Idle, out.To)
	assert.True(t, strings.HasPrefix(h.sender.last(t).Text, "📊 Report for yesterday"))

	h.sendAll(t, selection(chat.TokenReportSelectDate), text("2023-01-02"))
	assert.True(t, strings.HasPrefix(h.sender.last(t).Text, "📊 Report for 02.01.2023"))
}

func TestBackFromDatePromptReturnsToMenu(t *testing.T) {
	h := newHarness(t)
	h.sendAll(t, pathTo[session.AwaitingReportDate]...)

	out := h.send(t, selection(chat.TokenBack))
	require.NoError(t, out.Err)
	assert.Equal(t, session.Idle, out.To)
	assert.Equal(t, "Main menu:", h.sender.last(t).Text)
}

func TestStartShowsWelcome(t *testing.T) {
	h := newHarness(t)
	out := h.send(t, command("/start"))
	require.NoError(t, out.Err)
	assert.Equal(t, session.Idle, out.To)

	last := h.sender.last(t)
	assert.Contains(t, last.Text, "journaling assistant")
	assert.ElementsMatch(t, []string{chat.TokenStartJournal, chat.TokenStartMeals, chat.TokenRequestReport}, last.Menu.Tokens())
}

func TestUsersAreIndependent(t *testing.T) {
	h := newHarness(t)
	other := userID + 1

	h.sendAll(t, selection(chat.TokenStartJournal), text("mine"))
	_, err := h.engine.Handle(context.Background(), chat.Selection(other, chat.TokenStartMeals))
	require.NoError(t, err)

	assert.Equal(t, session.AwaitingThoughts, h.engine.State(userID))
	assert.Equal(t, session.AwaitingMealsCount, h.engine.State(other))
}

func TestDeliveryErrorIsReturned(t *testing.T) {
	sessions := session.NewStore()
	store := storage.NewMemoryStore()
	failing := chat.SenderFunc(func(context.Context, int64, string, chat.Menu) error {
		return errors.New("socket closed")
	})
	engine := conversation.NewEngine(sessions, store, report.NewGenerator(store), failing)

	out, err := engine.Handle(context.Background(), chat.Selection(userID, chat.TokenStartJournal))
	assert.Error(t, err)
	assert.NoError(t, out.Err)
	assert.Equal(t, session.AwaitingSituation, out.To)
}

func strPtr(s string) *string { return &s }
