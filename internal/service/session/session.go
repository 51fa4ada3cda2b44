package session

import (
	"time"

	"github.com/google/uuid"

	"github.com/dailytracker/backend/internal/model/emotion"
)

// State is the current step of a user's dialogue.
type State int

const (
	Idle State = iota
	AwaitingSituation
	AwaitingThoughts
	AwaitingEmotions
	AwaitingSensations
	AwaitingActions
	AwaitingDesires
	AwaitingMealsCount
	AwaitingMealsComment
	AwaitingReportDate
)

var stateNames = map[State]string{
	Idle:                 "Idle",
	AwaitingSituation:    "AwaitingSituation",
	AwaitingThoughts:     "AwaitingThoughts",
	AwaitingEmotions:     "AwaitingEmotions",
	AwaitingSensations:   "AwaitingSensations",
	AwaitingActions:      "AwaitingActions",
	AwaitingDesires:      "AwaitingDesires",
	AwaitingMealsCount:   "AwaitingMealsCount",
	AwaitingMealsComment: "AwaitingMealsComment",
	AwaitingReportDate:   "AwaitingReportDate",
}

func (s State) String() string {
	if name, ok := stateNames[s]; ok {
		return name
	}
	return "Unknown"
}

// States lists every state in declaration order.
func States() []State {
	out := make([]State, 0, len(stateNames))
	for s := Idle; s <= AwaitingReportDate; s++ {
		out = append(out, s)
	}
	return out
}

// JournalDraft holds the answers collected so far. Desires is never staged: it is the commit input.
type JournalDraft struct {
	Situation  string
	Thoughts   string
	Emotions   string
	Sensations string
	Actions    string
}

// MealDraft holds the meals count between the count and comment steps.
type MealDraft struct {
	Count  int
	Staged bool
}

// Session is the mutable dialogue record of one user.
type Session struct {
	UserID    int64
	FlowID    string
	State     State
	Journal   JournalDraft
	Meal      MealDraft
	Emotions  *emotion.Picker
	UpdatedAt time.Time
}

// Begin discards any draft and starts a new flow at state.
func (s *Session) Begin(state State) {
	s.Reset()
	s.FlowID = uuid.NewString()
	s.State = state
}

// Reset drops every draft and returns to Idle.
func (s *Session) Reset() {
	s.FlowID = ""
	s.State = Idle
	s.Journal = JournalDraft{}
	s.Meal = MealDraft{}
	s.Emotions = nil
}

// HasDraft reports whether anything would be lost by a reset.
func (s *Session) HasDraft() bool {
	return s.Journal != (JournalDraft{}) || s.Meal.Staged || s.Emotions != nil
}

func (s Session) clone() Session {
	s.Emotions = s.Emotions.Clone()
	return s
}
