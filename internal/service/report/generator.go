package report

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/dailytracker/backend/internal/model/diary"
)

// EntryReader is the read side of the entry store.
type EntryReader interface {
	QueryEntriesForDate(ctx context.Context, userID int64, day diary.Day) ([]diary.JournalEntry, error)
	QueryMealForDate(ctx context.Context, userID int64, day diary.Day) (*diary.MealEntry, error)
}

// Markers printed when a section has no data.
const (
	NoJournalEntries = "📝 No journal entries"
	NoMealData       = "🍎 No meal data"
)

// Generator renders the daily report of a user.
type Generator struct {
	entries EntryReader
	now     func() time.Time
}

// Option configures a Generator.
type Option func(*Generator)

// WithClock sets the clock that decides what today is.
func WithClock(now func() time.Time) Option {
	return func(g *Generator) { g.now = now }
}

// NewGenerator creates a generator reading from entries.
func NewGenerator(entries EntryReader, opts ...Option) *Generator {
	g := &Generator{entries: entries, now: time.Now}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Today is the current calendar day by the generator's clock.
func (g *Generator) Today() diary.Day {
	return diary.DayOf(g.now())
}

// Daily is one day of a user's data together with its rendered text.
type Daily struct {
	UserID  int64                `json:"userId"`
	Date    diary.Day            `json:"date"`
	Label   string               `json:"label"`
	Journal []diary.JournalEntry `json:"journal"`
	Meal    *diary.MealEntry     `json:"meal"`
	Text    string               `json:"text"`
}

// Load reads and renders the data of day. Storage errors are returned wrapped.
func (g *Generator) Load(ctx context.Context, userID int64, day diary.Day) (Daily, error) {
	journal, err := g.entries.QueryEntriesForDate(ctx, userID, day)
	if err != nil {
		return Daily{}, fmt.Errorf("load journal entries: %w", err)
	}

	meal, err := g.entries.QueryMealForDate(ctx, userID, day)
	if err != nil {
		return Daily{}, fmt.Errorf("load meal entry: %w", err)
	}

	label := Label(day, g.Today())
	return Daily{
		UserID:  userID,
		Date:    day,
		Label:   label,
		Journal: journal,
		Meal:    meal,
		Text:    Render(label, journal, meal),
	}, nil
}

// Build renders the report for day.
func (g *Generator) Build(ctx context.Context, userID int64, day diary.Day) (string, error) {
	daily, err := g.Load(ctx, userID, day)
	if err != nil {
		return "", err
	}
	return daily.Text, nil
}

// Label names day relative to today.
func Label(day, today diary.Day) string {
	switch day {
	case today:
		return "today"
	case today.AddDays(-1):
		return "yesterday"
	default:
		return day.Format("02.01.2006")
	}
}

// Render formats a report from already loaded data.
func Render(label string, journal []diary.JournalEntry, meal *diary.MealEntry) string {
	var b strings.Builder

	fmt.Fprintf(&b, "📊 Report for %s\n\n", label)

	if len(journal) == 0 {
		b.WriteString(NoJournalEntries + "\n\n")
	} else {
		b.WriteString("📝 Journal entries:\n\n")
		for i, entry := range journal {
			fmt.Fprintf(&b, "Entry #%d:\n", i+1)
			for _, f := range fields(entry) {
				fmt.Fprintf(&b, "• %s: %s\n", f.label, f.value)
			}
			b.WriteString("\n")
		}
	}

	if meal == nil {
		b.WriteString(NoMealData + "\n")
	} else {
		fmt.Fprintf(&b, "🍎 Meals: %d\n", meal.MealsCount)
		if meal.Comment != nil && *meal.Comment != "" {
			fmt.Fprintf(&b, "💬 Comment: %s\n", *meal.Comment)
		}
	}

	return b.String()
}

type field struct {
	label string
	value string
}

func fields(e diary.JournalEntry) []field {
	return []field{
		{"Situation", e.Situation},
		{"Thoughts", e.Thoughts},
		{"Emotions", e.Emotions},
		{"Sensations", e.Sensations},
		{"Actions", e.Actions},
		{"Desires", e.Desires},
	}
}
