package diary

// JournalEntry is one committed situation record. Several may exist per user and day.
type JournalEntry struct {
	ID         int64  `json:"id" db:"id"`
	UserID     int64  `json:"userId" db:"user_id"`
	Date       Day    `json:"date" db:"date"`
	Situation  string `json:"situation" db:"situation"`
	Thoughts   string `json:"thoughts" db:"thoughts"`
	Emotions   string `json:"emotions" db:"emotions"`
	Sensations string `json:"sensations" db:"sensations"`
	Actions    string `json:"actions" db:"actions"`
	Desires    string `json:"desires" db:"desires"`
}

// MealEntry is the single meal record of a user for a day.
type MealEntry struct {
	ID         int64   `json:"id" db:"id"`
	UserID     int64   `json:"userId" db:"user_id"`
	Date       Day     `json:"date" db:"date"`
	MealsCount int     `json:"mealsCount" db:"meals_count"`
	Comment    *string `json:"comment,omitempty" db:"comments"`
}
