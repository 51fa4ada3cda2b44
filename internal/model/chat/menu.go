package chat

import "strings"

// Menu tokens. Emotion tokens carry an argument after the colon.
const (
	TokenStartJournal     = "start-journal"
	TokenStartMeals       = "start-meals"
	TokenRequestReport    = "request-report"
	TokenReportToday      = "report-today"
	TokenReportSelectDate = "report-select-date"
	TokenBack             = "back"
	TokenHelp             = "help"
	TokenEmotionToggle    = "emotion-toggle"
	TokenEmotionGroup     = "emotion-group"
	TokenEmotionsConfirm  = "emotions-confirm"
)

const tokenArgSeparator = ":"

// Button is a labeled selectable token.
type Button struct {
	Label string `json:"label"`
	Token string `json:"token"`
}

// Menu is an ordered list of button rows. A nil Menu renders nothing.
type Menu [][]Button

// Rows builds a menu with one button per row.
func Rows(buttons ...Button) Menu {
	menu := make(Menu, 0, len(buttons))
	for _, b := range buttons {
		menu = append(menu, []Button{b})
	}
	return menu
}

// Tokens flattens the menu in rendering order.
func (m Menu) Tokens() []string {
	var tokens []string
	for _, row := range m {
		for _, b := range row {
			tokens = append(tokens, b.Token)
		}
	}
	return tokens
}

func EmotionToggleToken(tag string) string {
	return TokenEmotionToggle + tokenArgSeparator + tag
}

func EmotionGroupToken(group string) string {
	return TokenEmotionGroup + tokenArgSeparator + group
}

// SplitToken separates a token into its name and optional argument.
func SplitToken(token string) (name, arg string) {
	name, arg, _ = strings.Cut(strings.TrimSpace(token), tokenArgSeparator)
	return name, arg
}
