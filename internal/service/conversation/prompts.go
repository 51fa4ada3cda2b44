package conversation

import (
	"fmt"
	"strings"

	"github.com/dailytracker/backend/internal/model/chat"
	"github.com/dailytracker/backend/internal/model/emotion"
	"github.com/dailytracker/backend/internal/service/session"
)

const (
	textWelcome = "Hi! I am your journaling assistant.\n" +
		"Use the buttons below to write an entry or look at your data."
	textMainMenu = "Main menu:"
	textHelp     = "📝 Journal entry walks you through situation, thoughts, emotions, sensations, actions and desires.\n" +
		"🍎 Meals records how many times you ate today.\n" +
		"📊 Daily report shows everything saved for a day.\n\n" +
		"/cancel stops the current entry, /reset starts from scratch."

	promptSituation    = "Describe the situation you want to write down:"
	promptThoughts     = "What thoughts came up in this situation?"
	promptEmotions     = "What emotions did you feel? Pick them below and press Done, or type them in your own words."
	promptSensations   = "What physical sensations did you notice?"
	promptActions      = "What did you do in this situation?"
	promptDesires      = "What did you want to do in this situation?"
	promptMealsCount   = "How many times did you eat today?"
	promptMealsComment = "Any comment about today's meals? Send \"no\" to skip."
	promptReportDay    = "Which day do you want a report for?"
	promptReportDate   = "Enter the date as YYYY-MM-DD (for example, 2023-11-15):"

	textJournalSaved = "Entry added to your journal!"
	textMealsSaved   = "Recorded %d meals."
	textCancelled    = "Action cancelled. All unsaved data was deleted."
	textReset        = "State reset. Start over."

	textUnexpected     = "Sorry, I did not expect that here."
	textCancelHint     = "Send /cancel to stop."
	textEmptyAnswer    = "Please write at least a few words."
	textInvalidNumber  = "Please enter a number."
	textInvalidDate    = "Invalid date format. Enter the date as YYYY-MM-DD (for example, 2023-11-15):"
	textEmptySelection = "Pick at least one emotion before pressing Done."
	textSaveFailed     = "Could not save right now. Please send your answer again in a moment."
	textReportFailed   = "Could not build the report right now. Please try again later."
)

var statePrompts = map[session.State]string{
	session.AwaitingSituation:    promptSituation,
	session.AwaitingThoughts:     promptThoughts,
	session.AwaitingEmotions:     promptEmotions,
	session.AwaitingSensations:   promptSensations,
	session.AwaitingActions:      promptActions,
	session.AwaitingDesires:      promptDesires,
	session.AwaitingMealsCount:   promptMealsCount,
	session.AwaitingMealsComment: promptMealsComment,
	session.AwaitingReportDate:   promptReportDate,
}

// noMarkers are the answers meaning "no comment".
var noMarkers = []string{"no", "нет"}

func isNoMarker(text string) bool {
	text = strings.TrimSpace(text)
	for _, marker := range noMarkers {
		if strings.EqualFold(text, marker) {
			return true
		}
	}
	return false
}

func mainMenu() chat.Menu {
	return chat.Rows(
		chat.Button{Label: "📝 Journal entry", Token: chat.TokenStartJournal},
		chat.Button{Label: "🍎 Meals", Token: chat.TokenStartMeals},
		chat.Button{Label: "📊 Daily report", Token: chat.TokenRequestReport},
	)
}

func reportMenu() chat.Menu {
	return chat.Rows(
		chat.Button{Label: "Today", Token: chat.TokenReportToday},
		chat.Button{Label: "Pick a date", Token: chat.TokenReportSelectDate},
		chat.Button{Label: "Back", Token: chat.TokenBack},
	)
}

const (
	groupsPerRow = 3
	tagsPerRow   = 2
)

// emotionMenu shows the group switcher, the focused group's tags and the confirm button.
func emotionMenu(p *emotion.Picker) chat.Menu {
	focused := p.Focused()

	var menu chat.Menu
	var row []chat.Button
	for _, g := range emotion.Groups() {
		label := g.Label
		if g.ID == focused.ID {
			label = "» " + label
		}
		row = append(row, chat.Button{Label: label, Token: chat.EmotionGroupToken(g.ID)})
		if len(row) == groupsPerRow {
			menu, row = append(menu, row), nil
		}
	}
	if len(row) > 0 {
		menu, row = append(menu, row), nil
	}

	for _, tag := range focused.Tags {
		label := tag
		if p.IsSelected(tag) {
			label = "✅ " + tag
		}
		row = append(row, chat.Button{Label: label, Token: chat.EmotionToggleToken(tag)})
		if len(row) == tagsPerRow {
			menu, row = append(menu, row), nil
		}
	}
	if len(row) > 0 {
		menu = append(menu, row)
	}

	return append(menu, []chat.Button{{Label: "✔️ Done", Token: chat.TokenEmotionsConfirm}})
}

func selectionSummary(p *emotion.Picker) string {
	if p.Len() == 0 {
		return "Nothing selected yet."
	}
	return fmt.Sprintf("Selected: %s", strings.Join(p.Selected(), emotion.Separator))
}

// MainMenu is the keyboard shown in Idle.
func MainMenu() chat.Menu { return mainMenu() }
