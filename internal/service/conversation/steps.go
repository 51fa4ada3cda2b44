package conversation

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/dailytracker/backend/internal/model/diary"
	"github.com/dailytracker/backend/internal/model/emotion"
	"github.com/dailytracker/backend/internal/service/session"
)

func startStep(t *turn) error {
	t.send(textWelcome, mainMenu())
	return nil
}

func helpStep(t *turn) error {
	text, menu := t.prompt()
	t.send(textHelp+"\n\n"+text, menu)
	return nil
}

func resetStep(t *turn) error {
	t.finish(textReset)
	return nil
}

func cancelStep(t *turn) error {
	t.finish(textCancelled)
	return nil
}

func mainMenuStep(t *turn) error {
	t.finish(textMainMenu)
	return nil
}

func reportMenuStep(t *turn) error {
	t.send(promptReportDay, reportMenu())
	return nil
}

func beginStep(state session.State) step {
	return func(t *turn) error {
		t.begin(state)
		return nil
	}
}

func unexpectedStep(t *turn) error {
	if t.sess.State == session.Idle {
		t.send(textUnexpected, mainMenu())
		return ErrUnexpectedInput
	}
	text, menu := t.prompt()
	t.send(textUnexpected+" "+textCancelHint+"\n\n"+text, menu)
	return ErrUnexpectedInput
}

// answerStep stores a free-text answer in the journal draft and moves on.
func answerStep(set func(*session.JournalDraft, string), next session.State) step {
	return func(t *turn) error {
		text, err := t.answer()
		if err != nil {
			return err
		}
		set(&t.sess.Journal, text)
		t.moveTo(next)
		return nil
	}
}

func emotionToggleStep(t *turn) error {
	p := t.picker()
	if _, err := p.Toggle(t.in.arg); err != nil {
		return unexpectedStep(t)
	}
	t.send(selectionSummary(p), emotionMenu(p))
	return nil
}

func emotionGroupStep(t *turn) error {
	p := t.picker()
	if err := p.Focus(t.in.arg); err != nil {
		return unexpectedStep(t)
	}
	t.send(p.Focused().Label+"\n"+selectionSummary(p), emotionMenu(p))
	return nil
}

func emotionsConfirmStep(t *turn) error {
	p := t.picker()
	value, err := p.Confirm()
	if err != nil {
		t.send(textEmptySelection, emotionMenu(p))
		return ErrEmptySelection
	}
	t.sess.Journal.Emotions = value
	t.moveTo(session.AwaitingSensations)
	return nil
}

func commitJournalStep(t *turn) error {
	desires, err := t.answer()
	if err != nil {
		return err
	}

	d := t.sess.Journal
	entry := diary.JournalEntry{
		UserID:     t.sess.UserID,
		Date:       t.today(),
		Situation:  d.Situation,
		Thoughts:   d.Thoughts,
		Emotions:   d.Emotions,
		Sensations: d.Sensations,
		Actions:    d.Actions,
		Desires:    desires,
	}
	id, err := t.engine.writer.AppendJournalEntry(t.ctx, entry)
	if err != nil {
		t.engine.logger.Errorw("save journal entry failed", "user_id", t.sess.UserID, "flow_id", t.sess.FlowID, "error", err)
		t.send(textSaveFailed, nil)
		return err
	}

	t.engine.logger.Infow("journal entry saved", "user_id", t.sess.UserID, "entry_id", id, "date", entry.Date.String())
	t.committed = true
	t.finish(textJournalSaved)
	return nil
}

func mealsCountStep(t *turn) error {
	count, err := parseCount(t.in.text)
	if err != nil {
		t.send(textInvalidNumber, nil)
		return err
	}
	t.sess.Meal = session.MealDraft{Count: count, Staged: true}
	t.moveTo(session.AwaitingMealsComment)
	return nil
}

// parseCount accepts ASCII digits only, so signs and spaces inside the number are rejected.
func parseCount(raw string) (int, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, ErrInvalidNumericInput
	}
	for _, r := range raw {
		if r < '0' || r > '9' {
			return 0, ErrInvalidNumericInput
		}
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrInvalidNumericInput, err)
	}
	return n, nil
}

func commitMealsStep(t *turn) error {
	if !t.sess.Meal.Staged {
		t.engine.logger.Warnw("meals comment without staged count", "user_id", t.sess.UserID)
		return unexpectedStep(t)
	}

	var comment *string
	if text := strings.TrimSpace(t.in.text); text != "" && !isNoMarker(text) {
		comment = &text
	}

	count := t.sess.Meal.Count
	day := t.today()
	if err := t.engine.writer.UpsertMealEntry(t.ctx, t.sess.UserID, day, count, comment); err != nil {
		t.engine.logger.Errorw("save meal entry failed", "user_id", t.sess.UserID, "flow_id", t.sess.FlowID, "error", err)
		t.send(textSaveFailed, nil)
		return err
	}

	t.engine.logger.Infow("meal entry saved", "user_id", t.sess.UserID, "date", day.String(), "meals_count", count)
	t.committed = true
	t.finish(fmt.Sprintf(textMealsSaved, count))
	return nil
}

func selectDateStep(t *turn) error {
	t.begin(session.AwaitingReportDate)
	return nil
}

func reportTodayStep(t *turn) error {
	return t.sendReport(t.today())
}

func reportDateStep(t *turn) error {
	day, err := diary.ParseDay(t.in.text)
	if err != nil {
		t.send(textInvalidDate, reportMenu())
		return fmt.Errorf("%w: %v", ErrInvalidDateFormat, err)
	}
	return t.sendReport(day)
}

// enterEmotions and exitEmotions bracket the picker sub-state.
func enterEmotions(t *turn) {
	t.sess.Emotions = emotion.NewPicker()
}

func exitEmotions(t *turn) {
	t.sess.Emotions = nil
}

var (
	onEnter = map[session.State]func(*turn){session.AwaitingEmotions: enterEmotions}
	onExit  = map[session.State]func(*turn){session.AwaitingEmotions: exitEmotions}
)

var errNoPicker = errors.New("emotion picker missing in emotions state")
