package conversation

import (
	"github.com/dailytracker/backend/internal/service/session"
)

// step performs one transition. The returned error is the rejection reported in Outcome.Err;
// a step that rejects must leave the session state as it found it.
type step func(t *turn) error

// transitions is the complete state × trigger table. Pairs missing from it are unexpected input.
var transitions = buildTransitions()

func buildTransitions() map[session.State]map[Trigger]step {
	reportSubmenu := map[Trigger]step{
		TriggerReportToday:      reportTodayStep,
		TriggerReportSelectDate: selectDateStep,
		TriggerBack:             mainMenuStep,
	}

	table := map[session.State]map[Trigger]step{
		session.Idle: {
			TriggerStart:         startStep,
			TriggerStartJournal:  beginStep(session.AwaitingSituation),
			TriggerStartMeals:    beginStep(session.AwaitingMealsCount),
			TriggerRequestReport: reportMenuStep,
		},
		session.AwaitingSituation: {
			TriggerText: answerStep(func(d *session.JournalDraft, v string) { d.Situation = v }, session.AwaitingThoughts),
		},
		session.AwaitingThoughts: {
			TriggerText: answerStep(func(d *session.JournalDraft, v string) { d.Thoughts = v }, session.AwaitingEmotions),
		},
		session.AwaitingEmotions: {
			TriggerText:            answerStep(func(d *session.JournalDraft, v string) { d.Emotions = v }, session.AwaitingSensations),
			TriggerEmotionToggle:   emotionToggleStep,
			TriggerEmotionGroup:    emotionGroupStep,
			TriggerEmotionsConfirm: emotionsConfirmStep,
		},
		session.AwaitingSensations: {
			TriggerText: answerStep(func(d *session.JournalDraft, v string) { d.Sensations = v }, session.AwaitingActions),
		},
		session.AwaitingActions: {
			TriggerText: answerStep(func(d *session.JournalDraft, v string) { d.Actions = v }, session.AwaitingDesires),
		},
		session.AwaitingDesires: {
			TriggerText: commitJournalStep,
		},
		session.AwaitingMealsCount: {
			TriggerText: mealsCountStep,
		},
		session.AwaitingMealsComment: {
			TriggerText: commitMealsStep,
		},
		session.AwaitingReportDate: {
			TriggerText: reportDateStep,
		},
	}

	for _, state := range []session.State{session.Idle, session.AwaitingReportDate} {
		for trigger, s := range reportSubmenu {
			table[state][trigger] = s
		}
	}

	for _, state := range session.States() {
		row := table[state]
		row[TriggerHelp] = helpStep
		row[TriggerReset] = resetStep
		if state != session.Idle {
			row[TriggerCancel] = cancelStep
		}
	}

	return table
}

func lookup(state session.State, trigger Trigger) step {
	if s, ok := transitions[state][trigger]; ok {
		return s
	}
	return unexpectedStep
}

// Accepts reports whether trigger has a transition out of state.
func Accepts(state session.State, trigger Trigger) bool {
	_, ok := transitions[state][trigger]
	return ok
}
