package conversation

import (
	"github.com/dailytracker/backend/internal/model/chat"
)

// Trigger is the input alphabet of the state machine.
type Trigger int

const (
	TriggerUnknown Trigger = iota
	TriggerText
	TriggerStart
	TriggerCancel
	TriggerReset
	TriggerHelp
	TriggerStartJournal
	TriggerStartMeals
	TriggerRequestReport
	TriggerReportToday
	TriggerReportSelectDate
	TriggerBack
	TriggerEmotionToggle
	TriggerEmotionGroup
	TriggerEmotionsConfirm
)

var triggerNames = map[Trigger]string{
	TriggerUnknown:          "unknown",
	TriggerText:             "text",
	TriggerStart:            "start",
	TriggerCancel:           "cancel",
	TriggerReset:            "reset",
	TriggerHelp:             "help",
	TriggerStartJournal:     chat.TokenStartJournal,
	TriggerStartMeals:       chat.TokenStartMeals,
	TriggerRequestReport:    chat.TokenRequestReport,
	TriggerReportToday:      chat.TokenReportToday,
	TriggerReportSelectDate: chat.TokenReportSelectDate,
	TriggerBack:             chat.TokenBack,
	TriggerEmotionToggle:    chat.TokenEmotionToggle,
	TriggerEmotionGroup:     chat.TokenEmotionGroup,
	TriggerEmotionsConfirm:  chat.TokenEmotionsConfirm,
}

func (t Trigger) String() string {
	if name, ok := triggerNames[t]; ok {
		return name
	}
	return "unknown"
}

// Triggers lists every trigger, TriggerUnknown included.
func Triggers() []Trigger {
	out := make([]Trigger, 0, len(triggerNames))
	for t := TriggerUnknown; t <= TriggerEmotionsConfirm; t++ {
		out = append(out, t)
	}
	return out
}

var commandTriggers = map[string]Trigger{
	chat.CommandStart:  TriggerStart,
	chat.CommandCancel: TriggerCancel,
	chat.CommandReset:  TriggerReset,
	chat.CommandHelp:   TriggerHelp,
}

var menuTriggers = map[string]Trigger{
	chat.TokenStartJournal:     TriggerStartJournal,
	chat.TokenStartMeals:       TriggerStartMeals,
	chat.TokenRequestReport:    TriggerRequestReport,
	chat.TokenReportToday:      TriggerReportToday,
	chat.TokenReportSelectDate: TriggerReportSelectDate,
	chat.TokenBack:             TriggerBack,
	chat.TokenHelp:             TriggerHelp,
	chat.TokenEmotionToggle:    TriggerEmotionToggle,
	chat.TokenEmotionGroup:     TriggerEmotionGroup,
	chat.TokenEmotionsConfirm:  TriggerEmotionsConfirm,
}

// input is a classified event.
type input struct {
	trigger Trigger
	arg     string
	text    string
}

func classify(ev chat.Event) input {
	switch ev.Kind {
	case chat.KindCommand:
		return input{trigger: commandTriggers[ev.Name]}
	case chat.KindMenu:
		name, arg := chat.SplitToken(ev.Token)
		return input{trigger: menuTriggers[name], arg: arg}
	case chat.KindText:
		return input{trigger: TriggerText, text: ev.Text}
	default:
		return input{trigger: TriggerUnknown}
	}
}
