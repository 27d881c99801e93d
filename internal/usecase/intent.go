package usecase

import (
	"strconv"
	"strings"

	"commerce-agent/internal/domain"
)

// IntentKind tags the parsed-intent variant.
type IntentKind string

const (
	IntentSelection IntentKind = "selection"
	IntentCommand   IntentKind = "command"
	IntentNumber    IntentKind = "number"
	IntentText      IntentKind = "text"
)

// Command is a global command recognized regardless of the current step.
type Command string

const (
	CommandHelp    Command = "help"
	CommandRestart Command = "restart"
	CommandCart    Command = "cart"
	CommandMenu    Command = "menu"
)

// Intent is the single parsed representation of an inbound event. Parsing
// happens exactly once, at the top of event handling; every step then
// dispatches on the tagged variant instead of re-comparing raw strings.
type Intent struct {
	Kind        IntentKind
	SelectionID string
	Command     Command
	Number      int
	Text        string // normalized: lower-cased, whitespace-collapsed
	Raw         string // original text, trimmed; used for name capture
}

// commandWords maps normalized trigger words to their command. Multi-word
// triggers are matched against the whole normalized text.
var commandWords = map[string]Command{
	"help":     CommandHelp,
	"support":  CommandHelp,
	"start":    CommandRestart,
	"hi":       CommandRestart,
	"hello":    CommandRestart,
	"cart":     CommandCart,
	"my order": CommandCart,
	"menu":     CommandMenu,
}

// ParseIntent classifies one inbound event. A structured selection id from an
// interactive reply wins over the text body; command words win over numbers
// so "help" escapes any step, including Payment.
func ParseIntent(ev domain.InboundEvent) Intent {
	raw := strings.TrimSpace(ev.Text)
	text := normalizeText(ev.Text)

	if sel := strings.TrimSpace(ev.SelectionID); sel != "" {
		return Intent{Kind: IntentSelection, SelectionID: sel, Text: text, Raw: raw}
	}
	if cmd, ok := commandWords[text]; ok {
		return Intent{Kind: IntentCommand, Command: cmd, Text: text, Raw: raw}
	}
	if n, err := strconv.Atoi(text); err == nil {
		return Intent{Kind: IntentNumber, Number: n, Text: text, Raw: raw}
	}
	return Intent{Kind: IntentText, Text: text, Raw: raw}
}

func normalizeText(s string) string {
	return strings.ToLower(strings.Join(strings.Fields(s), " "))
}
