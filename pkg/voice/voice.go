// Package voice carries the activation trigger and spoken feedback for the
// pick-and-place loop. Recognition and synthesis run elsewhere; this
// package only moves phrases in and out.
package voice

import (
	"context"
	"strings"
)

// DefaultTrigger is the phrase that starts one operational cycle.
const DefaultTrigger = "activate now"

// Feedback phrases spoken around a cycle.
const (
	Activating = "Please wait, the arm is activating"
	Ready      = "I am ready to go again"
)

// Listener blocks until the recognizer produces a phrase. A phrase the
// recognizer could not understand comes back as an empty string.
type Listener interface {
	Listen(ctx context.Context) (string, error)
}

// Speaker says a phrase and returns once it has been spoken.
type Speaker interface {
	Say(ctx context.Context, text string) error
}

// IsActivation reports whether phrase matches trigger, ignoring case and
// surrounding whitespace.
func IsActivation(phrase, trigger string) bool {
	if trigger == "" {
		trigger = DefaultTrigger
	}
	return strings.EqualFold(strings.Join(strings.Fields(phrase), " "), strings.Join(strings.Fields(trigger), " "))
}
