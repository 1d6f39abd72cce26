package ui

import (
	"fmt"

	"github.com/alfredjeanlab/hackops/internal/model"
)

// ANSI256 color codes matching the Ayu palette.
const (
	colorAccent = 74  // blue
	colorCmd    = 250 // light gray
	colorMuted  = 245 // medium gray
	colorAccept = 114 // green
	colorReject = 203 // red
	colorStar   = 221 // yellow
)

var noColor bool

func paint(code int, s string) string {
	if noColor {
		return s
	}
	return fmt.Sprintf("\x1b[38;5;%dm%s\x1b[0m", code, s)
}

// RenderAccent returns s in the accent (blue) color.
func RenderAccent(s string) string { return paint(colorAccent, s) }

// RenderMuted returns s in the muted (gray) color.
func RenderMuted(s string) string { return paint(colorMuted, s) }

// RenderOutcome renders a classification outcome; a participant no rule
// matched renders as a muted dash.
func RenderOutcome(a model.Action) string {
	switch a {
	case model.ActionAccept:
		return paint(colorAccept, "accept")
	case model.ActionReject:
		return paint(colorReject, "reject")
	case model.ActionHighlight:
		return paint(colorStar, "highlight")
	}
	return RenderMuted("-")
}

// RenderStatus renders a participant status in its outcome color.
func RenderStatus(s model.Status) string {
	switch s {
	case model.StatusApproved:
		return paint(colorAccept, string(s))
	case model.StatusRejected:
		return paint(colorReject, string(s))
	}
	return RenderMuted(string(s))
}

// ForceNoColor disables color output globally.
func ForceNoColor() {
	noColor = true
}

// RenderCommand renders a command name in help output.
func RenderCommand(s string) string { return paint(colorCmd, s) }
