package view

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"
)

const loadingText = "Loading ......"

// Lines renders the screen as text, one entry per displayed line.
func (s State) Lines() []string {
	switch p := s.Phase.(type) {
	case Success:
		r := p.Result
		return []string{
			fmt.Sprintf("Weather in %s , %s :", r.Location, r.Country),
			fmt.Sprintf("is %s°C", formatTemperature(r.TemperatureC)),
			"Condition is " + r.Condition,
		}
	case Failure:
		return []string{
			fmt.Sprintf("Weather in %s :", s.City),
			p.Message,
		}
	default:
		return []string{
			fmt.Sprintf("Weather in %s :", s.City),
			loadingText,
		}
	}
}

// formatTemperature keeps one decimal for whole numbers: 28 -> "28.0".
func formatTemperature(t float64) string {
	s := strconv.FormatFloat(t, 'f', -1, 64)
	if !strings.Contains(s, ".") {
		s += ".0"
	}
	return s
}

// TerminalRenderer redraws the screen on every state change.
type TerminalRenderer struct {
	out io.Writer
}

func NewTerminalRenderer(out io.Writer) *TerminalRenderer {
	return &TerminalRenderer{out: out}
}

func (r *TerminalRenderer) OnStateChange(_ context.Context, state State) {
	_, _ = fmt.Fprintf(r.out, "%s\n\n", strings.Join(state.Lines(), "\n"))
}
