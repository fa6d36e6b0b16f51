package intent

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/cohortlabs/oracle/internal/llm"
)

const systemPrompt = `You translate messages from members of a startup cohort community into a single JSON command.

Output ONLY one JSON object, no markdown and no explanation, with these fields:
- action: one of [send_message, create_update, update_status, assign_user, broadcast, none]
- the fields for that action, and no others:
  - send_message: { user_name: string, content: string }
  - create_update: { content: string }
  - update_status: { status: string }
  - assign_user: { user_name: string, team_name: string (empty string to remove the user from their team) }
  - broadcast: { content: string, broadcast_type: "all" | "team" | "role", target_value?: role name when broadcast_type is "role" }
  - none: {}

Rules:
1. Use "none" for questions, greetings and anything that does not clearly ask to change data or notify people.
2. Never invent names; copy user and team names exactly as written.
3. Commands may start with a slash, e.g. "/broadcast 50% done" is a broadcast with content "50% done".
4. Omit broadcast_type unless the message says who should receive it.`

// Parser turns free text into an action Descriptor using the language model.
type Parser struct {
	llm   llm.Completer
	model string
}

// NewParser creates a Parser. An empty model uses the backend default.
func NewParser(completer llm.Completer, model string) *Parser {
	return &Parser{llm: completer, model: model}
}

// Parse returns the action requested by text, or nil when there is none or
// the model's output cannot be trusted. It never returns an error: callers
// treat nil exactly like ActionNone.
func (p *Parser) Parse(ctx context.Context, text string) *Descriptor {
	if strings.TrimSpace(text) == "" {
		return nil
	}

	raw, err := p.llm.Complete(ctx, llm.Request{
		Model:       p.model,
		System:      systemPrompt,
		User:        text,
		Temperature: 0,
		MaxTokens:   300,
	})
	if err != nil {
		slog.Warn("intent parsing skipped", "kind", llm.KindOf(err), "error", err)
		return nil
	}

	d, err := Decode(raw)
	if err != nil {
		slog.Warn("rejected intent output", "error", err, "output", truncate(raw, 200))
		return nil
	}
	if d.Action == ActionNone {
		return nil
	}
	return d
}

// ErrNotJSON is returned by Decode when the output holds no JSON object.
var ErrNotJSON = errors.New("output is not a JSON object")

// Decode strictly decodes model output into a Descriptor. At most one
// surrounding code fence is removed; the remainder must be exactly one JSON
// object with known fields that passes Validate.
func Decode(raw string) (*Descriptor, error) {
	body := stripFence(strings.TrimSpace(raw))
	if !strings.HasPrefix(body, "{") {
		return nil, ErrNotJSON
	}

	dec := json.NewDecoder(bytes.NewReader([]byte(body)))
	dec.DisallowUnknownFields()

	var d Descriptor
	if err := dec.Decode(&d); err != nil {
		return nil, fmt.Errorf("decoding intent: %w", err)
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return nil, errors.New("trailing data after intent object")
	}

	d.Content = strings.TrimSpace(d.Content)
	d.Status = strings.TrimSpace(d.Status)
	d.UserName = strings.TrimSpace(d.UserName)
	d.TeamName = strings.TrimSpace(d.TeamName)
	d.BroadcastType = strings.ToLower(strings.TrimSpace(d.BroadcastType))
	d.TargetType = strings.ToLower(strings.TrimSpace(d.TargetType))
	d.TargetValue = strings.TrimSpace(d.TargetValue)

	if err := d.Validate(); err != nil {
		return nil, fmt.Errorf("validating intent: %w", err)
	}
	return &d, nil
}

func stripFence(s string) string {
	if !strings.HasPrefix(s, "```") || !strings.HasSuffix(s, "```") || len(s) < 6 {
		return s
	}
	inner := strings.TrimSuffix(strings.TrimPrefix(s, "```"), "```")
	if nl := strings.IndexByte(inner, '\n'); nl >= 0 && !strings.HasPrefix(strings.TrimSpace(inner[:nl]), "{") {
		inner = inner[nl+1:]
	}
	return strings.TrimSpace(inner)
}

// truncate keeps the first n runes of s.
func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "..."
}
