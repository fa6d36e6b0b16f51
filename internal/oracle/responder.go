package oracle

import (
	"context"
	"log/slog"
	"time"

	"github.com/cohortlabs/oracle/internal/llm"
)

// Confidence weights. The score is a heuristic, not a probability.
const (
	baseConfidence       = 75
	profileConfidence    = 15
	teamConfidence       = 10
	resourcesConfidence  = 5
	peopleConfidence     = 10
	maxConfidence        = 100
	fallbackConfidence   = 40
	unexpectedConfidence = 10
)

// Confidence scores an answer from which context was available.
func Confidence(hasProfile, hasTeam, hasResources, hasPeople bool) int {
	score := baseConfidence
	if hasProfile {
		score += profileConfidence
	}
	if hasTeam {
		score += teamConfidence
	}
	if hasResources {
		score += resourcesConfidence
	}
	if hasPeople {
		score += peopleConfidence
	}
	return min(score, maxConfidence)
}

// Answer is the generated text plus how it was produced. FallbackKind is
// empty when the model answered.
type Answer struct {
	Text         string
	Model        string
	FallbackKind llm.Kind
}

// Responder builds the final answer with the language model.
type Responder struct {
	llm           llm.Completer
	model         string
	fallbackModel string
	maxTokens     int
	temperature   float64
	deadline      time.Duration
}

// ResponderConfig selects models and sampling parameters. Deadline bounds
// one Generate call, fallback retry included. Zero leaves it to the caller.
type ResponderConfig struct {
	Model         string
	FallbackModel string
	MaxTokens     int
	Temperature   float64
	Deadline      time.Duration
}

// NewResponder creates a Responder.
func NewResponder(completer llm.Completer, cfg ResponderConfig) *Responder {
	return &Responder{
		llm:           completer,
		model:         cfg.Model,
		fallbackModel: cfg.FallbackModel,
		maxTokens:     cfg.MaxTokens,
		temperature:   cfg.Temperature,
		deadline:      cfg.Deadline,
	}
}

// Generate answers query with the given persona and context. An overloaded
// primary model is retried once on the fallback model with identical
// parameters; every other failure yields a canned answer for role.
func (r *Responder) Generate(ctx context.Context, role, systemPrompt, contextText, query string) Answer {
	if r.deadline > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.deadline)
		defer cancel()
	}

	system := systemPrompt
	if contextText != "" {
		system += "\n\n# Context\n" + contextText
	}

	req := llm.Request{
		Model:       r.model,
		System:      system,
		User:        query,
		Temperature: r.temperature,
		MaxTokens:   r.maxTokens,
	}

	text, err := r.llm.Complete(ctx, req)
	if err == nil {
		return Answer{Text: text, Model: req.Model}
	}

	if llm.KindOf(err) == llm.KindOverloaded && r.fallbackModel != "" {
		slog.Warn("primary model overloaded, retrying on fallback", "model", r.model, "fallback", r.fallbackModel)
		req.Model = r.fallbackModel
		text, err = r.llm.Complete(ctx, req)
		if err == nil {
			return Answer{Text: text, Model: req.Model}
		}
	}

	kind := llm.KindOf(err)
	slog.Error("response generation failed", "kind", kind, "model", req.Model, "error", err)
	return Answer{Text: CannedResponse(role, kind), FallbackKind: kind}
}
