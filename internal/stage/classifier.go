package stage

import (
	"fmt"
	"math"
	"strings"

	"github.com/cohortlabs/oracle/internal/update"
)

// Analysis is the result of classifying a team's lifecycle stage.
type Analysis struct {
	Stage      Stage   `json:"stage"`
	Confidence float64 `json:"confidence"`
	Reasoning  string  `json:"reasoning"`
}

// Classifier scores stages from keyword evidence. It has no external
// dependencies and never fails.
type Classifier struct {
	taxonomy *Taxonomy
}

// NewClassifier creates a Classifier over the given taxonomy. A nil taxonomy
// selects the embedded default.
func NewClassifier(t *Taxonomy) *Classifier {
	if t == nil {
		t = Default()
	}
	return &Classifier{taxonomy: t}
}

type evidence struct {
	score         float64
	queryHits     int
	updateHits    int
	matchesRecord bool
}

// Classify detects the stage from the query, the most recent updates (newest
// first) and the team's recorded stage. An empty current stage means the
// request has no team.
func (c *Classifier) Classify(recent []update.Update, current Stage, query string) Analysis {
	w := c.taxonomy.Weights

	normQuery := normalize(query)
	limit := min(len(recent), w.MaxUpdates)
	normUpdates := make([]string, 0, limit)
	for _, u := range recent[:limit] {
		normUpdates = append(normUpdates, normalize(u.Content))
	}

	var (
		best   Stage
		bestEv evidence
		found  bool
	)
	for _, st := range All {
		def := c.taxonomy.Definition(st)
		var ev evidence
		for _, kw := range def.Keywords {
			if strings.Contains(normQuery, kw) {
				ev.score += w.Query
				ev.queryHits++
			}
			for _, u := range normUpdates {
				if strings.Contains(u, kw) {
					ev.score += w.Update
					ev.updateHits++
				}
			}
		}
		if current != "" && current == st {
			ev.score += w.CurrentStage
			ev.matchesRecord = true
		}

		if !found || ev.score > bestEv.score {
			best, bestEv, found = st, ev, true
		}
	}

	rule := c.taxonomy.Confidence
	confidence := math.Min(rule.Max, rule.Base+bestEv.score/rule.Divisor)

	return Analysis{
		Stage:      best,
		Confidence: confidence,
		Reasoning:  reasoning(best, bestEv),
	}
}

func reasoning(st Stage, ev evidence) string {
	if ev.score == 0 {
		return fmt.Sprintf("No stage signals found; defaulting to %s.", st)
	}
	var parts []string
	if ev.queryHits > 0 {
		parts = append(parts, fmt.Sprintf("%d %s keyword(s) in the question", ev.queryHits, st))
	}
	if ev.updateHits > 0 {
		parts = append(parts, fmt.Sprintf("%d in recent updates", ev.updateHits))
	}
	if ev.matchesRecord {
		parts = append(parts, "the team is currently recorded in this stage")
	}
	return fmt.Sprintf("Detected %s: %s.", st, strings.Join(parts, "; "))
}
