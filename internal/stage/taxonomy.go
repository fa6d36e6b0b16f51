package stage

import (
	_ "embed"
	"fmt"
	"strings"
	"sync"

	"sigs.k8s.io/yaml"
)

//go:embed taxonomy.yaml
var defaultTaxonomyYAML []byte

// Stage is one of the five lifecycle phases a team moves through.
type Stage string

const (
	Ideation    Stage = "ideation"
	Development Stage = "development"
	Testing     Stage = "testing"
	Launch      Stage = "launch"
	Growth      Stage = "growth"
)

// All lists the stages in enumeration order. Ties in classification resolve
// to the earliest entry.
var All = []Stage{Ideation, Development, Testing, Launch, Growth}

// Valid reports whether s is one of the five known stages.
func Valid(s string) bool {
	for _, st := range All {
		if string(st) == s {
			return true
		}
	}
	return false
}

// Weights controls how much each kind of evidence contributes to a stage score.
type Weights struct {
	Query        float64 `json:"query"`
	Update       float64 `json:"update"`
	CurrentStage float64 `json:"currentStage"`
	MaxUpdates   int     `json:"maxUpdates"`
}

// ConfidenceRule maps the winning score to a confidence in [0,1].
type ConfidenceRule struct {
	Base    float64 `json:"base"`
	Divisor float64 `json:"divisor"`
	Max     float64 `json:"max"`
}

// CannedResource is a curated resource recommended for a stage. An empty
// Roles list means every role may see it.
type CannedResource struct {
	Title       string   `json:"title"`
	URL         string   `json:"url"`
	Type        string   `json:"type"`
	Description string   `json:"description"`
	Relevance   float64  `json:"relevance"`
	Roles       []string `json:"roles,omitempty"`
}

// AllowsRole reports whether the resource is offered to the given role.
func (c CannedResource) AllowsRole(role string) bool {
	if len(c.Roles) == 0 {
		return true
	}
	for _, r := range c.Roles {
		if r == role {
			return true
		}
	}
	return false
}

// Definition holds the data attached to one stage.
type Definition struct {
	Name        Stage            `json:"name"`
	Keywords    []string         `json:"keywords"`
	NextActions []string         `json:"nextActions"`
	Resources   []CannedResource `json:"resources"`
}

// Taxonomy is the single source of stage keywords, scoring weights and
// stage-specific recommendations.
type Taxonomy struct {
	Weights    Weights        `json:"weights"`
	Confidence ConfidenceRule `json:"confidence"`
	Stages     []Definition   `json:"stages"`

	byName map[Stage]*Definition
}

// ParseTaxonomy decodes and validates a YAML taxonomy document.
func ParseTaxonomy(data []byte) (*Taxonomy, error) {
	var t Taxonomy
	if err := yaml.Unmarshal(data, &t); err != nil {
		return nil, fmt.Errorf("parsing stage taxonomy: %w", err)
	}

	t.byName = make(map[Stage]*Definition, len(t.Stages))
	for i := range t.Stages {
		d := &t.Stages[i]
		if !Valid(string(d.Name)) {
			return nil, fmt.Errorf("unknown stage %q in taxonomy", d.Name)
		}
		if _, dup := t.byName[d.Name]; dup {
			return nil, fmt.Errorf("stage %q defined twice", d.Name)
		}
		for j, kw := range d.Keywords {
			d.Keywords[j] = normalize(kw)
		}
		t.byName[d.Name] = d
	}
	for _, st := range All {
		if _, ok := t.byName[st]; !ok {
			return nil, fmt.Errorf("stage %q missing from taxonomy", st)
		}
	}

	if t.Confidence.Divisor <= 0 {
		return nil, fmt.Errorf("confidence divisor must be positive")
	}
	if t.Weights.MaxUpdates < 0 {
		return nil, fmt.Errorf("maxUpdates must not be negative")
	}

	return &t, nil
}

var (
	defaultOnce     sync.Once
	defaultTaxonomy *Taxonomy
)

// Default returns the embedded taxonomy. It panics if the embedded document
// is invalid, which only a broken build can cause.
func Default() *Taxonomy {
	defaultOnce.Do(func() {
		t, err := ParseTaxonomy(defaultTaxonomyYAML)
		if err != nil {
			panic(err)
		}
		defaultTaxonomy = t
	})
	return defaultTaxonomy
}

// Definition returns the data for stage s. Unknown stages yield nil.
func (t *Taxonomy) Definition(s Stage) *Definition {
	return t.byName[s]
}

// NextActions returns the suggested follow-ups for stage s.
func (t *Taxonomy) NextActions(s Stage) []string {
	if d := t.byName[s]; d != nil {
		return append([]string(nil), d.NextActions...)
	}
	return nil
}

// normalize lower-cases text and folds every run of non-alphanumeric
// characters into a single space, padding both ends so that whole-word
// lookups can use a plain substring search.
func normalize(s string) string {
	var b strings.Builder
	b.Grow(len(s) + 2)
	b.WriteByte(' ')
	space := true
	for _, r := range strings.ToLower(s) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') || r > 127 {
			b.WriteRune(r)
			space = false
			continue
		}
		if !space {
			b.WriteByte(' ')
			space = true
		}
	}
	if !space {
		b.WriteByte(' ')
	}
	return b.String()
}

// ContainsTerm reports whether term appears in text as a whole word or phrase.
func ContainsTerm(text, term string) bool {
	nt := normalize(term)
	if strings.TrimSpace(nt) == "" {
		return false
	}
	return strings.Contains(normalize(text), nt)
}

// NormalizeTerm lowercases s and collapses every run of punctuation or
// whitespace into a single space, so "Next.js" becomes "next js".
func NormalizeTerm(s string) string {
	return strings.TrimSpace(normalize(s))
}
