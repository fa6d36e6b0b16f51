package resource

import (
	_ "embed"
	"fmt"
	"net/url"
	"sort"
	"strings"
	"sync"

	"sigs.k8s.io/yaml"

	"github.com/cohortlabs/oracle/internal/member"
	"github.com/cohortlabs/oracle/internal/stage"
)

//go:embed catalog.yaml
var defaultCatalogYAML []byte

// MaxResults caps how many resources a single answer recommends.
const MaxResults = 6

// Relevance assigned by the personalized rules.
const (
	HelpNeededRelevance = 0.98
	TopSkillRelevance   = 0.95
)

// Resource types.
const (
	TypeYouTube       = "youtube"
	TypeArticle       = "article"
	TypeDocumentation = "documentation"
	TypeTutorial      = "tutorial"
	TypeTool          = "tool"
)

// Resource is a learning or connection resource attached to an answer.
type Resource struct {
	Title       string  `json:"title"`
	URL         string  `json:"url"`
	Type        string  `json:"type"`
	Description string  `json:"description"`
	Relevance   float64 `json:"relevance"`
}

// CatalogEntry maps a set of technology terms to resources.
type CatalogEntry struct {
	Terms     []string   `json:"terms"`
	Resources []Resource `json:"resources"`
}

// ParseCatalog decodes a YAML technology catalog.
func ParseCatalog(data []byte) ([]CatalogEntry, error) {
	var entries []CatalogEntry
	if err := yaml.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("parsing resource catalog: %w", err)
	}
	for i, e := range entries {
		if len(e.Terms) == 0 {
			return nil, fmt.Errorf("catalog entry %d has no terms", i)
		}
	}
	return entries, nil
}

var (
	catalogOnce    sync.Once
	defaultCatalog []CatalogEntry
)

// DefaultCatalog returns the embedded technology catalog.
func DefaultCatalog() []CatalogEntry {
	catalogOnce.Do(func() {
		c, err := ParseCatalog(defaultCatalogYAML)
		if err != nil {
			panic(err)
		}
		defaultCatalog = c
	})
	return defaultCatalog
}

// Ranker builds a ranked resource list from additive, deterministic rules:
// help-needed topics, the member's top skill, stage picks and a technology
// lookup table.
type Ranker struct {
	taxonomy *stage.Taxonomy
	catalog  []CatalogEntry
}

// NewRanker creates a Ranker. Nil arguments select the embedded defaults.
func NewRanker(t *stage.Taxonomy, catalog []CatalogEntry) *Ranker {
	if t == nil {
		t = stage.Default()
	}
	if catalog == nil {
		catalog = DefaultCatalog()
	}
	return &Ranker{taxonomy: t, catalog: catalog}
}

// Rank returns at most MaxResults resources sorted by descending relevance.
// Equal scores keep the order in which the rules produced them. A nil
// profile disables the personalized rules.
func (r *Ranker) Rank(query string, profile *member.Member, st stage.Stage, role string) []Resource {
	var out []Resource
	seen := make(map[string]bool)
	add := func(res Resource) {
		if seen[res.URL] {
			return
		}
		seen[res.URL] = true
		out = append(out, res)
	}

	if profile != nil {
		for _, topic := range profile.HelpNeeded {
			if stage.ContainsTerm(query, topic) {
				add(Resource{
					Title:       fmt.Sprintf("%s: step-by-step tutorial", topic),
					URL:         youtubeSearch(topic + " tutorial for beginners"),
					Type:        TypeTutorial,
					Description: fmt.Sprintf("Hand-picked walkthroughs for getting unstuck with %s.", topic),
					Relevance:   HelpNeededRelevance,
				})
			}
		}

		if skill := profile.TopSkill(); skill != "" && stage.ContainsTerm(query, skill) {
			add(Resource{
				Title:       fmt.Sprintf("Advanced %s patterns", skill),
				URL:         youtubeSearch("advanced " + skill + " patterns"),
				Type:        TypeYouTube,
				Description: fmt.Sprintf("Go beyond the basics of %s.", skill),
				Relevance:   TopSkillRelevance,
			})
		}
	}

	if def := r.taxonomy.Definition(st); def != nil {
		for _, c := range def.Resources {
			if !c.AllowsRole(role) {
				continue
			}
			add(Resource{
				Title:       c.Title,
				URL:         c.URL,
				Type:        c.Type,
				Description: c.Description,
				Relevance:   c.Relevance,
			})
		}
	}

	for _, entry := range r.catalog {
		if !matchesAny(query, entry.Terms) {
			continue
		}
		for _, res := range entry.Resources {
			add(res)
		}
	}

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Relevance > out[j].Relevance
	})

	if len(out) > MaxResults {
		out = out[:MaxResults]
	}
	if out == nil {
		out = []Resource{}
	}
	return out
}

func matchesAny(query string, terms []string) bool {
	for _, t := range terms {
		if stage.ContainsTerm(query, t) {
			return true
		}
	}
	return false
}

func youtubeSearch(q string) string {
	return "https://www.youtube.com/results?search_query=" + url.QueryEscape(strings.ToLower(q))
}
