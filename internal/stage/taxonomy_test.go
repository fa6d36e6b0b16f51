package stage_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cohortlabs/oracle/internal/stage"
)

func TestDefault_CoversAllStages(t *testing.T) {
	t.Parallel()

	tax := stage.Default()

	for _, st := range stage.All {
		def := tax.Definition(st)
		require.NotNil(t, def, "stage %s", st)
		assert.NotEmpty(t, def.Keywords)
		assert.NotEmpty(t, def.NextActions)
		assert.NotEmpty(t, def.Resources)
		for _, r := range def.Resources {
			assert.NotEmpty(t, r.URL)
			assert.Greater(t, r.Relevance, 0.0)
			assert.LessOrEqual(t, r.Relevance, 1.0)
		}
	}
}

func TestDefault_KeywordsAreDisjoint(t *testing.T) {
	t.Parallel()

	tax := stage.Default()
	owner := map[string]stage.Stage{}

	for _, st := range stage.All {
		for _, kw := range tax.Definition(st).Keywords {
			if prev, ok := owner[kw]; ok {
				t.Errorf("keyword %q appears in both %s and %s", kw, prev, st)
			}
			owner[kw] = st
		}
	}
}

func TestNextActions_ReturnsCopy(t *testing.T) {
	t.Parallel()

	tax := stage.Default()
	first := tax.NextActions(stage.Launch)
	require.NotEmpty(t, first)
	first[0] = "mutated"

	assert.NotEqual(t, "mutated", tax.NextActions(stage.Launch)[0])
	assert.Nil(t, tax.NextActions("unknown"))
}

func TestParseTaxonomy_Errors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		doc  string
	}{
		{
			name: "unknown stage",
			doc:  "confidence: {base: 0.5, divisor: 10, max: 0.95}\nstages:\n  - name: dreaming\n",
		},
		{
			name: "missing stages",
			doc:  "confidence: {base: 0.5, divisor: 10, max: 0.95}\nstages:\n  - name: ideation\n",
		},
		{
			name: "duplicate stage",
			doc:  "confidence: {base: 0.5, divisor: 10, max: 0.95}\nstages:\n  - name: ideation\n  - name: ideation\n",
		},
		{
			name: "not yaml",
			doc:  "stages: [",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			tax, err := stage.ParseTaxonomy([]byte(tt.doc))

			assert.Error(t, err)
			assert.Nil(t, tax)
		})
	}
}

func TestParseTaxonomy_RequiresPositiveDivisor(t *testing.T) {
	t.Parallel()

	doc := "confidence: {base: 0.5, divisor: 0, max: 0.95}\nstages:\n" +
		"  - name: ideation\n  - name: development\n  - name: testing\n  - name: launch\n  - name: growth\n"

	_, err := stage.ParseTaxonomy([]byte(doc))

	assert.ErrorContains(t, err, "divisor")
}

func TestContainsTerm(t *testing.T) {
	t.Parallel()

	assert.True(t, stage.ContainsTerm("Help with React deployment!", "react"))
	assert.True(t, stage.ContainsTerm("time to go to market soon", "go to market"))
	assert.True(t, stage.ContainsTerm("Next.js routing", "next js"))
	assert.False(t, stage.ContainsTerm("reactive streams", "react"))
	assert.False(t, stage.ContainsTerm("anything", "  "))
}

func TestNormalizeTerm(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "next js", stage.NormalizeTerm("Next.js"))
	assert.Equal(t, "ci cd", stage.NormalizeTerm("  CI/CD  "))
	assert.Equal(t, "", stage.NormalizeTerm("--"))
}

func TestValid(t *testing.T) {
	t.Parallel()

	assert.True(t, stage.Valid("growth"))
	assert.False(t, stage.Valid("Growth"))
	assert.False(t, stage.Valid(""))
}
