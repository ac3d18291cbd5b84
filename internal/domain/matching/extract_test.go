package matching

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"skillsync/internal/domain/profile"
)

func TestExtractSkills_CanonicalizesAndDefaults(t *testing.T) {
	p := profile.Profile{Skills: []profile.Skill{{Name: " reactjs "}, {Name: "Postgres", Proficiency: 3}}}

	got := ExtractSkills(p, DefaultCatalog())

	require.Len(t, got, 2)
	assert.Equal(t, "React", got[0].Name)
	assert.Equal(t, profile.LevelIntermediate, got[0].Level)
	assert.InDelta(t, 0.8, got[0].Proficiency, 1e-9)
	assert.InDelta(t, 1, got[0].Importance, 1e-9)
	assert.Equal(t, "PostgreSQL", got[1].Name)
	assert.InDelta(t, 1, got[1].Proficiency, 1e-9)
}

func TestExtractSkills_FromDescription(t *testing.T) {
	p := profile.Profile{
		Skills:      []profile.Skill{{Name: "Docker", Proficiency: 0.95}},
		Description: "We ship with Docker and k8s, plus some JavaScript.",
	}

	got := ExtractSkills(p, DefaultCatalog())

	names := make([]string, 0, len(got))
	for _, s := range got {
		names = append(names, s.Name)
	}
	assert.ElementsMatch(t, []string{"Docker", "Kubernetes", "JavaScript"}, names)
	assert.InDelta(t, 0.95, got[0].Proficiency, 1e-9)
	assert.NotContains(t, names, "java")
}

func TestExtractRequiredSkills_FallsBackToSkills(t *testing.T) {
	p := profile.Profile{Skills: []profile.Skill{{Name: "golang"}}}
	got := ExtractRequiredSkills(p, DefaultCatalog())
	require.Len(t, got, 1)
	assert.Equal(t, "Go", got[0].Name)

	p.RequiredSkills = []profile.Skill{{Name: "Python"}}
	got = ExtractRequiredSkills(p, DefaultCatalog())
	require.Len(t, got, 1)
	assert.Equal(t, "Python", got[0].Name)
}

func TestDeduplicateSkills_HighestProficiencyWins(t *testing.T) {
	got := DeduplicateSkills([]profile.Skill{
		{Name: "Go", Proficiency: 0.5},
		{Name: "Rust", Proficiency: 0.6},
		{Name: "go", Proficiency: 0.9},
	})

	require.Len(t, got, 2)
	assert.Equal(t, "go", got[0].Name)
	assert.InDelta(t, 0.9, got[0].Proficiency, 1e-9)
	assert.Equal(t, "Rust", got[1].Name)
}

func TestContainsTerm(t *testing.T) {
	assert.True(t, containsTerm("node.js and react", "node.js"))
	assert.True(t, containsTerm("ci/cd pipelines", "ci/cd"))
	assert.False(t, containsTerm("javascript", "java"))
	assert.False(t, containsTerm("", "go"))
}

func TestCatalog_NilIsUsable(t *testing.T) {
	var c *Catalog
	assert.Equal(t, "Rust", c.Canonical(" Rust "))
	assert.Zero(t, c.Len())
	_, ok := c.Lookup("rust")
	assert.False(t, ok)

	got := ExtractSkills(profile.Profile{Description: "python and pandas"}, nil)
	assert.Len(t, got, 2)
}

func TestCatalog_Len(t *testing.T) {
	assert.Equal(t, len(DefaultCatalogEntries()), DefaultCatalog().Len())
}
