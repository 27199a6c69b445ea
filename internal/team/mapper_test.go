package team_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/commitscope/commitscope/internal/config"
	"github.com/commitscope/commitscope/internal/team"
)

func newTestMapper() *team.Mapper {
	return team.NewMapper(config.TeamsConfig{
		DefaultTeam: "unassigned",
		Teams: map[string][]string{
			"backend":  {"alice", "Bob"},
			"frontend": {"carol"},
		},
	})
}

func TestResolveKnownUser(t *testing.T) {
	m := newTestMapper()

	assert.Equal(t, "backend", m.Resolve("alice"))
	assert.Equal(t, "frontend", m.Resolve("carol"))
}

func TestResolveIsCaseInsensitive(t *testing.T) {
	m := newTestMapper()

	assert.Equal(t, "backend", m.Resolve("ALICE"))
	assert.Equal(t, "backend", m.Resolve("bob"))
	assert.Equal(t, "backend", m.Resolve("BoB"))
}

func TestResolveUnknownAndEmptyUser(t *testing.T) {
	m := newTestMapper()

	assert.Equal(t, "unassigned", m.Resolve("mallory"))
	assert.Equal(t, "unassigned", m.Resolve(""))
}

func TestResolveIsIdempotent(t *testing.T) {
	m := newTestMapper()

	first := m.Resolve("alice")
	for i := 0; i < 10; i++ {
		assert.Equal(t, first, m.Resolve("alice"))
	}
}

func TestTeamsIncludesDefault(t *testing.T) {
	m := newTestMapper()

	assert.Equal(t, []string{"backend", "frontend", "unassigned"}, m.Teams())
	assert.Equal(t, "unassigned", m.DefaultTeam())
}
