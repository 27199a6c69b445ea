package team

import (
	"sort"
	"strings"

	"github.com/commitscope/commitscope/internal/config"
	"github.com/maxbolgarin/logze/v2"
)

// Mapper resolves commit authors to team names using the static
// mapping from configuration. The mapping is built once per run and
// immutable afterwards; configuration validation guarantees that every
// username belongs to at most one team, so resolution is total and
// deterministic.
type Mapper struct {
	userToTeam  map[string]string
	defaultTeam string
	logger      logze.Logger
}

// NewMapper builds a mapper from validated team configuration.
func NewMapper(cfg config.TeamsConfig) *Mapper {
	m := &Mapper{
		userToTeam:  make(map[string]string),
		defaultTeam: cfg.DefaultTeam,
		logger:      logze.With("component", "team-mapper"),
	}
	for teamName, members := range cfg.Teams {
		for _, username := range members {
			m.userToTeam[strings.ToLower(username)] = teamName
		}
	}
	m.logger.Debug("team mapper initialized", "mappings", len(m.userToTeam), "default_team", m.defaultTeam)
	return m
}

// Resolve returns the team of a username. Empty and unknown usernames
// map to the default team; lookup is case-insensitive.
func (m *Mapper) Resolve(username string) string {
	if username == "" {
		return m.defaultTeam
	}
	if teamName, ok := m.userToTeam[strings.ToLower(username)]; ok {
		return teamName
	}
	return m.defaultTeam
}

// DefaultTeam returns the fallback team name.
func (m *Mapper) DefaultTeam() string {
	return m.defaultTeam
}

// Teams returns every configured team name plus the default, sorted.
func (m *Mapper) Teams() []string {
	seen := map[string]bool{m.defaultTeam: true}
	for _, teamName := range m.userToTeam {
		seen[teamName] = true
	}
	out := make([]string, 0, len(seen))
	for teamName := range seen {
		out = append(out, teamName)
	}
	sort.Strings(out)
	return out
}
