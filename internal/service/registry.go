// Package service wires the per-league models, calibration state, cache
// and betting components into the prediction orchestrator.
package service

import (
	"fmt"
	"strings"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/Scardubu/sabiscore/internal/config"
	"github.com/Scardubu/sabiscore/internal/ensemble"
	"github.com/Scardubu/sabiscore/internal/feature"
	"github.com/Scardubu/sabiscore/internal/models"
)

// LeagueEntry binds one league's schema, extractor and ensemble model
type LeagueEntry struct {
	Name      string
	Schema    *feature.Schema
	Extractor *feature.Extractor
	Model     *ensemble.Model
}

// Registry resolves league names and aliases to their entries.
// Resolution is case-insensitive and ignores separator characters, so
// "EPL", "epl" and "Premier-League" all reach the same model.
type Registry struct {
	mu      sync.RWMutex
	entries map[string]*LeagueEntry
	aliases map[string]string
}

// NewRegistry creates an empty registry
func NewRegistry() *Registry {
	return &Registry{
		entries: make(map[string]*LeagueEntry),
		aliases: make(map[string]string),
	}
}

func normalizeLeague(name string) string {
	name = strings.ToLower(strings.TrimSpace(name))
	return strings.Map(func(r rune) rune {
		switch r {
		case ' ', '-', '_', '.':
			return -1
		}
		return r
	}, name)
}

// Register adds a league entry under its canonical name plus aliases
func (r *Registry) Register(entry *LeagueEntry, aliases ...string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	canonical := normalizeLeague(entry.Name)
	if canonical == "" {
		return fmt.Errorf("league name is required")
	}
	if _, exists := r.entries[canonical]; exists {
		return fmt.Errorf("league %q already registered", entry.Name)
	}
	r.entries[canonical] = entry
	r.aliases[canonical] = canonical
	for _, alias := range aliases {
		key := normalizeLeague(alias)
		if key == "" {
			continue
		}
		if owner, taken := r.aliases[key]; taken && owner != canonical {
			return fmt.Errorf("alias %q already claimed by league %q", alias, owner)
		}
		r.aliases[key] = canonical
	}
	return nil
}

// Resolve maps a league name or alias to its entry
func (r *Registry) Resolve(name string) (*LeagueEntry, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	canonical, ok := r.aliases[normalizeLeague(name)]
	if !ok {
		return nil, fmt.Errorf("%w: %q", models.ErrUnknownLeague, name)
	}
	return r.entries[canonical], nil
}

// Leagues returns the canonical names of every registered league
func (r *Registry) Leagues() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	leagues := make([]string, 0, len(r.entries))
	for name := range r.entries {
		leagues = append(leagues, name)
	}
	return leagues
}

// TrainedCount returns how many registered leagues have a fitted model
func (r *Registry) TrainedCount() int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	count := 0
	for _, entry := range r.entries {
		if entry.Model.Trained() {
			count++
		}
	}
	return count
}

// BuildRegistry constructs the registry from league configuration: one
// parameterized model per league, specialized only through its schema,
// blend weights and rule table.
func BuildRegistry(leagueConfigs []config.LeagueConfig, logger *logrus.Logger) (*Registry, error) {
	registry := NewRegistry()
	for _, lc := range leagueConfigs {
		schema, err := feature.SchemaFor(lc.Name)
		if err != nil {
			return nil, fmt.Errorf("league %s: %w", lc.Name, err)
		}
		extractor, err := feature.NewExtractor(schema)
		if err != nil {
			return nil, fmt.Errorf("league %s: %w", lc.Name, err)
		}

		poisson, err := ensemble.NewPoissonLearner(schema)
		if err != nil {
			return nil, fmt.Errorf("league %s: %w", lc.Name, err)
		}
		form, err := ensemble.NewFormLearner(schema)
		if err != nil {
			return nil, fmt.Errorf("league %s: %w", lc.Name, err)
		}
		learners := []ensemble.Learner{
			ensemble.NewLogisticLearner(),
			poisson,
			form,
		}

		model, err := ensemble.New(ensemble.Config{
			League:  lc.Name,
			Weights: models.EnsembleWeights(lc.Weights),
			Rules:   rulesFromConfig(lc.Rules),
		}, learners, logger)
		if err != nil {
			return nil, fmt.Errorf("league %s: %w", lc.Name, err)
		}

		entry := &LeagueEntry{
			Name:      lc.Name,
			Schema:    schema,
			Extractor: extractor,
			Model:     model,
		}
		if err := registry.Register(entry, lc.Aliases...); err != nil {
			return nil, err
		}
		logger.WithFields(logrus.Fields{
			"league":   lc.Name,
			"features": schema.Length(),
			"aliases":  len(lc.Aliases),
		}).Info("League registered")
	}
	return registry, nil
}

// rulesFromConfig builds the ordered adjustment table. A zero magnitude
// disables the rule.
func rulesFromConfig(rc config.RuleConfig) []ensemble.AdjustmentRule {
	var rules []ensemble.AdjustmentRule
	if rc.ContinentalHomeFade > 0 {
		within := rc.ContinentalWithinDays
		if within <= 0 {
			within = 4
		}
		rules = append(rules, ensemble.ContinentalFixtureHomeFade(within, rc.ContinentalHomeFade))
	}
	if rc.RainDrawBoost > 0 {
		threshold := rc.RainThresholdMM
		if threshold <= 0 {
			threshold = 8
		}
		rules = append(rules, ensemble.HeavyRainDrawBoost(threshold, rc.RainDrawBoost))
	}
	if rc.CongestedAwayFade > 0 {
		minMatches := rc.CongestedMinMatches
		if minMatches <= 0 {
			minMatches = 7
		}
		rules = append(rules, ensemble.CongestedAwaySideFade(minMatches, rc.CongestedAwayFade))
	}
	if rc.DerbyDrawBoost > 0 {
		rules = append(rules, ensemble.DerbyDrawBoost(rc.DerbyDrawBoost))
	}
	return rules
}
