package knowledge

import (
	"sort"
	"strings"

	fuzzy "github.com/paul-mannino/go-fuzzywuzzy"

	"auenbot/internal/domain"
	"auenbot/internal/textnorm"
)

// Default score cutoffs on the 0-100 fuzzy scale. Tuned constants, overridable
// per call and via config.
const (
	DefaultNameCutoff = 75
	DefaultKeyCutoff  = 70
)

// ScoreFunc rates the similarity of two strings on a 0-100 scale.
// Self-similarity must be maximal; symmetry is not required.
type ScoreFunc func(a, b string) int

// WRatio is the default scorer: weighted ratio, tolerant of word order and
// partial overlap.
func WRatio(a, b string) int { return fuzzy.WRatio(a, b) }

// Index holds all knowledge entries with an exact-match index over normalized
// names and a fuzzy candidate pool of raw names. Built once, read-only after.
type Index struct {
	entries    []*domain.Entry
	byName     map[string]*domain.Entry
	names      []string
	animalKeys []string
	plantKeys  []string
	score      ScoreFunc
}

// NewIndex builds the index structures from the given entries. The exact-match
// map and the raw-name pool are derived together and never mutated afterwards.
func NewIndex(entries []*domain.Entry, animalKeys, plantKeys []string) *Index {
	ix := &Index{
		entries:    entries,
		byName:     make(map[string]*domain.Entry, len(entries)),
		names:      make([]string, 0, len(entries)),
		animalKeys: animalKeys,
		plantKeys:  plantKeys,
		score:      WRatio,
	}
	for _, e := range entries {
		ix.byName[textnorm.Normalize(e.Name)] = e
		ix.names = append(ix.names, e.Name)
	}
	return ix
}

// SetScoreFunc replaces the fuzzy scorer. Intended for tests and tuning.
func (ix *Index) SetScoreFunc(f ScoreFunc) {
	if f != nil {
		ix.score = f
	}
}

// Len returns the number of indexed entries.
func (ix *Index) Len() int { return len(ix.entries) }

// Entries returns the full ordered entry sequence.
func (ix *Index) Entries() []*domain.Entry { return ix.entries }

// FindByName resolves a query to an entry: exact match on the normalized name
// first, then the fuzzy scorer over all raw names. Returns nil when the best
// score is below cutoff. Ties go to the first-encountered name.
func (ix *Index) FindByName(query string, cutoff int) *domain.Entry {
	if e, ok := ix.byName[textnorm.Normalize(query)]; ok {
		return e
	}
	best, ok := extractOne(ix.score, query, ix.names, cutoff)
	if !ok {
		return nil
	}
	return ix.byName[textnorm.Normalize(best)]
}

// KeysForType returns the attribute-label vocabulary for an entity type,
// matched case-insensitively on the type discriminator. Unrecognized types
// fall back to the sorted union of both vocabularies.
func (ix *Index) KeysForType(typ string) []string {
	t := textnorm.Normalize(typ)
	if strings.Contains(t, "tier") {
		return ix.animalKeys
	}
	if strings.Contains(t, "pflanze") {
		return ix.plantKeys
	}
	seen := make(map[string]struct{}, len(ix.animalKeys)+len(ix.plantKeys))
	union := make([]string, 0, len(ix.animalKeys)+len(ix.plantKeys))
	for _, k := range append(append([]string{}, ix.animalKeys...), ix.plantKeys...) {
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		union = append(union, k)
	}
	sort.Strings(union)
	return union
}

// ResolveAttributeKey fuzzy-matches a key guess against the labels that are
// both expected for the entry's type and present on the entry. When that
// intersection is empty the pool falls back to every present label.
func (ix *Index) ResolveAttributeKey(e *domain.Entry, keyQuery string, cutoff int) (string, bool) {
	var pool []string
	for _, k := range ix.KeysForType(e.Typ) {
		if _, ok := e.Attributes[k]; ok {
			pool = append(pool, k)
		}
	}
	if len(pool) == 0 {
		for _, k := range e.Keys {
			if k == "Name" || k == "Typ" {
				continue
			}
			pool = append(pool, k)
		}
	}
	return extractOne(ix.score, keyQuery, pool, cutoff)
}

// PresentKeys lists the entry's attribute labels in vocabulary order, capped
// at limit. Used for disambiguation hints.
func (ix *Index) PresentKeys(e *domain.Entry, limit int) []string {
	var out []string
	for _, k := range ix.KeysForType(e.Typ) {
		if _, ok := e.Attributes[k]; !ok {
			continue
		}
		out = append(out, k)
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out
}

// extractOne returns the highest-scoring candidate at or above cutoff.
// Strict greater-than keeps the first-encountered candidate on ties.
func extractOne(score ScoreFunc, query string, candidates []string, cutoff int) (string, bool) {
	best := ""
	bestScore := -1
	for _, c := range candidates {
		if s := score(query, c); s > bestScore {
			best = c
			bestScore = s
		}
	}
	if bestScore < cutoff || best == "" {
		return "", false
	}
	return best, true
}
