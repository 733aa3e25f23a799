package classifier

import (
	"fmt"
	"sort"
	"time"

	"github.com/user/trackscope/internal/entity"
)

// ComparisonMode selects which value pairs the similarity criterion compares.
type ComparisonMode string

const (
	// CompareBaseline compares the first observation with every other one.
	CompareBaseline ComparisonMode = "baseline"
	// CompareAdjacent compares consecutive observations.
	CompareAdjacent ComparisonMode = "adjacent"
	// CompareAllPairs compares every pair of observations.
	CompareAllPairs ComparisonMode = "all_pairs"
)

func ParseComparisonMode(s string) (ComparisonMode, error) {
	switch m := ComparisonMode(s); m {
	case CompareBaseline, CompareAdjacent, CompareAllPairs:
		return m, nil
	case "":
		return CompareBaseline, nil
	default:
		return "", fmt.Errorf("unknown cookie comparison mode %q", s)
	}
}

const (
	DefaultMinLifetime    = 90 * 24 * time.Hour
	DefaultMinValueBytes  = 8
	DefaultMinLengthRatio = 0.75
	DefaultMinSimilarity  = 0.60
)

// TrackingCookieClassifier applies the persistence, entropy, uniqueness and
// similarity criteria to the observations of one cookie. A cookie is
// tracking only when all four hold.
type TrackingCookieClassifier struct {
	MinLifetime    time.Duration
	MinValueBytes  int
	MinLengthRatio float64
	MinSimilarity  float64
	Comparison     ComparisonMode
}

func NewTrackingCookieClassifier(mode ComparisonMode) *TrackingCookieClassifier {
	if mode == "" {
		mode = CompareBaseline
	}
	return &TrackingCookieClassifier{
		MinLifetime:    DefaultMinLifetime,
		MinValueBytes:  DefaultMinValueBytes,
		MinLengthRatio: DefaultMinLengthRatio,
		MinSimilarity:  DefaultMinSimilarity,
		Comparison:     mode,
	}
}

// Classify evaluates observations of a single cookie key, ordered by visit.
// Fewer than two observations yield OutcomeInsufficientEvidence.
func (c *TrackingCookieClassifier) Classify(obs []entity.CookieRecord) entity.TrackingCookieVerdict {
	v := entity.TrackingCookieVerdict{Observations: len(obs)}
	if len(obs) > 0 {
		key := obs[0].Key()
		v.Name, v.Domain = key.Name, key.Domain
	}
	if len(obs) < 2 {
		insufficient := entity.CriterionResult{Detail: "fewer than 2 observations"}
		v.Persistence, v.Entropy, v.Uniqueness, v.Similarity = insufficient, insufficient, insufficient, insufficient
		v.Outcome = entity.OutcomeInsufficientEvidence
		return v
	}

	v.Persistence = c.persistence(obs)
	v.Entropy = c.entropy(obs)
	v.Uniqueness = c.uniqueness(obs)
	v.Similarity = c.similarity(obs)

	v.Outcome = entity.OutcomeNotTracking
	if v.Persistence.Passed && v.Entropy.Passed && v.Uniqueness.Passed && v.Similarity.Passed {
		v.Outcome = entity.OutcomeTracking
	}
	return v
}

// ClassifyAll groups visit-keyed cookie snapshots by cookie key and
// classifies each group. Only the first record of a key per visit is used.
func (c *TrackingCookieClassifier) ClassifyAll(cookies map[string][]entity.CookieRecord) []entity.TrackingCookieVerdict {
	type group struct {
		key    entity.CookieKey
		visits map[int]entity.CookieRecord
	}
	groups := make(map[entity.CookieKey]*group)
	for _, records := range cookies {
		for _, rec := range records {
			k := rec.Key()
			g, ok := groups[k]
			if !ok {
				g = &group{key: k, visits: make(map[int]entity.CookieRecord)}
				groups[k] = g
			}
			if _, seen := g.visits[rec.Visit]; !seen {
				g.visits[rec.Visit] = rec
			}
		}
	}

	keys := make([]entity.CookieKey, 0, len(groups))
	for k := range groups {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i].String() < keys[j].String() })

	out := make([]entity.TrackingCookieVerdict, 0, len(keys))
	for _, k := range keys {
		g := groups[k]
		visits := make([]int, 0, len(g.visits))
		for visit := range g.visits {
			visits = append(visits, visit)
		}
		sort.Ints(visits)
		obs := make([]entity.CookieRecord, 0, len(visits))
		for _, visit := range visits {
			obs = append(obs, g.visits[visit])
		}
		out = append(out, c.Classify(obs))
	}
	return out
}

func (c *TrackingCookieClassifier) persistence(obs []entity.CookieRecord) entity.CriterionResult {
	for _, o := range obs {
		if o.Expires == nil {
			return entity.CriterionResult{Detail: fmt.Sprintf("visit %d: session cookie", o.Visit)}
		}
		if lifetime := o.Expires.Sub(o.Created); lifetime < c.MinLifetime {
			return entity.CriterionResult{Detail: fmt.Sprintf("visit %d: lifetime %s below %s", o.Visit, lifetime.Round(time.Hour), c.MinLifetime)}
		}
	}
	return entity.CriterionResult{Passed: true}
}

func (c *TrackingCookieClassifier) entropy(obs []entity.CookieRecord) entity.CriterionResult {
	for _, o := range obs {
		if n := len(o.Value); n < c.MinValueBytes {
			return entity.CriterionResult{Detail: fmt.Sprintf("visit %d: value is %d bytes", o.Visit, n)}
		}
	}
	return entity.CriterionResult{Passed: true}
}

func (c *TrackingCookieClassifier) uniqueness(obs []entity.CookieRecord) entity.CriterionResult {
	seen := make(map[string]int, len(obs))
	for _, o := range obs {
		if prev, dup := seen[o.Value]; dup {
			return entity.CriterionResult{Detail: fmt.Sprintf("visits %d and %d share a value", prev, o.Visit)}
		}
		seen[o.Value] = o.Visit
	}
	for i := 0; i < len(obs); i++ {
		for j := i + 1; j < len(obs); j++ {
			if r := lengthRatio(obs[i].Value, obs[j].Value); r < c.MinLengthRatio {
				return entity.CriterionResult{Detail: fmt.Sprintf("visits %d and %d length ratio %.2f", obs[i].Visit, obs[j].Visit, r)}
			}
		}
	}
	return entity.CriterionResult{Passed: true}
}

func (c *TrackingCookieClassifier) similarity(obs []entity.CookieRecord) entity.CriterionResult {
	lowest := 1.0
	for _, p := range comparisonPairs(c.Comparison, len(obs)) {
		r := Similarity(obs[p[0]].Value, obs[p[1]].Value)
		if r < lowest {
			lowest = r
		}
		if r < c.MinSimilarity {
			return entity.CriterionResult{Detail: fmt.Sprintf("visits %d and %d similarity %.2f", obs[p[0]].Visit, obs[p[1]].Visit, r)}
		}
	}
	return entity.CriterionResult{Passed: true, Detail: fmt.Sprintf("min similarity %.2f", lowest)}
}

func comparisonPairs(mode ComparisonMode, n int) [][2]int {
	var pairs [][2]int
	switch mode {
	case CompareAdjacent:
		for i := 1; i < n; i++ {
			pairs = append(pairs, [2]int{i - 1, i})
		}
	case CompareAllPairs:
		for i := 0; i < n; i++ {
			for j := i + 1; j < n; j++ {
				pairs = append(pairs, [2]int{i, j})
			}
		}
	default:
		for i := 1; i < n; i++ {
			pairs = append(pairs, [2]int{0, i})
		}
	}
	return pairs
}

// lengthRatio compares UTF-8 byte lengths, the unit the entropy floor
// uses too.
func lengthRatio(a, b string) float64 {
	la, lb := len(a), len(b)
	if la == lb {
		return 1
	}
	if la > lb {
		la, lb = lb, la
	}
	return float64(la) / float64(lb)
}
