package classifier

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/user/trackscope/internal/entity"
)

var baseTime = time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

func observation(visit int, value string, lifetime time.Duration) entity.CookieRecord {
	created := baseTime.Add(time.Duration(visit) * time.Hour)
	rec := entity.CookieRecord{
		Name:    "uid",
		Domain:  ".www.Example.com",
		Path:    "/",
		Value:   value,
		Created: created,
		Visit:   visit,
	}
	if lifetime > 0 {
		exp := created.Add(lifetime)
		rec.Expires = &exp
	}
	return rec
}

func TestTrackingCookieEndToEndScenario(t *testing.T) {
	c := NewTrackingCookieClassifier(CompareBaseline)
	v := c.Classify([]entity.CookieRecord{
		observation(0, "AbCdEf1234567890", 365*24*time.Hour),
		observation(1, "AbCdEg1234567890", 365*24*time.Hour),
	})

	assert.Equal(t, "uid", v.Name)
	assert.Equal(t, "example.com", v.Domain)
	assert.True(t, v.Persistence.Passed)
	assert.True(t, v.Entropy.Passed)
	assert.True(t, v.Uniqueness.Passed)
	assert.True(t, v.Similarity.Passed)
	assert.Equal(t, entity.OutcomeTracking, v.Outcome)
	assert.True(t, v.IsTracking())
}

func TestTrackingCookieInsufficientEvidence(t *testing.T) {
	c := NewTrackingCookieClassifier(CompareBaseline)

	v := c.Classify([]entity.CookieRecord{observation(0, "AbCdEf1234567890", 365*24*time.Hour)})
	assert.Equal(t, entity.OutcomeInsufficientEvidence, v.Outcome)
	assert.False(t, v.IsTracking())

	v = c.Classify(nil)
	assert.Equal(t, entity.OutcomeInsufficientEvidence, v.Outcome)
}

func TestTrackingCookieShortLifetimeNeverTracking(t *testing.T) {
	c := NewTrackingCookieClassifier(CompareAllPairs)
	for _, lifetime := range []time.Duration{0, time.Hour, 30 * 24 * time.Hour, 90*24*time.Hour - time.Second} {
		v := c.Classify([]entity.CookieRecord{
			observation(0, "AbCdEf1234567890", lifetime),
			observation(1, "AbCdEg1234567890", lifetime),
		})
		assert.False(t, v.Persistence.Passed, "lifetime %s", lifetime)
		assert.NotEqual(t, entity.OutcomeTracking, v.Outcome, "lifetime %s", lifetime)
	}

	v := c.Classify([]entity.CookieRecord{
		observation(0, "AbCdEf1234567890", 90*24*time.Hour),
		observation(1, "AbCdEg1234567890", 90*24*time.Hour),
	})
	assert.True(t, v.Persistence.Passed, "exactly 90 days passes")
}

func TestTrackingCookieShortValuesNeverTracking(t *testing.T) {
	c := NewTrackingCookieClassifier(CompareBaseline)
	for _, pair := range [][2]string{{"a", "b"}, {"abc1234", "abc1235"}, {"é€", "€é"}} {
		v := c.Classify([]entity.CookieRecord{
			observation(0, pair[0], 365*24*time.Hour),
			observation(1, pair[1], 365*24*time.Hour),
		})
		assert.False(t, v.Entropy.Passed, "%q", pair)
		assert.Equal(t, entity.OutcomeNotTracking, v.Outcome)
	}

	// Four two-byte runes reach the 8-byte floor.
	v := c.Classify([]entity.CookieRecord{
		observation(0, "éééé", 365*24*time.Hour),
		observation(1, "éééè", 365*24*time.Hour),
	})
	assert.True(t, v.Entropy.Passed)
}

func TestTrackingCookieUniquenessAndLength(t *testing.T) {
	c := NewTrackingCookieClassifier(CompareBaseline)

	same := c.Classify([]entity.CookieRecord{
		observation(0, "AbCdEf1234567890", 365*24*time.Hour),
		observation(1, "AbCdEf1234567890", 365*24*time.Hour),
	})
	assert.False(t, same.Uniqueness.Passed)
	assert.Equal(t, entity.OutcomeNotTracking, same.Outcome)

	unstable := c.Classify([]entity.CookieRecord{
		observation(0, "AbCdEf12", 365*24*time.Hour),
		observation(1, "AbCdEf1234567890", 365*24*time.Hour),
	})
	assert.False(t, unstable.Uniqueness.Passed)
	assert.Contains(t, unstable.Uniqueness.Detail, "length ratio 0.50")

	// 16 bytes against 10 bytes, although both values are 10 characters long.
	multibyte := c.Classify([]entity.CookieRecord{
		observation(0, "éééééé1234", 365*24*time.Hour),
		observation(1, "abcdef1234", 365*24*time.Hour),
	})
	assert.False(t, multibyte.Uniqueness.Passed)
	assert.Contains(t, multibyte.Uniqueness.Detail, "length ratio 0.6")
}

func TestTrackingCookieSimilarity(t *testing.T) {
	obs := []entity.CookieRecord{
		observation(0, "AbCdEf1234567890", 365*24*time.Hour),
		observation(1, "AbCdEf1234567891", 365*24*time.Hour),
		observation(2, strings.Repeat("z", 16), 365*24*time.Hour),
	}

	baseline := NewTrackingCookieClassifier(CompareBaseline).Classify(obs)
	assert.False(t, baseline.Similarity.Passed)

	dissimilar := NewTrackingCookieClassifier(CompareBaseline).Classify([]entity.CookieRecord{
		observation(0, "qwertyuiopasdfgh", 365*24*time.Hour),
		observation(1, "0123456789ZXCVBN", 365*24*time.Hour),
	})
	assert.False(t, dissimilar.Similarity.Passed)
	assert.True(t, dissimilar.Uniqueness.Passed)
	assert.Equal(t, entity.OutcomeNotTracking, dissimilar.Outcome)
}

func TestComparisonPairs(t *testing.T) {
	assert.Equal(t, [][2]int{{0, 1}, {0, 2}}, comparisonPairs(CompareBaseline, 3))
	assert.Equal(t, [][2]int{{0, 1}, {1, 2}}, comparisonPairs(CompareAdjacent, 3))
	assert.Equal(t, [][2]int{{0, 1}, {0, 2}, {1, 2}}, comparisonPairs(CompareAllPairs, 3))
	assert.Nil(t, comparisonPairs(CompareBaseline, 1))
}

func TestParseComparisonMode(t *testing.T) {
	m, err := ParseComparisonMode("")
	require.NoError(t, err)
	assert.Equal(t, CompareBaseline, m)

	m, err = ParseComparisonMode("all_pairs")
	require.NoError(t, err)
	assert.Equal(t, CompareAllPairs, m)

	_, err = ParseComparisonMode("random")
	assert.Error(t, err)
}

func TestClassifyAllGroupsByKeyAcrossVisits(t *testing.T) {
	c := NewTrackingCookieClassifier(CompareBaseline)
	v0 := observation(0, "AbCdEf1234567890", 365*24*time.Hour)
	v1 := observation(1, "AbCdEg1234567890", 365*24*time.Hour)
	v1.Domain = "example.com"
	session := entity.CookieRecord{Name: "sid", Domain: "example.com", Value: "x", Visit: 0}

	verdicts := c.ClassifyAll(map[string][]entity.CookieRecord{
		"0": {v0, session},
		"1": {v1},
	})
	require.Len(t, verdicts, 2)

	assert.Equal(t, "sid", verdicts[0].Name)
	assert.Equal(t, entity.OutcomeInsufficientEvidence, verdicts[0].Outcome)

	assert.Equal(t, "uid", verdicts[1].Name)
	assert.Equal(t, 2, verdicts[1].Observations)
	assert.Equal(t, entity.OutcomeTracking, verdicts[1].Outcome)
}
