// ABOUTME: Tests for dataset aggregates and the not-computable metric.
// ABOUTME: Uses hand-built records with fixed scores so means are easy to check.

package leads

import (
	"encoding/json"
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func lead(t Type, bounce Bounce, social bool, confidence, score float64) Lead {
	return Lead{
		Name:  "Test Lead",
		Email: "test.lead@example.com",
		Attributes: Attributes{
			Type:             t,
			Sources:          3,
			Bounce:           bounce,
			SocialPresence:   social,
			SourceConfidence: confidence,
		},
		Score: score,
	}
}

func sampleRecords() []Lead {
	return []Lead{
		lead(TypeCorporate, BounceNo, true, 0.9, 90),
		lead(TypeCorporate, BounceYes, false, 0.5, 50),
		lead(TypePersonal, BounceUnknown, true, 0.7, 70),
		lead(TypePersonal, BounceYes, false, 0.3, 30),
	}
}

func TestAggregate_Sample(t *testing.T) {
	stats := Aggregate(sampleRecords())

	assert.Equal(t, 4, stats.TotalCount)
	assert.InDelta(t, 60.0, stats.MeanScore.Float(), 1e-9)
	assert.InDelta(t, 50.0, stats.BounceRate.Float(), 1e-9)
	assert.InDelta(t, 50.0, stats.CorporateRate.Float(), 1e-9)
	assert.InDelta(t, 50.0, stats.SocialPresenceRate.Float(), 1e-9)
	assert.InDelta(t, 80.0, stats.MeanScoreHighConfidence.Float(), 1e-9)

	assert.Equal(t, map[Type]Metric{TypeCorporate: 70, TypePersonal: 50}, stats.MeanScoreByType)
	assert.Equal(t, map[BounceStatus]Metric{StatusBounced: 40, StatusNotBounced: 80}, stats.MeanScoreByBounceStatus)
}

func TestAggregate_UnknownBounceCountsAsNotBounced(t *testing.T) {
	records := []Lead{
		lead(TypePersonal, BounceUnknown, false, 0.9, 60),
		lead(TypePersonal, BounceNo, false, 0.9, 40),
	}
	stats := Aggregate(records)

	assert.Equal(t, 0.0, stats.BounceRate.Float())
	assert.Equal(t, map[BounceStatus]Metric{StatusNotBounced: 50}, stats.MeanScoreByBounceStatus)
}

func TestAggregate_GroupKeysAreObservedTypes(t *testing.T) {
	records := []Lead{
		lead(TypeCorporate, BounceNo, false, 0.9, 80),
		lead(TypeCorporate, BounceNo, false, 0.9, 60),
	}
	stats := Aggregate(records)

	require.Len(t, stats.MeanScoreByType, 1)
	assert.Contains(t, stats.MeanScoreByType, TypeCorporate)
	assert.NotContains(t, stats.MeanScoreByType, TypePersonal)
	assert.Equal(t, MeanScoreByType(records), stats.MeanScoreByType)
	assert.Equal(t, MeanScoreByBounceStatus(records), stats.MeanScoreByBounceStatus)
}

func TestAggregate_EmptyDatasetIsNotComputable(t *testing.T) {
	stats := Aggregate(nil)

	assert.Equal(t, 0, stats.TotalCount)
	for name, m := range map[string]Metric{
		"mean_score":                 stats.MeanScore,
		"bounce_rate":                stats.BounceRate,
		"corporate_rate":             stats.CorporateRate,
		"social_presence_rate":       stats.SocialPresenceRate,
		"mean_score_high_confidence": stats.MeanScoreHighConfidence,
	} {
		assert.False(t, m.Valid(), "%s should not be computable", name)
		assert.Equal(t, "N/A", m.Format(2), name)
	}
	assert.Empty(t, stats.MeanScoreByType)
	assert.Empty(t, stats.MeanScoreByBounceStatus)
}

func TestAggregate_NoHighConfidenceRecords(t *testing.T) {
	records := []Lead{
		lead(TypePersonal, BounceNo, false, 0.5, 40),
		lead(TypePersonal, BounceNo, false, 0.3, 20),
	}
	stats := Aggregate(records)

	assert.True(t, stats.MeanScore.Valid())
	assert.False(t, stats.MeanScoreHighConfidence.Valid())
}

func TestAggregate_DoesNotMutate(t *testing.T) {
	records := sampleRecords()
	before := append([]Lead(nil), records...)
	Aggregate(records)
	assert.Equal(t, before, records)
}

func TestMean(t *testing.T) {
	m, err := Mean([]float64{1, 2, 3, 4})
	require.NoError(t, err)
	assert.Equal(t, 2.5, m)

	_, err = Mean(nil)
	assert.True(t, errors.Is(err, ErrEmptyDataset))
}

func TestMetric_JSON(t *testing.T) {
	stats := Aggregate(nil)
	body, err := json.Marshal(stats)
	require.NoError(t, err)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(body, &decoded))
	assert.Nil(t, decoded["mean_score"])
	assert.Nil(t, decoded["mean_score_high_confidence"])
	assert.Equal(t, float64(0), decoded["total_count"])

	body, err = json.Marshal(Metric(61.25))
	require.NoError(t, err)
	assert.Equal(t, "61.25", string(body))
}

func TestMetric_Format(t *testing.T) {
	assert.Equal(t, "61.3", Metric(61.25).Format(1))
	assert.Equal(t, "61.25", Metric(61.25).Format(2))
	assert.Equal(t, "N/A", Metric(math.Inf(1)).Format(2))
	assert.Equal(t, "N/A", NotComputable().Format(1))
}
