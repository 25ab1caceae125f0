// ABOUTME: Descriptive statistics over a lead dataset.
// ABOUTME: Folds records into sum/count accumulators and reports NaN when undefined.

package leads

import (
	"math"
	"strconv"
)

// HighConfidenceThreshold is the minimum source confidence counted as high confidence.
const HighConfidenceThreshold = 0.7

// Metric is a statistic that may be undefined. Undefined metrics hold NaN.
type Metric float64

// NotComputable is the undefined metric.
func NotComputable() Metric {
	return Metric(math.NaN())
}

// Valid reports whether the metric could be computed.
func (m Metric) Valid() bool {
	return !math.IsNaN(float64(m)) && !math.IsInf(float64(m), 0)
}

// Float returns the raw value, NaN when undefined.
func (m Metric) Float() float64 {
	return float64(m)
}

// Format renders the metric with prec decimals, or "N/A".
func (m Metric) Format(prec int) string {
	if !m.Valid() {
		return "N/A"
	}
	return strconv.FormatFloat(float64(m), 'f', prec, 64)
}

// MarshalJSON encodes undefined metrics as null.
func (m Metric) MarshalJSON() ([]byte, error) {
	if !m.Valid() {
		return []byte("null"), nil
	}
	return strconv.AppendFloat(nil, float64(m), 'f', -1, 64), nil
}

// MarshalYAML encodes undefined metrics as null.
func (m Metric) MarshalYAML() (any, error) {
	if !m.Valid() {
		return nil, nil
	}
	return float64(m), nil
}

// Stats are the dashboard aggregates of a dataset.
type Stats struct {
	TotalCount              int                     `json:"total_count" yaml:"total_count"`
	MeanScore               Metric                  `json:"mean_score" yaml:"mean_score"`
	BounceRate              Metric                  `json:"bounce_rate" yaml:"bounce_rate"`
	CorporateRate           Metric                  `json:"corporate_rate" yaml:"corporate_rate"`
	SocialPresenceRate      Metric                  `json:"social_presence_rate" yaml:"social_presence_rate"`
	MeanScoreHighConfidence Metric                  `json:"mean_score_high_confidence" yaml:"mean_score_high_confidence"`
	MeanScoreByType         map[Type]Metric         `json:"mean_score_by_type" yaml:"mean_score_by_type"`
	MeanScoreByBounceStatus map[BounceStatus]Metric `json:"mean_score_by_bounce_status" yaml:"mean_score_by_bounce_status"`
}

// accumulator is a running (sum, count) pair.
type accumulator struct {
	sum   float64
	count int
}

func (a *accumulator) add(v float64) {
	a.sum += v
	a.count++
}

func (a accumulator) mean() Metric {
	if a.count == 0 {
		return NotComputable()
	}
	return Metric(a.sum / float64(a.count))
}

func (a accumulator) percent() Metric {
	m := a.mean()
	if !m.Valid() {
		return m
	}
	return m * 100
}

// Aggregate computes the dashboard statistics. It never mutates records.
func Aggregate(records []Lead) Stats {
	var score, bounce, corporate, social, highConf accumulator
	byType := make(map[Type]*accumulator)
	byBounce := make(map[BounceStatus]*accumulator)

	for _, r := range records {
		score.add(r.Score)
		bounce.add(r.Bounce.Value())
		corporate.add(boolValue(r.Type == TypeCorporate))
		social.add(boolValue(r.SocialPresence))
		if r.SourceConfidence >= HighConfidenceThreshold {
			highConf.add(r.Score)
		}
		groupAdd(byType, r.Type, r.Score)
		groupAdd(byBounce, r.Bounce.Status(), r.Score)
	}

	return Stats{
		TotalCount:              len(records),
		MeanScore:               score.mean(),
		BounceRate:              bounce.percent(),
		CorporateRate:           corporate.percent(),
		SocialPresenceRate:      social.percent(),
		MeanScoreHighConfidence: highConf.mean(),
		MeanScoreByType:         finalize(byType),
		MeanScoreByBounceStatus: finalize(byBounce),
	}
}

// MeanScoreByType returns the mean score of each observed type.
func MeanScoreByType(records []Lead) map[Type]Metric {
	groups := make(map[Type]*accumulator)
	for _, r := range records {
		groupAdd(groups, r.Type, r.Score)
	}
	return finalize(groups)
}

// MeanScoreByBounceStatus returns the mean score per bounce label.
func MeanScoreByBounceStatus(records []Lead) map[BounceStatus]Metric {
	groups := make(map[BounceStatus]*accumulator)
	for _, r := range records {
		groupAdd(groups, r.Bounce.Status(), r.Score)
	}
	return finalize(groups)
}

// Mean returns the arithmetic mean of values.
func Mean(values []float64) (float64, error) {
	if len(values) == 0 {
		return 0, ErrEmptyDataset
	}
	var acc accumulator
	for _, v := range values {
		acc.add(v)
	}
	return acc.sum / float64(acc.count), nil
}

func groupAdd[K comparable](groups map[K]*accumulator, key K, v float64) {
	acc, ok := groups[key]
	if !ok {
		acc = &accumulator{}
		groups[key] = acc
	}
	acc.add(v)
}

func finalize[K comparable](groups map[K]*accumulator) map[K]Metric {
	out := make(map[K]Metric, len(groups))
	for k, acc := range groups {
		out[k] = acc.mean()
	}
	return out
}

func boolValue(b bool) float64 {
	if b {
		return 1
	}
	return 0
}
