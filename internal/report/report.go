// ABOUTME: Presentation model of the lead quality dashboard.
// ABOUTME: Turns a dataset into formatted KPIs, coloured bar charts and the top-N table.

package report

import (
	"fmt"
	"math"
	"slices"
	"strconv"
	"time"

	"github.com/2389/leadscore/internal/leads"
)

// Title is shown at the top of every rendering of the report.
const Title = "Email Quality Score Dashboard"

// Category colours used by both the HTML and terminal renderings.
const (
	ColorCorporate  = "#4CAF50"
	ColorPersonal   = "#FFC107"
	ColorBounced    = "#E74C3C"
	ColorNotBounced = "#2ECC71"
	colorFallback   = "#95A5A6"
)

var categoryColors = map[string]string{
	string(leads.TypeCorporate):    ColorCorporate,
	string(leads.TypePersonal):     ColorPersonal,
	string(leads.StatusBounced):    ColorBounced,
	string(leads.StatusNotBounced): ColorNotBounced,
}

// KPI is one headline number.
type KPI struct {
	Key     string       `json:"key"`
	Label   string       `json:"label"`
	Value   leads.Metric `json:"value"`
	Display string       `json:"display"`
}

// Bar is one category of a chart. Width is the bar length in percent of the
// largest bar of its chart.
type Bar struct {
	Label   string       `json:"label"`
	Value   leads.Metric `json:"value"`
	Display string       `json:"display"`
	Color   string       `json:"color"`
	Width   float64      `json:"width"`
}

// Chart is an ordered bar chart.
type Chart struct {
	Title string `json:"title"`
	Bars  []Bar  `json:"bars"`
}

// Report is everything a dashboard renders for one dataset.
type Report struct {
	Title         string         `json:"title"`
	Key           leads.Key      `json:"key"`
	GeneratedAt   time.Time      `json:"generated_at"`
	KPIs          []KPI          `json:"kpis"`
	ScoreByType   Chart          `json:"score_by_type"`
	ScoreByBounce Chart          `json:"score_by_bounce"`
	TopN          int            `json:"top_n"`
	Top           []leads.Ranked `json:"top"`
	Stats         leads.Stats    `json:"stats"`
}

// Build assembles the report for ds with a leaderboard of topN rows.
func Build(ds *leads.Dataset, topN int) (*Report, error) {
	if ds == nil {
		return nil, fmt.Errorf("build report: %w", leads.ErrEmptyDataset)
	}
	top, err := ds.Top(topN)
	if err != nil {
		return nil, fmt.Errorf("build report: %w", err)
	}
	stats := ds.Stats()

	return &Report{
		Title:         Title,
		Key:           ds.Key(),
		GeneratedAt:   ds.GeneratedAt(),
		KPIs:          kpis(stats),
		ScoreByType:   chart("Score by Email Type", stringKeys(stats.MeanScoreByType)),
		ScoreByBounce: chart("Score vs Bounce", stringKeys(stats.MeanScoreByBounceStatus)),
		TopN:          topN,
		Top:           top,
		Stats:         stats,
	}, nil
}

func kpis(s leads.Stats) []KPI {
	return []KPI{
		{Key: "total_count", Label: "Total Leads", Value: leads.Metric(s.TotalCount), Display: strconv.Itoa(s.TotalCount)},
		{Key: "mean_score", Label: "Mean Score", Value: s.MeanScore, Display: s.MeanScore.Format(2)},
		{Key: "bounce_rate", Label: "Bounce Rate", Value: s.BounceRate, Display: percent(s.BounceRate)},
		{Key: "corporate_rate", Label: "Corporate", Value: s.CorporateRate, Display: percent(s.CorporateRate)},
		{Key: "social_presence_rate", Label: "Social Presence", Value: s.SocialPresenceRate, Display: percent(s.SocialPresenceRate)},
		{
			Key:     "mean_score_high_confidence",
			Label:   fmt.Sprintf("Score (confidence ≥ %.1f)", leads.HighConfidenceThreshold),
			Value:   s.MeanScoreHighConfidence,
			Display: s.MeanScoreHighConfidence.Format(2),
		},
	}
}

func percent(m leads.Metric) string {
	if !m.Valid() {
		return m.Format(1)
	}
	return m.Format(1) + "%"
}

func stringKeys[K ~string](groups map[K]leads.Metric) map[string]leads.Metric {
	out := make(map[string]leads.Metric, len(groups))
	for k, v := range groups {
		out[string(k)] = v
	}
	return out
}

// chart orders bars by label, the same way a grouped frame would.
func chart(title string, groups map[string]leads.Metric) Chart {
	labels := make([]string, 0, len(groups))
	for label := range groups {
		labels = append(labels, label)
	}
	slices.Sort(labels)

	maxValue := 0.0
	for _, v := range groups {
		if v.Valid() {
			maxValue = math.Max(maxValue, v.Float())
		}
	}

	bars := make([]Bar, 0, len(labels))
	for _, label := range labels {
		v := groups[label]
		color, ok := categoryColors[label]
		if !ok {
			color = colorFallback
		}
		width := 0.0
		if v.Valid() && maxValue > 0 {
			width = math.Round(v.Float()/maxValue*1000) / 10
		}
		bars = append(bars, Bar{Label: label, Value: v, Display: v.Format(2), Color: color, Width: width})
	}
	return Chart{Title: title, Bars: bars}
}
