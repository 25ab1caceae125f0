// ABOUTME: Tests for the lead quality score formula.
// ABOUTME: Covers the documented scenarios, the bounce asymmetry and input clamping.

package leads

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func bestCorporate() Attributes {
	return Attributes{
		Type:             TypeCorporate,
		Sources:          5,
		Bounce:           BounceNo,
		LastUpdatedDays:  0,
		VerifiedDomain:   true,
		SocialPresence:   true,
		SourceConfidence: 0.9,
	}
}

func worstPersonal() Attributes {
	return Attributes{
		Type:             TypePersonal,
		Sources:          1,
		Bounce:           BounceYes,
		LastUpdatedDays:  365,
		VerifiedDomain:   false,
		SocialPresence:   false,
		SourceConfidence: 0.3,
	}
}

func TestScore_DocumentedScenarios(t *testing.T) {
	assert.Equal(t, 98.5, Score(bestCorporate()))
	assert.Equal(t, 19.0, Score(worstPersonal()))
}

func TestScore_MaximalInputIsHundred(t *testing.T) {
	a := bestCorporate()
	a.SourceConfidence = 1
	assert.Equal(t, 100.0, Score(a))
}

func TestScore_Deterministic(t *testing.T) {
	a := Attributes{
		Type:             TypePersonal,
		Sources:          3,
		Bounce:           BounceUnknown,
		LastUpdatedDays:  120,
		VerifiedDomain:   true,
		SocialPresence:   false,
		SourceConfidence: 0.7,
	}
	first := Score(a)
	for i := 0; i < 10; i++ {
		assert.Equal(t, first, Score(a))
	}
}

func TestScore_UnknownBounceScoresLikeNoBounce(t *testing.T) {
	tests := []struct {
		name  string
		attrs Attributes
	}{
		{"best corporate", bestCorporate()},
		{"worst personal", worstPersonal()},
		{"middling", Attributes{Type: TypeCorporate, Sources: 2, LastUpdatedDays: 200, SourceConfidence: 0.5}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			unknown, no, yes := tt.attrs, tt.attrs, tt.attrs
			unknown.Bounce = BounceUnknown
			no.Bounce = BounceNo
			yes.Bounce = BounceYes

			assert.Equal(t, Score(no), Score(unknown))
			assert.InDelta(t, 15.0, Score(no)-Score(yes), 0.011)
		})
	}
}

func TestScore_ClampsOutOfRangeInputs(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(a *Attributes)
		clamped func(a *Attributes)
	}{
		{
			name:    "sources above range",
			mutate:  func(a *Attributes) { a.Sources = 12 },
			clamped: func(a *Attributes) { a.Sources = 5 },
		},
		{
			name:    "sources below range",
			mutate:  func(a *Attributes) { a.Sources = -3 },
			clamped: func(a *Attributes) { a.Sources = 1 },
		},
		{
			name:    "negative age",
			mutate:  func(a *Attributes) { a.LastUpdatedDays = -10 },
			clamped: func(a *Attributes) { a.LastUpdatedDays = 0 },
		},
		{
			name:    "age beyond a year",
			mutate:  func(a *Attributes) { a.LastUpdatedDays = 900 },
			clamped: func(a *Attributes) { a.LastUpdatedDays = 365 },
		},
		{
			name:    "confidence above one",
			mutate:  func(a *Attributes) { a.SourceConfidence = 4 },
			clamped: func(a *Attributes) { a.SourceConfidence = 1 },
		},
		{
			name:    "unknown type",
			mutate:  func(a *Attributes) { a.Type = "partner" },
			clamped: func(a *Attributes) { a.Type = TypePersonal },
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			raw, want := bestCorporate(), bestCorporate()
			tt.mutate(&raw)
			tt.clamped(&want)
			got := Score(raw)
			assert.Equal(t, Score(want), got)
			assert.GreaterOrEqual(t, got, 0.0)
			assert.LessOrEqual(t, got, 100.0)
		})
	}
}

func TestLead_Rescore(t *testing.T) {
	l := Lead{Name: "Ada Park", Email: "ada.park@gmail.com", Attributes: worstPersonal(), Score: 1}
	l.Rescore()
	assert.Equal(t, 19.0, l.Score)
}
