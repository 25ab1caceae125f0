// ABOUTME: Tests for the score endpoint.
// ABOUTME: Checks single and batch scoring, validation failures and clamping.

package api

import (
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apierrors "github.com/2389/leadscore/internal/errors"
	"github.com/2389/leadscore/internal/leads"
)

const bestCorporate = `{
	"type": "corporate",
	"sources": 5,
	"bounce": 0,
	"last_updated_days": 0,
	"verified_domain": true,
	"social_presence": true,
	"source_confidence": 0.9
}`

const worstPersonal = `{
	"type": "personal",
	"sources": 1,
	"bounce": 1,
	"last_updated_days": 365,
	"verified_domain": false,
	"social_presence": false,
	"source_confidence": 0.3
}`

func TestScore_Single(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(t, http.MethodPost, "/api/score", "alice", bestCorporate)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	res := decode[ScoreResult](t, rec)
	assert.Equal(t, 98.5, res.Score)
	assert.Equal(t, leads.TypeCorporate, res.Type)
	assert.Equal(t, leads.BounceNo, res.Bounce)
	assert.Equal(t, 1, ts.scored)
}

func TestScore_Batch(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(t, http.MethodPost, "/api/score", "alice", "["+bestCorporate+","+worstPersonal+"]")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	res := decode[[]ScoreResult](t, rec)
	require.Len(t, res, 2)
	assert.Equal(t, 98.5, res[0].Score)
	assert.Equal(t, 19.0, res[1].Score)
	assert.Equal(t, 2, ts.scored)
}

func TestScore_EmptyBatch(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(t, http.MethodPost, "/api/score", "alice", "[]")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, "[]", rec.Body.String())
}

func TestScore_NullBounceScoresLikeNoBounce(t *testing.T) {
	ts := newTestServer(t)

	body := strings.Replace(bestCorporate, `"bounce": 0`, `"bounce": null`, 1)
	res := decode[ScoreResult](t, ts.do(t, http.MethodPost, "/api/score", "alice", body))
	assert.Equal(t, 98.5, res.Score)
	assert.Equal(t, leads.BounceUnknown, res.Bounce)
}

func TestScore_ClampsOutOfRange(t *testing.T) {
	ts := newTestServer(t)

	body := strings.NewReplacer(`"sources": 5`, `"sources": 50`, `"source_confidence": 0.9`, `"source_confidence": 1`).Replace(bestCorporate)
	res := decode[ScoreResult](t, ts.do(t, http.MethodPost, "/api/score", "alice", body))
	assert.Equal(t, 100.0, res.Score)
	assert.Equal(t, 50, res.Sources, "inputs are echoed as sent")
}

func TestScore_ValidationFailures(t *testing.T) {
	tests := []struct {
		name  string
		body  string
		field string
	}{
		{"unknown type", strings.Replace(bestCorporate, `"corporate"`, `"partner"`, 1), "type"},
		{"missing type", `{"sources": 1, "last_updated_days": 3, "source_confidence": 0.5}`, "type"},
		{"missing sources", `{"type": "personal", "last_updated_days": 3, "source_confidence": 0.5}`, "sources"},
		{"missing confidence", `{"type": "personal", "sources": 1, "last_updated_days": 3}`, "source_confidence"},
		{"bad element in batch", "[" + bestCorporate + `, {"type": "personal"}]`, "[1].sources"},
		{"third element of three", "[" + bestCorporate + "," + worstPersonal + "," + strings.Replace(bestCorporate, `"corporate"`, `"partner"`, 1) + "]", "[2].type"},
		{"single element batch", `[{"type": "personal"}]`, "[0].sources"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ts := newTestServer(t)
			rec := ts.do(t, http.MethodPost, "/api/score", "alice", tt.body)

			assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
			resp := decode[apierrors.ErrorResponse](t, rec)
			assert.Equal(t, apierrors.ErrValidationFailed, resp.Code)
			assert.Equal(t, tt.field, resp.Field)
			assert.Equal(t, 0, ts.scored)
		})
	}
}

func TestScore_MalformedBody(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"not json", "type=corporate"},
		{"bounce out of range", strings.Replace(bestCorporate, `"bounce": 0`, `"bounce": 2`, 1)},
		{"sources as string", strings.Replace(bestCorporate, `"sources": 5`, `"sources": "five"`, 1)},
		{"truncated array", "[" + bestCorporate},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ts := newTestServer(t)
			rec := ts.do(t, http.MethodPost, "/api/score", "alice", tt.body)

			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Equal(t, apierrors.ErrInvalidBody, decode[apierrors.ErrorResponse](t, rec).Code)
		})
	}
}

func TestDecodeScoreRequests(t *testing.T) {
	reqs, isArray, err := DecodeScoreRequests(strings.NewReader("  " + worstPersonal))
	require.NoError(t, err)
	assert.False(t, isArray)
	require.Len(t, reqs, 1)
	assert.Equal(t, 19.0, leads.Score(reqs[0].Attributes()))

	reqs, isArray, err = DecodeScoreRequests(strings.NewReader("\n[" + worstPersonal + "]"))
	require.NoError(t, err)
	assert.True(t, isArray)
	assert.Len(t, reqs, 1)
}

func TestScoreAll(t *testing.T) {
	five, days, conf := 5, 0, 0.9
	valid := ScoreRequest{
		Type: leads.TypeCorporate, Sources: &five, Bounce: leads.BounceNo,
		LastUpdatedDays: &days, VerifiedDomain: true, SocialPresence: true, SourceConfidence: &conf,
	}
	results, err := ScoreAll([]ScoreRequest{valid})
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, 98.5, results[0].Score)

	_, err = ScoreAll([]ScoreRequest{valid, {Type: leads.TypeCorporate}})
	var item *apierrors.ItemError
	require.ErrorAs(t, err, &item)
	assert.Equal(t, 1, item.Index)
}
