// ABOUTME: Scores caller-supplied attribute sets.
// ABOUTME: Accepts one object or an array; enums are validated, numeric inputs are clamped.

package api

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	apierrors "github.com/2389/leadscore/internal/errors"
	"github.com/2389/leadscore/internal/leads"
)

const maxScoreBody = 1 << 20

// ScoreRequest is one attribute set to score. Pointer fields are required so
// a missing number is rejected instead of silently scored as zero.
type ScoreRequest struct {
	Type             leads.Type   `json:"type" validate:"required,oneof=corporate personal"`
	Sources          *int         `json:"sources" validate:"required"`
	Bounce           leads.Bounce `json:"bounce"`
	LastUpdatedDays  *int         `json:"last_updated_days" validate:"required"`
	VerifiedDomain   bool         `json:"verified_domain"`
	SocialPresence   bool         `json:"social_presence"`
	SourceConfidence *float64     `json:"source_confidence" validate:"required"`
}

// Attributes converts the request into score inputs.
func (s ScoreRequest) Attributes() leads.Attributes {
	a := leads.Attributes{
		Type:           s.Type,
		Bounce:         s.Bounce,
		VerifiedDomain: s.VerifiedDomain,
		SocialPresence: s.SocialPresence,
	}
	if s.Sources != nil {
		a.Sources = *s.Sources
	}
	if s.LastUpdatedDays != nil {
		a.LastUpdatedDays = *s.LastUpdatedDays
	}
	if s.SourceConfidence != nil {
		a.SourceConfidence = *s.SourceConfidence
	}
	return a
}

// ScoreResult echoes the inputs with their score.
type ScoreResult struct {
	leads.Attributes
	Score float64 `json:"score"`
}

// DecodeScoreRequests reads one ScoreRequest or a JSON array of them.
// The second result reports whether the input was an array.
func DecodeScoreRequests(r io.Reader) ([]ScoreRequest, bool, error) {
	body, err := io.ReadAll(r)
	if err != nil {
		return nil, false, err
	}
	body = bytes.TrimSpace(body)

	if len(body) > 0 && body[0] == '[' {
		var reqs []ScoreRequest
		if err := json.Unmarshal(body, &reqs); err != nil {
			return nil, true, err
		}
		return reqs, true, nil
	}

	var req ScoreRequest
	if err := json.Unmarshal(body, &req); err != nil {
		return nil, false, err
	}
	return []ScoreRequest{req}, false, nil
}

// ScoreAll validates every request and scores them in order. It stops at
// the first request that fails validation and reports it as an
// *apierrors.ItemError carrying the request's index.
func ScoreAll(reqs []ScoreRequest) ([]ScoreResult, error) {
	results := make([]ScoreResult, len(reqs))
	for i, req := range reqs {
		if err := validate.Struct(req); err != nil {
			return nil, &apierrors.ItemError{Index: i, Err: err}
		}
		attrs := req.Attributes()
		results[i] = ScoreResult{Attributes: attrs, Score: leads.Score(attrs)}
	}
	return results, nil
}

func (h *Handlers) score(w http.ResponseWriter, r *http.Request) {
	reqs, isArray, err := DecodeScoreRequests(http.MaxBytesReader(w, r.Body, maxScoreBody))
	if err != nil {
		apierrors.WriteErrorWithDetails(w, http.StatusBadRequest, apierrors.ErrInvalidBody, "Invalid request body", err.Error())
		return
	}

	results, err := ScoreAll(reqs)
	if err != nil {
		var item *apierrors.ItemError
		if !isArray && errors.As(err, &item) {
			err = item.Err
		}
		apierrors.WriteValidationError(w, err)
		return
	}
	h.onScored(len(results))

	if isArray {
		writeJSON(w, results)
		return
	}
	writeJSON(w, results[0])
}

// validate reports fields by their JSON names.
var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}
