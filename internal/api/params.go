// ABOUTME: Resolves dataset parameters from a request.
// ABOUTME: Query values win over configured defaults; the session supplies the default seed.

package api

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/2389/leadscore/internal/leads"
	"github.com/2389/leadscore/internal/session"
)

// MaxCount caps the record count a request may ask for.
const MaxCount = leads.MaxCount

// Defaults are the configured dataset parameters.
type Defaults struct {
	Count int
	TopN  int
	Seed  *int64
}

// Params is what a dashboard request resolved to.
type Params struct {
	Key  leads.Key
	TopN int
}

// ParseParams reads count, seed and top (alias n) from the query string.
// Without an explicit or configured seed the session's derived seed is used,
// so each session sees its own stable dataset.
func ParseParams(r *http.Request, d Defaults) (Params, error) {
	q := r.URL.Query()
	sessionID := session.FromContext(r.Context())

	p := Params{
		Key:  leads.Key{Session: sessionID, Count: d.Count},
		TopN: d.TopN,
	}
	switch {
	case d.Seed != nil:
		p.Key.Seed = *d.Seed
	default:
		p.Key.Seed = session.SeedFor(sessionID)
	}

	if v := strings.TrimSpace(q.Get("count")); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 || n > MaxCount {
			return Params{}, fmt.Errorf("%w: count must be an integer between 0 and %d, got %q", leads.ErrInvalidConfiguration, MaxCount, v)
		}
		p.Key.Count = n
	}

	if v := strings.TrimSpace(q.Get("seed")); v != "" {
		seed, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return Params{}, fmt.Errorf("%w: seed must be an integer, got %q", leads.ErrInvalidConfiguration, v)
		}
		p.Key.Seed = seed
	}

	top := strings.TrimSpace(q.Get("top"))
	if top == "" {
		top = strings.TrimSpace(q.Get("n"))
	}
	if top != "" {
		n, err := strconv.Atoi(top)
		if err != nil || n <= 0 {
			return Params{}, fmt.Errorf("%w: top must be a positive integer, got %q", leads.ErrInvalidConfiguration, top)
		}
		p.TopN = n
	}

	if p.TopN <= 0 {
		p.TopN = leads.DefaultTopN
	}
	return p, nil
}
