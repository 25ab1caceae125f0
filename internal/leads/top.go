// ABOUTME: Leaderboard selection over a lead dataset.
// ABOUTME: Stable descending sort by score so ties keep generation order.

package leads

import (
	"cmp"
	"fmt"
	"slices"
)

// Ranked is one row of the top-N leaderboard.
type Ranked struct {
	Name  string  `json:"name" yaml:"name"`
	Email string  `json:"email" yaml:"email"`
	Type  Type    `json:"type" yaml:"type"`
	Score float64 `json:"score" yaml:"score"`
}

// TopN returns the n highest-scoring leads, highest first. Leads with equal
// scores keep their original order. records is not modified.
func TopN(records []Lead, n int) ([]Ranked, error) {
	if n <= 0 {
		return nil, fmt.Errorf("%w: top-N size %d must be positive", ErrInvalidConfiguration, n)
	}

	sorted := slices.Clone(records)
	slices.SortStableFunc(sorted, func(a, b Lead) int {
		return cmp.Compare(b.Score, a.Score)
	})

	if n > len(sorted) {
		n = len(sorted)
	}
	top := make([]Ranked, n)
	for i, l := range sorted[:n] {
		top[i] = Ranked{Name: l.Name, Email: l.Email, Type: l.Type, Score: l.Score}
	}
	return top, nil
}
