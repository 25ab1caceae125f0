// ABOUTME: Error values shared by the lead generator and aggregations.
// ABOUTME: Callers match them with errors.Is; details are wrapped around them.

package leads

import "errors"

var (
	// ErrInvalidConfiguration is returned for a negative record count or a non-positive top-N.
	ErrInvalidConfiguration = errors.New("invalid configuration")

	// ErrEmptyDataset is returned when a statistic is requested over zero records.
	ErrEmptyDataset = errors.New("empty dataset")
)
