// ABOUTME: Immutable generated dataset and the key it is memoized under.
// ABOUTME: Hands out copies of its records so callers cannot mutate the shared slice.

package leads

import (
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"time"
)

// ErrDatasetNotFound is returned by a Snapshotter that has no dataset for a key.
var ErrDatasetNotFound = errors.New("dataset not found")

// Key identifies a memoized dataset.
type Key struct {
	Session string `json:"session"`
	Seed    int64  `json:"seed"`
	Count   int    `json:"count"`
}

func (k Key) String() string {
	return fmt.Sprintf("%s/%d/%d", k.Session, k.Seed, k.Count)
}

// Dataset is a generated, read-only sequence of leads.
type Dataset struct {
	key         Key
	generatedAt time.Time
	records     []Lead
}

// NewDataset wraps a copy of records.
func NewDataset(key Key, generatedAt time.Time, records []Lead) *Dataset {
	return &Dataset{
		key:         key,
		generatedAt: generatedAt.UTC(),
		records:     slices.Clone(records),
	}
}

func (d *Dataset) Key() Key               { return d.key }
func (d *Dataset) GeneratedAt() time.Time { return d.generatedAt }
func (d *Dataset) Len() int               { return len(d.records) }

// Records returns a copy of the leads in generation order.
func (d *Dataset) Records() []Lead {
	return slices.Clone(d.records)
}

// Stats aggregates the dataset.
func (d *Dataset) Stats() Stats {
	return Aggregate(d.records)
}

// Top returns the n best leads.
func (d *Dataset) Top(n int) ([]Ranked, error) {
	return TopN(d.records, n)
}

type datasetJSON struct {
	Key         Key       `json:"key"`
	GeneratedAt time.Time `json:"generated_at"`
	Records     []Lead    `json:"records"`
}

func (d *Dataset) MarshalJSON() ([]byte, error) {
	records := d.records
	if records == nil {
		records = []Lead{}
	}
	return json.Marshal(datasetJSON{Key: d.key, GeneratedAt: d.generatedAt, Records: records})
}

func (d *Dataset) UnmarshalJSON(data []byte) error {
	var raw datasetJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*d = *NewDataset(raw.Key, raw.GeneratedAt, raw.Records)
	return nil
}
