// ABOUTME: Dataset snapshot storage so memoized leads survive restarts.
// ABOUTME: Implements leads.Snapshotter on top of the datasets table.

package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/2389/leadscore/internal/leads"
)

var _ leads.Snapshotter = (*Store)(nil)

// DatasetInfo summarises a stored dataset without its records.
type DatasetInfo struct {
	Key         leads.Key
	GeneratedAt time.Time
}

// SaveDataset stores ds, replacing any snapshot with the same key.
func (s *Store) SaveDataset(ctx context.Context, ds *leads.Dataset) error {
	records, err := json.Marshal(ds.Records())
	if err != nil {
		return fmt.Errorf("encode records: %w", err)
	}

	key := ds.Key()
	_, err = s.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO datasets (session, seed, record_count, generated_at, records)
		VALUES (?, ?, ?, ?, ?)
	`, key.Session, key.Seed, key.Count, ds.GeneratedAt(), string(records))
	return err
}

// LoadDataset returns the snapshot for key or leads.ErrDatasetNotFound.
func (s *Store) LoadDataset(ctx context.Context, key leads.Key) (*leads.Dataset, error) {
	var (
		generatedAt time.Time
		raw         string
	)
	err := s.db.QueryRowContext(ctx, `
		SELECT generated_at, records FROM datasets
		WHERE session = ? AND seed = ? AND record_count = ?
	`, key.Session, key.Seed, key.Count).Scan(&generatedAt, &raw)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", leads.ErrDatasetNotFound, key)
	}
	if err != nil {
		return nil, err
	}

	var records []leads.Lead
	if err := json.Unmarshal([]byte(raw), &records); err != nil {
		return nil, fmt.Errorf("decode records for %s: %w", key, err)
	}
	if len(records) != key.Count {
		return nil, fmt.Errorf("snapshot %s holds %d records", key, len(records))
	}
	return leads.NewDataset(key, generatedAt, records), nil
}

// DeleteDataset removes the snapshot for key. A missing snapshot is not an error.
func (s *Store) DeleteDataset(ctx context.Context, key leads.Key) error {
	_, err := s.db.ExecContext(ctx, `
		DELETE FROM datasets WHERE session = ? AND seed = ? AND record_count = ?
	`, key.Session, key.Seed, key.Count)
	return err
}

// ListDatasets returns stored snapshots, newest first.
func (s *Store) ListDatasets(ctx context.Context) ([]DatasetInfo, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT session, seed, record_count, generated_at FROM datasets
		ORDER BY generated_at DESC
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var infos []DatasetInfo
	for rows.Next() {
		var info DatasetInfo
		if err := rows.Scan(&info.Key.Session, &info.Key.Seed, &info.Key.Count, &info.GeneratedAt); err != nil {
			return nil, err
		}
		infos = append(infos, info)
	}
	return infos, rows.Err()
}

// DeleteDatasets removes the snapshots of session, or all of them when session is empty.
func (s *Store) DeleteDatasets(ctx context.Context, session string) (int64, error) {
	var (
		res sql.Result
		err error
	)
	if session == "" {
		res, err = s.db.ExecContext(ctx, "DELETE FROM datasets")
	} else {
		res, err = s.db.ExecContext(ctx, "DELETE FROM datasets WHERE session = ?", session)
	}
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
