package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/roach88/segmaker/internal/ir"
)

// SegmentInfo summarizes one stored snapshot.
type SegmentInfo struct {
	Score              string  `json:"score"`
	SegmentNumber      int     `json:"segment_number"`
	RunID              string  `json:"run_id"`
	Hash               string  `json:"hash"`
	FirstMeasureNumber int     `json:"first_measure_number"`
	MeasureCount       int     `json:"measure_count"`
	StopClockTime      *string `json:"stop_clock_time,omitempty"`
	EngineVersion      string  `json:"engine_version"`
}

// IndicatorRow is one persistent indicator of a stored snapshot.
type IndicatorRow struct {
	SegmentNumber int        `json:"segment_number"`
	Momento       ir.Momento `json:"momento"`
}

// WriteSegment stores md as the snapshot of segment md.SegmentNumber of score.
//
// An existing snapshot for the same segment is replaced together with its
// persistent_indicators rows. Everything happens in one transaction.
func (s *Store) WriteSegment(ctx context.Context, score, runID string, md *ir.Metadata) error {
	if md == nil {
		return fmt.Errorf("write segment: nil metadata")
	}
	if md.SegmentNumber < 1 {
		return fmt.Errorf("write segment: segment number %d must be >= 1", md.SegmentNumber)
	}

	data, err := md.MarshalCanonicalJSON()
	if err != nil {
		return fmt.Errorf("write segment %d: %w", md.SegmentNumber, err)
	}
	hash, err := md.Hash()
	if err != nil {
		return fmt.Errorf("write segment %d: %w", md.SegmentNumber, err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // no-op after commit

	if _, err := tx.ExecContext(ctx, `
		DELETE FROM segments WHERE score = ? AND segment_number = ?
	`, score, md.SegmentNumber); err != nil {
		return fmt.Errorf("delete previous snapshot: %w", err)
	}

	var stop sql.NullString
	if md.StopClockTime != nil {
		stop = sql.NullString{String: *md.StopClockTime, Valid: true}
	}
	if _, err := tx.ExecContext(ctx, `
		INSERT INTO segments (
			score, segment_number, run_id, metadata_hash, metadata,
			first_measure_number, measure_count, stop_clock_time,
			engine_version, metadata_version
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, score, md.SegmentNumber, runID, hash, string(data),
		md.FirstMeasureNumber, md.MeasureCount(), stop,
		ir.EngineVersion, ir.MetadataVersion); err != nil {
		return fmt.Errorf("insert segment %d: %w", md.SegmentNumber, err)
	}

	for _, name := range md.ContextNames() {
		for _, mo := range md.PersistentIndicators[name] {
			value, err := ir.MarshalCanonical(mo.Value)
			if err != nil {
				return fmt.Errorf("marshal momento %s: %w", mo, err)
			}
			if _, err := tx.ExecContext(ctx, `
				INSERT INTO persistent_indicators (score, segment_number, context, prototype, value)
				VALUES (?, ?, ?, ?, ?)
			`, score, md.SegmentNumber, name, mo.Prototype.String(), string(value)); err != nil {
				return fmt.Errorf("insert momento %s: %w", mo, err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit segment %d: %w", md.SegmentNumber, err)
	}
	return nil
}

// ReadMetadata returns the snapshot of segment n of score.
// Returns ErrNotFound if it was never written.
//
// The stored hash is recomputed; a mismatch means the row was edited outside
// the store and is reported as an error rather than handed to the engine.
func (s *Store) ReadMetadata(ctx context.Context, score string, n int) (*ir.Metadata, error) {
	var data, stored string
	err := s.db.QueryRowContext(ctx, `
		SELECT metadata, metadata_hash FROM segments
		WHERE score = ? AND segment_number = ?
	`, score, n).Scan(&data, &stored)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%s segment %d: %w", score, n, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("query segment %d: %w", n, err)
	}

	md, err := ir.ParseMetadata([]byte(data))
	if err != nil {
		return nil, fmt.Errorf("%s segment %d: %w", score, n, err)
	}
	hash, err := md.Hash()
	if err != nil {
		return nil, fmt.Errorf("%s segment %d: %w", score, n, err)
	}
	if hash != stored {
		return nil, fmt.Errorf("%s segment %d: metadata hash mismatch (stored %s, computed %s)", score, n, stored, hash)
	}
	return md, nil
}

// PreviousMetadata returns the snapshot a run of segment n builds on.
// Segment 1 has no predecessor and yields (nil, nil).
func (s *Store) PreviousMetadata(ctx context.Context, score string, n int) (*ir.Metadata, error) {
	if n <= 1 {
		return nil, nil
	}
	return s.ReadMetadata(ctx, score, n-1)
}

// LatestSegment returns the highest stored segment number of score, or 0.
func (s *Store) LatestSegment(ctx context.Context, score string) (int, error) {
	var n sql.NullInt64
	if err := s.db.QueryRowContext(ctx, `
		SELECT MAX(segment_number) FROM segments WHERE score = ?
	`, score).Scan(&n); err != nil {
		return 0, fmt.Errorf("query latest segment: %w", err)
	}
	return int(n.Int64), nil
}

// ListSegments returns the stored snapshots of score ordered by segment number.
// Returns an empty slice (not nil) for an unknown score.
func (s *Store) ListSegments(ctx context.Context, score string) ([]SegmentInfo, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT score, segment_number, run_id, metadata_hash,
		       first_measure_number, measure_count, stop_clock_time, engine_version
		FROM segments
		WHERE score = ?
		ORDER BY segment_number ASC
	`, score)
	if err != nil {
		return nil, fmt.Errorf("query segments: %w", err)
	}
	defer rows.Close()

	segments := []SegmentInfo{}
	for rows.Next() {
		var info SegmentInfo
		var stop sql.NullString
		if err := rows.Scan(&info.Score, &info.SegmentNumber, &info.RunID, &info.Hash,
			&info.FirstMeasureNumber, &info.MeasureCount, &stop, &info.EngineVersion); err != nil {
			return nil, fmt.Errorf("scan segment: %w", err)
		}
		if stop.Valid {
			info.StopClockTime = &stop.String
		}
		segments = append(segments, info)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate segments: %w", err)
	}
	return segments, nil
}

// ContextHistory returns the persisted indicators of one context across all
// segments of score, ordered by segment number then prototype name.
func (s *Store) ContextHistory(ctx context.Context, score, contextName string) ([]IndicatorRow, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT segment_number, prototype, value
		FROM persistent_indicators
		WHERE score = ? AND context = ?
		ORDER BY segment_number ASC, prototype COLLATE BINARY ASC
	`, score, contextName)
	if err != nil {
		return nil, fmt.Errorf("query persistent indicators: %w", err)
	}
	defer rows.Close()

	history := []IndicatorRow{}
	for rows.Next() {
		var (
			n            int
			proto, value string
		)
		if err := rows.Scan(&n, &proto, &value); err != nil {
			return nil, fmt.Errorf("scan persistent indicator: %w", err)
		}
		p, err := ir.ParsePrototype(proto)
		if err != nil {
			return nil, err
		}
		v, err := ir.UnmarshalScalar([]byte(value))
		if err != nil {
			return nil, fmt.Errorf("persistent indicator %s/%s: %w", contextName, proto, err)
		}
		history = append(history, IndicatorRow{
			SegmentNumber: n,
			Momento:       ir.Momento{Context: contextName, Prototype: p, Value: v},
		})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate persistent indicators: %w", err)
	}
	return history, nil
}
