package store

import (
	"context"
	"fmt"
	"time"
)

// InsertDetection persists an alert snapshot.
func (s *Store) InsertDetection(ctx context.Context, image []byte, capturedAt time.Time) (int64, error) {
	res, err := s.DB.ExecContext(ctx,
		`INSERT INTO detections (image, timestamp) VALUES (?, ?)`,
		image, capturedAt.Format(time.RFC3339Nano))
	if err != nil {
		return 0, fmt.Errorf("%w: insert detection: %v", ErrBackend, err)
	}
	return res.LastInsertId()
}

// SelectDetectionsBetween returns detections with timestamp in [start, end],
// ordered by timestamp ascending.
func (s *Store) SelectDetectionsBetween(ctx context.Context, start, end time.Time) ([]Detection, error) {
	rows, err := s.DB.QueryContext(ctx,
		`SELECT id, image, timestamp FROM detections WHERE timestamp >= ? AND timestamp <= ? ORDER BY timestamp ASC`,
		start.Format(time.RFC3339Nano), end.Format(time.RFC3339Nano))
	if err != nil {
		return nil, fmt.Errorf("%w: select detections: %v", ErrBackend, err)
	}
	defer rows.Close()

	var out []Detection
	for rows.Next() {
		var d Detection
		var ts string
		if err := rows.Scan(&d.ID, &d.Image, &ts); err != nil {
			return nil, fmt.Errorf("%w: scan detection: %v", ErrBackend, err)
		}
		parsed, err := time.Parse(time.RFC3339Nano, ts)
		if err != nil {
			return nil, fmt.Errorf("%w: parse detection timestamp: %v", ErrBackend, err)
		}
		d.Timestamp = parsed
		out = append(out, d)
	}
	return out, rows.Err()
}

// DeleteAllDetections empties the detections table.
func (s *Store) DeleteAllDetections(ctx context.Context) error {
	if _, err := s.DB.ExecContext(ctx, `DELETE FROM detections`); err != nil {
		return fmt.Errorf("%w: delete all detections: %v", ErrBackend, err)
	}
	return nil
}
