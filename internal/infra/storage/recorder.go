package storage

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// StreamLine is one raw line captured from the stream, exactly as
// received. Capture happens at the transport boundary; the cache core
// itself stays persistence-free.
type StreamLine struct {
	Seq        uint64 `gorm:"primaryKey" json:"seq"`
	ReceivedAt int64  `gorm:"index" json:"received_at"` // unix milliseconds
	Line       []byte `json:"line"`
}

// Recorder persists raw stream lines for offline replay
type Recorder struct {
	db *gorm.DB
}

// NewRecorder opens (or creates) the capture database at path. An
// empty path falls back to the user config directory.
func NewRecorder(path string) (*Recorder, error) {
	if path == "" {
		configDir, err := os.UserConfigDir()
		if err != nil {
			return nil, fmt.Errorf("failed to resolve capture path: %w", err)
		}
		path = filepath.Join(configDir, "betstream", "data", "capture.db")
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create capture directory: %w", err)
	}

	// Pure Go SQLite
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open capture database: %w", err)
	}

	if err := db.AutoMigrate(&StreamLine{}); err != nil {
		return nil, fmt.Errorf("failed to migrate capture database: %w", err)
	}

	return &Recorder{db: db}, nil
}

// SaveLine appends one raw line. Called WAL-first from the sequencer,
// before the line is decoded.
func (r *Recorder) SaveLine(seq uint64, receivedAt int64, line []byte) error {
	rec := StreamLine{
		Seq:        seq,
		ReceivedAt: receivedAt,
		Line:       append([]byte(nil), line...),
	}
	return r.db.Create(&rec).Error
}

// Replay iterates every captured line in sequence order. fn returning
// an error stops the replay.
func (r *Recorder) Replay(fn func(seq uint64, receivedAt int64, line []byte) error) error {
	rows, err := r.db.Model(&StreamLine{}).Order("seq asc").Rows()
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var line StreamLine
		if err := r.db.ScanRows(rows, &line); err != nil {
			return err
		}
		if err := fn(line.Seq, line.ReceivedAt, line.Line); err != nil {
			return err
		}
	}
	return rows.Err()
}

// Count returns the number of captured lines.
func (r *Recorder) Count() (int64, error) {
	var n int64
	err := r.db.Model(&StreamLine{}).Count(&n).Error
	return n, err
}
