// Package reportstore persists finished analyses.
package reportstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"codelens/internal/config"
	"codelens/internal/types"
	"codelens/internal/util/jsonutil"
)

var (
	ErrNotFound  = errors.New("reportstore: record not found")
	ErrInvalidID = errors.New("reportstore: invalid record id")
)

// Record is one stored analysis. Report is the enhanced report; Metrics
// were computed on the report before enhancement.
type Record struct {
	ID           string                `json:"id"`
	CreatedAt    time.Time             `json:"created_at"`
	Kind         types.ReportKind      `json:"kind"`
	Profile      types.ProjectProfile  `json:"profile"`
	Report       *types.AnalysisReport `json:"report"`
	Metrics      types.QualityMetrics  `json:"metrics"`
	Attempts     int                   `json:"attempts"`
	Truncated    bool                  `json:"truncated"`
	OmittedFiles int                   `json:"omitted_files"`
}

type Store interface {
	Put(ctx context.Context, rec Record) error
	// Get returns ErrNotFound for unknown ids.
	Get(ctx context.Context, id string) (Record, error)
	// List returns stored ids in a stable order.
	List(ctx context.Context) ([]string, error)
	Close() error
}

var idPattern = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9_-]{0,127}$`)

func checkID(id string) (string, error) {
	id = strings.TrimSpace(id)
	if !idPattern.MatchString(id) {
		return "", fmt.Errorf("%w: %q", ErrInvalidID, id)
	}
	return id, nil
}

func encode(rec Record) ([]byte, error) {
	b, err := jsonutil.MarshalNoEscape(rec)
	if err != nil {
		return nil, fmt.Errorf("encode record %s: %w", rec.ID, err)
	}
	return b, nil
}

func decode(b []byte) (Record, error) {
	var rec Record
	if err := json.Unmarshal(b, &rec); err != nil {
		return Record{}, fmt.Errorf("decode record: %w", err)
	}
	return rec, nil
}

// Open builds the backend named by cfg.Backend.
func Open(ctx context.Context, cfg config.StoreConfig) (Store, error) {
	var (
		s   Store
		err error
	)
	switch strings.ToLower(strings.TrimSpace(cfg.Backend)) {
	case "", "memory":
		s, err = NewMemoryStore(cfg.MaxEntries)
	case "file":
		s, err = NewFileStore(cfg.Dir)
	case "s3", "minio":
		s, err = NewS3Store(S3Config{
			Endpoint:  cfg.S3.Endpoint,
			Region:    cfg.S3.Region,
			AccessKey: cfg.S3.AccessKey,
			SecretKey: cfg.S3.SecretKey,
			Bucket:    cfg.S3.Bucket,
			UseSSL:    cfg.S3.UseSSL,
		})
	case "postgres", "pg":
		s, err = NewPostgresStore(ctx, cfg.DSN)
	default:
		return nil, fmt.Errorf("reportstore: unknown backend %q", cfg.Backend)
	}
	if err != nil {
		return nil, fmt.Errorf("open %s store: %w", cfg.Backend, err)
	}
	return s, nil
}
