package report

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"path"
	"strings"

	"github.com/google/uuid"

	"github.com/animus-labs/tablefuel/internal/platform/objectstore"
)

const contentTypeNDJSON = "application/x-ndjson"

// Archiver uploads encoded reports to object storage.
type Archiver struct {
	store  objectstore.Store
	bucket string
	prefix string
}

func NewArchiver(store objectstore.Store, bucket, prefix string) (*Archiver, error) {
	if store == nil {
		return nil, errors.New("object store is required")
	}
	bucket = strings.TrimSpace(bucket)
	if bucket == "" {
		return nil, errors.New("reports bucket is required")
	}
	return &Archiver{store: store, bucket: bucket, prefix: strings.Trim(strings.TrimSpace(prefix), "/")}, nil
}

// Archive stores r under prefix/runID.ndjson and returns the object key.
func (a *Archiver) Archive(ctx context.Context, r Report) (string, error) {
	if r.RunID == uuid.Nil {
		return "", errors.New("run id is required")
	}
	var buf bytes.Buffer
	if err := NewNDJSONWriter(&buf).Write(r); err != nil {
		return "", fmt.Errorf("encode report: %w", err)
	}
	if err := a.store.EnsureBucket(ctx, a.bucket); err != nil {
		return "", fmt.Errorf("ensure reports bucket: %w", err)
	}
	key := Key(a.prefix, r.RunID)
	if err := a.store.Put(ctx, a.bucket, key, bytes.NewReader(buf.Bytes()), int64(buf.Len()), contentTypeNDJSON); err != nil {
		return "", fmt.Errorf("put report %s: %w", key, err)
	}
	return key, nil
}

func Key(prefix string, runID uuid.UUID) string {
	name := runID.String() + ".ndjson"
	if prefix == "" {
		return name
	}
	return path.Join(prefix, name)
}
