package auditlog

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"

	"github.com/Abdihaliim1/tmsv3-sub007/internal/domain/audit"
	badgerdb "github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"
)

const prefixAudit = "audit:"

// BadgerSink keeps audit entries in an embedded Badger database. Keys sort
// by tenant then time, so a tenant's log is one prefix scan.
type BadgerSink struct {
	db     *badgerdb.DB
	ownsDB bool
}

// OpenBadgerSink opens (or creates) the database at dir. An empty dir opens
// an in-memory database.
func OpenBadgerSink(dir string) (*BadgerSink, error) {
	opts := badgerdb.DefaultOptions(dir).WithLogger(nil)
	if dir == "" {
		opts = opts.WithInMemory(true)
	}
	db, err := badgerdb.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to open audit database: %w", err)
	}
	return &BadgerSink{db: db, ownsDB: true}, nil
}

// NewBadgerSink creates a sink on an open database owned by the caller
func NewBadgerSink(db *badgerdb.DB) *BadgerSink {
	return &BadgerSink{db: db}
}

// Append stores the entry under its tenant and timestamp
func (s *BadgerSink) Append(ctx context.Context, entry *audit.Entry) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if entry.ID == uuid.Nil {
		entry.ID = uuid.New()
	}
	data, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("failed to encode audit entry: %w", err)
	}
	return s.db.Update(func(txn *badgerdb.Txn) error {
		return txn.Set(entryKey(entry), data)
	})
}

// List returns the tenant's entries matching the filter, newest first
func (s *BadgerSink) List(ctx context.Context, tenantID uuid.UUID, filter audit.Filter) ([]*audit.Entry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var result []*audit.Entry
	err := s.db.View(func(txn *badgerdb.Txn) error {
		prefix := tenantPrefix(tenantID)
		opts := badgerdb.DefaultIteratorOptions
		opts.Prefix = prefix
		opts.Reverse = true

		it := txn.NewIterator(opts)
		defer it.Close()

		seek := append(bytes.Clone(prefix), 0xFF)
		for it.Seek(seek); it.ValidForPrefix(prefix); it.Next() {
			var e audit.Entry
			err := it.Item().Value(func(val []byte) error {
				return json.Unmarshal(val, &e)
			})
			if err != nil {
				return err
			}
			if !filter.Since.IsZero() && e.Timestamp.Before(filter.Since) {
				break
			}
			if !filter.Matches(&e) {
				continue
			}
			result = append(result, &e)
			if filter.Limit > 0 && len(result) >= filter.Limit {
				break
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list audit entries: %w", err)
	}
	return result, nil
}

// Close closes the database if the sink opened it
func (s *BadgerSink) Close() error {
	if s.ownsDB {
		return s.db.Close()
	}
	return nil
}

func tenantPrefix(tenantID uuid.UUID) []byte {
	return []byte(prefixAudit + tenantID.String() + ":")
}

// entryKey is audit:{tenant}:{unix nanos, zero padded}:{id}
func entryKey(e *audit.Entry) []byte {
	return []byte(fmt.Sprintf("%s%s:%020d:%s", prefixAudit, e.TenantID, e.Timestamp.UnixNano(), e.ID))
}

var _ audit.Sink = (*BadgerSink)(nil)
