package instance

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/kailas-cloud/vecscope/internal/db"
	"github.com/kailas-cloud/vecscope/internal/domain"
	"github.com/kailas-cloud/vecscope/internal/domain/instance"
)

// DefaultKey is the store key holding the registry document.
const DefaultKey = "instances.json"

// store is the consumer interface for the registry (ISP).
type store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
}

// Repo is the instance registry. It keeps no cache: every call re-reads the
// backing store, and every mutation rewrites the whole document.
type Repo struct {
	store  store
	key    string
	logger *zap.Logger

	// mu serializes read-modify-write cycles within this process.
	mu sync.Mutex
}

// New creates an instance registry over s. An empty key selects DefaultKey.
func New(s store, key string, logger *zap.Logger) *Repo {
	if key == "" {
		key = DefaultKey
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Repo{store: s, key: key, logger: logger}
}

// List returns all descriptors in insertion order.
func (r *Repo) List(ctx context.Context) ([]instance.Descriptor, error) {
	rows, err := r.load(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]instance.Descriptor, len(rows))
	for i, row := range rows {
		out[i] = rowToDescriptor(row)
	}
	return out, nil
}

// Get returns the descriptor named name. When both a legacy and a regular
// entry carry the name, the legacy entry wins.
func (r *Repo) Get(ctx context.Context, name string) (instance.Descriptor, error) {
	rows, err := r.load(ctx)
	if err != nil {
		return instance.Descriptor{}, err
	}
	idx := resolve(rows, name)
	if idx < 0 {
		return instance.Descriptor{}, fmt.Errorf("instance %q: %w", name, domain.ErrNotFound)
	}
	return rowToDescriptor(rows[idx]), nil
}

// Exists reports whether an entry named name exists. With legacyOnly set,
// only legacy entries count.
func (r *Repo) Exists(ctx context.Context, name string, legacyOnly bool) (bool, error) {
	rows, err := r.load(ctx)
	if err != nil {
		return false, err
	}
	return conflicts(rows, name, legacyOnly), nil
}

// Add appends d. A regular descriptor conflicts with any entry of the same
// name; a legacy descriptor conflicts only with another legacy entry.
func (r *Repo) Add(ctx context.Context, d instance.Descriptor) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	rows, err := r.load(ctx)
	if err != nil {
		return err
	}
	if conflicts(rows, d.Name(), d.Legacy()) {
		return fmt.Errorf("instance %q: %w", d.Name(), domain.ErrDuplicateName)
	}
	return r.save(ctx, append(rows, descriptorToRow(d)))
}

// Remove deletes every entry named name.
func (r *Repo) Remove(ctx context.Context, name string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	rows, err := r.load(ctx)
	if err != nil {
		return err
	}
	kept := make([]row, 0, len(rows))
	for _, row := range rows {
		if row.Name != name {
			kept = append(kept, row)
		}
	}
	if len(kept) == len(rows) {
		return fmt.Errorf("instance %q: %w", name, domain.ErrNotFound)
	}
	return r.save(ctx, kept)
}

// load reads the registry document. A missing key is an empty registry.
// An unparseable document is copied to a backup key and treated as empty.
func (r *Repo) load(ctx context.Context) ([]row, error) {
	data, err := r.store.Get(ctx, r.key)
	if err != nil {
		if errors.Is(err, db.ErrKeyNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("read registry: %w", err)
	}

	var doc document
	if err := json.Unmarshal(data, &doc); err != nil {
		backup := r.key + ".backup"
		if berr := r.store.Set(ctx, backup, data); berr != nil {
			r.logger.Error("Registry backup failed",
				zap.String("key", backup),
				zap.Error(berr),
			)
		}
		r.logger.Warn("Registry document unreadable, treating as empty",
			zap.String("key", r.key),
			zap.String("backup_key", backup),
			zap.Error(err),
		)
		return nil, nil
	}
	return doc.Instances, nil
}

func (r *Repo) save(ctx context.Context, rows []row) error {
	if rows == nil {
		rows = []row{}
	}
	data, err := json.MarshalIndent(document{Instances: rows}, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal registry: %w", err)
	}
	if err := r.store.Set(ctx, r.key, data); err != nil {
		return fmt.Errorf("write registry: %w", err)
	}
	return nil
}

// resolve returns the index of the entry name resolves to, or -1.
func resolve(rows []row, name string) int {
	found := -1
	for i, row := range rows {
		if row.Name != name {
			continue
		}
		if row.Legacy {
			return i
		}
		if found < 0 {
			found = i
		}
	}
	return found
}

func conflicts(rows []row, name string, legacyOnly bool) bool {
	for _, row := range rows {
		if row.Name == name && (row.Legacy || !legacyOnly) {
			return true
		}
	}
	return false
}
