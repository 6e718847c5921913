// Package archive keeps published Define-XML documents.
//
// Each [Entry] holds one exported document together with the diagnostics of
// the run that produced it. Entries are keyed by the document's FileOID, so
// archiving a new version of the same define replaces the previous one.
//
// Two stores implement [Store]: [Memory] for tests and single-process use,
// and [Mongo] for a shared archive in MongoDB.
package archive

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/matzehuels/definekit/pkg/define"
	"github.com/matzehuels/definekit/pkg/errors"
)

// Entry is one archived document.
type Entry struct {
	FileOID       string             `bson:"_id" json:"file_oid"`
	Study         string             `bson:"study" json:"study"`
	DefineVersion string             `bson:"define_version" json:"define_version"`
	InputHash     string             `bson:"input_hash" json:"input_hash"`
	Document      []byte             `bson:"document,omitempty" json:"-"`
	Diagnostics   define.Diagnostics `bson:"diagnostics" json:"diagnostics"`
	ArchivedAt    time.Time          `bson:"archived_at" json:"archived_at"`
}

// Store persists entries.
type Store interface {
	// Put inserts or replaces the entry with e.FileOID.
	Put(ctx context.Context, e *Entry) error

	// Get returns the entry with the given FileOID, or a NOT_FOUND error.
	Get(ctx context.Context, fileOID string) (*Entry, error)

	// List returns all entries without their documents, newest first.
	List(ctx context.Context) ([]*Entry, error)

	// Delete removes an entry. Deleting a missing entry is not an error.
	Delete(ctx context.Context, fileOID string) error

	// Close releases the store's resources.
	Close(ctx context.Context) error
}

// Identity names the define an entry belongs to.
type Identity struct {
	FileOID       string
	Study         string
	DefineVersion string
}

// IdentityOf returns the identity of a model. A model without a study has
// none and yields a PRECONDITION error.
func IdentityOf(m *define.Model) (Identity, error) {
	if m == nil || m.Study == nil {
		return Identity{}, errors.New(errors.ErrCodePrecondition, "cannot archive a model without a study")
	}
	return Identity{
		FileOID:       m.Study.FileOID,
		Study:         m.Study.Name,
		DefineVersion: m.Study.DefineVersion,
	}, nil
}

// NewEntry builds an entry for an exported document. Now defaults to
// time.Now.
func NewEntry(id Identity, inputHash string, document []byte, diags define.Diagnostics, now func() time.Time) (*Entry, error) {
	if err := errors.ValidateOID(id.FileOID); err != nil {
		return nil, err
	}
	if now == nil {
		now = time.Now
	}
	return &Entry{
		FileOID:       id.FileOID,
		Study:         id.Study,
		DefineVersion: id.DefineVersion,
		InputHash:     inputHash,
		Document:      document,
		Diagnostics:   diags,
		ArchivedAt:    now().UTC(),
	}, nil
}

func validate(e *Entry) error {
	if e == nil {
		return errors.New(errors.ErrCodeInvalidInput, "nil entry")
	}
	return errors.ValidateOID(e.FileOID)
}

func notFound(fileOID string) error {
	return errors.New(errors.ErrCodeNotFound, "no archived define %s", fileOID)
}

// Memory is an in-process Store.
type Memory struct {
	mu      sync.RWMutex
	entries map[string]*Entry
}

// NewMemory creates an empty Memory store.
func NewMemory() *Memory {
	return &Memory{entries: make(map[string]*Entry)}
}

// Put stores a copy of e.
func (s *Memory) Put(_ context.Context, e *Entry) error {
	if err := validate(e); err != nil {
		return err
	}
	cp := *e
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[e.FileOID] = &cp
	return nil
}

// Get returns a copy of the stored entry.
func (s *Memory) Get(_ context.Context, fileOID string) (*Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.entries[fileOID]
	if !ok {
		return nil, notFound(fileOID)
	}
	cp := *e
	return &cp, nil
}

// List returns copies without documents, newest first.
func (s *Memory) List(_ context.Context) ([]*Entry, error) {
	s.mu.RLock()
	out := make([]*Entry, 0, len(s.entries))
	for _, e := range s.entries {
		cp := *e
		cp.Document = nil
		out = append(out, &cp)
	}
	s.mu.RUnlock()
	sortNewestFirst(out)
	return out, nil
}

// Delete removes an entry.
func (s *Memory) Delete(_ context.Context, fileOID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.entries, fileOID)
	return nil
}

// Close does nothing.
func (s *Memory) Close(context.Context) error { return nil }

func sortNewestFirst(es []*Entry) {
	sort.Slice(es, func(i, j int) bool {
		if !es[i].ArchivedAt.Equal(es[j].ArchivedAt) {
			return es[i].ArchivedAt.After(es[j].ArchivedAt)
		}
		return es[i].FileOID < es[j].FileOID
	})
}

var _ Store = (*Memory)(nil)
