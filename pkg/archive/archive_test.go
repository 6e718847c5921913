package archive

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/matzehuels/definekit/pkg/define"
	"github.com/matzehuels/definekit/pkg/errors"
)

func entry(oid string, at time.Time) *Entry {
	return &Entry{
		FileOID:       oid,
		Study:         "CDISC01",
		DefineVersion: "2.1.0",
		InputHash:     "abc",
		Document:      []byte("<ODM/>"),
		Diagnostics:   define.Diagnostics{define.Warningf("dangling").For("COM.AE")},
		ArchivedAt:    at,
	}
}

// testStore exercises the Store contract against s.
func testStore(t *testing.T, s Store) {
	t.Helper()
	ctx := context.Background()
	t0 := time.Date(2024, 5, 6, 7, 8, 9, 0, time.UTC)

	if _, err := s.Get(ctx, "DEF.NONE"); !errors.Is(err, errors.ErrCodeNotFound) {
		t.Fatalf("Get(missing) = %v, want NOT_FOUND", err)
	}

	if err := s.Put(ctx, entry("DEF.A", t0)); err != nil {
		t.Fatalf("Put: %v", err)
	}
	if err := s.Put(ctx, entry("DEF.B", t0.Add(time.Hour))); err != nil {
		t.Fatalf("Put: %v", err)
	}

	got, err := s.Get(ctx, "DEF.A")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if string(got.Document) != "<ODM/>" || len(got.Diagnostics) != 1 || got.Diagnostics[0].Key != "COM.AE" {
		t.Errorf("Get = %+v", got)
	}
	if !got.ArchivedAt.Equal(t0) {
		t.Errorf("ArchivedAt = %v, want %v", got.ArchivedAt, t0)
	}

	// Replacing keeps one entry per FileOID.
	replaced := entry("DEF.A", t0.Add(2*time.Hour))
	replaced.InputHash = "def"
	if err := s.Put(ctx, replaced); err != nil {
		t.Fatalf("Put replace: %v", err)
	}

	list, err := s.List(ctx)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(list) != 2 {
		t.Fatalf("List len = %d, want 2", len(list))
	}
	if list[0].FileOID != "DEF.A" || list[0].InputHash != "def" || list[1].FileOID != "DEF.B" {
		t.Errorf("List order = %s, %s", list[0].FileOID, list[1].FileOID)
	}
	if list[0].Document != nil {
		t.Error("List should omit documents")
	}

	if err := s.Delete(ctx, "DEF.A"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if err := s.Delete(ctx, "DEF.A"); err != nil {
		t.Errorf("Delete(missing): %v", err)
	}
	if _, err := s.Get(ctx, "DEF.A"); !errors.Is(err, errors.ErrCodeNotFound) {
		t.Errorf("Get after Delete = %v", err)
	}

	if err := s.Put(ctx, &Entry{FileOID: "has space"}); !errors.Is(err, errors.ErrCodeInvalidOID) {
		t.Errorf("Put(bad OID) = %v, want INVALID_OID", err)
	}
}

func TestMemory(t *testing.T) {
	s := NewMemory()
	defer s.Close(context.Background())
	testStore(t, s)
}

func TestMemoryReturnsCopies(t *testing.T) {
	ctx := context.Background()
	s := NewMemory()
	e := entry("DEF.A", time.Now())
	if err := s.Put(ctx, e); err != nil {
		t.Fatal(err)
	}
	e.Study = "changed"
	got, _ := s.Get(ctx, "DEF.A")
	if got.Study != "CDISC01" {
		t.Error("Put should store a copy")
	}
}

func TestMongo(t *testing.T) {
	uri := os.Getenv("DEFINEKIT_TEST_MONGO")
	if uri == "" {
		t.Skip("DEFINEKIT_TEST_MONGO not set")
	}
	ctx := context.Background()
	s, err := NewMongo(ctx, MongoOptions{URI: uri, Database: "definekit_test"})
	if err != nil {
		t.Fatalf("NewMongo: %v", err)
	}
	defer s.Close(ctx)
	defer s.coll.Drop(ctx)
	testStore(t, s)
}

func TestNewMongoRequiresURI(t *testing.T) {
	if _, err := NewMongo(context.Background(), MongoOptions{}); !errors.Is(err, errors.ErrCodeInvalidInput) {
		t.Errorf("err = %v, want INVALID_INPUT", err)
	}
}

func TestNewEntry(t *testing.T) {
	m := define.New()
	if _, err := IdentityOf(m); !errors.Is(err, errors.ErrCodePrecondition) {
		t.Errorf("no study: %v", err)
	}

	m.Study = &define.Study{FileOID: "DEF.CDISC01", Name: "CDISC01", DefineVersion: "2.1.0"}
	id, err := IdentityOf(m)
	if err != nil {
		t.Fatal(err)
	}
	now := func() time.Time { return time.Date(2024, 1, 2, 3, 4, 5, 0, time.FixedZone("CET", 3600)) }
	e, err := NewEntry(id, "h", []byte("<ODM/>"), nil, now)
	if err != nil {
		t.Fatal(err)
	}
	if e.FileOID != "DEF.CDISC01" || e.Study != "CDISC01" || e.DefineVersion != "2.1.0" || e.ArchivedAt.Location() != time.UTC {
		t.Errorf("entry = %+v", e)
	}

	if _, err := NewEntry(Identity{FileOID: "bad oid"}, "h", nil, nil, now); !errors.Is(err, errors.ErrCodeInvalidOID) {
		t.Errorf("bad oid: %v", err)
	}
}
