package sqlitestore

import (
	"path/filepath"
	"testing"

	"github.com/brackenfield/psearch/store"
)

func TestWriteReadPosts(t *testing.T) {
	dir := t.TempDir()
	s, err := Open(filepath.Join(dir, "index.db"))
	if err != nil {
		t.Fatalf("Open() error: %v", err)
	}
	defer s.Close()

	posts := []store.Posting{{QID: 1, Mask: 2}, {QID: 5, Mask: 0}}
	if err := s.WritePosts(store.Rare, "banana", posts); err != nil {
		t.Fatalf("WritePosts() error: %v", err)
	}

	got, err := s.ReadPosts(store.Rare, "banana")
	if err != nil {
		t.Fatalf("ReadPosts() error: %v", err)
	}
	if len(got) != 2 || got[0] != posts[0] || got[1] != posts[1] {
		t.Errorf("ReadPosts() = %+v, want %+v", got, posts)
	}

	if got, err := s.ReadPosts(store.Rare, "unknown"); err != nil || got != nil {
		t.Errorf("ReadPosts(unknown) = %+v, %v; want nil, nil", got, err)
	}
}

func TestWritePostsOverwrites(t *testing.T) {
	dir := t.TempDir()
	s, err := Open(filepath.Join(dir, "index.db"))
	if err != nil {
		t.Fatalf("Open() error: %v", err)
	}
	defer s.Close()

	s.WritePosts(store.Rare, "apple", []store.Posting{{QID: 1, Mask: 1}})
	s.WritePosts(store.Rare, "apple", []store.Posting{{QID: 2, Mask: 2}})

	got, err := s.ReadPosts(store.Rare, "apple")
	if err != nil || len(got) != 1 || got[0].QID != 2 {
		t.Errorf("ReadPosts() after overwrite = %+v, %v", got, err)
	}
}

func TestSetGetData(t *testing.T) {
	dir := t.TempDir()
	s, err := Open(filepath.Join(dir, "index.db"))
	if err != nil {
		t.Fatalf("Open() error: %v", err)
	}
	defer s.Close()

	if err := s.SetData(7, []byte(`{"filters":[]}`)); err != nil {
		t.Fatalf("SetData() error: %v", err)
	}
	data, ok, err := s.GetData(7)
	if err != nil || !ok || string(data) != `{"filters":[]}` {
		t.Fatalf("GetData(7) = %q, %v, %v", data, ok, err)
	}

	if _, ok, err := s.GetData(99); err != nil || ok {
		t.Errorf("GetData(99) should report missing, got ok=%v err=%v", ok, err)
	}
}

func TestReservedPrefixRejected(t *testing.T) {
	dir := t.TempDir()
	s, err := Open(filepath.Join(dir, "index.db"))
	if err != nil {
		t.Fatalf("Open() error: %v", err)
	}
	defer s.Close()

	if err := s.WritePosts(store.Rare, "_5", nil); err == nil {
		t.Error("expected error writing a term with reserved prefix")
	}
}

func TestIterPostingsSkipsMetadata(t *testing.T) {
	dir := t.TempDir()
	s, err := Open(filepath.Join(dir, "index.db"))
	if err != nil {
		t.Fatalf("Open() error: %v", err)
	}
	defer s.Close()

	s.WritePosts(store.Rare, "a", []store.Posting{{QID: 1, Mask: 0}})
	s.WritePosts(store.Remainder, "b", []store.Posting{{QID: 2, Mask: 1}})
	s.SetData(1, []byte("meta"))

	seen := map[string]bool{}
	err = s.IterPostings(func(prefix store.Prefix, term string, posts []store.Posting) error {
		seen[string(prefix)+term] = true
		return nil
	})
	if err != nil {
		t.Fatalf("IterPostings() error: %v", err)
	}
	if !seen["Ra"] || !seen["Tb"] || len(seen) != 2 {
		t.Errorf("IterPostings() saw %v, want exactly Ra and Tb", seen)
	}
}

func TestCloseAndReopen(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "index.db")

	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open() error: %v", err)
	}
	s.WritePosts(store.Rare, "apple", []store.Posting{{QID: 3, Mask: 0}})
	s.SetData(3, []byte("meta"))
	if err := s.Close(); err != nil {
		t.Fatalf("Close() error: %v", err)
	}

	reopened, err := OpenReadOnly(path)
	if err != nil {
		t.Fatalf("OpenReadOnly() error: %v", err)
	}
	defer reopened.Close()

	posts, err := reopened.ReadPosts(store.Rare, "apple")
	if err != nil || len(posts) != 1 || posts[0].QID != 3 {
		t.Errorf("ReadPosts() after reopen = %+v, %v", posts, err)
	}
	data, ok, err := reopened.GetData(3)
	if err != nil || !ok || string(data) != "meta" {
		t.Errorf("GetData() after reopen = %q, %v, %v", data, ok, err)
	}
}
