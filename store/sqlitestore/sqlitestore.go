// Package sqlitestore implements store.Store on top of a SQLite database,
// going through the engine's core/sqlite driver-selection package rather
// than sql.Open directly, so callers never need to know the registered
// driver name or whether it resolves to the pure-Go or CGO build.
package sqlitestore

import (
	"database/sql"
	"encoding/binary"
	"fmt"

	"github.com/brackenfield/psearch/core/sqlite"
	"github.com/brackenfield/psearch/perr"
	"github.com/brackenfield/psearch/store"
)

func encodePosts(posts []store.Posting) []byte {
	buf := make([]byte, len(posts)*8)
	for i, p := range posts {
		binary.LittleEndian.PutUint32(buf[i*8:i*8+4], uint32(p.QID))
		binary.LittleEndian.PutUint32(buf[i*8+4:i*8+8], uint32(p.Mask))
	}
	return buf
}

func decodePosts(data []byte) []store.Posting {
	if len(data) == 0 {
		return nil
	}
	posts := make([]store.Posting, len(data)/8)
	for i := range posts {
		off := i * 8
		posts[i] = store.Posting{
			QID:  int32(binary.LittleEndian.Uint32(data[off : off+4])),
			Mask: int32(binary.LittleEndian.Uint32(data[off+4 : off+8])),
		}
	}
	return posts
}

const schema = `
CREATE TABLE IF NOT EXISTS postings (
	prefix TEXT NOT NULL,
	term   TEXT NOT NULL,
	data   BLOB NOT NULL,
	PRIMARY KEY (prefix, term)
);
CREATE TABLE IF NOT EXISTS meta (
	qid  INTEGER PRIMARY KEY,
	data BLOB NOT NULL
);
`

// Store is a store.Store implementation backed by a SQLite database.
type Store struct {
	db *sql.DB
}

// Open opens (creating if needed) a SQLite-backed store at path.
func Open(path string) (*Store, error) {
	db, err := sqlite.Open(path)
	if err != nil {
		return nil, perr.NewStoreError("open", path, err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, perr.NewStoreError("migrate", path, err)
	}
	return &Store{db: db}, nil
}

// OpenReadOnly opens path in read-only mode via core/sqlite's "?mode=ro"
// connection helper.
func OpenReadOnly(path string) (*Store, error) {
	db, err := sqlite.OpenReadOnly(path)
	if err != nil {
		return nil, perr.NewStoreError("open", path, err)
	}
	return &Store{db: db}, nil
}

// WritePosts replaces the posting list for (prefix, term).
func (s *Store) WritePosts(prefix store.Prefix, term string, posts []store.Posting) error {
	if err := store.ValidateTerm(term); err != nil {
		return err
	}
	data := encodePosts(posts)
	_, err := s.db.Exec(
		`INSERT INTO postings (prefix, term, data) VALUES (?, ?, ?)
		 ON CONFLICT(prefix, term) DO UPDATE SET data = excluded.data`,
		string(prefix), term, data,
	)
	if err != nil {
		return perr.NewStoreError("write", string(prefix)+term, err)
	}
	return nil
}

// ReadPosts returns the posting list for (prefix, term).
func (s *Store) ReadPosts(prefix store.Prefix, term string) ([]store.Posting, error) {
	var data []byte
	err := s.db.QueryRow(
		`SELECT data FROM postings WHERE prefix = ? AND term = ?`,
		string(prefix), term,
	).Scan(&data)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, perr.NewStoreError("read", string(prefix)+term, err)
	}
	return decodePosts(data), nil
}

// SetData stores the metadata blob for qid.
func (s *Store) SetData(qid int32, data []byte) error {
	if data == nil {
		data = []byte{}
	}
	_, err := s.db.Exec(
		`INSERT INTO meta (qid, data) VALUES (?, ?)
		 ON CONFLICT(qid) DO UPDATE SET data = excluded.data`,
		qid, data,
	)
	if err != nil {
		return perr.NewStoreError("write", fmt.Sprintf("_%d", qid), err)
	}
	return nil
}

// GetData retrieves the metadata blob for qid.
func (s *Store) GetData(qid int32) ([]byte, bool, error) {
	var data []byte
	err := s.db.QueryRow(`SELECT data FROM meta WHERE qid = ?`, qid).Scan(&data)
	if err == sql.ErrNoRows {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, perr.NewStoreError("read", fmt.Sprintf("_%d", qid), err)
	}
	return data, true, nil
}

// IterPostings visits every posting row.
func (s *Store) IterPostings(fn func(prefix store.Prefix, term string, posts []store.Posting) error) error {
	rows, err := s.db.Query(`SELECT prefix, term, data FROM postings`)
	if err != nil {
		return perr.NewStoreError("scan", "postings", err)
	}
	defer rows.Close()

	for rows.Next() {
		var prefix, term string
		var data []byte
		if err := rows.Scan(&prefix, &term, &data); err != nil {
			return perr.NewStoreError("scan", "postings", err)
		}
		if err := fn(store.Prefix(prefix[0]), term, decodePosts(data)); err != nil {
			return err
		}
	}
	return rows.Err()
}

// Close releases the underlying database handle.
func (s *Store) Close() error {
	if err := s.db.Close(); err != nil {
		return perr.NewStoreError("close", "", err)
	}
	return nil
}
