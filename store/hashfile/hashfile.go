// Package hashfile implements store.Store as a small set of on-disk hash
// buckets: a key (a prefixed term, or a "_"-prefixed query id) is hashed
// with BLAKE3 to choose one of a fixed number of bucket files, each an
// append-style log of length-prefixed (key, value) records. Buckets are
// written with an atomic temp-file-then-rename and xz-compressed on
// Close to shrink postings for terms that share long common prefixes.
package hashfile

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"

	"github.com/ulikunitz/xz"
	"github.com/zeebo/blake3"

	"github.com/brackenfield/psearch/internal/cache"
	"github.com/brackenfield/psearch/perr"
	"github.com/brackenfield/psearch/store"
)

// numBuckets is the fixed number of hash buckets. Keys are distributed
// across buckets by their BLAKE3 digest, not resharded as the store
// grows; a build with a very large term vocabulary simply gets longer
// per-bucket logs.
const numBuckets = 64

// osRename is a variable to allow testing of rename errors.
var osRename = os.Rename

// Store is an on-disk, hash-bucketed store.Store implementation.
type Store struct {
	root     string
	readonly bool
	buckets  [numBuckets]map[string][]byte
	cache    *cache.BucketCache
}

// Open opens (or creates) a hash-bucketed store rooted at dir. Open
// creates dir's bucket directory if it does not exist, in either mode; if
// readonly is true, every existing bucket file is also decompressed and
// replayed into memory immediately.
func Open(dir string, readonly bool) (*Store, error) {
	s := &Store{root: dir, readonly: readonly, cache: cache.NewDefaultBucketCache()}
	for i := range s.buckets {
		s.buckets[i] = make(map[string][]byte)
	}

	if err := os.MkdirAll(s.bucketDir(), 0755); err != nil {
		return nil, perr.NewStoreError("mkdir", s.bucketDir(), err)
	}

	if readonly {
		for i := 0; i < numBuckets; i++ {
			if err := s.loadBucket(i); err != nil {
				return nil, err
			}
		}
	}
	return s, nil
}

func (s *Store) bucketDir() string {
	return filepath.Join(s.root, "buckets")
}

func (s *Store) bucketPath(i int) string {
	return filepath.Join(s.bucketDir(), fmt.Sprintf("%02x.log.xz", i))
}

// bucketIndex hashes key with BLAKE3 and folds the digest down to a
// bucket number.
func bucketIndex(key string) int {
	sum := blake3.Sum256([]byte(key))
	var v uint32
	for i := 0; i < 4; i++ {
		v = v<<8 | uint32(sum[i])
	}
	return int(v % numBuckets)
}

// loadBucket decompresses bucket i and replays its records into memory.
// The decompressed blob is kept in the bucket cache and reused by a later
// load of the same bucket path; Reload drops that cached blob first, so
// it always decompresses the file on disk again.
func (s *Store) loadBucket(i int) error {
	path := s.bucketPath(i)

	data, ok := s.cache.Get(path)
	if !ok {
		raw, err := os.ReadFile(path)
		if err != nil {
			if os.IsNotExist(err) {
				return nil
			}
			return perr.NewStoreError("read", path, err)
		}

		xr, err := xz.NewReader(bytes.NewReader(raw))
		if err != nil {
			return perr.NewStoreError("decompress", path, err)
		}
		data, err = io.ReadAll(xr)
		if err != nil {
			return perr.NewStoreError("decompress", path, err)
		}
		s.cache.Put(path, data)
	}

	buf := bytes.NewReader(data)
	for buf.Len() > 0 {
		key, err := readFramed(buf)
		if err != nil {
			return perr.NewStoreError("decode", path, err)
		}
		val, err := readFramed(buf)
		if err != nil {
			return perr.NewStoreError("decode", path, err)
		}
		s.buckets[i][string(key)] = val
	}
	return nil
}

func readFramed(r *bytes.Reader) ([]byte, error) {
	var length uint32
	if err := binary.Read(r, binary.LittleEndian, &length); err != nil {
		return nil, err
	}
	buf := make([]byte, length)
	if _, err := io.ReadFull(r, buf); err != nil {
		return nil, err
	}
	return buf, nil
}

func writeFramed(w io.Writer, data []byte) error {
	if err := binary.Write(w, binary.LittleEndian, uint32(len(data))); err != nil {
		return err
	}
	_, err := w.Write(data)
	return err
}

func postKey(prefix store.Prefix, term string) string {
	return string(prefix) + term
}

func dataKey(qid int32) string {
	return "_" + strconv.FormatInt(int64(qid), 10)
}

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

// WritePosts replaces the posting list for (prefix, term).
func (s *Store) WritePosts(prefix store.Prefix, term string, posts []store.Posting) error {
	if err := store.ValidateTerm(term); err != nil {
		return err
	}
	key := postKey(prefix, term)
	s.buckets[bucketIndex(key)][key] = encodePosts(posts)
	return nil
}

// ReadPosts returns the posting list for (prefix, term).
func (s *Store) ReadPosts(prefix store.Prefix, term string) ([]store.Posting, error) {
	key := postKey(prefix, term)
	val, ok := s.buckets[bucketIndex(key)][key]
	if !ok {
		return nil, nil
	}
	return decodePosts(val), nil
}

// SetData stores the metadata blob for qid.
func (s *Store) SetData(qid int32, data []byte) error {
	key := dataKey(qid)
	cp := make([]byte, len(data))
	copy(cp, data)
	s.buckets[bucketIndex(key)][key] = cp
	return nil
}

// GetData retrieves the metadata blob for qid.
func (s *Store) GetData(qid int32) ([]byte, bool, error) {
	key := dataKey(qid)
	val, ok := s.buckets[bucketIndex(key)][key]
	return val, ok, nil
}

// IterPostings visits every posting row, skipping metadata keys.
func (s *Store) IterPostings(fn func(prefix store.Prefix, term string, posts []store.Posting) error) error {
	for _, bucket := range s.buckets {
		for key, val := range bucket {
			if key[0] == '_' {
				continue
			}
			prefix := store.Prefix(key[0])
			term := key[1:]
			if err := fn(prefix, term, decodePosts(val)); err != nil {
				return err
			}
		}
	}
	return nil
}

// Close compresses and atomically writes every non-empty bucket to disk.
// Read-only stores skip the write entirely, since they never mutate
// their buckets after Open.
func (s *Store) Close() error {
	if s.readonly {
		return nil
	}
	for i, bucket := range s.buckets {
		if len(bucket) == 0 {
			continue
		}
		if err := s.flushBucket(i, bucket); err != nil {
			return err
		}
	}
	return nil
}

// Reload re-reads bucket i from disk, picking up rows written by another
// process since Open. It is a no-op for a bucket with no file on disk
// yet. Only meaningful for readonly stores; a writer's in-memory bucket
// is always authoritative over what's on disk until Close.
func (s *Store) Reload(i int) error {
	if i < 0 || i >= numBuckets {
		return fmt.Errorf("hashfile: bucket index %d out of range", i)
	}
	s.cache.Remove(s.bucketPath(i))
	return s.loadBucket(i)
}

func (s *Store) flushBucket(i int, bucket map[string][]byte) error {
	var raw bytes.Buffer
	for key, val := range bucket {
		if err := writeFramed(&raw, []byte(key)); err != nil {
			return perr.NewStoreError("encode", s.bucketPath(i), err)
		}
		if err := writeFramed(&raw, val); err != nil {
			return perr.NewStoreError("encode", s.bucketPath(i), err)
		}
	}

	var compressed bytes.Buffer
	xw, err := xz.NewWriter(&compressed)
	if err != nil {
		return perr.NewStoreError("compress", s.bucketPath(i), err)
	}
	if _, err := xw.Write(raw.Bytes()); err != nil {
		return perr.NewStoreError("compress", s.bucketPath(i), err)
	}
	if err := xw.Close(); err != nil {
		return perr.NewStoreError("compress", s.bucketPath(i), err)
	}

	path := s.bucketPath(i)
	tmp, err := os.CreateTemp(s.bucketDir(), ".bucket-*")
	if err != nil {
		return perr.NewStoreError("create", path, err)
	}
	tmpPath := tmp.Name()

	if _, err := tmp.Write(compressed.Bytes()); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return perr.NewStoreError("write", path, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return perr.NewStoreError("close", path, err)
	}

	if err := osRename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return perr.NewStoreError("rename", path, err)
	}

	s.cache.Remove(path)
	return nil
}
