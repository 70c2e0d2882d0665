// Package buffer implements the append-only spill buffer used while
// indexing a query corpus: as clauses are walked, (qid, tid, pos) triples
// are appended to a temp file rather than kept resident, then the whole
// file is memory-mapped once indexing finishes and decoded in one pass
// for the partition step, with no separate read call over the file.
package buffer

import (
	"encoding/binary"
	"os"

	"github.com/edsrzf/mmap-go"

	"github.com/brackenfield/psearch/perr"
)

// tripleSize is the encoded byte width of one (qid, tid, pos) row: three
// little-endian int32 fields, mirroring the packed posting row format.
const tripleSize = 12

// Triple is one (query id, term id, clause position) spill record.
type Triple struct {
	QID int32
	TID int32
	Pos int32
}

// Buffer accumulates Triples to a temp file and, once Finalize is called,
// exposes them as an in-memory slice read back through a memory map.
type Buffer struct {
	file   *os.File
	wcount int64
	closed bool
}

// New creates a Buffer backed by a fresh temp file.
func New() (*Buffer, error) {
	f, err := os.CreateTemp("", "psearch-buffer-*.spill")
	if err != nil {
		return nil, perr.NewStoreError("create", "", err)
	}
	return &Buffer{file: f}, nil
}

// Add appends one triple to the buffer.
func (b *Buffer) Add(qid, tid, pos int32) error {
	var row [tripleSize]byte
	binary.LittleEndian.PutUint32(row[0:4], uint32(qid))
	binary.LittleEndian.PutUint32(row[4:8], uint32(tid))
	binary.LittleEndian.PutUint32(row[8:12], uint32(pos))
	n, err := b.file.Write(row[:])
	if err != nil {
		return perr.NewStoreError("write", b.file.Name(), err)
	}
	b.wcount += int64(n)
	return nil
}

// Finalize memory-maps the spill file, checks that the observed file size
// agrees with the number of bytes written, and decodes it into a slice of
// Triples. The backing file is removed once decoding completes; the
// returned slice is the buffer's only remaining representation of the
// data.
func (b *Buffer) Finalize() ([]Triple, error) {
	defer b.cleanup()

	if b.wcount == 0 {
		return nil, nil
	}

	info, err := b.file.Stat()
	if err != nil {
		return nil, perr.NewStoreError("stat", b.file.Name(), err)
	}
	if info.Size() != b.wcount {
		return nil, &perr.BufferCorruptionError{Expected: b.wcount, Observed: info.Size()}
	}

	region, err := mmap.Map(b.file, mmap.RDONLY, 0)
	if err != nil {
		return nil, perr.NewStoreError("mmap", b.file.Name(), err)
	}
	defer region.Unmap()

	count := len(region) / tripleSize
	triples := make([]Triple, count)
	for i := 0; i < count; i++ {
		off := i * tripleSize
		triples[i] = Triple{
			QID: int32(binary.LittleEndian.Uint32(region[off : off+4])),
			TID: int32(binary.LittleEndian.Uint32(region[off+4 : off+8])),
			Pos: int32(binary.LittleEndian.Uint32(region[off+8 : off+12])),
		}
	}
	return triples, nil
}

// Close discards the buffer and removes its backing file without
// decoding. Safe to call after Finalize or on an error path; idempotent.
func (b *Buffer) Close() error {
	return b.cleanup()
}

func (b *Buffer) cleanup() error {
	if b.closed {
		return nil
	}
	b.closed = true
	name := b.file.Name()
	if err := b.file.Close(); err != nil {
		os.Remove(name)
		return perr.NewStoreError("close", name, err)
	}
	return os.Remove(name)
}
