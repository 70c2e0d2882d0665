package perr

import (
	"errors"
	"fmt"
	"testing"
)

func TestMalformedQueryError(t *testing.T) {
	tests := []struct {
		name    string
		err     *MalformedQueryError
		wantMsg string
	}{
		{
			name:    "with qid",
			err:     &MalformedQueryError{QID: 7, Reason: "empty clause"},
			wantMsg: "malformed query 7: empty clause",
		},
		{
			name:    "zero qid",
			err:     &MalformedQueryError{Reason: "too many clauses"},
			wantMsg: "malformed query: too many clauses",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.wantMsg {
				t.Errorf("Error() = %q, want %q", got, tt.wantMsg)
			}
			if got := tt.err.Unwrap(); !errors.Is(got, ErrMalformedQuery) {
				t.Errorf("Unwrap() = %v, want %v", got, ErrMalformedQuery)
			}
		})
	}

	t.Run("with underlying error", func(t *testing.T) {
		underlying := fmt.Errorf("bad token")
		err := &MalformedQueryError{QID: 3, Reason: "parse failed", Err: underlying}
		if got := err.Unwrap(); got != underlying {
			t.Errorf("Unwrap() = %v, want %v", got, underlying)
		}
	})
}

func TestBufferCorruptionError(t *testing.T) {
	err := &BufferCorruptionError{Expected: 96, Observed: 88}
	want := "buffer corruption: wrote 96 bytes, file holds 88"
	if got := err.Error(); got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}
	if !errors.Is(err, ErrBufferCorruption) {
		t.Errorf("expected errors.Is to match ErrBufferCorruption")
	}
}

func TestStoreError(t *testing.T) {
	underlying := errors.New("disk full")
	err := NewStoreError("write", "T:banana", underlying)
	want := `store write "T:banana": disk full`
	if got := err.Error(); got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}
	if got := err.Unwrap(); got != underlying {
		t.Errorf("Unwrap() = %v, want %v", got, underlying)
	}

	bare := &StoreError{Op: "open", Err: underlying}
	if got := bare.Error(); got != "store open: disk full" {
		t.Errorf("Error() = %q, want %q", got, "store open: disk full")
	}
}

func TestWrap(t *testing.T) {
	if Wrap(nil, "context") != nil {
		t.Error("Wrap(nil, ...) should return nil")
	}
	wrapped := Wrap(ErrStoreIO, "writing postings")
	if !errors.Is(wrapped, ErrStoreIO) {
		t.Error("Wrap should preserve errors.Is chain")
	}
}
