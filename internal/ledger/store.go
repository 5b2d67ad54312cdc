package ledger

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// maxLineBytes bounds a single ledger line during scans. Generated text
// is truncated well below this; the headroom is for externally written
// lines, which are skipped when oversized rather than crashing the reader.
const maxLineBytes = 1 << 20

// Store is an append-only JSONL record log.
//
// There is exactly one writer (the cycle scheduler) and readers never
// overlap with it, so the store takes no locks. The file is created on
// first append, not on Open.
type Store struct {
	path string
}

// Open returns a store for the ledger file at path. The file need not
// exist: a missing file reads as an empty ledger.
func Open(path string) *Store {
	return &Store{path: path}
}

// Path returns the ledger file location.
func (s *Store) Path() string {
	return s.path
}

// Append writes one record as a single JSON line, creating the
// containing directory if absent. Errors are unrecoverable I/O failures
// and are propagated to the caller; there is no retry. A failed append
// leaves the previously written records untouched.
func (s *Store) Append(rec Record) error {
	if dir := filepath.Dir(s.path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create ledger dir: %w", err)
		}
	}

	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("marshal record: %w", err)
	}

	f, err := os.OpenFile(s.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open ledger: %w", err)
	}
	defer f.Close()

	if _, err := f.Write(append(data, '\n')); err != nil {
		return fmt.Errorf("append record: %w", err)
	}
	return nil
}

// Scan replays the ledger in storage order, calling fn for each record
// that parses. Lines that fail to parse are silently skipped. Scan stops
// early when fn returns false. Scan is restartable: each call reopens
// the file and replays from the start.
func (s *Store) Scan(fn func(rec Record) bool) error {
	f, err := os.Open(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("open ledger: %w", err)
	}
	defer f.Close()

	r := bufio.NewReaderSize(f, 64*1024)
	for {
		line, readErr := readLine(r)
		if readErr != nil && readErr != io.EOF {
			return fmt.Errorf("read ledger: %w", readErr)
		}
		if len(line) > 0 {
			var rec Record
			// rec.TxSig == "" parses as JSON but is not a record.
			if err := json.Unmarshal(line, &rec); err == nil && rec.TxSig != "" {
				if !fn(rec) {
					return nil
				}
			}
		}
		if readErr == io.EOF {
			return nil
		}
	}
}

// readLine reads up to and including the next newline. A line longer
// than maxLineBytes is consumed to its newline and returned as nil, so
// the caller skips it the same way as any other unparseable line.
func readLine(r *bufio.Reader) ([]byte, error) {
	var line []byte
	overflow := false
	for {
		chunk, err := r.ReadSlice('\n')
		if !overflow {
			if len(line)+len(chunk) > maxLineBytes {
				overflow = true
				line = nil
			} else {
				line = append(line, chunk...)
			}
		}
		switch err {
		case bufio.ErrBufferFull:
			continue
		case nil, io.EOF:
			return bytes.TrimSuffix(line, []byte{'\n'}), err
		default:
			return nil, err
		}
	}
}

// Records returns every parseable record in storage order.
// Returns an empty slice, not nil, for a missing or empty ledger.
func (s *Store) Records() ([]Record, error) {
	records := []Record{}
	err := s.Scan(func(rec Record) bool {
		records = append(records, rec)
		return true
	})
	if err != nil {
		return nil, err
	}
	return records, nil
}

// Count returns the number of parseable records currently stored. It is
// the ordinal source for signature construction; the O(n) scan is
// acceptable at this ledger's scale.
func (s *Store) Count() (int, error) {
	n := 0
	err := s.Scan(func(Record) bool {
		n++
		return true
	})
	if err != nil {
		return 0, err
	}
	return n, nil
}

// Posts returns every post record whose signature is not excluded, in
// storage order. It backs the reply-candidate draw: exclude is typically
// the reply-target recency window's membership test.
func (s *Store) Posts(exclude func(sig string) bool) ([]Record, error) {
	posts := []Record{}
	err := s.Scan(func(rec Record) bool {
		if rec.Type != TypePost {
			return true
		}
		if exclude != nil && exclude(rec.TxSig) {
			return true
		}
		posts = append(posts, rec)
		return true
	})
	if err != nil {
		return nil, err
	}
	return posts, nil
}
