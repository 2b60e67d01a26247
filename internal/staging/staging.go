package staging

import (
	"bufio"
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/amishk599/jobpulse/internal/model"
)

const fileExt = ".jsonl"

// Store manages one append-only JSON-lines staging file per source.
// Existing content is never truncated or rewritten.
type Store struct {
	dir string
	mu  sync.Mutex
}

// NewStore returns a store rooted at dir. The directory is created on first append.
func NewStore(dir string) *Store {
	return &Store{dir: dir}
}

// Path returns the staging file for source.
func (s *Store) Path(source string) string {
	return filepath.Join(s.dir, source+fileExt)
}

// Append writes postings to the end of the source's staging file, one JSON
// object per line, and syncs the file before returning.
func (s *Store) Append(source string, postings []model.RawPosting) error {
	if len(postings) == 0 {
		return nil
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	for _, p := range postings {
		if err := enc.Encode(p); err != nil {
			return fmt.Errorf("encoding posting %s/%s: %w", source, p.ExternalID, err)
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return fmt.Errorf("creating staging dir: %w", err)
	}
	f, err := os.OpenFile(s.Path(source), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("opening staging file for %s: %w", source, err)
	}
	if _, err := f.Write(buf.Bytes()); err != nil {
		f.Close()
		return fmt.Errorf("appending to staging file for %s: %w", source, err)
	}
	if err := f.Sync(); err != nil {
		f.Close()
		return fmt.Errorf("syncing staging file for %s: %w", source, err)
	}
	return f.Close()
}

// Batch is the result of reading a staging file from an offset.
type Batch struct {
	Postings   []model.RawPosting
	Malformed  int   // lines that were not valid JSON postings
	NextOffset int64 // byte offset just past the last complete line read
}

// ReadFrom reads every complete line at or after offset. A trailing line
// without a newline is left for the next read. A missing file yields an
// empty batch.
func (s *Store) ReadFrom(source string, offset int64) (Batch, error) {
	batch := Batch{NextOffset: offset}

	f, err := os.Open(s.Path(source))
	if errors.Is(err, os.ErrNotExist) {
		return batch, nil
	}
	if err != nil {
		return batch, fmt.Errorf("opening staging file for %s: %w", source, err)
	}
	defer f.Close()

	if _, err := f.Seek(offset, io.SeekStart); err != nil {
		return batch, fmt.Errorf("seeking staging file for %s: %w", source, err)
	}

	r := bufio.NewReader(f)
	for {
		line, err := r.ReadBytes('\n')
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return batch, fmt.Errorf("reading staging file for %s: %w", source, err)
		}
		batch.NextOffset += int64(len(line))

		line = bytes.TrimSpace(line)
		if len(line) == 0 {
			continue
		}
		var p model.RawPosting
		if err := json.Unmarshal(line, &p); err != nil {
			batch.Malformed++
			continue
		}
		batch.Postings = append(batch.Postings, p)
	}
	return batch, nil
}

// Sources lists the sources that have a staging file, sorted by name.
func (s *Store) Sources() ([]string, error) {
	entries, err := os.ReadDir(s.dir)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("listing staging dir: %w", err)
	}
	var out []string
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), fileExt) {
			continue
		}
		out = append(out, strings.TrimSuffix(e.Name(), fileExt))
	}
	sort.Strings(out)
	return out, nil
}
