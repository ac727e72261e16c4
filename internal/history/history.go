// Package history keeps previously added task descriptions so the popup can
// recall and complete them.
package history

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/adrg/xdg"
	"github.com/lithammer/fuzzysearch/fuzzy"
)

// DefaultSize caps the number of stored entries when no size is configured.
const DefaultSize = 200

// Store is an ordered, de-duplicated list of entries, oldest first. A store
// with an empty path lives in memory only.
type Store struct {
	path    string
	size    int
	entries []string
}

// DefaultPath returns the history file location under the XDG state directory.
func DefaultPath() (string, error) {
	return xdg.StateFile(filepath.Join("tmux-task-popup", "history"))
}

// Load reads the history file at path. A missing file yields an empty store.
func Load(path string, size int) (*Store, error) {
	if size <= 0 {
		size = DefaultSize
	}
	s := &Store{path: path, size: size}
	if strings.TrimSpace(path) == "" {
		return s, nil
	}
	f, err := os.Open(path)
	if errors.Is(err, os.ErrNotExist) {
		return s, nil
	}
	if err != nil {
		return s, fmt.Errorf("open history: %w", err)
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		s.push(scanner.Text())
	}
	if err := scanner.Err(); err != nil {
		return s, fmt.Errorf("read history: %w", err)
	}
	s.trim()
	return s, nil
}

// Path returns the backing file, or "" for an in-memory store.
func (s *Store) Path() string { return s.path }

// Len returns the number of stored entries.
func (s *Store) Len() int { return len(s.entries) }

// Entries returns a copy of the entries, oldest first.
func (s *Store) Entries() []string {
	return append([]string(nil), s.entries...)
}

// Recent returns the entry n steps back from the newest (0 is the newest).
func (s *Store) Recent(n int) (string, bool) {
	if n < 0 || n >= len(s.entries) {
		return "", false
	}
	return s.entries[len(s.entries)-1-n], true
}

// Add records text as the newest entry and persists the store.
func (s *Store) Add(text string) error {
	if !s.push(text) {
		return nil
	}
	s.trim()
	return s.save()
}

// Suggest returns up to limit entries fuzzily matching query, best match
// first; ties go to the more recent entry. An empty query matches nothing.
func (s *Store) Suggest(query string, limit int) []string {
	query = strings.TrimSpace(query)
	if query == "" || limit <= 0 || len(s.entries) == 0 {
		return nil
	}
	ranks := fuzzy.RankFindNormalizedFold(query, s.entries)
	sort.SliceStable(ranks, func(i, j int) bool {
		if ranks[i].Distance != ranks[j].Distance {
			return ranks[i].Distance < ranks[j].Distance
		}
		return ranks[i].OriginalIndex > ranks[j].OriginalIndex
	})
	out := make([]string, 0, limit)
	for _, rank := range ranks {
		if rank.Target == query {
			continue
		}
		out = append(out, rank.Target)
		if len(out) == limit {
			break
		}
	}
	return out
}

// push moves text to the end of the list. It reports false for blank text.
func (s *Store) push(text string) bool {
	text = strings.TrimSpace(text)
	if text == "" {
		return false
	}
	for i, existing := range s.entries {
		if existing == text {
			s.entries = append(s.entries[:i], s.entries[i+1:]...)
			break
		}
	}
	s.entries = append(s.entries, text)
	return true
}

func (s *Store) trim() {
	if over := len(s.entries) - s.size; over > 0 {
		s.entries = append([]string(nil), s.entries[over:]...)
	}
}

// save rewrites the history file through a temporary file in the same
// directory so a crash never leaves it half written.
func (s *Store) save() error {
	if strings.TrimSpace(s.path) == "" {
		return nil
	}
	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create history directory: %w", err)
	}
	tmp, err := os.CreateTemp(dir, ".history-*")
	if err != nil {
		return fmt.Errorf("create history file: %w", err)
	}
	w := bufio.NewWriter(tmp)
	for _, entry := range s.entries {
		w.WriteString(entry)
		w.WriteByte('\n')
	}
	if err := w.Flush(); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("write history: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("write history: %w", err)
	}
	if err := os.Rename(tmp.Name(), s.path); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("replace history: %w", err)
	}
	return nil
}
