// Package memory persists conversation history, one JSON record per session.
// Reads degrade to empty results; failed writes propagate, since silently
// dropping a message would lose history.
package memory

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/corpusqa/corpusqa/models"
)

// Store is a file-backed conversation log. Each append is a whole-record
// read-modify-write, so appends to the same session are serialized by a
// per-session lock; different sessions proceed in parallel.
type Store struct {
	dir string
	now func() time.Time

	mu sync.Mutex
	// locks holds one mutex per session id this process has touched. The map
	// only shrinks on restart; a mutex is a few words, so even millions of
	// sessions stay in the tens of megabytes.
	locks map[string]*sync.Mutex
}

func NewStore(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating conversation dir: %w", err)
	}
	return &Store{dir: dir, now: time.Now, locks: make(map[string]*sync.Mutex)}, nil
}

func (s *Store) sessionLock(id string) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.locks[id]
	if !ok {
		l = &sync.Mutex{}
		s.locks[id] = l
	}
	return l
}

func (s *Store) path(sessionID string) string {
	return filepath.Join(s.dir, sessionID+".json")
}

// Append adds one message to the session, creating the record lazily on the
// first write. The full record is rewritten through a temp file and rename
// so a crash never leaves a half-written session behind.
func (s *Store) Append(sessionID, identity string, role models.Role, content string) error {
	if sessionID == "" || strings.ContainsAny(sessionID, `/\`) {
		return fmt.Errorf("invalid session id %q", sessionID)
	}
	lock := s.sessionLock(sessionID)
	lock.Lock()
	defer lock.Unlock()

	now := s.now()
	sess, err := s.load(sessionID)
	if err != nil {
		// A record we can no longer decode must not be silently replaced.
		return fmt.Errorf("loading session %s: %w", sessionID, err)
	}
	if sess == nil {
		sess = &models.Session{
			ID:        sessionID,
			Identity:  identity,
			CreatedAt: now,
		}
	}

	sess.Messages = append(sess.Messages, models.Message{
		Role:      role,
		Content:   content,
		Timestamp: now,
	})
	sess.UpdatedAt = now

	data, err := json.MarshalIndent(sess, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding session %s: %w", sessionID, err)
	}
	tmp := s.path(sessionID) + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("writing session %s: %w", sessionID, err)
	}
	if err := os.Rename(tmp, s.path(sessionID)); err != nil {
		return fmt.Errorf("persisting session %s: %w", sessionID, err)
	}
	return nil
}

// Context renders the last n messages as "Role: content" lines in
// chronological order. Missing or unreadable sessions yield an empty
// context rather than an error.
func (s *Store) Context(sessionID string, n int) string {
	sess, err := s.load(sessionID)
	if err != nil || sess == nil {
		return ""
	}
	msgs := sess.Messages
	if n > 0 && len(msgs) > n {
		msgs = msgs[len(msgs)-n:]
	}
	lines := make([]string, 0, len(msgs))
	for _, m := range msgs {
		lines = append(lines, m.Role.Label()+": "+m.Content)
	}
	return strings.Join(lines, "\n")
}

// Sessions lists every stored session, ordered lexicographically by session
// id. The order is a property of the directory scan, not of recency.
func (s *Store) Sessions() []models.SessionSummary {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil
	}
	var out []models.SessionSummary
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasSuffix(name, ".json") {
			continue
		}
		id := strings.TrimSuffix(name, ".json")
		sess, err := s.load(id)
		if err != nil || sess == nil {
			continue
		}
		out = append(out, models.SessionSummary{
			ID:           sess.ID,
			Identity:     sess.Identity,
			MessageCount: len(sess.Messages),
			UpdatedAt:    sess.UpdatedAt,
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (s *Store) load(sessionID string) (*models.Session, error) {
	data, err := os.ReadFile(s.path(sessionID))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	var sess models.Session
	if err := json.Unmarshal(data, &sess); err != nil {
		return nil, fmt.Errorf("decoding session %s: %w", sessionID, err)
	}
	return &sess, nil
}
