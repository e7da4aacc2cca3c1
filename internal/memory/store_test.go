package memory

import (
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/corpusqa/corpusqa/models"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := NewStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	return s
}

func TestAppend_CreatesSessionLazily(t *testing.T) {
	s := newTestStore(t)
	if err := s.Append("s1", "alice", models.RoleUser, "hello"); err != nil {
		t.Fatalf("Append: %v", err)
	}
	sess, err := s.load("s1")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if sess == nil {
		t.Fatal("expected session record on disk")
	}
	if sess.Identity != "alice" {
		t.Fatalf("expected identity alice, got %q", sess.Identity)
	}
	if len(sess.Messages) != 1 {
		t.Fatalf("expected 1 message, got %d", len(sess.Messages))
	}
	if sess.CreatedAt.IsZero() || sess.UpdatedAt.IsZero() {
		t.Fatal("expected timestamps to be set")
	}
}

func TestAppend_RejectsUnsafeSessionID(t *testing.T) {
	s := newTestStore(t)
	if err := s.Append("../escape", "alice", models.RoleUser, "hi"); err == nil {
		t.Fatal("expected error for path-like session id")
	}
	if err := s.Append("", "alice", models.RoleUser, "hi"); err == nil {
		t.Fatal("expected error for empty session id")
	}
}

func TestContext_MissingSessionIsEmpty(t *testing.T) {
	s := newTestStore(t)
	if got := s.Context("nope", 6); got != "" {
		t.Fatalf("expected empty context, got %q", got)
	}
}

func TestContext_WindowKeepsMostRecent(t *testing.T) {
	s := newTestStore(t)
	turns := []struct {
		role    models.Role
		content string
	}{
		{models.RoleUser, "u1"},
		{models.RoleAssistant, "a1"},
		{models.RoleUser, "u2"},
		{models.RoleAssistant, "a2"},
		{models.RoleUser, "u3"},
	}
	for _, turn := range turns {
		if err := s.Append("s1", "alice", turn.role, turn.content); err != nil {
			t.Fatalf("Append: %v", err)
		}
	}

	if got, want := s.Context("s1", 2), "Assistant: a2\nUser: u3"; got != want {
		t.Fatalf("expected %q, got %q", want, got)
	}

	full := s.Context("s1", 10)
	want := "User: u1\nAssistant: a1\nUser: u2\nAssistant: a2\nUser: u3"
	if full != want {
		t.Fatalf("expected full context %q, got %q", want, full)
	}
}

func TestContext_CorruptRecordDegradesToEmpty(t *testing.T) {
	dir := t.TempDir()
	s, err := NewStore(dir)
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	if err := os.WriteFile(filepath.Join(dir, "bad.json"), []byte("{nope"), 0o644); err != nil {
		t.Fatalf("write corrupt record: %v", err)
	}
	if got := s.Context("bad", 6); got != "" {
		t.Fatalf("expected empty context for corrupt record, got %q", got)
	}
}

func TestAppend_CorruptRecordPropagates(t *testing.T) {
	dir := t.TempDir()
	s, err := NewStore(dir)
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	if err := os.WriteFile(filepath.Join(dir, "bad.json"), []byte("{nope"), 0o644); err != nil {
		t.Fatalf("write corrupt record: %v", err)
	}
	if err := s.Append("bad", "alice", models.RoleUser, "hi"); err == nil {
		t.Fatal("expected append to a corrupt record to fail")
	}
}

func TestSessions_ListsSummariesSorted(t *testing.T) {
	s := newTestStore(t)
	for _, id := range []string{"b", "a"} {
		if err := s.Append(id, "alice", models.RoleUser, "hi"); err != nil {
			t.Fatalf("Append: %v", err)
		}
		if err := s.Append(id, "alice", models.RoleAssistant, "hello"); err != nil {
			t.Fatalf("Append: %v", err)
		}
	}
	got := s.Sessions()
	if len(got) != 2 {
		t.Fatalf("expected 2 sessions, got %d", len(got))
	}
	if got[0].ID != "a" || got[1].ID != "b" {
		t.Fatalf("expected lexicographic order, got %v", got)
	}
	if got[0].MessageCount != 2 {
		t.Fatalf("expected 2 messages, got %d", got[0].MessageCount)
	}
}

func TestAppend_ConcurrentWritersSameSession(t *testing.T) {
	s := newTestStore(t)
	const writers = 8
	const perWriter = 5

	var wg sync.WaitGroup
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < perWriter; j++ {
				if err := s.Append("s1", "alice", models.RoleUser, "msg"); err != nil {
					t.Errorf("Append: %v", err)
					return
				}
			}
		}()
	}
	wg.Wait()

	sess, err := s.load("s1")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(sess.Messages) != writers*perWriter {
		t.Fatalf("expected %d messages, got %d (lost updates)", writers*perWriter, len(sess.Messages))
	}
}

func TestAppend_TimestampsAreChronological(t *testing.T) {
	s := newTestStore(t)
	base := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	step := 0
	s.now = func() time.Time {
		step++
		return base.Add(time.Duration(step) * time.Second)
	}
	for i := 0; i < 3; i++ {
		if err := s.Append("s1", "alice", models.RoleUser, "m"); err != nil {
			t.Fatalf("Append: %v", err)
		}
	}
	sess, _ := s.load("s1")
	for i := 1; i < len(sess.Messages); i++ {
		if !sess.Messages[i].Timestamp.After(sess.Messages[i-1].Timestamp) {
			t.Fatal("expected strictly increasing timestamps")
		}
	}
	if !strings.HasSuffix(s.path("s1"), "s1.json") {
		t.Fatalf("unexpected session path %s", s.path("s1"))
	}
}
