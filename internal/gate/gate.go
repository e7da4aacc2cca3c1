// Package gate is the access control layer in front of the chat pipeline:
// capability tokens, a sliding-hour request quota and input sanitization.
package gate

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"html"
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/microcosm-cc/bluemonday"

	"github.com/corpusqa/corpusqa/config"
)

var (
	sqlKeywordRe = regexp.MustCompile(`(?i)\b(DROP|DELETE|INSERT|UPDATE|ALTER|EXEC|UNION|SELECT)\b`)
	markupCharRe = regexp.MustCompile("[<>'\"`;]")
)

type tokenRecord struct {
	identity string
	issuedAt time.Time
}

// Gate owns the token table and the rate window. All operations are total:
// invalidity is reported through return values, never through errors.
type Gate struct {
	cfg    config.SecurityConfig
	window RateWindow
	policy *bluemonday.Policy
	now    func() time.Time

	mu     sync.RWMutex
	tokens map[string]tokenRecord
}

// Option configures a Gate at construction.
type Option func(*Gate)

// WithClock overrides the time source, used by tests to cross hour buckets.
func WithClock(now func() time.Time) Option {
	return func(g *Gate) { g.now = now }
}

// WithRateWindow swaps the rate-window backend (default in-process counters).
func WithRateWindow(w RateWindow) Option {
	return func(g *Gate) { g.window = w }
}

func New(cfg config.SecurityConfig, opts ...Option) *Gate {
	g := &Gate{
		cfg:    cfg,
		policy: bluemonday.StrictPolicy(),
		now:    time.Now,
		tokens: make(map[string]tokenRecord),
	}
	for _, opt := range opts {
		opt(g)
	}
	if g.window == nil {
		g.window = NewMemoryWindow()
	}
	return g
}

// IssueToken creates an opaque capability token for the identity and records
// the issuing mapping. Tokens do not expire and cannot be revoked here.
func (g *Gate) IssueToken(identity string) string {
	now := g.now()
	sum := sha256.Sum256([]byte(identity + ":" + now.UTC().Format(time.RFC3339Nano)))
	token := hex.EncodeToString(sum[:])

	g.mu.Lock()
	g.tokens[token] = tokenRecord{identity: identity, issuedAt: now}
	g.mu.Unlock()
	return token
}

// VerifyToken resolves a token back to its identity. The second return is
// false for any token this gate did not issue.
func (g *Gate) VerifyToken(token string) (string, bool) {
	g.mu.RLock()
	rec, ok := g.tokens[token]
	g.mu.RUnlock()
	if !ok {
		return "", false
	}
	return rec.identity, true
}

// CheckRateLimit bumps the identity's current-hour counter and reports
// whether the post-increment count is still within the ceiling. The counter
// moves even when the request is ultimately denied; that is the counting
// gate's contract, not an accident.
func (g *Gate) CheckRateLimit(identity string) bool {
	count, err := g.window.Incr(identity, g.now())
	if err != nil {
		// Shared-window backend unreachable: deny rather than hand out
		// unmetered requests.
		return false
	}
	return count <= int64(g.cfg.MaxRequestsPerHour)
}

// RequestCount reports how many requests the identity has made in the
// current hour bucket, without incrementing.
func (g *Gate) RequestCount(identity string) int {
	count, err := g.window.Count(identity, g.now())
	if err != nil {
		return 0
	}
	return int(count)
}

// Sanitize cleans raw user input: HTML is stripped, SQL keywords and markup
// characters are removed, whitespace trimmed and the result truncated to the
// configured maximum length. An empty return means the input was rejected.
func (g *Gate) Sanitize(text string) string {
	if strings.TrimSpace(text) == "" {
		return ""
	}
	cleaned := html.UnescapeString(g.policy.Sanitize(text))
	cleaned = sqlKeywordRe.ReplaceAllString(cleaned, "")
	cleaned = markupCharRe.ReplaceAllString(cleaned, "")
	cleaned = strings.TrimSpace(cleaned)
	if runes := []rune(cleaned); len(runes) > g.cfg.MaxQuestionLength {
		cleaned = strings.TrimSpace(string(runes[:g.cfg.MaxQuestionLength]))
	}
	return cleaned
}

// hourBucket keys rate counters at calendar-hour granularity.
func hourBucket(identity string, t time.Time) string {
	return fmt.Sprintf("%s:%s", identity, t.UTC().Format("2006-01-02-15"))
}
