package models

import (
	"fmt"
	"time"
)

// Chunk is a unit of extracted document text with provenance metadata. It is
// the atomic retrieval item; chunks are immutable once produced by a loader.
type Chunk struct {
	Text string    `json:"text"`
	Meta ChunkMeta `json:"meta"`
}

// ChunkMeta carries where a chunk came from. Exactly one of Page, Sheet or
// Slide is set for paginated formats; plain-text formats carry none.
type ChunkMeta struct {
	Source string `json:"source"`
	Format string `json:"format"`
	Page   int    `json:"page,omitempty"`
	Sheet  string `json:"sheet,omitempty"`
	Slide  int    `json:"slide,omitempty"`
}

// Locator renders the position part of a citation ("page 3", "sheet Revenue",
// "slide 2"). Empty when the format has no inner position.
func (m ChunkMeta) Locator() string {
	switch {
	case m.Page > 0:
		return fmt.Sprintf("page %d", m.Page)
	case m.Sheet != "":
		return "sheet " + m.Sheet
	case m.Slide > 0:
		return fmt.Sprintf("slide %d", m.Slide)
	}
	return ""
}

// CitationKey is the identity used for source deduplication: two chunks from
// the same source and locator collapse to a single citation.
func (m ChunkMeta) CitationKey() string {
	return m.Source + "|" + m.Locator()
}

// ScoredChunk pairs a chunk with the vector store's relevance score in [0,1].
type ScoredChunk struct {
	Chunk Chunk   `json:"chunk"`
	Score float64 `json:"score"`
}

// SourceRef is a single deduplicated citation attached to an answer.
type SourceRef struct {
	Source  string  `json:"source"`
	Locator string  `json:"locator,omitempty"`
	Score   float64 `json:"score"`
	Excerpt string  `json:"excerpt,omitempty"`
}

// Answer is the result of one retrieval-augmented generation pass.
// Grounded is false iff no chunk met the relevance threshold; in that case
// Sources is empty and Confidence is exactly 0.
type Answer struct {
	Text       string      `json:"text"`
	Sources    []SourceRef `json:"sources"`
	Confidence float64     `json:"confidence"`
	Grounded   bool        `json:"grounded"`
}

type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Label returns the display form used when rendering conversation context.
func (r Role) Label() string {
	switch r {
	case RoleUser:
		return "User"
	case RoleAssistant:
		return "Assistant"
	}
	return "Unknown"
}

// Message is one turn of a conversation. Immutable once appended.
type Message struct {
	Role      Role      `json:"role"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
}

// Session is a conversation thread identified by a caller-supplied id.
type Session struct {
	ID        string    `json:"session_id"`
	Identity  string    `json:"identity"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
	Messages  []Message `json:"messages"`
}

// SessionSummary is the read-only listing view of a stored session.
type SessionSummary struct {
	ID           string    `json:"session_id"`
	Identity     string    `json:"identity"`
	MessageCount int       `json:"message_count"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// ChatResult is the orchestrator's response envelope. Status is "success" or
// "error"; on error Code is one of 400, 401, 429 or 500 and Error holds a
// user-visible message.
type ChatResult struct {
	Status       string      `json:"status"`
	Question     string      `json:"question,omitempty"`
	Answer       string      `json:"answer,omitempty"`
	Sources      []SourceRef `json:"sources,omitempty"`
	Confidence   float64     `json:"confidence"`
	Grounded     bool        `json:"grounded"`
	RequestsUsed int         `json:"requests_used,omitempty"`
	Error        string      `json:"error,omitempty"`
	Code         int         `json:"code,omitempty"`
}

const (
	StatusSuccess = "success"
	StatusError   = "error"
)
