// Package chatbot sequences the chat pipeline: access gate, conversation
// context, retrieval-augmented answering and persistence. It is the single
// point where collaborator failures become structured error results; nothing
// escapes Chat as a panic or error.
package chatbot

import (
	"context"
	"fmt"
	"log"

	"github.com/corpusqa/corpusqa/internal/gate"
	"github.com/corpusqa/corpusqa/internal/memory"
	"github.com/corpusqa/corpusqa/internal/rag"
	"github.com/corpusqa/corpusqa/internal/telemetry"
	"github.com/corpusqa/corpusqa/models"
)

type Chatbot struct {
	gate            *gate.Gate
	store           *memory.Store
	engine          *rag.Engine
	contextMessages int
	logger          *log.Logger
}

func New(g *gate.Gate, store *memory.Store, engine *rag.Engine, contextMessages int, logger *log.Logger) *Chatbot {
	if contextMessages <= 0 {
		contextMessages = 6
	}
	return &Chatbot{gate: g, store: store, engine: engine, contextMessages: contextMessages, logger: logger}
}

// Register issues a capability token for the identity.
func (b *Chatbot) Register(identity string) string {
	return b.gate.IssueToken(identity)
}

// Chat runs the full pipeline for one question. Terminal error states carry
// a code: 401 unknown token, 429 quota exceeded, 400 empty after
// sanitization, 500 collaborator failure.
func (b *Chatbot) Chat(ctx context.Context, question, sessionID, identity, token string) (result models.ChatResult) {
	defer func() {
		if r := recover(); r != nil {
			b.logger.Printf("panic in chat pipeline: %v", r)
			result = errorResult(500, "Internal error. Please try again.")
		}
		telemetry.ObserveChat(result)
	}()

	if _, ok := b.gate.VerifyToken(token); !ok {
		return errorResult(401, "Authentication failed. Please login again.")
	}

	// The counter moves even when this request is denied below; that is the
	// counting gate's contract.
	if !b.gate.CheckRateLimit(identity) {
		return errorResult(429, "Rate limit exceeded. Please try again next hour.")
	}

	cleanQuestion := b.gate.Sanitize(question)
	if cleanQuestion == "" {
		return errorResult(400, "Invalid input after sanitization.")
	}

	convContext := b.store.Context(sessionID, b.contextMessages)

	answer, err := b.engine.Answer(ctx, cleanQuestion, convContext)
	if err != nil {
		b.logger.Printf("answer failed for session %s: %v", sessionID, err)
		// Keep the question on record for audit even though no answer was
		// produced; no fabricated assistant message is stored.
		if perr := b.store.Append(sessionID, identity, models.RoleUser, cleanQuestion); perr != nil {
			b.logger.Printf("persisting question for session %s: %v", sessionID, perr)
		}
		return errorResult(500, "The answering service is unavailable. Please try again.")
	}

	if err := b.persistTurn(sessionID, identity, cleanQuestion, answer.Text); err != nil {
		b.logger.Printf("persisting turn for session %s: %v", sessionID, err)
		return errorResult(500, "Failed to record the conversation. Please try again.")
	}

	return models.ChatResult{
		Status:       models.StatusSuccess,
		Question:     cleanQuestion,
		Answer:       answer.Text,
		Sources:      answer.Sources,
		Confidence:   answer.Confidence,
		Grounded:     answer.Grounded,
		RequestsUsed: b.gate.RequestCount(identity),
	}
}

func (b *Chatbot) persistTurn(sessionID, identity, question, answerText string) error {
	if err := b.store.Append(sessionID, identity, models.RoleUser, question); err != nil {
		return fmt.Errorf("user message: %w", err)
	}
	if err := b.store.Append(sessionID, identity, models.RoleAssistant, answerText); err != nil {
		return fmt.Errorf("assistant message: %w", err)
	}
	return nil
}

// Context exposes the recent-context window for introspection.
func (b *Chatbot) Context(sessionID string, n int) string {
	return b.store.Context(sessionID, n)
}

// Sessions lists stored sessions.
func (b *Chatbot) Sessions() []models.SessionSummary {
	return b.store.Sessions()
}

func errorResult(code int, msg string) models.ChatResult {
	return models.ChatResult{Status: models.StatusError, Error: msg, Code: code}
}
