package rag

import (
	"strings"

	"github.com/corpusqa/corpusqa/models"
)

// buildPrompt assembles the grounding prompt: the model may only use the
// supplied context and must say so when the context lacks the answer. Prior
// turns are woven in when the conversation has any.
func buildPrompt(question, conversationContext string, used []models.ScoredChunk) string {
	texts := make([]string, len(used))
	for i, r := range used {
		texts[i] = r.Chunk.Text
	}

	var b strings.Builder
	b.WriteString("You are a helpful assistant. Answer the question using ONLY the provided context.\n")
	b.WriteString(`If the answer is not in the context, say "I don't have information about that."` + "\n")
	b.WriteString("Always be concise and accurate.\n\n")
	if conversationContext != "" {
		b.WriteString("Previous conversation:\n")
		b.WriteString(conversationContext)
		b.WriteString("\n\n")
	}
	b.WriteString("Context from documents:\n")
	b.WriteString(strings.Join(texts, "\n\n"))
	b.WriteString("\n\nQuestion: ")
	b.WriteString(question)
	b.WriteString("\n\nAnswer:")
	return b.String()
}
