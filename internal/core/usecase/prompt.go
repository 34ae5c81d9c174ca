package usecase

import (
	"fmt"
	"strings"

	"github.com/workhub/intranet-assistant/internal/core/domain"
)

const personaLine = "You are the company intranet assistant. You answer employee questions accurately and concisely."

const citationInstructions = `Instructions:
- For every claim, cite the document you used by number and name (for example: "Document 2, handbook.pdf").
- Answer only from the documents supplied above.
- If the documents do not contain the requested information, state that explicitly.
- Never invent facts that are not in the documents.`

const noDocumentsNotice = `No approved documents were found for this question. Answer from general knowledge, and state clearly that the answer is not grounded in company documents.`

// buildPrompt assembles the grounded prompt. Ordering is load-bearing: the
// attribution step matches "Document N" phrasing that this layout teaches
// the model to produce.
func buildPrompt(question string, history []domain.ChatTurn, candidates []domain.Candidate, historyTurns int) string {
	var b strings.Builder
	b.WriteString(personaLine)
	b.WriteString("\n\n")

	if len(candidates) > 0 {
		b.WriteString("Use the following approved company documents to answer.\n\n")
		for i, c := range candidates {
			b.WriteString(fmt.Sprintf("=== DOCUMENT %d: %s ===\n%s\n\n", i+1, c.Document.Name, c.Text))
		}
		b.WriteString(citationInstructions)
		b.WriteString("\n\n")
	} else {
		b.WriteString(noDocumentsNotice)
		b.WriteString("\n\n")
	}

	if turns := recentTurns(history, historyTurns); len(turns) > 0 {
		b.WriteString("Conversation so far:\n")
		for _, turn := range turns {
			b.WriteString(fmt.Sprintf("%s: %s\n", normalizeRole(turn.Role), turn.Content))
		}
		b.WriteString("\n")
	}

	b.WriteString("Question:\n")
	b.WriteString(question)
	b.WriteString("\n\nResponse:")
	return b.String()
}

func recentTurns(history []domain.ChatTurn, limit int) []domain.ChatTurn {
	if limit <= 0 || len(history) <= limit {
		return history
	}
	return history[len(history)-limit:]
}

func normalizeRole(role string) string {
	switch strings.ToLower(strings.TrimSpace(role)) {
	case "assistant":
		return "Assistant"
	default:
		return "User"
	}
}
