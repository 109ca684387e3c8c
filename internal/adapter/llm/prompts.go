package llm

import (
	"strings"

	"github.com/xiaot623/worldrag/internal/domain"
)

const condenseTemplate = `Given the following conversation and a follow up question, rephrase the follow up question to be a standalone question, in its original language.

Chat History:
{chat_history}
Follow Up Input: {question}
Standalone question:`

const answerSystemTemplate = `Use the following pieces of context to answer the user's question.
If you don't know the answer, just say that you don't know, don't try to make up an answer.
----------------
{context}`

// condensePrompt renders the standalone-question prompt.
func condensePrompt(question string, history domain.ChatHistory) string {
	var b strings.Builder
	for _, turn := range history {
		b.WriteString("\nHuman: ")
		b.WriteString(turn.Query)
		b.WriteString("\nAssistant: ")
		b.WriteString(turn.Answer)
	}
	return strings.NewReplacer(
		"{chat_history}", b.String(),
		"{question}", question,
	).Replace(condenseTemplate)
}

// answerSystemPrompt stuffs every chunk into the system prompt.
func answerSystemPrompt(chunks []domain.Chunk) string {
	parts := make([]string, 0, len(chunks))
	for _, c := range chunks {
		parts = append(parts, c.Content)
	}
	return strings.Replace(answerSystemTemplate, "{context}", strings.Join(parts, "\n\n"), 1)
}
