package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// ErrUnverifiable means the verifier replied but its verdict could not be
// read as a boolean.
var ErrUnverifiable = errors.New("answer could not be verified")

// PuzzleContext describes the puzzle an answer is checked against.
type PuzzleContext struct {
	Question   string
	Category   string
	Difficulty string
}

// AnswerVerifier decides whether a free-text response matches the reference
// answer. Implementations must honor ctx cancellation.
type AnswerVerifier interface {
	Verify(ctx context.Context, pc PuzzleContext, response, answer string) (bool, error)
}

const verifierInstructions = `You are grading an answer to a puzzle. Decide whether the player's response means the same as the reference answer. Ignore spelling mistakes, capitalization, articles and extra words that do not change the meaning. Reply with exactly one word: true or false.`

func buildVerifierPrompt(pc PuzzleContext, response, answer string) string {
	var b strings.Builder
	b.WriteString(verifierInstructions)
	b.WriteString("\n\n")
	fmt.Fprintf(&b, "Puzzle: %s\n", pc.Question)
	if pc.Category != "" {
		fmt.Fprintf(&b, "Category: %s\n", pc.Category)
	}
	if pc.Difficulty != "" {
		fmt.Fprintf(&b, "Difficulty: %s\n", pc.Difficulty)
	}
	fmt.Fprintf(&b, "Reference answer: %s\n", answer)
	fmt.Fprintf(&b, "Player response: %s\n", response)
	return b.String()
}

// parseVerdict reads a model reply. Exactly one of "true" or "false" must
// appear, case-insensitively.
func parseVerdict(reply string) (bool, error) {
	text := strings.ToLower(cleanModelOutput(reply))
	hasTrue := strings.Contains(text, "true")
	hasFalse := strings.Contains(text, "false")
	switch {
	case hasTrue && !hasFalse:
		return true, nil
	case hasFalse && !hasTrue:
		return false, nil
	}
	return false, fmt.Errorf("%w: reply %q", ErrUnverifiable, reply)
}
