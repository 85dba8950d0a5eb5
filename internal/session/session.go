package session

import (
	"github.com/google/uuid"

	"policychat/internal/domain"
)

// Session holds the ordered turn history for one conversation.
// Append-only, in-memory, and never shared between conversations.
type Session struct {
	id    string
	turns []domain.Turn
}

func New() *Session {
	return &Session{id: uuid.NewString()}
}

// ID identifies this conversation in logs.
func (s *Session) ID() string { return s.id }

// Append records one turn.
func (s *Session) Append(role domain.Role, text string) {
	s.turns = append(s.turns, domain.Turn{Role: role, Text: text})
}

// History returns a copy of the full ordered turn sequence.
func (s *Session) History() []domain.Turn {
	out := make([]domain.Turn, len(s.turns))
	copy(out, s.turns)
	return out
}

// Window returns a copy of the last n turns.
func (s *Session) Window(n int) []domain.Turn {
	if n <= 0 || n >= len(s.turns) {
		return s.History()
	}
	out := make([]domain.Turn, n)
	copy(out, s.turns[len(s.turns)-n:])
	return out
}
