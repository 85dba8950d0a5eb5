package session

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"policychat/internal/domain"
)

func TestSession_AppendAndHistory(t *testing.T) {
	s := New()
	assert.NotEmpty(t, s.ID())
	assert.Empty(t, s.History())

	s.Append(domain.RoleUser, "hello")
	s.Append(domain.RoleAssistant, "hi, how can I help?")

	history := s.History()
	assert.Len(t, history, 2)
	assert.Equal(t, domain.RoleUser, history[0].Role)
	assert.Equal(t, "hello", history[0].Text)
	assert.Equal(t, domain.RoleAssistant, history[1].Role)
}

func TestSession_HistoryIsACopy(t *testing.T) {
	s := New()
	s.Append(domain.RoleUser, "original")

	history := s.History()
	history[0].Text = "mutated"

	assert.Equal(t, "original", s.History()[0].Text)
}

func TestSession_Window(t *testing.T) {
	s := New()
	for _, text := range []string{"a", "b", "c", "d"} {
		s.Append(domain.RoleUser, text)
	}

	window := s.Window(2)
	assert.Len(t, window, 2)
	assert.Equal(t, "c", window[0].Text)
	assert.Equal(t, "d", window[1].Text)

	assert.Len(t, s.Window(0), 4)
	assert.Len(t, s.Window(10), 4)
}
