package service

import (
	"context"
	"strings"

	"github.com/garyjia/ai-tax-agent/internal/application/port"
	"github.com/garyjia/ai-tax-agent/internal/domain/entity"
)

// Fixed replies substituted for upstream failures
const (
	FallbackUnavailable = "Our tax service is currently unavailable. Please try again later."
	FallbackAskAgain    = "Please ask your tax question again."
)

// HistoryPolicy bounds the conversation forwarded upstream
type HistoryPolicy struct {
	MaxMessages int
	MaxChars    int
}

// DefaultHistoryPolicy keeps the last 3 messages of at most 200 characters each
func DefaultHistoryPolicy() HistoryPolicy {
	return HistoryPolicy{MaxMessages: 3, MaxChars: 200}
}

// AdvisorService answers tax questions. It never fails: upstream problems
// are replaced by a fixed fallback reply.
type AdvisorService interface {
	Ask(ctx context.Context, message string, history []entity.ChatMessage) string
}

type advisorServiceImpl struct {
	completer port.ChatCompleter
	policy    HistoryPolicy
	logger    Logger
}

// NewAdvisorService creates a new AdvisorService; a nil completer always answers with the unavailable fallback
func NewAdvisorService(completer port.ChatCompleter, policy HistoryPolicy, logger Logger) AdvisorService {
	if policy.MaxMessages <= 0 || policy.MaxChars <= 0 {
		policy = DefaultHistoryPolicy()
	}
	return &advisorServiceImpl{completer: completer, policy: policy, logger: orNop(logger)}
}

func (s *advisorServiceImpl) Ask(ctx context.Context, message string, history []entity.ChatMessage) string {
	message = strings.TrimSpace(message)
	if message == "" {
		return FallbackAskAgain
	}
	if s.completer == nil {
		return FallbackUnavailable
	}

	messages := append(BoundHistory(history, s.policy), entity.ChatMessage{Role: entity.ChatRoleUser, Content: message})
	reply, err := s.completer.Complete(ctx, messages)
	if err != nil {
		s.logger.Error("Advisor upstream failed", "error", err)
		return FallbackUnavailable
	}
	if strings.TrimSpace(reply) == "" {
		return FallbackAskAgain
	}
	return reply
}

// BoundHistory keeps the last MaxMessages user/assistant messages, truncating
// each to MaxChars characters followed by "..."
func BoundHistory(history []entity.ChatMessage, policy HistoryPolicy) []entity.ChatMessage {
	kept := make([]entity.ChatMessage, 0, policy.MaxMessages)
	for _, m := range history {
		if m.Role != entity.ChatRoleUser && m.Role != entity.ChatRoleAssistant {
			continue
		}
		kept = append(kept, m)
	}
	if len(kept) > policy.MaxMessages {
		kept = kept[len(kept)-policy.MaxMessages:]
	}

	out := make([]entity.ChatMessage, len(kept))
	for i, m := range kept {
		if r := []rune(m.Content); len(r) > policy.MaxChars {
			m.Content = string(r[:policy.MaxChars]) + "..."
		}
		out[i] = m
	}
	return out
}
