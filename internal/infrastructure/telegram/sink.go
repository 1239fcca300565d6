package telegram

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"golang.org/x/time/rate"
	tele "gopkg.in/telebot.v4"

	"EventRadar/internal/domain"
	"EventRadar/internal/ports"
)

// Sender is the part of *tele.Bot the sink needs.
type Sender interface {
	Send(to tele.Recipient, what interface{}, opts ...interface{}) (*tele.Message, error)
}

// Sink delivers intents to the chat named by the intent scope.
type Sink struct {
	sender   Sender
	renderer Renderer
	limiter  *rate.Limiter
}

var _ ports.Sink = (*Sink)(nil)

// NewSink wraps sender. perSecond <= 0 disables throttling.
func NewSink(sender Sender, renderer Renderer, perSecond float64) *Sink {
	limiter := rate.NewLimiter(rate.Inf, 1)
	if perSecond > 0 {
		limiter = rate.NewLimiter(rate.Limit(perSecond), 1)
	}
	return &Sink{sender: sender, renderer: renderer, limiter: limiter}
}

// Deliver sends the rendered intent as an HTML message.
func (s *Sink) Deliver(ctx context.Context, intent domain.Intent) error {
	if s == nil || s.sender == nil {
		return fmt.Errorf("telegram sink is not configured")
	}
	chat, err := ParseChatID(intent.Scope)
	if err != nil {
		return fmt.Errorf("%w: %v", ports.ErrScopeNotServed, err)
	}
	if err := s.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("wait for send slot: %w", err)
	}
	if _, err := s.sender.Send(chat, s.renderer.Intent(intent), &tele.SendOptions{
		ParseMode:             tele.ModeHTML,
		DisableWebPagePreview: true,
	}); err != nil {
		return fmt.Errorf("send to %s: %w", intent.Scope, err)
	}
	return nil
}

// ParseChatID converts a scope id into a Telegram chat.
func ParseChatID(scope string) (tele.ChatID, error) {
	id, err := strconv.ParseInt(strings.TrimSpace(scope), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("scope %q is not a chat id: %w", scope, err)
	}
	return tele.ChatID(id), nil
}
