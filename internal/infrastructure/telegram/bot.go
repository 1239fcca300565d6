package telegram

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
	tele "gopkg.in/telebot.v4"
)

// Bot owns the telebot client: it is the Sender for the sink and, when
// commands are enabled, long-polls for chat commands.
type Bot struct {
	bot      *tele.Bot
	commands *Commands
	logger   zerolog.Logger

	mu      sync.Mutex
	running bool
	wg      sync.WaitGroup
}

// NewBot connects to the Bot API. commands may be nil to disable polling.
func NewBot(token string, pollTimeout time.Duration, commands *Commands, logger zerolog.Logger) (*Bot, error) {
	if strings.TrimSpace(token) == "" {
		return nil, errors.New("telegram token is empty")
	}
	if pollTimeout <= 0 {
		pollTimeout = 10 * time.Second
	}
	b, err := tele.NewBot(tele.Settings{
		Token:  token,
		Poller: &tele.LongPoller{Timeout: pollTimeout},
		OnError: func(err error, c tele.Context) {
			logger.Warn().Err(err).Msg("telegram handler error")
		},
	})
	if err != nil {
		return nil, err
	}
	return &Bot{bot: b, commands: commands, logger: logger}, nil
}

// Send implements Sender.
func (b *Bot) Send(to tele.Recipient, what interface{}, opts ...interface{}) (*tele.Message, error) {
	return b.bot.Send(to, what, opts...)
}

// Start begins long polling in the background until ctx ends or Stop.
func (b *Bot) Start(ctx context.Context) {
	if b.commands == nil {
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.running {
		return
	}
	b.running = true

	b.bot.Handle(tele.OnText, func(c tele.Context) error {
		chat := c.Chat()
		if chat == nil {
			return nil
		}
		scope := strconv.FormatInt(chat.ID, 10)
		reply, err := b.commands.Handle(ctx, scope, c.Text())
		if err != nil {
			b.logger.Error().Err(err).Str("scope", scope).Str("text", c.Text()).Msg("command failed")
			return c.Send("something went wrong, try again later")
		}
		if reply == "" {
			return nil
		}
		return c.Send(reply, &tele.SendOptions{DisableWebPagePreview: true})
	})

	b.wg.Add(1)
	go func() {
		defer b.wg.Done()
		b.logger.Info().Msg("polling started")
		b.bot.Start()
	}()
	go func() {
		<-ctx.Done()
		b.Stop()
	}()
}

// Stop ends polling and waits for the poll loop to exit.
func (b *Bot) Stop() {
	b.mu.Lock()
	running := b.running
	b.running = false
	b.mu.Unlock()
	if !running {
		return
	}
	b.bot.Stop()
	b.wg.Wait()
	b.logger.Info().Msg("polling stopped")
}
