package telegram

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"EventRadar/internal/domain"
	"EventRadar/internal/ports"
)

// MaxListLines caps the /next reply.
const MaxListLines = 8

// Lister is the read-only query surface behind /next.
type Lister interface {
	ForScope(ctx context.Context, scope string, hours int) ([]domain.Occurrence, error)
}

// Commands implements the chat command surface independent of the transport.
type Commands struct {
	lister   Lister
	registry ports.Registry
	renderer Renderer
}

// NewCommands builds the command handler.
func NewCommands(lister Lister, registry ports.Registry, renderer Renderer) *Commands {
	return &Commands{lister: lister, registry: registry, renderer: renderer}
}

// An empty subscription list is no filter at all.
const noFilterReply = "no filter: receiving all categories (use /sub <category> to narrow)"

const helpText = `/next [hours] - upcoming events (default 48h)
/sub <category|all> - subscribe
/unsub <category|all> - unsubscribe; with nothing left you receive every category
/subs - show subscriptions
/alerts [leads...] - reminder leads, e.g. /alerts 30m 2h (default 1h 24h)
/lang <mixed|ko|en> - summary language
categories: fed ecb boe news cpi nfp fomc`

// Handle answers one message with plain text. Text that is not a command
// yields "".
func (c *Commands) Handle(ctx context.Context, scope, text string) (string, error) {
	fields := strings.Fields(text)
	if len(fields) == 0 || !strings.HasPrefix(fields[0], "/") {
		return "", nil
	}
	cmd, _, _ := strings.Cut(strings.ToLower(fields[0]), "@")
	args := fields[1:]

	switch cmd {
	case "/start", "/help":
		return helpText, nil
	case "/next":
		return c.next(ctx, scope, args)
	case "/sub":
		return c.subscribe(ctx, scope, args, true)
	case "/unsub":
		return c.subscribe(ctx, scope, args, false)
	case "/subs":
		return c.subs(ctx, scope)
	case "/alerts":
		return c.alerts(ctx, scope, args)
	case "/lang":
		return c.lang(ctx, scope, args)
	default:
		return "unknown command, try /help", nil
	}
}

func (c *Commands) next(ctx context.Context, scope string, args []string) (string, error) {
	hours := 0
	if len(args) > 0 {
		h, err := strconv.Atoi(args[0])
		if err != nil || h <= 0 {
			return "usage: /next [hours]", nil
		}
		hours = h
	}
	occs, err := c.lister.ForScope(ctx, scope, hours)
	if err != nil {
		return "", err
	}
	if hours == 0 {
		hours = 48
	}
	if len(occs) == 0 {
		return fmt.Sprintf("nothing scheduled in the next %dh", hours), nil
	}
	lines := make([]string, 0, MaxListLines+1)
	for i, occ := range occs {
		if i == MaxListLines {
			lines = append(lines, fmt.Sprintf("… and %d more", len(occs)-MaxListLines))
			break
		}
		lines = append(lines, c.renderer.Line(occ))
	}
	return strings.Join(lines, "\n"), nil
}

func (c *Commands) subscribe(ctx context.Context, scope string, args []string, on bool) (string, error) {
	verb := "/unsub"
	if on {
		verb = "/sub"
	}
	if len(args) != 1 {
		return "usage: " + verb + " <category|all>", nil
	}
	var err error
	if on {
		err = c.registry.Subscribe(ctx, scope, args[0])
	} else {
		err = c.registry.Unsubscribe(ctx, scope, args[0])
	}
	if errors.Is(err, domain.ErrUnknownCategory) {
		return fmt.Sprintf("unknown category %q", args[0]), nil
	}
	if err != nil {
		return "", err
	}
	return c.subs(ctx, scope)
}

func (c *Commands) subs(ctx context.Context, scope string) (string, error) {
	cats, err := c.registry.CategoriesFor(ctx, scope)
	if err != nil {
		return "", err
	}
	if len(cats) == 0 {
		return noFilterReply, nil
	}
	names := make([]string, 0, len(cats))
	for _, cat := range cats {
		names = append(names, string(cat))
	}
	return "subscribed to: " + strings.Join(names, ", "), nil
}

func (c *Commands) alerts(ctx context.Context, scope string, args []string) (string, error) {
	leads := make([]time.Duration, 0, len(args))
	for _, a := range args {
		l, err := domain.ParseLead(a)
		if err != nil {
			return fmt.Sprintf("invalid lead %q, use e.g. 30m or 24h", a), nil
		}
		leads = append(leads, l)
	}
	if err := c.registry.SetLeads(ctx, scope, leads); err != nil {
		return "", err
	}
	current, err := c.registry.LeadsFor(ctx, scope)
	if err != nil {
		return "", err
	}
	names := make([]string, 0, len(current))
	for _, l := range current {
		names = append(names, domain.FormatLead(l))
	}
	return "alerts: " + strings.Join(names, " "), nil
}

func (c *Commands) lang(ctx context.Context, scope string, args []string) (string, error) {
	if len(args) == 0 {
		cur, err := c.registry.LangFor(ctx, scope)
		if err != nil {
			return "", err
		}
		return "language: " + string(cur), nil
	}
	want := strings.ToLower(args[0])
	lang := domain.ParseLang(want)
	if string(lang) != want {
		return "usage: /lang <mixed|ko|en>", nil
	}
	if err := c.registry.SetLang(ctx, scope, lang); err != nil {
		return "", err
	}
	return "language: " + string(lang), nil
}
