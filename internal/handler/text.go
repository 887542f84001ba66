package handler

import (
	"context"
	"strings"

	tele "gopkg.in/telebot.v3"

	"banana-bot/internal/moderation"
	"banana-bot/internal/service"
)

// TextHandler handles plain chat messages: nickname triggers, bomb payouts,
// text-prefix moderation and the chat law.
type TextHandler struct {
	*Base
	accountService    *service.AccountService
	moderationService *service.ModerationService
	lawService        *service.LawService
	eventService      *service.EventService

	triggers map[string]tele.HandlerFunc
}

// NewTextHandler creates a new TextHandler. Triggers are "<nickname> <word>".
func NewTextHandler(
	base *Base,
	accountService *service.AccountService,
	moderationService *service.ModerationService,
	lawService *service.LawService,
	eventService *service.EventService,
	account *AccountHandler,
	ranking *RankingHandler,
	game *GameHandler,
) *TextHandler {
	nick := strings.ToLower(base.cfg.Bot.Nickname)
	return &TextHandler{
		Base:              base,
		accountService:    accountService,
		moderationService: moderationService,
		lawService:        lawService,
		eventService:      eventService,
		triggers: map[string]tele.HandlerFunc{
			nick + " banana":      account.HandleBanana,
			nick + " stats":       account.HandleStats,
			nick + " top":         ranking.HandleLeaderboard,
			nick + " leaderboard": ranking.HandleLeaderboard,
			nick + " game":        game.HandleDuel,
		},
	}
}

func (h *TextHandler) trigger(text string) (tele.HandlerFunc, bool) {
	text = strings.ToLower(strings.TrimSpace(text))
	for prefix, fn := range h.triggers {
		if text == prefix || strings.HasPrefix(text, prefix+" ") {
			return fn, true
		}
	}
	return nil, false
}

// HandleText handles every non-command text message.
func (h *TextHandler) HandleText(c tele.Context) error {
	sender := c.Sender()
	msg := c.Message()
	if sender == nil || sender.IsBot || msg == nil || c.Chat() == nil {
		return nil
	}
	ctx := context.Background()
	user := player(sender)
	h.accountService.Remember(ctx, user)

	if fn, ok := h.trigger(msg.Text); ok {
		return fn(c)
	}

	o := origin(c)
	h.eventService.Message(ctx, o, user)

	if _, _, ok := moderation.ParseText(msg.Text); ok {
		handled, err := h.moderationService.Text(ctx, o, user, h.isAdmin(sender.ID), h.target(c), msg.Text)
		if handled {
			return h.done(c, "text_moderation", err)
		}
	}

	h.lawService.Check(ctx, o, user, msg.Text)
	return nil
}
