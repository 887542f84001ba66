package handler

import (
	"context"

	tele "gopkg.in/telebot.v3"

	"banana-bot/internal/service"
)

// AdminHandler handles moderation, events and the other admin commands.
type AdminHandler struct {
	*Base
	moderationService *service.ModerationService
	eventService      *service.EventService
	shopService       *service.ShopService
}

// NewAdminHandler creates a new AdminHandler.
func NewAdminHandler(
	base *Base,
	moderationService *service.ModerationService,
	eventService *service.EventService,
	shopService *service.ShopService,
) *AdminHandler {
	return &AdminHandler{
		Base:              base,
		moderationService: moderationService,
		eventService:      eventService,
		shopService:       shopService,
	}
}

type targetAction func(ctx context.Context, o service.Origin, admin bool, t *service.Target) error

// onTarget runs a moderation action against the author of the replied message.
func (h *AdminHandler) onTarget(command string, action targetAction) tele.HandlerFunc {
	return func(c tele.Context) error {
		sender := c.Sender()
		if sender == nil {
			return nil
		}
		return h.done(c, command, action(context.Background(), origin(c), h.isAdmin(sender.ID), h.target(c)))
	}
}

// HandleWarn handles /warn.
func (h *AdminHandler) HandleWarn(c tele.Context) error {
	return h.onTarget("warn", h.moderationService.Warn)(c)
}

// HandleUnwarn handles /unwarn.
func (h *AdminHandler) HandleUnwarn(c tele.Context) error {
	return h.onTarget("unwarn", h.moderationService.Unwarn)(c)
}

// HandleFree handles /free.
func (h *AdminHandler) HandleFree(c tele.Context) error {
	return h.onTarget("free", h.moderationService.Free)(c)
}

// HandleKick handles /kick.
func (h *AdminHandler) HandleKick(c tele.Context) error {
	return h.onTarget("kick", h.moderationService.Kick)(c)
}

// HandleBan handles /ban.
func (h *AdminHandler) HandleBan(c tele.Context) error {
	return h.onTarget("ban", h.moderationService.Ban)(c)
}

// HandleJail handles /jail [minutes] [reason].
func (h *AdminHandler) HandleJail(c tele.Context) error {
	args := c.Args()
	return h.onTarget("jail", func(ctx context.Context, o service.Origin, admin bool, t *service.Target) error {
		return h.moderationService.Jail(ctx, o, admin, t, args)
	})(c)
}

// HandleWarns handles /warns: the replied member's count, or the caller's own.
func (h *AdminHandler) HandleWarns(c tele.Context) error {
	sender := c.Sender()
	if sender == nil {
		return nil
	}
	p := player(sender)
	if t := targetPlayer(c); t != nil {
		p = *t
	}
	return h.done(c, "warns", h.moderationService.Warns(context.Background(), origin(c), p))
}

// HandleRestock handles /restock.
func (h *AdminHandler) HandleRestock(c tele.Context) error {
	sender := c.Sender()
	if sender == nil {
		return nil
	}
	return h.done(c, "restock", h.shopService.Restock(context.Background(), origin(c), h.isAdmin(sender.ID)))
}

// HandleStartEvent handles /start_event [kind].
func (h *AdminHandler) HandleStartEvent(c tele.Context) error {
	sender := c.Sender()
	if sender == nil {
		return nil
	}
	kind := ""
	if args := c.Args(); len(args) > 0 {
		kind = args[0]
	}
	return h.done(c, "start_event", h.eventService.Start(context.Background(), origin(c), h.isAdmin(sender.ID), kind))
}

// HandleEventStatus handles /event_status.
func (h *AdminHandler) HandleEventStatus(c tele.Context) error {
	return h.done(c, "event_status", h.eventService.Status(context.Background(), origin(c)))
}

// HandleEndEvent handles /end_event.
func (h *AdminHandler) HandleEndEvent(c tele.Context) error {
	sender := c.Sender()
	if sender == nil {
		return nil
	}
	return h.done(c, "end_event", h.eventService.End(context.Background(), origin(c), h.isAdmin(sender.ID)))
}

// HandleConfirm handles the yes and no buttons of a ban or kick confirmation.
func (h *AdminHandler) HandleConfirm(c tele.Context, args []string) error {
	if len(args) != 2 {
		return h.answer(c, "confirm", "", ErrBadButton)
	}
	notice, err := h.moderationService.Confirm(context.Background(), origin(c), player(c.Sender()), args[0], args[1] == "yes")
	return h.answer(c, "confirm", notice, err)
}
