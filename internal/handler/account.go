package handler

import (
	"context"

	tele "gopkg.in/telebot.v3"

	"banana-bot/internal/service"
)

// AccountHandler handles harvest, stats and account commands.
type AccountHandler struct {
	*Base
	accountService *service.AccountService
	rewardService  *service.RewardService
}

// NewAccountHandler creates a new AccountHandler.
func NewAccountHandler(base *Base, accountService *service.AccountService, rewardService *service.RewardService) *AccountHandler {
	return &AccountHandler{
		Base:           base,
		accountService: accountService,
		rewardService:  rewardService,
	}
}

// HandleStart handles /start and /help.
func (h *AccountHandler) HandleStart(c tele.Context) error {
	return h.done(c, "help", h.accountService.Help(context.Background(), origin(c)))
}

// HandleBanana handles /banana.
func (h *AccountHandler) HandleBanana(c tele.Context) error {
	sender := c.Sender()
	if sender == nil {
		return nil
	}
	ctx := context.Background()
	h.accountService.Remember(ctx, player(sender))
	return h.done(c, "banana", h.rewardService.Banana(ctx, origin(c), sender.ID))
}

// HandleStats handles /stats.
func (h *AccountHandler) HandleStats(c tele.Context) error {
	sender := c.Sender()
	if sender == nil {
		return nil
	}
	return h.done(c, "stats", h.accountService.Stats(context.Background(), origin(c), player(sender)))
}

// HandleAchievements handles /achievements.
func (h *AccountHandler) HandleAchievements(c tele.Context) error {
	sender := c.Sender()
	if sender == nil {
		return nil
	}
	return h.done(c, "achievements", h.accountService.Achievements(context.Background(), origin(c), player(sender)))
}

// HandleGetID handles /getid.
func (h *AccountHandler) HandleGetID(c tele.Context) error {
	sender := c.Sender()
	if sender == nil {
		return nil
	}
	return h.done(c, "getid", h.accountService.GetID(context.Background(), origin(c), player(sender)))
}

// HandleAddBananas handles /add_bananas <amount> as a reply.
func (h *AccountHandler) HandleAddBananas(c tele.Context) error {
	sender := c.Sender()
	if sender == nil {
		return nil
	}
	err := h.accountService.AddBananas(context.Background(), origin(c), h.isAdmin(sender.ID), targetPlayer(c), c.Message().Payload)
	return h.done(c, "add_bananas", err)
}
