package handler

import (
	"context"

	tele "gopkg.in/telebot.v3"

	"banana-bot/internal/service"
)

// RankingHandler handles the leaderboard.
type RankingHandler struct {
	*Base
	accountService *service.AccountService
}

// NewRankingHandler creates a new RankingHandler.
func NewRankingHandler(base *Base, accountService *service.AccountService) *RankingHandler {
	return &RankingHandler{
		Base:           base,
		accountService: accountService,
	}
}

// HandleLeaderboard handles /leaderboard and /top: the top five plus the
// caller's own place.
func (h *RankingHandler) HandleLeaderboard(c tele.Context) error {
	sender := c.Sender()
	if sender == nil {
		return nil
	}
	return h.done(c, "leaderboard", h.accountService.Leaderboard(context.Background(), origin(c), player(sender)))
}

// HandleRefresh redraws the leaderboard message the button sits on.
func (h *RankingHandler) HandleRefresh(c tele.Context) error {
	sender := c.Sender()
	if sender == nil {
		return nil
	}
	notice, err := h.accountService.RefreshLeaderboard(context.Background(), origin(c), player(sender))
	return h.answer(c, "leaderboard_refresh", notice, err)
}
