package handler

import (
	"github.com/rs/zerolog/log"
	tele "gopkg.in/telebot.v3"

	"banana-bot/internal/service"
	"banana-bot/internal/shop"
)

// CallbackHandler routes every inline button press.
type CallbackHandler struct {
	*Base
	game    *GameHandler
	law     *LawHandler
	admin   *AdminHandler
	shop    *ShopHandler
	ranking *RankingHandler
}

// NewCallbackHandler creates a new CallbackHandler.
func NewCallbackHandler(base *Base, game *GameHandler, law *LawHandler, admin *AdminHandler, shop *ShopHandler, ranking *RankingHandler) *CallbackHandler {
	return &CallbackHandler{
		Base:    base,
		game:    game,
		law:     law,
		admin:   admin,
		shop:    shop,
		ranking: ranking,
	}
}

// HandleCallback dispatches on the button's unique.
func (h *CallbackHandler) HandleCallback(c tele.Context) error {
	cb := c.Callback()
	if cb == nil || c.Sender() == nil || c.Chat() == nil {
		return nil
	}
	log.Debug().Str("data", cb.Data).Int64("user_id", c.Sender().ID).Msg("Callback received")

	if shop.IsShopData(cb.Data) {
		return h.shop.HandleShopCallback(c, cb.Data)
	}

	unique, args := service.ParseCallback(cb.Data)
	switch unique {
	case service.CbDuelAccept, service.CbDuelDecline, service.CbDuelMove:
		return h.game.HandleDuelButton(c, unique, args)
	case service.CbRPSAccept, service.CbRPSDecline, service.CbRPSPick, service.CbRPSStop, service.CbRPSSong:
		return h.game.HandleFightButton(c, unique, args)
	case service.CbPollVote, service.CbPollEnd:
		return h.game.HandlePollButton(c, unique, args)
	case service.CbLawProposal:
		return h.law.HandleProposal(c, args)
	case service.CbAppeal:
		return h.law.HandleAppeal(c, args)
	case service.CbAppealDecide:
		return h.law.HandleAppealDecision(c, args)
	case service.CbConfirm:
		return h.admin.HandleConfirm(c, args)
	case service.CbLeaderboard:
		return h.ranking.HandleRefresh(c)
	default:
		log.Debug().Str("unique", unique).Msg("Unknown callback")
		return h.answer(c, "unknown", "", ErrBadButton)
	}
}
