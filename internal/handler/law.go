package handler

import (
	"context"
	"strings"

	tele "gopkg.in/telebot.v3"

	"banana-bot/internal/law"
	"banana-bot/internal/service"
)

// LawHandler handles the chat law and its appeals.
type LawHandler struct {
	*Base
	lawService *service.LawService
}

// NewLawHandler creates a new LawHandler.
func NewLawHandler(base *Base, lawService *service.LawService) *LawHandler {
	return &LawHandler{Base: base, lawService: lawService}
}

// HandleLaw handles /law [text]. Without text it shows the law; admins set
// it and everyone else proposes it.
func (h *LawHandler) HandleLaw(c tele.Context) error {
	sender := c.Sender()
	if sender == nil {
		return nil
	}
	text := strings.TrimSpace(c.Message().Payload)
	return h.done(c, "law", h.lawService.Law(context.Background(), origin(c), player(sender), h.isAdmin(sender.ID), text))
}

// HandleSetLaw handles /setlaw <text>.
func (h *LawHandler) HandleSetLaw(c tele.Context) error {
	sender := c.Sender()
	if sender == nil {
		return nil
	}
	text := strings.TrimSpace(c.Message().Payload)
	return h.done(c, "setlaw", h.lawService.Set(context.Background(), origin(c), sender.ID, h.isAdmin(sender.ID), text))
}

// HandleRandomLaw handles /randomlaw.
func (h *LawHandler) HandleRandomLaw(c tele.Context) error {
	sender := c.Sender()
	if sender == nil {
		return nil
	}
	return h.done(c, "randomlaw", h.lawService.Random(context.Background(), origin(c), sender.ID, h.isAdmin(sender.ID)))
}

// HandleProposal handles the accept and reject buttons of a proposal.
func (h *LawHandler) HandleProposal(c tele.Context, args []string) error {
	if len(args) != 2 {
		return h.answer(c, "law_proposal", "", service.ErrBadProposal)
	}
	admin := c.Sender().ID
	notice, err := h.lawService.DecideProposal(context.Background(), origin(c), admin, h.isAdmin(admin), args[0], args[1] == "yes")
	return h.answer(c, "law_proposal", notice, err)
}

// HandleAppeal handles the appeal button under a punishment notice.
func (h *LawHandler) HandleAppeal(c tele.Context, args []string) error {
	arg := ""
	if len(args) > 0 {
		arg = args[0]
	}
	notice, err := h.lawService.ReviewAppeal(context.Background(), origin(c), h.isAdmin(c.Sender().ID), arg)
	return h.answer(c, "law_appeal", notice, err)
}

// HandleAppealDecision handles the approve and reject buttons of an appeal.
func (h *LawHandler) HandleAppealDecision(c tele.Context, args []string) error {
	if len(args) != 2 {
		return h.answer(c, "law_decide", "", law.ErrNoAppeal)
	}
	notice, err := h.lawService.DecideAppeal(context.Background(), origin(c), h.isAdmin(c.Sender().ID), args[0], args[1] == "approve")
	return h.answer(c, "law_decide", notice, err)
}
