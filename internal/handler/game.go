package handler

import (
	"context"
	"strconv"
	"strings"

	tele "gopkg.in/telebot.v3"

	"banana-bot/internal/apperr"
	"banana-bot/internal/service"
	"banana-bot/internal/session"
)

// Game command errors
var (
	ErrDuelUsage = apperr.Input("🍌 To play, reply to your opponent's message with /game\n\n" +
		"How to play:\n1. Find an opponent\n2. Reply to their message\n3. Type /game\n\nBa-na-na! 🎶")
	ErrFightUsage = apperr.Input("🍌 Ba-na-na! To fight, reply to a minion's message with /knb\n\n" +
		"Minion rules:\n🪨 Rock > ✂️ Scissors\n✂️ Scissors > 🍌 Banana\n🍌 Banana > 🪨 Rock")
	ErrBotOpponent = apperr.Input("🍌 I'm just a bot, I can't play with you! Be-be-be!")
	ErrNoSuspect   = apperr.Input("🔍 Name a suspect, e.g. /vote @Banana_Joe")
	ErrBadButton   = apperr.Stale("this button is out of date")
)

// GameHandler handles duels, quests and polls.
type GameHandler struct {
	*Base
	duelService  *service.BoardDuelService
	rpsService   *service.RPSService
	questService *service.QuestService
	pollService  *service.PollService
}

// NewGameHandler creates a new GameHandler.
func NewGameHandler(
	base *Base,
	duelService *service.BoardDuelService,
	rpsService *service.RPSService,
	questService *service.QuestService,
	pollService *service.PollService,
) *GameHandler {
	return &GameHandler{
		Base:         base,
		duelService:  duelService,
		rpsService:   rpsService,
		questService: questService,
		pollService:  pollService,
	}
}

// opponent returns the replied member as a challenge target.
func opponent(c tele.Context, usage error) (*tele.User, error) {
	msg := c.Message()
	if msg == nil || msg.ReplyTo == nil || msg.ReplyTo.Sender == nil || msg.ReplyTo.TopicCreated != nil {
		return nil, usage
	}
	if msg.ReplyTo.Sender.IsBot {
		return nil, ErrBotOpponent
	}
	return msg.ReplyTo.Sender, nil
}

// HandleDuel handles /game as a reply to the opponent.
func (h *GameHandler) HandleDuel(c tele.Context) error {
	sender := c.Sender()
	if sender == nil {
		return nil
	}
	rival, err := opponent(c, ErrDuelUsage)
	if err == nil {
		err = h.duelService.Challenge(context.Background(), origin(c), player(sender), player(rival))
	}
	return h.done(c, "game", err)
}

// HandleFight handles /knb as a reply to the opponent.
func (h *GameHandler) HandleFight(c tele.Context) error {
	sender := c.Sender()
	if sender == nil {
		return nil
	}
	rival, err := opponent(c, ErrFightUsage)
	if err == nil {
		err = h.rpsService.Challenge(context.Background(), origin(c), player(sender), player(rival))
	}
	return h.done(c, "knb", err)
}

// HandleDuelButton handles the accept, decline and cell buttons of a board duel.
func (h *GameHandler) HandleDuelButton(c tele.Context, unique string, args []string) error {
	if len(args) == 0 {
		return h.answer(c, unique, "", ErrBadButton)
	}
	ctx := context.Background()
	chatID, userID, sid := c.Chat().ID, c.Sender().ID, args[0]

	var (
		notice string
		err    error
	)
	switch unique {
	case service.CbDuelAccept:
		notice, err = h.duelService.Accept(ctx, chatID, userID, sid)
	case service.CbDuelDecline:
		notice, err = h.duelService.Decline(ctx, chatID, userID, sid)
	case service.CbDuelMove:
		cell := -1
		if len(args) > 1 {
			if n, convErr := strconv.Atoi(args[1]); convErr == nil {
				cell = n
			}
		}
		notice, err = h.duelService.Move(ctx, chatID, userID, sid, cell)
	}
	return h.answer(c, unique, notice, err)
}

// HandleFightButton handles the buttons of a rock-scissors-banana duel.
func (h *GameHandler) HandleFightButton(c tele.Context, unique string, args []string) error {
	if unique == service.CbRPSSong {
		h.metrics.Command(unique, "ok")
		return c.Respond(&tele.CallbackResponse{Text: h.rpsService.Song(), ShowAlert: true})
	}
	if len(args) == 0 {
		return h.answer(c, unique, "", ErrBadButton)
	}
	ctx := context.Background()
	chatID, userID, sid := c.Chat().ID, c.Sender().ID, args[0]

	var (
		notice string
		err    error
	)
	switch unique {
	case service.CbRPSAccept:
		notice, err = h.rpsService.Accept(ctx, chatID, userID, sid)
	case service.CbRPSDecline:
		notice, err = h.rpsService.Decline(ctx, chatID, userID, sid)
	case service.CbRPSStop:
		notice, err = h.rpsService.Stop(ctx, chatID, userID, sid)
	case service.CbRPSPick:
		code := ""
		if len(args) > 1 {
			code = args[1]
		}
		notice, err = h.rpsService.Pick(ctx, chatID, userID, sid, code)
	}
	return h.answer(c, unique, notice, err)
}

// HandleQuest handles /quest and /start_quest.
func (h *GameHandler) HandleQuest(c tele.Context) error {
	return h.done(c, "quest", h.questService.Start(context.Background(), origin(c)))
}

// HandleClue handles /clue.
func (h *GameHandler) HandleClue(c tele.Context) error {
	return h.done(c, "clue", h.questService.Clue(context.Background(), origin(c)))
}

func suspect(c tele.Context) (string, error) {
	name := strings.TrimSpace(c.Message().Payload)
	if name == "" {
		return "", ErrNoSuspect
	}
	return name, nil
}

// HandleVote handles /vote <suspect>.
func (h *GameHandler) HandleVote(c tele.Context) error {
	sender := c.Sender()
	if sender == nil {
		return nil
	}
	name, err := suspect(c)
	if err == nil {
		err = h.questService.Vote(context.Background(), origin(c), sender.ID, name)
	}
	return h.done(c, "vote", err)
}

// HandleAsk handles /ask <suspect>.
func (h *GameHandler) HandleAsk(c tele.Context) error {
	name, err := suspect(c)
	if err == nil {
		err = h.questService.Ask(context.Background(), origin(c), name)
	}
	return h.done(c, "ask", err)
}

// HandleStopQuest handles /stop_quest.
func (h *GameHandler) HandleStopQuest(c tele.Context) error {
	return h.done(c, "stop_quest", h.questService.Stop(context.Background(), origin(c)))
}

// HandlePoll handles /poll Question <A> <B> ...
func (h *GameHandler) HandlePoll(c tele.Context) error {
	sender := c.Sender()
	if sender == nil {
		return nil
	}
	return h.done(c, "poll", h.pollService.Create(context.Background(), origin(c), sender.ID, c.Message().Payload))
}

// HandlePollButton handles the vote and close buttons of a poll.
func (h *GameHandler) HandlePollButton(c tele.Context, unique string, args []string) error {
	if len(args) == 0 {
		return h.answer(c, unique, "", session.ErrNotFound)
	}
	ctx := context.Background()
	userID := c.Sender().ID

	var (
		notice string
		err    error
	)
	switch unique {
	case service.CbPollVote:
		option := ""
		if len(args) > 1 {
			option = args[1]
		}
		notice, err = h.pollService.Vote(ctx, origin(c), userID, args[0], option)
	case service.CbPollEnd:
		notice, err = h.pollService.End(ctx, origin(c), userID, h.isAdmin(userID), args[0])
	}
	return h.answer(c, unique, notice, err)
}
