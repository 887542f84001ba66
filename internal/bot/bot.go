// Package bot provides the Telegram bot initialization and handler registration.
package bot

import (
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"
	tele "gopkg.in/telebot.v3"

	"banana-bot/internal/config"
	"banana-bot/internal/handler"
	"banana-bot/internal/metrics"
	"banana-bot/internal/service"
)

// Bot wraps the telebot instance with application dependencies.
type Bot struct {
	bot *tele.Bot
	cfg *config.Config

	// Handlers
	accountHandler  *handler.AccountHandler
	rankingHandler  *handler.RankingHandler
	adminHandler    *handler.AdminHandler
	lawHandler      *handler.LawHandler
	gameHandler     *handler.GameHandler
	shopHandler     *handler.ShopHandler
	callbackHandler *handler.CallbackHandler
	textHandler     *handler.TextHandler
}

// Dependencies holds all the dependencies needed by the bot handlers.
type Dependencies struct {
	Config            *config.Config
	Metrics           *metrics.Metrics
	AccountService    *service.AccountService
	RewardService     *service.RewardService
	BoardDuelService  *service.BoardDuelService
	RPSService        *service.RPSService
	QuestService      *service.QuestService
	LawService        *service.LawService
	ModerationService *service.ModerationService
	EventService      *service.EventService
	ShopService       *service.ShopService
	PollService       *service.PollService
}

// NewTeleBot creates the telebot instance. It is built before the services
// because the messenger sends through it.
func NewTeleBot(cfg *config.Config) (*tele.Bot, error) {
	if cfg.Bot.Token == "" {
		return nil, errors.New("bot token is required")
	}

	pref := tele.Settings{
		Token:   cfg.Bot.Token,
		Poller:  &tele.LongPoller{Timeout: cfg.Bot.PollTimeout},
		OnError: onError,
	}

	teleBot, err := tele.NewBot(pref)
	if err != nil {
		return nil, fmt.Errorf("failed to create bot: %w", err)
	}
	return teleBot, nil
}

// onError logs an unclassified handler error and tells the user something went wrong.
func onError(err error, c tele.Context) {
	ev := log.Error().Err(err)
	if c != nil {
		if chat := c.Chat(); chat != nil {
			ev = ev.Int64("chat_id", chat.ID)
		}
		if sender := c.Sender(); sender != nil {
			ev = ev.Int64("user_id", sender.ID)
		}
	}
	ev.Msg("Handler failed")

	if c == nil {
		return
	}
	if c.Callback() != nil {
		_ = c.Respond(&tele.CallbackResponse{Text: internalErrorText, ShowAlert: true})
		return
	}
	_ = c.Reply(internalErrorText)
}

const internalErrorText = "❌ Oh-oh, something went wrong in the banana factory. Try again later!"

// New wires the handlers onto teleBot.
func New(teleBot *tele.Bot, deps *Dependencies) *Bot {
	base := handler.NewBase(deps.Config, deps.Metrics)

	b := &Bot{
		bot: teleBot,
		cfg: deps.Config,
	}

	// Initialize handlers
	b.accountHandler = handler.NewAccountHandler(base, deps.AccountService, deps.RewardService)
	b.rankingHandler = handler.NewRankingHandler(base, deps.AccountService)
	b.adminHandler = handler.NewAdminHandler(base, deps.ModerationService, deps.EventService, deps.ShopService)
	b.lawHandler = handler.NewLawHandler(base, deps.LawService)
	b.gameHandler = handler.NewGameHandler(base, deps.BoardDuelService, deps.RPSService, deps.QuestService, deps.PollService)
	b.shopHandler = handler.NewShopHandler(base, deps.ShopService)
	b.callbackHandler = handler.NewCallbackHandler(base, b.gameHandler, b.lawHandler, b.adminHandler, b.shopHandler, b.rankingHandler)
	b.textHandler = handler.NewTextHandler(
		base,
		deps.AccountService,
		deps.ModerationService,
		deps.LawService,
		deps.EventService,
		b.accountHandler,
		b.rankingHandler,
		b.gameHandler,
	)

	// Register middleware
	b.registerMiddleware()

	// Register handlers
	b.registerHandlers()

	return b
}

// registerMiddleware registers all middleware.
func (b *Bot) registerMiddleware() {
	b.bot.Use(RecoveryMiddleware())

	// Whitelist middleware - check if chat is allowed
	b.bot.Use(WhitelistMiddleware(b.cfg))

	// Logging middleware
	b.bot.Use(LoggingMiddleware())
}

// registerHandlers registers all command and callback handlers.
func (b *Bot) registerHandlers() {
	// Account handlers
	b.bot.Handle("/start", b.accountHandler.HandleStart)
	b.bot.Handle("/help", b.accountHandler.HandleStart)
	b.bot.Handle("/banana", b.accountHandler.HandleBanana)
	b.bot.Handle("/stats", b.accountHandler.HandleStats)
	b.bot.Handle("/achievements", b.accountHandler.HandleAchievements)
	b.bot.Handle("/getid", b.accountHandler.HandleGetID)
	b.bot.Handle("/leaderboard", b.rankingHandler.HandleLeaderboard)
	b.bot.Handle("/top", b.rankingHandler.HandleLeaderboard)

	// Shop handlers
	b.bot.Handle("/shop", b.shopHandler.HandleShop)
	b.bot.Handle("/inv", b.shopHandler.HandleInventory)
	b.bot.Handle("/upgrades", b.shopHandler.HandleUpgrades)

	// Game handlers
	b.bot.Handle("/game", b.gameHandler.HandleDuel)
	b.bot.Handle("/knb", b.gameHandler.HandleFight)
	b.bot.Handle("/quest", b.gameHandler.HandleQuest)
	b.bot.Handle("/start_quest", b.gameHandler.HandleQuest)
	b.bot.Handle("/clue", b.gameHandler.HandleClue)
	b.bot.Handle("/vote", b.gameHandler.HandleVote)
	b.bot.Handle("/ask", b.gameHandler.HandleAsk)
	b.bot.Handle("/stop_quest", b.gameHandler.HandleStopQuest)
	b.bot.Handle("/poll", b.gameHandler.HandlePoll)
	b.bot.Handle("/pollcreate", b.gameHandler.HandlePoll)

	// Law handlers
	b.bot.Handle("/law", b.lawHandler.HandleLaw)
	b.bot.Handle("/event_status", b.adminHandler.HandleEventStatus)
	b.bot.Handle("/warns", b.adminHandler.HandleWarns)

	// Admin handlers (with admin middleware)
	adminGroup := b.bot.Group()
	adminGroup.Use(AdminMiddleware(b.cfg))
	adminGroup.Handle("/setlaw", b.lawHandler.HandleSetLaw)
	adminGroup.Handle("/randomlaw", b.lawHandler.HandleRandomLaw)
	adminGroup.Handle("/warn", b.adminHandler.HandleWarn)
	adminGroup.Handle("/unwarn", b.adminHandler.HandleUnwarn)
	adminGroup.Handle("/jail", b.adminHandler.HandleJail)
	adminGroup.Handle("/free", b.adminHandler.HandleFree)
	adminGroup.Handle("/kick", b.adminHandler.HandleKick)
	adminGroup.Handle("/ban", b.adminHandler.HandleBan)
	adminGroup.Handle("/restock", b.adminHandler.HandleRestock)
	adminGroup.Handle("/start_event", b.adminHandler.HandleStartEvent)
	adminGroup.Handle("/end_event", b.adminHandler.HandleEndEvent)
	adminGroup.Handle("/add_bananas", b.accountHandler.HandleAddBananas)

	// Generic callback handler for every inline button
	b.bot.Handle(tele.OnCallback, b.callbackHandler.HandleCallback)

	// Plain messages
	b.bot.Handle(tele.OnText, b.textHandler.HandleText)
}

// Start starts the bot polling. It blocks until Stop.
func (b *Bot) Start() {
	log.Info().Str("username", b.bot.Me.Username).Msg("Starting bot...")
	b.bot.Start()
}

// Stop stops the bot gracefully.
func (b *Bot) Stop() {
	log.Info().Msg("Stopping bot...")
	b.bot.Stop()
}

// GetBot returns the underlying telebot instance.
func (b *Bot) GetBot() *tele.Bot {
	return b.bot
}
