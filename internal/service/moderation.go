package service

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	tele "gopkg.in/telebot.v3"

	"banana-bot/internal/apperr"
	"banana-bot/internal/config"
	"banana-bot/internal/game"
	"banana-bot/internal/ledger"
	"banana-bot/internal/messenger"
	"banana-bot/internal/moderation"
	"banana-bot/internal/timer"
)

// Moderation service errors
var (
	ErrNoTarget        = apperr.Input("↩️ Reply to the member's message to use this command")
	ErrProtectedTarget = apperr.Forbidden("🛡 Admins and bots cannot be punished!")
)

// Target is the member a moderation action is aimed at.
type Target struct {
	game.Player
	Admin bool
	Bot   bool
}

// ModerationService runs the warn ladder and the restrict/ban commands.
type ModerationService struct {
	cfg      config.ModerationConfig
	ledger   *ledger.Ledger
	msg      messenger.Messenger
	sched    timer.Scheduler
	confirms *moderation.Confirmations
}

// NewModerationService creates a new ModerationService instance.
func NewModerationService(cfg config.ModerationConfig, l *ledger.Ledger, msg messenger.Messenger, sched timer.Scheduler) *ModerationService {
	return &ModerationService{
		cfg:      cfg,
		ledger:   l,
		msg:      msg,
		sched:    sched,
		confirms: moderation.NewConfirmations(sched, cfg.ConfirmTimeout),
	}
}

// Confirmations returns the pending confirmation store.
func (s *ModerationService) Confirmations() *moderation.Confirmations {
	return s.confirms
}

func checkTarget(admin bool, t *Target) error {
	if !admin {
		return ErrAdminOnly
	}
	if t == nil || t.ID == 0 {
		return ErrNoTarget
	}
	if t.Admin || t.Bot {
		return ErrProtectedTarget
	}
	return nil
}

// report logs a failed platform action and tells the chat about it.
func (s *ModerationService) report(o Origin, action string, t *Target, err error) bool {
	if err == nil {
		return true
	}
	log.Warn().Err(err).Int64("chat_id", o.ChatID).Int64("user_id", t.ID).Str("action", action).Msg("Moderation action failed")
	send(s.msg, o.ChatID, fmt.Sprintf("⚠️ Could not %s %s. Does the bot have admin rights?", action, t.Display()), o.reply())
	return false
}

// Warn adds a warning and applies the ladder penalty for the new count.
func (s *ModerationService) Warn(ctx context.Context, o Origin, admin bool, t *Target) error {
	if err := checkTarget(admin, t); err != nil {
		return err
	}

	p := moderation.PenaltyFor(s.ledger.Warn(ctx, t.ID))
	switch {
	case p.Ban:
		if !s.report(o, "ban", t, s.msg.Ban(o.ChatID, t.ID, time.Time{})) {
			return nil
		}
		s.ledger.ResetWarns(ctx, t.ID)
	case p.Mute > 0:
		if !s.report(o, "mute", t, s.msg.Mute(o.ChatID, t.ID, s.sched.Now().Add(p.Mute))) {
			return nil
		}
	}

	log.Info().Int64("chat_id", o.ChatID).Int64("user_id", t.ID).Int("warns", p.Warns).Msg("Member warned")
	send(s.msg, o.ChatID, p.Describe(t.Display()), o.reply())
	return nil
}

// Unwarn removes one warning.
func (s *ModerationService) Unwarn(ctx context.Context, o Origin, admin bool, t *Target) error {
	if err := checkTarget(admin, t); err != nil {
		return err
	}
	left, err := s.ledger.Unwarn(ctx, t.ID)
	if err != nil {
		return err
	}
	send(s.msg, o.ChatID, fmt.Sprintf("✅ One warning removed from %s.\n📋 Warnings left: %d/%d", t.Display(), left, moderation.MaxWarns), o.reply())
	return nil
}

// Warns shows the warning count of p.
func (s *ModerationService) Warns(ctx context.Context, o Origin, p game.Player) error {
	count := 0
	if u, ok := s.ledger.Get(p.ID); ok {
		count = u.WarnCount
	}
	text := fmt.Sprintf("📋 %s has %d/%d warnings", p.Display(), count, moderation.MaxWarns)
	if count == 0 {
		text = fmt.Sprintf("😇 %s has a clean record!", p.Display())
	}
	send(s.msg, o.ChatID, text, o.reply())
	return nil
}

// Jail mutes the target for "[minutes] [reason]".
func (s *ModerationService) Jail(ctx context.Context, o Origin, admin bool, t *Target, args []string) error {
	if err := checkTarget(admin, t); err != nil {
		return err
	}
	minutes, reason := moderation.ParseJail(args, int(s.cfg.JailDefault/time.Minute), int(s.cfg.JailMax/time.Minute))
	d := time.Duration(minutes) * time.Minute
	if !s.report(o, "mute", t, s.msg.Mute(o.ChatID, t.ID, s.sched.Now().Add(d))) {
		return nil
	}
	send(s.msg, o.ChatID, fmt.Sprintf("🔒 %s goes to banana jail for %s!\n📝 Reason: %s", t.Display(), moderation.HumanDuration(d), reason), o.reply())
	return nil
}

// Free lifts every restriction from the target.
func (s *ModerationService) Free(ctx context.Context, o Origin, admin bool, t *Target) error {
	if err := checkTarget(admin, t); err != nil {
		return err
	}
	if !s.report(o, "free", t, s.msg.Unmute(o.ChatID, t.ID)) {
		return nil
	}
	send(s.msg, o.ChatID, fmt.Sprintf("🔓 %s is free again! Behave yourself 🍌", t.Display()), o.reply())
	return nil
}

// Kick bans the target briefly and lets them back in afterwards.
func (s *ModerationService) Kick(ctx context.Context, o Origin, admin bool, t *Target) error {
	if err := checkTarget(admin, t); err != nil {
		return err
	}
	if !s.report(o, "kick", t, s.msg.Ban(o.ChatID, t.ID, s.sched.Now().Add(s.cfg.KickDuration))) {
		return nil
	}
	chatID, userID := o.ChatID, t.ID
	s.sched.AfterFunc(s.cfg.KickDuration, func() {
		if err := s.msg.Unban(chatID, userID); err != nil {
			log.Warn().Err(err).Int64("chat_id", chatID).Int64("user_id", userID).Msg("Unban after kick failed")
		}
	})
	send(s.msg, o.ChatID, fmt.Sprintf("👢 %s was kicked out of the chat!", t.Display()), o.reply())
	return nil
}

// Ban removes the target permanently.
func (s *ModerationService) Ban(ctx context.Context, o Origin, admin bool, t *Target) error {
	if err := checkTarget(admin, t); err != nil {
		return err
	}
	if !s.report(o, "ban", t, s.msg.Ban(o.ChatID, t.ID, time.Time{})) {
		return nil
	}
	send(s.msg, o.ChatID, fmt.Sprintf("🚫 %s is banned forever! Bye-bye 🍌", t.Display()), o.reply())
	return nil
}

// Text runs a text-prefix moderation command from a reply. It reports false
// when text is not such a command or nobody is targeted. Ban and kick only
// open a confirmation for the requesting admin.
func (s *ModerationService) Text(ctx context.Context, o Origin, actor game.Player, admin bool, t *Target, text string) (bool, error) {
	cmd, args, ok := moderation.ParseText(text)
	if !ok || t == nil {
		return false, nil
	}
	if err := checkTarget(admin, t); err != nil {
		return true, err
	}
	if !cmd.NeedsConfirmation() {
		return true, s.run(ctx, o, cmd, t, args)
	}

	req := s.confirms.Open(moderation.Request{
		Command:    cmd,
		AdminID:    actor.ID,
		ChatID:     o.ChatID,
		TargetID:   t.ID,
		TargetName: t.Display(),
		Args:       args,
	})
	markup := &tele.ReplyMarkup{}
	markup.Inline(markup.Row(
		button(markup, "✅ Yes", CbConfirm, req.Key, "yes"),
		button(markup, "❌ No", CbConfirm, req.Key, "no"),
	))
	prompt := fmt.Sprintf("❓ %s: %s %s?\n⏳ Confirm within %s", actor.Display(), cmd, t.Display(), moderation.HumanDuration(s.cfg.ConfirmTimeout))
	send(s.msg, o.ChatID, prompt, messenger.Options{ReplyTo: o.MessageID, ThreadID: o.ThreadID, Markup: markup})
	return true, nil
}

// Confirm answers a pending confirmation. Only the admin who asked may press it.
func (s *ModerationService) Confirm(ctx context.Context, o Origin, actor game.Player, key string, yes bool) (string, error) {
	req, err := s.confirms.Take(key, actor.ID)
	if err != nil {
		return "", err
	}
	if !yes {
		edit(s.msg, o.Ref(), "❌ Action cancelled.", messenger.Options{})
		return "Cancelled", nil
	}

	t := &Target{Player: game.Player{ID: req.TargetID, Name: req.TargetName}}
	edit(s.msg, o.Ref(), fmt.Sprintf("✅ Confirmed: %s %s", req.Command, req.TargetName), messenger.Options{})
	if err := s.run(ctx, Origin{ChatID: req.ChatID, ThreadID: o.ThreadID}, req.Command, t, req.Args); err != nil {
		return "", err
	}
	return "✅ Done", nil
}

func (s *ModerationService) run(ctx context.Context, o Origin, cmd moderation.Command, t *Target, args []string) error {
	switch cmd {
	case moderation.CmdMute:
		return s.Jail(ctx, o, true, t, args)
	case moderation.CmdFree:
		return s.Free(ctx, o, true, t)
	case moderation.CmdWarn:
		return s.Warn(ctx, o, true, t)
	case moderation.CmdUnwarn:
		return s.Unwarn(ctx, o, true, t)
	case moderation.CmdBan:
		return s.Ban(ctx, o, true, t)
	case moderation.CmdKick:
		return s.Kick(ctx, o, true, t)
	default:
		return apperr.Inputf("unknown moderation command %q", cmd)
	}
}
