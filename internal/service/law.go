package service

import (
	"context"
	"fmt"
	"html"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	tele "gopkg.in/telebot.v3"

	"banana-bot/internal/apperr"
	"banana-bot/internal/config"
	"banana-bot/internal/game"
	"banana-bot/internal/law"
	"banana-bot/internal/ledger"
	"banana-bot/internal/messenger"
	"banana-bot/internal/metrics"
	"banana-bot/internal/model"
	"banana-bot/internal/timer"
)

// Law service errors
var (
	ErrAdminOnly   = apperr.Forbidden("🚫 only the Big Bananas can do that!")
	ErrBadProposal = apperr.Input("this proposal button is broken")

	ErrAppealAdminOnly = apperr.Forbidden("only admins can review appeals!")
)

// LawService enforces chat laws and runs appeals and proposals.
type LawService struct {
	cfg      config.LawConfig
	enforcer *law.Enforcer
	ledger   *ledger.Ledger
	msg      messenger.Messenger
	clock    timer.Scheduler
	rand     game.Random
	metrics  *metrics.Metrics
}

// NewLawService creates a new LawService instance.
func NewLawService(
	cfg config.LawConfig,
	enforcer *law.Enforcer,
	l *ledger.Ledger,
	msg messenger.Messenger,
	clock timer.Scheduler,
	r game.Random,
	m *metrics.Metrics,
) *LawService {
	return &LawService{
		cfg:      cfg,
		enforcer: enforcer,
		ledger:   l,
		msg:      msg,
		clock:    clock,
		rand:     r,
		metrics:  m,
	}
}

// Show reports the chat's active law.
func (s *LawService) Show(ctx context.Context, o Origin) error {
	l, ok := s.enforcer.Active(o.ChatID)
	if !ok {
		send(s.msg, o.ChatID, "📜 No law is in force right now.", o.reply())
		return nil
	}
	text := fmt.Sprintf("📜 Current law: %s\n⏳ Time left: %d min", l.Text, int(l.Remaining(s.clock.Now()).Minutes()))
	send(s.msg, o.ChatID, text, o.reply())
	return nil
}

// Set installs text as the chat's law. Only admins may call it.
func (s *LawService) Set(ctx context.Context, o Origin, adminID int64, admin bool, text string) error {
	if !admin {
		return ErrAdminOnly
	}
	l, err := s.enforcer.Set(o.ChatID, adminID, text, s.cfg.Duration)
	if err != nil {
		return err
	}
	s.announce(o, l)
	return nil
}

// Random installs a random catalog law.
func (s *LawService) Random(ctx context.Context, o Origin, adminID int64, admin bool) error {
	return s.Set(ctx, o, adminID, admin, s.enforcer.Catalog().Random(s.rand))
}

func (s *LawService) announce(o Origin, l law.Law) {
	text := fmt.Sprintf("📜 NEW LAW!\n%s\n\n⏳ In force for %d minutes. Breaking it costs bananas and a mute!",
		l.Text, int(s.cfg.Duration.Minutes()))
	if !l.Enforceable() {
		text += "\n\n⚠️ This law is not checked automatically."
	}
	send(s.msg, o.ChatID, text, o.inThread())
}

// Law handles /law: no text shows the law, an admin sets it, anyone else proposes it.
func (s *LawService) Law(ctx context.Context, o Origin, user game.Player, admin bool, text string) error {
	switch {
	case text == "":
		return s.Show(ctx, o)
	case admin:
		return s.Set(ctx, o, user.ID, true, text)
	default:
		return s.Propose(ctx, o, user, text)
	}
}

// Propose posts a law proposal for admins to decide.
func (s *LawService) Propose(ctx context.Context, o Origin, user game.Player, text string) error {
	p, err := s.enforcer.Propose(o.ChatID, user.ID, user.Display(), text)
	if err != nil {
		return err
	}
	markup := &tele.ReplyMarkup{}
	markup.Inline(markup.Row(
		button(markup, "✅ Accept", CbLawProposal, p.ID.String(), "yes"),
		button(markup, "❌ Reject", CbLawProposal, p.ID.String(), "no"),
	))
	msg := fmt.Sprintf("📝 %s proposes a law:\n%s\n\nAdmins, decide!", p.Proposer, p.Text)
	send(s.msg, o.ChatID, msg, messenger.Options{ReplyTo: o.MessageID, ThreadID: o.ThreadID, Markup: markup})
	return nil
}

// DecideProposal accepts or rejects a proposal. Only admins may decide.
func (s *LawService) DecideProposal(ctx context.Context, o Origin, adminID int64, admin bool, id string, accept bool) (string, error) {
	if !admin {
		return "", ErrAdminOnly
	}
	pid, err := uuid.Parse(id)
	if err != nil {
		return "", ErrBadProposal
	}
	p, err := s.enforcer.TakeProposal(pid)
	if err != nil {
		return "", err
	}

	if !accept {
		edit(s.msg, o.Ref(), fmt.Sprintf("❌ The law proposed by %s was rejected:\n%s", p.Proposer, p.Text), messenger.Options{})
		return "❌ Rejected", nil
	}
	l, err := s.enforcer.Set(p.ChatID, adminID, p.Text, s.cfg.Duration)
	if err != nil {
		return "", err
	}
	edit(s.msg, o.Ref(), fmt.Sprintf("✅ The law proposed by %s was accepted:\n%s", p.Proposer, p.Text), messenger.Options{})
	s.announce(Origin{ChatID: p.ChatID, ThreadID: o.ThreadID}, l)
	return "✅ Accepted", nil
}

// Violation describes a punished message.
type Violation struct {
	Law        law.Law
	Fine       int64
	Balance    int64
	MutedUntil time.Time
}

// Check tests a plain message against the chat's law and punishes a
// violation with a fine, a mute and an open appeal.
func (s *LawService) Check(ctx context.Context, o Origin, user game.Player, text string) (Violation, bool) {
	l, broken := s.enforcer.Check(o.ChatID, text)
	if !broken {
		return Violation{}, false
	}

	v := Violation{
		Law:        l,
		Fine:       game.Between(s.rand, s.cfg.FineMin, s.cfg.FineMax),
		MutedUntil: s.clock.Now().Add(s.cfg.MuteDuration),
	}
	v.Balance = s.ledger.AddCurrency(ctx, user.ID, -v.Fine)

	if err := s.msg.Mute(o.ChatID, user.ID, v.MutedUntil); err != nil {
		log.Warn().Err(err).Int64("chat_id", o.ChatID).Int64("user_id", user.ID).Msg("Mute for law violation failed")
	}

	s.enforcer.OpenAppeal(law.Appeal{
		Key:        law.AppealKey{ChatID: o.ChatID, MessageID: o.MessageID},
		UserID:     user.ID,
		UserName:   user.Display(),
		Law:        l.Text,
		Message:    text,
		Fine:       v.Fine,
		MutedUntil: v.MutedUntil,
	})
	s.metrics.PendingAppeals.Set(float64(s.enforcer.Appeals()))

	markup := &tele.ReplyMarkup{}
	markup.Inline(markup.Row(button(markup, "🚨 Appeal", CbAppeal, strconv.Itoa(o.MessageID))))
	notice := fmt.Sprintf("🚨 %s broke the law!\n📜 Law: %s\n💸 Fine: %d🍌 + %d min mute\n\nIf this is a mistake, press the button below",
		user.Display(), l.Text, v.Fine, int(s.cfg.MuteDuration.Minutes()))
	send(s.msg, o.ChatID, notice, messenger.Options{ReplyTo: o.MessageID, ThreadID: o.ThreadID, Markup: markup})
	return v, true
}

func parseMessageID(arg string) (int, error) {
	id, err := strconv.Atoi(arg)
	if err != nil {
		return 0, law.ErrNoAppeal
	}
	return id, nil
}

// ReviewAppeal turns the punishment notice into an admin decision panel.
func (s *LawService) ReviewAppeal(ctx context.Context, o Origin, admin bool, arg string) (string, error) {
	if !admin {
		return "", ErrAppealAdminOnly
	}
	msgID, err := parseMessageID(arg)
	if err != nil {
		return "", err
	}
	a, err := s.enforcer.Appeal(law.AppealKey{ChatID: o.ChatID, MessageID: msgID})
	if err != nil {
		return "", err
	}

	markup := &tele.ReplyMarkup{}
	markup.Inline(markup.Row(
		button(markup, "✅ Cancel the penalty", CbAppealDecide, arg, "approve"),
		button(markup, "❌ Reject", CbAppealDecide, arg, "reject"),
	))
	text := fmt.Sprintf("🚨 Violation appeal\n\n👤 User: %s\n📜 Law: %s\n✉️ Message: %s\n\nChoose an action:",
		html.EscapeString(a.UserName), html.EscapeString(a.Law), html.EscapeString(a.Message))
	edit(s.msg, o.Ref(), text, messenger.Options{Markup: markup, HTML: true})
	return "", nil
}

// DecideAppeal approves or rejects an appeal. Approval refunds the fine
// and lifts the mute. Either way the appeal is closed.
func (s *LawService) DecideAppeal(ctx context.Context, o Origin, admin bool, arg string, approve bool) (string, error) {
	if !admin {
		return "", ErrAppealAdminOnly
	}
	msgID, err := parseMessageID(arg)
	if err != nil {
		return "", err
	}
	a, err := s.enforcer.ResolveAppeal(law.AppealKey{ChatID: o.ChatID, MessageID: msgID})
	if err != nil {
		return "", err
	}
	s.metrics.PendingAppeals.Set(float64(s.enforcer.Appeals()))

	if !approve {
		edit(s.msg, o.Ref(), fmt.Sprintf("❌ Appeal rejected!\n👤 %s stays punished\nThe law is the law!", a.UserName), messenger.Options{})
		return "❌ Rejected", nil
	}

	_, _ = s.ledger.Mutate(ctx, a.UserID, func(u *model.UserRecord) error {
		u.Balance += a.Fine
		return nil
	})
	if err := s.msg.Unmute(o.ChatID, a.UserID); err != nil {
		log.Warn().Err(err).Int64("chat_id", o.ChatID).Int64("user_id", a.UserID).Msg("Unmute after appeal failed")
	}
	edit(s.msg, o.Ref(), fmt.Sprintf("✅ Penalty cancelled!\n👤 %s got %d🍌 back\nSorry for the mistake!", a.UserName, a.Fine), messenger.Options{})
	return "✅ Approved", nil
}
