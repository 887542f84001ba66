package service

import (
	"context"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	tele "gopkg.in/telebot.v3"

	"banana-bot/internal/ledger"
	"banana-bot/internal/messenger"
	"banana-bot/internal/messenger/mocks"
	"banana-bot/internal/metrics"
	"banana-bot/internal/repository"
	"banana-bot/internal/timer"
)

const (
	testChat   = int64(-1001)
	anchorID   = 100
	triggerMsg = 7
)

var testStart = time.Date(2025, 1, 1, 10, 0, 0, 0, time.UTC)

type fixture struct {
	ctx     context.Context
	clock   *timer.Manual
	ledger  *ledger.Ledger
	msg     *mocks.MockMessenger
	metrics *metrics.Metrics
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	clk := timer.NewManual(testStart)
	store := repository.NewFileStore(filepath.Join(t.TempDir(), "stats.json"))
	l := ledger.New(store, ledger.WithClock(clk.Now))
	l.Load(context.Background())

	f := &fixture{
		ctx:     context.Background(),
		clock:   clk,
		ledger:  l,
		msg:     &mocks.MockMessenger{},
		metrics: metrics.New(prometheus.NewRegistry()),
	}
	f.msg.On("Send", mock.Anything, mock.Anything, mock.Anything).Return(messenger.Ref{ChatID: testChat, MessageID: anchorID}, nil).Maybe()
	f.msg.On("Edit", mock.Anything, mock.Anything, mock.Anything).Return(nil).Maybe()
	f.msg.On("Delete", mock.Anything).Return(nil).Maybe()
	f.msg.On("Mute", mock.Anything, mock.Anything, mock.Anything).Return(nil).Maybe()
	f.msg.On("Unmute", mock.Anything, mock.Anything).Return(nil).Maybe()
	f.msg.On("Ban", mock.Anything, mock.Anything, mock.Anything).Return(nil).Maybe()
	f.msg.On("Unban", mock.Anything, mock.Anything).Return(nil).Maybe()
	return f
}

func (f *fixture) origin() Origin {
	return Origin{ChatID: testChat, MessageID: triggerMsg}
}

// texts returns the text argument of every call to method, in order.
func (f *fixture) texts(method string) []string {
	var out []string
	for _, c := range f.msg.Calls {
		if c.Method == method {
			out = append(out, c.Arguments.String(1))
		}
	}
	return out
}

func (f *fixture) lastText(t *testing.T, method string) string {
	t.Helper()
	texts := f.texts(method)
	require.NotEmpty(t, texts, "no %s calls", method)
	return texts[len(texts)-1]
}

func (f *fixture) called(method string) int {
	n := 0
	for _, c := range f.msg.Calls {
		if c.Method == method {
			n++
		}
	}
	return n
}

func anyContains(texts []string, sub string) bool {
	for _, s := range texts {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}

// sendMarkupData returns the callback data of the first button of the last
// message sent with a keyboard.
func sendMarkupData(t *testing.T, f *fixture) string {
	t.Helper()
	buttons := lastButtons(t, f, "Send")
	require.NotEmpty(t, buttons)
	return buttons[0]
}

// lastButtons flattens the keyboard of the last method call that carried one
// into callback data strings.
func lastButtons(t *testing.T, f *fixture, method string) []string {
	t.Helper()
	for i := len(f.msg.Calls) - 1; i >= 0; i-- {
		c := f.msg.Calls[i]
		if c.Method != method {
			continue
		}
		opts, ok := c.Arguments.Get(2).(messenger.Options)
		if !ok || opts.Markup == nil {
			continue
		}
		var out []string
		for _, row := range opts.Markup.InlineKeyboard {
			for _, b := range row {
				out = append(out, callbackData(b))
			}
		}
		return out
	}
	t.Fatalf("no %s call carried a keyboard", method)
	return nil
}

func callbackData(b tele.InlineButton) string {
	if b.Unique == "" {
		return b.Data
	}
	data := "\f" + b.Unique
	if b.Data != "" {
		data += "|" + b.Data
	}
	return data
}

// fail makes every call to method return err, ahead of the default stubs.
func (f *fixture) fail(method string, err error, args ...interface{}) {
	call := f.msg.On(method, args...).Return(err)
	n := len(f.msg.ExpectedCalls)
	f.msg.ExpectedCalls = append([]*mock.Call{call}, f.msg.ExpectedCalls[:n-1]...)
}
