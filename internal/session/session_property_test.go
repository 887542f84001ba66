// Property-based tests for the session registry.
// **Feature: session-registry, Property: Single Live Session Per Chat**
package session

import (
	"testing"
	"time"

	"pgregory.net/rapid"

	"banana-bot/internal/timer"
)

// TestSingleSessionPerChatProperty drives random create, destroy and expiry
// operations against a model and checks the registry never holds two
// sessions for a chat and never keeps an expired one.
func TestSingleSessionPerChatProperty(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		clock := timer.NewManual(time.Unix(0, 0))
		r := NewRegistry[*counter](KindRPS, clock)
		live := map[int64]bool{}

		steps := rapid.IntRange(1, 60).Draw(t, "steps")
		for i := 0; i < steps; i++ {
			chat := rapid.Int64Range(1, 4).Draw(t, "chat")
			switch rapid.IntRange(0, 3).Draw(t, "op") {
			case 0:
				_, _, err := r.TryCreate(chat, newCounter)
				if live[chat] && err == nil {
					t.Fatalf("TryCreate succeeded on live chat %d", chat)
				}
				if !live[chat] && err != nil {
					t.Fatalf("TryCreate failed on free chat %d: %v", chat, err)
				}
				live[chat] = true
			case 1:
				_, ok := r.Destroy(chat)
				if ok != live[chat] {
					t.Fatalf("Destroy(%d) = %v, model says %v", chat, ok, live[chat])
				}
				delete(live, chat)
			case 2:
				_, err := r.Arm(chat, time.Second, func(*counter, Handle) { delete(live, chat) })
				if (err == nil) != live[chat] {
					t.Fatalf("Arm(%d) err=%v, model live=%v", chat, err, live[chat])
				}
			case 3:
				clock.Advance(time.Second)
			}

			if r.Len() != len(live) {
				t.Fatalf("Registry holds %d sessions, model %d", r.Len(), len(live))
			}
		}
	})
}
