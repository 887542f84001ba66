// Property-based tests for the rock-scissors-banana duel.
// **Feature: rps-duel, Property: Beats Relation Is A 3-Cycle**
package rps

import (
	"testing"

	"pgregory.net/rapid"
)

// TestBeatsRelationProperty tests that for any two choices exactly one
// beats the other when they differ and neither when they are equal.
func TestBeatsRelationProperty(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		a := rapid.SampledFrom(Choices).Draw(t, "a")
		b := rapid.SampledFrom(Choices).Draw(t, "b")

		ab, ba := Beats(a, b), Beats(b, a)
		if a == b {
			if ab || ba {
				t.Fatalf("%s beats itself", a.Code())
			}
			return
		}
		if ab == ba {
			t.Fatalf("Beats(%s,%s)=%v and Beats(%s,%s)=%v", a.Code(), b.Code(), ab, b.Code(), a.Code(), ba)
		}
	})
}

// TestScoreConservationProperty tests that total score equals the number of
// decisive rounds across any sequence of rounds.
func TestScoreConservationProperty(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		d, _ := New(stuart, dave)
		_ = d.Accept(dave.ID)

		rounds := rapid.IntRange(1, 20).Draw(t, "rounds")
		decisive := 0
		for i := 0; i < rounds; i++ {
			a := rapid.SampledFrom(Choices).Draw(t, "a")
			b := rapid.SampledFrom(Choices).Draw(t, "b")
			_, _, _ = d.Choose(stuart.ID, a)
			_, res, err := d.Choose(dave.ID, b)
			if err != nil || res == nil {
				t.Fatalf("Round did not resolve: %v", err)
			}
			if !res.Tie {
				decisive++
			}
		}

		if d.Seats[0].Score+d.Seats[1].Score != decisive {
			t.Fatalf("Scores %d+%d != decisive rounds %d", d.Seats[0].Score, d.Seats[1].Score, decisive)
		}
		if d.Round != rounds+1 {
			t.Fatalf("Round counter %d, expected %d", d.Round, rounds+1)
		}
	})
}
