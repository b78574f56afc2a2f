package blackjack

import (
	"testing"

	"github.com/stretchr/testify/require"

	"onchainblackjack/internal/cards"
)

func TestBasePoint(t *testing.T) {
	point, aces := BasePoint([]cards.Card{0x11, 0x12, 0x13})
	require.Equal(t, uint32(6), point)
	require.Equal(t, uint32(1), aces)

	point, aces = BasePoint(nil)
	require.Zero(t, point)
	require.Zero(t, aces)

	point, aces = BasePoint([]cards.Card{0x11, 0x21, 0x3d})
	require.Equal(t, uint32(12), point)
	require.Equal(t, uint32(2), aces)
}

func TestPlayerTotal_PromotesAce(t *testing.T) {
	require.Equal(t, uint32(16), PlayerTotal([]cards.Card{0x21, 0x22, 0x23}))
	require.Equal(t, uint32(21), PlayerTotal([]cards.Card{0x11, 0x1d}))
	// Two aces: only one can count as 11.
	require.Equal(t, uint32(12), PlayerTotal([]cards.Card{0x11, 0x21}))
	// Promotion would bust: stays hard.
	require.Equal(t, uint32(17), PlayerTotal([]cards.Card{0x11, 0x1a, 0x26}))
	// Already bust without aces: never improved.
	require.Equal(t, uint32(23), PlayerTotal([]cards.Card{0x1a, 0x2b, 0x21, 0x22}))
}

func TestDealerTotal_Modes(t *testing.T) {
	hand := []cards.Card{0x21, 0x23, 0x23}
	require.Equal(t, uint32(7), DealerTotal(hand, false))
	require.Equal(t, uint32(17), DealerTotal(hand, true))

	require.Equal(t, uint32(16), DealerTotal([]cards.Card{0x21, 0x22, 0x23}, true))
	require.Equal(t, uint32(6), DealerTotal([]cards.Card{0x21, 0x22, 0x23}, false))
	require.Zero(t, DealerTotal(nil, true))
}

func TestSoftAndNatural(t *testing.T) {
	require.True(t, IsSoft([]cards.Card{0x11, 0x46}))
	require.False(t, IsSoft([]cards.Card{0x11, 0x46, 0x2a}))
	require.False(t, IsSoft([]cards.Card{0x1a, 0x46}))

	require.True(t, IsNatural([]cards.Card{0x11, 0x2c}))
	require.False(t, IsNatural([]cards.Card{0x17, 0x27, 0x37}))
	require.False(t, IsNatural([]cards.Card{0x11}))

	require.True(t, IsBust([]cards.Card{0x1a, 0x2a, 0x32}))
	require.False(t, IsBust([]cards.Card{0x1a, 0x2a, 0x31}))
}

func FuzzHandTotals(f *testing.F) {
	f.Add([]byte{0x11, 0x12, 0x13})
	f.Add([]byte{0x21, 0x23, 0x23})
	f.Add([]byte{0x11, 0x21, 0x31, 0x41, 0x1d})

	f.Fuzz(func(t *testing.T, raw []byte) {
		hand := make([]cards.Card, 0, len(raw))
		for _, b := range raw {
			if c := cards.Card(b); c.Valid() {
				hand = append(hand, c)
			}
		}

		point, aces := BasePoint(hand)
		var sum, wantAces uint32
		for _, c := range hand {
			sum += uint32(c.ScoreValue())
			if c.IsAce() {
				wantAces++
			}
		}
		if point != sum || aces != wantAces {
			t.Fatalf("basePoint=(%d,%d) want (%d,%d)", point, aces, sum, wantAces)
		}

		total := PlayerTotal(hand)
		if DealerTotal(hand, false) != point {
			t.Fatalf("hard dealer total %d != basePoint %d", DealerTotal(hand, false), point)
		}
		if DealerTotal(hand, true) != total {
			t.Fatalf("soft dealer total %d != player total %d", DealerTotal(hand, true), total)
		}
		if total < point || (total-point)%acePromotion != 0 || (total-point)/acePromotion > aces {
			t.Fatalf("total %d not reachable from hard %d with %d aces", total, point, aces)
		}
		if point > BlackjackTotal && total != point {
			t.Fatalf("hard bust %d was improved to %d", point, total)
		}
		if total > BlackjackTotal && total != point {
			t.Fatalf("promotion busted the hand: %d", total)
		}
		// Maximal: one more promotion would bust or no ace is left.
		promoted := (total - point) / acePromotion
		if promoted < aces && total+acePromotion <= BlackjackTotal {
			t.Fatalf("total %d left a promotable ace", total)
		}
	})
}
