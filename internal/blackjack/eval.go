package blackjack

import "onchainblackjack/internal/cards"

const (
	// BlackjackTotal is the best possible hand; anything above busts.
	BlackjackTotal = 21
	// DealerStandTotal is the (soft-inclusive) total the dealer stands on.
	DealerStandTotal = 17

	acePromotion = 10
)

// BasePoint is the hard total of hand (every ace counted as 1) and the number
// of aces in it.
func BasePoint(hand []cards.Card) (point uint32, aceCount uint32) {
	for _, c := range hand {
		point += uint32(c.ScoreValue())
		if c.IsAce() {
			aceCount++
		}
	}
	return point, aceCount
}

// PlayerTotal promotes aces from 1 to 11 while doing so keeps the hand at or
// under 21.
func PlayerTotal(hand []cards.Card) uint32 {
	point, aces := BasePoint(hand)
	return promoteAces(point, aces)
}

// DealerTotal returns the hard total when optimizeAces is false, otherwise the
// same ace-promoted total as PlayerTotal.
func DealerTotal(hand []cards.Card, optimizeAces bool) uint32 {
	point, aces := BasePoint(hand)
	if !optimizeAces {
		return point
	}
	return promoteAces(point, aces)
}

func promoteAces(point, aces uint32) uint32 {
	for aces > 0 && point+acePromotion <= BlackjackTotal {
		point += acePromotion
		aces--
	}
	return point
}

// IsSoft reports whether the optimized total counts at least one ace as 11.
func IsSoft(hand []cards.Card) bool {
	point, aces := BasePoint(hand)
	return aces > 0 && promoteAces(point, aces) != point
}

func IsBust(hand []cards.Card) bool {
	return PlayerTotal(hand) > BlackjackTotal
}

// IsNatural reports a two-card 21.
func IsNatural(hand []cards.Card) bool {
	return len(hand) == 2 && PlayerTotal(hand) == BlackjackTotal
}
