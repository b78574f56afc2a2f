package blackjack

import (
	sdkmath "cosmossdk.io/math"

	"onchainblackjack/internal/cards"
	"onchainblackjack/internal/state"
)

const (
	// PotAccount holds every escrowed stake and pays out winnings. Players
	// approve it as spender before starting a session.
	PotAccount = ModuleName

	InitialPlayerCards = 2
	// Both dealer cards are dealt face up; there is no hole card and no peek.
	InitialDealerCards = 2
)

// Winnings paid on top of the returned stake, as numerator/denominator.
const (
	blackjackWinNum = 3
	blackjackWinDen = 2
	regularWinNum   = 1
	regularWinDen   = 1
)

// DefaultRevealTimeoutBlocks is used when the game does not set its own.
const DefaultRevealTimeoutBlocks uint64 = 20

// Payout is the total returned to the player (stake included) for a terminal
// status. Fractions are truncated toward zero. An expired reveal pays the best
// ratio any reveal could have produced, so withholding never saves the house.
func Payout(status state.Status, stake sdkmath.Int) sdkmath.Int {
	switch status {
	case state.StatusPlayerBlackjack, state.StatusRevealExpired:
		return stake.Add(stake.MulRaw(blackjackWinNum).QuoRaw(blackjackWinDen))
	case state.StatusPlayerWin, state.StatusDealerBust:
		return stake.Add(stake.MulRaw(regularWinNum).QuoRaw(regularWinDen))
	case state.StatusPush:
		return stake
	default:
		return sdkmath.ZeroInt()
	}
}

// dealerMustDraw reports whether the dealer takes another card. The dealer
// stands on every 17, soft ones included.
func dealerMustDraw(dealer []cards.Card) bool {
	return DealerTotal(dealer, true) < DealerStandTotal
}

// compare picks the terminal status once the player has stood on a live hand
// and the dealer has finished drawing.
func compare(player, dealer []cards.Card) state.Status {
	p := PlayerTotal(player)
	d := DealerTotal(dealer, true)
	switch {
	case p > BlackjackTotal:
		return state.StatusPlayerBust
	case d > BlackjackTotal:
		return state.StatusDealerBust
	case p > d:
		return state.StatusPlayerWin
	case p < d:
		return state.StatusDealerWin
	default:
		return state.StatusPush
	}
}

// resolveNatural decides a session whose first two player cards total 21.
func resolveNatural(dealer []cards.Card) state.Status {
	if IsNatural(dealer) {
		return state.StatusPush
	}
	return state.StatusPlayerBlackjack
}
