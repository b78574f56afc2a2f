package blackjack

import (
	"fmt"
	"strings"

	abci "github.com/cometbft/cometbft/abci/types"

	"onchainblackjack/internal/cards"
	"onchainblackjack/internal/state"
)

const (
	EventTypeSessionStarted       = "SessionStarted"
	EventTypeCardDealt            = "CardDealt"
	EventTypeStakeEscrowed        = "StakeEscrowed"
	EventTypeSessionResolved      = "SessionResolved"
	EventTypePayoutSent           = "PayoutSent"
	EventTypeActionRequested      = "ActionRequested"
	EventTypeActionRevealed       = "ActionRevealed"
	EventTypeRevealExpired        = "RevealExpired"
	EventTypeBetChanged           = "BetChanged"
	EventTypeOwnershipTransferred = "OwnershipTransferred"
)

const (
	HandPlayer = "player"
	HandDealer = "dealer"
)

func attr(key, value string, index bool) abci.EventAttribute {
	return abci.EventAttribute{Key: key, Value: value, Index: index}
}

func sessionAttrs(s *state.Session) []abci.EventAttribute {
	return []abci.EventAttribute{
		attr("player", s.Player, true),
		attr("sessionIndex", fmt.Sprintf("%d", s.Index), true),
	}
}

func sessionStartedEvent(s *state.Session, initialAction bool) abci.Event {
	return abci.Event{
		Type: EventTypeSessionStarted,
		Attributes: append(sessionAttrs(s),
			attr("bet", s.BetAmount.String(), false),
			attr("initialAction", fmt.Sprintf("%t", initialAction), false),
		),
	}
}

func cardDealtEvent(s *state.Session, hand string, c cards.Card) abci.Event {
	return abci.Event{
		Type: EventTypeCardDealt,
		Attributes: append(sessionAttrs(s),
			attr("hand", hand, true),
			attr("card", fmt.Sprintf("%d", uint8(c)), false),
			attr("cardName", c.String(), false),
		),
	}
}

func stakeEscrowedEvent(s *state.Session, amount fmt.Stringer) abci.Event {
	return abci.Event{
		Type: EventTypeStakeEscrowed,
		Attributes: append(sessionAttrs(s),
			attr("amount", amount.String(), false),
			attr("pot", PotAccount, false),
		),
	}
}

func sessionResolvedEvent(s *state.Session) abci.Event {
	return abci.Event{
		Type: EventTypeSessionResolved,
		Attributes: append(sessionAttrs(s),
			attr("status", s.Status.String(), true),
			attr("playerTotal", fmt.Sprintf("%d", PlayerTotal(s.PlayerCards)), false),
			attr("dealerTotal", fmt.Sprintf("%d", DealerTotal(s.DealerCards, true)), false),
			attr("playerCards", strings.Join(cards.Strings(s.PlayerCards), ","), false),
			attr("dealerCards", strings.Join(cards.Strings(s.DealerCards), ","), false),
			attr("stake", s.BetAmount.String(), false),
			attr("payout", s.Payout.String(), false),
		),
	}
}

func payoutSentEvent(s *state.Session) abci.Event {
	return abci.Event{
		Type: EventTypePayoutSent,
		Attributes: append(sessionAttrs(s),
			attr("amount", s.Payout.String(), false),
		),
	}
}

func pendingEvent(typ string, s *state.Session, p state.PendingAction) abci.Event {
	return abci.Event{
		Type: typ,
		Attributes: append(sessionAttrs(s),
			attr("action", p.Label(), true),
			attr("step", fmt.Sprintf("%d", p.Step), false),
			attr("deadline", fmt.Sprintf("%d", p.Deadline), false),
		),
	}
}
