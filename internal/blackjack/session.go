package blackjack

import (
	"context"
	"math"

	errorsmod "cosmossdk.io/errors"
	sdkmath "cosmossdk.io/math"

	abci "github.com/cometbft/cometbft/abci/types"

	"onchainblackjack/internal/cards"
	"onchainblackjack/internal/randomness"
	"onchainblackjack/internal/state"
)

// Initial deal alternates player and dealer.
var initialDealOrder = []string{HandPlayer, HandDealer, HandPlayer, HandDealer}

type dealtCard struct {
	hand string
	card cards.Card
}

// transition is a staged session update. Nothing in it is visible until apply
// has moved every fund it needs.
type transition struct {
	next   state.Session
	escrow sdkmath.Int
	dealt  []dealtCard
	rng    randomness.Source
}

func newTransition(s *state.Session, rng randomness.Source) *transition {
	next := *s
	next.PlayerCards = append(make([]cards.Card, 0, len(s.PlayerCards)+4), s.PlayerCards...)
	next.DealerCards = append(make([]cards.Card, 0, len(s.DealerCards)+4), s.DealerCards...)
	return &transition{next: next, escrow: sdkmath.ZeroInt(), rng: rng}
}

// draw picks uniformly among the reference cards in neither hand, so no card
// repeats within a session.
func draw(rng randomness.Source, player, dealer []cards.Card) (cards.Card, error) {
	remaining := cards.Remaining(player, dealer)
	if len(remaining) == 0 {
		return 0, ErrRandomness.Wrap("deck exhausted")
	}
	i, err := rng.DrawIndex(len(remaining))
	if err != nil {
		return 0, errorsmod.Wrap(ErrRandomness, err.Error())
	}
	if i < 0 || i >= len(remaining) {
		return 0, ErrRandomness.Wrapf("index %d out of range [0,%d)", i, len(remaining))
	}
	return remaining[i], nil
}

func (t *transition) deal(hand string) error {
	c, err := draw(t.rng, t.next.PlayerCards, t.next.DealerCards)
	if err != nil {
		return err
	}
	if hand == HandPlayer {
		t.next.PlayerCards = append(t.next.PlayerCards, c)
	} else {
		t.next.DealerCards = append(t.next.DealerCards, c)
	}
	t.dealt = append(t.dealt, dealtCard{hand: hand, card: c})
	return nil
}

func (t *transition) dealerPlay() error {
	for dealerMustDraw(t.next.DealerCards) {
		if err := t.deal(HandDealer); err != nil {
			return err
		}
	}
	return nil
}

// standAndResolve plays out the dealer and decides the session.
func (t *transition) standAndResolve() error {
	if err := t.dealerPlay(); err != nil {
		return err
	}
	t.next.Status = compare(t.next.PlayerCards, t.next.DealerCards)
	return nil
}

// play runs one player action on the staged session, drawing every card it
// needs.
func (t *transition) play(kind string, initialAction bool) error {
	switch kind {
	case state.ActionStart:
		for _, hand := range initialDealOrder {
			if err := t.deal(hand); err != nil {
				return err
			}
		}
		switch {
		case IsNatural(t.next.PlayerCards):
			t.next.Status = resolveNatural(t.next.DealerCards)
		case initialAction:
			return t.standAndResolve()
		}
		return nil

	case state.ActionHit, state.ActionDouble:
		if err := t.deal(HandPlayer); err != nil {
			return err
		}
		switch {
		case IsBust(t.next.PlayerCards):
			t.next.Status = state.StatusPlayerBust
		case kind == state.ActionDouble:
			return t.standAndResolve()
		}
		return nil

	case state.ActionStand:
		return t.standAndResolve()

	default:
		return ErrInvalidState.Wrapf("unknown action %q", kind)
	}
}

// double matches the stake for a double down on the initial two-card hand.
func (t *transition) double() error {
	s := &t.next
	if s.Doubled || len(s.PlayerCards) != InitialPlayerCards {
		return ErrInvalidState.Wrap("double is only allowed on the initial two-card hand")
	}
	stake, err := s.BetAmount.SafeAdd(s.BetAmount)
	if err != nil {
		return ErrInvalidRequest.Wrapf("doubled stake overflows: %v", err)
	}
	t.escrow = s.BetAmount
	s.BetAmount = stake
	s.Doubled = true
	return nil
}

func hitKind(double bool) string {
	if double {
		return state.ActionDouble
	}
	return state.ActionHit
}

// newSession validates a start for player and returns the unsaved session.
func (k Keeper) newSession(player string) (*state.Session, error) {
	if player == "" {
		return nil, ErrInvalidRequest.Wrap("missing player")
	}
	if player == PotAccount {
		return nil, ErrInvalidRequest.Wrap("pot account cannot play")
	}
	bet := k.game.Bet
	if bet.IsNil() || !bet.IsPositive() {
		return nil, ErrInvalidState.Wrap("bet is not configured")
	}
	return &state.Session{
		Player:      player,
		Index:       k.game.NextSessionIndex(player),
		Status:      state.StatusPlaying,
		BetAmount:   bet,
		Payout:      sdkmath.ZeroInt(),
		StartHeight: k.height,
	}, nil
}

func (k Keeper) playing(player string, index uint64) (*state.Session, error) {
	if player == "" {
		return nil, ErrInvalidRequest.Wrap("missing player")
	}
	s, err := k.GetSession(player, index)
	if err != nil {
		return nil, err
	}
	if s.Status != state.StatusPlaying {
		return nil, ErrInvalidState.Wrapf("session %s/%d is %s", player, index, s.Status)
	}
	if s.Pending != nil {
		return nil, ErrInvalidState.Wrapf("session %s/%d: %s awaits reveal", player, index, s.Pending.Kind)
	}
	return s, nil
}

// Start escrows the configured bet from player and deals a new session. A
// natural resolves at once; initialAction stands right after the deal.
func (k Keeper) Start(ctx context.Context, player string, initialAction bool, rng randomness.Source) (*state.Session, []abci.Event, error) {
	s, err := k.newSession(player)
	if err != nil {
		return nil, nil, err
	}
	if rng == nil {
		return nil, nil, ErrRandomness.Wrap("no randomness source")
	}

	t := newTransition(s, rng)
	t.escrow = s.BetAmount
	if err := t.play(state.ActionStart, initialAction); err != nil {
		return nil, nil, err
	}

	s, events, err := k.apply(ctx, nil, t)
	if err != nil {
		return nil, nil, err
	}
	events = append([]abci.Event{sessionStartedEvent(s, initialAction)}, events...)
	k.logger.Info("session started", "player", player, "index", s.Index, "bet", s.BetAmount.String(), "status", s.Status.String())
	return s, events, nil
}

// Hit draws one card for the player. With double the stake is matched first,
// exactly one card is drawn and the hand then stands automatically. Reaching
// 21 without doubling leaves the session in play.
func (k Keeper) Hit(ctx context.Context, player string, index uint64, double bool, rng randomness.Source) (*state.Session, []abci.Event, error) {
	s, err := k.playing(player, index)
	if err != nil {
		return nil, nil, err
	}
	if rng == nil {
		return nil, nil, ErrRandomness.Wrap("no randomness source")
	}

	t := newTransition(s, rng)
	if double {
		if err := t.double(); err != nil {
			return nil, nil, err
		}
	}
	if err := t.play(hitKind(double), false); err != nil {
		return nil, nil, err
	}
	return k.apply(ctx, s, t)
}

// Stand plays out the dealer and resolves the session.
func (k Keeper) Stand(ctx context.Context, player string, index uint64, rng randomness.Source) (*state.Session, []abci.Event, error) {
	s, err := k.playing(player, index)
	if err != nil {
		return nil, nil, err
	}
	if rng == nil {
		return nil, nil, ErrRandomness.Wrap("no randomness source")
	}

	t := newTransition(s, rng)
	if err := t.play(state.ActionStand, false); err != nil {
		return nil, nil, err
	}
	return k.apply(ctx, s, t)
}

// apply checks every funding precondition, moves escrow and payout, and only
// then commits the staged session. existing is nil for a new session.
func (k Keeper) apply(ctx context.Context, existing *state.Session, t *transition) (*state.Session, []abci.Event, error) {
	next := &t.next
	if next.Actions == math.MaxUint32 {
		return nil, nil, ErrInvalidState.Wrap("session action counter exhausted")
	}
	next.Actions++

	payout := sdkmath.ZeroInt()
	if next.Status.IsTerminal() {
		payout = Payout(next.Status, next.BetAmount)
	}

	if t.escrow.IsPositive() {
		if err := k.checkEscrow(ctx, next.Player, t.escrow); err != nil {
			return nil, nil, err
		}
	}
	if err := k.checkSolvency(ctx, t.escrow, payout); err != nil {
		return nil, nil, err
	}

	events, err := k.moveEscrow(ctx, next, t.escrow)
	if err != nil {
		return nil, nil, err
	}
	for _, d := range t.dealt {
		events = append(events, cardDealtEvent(next, d.hand, d.card))
	}

	if next.Status.IsTerminal() {
		if err := k.settle(ctx, next, payout); err != nil {
			return nil, nil, err
		}
		events = append(events, sessionResolvedEvent(next))
		if next.Payout.IsPositive() {
			events = append(events, payoutSentEvent(next))
		}
		k.logger.Info("session resolved",
			"player", next.Player,
			"index", next.Index,
			"status", next.Status.String(),
			"stake", next.BetAmount.String(),
			"payout", next.Payout.String(),
		)
	}

	return k.commit(existing, next), events, nil
}

// moveEscrow pulls amount from the player into the pot. Callers have already
// checked allowance and balance.
func (k Keeper) moveEscrow(ctx context.Context, s *state.Session, amount sdkmath.Int) ([]abci.Event, error) {
	if !amount.IsPositive() {
		return nil, nil
	}
	if err := k.ledger.TransferFrom(ctx, PotAccount, s.Player, PotAccount, amount); err != nil {
		return nil, escrowError(err)
	}
	k.logger.Debug("stake escrowed", "player", s.Player, "index", s.Index, "amount", amount.String())
	return []abci.Event{stakeEscrowedEvent(s, amount)}, nil
}

// commit writes the staged session over existing, or appends it when existing
// is nil.
func (k Keeper) commit(existing, next *state.Session) *state.Session {
	if existing == nil {
		existing = new(state.Session)
		*existing = *next
		k.game.AppendSession(existing)
		return existing
	}
	*existing = *next
	return existing
}

func (k Keeper) checkEscrow(ctx context.Context, player string, amount sdkmath.Int) error {
	if allowed := k.ledger.Allowance(ctx, player, PotAccount); allowed.IsNil() || allowed.LT(amount) {
		return ErrInsufficientApproval.Wrapf("allowance=%s need=%s", allowed, amount)
	}
	if have := k.ledger.BalanceOf(ctx, player); have.IsNil() || have.LT(amount) {
		return ErrInsufficientFunds.Wrapf("balance=%s need=%s", have, amount)
	}
	return nil
}

// checkSolvency requires the pot, counting the stake about to arrive, to cover
// the payout the transition owes.
func (k Keeper) checkSolvency(ctx context.Context, incoming, payout sdkmath.Int) error {
	if !payout.IsPositive() {
		return nil
	}
	pot := k.ledger.BalanceOf(ctx, PotAccount)
	if pot.IsNil() {
		pot = sdkmath.ZeroInt()
	}
	if avail := pot.Add(incoming); avail.LT(payout) {
		return ErrHouseInsolvent.Wrapf("pot=%s incoming=%s payout=%s", pot, incoming, payout)
	}
	return nil
}

// settle pays out a terminal session exactly once.
func (k Keeper) settle(ctx context.Context, s *state.Session, payout sdkmath.Int) error {
	if s.Settled {
		return ErrAlreadySettled.Wrapf("session %s/%d", s.Player, s.Index)
	}
	if !s.Status.IsTerminal() {
		return ErrInvalidState.Wrapf("session %s/%d is %s", s.Player, s.Index, s.Status)
	}
	if payout.IsPositive() {
		if err := k.ledger.Transfer(ctx, PotAccount, s.Player, payout); err != nil {
			return errorsmod.Wrap(ErrHouseInsolvent, err.Error())
		}
		k.logger.Debug("payout sent", "player", s.Player, "index", s.Index, "amount", payout.String())
	}
	s.Settled = true
	s.Payout = payout
	s.EndHeight = k.height
	return nil
}
