package blackjack

import (
	"context"
	"math"

	abci "github.com/cometbft/cometbft/abci/types"

	"onchainblackjack/internal/randomness"
	"onchainblackjack/internal/state"
)

// With a house VRF key the table runs act-then-reveal: a player action is
// recorded as pending with its stake escrowed, and no card is drawn until the
// house reveals a proof bound to that exact action. A reveal that misses its
// deadline can be expired by anyone and pays the player.

func (k Keeper) revealTimeout() uint64 {
	if k.game.RevealTimeoutBlocks == 0 {
		return DefaultRevealTimeoutBlocks
	}
	return k.game.RevealTimeoutBlocks
}

func (k Keeper) revealDeadline() (int64, error) {
	to := k.revealTimeout()
	if k.height < 0 || to > uint64(math.MaxInt64-k.height) {
		return 0, ErrInvalidState.Wrapf("reveal deadline overflows: height=%d timeout=%d", k.height, to)
	}
	return k.height + int64(to), nil
}

// RequestStart escrows the configured bet and opens a session whose deal
// waits for the house reveal.
func (k Keeper) RequestStart(ctx context.Context, player string, initialAction bool) (*state.Session, []abci.Event, error) {
	s, err := k.newSession(player)
	if err != nil {
		return nil, nil, err
	}
	t := newTransition(s, nil)
	t.escrow = s.BetAmount
	s, events, err := k.request(ctx, nil, t, state.PendingAction{Kind: state.ActionStart, InitialAction: initialAction})
	if err != nil {
		return nil, nil, err
	}
	events = append([]abci.Event{sessionStartedEvent(s, initialAction)}, events...)
	return s, events, nil
}

// RequestHit records a hit (or double) awaiting reveal. A double escrows the
// extra stake now.
func (k Keeper) RequestHit(ctx context.Context, player string, index uint64, double bool) (*state.Session, []abci.Event, error) {
	s, err := k.playing(player, index)
	if err != nil {
		return nil, nil, err
	}
	t := newTransition(s, nil)
	if double {
		if err := t.double(); err != nil {
			return nil, nil, err
		}
	}
	return k.request(ctx, s, t, state.PendingAction{Kind: hitKind(double)})
}

func (k Keeper) RequestStand(ctx context.Context, player string, index uint64) (*state.Session, []abci.Event, error) {
	s, err := k.playing(player, index)
	if err != nil {
		return nil, nil, err
	}
	return k.request(ctx, s, newTransition(s, nil), state.PendingAction{Kind: state.ActionStand})
}

// request escrows what the action needs and records it as pending. The pot
// must already cover the payout owed if the reveal expires.
func (k Keeper) request(ctx context.Context, existing *state.Session, t *transition, p state.PendingAction) (*state.Session, []abci.Event, error) {
	deadline, err := k.revealDeadline()
	if err != nil {
		return nil, nil, err
	}
	next := &t.next
	p.Step = next.Actions
	p.Deadline = deadline
	next.Pending = &p

	if t.escrow.IsPositive() {
		if err := k.checkEscrow(ctx, next.Player, t.escrow); err != nil {
			return nil, nil, err
		}
	}
	if err := k.checkSolvency(ctx, t.escrow, Payout(state.StatusRevealExpired, next.BetAmount)); err != nil {
		return nil, nil, err
	}

	events, err := k.moveEscrow(ctx, next, t.escrow)
	if err != nil {
		return nil, nil, err
	}
	events = append(events, pendingEvent(EventTypeActionRequested, next, p))
	k.logger.Info("action awaiting reveal", "player", next.Player, "index", next.Index, "action", p.Label(), "deadline", deadline)
	return k.commit(existing, next), events, nil
}

// Pending returns the action of player's session that awaits a reveal.
func (k Keeper) Pending(player string, index uint64) (state.PendingAction, error) {
	s, err := k.GetSession(player, index)
	if err != nil {
		return state.PendingAction{}, err
	}
	if s.Status != state.StatusPlaying || s.Pending == nil {
		return state.PendingAction{}, ErrInvalidState.Wrapf("session %s/%d has no action awaiting reveal", player, index)
	}
	return *s.Pending, nil
}

// Reveal draws the cards of the pending action from rng and settles the
// session if the action ends it.
func (k Keeper) Reveal(ctx context.Context, player string, index uint64, rng randomness.Source) (*state.Session, []abci.Event, error) {
	p, err := k.Pending(player, index)
	if err != nil {
		return nil, nil, err
	}
	if k.height > p.Deadline {
		return nil, nil, ErrInvalidState.Wrapf("reveal deadline %d passed (height %d)", p.Deadline, k.height)
	}
	if rng == nil {
		return nil, nil, ErrRandomness.Wrap("no randomness source")
	}

	s := k.game.Session(player, index)
	t := newTransition(s, rng)
	t.next.Pending = nil
	if err := t.play(p.Kind, p.InitialAction); err != nil {
		return nil, nil, err
	}
	s, events, err := k.apply(ctx, s, t)
	if err != nil {
		return nil, nil, err
	}
	return s, append([]abci.Event{pendingEvent(EventTypeActionRevealed, s, p)}, events...), nil
}

// ExpireReveal ends a session whose pending action outlived its deadline.
// Anyone may call it; the player is paid as if the best outcome had come up.
func (k Keeper) ExpireReveal(ctx context.Context, player string, index uint64) (*state.Session, []abci.Event, error) {
	p, err := k.Pending(player, index)
	if err != nil {
		return nil, nil, err
	}
	if k.height <= p.Deadline {
		return nil, nil, ErrInvalidState.Wrapf("reveal deadline %d not reached (height %d)", p.Deadline, k.height)
	}

	s := k.game.Session(player, index)
	t := newTransition(s, nil)
	t.next.Pending = nil
	t.next.Status = state.StatusRevealExpired
	s, events, err := k.apply(ctx, s, t)
	if err != nil {
		return nil, nil, err
	}
	k.logger.Info("reveal expired", "player", player, "index", index, "action", p.Label(), "deadline", p.Deadline)
	return s, append([]abci.Event{pendingEvent(EventTypeRevealExpired, s, p)}, events...), nil
}
