package blackjack

import (
	"testing"

	sdkmath "cosmossdk.io/math"
	"github.com/stretchr/testify/require"

	"onchainblackjack/internal/cards"
	"onchainblackjack/internal/state"
)

// revealedStart opens alice's next session and reveals (p1, d1, p2, d2).
func (f *fixture) revealedStart(t *testing.T, deal ...cards.Card) *state.Session {
	t.Helper()
	s, _, err := f.k.RequestStart(f.ctx, alice, false)
	require.NoError(t, err)
	s, _, err = f.k.Reveal(f.ctx, alice, s.Index, script(t, nil, deal...))
	require.NoError(t, err)
	return s
}

func TestRequestStart_EscrowsWithoutDealing(t *testing.T) {
	f := newFixture(t, 10_000)

	s, events, err := f.k.RequestStart(f.ctx, alice, true)
	require.NoError(t, err)
	require.Equal(t, state.StatusPlaying, s.Status)
	require.Empty(t, s.PlayerCards)
	require.Empty(t, s.DealerCards)
	require.Zero(t, s.Actions)
	require.Equal(t, &state.PendingAction{
		Kind:          state.ActionStart,
		InitialAction: true,
		Step:          0,
		Deadline:      10 + int64(DefaultRevealTimeoutBlocks),
	}, s.Pending)
	require.Equal(t, "start+stand", s.Pending.Label())

	require.Equal(t, int64(900), f.balance(alice))
	require.Equal(t, int64(10_100), f.balance(PotAccount))
	require.Equal(t, uint64(1), f.k.NextSessionIndex(alice))

	require.Equal(t, EventTypeSessionStarted, events[0].Type)
	require.Equal(t, 1, countEvents(events, EventTypeStakeEscrowed))
	require.Equal(t, 1, countEvents(events, EventTypeActionRequested))
	require.Zero(t, countEvents(events, EventTypeCardDealt))
}

func TestReveal_DealsPendingStart(t *testing.T) {
	f := newFixture(t, 10_000)
	_, _, err := f.k.RequestStart(f.ctx, alice, false)
	require.NoError(t, err)

	s, events, err := f.k.Reveal(f.ctx, alice, 0, script(t, nil, sp(10), ht(9), di(7), cl(8)))
	require.NoError(t, err)
	require.Nil(t, s.Pending)
	require.Equal(t, state.StatusPlaying, s.Status)
	require.Equal(t, []cards.Card{sp(10), di(7)}, s.PlayerCards)
	require.Equal(t, []cards.Card{ht(9), cl(8)}, s.DealerCards)
	require.Equal(t, uint32(1), s.Actions)

	require.Equal(t, EventTypeActionRevealed, events[0].Type)
	require.Equal(t, 4, countEvents(events, EventTypeCardDealt))
	require.Zero(t, countEvents(events, EventTypeStakeEscrowed))

	// The stake moved at request time only.
	require.Equal(t, int64(900), f.balance(alice))
	require.Equal(t, int64(10_100), f.balance(PotAccount))
}

func TestReveal_InitialActionStandsAfterDeal(t *testing.T) {
	f := newFixture(t, 10_000)
	_, _, err := f.k.RequestStart(f.ctx, alice, true)
	require.NoError(t, err)

	s, _, err := f.k.Reveal(f.ctx, alice, 0, script(t, nil, sp(10), ht(10), di(9), cl(8)))
	require.NoError(t, err)
	require.Equal(t, state.StatusPlayerWin, s.Status)
	require.True(t, s.Settled)
	require.Equal(t, int64(1_100), f.balance(alice))
}

func TestRequest_PendingBlocksOtherActions(t *testing.T) {
	f := newFixture(t, 10_000)
	_, _, err := f.k.RequestStart(f.ctx, alice, false)
	require.NoError(t, err)

	_, _, err = f.k.RequestHit(f.ctx, alice, 0, false)
	require.ErrorIs(t, err, ErrInvalidState)
	_, _, err = f.k.RequestStand(f.ctx, alice, 0)
	require.ErrorIs(t, err, ErrInvalidState)
	_, _, err = f.k.Stand(f.ctx, alice, 0, script(t, nil, sp(2)))
	require.ErrorIs(t, err, ErrInvalidState)

	s, _, err := f.k.Reveal(f.ctx, alice, 0, script(t, nil, sp(2), ht(9), di(3), cl(8)))
	require.NoError(t, err)

	s, _, err = f.k.RequestHit(f.ctx, alice, 0, false)
	require.NoError(t, err)
	require.Equal(t, state.ActionHit, s.Pending.Kind)
	require.Equal(t, uint32(1), s.Pending.Step)
	require.Len(t, s.PlayerCards, 2)

	_, _, err = f.k.RequestStand(f.ctx, alice, 0)
	require.ErrorIs(t, err, ErrInvalidState)
	require.Equal(t, state.ActionHit, f.game.Session(alice, 0).Pending.Kind)
}

func TestReveal_RequiresPendingAction(t *testing.T) {
	f := newFixture(t, 10_000)
	f.revealedStart(t, sp(2), ht(9), di(3), cl(8))

	_, _, err := f.k.Reveal(f.ctx, alice, 0, script(t, nil))
	require.ErrorIs(t, err, ErrInvalidState)
	_, _, err = f.k.Reveal(f.ctx, alice, 5, script(t, nil))
	require.ErrorIs(t, err, ErrInvalidState)

	_, _, err = f.k.RequestStand(f.ctx, alice, 0)
	require.NoError(t, err)
	_, _, err = f.k.Reveal(f.ctx, alice, 0, nil)
	require.ErrorIs(t, err, ErrRandomness)
	require.NotNil(t, f.game.Session(alice, 0).Pending)
}

func TestReveal_RejectedAfterDeadline(t *testing.T) {
	f := newFixture(t, 10_000)
	_, _, err := f.k.RequestStart(f.ctx, alice, false)
	require.NoError(t, err)
	deadline := f.game.Session(alice, 0).Pending.Deadline

	late := f.k.WithHeight(deadline + 1)
	_, _, err = late.Reveal(f.ctx, alice, 0, script(t, nil, sp(10), ht(9), di(7), cl(8)))
	require.ErrorIs(t, err, ErrInvalidState)
	require.Empty(t, f.game.Session(alice, 0).PlayerCards)

	onTime := f.k.WithHeight(deadline)
	_, _, err = onTime.Reveal(f.ctx, alice, 0, script(t, nil, sp(10), ht(9), di(7), cl(8)))
	require.NoError(t, err)
}

func TestRequest_UsesConfiguredTimeout(t *testing.T) {
	f := newFixture(t, 10_000)
	f.game.RevealTimeoutBlocks = 5
	require.Equal(t, uint64(5), f.k.RevealTimeoutBlocks())

	s, _, err := f.k.RequestStart(f.ctx, alice, false)
	require.NoError(t, err)
	require.Equal(t, int64(15), s.Pending.Deadline)
}

func TestExpireReveal_PaysPlayerWhenHouseWithholds(t *testing.T) {
	f := newFixture(t, 10_000)
	_, _, err := f.k.RequestStart(f.ctx, alice, false)
	require.NoError(t, err)
	deadline := f.game.Session(alice, 0).Pending.Deadline

	_, _, err = f.k.WithHeight(deadline).ExpireReveal(f.ctx, alice, 0)
	require.ErrorIs(t, err, ErrInvalidState)
	require.NotNil(t, f.game.Session(alice, 0).Pending)

	s, events, err := f.k.WithHeight(deadline+1).ExpireReveal(f.ctx, alice, 0)
	require.NoError(t, err)
	require.Equal(t, state.StatusRevealExpired, s.Status)
	require.True(t, s.Settled)
	require.Nil(t, s.Pending)
	require.Equal(t, sdkmath.NewInt(250), s.Payout)
	require.Equal(t, deadline+1, s.EndHeight)
	require.Equal(t, EventTypeRevealExpired, events[0].Type)
	require.Equal(t, 1, countEvents(events, EventTypeSessionResolved))
	require.Equal(t, 1, countEvents(events, EventTypePayoutSent))

	require.Equal(t, int64(1_150), f.balance(alice))
	require.Equal(t, int64(9_850), f.balance(PotAccount))

	// Settled once: neither a late reveal nor a second expiry moves funds.
	_, _, err = f.k.WithHeight(deadline+2).ExpireReveal(f.ctx, alice, 0)
	require.ErrorIs(t, err, ErrInvalidState)
	_, _, err = f.k.Reveal(f.ctx, alice, 0, script(t, nil, sp(10)))
	require.ErrorIs(t, err, ErrInvalidState)
	require.Equal(t, int64(1_150), f.balance(alice))
}

func TestExpireReveal_PaysOnDoubledStake(t *testing.T) {
	f := newFixture(t, 10_000)
	f.revealedStart(t, sp(5), ht(9), di(6), cl(8))

	s, _, err := f.k.RequestHit(f.ctx, alice, 0, true)
	require.NoError(t, err)
	s, _, err = f.k.WithHeight(s.Pending.Deadline+1).ExpireReveal(f.ctx, alice, 0)
	require.NoError(t, err)
	require.Equal(t, sdkmath.NewInt(500), s.Payout)
	require.Equal(t, int64(1_300), f.balance(alice))
}

func TestRequestHit_DoubleEscrowsUpFront(t *testing.T) {
	f := newFixture(t, 10_000)
	s := f.revealedStart(t, sp(5), ht(9), di(6), cl(8))

	got, events, err := f.k.RequestHit(f.ctx, alice, 0, true)
	require.NoError(t, err)
	require.True(t, got.Doubled)
	require.Equal(t, sdkmath.NewInt(200), got.BetAmount)
	require.Equal(t, state.ActionDouble, got.Pending.Kind)
	require.Len(t, got.PlayerCards, 2)
	require.Equal(t, 1, countEvents(events, EventTypeStakeEscrowed))
	require.Equal(t, int64(800), f.balance(alice))

	got, _, err = f.k.Reveal(f.ctx, alice, 0, script(t, allCards(s), sp(13)))
	require.NoError(t, err)
	require.Len(t, got.PlayerCards, 3)
	require.Equal(t, state.StatusPlayerWin, got.Status)
	require.Equal(t, sdkmath.NewInt(400), got.Payout)
	require.Equal(t, int64(1_200), f.balance(alice))
	require.Equal(t, int64(9_800), f.balance(PotAccount))
}

func TestRequestHit_DoubleWithoutApprovalChangesNothing(t *testing.T) {
	f := newFixture(t, 10_000)
	require.NoError(t, f.token.Approve(f.ctx, alice, PotAccount, sdkmath.NewInt(100)))
	f.revealedStart(t, sp(5), ht(9), di(6), cl(8))

	_, _, err := f.k.RequestHit(f.ctx, alice, 0, true)
	require.ErrorIs(t, err, ErrInsufficientApproval)
	after := f.game.Session(alice, 0)
	require.Nil(t, after.Pending)
	require.False(t, after.Doubled)
	require.Equal(t, sdkmath.NewInt(100), after.BetAmount)
}

func TestRequestStart_PotMustCoverExpiry(t *testing.T) {
	f := newFixture(t, 149)
	_, _, err := f.k.RequestStart(f.ctx, alice, false)
	require.ErrorIs(t, err, ErrHouseInsolvent)
	require.Equal(t, int64(1_000), f.balance(alice))
	require.Zero(t, f.k.NextSessionIndex(alice))

	f = newFixture(t, 150)
	_, _, err = f.k.RequestStart(f.ctx, alice, false)
	require.NoError(t, err)
}
