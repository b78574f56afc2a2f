package app

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"

	"cosmossdk.io/log"
	sdkmath "cosmossdk.io/math"
	dbm "github.com/cosmos/cosmos-db"
	"github.com/stretchr/testify/require"

	abci "github.com/cometbft/cometbft/abci/types"

	"onchainblackjack/internal/blackjack"
	"onchainblackjack/internal/cards"
	"onchainblackjack/internal/codec"
	"onchainblackjack/internal/randomness"
	"onchainblackjack/internal/state"
	"onchainblackjack/internal/vrf"
)

func testVRFKey(t *testing.T) *vrf.PrivateKey {
	t.Helper()
	k, err := vrf.GenerateKey(bytes.NewReader(bytes.Repeat([]byte{7}, 64)))
	require.NoError(t, err)
	return k
}

// reveal signs the house reveal of a pending action with a proof made for
// (step, action).
func reveal(t *testing.T, k *vrf.PrivateKey, player string, index uint64, step uint32, action string) []byte {
	t.Helper()
	_, proof, err := k.Prove(randomness.VRFInput(testChainID, player, index, step, action))
	require.NoError(t, err)
	return txBytesSigned(t, codec.TypeBlackjackReveal, codec.BlackjackRevealTx{
		Player: player, SessionIndex: index, VRFProof: proof,
	}, "house")
}

func newVRFApp(t *testing.T, key *vrf.PrivateKey) *BJApp {
	t.Helper()
	g := testGenesis(t)
	g.VRFPubKey = key.PublicKey()
	return newTestAppWithGenesis(t, g)
}

// playingSession starts and reveals sessions for alice until one is still in
// play after the deal. height is advanced past every block used.
func playingSession(t *testing.T, a *BJApp, key *vrf.PrivateKey, height *int64) *state.Session {
	t.Helper()
	for i := 0; i < 8; i++ {
		index := a.st.Game.NextSessionIndex("alice")
		mustOk(t, deliver(t, a, *height, txBytesSigned(t, codec.TypeBlackjackStart, codec.BlackjackStartTx{Player: "alice"}, "alice")))
		mustOk(t, deliver(t, a, *height+1, reveal(t, key, "alice", index, 0, state.ActionStart)))
		*height += 2
		if s := a.st.Game.Session("alice", index); s.Status == state.StatusPlaying {
			return s
		}
	}
	t.Fatal("no session left in play")
	return nil
}

func TestVRF_StartWaitsForHouseReveal(t *testing.T) {
	key := testVRFKey(t)
	a := newVRFApp(t, key)
	approvePot(t, a, 1, "alice", 1_000)

	// The player's tx carries no randomness: the stake is escrowed and the
	// deal is left pending.
	res := mustOk(t, deliver(t, a, 2, txBytesSigned(t, codec.TypeBlackjackStart, codec.BlackjackStartTx{Player: "alice"}, "alice")))
	ev := findEvent(res.Events, blackjack.EventTypeActionRequested)
	require.NotNil(t, ev)
	require.Equal(t, "start", attr(ev, "action"))
	require.Nil(t, findEvent(res.Events, blackjack.EventTypeCardDealt))
	s := a.st.Game.Session("alice", 0)
	require.Empty(t, s.PlayerCards)
	require.NotNil(t, s.Pending)
	require.Equal(t, int64(900), balance(a, "alice"))

	var view struct {
		RevealAction string `json:"revealAction"`
		Pending      struct {
			Step     uint32 `json:"step"`
			Deadline int64  `json:"deadline"`
		} `json:"pending"`
	}
	query(t, a, "/blackjack/session/alice/0", nil, &view)
	require.Equal(t, "start", view.RevealAction)
	require.Equal(t, int64(2)+int64(blackjack.DefaultRevealTimeoutBlocks), view.Pending.Deadline)

	// Only the house reveals.
	_, proof, err := key.Prove(randomness.VRFInput(testChainID, "alice", 0, 0, "start"))
	require.NoError(t, err)
	res = deliver(t, a, 3, txBytesSigned(t, codec.TypeBlackjackReveal, codec.BlackjackRevealTx{
		Player: "alice", SessionIndex: 0, VRFProof: proof,
	}, "alice"))
	requireCode(t, res, AuthCodespace, 2)

	res = deliver(t, a, 4, txBytesSigned(t, codec.TypeBlackjackReveal, codec.BlackjackRevealTx{Player: "alice"}, "house"))
	requireCode(t, res, blackjack.ModuleName, 7)
	require.Contains(t, res.Log, "vrfProof required")

	// Nothing is pending on a session that does not exist.
	res = deliver(t, a, 5, reveal(t, key, "alice", 1, 0, "start"))
	requireCode(t, res, blackjack.ModuleName, 3)

	// Alice's proof cannot reveal bob's deal.
	approvePot(t, a, 6, "bob", 100)
	mustOk(t, deliver(t, a, 6, txBytesSigned(t, codec.TypeBlackjackStart, codec.BlackjackStartTx{Player: "bob"}, "bob")))
	res = deliver(t, a, 6, txBytesSigned(t, codec.TypeBlackjackReveal, codec.BlackjackRevealTx{
		Player: "bob", SessionIndex: 0, VRFProof: proof,
	}, "house"))
	requireCode(t, res, blackjack.ModuleName, 7)
	require.Empty(t, a.st.Game.Session("bob", 0).PlayerCards)

	res = deliver(t, a, 7, reveal(t, key, "alice", 0, 0, "start"))
	mustOk(t, res)
	require.Len(t, findAll(res.Events, blackjack.EventTypeCardDealt), 4)
	require.Nil(t, a.st.Game.Session("alice", 0).Pending)
	require.Len(t, a.st.Game.Session("alice", 0).PlayerCards, 2)

	res = deliver(t, a, 8, reveal(t, key, "alice", 0, 0, "start"))
	requireCode(t, res, blackjack.ModuleName, 3)
}

func TestVRF_ProofBindsPendingAction(t *testing.T) {
	key := testVRFKey(t)
	a := newVRFApp(t, key)
	approvePot(t, a, 1, "alice", 1_000)

	height := int64(2)
	s := playingSession(t, a, key, &height)
	index, step := s.Index, s.Actions
	cardsBefore := append([]cards.Card(nil), s.PlayerCards...)

	mustOk(t, deliver(t, a, height, txBytesSigned(t, codec.TypeBlackjackStand, codec.BlackjackStandTx{
		Player: "alice", SessionIndex: index,
	}, "alice")))

	// While the stand is pending the player cannot switch to another action.
	res := deliver(t, a, height+1, txBytesSigned(t, codec.TypeBlackjackHit, codec.BlackjackHitTx{
		Player: "alice", SessionIndex: index,
	}, "alice"))
	requireCode(t, res, blackjack.ModuleName, 3)

	// A proof made for a hit or a double at the same step cannot decide the stand.
	for _, other := range []string{"hit", "double"} {
		res = deliver(t, a, height+2, reveal(t, key, "alice", index, step, other))
		requireCode(t, res, blackjack.ModuleName, 7)
		got := a.st.Game.Session("alice", index)
		require.Equal(t, cardsBefore, got.PlayerCards)
		require.Equal(t, state.ActionStand, got.Pending.Kind)
	}

	// Nor can the proof of an earlier step.
	res = deliver(t, a, height+3, reveal(t, key, "alice", index, 0, "stand"))
	requireCode(t, res, blackjack.ModuleName, 7)

	res = mustOk(t, deliver(t, a, height+4, reveal(t, key, "alice", index, step, "stand")))
	require.NotNil(t, findEvent(res.Events, blackjack.EventTypeSessionResolved))
	got := a.st.Game.Session("alice", index)
	require.True(t, got.Status.IsTerminal())
	require.Equal(t, cardsBefore, got.PlayerCards)
}

func TestVRF_WithheldRevealExpiresInPlayerFavour(t *testing.T) {
	key := testVRFKey(t)
	g := testGenesis(t)
	g.VRFPubKey = key.PublicKey()
	g.RevealTimeoutBlocks = 3
	a := newTestAppWithGenesis(t, g)
	approvePot(t, a, 1, "alice", 1_000)

	mustOk(t, deliver(t, a, 2, txBytesSigned(t, codec.TypeBlackjackStart, codec.BlackjackStartTx{Player: "alice"}, "alice")))
	require.Equal(t, int64(5), a.st.Game.Session("alice", 0).Pending.Deadline)
	pot := balance(a, blackjack.PotAccount)

	expire := func() []byte {
		return txBytesSigned(t, codec.TypeBlackjackExpireReveal, codec.BlackjackExpireRevealTx{
			Player: "alice", SessionIndex: 0,
		}, "bob")
	}

	// The house still has until the deadline block.
	res := deliver(t, a, 5, expire())
	requireCode(t, res, blackjack.ModuleName, 3)
	require.Equal(t, int64(900), balance(a, "alice"))

	res = mustOk(t, deliver(t, a, 6, expire()))
	require.NotNil(t, findEvent(res.Events, blackjack.EventTypeRevealExpired))
	require.Equal(t, "revealExpired", attr(findEvent(res.Events, blackjack.EventTypeSessionResolved), "status"))
	s := a.st.Game.Session("alice", 0)
	require.Equal(t, state.StatusRevealExpired, s.Status)
	require.True(t, s.Settled)
	require.Equal(t, int64(1_150), balance(a, "alice"))
	require.Equal(t, pot-250, balance(a, blackjack.PotAccount))
	require.Equal(t, int64(1_000), balance(a, "bob"))

	// A late reveal and a repeated expiry both find nothing to act on.
	requireCode(t, deliver(t, a, 7, reveal(t, key, "alice", 0, 0, "start")), blackjack.ModuleName, 3)
	requireCode(t, deliver(t, a, 8, expire()), blackjack.ModuleName, 3)
	require.Equal(t, int64(1_150), balance(a, "alice"))
}

func TestVRF_DrawsAreReproducible(t *testing.T) {
	key := testVRFKey(t)

	play := func(height int64) *state.Session {
		a := newVRFApp(t, key)
		approvePot(t, a, 1, "alice", 1_000)
		mustOk(t, deliver(t, a, height, txBytesSigned(t, codec.TypeBlackjackStart, codec.BlackjackStartTx{Player: "alice"}, "alice")))
		mustOk(t, deliver(t, a, height+1, reveal(t, key, "alice", 0, 0, "start")))
		return a.st.Game.Session("alice", 0)
	}

	// Different blocks and tx bytes, same proof: the same cards come out.
	first, second := play(2), play(9)
	require.Equal(t, first.PlayerCards, second.PlayerCards)
	require.Equal(t, first.DealerCards, second.DealerCards)
}

func findAll(events []abci.Event, typ string) []abci.Event {
	var out []abci.Event
	for _, ev := range events {
		if ev.Type == typ {
			out = append(out, ev)
		}
	}
	return out
}

func TestQuery_Paths(t *testing.T) {
	a := newTestApp(t)
	approvePot(t, a, 1, "alice", 1_000)
	mustOk(t, deliver(t, a, 2, txBytesSigned(t, codec.TypeBlackjackStart, codec.BlackjackStartTx{Player: "alice"}, "alice")))

	var deck struct {
		Cards     []cards.Card `json:"cards"`
		CardCount int          `json:"cardCount"`
	}
	query(t, a, "/blackjack/cards", nil, &deck)
	require.Len(t, deck.Cards, cards.Count)
	require.Equal(t, cards.Count, deck.CardCount)

	req, err := json.Marshal(EvalRequest{Cards: []cards.Card{cards.New(1, 1), cards.New(2, 1), cards.New(3, 13)}, OptimizeAces: true})
	require.NoError(t, err)
	var eval struct {
		Point       uint32 `json:"point"`
		AceCount    uint32 `json:"aceCount"`
		PlayerTotal uint32 `json:"playerTotal"`
		DealerTotal uint32 `json:"dealerTotal"`
	}
	query(t, a, "/blackjack/eval", req, &eval)
	require.Equal(t, uint32(12), eval.Point)
	require.Equal(t, uint32(2), eval.AceCount)
	require.Equal(t, uint32(12), eval.PlayerTotal)
	require.Equal(t, uint32(12), eval.DealerTotal)

	var sessions []struct {
		Player      string `json:"player"`
		StatusName  string `json:"statusName"`
		PlayerTotal uint32 `json:"playerTotal"`
	}
	query(t, a, "/blackjack/sessions/alice", nil, &sessions)
	require.Len(t, sessions, 1)
	require.Equal(t, "alice", sessions[0].Player)
	require.NotEmpty(t, sessions[0].StatusName)
	require.NotZero(t, sessions[0].PlayerTotal)

	var allowance struct {
		Allowance sdkmath.Int `json:"allowance"`
	}
	query(t, a, "/token/allowance/alice/"+blackjack.PotAccount, nil, &allowance)
	require.Equal(t, sdkmath.NewInt(900), allowance.Allowance)

	var info struct {
		Symbol string      `json:"symbol"`
		Supply sdkmath.Int `json:"supply"`
	}
	query(t, a, "/token/info", nil, &info)
	require.Equal(t, "BJT", info.Symbol)
	require.Equal(t, sdkmath.NewInt(102_000), info.Supply)

	for _, path := range []string{"/blackjack/session/alice/9", "/blackjack/session/alice/x", "/nope"} {
		res, err := a.Query(context.Background(), &abci.QueryRequest{Path: path})
		require.NoError(t, err)
		require.NotZero(t, res.Code, path)
	}
}

func TestCommit_PersistsAcrossRestart(t *testing.T) {
	db := dbm.NewMemDB()
	a, err := New(state.NewStore(db), log.NewNopLogger())
	require.NoError(t, err)
	raw, err := json.Marshal(testGenesis(t))
	require.NoError(t, err)
	_, err = a.InitChain(context.Background(), &abci.InitChainRequest{ChainId: testChainID, AppStateBytes: raw})
	require.NoError(t, err)

	approvePot(t, a, 1, "alice", 1_000)
	_, err = a.Commit(context.Background(), &abci.CommitRequest{})
	require.NoError(t, err)
	mustOk(t, deliver(t, a, 2, txBytesSigned(t, codec.TypeBlackjackStart, codec.BlackjackStartTx{Player: "alice"}, "alice")))
	_, err = a.Commit(context.Background(), &abci.CommitRequest{})
	require.NoError(t, err)

	info, err := a.Info(context.Background(), &abci.InfoRequest{})
	require.NoError(t, err)

	restarted, err := New(state.NewStore(db), log.NewNopLogger())
	require.NoError(t, err)
	info2, err := restarted.Info(context.Background(), &abci.InfoRequest{})
	require.NoError(t, err)
	require.Equal(t, int64(2), info2.LastBlockHeight)
	require.Equal(t, info.LastBlockAppHash, info2.LastBlockAppHash)
	require.Equal(t, uint64(1), restarted.st.Game.NextSessionIndex("alice"))
	require.Equal(t, balance(a, "alice"), balance(restarted, "alice"))
}
