package blackjack

import (
	"context"

	"cosmossdk.io/log"
	sdkmath "cosmossdk.io/math"

	"onchainblackjack/internal/state"
)

// Keeper runs the session state machine over one Game and moves funds through
// the bound Ledger. It is built per transaction against staged state.
type Keeper struct {
	game   *state.Game
	ledger Ledger
	logger log.Logger
	height int64
}

func NewKeeper(game *state.Game, ledger Ledger, logger log.Logger) Keeper {
	if game == nil {
		panic("blackjack keeper: game is nil")
	}
	if ledger == nil {
		panic("blackjack keeper: ledger is nil")
	}
	if logger == nil {
		panic("blackjack keeper: logger is nil")
	}
	return Keeper{
		game:   game,
		ledger: ledger,
		logger: logger.With("module", "x/"+ModuleName),
	}
}

// WithHeight returns a copy of k that stamps sessions with height.
func (k Keeper) WithHeight(height int64) Keeper {
	k.height = height
	return k
}

func (k Keeper) Logger() log.Logger {
	return k.logger
}

func (k Keeper) Owner() string {
	return k.game.Owner
}

// Bet is the stake escrowed by the next start.
func (k Keeper) Bet() sdkmath.Int {
	return k.game.Bet
}

// Token identifies the bound ledger; it never changes after genesis.
func (k Keeper) Token() string {
	return k.game.Token
}

func (k Keeper) VRFPubKey() []byte {
	return append([]byte(nil), k.game.VRFPubKey...)
}

func (k Keeper) Pot(ctx context.Context) sdkmath.Int {
	return k.ledger.BalanceOf(ctx, PotAccount)
}

func (k Keeper) NextSessionIndex(player string) uint64 {
	return k.game.NextSessionIndex(player)
}

func (k Keeper) GetSession(player string, index uint64) (*state.Session, error) {
	s := k.game.Session(player, index)
	if s == nil {
		return nil, ErrInvalidState.Wrapf("session %s/%d not found", player, index)
	}
	return s, nil
}

// Sessions lists every session of player in ascending index order.
func (k Keeper) Sessions(player string) []*state.Session {
	list := k.game.Sessions[player]
	out := make([]*state.Session, len(list))
	copy(out, list)
	return out
}

// RevealTimeoutBlocks is how many blocks the house has to reveal a pending
// action.
func (k Keeper) RevealTimeoutBlocks() uint64 {
	return k.revealTimeout()
}

// HouseReveals reports whether actions wait for a house VRF reveal.
func (k Keeper) HouseReveals() bool {
	return len(k.game.VRFPubKey) > 0
}
