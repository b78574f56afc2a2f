package app

import (
	"crypto/ed25519"
	"encoding/json"
	"math"

	sdkmath "cosmossdk.io/math"

	"onchainblackjack/internal/blackjack"
	"onchainblackjack/internal/state"
	"onchainblackjack/internal/vrf"
)

type GenesisToken struct {
	Symbol   string `json:"symbol"`
	Decimals uint8  `json:"decimals"`
	Minter   string `json:"minter,omitempty"`
}

type GenesisBalance struct {
	Account string      `json:"account"`
	Amount  sdkmath.Int `json:"amount"`
}

type GenesisAccount struct {
	Account string `json:"account"`
	PubKey  []byte `json:"pubKey"` // base64 (32 bytes)
}

// Genesis is the JSON carried in InitChain.app_state_bytes.
type Genesis struct {
	Owner    string           `json:"owner"`
	Bet      sdkmath.Int      `json:"bet"`
	Token    GenesisToken     `json:"token"`
	Balances []GenesisBalance `json:"balances,omitempty"`
	Accounts []GenesisAccount `json:"accounts,omitempty"`

	// HouseFunds is minted straight into the pot so the house can pay winners.
	HouseFunds sdkmath.Int `json:"houseFunds"`
	VRFPubKey  []byte      `json:"vrfPubKey,omitempty"`

	// RevealTimeoutBlocks bounds how long the house may sit on a pending
	// action; 0 selects the default.
	RevealTimeoutBlocks uint64 `json:"revealTimeoutBlocks,omitempty"`
}

// DefaultGenesis is the template written by `ocbd init`.
func DefaultGenesis(owner string) Genesis {
	return Genesis{
		Owner:      owner,
		Bet:        sdkmath.NewIntWithDecimal(1, 18),
		Token:      GenesisToken{Symbol: "BJT", Decimals: 18, Minter: owner},
		HouseFunds: sdkmath.NewIntWithDecimal(1_000_000, 18),
	}
}

func (g Genesis) Validate() error {
	if g.Owner == "" {
		return ErrInvalidGenesis.Wrap("missing owner")
	}
	if g.Owner == blackjack.PotAccount {
		return ErrInvalidGenesis.Wrap("pot account cannot own the game")
	}
	if g.Token.Symbol == "" {
		return ErrInvalidGenesis.Wrap("missing token.symbol")
	}
	if g.Bet.IsNil() || !g.Bet.IsPositive() {
		return ErrInvalidGenesis.Wrap("bet must be positive")
	}
	if !g.HouseFunds.IsNil() && g.HouseFunds.IsNegative() {
		return ErrInvalidGenesis.Wrap("houseFunds must be >= 0")
	}
	for i, b := range g.Balances {
		if b.Account == "" {
			return ErrInvalidGenesis.Wrapf("balances[%d]: missing account", i)
		}
		if b.Amount.IsNil() || !b.Amount.IsPositive() {
			return ErrInvalidGenesis.Wrapf("balances[%d]: amount must be positive", i)
		}
	}
	seen := map[string]bool{}
	for i, a := range g.Accounts {
		if a.Account == "" || a.Account == blackjack.PotAccount {
			return ErrInvalidGenesis.Wrapf("accounts[%d]: invalid account %q", i, a.Account)
		}
		if seen[a.Account] {
			return ErrInvalidGenesis.Wrapf("accounts[%d]: duplicate account %q", i, a.Account)
		}
		seen[a.Account] = true
		if len(a.PubKey) != ed25519.PublicKeySize {
			return ErrInvalidGenesis.Wrapf("accounts[%d]: pubKey must be %d bytes", i, ed25519.PublicKeySize)
		}
	}
	if len(g.VRFPubKey) > 0 {
		if _, err := vrf.PointFromBytes(g.VRFPubKey); err != nil {
			return ErrInvalidGenesis.Wrapf("vrfPubKey: %v", err)
		}
	}
	if g.RevealTimeoutBlocks > math.MaxInt32 {
		return ErrInvalidGenesis.Wrapf("revealTimeoutBlocks %d too large", g.RevealTimeoutBlocks)
	}
	return nil
}

// initGenesis builds the height-0 state for chainID.
func initGenesis(chainID string, raw []byte) (*state.State, error) {
	var g Genesis
	if err := json.Unmarshal(raw, &g); err != nil {
		return nil, ErrInvalidGenesis.Wrapf("decode: %v", err)
	}
	if err := g.Validate(); err != nil {
		return nil, err
	}

	st := state.NewState()
	st.ChainID = chainID
	st.Token = state.NewToken(g.Token.Symbol, g.Token.Decimals, g.Token.Minter)
	st.Game = state.NewGame(g.Owner, g.Token.Symbol)
	st.Game.Bet = g.Bet
	if len(g.VRFPubKey) > 0 {
		st.Game.VRFPubKey = append([]byte(nil), g.VRFPubKey...)
	}
	st.Game.RevealTimeoutBlocks = g.RevealTimeoutBlocks

	for _, b := range g.Balances {
		if err := st.Token.MintGenesis(b.Account, b.Amount); err != nil {
			return nil, err
		}
	}
	if !g.HouseFunds.IsNil() && g.HouseFunds.IsPositive() {
		if err := st.Token.MintGenesis(blackjack.PotAccount, g.HouseFunds); err != nil {
			return nil, err
		}
	}
	for _, a := range g.Accounts {
		st.AccountKeys[a.Account] = append([]byte(nil), a.PubKey...)
	}
	return st, nil
}
