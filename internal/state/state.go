package state

import (
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"sort"
)

type State struct {
	Height  int64  `json:"height"`
	ChainID string `json:"chainId,omitempty"`

	AccountKeys map[string][]byte `json:"accountKeys,omitempty"` // account -> ed25519 pubkey (32 bytes)
	NonceMax    map[string]uint64 `json:"nonceMax,omitempty"`    // signer -> last accepted tx.nonce, for replay protection

	Token *Token `json:"token"`
	Game  *Game  `json:"game"`
}

func NewState() *State {
	st := &State{}
	st.normalize()
	return st
}

// normalize fills in nil containers left by older or partial encodings.
func (s *State) normalize() {
	if s.AccountKeys == nil {
		s.AccountKeys = map[string][]byte{}
	}
	if s.NonceMax == nil {
		s.NonceMax = map[string]uint64{}
	}
	if s.Token == nil {
		s.Token = NewToken("", 0, "")
	}
	s.Token.normalize()
	if s.Game == nil {
		s.Game = NewGame("", "")
	}
	s.Game.normalize()
}

// Clone returns a deep copy of state suitable for staged tx execution.
func (s *State) Clone() (*State, error) {
	if s == nil {
		return nil, fmt.Errorf("state is nil")
	}
	b, err := json.Marshal(s)
	if err != nil {
		return nil, fmt.Errorf("encode state clone: %w", err)
	}
	var out State
	if err := json.Unmarshal(b, &out); err != nil {
		return nil, fmt.Errorf("decode state clone: %w", err)
	}
	out.normalize()
	return &out, nil
}

func (s *State) AppHash() []byte {
	// Deterministic JSON hash over a normalized view: every map is flattened
	// into a slice sorted by key.
	type accountKeyKV struct {
		Account string `json:"account"`
		PubKey  []byte `json:"pubKey"`
	}
	type nonceKV struct {
		Signer string `json:"signer"`
		Nonce  uint64 `json:"nonce"`
	}

	accountKeys := make([]accountKeyKV, 0, len(s.AccountKeys))
	for k, v := range s.AccountKeys {
		accountKeys = append(accountKeys, accountKeyKV{Account: k, PubKey: v})
	}
	sort.Slice(accountKeys, func(i, j int) bool { return accountKeys[i].Account < accountKeys[j].Account })

	nonces := make([]nonceKV, 0, len(s.NonceMax))
	for k, v := range s.NonceMax {
		nonces = append(nonces, nonceKV{Signer: k, Nonce: v})
	}
	sort.Slice(nonces, func(i, j int) bool { return nonces[i].Signer < nonces[j].Signer })

	normalized := struct {
		Height      int64          `json:"height"`
		ChainID     string         `json:"chainId"`
		AccountKeys []accountKeyKV `json:"accountKeys"`
		NonceMax    []nonceKV      `json:"nonceMax"`
		Token       any            `json:"token"`
		Game        any            `json:"game"`
	}{
		Height:      s.Height,
		ChainID:     s.ChainID,
		AccountKeys: accountKeys,
		NonceMax:    nonces,
		Token:       s.Token.hashView(),
		Game:        s.Game.hashView(),
	}

	b, _ := json.Marshal(normalized)
	sum := sha256.Sum256(b)
	return sum[:]
}
