package codec

import (
	"crypto/ed25519"
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"strconv"

	sdkmath "cosmossdk.io/math"
)

// TxEnvelope is the transaction container. CometBFT txs are opaque bytes; we
// carry a JSON envelope routed by Type.
type TxEnvelope struct {
	Type  string          `json:"type"`
	Value json.RawMessage `json:"value"`

	// Nonce is a decimal uint64 that must increase per signer. Sig is Ed25519
	// over SignBytes(type, value, nonce, signer).
	Nonce  string `json:"nonce,omitempty"`
	Signer string `json:"signer,omitempty"`
	Sig    []byte `json:"sig,omitempty"`
}

func DecodeTxEnvelope(txBytes []byte) (TxEnvelope, error) {
	var env TxEnvelope
	if err := json.Unmarshal(txBytes, &env); err != nil {
		return TxEnvelope{}, fmt.Errorf("invalid tx json: %w", err)
	}
	if env.Type == "" {
		return TxEnvelope{}, fmt.Errorf("missing tx.type")
	}
	return env, nil
}

const TxAuthDomain = "ocb/tx/v1"

// SignBytes = DOMAIN || 0x00 || type || 0x00 || nonce || 0x00 || signer || 0x00 || sha256(value)
func SignBytes(typ string, value []byte, nonce string, signer string) []byte {
	sum := sha256.Sum256(value)
	out := make([]byte, 0, len(TxAuthDomain)+len(typ)+len(nonce)+len(signer)+4+sha256.Size)
	out = append(out, TxAuthDomain...)
	out = append(out, 0)
	out = append(out, typ...)
	out = append(out, 0)
	out = append(out, nonce...)
	out = append(out, 0)
	out = append(out, signer...)
	out = append(out, 0)
	out = append(out, sum[:]...)
	return out
}

// NewSignedTx encodes value and signs the envelope as signer.
func NewSignedTx(typ string, value any, nonce uint64, signer string, priv ed25519.PrivateKey) ([]byte, error) {
	raw, err := json.Marshal(value)
	if err != nil {
		return nil, fmt.Errorf("encode tx value: %w", err)
	}
	n := strconv.FormatUint(nonce, 10)
	env := TxEnvelope{
		Type:   typ,
		Value:  raw,
		Nonce:  n,
		Signer: signer,
		Sig:    ed25519.Sign(priv, SignBytes(typ, raw, n, signer)),
	}
	return json.Marshal(env)
}

// ---- Auth ----

const TypeAuthRegisterAccount = "auth/register_account"

type AuthRegisterAccountTx struct {
	Account string `json:"account"`
	PubKey  []byte `json:"pubKey"` // base64 (32 bytes)
}

// ---- Token ----

const (
	TypeTokenMint     = "token/mint"
	TypeTokenTransfer = "token/transfer"
	TypeTokenApprove  = "token/approve"
)

type TokenMintTx struct {
	To     string      `json:"to"`
	Amount sdkmath.Int `json:"amount"`
}

type TokenTransferTx struct {
	From   string      `json:"from"`
	To     string      `json:"to"`
	Amount sdkmath.Int `json:"amount"`
}

// TokenApproveTx sets (not adds to) the allowance of spender over owner.
type TokenApproveTx struct {
	Owner   string      `json:"owner"`
	Spender string      `json:"spender"`
	Amount  sdkmath.Int `json:"amount"`
}

// ---- Blackjack ----

const (
	TypeBlackjackStart             = "blackjack/start"
	TypeBlackjackHit               = "blackjack/hit"
	TypeBlackjackStand             = "blackjack/stand"
	TypeBlackjackReveal            = "blackjack/reveal"
	TypeBlackjackExpireReveal      = "blackjack/expire_reveal"
	TypeBlackjackSetBet            = "blackjack/set_bet"
	TypeBlackjackTransferOwnership = "blackjack/transfer_ownership"
)

type BlackjackStartTx struct {
	Player        string `json:"player"`
	InitialAction bool   `json:"initialAction,omitempty"`
}

type BlackjackHitTx struct {
	Player       string `json:"player"`
	SessionIndex uint64 `json:"sessionIndex"`
	Double       bool   `json:"double,omitempty"`
}

type BlackjackStandTx struct {
	Player       string `json:"player"`
	SessionIndex uint64 `json:"sessionIndex"`
}

// BlackjackRevealTx is signed by the house and carries its VRF proof for the
// action pending on the session.
type BlackjackRevealTx struct {
	Player       string `json:"player"`
	SessionIndex uint64 `json:"sessionIndex"`
	VRFProof     []byte `json:"vrfProof"` // base64
}

// BlackjackExpireRevealTx settles a session whose reveal deadline passed. Any
// registered account may sign it.
type BlackjackExpireRevealTx struct {
	Player       string `json:"player"`
	SessionIndex uint64 `json:"sessionIndex"`
}

type BlackjackSetBetTx struct {
	Caller string      `json:"caller"`
	Amount sdkmath.Int `json:"amount"`
}

type BlackjackTransferOwnershipTx struct {
	Caller   string `json:"caller"`
	NewOwner string `json:"newOwner"`
}
