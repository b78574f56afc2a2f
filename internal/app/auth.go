package app

import (
	"crypto/ed25519"
	"strconv"

	"onchainblackjack/internal/blackjack"
	"onchainblackjack/internal/codec"
	"onchainblackjack/internal/state"
)

func requireSignedEnvelope(env codec.TxEnvelope) error {
	if env.Nonce == "" {
		return ErrInvalidNonce.Wrap("missing tx.nonce")
	}
	if env.Signer == "" {
		return ErrInvalidTx.Wrap("missing tx.signer")
	}
	if len(env.Sig) == 0 {
		return ErrInvalidSignature.Wrap("missing tx.sig")
	}
	if len(env.Sig) != ed25519.SignatureSize {
		return ErrInvalidSignature.Wrapf("invalid tx.sig length: got %d want %d", len(env.Sig), ed25519.SignatureSize)
	}
	return nil
}

func verifyEnvelope(pub []byte, env codec.TxEnvelope) error {
	msg := codec.SignBytes(env.Type, env.Value, env.Nonce, env.Signer)
	if !ed25519.Verify(ed25519.PublicKey(pub), msg, env.Sig) {
		return ErrInvalidSignature.Wrapf("signer %q", env.Signer)
	}
	return nil
}

// requireRegisterAccountAuth checks a self-signed key registration.
func requireRegisterAccountAuth(st *state.State, env codec.TxEnvelope, msg codec.AuthRegisterAccountTx) error {
	if msg.Account == "" {
		return ErrInvalidTx.Wrap("missing account")
	}
	if msg.Account == blackjack.PotAccount {
		return ErrUnauthorized.Wrapf("account %q is reserved", msg.Account)
	}
	if len(msg.PubKey) != ed25519.PublicKeySize {
		return ErrInvalidTx.Wrapf("pubKey must be %d bytes", ed25519.PublicKeySize)
	}
	if err := requireSignedEnvelope(env); err != nil {
		return err
	}
	if env.Signer != msg.Account {
		return ErrUnauthorized.Wrapf("tx signer mismatch: signer=%q want=%q", env.Signer, msg.Account)
	}
	if _, ok := st.AccountKeys[msg.Account]; ok {
		return ErrUnauthorized.Wrapf("account %q already registered", msg.Account)
	}
	return verifyEnvelope(msg.PubKey, env)
}

// requireAccountAuth checks that account signed env with its registered key.
func requireAccountAuth(st *state.State, env codec.TxEnvelope, account string) error {
	if account == "" {
		return ErrInvalidTx.Wrap("missing account")
	}
	if err := requireSignedEnvelope(env); err != nil {
		return err
	}
	if env.Signer != account {
		return ErrUnauthorized.Wrapf("tx signer mismatch: signer=%q want=%q", env.Signer, account)
	}
	pub := st.AccountKeys[account]
	if len(pub) != ed25519.PublicKeySize {
		return ErrUnknownAccount.Wrapf("account %q missing pubKey (auth/register_account required)", account)
	}
	return verifyEnvelope(pub, env)
}

// consumeNonce enforces a strictly increasing numeric nonce per signer.
func consumeNonce(st *state.State, env codec.TxEnvelope) error {
	n, err := strconv.ParseUint(env.Nonce, 10, 64)
	if err != nil {
		return ErrInvalidNonce.Wrapf("invalid tx.nonce %q", env.Nonce)
	}
	if last, ok := st.NonceMax[env.Signer]; ok && n <= last {
		return ErrReplayedNonce.Wrapf("replayed tx.nonce: got %d, last %d", n, last)
	}
	st.NonceMax[env.Signer] = n
	return nil
}
