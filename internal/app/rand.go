package app

import (
	errorsmod "cosmossdk.io/errors"

	"onchainblackjack/internal/blackjack"
	"onchainblackjack/internal/randomness"
	"onchainblackjack/internal/state"
)

// blockSource draws from block entropy. Only used when no house VRF key is
// configured.
func (a *BJApp) blockSource(st *state.State, txHash []byte) randomness.Source {
	return randomness.NewBlockSource(st.ChainID, st.Height, a.blockHash, txHash)
}

// revealSource verifies the house proof for the action pending on a session.
// The proof is bound to the session step and to the action the player chose.
// It is checked up front since a stand may draw nothing.
func revealSource(st *state.State, player string, index uint64, p state.PendingAction, proof []byte) (randomness.Source, error) {
	if len(proof) == 0 {
		return nil, blackjack.ErrRandomness.Wrap("vrfProof required")
	}
	alpha := randomness.VRFInput(st.ChainID, player, index, p.Step, p.Label())
	src, err := randomness.NewVRFSource(st.Game.VRFPubKey, alpha, proof)
	if err != nil {
		return nil, errorsmod.Wrap(blackjack.ErrRandomness, err.Error())
	}
	return src, nil
}
