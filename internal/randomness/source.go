// Package randomness supplies card-draw entropy to the game engine.
package randomness

import (
	"fmt"

	"onchainblackjack/internal/vrf"
)

const (
	// Keep these domains stable; they become part of consensus-critical derivations.
	blockDomain = "ocb/v1/rand/block"
	vrfDomain   = "ocb/v1/rand/vrf"
	seedDomain  = "ocb/v1/rand/seed"
)

// Source yields indices for card draws. Each call consumes fresh entropy.
type Source interface {
	// DrawIndex returns an integer in [0, domainSize).
	DrawIndex(domainSize int) (int, error)
}

// BlockSource derives draws from (chain-id, height, block-hash, tx-hash).
//
// Security note: block-derived entropy is proposer-influenceable. The block
// producer chooses which txs land in its block and can withhold a block whose
// outcome it dislikes. Deployments that wager real value should configure a
// VRF key so that draws come from NewVRFSource instead.
type BlockSource struct {
	*hashRNG
}

func NewBlockSource(chainID string, height int64, blockHash, txHash []byte) *BlockSource {
	seed := hashDomain(blockDomain,
		[]byte(chainID),
		u64le(uint64(height)),
		blockHash,
		txHash,
	)
	return &BlockSource{hashRNG: newHashRNG(seed)}
}

// SeededSource replays a fixed seed; used by tools and tests.
type SeededSource struct {
	*hashRNG
}

func NewSeededSource(seed []byte) *SeededSource {
	return &SeededSource{hashRNG: newHashRNG(hashDomain(seedDomain, seed))}
}

// VRFInput is the alpha string the house proves for one pending action of one
// session. step is the session's accepted-action counter when the action was
// requested and action names what the player committed to.
func VRFInput(chainID, player string, sessionIndex uint64, step uint32, action string) []byte {
	h := hashDomain(vrfDomain,
		[]byte(chainID),
		[]byte(player),
		u64le(sessionIndex),
		u64le(uint64(step)),
		[]byte(action),
	)
	return h[:]
}

// VRFSource draws from the output of a verified house VRF proof.
type VRFSource struct {
	*hashRNG
	output []byte
}

// NewVRFSource verifies proof for alpha under pubKey.
func NewVRFSource(pubKey, alpha, proof []byte) (*VRFSource, error) {
	beta, err := vrf.Verify(pubKey, alpha, proof)
	if err != nil {
		return nil, fmt.Errorf("verify house vrf proof: %w", err)
	}
	return &VRFSource{hashRNG: newHashRNG(hashDomain(vrfDomain, beta)), output: beta}, nil
}

func (s *VRFSource) Output() []byte {
	return append([]byte(nil), s.output...)
}
