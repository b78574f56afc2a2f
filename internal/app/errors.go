package app

import errorsmod "cosmossdk.io/errors"

// AuthCodespace covers envelope decoding, routing and tx authentication.
const AuthCodespace = "auth"

var (
	ErrInvalidTx        = errorsmod.Register(AuthCodespace, 1, "invalid tx")
	ErrUnauthorized     = errorsmod.Register(AuthCodespace, 2, "unauthorized")
	ErrReplayedNonce    = errorsmod.Register(AuthCodespace, 3, "replayed tx.nonce")
	ErrInvalidNonce     = errorsmod.Register(AuthCodespace, 4, "invalid tx.nonce")
	ErrInvalidSignature = errorsmod.Register(AuthCodespace, 5, "invalid signature")
	ErrUnknownAccount   = errorsmod.Register(AuthCodespace, 6, "unknown account")
	ErrUnknownTxType    = errorsmod.Register(AuthCodespace, 7, "unknown tx type")
	ErrInvalidGenesis   = errorsmod.Register(AuthCodespace, 8, "invalid genesis")
)
