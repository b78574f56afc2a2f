package state

import errorsmod "cosmossdk.io/errors"

// TokenCodespace is the codespace of ledger errors.
const TokenCodespace = "token"

var (
	ErrInvalidAmount         = errorsmod.Register(TokenCodespace, 1, "invalid amount")
	ErrInsufficientBalance   = errorsmod.Register(TokenCodespace, 2, "insufficient balance")
	ErrInsufficientAllowance = errorsmod.Register(TokenCodespace, 3, "insufficient allowance")
	ErrUnauthorizedMint      = errorsmod.Register(TokenCodespace, 4, "only the minter may mint")
	ErrInvalidAccount        = errorsmod.Register(TokenCodespace, 5, "invalid account")
)
