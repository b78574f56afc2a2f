package blackjack

import errorsmod "cosmossdk.io/errors"

const ModuleName = "blackjack"

// x/blackjack sentinel errors.
var (
	ErrInvalidRequest       = errorsmod.Register(ModuleName, 1, "invalid request")
	ErrUnauthorized         = errorsmod.Register(ModuleName, 2, "unauthorized")
	ErrInvalidState         = errorsmod.Register(ModuleName, 3, "invalid session state")
	ErrInsufficientFunds    = errorsmod.Register(ModuleName, 4, "insufficient funds")
	ErrInsufficientApproval = errorsmod.Register(ModuleName, 5, "insufficient approval")
	ErrAlreadySettled       = errorsmod.Register(ModuleName, 6, "session already settled")
	ErrRandomness           = errorsmod.Register(ModuleName, 7, "randomness unavailable")
	ErrHouseInsolvent       = errorsmod.Register(ModuleName, 8, "pot cannot cover payout")
)
