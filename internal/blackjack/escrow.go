package blackjack

import (
	"errors"

	errorsmod "cosmossdk.io/errors"

	"onchainblackjack/internal/state"
)

// escrowError maps ledger failures on the stake pull onto the engine's taxonomy.
func escrowError(err error) error {
	switch {
	case errors.Is(err, state.ErrInsufficientAllowance):
		return errorsmod.Wrap(ErrInsufficientApproval, err.Error())
	case errors.Is(err, state.ErrInsufficientBalance):
		return errorsmod.Wrap(ErrInsufficientFunds, err.Error())
	default:
		return err
	}
}
