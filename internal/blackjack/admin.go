package blackjack

import (
	sdkmath "cosmossdk.io/math"

	abci "github.com/cometbft/cometbft/abci/types"
)

func (k Keeper) requireOwner(caller string) error {
	if caller == "" {
		return ErrInvalidRequest.Wrap("missing caller")
	}
	if caller != k.game.Owner {
		return ErrUnauthorized.Wrapf("caller %q is not the owner", caller)
	}
	return nil
}

// SetBet changes the stake for sessions started from now on. Sessions in
// progress keep the amount they escrowed.
func (k Keeper) SetBet(caller string, amount sdkmath.Int) ([]abci.Event, error) {
	if err := k.requireOwner(caller); err != nil {
		return nil, err
	}
	if amount.IsNil() || !amount.IsPositive() {
		return nil, ErrInvalidRequest.Wrapf("bet must be positive, got %s", amount)
	}
	old := k.game.Bet
	k.game.Bet = amount
	k.logger.Info("bet changed", "old", old.String(), "new", amount.String())
	return []abci.Event{{
		Type: EventTypeBetChanged,
		Attributes: []abci.EventAttribute{
			attr("caller", caller, true),
			attr("oldBet", old.String(), false),
			attr("newBet", amount.String(), false),
		},
	}}, nil
}

func (k Keeper) TransferOwnership(caller, newOwner string) ([]abci.Event, error) {
	if err := k.requireOwner(caller); err != nil {
		return nil, err
	}
	if newOwner == "" {
		return nil, ErrInvalidRequest.Wrap("missing new owner")
	}
	if newOwner == PotAccount {
		return nil, ErrInvalidRequest.Wrap("pot account cannot own the game")
	}
	k.game.Owner = newOwner
	k.logger.Info("ownership transferred", "from", caller, "to", newOwner)
	return []abci.Event{{
		Type: EventTypeOwnershipTransferred,
		Attributes: []abci.EventAttribute{
			attr("previousOwner", caller, true),
			attr("newOwner", newOwner, true),
		},
	}}, nil
}
