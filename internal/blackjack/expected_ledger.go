package blackjack

import (
	"context"

	sdkmath "cosmossdk.io/math"
)

// Ledger is the fungible-asset collaborator the engine escrows and pays
// through. TransferFrom is gated by the owner's allowance to spender.
type Ledger interface {
	BalanceOf(ctx context.Context, account string) sdkmath.Int
	Allowance(ctx context.Context, owner, spender string) sdkmath.Int
	Transfer(ctx context.Context, from, to string, amount sdkmath.Int) error
	TransferFrom(ctx context.Context, spender, owner, to string, amount sdkmath.Int) error
}
