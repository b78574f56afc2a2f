package state

import (
	"context"
	"sort"

	sdkmath "cosmossdk.io/math"
)

// Token is the in-state fungible asset ledger. It only moves pre-existing
// balances, except for Mint which is restricted to the minter.
type Token struct {
	Symbol   string      `json:"symbol"`
	Decimals uint8       `json:"decimals"`
	Minter   string      `json:"minter"`
	Supply   sdkmath.Int `json:"supply"`

	Balances   map[string]sdkmath.Int            `json:"balances"`
	Allowances map[string]map[string]sdkmath.Int `json:"allowances,omitempty"` // owner -> spender -> amount
}

func NewToken(symbol string, decimals uint8, minter string) *Token {
	t := &Token{Symbol: symbol, Decimals: decimals, Minter: minter}
	t.normalize()
	return t
}

func (t *Token) normalize() {
	if t.Supply.IsNil() {
		t.Supply = sdkmath.ZeroInt()
	}
	if t.Balances == nil {
		t.Balances = map[string]sdkmath.Int{}
	}
	if t.Allowances == nil {
		t.Allowances = map[string]map[string]sdkmath.Int{}
	}
}

func zeroIfNil(v sdkmath.Int) sdkmath.Int {
	if v.IsNil() {
		return sdkmath.ZeroInt()
	}
	return v
}

func requirePositive(amount sdkmath.Int) error {
	if amount.IsNil() || !amount.IsPositive() {
		return ErrInvalidAmount.Wrapf("amount must be positive, got %s", amount)
	}
	return nil
}

func (t *Token) BalanceOf(_ context.Context, account string) sdkmath.Int {
	return t.balance(account)
}

func (t *Token) balance(account string) sdkmath.Int {
	return zeroIfNil(t.Balances[account])
}

func (t *Token) Allowance(_ context.Context, owner, spender string) sdkmath.Int {
	return zeroIfNil(t.Allowances[owner][spender])
}

func (t *Token) Mint(_ context.Context, minter, to string, amount sdkmath.Int) error {
	if minter != t.Minter || t.Minter == "" {
		return ErrUnauthorizedMint.Wrapf("minter=%q", minter)
	}
	return t.mint(to, amount)
}

// MintGenesis credits balances at genesis, before any minter exists on-chain.
func (t *Token) MintGenesis(to string, amount sdkmath.Int) error {
	return t.mint(to, amount)
}

func (t *Token) mint(to string, amount sdkmath.Int) error {
	if to == "" {
		return ErrInvalidAccount.Wrap("missing recipient")
	}
	if err := requirePositive(amount); err != nil {
		return err
	}
	supply, err := t.Supply.SafeAdd(amount)
	if err != nil {
		return ErrInvalidAmount.Wrapf("supply overflow: %v", err)
	}
	bal, err := t.balance(to).SafeAdd(amount)
	if err != nil {
		return ErrInvalidAmount.Wrapf("balance overflow: %v", err)
	}
	t.Supply = supply
	t.Balances[to] = bal
	return nil
}

// Approve sets (not increments) the amount spender may move out of owner.
func (t *Token) Approve(_ context.Context, owner, spender string, amount sdkmath.Int) error {
	if owner == "" || spender == "" {
		return ErrInvalidAccount.Wrap("missing owner/spender")
	}
	if amount.IsNil() || amount.IsNegative() {
		return ErrInvalidAmount.Wrapf("allowance must be >= 0, got %s", amount)
	}
	m := t.Allowances[owner]
	if m == nil {
		m = map[string]sdkmath.Int{}
		t.Allowances[owner] = m
	}
	if amount.IsZero() {
		delete(m, spender)
		if len(m) == 0 {
			delete(t.Allowances, owner)
		}
		return nil
	}
	m[spender] = amount
	return nil
}

func (t *Token) Transfer(_ context.Context, from, to string, amount sdkmath.Int) error {
	if from == "" || to == "" {
		return ErrInvalidAccount.Wrap("missing from/to")
	}
	if err := requirePositive(amount); err != nil {
		return err
	}
	have := t.balance(from)
	if have.LT(amount) {
		return ErrInsufficientBalance.Wrapf("have=%s need=%s", have, amount)
	}
	if from == to {
		return nil
	}
	credited, err := t.balance(to).SafeAdd(amount)
	if err != nil {
		return ErrInvalidAmount.Wrapf("balance overflow: %v", err)
	}
	t.setBalance(from, have.Sub(amount))
	t.setBalance(to, credited)
	return nil
}

// TransferFrom moves amount from owner to "to" on behalf of spender, consuming
// spender's allowance. Both checks happen before any balance changes.
func (t *Token) TransferFrom(ctx context.Context, spender, owner, to string, amount sdkmath.Int) error {
	if err := requirePositive(amount); err != nil {
		return err
	}
	allowed := t.Allowance(ctx, owner, spender)
	if allowed.LT(amount) {
		return ErrInsufficientAllowance.Wrapf("allowance=%s need=%s", allowed, amount)
	}
	if err := t.Transfer(ctx, owner, to, amount); err != nil {
		return err
	}
	return t.Approve(ctx, owner, spender, allowed.Sub(amount))
}

func (t *Token) setBalance(account string, v sdkmath.Int) {
	if v.IsZero() {
		delete(t.Balances, account)
		return
	}
	t.Balances[account] = v
}

func (t *Token) hashView() any {
	type balanceKV struct {
		Account string      `json:"account"`
		Amount  sdkmath.Int `json:"amount"`
	}
	type allowanceKV struct {
		Owner   string      `json:"owner"`
		Spender string      `json:"spender"`
		Amount  sdkmath.Int `json:"amount"`
	}

	balances := make([]balanceKV, 0, len(t.Balances))
	for k, v := range t.Balances {
		balances = append(balances, balanceKV{Account: k, Amount: zeroIfNil(v)})
	}
	sort.Slice(balances, func(i, j int) bool { return balances[i].Account < balances[j].Account })

	allowances := []allowanceKV{}
	for owner, m := range t.Allowances {
		for spender, v := range m {
			allowances = append(allowances, allowanceKV{Owner: owner, Spender: spender, Amount: zeroIfNil(v)})
		}
	}
	sort.Slice(allowances, func(i, j int) bool {
		if allowances[i].Owner != allowances[j].Owner {
			return allowances[i].Owner < allowances[j].Owner
		}
		return allowances[i].Spender < allowances[j].Spender
	})

	return struct {
		Symbol     string        `json:"symbol"`
		Decimals   uint8         `json:"decimals"`
		Minter     string        `json:"minter"`
		Supply     sdkmath.Int   `json:"supply"`
		Balances   []balanceKV   `json:"balances"`
		Allowances []allowanceKV `json:"allowances"`
	}{t.Symbol, t.Decimals, t.Minter, t.Supply, balances, allowances}
}
