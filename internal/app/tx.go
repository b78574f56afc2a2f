package app

import (
	"context"
	"encoding/json"

	errorsmod "cosmossdk.io/errors"

	abci "github.com/cometbft/cometbft/abci/types"
	"github.com/cometbft/cometbft/crypto/tmhash"

	"onchainblackjack/internal/blackjack"
	"onchainblackjack/internal/codec"
	"onchainblackjack/internal/state"
)

func errorResult(err error) *abci.ExecTxResult {
	codespace, code, log := errorsmod.ABCIInfo(err, false)
	return &abci.ExecTxResult{Codespace: codespace, Code: code, Log: log}
}

func decodeMsg(env codec.TxEnvelope, v any) error {
	if err := json.Unmarshal(env.Value, v); err != nil {
		return ErrInvalidTx.Wrapf("bad %s value: %v", env.Type, err)
	}
	return nil
}

// authorize checks the signature of principal and consumes the nonce.
func authorize(st *state.State, env codec.TxEnvelope, principal string) error {
	if err := requireAccountAuth(st, env, principal); err != nil {
		return err
	}
	return consumeNonce(st, env)
}

// deliverTx executes one tx against a clone of the live state. The clone
// replaces the live state only if every step succeeds.
func (a *BJApp) deliverTx(txBytes []byte) *abci.ExecTxResult {
	env, err := codec.DecodeTxEnvelope(txBytes)
	if err != nil {
		return errorResult(errorsmod.Wrap(ErrInvalidTx, err.Error()))
	}

	next, err := a.st.Clone()
	if err != nil {
		a.logger.Error("stage state", "err", err)
		return errorResult(errorsmod.Wrap(ErrInvalidTx, err.Error()))
	}

	events, err := a.execTx(context.Background(), next, env, tmhash.Sum(txBytes))
	if err != nil {
		a.logger.Debug("tx failed", "type", env.Type, "signer", env.Signer, "err", err)
		return errorResult(err)
	}
	a.st = next
	return &abci.ExecTxResult{Code: 0, Events: events}
}

func (a *BJApp) execTx(ctx context.Context, st *state.State, env codec.TxEnvelope, txHash []byte) ([]abci.Event, error) {
	switch env.Type {
	case codec.TypeAuthRegisterAccount:
		var msg codec.AuthRegisterAccountTx
		if err := decodeMsg(env, &msg); err != nil {
			return nil, err
		}
		if err := requireRegisterAccountAuth(st, env, msg); err != nil {
			return nil, err
		}
		if err := consumeNonce(st, env); err != nil {
			return nil, err
		}
		st.AccountKeys[msg.Account] = append([]byte(nil), msg.PubKey...)
		return []abci.Event{newEvent("AccountRegistered", map[string]string{"account": msg.Account})}, nil

	case codec.TypeTokenMint, codec.TypeTokenTransfer, codec.TypeTokenApprove:
		return execTokenTx(ctx, st, env)

	case codec.TypeBlackjackStart, codec.TypeBlackjackHit, codec.TypeBlackjackStand,
		codec.TypeBlackjackReveal, codec.TypeBlackjackExpireReveal,
		codec.TypeBlackjackSetBet, codec.TypeBlackjackTransferOwnership:
		return a.execBlackjackTx(ctx, st, env, txHash)

	default:
		return nil, ErrUnknownTxType.Wrapf("unknown tx type: %s", env.Type)
	}
}

func execTokenTx(ctx context.Context, st *state.State, env codec.TxEnvelope) ([]abci.Event, error) {
	switch env.Type {
	case codec.TypeTokenMint:
		var msg codec.TokenMintTx
		if err := decodeMsg(env, &msg); err != nil {
			return nil, err
		}
		if err := authorize(st, env, env.Signer); err != nil {
			return nil, err
		}
		if err := st.Token.Mint(ctx, env.Signer, msg.To, msg.Amount); err != nil {
			return nil, err
		}
		return []abci.Event{newEvent("TokenMinted", map[string]string{
			"minter": env.Signer,
			"to":     msg.To,
			"amount": msg.Amount.String(),
		})}, nil

	case codec.TypeTokenTransfer:
		var msg codec.TokenTransferTx
		if err := decodeMsg(env, &msg); err != nil {
			return nil, err
		}
		if err := authorize(st, env, msg.From); err != nil {
			return nil, err
		}
		if err := st.Token.Transfer(ctx, msg.From, msg.To, msg.Amount); err != nil {
			return nil, err
		}
		return []abci.Event{newEvent("TokenTransferred", map[string]string{
			"from":   msg.From,
			"to":     msg.To,
			"amount": msg.Amount.String(),
		})}, nil

	default: // codec.TypeTokenApprove
		var msg codec.TokenApproveTx
		if err := decodeMsg(env, &msg); err != nil {
			return nil, err
		}
		if err := authorize(st, env, msg.Owner); err != nil {
			return nil, err
		}
		if err := st.Token.Approve(ctx, msg.Owner, msg.Spender, msg.Amount); err != nil {
			return nil, err
		}
		return []abci.Event{newEvent("TokenApproved", map[string]string{
			"owner":   msg.Owner,
			"spender": msg.Spender,
			"amount":  msg.Amount.String(),
		})}, nil
	}
}

func (a *BJApp) execBlackjackTx(ctx context.Context, st *state.State, env codec.TxEnvelope, txHash []byte) ([]abci.Event, error) {
	k := blackjack.NewKeeper(st.Game, st.Token, a.logger).WithHeight(st.Height)

	switch env.Type {
	case codec.TypeBlackjackStart:
		var msg codec.BlackjackStartTx
		if err := decodeMsg(env, &msg); err != nil {
			return nil, err
		}
		if err := authorize(st, env, msg.Player); err != nil {
			return nil, err
		}
		if k.HouseReveals() {
			_, events, err := k.RequestStart(ctx, msg.Player, msg.InitialAction)
			return events, err
		}
		_, events, err := k.Start(ctx, msg.Player, msg.InitialAction, a.blockSource(st, txHash))
		return events, err

	case codec.TypeBlackjackHit:
		var msg codec.BlackjackHitTx
		if err := decodeMsg(env, &msg); err != nil {
			return nil, err
		}
		if err := authorize(st, env, msg.Player); err != nil {
			return nil, err
		}
		if k.HouseReveals() {
			_, events, err := k.RequestHit(ctx, msg.Player, msg.SessionIndex, msg.Double)
			return events, err
		}
		_, events, err := k.Hit(ctx, msg.Player, msg.SessionIndex, msg.Double, a.blockSource(st, txHash))
		return events, err

	case codec.TypeBlackjackStand:
		var msg codec.BlackjackStandTx
		if err := decodeMsg(env, &msg); err != nil {
			return nil, err
		}
		if err := authorize(st, env, msg.Player); err != nil {
			return nil, err
		}
		if k.HouseReveals() {
			_, events, err := k.RequestStand(ctx, msg.Player, msg.SessionIndex)
			return events, err
		}
		_, events, err := k.Stand(ctx, msg.Player, msg.SessionIndex, a.blockSource(st, txHash))
		return events, err

	case codec.TypeBlackjackReveal:
		var msg codec.BlackjackRevealTx
		if err := decodeMsg(env, &msg); err != nil {
			return nil, err
		}
		if err := authorize(st, env, k.Owner()); err != nil {
			return nil, err
		}
		if !k.HouseReveals() {
			return nil, blackjack.ErrInvalidState.Wrap("no house VRF key configured")
		}
		p, err := k.Pending(msg.Player, msg.SessionIndex)
		if err != nil {
			return nil, err
		}
		rng, err := revealSource(st, msg.Player, msg.SessionIndex, p, msg.VRFProof)
		if err != nil {
			return nil, err
		}
		_, events, err := k.Reveal(ctx, msg.Player, msg.SessionIndex, rng)
		return events, err

	case codec.TypeBlackjackExpireReveal:
		var msg codec.BlackjackExpireRevealTx
		if err := decodeMsg(env, &msg); err != nil {
			return nil, err
		}
		if err := authorize(st, env, env.Signer); err != nil {
			return nil, err
		}
		_, events, err := k.ExpireReveal(ctx, msg.Player, msg.SessionIndex)
		return events, err

	case codec.TypeBlackjackSetBet:
		var msg codec.BlackjackSetBetTx
		if err := decodeMsg(env, &msg); err != nil {
			return nil, err
		}
		if err := authorize(st, env, msg.Caller); err != nil {
			return nil, err
		}
		return k.SetBet(msg.Caller, msg.Amount)

	default: // codec.TypeBlackjackTransferOwnership
		var msg codec.BlackjackTransferOwnershipTx
		if err := decodeMsg(env, &msg); err != nil {
			return nil, err
		}
		if err := authorize(st, env, msg.Caller); err != nil {
			return nil, err
		}
		return k.TransferOwnership(msg.Caller, msg.NewOwner)
	}
}
