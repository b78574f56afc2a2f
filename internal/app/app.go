package app

import (
	"bytes"
	"context"
	"fmt"
	"sort"
	"sync"

	"cosmossdk.io/log"

	abci "github.com/cometbft/cometbft/abci/types"

	"onchainblackjack/internal/codec"
	"onchainblackjack/internal/state"
)

const (
	AppVersion uint64 = 1
)

// BJApp hosts the blackjack engine as a CometBFT ABCI application. Every
// request runs under one mutex, so transitions never interleave.
type BJApp struct {
	*abci.BaseApplication

	store  *state.Store
	logger log.Logger

	mu        sync.Mutex
	st        *state.State
	lastHash  []byte
	blockHash []byte
}

func New(store *state.Store, logger log.Logger) (*BJApp, error) {
	if store == nil {
		return nil, fmt.Errorf("app: store is nil")
	}
	if logger == nil {
		logger = log.NewNopLogger()
	}
	st, err := store.Load()
	if err != nil {
		return nil, err
	}
	hash := st.AppHash()
	if st.Height > 0 {
		committed, err := store.AppHashAt(st.Height)
		if err != nil {
			return nil, err
		}
		if committed != nil && !bytes.Equal(committed, hash) {
			return nil, fmt.Errorf("state snapshot at height %d does not match committed app hash %X", st.Height, committed)
		}
	}
	return &BJApp{
		BaseApplication: abci.NewBaseApplication(),
		store:           store,
		logger:          logger.With("module", "app"),
		st:              st,
		lastHash:        hash,
	}, nil
}

func (a *BJApp) Info(_ context.Context, _ *abci.InfoRequest) (*abci.InfoResponse, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	return &abci.InfoResponse{
		Data:             "OCB blackjack",
		Version:          "v1",
		AppVersion:       AppVersion,
		LastBlockHeight:  a.st.Height,
		LastBlockAppHash: a.lastHash,
	}, nil
}

// CheckTx only validates structure; authorization runs at execution.
func (a *BJApp) CheckTx(_ context.Context, req *abci.CheckTxRequest) (*abci.CheckTxResponse, error) {
	env, err := codec.DecodeTxEnvelope(req.Tx)
	if err == nil {
		err = requireSignedEnvelope(env)
	}
	if err != nil {
		res := errorResult(err)
		return &abci.CheckTxResponse{Codespace: res.Codespace, Code: res.Code, Log: res.Log}, nil
	}
	return &abci.CheckTxResponse{Code: 0}, nil
}

func (a *BJApp) InitChain(_ context.Context, req *abci.InitChainRequest) (*abci.InitChainResponse, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	st, err := initGenesis(req.ChainId, req.AppStateBytes)
	if err != nil {
		return nil, err
	}
	a.st = st
	a.lastHash = st.AppHash()
	a.logger.Info("genesis loaded", "chain_id", req.ChainId, "owner", st.Game.Owner, "bet", st.Game.Bet.String())
	return &abci.InitChainResponse{AppHash: a.lastHash}, nil
}

func (a *BJApp) FinalizeBlock(_ context.Context, req *abci.FinalizeBlockRequest) (*abci.FinalizeBlockResponse, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.st.Height = req.Height
	a.blockHash = append([]byte(nil), req.Hash...)

	txResults := make([]*abci.ExecTxResult, 0, len(req.Txs))
	for _, txBytes := range req.Txs {
		txResults = append(txResults, a.deliverTx(txBytes))
	}

	a.lastHash = a.st.AppHash()

	return &abci.FinalizeBlockResponse{
		TxResults: txResults,
		AppHash:   a.lastHash,
	}, nil
}

func (a *BJApp) Commit(_ context.Context, _ *abci.CommitRequest) (*abci.CommitResponse, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if err := a.store.Save(a.st, a.lastHash); err != nil {
		// Halt loudly rather than continue with unpersisted state.
		a.logger.Error("persist state", "height", a.st.Height, "err", err)
		return nil, err
	}
	a.logger.Info("committed block", "height", a.st.Height, "app_hash", fmt.Sprintf("%X", a.lastHash))
	return &abci.CommitResponse{}, nil
}

func newEvent(typ string, attrs map[string]string) abci.Event {
	ev := abci.Event{Type: typ}
	keys := make([]string, 0, len(attrs))
	for k := range attrs {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		ev.Attributes = append(ev.Attributes, abci.EventAttribute{Key: k, Value: attrs[k], Index: true})
	}
	return ev
}
