package app

import (
	"context"
	"encoding/json"
	"strconv"
	"strings"

	abci "github.com/cometbft/cometbft/abci/types"

	"onchainblackjack/internal/blackjack"
	"onchainblackjack/internal/cards"
	"onchainblackjack/internal/state"
)

type sessionView struct {
	*state.Session
	StatusName  string `json:"statusName"`
	PlayerTotal uint32 `json:"playerTotal"`
	DealerTotal uint32 `json:"dealerTotal"`

	// RevealAction is the action label the house must prove, if any.
	RevealAction string `json:"revealAction,omitempty"`
}

func newSessionView(s *state.Session) sessionView {
	v := sessionView{
		Session:     s,
		StatusName:  s.Status.String(),
		PlayerTotal: blackjack.PlayerTotal(s.PlayerCards),
		DealerTotal: blackjack.DealerTotal(s.DealerCards, true),
	}
	if s.Pending != nil {
		v.RevealAction = s.Pending.Label()
	}
	return v
}

// EvalRequest is the Data of an /blackjack/eval query.
type EvalRequest struct {
	Cards        []cards.Card `json:"cards"`
	OptimizeAces bool         `json:"optimizeAces"`
}

// Query paths:
//   - /blackjack/config
//   - /blackjack/next_session/<player>
//   - /blackjack/session/<player>/<index>
//   - /blackjack/sessions/<player>
//   - /blackjack/cards
//   - /blackjack/eval (data: EvalRequest)
//   - /token/balance/<account>
//   - /token/allowance/<owner>/<spender>
//   - /token/info
func (a *BJApp) Query(ctx context.Context, req *abci.QueryRequest) (*abci.QueryResponse, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	st := a.st
	k := blackjack.NewKeeper(st.Game, st.Token, a.logger)
	fail := func(log string) (*abci.QueryResponse, error) {
		return &abci.QueryResponse{Code: 1, Log: log, Height: st.Height}, nil
	}
	ok := func(v any) (*abci.QueryResponse, error) {
		b, err := json.Marshal(v)
		if err != nil {
			return fail("encode response: " + err.Error())
		}
		return &abci.QueryResponse{Code: 0, Value: b, Height: st.Height}, nil
	}

	path := strings.TrimSpace(req.Path)
	parts := strings.Split(strings.Trim(path, "/"), "/")
	switch {
	case path == "/blackjack/config":
		return ok(map[string]any{
			"owner":     k.Owner(),
			"token":     k.Token(),
			"bet":       k.Bet(),
			"pot":       k.Pot(ctx),
			"vrfPubKey": k.VRFPubKey(),

			"revealTimeoutBlocks": k.RevealTimeoutBlocks(),
		})

	case path == "/blackjack/cards":
		return ok(map[string]any{"cards": cards.All(), "cardCount": cards.Count})

	case path == "/blackjack/eval":
		var er EvalRequest
		if err := json.Unmarshal(req.Data, &er); err != nil {
			return fail("invalid eval request: " + err.Error())
		}
		for _, c := range er.Cards {
			if !c.Valid() {
				return fail("invalid card " + strconv.Itoa(int(c)))
			}
		}
		point, aces := blackjack.BasePoint(er.Cards)
		return ok(map[string]any{
			"point":       point,
			"aceCount":    aces,
			"playerTotal": blackjack.PlayerTotal(er.Cards),
			"dealerTotal": blackjack.DealerTotal(er.Cards, er.OptimizeAces),
		})

	case len(parts) == 3 && parts[0] == "blackjack" && parts[1] == "next_session":
		return ok(map[string]any{"player": parts[2], "nextSessionIndex": k.NextSessionIndex(parts[2])})

	case len(parts) == 3 && parts[0] == "blackjack" && parts[1] == "sessions":
		list := k.Sessions(parts[2])
		views := make([]sessionView, 0, len(list))
		for _, s := range list {
			views = append(views, newSessionView(s))
		}
		return ok(views)

	case len(parts) == 4 && parts[0] == "blackjack" && parts[1] == "session":
		index, err := strconv.ParseUint(parts[3], 10, 64)
		if err != nil {
			return fail("invalid session index")
		}
		s, err := k.GetSession(parts[2], index)
		if err != nil {
			return fail(err.Error())
		}
		return ok(newSessionView(s))

	case len(parts) == 3 && parts[0] == "token" && parts[1] == "balance":
		return ok(map[string]any{"account": parts[2], "balance": st.Token.BalanceOf(ctx, parts[2])})

	case len(parts) == 4 && parts[0] == "token" && parts[1] == "allowance":
		return ok(map[string]any{
			"owner":     parts[2],
			"spender":   parts[3],
			"allowance": st.Token.Allowance(ctx, parts[2], parts[3]),
		})

	case path == "/token/info":
		return ok(map[string]any{
			"symbol":   st.Token.Symbol,
			"decimals": st.Token.Decimals,
			"minter":   st.Token.Minter,
			"supply":   st.Token.Supply,
		})

	default:
		return fail("unknown query path")
	}
}
