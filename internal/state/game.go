package state

import (
	"sort"

	sdkmath "cosmossdk.io/math"

	"onchainblackjack/internal/cards"
)

// Status is the session state. Zero means "no session"; Playing is the only
// non-terminal state and every terminal state compares greater than it.
type Status uint8

const (
	StatusNone Status = iota
	StatusPlaying
	StatusPlayerBust
	StatusDealerBust
	StatusPlayerWin
	StatusDealerWin
	StatusPush
	StatusPlayerBlackjack
	// StatusRevealExpired ends a session whose pending action was never
	// revealed by the house before its deadline.
	StatusRevealExpired
)

func (s Status) IsTerminal() bool {
	return s > StatusPlaying
}

func (s Status) String() string {
	switch s {
	case StatusNone:
		return "none"
	case StatusPlaying:
		return "playing"
	case StatusPlayerBust:
		return "playerBust"
	case StatusDealerBust:
		return "dealerBust"
	case StatusPlayerWin:
		return "playerWin"
	case StatusDealerWin:
		return "dealerWin"
	case StatusPush:
		return "push"
	case StatusPlayerBlackjack:
		return "playerBlackjack"
	case StatusRevealExpired:
		return "revealExpired"
	default:
		return "unknown"
	}
}

// Pending action kinds.
const (
	ActionStart  = "start"
	ActionHit    = "hit"
	ActionDouble = "double"
	ActionStand  = "stand"
)

// PendingAction is a player action accepted on-chain whose cards are not drawn
// until the house reveals the randomness for it.
type PendingAction struct {
	Kind string `json:"kind"`
	// InitialAction is only meaningful for a pending start.
	InitialAction bool `json:"initialAction,omitempty"`
	// Step is the session's Actions counter the reveal is bound to.
	Step uint32 `json:"step"`
	// Deadline is the last height at which the reveal is accepted.
	Deadline int64 `json:"deadline"`
}

// Label names the action in the house VRF input.
func (p PendingAction) Label() string {
	if p.Kind == ActionStart && p.InitialAction {
		return ActionStart + "+" + ActionStand
	}
	return p.Kind
}

type Session struct {
	Player string `json:"player"`
	Index  uint64 `json:"index"`
	Status Status `json:"status"`

	PlayerCards []cards.Card `json:"playerCards"`
	DealerCards []cards.Card `json:"dealerCards"`

	// BetAmount is the total stake held in escrow for the session; it doubles
	// when the player doubles down.
	BetAmount sdkmath.Int `json:"betAmount"`
	Doubled   bool        `json:"doubled,omitempty"`

	Settled bool        `json:"settled,omitempty"`
	Payout  sdkmath.Int `json:"payout"`

	// Actions counts accepted mutating actions (start included). It scopes
	// per-step randomness.
	Actions uint32 `json:"actions"`

	// Pending is set while an action waits for the house reveal.
	Pending *PendingAction `json:"pending,omitempty"`

	StartHeight int64 `json:"startHeight"`
	EndHeight   int64 `json:"endHeight,omitempty"`
}

func (s *Session) normalize() {
	if s.BetAmount.IsNil() {
		s.BetAmount = sdkmath.ZeroInt()
	}
	if s.Payout.IsNil() {
		s.Payout = sdkmath.ZeroInt()
	}
	if s.PlayerCards == nil {
		s.PlayerCards = []cards.Card{}
	}
	if s.DealerCards == nil {
		s.DealerCards = []cards.Card{}
	}
}

// Game is the blackjack table configuration plus the append-only session
// history of every player.
type Game struct {
	Owner string `json:"owner"`
	// Token is the bound ledger identifier; fixed at genesis.
	Token string      `json:"token"`
	Bet   sdkmath.Int `json:"bet"`

	// VRFPubKey, when set, switches the table to act-then-reveal: player
	// actions wait for a house VRF reveal before any card is drawn.
	VRFPubKey []byte `json:"vrfPubKey,omitempty"`
	// RevealTimeoutBlocks bounds how long a pending action waits for its
	// reveal; zero means the default.
	RevealTimeoutBlocks uint64 `json:"revealTimeoutBlocks,omitempty"`

	Sessions map[string][]*Session `json:"sessions"`
}

func NewGame(owner, token string) *Game {
	g := &Game{Owner: owner, Token: token}
	g.normalize()
	return g
}

func (g *Game) normalize() {
	if g.Bet.IsNil() {
		g.Bet = sdkmath.ZeroInt()
	}
	if g.Sessions == nil {
		g.Sessions = map[string][]*Session{}
	}
	for _, list := range g.Sessions {
		for _, s := range list {
			if s != nil {
				s.normalize()
			}
		}
	}
}

// NextSessionIndex equals the number of sessions ever created for player.
func (g *Game) NextSessionIndex(player string) uint64 {
	return uint64(len(g.Sessions[player]))
}

// Session returns nil when the (player, index) pair does not exist.
func (g *Game) Session(player string, index uint64) *Session {
	list := g.Sessions[player]
	if index >= uint64(len(list)) {
		return nil
	}
	return list[index]
}

// AppendSession stores s under its player at the next dense index.
func (g *Game) AppendSession(s *Session) {
	s.Index = g.NextSessionIndex(s.Player)
	g.Sessions[s.Player] = append(g.Sessions[s.Player], s)
}

func (g *Game) hashView() any {
	type playerKV struct {
		Player   string     `json:"player"`
		Sessions []*Session `json:"sessions"`
	}
	players := make([]playerKV, 0, len(g.Sessions))
	for k, v := range g.Sessions {
		players = append(players, playerKV{Player: k, Sessions: v})
	}
	sort.Slice(players, func(i, j int) bool { return players[i].Player < players[j].Player })

	return struct {
		Owner               string      `json:"owner"`
		Token               string      `json:"token"`
		Bet                 sdkmath.Int `json:"bet"`
		VRFPubKey           []byte      `json:"vrfPubKey,omitempty"`
		RevealTimeoutBlocks uint64      `json:"revealTimeoutBlocks,omitempty"`
		Players             []playerKV  `json:"players"`
	}{g.Owner, g.Token, g.Bet, g.VRFPubKey, g.RevealTimeoutBlocks, players}
}
