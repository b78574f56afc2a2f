package cards

import (
	"fmt"
	"strconv"
)

// Card packs a suit and a rank into one byte: suit<<4 | rank, where
// - suit is 1..4 (spades, hearts, diamonds, clubs)
// - rank is 1..13 (1 = ace, 11..13 = jack, queen, king)
//
// 0x11 is the ace of spades and 0x4d is the king of clubs. Numeric order over
// the 52 valid values is the reference deck order.
type Card uint8

const (
	NumSuits = 4
	NumRanks = 13

	// Count is the size of the reference deck.
	Count = NumSuits * NumRanks

	RankAce  uint8 = 1
	RankJack uint8 = 11
	RankKing uint8 = 13
)

const (
	SuitSpades uint8 = iota + 1
	SuitHearts
	SuitDiamonds
	SuitClubs
)

var reference = func() [Count]Card {
	var out [Count]Card
	i := 0
	for s := uint8(1); s <= NumSuits; s++ {
		for r := uint8(1); r <= NumRanks; r++ {
			out[i] = New(s, r)
			i++
		}
	}
	return out
}()

func New(suit, rank uint8) Card {
	return Card(suit<<4 | rank)
}

// All returns a copy of the 52-card reference deck in canonical order.
func All() []Card {
	out := make([]Card, Count)
	copy(out, reference[:])
	return out
}

func (c Card) Suit() uint8 { // 1..4
	return uint8(c) >> 4
}

func (c Card) Rank() uint8 { // 1..13
	return uint8(c) & 0x0f
}

func (c Card) Valid() bool {
	s, r := c.Suit(), c.Rank()
	return s >= 1 && s <= NumSuits && r >= 1 && r <= NumRanks
}

func (c Card) IsAce() bool {
	return c.Rank() == RankAce
}

// ScoreValue is the hard point value: ace 1, pips face value, court cards 10.
func (c Card) ScoreValue() uint8 {
	r := c.Rank()
	if r >= 10 {
		return 10
	}
	return r
}

func (c Card) String() string {
	if !c.Valid() {
		return fmt.Sprintf("?%#02x", uint8(c))
	}
	var rch byte
	switch r := c.Rank(); r {
	case 1:
		rch = 'A'
	case 10:
		rch = 'T'
	case 11:
		rch = 'J'
	case 12:
		rch = 'Q'
	case 13:
		rch = 'K'
	default:
		rch = '0' + r
	}
	return string([]byte{rch, "shdc"[c.Suit()-1]})
}

// MarshalJSON keeps hands encoded as arrays of numbers; a plain []uint8-kinded
// slice would otherwise be encoded as base64.
func (c Card) MarshalJSON() ([]byte, error) {
	return strconv.AppendUint(nil, uint64(c), 10), nil
}

func (c *Card) UnmarshalJSON(b []byte) error {
	v, err := strconv.ParseUint(string(b), 10, 8)
	if err != nil {
		return fmt.Errorf("card: %w", err)
	}
	*c = Card(v)
	return nil
}

// Remaining returns the reference cards not present in any of the given hands,
// in canonical order.
func Remaining(hands ...[]Card) []Card {
	used := make(map[Card]bool, 8)
	for _, h := range hands {
		for _, c := range h {
			used[c] = true
		}
	}
	out := make([]Card, 0, Count-len(used))
	for _, c := range reference {
		if !used[c] {
			out = append(out, c)
		}
	}
	return out
}

// Strings renders a hand for events and logs.
func Strings(hand []Card) []string {
	out := make([]string, len(hand))
	for i, c := range hand {
		out[i] = c.String()
	}
	return out
}
