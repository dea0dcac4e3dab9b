package common

// Agent identifies a market participant. Opaque and comparable; stable for
// the lifetime of a session.
type Agent string

type AssetKind int

const (
	// Generic assets are tradeable goods.
	Generic AssetKind = iota
	// Money is a unit of account that a book's prices are denominated in.
	Money
)

// Asset is identity only, it carries no quantity. Balances live in the
// ledger and are immutable here.
type Asset struct {
	Name string
	Kind AssetKind
}

func (a Asset) String() string {
	return a.Name
}

// Pair is one instrument: an asset priced in a money asset. Every book
// belongs to exactly one pair.
type Pair struct {
	Asset Asset
	Money Asset
}

func (p Pair) String() string {
	return p.Asset.Name + "/" + p.Money.Name
}

type Side int

const (
	Buy Side = iota
	Sell
)

func (s Side) String() string {
	if s == Buy {
		return "BUY"
	}
	return "SELL"
}
