package common

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// Trade accounts for the two orders that matched. Created by the matching
// engine, settled immediately, handed to the reporter once and not
// retained by the core.
type Trade struct {
	ID        string // uuid
	Buy       *Order
	Sell      *Order
	Quantity  int64
	Price     decimal.Decimal
	Timestamp time.Time
}

// Notional is the money leg of the trade.
func (t Trade) Notional() decimal.Decimal {
	return t.Price.Mul(decimal.NewFromInt(t.Quantity))
}

func (t Trade) String() string {
	return fmt.Sprintf("%s -> %s: %d %s @ %s %s",
		t.Sell.Owner,
		t.Buy.Owner,
		t.Quantity,
		t.Buy.Pair.Asset,
		t.Price,
		t.Buy.Pair.Money,
	)
}
