package common

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// Order is a resting limit order. ID doubles as the admission sequence:
// it is assigned monotonically when admission control accepts the order,
// so comparing IDs compares arrival. Only Quantity is mutated after
// acceptance (reduced on partial fill); identity, price and sequence never
// change, which is what lets a residual keep its place in the queue.
type Order struct {
	ID       uint64          // Admission sequence, assigned on acceptance
	Side     Side            // Order side
	Pair     Pair            // Instrument the order trades
	Price    decimal.Decimal // Limit price, money per unit of asset
	Quantity int64           // Remaining quantity to fill
	Owner    Agent           // Who placed this order
	Accepted time.Time       // Wall-clock time of acceptance
}

// Notional is the money the order encumbers at its limit price.
func (o Order) Notional() decimal.Decimal {
	return o.Price.Mul(decimal.NewFromInt(o.Quantity))
}

func (o Order) String() string {
	return fmt.Sprintf("#%d %s %d %s @ %s %s -- %s",
		o.ID,
		o.Side,
		o.Quantity,
		o.Pair.Asset,
		o.Price,
		o.Pair.Money,
		o.Owner,
	)
}
