// Package book implements the order book data model for one instrument
// pair: two price-time ordered sequences of resting limit orders.
package book

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/tidwall/btree"

	"agora/internal/common"
)

var ErrUnknownOrder = errors.New("unknown order")

// Book holds the open orders for one pair. Bids are ordered best (highest
// price) first, asks best (lowest price) first; within a price level the
// lower admission sequence comes first. The book does no locking of its
// own: the owning engine serializes all access.
type Book struct {
	pair common.Pair
	bids *btree.BTreeG[*common.Order]
	asks *btree.BTreeG[*common.Order]
	byID map[uint64]*common.Order
}

func New(pair common.Pair) *Book {
	// Highest price first, oldest first within a price.
	bids := btree.NewBTreeG(func(a, b *common.Order) bool {
		if a.Price.Equal(b.Price) {
			return a.ID < b.ID
		}
		return a.Price.GreaterThan(b.Price)
	})
	// Lowest price first, oldest first within a price.
	asks := btree.NewBTreeG(func(a, b *common.Order) bool {
		if a.Price.Equal(b.Price) {
			return a.ID < b.ID
		}
		return a.Price.LessThan(b.Price)
	})
	return &Book{
		pair: pair,
		bids: bids,
		asks: asks,
		byID: make(map[uint64]*common.Order),
	}
}

func (b *Book) Pair() common.Pair {
	return b.pair
}

func (b *Book) Len() int {
	return len(b.byID)
}

// Insert splices an admitted order into its side. The trees key on
// (price, sequence), so this is a sorted insert proportional to book
// depth. Quantity is not part of the key: a partial fill mutates an order
// in place without disturbing its position.
func (b *Book) Insert(order *common.Order) {
	b.side(order.Side).Set(order)
	b.byID[order.ID] = order
}

// Remove deletes the order with the given id from whichever side it
// occupies and returns it. Removing an id that is not resting, including
// a second remove of the same id, fails with ErrUnknownOrder.
func (b *Book) Remove(id uint64) (*common.Order, error) {
	order, ok := b.byID[id]
	if !ok {
		return nil, fmt.Errorf("%w: id %d", ErrUnknownOrder, id)
	}
	delete(b.byID, id)
	b.side(order.Side).Delete(order)
	return order, nil
}

// BestBid returns the highest-priced, earliest-admitted bid.
func (b *Book) BestBid() (*common.Order, bool) {
	return b.bids.Min()
}

// BestAsk returns the lowest-priced, earliest-admitted ask.
func (b *Book) BestAsk() (*common.Order, bool) {
	return b.asks.Min()
}

// Crossed reports whether the top of book crosses (best bid >= best ask).
func (b *Book) Crossed() bool {
	bid, ok := b.BestBid()
	if !ok {
		return false
	}
	ask, ok := b.BestAsk()
	if !ok {
		return false
	}
	return bid.Price.GreaterThanOrEqual(ask.Price)
}

// Reserved sums what the agent's open orders in this book commit of
// asset: quantities of sell orders in the asset itself, plus price times
// quantity of buy orders denominated in the book's money. It is
// recomputed from the live orders on every call, so fills, splits and
// cancels can never leak a stale reservation.
func (b *Book) Reserved(agent common.Agent, asset common.Asset) decimal.Decimal {
	total := decimal.Zero
	if b.pair.Asset == asset {
		b.asks.Scan(func(o *common.Order) bool {
			if o.Owner == agent {
				total = total.Add(decimal.NewFromInt(o.Quantity))
			}
			return true
		})
	}
	if b.pair.Money == asset {
		b.bids.Scan(func(o *common.Order) bool {
			if o.Owner == agent {
				total = total.Add(o.Notional())
			}
			return true
		})
	}
	return total
}

// Bids returns a copy of the bid queue in priority order.
func (b *Book) Bids() []common.Order {
	return flatten(b.bids)
}

// Asks returns a copy of the ask queue in priority order.
func (b *Book) Asks() []common.Order {
	return flatten(b.asks)
}

func flatten(tree *btree.BTreeG[*common.Order]) []common.Order {
	orders := make([]common.Order, 0, tree.Len())
	tree.Scan(func(o *common.Order) bool {
		orders = append(orders, *o)
		return true
	})
	return orders
}

func (b *Book) side(s common.Side) *btree.BTreeG[*common.Order] {
	if s == common.Buy {
		return b.bids
	}
	return b.asks
}
