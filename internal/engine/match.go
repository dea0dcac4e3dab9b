package engine

import (
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"

	"agora/internal/common"
)

var two = decimal.NewFromInt(2)

// Match consumes the top of book while it crosses (best bid >= best ask),
// producing one trade per iteration and settling it synchronously before
// the book is touched again. The executed price is the midpoint of the
// two limit prices; the executed quantity is the smaller remaining
// quantity. A partially filled order keeps its id, price and admission
// sequence, so the residual stays at the front of its side and is served
// before any later order at the same price.
//
// Each iteration fully fills at least one order and removes it, so the
// loop terminates. An empty or non-crossing book yields no trades, which
// is not an error.
func (e *Engine) Match() ([]common.Trade, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.halted {
		return nil, ErrHalted
	}

	var trades []common.Trade
	for e.book.Crossed() {
		bid, _ := e.book.BestBid()
		ask, _ := e.book.BestAsk()

		trade := common.Trade{
			ID:        uuid.NewString(),
			Buy:       bid,
			Sell:      ask,
			Quantity:  min(bid.Quantity, ask.Quantity),
			Price:     bid.Price.Add(ask.Price).Div(two),
			Timestamp: time.Now(),
		}

		if err := e.settle(trade); err != nil {
			// The book and the ledger disagree. Halt this book and
			// surface the failure instead of dropping the trade.
			e.halted = true
			log.Error().
				Err(err).
				Stringer("pair", e.book.Pair()).
				Str("trade", trade.ID).
				Msg("settlement failed, halting book")
			return trades, err
		}

		bid.Quantity -= trade.Quantity
		ask.Quantity -= trade.Quantity
		if bid.Quantity == 0 {
			e.book.Remove(bid.ID)
		}
		if ask.Quantity == 0 {
			e.book.Remove(ask.ID)
		}

		trades = append(trades, trade)
		if e.reporter != nil {
			e.reporter.ReportTrade(trade)
		}
	}
	return trades, nil
}
