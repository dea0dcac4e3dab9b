package engine

import (
	"fmt"

	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"

	"agora/internal/common"
)

// settle applies a trade's two legs to the ledger: asset from seller to
// buyer, money from buyer to seller. Admission control should make a
// failure here impossible, but the ledger enforces balances independently
// as a safety net; any failure means the reservation accounting is wrong
// and is fatal for the book. Assumes e.mu is held.
func (e *Engine) settle(trade common.Trade) error {
	pair := e.book.Pair()
	qty := decimal.NewFromInt(trade.Quantity)

	if err := e.ledger.Transfer(trade.Sell.Owner, trade.Buy.Owner, pair.Asset, qty); err != nil {
		return fmt.Errorf("%w: asset leg: %w", ErrSettlementFailure, err)
	}
	if err := e.ledger.Transfer(trade.Buy.Owner, trade.Sell.Owner, pair.Money, trade.Notional()); err != nil {
		// Reverse the asset leg so the ledger still matches the book
		// before surfacing the failure.
		if rb := e.ledger.Transfer(trade.Buy.Owner, trade.Sell.Owner, pair.Asset, qty); rb != nil {
			log.Error().Err(rb).Str("trade", trade.ID).Msg("asset leg rollback failed")
		}
		return fmt.Errorf("%w: money leg: %w", ErrSettlementFailure, err)
	}
	return nil
}
