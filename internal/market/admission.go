package market

import (
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"

	"agora/internal/common"
	"agora/internal/engine"
)

// admit validates the order, checks that the owner's free balance covers
// it, and on acceptance stamps the admission sequence and inserts the
// order into its book. The admission lock is held across the check and
// the insert so that no two admissions can spend the same free balance.
func (m *Market) admit(eng *engine.Engine, order *common.Order) error {
	if order.Quantity <= 0 || order.Price.Sign() <= 0 {
		return fmt.Errorf("%w: %d @ %s", ErrInvalidOrder, order.Quantity, order.Price)
	}

	m.admitMu.Lock()
	defer m.admitMu.Unlock()

	switch order.Side {
	case common.Buy:
		need := order.Notional()
		free := m.free(order.Owner, order.Pair.Money)
		if need.GreaterThan(free) {
			return fmt.Errorf("%w: %s needs %s %s, free %s",
				ErrInsufficientFunds, order.Owner, need, order.Pair.Money, free)
		}
	case common.Sell:
		need := decimal.NewFromInt(order.Quantity)
		free := m.free(order.Owner, order.Pair.Asset)
		if need.GreaterThan(free) {
			return fmt.Errorf("%w: %s needs %s %s, free %s",
				ErrInsufficientInventory, order.Owner, need, order.Pair.Asset, free)
		}
	}

	order.ID = m.seq.Add(1)
	order.Accepted = time.Now()
	if err := eng.Insert(order); err != nil {
		return err
	}

	log.Debug().
		Uint64("id", order.ID).
		Stringer("side", order.Side).
		Stringer("pair", order.Pair).
		Stringer("price", order.Price).
		Int64("qty", order.Quantity).
		Str("owner", string(order.Owner)).
		Time("accepted", order.Accepted).
		Msg("order admitted")
	return nil
}

// free is the ledger balance minus the reservations held by the agent's
// open orders across every book of this market. Reservations are
// recomputed from the live books rather than tracked as a counter, so an
// order removed or split by matching releases its claim immediately.
//
// The reservation scan runs before the balance read. A matching sweep
// shrinks both together, and every debit it applies is bounded by the
// reservation it releases (execution never beats the limit price), so a
// sweep straddling the two reads can only make the result an
// under-estimate. Reading the balance first would let admission pair a
// post-sweep balance with pre-sweep reservations and over-admit.
func (m *Market) free(agent common.Agent, asset common.Asset) decimal.Decimal {
	reserved := decimal.Zero
	m.mu.RLock()
	for _, eng := range m.engines {
		reserved = reserved.Add(eng.Reserved(agent, asset))
	}
	m.mu.RUnlock()
	return m.ledger.Balance(agent, asset).Sub(reserved)
}
