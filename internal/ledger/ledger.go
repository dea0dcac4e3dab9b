// Package ledger tracks per-agent holdings. The ledger is the source of
// truth for ownership: in steady state it is mutated only by settlement,
// and at setup by the initial endowment.
package ledger

import (
	"errors"
	"fmt"
	"sync"

	"github.com/shopspring/decimal"

	"agora/internal/common"
)

var (
	ErrInsufficientBalance = errors.New("insufficient balance")
	ErrNegativeQuantity    = errors.New("negative quantity")
)

// Ledger maps (agent, asset) to a non-negative quantity. It is shared
// across all books, so all access goes through one lock: a reader can
// never observe a half-applied transfer.
type Ledger struct {
	mu       sync.RWMutex
	balances map[common.Agent]map[common.Asset]decimal.Decimal
}

func New() *Ledger {
	return &Ledger{
		balances: make(map[common.Agent]map[common.Asset]decimal.Decimal),
	}
}

// Balance returns the agent's holding of asset. Unknown agents and assets
// are simply zero, never an error.
func (l *Ledger) Balance(agent common.Agent, asset common.Asset) decimal.Decimal {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.balances[agent][asset]
}

// Endow credits an agent outside of trading. It seeds the ledger before
// any order is admitted and is the only operation that changes an asset's
// total supply.
func (l *Ledger) Endow(agent common.Agent, asset common.Asset, quantity decimal.Decimal) error {
	if quantity.IsNegative() {
		return fmt.Errorf("%w: endow %s", ErrNegativeQuantity, quantity)
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	holdings := l.holdings(agent)
	holdings[asset] = holdings[asset].Add(quantity)
	return nil
}

// Transfer moves quantity of asset from one agent to another. Either both
// the debit and the credit apply or neither does.
func (l *Ledger) Transfer(from, to common.Agent, asset common.Asset, quantity decimal.Decimal) error {
	if quantity.IsNegative() {
		return fmt.Errorf("%w: transfer %s", ErrNegativeQuantity, quantity)
	}
	l.mu.Lock()
	defer l.mu.Unlock()

	have := l.balances[from][asset]
	if have.LessThan(quantity) {
		return fmt.Errorf("%w: %s holds %s %s, needs %s",
			ErrInsufficientBalance, from, have, asset, quantity)
	}

	l.holdings(from)[asset] = have.Sub(quantity)
	receiving := l.holdings(to)
	receiving[asset] = receiving[asset].Add(quantity)
	return nil
}

// holdings returns the agent's balance map, allocating it on first use.
// Assumes l.mu is held.
func (l *Ledger) holdings(agent common.Agent) map[common.Asset]decimal.Decimal {
	h, ok := l.balances[agent]
	if !ok {
		h = make(map[common.Asset]decimal.Decimal)
		l.balances[agent] = h
	}
	return h
}
