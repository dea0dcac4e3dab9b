// Package market is the registry and the admission gate: it routes orders
// to the correct book by instrument pair, and no order reaches a book
// without passing the solvency check against the shared ledger.
package market

import (
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/shopspring/decimal"

	"agora/internal/book"
	"agora/internal/common"
	"agora/internal/engine"
	"agora/internal/ledger"
)

var (
	ErrInvalidOrder          = errors.New("invalid order")
	ErrInsufficientFunds     = errors.New("insufficient funds")
	ErrInsufficientInventory = errors.New("insufficient inventory")
	ErrUnknownMarket         = errors.New("unknown market")
	ErrNotMoney              = errors.New("money leg is not a money asset")
	ErrDuplicatePair         = errors.New("pair already registered")

	// ErrUnknownOrder is returned by Cancel for ids not resting in any
	// book, including ids already filled or already canceled.
	ErrUnknownOrder = book.ErrUnknownOrder
)

// Market holds one engine per registered instrument pair and the one
// ledger they all settle against. Admission is serialized market-wide
// because a free-balance check must see reservations across every book
// sharing the ledger; matching and settlement hold only the per-book
// engine lock, so a matching pass on one pair does not block order flow
// on another beyond the insert itself.
type Market struct {
	name   string
	ledger *ledger.Ledger

	admitMu sync.Mutex
	seq     atomic.Uint64

	mu       sync.RWMutex
	engines  map[common.Pair]*engine.Engine
	reporter engine.Reporter
}

func New(name string, lgr *ledger.Ledger) *Market {
	return &Market{
		name:    name,
		ledger:  lgr,
		engines: make(map[common.Pair]*engine.Engine),
	}
}

func (m *Market) Name() string {
	return m.name
}

// Register creates the book for a pair. The money leg must actually be
// money, and a pair can be registered once.
func (m *Market) Register(pair common.Pair) error {
	if pair.Money.Kind != common.Money {
		return fmt.Errorf("%w: %s", ErrNotMoney, pair.Money)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.engines[pair]; ok {
		return fmt.Errorf("%w: %s", ErrDuplicatePair, pair)
	}
	eng := engine.New(pair, m.ledger)
	eng.SetReporter(m.reporter)
	m.engines[pair] = eng
	return nil
}

// SetReporter routes every settled trade, on every book, to r.
func (m *Market) SetReporter(r engine.Reporter) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.reporter = r
	for _, eng := range m.engines {
		eng.SetReporter(r)
	}
}

// Pairs lists the registered instrument pairs.
func (m *Market) Pairs() []common.Pair {
	m.mu.RLock()
	defer m.mu.RUnlock()
	pairs := make([]common.Pair, 0, len(m.engines))
	for pair := range m.engines {
		pairs = append(pairs, pair)
	}
	return pairs
}

// Place admits an order and, on acceptance, inserts it into its book and
// runs continuous matching. The returned id identifies the resting order
// for Cancel. Trades produced by the insertion go to the reporter; a
// settlement failure is returned alongside the id of the (accepted)
// order.
func (m *Market) Place(order common.Order) (uint64, error) {
	eng, err := m.engine(order.Pair)
	if err != nil {
		return 0, err
	}
	if err := m.admit(eng, &order); err != nil {
		return 0, err
	}
	if _, err := eng.Match(); err != nil {
		return order.ID, err
	}
	return order.ID, nil
}

// Cancel removes a resting order from whichever book it occupies. A
// cancel of an id not present anywhere fails and mutates nothing.
func (m *Market) Cancel(id uint64) error {
	m.mu.RLock()
	engines := make([]*engine.Engine, 0, len(m.engines))
	for _, eng := range m.engines {
		engines = append(engines, eng)
	}
	m.mu.RUnlock()

	for _, eng := range engines {
		if err := eng.Cancel(id); err == nil {
			return nil
		}
	}
	return fmt.Errorf("%w: id %d", ErrUnknownOrder, id)
}

// RunMatching runs the matching loop for one pair on demand and returns
// the trades produced. Continuous matching already runs on every
// insertion, so this normally returns nothing.
func (m *Market) RunMatching(pair common.Pair) ([]common.Trade, error) {
	eng, err := m.engine(pair)
	if err != nil {
		return nil, err
	}
	return eng.Match()
}

// Balance is the read-only ledger query used for reporting.
func (m *Market) Balance(agent common.Agent, asset common.Asset) decimal.Decimal {
	return m.ledger.Balance(agent, asset)
}

// Depth returns copies of a book's bid and ask queues in priority order.
func (m *Market) Depth(pair common.Pair) (bids, asks []common.Order, err error) {
	eng, err := m.engine(pair)
	if err != nil {
		return nil, nil, err
	}
	bids, asks = eng.Depth()
	return bids, asks, nil
}

func (m *Market) engine(pair common.Pair) (*engine.Engine, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	eng, ok := m.engines[pair]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownMarket, pair)
	}
	return eng, nil
}
