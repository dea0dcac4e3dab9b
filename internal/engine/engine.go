// Package engine implements continuous matching and synchronous
// settlement for one instrument pair.
package engine

import (
	"errors"
	"sync"

	"github.com/shopspring/decimal"

	"agora/internal/book"
	"agora/internal/common"
	"agora/internal/ledger"
)

var (
	ErrSettlementFailure = errors.New("settlement failure")
	ErrHalted            = errors.New("matching halted")
)

// Reporter receives every settled trade exactly once. The core does not
// retain trades; a reporter that wants a trade log keeps its own.
type Reporter interface {
	ReportTrade(trade common.Trade)
}

// Engine owns one book. Every operation against the book goes through the
// engine's mutex, so admissions, cancels and matching passes form a
// strictly ordered sequence per pair, while engines for different pairs
// run in parallel against the shared ledger.
type Engine struct {
	mu       sync.Mutex
	book     *book.Book
	ledger   *ledger.Ledger
	reporter Reporter

	// Set when a settlement fails. The book and the ledger no longer
	// agree at that point, so no further matching may run.
	halted bool
}

func New(pair common.Pair, lgr *ledger.Ledger) *Engine {
	return &Engine{
		book:   book.New(pair),
		ledger: lgr,
	}
}

func (e *Engine) Pair() common.Pair {
	return e.book.Pair()
}

func (e *Engine) SetReporter(r Reporter) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.reporter = r
}

// Insert splices an admitted order into the book. The caller is expected
// to follow up with Match; admission control holds its own lock across
// the free-balance check and the insert, so the two are kept separate.
func (e *Engine) Insert(order *common.Order) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.halted {
		return ErrHalted
	}
	e.book.Insert(order)
	return nil
}

// Cancel removes the order with the given id from the book. Cancels stay
// allowed on a halted book; only matching is stopped.
func (e *Engine) Cancel(id uint64) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	_, err := e.book.Remove(id)
	return err
}

// Reserved reports what the agent's open orders in this book commit of
// asset. Used by admission control across all books of a market.
func (e *Engine) Reserved(agent common.Agent, asset common.Asset) decimal.Decimal {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.book.Reserved(agent, asset)
}

// Depth returns copies of the bid and ask queues in priority order, for
// the reporting collaborator.
func (e *Engine) Depth() (bids, asks []common.Order) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.book.Bids(), e.book.Asks()
}

// Halted reports whether a settlement failure has stopped this book.
func (e *Engine) Halted() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.halted
}
