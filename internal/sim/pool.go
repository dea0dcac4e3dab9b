// Package sim drives a market with a pool of trading agents. Each trader
// is a worker goroutine that quotes randomized limit orders around a
// reference price until it runs out of orders or its tomb dies.
package sim

import (
	"errors"
	"math/rand"

	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
	tomb "gopkg.in/tomb.v2"

	"agora/internal/common"
	"agora/internal/market"
)

const (
	defaultOrders = 50
	defaultMaxQty = 10
)

type Config struct {
	Pair      common.Pair
	Traders   []common.Agent
	Reference decimal.Decimal // price the quotes are centered on
	Tick      decimal.Decimal // price increment for quote offsets
	Orders    int             // orders each trader places
	MaxQty    int64           // per-order quantity cap
	Seed      int64           // per-trader rngs derive from this
}

type Pool struct {
	market *market.Market
	cfg    Config
}

func NewPool(m *market.Market, cfg Config) *Pool {
	if cfg.Orders <= 0 {
		cfg.Orders = defaultOrders
	}
	if cfg.MaxQty <= 0 {
		cfg.MaxQty = defaultMaxQty
	}
	if cfg.Tick.Sign() <= 0 {
		cfg.Tick = decimal.NewFromInt(1)
	}
	return &Pool{market: m, cfg: cfg}
}

// Run starts one worker per trader under the tomb and returns. The caller
// waits on the tomb; the tomb dies once every trader has finished or any
// trader hits a fatal error.
func (p *Pool) Run(t *tomb.Tomb) {
	for i, agent := range p.cfg.Traders {
		rng := rand.New(rand.NewSource(p.cfg.Seed + int64(i)))
		t.Go(func() error {
			return p.trade(t, agent, rng)
		})
	}
}

// trade is the worker loop for one agent. Admission rejections are
// normal here: traders quote without checking their own free balance
// first, exactly like the agents in the scenario this simulates. Anything
// else, a settlement failure above all, kills the whole pool.
func (p *Pool) trade(t *tomb.Tomb, agent common.Agent, rng *rand.Rand) error {
	for i := 0; i < p.cfg.Orders; i++ {
		select {
		case <-t.Dying():
			return nil
		default:
		}

		order := p.quote(agent, rng)
		id, err := p.market.Place(order)
		switch {
		case err == nil:
			log.Debug().
				Uint64("id", id).
				Str("agent", string(agent)).
				Msg("order placed")
		case errors.Is(err, market.ErrInsufficientFunds),
			errors.Is(err, market.ErrInsufficientInventory):
			log.Debug().
				Err(err).
				Str("agent", string(agent)).
				Msg("order rejected")
		default:
			log.Error().
				Err(err).
				Str("agent", string(agent)).
				Msg("trader exiting")
			return err
		}
	}
	return nil
}

// quote draws a side, a price within five ticks of the reference, and a
// quantity in [1, MaxQty].
func (p *Pool) quote(agent common.Agent, rng *rand.Rand) common.Order {
	side := common.Buy
	if rng.Intn(2) == 1 {
		side = common.Sell
	}
	offset := decimal.NewFromInt(int64(rng.Intn(11) - 5)).Mul(p.cfg.Tick)
	price := p.cfg.Reference.Add(offset)
	if price.Sign() <= 0 {
		price = p.cfg.Tick
	}
	return common.Order{
		Side:     side,
		Pair:     p.cfg.Pair,
		Price:    price,
		Quantity: 1 + rng.Int63n(p.cfg.MaxQty),
		Owner:    agent,
	}
}
