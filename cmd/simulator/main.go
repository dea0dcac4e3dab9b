package main

import (
	"context"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
	tomb "gopkg.in/tomb.v2"

	"agora/internal/common"
	"agora/internal/ledger"
	"agora/internal/market"
	"agora/internal/sim"
)

// tradeLogger is the reporting collaborator: it receives every settled
// trade once and logs it.
type tradeLogger struct{}

func (tradeLogger) ReportTrade(trade common.Trade) {
	log.Info().
		Str("buyer", string(trade.Buy.Owner)).
		Str("seller", string(trade.Sell.Owner)).
		Int64("qty", trade.Quantity).
		Stringer("price", trade.Price).
		Msg("trade")
}

func main() {
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	// Simulation parameters come from the environment, optionally via a
	// local .env.
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Warn().Err(err).Msg("unable to load .env")
	}
	traders := envInt("SIM_TRADERS", 4)
	orders := envInt("SIM_ORDERS", 50)
	seed := envInt("SIM_SEED", 1)

	ctx, stop := signal.NotifyContext(
		context.Background(),
		syscall.SIGTERM,
		syscall.SIGINT,
	)
	defer stop()

	usd := common.Asset{Name: "USD", Kind: common.Money}
	shares := common.Asset{Name: "SHARES", Kind: common.Generic}
	pair := common.Pair{Asset: shares, Money: usd}

	lgr := ledger.New()
	nyse := market.New("NYSE", lgr)
	nyse.SetReporter(tradeLogger{})
	if err := nyse.Register(pair); err != nil {
		log.Fatal().Err(err).Msg("unable to register pair")
	}

	// Seed every agent with money and inventory before any order is
	// admitted.
	agents := make([]common.Agent, traders)
	for i := range agents {
		agents[i] = common.Agent("A" + strconv.Itoa(i+1))
		if err := lgr.Endow(agents[i], usd, decimal.NewFromInt(1000)); err != nil {
			log.Fatal().Err(err).Msg("unable to endow agent")
		}
		if err := lgr.Endow(agents[i], shares, decimal.NewFromInt(100)); err != nil {
			log.Fatal().Err(err).Msg("unable to endow agent")
		}
	}

	pool := sim.NewPool(nyse, sim.Config{
		Pair:      pair,
		Traders:   agents,
		Reference: decimal.NewFromInt(10),
		Tick:      decimal.NewFromInt(1),
		Orders:    orders,
		Seed:      int64(seed),
	})

	t, _ := tomb.WithContext(ctx)
	pool.Run(t)
	if err := t.Wait(); err != nil {
		log.Error().Err(err).Msg("simulation aborted")
	}

	// Final portfolios, read back through the market's query surface.
	for _, agent := range agents {
		log.Info().
			Str("agent", string(agent)).
			Stringer("usd", nyse.Balance(agent, usd)).
			Stringer("shares", nyse.Balance(agent, shares)).
			Msg("portfolio")
	}
	bids, asks, err := nyse.Depth(pair)
	if err != nil {
		log.Fatal().Err(err).Msg("unable to read book")
	}
	log.Info().
		Stringer("pair", pair).
		Int("bids", len(bids)).
		Int("asks", len(asks)).
		Msg("resting orders")
}

func envInt(key string, fallback int) int {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		log.Warn().Str("key", key).Str("value", raw).Msg("ignoring bad value")
		return fallback
	}
	return v
}
