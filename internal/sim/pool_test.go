package sim

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	tomb "gopkg.in/tomb.v2"

	"agora/internal/common"
	"agora/internal/ledger"
	"agora/internal/market"
)

var (
	usd    = common.Asset{Name: "USD", Kind: common.Money}
	shares = common.Asset{Name: "SHARES", Kind: common.Generic}
	pair   = common.Pair{Asset: shares, Money: usd}
)

func newTestSim(t *testing.T, agents []common.Agent) (*market.Market, *ledger.Ledger) {
	t.Helper()
	lgr := ledger.New()
	m := market.New("TEST", lgr)
	require.NoError(t, m.Register(pair))
	for _, agent := range agents {
		require.NoError(t, lgr.Endow(agent, usd, decimal.NewFromInt(1000)))
		require.NoError(t, lgr.Endow(agent, shares, decimal.NewFromInt(100)))
	}
	return m, lgr
}

// A full run under a fixed seed must finish cleanly, conserve both
// assets, and leave no live cross.
func TestPool_RunConserves(t *testing.T) {
	agents := []common.Agent{"t1", "t2", "t3", "t4"}
	m, _ := newTestSim(t, agents)

	pool := NewPool(m, Config{
		Pair:      pair,
		Traders:   agents,
		Reference: decimal.NewFromInt(10),
		Orders:    40,
		MaxQty:    5,
		Seed:      42,
	})

	var t2 tomb.Tomb
	pool.Run(&t2)
	require.NoError(t, t2.Wait())

	totalUSD := decimal.Zero
	totalShares := decimal.Zero
	for _, agent := range agents {
		totalUSD = totalUSD.Add(m.Balance(agent, usd))
		totalShares = totalShares.Add(m.Balance(agent, shares))
		assert.False(t, m.Balance(agent, usd).IsNegative())
		assert.False(t, m.Balance(agent, shares).IsNegative())
	}
	assert.Equal(t, "4000", totalUSD.String())
	assert.Equal(t, "400", totalShares.String())

	bids, asks, err := m.Depth(pair)
	require.NoError(t, err)
	if len(bids) > 0 && len(asks) > 0 {
		assert.True(t, bids[0].Price.LessThan(asks[0].Price))
	}
}

func TestPool_StopsWhenKilled(t *testing.T) {
	agents := []common.Agent{"t1", "t2"}
	m, _ := newTestSim(t, agents)

	pool := NewPool(m, Config{
		Pair:      pair,
		Traders:   agents,
		Reference: decimal.NewFromInt(10),
		Orders:    1 << 20,
		Seed:      7,
	})

	var t2 tomb.Tomb
	pool.Run(&t2)
	t2.Kill(nil)
	assert.NoError(t, t2.Wait())
}
