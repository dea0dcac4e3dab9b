package ledger

import (
	"sync"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"agora/internal/common"
)

var (
	usd    = common.Asset{Name: "USD", Kind: common.Money}
	shares = common.Asset{Name: "SHARES", Kind: common.Generic}

	alice = common.Agent("alice")
	bob   = common.Agent("bob")
)

func qty(n int64) decimal.Decimal {
	return decimal.NewFromInt(n)
}

func TestBalance_DefaultsToZero(t *testing.T) {
	l := New()

	assert.True(t, l.Balance(alice, usd).IsZero())
	assert.True(t, l.Balance("nobody", shares).IsZero())
}

func TestEndow(t *testing.T) {
	l := New()

	require.NoError(t, l.Endow(alice, usd, qty(100)))
	require.NoError(t, l.Endow(alice, usd, qty(50)))
	assert.Equal(t, "150", l.Balance(alice, usd).String())

	assert.ErrorIs(t, l.Endow(alice, usd, qty(-1)), ErrNegativeQuantity)
	assert.Equal(t, "150", l.Balance(alice, usd).String())
}

func TestTransfer(t *testing.T) {
	l := New()
	require.NoError(t, l.Endow(alice, shares, qty(10)))

	require.NoError(t, l.Transfer(alice, bob, shares, qty(4)))
	assert.Equal(t, "6", l.Balance(alice, shares).String())
	assert.Equal(t, "4", l.Balance(bob, shares).String())
}

func TestTransfer_InsufficientBalance(t *testing.T) {
	l := New()
	require.NoError(t, l.Endow(alice, shares, qty(3)))

	err := l.Transfer(alice, bob, shares, qty(4))
	assert.ErrorIs(t, err, ErrInsufficientBalance)

	// A failed transfer applies neither leg.
	assert.Equal(t, "3", l.Balance(alice, shares).String())
	assert.True(t, l.Balance(bob, shares).IsZero())
}

func TestTransfer_FromUnknownAgent(t *testing.T) {
	l := New()

	assert.ErrorIs(t, l.Transfer("ghost", bob, usd, qty(1)), ErrInsufficientBalance)
}

// Transfer fails only when balance < quantity, so moving zero is valid
// even between agents the ledger has never seen.
func TestTransfer_ZeroQuantity(t *testing.T) {
	l := New()

	require.NoError(t, l.Transfer("ghost", bob, usd, qty(0)))
	assert.True(t, l.Balance("ghost", usd).IsZero())
	assert.True(t, l.Balance(bob, usd).IsZero())

	require.NoError(t, l.Endow(alice, usd, qty(5)))
	require.NoError(t, l.Transfer(alice, bob, usd, qty(0)))
	assert.Equal(t, "5", l.Balance(alice, usd).String())
}

func TestTransfer_Concurrent_Conserves(t *testing.T) {
	l := New()
	require.NoError(t, l.Endow(alice, usd, qty(1000)))
	require.NoError(t, l.Endow(bob, usd, qty(1000)))

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		from, to := alice, bob
		if i%2 == 0 {
			from, to = bob, alice
		}
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				// Failures are fine here; only conservation matters.
				_ = l.Transfer(from, to, usd, qty(3))
			}
		}()
	}
	wg.Wait()

	total := l.Balance(alice, usd).Add(l.Balance(bob, usd))
	assert.Equal(t, "2000", total.String())
	assert.False(t, l.Balance(alice, usd).IsNegative())
	assert.False(t, l.Balance(bob, usd).IsNegative())
}
