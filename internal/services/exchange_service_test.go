package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"jellybank/internal/core"
)

func TestExchangeConservation(t *testing.T) {
	store := newFakeStore()
	child := store.addProfile("child-1", core.RoleChild)
	store.setWallet(core.Wallet{UserID: "child-1", JellyNormal: 10, CashBalance: 100})
	events := &fakePublisher{}

	svc := NewExchangeService(store, events)
	svc.rate = func(min, max int) int { return min }

	res, err := svc.Exchange(context.Background(), child, ExchangeInput{
		Kind:   core.TokenNormal,
		Amount: 4,
	})
	require.NoError(t, err)
	assert.Equal(t, int64(regularRateMin), res.Exchange.Rate)
	assert.Equal(t, int64(4*regularRateMin), res.Exchange.ExchangedCash)
	assert.Equal(t, int64(6), res.Wallet.JellyNormal)
	assert.Equal(t, int64(100+4*regularRateMin), res.Wallet.CashBalance)
	assert.Equal(t, []string{EventExchange}, events.kinds())
}

func TestExchangeSpecialRate(t *testing.T) {
	store := newFakeStore()
	child := store.addProfile("child-1", core.RoleChild)
	store.setWallet(core.Wallet{UserID: "child-1", JellySpecial: 2})

	var gotMin, gotMax int
	svc := NewExchangeService(store, &fakePublisher{})
	svc.rate = func(min, max int) int {
		gotMin, gotMax = min, max
		return max
	}

	res, err := svc.Exchange(context.Background(), child, ExchangeInput{
		Kind:   core.TokenSpecial,
		Amount: 2,
	})
	require.NoError(t, err)
	assert.Equal(t, specialRateMin, gotMin)
	assert.Equal(t, specialRateMax, gotMax)
	assert.Equal(t, int64(2*specialRateMax), res.Wallet.CashBalance)
}

func TestExchangeRateWithinBounds(t *testing.T) {
	store := newFakeStore()
	child := store.addProfile("child-1", core.RoleChild)
	store.setWallet(core.Wallet{UserID: "child-1", JellyBonus: 1000})

	svc := NewExchangeService(store, &fakePublisher{})

	for i := 0; i < 50; i++ {
		res, err := svc.Exchange(context.Background(), child, ExchangeInput{
			Kind:   core.TokenBonus,
			Amount: 1,
		})
		require.NoError(t, err)
		assert.GreaterOrEqual(t, res.Exchange.Rate, int64(regularRateMin))
		assert.LessOrEqual(t, res.Exchange.Rate, int64(regularRateMax))
	}
}

func TestExchangeInsufficientBalance(t *testing.T) {
	store := newFakeStore()
	child := store.addProfile("child-1", core.RoleChild)
	store.setWallet(core.Wallet{UserID: "child-1", JellyNormal: 3})
	events := &fakePublisher{}

	svc := NewExchangeService(store, events)

	_, err := svc.Exchange(context.Background(), child, ExchangeInput{
		Kind:   core.TokenNormal,
		Amount: 4,
	})
	require.Error(t, err)
	assert.Equal(t, core.CodeInsufficientBalance, core.CodeOf(err))
	assert.Empty(t, events.kinds())

	// Wallet untouched after the rejection.
	w, err := store.GetWallet(context.Background(), "child-1")
	require.NoError(t, err)
	assert.Equal(t, int64(3), w.JellyNormal)
	assert.Equal(t, int64(0), w.CashBalance)
}

func TestExchangeValidation(t *testing.T) {
	store := newFakeStore()
	child := store.addProfile("child-1", core.RoleChild)
	parent := store.addProfile("parent-1", core.RoleParent)

	svc := NewExchangeService(store, &fakePublisher{})

	t.Run("parent forbidden", func(t *testing.T) {
		_, err := svc.Exchange(context.Background(), parent, ExchangeInput{Kind: core.TokenNormal, Amount: 1})
		assert.Equal(t, core.KindAuthorization, core.KindOf(err))
	})

	t.Run("zero amount", func(t *testing.T) {
		_, err := svc.Exchange(context.Background(), child, ExchangeInput{Kind: core.TokenNormal, Amount: 0})
		assert.Equal(t, core.KindValidation, core.KindOf(err))
	})

	t.Run("negative amount", func(t *testing.T) {
		_, err := svc.Exchange(context.Background(), child, ExchangeInput{Kind: core.TokenNormal, Amount: -5})
		assert.Equal(t, core.KindValidation, core.KindOf(err))
	})

	t.Run("unknown kind", func(t *testing.T) {
		_, err := svc.Exchange(context.Background(), child, ExchangeInput{Kind: "GUMMY", Amount: 1})
		assert.Equal(t, core.KindValidation, core.KindOf(err))
	})
}
