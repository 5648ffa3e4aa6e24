package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"jellybank/internal/core"
)

func TestGrantHappyPath(t *testing.T) {
	store := newFakeStore()
	parent := store.addProfile("parent-1", core.RoleParent)
	store.addProfile("child-1", core.RoleChild)
	events := &fakePublisher{}

	svc := NewGrantService(store, events)
	svc.now = fixedClock("2026-02-10")

	res, err := svc.Grant(context.Background(), parent, GrantInput{
		ChildID:   "child-1",
		Challenge: core.ChallengeBookReading,
		Jelly:     core.TokenNormal,
	})
	require.NoError(t, err)
	assert.Equal(t, int64(1), res.Grant.Amount)
	assert.Equal(t, "2026-02-10", res.Grant.TargetDate.String())
	assert.Equal(t, int64(1), res.Wallet.JellyNormal)
	assert.Equal(t, []string{EventGrant}, events.kinds())
}

func TestGrantYesterdayAllowed(t *testing.T) {
	store := newFakeStore()
	parent := store.addProfile("parent-1", core.RoleParent)
	store.addProfile("child-1", core.RoleChild)

	svc := NewGrantService(store, &fakePublisher{})
	svc.now = fixedClock("2026-02-10")

	res, err := svc.Grant(context.Background(), parent, GrantInput{
		ChildID:    "child-1",
		Challenge:  core.ChallengeArithmetic,
		Jelly:      core.TokenNormal,
		TargetDate: "2026-02-09",
	})
	require.NoError(t, err)
	assert.Equal(t, "2026-02-09", res.Grant.TargetDate.String())
}

func TestGrantRejectsOutOfWindow(t *testing.T) {
	store := newFakeStore()
	parent := store.addProfile("parent-1", core.RoleParent)
	store.addProfile("child-1", core.RoleChild)

	svc := NewGrantService(store, &fakePublisher{})
	svc.now = fixedClock("2026-02-10")

	for _, date := range []string{"2026-02-08", "2026-02-11"} {
		_, err := svc.Grant(context.Background(), parent, GrantInput{
			ChildID:    "child-1",
			Challenge:  core.ChallengeArithmetic,
			Jelly:      core.TokenNormal,
			TargetDate: date,
		})
		require.Error(t, err)
		assert.Equal(t, core.CodeOutOfWindow, core.CodeOf(err))
	}
}

func TestGrantDuplicateDate(t *testing.T) {
	store := newFakeStore()
	parent := store.addProfile("parent-1", core.RoleParent)
	store.addProfile("child-1", core.RoleChild)
	events := &fakePublisher{}

	svc := NewGrantService(store, events)
	svc.now = fixedClock("2026-02-10")

	in := GrantInput{ChildID: "child-1", Challenge: core.ChallengeBookReading, Jelly: core.TokenNormal}
	_, err := svc.Grant(context.Background(), parent, in)
	require.NoError(t, err)

	_, err = svc.Grant(context.Background(), parent, in)
	require.Error(t, err)
	assert.Equal(t, core.CodeDuplicateGrant, core.CodeOf(err))
	assert.Equal(t, core.KindConflict, core.KindOf(err))
	// A rejected grant never reaches the bus.
	assert.Len(t, events.kinds(), 1)
}

func TestGrantAuthorization(t *testing.T) {
	store := newFakeStore()
	store.addProfile("parent-1", core.RoleParent)
	child := store.addProfile("child-1", core.RoleChild)

	svc := NewGrantService(store, &fakePublisher{})
	svc.now = fixedClock("2026-02-10")

	t.Run("child cannot grant", func(t *testing.T) {
		_, err := svc.Grant(context.Background(), child, GrantInput{
			ChildID:   "child-1",
			Challenge: core.ChallengeBookReading,
			Jelly:     core.TokenNormal,
		})
		assert.Equal(t, core.KindAuthorization, core.KindOf(err))
	})

	t.Run("only normal jelly grantable", func(t *testing.T) {
		parent, _ := store.GetProfile(context.Background(), "parent-1")
		_, err := svc.Grant(context.Background(), parent, GrantInput{
			ChildID:   "child-1",
			Challenge: core.ChallengeBookReading,
			Jelly:     core.TokenSpecial,
		})
		assert.Equal(t, core.KindAuthorization, core.KindOf(err))
	})
}

func TestGrantUnknownChild(t *testing.T) {
	store := newFakeStore()
	parent := store.addProfile("parent-1", core.RoleParent)

	svc := NewGrantService(store, &fakePublisher{})
	svc.now = fixedClock("2026-02-10")

	_, err := svc.Grant(context.Background(), parent, GrantInput{
		ChildID:   "nobody",
		Challenge: core.ChallengeBookReading,
		Jelly:     core.TokenNormal,
	})
	assert.Equal(t, core.KindNotFound, core.KindOf(err))
}
