package storage

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"jellybank/internal/core"
)

func newTestRepo(t *testing.T) *Repository {
	t.Helper()
	repo, err := NewRepository(filepath.Join(t.TempDir(), "jellybank.db"))
	require.NoError(t, err)
	t.Cleanup(func() { repo.Close() })
	return repo
}

func seedFamily(t *testing.T, repo *Repository) (parentID, childID string) {
	t.Helper()
	ctx := context.Background()
	parentID = uuid.NewString()
	childID = uuid.NewString()
	now := time.Now()
	require.NoError(t, repo.CreateProfile(ctx, core.Profile{
		ID: parentID, Role: core.RoleParent, DisplayName: "parent", CreatedAt: now,
	}, "parent-token"))
	require.NoError(t, repo.CreateProfile(ctx, core.Profile{
		ID: childID, Role: core.RoleChild, DisplayName: "child", CreatedAt: now,
	}, "child-token"))
	return parentID, childID
}

func TestProfileLookup(t *testing.T) {
	repo := newTestRepo(t)
	_, childID := seedFamily(t, repo)
	ctx := context.Background()

	p, err := repo.GetProfileByToken(ctx, "child-token")
	require.NoError(t, err)
	require.Equal(t, childID, p.ID)
	require.Equal(t, core.RoleChild, p.Role)

	_, err = repo.GetProfileByToken(ctx, "no-such-token")
	require.ErrorIs(t, err, ErrNotFound)

	_, err = repo.GetProfile(ctx, "missing")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestApplyGrant(t *testing.T) {
	repo := newTestRepo(t)
	parentID, childID := seedFamily(t, repo)
	ctx := context.Background()

	grant := core.Grant{
		ID:         uuid.NewString(),
		ChildID:    childID,
		ParentID:   parentID,
		Challenge:  core.ChallengeArithmetic,
		Jelly:      core.TokenNormal,
		Amount:     1,
		TargetDate: core.NewDate(2026, time.February, 10),
		CreatedAt:  time.Now(),
	}

	_, wallet, err := repo.ApplyGrant(ctx, grant)
	require.NoError(t, err)
	require.Equal(t, int64(1), wallet.JellyNormal)

	t.Run("same date again is a duplicate", func(t *testing.T) {
		dup := grant
		dup.ID = uuid.NewString()
		_, _, err := repo.ApplyGrant(ctx, dup)
		require.ErrorIs(t, err, ErrDuplicateGrant)

		w, err := repo.GetWallet(ctx, childID)
		require.NoError(t, err)
		require.Equal(t, int64(1), w.JellyNormal, "failed grant must not touch the wallet")
	})

	t.Run("marks the challenge day rewarded", func(t *testing.T) {
		month := core.ChallengeMonth{
			ID:         uuid.NewString(),
			ChildID:    childID,
			YearMonth:  "2026-02",
			ChallengeA: core.ChallengeArithmetic,
			ChallengeB: core.ChallengeBookReading,
			PairKey:    core.PairKey(core.ChallengeArithmetic, core.ChallengeBookReading),
			CreatedAt:  time.Now(),
		}
		var days []core.ChallengeDay
		for _, d := range core.DateRange(core.NewDate(2026, time.February, 1), core.NewDate(2026, time.February, 28)) {
			days = append(days, core.ChallengeDay{MonthID: month.ID, DayDate: d, Status: core.DayPending})
		}
		require.NoError(t, repo.CreateChallengeMonth(ctx, month, days))

		next := grant
		next.ID = uuid.NewString()
		next.TargetDate = core.NewDate(2026, time.February, 11)
		_, _, err := repo.ApplyGrant(ctx, next)
		require.NoError(t, err)

		got, err := repo.ListChallengeDays(ctx, month.ID)
		require.NoError(t, err)
		require.Len(t, got, 28)
		for _, d := range got {
			if d.DayDate.Equal(next.TargetDate) {
				require.Equal(t, core.DayRewarded, d.Status)
			} else {
				require.Equal(t, core.DayPending, d.Status)
			}
		}
	})

	t.Run("grant dates listed in order", func(t *testing.T) {
		dates, err := repo.ListGrantDates(ctx, childID, core.TokenNormal,
			core.NewDate(2026, time.February, 1), core.NewDate(2026, time.February, 28))
		require.NoError(t, err)
		require.Len(t, dates, 2)
		require.Equal(t, "2026-02-10", dates[0].String())
		require.Equal(t, "2026-02-11", dates[1].String())
	})
}

func TestApplyClaim(t *testing.T) {
	repo := newTestRepo(t)
	_, childID := seedFamily(t, repo)
	ctx := context.Background()

	claim := core.Claim{
		ID:         uuid.NewString(),
		ChildID:    childID,
		RewardKind: core.RewardSpecial,
		PeriodKey:  "2026-02",
		CreatedAt:  time.Now(),
	}

	_, wallet, err := repo.ApplyClaim(ctx, claim)
	require.NoError(t, err)
	require.Equal(t, int64(1), wallet.JellySpecial)

	dup := claim
	dup.ID = uuid.NewString()
	_, _, err = repo.ApplyClaim(ctx, dup)
	require.ErrorIs(t, err, ErrDuplicateClaim)

	w, err := repo.GetWallet(ctx, childID)
	require.NoError(t, err)
	require.Equal(t, int64(1), w.JellySpecial, "rejected claim must leave the wallet unchanged")

	got, err := repo.GetClaim(ctx, childID, core.RewardSpecial, "2026-02")
	require.NoError(t, err)
	require.Equal(t, claim.ID, got.ID)

	byID, err := repo.GetClaimByID(ctx, claim.ID)
	require.NoError(t, err)
	require.Equal(t, "2026-02", byID.PeriodKey)
}

func TestApplyExchange(t *testing.T) {
	repo := newTestRepo(t)
	parentID, childID := seedFamily(t, repo)
	ctx := context.Background()

	// Fund the wallet with three normal jellies.
	for day := 1; day <= 3; day++ {
		_, _, err := repo.ApplyGrant(ctx, core.Grant{
			ID: uuid.NewString(), ChildID: childID, ParentID: parentID,
			Challenge: core.ChallengeBookReading, Jelly: core.TokenNormal, Amount: 1,
			TargetDate: core.NewDate(2026, time.March, day), CreatedAt: time.Now(),
		})
		require.NoError(t, err)
	}

	ex := core.Exchange{
		ID:            uuid.NewString(),
		UserID:        childID,
		Jelly:         core.TokenNormal,
		Amount:        2,
		Rate:          7,
		ExchangedCash: 14,
		CreatedAt:     time.Now(),
	}
	_, wallet, err := repo.ApplyExchange(ctx, ex)
	require.NoError(t, err)
	require.Equal(t, int64(1), wallet.JellyNormal)
	require.Equal(t, int64(14), wallet.CashBalance)

	t.Run("overdraw is rejected atomically", func(t *testing.T) {
		over := ex
		over.ID = uuid.NewString()
		over.Amount = 5
		over.ExchangedCash = 35
		_, _, err := repo.ApplyExchange(ctx, over)
		require.ErrorIs(t, err, ErrInsufficientBalance)

		w, err := repo.GetWallet(ctx, childID)
		require.NoError(t, err)
		require.Equal(t, int64(1), w.JellyNormal)
		require.Equal(t, int64(14), w.CashBalance)
	})
}

func TestChallengeMonthUniqueness(t *testing.T) {
	repo := newTestRepo(t)
	_, childID := seedFamily(t, repo)
	ctx := context.Background()

	month := core.ChallengeMonth{
		ID:         uuid.NewString(),
		ChildID:    childID,
		YearMonth:  "2026-01",
		ChallengeA: core.ChallengeArithmetic,
		ChallengeB: core.ChallengeHanjaWriting,
		PairKey:    core.PairKey(core.ChallengeArithmetic, core.ChallengeHanjaWriting),
		CreatedAt:  time.Now(),
	}
	require.NoError(t, repo.CreateChallengeMonth(ctx, month, nil))

	second := month
	second.ID = uuid.NewString()
	err := repo.CreateChallengeMonth(ctx, second, nil)
	require.ErrorIs(t, err, ErrDuplicateMonth)
}

func TestSettleRequest(t *testing.T) {
	repo := newTestRepo(t)
	parentID, childID := seedFamily(t, repo)
	ctx := context.Background()

	// Give the child cash through an exchange.
	_, _, err := repo.ApplyGrant(ctx, core.Grant{
		ID: uuid.NewString(), ChildID: childID, ParentID: parentID,
		Challenge: core.ChallengeBookReading, Jelly: core.TokenNormal, Amount: 1,
		TargetDate: core.NewDate(2026, time.April, 1), CreatedAt: time.Now(),
	})
	require.NoError(t, err)
	_, wallet, err := repo.ApplyExchange(ctx, core.Exchange{
		ID: uuid.NewString(), UserID: childID, Jelly: core.TokenNormal,
		Amount: 1, Rate: 10, ExchangedCash: 10, CreatedAt: time.Now(),
	})
	require.NoError(t, err)
	require.Equal(t, int64(10), wallet.CashBalance)

	req := core.AllowanceRequest{
		ID:            uuid.NewString(),
		ChildID:       childID,
		RequestedCash: 10,
		Status:        core.RequestPending,
		CreatedAt:     time.Now(),
	}
	require.NoError(t, repo.CreateAllowanceRequest(ctx, req))

	proof := core.Proof{
		ID:         uuid.NewString(),
		RequestID:  req.ID,
		UploaderID: parentID,
		ObjectPath: "allowance-proofs/2026-04/receipt.jpg",
		CreatedAt:  time.Now(),
	}
	settled, storedProof, err := repo.SettleRequest(ctx, req.ID, proof, time.Now())
	require.NoError(t, err)
	require.Equal(t, core.RequestSettled, settled.Status)
	require.NotNil(t, settled.SettledAt)
	require.Equal(t, proof.ObjectPath, storedProof.ObjectPath)

	w, err := repo.GetWallet(ctx, childID)
	require.NoError(t, err)
	require.Zero(t, w.CashBalance)

	_, _, err = repo.SettleRequest(ctx, "missing-request", proof, time.Now())
	require.ErrorIs(t, err, ErrNotFound)
}

func TestHolidays(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	holidays := []core.Holiday{
		{Date: core.NewDate(2026, time.February, 16), Name: "Seollal"},
		{Date: core.NewDate(2026, time.February, 17), Name: "Seollal"},
	}
	count, err := repo.UpsertHolidays(ctx, holidays)
	require.NoError(t, err)
	require.Equal(t, 2, count)

	// Re-upserting the same dates replaces names instead of failing.
	holidays[0].Name = "Lunar New Year"
	count, err = repo.UpsertHolidays(ctx, holidays)
	require.NoError(t, err)
	require.Equal(t, 2, count)

	got, err := repo.ListHolidays(ctx, core.NewDate(2026, time.February, 1), core.NewDate(2026, time.February, 28))
	require.NoError(t, err)
	require.Len(t, got, 2)
	require.Equal(t, "Lunar New Year", got[0].Name)
}

func TestNotFoundErrors(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	_, err := repo.GetWallet(ctx, "nobody")
	require.ErrorIs(t, err, ErrNotFound)
	_, err = repo.GetAllowanceRequest(ctx, "nothing")
	require.ErrorIs(t, err, ErrNotFound)
	_, err = repo.GetProof(ctx, "nothing")
	require.ErrorIs(t, err, ErrNotFound)
	_, err = repo.GetChallengeMonth(ctx, "nobody", "2026-01")
	require.True(t, errors.Is(err, ErrNotFound))
}
