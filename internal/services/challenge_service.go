package services

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"jellybank/internal/core"
	"jellybank/internal/storage"
)

// ChallengeService runs the monthly challenge selection: a child picks
// two distinct challenge kinds per month, never repeating the previous
// month's unordered pair, and the selection seeds one tracking row per
// calendar day.
type ChallengeService struct {
	store ChallengeStore
	now   func() time.Time
}

func NewChallengeService(store ChallengeStore) *ChallengeService {
	return &ChallengeService{store: store, now: time.Now}
}

type SelectInput struct {
	YearMonth  string             `json:"year_month,omitempty"`
	ChallengeA core.ChallengeKind `json:"challenge_a"`
	ChallengeB core.ChallengeKind `json:"challenge_b"`
}

type SelectResult struct {
	Month core.ChallengeMonth `json:"month"`
	Days  []core.ChallengeDay `json:"days"`
}

func (s *ChallengeService) Select(ctx context.Context, actor core.Profile, in SelectInput) (*SelectResult, error) {
	if actor.Role != core.RoleChild {
		return nil, core.E(core.KindAuthorization, core.CodeForbidden, "only children can select challenges")
	}

	yearMonth := in.YearMonth
	if yearMonth == "" {
		yearMonth = core.CivilDate(s.now()).YearMonth()
	}
	year, month, err := core.ParseYearMonth(yearMonth)
	if err != nil {
		return nil, core.E(core.KindValidation, core.CodeInvalidInput, "invalid year_month").Wrap(err)
	}

	if !in.ChallengeA.Valid() || !in.ChallengeB.Valid() {
		return nil, core.E(core.KindValidation, core.CodeInvalidChallenge, "invalid challenge kind").
			With("challenge_a", string(in.ChallengeA)).
			With("challenge_b", string(in.ChallengeB))
	}
	if in.ChallengeA == in.ChallengeB {
		return nil, core.E(core.KindValidation, core.CodeInvalidChallenge, "challenges must be different")
	}

	pairKey := core.PairKey(in.ChallengeA, in.ChallengeB)

	existing, err := s.store.GetChallengeMonth(ctx, actor.ID, yearMonth)
	if err == nil {
		if existing.PairKey != pairKey {
			return nil, core.E(core.KindConflict, core.CodeAlreadySelected,
				"challenges already selected for this month").
				With("year_month", yearMonth).
				With("pair_key", existing.PairKey)
		}
		// Same pair again: idempotent, return the existing selection.
		days, err := s.store.ListChallengeDays(ctx, existing.ID)
		if err != nil {
			return nil, core.Internal("list challenge days", err)
		}
		return &SelectResult{Month: existing, Days: days}, nil
	}
	if !errors.Is(err, storage.ErrNotFound) {
		return nil, core.Internal("load existing month", err)
	}

	prevMonth := core.PrevYearMonth(year, month)
	prev, err := s.store.GetChallengeMonth(ctx, actor.ID, prevMonth)
	if err == nil && prev.PairKey == pairKey {
		return nil, core.E(core.KindConflict, core.CodeRepeatedPair,
			"same pair as previous month is not allowed").
			With("previous_month", prevMonth)
	}
	if err != nil && !errors.Is(err, storage.ErrNotFound) {
		return nil, core.Internal("load previous month", err)
	}

	created := core.ChallengeMonth{
		ID:         uuid.NewString(),
		ChildID:    actor.ID,
		YearMonth:  yearMonth,
		ChallengeA: in.ChallengeA,
		ChallengeB: in.ChallengeB,
		PairKey:    pairKey,
		CreatedAt:  s.now(),
	}

	start, end := core.MonthRange(year, month)
	var days []core.ChallengeDay
	for _, d := range core.DateRange(start, end) {
		days = append(days, core.ChallengeDay{
			MonthID: created.ID,
			DayDate: d,
			Status:  core.DayPending,
		})
	}

	if err := s.store.CreateChallengeMonth(ctx, created, days); err != nil {
		if errors.Is(err, storage.ErrDuplicateMonth) {
			// Lost the creation race; the winner's selection stands.
			return nil, core.E(core.KindConflict, core.CodeAlreadySelected,
				"challenges already selected for this month").
				With("year_month", yearMonth)
		}
		return nil, core.Internal("create challenge month", err)
	}

	stored, err := s.store.ListChallengeDays(ctx, created.ID)
	if err != nil {
		return nil, core.Internal("list challenge days", err)
	}
	return &SelectResult{Month: created, Days: stored}, nil
}
