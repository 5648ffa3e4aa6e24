package services

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"jellybank/internal/core"
	"jellybank/internal/storage"
)

// RewardService decides whether a child may cash in a period-level
// reward and applies the claim. A SPECIAL claim requires a NORMAL grant
// on every non-holiday day of the calendar month; a BONUS claim the
// same over a Monday week.
type RewardService struct {
	store  ClaimStore
	events EventPublisher
	now    func() time.Time
}

func NewRewardService(store ClaimStore, events EventPublisher) *RewardService {
	return &RewardService{store: store, events: events, now: time.Now}
}

type ClaimInput struct {
	RewardKind core.RewardKind `json:"jelly"`
	TargetDate string          `json:"target_date,omitempty"`
}

type ClaimResult struct {
	Wallet     core.Wallet     `json:"wallet"`
	RewardKind core.RewardKind `json:"reward_type"`
	PeriodKey  string          `json:"period_key"`
}

func (s *RewardService) Claim(ctx context.Context, actor core.Profile, in ClaimInput) (*ClaimResult, error) {
	if actor.Role != core.RoleChild {
		return nil, core.E(core.KindAuthorization, core.CodeForbidden, "only children can claim rewards")
	}
	if !in.RewardKind.Valid() {
		return nil, core.E(core.KindValidation, core.CodeInvalidInput, "reward must be SPECIAL or BONUS").
			With("jelly", string(in.RewardKind))
	}

	today := core.CivilDate(s.now())
	target := today
	if in.TargetDate != "" {
		var err error
		target, err = core.ParseDate(in.TargetDate)
		if err != nil {
			return nil, core.E(core.KindValidation, core.CodeInvalidInput, "invalid target_date").Wrap(err)
		}
	}
	if target.After(today) {
		return nil, core.E(core.KindValidation, core.CodeInvalidPeriod, "target_date cannot be in the future").
			With("today", today.String())
	}

	period := core.PeriodFor(in.RewardKind, target)

	// Early courtesy check; the insert's uniqueness constraint below is
	// the actual race-free guard.
	if _, err := s.store.GetClaim(ctx, actor.ID, in.RewardKind, period.Key); err == nil {
		return nil, core.E(core.KindConflict, core.CodeAlreadyClaimed, "reward already claimed").
			With("period_key", period.Key)
	} else if !errors.Is(err, storage.ErrNotFound) {
		return nil, core.Internal("load existing claim", err)
	}

	holidays, err := s.store.ListHolidays(ctx, period.Start, period.End)
	if err != nil {
		return nil, core.Internal("load holidays", err)
	}

	required := core.BusinessDays(period.Start, period.End, core.NewHolidaySet(holidays))
	if len(required) == 0 {
		return nil, core.E(core.KindIncomplete, core.CodeNoEligibleDays, "no required days in this period").
			With("period_key", period.Key)
	}

	// Claims open only once the whole period has elapsed.
	last := required[len(required)-1]
	if target.Before(last) {
		return nil, core.E(core.KindIncomplete, core.CodePeriodIncomplete, "period not complete yet").
			With("last_required_date", last.String())
	}

	granted, err := s.store.ListGrantDates(ctx, actor.ID, core.TokenNormal, period.Start, period.End)
	if err != nil {
		return nil, core.Internal("load grants", err)
	}
	grantSet := make(map[string]struct{}, len(granted))
	for _, d := range granted {
		grantSet[d.String()] = struct{}{}
	}
	var missing []string
	for _, d := range required {
		if _, ok := grantSet[d.String()]; !ok {
			missing = append(missing, d.String())
		}
	}
	if len(missing) > 0 {
		return nil, core.E(core.KindIncomplete, core.CodeIncompleteGrants, "not all NORMAL jellies granted").
			With("missing", missing)
	}

	claim := core.Claim{
		ID:         uuid.NewString(),
		ChildID:    actor.ID,
		RewardKind: in.RewardKind,
		PeriodKey:  period.Key,
		CreatedAt:  s.now(),
	}
	claim, wallet, err := s.store.ApplyClaim(ctx, claim)
	switch {
	case errors.Is(err, storage.ErrDuplicateClaim):
		return nil, core.E(core.KindConflict, core.CodeAlreadyClaimed, "reward already claimed").
			With("period_key", period.Key)
	case errors.Is(err, storage.ErrNotFound):
		return nil, core.E(core.KindNotFound, core.CodeNotFound, "wallet not found")
	case err != nil:
		return nil, core.Internal("apply claim", err)
	}

	publishEvent(ctx, s.events, EventClaim, claim.ID, claim.ChildID)
	return &ClaimResult{Wallet: wallet, RewardKind: in.RewardKind, PeriodKey: period.Key}, nil
}
