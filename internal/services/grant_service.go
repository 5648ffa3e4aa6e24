package services

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"jellybank/internal/core"
	"jellybank/internal/storage"
)

// GrantService issues daily NORMAL jelly grants from a parent to a
// child. SPECIAL and BONUS jellies cannot be granted directly; children
// earn them through period reward claims.
type GrantService struct {
	store  GrantStore
	events EventPublisher
	now    func() time.Time
}

func NewGrantService(store GrantStore, events EventPublisher) *GrantService {
	return &GrantService{store: store, events: events, now: time.Now}
}

type GrantInput struct {
	ChildID    string             `json:"child_id"`
	Challenge  core.ChallengeKind `json:"challenge"`
	Jelly      core.TokenKind     `json:"jelly"`
	TargetDate string             `json:"target_date,omitempty"`
}

type GrantResult struct {
	Grant  core.Grant  `json:"grant"`
	Wallet core.Wallet `json:"wallet"`
}

func (s *GrantService) Grant(ctx context.Context, actor core.Profile, in GrantInput) (*GrantResult, error) {
	if actor.Role != core.RoleParent {
		return nil, core.E(core.KindAuthorization, core.CodeForbidden, "only parents can grant jelly")
	}
	if in.ChildID == "" {
		return nil, core.E(core.KindValidation, core.CodeInvalidInput, "child_id is required")
	}
	if !in.Challenge.Valid() {
		return nil, core.E(core.KindValidation, core.CodeInvalidChallenge, "invalid challenge kind").
			With("challenge", string(in.Challenge))
	}
	if !in.Jelly.Valid() {
		return nil, core.E(core.KindValidation, core.CodeInvalidInput, "invalid jelly kind").
			With("jelly", string(in.Jelly))
	}
	if in.Jelly != core.TokenNormal {
		return nil, core.E(core.KindAuthorization, core.CodeForbidden,
			"SPECIAL and BONUS jellies are earned through reward claims")
	}

	today := core.CivilDate(s.now())
	yesterday := today.AddDays(-1)

	target := today
	if in.TargetDate != "" {
		var err error
		target, err = core.ParseDate(in.TargetDate)
		if err != nil {
			return nil, core.E(core.KindValidation, core.CodeInvalidInput, "invalid target_date").Wrap(err)
		}
	}
	// Retroactive credit is limited to one day.
	if !target.Equal(today) && !target.Equal(yesterday) {
		return nil, core.E(core.KindValidation, core.CodeOutOfWindow,
			"target_date must be today or yesterday").
			With("today", today.String()).
			With("yesterday", yesterday.String())
	}

	child, err := s.store.GetProfile(ctx, in.ChildID)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, core.E(core.KindNotFound, core.CodeNotFound, "child profile not found").
			With("child_id", in.ChildID)
	}
	if err != nil {
		return nil, core.Internal("load child profile", err)
	}
	if child.Role != core.RoleChild {
		return nil, core.E(core.KindValidation, core.CodeInvalidInput, "target user is not a child")
	}

	grant := core.Grant{
		ID:         uuid.NewString(),
		ChildID:    child.ID,
		ParentID:   actor.ID,
		Challenge:  in.Challenge,
		Jelly:      core.TokenNormal,
		Amount:     1,
		TargetDate: target,
		CreatedAt:  s.now(),
	}

	grant, wallet, err := s.store.ApplyGrant(ctx, grant)
	switch {
	case errors.Is(err, storage.ErrDuplicateGrant):
		return nil, core.E(core.KindConflict, core.CodeDuplicateGrant,
			"a jelly was already granted for this date").
			With("target_date", target.String())
	case errors.Is(err, storage.ErrNotFound):
		return nil, core.E(core.KindNotFound, core.CodeNotFound, "wallet not found").
			With("child_id", child.ID)
	case err != nil:
		return nil, core.Internal("apply grant", err)
	}

	publishEvent(ctx, s.events, EventGrant, grant.ID, grant.ChildID)
	return &GrantResult{Grant: grant, Wallet: wallet}, nil
}
