package services

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"jellybank/internal/core"
	"jellybank/internal/storage"
)

// ProofURLTTL is how long a signed proof URL stays valid.
const ProofURLTTL = 600 * time.Second

// AllowanceService handles the cash-out flow: a child files an
// allowance request, a parent settles it against an uploaded proof,
// and either side fetches a short-lived URL to view the proof.
type AllowanceService struct {
	store  AllowanceStore
	signer URLSigner
	events EventPublisher
	now    func() time.Time
}

func NewAllowanceService(store AllowanceStore, signer URLSigner, events EventPublisher) *AllowanceService {
	return &AllowanceService{store: store, signer: signer, events: events, now: time.Now}
}

type RequestInput struct {
	RequestedCash *int64 `json:"requested_cash,omitempty"`
}

func (s *AllowanceService) Request(ctx context.Context, actor core.Profile, in RequestInput) (*core.AllowanceRequest, error) {
	if actor.Role != core.RoleChild {
		return nil, core.E(core.KindAuthorization, core.CodeForbidden, "only children can request allowance")
	}

	wallet, err := s.store.GetWallet(ctx, actor.ID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, core.E(core.KindNotFound, core.CodeNotFound, "wallet not found")
		}
		return nil, core.Internal("load wallet", err)
	}

	// Default to cashing out the whole balance.
	requested := wallet.CashBalance
	if in.RequestedCash != nil {
		requested = *in.RequestedCash
	}
	if requested < 0 {
		return nil, core.E(core.KindValidation, core.CodeInvalidInput, "requested_cash must be non-negative")
	}

	req := core.AllowanceRequest{
		ID:            uuid.NewString(),
		ChildID:       actor.ID,
		RequestedCash: requested,
		Status:        core.RequestPending,
		CreatedAt:     s.now(),
	}
	if err := s.store.CreateAllowanceRequest(ctx, req); err != nil {
		return nil, core.Internal("create allowance request", err)
	}
	return &req, nil
}

type SettleInput struct {
	RequestID  string `json:"request_id"`
	ObjectPath string `json:"object_path"`
}

type SettleResult struct {
	Request core.AllowanceRequest `json:"request"`
	Proof   core.Proof            `json:"proof"`
}

// Settle marks a request as paid out, attaches the proof, and zeroes
// the child's cash balance. Settling an already-settled request is a
// no-op returning the recorded outcome.
func (s *AllowanceService) Settle(ctx context.Context, actor core.Profile, in SettleInput) (*SettleResult, error) {
	if actor.Role != core.RoleParent {
		return nil, core.E(core.KindAuthorization, core.CodeForbidden, "only parents can settle requests")
	}
	if in.RequestID == "" {
		return nil, core.E(core.KindValidation, core.CodeInvalidInput, "request_id is required")
	}
	if in.ObjectPath == "" {
		return nil, core.E(core.KindValidation, core.CodeInvalidInput, "object_path is required")
	}

	req, err := s.store.GetAllowanceRequest(ctx, in.RequestID)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, core.E(core.KindNotFound, core.CodeNotFound, "allowance request not found").
			With("request_id", in.RequestID)
	}
	if err != nil {
		return nil, core.Internal("load allowance request", err)
	}

	if req.Status == core.RequestSettled {
		proof, err := s.store.GetProof(ctx, req.ID)
		if err != nil && !errors.Is(err, storage.ErrNotFound) {
			return nil, core.Internal("load proof", err)
		}
		return &SettleResult{Request: req, Proof: proof}, nil
	}

	proof := core.Proof{
		ID:         uuid.NewString(),
		RequestID:  req.ID,
		UploaderID: actor.ID,
		ObjectPath: in.ObjectPath,
		CreatedAt:  s.now(),
	}
	settled, storedProof, err := s.store.SettleRequest(ctx, req.ID, proof, s.now())
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, core.E(core.KindNotFound, core.CodeNotFound, "allowance request not found").
				With("request_id", in.RequestID)
		}
		return nil, core.Internal("settle request", err)
	}

	publishEvent(ctx, s.events, EventSettlement, settled.ID, settled.ChildID)
	return &SettleResult{Request: settled, Proof: storedProof}, nil
}

type ProofURLInput struct {
	RequestID string `json:"request_id"`
}

type ProofURLResult struct {
	URL       string `json:"url"`
	ExpiresIn int64  `json:"expires_in"`
}

// ProofURL returns a time-limited URL for a request's proof object.
// Parents can fetch any proof; a child only their own.
func (s *AllowanceService) ProofURL(ctx context.Context, actor core.Profile, in ProofURLInput) (*ProofURLResult, error) {
	if in.RequestID == "" {
		return nil, core.E(core.KindValidation, core.CodeInvalidInput, "request_id is required")
	}

	req, err := s.store.GetAllowanceRequest(ctx, in.RequestID)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, core.E(core.KindNotFound, core.CodeNotFound, "allowance request not found").
			With("request_id", in.RequestID)
	}
	if err != nil {
		return nil, core.Internal("load allowance request", err)
	}

	if actor.Role != core.RoleParent && actor.ID != req.ChildID {
		return nil, core.E(core.KindAuthorization, core.CodeForbidden, "not allowed to view this proof")
	}

	proof, err := s.store.GetProof(ctx, req.ID)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, core.E(core.KindNotFound, core.CodeNotFound, "no proof attached to this request").
			With("request_id", in.RequestID)
	}
	if err != nil {
		return nil, core.Internal("load proof", err)
	}

	return &ProofURLResult{
		URL:       s.signer.SignURL(proof.ObjectPath, ProofURLTTL),
		ExpiresIn: int64(ProofURLTTL / time.Second),
	}, nil
}
