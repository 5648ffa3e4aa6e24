package services

import (
	"context"
	"errors"
	"math/rand/v2"
	"time"

	"github.com/google/uuid"

	"jellybank/internal/core"
	"jellybank/internal/storage"
)

// Rate bounds (cash per jelly), inclusive on both ends.
const (
	regularRateMin = 5
	regularRateMax = 15
	specialRateMin = 90
	specialRateMax = 150
)

// ExchangeService converts a child's jelly into cash at a rate drawn
// uniformly from the kind's range at exchange time.
type ExchangeService struct {
	store  ExchangeStore
	events EventPublisher
	now    func() time.Time
	rate   func(min, max int) int
}

func NewExchangeService(store ExchangeStore, events EventPublisher) *ExchangeService {
	return &ExchangeService{
		store:  store,
		events: events,
		now:    time.Now,
		rate: func(min, max int) int {
			return min + rand.IntN(max-min+1)
		},
	}
}

type ExchangeInput struct {
	Kind   core.TokenKind `json:"jelly"`
	Amount int64          `json:"amount"`
}

type ExchangeResult struct {
	Exchange core.Exchange `json:"exchange"`
	Wallet   core.Wallet   `json:"wallet"`
}

func rateRange(kind core.TokenKind) (int, int) {
	if kind == core.TokenSpecial {
		return specialRateMin, specialRateMax
	}
	return regularRateMin, regularRateMax
}

func (s *ExchangeService) Exchange(ctx context.Context, actor core.Profile, in ExchangeInput) (*ExchangeResult, error) {
	if actor.Role != core.RoleChild {
		return nil, core.E(core.KindAuthorization, core.CodeForbidden, "only children can exchange jelly")
	}
	if !in.Kind.Valid() {
		return nil, core.E(core.KindValidation, core.CodeInvalidInput, "invalid jelly kind").
			With("jelly", string(in.Kind))
	}
	if in.Amount <= 0 {
		return nil, core.E(core.KindValidation, core.CodeInvalidInput, "amount must be a positive integer")
	}

	wallet, err := s.store.GetWallet(ctx, actor.ID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, core.E(core.KindNotFound, core.CodeNotFound, "wallet not found")
		}
		return nil, core.Internal("load wallet", err)
	}
	if wallet.Balance(in.Kind) < in.Amount {
		return nil, core.E(core.KindValidation, core.CodeInsufficientBalance, "not enough jelly").
			With("jelly", string(in.Kind)).
			With("balance", wallet.Balance(in.Kind))
	}

	min, max := rateRange(in.Kind)
	rate := s.rate(min, max)

	exchange := core.Exchange{
		ID:            uuid.NewString(),
		UserID:        actor.ID,
		Jelly:         in.Kind,
		Amount:        in.Amount,
		Rate:          int64(rate),
		ExchangedCash: int64(rate) * in.Amount,
		CreatedAt:     s.now(),
	}

	exchange, updated, err := s.store.ApplyExchange(ctx, exchange)
	if err != nil {
		if errors.Is(err, storage.ErrInsufficientBalance) {
			return nil, core.E(core.KindValidation, core.CodeInsufficientBalance, "not enough jelly").
				With("jelly", string(in.Kind))
		}
		return nil, core.Internal("apply exchange", err)
	}

	publishEvent(ctx, s.events, EventExchange, exchange.ID, actor.ID)

	return &ExchangeResult{Exchange: exchange, Wallet: updated}, nil
}
