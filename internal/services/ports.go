package services

import (
	"context"
	"time"

	"jellybank/internal/core"
)

// Store ports. *storage.Repository satisfies all of them; tests plug in
// fakes per service.
type (
	GrantStore interface {
		GetProfile(ctx context.Context, id string) (core.Profile, error)
		ApplyGrant(ctx context.Context, g core.Grant) (core.Grant, core.Wallet, error)
	}

	ClaimStore interface {
		GetClaim(ctx context.Context, childID string, kind core.RewardKind, periodKey string) (core.Claim, error)
		ListHolidays(ctx context.Context, from, to core.Date) ([]core.Holiday, error)
		ListGrantDates(ctx context.Context, childID string, jelly core.TokenKind, from, to core.Date) ([]core.Date, error)
		ApplyClaim(ctx context.Context, c core.Claim) (core.Claim, core.Wallet, error)
	}

	ChallengeStore interface {
		GetChallengeMonth(ctx context.Context, childID, yearMonth string) (core.ChallengeMonth, error)
		CreateChallengeMonth(ctx context.Context, m core.ChallengeMonth, days []core.ChallengeDay) error
		ListChallengeDays(ctx context.Context, monthID string) ([]core.ChallengeDay, error)
	}

	ExchangeStore interface {
		GetWallet(ctx context.Context, userID string) (core.Wallet, error)
		ApplyExchange(ctx context.Context, e core.Exchange) (core.Exchange, core.Wallet, error)
	}

	AllowanceStore interface {
		GetWallet(ctx context.Context, userID string) (core.Wallet, error)
		CreateAllowanceRequest(ctx context.Context, req core.AllowanceRequest) error
		GetAllowanceRequest(ctx context.Context, id string) (core.AllowanceRequest, error)
		GetProof(ctx context.Context, requestID string) (core.Proof, error)
		SettleRequest(ctx context.Context, requestID string, proof core.Proof, settledAt time.Time) (core.AllowanceRequest, core.Proof, error)
	}

	HolidayStore interface {
		UpsertHolidays(ctx context.Context, holidays []core.Holiday) (int, error)
	}
)

// HolidayFeed is the outbound public-holiday calendar boundary.
type HolidayFeed interface {
	FetchYear(ctx context.Context, year int, countryCode string) ([]core.Holiday, error)
}

// URLSigner issues time-limited URLs for proof objects.
type URLSigner interface {
	SignURL(path string, ttl time.Duration) string
}

// EventPublisher pushes ledger history onto the export bus. Publishing
// is best-effort: a broker outage never fails the ledger operation.
type EventPublisher interface {
	PublishLedgerEvent(ctx context.Context, kind string, recordID, ownerID string) error
}

// Ledger event kinds carried on the export bus.
const (
	EventGrant      = "GRANT"
	EventClaim      = "CLAIM"
	EventExchange   = "EXCHANGE"
	EventSettlement = "SETTLEMENT"
)
