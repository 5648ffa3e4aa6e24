package core

import (
	"sort"
	"strings"
	"time"
)

// Role identifies what a household member may do.
type Role string

const (
	RoleParent Role = "PARENT"
	RoleChild  Role = "CHILD"
)

// TokenKind is one of the three jelly currencies held in a wallet.
type TokenKind string

const (
	TokenNormal  TokenKind = "NORMAL"
	TokenSpecial TokenKind = "SPECIAL"
	TokenBonus   TokenKind = "BONUS"
)

func (k TokenKind) Valid() bool {
	switch k {
	case TokenNormal, TokenSpecial, TokenBonus:
		return true
	}
	return false
}

// RewardKind is a period-level reward a child claims after filling a
// whole month (SPECIAL) or week (BONUS) with daily grants.
type RewardKind string

const (
	RewardSpecial RewardKind = "SPECIAL"
	RewardBonus   RewardKind = "BONUS"
)

func (k RewardKind) Valid() bool {
	return k == RewardSpecial || k == RewardBonus
}

// Token returns the wallet balance a claim of this kind credits.
func (k RewardKind) Token() TokenKind {
	if k == RewardSpecial {
		return TokenSpecial
	}
	return TokenBonus
}

// ChallengeKind is a daily challenge a child can be signed up for.
type ChallengeKind string

const (
	ChallengeBookReading  ChallengeKind = "BOOK_READING"
	ChallengeArithmetic   ChallengeKind = "ARITHMETIC"
	ChallengeHanjaWriting ChallengeKind = "HANJA_WRITING"
)

func (k ChallengeKind) Valid() bool {
	switch k {
	case ChallengeBookReading, ChallengeArithmetic, ChallengeHanjaWriting:
		return true
	}
	return false
}

// PairKey builds the order-independent identifier for a pair of
// challenge kinds: the two names sorted and joined with "|".
func PairKey(a, b ChallengeKind) string {
	pair := []string{string(a), string(b)}
	sort.Strings(pair)
	return strings.Join(pair, "|")
}

// DayStatus tracks a single day in a challenge month grid.
type DayStatus string

const (
	DayPending  DayStatus = "PENDING"
	DayRewarded DayStatus = "REWARDED"
)

// RequestStatus tracks the settlement state of an allowance request.
type RequestStatus string

const (
	RequestPending RequestStatus = "PENDING"
	RequestSettled RequestStatus = "SETTLED"
)

// Profile is a household member resolved from a bearer credential.
type Profile struct {
	ID          string    `json:"id"`
	Role        Role      `json:"role"`
	DisplayName string    `json:"display_name"`
	CreatedAt   time.Time `json:"created_at"`
}

// Wallet holds the jelly and cash balances for one member.
// All balances are non-negative at all times.
type Wallet struct {
	UserID       string    `json:"user_id"`
	JellyNormal  int64     `json:"jelly_normal"`
	JellySpecial int64     `json:"jelly_special"`
	JellyBonus   int64     `json:"jelly_bonus"`
	CashBalance  int64     `json:"cash_balance"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Balance returns the balance matching a token kind.
func (w Wallet) Balance(kind TokenKind) int64 {
	switch kind {
	case TokenNormal:
		return w.JellyNormal
	case TokenSpecial:
		return w.JellySpecial
	case TokenBonus:
		return w.JellyBonus
	}
	return 0
}

// Grant is an immutable record of a parent crediting one NORMAL jelly
// for a challenge completed on a target date.
type Grant struct {
	ID         string        `json:"id"`
	ChildID    string        `json:"child_id"`
	ParentID   string        `json:"parent_id"`
	Challenge  ChallengeKind `json:"challenge"`
	Jelly      TokenKind     `json:"jelly"`
	Amount     int64         `json:"amount"`
	TargetDate Date          `json:"target_date"`
	CreatedAt  time.Time     `json:"created_at"`
}

// Claim records that a child has cashed in a period-level reward.
// Unique per (child, reward kind, period key).
type Claim struct {
	ID         string     `json:"id"`
	ChildID    string     `json:"child_id"`
	RewardKind RewardKind `json:"reward_kind"`
	PeriodKey  string     `json:"period_key"`
	CreatedAt  time.Time  `json:"created_at"`
}

// Exchange records a jelly-to-cash conversion and the rate actually used.
type Exchange struct {
	ID            string    `json:"id"`
	UserID        string    `json:"user_id"`
	Jelly         TokenKind `json:"jelly"`
	Amount        int64     `json:"amount"`
	ExchangedCash int64     `json:"exchanged_cash"`
	Rate          int64     `json:"rate"`
	CreatedAt     time.Time `json:"created_at"`
}

// ChallengeMonth is a child's selection of two distinct challenges for
// one calendar month. Unique per (child, year month).
type ChallengeMonth struct {
	ID         string        `json:"id"`
	ChildID    string        `json:"child_id"`
	YearMonth  string        `json:"year_month"`
	ChallengeA ChallengeKind `json:"challenge_a"`
	ChallengeB ChallengeKind `json:"challenge_b"`
	PairKey    string        `json:"pair_key"`
	CreatedAt  time.Time     `json:"created_at"`
}

// ChallengeDay is one cell of the monthly tracking grid.
type ChallengeDay struct {
	MonthID string    `json:"-"`
	DayDate Date      `json:"day_date"`
	Status  DayStatus `json:"status"`
	Memo    string    `json:"memo"`
}

// AllowanceRequest is a child's cash-out request, settled exactly once.
type AllowanceRequest struct {
	ID            string        `json:"id"`
	ChildID       string        `json:"child_id"`
	RequestedCash int64         `json:"requested_cash"`
	Status        RequestStatus `json:"status"`
	SettledAt     *time.Time    `json:"settled_at,omitempty"`
	CreatedAt     time.Time     `json:"created_at"`
}

// Proof binds an uploaded proof artifact to an allowance request.
// At most one per request.
type Proof struct {
	ID         string    `json:"id"`
	RequestID  string    `json:"request_id"`
	UploaderID string    `json:"uploader_parent_id"`
	ObjectPath string    `json:"object_path"`
	CreatedAt  time.Time `json:"created_at"`
}

// Holiday is a public holiday excluded from eligibility counting.
type Holiday struct {
	Date Date   `json:"day_date"`
	Name string `json:"name"`
}
