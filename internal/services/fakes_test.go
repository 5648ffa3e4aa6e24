package services

import (
	"context"
	"sync"
	"time"

	"jellybank/internal/core"
	"jellybank/internal/storage"
)

// fakeStore is an in-memory stand-in for the repository, implementing
// every store port the services need.
type fakeStore struct {
	mu        sync.Mutex
	profiles  map[string]core.Profile
	wallets   map[string]core.Wallet
	grants    map[string]core.Grant // keyed child_id + "|" + date
	claims    map[string]core.Claim // keyed child_id + "|" + kind + "|" + period
	months    map[string]core.ChallengeMonth
	days      map[string][]core.ChallengeDay
	requests  map[string]core.AllowanceRequest
	proofs    map[string]core.Proof // keyed request_id
	exchanges []core.Exchange
	holidays  map[string]core.Holiday
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		profiles: make(map[string]core.Profile),
		wallets:  make(map[string]core.Wallet),
		grants:   make(map[string]core.Grant),
		claims:   make(map[string]core.Claim),
		months:   make(map[string]core.ChallengeMonth),
		days:     make(map[string][]core.ChallengeDay),
		requests: make(map[string]core.AllowanceRequest),
		proofs:   make(map[string]core.Proof),
		holidays: make(map[string]core.Holiday),
	}
}

func (f *fakeStore) addProfile(id string, role core.Role) core.Profile {
	f.mu.Lock()
	defer f.mu.Unlock()
	p := core.Profile{ID: id, Role: role, DisplayName: id}
	f.profiles[id] = p
	f.wallets[id] = core.Wallet{UserID: id}
	return p
}

func (f *fakeStore) setWallet(w core.Wallet) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.wallets[w.UserID] = w
}

func (f *fakeStore) GetProfile(_ context.Context, id string) (core.Profile, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.profiles[id]
	if !ok {
		return core.Profile{}, storage.ErrNotFound
	}
	return p, nil
}

func (f *fakeStore) GetWallet(_ context.Context, userID string) (core.Wallet, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	w, ok := f.wallets[userID]
	if !ok {
		return core.Wallet{}, storage.ErrNotFound
	}
	return w, nil
}

func (f *fakeStore) ApplyGrant(_ context.Context, g core.Grant) (core.Grant, core.Wallet, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	key := g.ChildID + "|" + g.TargetDate.String()
	if _, dup := f.grants[key]; dup {
		return core.Grant{}, core.Wallet{}, storage.ErrDuplicateGrant
	}
	w, ok := f.wallets[g.ChildID]
	if !ok {
		return core.Grant{}, core.Wallet{}, storage.ErrNotFound
	}
	f.grants[key] = g
	w.JellyNormal += g.Amount
	f.wallets[g.ChildID] = w
	return g, w, nil
}

func (f *fakeStore) ListGrantDates(_ context.Context, childID string, jelly core.TokenKind, from, to core.Date) ([]core.Date, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var dates []core.Date
	for _, g := range f.grants {
		if g.ChildID != childID || g.Jelly != jelly {
			continue
		}
		if g.TargetDate.Before(from) || g.TargetDate.After(to) {
			continue
		}
		dates = append(dates, g.TargetDate)
	}
	return dates, nil
}

func (f *fakeStore) GetClaim(_ context.Context, childID string, kind core.RewardKind, periodKey string) (core.Claim, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	c, ok := f.claims[childID+"|"+string(kind)+"|"+periodKey]
	if !ok {
		return core.Claim{}, storage.ErrNotFound
	}
	return c, nil
}

func (f *fakeStore) ApplyClaim(_ context.Context, c core.Claim) (core.Claim, core.Wallet, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	key := c.ChildID + "|" + string(c.RewardKind) + "|" + c.PeriodKey
	if _, dup := f.claims[key]; dup {
		return core.Claim{}, core.Wallet{}, storage.ErrDuplicateClaim
	}
	w, ok := f.wallets[c.ChildID]
	if !ok {
		return core.Claim{}, core.Wallet{}, storage.ErrNotFound
	}
	f.claims[key] = c
	switch c.RewardKind.Token() {
	case core.TokenSpecial:
		w.JellySpecial++
	case core.TokenBonus:
		w.JellyBonus++
	}
	f.wallets[c.ChildID] = w
	return c, w, nil
}

func (f *fakeStore) ApplyExchange(_ context.Context, e core.Exchange) (core.Exchange, core.Wallet, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	w, ok := f.wallets[e.UserID]
	if !ok {
		return core.Exchange{}, core.Wallet{}, storage.ErrNotFound
	}
	if w.Balance(e.Jelly) < e.Amount {
		return core.Exchange{}, core.Wallet{}, storage.ErrInsufficientBalance
	}
	switch e.Jelly {
	case core.TokenNormal:
		w.JellyNormal -= e.Amount
	case core.TokenSpecial:
		w.JellySpecial -= e.Amount
	case core.TokenBonus:
		w.JellyBonus -= e.Amount
	}
	w.CashBalance += e.ExchangedCash
	f.wallets[e.UserID] = w
	f.exchanges = append(f.exchanges, e)
	return e, w, nil
}

func (f *fakeStore) GetChallengeMonth(_ context.Context, childID, yearMonth string) (core.ChallengeMonth, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	m, ok := f.months[childID+"|"+yearMonth]
	if !ok {
		return core.ChallengeMonth{}, storage.ErrNotFound
	}
	return m, nil
}

func (f *fakeStore) CreateChallengeMonth(_ context.Context, m core.ChallengeMonth, days []core.ChallengeDay) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	key := m.ChildID + "|" + m.YearMonth
	if _, dup := f.months[key]; dup {
		return storage.ErrDuplicateMonth
	}
	f.months[key] = m
	f.days[m.ID] = days
	return nil
}

func (f *fakeStore) ListChallengeDays(_ context.Context, monthID string) ([]core.ChallengeDay, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.days[monthID], nil
}

func (f *fakeStore) CreateAllowanceRequest(_ context.Context, req core.AllowanceRequest) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.requests[req.ID] = req
	return nil
}

func (f *fakeStore) GetAllowanceRequest(_ context.Context, id string) (core.AllowanceRequest, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	req, ok := f.requests[id]
	if !ok {
		return core.AllowanceRequest{}, storage.ErrNotFound
	}
	return req, nil
}

func (f *fakeStore) GetProof(_ context.Context, requestID string) (core.Proof, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.proofs[requestID]
	if !ok {
		return core.Proof{}, storage.ErrNotFound
	}
	return p, nil
}

func (f *fakeStore) SettleRequest(_ context.Context, requestID string, proof core.Proof, settledAt time.Time) (core.AllowanceRequest, core.Proof, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	req, ok := f.requests[requestID]
	if !ok {
		return core.AllowanceRequest{}, core.Proof{}, storage.ErrNotFound
	}
	f.proofs[requestID] = proof
	req.Status = core.RequestSettled
	req.SettledAt = &settledAt
	f.requests[requestID] = req
	w := f.wallets[req.ChildID]
	w.CashBalance = 0
	f.wallets[req.ChildID] = w
	return req, proof, nil
}

func (f *fakeStore) UpsertHolidays(_ context.Context, holidays []core.Holiday) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, h := range holidays {
		f.holidays[h.Date.String()] = h
	}
	return len(holidays), nil
}

func (f *fakeStore) ListHolidays(_ context.Context, from, to core.Date) ([]core.Holiday, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []core.Holiday
	for _, h := range f.holidays {
		if h.Date.Before(from) || h.Date.After(to) {
			continue
		}
		out = append(out, h)
	}
	return out, nil
}

type publishedEvent struct {
	Kind     string
	RecordID string
	OwnerID  string
}

type fakePublisher struct {
	mu     sync.Mutex
	events []publishedEvent
	fail   error
}

func (f *fakePublisher) PublishLedgerEvent(_ context.Context, kind, recordID, ownerID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fail != nil {
		return f.fail
	}
	f.events = append(f.events, publishedEvent{Kind: kind, RecordID: recordID, OwnerID: ownerID})
	return nil
}

func (f *fakePublisher) kinds() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []string
	for _, e := range f.events {
		out = append(out, e.Kind)
	}
	return out
}

type fakeSigner struct{}

func (fakeSigner) SignURL(path string, ttl time.Duration) string {
	return "https://files.test/" + path + "?ttl=" + ttl.String()
}

type fakeFeed struct {
	holidays []core.Holiday
	err      error
	lastYear int
}

func (f *fakeFeed) FetchYear(_ context.Context, year int, _ string) ([]core.Holiday, error) {
	f.lastYear = year
	if f.err != nil {
		return nil, f.err
	}
	return f.holidays, nil
}

// fixedClock pins a service's notion of now for deterministic windows.
func fixedClock(isoDate string) func() time.Time {
	t, err := time.ParseInLocation("2006-01-02 15:04:05", isoDate+" 12:00:00", core.HouseholdZone)
	if err != nil {
		panic(err)
	}
	return func() time.Time { return t }
}
