package services

import (
	"context"
	"time"

	"jellybank/internal/core"
)

// DefaultCountryCode selects the public-holiday calendar to sync.
const DefaultCountryCode = "KR"

// HolidayService refreshes the local public-holiday table from the
// upstream calendar feed. Parents run it once per year, or whenever
// the feed publishes substitute holidays.
type HolidayService struct {
	store       HolidayStore
	feed        HolidayFeed
	countryCode string
	now         func() time.Time
}

func NewHolidayService(store HolidayStore, feed HolidayFeed, countryCode string) *HolidayService {
	if countryCode == "" {
		countryCode = DefaultCountryCode
	}
	return &HolidayService{store: store, feed: feed, countryCode: countryCode, now: time.Now}
}

type SyncInput struct {
	Year int `json:"year,omitempty"`
}

type SyncResult struct {
	Year     int    `json:"year"`
	Country  string `json:"country"`
	Upserted int    `json:"upserted"`
}

func (s *HolidayService) Sync(ctx context.Context, actor core.Profile, in SyncInput) (*SyncResult, error) {
	if actor.Role != core.RoleParent {
		return nil, core.E(core.KindAuthorization, core.CodeForbidden, "only parents can sync holidays")
	}

	year := in.Year
	if year == 0 {
		year = core.CivilDate(s.now()).Year()
	}
	if year < 1900 || year > 2100 {
		return nil, core.E(core.KindValidation, core.CodeInvalidInput, "year out of range").
			With("year", year)
	}

	holidays, err := s.feed.FetchYear(ctx, year, s.countryCode)
	if err != nil {
		return nil, core.E(core.KindUpstream, core.CodeUpstreamError, "holiday feed unavailable").Wrap(err)
	}

	count, err := s.store.UpsertHolidays(ctx, holidays)
	if err != nil {
		return nil, core.Internal("upsert holidays", err)
	}
	return &SyncResult{Year: year, Country: s.countryCode, Upserted: count}, nil
}
