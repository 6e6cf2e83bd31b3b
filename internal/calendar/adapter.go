package calendar

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/cover-rota/internal/domain"
)

// Adapter answers which teaching periods a feed marks busy on a date.
// It is best effort: every failure yields an empty map.
type Adapter struct {
	fetcher FeedFetcher
	cache   Cache
	ttl     time.Duration
	loc     *time.Location
	logger  *zap.Logger
}

// AdapterDependencies bundles collaborators for the adapter.
type AdapterDependencies struct {
	Fetcher  FeedFetcher
	Cache    Cache
	CacheTTL time.Duration
	Location *time.Location
	Logger   *zap.Logger
}

// NewAdapter constructs an Adapter. A nil cache disables caching.
func NewAdapter(deps AdapterDependencies) *Adapter {
	loc := deps.Location
	if loc == nil {
		loc = time.UTC
	}
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Adapter{
		fetcher: deps.Fetcher,
		cache:   deps.Cache,
		ttl:     deps.CacheTTL,
		loc:     loc,
		logger:  logger,
	}
}

// BusyPeriods returns period -> merged event titles for the feed on date.
func (a *Adapter) BusyPeriods(ctx context.Context, source string, date time.Time) domain.BusyMap {
	date = domain.DateIn(date, a.loc)
	key := CacheKey(source, date)
	if a.cache != nil {
		if busy, ok := a.cache.Get(ctx, key); ok {
			return busy
		}
	}

	body, err := a.fetcher.Fetch(ctx, source)
	if err != nil {
		a.logger.Warn("calendar feed unavailable",
			zap.String("feed", RedactURL(source)), zap.Error(err))
		return domain.BusyMap{}
	}

	busy, err := a.resolve(body, date)
	if err != nil {
		a.logger.Warn("calendar feed unreadable",
			zap.String("feed", RedactURL(source)), zap.Error(err))
		return domain.BusyMap{}
	}

	if a.cache != nil {
		a.cache.Set(ctx, key, busy, a.ttl)
	}
	return busy
}

func (a *Adapter) resolve(body []byte, date time.Time) (busy domain.BusyMap, err error) {
	defer func() {
		if r := recover(); r != nil {
			busy, err = nil, fmt.Errorf("panic while reading feed: %v", r)
		}
	}()

	events, err := ParseFeed(body, a.loc)
	if err != nil {
		return nil, err
	}
	occurrences, err := OccurrencesOn(events, date, a.loc)
	if err != nil {
		return nil, err
	}
	return BusyFromOccurrences(occurrences, date, a.loc), nil
}

// BusyFromOccurrences maps occurrences onto teaching periods. Events marked free are
// ignored and all-day events occupy every teaching period.
func BusyFromOccurrences(occurrences []Occurrence, date time.Time, loc *time.Location) domain.BusyMap {
	titles := make(map[domain.Period][]string)
	for _, occ := range occurrences {
		if occ.Free {
			continue
		}
		for _, p := range domain.TeachingPeriods() {
			if occ.AllDay {
				titles[p] = append(titles[p], occ.Summary)
				continue
			}
			start, end, _ := p.Bounds(date, loc)
			if occ.Start.Before(end) && occ.End.After(start) {
				titles[p] = append(titles[p], occ.Summary)
			}
		}
	}
	return domain.MergeBusyTitles(titles)
}
