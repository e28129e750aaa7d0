package standings

import (
	"context"
	"errors"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const (
	DefaultFetchTimeout   = 20 * time.Second
	DefaultMaxConcurrency = 8
)

var tracer = otel.Tracer("github.com/coding-arena/arena/internal/standings")

type AggregatorConfig struct {
	// FetchTimeout bounds a single participant's fetch. A fetch that runs
	// longer is treated as failed.
	FetchTimeout time.Duration
	// MaxConcurrency limits in-flight fetches per cycle.
	MaxConcurrency int
	Scorer         Scorer
	Metrics        *Metrics
}

// Aggregator scores every participant of a contest and ranks the results.
type Aggregator struct {
	source  SubmissionSource
	scorer  Scorer
	timeout time.Duration
	limit   int
	metrics *Metrics
	now     func() time.Time
}

func NewAggregator(source SubmissionSource, cfg AggregatorConfig) *Aggregator {
	if cfg.FetchTimeout <= 0 {
		cfg.FetchTimeout = DefaultFetchTimeout
	}
	if cfg.MaxConcurrency <= 0 {
		cfg.MaxConcurrency = DefaultMaxConcurrency
	}
	if cfg.Scorer.AttemptPenalty <= 0 {
		cfg.Scorer = NewScorer()
	}
	return &Aggregator{
		source:  source,
		scorer:  cfg.Scorer,
		timeout: cfg.FetchTimeout,
		limit:   cfg.MaxConcurrency,
		metrics: cfg.Metrics,
		now:     time.Now,
	}
}

// Aggregate fetches and scores all participants concurrently and returns the
// sorted standings once every participant has a record. A participant whose
// fetch fails gets a zero record; the only error returned is ctx's own.
func (a *Aggregator) Aggregate(ctx context.Context, contest *Contest) (*Standings, error) {
	if contest == nil {
		return nil, ErrContestNotFound
	}

	ctx, span := tracer.Start(ctx, "standings.Aggregate", trace.WithAttributes(
		attribute.String("contest.id", contest.ID),
		attribute.Int("contest.participants", len(contest.Participants)),
	))
	defer span.End()

	records := make([]ScoreRecord, len(contest.Participants))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(a.limit)
	for i, p := range contest.Participants {
		g.Go(func() error {
			records[i] = a.scoreParticipant(gctx, contest, p)
			return nil
		})
	}
	// Participant faults become zero records, so no task returns an error.
	_ = g.Wait()

	if err := ctx.Err(); err != nil {
		span.SetStatus(codes.Error, "cycle cancelled")
		return nil, err
	}

	SortRecords(records)
	return &Standings{
		ContestID: contest.ID,
		UpdatedAt: a.now(),
		Records:   records,
	}, nil
}

func (a *Aggregator) scoreParticipant(ctx context.Context, contest *Contest, p Participant) ScoreRecord {
	if p.Handle == "" {
		return ZeroRecord(p)
	}

	ctx, span := tracer.Start(ctx, "standings.fetch", trace.WithAttributes(
		attribute.String("judge.handle", p.Handle),
	))
	defer span.End()

	// Queueing for a throttled source is bounded by the cycle only; the fetch
	// timeout starts once the request may go out.
	if throttle, ok := a.source.(Throttle); ok {
		if err := throttle.Wait(ctx); err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "no request slot")
			if ctx.Err() == nil {
				zap.S().Warnf("contest %s: waiting to fetch %s failed, scoring as zero: %v", contest.ID, p.Handle, err)
				a.metrics.sourceFault(contest.ID)
			}
			return ZeroRecord(p)
		}
		ctx = WithTurn(ctx)
	}

	fetchCtx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()

	subs, err := a.source.UserStatus(fetchCtx, p.Handle)
	if err == nil && subs == nil {
		err = errors.New("no submission list in judge response")
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "fetch failed")
		if ctx.Err() == nil {
			zap.S().Warnf("contest %s: fetching submissions for %s failed, scoring as zero: %v", contest.ID, p.Handle, err)
			a.metrics.sourceFault(contest.ID)
		}
		return ZeroRecord(p)
	}

	return a.scorer.Score(p, subs, contest)
}
