package finder

import (
	"context"

	"go.uber.org/zap"

	"github.com/hrmatcher/hr-matcher/internal/ranking"
	"github.com/hrmatcher/hr-matcher/internal/requirement"
)

// DefaultTopN is used when Options.TopN is not positive.
const DefaultTopN = 5

// LocalRanker ranks the resumes found in a directory.
type LocalRanker interface {
	RankLocal(ctx context.Context, req *requirement.Requirement, dir string) []ranking.Entry
}

// Searcher looks up external candidate profiles.
type Searcher interface {
	Search(ctx context.Context, query, location string, limit int) ([]ranking.Profile, error)
}

type Options struct {
	ResumeDir    string
	GlobalSearch bool
	TopN         int
}

// Finder merges local ranking with an optional external search.
type Finder struct {
	ranker   LocalRanker
	searcher Searcher
	logger   *zap.Logger
}

// New builds a Finder. searcher may be nil, in which case global search yields nothing.
func New(ranker LocalRanker, searcher Searcher, logger *zap.Logger) *Finder {
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Finder{
		ranker:   ranker,
		searcher: searcher,
		logger:   logger,
	}
}

// FindCandidates returns at most opts.TopN candidates, passing local resumes first.
func (f *Finder) FindCandidates(ctx context.Context, req *requirement.Requirement, opts Options) []ranking.Entry {
	topN := opts.TopN
	if topN <= 0 {
		topN = DefaultTopN
	}

	entries := f.ranker.RankLocal(ctx, req, opts.ResumeDir)
	local := len(entries)

	if opts.GlobalSearch {
		for _, profile := range f.search(ctx, req, topN) {
			entries = append(entries, ranking.Entry{
				Source:  ranking.SourceGlobal,
				Profile: &profile,
			})
		}
	}

	global := len(entries) - local

	ranking.Sort(entries)

	if len(entries) > topN {
		entries = entries[:topN]
	}

	f.logger.Info("candidates found",
		zap.Int("local", local),
		zap.Int("global", global),
		zap.Int("returned", len(entries)),
		zap.Int("top_n", topN),
	)

	return entries
}

func (f *Finder) search(ctx context.Context, req *requirement.Requirement, limit int) []ranking.Profile {
	if f.searcher == nil {
		f.logger.Warn("global search requested but no search provider is configured")
		return nil
	}

	var location string
	if req != nil {
		location = req.Location
	}

	profiles, err := f.searcher.Search(ctx, req.SearchQuery(), location, limit)
	if err != nil {
		f.logger.Warn("global candidate search failed", zap.Error(err))
		return nil
	}

	if len(profiles) > limit {
		profiles = profiles[:limit]
	}

	return profiles
}
