package ranking

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/hrmatcher/hr-matcher/internal/ai"
	"github.com/hrmatcher/hr-matcher/internal/extract"
	"github.com/hrmatcher/hr-matcher/internal/requirement"
)

// Extractor turns a resume file into plain text.
type Extractor interface {
	Extract(path string) (string, error)
}

// Ranker scores every resume in a directory against a requirement.
type Ranker struct {
	extractor Extractor
	oracle    ai.Oracle
	logger    *zap.Logger
}

// Summary describes a ranking pass.
type Summary struct {
	Scanned int
	Failed  int
	Ranked  int
}

func New(oracle ai.Oracle, extractor Extractor, logger *zap.Logger) *Ranker {
	if extractor == nil {
		extractor = extract.Extractor{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Ranker{
		extractor: extractor,
		oracle:    oracle,
		logger:    logger,
	}
}

// RankLocal returns the ranked local candidates. It never fails: unreadable files and oracle
// errors drop the affected resume, and a missing directory yields no candidates.
func (r *Ranker) RankLocal(ctx context.Context, req *requirement.Requirement, dir string) []Entry {
	entries, summary := r.Rank(ctx, req, dir)

	r.logger.Info("local ranking completed",
		zap.String("dir", dir),
		zap.Int("scanned", summary.Scanned),
		zap.Int("failed", summary.Failed),
		zap.Int("ranked", summary.Ranked),
	)

	return entries
}

// Rank is RankLocal with the pass summary returned to the caller.
func (r *Ranker) Rank(ctx context.Context, req *requirement.Requirement, dir string) ([]Entry, Summary) {
	entries := make([]Entry, 0)
	var summary Summary

	files, err := resumeFiles(dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			r.logger.Info("resume directory does not exist", zap.String("dir", dir))
		} else {
			r.logger.Warn("reading resume directory", zap.String("dir", dir), zap.Error(err))
		}
		return entries, summary
	}

	requirementText := requirement.Serialize(req)

	for _, name := range files {
		summary.Scanned++

		entry, err := r.rankFile(ctx, requirementText, filepath.Join(dir, name))
		if err != nil {
			summary.Failed++
			r.logger.Warn("skipping resume", zap.String("file", name), zap.Error(err))
			continue
		}

		r.logger.Debug("resume ranked",
			zap.String("file", name),
			zap.Bool("passed", entry.Passed()),
			zap.Bool("degraded", entry.Match.IsDegraded()),
			zap.Float64("accuracy_score", entry.Match.Score()),
		)
		entries = append(entries, entry)
	}

	Sort(entries)
	summary.Ranked = len(entries)

	return entries, summary
}

// RankFile scores a single resume file against req.
func (r *Ranker) RankFile(ctx context.Context, req *requirement.Requirement, path string) (Entry, error) {
	if _, err := extract.KindFromName(path); err != nil {
		return Entry{}, err
	}
	return r.rankFile(ctx, requirement.Serialize(req), path)
}

func (r *Ranker) rankFile(ctx context.Context, requirementText, path string) (Entry, error) {
	if r.oracle == nil {
		return Entry{}, errors.New("oracle is not configured")
	}

	text, err := r.extractor.Extract(path)
	if err != nil {
		return Entry{}, fmt.Errorf("extract: %w", err)
	}

	resume, err := r.oracle.StructureResume(ctx, text)
	if err != nil {
		return Entry{}, fmt.Errorf("structure resume: %w", err)
	}

	match, err := r.oracle.ScoreMatch(ctx, requirementText, resume)
	if err != nil {
		return Entry{}, fmt.Errorf("score match: %w", err)
	}

	return Entry{
		Source:   SourceLocal,
		FileName: filepath.Base(path),
		Path:     path,
		Resume:   &resume,
		Match:    &match,
	}, nil
}

// resumeFiles lists the supported resume files of dir in lexical order.
func resumeFiles(dir string) ([]string, error) {
	items, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}

	names := make([]string, 0, len(items))
	for _, item := range items {
		if item.IsDir() || !extract.Supported(item.Name()) {
			continue
		}
		names = append(names, item.Name())
	}

	return names, nil
}
