// Package sources manages the directories and git repositories cards are
// imported from and keeps the stored cards in step with them.
package sources

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/conorfennell/zeitstrahl/internal/cardhash"
	"github.com/conorfennell/zeitstrahl/internal/domain"
	"github.com/conorfennell/zeitstrahl/internal/gitsource"
	"github.com/conorfennell/zeitstrahl/internal/logger"
	"github.com/conorfennell/zeitstrahl/internal/parser"
	"github.com/conorfennell/zeitstrahl/internal/storage"
)

// Fetcher brings the checkout of a git source up to date.
type Fetcher func(ctx context.Context, log *logger.Logger, url, localPath string) error

// Syncer imports cards from the configured sources.
type Syncer struct {
	db          *storage.DB
	log         *logger.Logger
	reposDir    string
	concurrency int
	fetch       Fetcher

	// mu keeps scheduled and manual runs apart.
	mu sync.Mutex
}

// New returns a Syncer cloning git sources below reposDir.
func New(db *storage.DB, log *logger.Logger, reposDir string, concurrency int) *Syncer {
	if concurrency < 1 {
		concurrency = 1
	}
	return &Syncer{
		db:          db,
		log:         log,
		reposDir:    reposDir,
		concurrency: concurrency,
		fetch:       gitsource.Sync,
	}
}

// SourceReport is the outcome of syncing one source.
type SourceReport struct {
	SourceID int64    `json:"source_id"`
	Path     string   `json:"path"`
	Parsed   int      `json:"parsed"`
	Inserted int      `json:"inserted"`
	Deleted  int      `json:"deleted"`
	Errors   []string `json:"errors,omitempty"`
}

// Add registers a new source. URLs become git sources; anything else must
// be an existing local directory and is stored as an absolute path.
func (s *Syncer) Add(ctx context.Context, path string) (*storage.Source, error) {
	sourceType := storage.SourceGit
	if !gitsource.IsURL(path) {
		sourceType = storage.SourceLocal
		abs, err := filepath.Abs(path)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", domain.ErrInvalidArgument, err)
		}
		info, err := os.Stat(abs)
		if err != nil || !info.IsDir() {
			return nil, fmt.Errorf("%w: %s is neither a git URL nor a directory", domain.ErrInvalidArgument, path)
		}
		path = abs
	}

	existing, err := s.db.FindSourceByPath(ctx, path)
	switch {
	case err == nil:
		return nil, fmt.Errorf("%w: source %s already registered as %d", domain.ErrConflict, path, existing.ID)
	case !errors.Is(err, domain.ErrNotFound):
		return nil, err
	}

	id, err := s.db.InsertSource(ctx, path, sourceType)
	if err != nil {
		return nil, err
	}
	s.log.Info("Source added", "id", id, "type", sourceType, "path", path)
	return &storage.Source{ID: id, Path: path, Type: sourceType}, nil
}

// List returns every source.
func (s *Syncer) List(ctx context.Context) ([]storage.Source, error) {
	return s.db.GetAllSources(ctx)
}

// Delete removes a source together with the cards imported from it.
func (s *Syncer) Delete(ctx context.Context, id int64) error {
	if err := s.db.DeleteSource(ctx, id); err != nil {
		return err
	}
	s.log.Info("Source deleted", "id", id)
	return nil
}

// RunSync fetches all git sources in parallel, then reconciles every source
// against the database one after the other. A failing source is reported
// and does not stop the others.
func (s *Syncer) RunSync(ctx context.Context) ([]SourceReport, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.log.Info("Starting sync process for all sources")
	all, err := s.db.GetAllSources(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get sources: %w", err)
	}
	if len(all) == 0 {
		s.log.Info("No sources configured")
		return nil, nil
	}

	dirs, fetchErrs := s.fetchAll(ctx, all)

	reports := make([]SourceReport, 0, len(all))
	for i, src := range all {
		if err := ctx.Err(); err != nil {
			return reports, err
		}
		if fetchErrs[i] != nil {
			s.log.Error("Error syncing git repo", "url", src.Path, "error", fetchErrs[i])
			reports = append(reports, SourceReport{SourceID: src.ID, Path: src.Path, Errors: []string{fetchErrs[i].Error()}})
			continue
		}
		reports = append(reports, s.reconcileSource(ctx, src, dirs[i]))
	}
	s.log.Info("Sync process complete", "sources", len(all))
	return reports, nil
}

// fetchAll resolves the directory of every source, cloning or pulling git
// sources with bounded parallelism.
func (s *Syncer) fetchAll(ctx context.Context, all []storage.Source) ([]string, []error) {
	dirs := make([]string, len(all))
	errs := make([]error, len(all))

	var g errgroup.Group
	g.SetLimit(s.concurrency)
	for i, src := range all {
		if src.Type != storage.SourceGit {
			dirs[i] = src.Path
			continue
		}
		g.Go(func() error {
			dir, err := gitsource.LocalPath(s.reposDir, src.Path)
			if err == nil {
				err = os.MkdirAll(filepath.Dir(dir), 0o755)
			}
			if err == nil {
				err = s.fetch(ctx, s.log.With("source_id", src.ID), src.Path, dir)
			}
			dirs[i], errs[i] = dir, err
			return nil
		})
	}
	_ = g.Wait()
	return dirs, errs
}

// reconcileSource makes the cards stored for src match the card files in
// dir: unseen cards are inserted and cards whose content disappeared are
// deleted.
func (s *Syncer) reconcileSource(ctx context.Context, src storage.Source, dir string) SourceReport {
	report := SourceReport{SourceID: src.ID, Path: src.Path}
	fail := func(err error) {
		report.Errors = append(report.Errors, err.Error())
	}

	var drafts []domain.CardDraft
	walkErr := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if d.Name() == ".git" {
				return filepath.SkipDir
			}
			return nil
		}
		if !parser.Supported(path) {
			return nil
		}
		fileCards, parseErr := parser.ParseFile(path)
		if parseErr != nil {
			fail(fmt.Errorf("parsing %s: %w", path, parseErr))
		}
		drafts = append(drafts, fileCards...)
		return nil
	})
	if walkErr != nil {
		s.log.Error("Error walking directory", "path", dir, "error", walkErr)
		fail(walkErr)
		return report
	}
	report.Parsed = len(drafts)

	now := time.Now().UTC()
	err := s.db.InTx(ctx, func(q *storage.Queries) error {
		found := make(map[string]bool, len(drafts))
		for _, d := range drafts {
			hash := cardhash.Hash(d)
			if found[hash] {
				continue
			}
			found[hash] = true

			sourceID := src.ID
			card := &domain.Card{
				Question:    d.Question,
				Answer:      d.Answer,
				Context:     d.Context,
				Hash:        hash,
				Proficiency: domain.LevelNew,
				SourceID:    &sourceID,
			}
			inserted, err := q.InsertCard(ctx, card)
			if err != nil {
				return err
			}
			if inserted {
				s.log.Debug("New card found", "hash", hash)
				report.Inserted++
			}
		}

		stored, err := q.ListCardsBySource(ctx, src.ID)
		if err != nil {
			return err
		}
		for _, c := range stored {
			if found[c.Hash] {
				continue
			}
			s.log.Debug("Orphaned card, deleting", "hash", c.Hash)
			err := q.DeleteCard(ctx, c.ID)
			if errors.Is(err, domain.ErrNotFound) {
				continue
			}
			if err != nil {
				return err
			}
			report.Deleted++
		}
		return q.UpdateSourceLastScanned(ctx, src.ID, now)
	})
	if err != nil {
		s.log.Error("Reconciliation failed", "source_id", src.ID, "error", err)
		fail(err)
		report.Inserted, report.Deleted = 0, 0
		return report
	}

	s.log.Info("Reconciliation complete",
		"path", src.Path,
		"parsed_cards", report.Parsed,
		"inserted", report.Inserted,
		"orphaned_deleted", report.Deleted,
		"errors", len(report.Errors),
	)
	return report
}
