// Package service runs the crawl and classification workflows over the
// GitHub client, the license store and the classifier.
package service

import (
	"context"
	"errors"
	"fmt"

	gh "github.com/google/go-github/v62/github"
	"go.uber.org/zap"

	"ghlicense/classifier"
	"ghlicense/config"
	"ghlicense/cursor"
	"ghlicense/db"
	"ghlicense/fetcher"
	"ghlicense/github"
	"ghlicense/logger"
	"ghlicense/models"
)

// CrawlDB abstracts the database operations needed by the crawl
// (for testability)
type CrawlDB interface {
	InsertRepository(ctx context.Context, repo models.Repository) (db.InsertResult, error)
	InsertLicenseFile(ctx context.Context, file models.LicenseFile) (db.InsertResult, error)
	DeleteRepository(ctx context.Context, githubID int64) error
	CountRepositories(ctx context.Context) (int64, error)
}

// ClassifyDB abstracts the database operations needed by classification
// (for testability)
type ClassifyDB interface {
	ListLicenseFilesNeedingClassification(ctx context.Context, r models.IDRange) ([]models.PendingLicenseFile, error)
	InsertLicenseTag(ctx context.Context, licenseFileID int, abbreviation string) (db.InsertResult, error)
	MaxRepositoryID(ctx context.Context) (int64, error)
	NextRepositoryID(ctx context.Context, from int64) (int64, bool, error)
}

// CursorStore persists the crawl resumption point.
type CursorStore interface {
	Load() (models.Cursor, bool, error)
	Advance(c models.Cursor) error
	Override(c models.Cursor) error
}

// Harvester collects the license candidates of one repository.
type Harvester interface {
	Harvest(ctx context.Context, repoURL string) map[string]*gh.RepositoryContent
}

// LicenseClassifier returns raw license labels for a file on disk.
type LicenseClassifier interface {
	Classify(ctx context.Context, path string) ([]string, error)
}

// Service errors
var (
	ErrServiceInit     = errors.New("service initialization error")
	ErrServiceShutdown = errors.New("service shutdown error")
)

// Service owns the long-lived resources of one command invocation.
type Service struct {
	config   *config.Config
	database *db.DB
	cursors  *cursor.Store
}

// NewService connects to the database described by cfg.
func NewService(cfg *config.Config) (*Service, error) {
	database, err := db.New(cfg.DB)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to initialize database: %v", ErrServiceInit, err)
	}

	logger.Info("Service initialized successfully",
		zap.String("database", cfg.DB.Name),
		zap.String("cursor_db", cfg.CursorDBPath))

	return &Service{config: cfg, database: database}, nil
}

// Database returns the license store.
func (s *Service) Database() *db.DB {
	return s.database
}

// Cursors opens the cursor store on first use.
func (s *Service) Cursors() (*cursor.Store, error) {
	if s.cursors != nil {
		return s.cursors, nil
	}
	store, err := cursor.Open(s.config.CursorDBPath)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrServiceInit, err)
	}
	s.cursors = store
	return store, nil
}

// Crawler builds a crawler over the GitHub API.
func (s *Service) Crawler() (*Crawler, error) {
	cursors, err := s.Cursors()
	if err != nil {
		return nil, err
	}

	budget := github.NewBudget(s.config.RateLowWater, s.config.RateWaitInterval)
	client := github.NewClient(s.config.GitHubToken, s.config.HTTPTimeout, budget)
	return NewCrawler(client, fetcher.NewHarvester(client), s.database, cursors, s.config.StartURL), nil
}

// Classifier builds a classification controller over nomos.
func (s *Service) Classifier() *Classifier {
	nomos := classifier.NewNomos(s.config.ClassifierPath, s.config.ClassifierTimeout)
	return NewClassifier(s.database, nomos, s.config.ExportDirectory, s.config.ClassifyBatchSize)
}

// Close performs cleanup operations
func (s *Service) Close() error {
	logger.Info("Closing service")
	var errs []error
	if s.cursors != nil {
		if err := s.cursors.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close cursor store: %w", err))
		}
	}
	if err := s.database.Close(); err != nil {
		errs = append(errs, fmt.Errorf("failed to close database: %w", err))
	}
	if len(errs) > 0 {
		return fmt.Errorf("%w: %w", ErrServiceShutdown, errors.Join(errs...))
	}
	return nil
}
