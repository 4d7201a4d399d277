package service

import (
	"context"
	"errors"
	"fmt"
	"sort"

	gh "github.com/google/go-github/v62/github"
	"go.uber.org/zap"

	"ghlicense/db"
	"ghlicense/github"
	"ghlicense/logger"
	"ghlicense/metrics"
	"ghlicense/models"
)

// Pager yields repository listing pages.
type Pager interface {
	HasNext() bool
	Next(ctx context.Context) (*github.Page, error)
}

// CrawlSummary counts what one crawl run did.
type CrawlSummary struct {
	Pages                 int
	RepositoriesStored    int
	RepositoriesDuplicate int
	FilesStored           int
	FilesDuplicate        int
	TotalRepositories     int64
}

// Crawler walks the repository listing, storing every new repository and its
// license candidates, and records the cursor after each page.
type Crawler struct {
	db         CrawlDB
	harvester  Harvester
	cursors    CursorStore
	defaultURL string
	newPager   func(startURL string) Pager
	wait       func(ctx context.Context) error
}

// NewCrawler creates a crawler. defaultURL is used when neither an override
// nor a stored cursor is available.
func NewCrawler(client *github.Client, harvester Harvester, database CrawlDB, cursors CursorStore, defaultURL string) *Crawler {
	return &Crawler{
		db:         database,
		harvester:  harvester,
		cursors:    cursors,
		defaultURL: defaultURL,
		newPager: func(startURL string) Pager {
			return github.NewPaginator(client, startURL)
		},
		wait: client.Budget().Wait,
	}
}

// Run crawls from override when set, otherwise from the stored cursor. It
// stops at the end of the listing, on the first page fetch failure (wrapping
// github.ErrTransient), or on a persistence fault (wrapping db.ErrFatal).
func (c *Crawler) Run(ctx context.Context, override string) (*CrawlSummary, error) {
	summary := &CrawlSummary{}

	start, lastID, err := c.startURL(override)
	if err != nil {
		return summary, err
	}
	logger.Info("Starting crawl", zap.String("url", start), zap.Int64("last_repo_id", lastID))

	pager := c.newPager(start)
	for pager.HasNext() {
		if err := ctx.Err(); err != nil {
			return summary, err
		}

		page, err := pager.Next(ctx)
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return summary, ctxErr
			}
			logger.Error("Listing page failed, rerun to resume from the stored cursor", zap.Error(err))
			if !errors.Is(err, github.ErrTransient) {
				err = fmt.Errorf("%w: %w", github.ErrTransient, err)
			}
			return summary, err
		}
		summary.Pages++
		metrics.ObservePage()

		for _, repo := range page.Repositories {
			if err := c.processRepository(ctx, repo, summary); err != nil {
				return summary, err
			}
			if id := repo.GetID(); id > lastID {
				lastID = id
			}
		}

		// The cursor must be durable before the next request goes out.
		if err := c.cursors.Advance(models.Cursor{NextURL: page.Next, LastRepoID: lastID}); err != nil {
			return summary, fmt.Errorf("%w: %v", db.ErrFatal, err)
		}
	}

	total, err := c.db.CountRepositories(ctx)
	if err != nil {
		logger.Warn("Failed to count repositories", zap.Error(err))
	}
	summary.TotalRepositories = total

	logger.Info("Crawl finished",
		zap.Int("pages", summary.Pages),
		zap.Int("repositories_stored", summary.RepositoriesStored),
		zap.Int("repositories_duplicate", summary.RepositoriesDuplicate),
		zap.Int("files_stored", summary.FilesStored),
		zap.Int("files_duplicate", summary.FilesDuplicate),
		zap.Int64("total_repositories", total))
	return summary, nil
}

// startURL resolves where to begin: an override (which also replaces the
// stored cursor), then the stored cursor, then the default listing URL. A
// cursor left at the end of the listing resumes after its last repository id.
func (c *Crawler) startURL(override string) (string, int64, error) {
	if override != "" {
		since := github.SinceOf(override)
		if err := c.cursors.Override(models.Cursor{NextURL: override, LastRepoID: since}); err != nil {
			return "", 0, fmt.Errorf("%w: %v", db.ErrFatal, err)
		}
		return override, since, nil
	}

	stored, ok, err := c.cursors.Load()
	if err != nil {
		return "", 0, fmt.Errorf("%w: %v", db.ErrFatal, err)
	}
	switch {
	case ok && stored.NextURL != "":
		return stored.NextURL, stored.LastRepoID, nil
	case ok && stored.LastRepoID > 0:
		return github.WithSince(c.defaultURL, stored.LastRepoID), stored.LastRepoID, nil
	default:
		return c.defaultURL, 0, nil
	}
}

func (c *Crawler) processRepository(ctx context.Context, repo *gh.Repository, summary *CrawlSummary) error {
	// Throttle before the insert rather than in the middle of the harvest.
	if err := c.wait(ctx); err != nil {
		return err
	}

	result, err := c.db.InsertRepository(ctx, repositoryModel(repo))
	if err != nil {
		return fmt.Errorf("failed to store repository %s: %w", repo.GetFullName(), err)
	}
	metrics.ObserveRepository(result.String())

	if result == db.Duplicate {
		summary.RepositoriesDuplicate++
		logger.Info("Repository already retrieved", zap.String("repository", repo.GetFullName()))
		return nil
	}
	summary.RepositoriesStored++
	logger.Info("Storing repository",
		zap.String("repository", repo.GetFullName()),
		zap.Bool("fork", repo.GetFork()))

	files := c.harvester.Harvest(ctx, repo.GetURL())
	if err := ctx.Err(); err != nil {
		// The harvest may be partial. Remove the repository so the next run
		// stores it again instead of skipping it as a duplicate.
		if delErr := c.db.DeleteRepository(context.WithoutCancel(ctx), repo.GetID()); delErr != nil {
			return fmt.Errorf("%w: failed to remove interrupted repository %s: %w", err, repo.GetFullName(), delErr)
		}
		summary.RepositoriesStored--
		logger.Warn("Harvest interrupted, repository removed",
			zap.String("repository", repo.GetFullName()),
			zap.Error(err))
		return err
	}

	names := make([]string, 0, len(files))
	for name := range files {
		names = append(names, name)
	}
	sort.Strings(names)

	// Files already harvested are stored even if ctx is cancelled meanwhile.
	storeCtx := context.WithoutCancel(ctx)
	for _, name := range names {
		result, err := c.db.InsertLicenseFile(storeCtx, licenseFileModel(repo.GetID(), name, files[name]))
		if err != nil {
			return fmt.Errorf("failed to store license file %s of %s: %w", name, repo.GetFullName(), err)
		}
		metrics.ObserveLicenseFile(result.String())

		if result == db.Duplicate {
			summary.FilesDuplicate++
			continue
		}
		summary.FilesStored++
		logger.Info("Stored license file",
			zap.String("repository", repo.GetFullName()),
			zap.String("name", name))
	}
	return nil
}

func repositoryModel(repo *gh.Repository) models.Repository {
	return models.Repository{
		GitHubID:    repo.GetID(),
		OwnerLogin:  repo.GetOwner().GetLogin(),
		Name:        repo.GetName(),
		FullName:    repo.GetFullName(),
		Description: repo.GetDescription(),
		Private:     repo.GetPrivate(),
		Fork:        repo.GetFork(),
		APIURL:      repo.GetURL(),
		HTMLURL:     repo.GetHTMLURL(),
	}
}

// licenseFileModel keeps the content exactly as the API encoded it.
func licenseFileModel(repoID int64, name string, file *gh.RepositoryContent) models.LicenseFile {
	var content string
	if file.Content != nil {
		content = *file.Content
	}
	return models.LicenseFile{
		RepositoryID: repoID,
		Type:         file.GetType(),
		Encoding:     file.GetEncoding(),
		APIURL:       file.GetURL(),
		HTMLURL:      file.GetHTMLURL(),
		Size:         file.GetSize(),
		Name:         name,
		Path:         file.GetPath(),
		Content:      content,
		SHA:          file.GetSHA(),
	}
}
