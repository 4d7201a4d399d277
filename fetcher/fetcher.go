// Package fetcher discovers and downloads the license-bearing files of a
// single repository.
package fetcher

import (
	"context"
	"net/url"
	"regexp"
	"strings"

	gh "github.com/google/go-github/v62/github"
	"go.uber.org/zap"

	"ghlicense/logger"
	"ghlicense/metrics"
)

// licenseName matches top-level file names that likely hold license text.
var licenseName = regexp.MustCompile(`(?i)\b(copying|license|gnu|gpl|apache|apl|bsd|cddl|mit|mozilla|mpl|eclipse|epl|qpl|isc)\b`)

// GitHubClientInterface defines the GitHub client operations needed by the fetcher
type GitHubClientInterface interface {
	Get(ctx context.Context, url string, v any) (*gh.Response, error)
}

// Harvester collects candidate license files and the README of a repository.
type Harvester struct {
	client GitHubClientInterface
}

// NewHarvester creates a harvester over client.
func NewHarvester(client GitHubClientInterface) *Harvester {
	return &Harvester{client: client}
}

// IsCandidate reports whether a directory entry should be fetched as a
// license file.
func IsCandidate(entry *gh.RepositoryContent) bool {
	return entry.GetType() == "file" && licenseName.MatchString(entry.GetName())
}

// Harvest returns the fetched files of the repository at repoURL keyed by
// file name. Each failed fetch is logged and omitted; Harvest never fails as
// a whole. The README is added last unless a file of the same name is
// already present.
func (h *Harvester) Harvest(ctx context.Context, repoURL string) map[string]*gh.RepositoryContent {
	repoURL = strings.TrimSuffix(repoURL, "/")
	baseURL := repoURL + "/contents/"
	files := make(map[string]*gh.RepositoryContent)

	var entries []*gh.RepositoryContent
	if _, err := h.client.Get(ctx, baseURL, &entries); err != nil {
		h.omit(baseURL, err)
	}

	for _, entry := range entries {
		if ctx.Err() != nil {
			return files
		}
		name := entry.GetName()
		if _, seen := files[name]; seen || !IsCandidate(entry) {
			continue
		}

		fileURL := baseURL + url.PathEscape(name)
		var file gh.RepositoryContent
		if _, err := h.client.Get(ctx, fileURL, &file); err != nil {
			h.omit(fileURL, err)
			continue
		}
		if !complete(&file) {
			h.omit(fileURL, nil)
			continue
		}
		files[name] = &file
	}

	readmeURL := repoURL + "/readme"
	var readme gh.RepositoryContent
	if _, err := h.client.Get(ctx, readmeURL, &readme); err != nil {
		h.omit(readmeURL, err)
	} else if !complete(&readme) {
		h.omit(readmeURL, nil)
	} else if _, seen := files[readme.GetName()]; !seen {
		files[readme.GetName()] = &readme
	}

	logger.Debug("Harvested license files",
		zap.String("repository", repoURL),
		zap.Int("files", len(files)))
	return files
}

// complete rejects payloads that cannot be stored, such as a directory
// listing returned where a file was expected.
func complete(file *gh.RepositoryContent) bool {
	return file.GetName() != "" && file.Content != nil
}

func (h *Harvester) omit(fileURL string, err error) {
	metrics.ObserveHarvestFailure()
	if err != nil {
		logger.Warn("Failed to fetch license candidate", zap.String("url", fileURL), zap.Error(err))
		return
	}
	logger.Warn("Malformed license candidate", zap.String("url", fileURL))
}
