package service

import (
	"context"
	"encoding/base64"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"ghlicense/classifier"
	"ghlicense/db"
	"ghlicense/logger"
	"ghlicense/metrics"
	"ghlicense/models"
)

// DefaultBatchSize is the width of one repository id range.
const DefaultBatchSize = 1000

// ClassifySummary counts what one classification run did.
type ClassifySummary struct {
	Batches       int
	Files         int
	Unclassified  int
	Failed        int
	Malformed     int
	TagsStored    int
	TagsDuplicate int
	// NextID is the --start-id that resumes after the last finished batch.
	NextID int64
}

// Classifier tags stored license files with sanitized classifier labels,
// one repository id range at a time.
type Classifier struct {
	db        ClassifyDB
	nomos     LicenseClassifier
	exportDir string
	batchSize int64
}

// NewClassifier creates a classification controller that writes scratch
// files below exportDir.
func NewClassifier(database ClassifyDB, nomos LicenseClassifier, exportDir string, batchSize int64) *Classifier {
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}
	return &Classifier{db: database, nomos: nomos, exportDir: exportDir, batchSize: batchSize}
}

// Run classifies every untagged file of repositories with id >= startID.
// Classifier failures skip the file; persistence faults stop the run.
func (c *Classifier) Run(ctx context.Context, startID int64) (*ClassifySummary, error) {
	summary := &ClassifySummary{NextID: startID}

	maxID, err := c.db.MaxRepositoryID(ctx)
	if err != nil {
		return summary, fmt.Errorf("%w: %v", db.ErrFatal, err)
	}

	for from := startID; from <= maxID; {
		r := models.IDRange{From: from, To: from + c.batchSize}
		found, err := c.runBatch(ctx, r, summary)
		if err != nil {
			return summary, err
		}
		summary.Batches++
		summary.NextID = r.To
		logger.Info("Classification batch finished",
			zap.Int64("from", r.From),
			zap.Int64("to", r.To),
			zap.Int("files", found),
			zap.Int64("resume_start_id", r.To))

		from = r.To
		if found > 0 || from > maxID {
			continue
		}
		// Skip id gaps left by crawls that started far into the listing.
		next, ok, err := c.db.NextRepositoryID(ctx, from)
		if err != nil {
			return summary, fmt.Errorf("%w: %v", db.ErrFatal, err)
		}
		if !ok {
			break
		}
		from = next
	}

	logger.Info("Classification finished",
		zap.Int("batches", summary.Batches),
		zap.Int("files", summary.Files),
		zap.Int("unclassified", summary.Unclassified),
		zap.Int("failed", summary.Failed),
		zap.Int("malformed", summary.Malformed),
		zap.Int("tags_stored", summary.TagsStored),
		zap.Int("tags_duplicate", summary.TagsDuplicate))
	return summary, nil
}

// runBatch classifies the untagged files of r and returns how many it found.
func (c *Classifier) runBatch(ctx context.Context, r models.IDRange, summary *ClassifySummary) (int, error) {
	files, err := c.db.ListLicenseFilesNeedingClassification(ctx, r)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", db.ErrFatal, err)
	}
	if len(files) == 0 {
		return 0, nil
	}

	scratch := filepath.Join(c.exportDir, "batch-"+uuid.NewString())
	if err := os.MkdirAll(scratch, 0o755); err != nil {
		return 0, fmt.Errorf("failed to create scratch directory: %w", err)
	}
	defer func() {
		if err := os.RemoveAll(scratch); err != nil {
			logger.Warn("Failed to remove scratch directory", zap.String("path", scratch), zap.Error(err))
		}
	}()

	for _, file := range files {
		if err := ctx.Err(); err != nil {
			return 0, err
		}
		if err := c.classifyFile(ctx, scratch, file, summary); err != nil {
			return 0, err
		}
	}
	return len(files), nil
}

func (c *Classifier) classifyFile(ctx context.Context, scratch string, file models.PendingLicenseFile, summary *ClassifySummary) error {
	summary.Files++
	log := logger.With(
		zap.String("repository", file.RepoFullName),
		zap.String("name", file.Name),
		zap.Int("license_file_id", file.ID))

	path, err := writeScratchFile(scratch, file)
	if err != nil {
		summary.Malformed++
		log.Warn("Skipping license file", zap.Error(err))
		return nil
	}

	labels, err := c.nomos.Classify(ctx, path)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		summary.Failed++
		metrics.ObserveClassifierRun("error")
		log.Warn("Classifier failed", zap.Error(err))
		return nil
	}

	labels = classifier.Sanitize(labels)
	if len(labels) == 0 {
		summary.Unclassified++
		metrics.ObserveClassifierRun("unclassified")
		log.Info("No license signal detected")
		return nil
	}
	metrics.ObserveClassifierRun("matched")
	log.Info("License file classified", zap.Strings("labels", labels))

	for _, label := range labels {
		result, err := c.db.InsertLicenseTag(ctx, file.ID, label)
		if err != nil {
			return fmt.Errorf("failed to tag %s/%s as %s: %w", file.RepoFullName, file.Name, label, err)
		}
		metrics.ObserveLicenseTag(result.String())
		if result == db.Duplicate {
			summary.TagsDuplicate++
		} else {
			summary.TagsStored++
		}
	}
	return nil
}

// writeScratchFile stores the decoded content at
// <scratch>/<owner>/<repo>/<file name> and returns the path. An existing file
// is reused.
func writeScratchFile(scratch string, file models.PendingLicenseFile) (string, error) {
	name := filepath.Base(file.Name)
	if name == "." || name == ".." || name == string(filepath.Separator) {
		return "", fmt.Errorf("unusable file name %q", file.Name)
	}
	dir := filepath.Join(scratch, filepath.FromSlash(file.RepoFullName))
	if !strings.HasPrefix(dir, filepath.Clean(scratch)+string(filepath.Separator)) {
		return "", fmt.Errorf("unusable repository name %q", file.RepoFullName)
	}
	path := filepath.Join(dir, name)

	if _, err := os.Stat(path); err == nil {
		return path, nil
	}

	content, err := decodeContent(file.Encoding, file.Content)
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create %s: %w", dir, err)
	}
	if err := os.WriteFile(path, content, 0o644); err != nil {
		return "", fmt.Errorf("failed to write %s: %w", path, err)
	}
	return path, nil
}

// decodeContent decodes base64 content as the API sends it, with embedded
// line breaks. Any other encoding is taken as raw text.
func decodeContent(encoding, content string) ([]byte, error) {
	if !strings.EqualFold(encoding, "base64") {
		return []byte(content), nil
	}
	cleaned := strings.NewReplacer("\n", "", "\r", "").Replace(content)
	decoded, err := base64.StdEncoding.DecodeString(cleaned)
	if err != nil {
		return nil, fmt.Errorf("invalid base64 content: %w", err)
	}
	return decoded, nil
}
