package db

import (
	"context"
	"database/sql"
	"fmt"

	"go.uber.org/zap"

	"ghlicense/logger"
	"ghlicense/models"
)

const insertRepositoryQuery = `
	INSERT INTO repositories (
		gh_id, owner_login, name, full_name, description,
		private, fork, api_url, html_url
	)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
`

// InsertRepository stores a repository once. A repository whose GitHub id is
// already stored reports Duplicate; any other failure wraps ErrFatal.
func (db *DB) InsertRepository(ctx context.Context, repo models.Repository) (InsertResult, error) {
	if repo.GitHubID <= 0 || repo.FullName == "" {
		return Inserted, fmt.Errorf("%w: %w: repository id and full name are required", ErrFatal, ErrInvalidInput)
	}

	stmt, err := db.getStmt(ctx, insertRepositoryQuery)
	if err != nil {
		return Inserted, fmt.Errorf("%w: %v", ErrFatal, err)
	}

	_, err = stmt.ExecContext(ctx,
		repo.GitHubID, repo.OwnerLogin, repo.Name, repo.FullName, repo.Description,
		repo.Private, repo.Fork, repo.APIURL, repo.HTMLURL,
	)
	result, err := classifyInsert("repository "+repo.FullName, err)
	if err != nil {
		return result, err
	}

	logger.Debug("Stored repository",
		zap.Int64("gh_id", repo.GitHubID),
		zap.String("full_name", repo.FullName),
		zap.Stringer("result", result))
	return result, nil
}

// CountRepositories returns the number of stored repositories
func (db *DB) CountRepositories(ctx context.Context) (int64, error) {
	var count int64
	if err := db.conn.GetContext(ctx, &count, `SELECT COUNT(*) FROM repositories`); err != nil {
		return 0, fmt.Errorf("failed to count repositories: %w", err)
	}
	return count, nil
}

// MaxRepositoryID returns the highest stored GitHub id, or 0 when empty.
func (db *DB) MaxRepositoryID(ctx context.Context) (int64, error) {
	var id int64
	if err := db.conn.GetContext(ctx, &id, `SELECT COALESCE(MAX(gh_id), 0) FROM repositories`); err != nil {
		return 0, fmt.Errorf("failed to get max repository id: %w", err)
	}
	return id, nil
}

// DeleteRepository removes a repository and any license files stored for it.
// The crawl uses it to undo a repository whose harvest was interrupted, so
// the next run stores it again instead of skipping it as a duplicate.
func (db *DB) DeleteRepository(ctx context.Context, githubID int64) error {
	tx, err := db.conn.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("%w: %w: %v", ErrFatal, ErrTransactionFailed, err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM license_files WHERE repository_id = $1`, githubID); err != nil {
		return fmt.Errorf("%w: failed to delete license files of %d: %v", ErrFatal, githubID, err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM repositories WHERE gh_id = $1`, githubID); err != nil {
		return fmt.Errorf("%w: failed to delete repository %d: %v", ErrFatal, githubID, err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("%w: %w: failed to commit transaction: %v", ErrFatal, ErrTransactionFailed, err)
	}

	logger.Info("Removed repository", zap.Int64("gh_id", githubID))
	return nil
}

// NextRepositoryID returns the lowest repository id at or above from that has
// stored license files. ok is false when there is none.
func (db *DB) NextRepositoryID(ctx context.Context, from int64) (id int64, ok bool, err error) {
	var next sql.NullInt64
	if err := db.conn.GetContext(ctx, &next,
		`SELECT MIN(repository_id) FROM license_files WHERE repository_id >= $1`, from); err != nil {
		return 0, false, fmt.Errorf("failed to find next repository id: %w", err)
	}
	return next.Int64, next.Valid, nil
}
