package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"ghlicense/logger"
)

const insertLicenseTagQuery = `
	INSERT INTO license_tags (license_file_id, abbreviation)
	VALUES ($1, $2)
`

// InsertLicenseTag records one abbreviation for a license file. Tagging the
// same file with the same abbreviation again reports Duplicate.
func (db *DB) InsertLicenseTag(ctx context.Context, licenseFileID int, abbreviation string) (InsertResult, error) {
	if licenseFileID <= 0 || abbreviation == "" {
		return Inserted, fmt.Errorf("%w: %w: license file id and abbreviation are required", ErrFatal, ErrInvalidInput)
	}

	stmt, err := db.getStmt(ctx, insertLicenseTagQuery)
	if err != nil {
		return Inserted, fmt.Errorf("%w: %v", ErrFatal, err)
	}

	_, err = stmt.ExecContext(ctx, licenseFileID, abbreviation)
	return classifyInsert(fmt.Sprintf("license tag %s for file %d", abbreviation, licenseFileID), err)
}

// MarkPrimaryTag makes abbreviation the primary license of the repository
// owning licenseFileID, clearing every other primary flag of that repository.
func (db *DB) MarkPrimaryTag(ctx context.Context, licenseFileID int, abbreviation string) error {
	tx, err := db.conn.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrTransactionFailed, err)
	}
	defer tx.Rollback()

	var repositoryID int64
	err = tx.GetContext(ctx, &repositoryID, `
		SELECT l.repository_id
		FROM license_files l
		JOIN license_tags t ON t.license_file_id = l.id
		WHERE l.id = $1 AND t.abbreviation = $2
	`, licenseFileID, abbreviation)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%w: %s on file %d", ErrTagNotFound, abbreviation, licenseFileID)
	}
	if err != nil {
		return fmt.Errorf("failed to look up license tag: %w", err)
	}

	if _, err := tx.ExecContext(ctx, `
		UPDATE license_tags SET is_primary = FALSE
		WHERE is_primary AND license_file_id IN (
			SELECT id FROM license_files WHERE repository_id = $1
		)
	`, repositoryID); err != nil {
		return fmt.Errorf("failed to clear primary tags: %w", err)
	}

	if _, err := tx.ExecContext(ctx, `
		UPDATE license_tags SET is_primary = TRUE
		WHERE license_file_id = $1 AND abbreviation = $2
	`, licenseFileID, abbreviation); err != nil {
		return fmt.Errorf("failed to set primary tag: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("%w: failed to commit transaction: %v", ErrTransactionFailed, err)
	}

	logger.Info("Marked primary license",
		zap.Int64("repository_id", repositoryID),
		zap.Int("license_file_id", licenseFileID),
		zap.String("abbreviation", abbreviation))
	return nil
}
