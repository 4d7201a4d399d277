package db

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"ghlicense/logger"
	"ghlicense/models"
)

const insertLicenseFileQuery = `
	INSERT INTO license_files (
		repository_id, type, encoding, api_url, html_url,
		size, name, path, content, sha
	)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
`

// InsertLicenseFile stores a harvested file once per (repository, name).
func (db *DB) InsertLicenseFile(ctx context.Context, file models.LicenseFile) (InsertResult, error) {
	if file.RepositoryID <= 0 || file.Name == "" {
		return Inserted, fmt.Errorf("%w: %w: license file repository id and name are required", ErrFatal, ErrInvalidInput)
	}

	stmt, err := db.getStmt(ctx, insertLicenseFileQuery)
	if err != nil {
		return Inserted, fmt.Errorf("%w: %v", ErrFatal, err)
	}

	_, err = stmt.ExecContext(ctx,
		file.RepositoryID, file.Type, file.Encoding, file.APIURL, file.HTMLURL,
		file.Size, file.Name, file.Path, file.Content, file.SHA,
	)
	result, err := classifyInsert("license file "+file.Name, err)
	if err != nil {
		return result, err
	}

	logger.Debug("Stored license file",
		zap.Int64("repository_id", file.RepositoryID),
		zap.String("name", file.Name),
		zap.Stringer("result", result))
	return result, nil
}

// ListLicenseFilesNeedingClassification returns the files without any tag
// whose repository id falls in r, ordered by repository id then file id.
func (db *DB) ListLicenseFilesNeedingClassification(ctx context.Context, r models.IDRange) ([]models.PendingLicenseFile, error) {
	if r.To <= r.From {
		return nil, fmt.Errorf("%w: empty id range [%d, %d)", ErrInvalidInput, r.From, r.To)
	}

	query := `
		SELECT r.full_name, l.id, l.repository_id, l.type, l.encoding,
			l.api_url, l.html_url, l.size, l.name, l.path, l.content, l.sha
		FROM license_files l
		JOIN repositories r ON r.gh_id = l.repository_id
		WHERE l.repository_id >= $1 AND l.repository_id < $2
			AND NOT EXISTS (
				SELECT 1 FROM license_tags t WHERE t.license_file_id = l.id
			)
		ORDER BY l.repository_id, l.id
	`

	var files []models.PendingLicenseFile
	if err := db.conn.SelectContext(ctx, &files, query, r.From, r.To); err != nil {
		return nil, fmt.Errorf("failed to list license files in [%d, %d): %w", r.From, r.To, err)
	}
	return files, nil
}
