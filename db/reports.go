package db

import (
	"context"
	"fmt"

	"ghlicense/classifier"
	"ghlicense/models"
)

// UnmatchedRepositories lists repositories without any license tag.
func (db *DB) UnmatchedRepositories(ctx context.Context) ([]string, error) {
	query := `
		SELECT r.full_name
		FROM repositories r
		WHERE NOT EXISTS (
			SELECT 1
			FROM license_files l
			JOIN license_tags t ON t.license_file_id = l.id
			WHERE l.repository_id = r.gh_id
		)
		ORDER BY r.full_name
	`

	var names []string
	if err := db.conn.SelectContext(ctx, &names, query); err != nil {
		return nil, fmt.Errorf("failed to list unmatched repositories: %w", err)
	}
	return names, nil
}

// MultiLicenseRepositories lists repositories with more than one distinct
// abbreviation, most licenses first.
func (db *DB) MultiLicenseRepositories(ctx context.Context) ([]models.MultiLicenseRepository, error) {
	query := `
		SELECT r.full_name, COUNT(DISTINCT t.abbreviation) AS license_count
		FROM repositories r
		JOIN license_files l ON l.repository_id = r.gh_id
		JOIN license_tags t ON t.license_file_id = l.id
		GROUP BY r.full_name
		HAVING COUNT(DISTINCT t.abbreviation) > 1
		ORDER BY license_count DESC, r.full_name
	`

	var repos []models.MultiLicenseRepository
	if err := db.conn.SelectContext(ctx, &repos, query); err != nil {
		return nil, fmt.Errorf("failed to list multi-license repositories: %w", err)
	}
	return repos, nil
}

// LicenseCounts returns, per abbreviation, the number of repositories tagged with it.
func (db *DB) LicenseCounts(ctx context.Context) ([]models.LicenseCount, error) {
	query := `
		SELECT t.abbreviation, COUNT(DISTINCT r.id) AS count
		FROM repositories r
		JOIN license_files l ON l.repository_id = r.gh_id
		JOIN license_tags t ON t.license_file_id = l.id
		GROUP BY t.abbreviation
		ORDER BY t.abbreviation ASC
	`

	var counts []models.LicenseCount
	if err := db.conn.SelectContext(ctx, &counts, query); err != nil {
		return nil, fmt.Errorf("failed to count licenses: %w", err)
	}
	return counts, nil
}

// ExportRows returns one row per (repository, license file, tag), skipping
// files the classifier found no license in.
func (db *DB) ExportRows(ctx context.Context) ([]models.ExportRow, error) {
	query := `
		SELECT r.gh_id AS repo_id, r.owner_login, r.name AS repo_name,
			r.description AS repo_description, r.private AS repo_private,
			r.fork AS repo_fork, r.html_url AS repo_url,
			l.name AS license_filename, l.html_url AS license_url,
			t.abbreviation, t.is_primary
		FROM repositories r
		JOIN license_files l ON l.repository_id = r.gh_id
		JOIN license_tags t ON t.license_file_id = l.id
		WHERE t.abbreviation <> $1
		ORDER BY r.full_name, l.name, t.abbreviation
	`

	var rows []models.ExportRow
	if err := db.conn.SelectContext(ctx, &rows, query, classifier.NoLicenseFound); err != nil {
		return nil, fmt.Errorf("failed to export licenses: %w", err)
	}
	return rows, nil
}
