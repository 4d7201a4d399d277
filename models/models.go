// Package models defines the core data structures used throughout the application.
package models

import "time"

// Repository represents a GitHub repository as returned by the repository listing
type Repository struct {
	ID          int    `db:"id" json:"-"`
	GitHubID    int64  `db:"gh_id" json:"gh_id"`
	OwnerLogin  string `db:"owner_login" json:"owner_login"`
	Name        string `db:"name" json:"name"`
	FullName    string `db:"full_name" json:"full_name"`
	Description string `db:"description" json:"description"`
	Private     bool   `db:"private" json:"private"`
	Fork        bool   `db:"fork" json:"fork"`
	APIURL      string `db:"api_url" json:"api_url"`
	HTMLURL     string `db:"html_url" json:"html_url"`
}

// LicenseFile is a point-in-time snapshot of a candidate license file (or the
// resolved README) of a repository. Content keeps the API's encoding.
type LicenseFile struct {
	ID           int    `db:"id" json:"id"`
	RepositoryID int64  `db:"repository_id" json:"repository_id"`
	Type         string `db:"type" json:"type"`
	Encoding     string `db:"encoding" json:"encoding"`
	APIURL       string `db:"api_url" json:"api_url"`
	HTMLURL      string `db:"html_url" json:"html_url"`
	Size         int    `db:"size" json:"size"`
	Name         string `db:"name" json:"name"`
	Path         string `db:"path" json:"path"`
	Content      string `db:"content" json:"content"`
	SHA          string `db:"sha" json:"sha"`
}

// LicenseTag is one canonical license abbreviation detected in a license file
type LicenseTag struct {
	ID            int    `db:"id" json:"id"`
	LicenseFileID int    `db:"license_file_id" json:"license_file_id"`
	Abbreviation  string `db:"abbreviation" json:"abbreviation"`
	Primary       bool   `db:"is_primary" json:"is_primary"`
}

// PendingLicenseFile pairs a license file awaiting classification with the
// full name of the repository it belongs to.
type PendingLicenseFile struct {
	RepoFullName string `db:"full_name"`
	LicenseFile
}

// Cursor is the durable crawl resumption state.
type Cursor struct {
	NextURL    string    `json:"next_url"`
	LastRepoID int64     `json:"last_repo_id"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// IDRange is a half-open range of repository GitHub ids: [From, To).
type IDRange struct {
	From int64
	To   int64
}

// LicenseCount is the number of repositories tagged with one abbreviation.
type LicenseCount struct {
	Abbreviation string `db:"abbreviation" json:"abbreviation"`
	Count        int    `db:"count" json:"count"`
}

// MultiLicenseRepository is a repository with more than one distinct tag.
type MultiLicenseRepository struct {
	FullName string `db:"full_name" json:"full_name"`
	Count    int    `db:"license_count" json:"license_count"`
}

// ExportRow is one line of the license CSV export.
type ExportRow struct {
	RepoID          int64  `db:"repo_id"`
	OwnerLogin      string `db:"owner_login"`
	RepoName        string `db:"repo_name"`
	Description     string `db:"repo_description"`
	Private         bool   `db:"repo_private"`
	Fork            bool   `db:"repo_fork"`
	RepoURL         string `db:"repo_url"`
	LicenseFileName string `db:"license_filename"`
	LicenseURL      string `db:"license_url"`
	Abbreviation    string `db:"abbreviation"`
	Primary         bool   `db:"is_primary"`
}
