//go:build integration

package db

import (
	"context"
	"testing"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"ghlicense/models"
)

func startPostgres(t *testing.T) string {
	t.Helper()
	ctx := context.Background()

	container, err := postgres.Run(ctx, "postgres:16-alpine",
		postgres.WithDatabase("ghlicense"),
		postgres.WithUsername("ghlicense"),
		postgres.WithPassword("ghlicense"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second),
		),
	)
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = container.Terminate(context.Background())
	})

	url, err := container.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)
	return url
}

func TestIntegrationStore(t *testing.T) {
	url := startPostgres(t)
	ctx := context.Background()

	version, err := Migrate(url)
	require.NoError(t, err)
	assert.Equal(t, uint(1), version)

	// A second run is a no-op.
	_, err = Migrate(url)
	require.NoError(t, err)

	conn, err := sqlx.Connect("postgres", url)
	require.NoError(t, err)
	db := NewWithConn(conn)
	defer db.Close()

	repo := models.Repository{GitHubID: 1, OwnerLogin: "mojombo", Name: "grit", FullName: "mojombo/grit"}
	result, err := db.InsertRepository(ctx, repo)
	require.NoError(t, err)
	assert.Equal(t, Inserted, result)

	result, err = db.InsertRepository(ctx, repo)
	require.NoError(t, err)
	assert.Equal(t, Duplicate, result)

	file := models.LicenseFile{RepositoryID: 1, Type: "file", Encoding: "base64", Name: "LICENSE", Content: "TUlU"}
	result, err = db.InsertLicenseFile(ctx, file)
	require.NoError(t, err)
	assert.Equal(t, Inserted, result)

	result, err = db.InsertLicenseFile(ctx, file)
	require.NoError(t, err)
	assert.Equal(t, Duplicate, result)

	// A file for an unknown repository violates the foreign key and is fatal.
	_, err = db.InsertLicenseFile(ctx, models.LicenseFile{RepositoryID: 999, Name: "LICENSE"})
	assert.ErrorIs(t, err, ErrFatal)

	pending, err := db.ListLicenseFilesNeedingClassification(ctx, models.IDRange{From: 0, To: 100})
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, "mojombo/grit", pending[0].RepoFullName)

	fileID := pending[0].ID
	for _, abbr := range []string{"MIT", "MIT", "Apache-2.0"} {
		_, err := db.InsertLicenseTag(ctx, fileID, abbr)
		require.NoError(t, err)
	}

	pending, err = db.ListLicenseFilesNeedingClassification(ctx, models.IDRange{From: 0, To: 100})
	require.NoError(t, err)
	assert.Empty(t, pending)

	require.NoError(t, db.MarkPrimaryTag(ctx, fileID, "MIT"))
	require.NoError(t, db.MarkPrimaryTag(ctx, fileID, "Apache-2.0"))

	rows, err := db.ExportRows(ctx)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	for _, row := range rows {
		assert.Equal(t, row.Abbreviation == "Apache-2.0", row.Primary, row.Abbreviation)
	}

	counts, err := db.LicenseCounts(ctx)
	require.NoError(t, err)
	assert.Equal(t, []models.LicenseCount{{Abbreviation: "Apache-2.0", Count: 1}, {Abbreviation: "MIT", Count: 1}}, counts)

	multi, err := db.MultiLicenseRepositories(ctx)
	require.NoError(t, err)
	assert.Equal(t, []models.MultiLicenseRepository{{FullName: "mojombo/grit", Count: 2}}, multi)

	maxID, err := db.MaxRepositoryID(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), maxID)

	next, ok, err := db.NextRepositoryID(ctx, 0)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, int64(1), next)

	// An interrupted repository is removed together with its files and can
	// be stored again.
	undone := models.Repository{GitHubID: 2, OwnerLogin: "wycats", Name: "merb-core", FullName: "wycats/merb-core"}
	_, err = db.InsertRepository(ctx, undone)
	require.NoError(t, err)
	_, err = db.InsertLicenseFile(ctx, models.LicenseFile{RepositoryID: 2, Name: "README"})
	require.NoError(t, err)
	require.NoError(t, db.DeleteRepository(ctx, 2))

	result, err = db.InsertRepository(ctx, undone)
	require.NoError(t, err)
	assert.Equal(t, Inserted, result)

	_, ok, err = db.NextRepositoryID(ctx, 2)
	require.NoError(t, err)
	assert.False(t, ok)
}
