package service

import (
	"context"

	"github.com/stretchr/testify/mock"

	"ghlicense/db"
	"ghlicense/models"
)

// MockDB is a mock implementation of the database interfaces
type MockDB struct {
	mock.Mock
	inserted []int64
}

func (m *MockDB) InsertRepository(ctx context.Context, repo models.Repository) (db.InsertResult, error) {
	args := m.Called(ctx, repo)
	return args.Get(0).(db.InsertResult), args.Error(1)
}

func (m *MockDB) InsertLicenseFile(ctx context.Context, file models.LicenseFile) (db.InsertResult, error) {
	args := m.Called(ctx, file)
	return args.Get(0).(db.InsertResult), args.Error(1)
}

func (m *MockDB) DeleteRepository(ctx context.Context, githubID int64) error {
	args := m.Called(ctx, githubID)
	return args.Error(0)
}

func (m *MockDB) CountRepositories(ctx context.Context) (int64, error) {
	args := m.Called(ctx)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockDB) ListLicenseFilesNeedingClassification(ctx context.Context, r models.IDRange) ([]models.PendingLicenseFile, error) {
	args := m.Called(ctx, r)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.PendingLicenseFile), args.Error(1)
}

func (m *MockDB) InsertLicenseTag(ctx context.Context, licenseFileID int, abbreviation string) (db.InsertResult, error) {
	args := m.Called(ctx, licenseFileID, abbreviation)
	return args.Get(0).(db.InsertResult), args.Error(1)
}

func (m *MockDB) MaxRepositoryID(ctx context.Context) (int64, error) {
	args := m.Called(ctx)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockDB) NextRepositoryID(ctx context.Context, from int64) (int64, bool, error) {
	args := m.Called(ctx, from)
	return args.Get(0).(int64), args.Bool(1), args.Error(2)
}

// insertedRepositoryIDs returns the GitHub ids stored through acceptAll's
// InsertRepository expectation, in call order.
func (m *MockDB) insertedRepositoryIDs() []int64 {
	return m.inserted
}
