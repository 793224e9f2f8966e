package inmemdb

import (
	"context"
	"sort"

	"github.com/google/uuid"

	"github.com/Wrug-hu/school-portal/core/filestore"
)

type fileRepository struct {
	db *DB
}

var _ filestore.Repository = (*fileRepository)(nil) // interface compliance check

func NewFileRepository(db *DB) *fileRepository {
	return &fileRepository{db: db}
}

func (repo *fileRepository) CreateFile(ctx context.Context, f filestore.File) (filestore.File, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	f.ID = uuid.New().String()
	repo.db.files[f.ID] = &f
	return f, nil
}

func (repo *fileRepository) QueryFiles(ctx context.Context, filter filestore.QueryFilter) ([]filestore.File, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	files := make([]filestore.File, 0, len(repo.db.files))
	for _, f := range repo.db.files {
		if filter.VisibleTo != nil && !f.Visible(*filter.VisibleTo) {
			continue
		}
		if filter.UploaderID != "" && f.UploaderID != filter.UploaderID {
			continue
		}
		files = append(files, *f)
	}
	sort.Slice(files, func(i, j int) bool { return files[i].CreatedAt.After(files[j].CreatedAt) })
	return files, nil
}
