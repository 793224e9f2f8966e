package sqlxrepos

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/Wrug-hu/school-portal/core"
	"github.com/Wrug-hu/school-portal/core/filestore"
)

type fileRepository struct {
	db *sqlx.DB
}

var _ filestore.Repository = (*fileRepository)(nil) // interface compliance check

func NewFileRepository(db *sqlx.DB) *fileRepository {
	return &fileRepository{db: db}
}

type fileRow struct {
	ID          string      `db:"id"`
	Title       string      `db:"title"`
	Description null.String `db:"description"`
	Subject     string      `db:"subject"`
	FileURL     string      `db:"file_url"`
	FileName    null.String `db:"file_name"`
	GradeLevel  null.String `db:"grade_level"`
	Section     null.String `db:"section"`
	UploaderID  string      `db:"uploaded_by"`
	CreatedAt   time.Time   `db:"created_at"`
}

func toFileRow(f filestore.File) fileRow {
	return fileRow{
		ID:          f.ID,
		Title:       f.Title,
		Description: f.Description,
		Subject:     f.Subject,
		FileURL:     f.FileURL,
		FileName:    f.FileName,
		GradeLevel:  f.Scope.Grade,
		Section:     f.Scope.Section,
		UploaderID:  f.UploaderID,
		CreatedAt:   f.CreatedAt.UTC(),
	}
}

func (row fileRow) file() filestore.File {
	return filestore.File{
		ID:          row.ID,
		Title:       row.Title,
		Description: row.Description,
		Subject:     row.Subject,
		FileURL:     row.FileURL,
		FileName:    row.FileName,
		Scope:       core.BroadcastScope{Grade: row.GradeLevel, Section: row.Section},
		UploaderID:  row.UploaderID,
		CreatedAt:   row.CreatedAt,
	}
}

func (repo fileRepository) CreateFile(ctx context.Context, f filestore.File) (filestore.File, error) {
	f.ID = uuid.New().String()
	row := toFileRow(f)
	_, err := repo.db.NamedExecContext(ctx, `
		INSERT INTO file_resource (id, title, description, subject, file_url, file_name, grade_level, section, uploaded_by, created_at)
		VALUES (:id, :title, :description, :subject, :file_url, :file_name, :grade_level, :section, :uploaded_by, :created_at)`,
		row,
	)
	if err != nil {
		return filestore.File{}, errors.Wrap(err, "inserting file")
	}
	return row.file(), nil
}

func (repo fileRepository) QueryFiles(ctx context.Context, filter filestore.QueryFilter) ([]filestore.File, error) {
	var (
		q    string
		args []interface{}
	)
	switch {
	case filter.VisibleTo != nil:
		q = `SELECT * FROM file_resource WHERE ` + broadcastScopeCond + ` ORDER BY created_at DESC`
		args = []interface{}{filter.VisibleTo.GradeLevel, filter.VisibleTo.Section}
	case filter.UploaderID != "":
		q = `SELECT * FROM file_resource WHERE uploaded_by = ? ORDER BY created_at DESC`
		args = []interface{}{filter.UploaderID}
	default:
		q = `SELECT * FROM file_resource ORDER BY created_at DESC`
	}

	var rows []fileRow
	if err := repo.db.SelectContext(ctx, &rows, repo.db.Rebind(q), args...); err != nil {
		return nil, errors.Wrap(err, "querying files")
	}
	files := make([]filestore.File, 0, len(rows))
	for _, row := range rows {
		files = append(files, row.file())
	}
	return files, nil
}
