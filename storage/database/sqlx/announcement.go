package sqlxrepos

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/pkg/errors"

	"github.com/Wrug-hu/school-portal/core/announcement"
	"github.com/Wrug-hu/school-portal/core/principal"
)

type announcementRepository struct {
	db *sqlx.DB
}

var _ announcement.Repository = (*announcementRepository)(nil) // interface compliance check

func NewAnnouncementRepository(db *sqlx.DB) *announcementRepository {
	return &announcementRepository{db: db}
}

type announcementRow struct {
	ID          string         `db:"id"`
	Title       string         `db:"title"`
	Content     string         `db:"content"`
	TargetRoles pq.StringArray `db:"target_roles"`
	AuthorID    string         `db:"author_id"`
	CreatedAt   time.Time      `db:"created_at"`
}

func toAnnouncementRow(a announcement.Announcement) announcementRow {
	roles := make(pq.StringArray, 0, len(a.TargetRoles))
	for _, role := range a.TargetRoles {
		roles = append(roles, role.String())
	}
	return announcementRow{
		ID:          a.ID,
		Title:       a.Title,
		Content:     a.Content,
		TargetRoles: roles,
		AuthorID:    a.AuthorID,
		CreatedAt:   a.CreatedAt.UTC(),
	}
}

func (row announcementRow) announcement() announcement.Announcement {
	roles := make([]principal.Role, 0, len(row.TargetRoles))
	for _, role := range row.TargetRoles {
		roles = append(roles, principal.Role(role))
	}
	return announcement.Announcement{
		ID:          row.ID,
		Title:       row.Title,
		Content:     row.Content,
		TargetRoles: roles,
		AuthorID:    row.AuthorID,
		CreatedAt:   row.CreatedAt,
	}
}

func (repo announcementRepository) CreateAnnouncement(ctx context.Context, a announcement.Announcement) (announcement.Announcement, error) {
	a.ID = uuid.New().String()
	row := toAnnouncementRow(a)
	_, err := repo.db.NamedExecContext(ctx, `
		INSERT INTO announcement (id, title, content, target_roles, author_id, created_at)
		VALUES (:id, :title, :content, :target_roles, :author_id, :created_at)`,
		row,
	)
	if err != nil {
		return announcement.Announcement{}, errors.Wrap(err, "inserting announcement")
	}
	return row.announcement(), nil
}

func (repo announcementRepository) QueryAnnouncements(ctx context.Context, filter announcement.QueryFilter) ([]announcement.Announcement, error) {
	q := `SELECT * FROM announcement WHERE $1 = ANY(target_roles) ORDER BY created_at DESC`
	args := []interface{}{filter.Role.String()}
	if filter.Limit > 0 {
		q += ` LIMIT $2`
		args = append(args, filter.Limit)
	}

	var rows []announcementRow
	if err := repo.db.SelectContext(ctx, &rows, q, args...); err != nil {
		return nil, errors.Wrap(err, "querying announcements")
	}
	announcements := make([]announcement.Announcement, 0, len(rows))
	for _, row := range rows {
		announcements = append(announcements, row.announcement())
	}
	return announcements, nil
}
