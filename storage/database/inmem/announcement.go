package inmemdb

import (
	"context"
	"sort"

	"github.com/google/uuid"

	"github.com/Wrug-hu/school-portal/core/announcement"
)

type announcementRepository struct {
	db *DB
}

var _ announcement.Repository = (*announcementRepository)(nil) // interface compliance check

func NewAnnouncementRepository(db *DB) *announcementRepository {
	return &announcementRepository{db: db}
}

func (repo *announcementRepository) CreateAnnouncement(ctx context.Context, a announcement.Announcement) (announcement.Announcement, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	a.ID = uuid.New().String()
	repo.db.announcements[a.ID] = &a
	return a, nil
}

func (repo *announcementRepository) QueryAnnouncements(ctx context.Context, filter announcement.QueryFilter) ([]announcement.Announcement, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	announcements := make([]announcement.Announcement, 0, len(repo.db.announcements))
	for _, a := range repo.db.announcements {
		if !a.VisibleTo(filter.Role) {
			continue
		}
		announcements = append(announcements, *a)
	}
	sort.Slice(announcements, func(i, j int) bool {
		return announcements[i].CreatedAt.After(announcements[j].CreatedAt)
	})
	if filter.Limit > 0 && len(announcements) > filter.Limit {
		announcements = announcements[:filter.Limit]
	}
	return announcements, nil
}
