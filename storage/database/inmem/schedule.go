package inmemdb

import (
	"context"
	"sort"

	"github.com/google/uuid"

	"github.com/Wrug-hu/school-portal/core/schedule"
)

type scheduleRepository struct {
	db *DB
}

var _ schedule.Repository = (*scheduleRepository)(nil) // interface compliance check

func NewScheduleRepository(db *DB) *scheduleRepository {
	return &scheduleRepository{db: db}
}

func (repo *scheduleRepository) CreateEntry(ctx context.Context, entry schedule.Entry) (schedule.Entry, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	entry.ID = uuid.New().String()
	repo.db.schedules[entry.ID] = &entry
	return entry, nil
}

func (repo *scheduleRepository) QueryEntries(ctx context.Context, filter schedule.QueryFilter) ([]schedule.Entry, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	entries := make([]schedule.Entry, 0, len(repo.db.schedules))
	for _, entry := range repo.db.schedules {
		if entry.StudentID != filter.StudentID {
			continue
		}
		if filter.Day != "" && entry.Day != filter.Day {
			continue
		}
		entries = append(entries, *entry)
	}
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].Day != entries[j].Day {
			return entries[i].Day.Order() < entries[j].Day.Order()
		}
		return entries[i].StartTime < entries[j].StartTime
	})
	return entries, nil
}
