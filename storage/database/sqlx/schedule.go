package sqlxrepos

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/Wrug-hu/school-portal/core/schedule"
)

// dayOrder sorts school days chronologically in SQL.
const dayOrder = `array_position(ARRAY['monday','tuesday','wednesday','thursday','friday'], day_of_week)`

type scheduleRepository struct {
	db *sqlx.DB
}

var _ schedule.Repository = (*scheduleRepository)(nil) // interface compliance check

func NewScheduleRepository(db *sqlx.DB) *scheduleRepository {
	return &scheduleRepository{db: db}
}

type scheduleRow struct {
	ID        string      `db:"id"`
	StudentID string      `db:"student_id"`
	TeacherID null.String `db:"teacher_id"`
	Subject   string      `db:"subject"`
	Day       string      `db:"day_of_week"`
	StartTime string      `db:"start_time"`
	EndTime   string      `db:"end_time"`
	Room      null.String `db:"room"`
	CreatedAt time.Time   `db:"created_at"`
}

func toScheduleRow(entry schedule.Entry) scheduleRow {
	return scheduleRow{
		ID:        entry.ID,
		StudentID: entry.StudentID,
		TeacherID: entry.TeacherID,
		Subject:   entry.Subject,
		Day:       entry.Day.String(),
		StartTime: entry.StartTime,
		EndTime:   entry.EndTime,
		Room:      null.NewString(entry.Room, entry.Room != ""),
		CreatedAt: entry.CreatedAt.UTC(),
	}
}

func (row scheduleRow) entry() schedule.Entry {
	return schedule.Entry{
		ID:        row.ID,
		StudentID: row.StudentID,
		TeacherID: row.TeacherID,
		Subject:   row.Subject,
		Day:       schedule.Day(row.Day),
		StartTime: row.StartTime,
		EndTime:   row.EndTime,
		Room:      row.Room.String,
		CreatedAt: row.CreatedAt,
	}
}

func (repo scheduleRepository) CreateEntry(ctx context.Context, entry schedule.Entry) (schedule.Entry, error) {
	entry.ID = uuid.New().String()
	row := toScheduleRow(entry)
	_, err := repo.db.NamedExecContext(ctx, `
		INSERT INTO schedule_entry (id, student_id, teacher_id, subject, day_of_week, start_time, end_time, room, created_at)
		VALUES (:id, :student_id, :teacher_id, :subject, :day_of_week, :start_time, :end_time, :room, :created_at)`,
		row,
	)
	if err != nil {
		return schedule.Entry{}, errors.Wrap(err, "inserting schedule entry")
	}
	return row.entry(), nil
}

func (repo scheduleRepository) QueryEntries(ctx context.Context, filter schedule.QueryFilter) ([]schedule.Entry, error) {
	q := `SELECT * FROM schedule_entry WHERE student_id = $1`
	args := []interface{}{filter.StudentID}
	if filter.Day != "" {
		q += ` AND day_of_week = $2`
		args = append(args, filter.Day.String())
	}
	q += ` ORDER BY ` + dayOrder + `, start_time`

	var rows []scheduleRow
	if err := repo.db.SelectContext(ctx, &rows, q, args...); err != nil {
		return nil, errors.Wrap(err, "querying schedule entries")
	}
	entries := make([]schedule.Entry, 0, len(rows))
	for _, row := range rows {
		entries = append(entries, row.entry())
	}
	return entries, nil
}
