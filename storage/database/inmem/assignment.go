package inmemdb

import (
	"context"
	"sort"

	"github.com/google/uuid"

	"github.com/Wrug-hu/school-portal/core/assignment"
)

type assignmentRepository struct {
	db *DB
}

var _ assignment.Repository = (*assignmentRepository)(nil) // interface compliance check

func NewAssignmentRepository(db *DB) *assignmentRepository {
	return &assignmentRepository{db: db}
}

func (repo *assignmentRepository) CreateAssignment(ctx context.Context, a assignment.Assignment) (assignment.Assignment, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	a.ID = uuid.New().String()
	repo.db.assignments[a.ID] = &a
	return a, nil
}

func (repo *assignmentRepository) GetAssignment(ctx context.Context, id string) (assignment.Assignment, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	if a, ok := repo.db.assignments[id]; ok {
		return *a, nil
	}
	return assignment.Assignment{}, assignment.ErrNotFound
}

func (repo *assignmentRepository) QueryAssignments(ctx context.Context, filter assignment.QueryFilter) ([]assignment.Assignment, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	assignments := make([]assignment.Assignment, 0, len(repo.db.assignments))
	for _, a := range repo.db.assignments {
		if filter.VisibleTo != nil && !a.Visible(*filter.VisibleTo) {
			continue
		}
		if filter.TeacherID != "" && a.TeacherID != filter.TeacherID {
			continue
		}
		assignments = append(assignments, *a)
	}

	if filter.VisibleTo != nil {
		// due date ascending, undated last, ties newest first
		sort.Slice(assignments, func(i, j int) bool {
			di, dj := assignments[i].DueDate, assignments[j].DueDate
			switch {
			case di.Valid && dj.Valid && !di.Time.Equal(dj.Time):
				return di.Time.Before(dj.Time)
			case di.Valid != dj.Valid:
				return di.Valid
			}
			return assignments[i].CreatedAt.After(assignments[j].CreatedAt)
		})
	} else {
		sort.Slice(assignments, func(i, j int) bool {
			return assignments[i].CreatedAt.After(assignments[j].CreatedAt)
		})
	}
	return assignments, nil
}

func (repo *assignmentRepository) CreateSubmission(ctx context.Context, s assignment.Submission) (assignment.Submission, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	for _, existing := range repo.db.submissions {
		if existing.AssignmentID == s.AssignmentID && existing.StudentID == s.StudentID {
			return assignment.Submission{}, assignment.ErrAlreadySubmitted
		}
	}
	s.ID = uuid.New().String()
	repo.db.submissions[s.ID] = &s
	return s, nil
}

func (repo *assignmentRepository) QuerySubmissions(ctx context.Context, filter assignment.SubmissionFilter) ([]assignment.Submission, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	submissions := make([]assignment.Submission, 0, len(repo.db.submissions))
	for _, s := range repo.db.submissions {
		if filter.AssignmentID != "" && s.AssignmentID != filter.AssignmentID {
			continue
		}
		if filter.StudentID != "" && s.StudentID != filter.StudentID {
			continue
		}
		submissions = append(submissions, *s)
	}
	sort.Slice(submissions, func(i, j int) bool {
		return submissions[i].SubmittedAt.After(submissions[j].SubmittedAt)
	})
	return submissions, nil
}
