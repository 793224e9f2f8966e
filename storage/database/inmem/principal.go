package inmemdb

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/Wrug-hu/school-portal/core/principal"
)

type principalRepository struct {
	db *DB
}

var _ principal.Repository = (*principalRepository)(nil) // interface compliance check

func NewPrincipalRepository(db *DB) *principalRepository {
	return &principalRepository{db: db}
}

func (repo *principalRepository) CheckEmailUniqueness(ctx context.Context, email string, excluded ...principal.Principal) error {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	for _, p := range repo.db.principals {
		if p.Email != email {
			continue
		}
		isExcluded := false
		for _, excl := range excluded {
			if excl.ID == p.ID {
				isExcluded = true
				break
			}
		}
		if !isExcluded {
			return principal.ErrEmailExists
		}
	}
	return nil
}

func (repo *principalRepository) CreatePrincipal(ctx context.Context, p principal.Principal) (principal.Principal, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	p.ID = uuid.New().String()
	repo.db.principals[p.ID] = &p
	return p, nil
}

func (repo *principalRepository) GetPrincipal(ctx context.Context, filter principal.GetFilter) (principal.Principal, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	if filter.ID != "" {
		if p, ok := repo.db.principals[filter.ID]; ok {
			return *p, nil
		}
		return principal.Principal{}, principal.ErrNotFound
	}
	for _, p := range repo.db.principals {
		if p.Email == filter.Email && filter.Email != "" {
			return *p, nil
		}
	}
	return principal.Principal{}, principal.ErrNotFound
}

func (repo *principalRepository) QueryContacts(ctx context.Context, excludeID string) ([]principal.Principal, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	contacts := make([]principal.Principal, 0, len(repo.db.principals))
	for _, p := range repo.db.principals {
		if p.ID == excludeID || !p.Active() {
			continue
		}
		contacts = append(contacts, *p)
	}
	sort.Slice(contacts, func(i, j int) bool { return contacts[i].FullName < contacts[j].FullName })
	return contacts, nil
}

func (repo *principalRepository) UpdatePrincipal(ctx context.Context, p principal.Principal) (principal.Principal, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	if _, ok := repo.db.principals[p.ID]; !ok {
		return principal.Principal{}, principal.ErrNotFound
	}
	repo.db.principals[p.ID] = &p
	return p, nil
}

func (repo *principalRepository) CreateStudentProfile(ctx context.Context, sp principal.StudentProfile) (principal.StudentProfile, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	for _, existing := range repo.db.studentProfiles {
		if existing.StudentNo == sp.StudentNo {
			return principal.StudentProfile{}, principal.ErrStudentExists
		}
	}
	sp.ID = uuid.New().String()
	repo.db.studentProfiles[sp.ID] = &sp
	return sp, nil
}

func (repo *principalRepository) CreateTeacherProfile(ctx context.Context, tp principal.TeacherProfile) (principal.TeacherProfile, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	tp.ID = uuid.New().String()
	repo.db.teacherProfiles[tp.ID] = &tp
	return tp, nil
}

func (repo *principalRepository) GetStudentProfile(ctx context.Context, filter principal.ProfileFilter) (principal.StudentProfile, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	for _, sp := range repo.db.studentProfiles {
		switch {
		case filter.ID != "" && sp.ID == filter.ID:
			return *sp, nil
		case filter.PrincipalID != "" && sp.PrincipalID == filter.PrincipalID:
			return *sp, nil
		case filter.StudentNo != "" && sp.StudentNo == filter.StudentNo:
			return *sp, nil
		}
	}
	return principal.StudentProfile{}, principal.ErrNotFound
}

func (repo *principalRepository) GetTeacherProfile(ctx context.Context, filter principal.ProfileFilter) (principal.TeacherProfile, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	for _, tp := range repo.db.teacherProfiles {
		switch {
		case filter.ID != "" && tp.ID == filter.ID:
			return *tp, nil
		case filter.PrincipalID != "" && tp.PrincipalID == filter.PrincipalID:
			return *tp, nil
		}
	}
	return principal.TeacherProfile{}, principal.ErrNotFound
}

func (repo *principalRepository) LinkParent(ctx context.Context, parentID, studentID string) error {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	for _, link := range repo.db.parentLinks {
		if link.parentID == parentID && link.studentID == studentID {
			return principal.ErrAlreadyLinked
		}
	}
	repo.db.parentLinks = append(repo.db.parentLinks, parentLink{
		parentID:  parentID,
		studentID: studentID,
		createdAt: time.Now().UTC(),
	})
	return nil
}

func (repo *principalRepository) QueryChildren(ctx context.Context, parentID string) ([]principal.StudentProfile, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	// parentLinks is append-only; iteration order is link order
	children := make([]principal.StudentProfile, 0, 2)
	for _, link := range repo.db.parentLinks {
		if link.parentID != parentID {
			continue
		}
		if sp, ok := repo.db.studentProfiles[link.studentID]; ok {
			children = append(children, *sp)
		}
	}
	return children, nil
}
