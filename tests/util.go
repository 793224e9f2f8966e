package testutil

import (
	"context"
	"testing"
	"time"

	"github.com/volatiletech/null/v8"

	"github.com/Wrug-hu/school-portal/core"
	"github.com/Wrug-hu/school-portal/core/announcement"
	"github.com/Wrug-hu/school-portal/core/assignment"
	"github.com/Wrug-hu/school-portal/core/filestore"
	"github.com/Wrug-hu/school-portal/core/message"
	"github.com/Wrug-hu/school-portal/core/principal"
	"github.com/Wrug-hu/school-portal/core/schedule"
)

func CreatePrincipal(
	t *testing.T,
	repo principal.Repository,
	name, email, pwd string,
	role principal.Role,
	isActive bool,
	createdAt ...time.Time,
) principal.Principal {
	t.Helper()

	tstamp := time.Now().UTC()
	if len(createdAt) > 0 {
		tstamp = createdAt[0].UTC()
	}
	p := principal.Principal{
		Email:     email,
		FullName:  name,
		Role:      role,
		CreatedAt: tstamp,
		UpdatedAt: tstamp,
	}
	p.SetActive(isActive)
	if pwd != "" {
		if err := p.SetPassword(pwd); err != nil {
			t.Fatalf("CreatePrincipal() failed: %v", err)
		}
	}
	p, err := repo.CreatePrincipal(context.Background(), p)
	if err != nil {
		t.Fatalf("CreatePrincipal() failed: %v", err)
	}
	return p
}

func CreateStudent(
	t *testing.T,
	repo principal.Repository,
	p principal.Principal,
	studentNo, grade, section string,
) principal.StudentProfile {
	t.Helper()

	sp, err := repo.CreateStudentProfile(context.Background(), principal.StudentProfile{
		PrincipalID: p.ID,
		GradeLevel:  grade,
		Section:     section,
		StudentNo:   studentNo,
		CreatedAt:   time.Now().UTC(),
	})
	if err != nil {
		t.Fatalf("CreateStudent() failed: %v", err)
	}
	return sp
}

func CreateTeacher(
	t *testing.T,
	repo principal.Repository,
	p principal.Principal,
	subject, department string,
) principal.TeacherProfile {
	t.Helper()

	tp, err := repo.CreateTeacherProfile(context.Background(), principal.TeacherProfile{
		PrincipalID: p.ID,
		Subject:     null.NewString(subject, subject != ""),
		Department:  null.NewString(department, department != ""),
		CreatedAt:   time.Now().UTC(),
	})
	if err != nil {
		t.Fatalf("CreateTeacher() failed: %v", err)
	}
	return tp
}

func LinkParent(t *testing.T, repo principal.Repository, parent principal.Principal, sp principal.StudentProfile) {
	t.Helper()

	if err := repo.LinkParent(context.Background(), parent.ID, sp.ID); err != nil {
		t.Fatalf("LinkParent() failed: %v", err)
	}
}

func CreateScheduleEntry(
	t *testing.T,
	repo schedule.Repository,
	studentID string,
	day schedule.Day,
	start, end, subject string,
) schedule.Entry {
	t.Helper()

	entry, err := repo.CreateEntry(context.Background(), schedule.Entry{
		StudentID: studentID,
		Day:       day,
		StartTime: start,
		EndTime:   end,
		Subject:   subject,
		CreatedAt: time.Now().UTC(),
	})
	if err != nil {
		t.Fatalf("CreateScheduleEntry() failed: %v", err)
	}
	return entry
}

func CreateAssignment(
	t *testing.T,
	repo assignment.Repository,
	teacherID, title, subject, grade, section string,
	dueDate null.Time,
	createdAt ...time.Time,
) assignment.Assignment {
	t.Helper()

	tstamp := time.Now().UTC()
	if len(createdAt) > 0 {
		tstamp = createdAt[0].UTC()
	}
	a, err := repo.CreateAssignment(context.Background(), assignment.Assignment{
		Title:     title,
		Subject:   subject,
		DueDate:   dueDate,
		Scope:     core.NewBroadcastScope(grade, section),
		TeacherID: teacherID,
		CreatedAt: tstamp,
	})
	if err != nil {
		t.Fatalf("CreateAssignment() failed: %v", err)
	}
	return a
}

func CreateSubmission(
	t *testing.T,
	repo assignment.Repository,
	assignmentID, studentID string,
) assignment.Submission {
	t.Helper()

	s, err := repo.CreateSubmission(context.Background(), assignment.Submission{
		AssignmentID: assignmentID,
		StudentID:    studentID,
		SubmittedAt:  time.Now().UTC(),
	})
	if err != nil {
		t.Fatalf("CreateSubmission() failed: %v", err)
	}
	return s
}

func CreateFile(
	t *testing.T,
	repo filestore.Repository,
	uploaderID, title, subject, fileURL, grade, section string,
) filestore.File {
	t.Helper()

	f, err := repo.CreateFile(context.Background(), filestore.File{
		Title:      title,
		Subject:    subject,
		FileURL:    fileURL,
		Scope:      core.NewBroadcastScope(grade, section),
		UploaderID: uploaderID,
		CreatedAt:  time.Now().UTC(),
	})
	if err != nil {
		t.Fatalf("CreateFile() failed: %v", err)
	}
	return f
}

func CreateAnnouncement(
	t *testing.T,
	repo announcement.Repository,
	authorID, title, content string,
	roles []principal.Role,
	createdAt ...time.Time,
) announcement.Announcement {
	t.Helper()

	tstamp := time.Now().UTC()
	if len(createdAt) > 0 {
		tstamp = createdAt[0].UTC()
	}
	a, err := repo.CreateAnnouncement(context.Background(), announcement.Announcement{
		Title:       title,
		Content:     content,
		TargetRoles: roles,
		AuthorID:    authorID,
		CreatedAt:   tstamp,
	})
	if err != nil {
		t.Fatalf("CreateAnnouncement() failed: %v", err)
	}
	return a
}

func CreateMessage(
	t *testing.T,
	repo message.Repository,
	senderID, recipientID, content string,
	createdAt ...time.Time,
) message.Message {
	t.Helper()

	tstamp := time.Now().UTC()
	if len(createdAt) > 0 {
		tstamp = createdAt[0].UTC()
	}
	m, err := repo.CreateMessage(context.Background(), message.Message{
		SenderID:    senderID,
		RecipientID: recipientID,
		Content:     content,
		CreatedAt:   tstamp,
	})
	if err != nil {
		t.Fatalf("CreateMessage() failed: %v", err)
	}
	return m
}
