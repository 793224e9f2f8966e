package main

import (
	"context"
	"time"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/volatiletech/null/v8"

	"github.com/Wrug-hu/school-portal/core"
	"github.com/Wrug-hu/school-portal/core/principal"
	"github.com/Wrug-hu/school-portal/core/schedule"
)

func (cli *commandLine) addSchedule(studentNo, teacherEmail string, ne schedule.NewEntry) error {
	ctx := context.Background()

	sp, err := cli.principalRepo.GetStudentProfile(ctx, principal.ProfileFilter{
		StudentNo: core.CleanString(studentNo),
	})
	if err != nil {
		return err
	}
	ne.StudentID = sp.ID

	if teacherEmail != "" {
		p, err := cli.principalRepo.GetPrincipal(ctx, principal.GetFilter{
			Email: core.CleanString(teacherEmail, true /* lower */),
		})
		if err != nil {
			return err
		}
		tp, err := cli.principalRepo.GetTeacherProfile(ctx, principal.ProfileFilter{PrincipalID: p.ID})
		if err != nil {
			return err
		}
		ne.TeacherID = tp.ID
	}

	validate := validator.New()
	_en := en.New()
	translator, _ := ut.New(_en, _en).GetTranslator("en")
	core.InitValidators(validate, translator)
	schedule.InitValidators(validate, translator)

	if err = ne.Validate(validate); err != nil {
		return err
	}
	if ne.EndTime <= ne.StartTime {
		return core.NewValidationError(nil,
			core.FieldError{Field: "end_time", Error: "end_time must be after start_time"})
	}
	_, err = cli.scheduleRepo.CreateEntry(ctx, schedule.Entry{
		StudentID: ne.StudentID,
		TeacherID: null.NewString(ne.TeacherID, ne.TeacherID != ""),
		Subject:   ne.Subject,
		Day:       ne.Day,
		StartTime: ne.StartTime,
		EndTime:   ne.EndTime,
		Room:      ne.Room,
		CreatedAt: time.Now().UTC(),
	})
	return err
}
