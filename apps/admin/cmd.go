package main

import (
	"database/sql"
	"errors"
	"flag"
	"fmt"
	"syscall"

	"golang.org/x/term"

	"github.com/Wrug-hu/school-portal/core/principal"
	"github.com/Wrug-hu/school-portal/core/schedule"
)

var (
	readPasswordFunc = term.ReadPassword // mockable

	errHelp = errors.New("help provided")
)

type commandLine struct {
	db            *sql.DB
	principalRepo principal.Repository
	scheduleRepo  schedule.Repository
}

func (cli *commandLine) printUsage() {
	fmt.Println("Usage:")
	fmt.Println("  addadmin -email EMAIL -name NAME - create or promote an administrator account")
	fmt.Println("  addschedule -student STUDENT_NO -day DAY -start HH:MM -end HH:MM -subject SUBJECT [-teacher EMAIL] [-room ROOM] - add a timetable slot")
	fmt.Println("  linkparent -parent EMAIL -student STUDENT_NO - link a parent account to a student")
	fmt.Println("  migrate COMMAND [ARGS] - run database migrations (up, down, status, ...)")
	fmt.Println("  resetpassword -email EMAIL - reset an account's password")
}

func (cli *commandLine) run(args []string) error {
	if len(args) < 2 {
		cli.printUsage()
		return errHelp
	}

	addAdminCmd := flag.NewFlagSet("addadmin", flag.ExitOnError)
	addAdminEmail := addAdminCmd.String("email", "", "The administrator's email. The password will be prompted next.")
	addAdminName := addAdminCmd.String("name", "", "The administrator's full name.")

	addScheduleCmd := flag.NewFlagSet("addschedule", flag.ExitOnError)
	addScheduleStudent := addScheduleCmd.String("student", "", "The student's admission number.")
	addScheduleDay := addScheduleCmd.String("day", "", "The school day, monday through friday.")
	addScheduleStart := addScheduleCmd.String("start", "", "The start time, 24h HH:MM.")
	addScheduleEnd := addScheduleCmd.String("end", "", "The end time, 24h HH:MM.")
	addScheduleSubject := addScheduleCmd.String("subject", "", "The subject taught in this slot.")
	addScheduleTeacher := addScheduleCmd.String("teacher", "", "The teacher's account email. Optional.")
	addScheduleRoom := addScheduleCmd.String("room", "", "The room. Optional.")

	linkParentCmd := flag.NewFlagSet("linkparent", flag.ExitOnError)
	linkParentEmail := linkParentCmd.String("parent", "", "The parent account's email.")
	linkParentStudentNo := linkParentCmd.String("student", "", "The student's admission number.")

	resetPasswordCmd := flag.NewFlagSet("resetpassword", flag.ExitOnError)
	resetPasswordEmail := resetPasswordCmd.String("email", "", "The account's email. The password will be prompted next.")

	switch args[1] {
	case "addadmin":
		if err := addAdminCmd.Parse(args[2:]); err != nil {
			return err
		}
		if *addAdminEmail == "" || *addAdminName == "" {
			addAdminCmd.Usage()
			return errHelp
		}
		pwd, err := cli.promptPassword()
		if err != nil {
			return err
		}
		if len(pwd) == 0 {
			addAdminCmd.Usage()
			return errHelp
		}
		return cli.addAdmin(*addAdminEmail, *addAdminName, string(pwd))
	case "addschedule":
		if err := addScheduleCmd.Parse(args[2:]); err != nil {
			return err
		}
		if *addScheduleStudent == "" {
			addScheduleCmd.Usage()
			return errHelp
		}
		return cli.addSchedule(*addScheduleStudent, *addScheduleTeacher, schedule.NewEntry{
			Day:       schedule.Day(*addScheduleDay),
			StartTime: *addScheduleStart,
			EndTime:   *addScheduleEnd,
			Subject:   *addScheduleSubject,
			Room:      *addScheduleRoom,
		})
	case "linkparent":
		if err := linkParentCmd.Parse(args[2:]); err != nil {
			return err
		}
		if *linkParentEmail == "" || *linkParentStudentNo == "" {
			linkParentCmd.Usage()
			return errHelp
		}
		return cli.linkParent(*linkParentEmail, *linkParentStudentNo)
	case "migrate":
		if len(args) < 3 {
			cli.printUsage()
			return errHelp
		}
		return cli.migrate(args[2:])
	case "resetpassword":
		if err := resetPasswordCmd.Parse(args[2:]); err != nil {
			return err
		}
		if *resetPasswordEmail == "" {
			resetPasswordCmd.Usage()
			return errHelp
		}
		pwd, err := cli.promptPassword()
		if err != nil {
			return err
		}
		if len(pwd) == 0 {
			resetPasswordCmd.Usage()
			return errHelp
		}
		return cli.resetPassword(*resetPasswordEmail, string(pwd))
	default:
		cli.printUsage()
		return errHelp
	}
}

func (cli *commandLine) promptPassword() ([]byte, error) {
	fmt.Print("Enter password:")
	pwd, err := readPasswordFunc(syscall.Stdin)
	fmt.Println()
	return pwd, err
}
