package main

import (
	"database/sql"
	"errors"
	"flag"
	"fmt"
	"io"
	"syscall"

	"github.com/go-playground/validator/v10"
	"golang.org/x/term"

	"github.com/trezcool/mentora/core/curriculum"
	"github.com/trezcool/mentora/core/user"
	"github.com/trezcool/mentora/core/vip"
)

var (
	readPasswordFunc = term.ReadPassword // mockable

	errHelp = errors.New("help provided")
)

type commandLine struct {
	db       *sql.DB
	out      io.Writer
	usrRepo  user.Repository
	curSvc   *curriculum.Service
	vipSvc   *vip.Service
	validate *validator.Validate
}

func (cli *commandLine) printUsage() {
	fmt.Fprintln(cli.out, "Usage:")
	fmt.Fprintln(cli.out, "  adduser -username USERNAME -email EMAIL [-admin] - create or update a user, the password is prompted")
	fmt.Fprintln(cli.out, "  resetpassword -username USERNAME|EMAIL          - reset user's password")
	fmt.Fprintln(cli.out, "  addvip -name NAME -email EMAIL                   - provision a learner and email their credentials")
	fmt.Fprintln(cli.out, "  importcurriculum -file FILE.yaml                 - replace the curriculum with the content of FILE")
	fmt.Fprintln(cli.out, "  exportcurriculum                                 - print the curriculum as YAML")
	fmt.Fprintln(cli.out, "  curriculum                                       - print the lessons in the order learners unlock them")
	fmt.Fprintln(cli.out, "  migrate COMMAND [ARGS]                           - run a goose migration command (up, down, status, ...)")
}

// promptPassword reads a password from the terminal without echoing it.
func (cli *commandLine) promptPassword(cmd *flag.FlagSet) (string, error) {
	fmt.Fprint(cli.out, "Enter password:")
	pwd, err := readPasswordFunc(int(syscall.Stdin))
	fmt.Fprintln(cli.out)
	if err != nil {
		return "", err
	}
	if len(pwd) == 0 {
		cmd.Usage()
		return "", errHelp
	}
	return string(pwd), nil
}

func (cli *commandLine) run(args []string) error {
	if len(args) < 2 {
		cli.printUsage()
		return errHelp
	}

	addUserCmd := flag.NewFlagSet("adduser", flag.ContinueOnError)
	addUserUname := addUserCmd.String("username", "", "The user's username.")
	addUserEmail := addUserCmd.String("email", "", "The user's email.")
	addUserAdmin := addUserCmd.Bool("admin", false, "Give the user every admin role.")

	resetPasswordCmd := flag.NewFlagSet("resetpassword", flag.ContinueOnError)
	resetPasswordUname := resetPasswordCmd.String("username", "", "The user's username or email. The password will be prompted next.")

	addVipCmd := flag.NewFlagSet("addvip", flag.ContinueOnError)
	addVipName := addVipCmd.String("name", "", "The learner's name.")
	addVipEmail := addVipCmd.String("email", "", "The learner's email, the credentials are sent to it.")

	importCmd := flag.NewFlagSet("importcurriculum", flag.ContinueOnError)
	importFile := importCmd.String("file", "", "The YAML file to import.")

	for _, cmd := range []*flag.FlagSet{addUserCmd, resetPasswordCmd, addVipCmd, importCmd} {
		cmd.SetOutput(cli.out)
	}

	switch args[1] {
	case "adduser":
		if err := addUserCmd.Parse(args[2:]); err != nil {
			return errHelp
		}
		if *addUserUname == "" && *addUserEmail == "" {
			addUserCmd.Usage()
			return errHelp
		}
		pwd, err := cli.promptPassword(addUserCmd)
		if err != nil {
			return err
		}
		return cli.addUser(*addUserUname, *addUserEmail, pwd, *addUserAdmin)

	case "resetpassword":
		if err := resetPasswordCmd.Parse(args[2:]); err != nil {
			return errHelp
		}
		if *resetPasswordUname == "" {
			resetPasswordCmd.Usage()
			return errHelp
		}
		pwd, err := cli.promptPassword(resetPasswordCmd)
		if err != nil {
			return err
		}
		return cli.resetPassword(*resetPasswordUname, pwd)

	case "addvip":
		if err := addVipCmd.Parse(args[2:]); err != nil {
			return errHelp
		}
		if *addVipName == "" || *addVipEmail == "" {
			addVipCmd.Usage()
			return errHelp
		}
		return cli.addVip(*addVipName, *addVipEmail)

	case "importcurriculum":
		if err := importCmd.Parse(args[2:]); err != nil {
			return errHelp
		}
		if *importFile == "" {
			importCmd.Usage()
			return errHelp
		}
		return cli.importCurriculum(*importFile)

	case "exportcurriculum":
		return cli.exportCurriculum()

	case "curriculum":
		return cli.printCurriculum()

	case "migrate":
		if len(args) < 3 {
			cli.printUsage()
			return errHelp
		}
		return cli.migrate(args[2:])

	default:
		cli.printUsage()
		return errHelp
	}
}
