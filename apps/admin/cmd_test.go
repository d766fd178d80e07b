package main

import (
	"bytes"
	"context"
	"fmt"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pathwayhq/pathway/core/audit"
	"github.com/pathwayhq/pathway/core/navigation"
	"github.com/pathwayhq/pathway/core/user"
	inmemdb "github.com/pathwayhq/pathway/storage/database/inmem"
	"github.com/pathwayhq/pathway/testutil"
)

func setup(t *testing.T) *commandLine {
	// set up DB & repos
	db := inmemdb.Open()

	// start CLI
	return &commandLine{
		usrRepo: inmemdb.NewUserRepository(db),
		navSvc:  navigation.NewService(inmemdb.NewNavigationRepository(db), audit.NewService(inmemdb.NewAuditRepository(db))),
	}
}

func mockPassword(t *testing.T, pwd string) {
	old := readPasswordFunc
	readPasswordFunc = func(int) ([]byte, error) { return []byte(pwd), nil }
	t.Cleanup(func() { readPasswordFunc = old })
}

type cliTest struct {
	name       string
	args       []string // without program name
	wantErr    error
	wantErrStr string
	pwd        string
}

func runCLITests(t *testing.T, cli *commandLine, tests []cliTest) {
	for _, tt := range tests {
		args := append([]string{"admin"}, tt.args...)

		t.Run(tt.name, func(t *testing.T) {
			mockPassword(t, tt.pwd)
			err := cli.run(args)
			switch {
			case tt.wantErr != nil:
				assert.Equal(t, tt.wantErr, err)
			case tt.wantErrStr != "":
				assert.EqualError(t, err, tt.wantErrStr)
			default:
				assert.NoError(t, err)
			}
		})
	}
}

func Test_commandLine_migrate(t *testing.T) {
	cli := setup(t)
	runCLITests(t, cli, []cliTest{
		{name: "in-memory database", args: []string{"migrate", "up"}, wantErr: errNoMigration},
	})

	var ran []string
	cli.runMigration = func(command string, args ...string) error {
		switch command {
		case "up", "up-by-one", "down", "fix", "redo", "reset", "status", "version": // pass
		case "up-to", "down-to":
			if len(args) == 0 {
				return fmt.Errorf("%s must be of form: goose [OPTIONS] DRIVER DBSTRING %s VERSION", command, command)
			}
			if _, err := strconv.ParseInt(args[0], 10, 64); err != nil {
				return fmt.Errorf("version must be a number (got '%s')", args[0])
			}
		default:
			return fmt.Errorf("%q: no such command", command)
		}
		ran = append(ran, command)
		return nil
	}

	runCLITests(t, cli, []cliTest{
		{name: "no subcommand", args: []string{"migrate"}, wantErr: errHelp},
		{name: "unknown subcommand", args: []string{"migrate", "lol"}, wantErrStr: "\"lol\": no such command"},
		{name: "up-to: no args", args: []string{"migrate", "up-to"}, wantErrStr: "up-to must be of form: goose [OPTIONS] DRIVER DBSTRING up-to VERSION"},
		{name: "up-to: non-int arg", args: []string{"migrate", "up-to", "lol"}, wantErrStr: "version must be a number (got 'lol')"},
		{name: "down-to: no args", args: []string{"migrate", "down-to"}, wantErrStr: "down-to must be of form: goose [OPTIONS] DRIVER DBSTRING down-to VERSION"},
		{name: "up", args: []string{"migrate", "up"}},
		{name: "up-by-one", args: []string{"migrate", "up-by-one"}},
		{name: "up-to", args: []string{"migrate", "up-to", "2"}},
		{name: "down", args: []string{"migrate", "down"}},
		{name: "down-to", args: []string{"migrate", "down-to", "1"}},
		{name: "redo", args: []string{"migrate", "redo"}},
		{name: "reset", args: []string{"migrate", "reset"}},
		{name: "status", args: []string{"migrate", "status"}},
		{name: "version", args: []string{"migrate", "version"}},
		{name: "fix", args: []string{"migrate", "fix"}},
	})
	assert.Equal(t, []string{"up", "up-by-one", "up-to", "down", "down-to", "redo", "reset", "status", "version", "fix"}, ran)
}

func Test_commandLine_addUser(t *testing.T) {
	cli := setup(t)

	runCLITests(t, cli, []cliTest{
		{name: "no command", wantErr: errHelp},
		{name: "unknown command", args: []string{"lol"}, wantErr: errHelp},
		{name: "no args", args: []string{"adduser"}, wantErr: errHelp},
		{name: "no email", args: []string{"adduser", "-name", "Ada"}, wantErr: errHelp},
		{name: "no password", args: []string{"adduser", "-name", "Ada", "-email", "ada@test.io"}, wantErr: errHelp},
		{name: "invalid role", args: []string{"adduser", "-name", "Ada", "-email", "ada@test.io", "-role", "boss"}, pwd: "pwd", wantErrStr: `invalid role "boss"`},
		{name: "admin", args: []string{"adduser", "-name", "Ada", "-email", " ADA@test.io "}, pwd: "pwd"},
		{name: "participant", args: []string{"adduser", "-name", "Bob", "-email", "bob@test.io", "-role", "participant"}, pwd: "pwd"},
		{name: "update", args: []string{"adduser", "-name", "Ada Lovelace", "-email", "ada@test.io", "-role", "coach"}, pwd: "new-pwd"},
	})

	ctx := context.Background()
	ada, err := cli.usrRepo.GetUser(ctx, user.GetFilter{Email: "ada@test.io"})
	require.NoError(t, err)
	assert.Equal(t, "Ada Lovelace", ada.FullName)
	assert.Equal(t, user.RoleCoach, ada.Role)
	assert.True(t, ada.IsActive)
	assert.NoError(t, ada.CheckPassword("new-pwd"))

	bob, err := cli.usrRepo.GetUser(ctx, user.GetFilter{Email: "bob@test.io"})
	require.NoError(t, err)
	assert.Regexp(t, `^PW-[0-9A-F]{8}$`, bob.UniqueID)

	users, err := cli.usrRepo.QueryUsers(ctx, nil)
	require.NoError(t, err)
	assert.Len(t, users, 2)
}

func Test_commandLine_resetPassword(t *testing.T) {
	cli := setup(t)

	usr := testutil.CreateUser(t, cli.usrRepo, "User", "awe@test.io", "mdr", user.RoleFinance, true)

	runCLITests(t, cli, []cliTest{
		{name: "no args", args: []string{"resetpassword"}, wantErr: errHelp},
		{name: "email but no password", args: []string{"resetpassword", "-email", "lol@test.io"}, wantErr: errHelp},
		{name: "user not found", args: []string{"resetpassword", "-email", "lol@test.io"}, pwd: "lol", wantErr: user.ErrNotFound},
		{name: "reset", args: []string{"resetpassword", "-email", "AWE@test.io"}, pwd: "lmao"},
	})

	refreshed, err := cli.usrRepo.GetUser(context.Background(), user.GetFilter{ID: usr.ID})
	require.NoError(t, err)
	assert.False(t, bytes.Equal(refreshed.PasswordHash, usr.PasswordHash), "failed to update new password")
	assert.NoError(t, refreshed.CheckPassword("lmao"))
}

func Test_commandLine_seed(t *testing.T) {
	cli := setup(t)

	require.NoError(t, cli.run([]string{"admin", "seed"}))
	menu, err := cli.navSvc.Menu(context.Background(), user.RoleParticipant)
	require.NoError(t, err)
	assert.Len(t, menu, len(navigation.DefaultMenu(user.RoleParticipant)))

	require.NoError(t, cli.run([]string{"admin", "seed"}), "seeding is idempotent")
	menu, err = cli.navSvc.Menu(context.Background(), user.RoleParticipant)
	require.NoError(t, err)
	assert.Len(t, menu, len(navigation.DefaultMenu(user.RoleParticipant)))
}
