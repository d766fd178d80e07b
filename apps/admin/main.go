package main

import (
	"log"
	"os"

	"github.com/pathwayhq/pathway/core"
	"github.com/pathwayhq/pathway/core/audit"
	"github.com/pathwayhq/pathway/core/navigation"
	"github.com/pathwayhq/pathway/storage/database"
	inmemdb "github.com/pathwayhq/pathway/storage/database/inmem"
	sqlxrepos "github.com/pathwayhq/pathway/storage/database/sqlx"
)

var logger *log.Logger

func main() {
	logger = log.New(os.Stdout, "ADMIN : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile)
	conf := core.NewConfig()

	var cli commandLine
	if conf.Database.IsMemory() {
		db := inmemdb.Open()
		cli = commandLine{
			usrRepo: inmemdb.NewUserRepository(db),
			navSvc:  navigation.NewService(inmemdb.NewNavigationRepository(db), audit.NewService(inmemdb.NewAuditRepository(db))),
		}
	} else {
		// set up DB
		db, err := database.Open(conf)
		errAndDie(err)
		defer db.Close()

		cli = commandLine{
			usrRepo: sqlxrepos.NewUserRepository(db),
			navSvc:  navigation.NewService(sqlxrepos.NewNavigationRepository(db), audit.NewService(sqlxrepos.NewAuditRepository(db))),
			runMigration: func(command string, args ...string) error {
				return database.RunMigrationCommand(db, command, args...)
			},
		}
	}

	// start CLI
	if err := cli.run(os.Args); err != nil {
		if err != errHelp {
			logger.Printf("\nerror: %s\n", err)
		}
		os.Exit(1)
	}
}

func errAndDie(err error) {
	if err != nil {
		logger.Fatal(err)
	}
}
