package main

func (cli *commandLine) migrate(args []string) error {
	if cli.runMigration == nil {
		return errNoMigration
	}
	return cli.runMigration(args[0], args[1:]...)
}
