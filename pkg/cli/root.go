package cli

import (
	"github.com/spf13/cobra"
)

func version() string {
	return "v0.6.0"
}

func help() string {
	return `dbkit runs SQL statements and generated CRUD statements against a database.
Every command opens one connection, runs and closes it again. Results are
printed as JSON.
Usage:
  dbkit <command> [flags]
Available Commands:
  query             Run a statement and print all rows
  first             Run a statement and print the first row
  scalar            Run a statement and print the first column of the first row
  exec              Run a statement and print the affected row count
  insert            Insert a JSON object into a table
  insert-returning  Insert a JSON object and print one column of the new row
  update            Update rows matching the object's key column
  delete            Delete rows by key
  select            Build and run a SELECT
  version           Print the version number
Flags:
  -c, --config    path to a YAML config file
      --dsn       connection string, overrides the config
      --driver    pgx, postgres or sqlite
Examples:
  dbkit query 'SELECT * FROM users WHERE username = $1' user1
  dbkit insert users '{"username":"user1","email":"user1@gmail.com"}'
  dbkit update users '{"username":"user1","email":"changed@gmail.com"}' --pk username
  dbkit select users --where 'email LIKE ?' --arg '%@gmail.com' --limit 10`
}

// NewVersionCmd builds the `version` command.
func NewVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version number",
		Run: func(cmd *cobra.Command, args []string) {
			cmd.Println(version())
		},
	}
}

// NewRootCmd builds the top-level `dbkit` command.
func NewRootCmd() *cobra.Command {
	g := &globalFlags{}
	root := &cobra.Command{
		Use:           "dbkit",
		Short:         "dbkit: run SQL and CRUD statements",
		Long:          help(),
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	g.register(root)

	root.AddCommand(NewQueryCmd(g))
	root.AddCommand(NewFirstCmd(g))
	root.AddCommand(NewScalarCmd(g))
	root.AddCommand(NewExecCmd(g))
	root.AddCommand(NewInsertCmd(g))
	root.AddCommand(NewInsertReturningCmd(g))
	root.AddCommand(NewUpdateCmd(g))
	root.AddCommand(NewDeleteCmd(g))
	root.AddCommand(NewSelectCmd(g))
	root.AddCommand(NewVersionCmd())
	return root
}
