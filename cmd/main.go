package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/adanyl0v/go-todo-lists/internal/app"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "todo-lists",
		Short: "Shared to-do lists server",
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			app.InitDefaultLogger()
			app.MustReadEnv()
			app.MustInitApplicationLogger()
		},
	}

	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(migrateCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func serveCmd() *cobra.Command {
	var migrate bool
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		Run: func(cmd *cobra.Command, args []string) {
			app.MustConnectPostgres()
			defer app.DisconnectPostgres()

			if migrate {
				app.MustMigratePostgres()
			}
			app.MustListenAndServeHTTP()
		},
	}
	cmd.Flags().BoolVar(&migrate, "migrate", false, "apply database migrations before serving")
	return cmd
}

func migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply database migrations",
		Run: func(cmd *cobra.Command, args []string) {
			app.MustConnectPostgres()
			defer app.DisconnectPostgres()

			app.MustMigratePostgres()
		},
	}
}
