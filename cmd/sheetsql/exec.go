package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"sheetsql/internal/apply"
	"sheetsql/internal/core"
)

func newExecCmd(a *app) *cobra.Command {
	var unsafe bool
	var dryRun bool

	cmd := &cobra.Command{
		Use:   "exec <script.sql>",
		Short: "Run a SQL script as one batch and report every statement",
		Long: `Exec splits a script into statements and runs them in order. DDL runs on
its own; every other statement runs in its own transaction. Failures are
reported per statement and do not stop the batch.

Destructive statements (DROP, TRUNCATE, DELETE without WHERE, ...) are
refused unless --unsafe is given.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			content, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("failed to read script: %w", err)
			}

			analyzer := apply.NewStatementAnalyzer()
			var statements []core.Statement
			for _, text := range analyzer.SplitStatements(string(content)) {
				statements = append(statements, core.Statement{Text: text, Kind: analyzer.Classify(text)})
			}
			if len(statements) == 0 {
				printInfo(a.format, "No SQL statements found in script")
				return nil
			}
			printInfo(a.format, fmt.Sprintf("Found %d statement(s) in %s", len(statements), args[0]))

			if warnings := analyzer.Preflight(statements); len(warnings) > 0 && !unsafe {
				fmt.Println("--- Preflight Warnings ---")
				for _, w := range warnings {
					fmt.Printf("✗ %s\n", w.Message)
					fmt.Printf("    SQL: %s\n", w.SQL)
				}
				return fmt.Errorf("destructive operations detected; use --unsafe to allow these operations")
			}
			if dryRun {
				for i, st := range statements {
					fmt.Printf("-- #%d %s\n%s;\n", i+1, st.Kind, st.Text)
				}
				return nil
			}

			ctx, cancel := a.context()
			defer cancel()
			gw, err := a.connect(ctx)
			if err != nil {
				return err
			}
			defer a.closeGateway(gw)

			results := apply.NewExecutor(gw, a.log).Execute(ctx, statements)
			f, err := a.formatter()
			if err != nil {
				return err
			}
			formatted, err := f.FormatResults(results)
			if err != nil {
				return err
			}
			fmt.Print(formatted)
			if summary := apply.Summarize(results); summary.HasErrors() {
				return fmt.Errorf("script finished with %d error(s)", summary.Errors)
			}
			return nil
		},
	}

	cmd.Flags().BoolVarP(&unsafe, "unsafe", "u", false, "Allow destructive operations (DROP, TRUNCATE, etc.)")
	cmd.Flags().BoolVarP(&dryRun, "dry-run", "d", false, "Print the classified statements without executing")
	return cmd
}
