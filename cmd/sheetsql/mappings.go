package main

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"sheetsql/internal/gateway"
	"sheetsql/internal/mapping"
	"sheetsql/internal/output"
)

func newMappingsCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "mappings",
		Short: "Manage saved column mappings",
	}

	var table string
	var allConnections bool
	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List saved column mappings",
		Long: `List shows the mappings saved for the configured connection. Use --all
to include mappings of every connection, or --table to narrow the list to
one table of the configured schema.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := a.mappings()
			if err != nil {
				return err
			}

			var found []*mapping.Mapping
			switch {
			case allConnections || a.cfg.Connection.DSN == "":
				found = store.All()
			default:
				id, err := gateway.ConnectionIdentity(a.cfg.Connection.DSN)
				if err != nil {
					return err
				}
				if table != "" {
					found = store.Find(id, a.cfg.Connection.Schema, table)
				} else {
					found = store.FindByConnection(id)
				}
			}

			if strings.EqualFold(a.format, string(output.FormatJSON)) {
				data, err := json.MarshalIndent(found, "", "  ")
				if err != nil {
					return fmt.Errorf("failed to marshal JSON: %w", err)
				}
				fmt.Println(string(data))
				return nil
			}
			if len(found) == 0 {
				printInfo(a.format, "No saved mappings")
				return nil
			}
			for _, m := range found {
				fmt.Printf("%s  %s  %s.%s\n", m.Name, m.ConnectionID, m.Schema, m.Table)
				for i, target := range m.TargetColumns {
					source := "(unmapped)"
					if idx := m.MappedSourceIndex[i]; idx != mapping.Unmapped && idx < len(m.SourceColumns) {
						source = m.SourceColumns[idx]
					}
					fmt.Printf("  %s <- %s\n", target, source)
				}
			}
			return nil
		},
	}
	listCmd.Flags().StringVarP(&table, "table", "t", "", "Only mappings for this table")
	listCmd.Flags().BoolVar(&allConnections, "all", false, "Include mappings of every connection")

	deleteCmd := &cobra.Command{
		Use:   "delete <name>",
		Short: "Delete a saved column mapping",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := a.mappings()
			if err != nil {
				return err
			}
			if err := store.Delete(args[0]); err != nil {
				return err
			}
			printInfo(a.format, fmt.Sprintf("Deleted mapping %s", args[0]))
			return nil
		},
	}

	cmd.AddCommand(listCmd, deleteCmd)
	return cmd
}
