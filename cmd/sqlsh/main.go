// Package main contains the cli implementation of the tool. It uses cobra
// package for cli tool implementation.
package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/smflabs/sqlglue/internal/glue"
	"github.com/smflabs/sqlglue/internal/seed"
	"github.com/smflabs/sqlglue/internal/storage/memory"
)

type queryFlags struct {
	exec   string
	format string
	seed   string
}

func main() {
	rootCmd := &cobra.Command{
		Use:   "sqlsh",
		Short: "Embeddable SQL engine shell",
	}

	rootCmd.AddCommand(queryCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func queryCmd() *cobra.Command {
	flags := &queryFlags{}
	cmd := &cobra.Command{
		Use:   "query",
		Short: "Run SQL statements against a fresh in-memory store",
		RunE: func(_ *cobra.Command, _ []string) error {
			return runQuery(flags)
		},
	}

	cmd.Flags().StringVarP(&flags.exec, "exec", "e", "", "SQL to run; reads stdin when omitted")
	cmd.Flags().StringVarP(&flags.format, "format", "f", "", "Output format: human or json")
	cmd.Flags().StringVar(&flags.seed, "seed", "", "TOML fixture file to load before running the query")

	return cmd
}

func runQuery(flags *queryFlags) error {
	sql := flags.exec
	if sql == "" {
		content, err := io.ReadAll(os.Stdin)
		if err != nil {
			return fmt.Errorf("failed to read stdin: %w", err)
		}
		sql = string(content)
	}

	formatter, err := NewFormatter(flags.format)
	if err != nil {
		return err
	}

	store := memory.New()
	ctx := context.Background()
	if flags.seed != "" {
		f, err := os.Open(flags.seed)
		if err != nil {
			return fmt.Errorf("failed to open seed file: %w", err)
		}
		defer f.Close()
		if err := seed.Load(ctx, store, store, f); err != nil {
			return fmt.Errorf("failed to load seed data: %w", err)
		}
	}

	engine := glue.New(store)
	payload, err := engine.Execute(ctx, sql)
	if err != nil {
		return fmt.Errorf("query failed: %w", err)
	}

	formatted, err := formatter.FormatPayload(payload)
	if err != nil {
		return fmt.Errorf("failed to format output: %w", err)
	}
	fmt.Print(formatted)
	return nil
}
