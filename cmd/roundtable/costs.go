package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"roundtable-hq/roundtable/pkg/config"
	"roundtable-hq/roundtable/pkg/ledger"
)

var costsFlags struct {
	user         string
	conversation string
	provider     string
	timeRange    string
	limit        int
	format       string
	output       string
}

var costsCmd = &cobra.Command{
	Use:   "costs",
	Short: "Query the cost ledger",
	Long: `Query and summarize persisted cost records.

The costs command reads the cost ledger configured in the config file
(memory ledgers hold nothing between runs, so this is mainly useful
with the sqlite backend).

Subcommands:
  query   - List cost records with filters
  totals  - Aggregate totals for matching records

Examples:
  # List the last 50 records for one user
  roundtable costs query --user "user-123" --limit 50

  # Totals for one conversation
  roundtable costs totals --conversation "conv-7"

  # Export records as JSON
  roundtable costs query --format json --output costs.json`,
}

var costsQueryCmd = &cobra.Command{
	Use:   "query",
	Short: "List cost records",
	Long: `List cost records matching the given filters, newest first.

Time Range Format:
  RFC3339 interval format: "start/end"
  Example: "2026-08-01T00:00:00Z/2026-09-01T00:00:00Z"`,
	RunE: queryCosts,
}

var costsTotalsCmd = &cobra.Command{
	Use:   "totals",
	Short: "Aggregate cost totals",
	Long:  `Sum token counts and cost over records matching the given filters.`,
	RunE:  totalCosts,
}

func init() {
	rootCmd.AddCommand(costsCmd)
	costsCmd.AddCommand(costsQueryCmd, costsTotalsCmd)

	for _, cmd := range []*cobra.Command{costsQueryCmd, costsTotalsCmd} {
		cmd.Flags().StringVar(&costsFlags.user, "user", "", "filter by user ID")
		cmd.Flags().StringVar(&costsFlags.conversation, "conversation", "", "filter by conversation ID")
		cmd.Flags().StringVar(&costsFlags.provider, "provider", "", "filter by provider")
		cmd.Flags().StringVar(&costsFlags.timeRange, "time-range", "", "time range (RFC3339 interval: start/end)")
	}

	costsQueryCmd.Flags().IntVar(&costsFlags.limit, "limit", 100, "max results")
	costsQueryCmd.Flags().StringVar(&costsFlags.format, "format", "text", "output format: text, json")
	costsQueryCmd.Flags().StringVarP(&costsFlags.output, "output", "o", "", "output file (default: stdout)")
}

func openLedger() (ledger.Store, error) {
	cfg, err := config.LoadConfigWithEnvOverrides(cfgFile)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if cfg.Ledger.Backend != "sqlite" {
		return nil, fmt.Errorf("ledger backend %q holds no persisted records; configure the sqlite backend", cfg.Ledger.Backend)
	}

	sqliteCfg := ledger.DefaultSQLiteConfig()
	sqliteCfg.Path = cfg.Ledger.SQLitePath
	return ledger.NewSQLiteStore(sqliteCfg)
}

func buildFilter() (ledger.Filter, error) {
	filter := ledger.Filter{
		UserID:         costsFlags.user,
		ConversationID: costsFlags.conversation,
		Provider:       costsFlags.provider,
	}

	if costsFlags.timeRange != "" {
		parts := strings.SplitN(costsFlags.timeRange, "/", 2)
		if len(parts) != 2 {
			return filter, fmt.Errorf("invalid time range %q: expected start/end", costsFlags.timeRange)
		}
		since, err := time.Parse(time.RFC3339, parts[0])
		if err != nil {
			return filter, fmt.Errorf("invalid time range start: %w", err)
		}
		until, err := time.Parse(time.RFC3339, parts[1])
		if err != nil {
			return filter, fmt.Errorf("invalid time range end: %w", err)
		}
		filter.Since = since
		filter.Until = until
	}

	return filter, nil
}

func queryCosts(cmd *cobra.Command, args []string) error {
	filter, err := buildFilter()
	if err != nil {
		return err
	}

	store, err := openLedger()
	if err != nil {
		return err
	}
	defer store.Close()

	records, err := store.List(context.Background(), filter)
	if err != nil {
		return fmt.Errorf("failed to query ledger: %w", err)
	}
	if costsFlags.limit > 0 && len(records) > costsFlags.limit {
		records = records[:costsFlags.limit]
	}

	out := os.Stdout
	if costsFlags.output != "" {
		f, err := os.Create(costsFlags.output)
		if err != nil {
			return fmt.Errorf("failed to create output file: %w", err)
		}
		defer f.Close()
		out = f
	}

	if costsFlags.format == "json" {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(records)
	}

	for _, r := range records {
		fmt.Fprintf(out, "%s  %-10s %-24s user=%s in=%d out=%d cached=%d $%.6f",
			r.CreatedAt.Format(time.RFC3339), r.Provider, r.Model,
			r.UserID, r.InputTokens, r.OutputTokens, r.CachedTokens, r.TotalCost)
		if r.Partial {
			fmt.Fprint(out, " [partial]")
		}
		if r.Estimated {
			fmt.Fprint(out, " [estimated]")
		}
		fmt.Fprintln(out)
	}
	fmt.Fprintf(out, "\n%d record(s)\n", len(records))
	return nil
}

func totalCosts(cmd *cobra.Command, args []string) error {
	filter, err := buildFilter()
	if err != nil {
		return err
	}

	store, err := openLedger()
	if err != nil {
		return err
	}
	defer store.Close()

	totals, err := store.Totals(context.Background(), filter)
	if err != nil {
		return fmt.Errorf("failed to aggregate ledger: %w", err)
	}

	fmt.Printf("Records:       %d\n", totals.Records)
	fmt.Printf("Conversations: %d\n", totals.Conversations)
	fmt.Printf("Input tokens:  %d\n", totals.InputTokens)
	fmt.Printf("Output tokens: %d\n", totals.OutputTokens)
	fmt.Printf("Cached tokens: %d\n", totals.CachedTokens)
	fmt.Printf("Total cost:    $%.6f\n", totals.TotalCost)
	return nil
}
