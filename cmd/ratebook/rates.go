package main

import (
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/buildrate/ratebook/internal/config"
	"github.com/buildrate/ratebook/internal/ratecode"
	"github.com/buildrate/ratebook/internal/service"
	"github.com/spf13/cobra"
)

func ratesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "rates",
		Short: "Manage the rate library",
		Long:  `List library rates and preview rate code allocation.`,
	}

	cmd.AddCommand(listRatesCmd())
	cmd.AddCommand(nextCodeCmd())
	cmd.AddCommand(showRateCmd())

	return cmd
}

func listRatesCmd() *cobra.Command {
	var category string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List rates in the library",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			store, err := initStorage(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			summaries, err := store.ListEstimates(ctx, service.EstimateFilter{RatesOnly: true, Category: category})
			if err != nil {
				return fmt.Errorf("failed to list rates: %w", err)
			}

			if len(summaries) == 0 {
				fmt.Println("No rates found.")
				return nil
			}

			w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
			defer func() { _ = w.Flush() }()

			fmt.Fprintln(w, "Code\tDescription\tCategory\tCurrency\tNet")
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n",
				strings.Repeat("-", 8), strings.Repeat("-", 25),
				strings.Repeat("-", 12), strings.Repeat("-", 8), strings.Repeat("-", 10))
			for _, sum := range summaries {
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%.2f\n",
					sum.RateCode, sum.ProjectName, sum.Category, sum.BaseCurrency, sum.Subtotal)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&category, "category", "", "filter by category")
	return cmd
}

func nextCodeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "next-code <category>",
		Short: "Preview the next rate code for a category",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			category := args[0]

			store, err := initStorage(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			prefixes := config.RatePrefixes()
			codes, err := store.RateCodes(ctx, ratecode.Prefix(category, prefixes))
			if err != nil {
				return fmt.Errorf("failed to read rate codes: %w", err)
			}

			fmt.Println(ratecode.Next(category, codes, prefixes))
			return nil
		},
	}
}

func showRateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show <code>",
		Short: "Show a library rate by its code",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			store, err := initStorage(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			estimate, err := store.FindRateByCode(ctx, args[0])
			if err != nil {
				return fmt.Errorf("failed to load rate %q: %w", args[0], err)
			}

			printEstimate(store, estimate)
			return nil
		},
	}
}
