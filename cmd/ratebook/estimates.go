package main

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/buildrate/ratebook/internal/engine"
	"github.com/buildrate/ratebook/internal/model"
	"github.com/buildrate/ratebook/internal/service"
	"github.com/spf13/cobra"
)

func estimatesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "estimates",
		Short: "Manage stored estimates",
		Long:  `List, inspect, and delete stored cost estimates.`,
	}

	cmd.AddCommand(listEstimatesCmd())
	cmd.AddCommand(showEstimateCmd())
	cmd.AddCommand(deleteEstimateCmd())

	return cmd
}

func listEstimatesCmd() *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List stored estimates",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			store, err := initStorage(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			summaries, err := store.ListEstimates(ctx, service.EstimateFilter{Limit: limit})
			if err != nil {
				return fmt.Errorf("failed to list estimates: %w", err)
			}

			if len(summaries) == 0 {
				fmt.Println("No estimates found.")
				return nil
			}

			w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
			defer func() { _ = w.Flush() }()

			fmt.Fprintln(w, "ID\tProject\tClient\tCode\tCurrency\tSubtotal\tGrand Total\tCreated")
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
				strings.Repeat("-", 4), strings.Repeat("-", 20), strings.Repeat("-", 15),
				strings.Repeat("-", 8), strings.Repeat("-", 8), strings.Repeat("-", 10),
				strings.Repeat("-", 11), strings.Repeat("-", 10))
			for _, sum := range summaries {
				fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\t%.2f\t%.2f\t%s\n",
					sum.ID, sum.ProjectName, sum.ClientName, sum.RateCode,
					sum.BaseCurrency, sum.Subtotal, sum.GrandTotal,
					sum.CreatedAt.Format("2006-01-02"))
			}
			return nil
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 0, "maximum number of estimates to list")
	return cmd
}

func showEstimateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show <id>",
		Short: "Show an estimate's tasks and totals",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			id, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid estimate id %q", args[0])
			}

			store, err := initStorage(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			estimate, err := store.GetEstimate(ctx, id)
			if err != nil {
				return fmt.Errorf("failed to load estimate %d: %w", id, err)
			}

			printEstimate(store, estimate)
			return nil
		},
	}
}

func printEstimate(store service.Storage, estimate *model.Estimate) {
	fmt.Printf("Project: %s\n", estimate.ProjectName)
	if estimate.ClientName != "" {
		fmt.Printf("Client:  %s\n", estimate.ClientName)
	}
	if estimate.Rate != nil {
		fmt.Printf("Rate:    %s (%s, %s)\n", estimate.Rate.Code, estimate.Rate.Type, estimate.Rate.Unit)
	}
	fmt.Println()

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "Task\tKind\tItem\tQty\tUnit\tPrice\tCurrency\tTotal")
	for _, task := range estimate.Tasks {
		task.EachItem(func(li *model.LineItem) {
			fmt.Fprintf(w, "%s\t%s\t%s\t%.2f\t%s\t%.2f\t%s\t%.2f\n",
				task.Description, li.Kind, li.Name, li.Quantity, li.Unit,
				li.UnitPrice, li.Currency, li.Total)
		})
	}
	_ = w.Flush()

	totals := engine.CalculateTotals(estimate)
	fmt.Println()
	fmt.Printf("Subtotal:    %12.2f %s\n", totals.Subtotal, totals.Currency)
	fmt.Printf("Overhead:    %12.2f (%.1f%%)\n", totals.Overhead, estimate.OverheadPct)
	fmt.Printf("Profit:      %12.2f (%.1f%%)\n", totals.Profit, estimate.ProfitPct)
	fmt.Printf("Grand total: %12.2f %s\n", totals.GrandTotal, totals.Currency)

	if len(estimate.SubRates) > 0 {
		eng := engine.New(store)
		net, err := eng.NetRate(estimate)
		if err != nil {
			fmt.Printf("Net rate:    unresolvable (%v)\n", err)
			return
		}
		fmt.Printf("Net rate:    %12.2f %s (%d sub-rates)\n", net, totals.Currency, len(estimate.SubRates))
	}
}

func deleteEstimateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a stored estimate",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			id, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid estimate id %q", args[0])
			}

			store, err := initStorage(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			if err := store.DeleteEstimate(ctx, id); err != nil {
				return fmt.Errorf("failed to delete estimate %d: %w", id, err)
			}

			fmt.Printf("Deleted estimate %d\n", id)
			return nil
		},
	}
}
