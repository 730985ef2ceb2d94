package main

import (
	"fmt"
	"strconv"

	"github.com/buildrate/ratebook/internal/model"
	"github.com/buildrate/ratebook/internal/service"
	"github.com/spf13/cobra"
)

func pricelistCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "pricelist",
		Short: "Manage the global price list",
	}

	cmd.AddCommand(getPriceCmd())
	cmd.AddCommand(setPriceCmd())

	return cmd
}

func parseKind(arg string) (model.Kind, error) {
	kind := model.Kind(arg)
	if !kind.Valid() {
		return "", fmt.Errorf("unknown resource kind %q (material, labor, equipment, plant, indirect)", arg)
	}
	return kind, nil
}

func getPriceCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "get <kind> <name>",
		Short: "Look up a price list item",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			kind, err := parseKind(args[0])
			if err != nil {
				return err
			}

			store, err := initStorage(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			item, err := store.FindPriceListItem(ctx, kind, args[1])
			if err != nil {
				return fmt.Errorf("failed to look up %q: %w", args[1], err)
			}

			fmt.Printf("%s (%s): %.2f %s per %s\n", item.Name, item.Kind, item.UnitPrice, item.Currency, item.Unit)
			return nil
		},
	}
}

func setPriceCmd() *cobra.Command {
	var currency, unit string

	cmd := &cobra.Command{
		Use:   "set <kind> <name> <unit-price>",
		Short: "Create or update a price list item",
		Long: `Create or update a priced resource. This only edits the price list;
use 'ratebook propagate' to push the change into stored estimates.`,
		Args: cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			kind, err := parseKind(args[0])
			if err != nil {
				return err
			}
			price, err := strconv.ParseFloat(args[2], 64)
			if err != nil {
				return fmt.Errorf("invalid unit price %q", args[2])
			}

			store, err := initStorage(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			item := &service.PriceListItem{
				Kind:      kind,
				Name:      args[1],
				UnitPrice: price,
				Currency:  currency,
				Unit:      unit,
			}
			if err := store.SavePriceListItem(ctx, item); err != nil {
				return fmt.Errorf("failed to save price list item: %w", err)
			}

			fmt.Printf("Saved %s %q at %.2f %s\n", kind, item.Name, price, currency)
			return nil
		},
	}

	cmd.Flags().StringVar(&currency, "currency", "", "currency code")
	cmd.Flags().StringVar(&unit, "unit", "", "unit label")
	return cmd
}
