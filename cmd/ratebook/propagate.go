package main

import (
	"fmt"
	"log/slog"
	"strconv"

	"github.com/buildrate/ratebook/internal/engine"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"
)

func propagateCmd() *cobra.Command {
	var currency string

	cmd := &cobra.Command{
		Use:   "propagate <kind> <name> <new-unit-price>",
		Short: "Push a price-list change into stored estimates",
		Long: `Scan every stored estimate for line items of the given kind whose name
matches exactly, overwrite their unit price (and currency, if given), and
re-persist each changed estimate with recomputed totals.

Embedded sub-rates are frozen copies and are not touched; re-sync them
explicitly from their source rates. The scan is linear in the number of
stored estimates and can be interrupted.`,
		Args: cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			kind, err := parseKind(args[0])
			if err != nil {
				return err
			}
			name := args[1]
			price, err := strconv.ParseFloat(args[2], 64)
			if err != nil {
				return fmt.Errorf("invalid unit price %q", args[2])
			}

			store, err := initStorage(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			slog.Info("Propagating price change", "kind", kind, "name", name, "price", price, "currency", currency)

			eng := engine.New(store)
			var bar *progressbar.ProgressBar
			updated, err := eng.PropagateWithProgress(ctx, kind, name, price, currency,
				func(scanned, total int) {
					if bar == nil {
						bar = progressbar.NewOptions(total,
							progressbar.OptionShowCount(),
							progressbar.OptionSetWidth(40),
							progressbar.OptionSetDescription("Updating estimates..."))
					}
					_ = bar.Set(scanned)
				})
			if err != nil {
				return fmt.Errorf("propagation failed: %w", err)
			}

			fmt.Printf("\nUpdated %d estimate(s)\n", updated)
			return nil
		},
	}

	cmd.Flags().StringVar(&currency, "currency", "", "new currency code (leave empty to keep each item's currency)")
	return cmd
}
