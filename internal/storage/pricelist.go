package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/buildrate/ratebook/internal/common"
	"github.com/buildrate/ratebook/internal/model"
	"github.com/buildrate/ratebook/internal/service"
)

// ErrPriceListItemNotFound is returned when a price list item is not found.
var ErrPriceListItemNotFound = fmt.Errorf("price list item %w", common.ErrNotFound)

// FindPriceListItem looks up a priced resource by kind and exact name.
func (s *SQLiteStorage) FindPriceListItem(ctx context.Context, kind model.Kind, name string) (*service.PriceListItem, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateKind(kind); err != nil {
		return nil, err
	}
	if err := validateString(name, "name"); err != nil {
		return nil, err
	}

	item := &service.PriceListItem{Kind: kind, Name: name}
	var currency, unit sql.NullString
	err := s.db.QueryRowContext(ctx, `
		SELECT unit_price, currency, unit FROM price_list
		WHERE kind = ? AND name = ?`, string(kind), name).Scan(&item.UnitPrice, &currency, &unit)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrPriceListItemNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query price list item: %w", err)
	}
	item.Currency = currency.String
	item.Unit = unit.String
	return item, nil
}

// SavePriceListItem upserts a priced resource.
func (s *SQLiteStorage) SavePriceListItem(ctx context.Context, item *service.PriceListItem) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if item == nil {
		return fmt.Errorf("%w: item", ErrNilParameter)
	}
	if err := validateKind(item.Kind); err != nil {
		return err
	}
	if err := validateString(item.Name, "name"); err != nil {
		return err
	}

	if _, err := s.db.ExecContext(ctx, `
		INSERT INTO price_list (kind, name, unit_price, currency, unit, updated_at)
		VALUES (?, ?, ?, ?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(kind, name) DO UPDATE SET
			unit_price = excluded.unit_price,
			currency = excluded.currency,
			unit = excluded.unit,
			updated_at = CURRENT_TIMESTAMP`,
		string(item.Kind), item.Name, item.UnitPrice, item.Currency, item.Unit); err != nil {
		return fmt.Errorf("failed to save price list item: %w", err)
	}

	slog.Info("saved price list item", "kind", item.Kind, "name", item.Name, "unit_price", item.UnitPrice)
	return nil
}
