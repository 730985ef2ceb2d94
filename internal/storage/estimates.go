package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/buildrate/ratebook/internal/common"
	"github.com/buildrate/ratebook/internal/engine"
	"github.com/buildrate/ratebook/internal/model"
	"github.com/buildrate/ratebook/internal/service"
)

// ErrEstimateNotFound is returned when an estimate is not found.
var ErrEstimateNotFound = fmt.Errorf("estimate %w", common.ErrNotFound)

// SaveEstimate upserts the full estimate graph and returns its id, allocating
// one on first save. The write is a single transaction: on failure nothing is
// stored and the in-memory estimate is unchanged, so the caller can retry.
func (s *SQLiteStorage) SaveEstimate(ctx context.Context, estimate *model.Estimate) (int64, error) {
	if err := validateContext(ctx); err != nil {
		return 0, err
	}
	if err := validateEstimate(estimate); err != nil {
		return 0, err
	}

	totals := engine.CalculateTotals(estimate)

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", common.ErrPersistenceFailure, err)
	}
	defer func() {
		if err := tx.Rollback(); err != nil && !errors.Is(err, sql.ErrTxDone) {
			slog.Error("failed to rollback estimate save", "error", err)
		}
	}()

	id, err := s.upsertEstimateRow(ctx, tx, estimate, totals)
	if err != nil {
		return 0, err
	}

	// Child rows are replaced wholesale; the graph in memory is the source of
	// truth for ordering.
	for _, table := range []string{"tasks", "exchange_rates", "sub_rates"} {
		if _, err := tx.ExecContext(ctx, fmt.Sprintf(`DELETE FROM %s WHERE estimate_id = ?`, table), id); err != nil {
			return 0, fmt.Errorf("failed to clear %s: %w", table, err)
		}
	}

	if err := s.insertTasks(ctx, tx, id, estimate.Tasks); err != nil {
		return 0, err
	}
	if err := s.insertExchangeRates(ctx, tx, id, estimate.Rates); err != nil {
		return 0, err
	}
	if err := s.insertSubRates(ctx, tx, id, estimate.SubRates); err != nil {
		return 0, err
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("%w: %v", common.ErrPersistenceFailure, err)
	}

	estimate.ID = &id
	slog.Info("saved estimate", "id", id, "project", estimate.ProjectName, "rate_code", estimate.RateCode())
	return id, nil
}

func (s *SQLiteStorage) upsertEstimateRow(ctx context.Context, tx *sql.Tx, estimate *model.Estimate, totals engine.Totals) (int64, error) {
	var rateCode, unit, category, rateType, notes string
	var adjustment float64
	if estimate.Rate != nil {
		rateCode = estimate.Rate.Code
		unit = estimate.Rate.Unit
		category = estimate.Rate.Category
		rateType = string(estimate.Rate.Type)
		notes = estimate.Rate.Notes
		adjustment = estimate.Rate.Adjustment
	}

	createdAt := estimate.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}

	if estimate.ID != nil {
		result, err := tx.ExecContext(ctx, `
			UPDATE estimates SET
				project_name = ?, client_name = ?, base_currency = ?,
				overhead_pct = ?, profit_pct = ?, subtotal = ?, grand_total = ?,
				rate_code = ?, unit = ?, category = ?, rate_type = ?,
				adjustment = ?, notes = ?
			WHERE id = ?`,
			estimate.ProjectName, estimate.ClientName, estimate.BaseCurrency,
			estimate.OverheadPct, estimate.ProfitPct, totals.Subtotal, totals.GrandTotal,
			rateCode, unit, category, rateType, adjustment, notes, *estimate.ID)
		if err != nil {
			return 0, wrapConstraint(err)
		}
		affected, err := result.RowsAffected()
		if err != nil {
			return 0, fmt.Errorf("failed to get rows affected: %w", err)
		}
		if affected == 0 {
			return 0, ErrEstimateNotFound
		}
		return *estimate.ID, nil
	}

	result, err := tx.ExecContext(ctx, `
		INSERT INTO estimates (
			project_name, client_name, base_currency, overhead_pct, profit_pct,
			subtotal, grand_total, rate_code, unit, category, rate_type,
			adjustment, notes, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		estimate.ProjectName, estimate.ClientName, estimate.BaseCurrency,
		estimate.OverheadPct, estimate.ProfitPct, totals.Subtotal, totals.GrandTotal,
		rateCode, unit, category, rateType, adjustment, notes, createdAt)
	if err != nil {
		return 0, wrapConstraint(err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to get last insert id: %w", err)
	}
	return id, nil
}

// wrapConstraint maps a rate-code uniqueness violation onto the retryable
// sentinel so allocation races surface as common.ErrDuplicateRateCode.
func wrapConstraint(err error) error {
	if strings.Contains(err.Error(), "idx_estimates_rate_code") ||
		strings.Contains(err.Error(), "estimates.rate_code") {
		return fmt.Errorf("%w: %v", common.ErrDuplicateRateCode, err)
	}
	return fmt.Errorf("%w: %v", common.ErrPersistenceFailure, err)
}

func (s *SQLiteStorage) insertTasks(ctx context.Context, tx *sql.Tx, estimateID int64, tasks []*model.Task) error {
	for pos, task := range tasks {
		result, err := tx.ExecContext(ctx,
			`INSERT INTO tasks (estimate_id, position, description) VALUES (?, ?, ?)`,
			estimateID, pos, task.Description)
		if err != nil {
			return fmt.Errorf("failed to insert task: %w", err)
		}
		taskID, err := result.LastInsertId()
		if err != nil {
			return fmt.Errorf("failed to get task id: %w", err)
		}

		itemPos := 0
		var itemErr error
		task.EachItem(func(li *model.LineItem) {
			if itemErr != nil {
				return
			}
			_, itemErr = tx.ExecContext(ctx, `
				INSERT INTO line_items (task_id, kind, position, name, quantity, unit, unit_price, currency, formula)
				VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
				taskID, string(li.Kind), itemPos, li.Name, li.Quantity, li.Unit, li.UnitPrice, li.Currency, li.Formula)
			itemPos++
		})
		if itemErr != nil {
			return fmt.Errorf("failed to insert line item: %w", itemErr)
		}
	}
	return nil
}

func (s *SQLiteStorage) insertExchangeRates(ctx context.Context, tx *sql.Tx, estimateID int64, rates map[string]model.ExchangeRateEntry) error {
	for currency, entry := range rates {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO exchange_rates (estimate_id, currency, rate, operator, effective_date)
			VALUES (?, ?, ?, ?, ?)`,
			estimateID, currency, entry.Rate, string(entry.Operator), entry.EffectiveDate); err != nil {
			return fmt.Errorf("failed to insert exchange rate for %s: %w", currency, err)
		}
	}
	return nil
}

func (s *SQLiteStorage) insertSubRates(ctx context.Context, tx *sql.Tx, estimateID int64, subRates []model.SubRate) error {
	for pos := range subRates {
		sub := &subRates[pos]
		embedded, err := json.Marshal(&sub.Estimate)
		if err != nil {
			return fmt.Errorf("failed to marshal embedded sub-rate: %w", err)
		}
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO sub_rates (estimate_id, position, quantity, converted_unit, formula, source_estimate_id, source_rate_code, embedded)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			estimateID, pos, sub.Quantity, sub.ConvertedUnit, sub.Formula, sub.SourceID, sub.SourceCode, string(embedded)); err != nil {
			return fmt.Errorf("failed to insert sub-rate: %w", err)
		}
	}
	return nil
}

// GetEstimate loads the full estimate graph by id.
func (s *SQLiteStorage) GetEstimate(ctx context.Context, id int64) (*model.Estimate, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	estimate := &model.Estimate{}
	var clientName, rateCode, unit, category, rateType, notes sql.NullString
	var adjustment float64

	err := s.db.QueryRowContext(ctx, `
		SELECT id, project_name, client_name, base_currency, overhead_pct, profit_pct,
			rate_code, unit, category, rate_type, adjustment, notes, created_at
		FROM estimates WHERE id = ?`, id).Scan(
		&id, &estimate.ProjectName, &clientName, &estimate.BaseCurrency,
		&estimate.OverheadPct, &estimate.ProfitPct,
		&rateCode, &unit, &category, &rateType, &adjustment, &notes, &estimate.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrEstimateNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query estimate: %w", err)
	}

	estimate.ID = &id
	estimate.ClientName = clientName.String
	if rateCode.String != "" || rateType.String != "" {
		estimate.Rate = &model.RateInfo{
			Code:       rateCode.String,
			Unit:       unit.String,
			Category:   category.String,
			Type:       model.RateType(rateType.String),
			Adjustment: adjustment,
			Notes:      notes.String,
		}
	}

	if err := s.loadTasks(ctx, estimate); err != nil {
		return nil, err
	}
	if err := s.loadExchangeRates(ctx, estimate); err != nil {
		return nil, err
	}
	if err := s.loadSubRates(ctx, estimate); err != nil {
		return nil, err
	}
	return estimate, nil
}

func (s *SQLiteStorage) loadTasks(ctx context.Context, estimate *model.Estimate) error {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, description FROM tasks WHERE estimate_id = ? ORDER BY position`, *estimate.ID)
	if err != nil {
		return fmt.Errorf("failed to query tasks: %w", err)
	}
	defer closeRows(rows)

	type taskRow struct {
		task *model.Task
		id   int64
	}
	var taskRows []taskRow
	for rows.Next() {
		var tr taskRow
		tr.task = &model.Task{}
		if err := rows.Scan(&tr.id, &tr.task.Description); err != nil {
			return fmt.Errorf("failed to scan task: %w", err)
		}
		taskRows = append(taskRows, tr)
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("error iterating tasks: %w", err)
	}

	for _, tr := range taskRows {
		if err := s.loadLineItems(ctx, tr.id, tr.task); err != nil {
			return err
		}
		estimate.Tasks = append(estimate.Tasks, tr.task)
	}
	return nil
}

func (s *SQLiteStorage) loadLineItems(ctx context.Context, taskID int64, task *model.Task) error {
	rows, err := s.db.QueryContext(ctx, `
		SELECT kind, name, quantity, unit, unit_price, currency, formula
		FROM line_items WHERE task_id = ? ORDER BY position`, taskID)
	if err != nil {
		return fmt.Errorf("failed to query line items: %w", err)
	}
	defer closeRows(rows)

	for rows.Next() {
		var li model.LineItem
		var kind string
		var unit, currency, formulaText sql.NullString
		if err := rows.Scan(&kind, &li.Name, &li.Quantity, &unit, &li.UnitPrice, &currency, &formulaText); err != nil {
			return fmt.Errorf("failed to scan line item: %w", err)
		}
		li.Kind = model.Kind(kind)
		li.Unit = unit.String
		li.Currency = currency.String
		li.Formula = formulaText.String
		task.AddItem(li)
	}
	return rows.Err()
}

func (s *SQLiteStorage) loadExchangeRates(ctx context.Context, estimate *model.Estimate) error {
	rows, err := s.db.QueryContext(ctx, `
		SELECT currency, rate, operator, effective_date
		FROM exchange_rates WHERE estimate_id = ?`, *estimate.ID)
	if err != nil {
		return fmt.Errorf("failed to query exchange rates: %w", err)
	}
	defer closeRows(rows)

	estimate.Rates = make(map[string]model.ExchangeRateEntry)
	for rows.Next() {
		var currency, operator string
		var entry model.ExchangeRateEntry
		var effective sql.NullTime
		if err := rows.Scan(&currency, &entry.Rate, &operator, &effective); err != nil {
			return fmt.Errorf("failed to scan exchange rate: %w", err)
		}
		entry.Operator = model.RateOperator(operator)
		entry.EffectiveDate = effective.Time
		estimate.Rates[currency] = entry
	}
	return rows.Err()
}

func (s *SQLiteStorage) loadSubRates(ctx context.Context, estimate *model.Estimate) error {
	rows, err := s.db.QueryContext(ctx, `
		SELECT quantity, converted_unit, formula, source_estimate_id, source_rate_code, embedded
		FROM sub_rates WHERE estimate_id = ? ORDER BY position`, *estimate.ID)
	if err != nil {
		return fmt.Errorf("failed to query sub-rates: %w", err)
	}
	defer closeRows(rows)

	for rows.Next() {
		var sub model.SubRate
		var convertedUnit, formulaText, sourceCode sql.NullString
		var embedded string
		if err := rows.Scan(&sub.Quantity, &convertedUnit, &formulaText, &sub.SourceID, &sourceCode, &embedded); err != nil {
			return fmt.Errorf("failed to scan sub-rate: %w", err)
		}
		sub.ConvertedUnit = convertedUnit.String
		sub.Formula = formulaText.String
		sub.SourceCode = sourceCode.String
		if err := json.Unmarshal([]byte(embedded), &sub.Estimate); err != nil {
			return fmt.Errorf("failed to unmarshal embedded sub-rate: %w", err)
		}
		estimate.SubRates = append(estimate.SubRates, sub)
	}
	return rows.Err()
}

// DeleteEstimate removes an estimate and its owned graph.
func (s *SQLiteStorage) DeleteEstimate(ctx context.Context, id int64) error {
	if err := validateContext(ctx); err != nil {
		return err
	}

	result, err := s.db.ExecContext(ctx, `DELETE FROM estimates WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete estimate: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if affected == 0 {
		return ErrEstimateNotFound
	}
	slog.Info("deleted estimate", "id", id)
	return nil
}

// ListEstimates returns listing summaries, most recent first.
func (s *SQLiteStorage) ListEstimates(ctx context.Context, filter service.EstimateFilter) ([]service.EstimateSummary, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	query := `
		SELECT id, project_name, client_name, base_currency,
			COALESCE(rate_code, ''), COALESCE(category, ''),
			subtotal, grand_total, created_at
		FROM estimates`
	var conditions []string
	var args []any
	if filter.RatesOnly {
		conditions = append(conditions, `rate_code IS NOT NULL AND rate_code != ''`)
	}
	if filter.Category != "" {
		conditions = append(conditions, `category = ?`)
		args = append(args, filter.Category)
	}
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	query += ` ORDER BY created_at DESC, id DESC`
	if filter.Limit > 0 {
		query += ` LIMIT ? OFFSET ?`
		args = append(args, filter.Limit, filter.Offset)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query estimates: %w", err)
	}
	defer closeRows(rows)

	var summaries []service.EstimateSummary
	for rows.Next() {
		var sum service.EstimateSummary
		var clientName sql.NullString
		if err := rows.Scan(&sum.ID, &sum.ProjectName, &clientName, &sum.BaseCurrency,
			&sum.RateCode, &sum.Category, &sum.Subtotal, &sum.GrandTotal, &sum.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan estimate summary: %w", err)
		}
		sum.ClientName = clientName.String
		summaries = append(summaries, sum)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating estimates: %w", err)
	}
	return summaries, nil
}

// ListEstimatesReferencing returns ids of estimates with at least one line
// item of the given kind whose name matches exactly. Embedded sub-rate copies
// are not scanned; they only change through an explicit sync.
func (s *SQLiteStorage) ListEstimatesReferencing(ctx context.Context, kind model.Kind, name string) ([]int64, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateKind(kind); err != nil {
		return nil, err
	}
	if err := validateString(name, "name"); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT DISTINCT t.estimate_id
		FROM line_items li
		JOIN tasks t ON t.id = li.task_id
		WHERE li.kind = ? AND li.name = ?
		ORDER BY t.estimate_id`, string(kind), name)
	if err != nil {
		return nil, fmt.Errorf("failed to query referencing estimates: %w", err)
	}
	defer closeRows(rows)

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan estimate id: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating estimate ids: %w", err)
	}
	return ids, nil
}

// FindRateByCode loads the library rate carrying the given code.
func (s *SQLiteStorage) FindRateByCode(ctx context.Context, code string) (*model.Estimate, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(code, "code"); err != nil {
		return nil, err
	}

	var id int64
	err := s.db.QueryRowContext(ctx, `SELECT id FROM estimates WHERE rate_code = ?`, code).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrEstimateNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query rate by code: %w", err)
	}
	return s.GetEstimate(ctx, id)
}

// RateCodes returns every stored rate code sharing the given prefix.
func (s *SQLiteStorage) RateCodes(ctx context.Context, prefix string) ([]string, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(prefix, "prefix"); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT rate_code FROM estimates WHERE rate_code LIKE ? || '%' ORDER BY rate_code`, prefix)
	if err != nil {
		return nil, fmt.Errorf("failed to query rate codes: %w", err)
	}
	defer closeRows(rows)

	var codes []string
	for rows.Next() {
		var code string
		if err := rows.Scan(&code); err != nil {
			return nil, fmt.Errorf("failed to scan rate code: %w", err)
		}
		codes = append(codes, code)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rate codes: %w", err)
	}
	return codes, nil
}

func closeRows(rows *sql.Rows) {
	if err := rows.Close(); err != nil {
		slog.Error("failed to close rows", "error", err)
	}
}
