package repository

import (
	"context"
	"database/sql"

	"fundtrack/internal/domain"
)

var _ domain.FundingItemRepository = (*FundingItemRepo)(nil)

// FundingItemRepo implements domain.FundingItemRepository using SQLite.
type FundingItemRepo struct {
	db *sql.DB
}

// NewFundingItemRepo creates a new FundingItemRepo.
func NewFundingItemRepo(db *sql.DB) *FundingItemRepo {
	return &FundingItemRepo{db: db}
}

const fundingItemColumns = `id, centre_id, fiscal_year, description, amount_cents, created_by, version, created_at`

func scanFundingItem(scan func(dest ...any) error) (*domain.FundingItem, error) {
	var f domain.FundingItem
	if err := scan(&f.ID, &f.CentreID, &f.FiscalYear, &f.Description,
		&f.AmountCents, &f.CreatedBy, &f.Version, &f.CreatedAt); err != nil {
		return nil, err
	}
	return &f, nil
}

// Create inserts a new funding item.
func (r *FundingItemRepo) Create(ctx context.Context, f *domain.FundingItem) (*domain.FundingItem, error) {
	id := domain.NewID()
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO funding_items (id, centre_id, fiscal_year, description, amount_cents, created_by)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		id, f.CentreID, f.FiscalYear, f.Description, f.AmountCents, f.CreatedBy)
	if err != nil {
		return nil, mapDBError(err)
	}
	return r.GetByID(ctx, id)
}

// GetByID returns the funding item with the given ID.
func (r *FundingItemRepo) GetByID(ctx context.Context, id string) (*domain.FundingItem, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+fundingItemColumns+` FROM funding_items WHERE id = ?`, id)
	f, err := scanFundingItem(row.Scan)
	if err != nil {
		return nil, mapDBError(err)
	}
	return f, nil
}

// ListForCentre returns a paginated list of the centre's funding items.
func (r *FundingItemRepo) ListForCentre(ctx context.Context, centreID string, page domain.PageRequest) ([]domain.FundingItem, int64, error) {
	var total int64
	if err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM funding_items WHERE centre_id = ?`, centreID).Scan(&total); err != nil {
		return nil, 0, err
	}

	rows, err := r.db.QueryContext(ctx,
		`SELECT `+fundingItemColumns+` FROM funding_items
		 WHERE centre_id = ? ORDER BY fiscal_year DESC, created_at LIMIT ? OFFSET ?`,
		centreID, page.Limit(), page.Offset())
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var items []domain.FundingItem
	for rows.Next() {
		f, err := scanFundingItem(rows.Scan)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, *f)
	}
	return items, total, rows.Err()
}

// Update rewrites the item's description and amount under its version counter.
func (r *FundingItemRepo) Update(ctx context.Context, id string, description string, amountCents int64, version int64) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE funding_items SET description = ?, amount_cents = ?, version = version + 1
		 WHERE id = ? AND version = ?`,
		description, amountCents, id, version)
	if err != nil {
		return err
	}
	return r.checkWrite(ctx, res, id)
}

// Delete removes the item under its version counter.
func (r *FundingItemRepo) Delete(ctx context.Context, id string, version int64) error {
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM funding_items WHERE id = ? AND version = ?`, id, version)
	if err != nil {
		return err
	}
	return r.checkWrite(ctx, res, id)
}

func (r *FundingItemRepo) checkWrite(ctx context.Context, res sql.Result, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n > 0 {
		return nil
	}
	var exists int64
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM funding_items WHERE id = ?`, id).Scan(&exists); err != nil {
		return err
	}
	if exists == 0 {
		return domain.ErrNotFound("funding item %s not found", id)
	}
	return domain.ErrConcurrentModification("funding item %s was modified concurrently", id)
}
