package repository

import (
	"context"
	"database/sql"

	"fundtrack/internal/domain"
)

var _ domain.CentreRepository = (*CentreRepo)(nil)

// CentreRepo implements domain.CentreRepository using SQLite.
type CentreRepo struct {
	db *sql.DB
}

// NewCentreRepo creates a new CentreRepo.
func NewCentreRepo(db *sql.DB) *CentreRepo {
	return &CentreRepo{db: db}
}

const centreColumns = `id, name, designated_owner_id, active, version, created_at`

func scanCentre(row *sql.Row) (*domain.ResponsibilityCentre, error) {
	var c domain.ResponsibilityCentre
	var active int64
	if err := row.Scan(&c.ID, &c.Name, &c.DesignatedOwnerID, &active, &c.Version, &c.CreatedAt); err != nil {
		return nil, err
	}
	c.Active = active != 0
	return &c, nil
}

// Create inserts a new responsibility centre.
func (r *CentreRepo) Create(ctx context.Context, c *domain.ResponsibilityCentre) (*domain.ResponsibilityCentre, error) {
	id := domain.NewID()
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO centres (id, name, designated_owner_id) VALUES (?, ?, ?)`,
		id, c.Name, c.DesignatedOwnerID)
	if err != nil {
		return nil, mapDBError(err)
	}
	return r.GetByID(ctx, id)
}

// GetByID returns the centre with the given ID.
func (r *CentreRepo) GetByID(ctx context.Context, id string) (*domain.ResponsibilityCentre, error) {
	c, err := scanCentre(r.db.QueryRowContext(ctx,
		`SELECT `+centreColumns+` FROM centres WHERE id = ?`, id))
	if err != nil {
		return nil, mapDBError(err)
	}
	return c, nil
}

// GetByName returns the first centre with the given name.
func (r *CentreRepo) GetByName(ctx context.Context, name string) (*domain.ResponsibilityCentre, error) {
	c, err := scanCentre(r.db.QueryRowContext(ctx,
		`SELECT `+centreColumns+` FROM centres WHERE name = ? LIMIT 1`, name))
	if err != nil {
		return nil, mapDBError(err)
	}
	return c, nil
}

// List returns a paginated list of active centres ordered by name.
func (r *CentreRepo) List(ctx context.Context, page domain.PageRequest) ([]domain.ResponsibilityCentre, int64, error) {
	var total int64
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM centres WHERE active = 1`).Scan(&total); err != nil {
		return nil, 0, err
	}

	rows, err := r.db.QueryContext(ctx,
		`SELECT `+centreColumns+` FROM centres WHERE active = 1 ORDER BY name LIMIT ? OFFSET ?`,
		page.Limit(), page.Offset())
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var centres []domain.ResponsibilityCentre
	for rows.Next() {
		var c domain.ResponsibilityCentre
		var active int64
		if err := rows.Scan(&c.ID, &c.Name, &c.DesignatedOwnerID, &active, &c.Version, &c.CreatedAt); err != nil {
			return nil, 0, err
		}
		c.Active = active != 0
		centres = append(centres, c)
	}
	return centres, total, rows.Err()
}

// Deactivate soft-deactivates the centre under its version counter.
func (r *CentreRepo) Deactivate(ctx context.Context, id string, version int64) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE centres SET active = 0, version = version + 1 WHERE id = ? AND version = ?`,
		id, version)
	if err != nil {
		return err
	}
	return r.checkWrite(ctx, res, id)
}

// checkWrite distinguishes "row gone" from "stale version" after a
// zero-row-affected versioned write.
func (r *CentreRepo) checkWrite(ctx context.Context, res sql.Result, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n > 0 {
		return nil
	}
	var exists int64
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM centres WHERE id = ?`, id).Scan(&exists); err != nil {
		return err
	}
	if exists == 0 {
		return domain.ErrNotFound("centre %s not found", id)
	}
	return domain.ErrConcurrentModification("centre %s was modified concurrently", id)
}
