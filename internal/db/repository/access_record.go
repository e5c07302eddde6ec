package repository

import (
	"context"
	"database/sql"

	"fundtrack/internal/domain"
)

var _ domain.AccessRecordRepository = (*AccessRecordRepo)(nil)

// AccessRecordRepo implements domain.AccessRecordRepository using SQLite.
//
// UpdateLevel and Delete are versioned writes: they only touch the row when
// the caller-supplied version matches the stored one, so two concurrent
// owner-removal operations cannot both pass the ownership guard and commit.
type AccessRecordRepo struct {
	db *sql.DB
}

// NewAccessRecordRepo creates a new AccessRecordRepo.
func NewAccessRecordRepo(db *sql.DB) *AccessRecordRepo {
	return &AccessRecordRepo{db: db}
}

const accessRecordColumns = `id, centre_id, user_id, principal_identifier, principal_display_name,
	principal_type, access_level, granted_by_user_id, version, created_at`

func scanAccessRecord(scan func(dest ...any) error) (*domain.AccessRecord, error) {
	var rec domain.AccessRecord
	var userID, identifier, displayName, grantedBy sql.NullString
	var level string
	if err := scan(&rec.ID, &rec.CentreID, &userID, &identifier, &displayName,
		&rec.PrincipalType, &level, &grantedBy, &rec.Version, &rec.CreatedAt); err != nil {
		return nil, err
	}
	rec.UserID = strPtr(userID)
	rec.PrincipalIdentifier = strPtr(identifier)
	rec.PrincipalDisplayName = strPtr(displayName)
	rec.GrantedBy = strPtr(grantedBy)
	rec.Level = domain.AccessLevel(level)
	return &rec, nil
}

// Create inserts a new grant.
func (r *AccessRecordRepo) Create(ctx context.Context, rec *domain.AccessRecord) (*domain.AccessRecord, error) {
	id := domain.NewID()
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO access_records
			(id, centre_id, user_id, principal_identifier, principal_display_name,
			 principal_type, access_level, granted_by_user_id)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		id, rec.CentreID, nullStr(rec.UserID), nullStr(rec.PrincipalIdentifier),
		nullStr(rec.PrincipalDisplayName), rec.PrincipalType, string(rec.Level),
		nullStr(rec.GrantedBy))
	if err != nil {
		return nil, mapDBError(err)
	}
	return r.GetByID(ctx, id)
}

// GetByID returns the grant with the given ID.
func (r *AccessRecordRepo) GetByID(ctx context.Context, id string) (*domain.AccessRecord, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+accessRecordColumns+` FROM access_records WHERE id = ?`, id)
	rec, err := scanAccessRecord(row.Scan)
	if err != nil {
		return nil, mapDBError(err)
	}
	return rec, nil
}

// ListForCentre returns every grant on the centre, oldest first.
func (r *AccessRecordRepo) ListForCentre(ctx context.Context, centreID string) ([]domain.AccessRecord, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+accessRecordColumns+` FROM access_records WHERE centre_id = ? ORDER BY created_at, id`,
		centreID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []domain.AccessRecord
	for rows.Next() {
		rec, err := scanAccessRecord(rows.Scan)
		if err != nil {
			return nil, err
		}
		records = append(records, *rec)
	}
	return records, rows.Err()
}

// UpdateLevel changes the grant's access level under its version counter.
func (r *AccessRecordRepo) UpdateLevel(ctx context.Context, id string, level domain.AccessLevel, version int64) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE access_records SET access_level = ?, version = version + 1
		 WHERE id = ? AND version = ?`,
		string(level), id, version)
	if err != nil {
		return err
	}
	return r.checkWrite(ctx, res, id)
}

// Delete hard-deletes the grant under its version counter.
func (r *AccessRecordRepo) Delete(ctx context.Context, id string, version int64) error {
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM access_records WHERE id = ? AND version = ?`, id, version)
	if err != nil {
		return err
	}
	return r.checkWrite(ctx, res, id)
}

func (r *AccessRecordRepo) checkWrite(ctx context.Context, res sql.Result, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n > 0 {
		return nil
	}
	var exists int64
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM access_records WHERE id = ?`, id).Scan(&exists); err != nil {
		return err
	}
	if exists == 0 {
		return domain.ErrNotFound("access record %s not found", id)
	}
	return domain.ErrConcurrentModification("access record %s was modified concurrently", id)
}
