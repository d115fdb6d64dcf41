package repository

import (
	"context"
	"database/sql"
	"strings"

	"github.com/milpoint/milpoint/internal/model"
)

type SoldierRepo struct{ DB *sql.DB }

func NewSoldierRepo(db *sql.DB) *SoldierRepo { return &SoldierRepo{DB: db} }

const soldierCols = "sn,name,type,password,verified_at,rejected_at,deleted_at,created_at"

func scanSoldier(row *sql.Row) (model.Soldier, error) {
	var s model.Soldier
	err := row.Scan(&s.SN, &s.Name, &s.Type, &s.PasswordDigest,
		&s.VerifiedAt, &s.RejectedAt, &s.DeletedAt, &s.CreatedAt)
	if err == sql.ErrNoRows {
		return s, ErrNotFound
	}
	return s, err
}

// Create inserts a new soldier.  The service number is the primary key, so a
// duplicate sign-up surfaces as MySQL error 1062.
func (r *SoldierRepo) Create(ctx context.Context, sn, name, typ, digest string) error {
	_, err := r.DB.ExecContext(ctx,
		"INSERT INTO soldiers (sn, name, type, password) VALUES (?,?,?,?)",
		sn, name, typ, digest)
	if err != nil && strings.Contains(err.Error(), "1062") {
		return ErrSoldierExists
	}
	return err
}

// Get fetches a soldier by service number, including soft-deleted rows.
// Callers that must not see deleted soldiers use GetActive.
func (r *SoldierRepo) Get(ctx context.Context, sn string) (model.Soldier, error) {
	return scanSoldier(r.DB.QueryRowContext(ctx,
		"SELECT "+soldierCols+" FROM soldiers WHERE sn=? LIMIT 1", sn))
}

// GetActive fetches a soldier that has not been soft deleted.  Deleted
// identities are invisible to authentication and to counterparty lookups.
func (r *SoldierRepo) GetActive(ctx context.Context, sn string) (model.Soldier, error) {
	return scanSoldier(r.DB.QueryRowContext(ctx,
		"SELECT "+soldierCols+" FROM soldiers WHERE sn=? AND deleted_at IS NULL LIMIT 1", sn))
}

// SoldierSummary is the trimmed shape returned by searches.
type SoldierSummary struct {
	SN   string `json:"sn"`
	Name string `json:"name"`
	Type string `json:"type"`
}

// SearchParams narrows a soldier search.  Query matches the service number or
// name as a substring.  Type filters by category when set.  Permissions, when
// non-empty, keeps only soldiers holding at least one of the listed grants
// (used by the autocomplete flow to suggest point-granting cadre).  Page is
// 1-based; nil disables pagination.
type SearchParams struct {
	Query       string
	Type        string
	Permissions []string
	Page        *int
}

const searchPageSize = 10

// Search returns reviewed, non-deleted soldiers matching the params.
func (r *SoldierRepo) Search(ctx context.Context, p SearchParams) ([]SoldierSummary, error) {
	q := `SELECT sn,name,type FROM soldiers
	      WHERE (sn LIKE ? OR name LIKE ?)
	        AND (verified_at IS NOT NULL OR rejected_at IS NOT NULL)
	        AND deleted_at IS NULL`
	like := "%" + p.Query + "%"
	args := []interface{}{like, like}
	if p.Type != "" {
		q += " AND type=?"
		args = append(args, p.Type)
	}
	if len(p.Permissions) > 0 {
		q += " AND EXISTS (SELECT 1 FROM permissions ps WHERE ps.soldiers_sn = soldiers.sn AND ps.value IN (?" +
			strings.Repeat(",?", len(p.Permissions)-1) + "))"
		for _, perm := range p.Permissions {
			args = append(args, perm)
		}
	}
	q += " ORDER BY sn"
	if p.Page != nil {
		page := *p.Page
		if page < 1 {
			page = 1
		}
		q += " LIMIT ? OFFSET ?"
		args = append(args, searchPageSize, (page-1)*searchPageSize)
	}
	return r.querySummaries(ctx, q, args...)
}

// SearchCount returns how many soldiers the same search would match without
// pagination.
func (r *SoldierRepo) SearchCount(ctx context.Context, p SearchParams) (int64, error) {
	q := `SELECT COUNT(sn) FROM soldiers
	      WHERE (sn LIKE ? OR name LIKE ?)
	        AND (verified_at IS NOT NULL OR rejected_at IS NOT NULL)
	        AND deleted_at IS NULL`
	like := "%" + p.Query + "%"
	args := []interface{}{like, like}
	if p.Type != "" {
		q += " AND type=?"
		args = append(args, p.Type)
	}
	var n int64
	err := r.DB.QueryRowContext(ctx, q, args...).Scan(&n)
	return n, err
}

// SearchUnverified lists soldiers whose sign-up has not been reviewed yet.
func (r *SoldierRepo) SearchUnverified(ctx context.Context) ([]SoldierSummary, error) {
	return r.querySummaries(ctx,
		`SELECT sn,name,type FROM soldiers
		 WHERE verified_at IS NULL AND rejected_at IS NULL AND deleted_at IS NULL
		 ORDER BY created_at`)
}

func (r *SoldierRepo) querySummaries(ctx context.Context, q string, args ...interface{}) ([]SoldierSummary, error) {
	rows, err := r.DB.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []SoldierSummary{}
	for rows.Next() {
		var s SoldierSummary
		if err := rows.Scan(&s.SN, &s.Name, &s.Type); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// Review resolves a pending sign-up: approve sets verified_at, reject sets
// rejected_at.  The WHERE clause re-checks that the sign-up is still pending
// so the two timestamps stay mutually exclusive under concurrent reviewers;
// a zero-row update means another reviewer won and surfaces as ErrConflict.
func (r *SoldierRepo) Review(ctx context.Context, sn string, approve bool) error {
	col := "rejected_at"
	if approve {
		col = "verified_at"
	}
	res, err := r.DB.ExecContext(ctx,
		"UPDATE soldiers SET "+col+"=NOW() WHERE sn=? AND verified_at IS NULL AND rejected_at IS NULL",
		sn)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrConflict
	}
	return nil
}

// SetDeleted soft deletes (true) or restores (false) a soldier.
func (r *SoldierRepo) SetDeleted(ctx context.Context, sn string, deleted bool) error {
	var res sql.Result
	var err error
	if deleted {
		res, err = r.DB.ExecContext(ctx,
			"UPDATE soldiers SET deleted_at=NOW() WHERE sn=? AND deleted_at IS NULL", sn)
	} else {
		res, err = r.DB.ExecContext(ctx,
			"UPDATE soldiers SET deleted_at=NULL WHERE sn=? AND deleted_at IS NOT NULL", sn)
	}
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrConflict
	}
	return nil
}

// UpdatePassword stores a freshly derived digest.
func (r *SoldierRepo) UpdatePassword(ctx context.Context, sn, digest string) error {
	res, err := r.DB.ExecContext(ctx,
		"UPDATE soldiers SET password=? WHERE sn=?", digest, sn)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
