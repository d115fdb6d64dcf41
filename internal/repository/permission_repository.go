package repository

import (
	"context"
	"database/sql"
	"strings"
)

type PermissionRepo struct{ DB *sql.DB }

func NewPermissionRepo(db *sql.DB) *PermissionRepo { return &PermissionRepo{DB: db} }

// ListBySoldier returns the capability tokens granted to a soldier.
func (r *PermissionRepo) ListBySoldier(ctx context.Context, sn string) ([]string, error) {
	rows, err := r.DB.QueryContext(ctx,
		"SELECT value FROM permissions WHERE soldiers_sn=?", sn)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []string{}
	for rows.Next() {
		var v string
		if err := rows.Scan(&v); err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, rows.Err()
}

// Insert adds grants without touching existing ones (sign-up defaults).
func (r *PermissionRepo) Insert(ctx context.Context, sn string, perms []string) error {
	if len(perms) == 0 {
		return nil
	}
	return r.insert(ctx, r.DB, sn, perms)
}

// Replace swaps a soldier's whole grant set in one transaction so readers
// never observe a half-updated scope.
func (r *PermissionRepo) Replace(ctx context.Context, sn string, perms []string) error {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, "DELETE FROM permissions WHERE soldiers_sn=?", sn); err != nil {
		return err
	}
	if len(perms) > 0 {
		if err := r.insert(ctx, tx, sn, perms); err != nil {
			return err
		}
	}
	return tx.Commit()
}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
}

func (r *PermissionRepo) insert(ctx context.Context, ex execer, sn string, perms []string) error {
	q := "INSERT INTO permissions (soldiers_sn, value) VALUES (?,?)" +
		strings.Repeat(",(?,?)", len(perms)-1)
	args := make([]interface{}, 0, 2*len(perms))
	for _, p := range perms {
		args = append(args, sn, p)
	}
	_, err := ex.ExecContext(ctx, q, args...)
	return err
}
