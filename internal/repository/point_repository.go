package repository

import (
	"context"
	"database/sql"

	"github.com/milpoint/milpoint/internal/model"
)

type PointRepo struct{ DB *sql.DB }

func NewPointRepo(db *sql.DB) *PointRepo { return &PointRepo{DB: db} }

const pointCols = "id,giver_sn,receiver_sn,value,reason,given_at,verified_at,rejected_at,rejected_reason,used_id,created_at"

func scanPoint(row *sql.Row) (model.Point, error) {
	var p model.Point
	err := row.Scan(&p.ID, &p.GiverSN, &p.ReceiverSN, &p.Value, &p.Reason,
		&p.GivenAt, &p.VerifiedAt, &p.RejectedAt, &p.RejectedReason, &p.UsedID, &p.CreatedAt)
	if err == sql.ErrNoRows {
		return p, ErrNotFound
	}
	return p, err
}

// Get fetches a point record by its opaque id.
func (r *PointRepo) Get(ctx context.Context, id string) (model.Point, error) {
	return scanPoint(r.DB.QueryRowContext(ctx,
		"SELECT "+pointCols+" FROM points WHERE id=? LIMIT 1", id))
}

// Insert persists a new record.  VerifiedAt is non-nil only for cadre-created
// records, which are verified the moment they are written.
func (r *PointRepo) Insert(ctx context.Context, p model.Point) error {
	_, err := r.DB.ExecContext(ctx,
		"INSERT INTO points (id, giver_sn, receiver_sn, value, reason, given_at, verified_at) VALUES (?,?,?,?,?,?,?)",
		p.ID, p.GiverSN, p.ReceiverSN, p.Value, p.Reason, p.GivenAt, p.VerifiedAt)
	return err
}

// Resolve approves or rejects a pending record.  The predicate re-checks
// that the record is still pending, making the caller's check-then-act
// sequence effectively atomic: a losing concurrent writer matches zero rows
// and gets ErrConflict instead of silently double-resolving.
func (r *PointRepo) Resolve(ctx context.Context, id string, approve bool, reason string) error {
	var res sql.Result
	var err error
	if approve {
		res, err = r.DB.ExecContext(ctx,
			"UPDATE points SET verified_at=NOW() WHERE id=? AND verified_at IS NULL AND rejected_at IS NULL", id)
	} else {
		res, err = r.DB.ExecContext(ctx,
			"UPDATE points SET rejected_at=NOW(), rejected_reason=? WHERE id=? AND verified_at IS NULL AND rejected_at IS NULL",
			reason, id)
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

// DeletePending removes a record only while it is untouched: not verified,
// not rejected, not consumed, and owned by the given receiver.  Zero rows
// means a concurrent resolution got there first.
func (r *PointRepo) DeletePending(ctx context.Context, id, receiverSN string) error {
	res, err := r.DB.ExecContext(ctx,
		`DELETE FROM points
		 WHERE id=? AND receiver_sn=?
		   AND verified_at IS NULL AND rejected_at IS NULL
		   AND rejected_reason IS NULL AND used_id IS NULL`,
		id, receiverSN)
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

// Totals returns the verified and still-pending point sums for a receiver.
func (r *PointRepo) Totals(ctx context.Context, receiverSN string) (verified, unverified int64, err error) {
	err = r.DB.QueryRowContext(ctx,
		`SELECT COALESCE(SUM(CASE WHEN verified_at IS NOT NULL THEN value ELSE 0 END), 0),
		        COALESCE(SUM(CASE WHEN verified_at IS NULL AND rejected_at IS NULL THEN value ELSE 0 END), 0)
		 FROM points WHERE receiver_sn=?`, receiverSN).Scan(&verified, &unverified)
	return verified, unverified, err
}

const historyPageSize = 20

// History lists a soldier's records newest first, 20 per page (0-based).
// Enlisted soldiers are queried as receivers, cadre as givers.
func (r *PointRepo) History(ctx context.Context, sn string, asReceiver bool, page int) ([]model.Point, error) {
	col := "giver_sn"
	if asReceiver {
		col = "receiver_sn"
	}
	if page < 0 {
		page = 0
	}
	return r.queryPoints(ctx,
		"SELECT "+pointCols+" FROM points WHERE "+col+"=? ORDER BY created_at DESC LIMIT ? OFFSET ?",
		sn, historyPageSize, page*historyPageSize)
}

// HistoryCount counts a soldier's records on the same partition as History.
func (r *PointRepo) HistoryCount(ctx context.Context, sn string, asReceiver bool) (int64, error) {
	col := "giver_sn"
	if asReceiver {
		col = "receiver_sn"
	}
	var n int64
	err := r.DB.QueryRowContext(ctx,
		"SELECT COUNT(id) FROM points WHERE "+col+"=?", sn).Scan(&n)
	return n, err
}

// PendingByGiver lists unresolved records awaiting a giver's decision.
func (r *PointRepo) PendingByGiver(ctx context.Context, giverSN string) ([]model.Point, error) {
	return r.queryPoints(ctx,
		"SELECT "+pointCols+" FROM points WHERE giver_sn=? AND verified_at IS NULL AND rejected_at IS NULL ORDER BY created_at",
		giverSN)
}

func (r *PointRepo) queryPoints(ctx context.Context, q string, args ...interface{}) ([]model.Point, error) {
	rows, err := r.DB.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []model.Point{}
	for rows.Next() {
		var p model.Point
		if err := rows.Scan(&p.ID, &p.GiverSN, &p.ReceiverSN, &p.Value, &p.Reason,
			&p.GivenAt, &p.VerifiedAt, &p.RejectedAt, &p.RejectedReason, &p.UsedID, &p.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}
