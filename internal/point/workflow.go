// Package point implements the lifecycle of merit/demerit records: creation,
// pending approval, verification or rejection, and deletion.  Every guard
// runs before the mutating store call, and every mutation goes through a
// conditional write, so a record is never left half-transitioned.
package point

import (
	"context"
	"errors"
	"math"
	"time"

	"github.com/google/uuid"

	"github.com/milpoint/milpoint/internal/authz"
	"github.com/milpoint/milpoint/internal/model"
	"github.com/milpoint/milpoint/internal/repository"
	"github.com/milpoint/milpoint/internal/utils"
)

// Malformed-input failures (HTTP 400).
var (
	ErrZeroValue            = errors.New("point value must round to a non-zero integer")
	ErrCounterpartyRequired = errors.New("counterparty service number is required")
	ErrCounterpartyNotFound = errors.New("counterparty does not exist")
	ErrSelfGiver            = errors.New("cannot request points from yourself")
)

// Authorization failures (HTTP 403).
var (
	ErrNotGiver             = errors.New("only the requested giver may resolve this record")
	ErrEnlistedResolve      = errors.New("enlisted soldiers cannot resolve point records")
	ErrRejectReasonRequired = errors.New("a rejection reason is required")
	ErrCadreDelete          = errors.New("cadre cannot delete point records")
	ErrNotReceiver          = errors.New("only your own point records can be deleted")
	ErrAlreadyResolved      = errors.New("a resolved or consumed record cannot be deleted")
)

// State failures.
var (
	ErrNotFound = errors.New("point record not found")
	ErrConflict = errors.New("record was changed concurrently")
)

// SoldierStore is the identity lookup the workflow needs.  Soft-deleted
// soldiers must be invisible through it.
type SoldierStore interface {
	GetActive(ctx context.Context, sn string) (model.Soldier, error)
}

// PointStore persists point records.  Resolve and DeletePending must be
// conditional writes that re-check the pending precondition and report
// repository.ErrConflict when zero rows match.
type PointStore interface {
	Get(ctx context.Context, id string) (model.Point, error)
	Insert(ctx context.Context, p model.Point) error
	Resolve(ctx context.Context, id string, approve bool, reason string) error
	DeletePending(ctx context.Context, id, receiverSN string) error
	Totals(ctx context.Context, receiverSN string) (verified, unverified int64, err error)
	History(ctx context.Context, sn string, asReceiver bool, page int) ([]model.Point, error)
	HistoryCount(ctx context.Context, sn string, asReceiver bool) (int64, error)
	PendingByGiver(ctx context.Context, giverSN string) ([]model.Point, error)
}

// Workflow drives the point record state machine.  It is stateless between
// calls; all state lives in the stores.
type Workflow struct {
	Soldiers SoldierStore
	Points   PointStore
	Now      func() time.Time
}

func NewWorkflow(soldiers SoldierStore, points PointStore) *Workflow {
	return &Workflow{Soldiers: soldiers, Points: points, Now: time.Now}
}

// CreateInput carries the caller-supplied fields of a new record.  Exactly
// one of GiverSN/ReceiverSN is read, depending on the caller's category.
type CreateInput struct {
	GiverSN    string  // awarding cadre, set when the caller is enlisted
	ReceiverSN string  // receiving soldier, set when the caller is cadre
	Value      float64 // raw value; rounded to the nearest integer
	Reason     string
	GivenAt    time.Time
}

// Create inserts a new point record.  An enlisted caller names the cadre who
// should award the points and the record starts pending with no threshold
// check (the giver's authority is checked at approval instead).  A cadre
// caller names the receiver, must pass the value-threshold guard, and the
// record is written already verified because cadre grants are
// self-authorizing.
func (w *Workflow) Create(ctx context.Context, caller utils.Claims, in CreateInput) (model.Point, error) {
	value := int(math.Round(in.Value))
	if value == 0 {
		return model.Point{}, ErrZeroValue
	}

	rec := model.Point{
		ID:      uuid.NewString(),
		Value:   value,
		Reason:  in.Reason,
		GivenAt: in.GivenAt,
	}

	if caller.Type == model.TypeEnlisted {
		if in.GiverSN == "" {
			return model.Point{}, ErrCounterpartyRequired
		}
		if in.GiverSN == caller.Sub {
			return model.Point{}, ErrSelfGiver
		}
		if err := w.soldierExists(ctx, in.GiverSN); err != nil {
			return model.Point{}, err
		}
		rec.GiverSN = in.GiverSN
		rec.ReceiverSN = caller.Sub
		// verification stays null: the record awaits the giver's decision
	} else {
		if in.ReceiverSN == "" {
			return model.Point{}, ErrCounterpartyRequired
		}
		if err := w.soldierExists(ctx, in.ReceiverSN); err != nil {
			return model.Point{}, err
		}
		if err := authz.CheckPointValue(value, caller.Scope); err != nil {
			return model.Point{}, err
		}
		now := w.Now().UTC()
		rec.GiverSN = caller.Sub
		rec.ReceiverSN = in.ReceiverSN
		rec.VerifiedAt = &now
	}

	if err := w.Points.Insert(ctx, rec); err != nil {
		return model.Point{}, err
	}
	return rec, nil
}

func (w *Workflow) soldierExists(ctx context.Context, sn string) error {
	_, err := w.Soldiers.GetActive(ctx, sn)
	if errors.Is(err, repository.ErrNotFound) {
		return ErrCounterpartyNotFound
	}
	return err
}

// Resolve approves or rejects a pending record.  Only the record's giver may
// resolve, enlisted callers never can, and rejection needs a reason.  On
// approval the value-threshold guard runs again over the record's stored
// value, so a request that exceeded the giver's authority at creation time
// is still blocked here even if nothing else changed.
func (w *Workflow) Resolve(ctx context.Context, caller utils.Claims, id string, approve bool, reason string) (model.Point, error) {
	rec, err := w.Points.Get(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return model.Point{}, ErrNotFound
	}
	if err != nil {
		return model.Point{}, err
	}
	if rec.GiverSN != caller.Sub {
		return model.Point{}, ErrNotGiver
	}
	if caller.Type == model.TypeEnlisted {
		return model.Point{}, ErrEnlistedResolve
	}
	if !approve && reason == "" {
		return model.Point{}, ErrRejectReasonRequired
	}
	if approve {
		if err := authz.CheckPointValue(rec.Value, caller.Scope); err != nil {
			return model.Point{}, err
		}
	}
	if err := w.Points.Resolve(ctx, id, approve, reason); err != nil {
		if errors.Is(err, repository.ErrConflict) {
			return model.Point{}, ErrConflict
		}
		return model.Point{}, err
	}
	return rec, nil
}

// Delete removes a record that is still untouched.  Only the enlisted
// receiver may delete, and only while the record carries no verification,
// no rejection and no consumption reference.  An absent record is a benign
// no-op: deleted reports whether a row was actually removed.
func (w *Workflow) Delete(ctx context.Context, caller utils.Claims, id string) (deleted bool, rec model.Point, err error) {
	if caller.Type == model.TypeCadre {
		return false, model.Point{}, ErrCadreDelete
	}
	rec, err = w.Points.Get(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return false, model.Point{}, nil
	}
	if err != nil {
		return false, model.Point{}, err
	}
	if rec.ReceiverSN != caller.Sub {
		return false, model.Point{}, ErrNotReceiver
	}
	if rec.VerifiedAt != nil || rec.RejectedAt != nil || rec.RejectedReason != nil || rec.UsedID != nil {
		return false, model.Point{}, ErrAlreadyResolved
	}
	if err := w.Points.DeletePending(ctx, id, caller.Sub); err != nil {
		if errors.Is(err, repository.ErrConflict) {
			return false, model.Point{}, ErrConflict
		}
		return false, model.Point{}, err
	}
	return true, rec, nil
}

// Totals returns the verified and pending point sums received by sn.
func (w *Workflow) Totals(ctx context.Context, sn string) (verified, unverified int64, err error) {
	return w.Points.Totals(ctx, sn)
}

// History lists a soldier's records, partitioned by category: enlisted
// soldiers see what they received, cadre see what they gave.
func (w *Workflow) History(ctx context.Context, sn string, page int) ([]model.Point, error) {
	s, err := w.Soldiers.GetActive(ctx, sn)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return w.Points.History(ctx, sn, s.Type == model.TypeEnlisted, page)
}

// HistoryCount counts the records History would page through.
func (w *Workflow) HistoryCount(ctx context.Context, sn string) (int64, error) {
	s, err := w.Soldiers.GetActive(ctx, sn)
	if errors.Is(err, repository.ErrNotFound) {
		return 0, ErrNotFound
	}
	if err != nil {
		return 0, err
	}
	return w.Points.HistoryCount(ctx, sn, s.Type == model.TypeEnlisted)
}

// Pending lists records still awaiting the giver's decision.
func (w *Workflow) Pending(ctx context.Context, giverSN string) ([]model.Point, error) {
	return w.Points.PendingByGiver(ctx, giverSN)
}
