package handler

import (
	"context"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/milpoint/milpoint/internal/authz"
	"github.com/milpoint/milpoint/internal/middleware"
	"github.com/milpoint/milpoint/internal/model"
	"github.com/milpoint/milpoint/internal/point"
	"github.com/milpoint/milpoint/internal/queue"
	"github.com/milpoint/milpoint/internal/repository"
	queue_publisher "github.com/milpoint/milpoint/internal/service"
)

// PointHandler bundles dependencies for the point endpoints.
type PointHandler struct {
	Workflow *point.Workflow
	Points   *repository.PointRepo
}

func NewPointHandler(w *point.Workflow, p *repository.PointRepo) *PointHandler {
	return &PointHandler{Workflow: w, Points: p}
}

// ----- DTOs -----

type createPointReq struct {
	GiverSN    string  `json:"giverSn"`
	ReceiverSN string  `json:"receiverSn"`
	Value      float64 `json:"value"`
	Reason     string  `json:"reason"`
	GivenAt    string  `json:"givenAt"` // RFC 3339
}
type resolvePointReq struct {
	ID           string `json:"id"`
	Value        bool   `json:"value"` // true approves, false rejects
	RejectReason string `json:"rejectReason"`
}

// Fetch answers GET /v1/points.  With ?id= it returns one record; without,
// it returns the history count for ?sn= (defaulting to the caller).
func (h *PointHandler) Fetch(c echo.Context) error {
	caller := middleware.CallerClaims(c)

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	id := c.QueryParam("id")
	if id == "" {
		sn := c.QueryParam("sn")
		if sn == "" {
			sn = caller.Sub
		}
		count, err := h.Workflow.HistoryCount(ctx, sn)
		if err != nil {
			return writeError(c, err)
		}
		return c.JSON(http.StatusOK, echo.Map{"count": count})
	}

	rec, err := h.Points.Get(ctx, id)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, rec)
}

// List answers GET /v1/points/list.  Enlisted callers always get their own
// received history.  Cadre get the history of ?sn= when present, otherwise
// the records still awaiting their decision.  Reading someone else's history
// needs the view capability.
func (h *PointHandler) List(c echo.Context) error {
	caller := middleware.CallerClaims(c)
	sn := c.QueryParam("sn")
	if err := authz.CanViewPoints(caller, sn); err != nil {
		return writeError(c, err)
	}
	page := 0
	if p, err := strconv.Atoi(c.QueryParam("page")); err == nil {
		page = p
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	var (
		records []model.Point
		err     error
	)
	switch {
	case caller.Type == model.TypeEnlisted:
		records, err = h.Workflow.History(ctx, caller.Sub, page)
	case sn != "":
		records, err = h.Workflow.History(ctx, sn, page)
	default:
		records, err = h.Workflow.Pending(ctx, caller.Sub)
	}
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, records)
}

// Total answers GET /v1/points/total with the verified and still-pending
// sums received by a soldier.  Enlisted callers only ever see their own.
func (h *PointHandler) Total(c echo.Context) error {
	caller := middleware.CallerClaims(c)
	sn := c.QueryParam("sn")
	if caller.Type == model.TypeEnlisted || sn == "" {
		sn = caller.Sub
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	verified, unverified, err := h.Workflow.Totals(ctx, sn)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{
		"verifiedPoint":   verified,
		"unverifiedPoint": unverified,
	})
}

// Create answers POST /v1/points.  The workflow decides between the
// enlisted request path (pending) and the cadre grant path (verified
// immediately).
func (h *PointHandler) Create(c echo.Context) error {
	caller := middleware.CallerClaims(c)
	var req createPointReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if req.Reason == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "reason required"})
	}
	givenAt, err := time.Parse(time.RFC3339, req.GivenAt)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "givenAt must be RFC 3339"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	rec, err := h.Workflow.Create(ctx, caller, point.CreateInput{
		GiverSN:    req.GiverSN,
		ReceiverSN: req.ReceiverSN,
		Value:      req.Value,
		Reason:     req.Reason,
		GivenAt:    givenAt,
	})
	if err != nil {
		return writeError(c, err)
	}

	publishPointEvent(queue.PointEvent{
		Event:      queue.EventPointCreated,
		PointID:    rec.ID,
		GiverSN:    rec.GiverSN,
		ReceiverSN: rec.ReceiverSN,
		Value:      rec.Value,
		Reason:     rec.Reason,
		ActorSN:    caller.Sub,
	})
	return c.JSON(http.StatusCreated, rec)
}

// Resolve answers POST /v1/points/verify, approving or rejecting a pending
// record.
func (h *PointHandler) Resolve(c echo.Context) error {
	caller := middleware.CallerClaims(c)
	var req resolvePointReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if req.ID == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "id required"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	rec, err := h.Workflow.Resolve(ctx, caller, req.ID, req.Value, req.RejectReason)
	if err != nil {
		return writeError(c, err)
	}

	approved := req.Value
	publishPointEvent(queue.PointEvent{
		Event:      queue.EventPointResolved,
		PointID:    rec.ID,
		GiverSN:    rec.GiverSN,
		ReceiverSN: rec.ReceiverSN,
		Value:      rec.Value,
		Approved:   &approved,
		Reason:     req.RejectReason,
		ActorSN:    caller.Sub,
	})
	return c.NoContent(http.StatusNoContent)
}

// Delete answers DELETE /v1/points?id=.  Deleting an absent record is a
// benign no-op so retried deletes stay idempotent.
func (h *PointHandler) Delete(c echo.Context) error {
	caller := middleware.CallerClaims(c)
	id := c.QueryParam("id")
	if id == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "id required"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	deleted, rec, err := h.Workflow.Delete(ctx, caller, id)
	if err != nil {
		return writeError(c, err)
	}
	if deleted {
		publishPointEvent(queue.PointEvent{
			Event:      queue.EventPointDeleted,
			PointID:    rec.ID,
			GiverSN:    rec.GiverSN,
			ReceiverSN: rec.ReceiverSN,
			Value:      rec.Value,
			ActorSN:    caller.Sub,
		})
	}
	return c.NoContent(http.StatusNoContent)
}

// publishPointEvent stamps and publishes an audit event in the background.
// Broker failures are already logged by the publisher; the request must not
// fail because audit is behind.
func publishPointEvent(ev queue.PointEvent) {
	ev.OccurredAt = time.Now().UTC().Format(time.RFC3339)
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := queue_publisher.PublishPointEvent(ctx, ev); err != nil {
			log.Printf("point event publish failed: %v", err)
		}
	}()
}
