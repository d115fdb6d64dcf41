// Package queue defines message payloads exchanged over the message broker
// and the audit consumer that persists them.
package queue

// Lifecycle event names carried in PointEvent.Event.
const (
	EventPointCreated  = "point.created"
	EventPointResolved = "point.resolved"
	EventPointDeleted  = "point.deleted"
)

// PointEvent is published on every point record transition.  It carries
// enough for downstream consumers to build an audit trail without querying
// the primary database.  Approved is only meaningful for resolution events.
type PointEvent struct {
	Event      string `json:"event"`
	PointID    string `json:"point_id"`
	GiverSN    string `json:"giver_sn"`
	ReceiverSN string `json:"receiver_sn"`
	Value      int    `json:"value"`
	Approved   *bool  `json:"approved,omitempty"`
	Reason     string `json:"reason,omitempty"`
	ActorSN    string `json:"actor_sn"`
	OccurredAt string `json:"occurred_at"`
}
