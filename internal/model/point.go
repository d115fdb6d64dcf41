package model

import "time"

// Point is a single merit (positive) or demerit (negative) entry tying a
// giver to a receiver.  A record starts pending (both resolution timestamps
// null) unless it was created by the giving cadre, in which case it is
// verified immediately.  VerifiedAt and RejectedAt are mutually exclusive.
// UsedID references whatever later consumed the points (e.g. a reward
// redemption); a consumed record can no longer be deleted.
//
// Fields:
//
//	ID             – opaque unique key (UUID).
//	GiverSN        – cadre awarding the points.
//	ReceiverSN     – enlisted soldier receiving them.
//	Value          – signed point value; never zero.
//	Reason         – why the points were given.
//	GivenAt        – effective date of the award.
//	VerifiedAt     – when the giver approved the record (nullable).
//	RejectedAt     – when the giver rejected it (nullable).
//	RejectedReason – mandatory companion to RejectedAt (nullable).
//	UsedID         – reference that consumed the points (nullable).
//	CreatedAt      – timestamp of creation.
type Point struct {
	ID             string     `json:"id"`             // points.id
	GiverSN        string     `json:"giverSn"`        // points.giver_sn
	ReceiverSN     string     `json:"receiverSn"`     // points.receiver_sn
	Value          int        `json:"value"`          // points.value
	Reason         string     `json:"reason"`         // points.reason
	GivenAt        time.Time  `json:"givenAt"`        // points.given_at
	VerifiedAt     *time.Time `json:"verifiedAt"`     // points.verified_at (nullable)
	RejectedAt     *time.Time `json:"rejectedAt"`     // points.rejected_at (nullable)
	RejectedReason *string    `json:"rejectedReason"` // points.rejected_reason (nullable)
	UsedID         *string    `json:"usedId"`         // points.used_id (nullable)
	CreatedAt      time.Time  `json:"createdAt"`      // points.created_at
}
