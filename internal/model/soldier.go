package model

import "time"

// Soldier categories.  Cadre give and approve points; enlisted request and
// receive them.
const (
	TypeEnlisted = "enlisted"
	TypeCadre    = "cadre"
)

// Soldier represents a row in the `soldiers` table, keyed by service number.
// VerifiedAt and RejectedAt record the sign-up review outcome and are never
// both set.  DeletedAt marks a soft delete: the row stays for audit but the
// soldier disappears from search and can no longer sign in.
//
// Fields:
//
//	SN             – service number, format NN-NNNNN..NNNNNNNN (primary key).
//	Name           – display name.
//	Type           – "enlisted" or "cadre".
//	PasswordDigest – salt-prefixed PBKDF2 digest.
//	VerifiedAt     – when the sign-up was approved (nullable).
//	RejectedAt     – when the sign-up was rejected (nullable).
//	DeletedAt      – when the account was soft deleted (nullable).
//	CreatedAt      – timestamp of creation.
type Soldier struct {
	SN             string     // soldiers.sn
	Name           string     // soldiers.name
	Type           string     // soldiers.type
	PasswordDigest string     // soldiers.password
	VerifiedAt     *time.Time // soldiers.verified_at (nullable)
	RejectedAt     *time.Time // soldiers.rejected_at (nullable)
	DeletedAt      *time.Time // soldiers.deleted_at (nullable)
	CreatedAt      time.Time  // soldiers.created_at
}

// Permission is one capability grant for a soldier.  A soldier may hold any
// number of grants; ordering carries no meaning.
//
// Fields:
//
//	ID        – primary key identifier.
//	SoldierSN – service number of the holder.
//	Value     – capability token (closed vocabulary, see internal/permission).
type Permission struct {
	ID        uint64 // permissions.id
	SoldierSN string // permissions.soldiers_sn
	Value     string // permissions.value
}
