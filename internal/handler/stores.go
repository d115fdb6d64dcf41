package handler

import (
	"context"

	"github.com/milpoint/milpoint/internal/model"
	"github.com/milpoint/milpoint/internal/repository"
)

// SoldierStore is the identity persistence the auth and soldier handlers
// depend on.  *repository.SoldierRepo satisfies it; tests substitute an
// in-memory fake.
type SoldierStore interface {
	Create(ctx context.Context, sn, name, typ, digest string) error
	Get(ctx context.Context, sn string) (model.Soldier, error)
	GetActive(ctx context.Context, sn string) (model.Soldier, error)
	Search(ctx context.Context, p repository.SearchParams) ([]repository.SoldierSummary, error)
	SearchCount(ctx context.Context, p repository.SearchParams) (int64, error)
	SearchUnverified(ctx context.Context) ([]repository.SoldierSummary, error)
	Review(ctx context.Context, sn string, approve bool) error
	SetDeleted(ctx context.Context, sn string, deleted bool) error
	UpdatePassword(ctx context.Context, sn, digest string) error
}

// PermissionStore is the grant persistence behind the same handlers.
type PermissionStore interface {
	ListBySoldier(ctx context.Context, sn string) ([]string, error)
	Insert(ctx context.Context, sn string, perms []string) error
	Replace(ctx context.Context, sn string, perms []string) error
}
