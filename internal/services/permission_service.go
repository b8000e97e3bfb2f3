package services

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/Amir-debuug/cert-verification-sub001/internal/db/models"
	"github.com/Amir-debuug/cert-verification-sub001/internal/faults"
	"github.com/Amir-debuug/cert-verification-sub001/internal/hashid"
	"github.com/Amir-debuug/cert-verification-sub001/internal/store"
)

// PermissionService is the append-only access ledger. Grants are
// immutable once written; there is no revoke or downgrade.
type PermissionService struct {
	permissions *store.Store[models.AccessPermission]
	logger      *zap.Logger
}

func NewPermissionService(database *gorm.DB, logger *zap.Logger) *PermissionService {
	return &PermissionService{
		permissions: store.New[models.AccessPermission](database),
		logger:      logger.With(zap.String("service", "permission_service")),
	}
}

// Grant writes one permission row and returns its content-addressed id.
// A duplicate grant (same account, document and level) is an error,
// never an update.
func (ps *PermissionService) Grant(ctx context.Context, documentID, accountID string, level models.AccessLevel) (string, error) {
	permissionID := hashid.Derive(accountID, documentID, string(level))

	exists, err := ps.permissions.Exists(ctx, permissionID)
	if err != nil {
		return "", err
	}
	if exists {
		return "", fmt.Errorf("%w: permission %s", faults.ErrConflict, permissionID)
	}

	permission := &models.AccessPermission{
		ID:         permissionID,
		DocumentID: documentID,
		AccountID:  accountID,
		Level:      level,
		CreatedAt:  time.Now().UTC(),
	}
	if err := ps.permissions.Create(ctx, permission); err != nil {
		return "", err
	}

	ps.logger.Info("Permission granted",
		zap.String("permission_id", permissionID),
		zap.String("document_id", documentID),
		zap.String("account_id", accountID),
		zap.String("level", string(level)),
	)
	return permissionID, nil
}

// ListGrants returns every grant for a document. Level filtering is the
// caller's job.
func (ps *PermissionService) ListGrants(ctx context.Context, documentID string) ([]models.AccessPermission, error) {
	return ps.permissions.Find(ctx, store.Query{
		Where: []store.Clause{{Field: "document_id", Op: "eq", Value: documentID}},
	})
}

// HasLevel reports whether the account holds a grant of the given level
// on the document.
func (ps *PermissionService) HasLevel(ctx context.Context, documentID, accountID string, level models.AccessLevel) (bool, error) {
	grants, err := ps.ListGrants(ctx, documentID)
	if err != nil {
		return false, err
	}
	for _, g := range grants {
		if g.AccountID == accountID && g.Level == level {
			return true, nil
		}
	}
	return false, nil
}
