package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/Amir-debuug/cert-verification-sub001/internal/db/models"
	"github.com/Amir-debuug/cert-verification-sub001/internal/faults"
	"github.com/Amir-debuug/cert-verification-sub001/internal/hashid"
	"github.com/Amir-debuug/cert-verification-sub001/internal/store"
	"github.com/Amir-debuug/cert-verification-sub001/internal/utils"
	"github.com/Amir-debuug/cert-verification-sub001/pkg/metrics"
)

// CertificateService handles signer enrollment, the comment trail and
// the signing history of a certified document.
type CertificateService struct {
	documents *store.Store[models.Document]
	accounts  *store.Store[models.Account]
	signers   *store.Store[models.Signer]
	comments  *store.Store[models.Comment]
	logger    *zap.Logger
	metrics   *metrics.Collector
}

func NewCertificateService(database *gorm.DB, logger *zap.Logger, collector *metrics.Collector) *CertificateService {
	return &CertificateService{
		documents: store.New[models.Document](database),
		accounts:  store.New[models.Account](database),
		signers:   store.New[models.Signer](database),
		comments:  store.New[models.Comment](database),
		logger:    logger.With(zap.String("service", "certificate_service")),
		metrics:   collector,
	}
}

type SignerInfo struct {
	AccountID string
	Name      string
	Email     string
}

// EnrollSigner registers one signer against a certificate, creating the
// backing account when the email is unknown. Returns the resolved
// account id. Re-enrolling the same (certificate, email) pair conflicts.
func (cs *CertificateService) EnrollSigner(ctx context.Context, requesterID, certificateID string, info SignerInfo, signed bool) (string, error) {
	if _, err := cs.authorize(ctx, requesterID, certificateID); err != nil {
		return "", err
	}

	email := hashid.CanonicalEmail(info.Email)
	if email == "" {
		return "", fmt.Errorf("%w: signer email is required", faults.ErrValidation)
	}

	signerID := hashid.Derive(certificateID, email)
	exists, err := cs.signers.Exists(ctx, signerID)
	if err != nil {
		return "", err
	}
	if exists {
		return "", fmt.Errorf("%w: signer %s already enrolled on certificate %s", faults.ErrConflict, signerID, certificateID)
	}

	accountID, err := cs.resolveAccount(ctx, info, email)
	if err != nil {
		return "", err
	}

	signer := &models.Signer{
		ID:            signerID,
		CertificateID: certificateID,
		AccountID:     accountID,
		Name:          info.Name,
		Email:         email,
		Signed:        signed,
		CreatedAt:     time.Now().UTC(),
	}
	if signed {
		now := time.Now().UTC()
		signer.SignedOn = &now
	}
	if err := cs.signers.Create(ctx, signer); err != nil {
		return "", err
	}

	cs.metrics.IncrementCounter("signers_enrolled")
	cs.logger.Info("Signer enrolled",
		zap.String("signer_id", signerID),
		zap.String("certificate_id", certificateID),
		zap.String("account_id", accountID),
		zap.Bool("signed", signed),
	)
	return accountID, nil
}

// AddAdminSigner enrolls the issuer themselves as an already-signed
// signer of the certificate.
func (cs *CertificateService) AddAdminSigner(ctx context.Context, issuerID, certificateID string) error {
	issuer, err := cs.accounts.FindByID(ctx, issuerID)
	if err != nil {
		return err
	}
	_, err = cs.EnrollSigner(ctx, issuerID, certificateID, SignerInfo{
		AccountID: issuer.ID,
		Name:      issuer.Name,
		Email:     issuer.Email,
	}, true)
	return err
}

// AddComment appends one entry to the certificate's audit trail and
// returns its id.
func (cs *CertificateService) AddComment(ctx context.Context, requesterID, certificateID, text string) (string, error) {
	if _, err := cs.authorize(ctx, requesterID, certificateID); err != nil {
		return "", err
	}
	if text == "" {
		return "", fmt.Errorf("%w: comment text is required", faults.ErrValidation)
	}

	now := time.Now().UTC()
	commentID := hashid.Derive(certificateID, text, now.Format(time.RFC3339Nano))

	comment := &models.Comment{
		ID:            commentID,
		CertificateID: certificateID,
		AccountID:     requesterID,
		Comment:       text,
		CreatedAt:     now,
	}
	if err := cs.comments.Create(ctx, comment); err != nil {
		return "", err
	}

	cs.logger.Info("Comment added", zap.String("certificate_id", certificateID), zap.String("comment_id", commentID))
	return commentID, nil
}

// ListComments returns the trail newest-first.
func (cs *CertificateService) ListComments(ctx context.Context, requesterID, certificateID string) ([]models.Comment, error) {
	if _, err := cs.authorize(ctx, requesterID, certificateID); err != nil {
		return nil, err
	}
	return cs.comments.Find(ctx, store.Query{
		Where: []store.Clause{{Field: "certificate_id", Op: "eq", Value: certificateID}},
		Order: "created_at DESC",
	})
}

// HistoryEntry is one event in a certificate's trail: either a
// completed signature or the synthesized creation event.
type HistoryEntry struct {
	Event    string
	Name     string
	Email    string
	SignedOn time.Time
}

// GetHistory lists everyone who has signed plus the creation event.
func (cs *CertificateService) GetHistory(ctx context.Context, requesterID, certificateID string) ([]HistoryEntry, error) {
	certificate, err := cs.authorize(ctx, requesterID, certificateID)
	if err != nil {
		return nil, err
	}

	signers, err := cs.signers.Find(ctx, store.Query{
		Where: []store.Clause{{Field: "certificate_id", Op: "eq", Value: certificateID}},
		Order: "signed_on ASC",
	})
	if err != nil {
		return nil, err
	}

	entries := make([]HistoryEntry, 0, len(signers)+1)
	for _, s := range signers {
		if !s.Signed {
			continue
		}
		entry := HistoryEntry{Event: "signed", Name: s.Name, Email: s.Email}
		if s.SignedOn != nil {
			entry.SignedOn = *s.SignedOn
		}
		entries = append(entries, entry)
	}
	entries = append(entries, HistoryEntry{
		Event:    "created",
		Name:     certificate.OwnerID,
		SignedOn: certificate.CreatedAt,
	})
	return entries, nil
}

// authorize loads the certificate and enforces the shared rule: the
// requester is internal, or is the certificate's recorded owner.
func (cs *CertificateService) authorize(ctx context.Context, requesterID, certificateID string) (*models.Document, error) {
	certificate, err := cs.documents.FindByID(ctx, certificateID)
	if err != nil {
		return nil, err
	}

	requester, err := cs.accounts.FindByID(ctx, requesterID)
	if err != nil {
		if errors.Is(err, faults.ErrNotFound) {
			return nil, fmt.Errorf("%w: unknown requester %s", faults.ErrForbidden, requesterID)
		}
		return nil, err
	}

	if requester.Role != models.RoleInternal && requester.ID != certificate.OwnerID {
		return nil, fmt.Errorf("%w: account %s may not manage certificate %s", faults.ErrForbidden, requesterID, certificateID)
	}
	return certificate, nil
}

// resolveAccount returns the signer's account id, creating a minimal
// signer account when neither the supplied id nor the email hash
// resolves to an existing row.
func (cs *CertificateService) resolveAccount(ctx context.Context, info SignerInfo, email string) (string, error) {
	accountID := info.AccountID
	if accountID == "" {
		accountID = hashid.Derive(email)
	}

	exists, err := cs.accounts.Exists(ctx, accountID)
	if err != nil {
		return "", err
	}
	if exists {
		return accountID, nil
	}

	// Implicit account: the signer gets a random credential they can
	// reset through the external auth subsystem.
	passwordHash, err := utils.EncryptPassword(uuid.New().String())
	if err != nil {
		return "", fmt.Errorf("hash initial credential: %w", err)
	}

	account := &models.Account{
		ID:           accountID,
		Name:         info.Name,
		Email:        email,
		PasswordHash: passwordHash,
		Role:         models.RoleSigner,
		Active:       true,
		Verified:     true,
		CreatedAt:    time.Now().UTC(),
	}
	if err := cs.accounts.Create(ctx, account); err != nil {
		return "", err
	}

	cs.metrics.IncrementCounter("accounts_created")
	cs.logger.Info("Account created for signer", zap.String("account_id", accountID), zap.String("email", email))
	return accountID, nil
}
