package services

import (
	"context"
	"encoding/base64"
	"fmt"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/Amir-debuug/cert-verification-sub001/internal/blob"
	"github.com/Amir-debuug/cert-verification-sub001/internal/codec"
	"github.com/Amir-debuug/cert-verification-sub001/internal/db/models"
	"github.com/Amir-debuug/cert-verification-sub001/internal/faults"
	"github.com/Amir-debuug/cert-verification-sub001/internal/hashid"
	"github.com/Amir-debuug/cert-verification-sub001/internal/store"
	"github.com/Amir-debuug/cert-verification-sub001/pkg/metrics"
)

// payloadDelimiter separates the fields of the embedded verification
// payload: ownerID || createdAt || signerCount.
const payloadDelimiter = "||"

// Marker embeds and re-extracts the verification tag of a PDF.
type Marker interface {
	Embed(pdf []byte, tag string) ([]byte, error)
	ExtractTag(pdf []byte) (string, error)
	Preview(tag string) ([]byte, error)
}

type DocumentService struct {
	documents   *store.Store[models.Document]
	permissions *PermissionService
	blobs       blob.Store
	marker      Marker
	codec       *codec.Codec
	logger      *zap.Logger
	metrics     *metrics.Collector
}

func NewDocumentService(
	database *gorm.DB,
	permissions *PermissionService,
	blobs blob.Store,
	marker Marker,
	payloadCodec *codec.Codec,
	logger *zap.Logger,
	collector *metrics.Collector,
) *DocumentService {
	return &DocumentService{
		documents:   store.New[models.Document](database),
		permissions: permissions,
		blobs:       blobs,
		marker:      marker,
		codec:       payloadCodec,
		logger:      logger.With(zap.String("service", "document_service")),
		metrics:     collector,
	}
}

type CreateDocumentInput struct {
	OwnerID     string
	Name        string
	FolderName  string
	SignerCount int
	ValidUntil  *time.Time
	Content     []byte
}

// Create runs the full issuance pipeline: derive the content address,
// watermark, upload, persist, grant ownership, then revoke every other
// document of the same owner. The supersession step runs strictly after
// the row is durably created, so a crash in between leaves at most one
// extra non-revoked document.
func (ds *DocumentService) Create(ctx context.Context, in CreateDocumentInput) (*models.Document, error) {
	start := time.Now()

	if len(in.Content) == 0 {
		return nil, fmt.Errorf("%w: file content is required", faults.ErrValidation)
	}
	if in.OwnerID == "" {
		return nil, fmt.Errorf("%w: owner id is required", faults.ErrValidation)
	}
	if in.SignerCount < 1 {
		in.SignerCount = 1
	}

	documentID := hashid.Derive(in.OwnerID)
	exists, err := ds.documents.Exists(ctx, documentID)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, fmt.Errorf("%w: document %s already exists for owner %s", faults.ErrConflict, documentID, in.OwnerID)
	}

	requestedAt := time.Now().UTC().Format(time.RFC3339)
	payload := buildPayload(in.OwnerID, requestedAt, in.SignerCount)
	tag, err := ds.codec.Encrypt(payload)
	if err != nil {
		return nil, fmt.Errorf("encrypt verification payload: %w", err)
	}

	watermarked, err := ds.marker.Embed(in.Content, tag)
	if err != nil {
		return nil, err
	}

	blobKey := documentKey(in.OwnerID, in.Name)
	putInfo, err := ds.blobs.Put(ctx, blobKey, watermarked, "application/pdf")
	if err != nil {
		return nil, fmt.Errorf("upload document blob: %w", err)
	}
	if preview, err := ds.marker.Preview(tag); err == nil {
		if _, err := ds.blobs.Put(ctx, previewKey(in.OwnerID, in.Name), preview, "image/png"); err != nil {
			ds.logger.Warn("Preview upload failed", zap.String("document_id", documentID), zap.Error(err))
		}
	}

	status := models.StatusSent
	if in.SignerCount == 1 {
		status = models.StatusSigned
	}

	document := &models.Document{
		ID:           documentID,
		OwnerID:      in.OwnerID,
		Name:         in.Name,
		FolderName:   in.FolderName,
		Status:       status,
		SignerCount:  in.SignerCount,
		RequestedAt:  requestedAt,
		ValidUntil:   in.ValidUntil,
		BlobKey:      putInfo.Key,
		BlobLocation: putInfo.Location,
		BlobETag:     putInfo.ETag,
		CreatedAt:    time.Now().UTC(),
	}
	if err := ds.documents.Create(ctx, document); err != nil {
		return nil, err
	}

	if _, err := ds.permissions.Grant(ctx, documentID, in.OwnerID, models.LevelOwner); err != nil {
		return nil, fmt.Errorf("grant owner permission: %w", err)
	}

	// Supersession: any other document of this owner loses its validity
	// the moment the new one exists.
	revoked, err := ds.documents.UpdateAll(ctx,
		map[string]interface{}{"status": models.StatusRevoked},
		[]store.Clause{
			{Field: "owner_id", Op: "eq", Value: in.OwnerID},
			{Field: "id", Op: "neq", Value: documentID},
			{Field: "status", Op: "neq", Value: string(models.StatusRevoked)},
		},
	)
	if err != nil {
		return nil, fmt.Errorf("revoke superseded documents: %w", err)
	}

	ds.metrics.IncrementCounter("documents_created")
	ds.metrics.ObserveSize("document_size", float64(len(in.Content)))
	ds.metrics.ObserveLatency("document_create", time.Since(start))

	ds.logger.Info("Document created",
		zap.String("document_id", documentID),
		zap.String("owner_id", in.OwnerID),
		zap.String("status", string(status)),
		zap.Int64("superseded", revoked),
	)
	return document, nil
}

// Revoke terminates a document addressed by its (id, owner) pair.
// Already-revoked or unknown documents are not addressable and report
// not-found.
func (ds *DocumentService) Revoke(ctx context.Context, documentID, ownerID string) error {
	affected, err := ds.documents.UpdateAll(ctx,
		map[string]interface{}{"status": models.StatusRevoked},
		[]store.Clause{
			{Field: "id", Op: "eq", Value: documentID},
			{Field: "owner_id", Op: "eq", Value: ownerID},
			{Field: "status", Op: "neq", Value: string(models.StatusRevoked)},
		},
	)
	if err != nil {
		return err
	}
	if affected == 0 {
		return fmt.Errorf("%w: document %s for owner %s", faults.ErrNotFound, documentID, ownerID)
	}

	ds.metrics.IncrementCounter("documents_revoked")
	ds.logger.Info("Document revoked", zap.String("document_id", documentID), zap.String("owner_id", ownerID))
	return nil
}

// Get returns the document row and its stored content. The requester
// must hold an owner-level grant.
func (ds *DocumentService) Get(ctx context.Context, requesterID, documentID string) (*models.Document, []byte, error) {
	allowed, err := ds.permissions.HasLevel(ctx, documentID, requesterID, models.LevelOwner)
	if err != nil {
		return nil, nil, err
	}
	if !allowed {
		return nil, nil, fmt.Errorf("%w: account %s has no owner grant on document %s", faults.ErrForbidden, requesterID, documentID)
	}

	document, err := ds.documents.FindByID(ctx, documentID)
	if err != nil {
		return nil, nil, err
	}
	content, err := ds.blobs.Get(ctx, document.BlobKey)
	if err != nil {
		return nil, nil, err
	}
	return document, content, nil
}

// DocumentSummary is one listing entry. Preview carries the base64 QR
// marker PNG for non-revoked documents.
type DocumentSummary struct {
	Document models.Document
	Preview  string
}

// List passes filter, order, limit and offset through to the store and
// decorates each live document with its preview image. Filter and order
// are compiled by the store's mini-language, never interpolated raw.
func (ds *DocumentService) List(ctx context.Context, filter, order string, limit, offset int) ([]DocumentSummary, int64, error) {
	clauses, err := store.ParseFilter(filter)
	if err != nil {
		return nil, 0, err
	}
	orderBy, err := store.ParseOrder(order)
	if err != nil {
		return nil, 0, err
	}

	total, err := ds.documents.Count(ctx, clauses)
	if err != nil {
		return nil, 0, err
	}

	documents, err := ds.documents.Find(ctx, store.Query{
		Where:  clauses,
		Order:  orderBy,
		Limit:  limit,
		Offset: offset,
	})
	if err != nil {
		return nil, 0, err
	}

	summaries := make([]DocumentSummary, 0, len(documents))
	for _, document := range documents {
		summary := DocumentSummary{Document: document}
		if document.Status != models.StatusRevoked {
			preview, err := ds.blobs.Get(ctx, previewKey(document.OwnerID, document.Name))
			if err == nil {
				summary.Preview = base64.StdEncoding.EncodeToString(preview)
			} else {
				ds.logger.Debug("Preview unavailable", zap.String("document_id", document.ID), zap.Error(err))
			}
		}
		summaries = append(summaries, summary)
	}
	return summaries, total, nil
}

func buildPayload(ownerID, requestedAt string, signerCount int) string {
	return strings.Join([]string{ownerID, requestedAt, strconv.Itoa(signerCount)}, payloadDelimiter)
}

func splitPayload(payload string) (ownerID, requestedAt, signerCount string, err error) {
	parts := strings.Split(payload, payloadDelimiter)
	if len(parts) != 3 {
		return "", "", "", fmt.Errorf("%w: malformed payload", faults.ErrCodec)
	}
	return parts[0], parts[1], parts[2], nil
}

func documentKey(ownerID, name string) string {
	return fmt.Sprintf("%s/%s.pdf", ownerID, name)
}

func previewKey(ownerID, name string) string {
	return fmt.Sprintf("%s/%s.png", ownerID, name)
}
