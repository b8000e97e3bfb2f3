package services

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/Amir-debuug/cert-verification-sub001/internal/db/models"
	"github.com/Amir-debuug/cert-verification-sub001/internal/faults"
	"github.com/Amir-debuug/cert-verification-sub001/internal/hashid"
)

// VerifyRequest carries one of two mutually exclusive shapes: caller
// claims to check against the stored blob's watermark, or raw file
// content whose watermark is decoded directly.
type VerifyRequest struct {
	OwnerID         string
	DocumentID      string
	CreatedAt       string
	AmountOfSigners string
	FileContent     []byte
}

type VerifyResult struct {
	IsValid     bool
	Certificate *models.Document
}

// Verify never fails a request because of a bad payload: any
// extraction, decryption or lookup error collapses to IsValid=false.
// Only a misshapen request is an error.
func (ds *DocumentService) Verify(ctx context.Context, req VerifyRequest) (VerifyResult, error) {
	start := time.Now()
	defer func() {
		ds.metrics.IncrementCounter("verifications")
		ds.metrics.ObserveLatency("verification", time.Since(start))
	}()

	hasClaims := req.OwnerID != "" || req.DocumentID != ""
	hasContent := len(req.FileContent) > 0
	if hasClaims == hasContent {
		return VerifyResult{}, fmt.Errorf("%w: provide either claims or file content", faults.ErrValidation)
	}

	var result VerifyResult
	if hasContent {
		result = ds.verifyContent(ctx, req.FileContent)
	} else {
		result = ds.verifyClaims(ctx, req)
	}

	if result.IsValid {
		ds.metrics.IncrementCounter("verifications_valid")
	} else {
		ds.metrics.IncrementCounter("verifications_invalid")
	}
	return result, nil
}

// verifyClaims re-derives the document's content address, downloads its
// stored blob and compares the embedded payload field by field against
// the caller's claims. All fields compare as strings; an absent signer
// count defaults to "1".
func (ds *DocumentService) verifyClaims(ctx context.Context, req VerifyRequest) VerifyResult {
	if hashid.Derive(req.OwnerID) != req.DocumentID {
		ds.logger.Debug("Verification rejected: document id does not address owner",
			zap.String("document_id", req.DocumentID))
		return VerifyResult{}
	}

	document, err := ds.documents.FindByID(ctx, req.DocumentID)
	if err != nil {
		ds.logger.Debug("Verification rejected: unknown document", zap.String("document_id", req.DocumentID))
		return VerifyResult{}
	}

	content, err := ds.blobs.Get(ctx, document.BlobKey)
	if err != nil {
		ds.logger.Warn("Verification blob fetch failed", zap.String("document_id", document.ID), zap.Error(err))
		return VerifyResult{}
	}

	ownerID, requestedAt, signerCount, ok := ds.decodePayload(content)
	if !ok {
		return VerifyResult{}
	}

	claimedSigners := req.AmountOfSigners
	if claimedSigners == "" {
		claimedSigners = "1"
	}
	if ownerID != req.OwnerID || requestedAt != req.CreatedAt || signerCount != claimedSigners {
		ds.logger.Debug("Verification rejected: claim mismatch", zap.String("document_id", document.ID))
		return VerifyResult{}
	}
	return VerifyResult{IsValid: true, Certificate: document}
}

// verifyContent decodes the watermark straight from the supplied bytes.
// The certificate row is attached best-effort when the payload's owner
// still addresses a stored document.
func (ds *DocumentService) verifyContent(ctx context.Context, fileContent []byte) VerifyResult {
	ownerID, _, _, ok := ds.decodePayload(fileContent)
	if !ok {
		return VerifyResult{}
	}

	result := VerifyResult{IsValid: true}
	if document, err := ds.documents.FindByID(ctx, hashid.Derive(ownerID)); err == nil {
		result.Certificate = document
	}
	return result
}

func (ds *DocumentService) decodePayload(pdf []byte) (ownerID, requestedAt, signerCount string, ok bool) {
	tag, err := ds.marker.ExtractTag(pdf)
	if err != nil {
		ds.logger.Debug("Verification tag extraction failed", zap.Error(err))
		return "", "", "", false
	}
	payload, err := ds.codec.Decrypt(tag)
	if err != nil {
		ds.logger.Debug("Verification payload decryption failed", zap.Error(err))
		return "", "", "", false
	}
	ownerID, requestedAt, signerCount, err = splitPayload(payload)
	if err != nil {
		ds.logger.Debug("Verification payload malformed", zap.Error(err))
		return "", "", "", false
	}
	return ownerID, requestedAt, signerCount, true
}
