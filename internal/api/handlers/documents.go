package handlers

import (
	"encoding/base64"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/Amir-debuug/cert-verification-sub001/internal/services"
)

type DocumentHandler struct {
	documentService *services.DocumentService
	logger          *zap.Logger
}

func NewDocumentHandler(documentService *services.DocumentService, logger *zap.Logger) *DocumentHandler {
	return &DocumentHandler{
		documentService: documentService,
		logger:          logger.With(zap.String("handler", "document")),
	}
}

type documentResponse struct {
	DocumentID  string     `json:"documentId"`
	OwnerID     string     `json:"ownerId"`
	Name        string     `json:"name"`
	FolderName  string     `json:"folderName,omitempty"`
	Status      string     `json:"status"`
	SignerCount int        `json:"signerCount"`
	RequestedAt string     `json:"requestedAt"`
	ValidUntil  *time.Time `json:"validUntil,omitempty"`
	BlobKey     string     `json:"blobKey"`
	Preview     string     `json:"preview,omitempty"`
}

// CreateDocument accepts a multipart form: file plus ownerId, name,
// folderName, signersCount and optional validUntil (RFC3339).
func (h *DocumentHandler) CreateDocument(c *gin.Context) {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "file is required"})
		return
	}
	file, err := fileHeader.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "could not open uploaded file"})
		return
	}
	defer file.Close()
	content, err := io.ReadAll(file)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "could not read uploaded file"})
		return
	}

	signerCount := 1
	if raw := c.PostForm("signersCount"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "signersCount must be an integer"})
			return
		}
		signerCount = n
	}

	input := services.CreateDocumentInput{
		OwnerID:     c.PostForm("ownerId"),
		Name:        c.PostForm("name"),
		FolderName:  c.PostForm("folderName"),
		SignerCount: signerCount,
		Content:     content,
	}
	if raw := c.PostForm("validUntil"); raw != "" {
		t, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "validUntil must be RFC3339"})
			return
		}
		input.ValidUntil = &t
	}
	if input.Name == "" {
		input.Name = fileHeader.Filename
	}

	document, err := h.documentService.Create(c.Request.Context(), input)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusCreated, documentResponse{
		DocumentID:  document.ID,
		OwnerID:     document.OwnerID,
		Name:        document.Name,
		FolderName:  document.FolderName,
		Status:      string(document.Status),
		SignerCount: document.SignerCount,
		RequestedAt: document.RequestedAt,
		ValidUntil:  document.ValidUntil,
		BlobKey:     document.BlobKey,
	})
}

// ListDocuments passes filter/order/limit/offset through to the store.
func (h *DocumentHandler) ListDocuments(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "25"))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))

	summaries, total, err := h.documentService.List(
		c.Request.Context(),
		c.Query("filter"),
		c.Query("order"),
		limit,
		offset,
	)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	items := make([]documentResponse, 0, len(summaries))
	for _, s := range summaries {
		items = append(items, documentResponse{
			DocumentID:  s.Document.ID,
			OwnerID:     s.Document.OwnerID,
			Name:        s.Document.Name,
			FolderName:  s.Document.FolderName,
			Status:      string(s.Document.Status),
			SignerCount: s.Document.SignerCount,
			RequestedAt: s.Document.RequestedAt,
			ValidUntil:  s.Document.ValidUntil,
			BlobKey:     s.Document.BlobKey,
			Preview:     s.Preview,
		})
	}
	c.JSON(http.StatusOK, gin.H{"total": total, "documents": items})
}

// GetDocument streams the stored PDF back to an authorized owner.
func (h *DocumentHandler) GetDocument(c *gin.Context) {
	requesterID := c.GetString("accountID")

	document, content, err := h.documentService.Get(c.Request.Context(), requesterID, c.Param("id"))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.Header("Content-Disposition", `attachment; filename="`+document.Name+`.pdf"`)
	c.Data(http.StatusOK, "application/pdf", content)
}

func (h *DocumentHandler) RevokeDocument(c *gin.Context) {
	var body struct {
		OwnerID string `json:"ownerId"`
	}
	if err := c.ShouldBindJSON(&body); err != nil || body.OwnerID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "ownerId is required"})
		return
	}

	if err := h.documentService.Revoke(c.Request.Context(), c.Param("id"), body.OwnerID); err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "revoked"})
}

type verifyBody struct {
	OwnerID         string `json:"ownerId"`
	DocumentID      string `json:"documentId"`
	CreatedAt       string `json:"createdAt"`
	AmountOfSigners string `json:"amountOfSigners"`
	FileContent     string `json:"fileContent"` // base64, mutually exclusive with the claim fields
}

// VerifyDocument checks caller claims or raw content against the
// embedded watermark. Failures to decode collapse to isValid=false.
func (h *DocumentHandler) VerifyDocument(c *gin.Context) {
	var body verifyBody
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "malformed verification request"})
		return
	}

	req := services.VerifyRequest{
		OwnerID:         body.OwnerID,
		DocumentID:      body.DocumentID,
		CreatedAt:       body.CreatedAt,
		AmountOfSigners: body.AmountOfSigners,
	}
	if body.FileContent != "" {
		content, err := base64.StdEncoding.DecodeString(body.FileContent)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "fileContent is not valid base64"})
			return
		}
		req.FileContent = content
	}

	result, err := h.documentService.Verify(c.Request.Context(), req)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	response := gin.H{"isValid": result.IsValid}
	if result.Certificate != nil {
		response["certificate"] = documentResponse{
			DocumentID:  result.Certificate.ID,
			OwnerID:     result.Certificate.OwnerID,
			Name:        result.Certificate.Name,
			Status:      string(result.Certificate.Status),
			SignerCount: result.Certificate.SignerCount,
			RequestedAt: result.Certificate.RequestedAt,
			BlobKey:     result.Certificate.BlobKey,
		}
	}
	c.JSON(http.StatusOK, response)
}
