package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/Amir-debuug/cert-verification-sub001/internal/services"
)

type CertificateHandler struct {
	certificateService *services.CertificateService
	logger             *zap.Logger
}

func NewCertificateHandler(certificateService *services.CertificateService, logger *zap.Logger) *CertificateHandler {
	return &CertificateHandler{
		certificateService: certificateService,
		logger:             logger.With(zap.String("handler", "certificate")),
	}
}

type enrollSignerBody struct {
	AccountID string `json:"accountId"`
	Name      string `json:"name"`
	Email     string `json:"email"`
	Signed    bool   `json:"signed"`
}

func (h *CertificateHandler) EnrollSigner(c *gin.Context) {
	var body enrollSignerBody
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "malformed signer request"})
		return
	}

	accountID, err := h.certificateService.EnrollSigner(
		c.Request.Context(),
		c.GetString("accountID"),
		c.Param("id"),
		services.SignerInfo{AccountID: body.AccountID, Name: body.Name, Email: body.Email},
		body.Signed,
	)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"accountId": accountID})
}

func (h *CertificateHandler) AddAdminSigner(c *gin.Context) {
	err := h.certificateService.AddAdminSigner(c.Request.Context(), c.GetString("accountID"), c.Param("id"))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"status": "signed"})
}

func (h *CertificateHandler) AddComment(c *gin.Context) {
	var body struct {
		Comment string `json:"comment"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "malformed comment request"})
		return
	}

	commentID, err := h.certificateService.AddComment(c.Request.Context(), c.GetString("accountID"), c.Param("id"), body.Comment)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"commentId": commentID})
}

func (h *CertificateHandler) ListComments(c *gin.Context) {
	comments, err := h.certificateService.ListComments(c.Request.Context(), c.GetString("accountID"), c.Param("id"))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	type commentResponse struct {
		CommentID string    `json:"commentId"`
		AccountID string    `json:"accountId"`
		Comment   string    `json:"comment"`
		CreatedAt time.Time `json:"createdAt"`
	}
	items := make([]commentResponse, 0, len(comments))
	for _, cm := range comments {
		items = append(items, commentResponse{
			CommentID: cm.ID,
			AccountID: cm.AccountID,
			Comment:   cm.Comment,
			CreatedAt: cm.CreatedAt,
		})
	}
	c.JSON(http.StatusOK, gin.H{"comments": items})
}

func (h *CertificateHandler) GetHistory(c *gin.Context) {
	entries, err := h.certificateService.GetHistory(c.Request.Context(), c.GetString("accountID"), c.Param("id"))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	type historyResponse struct {
		Event    string    `json:"event"`
		Name     string    `json:"name"`
		Email    string    `json:"email,omitempty"`
		SignedOn time.Time `json:"signedOn"`
	}
	items := make([]historyResponse, 0, len(entries))
	for _, e := range entries {
		items = append(items, historyResponse{
			Event:    e.Event,
			Name:     e.Name,
			Email:    e.Email,
			SignedOn: e.SignedOn,
		})
	}
	c.JSON(http.StatusOK, gin.H{"history": items})
}
