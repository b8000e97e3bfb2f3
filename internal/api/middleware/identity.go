package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/Amir-debuug/cert-verification-sub001/internal/db/models"
	"github.com/Amir-debuug/cert-verification-sub001/internal/store"
)

// IdentityMiddleware resolves the caller's account. Transport
// authentication happens upstream; the gateway forwards the
// authenticated account id in X-Account-ID.
type IdentityMiddleware struct {
	accounts *store.Store[models.Account]
}

func NewIdentityMiddleware(database *gorm.DB) *IdentityMiddleware {
	return &IdentityMiddleware{accounts: store.New[models.Account](database)}
}

func (im *IdentityMiddleware) RequireAccount() gin.HandlerFunc {
	return func(c *gin.Context) {
		accountID := c.GetHeader("X-Account-ID")
		if accountID == "" {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "no account identity supplied"})
			return
		}

		account, err := im.accounts.FindByID(c.Request.Context(), accountID)
		if err != nil || !account.Active {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "unknown or inactive account"})
			return
		}

		c.Set("accountID", account.ID)
		c.Set("role", string(account.Role))
		c.Next()
	}
}
