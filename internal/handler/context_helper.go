package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/andes-edu/colegio-admin-api/internal/middleware"
	"github.com/andes-edu/colegio-admin-api/internal/models"
	appErrors "github.com/andes-edu/colegio-admin-api/pkg/errors"
)

// currentClaims extracts the authenticated claims placed by the JWT middleware.
func currentClaims(c *gin.Context) (*models.JWTClaims, error) {
	value, ok := c.Get(middleware.ContextUserKey)
	if !ok {
		return nil, appErrors.ErrUnauthorized
	}
	claims, ok := value.(*models.JWTClaims)
	if !ok {
		return nil, appErrors.ErrUnauthorized
	}
	return claims, nil
}

// currentColegioID resolves the tenant scope for the request. Tokens without a
// colegio cannot touch the admin surface.
func currentColegioID(c *gin.Context) (string, error) {
	claims, err := currentClaims(c)
	if err != nil {
		return "", err
	}
	if claims.ColegioID == "" {
		return "", appErrors.Clone(appErrors.ErrForbidden, "colegioId missing in token")
	}
	return claims.ColegioID, nil
}
