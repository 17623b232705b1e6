package response

import (
	"net/http"

	"github.com/gin-gonic/gin"

	appErrors "github.com/andes-edu/colegio-admin-api/pkg/errors"
)

// OK sends a success envelope merging the payload keys at the top level
// alongside the ok flag, matching the admin console contract.
func OK(c *gin.Context, status int, payload gin.H) {
	c.Header("Cache-Control", "no-store")
	c.Header("Pragma", "no-cache")
	body := gin.H{"ok": true}
	for k, v := range payload {
		body[k] = v
	}
	c.JSON(status, body)
}

// Created responds with HTTP 201 Created.
func Created(c *gin.Context, payload gin.H) {
	OK(c, http.StatusCreated, payload)
}

// Error sends an error envelope converting the error to the common structure.
func Error(c *gin.Context, err error) {
	appErr := appErrors.FromError(err)
	c.Header("Cache-Control", "no-store")
	c.Header("Pragma", "no-cache")
	c.JSON(appErr.Status, gin.H{"ok": false, "error": appErr})
}

// NoContent sends a 204 response.
func NoContent(c *gin.Context) {
	c.Status(http.StatusNoContent)
}
