// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package server

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/pdiddy/pdf-annotate/pkg/types"
)

// tooLargeError reports an upload over the configured size limit.
type tooLargeError struct {
	limitMB int64
}

func (e *tooLargeError) Error() string {
	return fmt.Sprintf("file exceeds the %d MB upload limit", e.limitMB)
}

// statusFor maps the error taxonomy onto HTTP status codes.
func statusFor(err error) int {
	var (
		tooLarge *tooLargeError
		maxBytes *http.MaxBytesError
		upload   *types.UploadError
		parse    *types.DocumentParseError
		suggest  *types.SuggestionError
	)
	switch {
	case errors.As(err, &tooLarge), errors.As(err, &maxBytes):
		return http.StatusRequestEntityTooLarge
	case errors.As(err, &upload):
		return http.StatusBadRequest
	case errors.As(err, &parse):
		return http.StatusUnprocessableEntity
	case errors.As(err, &suggest):
		return http.StatusBadGateway
	default:
		// AnnotationWriteError and anything unexpected.
		return http.StatusInternalServerError
	}
}

// message renders err for the person at the browser.
func message(err error) string {
	var (
		maxBytes *http.MaxBytesError
		upload   *types.UploadError
	)
	switch {
	case errors.As(err, &maxBytes):
		return fmt.Sprintf("file exceeds the %d MB upload limit", maxBytes.Limit>>20)
	case errors.As(err, &upload):
		return upload.Reason
	default:
		return err.Error()
	}
}

// writeError answers with an HTML error page when the client is a browser
// navigating, and with {"error": msg} otherwise.
func writeError(c *gin.Context, err error) {
	status := statusFor(err)
	msg := message(err)
	_ = c.Error(err)

	if wantsHTML(c) {
		c.HTML(status, "error.html", gin.H{
			"Status":  status,
			"Title":   http.StatusText(status),
			"Message": msg,
		})
		return
	}
	c.JSON(status, gin.H{"error": msg})
}

func wantsHTML(c *gin.Context) bool {
	return strings.Contains(c.GetHeader("Accept"), "text/html")
}
