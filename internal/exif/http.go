package exif

import (
	"context"
	"errors"
	"mime/multipart"
	"net/http"

	"github.com/gin-gonic/gin"
)

// InspectService はアップロード系ハンドラーが利用するサービスです。
type InspectService interface {
	Inspect(ctx context.Context, file *multipart.FileHeader) (*Report, error)
	InspectReadable(ctx context.Context, file *multipart.FileHeader) (*ReadableReport, error)
}

// UploadHandler は POST /upload のハンドラーを返します。
func UploadHandler(svc InspectService) gin.HandlerFunc {
	return func(c *gin.Context) {
		file, err := formImage(c)
		if err != nil {
			respondWithError(c, err)
			return
		}

		report, err := svc.Inspect(c.Request.Context(), file)
		if err != nil {
			respondWithError(c, err)
			return
		}

		c.JSON(http.StatusOK, report)
	}
}

// UploadReadableHandler は POST /upload-readable のハンドラーを返します。
func UploadReadableHandler(svc InspectService) gin.HandlerFunc {
	return func(c *gin.Context) {
		file, err := formImage(c)
		if err != nil {
			respondWithError(c, err)
			return
		}

		report, err := svc.InspectReadable(c.Request.Context(), file)
		if err != nil {
			respondWithError(c, err)
			return
		}

		c.JSON(http.StatusOK, report)
	}
}

func formImage(c *gin.Context) (*multipart.FileHeader, error) {
	file, err := c.FormFile("image")
	if err != nil {
		return nil, newError("NO_FILE", "No file uploaded", nil)
	}
	return file, nil
}

func respondWithError(c *gin.Context, err error) {
	var apiErr *Error
	if !errors.As(err, &apiErr) {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Something went wrong!",
		})
		return
	}

	switch apiErr.Code {
	case "NO_FILE", "UNSUPPORTED_MEDIA_TYPE", "PAYLOAD_TOO_LARGE":
		c.JSON(http.StatusBadRequest, gin.H{
			"error": apiErr.Message,
		})
	case "EXTRACTION_FAILED":
		details := ""
		if apiErr.Err != nil {
			details = apiErr.Err.Error()
		}
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   apiErr.Message,
			"details": details,
		})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Something went wrong!",
		})
	}
}
