package httpapi

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/semmidev/sqlvault/internal/domain"
)

type handler struct {
	backup  BackupRunner
	restore RestoreRunner
	catalog Catalog
}

type errorResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
}

type backupResponse struct {
	Success    bool   `json:"success"`
	BackupFile string `json:"backupFile"`
}

type backupEntry struct {
	Filename string `json:"filename"`
	Date     string `json:"date"`
	Size     int64  `json:"size"`
}

type restoreRequest struct {
	Filename string `json:"filename" binding:"required"`
}

type restoreResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// Started tools run to completion or backup.command_timeout; a client that
// goes away does not cancel them.
func (h *handler) createBackup(c *gin.Context) {
	snapshot, err := h.backup.Execute(context.WithoutCancel(c.Request.Context()))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, backupResponse{Success: true, BackupFile: snapshot.Filename})
}

func (h *handler) listBackups(c *gin.Context) {
	snapshots, err := h.catalog.ListBackups(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}

	entries := make([]backupEntry, 0, len(snapshots))
	for _, s := range snapshots {
		entries = append(entries, backupEntry{
			Filename: s.Filename,
			Date:     s.CreatedAt.UTC().Format(time.RFC3339),
			Size:     s.Size,
		})
	}

	c.JSON(http.StatusOK, entries)
}

func (h *handler) restoreBackup(c *gin.Context) {
	var req restoreRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse{Success: false, Error: "filename is required"})
		return
	}

	if err := h.restore.Execute(context.WithoutCancel(c.Request.Context()), req.Filename); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, restoreResponse{Success: true, Message: "Database restored from " + req.Filename})
}

func respondError(c *gin.Context, err error) {
	c.JSON(statusFor(err), errorResponse{Success: false, Error: err.Error()})
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrConfiguration):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrBackupNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrConflict):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}
