package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/argentavis/qr-service/internal/api/dto"
	"github.com/argentavis/qr-service/internal/api/model"
	"github.com/argentavis/qr-service/internal/api/storage"
	workerdomain "github.com/argentavis/qr-service/internal/worker/domain"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// Provision handles POST /api/v1/qr-codes/provision
// Enqueues N provisioning jobs and returns immediately; the caller does not
// wait for artifacts to be generated.
func (h *QRHandler) Provision(c *gin.Context) {
	var req dto.ProvisionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Error("Invalid request body", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid request body",
		})
		return
	}

	count := req.Count
	if count > h.maxBatchSize {
		count = h.maxBatchSize
	}

	enqueued := 0
	for i := 0; i < count; i++ {
		msg := workerdomain.JobMessage{
			JobID:     uuid.New().String(),
			CreatedAt: time.Now(),
		}

		body, err := json.Marshal(msg)
		if err != nil {
			h.logger.Error("Failed to marshal job message", slog.String("error", err.Error()))
			continue
		}

		if err := h.publisher.PublishWithRetry(c.Request.Context(), body, "application/json"); err != nil {
			h.logger.Error("Failed to enqueue provisioning job",
				slog.String("job_id", msg.JobID),
				slog.String("error", err.Error()),
			)
			continue
		}

		enqueued++
	}

	h.logger.Info("Provisioning jobs enqueued",
		slog.Int("requested", req.Count),
		slog.Int("enqueued", enqueued),
	)

	c.JSON(http.StatusAccepted, dto.ProvisionResponse{Enqueued: enqueued})
}

// GetQRCode handles GET /api/v1/qr-codes/:uuid
func (h *QRHandler) GetQRCode(c *gin.Context) {
	id := c.Param("uuid")

	if _, err := uuid.Parse(id); err != nil {
		h.logger.Error("Invalid uuid format", slog.String("uuid", id), slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "uuid must be a valid UUID",
		})
		return
	}

	qr, err := h.storage.GetByUUID(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{
				"error": "QR code not found",
			})
			return
		}
		h.logger.Error("Failed to get qr code", slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to get QR code",
		})
		return
	}

	c.JSON(http.StatusOK, toDTO(qr))
}

// ListQRCodes handles GET /api/v1/qr-codes
// Lists QR records with optional activation filtering and cursor pagination
func (h *QRHandler) ListQRCodes(c *gin.Context) {
	var req dto.ListQRCodesRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		h.logger.Error("Invalid query parameters", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid query parameters",
		})
		return
	}

	if req.PageSize <= 0 {
		req.PageSize = 20
	}
	if req.PageSize > 100 {
		req.PageSize = 100
	}

	cursor, err := DecodeQRCursor(req.Cursor)
	if err != nil {
		h.logger.Error("Invalid cursor", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid cursor",
		})
		return
	}

	filter := storage.QRFilter{
		Activated: req.Activated,
		PageSize:  req.PageSize,
		Cursor:    cursor,
	}

	qrCodes, err := h.storage.ListQRCodes(c.Request.Context(), filter)
	if err != nil {
		h.logger.Error("Failed to list qr codes", slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to list QR codes",
		})
		return
	}

	hasMore := len(qrCodes) > req.PageSize
	if hasMore {
		qrCodes = qrCodes[:req.PageSize]
	}

	response := make([]dto.QRCodeDTO, len(qrCodes))
	for i := range qrCodes {
		response[i] = *toDTO(&qrCodes[i])
	}

	var nextCursor string
	if hasMore {
		last := qrCodes[len(qrCodes)-1]
		nextCursor = EncodeQRCursor(&storage.QRCursor{
			CreatedAt: last.CreatedAt,
			UUID:      last.UUID,
		})
	}

	c.JSON(http.StatusOK, dto.ListQRCodesResponse{
		QRCodes:    response,
		NextCursor: nextCursor,
	})
}

func toDTO(qr *model.QRCode) *dto.QRCodeDTO {
	return &dto.QRCodeDTO{
		UUID:          qr.UUID,
		ArtifactURL:   qr.ArtifactURL,
		AccountNumber: qr.AccountNumber,
		FirstName:     qr.FirstName,
		LastName:      qr.LastName,
		IsActivated:   qr.IsActivated,
		CreatedAt:     qr.CreatedAt.Format(time.RFC3339),
		UpdatedAt:     qr.UpdatedAt.Format(time.RFC3339),
	}
}
