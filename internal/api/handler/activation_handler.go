package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/argentavis/qr-service/internal/activation/domain"
	"github.com/argentavis/qr-service/internal/api/dto"
	"github.com/gin-gonic/gin"
)

// Resolve handles POST /api/v1/activations/resolve
// Looks up the bank account behind the request, binds it to the QR record and
// kicks off the OTP delivery.
func (h *ActivationHandler) Resolve(c *gin.Context) {
	var req dto.ResolveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Error("Invalid request body", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid request body",
		})
		return
	}

	account, err := h.activation.Resolve(c.Request.Context(), req.QRUUID, req.AccountNumber)
	if err != nil {
		h.respondResolveError(c, req.QRUUID, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"account_number": account.AccountNumber,
		"account_name":   account.AccountName,
	})
}

func (h *ActivationHandler) respondResolveError(c *gin.Context, qrUUID string, err error) {
	var provErr *domain.ProviderError

	switch {
	case errors.Is(err, domain.ErrRecordNotFound):
		c.JSON(http.StatusNotFound, gin.H{
			"error": "QR code not found",
		})
	case errors.Is(err, domain.ErrAlreadyActivated):
		c.JSON(http.StatusConflict, gin.H{
			"error": "QR code already activated",
		})
	case errors.Is(err, domain.ErrAccountInUse):
		c.JSON(http.StatusConflict, gin.H{
			"error": "Account already in use",
		})
	case errors.As(err, &provErr):
		h.logger.Error("Upstream provider failure",
			slog.String("qr_uuid", qrUUID),
			slog.String("provider", provErr.Provider),
			slog.String("error", err.Error()),
		)
		c.JSON(http.StatusBadGateway, gin.H{
			"error": "Account resolution is temporarily unavailable",
		})
	default:
		h.logger.Error("Failed to resolve account",
			slog.String("qr_uuid", qrUUID),
			slog.String("error", err.Error()),
		)
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to resolve account",
		})
	}
}

// Verify handles POST /api/v1/activations/verify
func (h *ActivationHandler) Verify(c *gin.Context) {
	var req dto.VerifyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Error("Invalid request body", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid request body",
		})
		return
	}

	account, err := h.activation.Verify(c.Request.Context(), req.AccountNumber, req.OTP)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrOTPNotFound):
			c.JSON(http.StatusNotFound, gin.H{
				"error": "OTP not found",
			})
		case errors.Is(err, domain.ErrIncorrectOTP):
			c.JSON(http.StatusBadRequest, gin.H{
				"error": "Incorrect OTP",
			})
		case errors.Is(err, domain.ErrTooManyAttempts):
			c.JSON(http.StatusTooManyRequests, gin.H{
				"error": "Too many attempts, request a new code",
			})
		default:
			h.logger.Error("Failed to verify OTP",
				slog.String("account_number", req.AccountNumber),
				slog.String("error", err.Error()),
			)
			c.JSON(http.StatusInternalServerError, gin.H{
				"error": "Failed to verify OTP",
			})
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"account_number": account.AccountNumber,
		"account_name":   account.AccountName,
	})
}
