// internal/handlers/admin.go
package handlers

import (
	"context"
	"strconv"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/javajoker/licensechain/internal/apperrors"
	"github.com/javajoker/licensechain/internal/i18n"
	"github.com/javajoker/licensechain/internal/models"
	"github.com/javajoker/licensechain/internal/services"
	"github.com/javajoker/licensechain/internal/utils"
)

type AdminHandler struct {
	licenseService *services.LicenseService
	db             *gorm.DB
}

// NewAdminHandler takes an optional db; without one the audit trail endpoint
// returns an empty page.
func NewAdminHandler(licenseService *services.LicenseService, db *gorm.DB) *AdminHandler {
	return &AdminHandler{
		licenseService: licenseService,
		db:             db,
	}
}

// GET /admin/licenses
func (h *AdminHandler) GetLicenses(c *gin.Context) {
	caller, _ := utils.GetCallerFromContext(c)
	params := utils.GetPaginationParams(c)

	filter := services.AdminLicenseFilter{
		Search: params.Search,
	}

	// Parse filters
	if params.Status != "" {
		status, err := models.ParseLicenseStatus(params.Status)
		if err != nil {
			utils.AppErrorResponse(c, apperrors.FormatError("status", params.Status, "Pending, Approved, Rejected or Revoked"))
			return
		}
		filter.Status = &status
	}
	if includeRevoked := c.Query("include_revoked"); includeRevoked != "" {
		filter.IncludeRevoked, _ = strconv.ParseBool(includeRevoked)
	}

	records, err := h.licenseService.ListForAdmin(c.Request.Context(), caller, filter)
	if err != nil {
		respondError(c, err)
		return
	}

	result := utils.CreatePaginationResult(utils.PaginateSlice(records, params), int64(len(records)), params)
	utils.PaginatedResponse(c, result)
}

// GET /admin/licenses/stats
func (h *AdminHandler) GetLicenseStats(c *gin.Context) {
	caller, _ := utils.GetCallerFromContext(c)

	stats, err := h.licenseService.Stats(c.Request.Context(), caller)
	if err != nil {
		respondError(c, err)
		return
	}

	utils.SuccessResponse(c, gin.H{
		"stats": stats,
	})
}

// POST /admin/licenses/:id/approve
func (h *AdminHandler) ApproveLicense(c *gin.Context) {
	h.transition(c, h.licenseService.Approve, i18n.KeyLicenseApproved)
}

// POST /admin/licenses/:id/reject
func (h *AdminHandler) RejectLicense(c *gin.Context) {
	h.transition(c, h.licenseService.Reject, i18n.KeyLicenseRejected)
}

// POST /admin/licenses/:id/revoke
func (h *AdminHandler) RevokeLicense(c *gin.Context) {
	h.transition(c, h.licenseService.Revoke, i18n.KeyLicenseRevoked)
}

type transitionFunc func(ctx context.Context, caller string, id uint64) (*services.TransitionResult, error)

func (h *AdminHandler) transition(c *gin.Context, apply transitionFunc, messageKey string) {
	lang := utils.GetLangFromContext(c)
	caller, _ := utils.GetCallerFromContext(c)
	id, ok := licenseIDParam(c)
	if !ok {
		return
	}

	result, err := apply(c.Request.Context(), caller, id)
	if err != nil {
		respondError(c, err)
		return
	}

	utils.SuccessResponse(c, gin.H{
		"message": i18n.T(lang, messageKey),
		"tx_hash": result.TxHash,
		"license": result.License,
	})
}

// GET /admin/audit-logs
func (h *AdminHandler) GetAuditLogs(c *gin.Context) {
	params := utils.GetPaginationParams(c)

	var logs []models.AuditLog
	var total int64
	if h.db != nil {
		query := h.db.WithContext(c.Request.Context()).Model(&models.AuditLog{})
		if caller := c.Query("caller"); caller != "" {
			query = query.Where("LOWER(caller_identity) = LOWER(?)", caller)
		}
		if id, err := strconv.ParseUint(c.Query("license_id"), 10, 64); err == nil {
			query = query.Where("license_id = ?", id)
		}

		if err := query.Count(&total).Error; err != nil {
			respondError(c, apperrors.Internal("failed to count audit logs", err))
			return
		}
		if err := utils.ApplyPagination(query.Order("created_at DESC"), params).Find(&logs).Error; err != nil {
			respondError(c, apperrors.Internal("failed to load audit logs", err))
			return
		}
	}

	result := utils.CreatePaginationResult(logs, total, params)
	utils.PaginatedResponse(c, result)
}
