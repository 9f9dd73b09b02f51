// internal/handlers/license.go
package handlers

import (
	"errors"
	"net/http"
	"path/filepath"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/javajoker/licensechain/internal/apperrors"
	"github.com/javajoker/licensechain/internal/i18n"
	"github.com/javajoker/licensechain/internal/models"
	"github.com/javajoker/licensechain/internal/services"
	"github.com/javajoker/licensechain/internal/utils"
)

type LicenseHandler struct {
	licenseService *services.LicenseService
	documents      services.DocumentStore
}

func NewLicenseHandler(licenseService *services.LicenseService, documents services.DocumentStore) *LicenseHandler {
	return &LicenseHandler{
		licenseService: licenseService,
		documents:      documents,
	}
}

// POST /licenses/apply
func (h *LicenseHandler) ApplyForLicense(c *gin.Context) {
	lang := utils.GetLangFromContext(c)
	caller, exists := utils.GetCallerFromContext(c)
	if !exists {
		utils.UnauthorizedResponse(c, "")
		return
	}

	var req services.ApplyLicenseRequest
	if err := c.ShouldBind(&req); err != nil {
		utils.BadRequestResponse(c, i18n.T(lang, i18n.KeyValidationInvalid, "input"), err.Error())
		return
	}

	// Validate request
	if validationErrors := utils.GetValidationErrors(utils.ValidateStruct(&req)); len(validationErrors) > 0 {
		utils.ValidationErrorResponse(c, validationErrors)
		return
	}
	if !models.ValidSubType(req.BusinessType, req.SubType) {
		utils.BadRequestResponse(c, i18n.T(lang, i18n.KeyValidationSubType, req.SubType, req.BusinessType), nil)
		return
	}

	// The document goes to storage first; the ledger only keeps its reference.
	if file, header, err := c.Request.FormFile("document"); err == nil {
		defer file.Close()
		if err := h.licenseService.CheckAvailable(c.Request.Context(), &req); err != nil {
			respondError(c, err)
			return
		}
		ref, err := h.documents.PutUpload(c.Request.Context(), file, header)
		if err != nil {
			h.documentError(c, header.Filename, err)
			return
		}
		req.DocumentReference = ref
	}
	if req.DocumentReference == "" {
		utils.AppErrorResponse(c, apperrors.MissingField("document"))
		return
	}

	receipt, err := h.licenseService.Submit(c.Request.Context(), caller, &req)
	if err != nil {
		respondError(c, err)
		return
	}

	utils.CreatedResponse(c, gin.H{
		"message": i18n.T(lang, i18n.KeyLicenseApplied),
		"receipt": receipt,
	})
}

func (h *LicenseHandler) documentError(c *gin.Context, filename string, err error) {
	lang := utils.GetLangFromContext(c)
	switch {
	case errors.Is(err, services.ErrDocumentTooLarge):
		utils.ErrorResponse(c, http.StatusRequestEntityTooLarge, "FILE_TOO_LARGE",
			i18n.T(lang, i18n.KeyFileTooLarge, h.documents.MaxDocumentMB()), nil)
	case errors.Is(err, services.ErrDocumentType):
		utils.BadRequestResponse(c, i18n.T(lang, i18n.KeyFileInvalidType, filepath.Ext(filename)), nil)
	default:
		logrus.WithError(err).Error("Document upload failed")
		utils.ErrorResponse(c, http.StatusBadGateway, "UPLOAD_FAILED", i18n.T(lang, i18n.KeyFileUploadFailed), nil)
	}
}

// GET /licenses/mine
func (h *LicenseHandler) GetMyLicenses(c *gin.Context) {
	caller, exists := utils.GetCallerFromContext(c)
	if !exists {
		utils.UnauthorizedResponse(c, "")
		return
	}

	params := utils.GetPaginationParams(c)
	records, err := h.licenseService.ListByApplicant(c.Request.Context(), caller)
	if err != nil {
		respondError(c, err)
		return
	}

	result := utils.CreatePaginationResult(utils.PaginateSlice(records, params), int64(len(records)), params)
	utils.PaginatedResponse(c, result)
}

// GET /licenses/:id
func (h *LicenseHandler) GetLicense(c *gin.Context) {
	caller, _ := utils.GetCallerFromContext(c)
	id, ok := licenseIDParam(c)
	if !ok {
		return
	}

	record, err := h.licenseService.GetForCaller(c.Request.Context(), caller, id)
	if err != nil {
		respondError(c, err)
		return
	}

	utils.SuccessResponse(c, gin.H{
		"license": record,
	})
}

// GET /licenses/:id/certificate
func (h *LicenseHandler) GetCertificate(c *gin.Context) {
	caller, _ := utils.GetCallerFromContext(c)
	id, ok := licenseIDParam(c)
	if !ok {
		return
	}

	cert, err := h.licenseService.Certificate(c.Request.Context(), caller, id)
	if err != nil {
		respondError(c, err)
		return
	}

	utils.SuccessResponse(c, gin.H{
		"certificate": cert,
	})
}

// GET /licenses/catalogue
func (h *LicenseHandler) GetCatalogue(c *gin.Context) {
	utils.SuccessResponse(c, gin.H{
		"business_types": models.BusinessCatalogue,
		"designations": []models.Designation{
			models.DesignationIndividual,
			models.DesignationPartner,
			models.DesignationProprietor,
		},
		"languages": i18n.GetSupportedLanguages(),
	})
}

func licenseIDParam(c *gin.Context) (uint64, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		utils.AppErrorResponse(c, apperrors.FormatError("license_id", c.Param("id"), "a positive integer"))
		return 0, false
	}
	return id, true
}

// respondError renders an engine error and logs anything the caller cannot
// act on.
func respondError(c *gin.Context, err error) {
	switch apperrors.KindOf(err) {
	case apperrors.KindInternal, apperrors.KindSchemaMismatch:
		logrus.WithError(err).WithField("request_id", c.GetString(utils.ContextKeyRequest)).Error("License engine failure")
	case apperrors.KindLedgerUnavailable:
		logrus.WithError(err).WithField("request_id", c.GetString(utils.ContextKeyRequest)).Warn("Ledger call failed")
	}
	utils.AppErrorResponse(c, err)
}
