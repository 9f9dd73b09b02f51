// internal/handlers/verification.go
package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/javajoker/licensechain/internal/i18n"
	"github.com/javajoker/licensechain/internal/services"
	"github.com/javajoker/licensechain/internal/utils"
)

type VerificationHandler struct {
	verificationService *services.VerificationService
}

func NewVerificationHandler(verificationService *services.VerificationService) *VerificationHandler {
	return &VerificationHandler{
		verificationService: verificationService,
	}
}

// VerifyRequest is validated by the service so that a missing field and a
// malformed one produce the same error kinds as any other caller.
type VerifyRequest struct {
	LicenseID          string `json:"license_id" form:"license_id"`
	RegistrationNumber string `json:"registration_number" form:"registration_number"`
}

// POST /verify
// Both factors travel in the body so the registration number stays out of
// access logs.
func (h *VerificationHandler) VerifyLicense(c *gin.Context) {
	lang := utils.GetLangFromContext(c)

	var req VerifyRequest
	if err := c.ShouldBind(&req); err != nil {
		utils.BadRequestResponse(c, i18n.T(lang, i18n.KeyValidationInvalid, "input"), err.Error())
		return
	}

	result, err := h.verificationService.Verify(c.Request.Context(), req.LicenseID, req.RegistrationNumber)
	if err != nil {
		respondError(c, err)
		return
	}

	utils.SuccessResponse(c, gin.H{
		"message":      i18n.T(lang, i18n.KeyVerificationSuccess),
		"verification": result,
	})
}
