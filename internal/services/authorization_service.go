// internal/services/authorization_service.go
package services

import (
	"strings"

	"github.com/javajoker/licensechain/internal/apperrors"
)

// AdminGate decides who may run administrative transitions. There is exactly
// one administrator identity, injected at startup.
type AdminGate struct {
	administrator string
}

func NewAdminGate(administrator string) *AdminGate {
	return &AdminGate{administrator: strings.TrimSpace(administrator)}
}

// IsAdministrator is a case-insensitive comparison against the configured
// identity. An empty caller is never the administrator.
func (g *AdminGate) IsAdministrator(caller string) bool {
	caller = strings.TrimSpace(caller)
	return caller != "" && g.administrator != "" && strings.EqualFold(caller, g.administrator)
}

// Require returns Unauthorized unless caller is the administrator.
func (g *AdminGate) Require(caller, action string) error {
	if !g.IsAdministrator(caller) {
		return apperrors.Unauthorized(strings.TrimSpace(caller), action)
	}
	return nil
}

func (g *AdminGate) Administrator() string {
	return g.administrator
}
