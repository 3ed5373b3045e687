// Package permissions is the role-to-capability gate consulted before any
// dashboard panel, export or admin action is served. Capabilities form a
// fixed enumerated set; the mapping is a static matrix with optional
// per-role overrides stored in the database.
package permissions

import (
	"context"

	"github.com/wnusair/miami-MTI/pkg/logging"
	"github.com/wnusair/miami-MTI/pkg/models"
)

// Capability names.
const (
	CapViewPanel1     = "view_panel_1" // live sensor feed
	CapViewPanel2     = "view_panel_2" // current status / KPIs
	CapViewPanel3     = "view_panel_3" // historical logs
	CapViewPanel4     = "view_panel_4" // device health
	CapExportData     = "export_data"
	CapEditData       = "edit_data"
	CapManageUsers    = "manage_users"
	CapViewAccessLogs = "view_access_logs"
)

// Built-in role names, most to least privileged.
const (
	RoleManager  = "Manager"
	RoleEngineer = "Engineer"
	RoleOperator = "Operator"
	RoleAudit    = "Audit"
	RoleInvestor = "Investor"
)

// defaults is the static matrix applied when a role has no stored override.
var defaults = map[string]models.Permissions{
	RoleInvestor: {
		CanViewPanel1: true,
		CanViewPanel2: true,
	},
	RoleAudit: {
		CanViewPanel1:     true,
		CanViewPanel2:     true,
		CanViewPanel3:     true,
		CanExportData:     true,
		CanViewAccessLogs: true,
	},
	RoleOperator: {
		CanViewPanel1: true,
		CanViewPanel2: true,
		CanViewPanel3: true,
		CanViewPanel4: true,
	},
	RoleEngineer: {
		CanViewPanel1: true,
		CanViewPanel2: true,
		CanViewPanel3: true,
		CanViewPanel4: true,
		CanExportData: true,
		CanEditData:   true,
	},
	RoleManager: {
		CanViewPanel1:     true,
		CanViewPanel2:     true,
		CanViewPanel3:     true,
		CanViewPanel4:     true,
		CanExportData:     true,
		CanEditData:       true,
		CanManageUsers:    true,
		CanViewAccessLogs: true,
	},
}

// Defaults returns a copy of the static matrix, keyed by role name.
func Defaults() map[string]models.Permissions {
	out := make(map[string]models.Permissions, len(defaults))
	for role, perms := range defaults {
		out[role] = perms
	}
	return out
}

// DefaultRoles returns the built-in role names in seeding order.
func DefaultRoles() []string {
	return []string{RoleManager, RoleEngineer, RoleOperator, RoleInvestor, RoleAudit}
}

// Source provides stored per-role overrides. The boolean reports whether an
// override exists.
type Source interface {
	GetPermissions(ctx context.Context, role string) (models.Permissions, bool, error)
}

// Gate answers role/capability questions. A nil source means static
// defaults only.
type Gate struct {
	source Source
	logger logging.Logger
}

// NewGate creates a permission gate.
func NewGate(source Source, logger logging.Logger) *Gate {
	return &Gate{source: source, logger: logger}
}

// PermissionsFor resolves the effective capability set for a role: the
// stored override when one exists, the static default otherwise, and an
// empty set for unknown roles. Lookup failures log and fall back to the
// static matrix; a denial is safer than a hard error on every request.
func (g *Gate) PermissionsFor(ctx context.Context, role string) models.Permissions {
	if g.source != nil {
		perms, found, err := g.source.GetPermissions(ctx, role)
		if err != nil {
			g.logger.WithError(err).WithField("role", role).Warn("Permission lookup failed, using defaults")
		} else if found {
			return perms
		}
	}
	return defaults[role]
}

// Allow reports whether a role holds a capability. Unknown roles and
// unknown capabilities are always denied.
func (g *Gate) Allow(ctx context.Context, role, capability string) bool {
	perms := g.PermissionsFor(ctx, role)
	switch capability {
	case CapViewPanel1:
		return perms.CanViewPanel1
	case CapViewPanel2:
		return perms.CanViewPanel2
	case CapViewPanel3:
		return perms.CanViewPanel3
	case CapViewPanel4:
		return perms.CanViewPanel4
	case CapExportData:
		return perms.CanExportData
	case CapEditData:
		return perms.CanEditData
	case CapManageUsers:
		return perms.CanManageUsers
	case CapViewAccessLogs:
		return perms.CanViewAccessLogs
	default:
		return false
	}
}
