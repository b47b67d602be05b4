// Package commands contains the functionality for the set of commands
// currently supported by the admin tool.
package commands

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jcpaschoal/crm-tenancy/business/domain/lifecyclebus"
	"github.com/jcpaschoal/crm-tenancy/business/domain/policybus"
	"github.com/jcpaschoal/crm-tenancy/business/types/role"
)

// ErrHelp provides context that help was given.
var ErrHelp = errors.New("provided help")

// Operator resolves the super admin a tenant command runs as. The principal
// must hold a current super_admin membership.
func Operator(ctx context.Context, lifecycle *lifecyclebus.Core, principalID string) (policybus.Caller, error) {
	if principalID == "" {
		return policybus.Caller{}, errors.New("--operator is required")
	}

	id, err := uuid.Parse(principalID)
	if err != nil {
		return policybus.Caller{}, fmt.Errorf("parse operator: %w", err)
	}

	caller := policybus.Caller{
		PrincipalID: id,
		Role:        role.SuperAdmin,
	}

	if err := lifecycle.CheckTenantActive(ctx, caller); err != nil {
		return policybus.Caller{}, fmt.Errorf("operator %s is not a super admin: %w", id, err)
	}

	return caller, nil
}
