package commands

import (
	"context"
	"fmt"
	"net/mail"

	"github.com/google/uuid"
	"github.com/jcpaschoal/crm-tenancy/business/domain/lifecyclebus"
	"github.com/jcpaschoal/crm-tenancy/business/domain/policybus"
	"github.com/jcpaschoal/crm-tenancy/business/types/name"
	"github.com/jcpaschoal/crm-tenancy/business/types/password"
)

// SeedSuperAdmin creates the platform super admin and prints the principal
// id to pass as --operator to the tenant commands.
func SeedSuperAdmin(ctx context.Context, lifecycle *lifecyclebus.Core, fullName string, email string, pass string) error {
	nme, addr, pw, err := parseAccount(fullName, email, pass)
	if err != nil {
		return err
	}

	m, err := lifecycle.SeedSuperAdmin(ctx, nme, addr, pw)
	if err != nil {
		return fmt.Errorf("seed super admin: %w", err)
	}

	fmt.Println("super admin created, principal id:", m.PrincipalID)

	return nil
}

// AddSuperAdmin creates another super admin on behalf of the operator.
func AddSuperAdmin(ctx context.Context, lifecycle *lifecyclebus.Core, op policybus.Caller, fullName string, email string, pass string) (uuid.UUID, error) {
	nme, addr, pw, err := parseAccount(fullName, email, pass)
	if err != nil {
		return uuid.Nil, err
	}

	m, err := lifecycle.AddSuperAdmin(ctx, op, nme, addr, pw)
	if err != nil {
		return uuid.Nil, fmt.Errorf("add super admin: %w", err)
	}

	fmt.Println("super admin created, principal id:", m.PrincipalID)

	return m.PrincipalID, nil
}

func parseAccount(fullName string, email string, pass string) (name.Name, mail.Address, password.Password, error) {
	nme, err := name.Parse(fullName)
	if err != nil {
		return name.Name{}, mail.Address{}, password.Password{}, fmt.Errorf("parse name: %w", err)
	}

	addr, err := mail.ParseAddress(email)
	if err != nil {
		return name.Name{}, mail.Address{}, password.Password{}, fmt.Errorf("parse email: %w", err)
	}

	pw, err := password.Parse(pass)
	if err != nil {
		return name.Name{}, mail.Address{}, password.Password{}, fmt.Errorf("parse password: %w", err)
	}

	return nme, *addr, pw, nil
}
