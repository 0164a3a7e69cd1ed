// Package identity creates login accounts for newly registered staff.
package identity

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/medinsight/staff-admin/internal/auth"
	"github.com/medinsight/staff-admin/internal/domain"
)

const initialPasswordLength = 16

// Account is the login account created for a staff member.
type Account struct {
	ID string
	// InitialPassword is the generated first password, delivered out of band.
	InitialPassword string
	// PasswordHash is set when this service verifies the password itself.
	PasswordHash string
}

// Provisioner creates an account and grants the realm role for the staff type.
// An empty password asks the provisioner to generate one.
type Provisioner interface {
	Provision(ctx context.Context, staff *domain.Staff, password string) (Account, error)
}

// LocalProvisioner keeps accounts in the staff table: a uuid account id and a
// bcrypt hash that /auth/login verifies.
type LocalProvisioner struct {
	bcryptCost int
}

// NewLocalProvisioner builds a provisioner hashing with cost.
func NewLocalProvisioner(bcryptCost int) *LocalProvisioner {
	return &LocalProvisioner{bcryptCost: bcryptCost}
}

func (p *LocalProvisioner) Provision(_ context.Context, staff *domain.Staff, password string) (Account, error) {
	if !staff.Type.Valid() {
		return Account{}, fmt.Errorf("unknown staff type %q", staff.Type)
	}
	password, err := initialPassword(password)
	if err != nil {
		return Account{}, err
	}
	hash, err := auth.HashPassword(password, p.bcryptCost)
	if err != nil {
		return Account{}, fmt.Errorf("hash password: %w", err)
	}
	return Account{
		ID:              uuid.NewString(),
		InitialPassword: password,
		PasswordHash:    hash,
	}, nil
}

func initialPassword(chosen string) (string, error) {
	if chosen != "" {
		return chosen, nil
	}
	generated, err := auth.GeneratePassword(initialPasswordLength)
	if err != nil {
		return "", fmt.Errorf("generate password: %w", err)
	}
	return generated, nil
}
