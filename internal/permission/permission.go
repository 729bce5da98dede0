// Package permission provides the capability-check boundary. Services call
// Checker once per operation with a fixed key; how the decision is made
// (roles here, a policy engine elsewhere) is invisible to them.
package permission

import (
	"context"

	"github.com/google/uuid"

	"github.com/novus0x/nexolocal/internal/apierror"
	"github.com/novus0x/nexolocal/internal/repository"
)

// Capability keys used by the core operations.
const (
	CashOpen       = "company.cash.open"
	CashClose      = "company.cash.close"
	CashMove       = "company.cash.movement"
	CashRead       = "company.cash.read"
	SalesCreate    = "company.sales.create"
	SalesRead      = "company.sales.read"
	ProductsCreate = "company.products.create"
	ProductsRead   = "company.products.read"
)

// Checker answers "may this actor perform this capability in this company".
type Checker interface {
	Allowed(ctx context.Context, actorID, companyID uuid.UUID, key string) error
}

// roleGrants maps a role to its capability set. Owners hold every key.
var roleGrants = map[string]map[string]bool{
	"manager": {
		CashOpen: true, CashClose: true, CashMove: true, CashRead: true,
		SalesCreate: true, SalesRead: true,
		ProductsCreate: true, ProductsRead: true,
	},
	"cashier": {
		CashOpen: true, CashClose: true, CashRead: true,
		SalesCreate: true, SalesRead: true,
		ProductsRead: true,
	},
}

type roleChecker struct {
	users repository.UserRepository
}

// NewChecker builds the role-based Checker used in production.
func NewChecker(users repository.UserRepository) Checker {
	return &roleChecker{users: users}
}

func (c *roleChecker) Allowed(ctx context.Context, actorID, companyID uuid.UUID, key string) error {
	u, err := c.users.FindByID(ctx, actorID)
	if err != nil {
		return apierror.E(apierror.KindPermissionDenied, "unknown actor")
	}
	if !u.IsActive {
		return apierror.E(apierror.KindPermissionDenied, "account disabled")
	}
	if u.CompanyID == nil || *u.CompanyID != companyID {
		return apierror.E(apierror.KindPermissionDenied, "actor does not belong to this company")
	}
	if u.Role == "owner" {
		return nil
	}
	if grants, ok := roleGrants[u.Role]; ok && grants[key] {
		return nil
	}
	return apierror.Ef(apierror.KindPermissionDenied, "missing capability %s", key)
}

// AllowAll is a Checker that grants everything, for test wiring only.
type AllowAll struct{}

func (AllowAll) Allowed(context.Context, uuid.UUID, uuid.UUID, string) error { return nil }
