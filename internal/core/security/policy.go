package security

import (
	"fmt"
	"sort"

	"github.com/google/cel-go/cel"

	"dsrsales/internal/core/apperror"
	appctx "dsrsales/internal/core/context"
)

// Operation names guarded by the access policy.
const (
	OpCatalogRead   = "catalog.read"
	OpCatalogWrite  = "catalog.write"
	OpStockRead     = "stock.read"
	OpStockAdd      = "stock.add"
	OpStockAllocate = "stock.allocate"
	OpStockReturn   = "stock.return"
	OpSaleCreate    = "sale.create"
	OpSaleRead      = "sale.read"
	OpSaleReverse   = "sale.reverse"
	OpUserAdmin     = "user.admin"
	OpDashboard     = "dashboard.read"
	OpSearch        = "search.read"
)

// DefaultRules maps every operation to a CEL expression over `role` and `user_id`.
var DefaultRules = map[string]string{
	OpCatalogRead:   `role != ""`,
	OpCatalogWrite:  `role in ["admin", "manager"]`,
	OpStockRead:     `role != ""`,
	OpStockAdd:      `role in ["admin", "manager"]`,
	OpStockAllocate: `role in ["admin", "manager"]`,
	OpStockReturn:   `role in ["admin", "manager"]`,
	OpSaleCreate:    `role in ["admin", "manager", "sales"]`,
	OpSaleRead:      `role != ""`,
	OpSaleReverse:   `role in ["admin", "manager"]`,
	OpUserAdmin:     `role == "admin"`,
	OpDashboard:     `role in ["admin", "manager"]`,
	OpSearch:        `role != ""`,
}

// AccessPolicy evaluates compiled role rules. Rules are compiled once and are
// safe for concurrent use.
type AccessPolicy struct {
	programs map[string]cel.Program
}

// NewAccessPolicy compiles rules. An invalid or non-boolean expression fails the whole set.
func NewAccessPolicy(rules map[string]string) (*AccessPolicy, error) {
	env, err := cel.NewEnv(
		cel.Variable("role", cel.StringType),
		cel.Variable("user_id", cel.StringType),
	)
	if err != nil {
		return nil, fmt.Errorf("create cel env: %w", err)
	}

	ops := make([]string, 0, len(rules))
	for op := range rules {
		ops = append(ops, op)
	}
	sort.Strings(ops)

	programs := make(map[string]cel.Program, len(rules))
	for _, op := range ops {
		ast, iss := env.Compile(rules[op])
		if iss != nil && iss.Err() != nil {
			return nil, fmt.Errorf("compile rule %q: %w", op, iss.Err())
		}
		if !ast.OutputType().IsExactType(cel.BoolType) {
			return nil, fmt.Errorf("rule %q must evaluate to bool, got %s", op, ast.OutputType())
		}
		prg, err := env.Program(ast)
		if err != nil {
			return nil, fmt.Errorf("program rule %q: %w", op, err)
		}
		programs[op] = prg
	}

	return &AccessPolicy{programs: programs}, nil
}

// MustDefaultPolicy compiles DefaultRules, panicking on error.
func MustDefaultPolicy() *AccessPolicy {
	p, err := NewAccessPolicy(DefaultRules)
	if err != nil {
		panic(err)
	}
	return p
}

// Check returns nil when user may perform op.
// Unknown operations are denied.
func (p *AccessPolicy) Check(user *appctx.UserContext, op string) error {
	if user == nil {
		return apperror.NewUnauthorized("authentication required")
	}

	prg, ok := p.programs[op]
	if !ok {
		return apperror.NewForbidden("operation is not permitted").WithDetail("operation", op)
	}

	out, _, err := prg.Eval(map[string]any{
		"role":    user.Role,
		"user_id": user.UserID,
	})
	if err != nil {
		return apperror.NewInternal(fmt.Errorf("evaluate rule %q: %w", op, err))
	}

	allowed, ok := out.Value().(bool)
	if !ok || !allowed {
		return apperror.NewForbidden("insufficient permissions").
			WithDetail("operation", op).
			WithDetail("role", user.Role)
	}
	return nil
}
