// Package operation represents the capability categories the policy engine
// evaluates before a tenant or membership operation runs.
package operation

import "fmt"

// The set of operations that can be authorized.
var (
	TenantCreate      = newOperation("tenant.create")
	TenantRead        = newOperation("tenant.read")
	TenantList        = newOperation("tenant.list")
	TenantUpdate      = newOperation("tenant.update")
	TenantUpdateAdmin = newOperation("tenant.update_admin")
	TenantStatus      = newOperation("tenant.status")
	TenantFeatures    = newOperation("tenant.features")
	TenantDelete      = newOperation("tenant.delete")

	MemberManage          = newOperation("member.manage")
	MemberGrantAdmin      = newOperation("member.grant_admin")
	MemberGrantSuperAdmin = newOperation("member.grant_super_admin")
)

// =============================================================================

// Set of known operations.
var operations = make(map[string]Operation)

// Operation represents an operation category in the system.
type Operation struct {
	value string
}

func newOperation(op string) Operation {
	o := Operation{op}
	operations[op] = o
	return o
}

// String returns the name of the operation.
func (o Operation) String() string {
	return o.value
}

// Equal provides support for the go-cmp package and testing.
func (o Operation) Equal(o2 Operation) bool {
	return o.value == o2.value
}

// MarshalText provides support for logging and any marshal needs.
func (o Operation) MarshalText() ([]byte, error) {
	return []byte(o.value), nil
}

// =============================================================================

// All returns every known operation.
func All() []Operation {
	ops := make([]Operation, 0, len(operations))
	for _, o := range operations {
		ops = append(ops, o)
	}

	return ops
}

// Parse parses the string value and returns an operation if one exists.
func Parse(value string) (Operation, error) {
	op, exists := operations[value]
	if !exists {
		return Operation{}, fmt.Errorf("invalid operation %q", value)
	}

	return op, nil
}

// MustParse parses the string value and returns an operation if one exists.
// If an error occurs the function panics.
func MustParse(value string) Operation {
	op, err := Parse(value)
	if err != nil {
		panic(err)
	}

	return op
}
