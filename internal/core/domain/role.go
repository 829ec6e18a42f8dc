package domain

// Role identifies which of the three user kinds issued a request.
type Role string

const (
	RoleCustomer Role = "customer"
	RoleMerchant Role = "merchant"
	RoleAdmin    Role = "admin"
)

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	switch r {
	case RoleCustomer, RoleMerchant, RoleAdmin:
		return true
	}
	return false
}

// Actor is the authenticated caller behind a mutation, used for audit trails.
type Actor struct {
	Role Role
	ID   string
	IP   string
}

// SystemActor attributes background work such as scheduled reconciliation.
var SystemActor = Actor{Role: RoleAdmin, ID: "system"}
