package entities

type Role string

const (
	RoleCustomer Role = "CUSTOMER"
	RoleAdmin    Role = "ADMIN"
)

// Principal is the authenticated identity attached to a request.
// Issued by the identity layer, opaque to the order core.
type Principal struct {
	ID          string
	Username    string
	PhoneNumber string
	Role        Role
}

func (p Principal) IsAdmin() bool {
	return p.Role == RoleAdmin
}
