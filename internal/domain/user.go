package domain

type Role string

const (
	RoleCashier Role = "cashier"
	RoleManager Role = "manager"
	RoleAdmin   Role = "admin"
)

var roleRank = map[Role]int{
	RoleCashier: 1,
	RoleManager: 2,
	RoleAdmin:   3,
}

// Valid reports whether r is a known role.
func (r Role) Valid() bool {
	_, ok := roleRank[r]
	return ok
}

// Allows reports whether r ranks at or above required.
func (r Role) Allows(required Role) bool {
	have, ok := roleRank[r]
	if !ok {
		return false
	}
	return have >= roleRank[required]
}

// Principal is the authenticated staff member behind a request.
type Principal struct {
	UserID int64
	Role   Role
}
