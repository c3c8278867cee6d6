package types

// Actor identifies the authenticated caller on whose behalf an operation
// runs. Every mutating operation requires one; identity resolution itself
// happens outside this subsystem.
type Actor struct {
	// UserID is the stable identifier of the user.
	UserID string `json:"user_id"`

	// EnterpriseID is the organization/tenant the user belongs to.
	EnterpriseID string `json:"enterprise_id"`
}

// Valid reports whether the actor carries both identifiers.
func (a Actor) Valid() bool {
	return a.UserID != "" && a.EnterpriseID != ""
}
