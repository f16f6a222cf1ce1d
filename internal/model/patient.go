package model

// Patient carries the contact fields notification dispatch needs;
// everything else lives in the user-management collaborator.
type Patient struct {
	Base
	FirstName string `db:"first_name" json:"first_name"`
	LastName  string `db:"last_name" json:"last_name"`
	Phone     string `db:"phone" json:"phone"`
}

// FullName returns the display name.
func (p *Patient) FullName() string {
	return p.FirstName + " " + p.LastName
}
