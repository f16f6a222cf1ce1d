package model

// Clinic is the booking engine's view of a clinic; profile management is
// an external collaborator.
type Clinic struct {
	Base
	Name     string `db:"name" json:"name"`
	Address  string `db:"address" json:"address"`
	Phone    string `db:"phone" json:"phone"`
	IsActive bool   `db:"is_active" json:"is_active"`
}
