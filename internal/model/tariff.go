package model

import (
	"github.com/google/uuid"
)

// ServiceType is a bookable medical service (visit, sonography, ...).
type ServiceType struct {
	Base
	Name      string `db:"name" json:"name"`
	Slug      string `db:"slug" json:"slug"`
	IsDefault bool   `db:"is_default" json:"is_default"`
	IsActive  bool   `db:"is_active" json:"is_active"`
	SortOrder int    `db:"sort_order" json:"sort_order"`
}

// InsuranceType is an insurance scheme a tariff can price against.
type InsuranceType struct {
	Base
	Name      string `db:"name" json:"name"`
	Slug      string `db:"slug" json:"slug"`
	IsDefault bool   `db:"is_default" json:"is_default"`
	IsActive  bool   `db:"is_active" json:"is_active"`
	SortOrder int    `db:"sort_order" json:"sort_order"`
}

// Tariff prices one (doctor, service, insurance) combination. A nil
// ClinicID applies to all clinics; a clinic-specific row shadows it.
type Tariff struct {
	Base
	DoctorID              uuid.UUID  `db:"doctor_id" json:"doctor_id"`
	ClinicID              *uuid.UUID `db:"clinic_id" json:"clinic_id,omitempty"`
	ServiceTypeID         uuid.UUID  `db:"service_type_id" json:"service_type_id"`
	InsuranceTypeID       uuid.UUID  `db:"insurance_type_id" json:"insurance_type_id"`
	Fee                   int64      `db:"fee" json:"fee"`
	DepositRequired       bool       `db:"deposit_required" json:"deposit_required"`
	DepositAmount         int64      `db:"deposit_amount" json:"deposit_amount"`
	DepositPercent        int        `db:"deposit_percent" json:"deposit_percent"`
	OnlinePaymentRequired bool       `db:"online_payment_required" json:"online_payment_required"`
	IsActive              bool       `db:"is_active" json:"is_active"`
}

// Deposit returns the required deposit in integer currency units.
// A fixed amount takes precedence over the percentage.
func (t *Tariff) Deposit() int64 {
	if !t.DepositRequired {
		return 0
	}
	if t.DepositAmount > 0 {
		return t.DepositAmount
	}
	if t.DepositPercent > 0 {
		return t.Fee * int64(t.DepositPercent) / 100
	}
	return 0
}

// Quote is the pricing preview returned to the booking flow.
type Quote struct {
	TariffID              *uuid.UUID `json:"tariff_id,omitempty"`
	Fee                   int64      `json:"fee"`
	DepositAmount         int64      `json:"deposit_amount"`
	OnlinePaymentRequired bool       `json:"online_payment_required"`
	// FlatFallback is set when no tariff matched and the doctor's flat
	// visit fee was used instead.
	FlatFallback bool `json:"flat_fallback,omitempty"`
}
