package errors

import (
	"errors"
	"fmt"
)

// ErrorCode represents a unique error code
type ErrorCode int

// AppError represents an application error
type AppError struct {
	Code    ErrorCode `json:"code"`
	Message string    `json:"message"`
	Err     error     `json:"-"`
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// Common error codes
const (
	ErrNotFound ErrorCode = iota + 1000
	ErrBadRequest
	ErrUnauthorized
	ErrForbidden
	ErrInternal
)

// Booking validation error codes. Each maps to a distinct user-facing
// condition; callers recover by choosing different input.
const (
	ErrClinicNotLinked ErrorCode = iota + 2000
	ErrPastDate
	ErrDoctorUnavailable
	ErrNoScheduleForDay
	ErrSlotTaken
	ErrDayFull
	ErrDuplicatePatientBooking
	ErrCancelDeadline
	ErrInvalidTransition
	ErrTariffNotFound
	ErrInvalidWindow
	ErrScheduleOverlap
	ErrDuplicateException
)

// Error constructors
func NewNotFound(resource string, err error) *AppError {
	return &AppError{
		Code:    ErrNotFound,
		Message: fmt.Sprintf("%s not found", resource),
		Err:     err,
	}
}

func NewBadRequest(message string, err error) *AppError {
	return &AppError{
		Code:    ErrBadRequest,
		Message: message,
		Err:     err,
	}
}

func NewInternal(err error) *AppError {
	return &AppError{
		Code:    ErrInternal,
		Message: "internal server error",
		Err:     err,
	}
}

// Common errors
func NotFound(resource string, err error) *AppError {
	return NewNotFound(resource, err)
}

func BadRequest(message string, err error) *AppError {
	return NewBadRequest(message, err)
}

func Internal(err error) *AppError {
	return NewInternal(err)
}

// Booking returns a booking-validation error with the given code.
func Booking(code ErrorCode, message string) *AppError {
	return &AppError{Code: code, Message: message}
}

// Booking validation errors, surfaced verbatim to the user.
var (
	ClinicNotLinked         = Booking(ErrClinicNotLinked, "doctor does not practice at this clinic")
	PastDate                = Booking(ErrPastDate, "cannot book an appointment in the past")
	DoctorUnavailable       = Booking(ErrDoctorUnavailable, "doctor is unavailable on this date")
	NoScheduleForDay        = Booking(ErrNoScheduleForDay, "doctor has no working hours on this day at this clinic")
	SlotTaken               = Booking(ErrSlotTaken, "this time slot is already booked")
	DayFull                 = Booking(ErrDayFull, "daily appointment capacity is full for this date")
	DuplicatePatientBooking = Booking(ErrDuplicatePatientBooking, "patient already has an appointment with this doctor on this date")
	CancelDeadline          = Booking(ErrCancelDeadline, "cancellation deadline for this appointment has passed")
	InvalidTransition       = Booking(ErrInvalidTransition, "appointment status does not allow this action")
	TariffNotFound          = Booking(ErrTariffNotFound, "no tariff configured for this service and insurance")
	InvalidWindow           = Booking(ErrInvalidWindow, "schedule window start must be before end")
	ScheduleOverlap         = Booking(ErrScheduleOverlap, "schedule window overlaps an existing window on this weekday")
	DuplicateException      = Booking(ErrDuplicateException, "an exception already exists for this date")
)

// Code extracts the ErrorCode from err, or ErrInternal when err is not
// an AppError.
func Code(err error) ErrorCode {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code
	}
	return ErrInternal
}

// Is reports whether err carries the given code.
func Is(err error, code ErrorCode) bool {
	return Code(err) == code
}
