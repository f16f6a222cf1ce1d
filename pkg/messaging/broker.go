package messaging

import (
	"context"
)

// Broker defines the interface for message brokers
type Broker interface {
	Publish(ctx context.Context, channel string, message interface{}) error
	Subscribe(ctx context.Context, channel string) (<-chan []byte, error)
	Close() error
}

// Channel names used by the booking engine. Consumers (notification
// dispatchers, queue displays) subscribe to these.
const (
	ChannelAppointmentBooked = "appointments.booked"
	ChannelAppointmentStatus = "appointments.status"
)
