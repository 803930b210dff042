package domain

import "time"

// JobMessage is a provisioning job from RabbitMQ. Jobs carry no payload
// beyond their identity and creation time: each one is a pure "generate one
// artifact" signal.
type JobMessage struct {
	JobID       string    `json:"job_id"`
	CreatedAt   time.Time `json:"created_at"`
	DeliveryTag uint64    `json:"-"`
}
