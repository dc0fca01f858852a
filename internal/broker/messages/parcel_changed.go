package messages

import "time"

const (
	ParcelCreated = "created"
	ParcelUpdated = "updated"
	ParcelDeleted = "deleted"
)

// ParcelChanged is published after every applied parcel mutation.
type ParcelChanged struct {
	ParcelID       string    `json:"parcel_id"`
	TrackingNumber string    `json:"tracking_number"`
	CustomerID     *string   `json:"customer_id,omitempty"`
	Kind           string    `json:"kind"`
	Status         string    `json:"status"`
	PreviousStatus string    `json:"previous_status,omitempty"`
	Actor          string    `json:"actor,omitempty"`
	Reason         *string   `json:"reason,omitempty"`
	ChangedAt      time.Time `json:"changed_at"`
}
