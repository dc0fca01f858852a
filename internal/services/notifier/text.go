package notifier

import (
	"fmt"
	"time"

	"github.com/BearBump/ParcelDesk/internal/broker/messages"
	"github.com/BearBump/ParcelDesk/internal/models"
)

// Notification is what a customer (or the dispatch desk) is told about a parcel change.
type Notification struct {
	ParcelID       string    `json:"parcelId"`
	TrackingNumber string    `json:"trackingNumber"`
	Recipient      string    `json:"recipient"`
	Title          string    `json:"title"`
	Text           string    `json:"text"`
	At             time.Time `json:"at"`
}

// DispatchRecipient receives notifications for parcels without a customer account.
const DispatchRecipient = "dispatch"

// Resolve builds the notification for msg. ok is false when the change is not worth telling
// anyone about (a field edit without a status change, an unknown kind).
func Resolve(msg messages.ParcelChanged) (Notification, bool) {
	n := Notification{
		ParcelID:       msg.ParcelID,
		TrackingNumber: msg.TrackingNumber,
		Recipient:      DispatchRecipient,
		At:             msg.ChangedAt,
	}
	if msg.CustomerID != nil && *msg.CustomerID != "" {
		n.Recipient = *msg.CustomerID
	}
	tn := msg.TrackingNumber

	switch msg.Kind {
	case messages.ParcelCreated:
		n.Title = "Parcel submitted"
		n.Text = fmt.Sprintf("Parcel %s was submitted and is waiting for dispatcher approval.", tn)
	case messages.ParcelDeleted:
		n.Title = "Parcel cancelled"
		n.Text = fmt.Sprintf("Parcel %s was cancelled.", tn)
	case messages.ParcelUpdated:
		if msg.Status == msg.PreviousStatus {
			return Notification{}, false
		}
		switch models.ParcelStatus(msg.Status) {
		case models.ParcelStatusPending:
			n.Title = "Parcel back in review"
			n.Text = fmt.Sprintf("Parcel %s is waiting for dispatcher approval again.", tn)
		case models.ParcelStatusApproved:
			n.Title = "Parcel approved"
			n.Text = fmt.Sprintf("Parcel %s was approved and will be picked up soon.", tn)
		case models.ParcelStatusRejected:
			reason := "no reason given"
			if msg.Reason != nil && *msg.Reason != "" {
				reason = *msg.Reason
			}
			n.Title = "Parcel rejected"
			n.Text = fmt.Sprintf("Parcel %s was rejected: %s.", tn, reason)
		case models.ParcelStatusInTransit:
			n.Title = "Parcel in transit"
			n.Text = fmt.Sprintf("Parcel %s is on its way.", tn)
		case models.ParcelStatusOutForDelivery:
			n.Title = "Out for delivery"
			n.Text = fmt.Sprintf("Parcel %s is out for delivery today.", tn)
		case models.ParcelStatusDelivered:
			n.Title = "Parcel delivered"
			n.Text = fmt.Sprintf("Parcel %s was delivered.", tn)
		default:
			return Notification{}, false
		}
	default:
		return Notification{}, false
	}
	return n, true
}
