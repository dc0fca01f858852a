package models

import "time"

type Priority string

const (
	PriorityStandard Priority = "standard"
	PriorityExpress  Priority = "express"
	PrioritySameDay  Priority = "same-day"
)

func (p Priority) Valid() bool {
	switch p {
	case PriorityStandard, PriorityExpress, PrioritySameDay:
		return true
	}
	return false
}

type ParcelStatus string

const (
	ParcelStatusPending        ParcelStatus = "pending"
	ParcelStatusApproved       ParcelStatus = "approved"
	ParcelStatusInTransit      ParcelStatus = "in-transit"
	ParcelStatusOutForDelivery ParcelStatus = "out-for-delivery"
	ParcelStatusDelivered      ParcelStatus = "delivered"
	ParcelStatusRejected       ParcelStatus = "rejected"
)

// ParcelStatuses lists every status in lifecycle order.
var ParcelStatuses = []ParcelStatus{
	ParcelStatusPending,
	ParcelStatusApproved,
	ParcelStatusInTransit,
	ParcelStatusOutForDelivery,
	ParcelStatusDelivered,
	ParcelStatusRejected,
}

func (s ParcelStatus) Valid() bool {
	switch s {
	case ParcelStatusPending, ParcelStatusApproved, ParcelStatusInTransit,
		ParcelStatusOutForDelivery, ParcelStatusDelivered, ParcelStatusRejected:
		return true
	}
	return false
}

// Terminal reports whether no further status change is allowed.
func (s ParcelStatus) Terminal() bool {
	return s == ParcelStatusDelivered || s == ParcelStatusRejected
}

// Источник заявки: кто создал посылку.
const (
	ParcelSourceCustomer = "customer"
	ParcelSourceSystem   = "system"
	ParcelSourceUnknown  = "unknown"
)

type Image struct {
	Name       string    `json:"name"`
	URL        string    `json:"url"`
	UploadedAt time.Time `json:"uploadedAt"`
}

type Parcel struct {
	ID              string       `json:"id"`
	TrackingNumber  string       `json:"trackingNumber"`
	CustomerID      *string      `json:"customerId"`
	CustomerName    string       `json:"customerName"`
	SenderName      string       `json:"senderName"`
	SenderPhone     string       `json:"senderPhone"`
	SenderEmail     string       `json:"senderEmail"`
	RecipientName   string       `json:"recipientName"`
	RecipientPhone  string       `json:"recipientPhone"`
	DeliveryAddress string       `json:"deliveryAddress"`
	Description     string       `json:"description"`
	Weight          float64      `json:"weight"`
	Priority        Priority     `json:"priority"`
	Status          ParcelStatus `json:"status"`
	EstimatedCost   float64      `json:"estimatedCost"`
	CreatedAt       time.Time    `json:"createdAt"`
	UpdatedAt       time.Time    `json:"updatedAt"`
	Images          []Image      `json:"images"`
	Source          string       `json:"source"`

	ApprovedBy      *string    `json:"approvedBy"`
	ApprovedAt      *time.Time `json:"approvedAt"`
	RejectedBy      *string    `json:"rejectedBy"`
	RejectedAt      *time.Time `json:"rejectedAt"`
	RejectionReason *string    `json:"rejectionReason"`
}

// Clone returns a copy that shares nothing mutable with p.
func (p Parcel) Clone() Parcel {
	out := p
	out.Images = append([]Image{}, p.Images...)
	out.CustomerID = cloneString(p.CustomerID)
	out.ApprovedBy = cloneString(p.ApprovedBy)
	out.ApprovedAt = cloneTime(p.ApprovedAt)
	out.RejectedBy = cloneString(p.RejectedBy)
	out.RejectedAt = cloneTime(p.RejectedAt)
	out.RejectionReason = cloneString(p.RejectionReason)
	return out
}

// BelongsTo reports whether the parcel references the given customer.
func (p Parcel) BelongsTo(customerID string) bool {
	return p.CustomerID != nil && *p.CustomerID == customerID
}

type ParcelCreateInput struct {
	CustomerID      *string
	CustomerName    string
	SenderName      string
	SenderPhone     string
	SenderEmail     string
	RecipientName   string
	RecipientPhone  string
	DeliveryAddress string
	Description     string
	Weight          float64
	Priority        Priority
	Images          []Image
	Source          string
}

// ParcelPatch: nil fields are left untouched. Images == nil keeps the current images.
type ParcelPatch struct {
	CustomerName    *string
	SenderName      *string
	SenderPhone     *string
	SenderEmail     *string
	RecipientName   *string
	RecipientPhone  *string
	DeliveryAddress *string
	Description     *string
	Weight          *float64
	Priority        *Priority
	Images          []Image

	Status          *ParcelStatus
	ApprovedBy      *string
	RejectedBy      *string
	RejectionReason *string
}

func cloneString(s *string) *string {
	if s == nil {
		return nil
	}
	v := *s
	return &v
}

func cloneTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := *t
	return &v
}
