package records

import (
	"context"
	"strings"

	"github.com/BearBump/ParcelDesk/internal/broker/messages"
	"github.com/BearBump/ParcelDesk/internal/models"
)

// CreateParcel validates the submission and stores a new pending parcel with a fresh
// tracking number and its estimated cost.
func (s *Store) CreateParcel(ctx context.Context, in models.ParcelCreateInput) (models.Parcel, error) {
	p, err := s.createParcel(ctx, in)
	if p.ID != "" {
		s.publish(ctx, []messages.ParcelChanged{parcelEvent(messages.ParcelCreated, p, "", p.SenderEmail, p.CreatedAt)})
	}
	return p, err
}

func (s *Store) createParcel(ctx context.Context, in models.ParcelCreateInput) (models.Parcel, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var bad []string
	if strings.TrimSpace(in.RecipientName) == "" {
		bad = append(bad, "recipientName")
	}
	if strings.TrimSpace(in.DeliveryAddress) == "" {
		bad = append(bad, "deliveryAddress")
	}
	if !validWeight(in.Weight) {
		bad = append(bad, "weight")
	}
	if !in.Priority.Valid() {
		bad = append(bad, "priority")
	}
	if len(bad) > 0 {
		return models.Parcel{}, validationError(bad...)
	}

	taken := s.trackingNumbers()
	tn, err := s.uniqueTrackingNumber(taken)
	if err != nil {
		return models.Parcel{}, err
	}

	var customerID *string
	if in.CustomerID != nil {
		id := strings.TrimSpace(*in.CustomerID)
		customerID = &id
	}
	now := s.now()
	source := in.Source
	if source == "" {
		source = models.ParcelSourceSystem
	}
	p, err := s.normalizeParcel(models.Parcel{
		ID:              s.uniqueID("parcel", s.parcelIDs()),
		TrackingNumber:  tn,
		CustomerID:      customerID,
		CustomerName:    strings.TrimSpace(in.CustomerName),
		SenderName:      strings.TrimSpace(in.SenderName),
		SenderPhone:     strings.TrimSpace(in.SenderPhone),
		SenderEmail:     normalizeEmail(in.SenderEmail),
		RecipientName:   strings.TrimSpace(in.RecipientName),
		RecipientPhone:  strings.TrimSpace(in.RecipientPhone),
		DeliveryAddress: strings.TrimSpace(in.DeliveryAddress),
		Description:     strings.TrimSpace(in.Description),
		Weight:          in.Weight,
		Priority:        in.Priority,
		Status:          models.ParcelStatusPending,
		EstimatedCost:   EstimateCost(in.Weight, in.Priority),
		CreatedAt:       now,
		UpdatedAt:       now,
		Images:          in.Images,
		Source:          source,
	}, taken)
	if err != nil {
		return models.Parcel{}, err
	}
	s.parcels = append(s.parcels, p)

	return p.Clone(), s.persist(ctx, false, true)
}

// UpdateParcel merges patch into the parcel found by id or tracking number.
//
// Status rules: delivered and rejected are final. Moving to approved needs approvedBy,
// moving to rejected needs rejectedBy and rejectionReason; the matching timestamp is set
// by the store and the audit fields of any other outcome are cleared.
func (s *Store) UpdateParcel(ctx context.Context, id string, patch models.ParcelPatch) (models.Parcel, error) {
	return s.changeParcel(ctx, id, patch, "")
}

// ApproveParcel is the dispatcher decision on a pending parcel.
func (s *Store) ApproveParcel(ctx context.Context, id, actorID string) (models.Parcel, error) {
	st := models.ParcelStatusApproved
	return s.changeParcel(ctx, id, models.ParcelPatch{Status: &st, ApprovedBy: &actorID}, models.ParcelStatusPending)
}

// RejectParcel is the dispatcher decision on a pending parcel.
func (s *Store) RejectParcel(ctx context.Context, id, actorID, reason string) (models.Parcel, error) {
	st := models.ParcelStatusRejected
	return s.changeParcel(ctx, id, models.ParcelPatch{Status: &st, RejectedBy: &actorID, RejectionReason: &reason}, models.ParcelStatusPending)
}

func (s *Store) changeParcel(ctx context.Context, id string, patch models.ParcelPatch, requireFrom models.ParcelStatus) (models.Parcel, error) {
	p, ev, err := s.updateParcel(ctx, id, patch, requireFrom)
	if ev != nil {
		s.publish(ctx, []messages.ParcelChanged{*ev})
	}
	return p, err
}

func (s *Store) updateParcel(ctx context.Context, id string, patch models.ParcelPatch, requireFrom models.ParcelStatus) (models.Parcel, *messages.ParcelChanged, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.parcelIndex(id)
	if i < 0 {
		return models.Parcel{}, nil, notFound("parcel", id)
	}
	cur := s.parcels[i]
	next := cur.Clone()

	statusChange := patch.Status != nil && *patch.Status != cur.Status
	if statusChange {
		if cur.Status.Terminal() {
			return models.Parcel{}, nil, invalidTransition("parcel %s is %s, status can no longer change", cur.TrackingNumber, cur.Status)
		}
		if !patch.Status.Valid() {
			return models.Parcel{}, nil, validationError("status")
		}
	}
	if requireFrom != "" && cur.Status != requireFrom {
		return models.Parcel{}, nil, invalidTransition("parcel %s is %s, expected %s", cur.TrackingNumber, cur.Status, requireFrom)
	}

	bad := applyParcelFields(&next, patch)

	approvedBy := trimmed(patch.ApprovedBy)
	rejectedBy := trimmed(patch.RejectedBy)
	reason := trimmed(patch.RejectionReason)
	target := cur.Status
	if statusChange {
		target = *patch.Status
	}
	switch {
	case statusChange && target == models.ParcelStatusApproved:
		if approvedBy == "" {
			bad = append(bad, "approvedBy")
		}
	case statusChange && target == models.ParcelStatusRejected:
		if rejectedBy == "" {
			bad = append(bad, "rejectedBy")
		}
		if reason == "" {
			bad = append(bad, "rejectionReason")
		}
	}
	// Audit fields only travel together with the matching transition.
	if patch.ApprovedBy != nil && !(statusChange && target == models.ParcelStatusApproved) {
		bad = append(bad, "approvedBy")
	}
	if (patch.RejectedBy != nil || patch.RejectionReason != nil) && !(statusChange && target == models.ParcelStatusRejected) {
		if patch.RejectedBy != nil {
			bad = append(bad, "rejectedBy")
		}
		if patch.RejectionReason != nil {
			bad = append(bad, "rejectionReason")
		}
	}
	if len(bad) > 0 {
		return models.Parcel{}, nil, validationError(bad...)
	}

	now := s.now()
	actor := ""
	if statusChange {
		next.Status = target
		clearApproval(&next)
		clearRejection(&next)
		switch target {
		case models.ParcelStatusApproved:
			at := now
			next.ApprovedBy, next.ApprovedAt = &approvedBy, &at
			actor = approvedBy
		case models.ParcelStatusRejected:
			at := now
			next.RejectedBy, next.RejectedAt, next.RejectionReason = &rejectedBy, &at, &reason
			actor = rejectedBy
		}
	}
	if patch.Weight != nil || patch.Priority != nil {
		next.EstimatedCost = EstimateCost(next.Weight, next.Priority)
	}
	next.UpdatedAt = now

	s.parcels[i] = next
	ev := parcelEvent(messages.ParcelUpdated, next, cur.Status, actor, now)
	return next.Clone(), &ev, s.persist(ctx, false, true)
}

// applyParcelFields copies the descriptive fields of patch and returns the invalid ones.
func applyParcelFields(p *models.Parcel, patch models.ParcelPatch) []string {
	var bad []string
	setText := func(dst *string, v *string, field string, required bool) {
		if v == nil {
			return
		}
		t := strings.TrimSpace(*v)
		if t == "" {
			if required {
				bad = append(bad, field)
				return
			}
			t = NotProvided
		}
		*dst = t
	}
	setText(&p.CustomerName, patch.CustomerName, "customerName", true)
	setText(&p.SenderName, patch.SenderName, "senderName", true)
	setText(&p.SenderPhone, patch.SenderPhone, "senderPhone", false)
	setText(&p.SenderEmail, patch.SenderEmail, "senderEmail", false)
	setText(&p.RecipientName, patch.RecipientName, "recipientName", true)
	setText(&p.RecipientPhone, patch.RecipientPhone, "recipientPhone", false)
	setText(&p.DeliveryAddress, patch.DeliveryAddress, "deliveryAddress", true)
	if patch.Description != nil {
		p.Description = orDefault(strings.TrimSpace(*patch.Description), NoDescription)
	}

	if patch.Weight != nil {
		if !validWeight(*patch.Weight) {
			bad = append(bad, "weight")
		} else {
			p.Weight = *patch.Weight
		}
	}
	if patch.Priority != nil {
		if !patch.Priority.Valid() {
			bad = append(bad, "priority")
		} else {
			p.Priority = *patch.Priority
		}
	}
	if patch.Images != nil {
		p.Images = append([]models.Image{}, patch.Images...)
		for i := range p.Images {
			if p.Images[i].UploadedAt.IsZero() {
				p.Images[i].UploadedAt = p.CreatedAt
			}
		}
	}
	return bad
}

// DeleteParcel removes a parcel by id or tracking number. Only pending parcels may be
// deleted (customer cancel); anything else is InvalidTransition.
func (s *Store) DeleteParcel(ctx context.Context, id string) error {
	ev, err := s.deleteParcel(ctx, id)
	if ev != nil {
		s.publish(ctx, []messages.ParcelChanged{*ev})
	}
	return err
}

func (s *Store) deleteParcel(ctx context.Context, id string) (*messages.ParcelChanged, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.parcelIndex(id)
	if i < 0 {
		return nil, notFound("parcel", id)
	}
	p := s.parcels[i]
	if p.Status != models.ParcelStatusPending {
		return nil, invalidTransition("parcel %s is %s, only pending parcels can be deleted", p.TrackingNumber, p.Status)
	}
	s.parcels = append(s.parcels[:i:i], s.parcels[i+1:]...)

	ev := parcelEvent(messages.ParcelDeleted, p, p.Status, "", s.now())
	return &ev, s.persist(ctx, false, true)
}

// ParcelByID looks a parcel up by id or tracking number.
func (s *Store) ParcelByID(id string) (models.Parcel, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.parcelIndex(id)
	if i < 0 {
		return models.Parcel{}, notFound("parcel", id)
	}
	return s.parcels[i].Clone(), nil
}

// TrackParcel looks a parcel up by tracking number only.
func (s *Store) TrackParcel(trackingNumber string) (models.Parcel, error) {
	tn := normalizeTrackingNumber(trackingNumber)
	ps := s.QueryParcels(func(p models.Parcel) bool { return p.TrackingNumber == tn })
	if len(ps) == 0 {
		return models.Parcel{}, notFound("tracking number", trackingNumber)
	}
	return ps[0], nil
}

// QueryParcels returns copies of the parcels matching pred in insertion order. nil pred matches all.
func (s *Store) QueryParcels(pred func(models.Parcel) bool) []models.Parcel {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]models.Parcel, 0, len(s.parcels))
	for _, p := range s.parcels {
		if pred == nil || pred(p) {
			out = append(out, p.Clone())
		}
	}
	return out
}

func (s *Store) ParcelsByCustomer(customerID string) []models.Parcel {
	return s.QueryParcels(func(p models.Parcel) bool { return p.BelongsTo(customerID) })
}

func (s *Store) ParcelsByStatus(status models.ParcelStatus) []models.Parcel {
	return s.QueryParcels(func(p models.Parcel) bool { return p.Status == status })
}

// parcelIndex matches id first, then tracking number.
func (s *Store) parcelIndex(id string) int {
	if id == "" {
		return -1
	}
	for i := range s.parcels {
		if s.parcels[i].ID == id {
			return i
		}
	}
	tn := normalizeTrackingNumber(id)
	for i := range s.parcels {
		if s.parcels[i].TrackingNumber == tn {
			return i
		}
	}
	return -1
}

func (s *Store) trackingNumbers() map[string]struct{} {
	out := make(map[string]struct{}, len(s.parcels))
	for _, p := range s.parcels {
		out[p.TrackingNumber] = struct{}{}
	}
	return out
}

func (s *Store) parcelIDs() map[string]struct{} {
	out := make(map[string]struct{}, len(s.parcels))
	for _, p := range s.parcels {
		out[p.ID] = struct{}{}
	}
	return out
}

func trimmed(s *string) string {
	if s == nil {
		return ""
	}
	return strings.TrimSpace(*s)
}
