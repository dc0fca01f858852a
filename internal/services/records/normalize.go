package records

import (
	"math"
	"strings"

	"github.com/BearBump/ParcelDesk/internal/models"
)

// Defaults filled in by normalization.
const (
	NotProvided      = "Not provided"
	UnknownUser      = "Unknown User"
	DefaultPassword  = "password123"
	UnknownCustomer  = "Unknown Customer"
	UnknownSender    = "Unknown Sender"
	UnknownRecipient = "Unknown Recipient"
	NoDescription    = "No description"
	UnknownActor     = "unknown"
	NoReasonGiven    = "No reason provided"
	defaultWeightKg  = 1.0
)

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// normalizeTrackingNumber upper-cases codes; older clients issued lower-case base36 suffixes.
func normalizeTrackingNumber(tn string) string {
	return strings.ToUpper(strings.TrimSpace(tn))
}

// mergeUsers unions the sources in order; a later user with an already seen email is dropped.
// Users without an email cannot collide and are always kept.
func mergeUsers(sources ...[]legacyUser) []legacyUser {
	var out []legacyUser
	seen := make(map[string]struct{})
	for _, src := range sources {
		for _, u := range src {
			key := normalizeEmail(string(u.Email))
			if key != "" {
				if _, ok := seen[key]; ok {
					continue
				}
				seen[key] = struct{}{}
			}
			out = append(out, u)
		}
	}
	return out
}

// mergeParcels unions the sources in order, first tracking number wins.
// Tracking numbers are compared case-insensitively.
func mergeParcels(sources ...[]legacyParcel) []legacyParcel {
	var out []legacyParcel
	seen := make(map[string]struct{})
	for _, src := range sources {
		for _, p := range src {
			key := normalizeTrackingNumber(string(p.TrackingNumber))
			if key != "" {
				if _, ok := seen[key]; ok {
					continue
				}
				seen[key] = struct{}{}
			}
			out = append(out, p)
		}
	}
	return out
}

func userFromLegacy(l legacyUser) models.User {
	u := models.User{
		ID:       string(l.ID),
		Name:     string(l.Name),
		Email:    normalizeEmail(string(l.Email)),
		Password: string(l.Password),
		Phone:    string(l.Phone),
		Address:  string(l.Address),
		Role:     models.Role(strings.ToLower(string(l.Role))),
		IsActive: true,
	}
	if l.CreatedAt.ok {
		u.CreatedAt = l.CreatedAt.v
	}
	if l.IsActive.ok {
		u.IsActive = l.IsActive.v
	}
	return u
}

func parcelFromLegacy(l legacyParcel) models.Parcel {
	p := models.Parcel{
		ID:              string(l.ID),
		TrackingNumber:  normalizeTrackingNumber(string(l.TrackingNumber)),
		CustomerID:      l.CustomerID.ptr(),
		CustomerName:    string(l.CustomerName),
		SenderName:      string(l.SenderName),
		SenderPhone:     string(l.SenderPhone),
		SenderEmail:     string(l.SenderEmail),
		RecipientName:   string(l.RecipientName),
		RecipientPhone:  string(l.RecipientPhone),
		DeliveryAddress: string(l.DeliveryAddress),
		Description:     string(l.Description),
		Weight:          l.Weight.v,
		Priority:        models.Priority(strings.ToLower(string(l.Priority))),
		Status:          models.ParcelStatus(strings.ToLower(string(l.Status))),
		EstimatedCost:   l.EstimatedCost.v,
		Source:          string(l.Source),
		ApprovedBy:      l.ApprovedBy.ptr(),
		ApprovedAt:      l.ApprovedAt.ptr(),
		RejectedBy:      l.RejectedBy.ptr(),
		RejectedAt:      l.RejectedAt.ptr(),
		RejectionReason: l.RejectionReason.ptr(),
	}
	if l.CreatedAt.ok {
		p.CreatedAt = l.CreatedAt.v
	}
	if l.UpdatedAt.ok {
		p.UpdatedAt = l.UpdatedAt.v
	}
	for _, img := range l.Images {
		im := models.Image{Name: string(img.Name), URL: string(img.URL)}
		if img.UploadedAt.ok {
			im.UploadedAt = img.UploadedAt.v
		}
		p.Images = append(p.Images, im)
	}
	return p
}

// normalizeUser fills every missing field with its default. Idempotent.
func (s *Store) normalizeUser(u models.User) models.User {
	if u.ID == "" {
		u.ID = s.newID("user")
	}
	u.Name = orDefault(u.Name, UnknownUser)
	u.Password = orDefault(u.Password, DefaultPassword)
	u.Phone = orDefault(u.Phone, NotProvided)
	u.Address = orDefault(u.Address, NotProvided)
	if !u.Role.Valid() {
		u.Role = models.RoleCustomer
	}
	if u.CreatedAt.IsZero() {
		u.CreatedAt = s.now()
	}
	return u
}

// normalizeParcel fills every missing field with its default and makes the audit fields
// agree with the status. A generated tracking number is added to taken. Idempotent.
func (s *Store) normalizeParcel(p models.Parcel, taken map[string]struct{}) (models.Parcel, error) {
	now := s.now()

	if p.ID == "" {
		p.ID = s.newID("parcel")
	}
	if p.TrackingNumber == "" {
		tn, err := s.uniqueTrackingNumber(taken)
		if err != nil {
			return p, err
		}
		p.TrackingNumber = tn
		taken[tn] = struct{}{}
	}

	p.CustomerID = nilIfEmpty(p.CustomerID)
	if p.CustomerID == nil {
		if u, ok := s.userByEmail(p.SenderEmail); ok {
			id := u.ID
			p.CustomerID = &id
		}
	}

	customerName, senderName := p.CustomerName, p.SenderName
	p.CustomerName = orDefault(customerName, orDefault(senderName, UnknownCustomer))
	p.SenderName = orDefault(senderName, orDefault(customerName, UnknownSender))
	p.SenderPhone = orDefault(p.SenderPhone, NotProvided)
	p.SenderEmail = orDefault(p.SenderEmail, NotProvided)
	p.RecipientName = orDefault(p.RecipientName, UnknownRecipient)
	p.RecipientPhone = orDefault(p.RecipientPhone, NotProvided)
	p.DeliveryAddress = orDefault(p.DeliveryAddress, NotProvided)
	p.Description = orDefault(p.Description, NoDescription)

	if !validWeight(p.Weight) {
		p.Weight = defaultWeightKg
	}
	if !p.Priority.Valid() {
		p.Priority = models.PriorityStandard
	}
	if !p.Status.Valid() {
		p.Status = models.ParcelStatusPending
	}
	if p.CreatedAt.IsZero() {
		p.CreatedAt = now
	}
	if p.UpdatedAt.IsZero() {
		p.UpdatedAt = now
	}
	if !(p.EstimatedCost > 0) || math.IsInf(p.EstimatedCost, 0) {
		p.EstimatedCost = EstimateCost(p.Weight, p.Priority)
	}
	p.Images = append([]models.Image{}, p.Images...)
	for i := range p.Images {
		if p.Images[i].UploadedAt.IsZero() {
			p.Images[i].UploadedAt = p.CreatedAt
		}
	}
	p.Source = orDefault(p.Source, models.ParcelSourceUnknown)

	normalizeAudit(&p)
	return p, nil
}

// normalizeAudit enforces: approval fields iff approved, rejection fields iff rejected.
func normalizeAudit(p *models.Parcel) {
	p.ApprovedBy = nilIfEmpty(p.ApprovedBy)
	p.RejectedBy = nilIfEmpty(p.RejectedBy)
	p.RejectionReason = nilIfEmpty(p.RejectionReason)

	switch p.Status {
	case models.ParcelStatusApproved:
		clearRejection(p)
		if p.ApprovedBy == nil {
			p.ApprovedBy = strPtr(UnknownActor)
		}
		if p.ApprovedAt == nil {
			at := p.UpdatedAt
			p.ApprovedAt = &at
		}
	case models.ParcelStatusRejected:
		clearApproval(p)
		if p.RejectedBy == nil {
			p.RejectedBy = strPtr(UnknownActor)
		}
		if p.RejectedAt == nil {
			at := p.UpdatedAt
			p.RejectedAt = &at
		}
		if p.RejectionReason == nil {
			p.RejectionReason = strPtr(NoReasonGiven)
		}
	default:
		clearApproval(p)
		clearRejection(p)
	}
}

func clearApproval(p *models.Parcel) {
	p.ApprovedBy = nil
	p.ApprovedAt = nil
}

func clearRejection(p *models.Parcel) {
	p.RejectedBy = nil
	p.RejectedAt = nil
	p.RejectionReason = nil
}

// ingestUsers normalizes merged users; a repeated id gets a fresh one so ids stay unique.
func (s *Store) ingestUsers(in []legacyUser) []models.User {
	out := make([]models.User, 0, len(in))
	ids := make(map[string]struct{}, len(in))
	for _, l := range in {
		u := s.normalizeUser(userFromLegacy(l))
		if _, dup := ids[u.ID]; dup {
			u.ID = s.uniqueID("user", ids)
		}
		ids[u.ID] = struct{}{}
		out = append(out, u)
	}
	return out
}

// ingestParcels runs after ingestUsers: customerId is resolved against the loaded users.
func (s *Store) ingestParcels(in []legacyParcel) ([]models.Parcel, error) {
	out := make([]models.Parcel, 0, len(in))
	taken := make(map[string]struct{}, len(in))
	for _, l := range in {
		if tn := normalizeTrackingNumber(string(l.TrackingNumber)); tn != "" {
			taken[tn] = struct{}{}
		}
	}
	ids := make(map[string]struct{}, len(in))
	for _, l := range in {
		p, err := s.normalizeParcel(parcelFromLegacy(l), taken)
		if err != nil {
			return nil, err
		}
		if _, dup := ids[p.ID]; dup {
			p.ID = s.uniqueID("parcel", ids)
		}
		ids[p.ID] = struct{}{}
		out = append(out, p)
	}
	return out, nil
}

func orDefault(v, def string) string {
	if strings.TrimSpace(v) == "" {
		return def
	}
	return v
}

func nilIfEmpty(s *string) *string {
	if s == nil || strings.TrimSpace(*s) == "" {
		return nil
	}
	return s
}

func strPtr(s string) *string {
	return &s
}

func validWeight(w float64) bool {
	return w > 0 && !math.IsInf(w, 0) && !math.IsNaN(w)
}
