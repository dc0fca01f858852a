package records

import (
	"log/slog"

	"github.com/BearBump/ParcelDesk/internal/models"
)

type demoUser struct {
	id       string
	name     string
	email    string
	password string
	role     models.Role
}

var demoUsers = []demoUser{
	{id: "admin-1", name: "Platinum Admin", email: "admin@platinum-courier.com", password: "admin123", role: models.RoleAdmin},
	{id: "dispatcher-1", name: "Platinum Dispatcher", email: "dispatcher@platinum-courier.com", password: "dispatch123", role: models.RoleDispatcher},
	{id: "customer-1", name: "Demo Customer", email: "customer@platinum-courier.com", password: "customer123", role: models.RoleCustomer},
}

// seedDemo adds the demo accounts whose emails are missing and, when there are no parcels
// at all, one demo parcel owned by the demo customer. Caller holds the lock.
func (s *Store) seedDemo() {
	added := 0
	ids := s.userIDs()
	for _, d := range demoUsers {
		if _, ok := s.userByEmail(d.email); ok {
			continue
		}
		hash, err := s.hashPassword(d.password)
		if err != nil {
			slog.Warn("seed demo user", "email", d.email, "error", err.Error())
			continue
		}
		id := d.id
		if _, taken := ids[id]; taken {
			id = s.uniqueID("user", ids)
		}
		ids[id] = struct{}{}
		s.users = append(s.users, s.normalizeUser(models.User{
			ID:        id,
			Name:      d.name,
			Email:     d.email,
			Password:  hash,
			Phone:     "+1 555 0100",
			Address:   "1 Courier Plaza",
			Role:      d.role,
			CreatedAt: s.now(),
			IsActive:  true,
		}))
		added++
	}

	if len(s.parcels) > 0 {
		if added > 0 {
			slog.Info("demo users seeded", "users", added)
		}
		return
	}

	owner, ok := s.userByEmail("customer@platinum-courier.com")
	if !ok {
		return
	}
	customerID := owner.ID
	now := s.now()
	p, err := s.normalizeParcel(models.Parcel{
		ID:              s.newID("parcel"),
		CustomerID:      &customerID,
		CustomerName:    owner.Name,
		SenderName:      owner.Name,
		SenderPhone:     owner.Phone,
		SenderEmail:     owner.Email,
		RecipientName:   "Jane Recipient",
		RecipientPhone:  "+1 555 0199",
		DeliveryAddress: "1 Main St",
		Description:     "Demo parcel",
		Weight:          2.5,
		Priority:        models.PriorityExpress,
		Status:          models.ParcelStatusPending,
		EstimatedCost:   EstimateCost(2.5, models.PriorityExpress),
		CreatedAt:       now,
		UpdatedAt:       now,
		Source:          models.ParcelSourceSystem,
	}, s.trackingNumbers())
	if err != nil {
		slog.Warn("seed demo parcel", "error", err.Error())
		return
	}
	s.parcels = append(s.parcels, p)
	slog.Info("demo data seeded", "users", added, "parcels", 1)
}
