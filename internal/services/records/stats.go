package records

import (
	"time"

	"github.com/BearBump/ParcelDesk/internal/models"
)

// GetStats aggregates both collections. Revenue is RevenuePerDelivery for every
// delivered parcel.
func (s *Store) GetStats() models.Stats {
	s.mu.Lock()
	defer s.mu.Unlock()

	st := models.Stats{
		TotalUsers:      len(s.users),
		UsersByRole:     make(map[models.Role]int, len(models.Roles)),
		TotalParcels:    len(s.parcels),
		ParcelsByStatus: make(map[models.ParcelStatus]int, len(models.ParcelStatuses)),
	}
	for _, r := range models.Roles {
		st.UsersByRole[r] = 0
	}
	for _, u := range s.users {
		st.UsersByRole[u.Role]++
	}
	st.TotalCustomers = st.UsersByRole[models.RoleCustomer]
	st.TotalDispatchers = st.UsersByRole[models.RoleDispatcher]
	st.TotalAdmins = st.UsersByRole[models.RoleAdmin]

	for _, ps := range models.ParcelStatuses {
		st.ParcelsByStatus[ps] = 0
	}
	for _, p := range s.parcels {
		st.ParcelsByStatus[p.Status]++
	}
	st.PendingParcels = st.ParcelsByStatus[models.ParcelStatusPending]
	st.ApprovedParcels = st.ParcelsByStatus[models.ParcelStatusApproved]
	st.DeliveredParcels = st.ParcelsByStatus[models.ParcelStatusDelivered]
	st.TotalRevenue = roundCents(float64(st.DeliveredParcels) * RevenuePerDelivery)

	return st
}

// TodayStats counts today's dispatcher decisions (UTC calendar day) and parcels in transit.
func (s *Store) TodayStats() models.TodayStats {
	s.mu.Lock()
	defer s.mu.Unlock()

	today := s.now().UTC()
	var st models.TodayStats
	for _, p := range s.parcels {
		if p.Status == models.ParcelStatusApproved && sameDay(p.ApprovedAt, today) {
			st.ApprovedToday++
		}
		if p.Status == models.ParcelStatusRejected && sameDay(p.RejectedAt, today) {
			st.RejectedToday++
		}
		if p.Status == models.ParcelStatusInTransit {
			st.InTransit++
		}
	}
	return st
}

func sameDay(t *time.Time, day time.Time) bool {
	if t == nil {
		return false
	}
	y1, m1, d1 := t.UTC().Date()
	y2, m2, d2 := day.Date()
	return y1 == y2 && m1 == m2 && d1 == d2
}
