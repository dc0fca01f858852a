package models

type Stats struct {
	TotalUsers       int          `json:"totalUsers"`
	UsersByRole      map[Role]int `json:"usersByRole"`
	TotalCustomers   int          `json:"totalCustomers"`
	TotalDispatchers int          `json:"totalDispatchers"`
	TotalAdmins      int          `json:"totalAdmins"`

	TotalParcels     int                  `json:"totalParcels"`
	ParcelsByStatus  map[ParcelStatus]int `json:"parcelsByStatus"`
	PendingParcels   int                  `json:"pendingParcels"`
	ApprovedParcels  int                  `json:"approvedParcels"`
	DeliveredParcels int                  `json:"deliveredParcels"`

	TotalRevenue float64 `json:"totalRevenue"`
}

type TodayStats struct {
	ApprovedToday int `json:"approvedToday"`
	RejectedToday int `json:"rejectedToday"`
	InTransit     int `json:"inTransit"`
}
