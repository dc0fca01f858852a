package records_api

import (
	"net/http"

	"github.com/BearBump/ParcelDesk/internal/models"
	"github.com/go-chi/chi/v5"
)

type createParcelRequest struct {
	CustomerID      *string         `json:"customerId"`
	CustomerName    string          `json:"customerName"`
	SenderName      string          `json:"senderName"`
	SenderPhone     string          `json:"senderPhone"`
	SenderEmail     string          `json:"senderEmail"`
	RecipientName   string          `json:"recipientName"`
	RecipientPhone  string          `json:"recipientPhone"`
	DeliveryAddress string          `json:"deliveryAddress"`
	Description     string          `json:"description"`
	Weight          float64         `json:"weight"`
	Priority        models.Priority `json:"priority"`
	Images          []models.Image  `json:"images"`
	Source          string          `json:"source"`
}

type updateParcelRequest struct {
	CustomerName    *string              `json:"customerName"`
	SenderName      *string              `json:"senderName"`
	SenderPhone     *string              `json:"senderPhone"`
	SenderEmail     *string              `json:"senderEmail"`
	RecipientName   *string              `json:"recipientName"`
	RecipientPhone  *string              `json:"recipientPhone"`
	DeliveryAddress *string              `json:"deliveryAddress"`
	Description     *string              `json:"description"`
	Weight          *float64             `json:"weight"`
	Priority        *models.Priority     `json:"priority"`
	Images          []models.Image       `json:"images"`
	Status          *models.ParcelStatus `json:"status"`
	ApprovedBy      *string              `json:"approvedBy"`
	RejectedBy      *string              `json:"rejectedBy"`
	RejectionReason *string              `json:"rejectionReason"`
}

type decisionRequest struct {
	ActorID string `json:"actorId"`
	Reason  string `json:"reason"`
}

func parcelResult(p models.Parcel) any {
	if p.ID == "" {
		return nil
	}
	return p
}

func (a *RecordsAPI) listParcels(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	customerID := q.Get("customerId")
	status := models.ParcelStatus(q.Get("status"))
	if status != "" && !status.Valid() {
		writeMessage(w, http.StatusBadRequest, "unknown status: "+string(status))
		return
	}

	ps := a.store.QueryParcels(func(p models.Parcel) bool {
		if customerID != "" && !p.BelongsTo(customerID) {
			return false
		}
		return status == "" || p.Status == status
	})
	writeOK(w, http.StatusOK, ps)
}

func (a *RecordsAPI) createParcel(w http.ResponseWriter, r *http.Request) {
	var req createParcelRequest
	if !decodeBody(w, r, &req) {
		return
	}
	p, err := a.store.CreateParcel(r.Context(), models.ParcelCreateInput{
		CustomerID:      req.CustomerID,
		CustomerName:    req.CustomerName,
		SenderName:      req.SenderName,
		SenderPhone:     req.SenderPhone,
		SenderEmail:     req.SenderEmail,
		RecipientName:   req.RecipientName,
		RecipientPhone:  req.RecipientPhone,
		DeliveryAddress: req.DeliveryAddress,
		Description:     req.Description,
		Weight:          req.Weight,
		Priority:        req.Priority,
		Images:          req.Images,
		Source:          req.Source,
	})
	writeResult(w, http.StatusCreated, parcelResult(p), err)
}

func (a *RecordsAPI) getParcel(w http.ResponseWriter, r *http.Request) {
	p, err := a.store.ParcelByID(chi.URLParam(r, "id"))
	writeResult(w, http.StatusOK, parcelResult(p), err)
}

func (a *RecordsAPI) trackParcel(w http.ResponseWriter, r *http.Request) {
	p, err := a.store.TrackParcel(chi.URLParam(r, "trackingNumber"))
	writeResult(w, http.StatusOK, parcelResult(p), err)
}

func (a *RecordsAPI) updateParcel(w http.ResponseWriter, r *http.Request) {
	var req updateParcelRequest
	if !decodeBody(w, r, &req) {
		return
	}
	p, err := a.store.UpdateParcel(r.Context(), chi.URLParam(r, "id"), models.ParcelPatch{
		CustomerName:    req.CustomerName,
		SenderName:      req.SenderName,
		SenderPhone:     req.SenderPhone,
		SenderEmail:     req.SenderEmail,
		RecipientName:   req.RecipientName,
		RecipientPhone:  req.RecipientPhone,
		DeliveryAddress: req.DeliveryAddress,
		Description:     req.Description,
		Weight:          req.Weight,
		Priority:        req.Priority,
		Images:          req.Images,
		Status:          req.Status,
		ApprovedBy:      req.ApprovedBy,
		RejectedBy:      req.RejectedBy,
		RejectionReason: req.RejectionReason,
	})
	writeResult(w, http.StatusOK, parcelResult(p), err)
}

func (a *RecordsAPI) approveParcel(w http.ResponseWriter, r *http.Request) {
	var req decisionRequest
	if !decodeBody(w, r, &req) {
		return
	}
	p, err := a.store.ApproveParcel(r.Context(), chi.URLParam(r, "id"), req.ActorID)
	writeResult(w, http.StatusOK, parcelResult(p), err)
}

func (a *RecordsAPI) rejectParcel(w http.ResponseWriter, r *http.Request) {
	var req decisionRequest
	if !decodeBody(w, r, &req) {
		return
	}
	p, err := a.store.RejectParcel(r.Context(), chi.URLParam(r, "id"), req.ActorID, req.Reason)
	writeResult(w, http.StatusOK, parcelResult(p), err)
}

func (a *RecordsAPI) deleteParcel(w http.ResponseWriter, r *http.Request) {
	err := a.store.DeleteParcel(r.Context(), chi.URLParam(r, "id"))
	writeResult(w, http.StatusOK, nil, err)
}
