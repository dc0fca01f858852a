package records

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"
	"time"
)

// Legacy blobs were written by several generations of the app and disagree on types:
// weights stored as strings, booleans as "true", timestamps as ISO strings or epoch millis.
// The loose* types accept all of those; anything unparseable is treated as missing.

type looseString string

func isNull(b []byte) bool {
	return bytes.Equal(bytes.TrimSpace(b), []byte("null"))
}

func (s *looseString) UnmarshalJSON(b []byte) error {
	if isNull(b) {
		*s = ""
		return nil
	}
	var str string
	if err := json.Unmarshal(b, &str); err == nil {
		*s = looseString(strings.TrimSpace(str))
		return nil
	}
	var num json.Number
	if err := json.Unmarshal(b, &num); err == nil {
		*s = looseString(num.String())
		return nil
	}
	*s = ""
	return nil
}

func (s looseString) ptr() *string {
	if s == "" {
		return nil
	}
	v := string(s)
	return &v
}

type looseFloat struct {
	v  float64
	ok bool
}

func (f *looseFloat) UnmarshalJSON(b []byte) error {
	*f = looseFloat{}
	if isNull(b) {
		return nil
	}
	var n float64
	if err := json.Unmarshal(b, &n); err == nil {
		*f = looseFloat{v: n, ok: true}
		return nil
	}
	var str string
	if err := json.Unmarshal(b, &str); err == nil {
		if n, err := strconv.ParseFloat(strings.TrimSpace(str), 64); err == nil {
			*f = looseFloat{v: n, ok: true}
		}
	}
	return nil
}

type looseBool struct {
	v  bool
	ok bool
}

func (lb *looseBool) UnmarshalJSON(b []byte) error {
	*lb = looseBool{}
	if isNull(b) {
		return nil
	}
	var v bool
	if err := json.Unmarshal(b, &v); err == nil {
		*lb = looseBool{v: v, ok: true}
		return nil
	}
	var str string
	if err := json.Unmarshal(b, &str); err == nil {
		if v, err := strconv.ParseBool(strings.TrimSpace(str)); err == nil {
			*lb = looseBool{v: v, ok: true}
		}
	}
	return nil
}

type looseTime struct {
	v  time.Time
	ok bool
}

func (lt *looseTime) UnmarshalJSON(b []byte) error {
	*lt = looseTime{}
	var str string
	if err := json.Unmarshal(b, &str); err == nil {
		str = strings.TrimSpace(str)
		if str == "" {
			return nil
		}
		if t, err := time.Parse(time.RFC3339Nano, str); err == nil {
			*lt = looseTime{v: t.UTC(), ok: true}
		}
		return nil
	}
	var ms int64
	if err := json.Unmarshal(b, &ms); err == nil && ms > 0 {
		*lt = looseTime{v: time.UnixMilli(ms).UTC(), ok: true}
	}
	return nil
}

func (lt looseTime) ptr() *time.Time {
	if !lt.ok {
		return nil
	}
	v := lt.v
	return &v
}

type legacyUser struct {
	ID        looseString `json:"id"`
	Name      looseString `json:"name"`
	Email     looseString `json:"email"`
	Password  looseString `json:"password"`
	Phone     looseString `json:"phone"`
	Address   looseString `json:"address"`
	Role      looseString `json:"role"`
	CreatedAt looseTime   `json:"createdAt"`
	IsActive  looseBool   `json:"isActive"`
}

type legacyImage struct {
	Name       looseString `json:"name"`
	URL        looseString `json:"url"`
	UploadedAt looseTime   `json:"uploadedAt"`
}

type legacyParcel struct {
	ID              looseString   `json:"id"`
	TrackingNumber  looseString   `json:"trackingNumber"`
	CustomerID      looseString   `json:"customerId"`
	CustomerName    looseString   `json:"customerName"`
	SenderName      looseString   `json:"senderName"`
	SenderPhone     looseString   `json:"senderPhone"`
	SenderEmail     looseString   `json:"senderEmail"`
	RecipientName   looseString   `json:"recipientName"`
	RecipientPhone  looseString   `json:"recipientPhone"`
	DeliveryAddress looseString   `json:"deliveryAddress"`
	Description     looseString   `json:"description"`
	Weight          looseFloat    `json:"weight"`
	Priority        looseString   `json:"priority"`
	Status          looseString   `json:"status"`
	EstimatedCost   looseFloat    `json:"estimatedCost"`
	CreatedAt       looseTime     `json:"createdAt"`
	UpdatedAt       looseTime     `json:"updatedAt"`
	Images          []legacyImage `json:"images"`
	Source          looseString   `json:"source"`
	ApprovedBy      looseString   `json:"approvedBy"`
	ApprovedAt      looseTime     `json:"approvedAt"`
	RejectedBy      looseString   `json:"rejectedBy"`
	RejectedAt      looseTime     `json:"rejectedAt"`
	RejectionReason looseString   `json:"rejectionReason"`
}
