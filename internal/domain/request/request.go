package request

import (
	"strings"
	"time"
)

type Status string

const StatusOpen Status = "open"

const anonymousRequester = "Anonymous"

// Request is an emergency blood request. Anyone may post one; it is never
// edited afterwards.
type Request struct {
	ID            int64     `json:"id"`
	RequesterName string    `json:"requester_name"`
	Phone         string    `json:"phone"`
	BloodGroup    string    `json:"blood_group"`
	City          string    `json:"city"`
	State         string    `json:"state"`
	Notes         string    `json:"notes"`
	Status        Status    `json:"status"`
	CreatedAt     time.Time `json:"created_at"`
}

type CreateRequest struct {
	RequesterName string `json:"requester_name" binding:"omitempty,max=120"`
	Phone         string `json:"phone" binding:"required,notblank,max=40"`
	BloodGroup    string `json:"blood_group" binding:"required,notblank,max=8"`
	City          string `json:"city" binding:"required,notblank,max=80"`
	State         string `json:"state" binding:"omitempty,max=80"`
	Notes         string `json:"notes" binding:"omitempty,max=1000"`
}

// NewFromCreateRequest fills defaults; the id is assigned by the store.
func NewFromCreateRequest(id int64, req CreateRequest, now time.Time) Request {
	name := strings.TrimSpace(req.RequesterName)
	if name == "" {
		name = anonymousRequester
	}

	return Request{
		ID:            id,
		RequesterName: name,
		Phone:         strings.TrimSpace(req.Phone),
		BloodGroup:    strings.TrimSpace(req.BloodGroup),
		City:          strings.TrimSpace(req.City),
		State:         strings.TrimSpace(req.State),
		Notes:         strings.TrimSpace(req.Notes),
		Status:        StatusOpen,
		CreatedAt:     now.UTC(),
	}
}
