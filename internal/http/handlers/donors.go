package handlers

import (
	"context"
	"time"

	"github.com/geocoder89/bloodhub/internal/domain/user"
	"github.com/gin-gonic/gin"
)

type DonorLister interface {
	ListByRole(ctx context.Context, role user.Role) ([]user.User, error)
}

type DonorsHandler struct {
	users DonorLister
}

func NewDonorsHandler(users DonorLister) *DonorsHandler {
	return &DonorsHandler{users: users}
}

// ListDonors shows registered donors without their contact details.
func (h *DonorsHandler) ListDonors(ctx *gin.Context) {
	cctx, cancel := storeCtx(ctx, 3*time.Second)
	defer cancel()

	users, err := h.users.ListByRole(cctx, user.RoleDonor)
	if err != nil {
		RespondInternal(ctx, "could not list donors")
		return
	}

	donors := make([]user.Donor, 0, len(users))
	for _, u := range users {
		donors = append(donors, u.Donor())
	}

	RespondOK(ctx, gin.H{"donors": donors})
}
