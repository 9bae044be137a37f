package server

import (
	"context"
	"net/http"

	"dealhunt/pkg/httpx/reply"
	"dealhunt/pkg/rest"
)

type quotaService interface {
	CanRun(ctx context.Context) (bool, int)
	Limit() int
	StatusMessage(ctx context.Context) string
}

type QuotaServer struct {
	quota quotaService
}

func NewQuotaServer(quota quotaService) QuotaServer {
	return QuotaServer{quota: quota}
}

func (s QuotaServer) getV1Quota(w http.ResponseWriter, r *http.Request) error {
	ctx := r.Context()

	allowed, remaining := s.quota.CanRun(ctx)

	reply.JSON(ctx, w, http.StatusOK, rest.QuotaResponse{
		Allowed:   allowed,
		Remaining: remaining,
		Limit:     s.quota.Limit(),
		Message:   s.quota.StatusMessage(ctx),
	})

	return nil
}
