package server

import (
	"context"
	"fmt"
	"net/http"
	"strconv"

	"git.appkode.ru/pub/go/failure"

	"dealhunt/internal/domain/entity"
	"dealhunt/pkg/errcodes"
	"dealhunt/pkg/httpx/reply"
	"dealhunt/pkg/httpx/req"
	"dealhunt/pkg/rest"
)

const defaultResetKeep = 2

type opportunitySource interface {
	Snapshot() []entity.Opportunity
	Reset(ctx context.Context, keepFirstN int)
}

type alertNotifier interface {
	Alert(ctx context.Context, o entity.Opportunity) error
}

type OpportunityServer struct {
	source   opportunitySource
	notifier alertNotifier
}

// NewOpportunityServer builds the handler set for the opportunity table.
// notifier may be nil when no alert channel is configured.
func NewOpportunityServer(source opportunitySource, notifier alertNotifier) OpportunityServer {
	return OpportunityServer{
		source:   source,
		notifier: notifier,
	}
}

func (s OpportunityServer) getV1Opportunities(w http.ResponseWriter, r *http.Request) error {
	ctx := r.Context()

	reply.JSON(ctx, w, http.StatusOK, rest.OpportunitiesResponse{
		Opportunities: newRESTTable(sortedLatestFirst(s.source.Snapshot())),
	})

	return nil
}

func (s OpportunityServer) postV1OpportunityAlert(w http.ResponseWriter, r *http.Request) error {
	ctx := r.Context()

	if s.notifier == nil {
		return failure.NewUnprocessableEntityError(
			"no alert channel configured",
			failure.WithCode(errcodes.NotifierUnavailable),
			failure.WithDescription("Alerting is not configured on this instance"),
		)
	}

	index, err := strconv.Atoi(r.PathValue("index"))
	if err != nil {
		return failure.NewInvalidArgumentError(
			fmt.Sprintf("invalid index: %v", err),
			failure.WithCode(errcodes.ValidationError),
		)
	}

	opportunities := sortedLatestFirst(s.source.Snapshot())
	if index < 0 || index >= len(opportunities) {
		return failure.NewNotFoundError(
			fmt.Sprintf("no opportunity at index %d", index),
			failure.WithCode(errcodes.OpportunityNotFound),
		)
	}

	if err := s.notifier.Alert(ctx, opportunities[index]); err != nil {
		return fmt.Errorf("notifier.Alert: %w", err)
	}

	reply.OK(w)

	return nil
}

func (s OpportunityServer) postV1MemoryReset(w http.ResponseWriter, r *http.Request) error {
	ctx := r.Context()

	request := rest.ResetMemoryRequest{Keep: defaultResetKeep}

	if r.ContentLength != 0 {
		if err := req.Read(r, &request); err != nil {
			return fmt.Errorf("req.Read: %w", err)
		}
	}

	s.source.Reset(ctx, request.Keep)

	reply.JSON(ctx, w, http.StatusOK, rest.OpportunitiesResponse{
		Opportunities: newRESTTable(sortedLatestFirst(s.source.Snapshot())),
	})

	return nil
}
