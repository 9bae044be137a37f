package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"git.appkode.ru/pub/go/failure"

	"dealhunt/internal/domain"
	"dealhunt/internal/stream"
	"dealhunt/internal/worker"
	"dealhunt/pkg/errcodes"
	"dealhunt/pkg/httpx/reply"
	"dealhunt/pkg/httpx/req"
	"dealhunt/pkg/rest"
)

type runDispatcher interface {
	Start(ctx context.Context, recipient string) (*worker.Run, error)
	Get(id string) (*worker.Run, bool)
}

type quotaStatus interface {
	StatusMessage(ctx context.Context) string
}

type RunServer struct {
	dispatcher  runDispatcher
	quotaStatus quotaStatus
}

func NewRunServer(dispatcher runDispatcher, quotaStatus quotaStatus) RunServer {
	return RunServer{
		dispatcher:  dispatcher,
		quotaStatus: quotaStatus,
	}
}

func (s RunServer) postV1Run(w http.ResponseWriter, r *http.Request) error {
	ctx := r.Context()

	var request rest.StartRunRequest

	if err := req.Read(r, &request); err != nil {
		return fmt.Errorf("req.Read: %w", err)
	}

	run, err := s.dispatcher.Start(ctx, request.Recipient)
	if err != nil {
		return runStartError(err, s.quotaStatus.StatusMessage(ctx))
	}

	reply.JSON(ctx, w, http.StatusAccepted, rest.StartRunResponse{RunID: run.ID})

	return nil
}

func (s RunServer) getV1RunEvents(w http.ResponseWriter, r *http.Request) error {
	ctx := r.Context()

	run, ok := s.dispatcher.Get(r.PathValue("id"))
	if !ok {
		return failure.NewNotFoundError(
			"run not found",
			failure.WithCode(errcodes.RunNotFound),
		)
	}

	cursor := 0
	if raw := r.URL.Query().Get("cursor"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil {
			return failure.NewInvalidArgumentError(
				fmt.Sprintf("invalid cursor: %v", err),
				failure.WithCode(errcodes.ValidationError),
			)
		}
		cursor = parsed
	}

	reply.JSON(ctx, w, http.StatusOK, s.newRunEventsResponse(ctx, run, cursor))

	return nil
}

func (s RunServer) newRunEventsResponse(
	ctx context.Context,
	run *worker.Run,
	cursor int,
) rest.RunEventsResponse {
	response := rest.RunEventsResponse{
		RunID: run.ID,
		Phase: string(stream.PhaseRunning),
		Log:   []string{},
	}

	state, ok := run.Latest()
	if !ok {
		response.NextCursor = cursor
		return response
	}

	if cursor < 0 {
		cursor = 0
	}
	if cursor > len(state.Log) {
		cursor = len(state.Log)
	}

	response.Phase = string(state.Phase)
	response.Log = append(response.Log, state.Log[cursor:]...)
	response.NextCursor = len(state.Log)
	response.Table = newRESTTable(state.Table)

	if state.Err != nil {
		response.Error = state.Err.Error()
	}

	if state.Phase.Terminal() {
		response.Quota = s.quotaStatus.StatusMessage(ctx)
	}

	return response
}

func runStartError(err error, quotaMessage string) error {
	var appErr *domain.AppError
	if !errors.As(err, &appErr) {
		return fmt.Errorf("dispatcher.Start: %w", err)
	}

	switch appErr.Code {
	case errcodes.QuotaExceeded:
		return failure.NewForbiddenError(
			appErr.Message,
			failure.WithCode(errcodes.QuotaExceeded),
			failure.WithDescription(quotaMessage),
		)
	case errcodes.RunInProgress:
		return failure.NewConflictError(
			appErr.Message,
			failure.WithCode(errcodes.RunInProgress),
			failure.WithDescription("A hunt is already running, wait for it to finish"),
		)
	default:
		return fmt.Errorf("dispatcher.Start: %w", err)
	}
}
