package server_test

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"dealhunt/internal/domain/entity"
	"dealhunt/internal/domain/service/hunt"
	"dealhunt/internal/domain/service/quota"
	"dealhunt/internal/infrastructure/blob"
	"dealhunt/internal/infrastructure/persistence"
	"dealhunt/internal/observability"
	"dealhunt/internal/server"
	"dealhunt/internal/stream"
	"dealhunt/internal/worker"
	"dealhunt/pkg/middlewarex"
	"dealhunt/pkg/rest"
	"dealhunt/pkg/tests"
)

type plannerFunc func(ctx context.Context, memory []entity.Opportunity, recipient string) (*entity.Opportunity, error)

func (f plannerFunc) Plan(
	ctx context.Context,
	memory []entity.Opportunity,
	recipient string,
) (*entity.Opportunity, error) {
	return f(ctx, memory, recipient)
}

type notifierSpy struct {
	alerted []entity.Opportunity
	err     error
}

func (n *notifierSpy) Alert(_ context.Context, o entity.Opportunity) error {
	if n.err != nil {
		return n.err
	}

	n.alerted = append(n.alerted, o)

	return nil
}

type testAPI struct {
	client   tests.APIClient
	store    *persistence.ResultStore
	notifier *notifierSpy
	gate     *quota.Gate
}

func newTestAPI(t *testing.T, planner hunt.Planner, limit int) testAPI {
	t.Helper()

	store := persistence.NewResultStore(blob.NewMemoryStore(), "deal_memory.json")
	require.NoError(t, store.Load(context.Background()))

	gate := quota.NewGate(blob.NewMemoryStore(), limit, time.UTC)
	coordinator := hunt.NewCoordinator(planner, store, time.UTC)
	metrics := observability.NewMetrics(prometheus.NewRegistry(), "test")
	dispatcher := worker.NewDispatcher(coordinator, gate, metrics, time.Second)

	spy := &notifierSpy{}

	srv := server.NewServer(
		server.NewRunServer(dispatcher, gate),
		server.NewOpportunityServer(store, spy),
		server.NewQuotaServer(gate),
	)

	router := chi.NewRouter()
	router.Use(middlewarex.TraceID)
	srv.RegisterRoutes(router)

	httpServer := httptest.NewServer(router)
	t.Cleanup(httpServer.Close)

	return testAPI{
		client:   tests.NewAPIClient(httpServer.URL, nil),
		store:    store,
		notifier: spy,
		gate:     gate,
	}
}

func pollTerminal(t *testing.T, api testAPI, runID string) rest.RunEventsResponse {
	t.Helper()

	ctx := context.Background()
	deadline := time.Now().Add(5 * time.Second)

	cursor := 0

	for time.Now().Before(deadline) {
		var events rest.RunEventsResponse

		endpoint := fmt.Sprintf("/v1/runs/%s/events?cursor=%d", runID, cursor)

		_, err := api.client.Get(ctx, endpoint, nil, &events, nil)
		require.NoError(t, err)

		cursor = events.NextCursor

		if stream.Phase(events.Phase).Terminal() {
			return events
		}

		time.Sleep(5 * time.Millisecond)
	}

	t.Fatal("run never reached a terminal state")

	return rest.RunEventsResponse{}
}

func foundOpportunity() *entity.Opportunity {
	return &entity.Opportunity{
		Deal: entity.Deal{
			ProductDescription: "Bluetooth speaker",
			Price:              decimal.RequireFromString("100.00"),
			URL:                "https://deals.example/speaker",
		},
		Estimate: decimal.RequireFromString("115.00"),
		Discount: decimal.RequireFromString("15.00"),
	}
}

func TestPostRunAndPollEvents(t *testing.T) {
	rq := require.New(t)
	ctx := context.Background()

	planner := plannerFunc(func(context.Context, []entity.Opportunity, string) (*entity.Opportunity, error) {
		return foundOpportunity(), nil
	})

	api := newTestAPI(t, planner, 5)

	var started rest.StartRunResponse

	resp, err := api.client.Post(ctx, "/v1/runs", nil, rest.StartRunRequest{
		Recipient: "user@example.com",
	}, &started, nil)
	rq.NoError(err)
	rq.Equal(http.StatusAccepted, resp.StatusCode)
	rq.NotEmpty(started.RunID)

	final := pollTerminal(t, api, started.RunID)
	rq.Equal(string(stream.PhaseCompleted), final.Phase)
	rq.Len(final.Table, 1)
	rq.Equal("Bluetooth speaker", final.Table[0].ProductDescription)
	rq.Equal("15.00", final.Table[0].Discount)
	rq.Contains(final.Quota, "runs remaining today")
	rq.Empty(final.Error)
}

func TestPostRunInvalidRecipient(t *testing.T) {
	ctx := context.Background()

	planner := plannerFunc(func(context.Context, []entity.Opportunity, string) (*entity.Opportunity, error) {
		return nil, nil
	})

	api := newTestAPI(t, planner, 5)

	testCases := []struct {
		name      string
		recipient string
	}{
		{name: "empty", recipient: ""},
		{name: "not an email", recipient: "not-an-email"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			rq := require.New(t)

			var errResp rest.Error

			resp, err := api.client.Post(ctx, "/v1/runs", nil, rest.StartRunRequest{
				Recipient: tc.recipient,
			}, nil, &errResp)
			rq.NoError(err)
			rq.Equal(http.StatusBadRequest, resp.StatusCode)
			rq.Equal(rest.ErrorCode("ValidationError"), errResp.Code)
		})
	}
}

func TestPostRunQuotaExhausted(t *testing.T) {
	rq := require.New(t)
	ctx := context.Background()

	planner := plannerFunc(func(context.Context, []entity.Opportunity, string) (*entity.Opportunity, error) {
		return nil, nil
	})

	api := newTestAPI(t, planner, 1)

	var started rest.StartRunResponse

	_, err := api.client.Post(ctx, "/v1/runs", nil, rest.StartRunRequest{
		Recipient: "user@example.com",
	}, &started, nil)
	rq.NoError(err)

	pollTerminal(t, api, started.RunID)

	var errResp rest.Error

	resp, err := api.client.Post(ctx, "/v1/runs", nil, rest.StartRunRequest{
		Recipient: "user@example.com",
	}, nil, &errResp)
	rq.NoError(err)
	rq.Equal(http.StatusForbidden, resp.StatusCode)
	rq.Equal(rest.ErrorCode("QuotaExceeded"), errResp.Code)

	var quotaResp rest.QuotaResponse

	_, err = api.client.Get(ctx, "/v1/quota", nil, &quotaResp, nil)
	rq.NoError(err)
	rq.False(quotaResp.Allowed)
	rq.Equal(0, quotaResp.Remaining)
	rq.Equal(1, quotaResp.Limit)
	rq.Contains(quotaResp.Message, "Daily limit of 1 runs reached")
}

func TestGetRunEventsUnknownRun(t *testing.T) {
	rq := require.New(t)
	ctx := context.Background()

	planner := plannerFunc(func(context.Context, []entity.Opportunity, string) (*entity.Opportunity, error) {
		return nil, nil
	})

	api := newTestAPI(t, planner, 5)

	var errResp rest.Error

	resp, err := api.client.Get(ctx, "/v1/runs/no-such-run/events", nil, nil, &errResp)
	rq.NoError(err)
	rq.Equal(http.StatusNotFound, resp.StatusCode)
	rq.Equal(rest.ErrorCode("RunNotFound"), errResp.Code)
}

func TestGetOpportunitiesSortedLatestFirst(t *testing.T) {
	rq := require.New(t)
	ctx := context.Background()

	planner := plannerFunc(func(context.Context, []entity.Opportunity, string) (*entity.Opportunity, error) {
		return nil, nil
	})

	api := newTestAPI(t, planner, 5)

	older := time.Date(2025, 11, 1, 10, 0, 0, 0, time.UTC)
	newer := time.Date(2025, 11, 2, 10, 0, 0, 0, time.UTC)

	first := *foundOpportunity()
	first.Deal.ProductDescription = "Older deal"
	first.AddedAt = &older

	second := *foundOpportunity()
	second.Deal.ProductDescription = "Newer deal"
	second.AddedAt = &newer

	legacy := *foundOpportunity()
	legacy.Deal.ProductDescription = "Legacy deal"

	api.store.Append(ctx, first)
	api.store.Append(ctx, legacy)
	api.store.Append(ctx, second)

	var got rest.OpportunitiesResponse

	_, err := api.client.Get(ctx, "/v1/opportunities", nil, &got, nil)
	rq.NoError(err)
	rq.Len(got.Opportunities, 3)

	rq.Equal("Newer deal", got.Opportunities[0].ProductDescription)
	rq.Equal("Older deal", got.Opportunities[1].ProductDescription)

	// Entries without a timestamp sort last.
	rq.Equal("Legacy deal", got.Opportunities[2].ProductDescription)
	rq.Empty(got.Opportunities[2].AddedAt)
}

func TestPostOpportunityAlert(t *testing.T) {
	rq := require.New(t)
	ctx := context.Background()

	planner := plannerFunc(func(context.Context, []entity.Opportunity, string) (*entity.Opportunity, error) {
		return nil, nil
	})

	api := newTestAPI(t, planner, 5)

	api.store.Append(ctx, *foundOpportunity())

	resp, err := api.client.Post(ctx, "/v1/opportunities/0/alert", nil, nil, nil, nil)
	rq.NoError(err)
	rq.Equal(http.StatusOK, resp.StatusCode)
	rq.Len(api.notifier.alerted, 1)
	rq.Equal("Bluetooth speaker", api.notifier.alerted[0].Deal.ProductDescription)

	var errResp rest.Error

	resp, err = api.client.Post(ctx, "/v1/opportunities/7/alert", nil, nil, nil, &errResp)
	rq.NoError(err)
	rq.Equal(http.StatusNotFound, resp.StatusCode)
	rq.Equal(rest.ErrorCode("OpportunityNotFound"), errResp.Code)
}

func TestPostMemoryReset(t *testing.T) {
	rq := require.New(t)
	ctx := context.Background()

	planner := plannerFunc(func(context.Context, []entity.Opportunity, string) (*entity.Opportunity, error) {
		return nil, nil
	})

	api := newTestAPI(t, planner, 5)

	for n := range 5 {
		o := *foundOpportunity()
		o.Deal.ProductDescription = fmt.Sprintf("Widget %d", n)
		api.store.Append(ctx, o)
	}

	// Explicit keep count.
	var got rest.OpportunitiesResponse

	resp, err := api.client.Post(ctx, "/v1/memory/reset", nil, rest.ResetMemoryRequest{
		Keep: 4,
	}, &got, nil)
	rq.NoError(err)
	rq.Equal(http.StatusOK, resp.StatusCode)
	rq.Len(got.Opportunities, 4)
	rq.Equal(4, api.store.Len())

	// Empty body falls back to keeping the first two entries.
	_, err = api.client.PostJSON(ctx, "/v1/memory/reset", nil, "", &got, nil)
	rq.NoError(err)
	rq.Len(got.Opportunities, 2)
	rq.Equal(2, api.store.Len())

	snapshot := api.store.Snapshot()
	rq.Equal("Widget 0", snapshot[0].Deal.ProductDescription)
	rq.Equal("Widget 1", snapshot[1].Deal.ProductDescription)
}
