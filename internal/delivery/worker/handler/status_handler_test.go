package handler

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"rollcall/config"
	"rollcall/internal/delivery/worker/response"
	"rollcall/internal/infra/persistence/memory"
	"rollcall/internal/infra/pubsub"
	"rollcall/internal/usecase"
	"rollcall/internal/usecase/impl"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type statusFixtures struct {
	handler    *StatusHandler
	associator usecase.AssociatorUsecase
	intake     usecase.IntakeUsecase
}

func createTestStatusHandler(t *testing.T) statusFixtures {
	t.Helper()

	store := memory.NewStore()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	publisher := pubsub.NewNoopPublisher(logger)
	cfg := &config.Config{
		Reconcile: &config.ReconcileConfig{WaiverCategory: "waiver"},
	}

	associator := impl.NewAssociatorService(impl.AssociatorServiceParams{
		TxManager: store,
		Publisher: publisher,
		Locker:    impl.NewEmailLocker(),
		Config:    cfg,
		Logger:    logger,
	})
	intake := impl.NewIntakeService(impl.IntakeServiceParams{
		TxManager:  store,
		Associator: associator,
		Logger:     logger,
	})
	status := impl.NewStatusService(impl.StatusServiceParams{
		PersonRepo:       store.NewPersonRepository(),
		LinkRepo:         store.NewLinkRepository(),
		SubmissionRepo:   store.NewSubmissionRepository(),
		SubscriptionRepo: store.NewSubscriptionRepository(),
		Config:           cfg,
		Logger:           logger,
	})

	h := NewStatusHandler(StatusHandlerParams{
		StatusUC: status,
		Logger:   logger,
	})

	return statusFixtures{handler: h, associator: associator, intake: intake}
}

func decodeResponse(t *testing.T, rec *httptest.ResponseRecorder) response.Response {
	t.Helper()

	var resp response.Response
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))

	return resp
}

func TestStatusHandler_GetPerson(t *testing.T) {
	fx := createTestStatusHandler(t)
	e := echo.New()
	ctx := context.Background()

	observed, err := fx.associator.Observe(ctx, &usecase.ObservedAccountInput{
		Kind: "signer", ExternalID: "sig-1", Email: "ada@example.com",
	})
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/persons/"+observed.Person.ID.String(), nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("personId")
	c.SetParamValues(observed.Person.ID.String())

	require.NoError(t, fx.handler.GetPerson(c))
	assert.Equal(t, http.StatusOK, rec.Code)

	resp := decodeResponse(t, rec)
	assert.True(t, resp.Success)

	data, err := json.Marshal(resp.Data)
	require.NoError(t, err)
	var person PersonStatusResponse
	require.NoError(t, json.Unmarshal(data, &person))
	assert.Equal(t, "ada@example.com", person.Name)
	assert.Equal(t, "none", string(person.Membership))
	assert.False(t, person.Waiver)
	require.Len(t, person.Aliases, 1)
	assert.Equal(t, "ada@example.com", person.Aliases[0].Address)
}

func TestStatusHandler_GetPerson_InvalidID(t *testing.T) {
	fx := createTestStatusHandler(t)
	e := echo.New()

	req := httptest.NewRequest(http.MethodGet, "/persons/not-a-uuid", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("personId")
	c.SetParamValues("not-a-uuid")

	require.NoError(t, fx.handler.GetPerson(c))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestStatusHandler_GetPerson_NotFound(t *testing.T) {
	fx := createTestStatusHandler(t)
	e := echo.New()

	req := httptest.NewRequest(http.MethodGet, "/persons/7f8dd64f-2c39-4b50-9a3e-111111111111", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("personId")
	c.SetParamValues("7f8dd64f-2c39-4b50-9a3e-111111111111")

	require.NoError(t, fx.handler.GetPerson(c))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestStatusHandler_ListPersons(t *testing.T) {
	fx := createTestStatusHandler(t)
	e := echo.New()
	ctx := context.Background()

	_, err := fx.associator.Observe(ctx, &usecase.ObservedAccountInput{
		Kind: "signer", ExternalID: "sig-1", Email: "ada@example.com",
	})
	require.NoError(t, err)
	_, err = fx.associator.Observe(ctx, &usecase.ObservedAccountInput{
		Kind: "signer", ExternalID: "sig-2", Email: "grace@example.com",
	})
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/persons", nil)
	rec := httptest.NewRecorder()

	require.NoError(t, fx.handler.ListPersons(e.NewContext(req, rec)))
	assert.Equal(t, http.StatusOK, rec.Code)

	resp := decodeResponse(t, rec)
	data, err := json.Marshal(resp.Data)
	require.NoError(t, err)
	var persons []PersonResponse
	require.NoError(t, json.Unmarshal(data, &persons))
	assert.Len(t, persons, 2)
}

func TestStatusHandler_ListPersons_Search(t *testing.T) {
	fx := createTestStatusHandler(t)
	e := echo.New()
	ctx := context.Background()

	_, err := fx.associator.Observe(ctx, &usecase.ObservedAccountInput{
		Kind: "signer", ExternalID: "sig-1", Email: "ada@example.com",
	})
	require.NoError(t, err)
	_, err = fx.associator.Observe(ctx, &usecase.ObservedAccountInput{
		Kind: "signer", ExternalID: "sig-2", Email: "grace@example.com",
	})
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/persons?q=grace", nil)
	rec := httptest.NewRecorder()

	require.NoError(t, fx.handler.ListPersons(e.NewContext(req, rec)))
	assert.Equal(t, http.StatusOK, rec.Code)

	resp := decodeResponse(t, rec)
	data, err := json.Marshal(resp.Data)
	require.NoError(t, err)
	var persons []PersonResponse
	require.NoError(t, json.Unmarshal(data, &persons))
	require.Len(t, persons, 1)
	assert.Equal(t, "grace@example.com", persons[0].Name)
}

func TestStatusHandler_ListPersons_Members(t *testing.T) {
	fx := createTestStatusHandler(t)
	e := echo.New()
	ctx := context.Background()

	// One active member and one person without any subscription.
	require.NoError(t, fx.intake.SyncSubscription(ctx, &usecase.SubscriptionInput{
		ExternalID:         "sub-1",
		CustomerExternalID: "cus-1",
		CustomerEmail:      "ada@example.com",
		Status:             "active",
	}))
	_, err := fx.associator.Observe(ctx, &usecase.ObservedAccountInput{
		Kind: "signer", ExternalID: "sig-1", Email: "grace@example.com",
	})
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/persons?members=true", nil)
	rec := httptest.NewRecorder()

	require.NoError(t, fx.handler.ListPersons(e.NewContext(req, rec)))
	assert.Equal(t, http.StatusOK, rec.Code)

	resp := decodeResponse(t, rec)
	data, err := json.Marshal(resp.Data)
	require.NoError(t, err)
	var members []PersonStatusResponse
	require.NoError(t, json.Unmarshal(data, &members))
	require.Len(t, members, 1)
	assert.Equal(t, "ada@example.com", members[0].Name)
	assert.True(t, members[0].MembershipCurrent)
}
