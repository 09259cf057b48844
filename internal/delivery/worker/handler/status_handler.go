package handler

import (
	"log/slog"
	"net/http"

	"rollcall/internal/delivery/worker/response"
	"rollcall/internal/domain/entity"
	"rollcall/internal/usecase"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"go.uber.org/fx"
)

// StatusHandlerParams holds dependencies for StatusHandler, injected by Fx.
type StatusHandlerParams struct {
	fx.In

	StatusUC usecase.StatusUsecase
	Logger   *slog.Logger
}

// StatusHandler exposes the read-only person and status queries to
// collaborators rendering member data.
type StatusHandler struct {
	statusUC usecase.StatusUsecase
	logger   *slog.Logger
}

// NewStatusHandler is the constructor for StatusHandler
func NewStatusHandler(params StatusHandlerParams) *StatusHandler {
	return &StatusHandler{
		statusUC: params.StatusUC,
		logger:   params.Logger,
	}
}

// PersonResponse represents a person with their aliases
type PersonResponse struct {
	ID               uuid.UUID       `json:"id"`
	Name             string          `json:"name"`
	PreferredEmailID *uuid.UUID      `json:"preferred_email_id,omitempty"`
	Aliases          []AliasResponse `json:"aliases"`
}

// AliasResponse represents a single email alias
type AliasResponse struct {
	ID      uuid.UUID `json:"id"`
	Address string    `json:"address"`
}

// PersonStatusResponse represents a person with their derived status facts
type PersonStatusResponse struct {
	PersonResponse
	Membership        entity.MembershipStatus `json:"membership"`
	MembershipCurrent bool                    `json:"membership_current"`
	Waiver            bool                    `json:"waiver"`
}

// GetPerson handles retrieving a single person with derived membership and waiver status
func (h *StatusHandler) GetPerson(c echo.Context) error {
	personID, err := uuid.Parse(c.Param("personId"))
	if err != nil {
		return response.BadRequest(c, "INVALID_ID", "Invalid person ID")
	}

	status, err := h.statusUC.Get(c.Request().Context(), personID)
	if err != nil {
		return response.HandleAppError(c, err)
	}

	return response.Success(c, http.StatusOK, toPersonStatusResponse(status), "Person retrieved successfully")
}

// ListPersons handles the person listing queries. A "q" query parameter
// switches to text search, "members=true" narrows to current members.
func (h *StatusHandler) ListPersons(c echo.Context) error {
	ctx := c.Request().Context()

	if query := c.QueryParam("q"); query != "" {
		persons, err := h.statusUC.Search(ctx, query)
		if err != nil {
			return response.HandleAppError(c, err)
		}

		return response.Success(c, http.StatusOK, toPersonResponses(persons), "Persons retrieved successfully")
	}

	if c.QueryParam("members") == "true" {
		statuses, err := h.statusUC.Members(ctx)
		if err != nil {
			return response.HandleAppError(c, err)
		}

		members := make([]*PersonStatusResponse, 0, len(statuses))
		for _, status := range statuses {
			members = append(members, toPersonStatusResponse(status))
		}

		return response.Success(c, http.StatusOK, members, "Members retrieved successfully")
	}

	persons, err := h.statusUC.List(ctx)
	if err != nil {
		return response.HandleAppError(c, err)
	}

	return response.Success(c, http.StatusOK, toPersonResponses(persons), "Persons retrieved successfully")
}

func toPersonResponse(person *entity.Person) *PersonResponse {
	aliases := make([]AliasResponse, 0, len(person.Aliases))
	for _, alias := range person.Aliases {
		aliases = append(aliases, AliasResponse{
			ID:      alias.ID,
			Address: alias.Address,
		})
	}

	return &PersonResponse{
		ID:               person.ID,
		Name:             person.Name,
		PreferredEmailID: person.PreferredEmailID,
		Aliases:          aliases,
	}
}

func toPersonResponses(persons []*entity.Person) []*PersonResponse {
	responses := make([]*PersonResponse, 0, len(persons))
	for _, person := range persons {
		responses = append(responses, toPersonResponse(person))
	}

	return responses
}

func toPersonStatusResponse(status *usecase.PersonStatus) *PersonStatusResponse {
	return &PersonStatusResponse{
		PersonResponse:    *toPersonResponse(status.Person),
		Membership:        status.Membership,
		MembershipCurrent: status.Membership.Current(),
		Waiver:            status.Waiver,
	}
}
