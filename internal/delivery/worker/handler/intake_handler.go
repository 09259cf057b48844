package handler

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"rollcall/config"
	deliverycontext "rollcall/internal/delivery/context"
	"rollcall/internal/domain/constants"
	domainerrors "rollcall/internal/domain/errors"
	"rollcall/internal/usecase"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
	"go.uber.org/fx"
	"google.golang.org/api/idtoken"
)

// Intake message types carried in the Pub/Sub "type" attribute.
const (
	TypeAccountObserved    = "account.observed"
	TypeSubmissionSynced   = "submission.synced"
	TypeSubscriptionSynced = "subscription.synced"
	TypePersonMerge        = "person.merge"
	TypePersonUnmerge      = "person.unmerge"
)

// MergeMessage is the administrative request to fold one person into another
type MergeMessage struct {
	TargetPersonID uuid.UUID `json:"target_person_id"`
	SourcePersonID uuid.UUID `json:"source_person_id"`
}

// UnmergeMessage is the administrative request to split an alias away from its owner
type UnmergeMessage struct {
	EmailID uuid.UUID `json:"email_id"`
}

// PubSubMessage represents the structure of a Pub/Sub push message
type PubSubMessage struct {
	Message struct {
		Data        string            `json:"data"`
		Attributes  map[string]string `json:"attributes,omitempty"`
		MessageID   string            `json:"messageId"`
		PublishTime string            `json:"publishTime"`
	} `json:"message"`
	Subscription string `json:"subscription"`
}

// IntakeHandler handles Pub/Sub push messages carrying provider observations
// and administrative actions. Messages route on the "type" attribute:
// observed accounts feed association directly, submissions and subscriptions
// go through the fact sync path, merge and unmerge requests reach the
// identity curation path.
type IntakeHandler struct {
	verifyPushAuth bool
	logger         *slog.Logger
	associator     usecase.AssociatorUsecase
	intake         usecase.IntakeUsecase
	identity       usecase.IdentityUsecase
}

// IntakeHandlerParams holds dependencies for the IntakeHandler
type IntakeHandlerParams struct {
	fx.In

	Config     *config.Config
	Logger     *slog.Logger
	Associator usecase.AssociatorUsecase
	Intake     usecase.IntakeUsecase
	Identity   usecase.IdentityUsecase
}

// NewIntakeHandler creates a new Pub/Sub push handler
func NewIntakeHandler(params IntakeHandlerParams) *IntakeHandler {
	// Determine if we need to verify push auth based on config
	verifyPushAuth := params.Config.PubSub != nil &&
		params.Config.PubSub.Provider == constants.PubSubProviderGoogle &&
		params.Config.Env.Env != constants.EnvDevelop

	return &IntakeHandler{
		verifyPushAuth: verifyPushAuth,
		logger:         params.Logger,
		associator:     params.Associator,
		intake:         params.Intake,
		identity:       params.Identity,
	}
}

// HandlePush handles incoming Pub/Sub push messages
func (h *IntakeHandler) HandlePush(c echo.Context) error {
	ctx := c.Request().Context()

	// Verify Pub/Sub token in production for Google provider
	if h.verifyPushAuth {
		if err := verifyPubSubToken(c.Request()); err != nil {
			h.logger.Warn("[Worker] Invalid Pub/Sub token", slog.Any("error", err))

			return c.NoContent(http.StatusUnauthorized)
		}
	}

	// Parse Pub/Sub message
	var pushMsg PubSubMessage
	if err := c.Bind(&pushMsg); err != nil {
		h.logger.Error("[Worker] Failed to parse push message", slog.Any("error", err))

		return c.NoContent(http.StatusBadRequest)
	}

	// Decode base64 message data
	data, err := base64.StdEncoding.DecodeString(pushMsg.Message.Data)
	if err != nil {
		h.logger.Error("[Worker] Failed to decode message data", slog.Any("error", err))

		return c.NoContent(http.StatusBadRequest)
	}

	messageType := pushMsg.Message.Attributes["type"]
	if messageType == "" {
		messageType = TypeAccountObserved
	}

	// Extract request_id for distributed tracing
	requestID := h.extractRequestID(ctx, &pushMsg)

	// Create request-scoped logger with request_id
	reqLogger := h.logger.With(slog.String("request_id", requestID))

	// Update context with request_id and logger
	ctx = deliverycontext.WithRequestID(ctx, requestID)
	ctx = deliverycontext.WithLogger(ctx, reqLogger)

	reqLogger.Info("[Worker] Processing intake message",
		slog.String("type", messageType),
		slog.String("message_id", pushMsg.Message.MessageID),
	)

	if err := h.processMessage(ctx, messageType, data); err != nil {
		retryable := isRetryable(err)
		reqLogger.Error("[Worker] Failed to process intake message",
			slog.String("type", messageType),
			slog.Any("error", err),
			slog.Bool("retryable", retryable),
		)
		// Return 503 for retryable errors to trigger Pub/Sub retry.
		// Return 200 for permanent failures to prevent infinite retries.
		if retryable {
			return c.NoContent(http.StatusServiceUnavailable)
		}

		return c.NoContent(http.StatusOK)
	}

	reqLogger.Info("[Worker] Intake message processed successfully",
		slog.String("type", messageType),
	)

	return c.NoContent(http.StatusOK)
}

// processMessage routes a decoded intake payload by type.
func (h *IntakeHandler) processMessage(ctx context.Context, messageType string, data []byte) error {
	switch messageType {
	case TypeAccountObserved:
		var input usecase.ObservedAccountInput
		if err := json.Unmarshal(data, &input); err != nil {
			return errors.Wrap(err, "failed to parse observed account")
		}
		_, err := h.associator.Observe(ctx, &input)

		return err

	case TypeSubmissionSynced:
		var input usecase.SubmissionInput
		if err := json.Unmarshal(data, &input); err != nil {
			return errors.Wrap(err, "failed to parse submission")
		}

		return h.intake.SyncSubmission(ctx, &input)

	case TypeSubscriptionSynced:
		var input usecase.SubscriptionInput
		if err := json.Unmarshal(data, &input); err != nil {
			return errors.Wrap(err, "failed to parse subscription")
		}

		return h.intake.SyncSubscription(ctx, &input)

	case TypePersonMerge:
		var msg MergeMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			return domainerrors.ErrValidationFailed.WrapMessage("failed to parse merge request: " + err.Error())
		}
		if msg.TargetPersonID == uuid.Nil || msg.SourcePersonID == uuid.Nil {
			return domainerrors.ErrValidationFailed.WrapMessage("merge request missing person ids")
		}
		_, err := h.identity.Merge(ctx, msg.TargetPersonID, msg.SourcePersonID)

		return err

	case TypePersonUnmerge:
		var msg UnmergeMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			return domainerrors.ErrValidationFailed.WrapMessage("failed to parse unmerge request: " + err.Error())
		}
		if msg.EmailID == uuid.Nil {
			return domainerrors.ErrValidationFailed.WrapMessage("unmerge request missing email id")
		}

		return h.identity.Unmerge(ctx, msg.EmailID)

	default:
		// Unknown types never become processable; dropping beats retrying.
		return domainerrors.ErrValidationFailed.WrapMessage("unknown intake message type: " + messageType)
	}
}

// isRetryable reports whether a processing failure may succeed on redelivery.
// Malformed payloads and domain rejections are permanent; everything else is
// assumed transient (database down, transaction conflict).
func isRetryable(err error) bool {
	if domainerrors.IsNotFound(err) ||
		domainerrors.IsInvalidOperation(err) ||
		domainerrors.IsConstraintViolation(err) {
		return false
	}

	var parseErr *json.SyntaxError
	if errors.As(err, &parseErr) {
		return false
	}

	return true
}

// extractRequestID extracts request_id from message attributes or generates a new one
func (h *IntakeHandler) extractRequestID(ctx context.Context, pushMsg *PubSubMessage) string {
	// 1. Try message attributes (from Pub/Sub)
	if requestID, ok := pushMsg.Message.Attributes["request_id"]; ok && requestID != "" {
		return requestID
	}

	// 2. Try existing context (from RequestIDMiddleware via X-Request-Id header)
	if requestID := deliverycontext.GetRequestIDFromContext(ctx); requestID != "" {
		return requestID
	}

	// 3. Generate new UUID as fallback
	return uuid.New().String()
}

// verifyPubSubToken verifies the JWT token from Google Pub/Sub push requests
// Reference: https://cloud.google.com/pubsub/docs/push#authenticating_standard_push_requests
func verifyPubSubToken(req *http.Request) error {
	// Get the Authorization header
	authHeader := req.Header.Get("Authorization")
	if authHeader == "" {
		return errors.New("missing authorization header")
	}

	// Extract Bearer token
	const bearerPrefix = "Bearer "
	if !strings.HasPrefix(authHeader, bearerPrefix) {
		return errors.New("invalid authorization header format")
	}
	token := strings.TrimPrefix(authHeader, bearerPrefix)

	// Construct the expected audience (the push endpoint URL)
	scheme := "https"
	if req.TLS == nil {
		scheme = "http" // For local development
	}
	audience := fmt.Sprintf("%s://%s%s", scheme, req.Host, req.URL.Path)

	// Validate the token using Google's ID token validator
	ctx := req.Context()
	payload, err := idtoken.Validate(ctx, token, audience)
	if err != nil {
		return errors.Wrap(err, "failed to validate token")
	}

	// Verify the token is from Google Pub/Sub
	if payload.Issuer != "accounts.google.com" && payload.Issuer != "https://accounts.google.com" {
		return errors.Errorf("invalid issuer: %s", payload.Issuer)
	}

	// Verify email is verified (if email claim exists)
	if emailVerified, ok := payload.Claims["email_verified"].(bool); ok && !emailVerified {
		return errors.New("email not verified")
	}

	return nil
}
