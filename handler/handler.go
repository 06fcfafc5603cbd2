package handler

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/aws/aws-lambda-go/events"
	"github.com/google/uuid"

	"ops-agent/internal/compose"
	"ops-agent/internal/domain"
	"ops-agent/internal/metrics"
	"ops-agent/internal/usecase"
)

const correlationHeader = "X-Correlation-Id"

// UseCase is the subset of usecase.AskService the handler needs.
type UseCase interface {
	Ask(ctx context.Context, in usecase.AskInput) (usecase.AskOutput, error)
	Transfer(ctx context.Context, in usecase.TransferInput) (usecase.TransferOutput, error)
	Summary(ctx context.Context) (metrics.Summary, error)
}

type Handler struct {
	uc     UseCase
	logger *slog.Logger
}

func NewHandler(uc UseCase) (*Handler, error) {
	if uc == nil {
		return nil, errors.New("handler: use case must not be nil")
	}
	return &Handler{uc: uc, logger: slog.Default()}, nil
}

type askRequest struct {
	Question  string `json:"question"`
	SessionID string `json:"sessionId"`
}

type askResponse struct {
	Answer     string              `json:"answer"`
	Attachment *compose.Attachment `json:"attachment,omitempty"`
	SessionID  string              `json:"sessionId"`
}

type transferRequest struct {
	Product  string `json:"product"`
	From     string `json:"from"`
	To       string `json:"to"`
	Quantity int    `json:"quantity"`
}

type transferResponse struct {
	Source      domain.InventoryRecord `json:"source"`
	Destination domain.InventoryRecord `json:"destination"`
}

type errorResponse struct {
	Error  string `json:"error"`
	Reason string `json:"reason,omitempty"`
}

// Handle routes an API Gateway proxy event. Errors are always reported in
// the response body; the returned error is reserved for the runtime.
func (h *Handler) Handle(ctx context.Context, event events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
	correlationID := headerValue(event.Headers, correlationHeader)
	if correlationID == "" {
		correlationID = uuid.NewString()
	}
	logger := h.logger.With("correlation_id", correlationID)

	route := event.HTTPMethod + " " + strings.TrimRight(event.Path, "/")
	switch route {
	case "POST /ask":
		return h.ask(ctx, logger, correlationID, event.Body), nil
	case "POST /transfer":
		return h.transfer(ctx, logger, correlationID, event.Body), nil
	case "GET /metrics":
		return h.summary(ctx, logger, correlationID), nil
	case "GET /health":
		return jsonResponse(http.StatusOK, correlationID, map[string]string{"status": "ok"}), nil
	default:
		return jsonResponse(http.StatusNotFound, correlationID, errorResponse{
			Error:  string(usecase.ErrorNotFound),
			Reason: "unknown_route",
		}), nil
	}
}

func (h *Handler) ask(ctx context.Context, logger *slog.Logger, correlationID, body string) events.APIGatewayProxyResponse {
	var req askRequest
	if err := json.Unmarshal([]byte(body), &req); err != nil {
		return badBody(correlationID)
	}
	out, err := h.uc.Ask(ctx, usecase.AskInput{Question: req.Question, SessionID: req.SessionID})
	if err != nil {
		return errorResponseFor(logger, correlationID, err)
	}
	return jsonResponse(http.StatusOK, correlationID, askResponse{
		Answer:     out.Answer,
		Attachment: out.Attachment,
		SessionID:  out.SessionID,
	})
}

func (h *Handler) transfer(ctx context.Context, logger *slog.Logger, correlationID, body string) events.APIGatewayProxyResponse {
	var req transferRequest
	if err := json.Unmarshal([]byte(body), &req); err != nil {
		return badBody(correlationID)
	}
	out, err := h.uc.Transfer(ctx, usecase.TransferInput{
		Product:  req.Product,
		From:     req.From,
		To:       req.To,
		Quantity: req.Quantity,
	})
	if err != nil {
		return errorResponseFor(logger, correlationID, err)
	}
	return jsonResponse(http.StatusOK, correlationID, transferResponse{Source: out.Source, Destination: out.Destination})
}

func (h *Handler) summary(ctx context.Context, logger *slog.Logger, correlationID string) events.APIGatewayProxyResponse {
	s, err := h.uc.Summary(ctx)
	if err != nil {
		return errorResponseFor(logger, correlationID, err)
	}
	return jsonResponse(http.StatusOK, correlationID, s)
}

func badBody(correlationID string) events.APIGatewayProxyResponse {
	return jsonResponse(http.StatusBadRequest, correlationID, errorResponse{
		Error:  string(usecase.ErrorInvalidInput),
		Reason: "invalid_body",
	})
}

func errorResponseFor(logger *slog.Logger, correlationID string, err error) events.APIGatewayProxyResponse {
	var ucErr *usecase.Error
	if !errors.As(err, &ucErr) {
		logger.Error("unexpected error", "err", err)
		return jsonResponse(http.StatusInternalServerError, correlationID, errorResponse{
			Error:  string(usecase.ErrorInternal),
			Reason: "unexpected_error",
		})
	}

	status := statusFor(ucErr.Code)
	if status >= http.StatusInternalServerError {
		logger.Error("request failed", "code", ucErr.Code, "reason", ucErr.Reason, "err", ucErr.Err)
	} else {
		logger.Warn("request rejected", "code", ucErr.Code, "reason", ucErr.Reason)
	}
	return jsonResponse(status, correlationID, errorResponse{Error: string(ucErr.Code), Reason: ucErr.Reason})
}

func statusFor(code usecase.ErrorCode) int {
	switch code {
	case usecase.ErrorInvalidInput:
		return http.StatusBadRequest
	case usecase.ErrorInvalidTransfer:
		return http.StatusConflict
	case usecase.ErrorNotFound:
		return http.StatusNotFound
	case usecase.ErrorUpstream:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func jsonResponse(status int, correlationID string, v any) events.APIGatewayProxyResponse {
	body, err := json.Marshal(v)
	if err != nil {
		status = http.StatusInternalServerError
		body = []byte(`{"error":"INTERNAL_ERROR","reason":"encode_error"}`)
	}
	return events.APIGatewayProxyResponse{
		StatusCode: status,
		Headers: map[string]string{
			"Content-Type":    "application/json",
			correlationHeader: correlationID,
		},
		Body: string(body),
	}
}

// headerValue looks a header up case-insensitively; API Gateway preserves
// the client's casing.
func headerValue(headers map[string]string, name string) string {
	if v, ok := headers[name]; ok {
		return strings.TrimSpace(v)
	}
	for k, v := range headers {
		if strings.EqualFold(k, name) {
			return strings.TrimSpace(v)
		}
	}
	return ""
}
