package handler

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"prdapi/internal/http/middleware"
	"prdapi/internal/mcp"
	"prdapi/internal/model"
	"prdapi/internal/service"
)

// MCP godoc
// @Summary Tool protocol endpoint
// @Description Accepts tools/list and tools/call and answers with a single Server-Sent Event frame.
// @Tags mcp
// @Accept json
// @Produce text/event-stream
// @Param body body mcp.Request true "Tool request"
// @Success 200 {string} string "data: {...}"
// @Failure 400 {object} errorPayload
// @Router /sse [post]
func MCP(svc service.DocumentService, log zerolog.Logger) fiber.Handler {
	log = log.With().Str("component", "mcp").Logger()
	return func(c *fiber.Ctx) error {
		var req mcp.Request
		if err := json.Unmarshal(c.Body(), &req); err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_BODY", "invalid request body")
		}

		log.Info().
			Str("event", "mcp_request").
			Str("method", req.Method).
			Str("tool", req.Params.Name).
			Str("request_id", middleware.GetRequestID(c)).
			Msg("tool request received")

		var resp mcp.Response
		switch req.Method {
		case mcp.MethodListTools:
			resp = mcp.Response{Tools: mcp.Tools()}
		case mcp.MethodCallTool:
			resp = callTool(c.UserContext(), svc, req.Params)
		default:
			resp = mcp.Errorf(mcp.CodeUnknownMethod, "Unknown method: %s", req.Method)
		}
		if resp.Error != "" {
			log.Warn().Str("method", req.Method).Str("tool", req.Params.Name).Str("code", resp.Code).Msg(resp.Error)
		}

		frame, err := mcp.EncodeFrame(resp)
		if err != nil {
			return writeError(c, fiber.StatusInternalServerError, "INTERNAL_ERROR", "internal server error")
		}
		c.Set(fiber.HeaderContentType, "text/event-stream")
		c.Set(fiber.HeaderCacheControl, "no-cache")
		c.Set("X-Accel-Buffering", "no")
		return c.Status(fiber.StatusOK).Send(frame)
	}
}

func callTool(ctx context.Context, svc service.DocumentService, p mcp.Params) mcp.Response {
	switch p.Name {
	case mcp.ToolSearch:
		var args mcp.SearchArgs
		if err := decodeArgs(p.Arguments, &args); err != nil {
			return mcp.Errorf(mcp.CodeValidation, "Invalid arguments: %v", err)
		}
		if args.Query == "" {
			return mcp.Errorf(mcp.CodeValidation, "Missing required argument: query")
		}
		res, err := svc.Search(ctx, args.Query)
		return toolResult(res, err, "")

	case mcp.ToolGet:
		var args mcp.GetArgs
		if err := decodeArgs(p.Arguments, &args); err != nil {
			return mcp.Errorf(mcp.CodeValidation, "Invalid arguments: %v", err)
		}
		if args.ID == "" {
			return mcp.Errorf(mcp.CodeValidation, "Missing required argument: prd_id")
		}
		doc, err := svc.Get(ctx, args.ID)
		return toolResult(doc, err, args.ID)

	case mcp.ToolStore:
		var args mcp.StoreArgs
		if err := decodeArgs(p.Arguments, &args); err != nil {
			return mcp.Errorf(mcp.CodeValidation, "Invalid arguments: %v", err)
		}
		if args.ProductName == "" || args.Content == "" {
			return mcp.Errorf(mcp.CodeValidation, "Missing required arguments: product_name and content")
		}
		res, err := svc.Store(ctx, model.StoreInput{
			ProductName: args.ProductName,
			Content:     args.Content,
			Author:      args.Author,
			Version:     args.Version,
			Metadata:    args.Metadata,
		})
		return toolResult(res, err, "")

	default:
		return mcp.Errorf(mcp.CodeUnknownTool, "Unknown tool: %s", p.Name)
	}
}

func decodeArgs(raw json.RawMessage, v any) error {
	if len(raw) == 0 || string(raw) == "null" {
		return nil
	}
	return json.Unmarshal(raw, v)
}

func toolResult(v any, err error, id string) mcp.Response {
	switch {
	case err == nil:
		resp, mErr := mcp.TextResult(v)
		if mErr != nil {
			return mcp.Errorf(mcp.CodeBackend, "Tool execution failed: encode result")
		}
		return resp
	case errors.Is(err, service.ErrValidation):
		return mcp.Errorf(mcp.CodeValidation, "%s", err.Error())
	case errors.Is(err, service.ErrRender):
		return mcp.Errorf(mcp.CodeValidation, "content could not be rendered")
	case errors.Is(err, service.ErrNotFound):
		return mcp.Errorf(mcp.CodeNotFound, "PRD not found: %s", id)
	default:
		return mcp.Errorf(mcp.CodeBackend, "Tool execution failed: storage backend unavailable")
	}
}
