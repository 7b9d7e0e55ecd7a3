// Package mcpapi provides a stateless MCP streamable-HTTP adapter.
package mcpapi

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/hylla/tickit/internal/adapters/server/common"
	"github.com/hylla/tickit/internal/app"
	"github.com/hylla/tickit/internal/domain"
	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"
)

// Config captures MCP transport configuration.
type Config struct {
	ServerName    string
	ServerVersion string
	EndpointPath  string
}

// Handler wraps one stateless MCP streamable HTTP handler.
type Handler struct {
	httpHandler http.Handler
	accounts    common.AccountService
}

// NewHandler builds one stateless MCP adapter exposing the owner-scoped task tools.
func NewHandler(cfg Config, tasks common.TaskService, accounts common.AccountService) (*Handler, error) {
	if tasks == nil {
		return nil, fmt.Errorf("task service is required")
	}
	if accounts == nil {
		return nil, fmt.Errorf("account service is required")
	}
	cfg = normalizeConfig(cfg)

	mcpSrv := mcpserver.NewMCPServer(
		cfg.ServerName,
		cfg.ServerVersion,
		mcpserver.WithToolCapabilities(false),
	)
	registerTaskTools(mcpSrv, tasks)

	streamable := mcpserver.NewStreamableHTTPServer(
		mcpSrv,
		mcpserver.WithEndpointPath(cfg.EndpointPath),
		mcpserver.WithStateLess(true),
	)
	return &Handler{httpHandler: streamable, accounts: accounts}, nil
}

// ServeHTTP handles one MCP streamable HTTP request. A bearer token, when
// present, must be valid; its identity scopes every tool call of the request.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.httpHandler == nil {
		http.Error(w, "mcp handler unavailable", http.StatusServiceUnavailable)
		return
	}
	if token, ok := bearerToken(r); ok {
		view, err := h.accounts.Authenticate(r.Context(), token)
		if err != nil {
			http.Error(w, "invalid bearer token", http.StatusUnauthorized)
			return
		}
		identity := domain.Identity{ID: view.ID, Email: view.Email, Provider: view.Provider}
		r = r.WithContext(app.WithIdentity(r.Context(), identity))
	}
	h.httpHandler.ServeHTTP(w, r)
}

// normalizeConfig applies deterministic defaults to MCP adapter config.
func normalizeConfig(cfg Config) Config {
	cfg.ServerName = strings.TrimSpace(cfg.ServerName)
	if cfg.ServerName == "" {
		cfg.ServerName = "tickit"
	}
	cfg.ServerVersion = strings.TrimSpace(cfg.ServerVersion)
	if cfg.ServerVersion == "" {
		cfg.ServerVersion = "dev"
	}
	cfg.EndpointPath = strings.TrimSpace(cfg.EndpointPath)
	if cfg.EndpointPath == "" {
		cfg.EndpointPath = "/mcp"
	}
	if !strings.HasPrefix(cfg.EndpointPath, "/") {
		cfg.EndpointPath = "/" + cfg.EndpointPath
	}
	cfg.EndpointPath = "/" + strings.Trim(cfg.EndpointPath, "/")
	return cfg
}

// registerTaskTools registers the `tickit.*` task tools.
func registerTaskTools(srv *mcpserver.MCPServer, tasks common.TaskService) {
	srv.AddTool(
		mcp.NewTool(
			"tickit.list_tasks",
			mcp.WithDescription("List the caller's tasks in creation order."),
			mcp.WithString("filter", mcp.Description("all|active|completed"), mcp.Enum("all", "active", "completed")),
		),
		func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			owner, ok := ownerFromContext(ctx)
			if !ok {
				return unauthenticatedToolResult(), nil
			}
			filter, err := domain.ParseFilter(req.GetString("filter", ""))
			if err != nil {
				return invalidRequestToolResult(err), nil
			}
			list, err := tasks.ListTasks(ctx, owner)
			if err != nil {
				return toolResultFromError(err), nil
			}
			if filter != domain.FilterAll {
				visible := make([]common.TaskItem, 0, len(list.Tasks))
				for _, item := range list.Tasks {
					if filter.Matches(domain.Task{Completed: item.Completed}) {
						visible = append(visible, item)
					}
				}
				list.Tasks = visible
			}
			result, err := mcp.NewToolResultJSON(list)
			if err != nil {
				return nil, fmt.Errorf("encode list_tasks result: %w", err)
			}
			return result, nil
		},
	)

	srv.AddTool(
		mcp.NewTool(
			"tickit.create_task",
			mcp.WithDescription("Create one task for the caller."),
			mcp.WithString("title", mcp.Required(), mcp.Description("Task title")),
			mcp.WithBoolean("completed", mcp.Description("Create the task already completed")),
		),
		func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			owner, ok := ownerFromContext(ctx)
			if !ok {
				return unauthenticatedToolResult(), nil
			}
			title, err := req.RequireString("title")
			if err != nil {
				return mcp.NewToolResultError(err.Error()), nil
			}
			item, err := tasks.CreateTask(ctx, owner, common.CreateTaskRequest{
				Title:     title,
				Completed: req.GetBool("completed", false),
			})
			if err != nil {
				return toolResultFromError(err), nil
			}
			result, err := mcp.NewToolResultJSON(item)
			if err != nil {
				return nil, fmt.Errorf("encode create_task result: %w", err)
			}
			return result, nil
		},
	)

	srv.AddTool(
		mcp.NewTool(
			"tickit.update_task",
			mcp.WithDescription("Rename or complete one of the caller's tasks. Omitted fields are unchanged."),
			mcp.WithString("task_id", mcp.Required(), mcp.Description("Task identifier")),
			mcp.WithString("title", mcp.Description("New task title")),
			mcp.WithBoolean("completed", mcp.Description("New completion state")),
		),
		func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			owner, ok := ownerFromContext(ctx)
			if !ok {
				return unauthenticatedToolResult(), nil
			}
			var args struct {
				TaskID    string  `json:"task_id"`
				Title     *string `json:"title"`
				Completed *bool   `json:"completed"`
			}
			if err := req.BindArguments(&args); err != nil {
				return invalidRequestToolResult(err), nil
			}
			if strings.TrimSpace(args.TaskID) == "" {
				return mcp.NewToolResultError(`invalid_request: required argument "task_id" not found`), nil
			}
			item, err := tasks.UpdateTask(ctx, owner, args.TaskID, common.UpdateTaskRequest{
				Title:     args.Title,
				Completed: args.Completed,
			})
			if err != nil {
				return toolResultFromError(err), nil
			}
			result, err := mcp.NewToolResultJSON(item)
			if err != nil {
				return nil, fmt.Errorf("encode update_task result: %w", err)
			}
			return result, nil
		},
	)

	srv.AddTool(
		mcp.NewTool(
			"tickit.delete_task",
			mcp.WithDescription("Delete one of the caller's tasks."),
			mcp.WithString("task_id", mcp.Required(), mcp.Description("Task identifier")),
		),
		func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			owner, ok := ownerFromContext(ctx)
			if !ok {
				return unauthenticatedToolResult(), nil
			}
			taskID, err := req.RequireString("task_id")
			if err != nil {
				return mcp.NewToolResultError(err.Error()), nil
			}
			if err := tasks.DeleteTask(ctx, owner, taskID); err != nil {
				return toolResultFromError(err), nil
			}
			result, err := mcp.NewToolResultJSON(map[string]any{
				"deleted": taskID,
			})
			if err != nil {
				return nil, fmt.Errorf("encode delete_task result: %w", err)
			}
			return result, nil
		},
	)

	srv.AddTool(
		mcp.NewTool(
			"tickit.clear_completed",
			mcp.WithDescription("Delete every completed task of the caller."),
		),
		func(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			owner, ok := ownerFromContext(ctx)
			if !ok {
				return unauthenticatedToolResult(), nil
			}
			deleted, err := tasks.ClearCompleted(ctx, owner)
			if err != nil {
				return toolResultFromError(err), nil
			}
			result, err := mcp.NewToolResultJSON(map[string]any{
				"deleted": deleted,
			})
			if err != nil {
				return nil, fmt.Errorf("encode clear_completed result: %w", err)
			}
			return result, nil
		},
	)
}

// ownerFromContext returns the identity id attached by ServeHTTP.
func ownerFromContext(ctx context.Context) (string, bool) {
	identity, ok := app.IdentityFromContext(ctx)
	if !ok {
		return "", false
	}
	return identity.ID, true
}

// bearerToken extracts the token from an `Authorization: Bearer` header.
func bearerToken(r *http.Request) (string, bool) {
	raw := strings.TrimSpace(r.Header.Get("Authorization"))
	scheme, token, ok := strings.Cut(raw, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}

func unauthenticatedToolResult() *mcp.CallToolResult {
	return mcp.NewToolResultError("unauthenticated: send `Authorization: Bearer <token>` with tool calls")
}

// invalidRequestToolResult maps argument binding failures into invalid_request tool errors.
func invalidRequestToolResult(err error) *mcp.CallToolResult {
	return mcp.NewToolResultError("invalid_request: " + err.Error())
}

// toolResultFromError maps service errors into MCP-visible tool errors.
func toolResultFromError(err error) *mcp.CallToolResult {
	if code, ok := app.AuthErrorCode(err); ok {
		return mcp.NewToolResultError(string(code) + ": " + app.AuthMessage(err))
	}
	switch {
	case err == nil:
		return mcp.NewToolResultError("unknown error")
	case errors.Is(err, common.ErrInvalidRequest):
		return mcp.NewToolResultError("invalid_request: " + err.Error())
	case errors.Is(err, common.ErrNotFound):
		return mcp.NewToolResultError("not_found: " + err.Error())
	case errors.Is(err, common.ErrUnauthenticated):
		return mcp.NewToolResultError("unauthenticated: " + err.Error())
	case errors.Is(err, common.ErrConflict):
		return mcp.NewToolResultError("conflict: " + err.Error())
	default:
		return mcp.NewToolResultError("internal_error: " + err.Error())
	}
}
