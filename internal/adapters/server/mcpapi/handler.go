// Package mcpapi provides a stateless MCP streamable-HTTP adapter.
package mcpapi

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/hylla/partdesk/internal/app"
	"github.com/hylla/partdesk/internal/domain"
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
}

// NewHandler builds one stateless MCP adapter exposing read-only board tools
// over the Order Service port.
func NewHandler(cfg Config, svc app.OrderService) (*Handler, error) {
	if svc == nil {
		return nil, fmt.Errorf("order service is required")
	}
	cfg = normalizeConfig(cfg)

	mcpSrv := mcpserver.NewMCPServer(
		cfg.ServerName,
		cfg.ServerVersion,
		mcpserver.WithToolCapabilities(false),
	)
	registerListOrdersTool(mcpSrv, svc)
	registerListGroupsTool(mcpSrv, svc)
	registerBoardSummaryTool(mcpSrv, svc)

	streamable := mcpserver.NewStreamableHTTPServer(
		mcpSrv,
		mcpserver.WithEndpointPath(cfg.EndpointPath),
		mcpserver.WithStateLess(true),
	)
	return &Handler{httpHandler: streamable}, nil
}

// ServeHTTP handles one MCP streamable HTTP request.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.httpHandler == nil {
		http.Error(w, "mcp handler unavailable", http.StatusServiceUnavailable)
		return
	}
	h.httpHandler.ServeHTTP(w, r)
}

// normalizeConfig applies deterministic defaults to MCP adapter config.
func normalizeConfig(cfg Config) Config {
	cfg.ServerName = strings.TrimSpace(cfg.ServerName)
	if cfg.ServerName == "" {
		cfg.ServerName = "partdesk"
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

// orderRow is the wire shape of one part request in tool results.
type orderRow struct {
	ID          string        `json:"id"`
	PartName    string        `json:"partName"`
	PartNumber  string        `json:"partNumber,omitempty"`
	Vendor      string        `json:"vendor,omitempty"`
	Quantity    int           `json:"quantity"`
	UnitCost    float64       `json:"unitCost,omitempty"`
	TotalCost   float64       `json:"totalCost,omitempty"`
	Status      string        `json:"status"`
	GroupID     string        `json:"groupId,omitempty"`
	StudentName string        `json:"studentName,omitempty"`
	Notes       string        `json:"notes,omitempty"`
	RequestedAt string        `json:"requestedAt,omitempty"`
	Tracking    []trackingRow `json:"tracking,omitempty"`
}

// groupRow is the wire shape of one vendor group in tool results.
type groupRow struct {
	ID          string        `json:"id"`
	Title       string        `json:"title"`
	Vendor      string        `json:"vendor,omitempty"`
	Status      string        `json:"status"`
	StatusTag   string        `json:"statusTag,omitempty"`
	Notes       string        `json:"notes,omitempty"`
	MemberCount int           `json:"memberCount"`
	Tracking    []trackingRow `json:"tracking,omitempty"`
}

type trackingRow struct {
	Carrier   string `json:"carrier"`
	Number    string `json:"trackingNumber"`
	State     string `json:"state,omitempty"`
	Delivered bool   `json:"delivered,omitempty"`
}

// registerListOrdersTool registers the `partdesk.list_orders` tool.
func registerListOrdersTool(srv *mcpserver.MCPServer, svc app.OrderService) {
	srv.AddTool(
		mcp.NewTool(
			"partdesk.list_orders",
			mcp.WithDescription("List part requests, optionally filtered by status, vendor, or group."),
			mcp.WithString("status", mcp.Description("Lifecycle status filter"), mcp.Enum("requested", "ordered", "received")),
			mcp.WithString("vendor", mcp.Description("Vendor name filter (case-insensitive)")),
			mcp.WithString("group_id", mcp.Description("Group identifier filter")),
		),
		func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			var statusFilter domain.Status
			if raw := req.GetString("status", ""); raw != "" {
				parsed, err := domain.ParseStatus(raw)
				if err != nil {
					return toolResultFromError(err), nil
				}
				statusFilter = parsed
			}
			vendorFilter := domain.NormalizeVendor(req.GetString("vendor", ""))
			groupFilter := req.GetString("group_id", "")

			orders, err := svc.ListOrders(ctx)
			if err != nil {
				return toolResultFromError(err), nil
			}
			rows := make([]orderRow, 0, len(orders))
			for _, order := range orders {
				if statusFilter != "" && order.Status != statusFilter {
					continue
				}
				if vendorFilter != "" && order.NormalizedVendor() != vendorFilter {
					continue
				}
				if groupFilter != "" && order.GroupID != groupFilter {
					continue
				}
				rows = append(rows, toOrderRow(order))
			}
			sort.Slice(rows, func(i, j int) bool {
				if rows[i].RequestedAt != rows[j].RequestedAt {
					return rows[i].RequestedAt < rows[j].RequestedAt
				}
				return rows[i].ID < rows[j].ID
			})
			result, err := mcp.NewToolResultJSON(map[string]any{"orders": rows})
			if err != nil {
				return nil, fmt.Errorf("encode list_orders result: %w", err)
			}
			return result, nil
		},
	)
}

// registerListGroupsTool registers the `partdesk.list_groups` tool.
func registerListGroupsTool(srv *mcpserver.MCPServer, svc app.OrderService) {
	srv.AddTool(
		mcp.NewTool(
			"partdesk.list_groups",
			mcp.WithDescription("List vendor order groups with member counts."),
			mcp.WithString("status", mcp.Description("Lifecycle status filter"), mcp.Enum("requested", "ordered", "received")),
		),
		func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			var statusFilter domain.Status
			if raw := req.GetString("status", ""); raw != "" {
				parsed, err := domain.ParseStatus(raw)
				if err != nil {
					return toolResultFromError(err), nil
				}
				statusFilter = parsed
			}

			groups, err := svc.ListGroups(ctx)
			if err != nil {
				return toolResultFromError(err), nil
			}
			orders, err := svc.ListOrders(ctx)
			if err != nil {
				return toolResultFromError(err), nil
			}
			memberCounts := map[string]int{}
			for _, order := range orders {
				if order.GroupID != "" {
					memberCounts[order.GroupID]++
				}
			}

			rows := make([]groupRow, 0, len(groups))
			for _, group := range groups {
				if statusFilter != "" && group.Status != statusFilter {
					continue
				}
				rows = append(rows, groupRow{
					ID:          group.ID,
					Title:       group.Title,
					Vendor:      group.Vendor,
					Status:      string(group.Status),
					StatusTag:   group.StatusTag,
					Notes:       group.Notes,
					MemberCount: memberCounts[group.ID],
					Tracking:    toTrackingRows(group.Tracking),
				})
			}
			sort.Slice(rows, func(i, j int) bool { return rows[i].ID < rows[j].ID })
			result, err := mcp.NewToolResultJSON(map[string]any{"groups": rows})
			if err != nil {
				return nil, fmt.Errorf("encode list_groups result: %w", err)
			}
			return result, nil
		},
	)
}

// registerBoardSummaryTool registers the `partdesk.board_summary` tool.
func registerBoardSummaryTool(srv *mcpserver.MCPServer, svc app.OrderService) {
	srv.AddTool(
		mcp.NewTool(
			"partdesk.board_summary",
			mcp.WithDescription("Summarize the procurement board: per-column counts, group count, spend."),
		),
		func(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			orders, err := svc.ListOrders(ctx)
			if err != nil {
				return toolResultFromError(err), nil
			}
			groups, err := svc.ListGroups(ctx)
			if err != nil {
				return toolResultFromError(err), nil
			}

			byStatus := map[domain.Status]int{}
			vendors := map[string]struct{}{}
			totalCost := 0.0
			delivered := 0
			for _, order := range orders {
				byStatus[order.Status]++
				totalCost += order.TotalCost
				if vendor := order.NormalizedVendor(); vendor != "" {
					vendors[vendor] = struct{}{}
				}
				for _, entry := range order.Tracking {
					if entry.Delivered {
						delivered++
					}
				}
			}

			result, err := mcp.NewToolResultJSON(map[string]any{
				"requested":          byStatus[domain.StatusRequested],
				"ordered":            byStatus[domain.StatusOrdered],
				"received":           byStatus[domain.StatusReceived],
				"groups":             len(groups),
				"vendors":            len(vendors),
				"totalCost":          totalCost,
				"deliveredShipments": delivered,
			})
			if err != nil {
				return nil, fmt.Errorf("encode board_summary result: %w", err)
			}
			return result, nil
		},
	)
}

func toOrderRow(order domain.Order) orderRow {
	requestedAt := ""
	if !order.RequestedDisplayAt.IsZero() {
		requestedAt = order.RequestedDisplayAt.UTC().Format(time.RFC3339)
	}
	return orderRow{
		ID:          order.ID,
		PartName:    order.PartName,
		PartNumber:  order.PartNumber,
		Vendor:      order.Vendor,
		Quantity:    order.Quantity,
		UnitCost:    order.UnitCost,
		TotalCost:   order.TotalCost,
		Status:      string(order.Status),
		GroupID:     order.GroupID,
		StudentName: order.StudentName,
		Notes:       order.Notes,
		RequestedAt: requestedAt,
		Tracking:    toTrackingRows(order.Tracking),
	}
}

func toTrackingRows(entries []domain.TrackingEntry) []trackingRow {
	if len(entries) == 0 {
		return nil
	}
	rows := make([]trackingRow, len(entries))
	for i, entry := range entries {
		rows[i] = trackingRow{
			Carrier:   entry.Carrier,
			Number:    entry.Number,
			State:     entry.State,
			Delivered: entry.Delivered,
		}
	}
	return rows
}

// toolResultFromError maps service errors into MCP-visible tool errors.
func toolResultFromError(err error) *mcp.CallToolResult {
	switch {
	case err == nil:
		return mcp.NewToolResultError("unknown error")
	case errors.Is(err, domain.ErrInvalidStatus):
		return mcp.NewToolResultError("invalid_request: " + err.Error())
	case errors.Is(err, app.ErrNotFound):
		return mcp.NewToolResultError("not_found: " + err.Error())
	default:
		return mcp.NewToolResultError("internal_error: " + err.Error())
	}
}
