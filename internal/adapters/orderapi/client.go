package orderapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/hylla/partdesk/internal/app"
	"github.com/hylla/partdesk/internal/domain"
)

// sessionHeader carries the procurement backend's session token.
const sessionHeader = "X-Session-Token"

// Client is the Order Service adapter for the hosted procurement backend. The
// wire format is the backend's camelCase JSON with millisecond timestamps.
type Client struct {
	baseURL string
	token   string
	http    *http.Client
}

// New constructs a client for the backend at baseURL.
func New(baseURL, token string) *Client {
	return &Client{
		baseURL: strings.TrimRight(strings.TrimSpace(baseURL), "/"),
		token:   strings.TrimSpace(token),
		http:    &http.Client{Timeout: 15 * time.Second},
	}
}

// ListOrders fetches every order.
func (c *Client) ListOrders(ctx context.Context) ([]domain.Order, error) {
	var payload struct {
		Orders []orderJSON `json:"orders"`
	}
	if err := c.do(ctx, http.MethodGet, "/api/orders", nil, &payload); err != nil {
		return nil, err
	}
	out := make([]domain.Order, 0, len(payload.Orders))
	for _, raw := range payload.Orders {
		out = append(out, raw.toDomain())
	}
	return out, nil
}

// ListGroups fetches every vendor group.
func (c *Client) ListGroups(ctx context.Context) ([]domain.Group, error) {
	var payload struct {
		Groups []groupJSON `json:"groups"`
	}
	if err := c.do(ctx, http.MethodGet, "/api/order-groups", nil, &payload); err != nil {
		return nil, err
	}
	out := make([]domain.Group, 0, len(payload.Groups))
	for _, raw := range payload.Groups {
		out = append(out, raw.toDomain())
	}
	return out, nil
}

// CreateOrder submits a new order and returns the server-assigned id.
func (c *Client) CreateOrder(ctx context.Context, in domain.OrderInput) (string, error) {
	body := map[string]any{
		"partName":          in.PartName,
		"vendorPartNumber":  in.PartNumber,
		"partLink":          in.PartLink,
		"vendor":            in.Vendor,
		"quantityRequested": in.Quantity,
		"unitCost":          in.UnitCost,
		"totalCost":         in.TotalCost,
		"studentName":       in.StudentName,
		"notes":             in.Notes,
	}
	if in.Status != "" {
		body["status"] = string(in.Status)
	}
	if len(in.Tags) > 0 {
		body["tags"] = in.Tags
	}
	if len(in.Tracking) > 0 {
		body["tracking"] = toWireTracking(in.Tracking)
	}
	if !in.RequestedDisplayAt.IsZero() {
		body["requestedDisplayAt"] = timeToMS(in.RequestedDisplayAt)
	}
	var payload struct {
		Order orderJSON `json:"order"`
	}
	if err := c.do(ctx, http.MethodPost, "/api/orders", body, &payload); err != nil {
		return "", err
	}
	id := firstNonEmpty(payload.Order.ID, payload.Order.OrderID)
	if id == "" {
		return "", fmt.Errorf("create order: response carries no id")
	}
	return id, nil
}

// PatchOrder merges a field subset into an existing order.
func (c *Client) PatchOrder(ctx context.Context, id string, patch domain.OrderPatch) error {
	body := map[string]any{}
	if patch.PartName != nil {
		body["partName"] = *patch.PartName
	}
	if patch.PartNumber != nil {
		body["vendorPartNumber"] = *patch.PartNumber
	}
	if patch.PartLink != nil {
		body["partLink"] = *patch.PartLink
	}
	if patch.Vendor != nil {
		body["vendor"] = *patch.Vendor
	}
	if patch.Quantity != nil {
		body["quantityRequested"] = *patch.Quantity
	}
	if patch.UnitCost != nil {
		body["unitCost"] = *patch.UnitCost
	}
	if patch.TotalCost != nil {
		body["totalCost"] = *patch.TotalCost
	}
	if patch.Notes != nil {
		body["notes"] = *patch.Notes
	}
	if patch.Tags != nil {
		body["tags"] = *patch.Tags
	}
	if patch.Approval != nil {
		body["approvalStatus"] = string(*patch.Approval)
	}
	if patch.Tracking != nil {
		body["tracking"] = toWireTracking(*patch.Tracking)
	}
	return c.do(ctx, http.MethodPatch, "/api/orders/"+url.PathEscape(id), body, nil)
}

// DeleteOrder removes one order.
func (c *Client) DeleteOrder(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/api/orders/"+url.PathEscape(id), nil, nil)
}

// PatchOrderStatus sets the order's status, carrying tracking when provided.
func (c *Client) PatchOrderStatus(ctx context.Context, id string, status domain.Status, tracking []domain.TrackingEntry) error {
	body := map[string]any{"status": string(status)}
	if len(tracking) > 0 {
		wire := toWireTracking(tracking)
		body["tracking"] = wire
		body["trackingNumber"] = wire[0].Number
	}
	return c.do(ctx, http.MethodPatch, "/api/orders/"+url.PathEscape(id)+"/status", body, nil)
}

// AssignOrderGroup sets or clears the order's group reference.
func (c *Client) AssignOrderGroup(ctx context.Context, orderID, groupID string) error {
	body := map[string]any{"groupId": groupID}
	return c.do(ctx, http.MethodPatch, "/api/orders/"+url.PathEscape(orderID)+"/group", body, nil)
}

// CreateGroup submits a new group and returns the server-assigned id.
func (c *Client) CreateGroup(ctx context.Context, in domain.GroupInput) (string, error) {
	body := map[string]any{
		"title":    in.Title,
		"supplier": in.Vendor,
		"notes":    in.Notes,
	}
	if in.Status != "" {
		body["status"] = string(in.Status)
	}
	if in.StatusTag != "" {
		body["statusTag"] = in.StatusTag
	}
	if len(in.Tracking) > 0 {
		wire := toWireTracking(in.Tracking)
		body["tracking"] = wire
		body["trackingNumber"] = wire[0].Number
	}
	if !in.RequestedDisplayAt.IsZero() {
		body["requestedDisplayAt"] = timeToMS(in.RequestedDisplayAt)
	}
	var payload groupJSON
	if err := c.do(ctx, http.MethodPost, "/api/order-groups", body, &payload); err != nil {
		return "", err
	}
	id := firstNonEmpty(payload.ID, payload.GroupID)
	if id == "" {
		return "", fmt.Errorf("create group: response carries no id")
	}
	return id, nil
}

// PatchGroup merges a field subset into an existing group.
func (c *Client) PatchGroup(ctx context.Context, id string, patch domain.GroupPatch) error {
	body := map[string]any{}
	if patch.Title != nil {
		body["title"] = *patch.Title
	}
	if patch.Status != nil {
		body["status"] = string(*patch.Status)
	}
	if patch.StatusTag != nil {
		body["statusTag"] = *patch.StatusTag
	}
	if patch.Notes != nil {
		body["notes"] = *patch.Notes
	}
	if patch.Tracking != nil {
		body["tracking"] = toWireTracking(*patch.Tracking)
	}
	return c.do(ctx, http.MethodPatch, "/api/order-groups/"+url.PathEscape(id), body, nil)
}

// DeleteGroup removes a group; the backend detaches its members.
func (c *Client) DeleteGroup(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/api/order-groups/"+url.PathEscape(id), nil, nil)
}

// do runs one request and decodes the response into out when non-nil.
func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(encoded)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set(sessionHeader, c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return app.ErrNotFound
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("%s %s: %s", method, path, serverError(resp))
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// serverError extracts the backend's error message, falling back to the HTTP
// status.
func serverError(resp *http.Response) string {
	var payload struct {
		Error string `json:"error"`
	}
	raw, err := io.ReadAll(io.LimitReader(resp.Body, 4096))
	if err == nil && json.Unmarshal(raw, &payload) == nil && payload.Error != "" {
		return payload.Error
	}
	return resp.Status
}

// orderJSON is the backend's order representation.
type orderJSON struct {
	ID                 string         `json:"_id"`
	OrderID            string         `json:"orderId"`
	PartName           string         `json:"partName"`
	VendorPartNumber   string         `json:"vendorPartNumber"`
	PartLink           string         `json:"partLink"`
	Vendor             string         `json:"vendor"`
	Supplier           string         `json:"supplier"`
	QuantityRequested  int            `json:"quantityRequested"`
	UnitCost           float64        `json:"unitCost"`
	TotalCost          float64        `json:"totalCost"`
	Status             string         `json:"status"`
	GroupID            string         `json:"groupId"`
	Tracking           []trackingJSON `json:"tracking"`
	Tags               []string       `json:"tags"`
	ApprovalStatus     string         `json:"approvalStatus"`
	StudentName        string         `json:"studentName"`
	Notes              string         `json:"notes"`
	RequestedDisplayAt int64          `json:"requestedDisplayAt"`
	RequestedAt        int64          `json:"requestedAt"`
}

func (o orderJSON) toDomain() domain.Order {
	status, err := domain.ParseStatus(o.Status)
	if err != nil {
		status = domain.StatusRequested
	}
	approval := domain.ApprovalStatus(o.ApprovalStatus)
	if approval == "" {
		approval = domain.ApprovalPending
	}
	displayAt := o.RequestedDisplayAt
	if displayAt == 0 {
		displayAt = o.RequestedAt
	}
	return domain.Order{
		ID:                 firstNonEmpty(o.ID, o.OrderID),
		PartName:           o.PartName,
		PartNumber:         o.VendorPartNumber,
		PartLink:           o.PartLink,
		Vendor:             firstNonEmpty(o.Vendor, o.Supplier),
		Quantity:           o.QuantityRequested,
		UnitCost:           o.UnitCost,
		TotalCost:          o.TotalCost,
		Status:             status,
		GroupID:            o.GroupID,
		Tracking:           fromWireTracking(o.Tracking),
		Tags:               o.Tags,
		Approval:           approval,
		StudentName:        o.StudentName,
		Notes:              o.Notes,
		RequestedDisplayAt: msToTime(displayAt),
	}
}

// groupJSON is the backend's group representation.
type groupJSON struct {
	ID                 string         `json:"_id"`
	GroupID            string         `json:"groupId"`
	Title              string         `json:"title"`
	Supplier           string         `json:"supplier"`
	Status             string         `json:"status"`
	StatusTag          string         `json:"statusTag"`
	Tracking           []trackingJSON `json:"tracking"`
	Notes              string         `json:"notes"`
	RequestedDisplayAt int64          `json:"requestedDisplayAt"`
	CreatedAt          int64          `json:"createdAt"`
	UpdatedAt          int64          `json:"updatedAt"`
}

func (g groupJSON) toDomain() domain.Group {
	status, err := domain.ParseStatus(g.Status)
	if err != nil {
		status = domain.StatusOrdered
	}
	displayAt := g.RequestedDisplayAt
	if displayAt == 0 {
		displayAt = g.CreatedAt
	}
	return domain.Group{
		ID:                 firstNonEmpty(g.ID, g.GroupID),
		Title:              g.Title,
		Vendor:             g.Supplier,
		Status:             status,
		StatusTag:          g.StatusTag,
		Tracking:           fromWireTracking(g.Tracking),
		Notes:              g.Notes,
		RequestedDisplayAt: msToTime(displayAt),
		CreatedAt:          msToTime(g.CreatedAt),
		UpdatedAt:          msToTime(g.UpdatedAt),
	}
}

// trackingJSON is the backend's shipment entry representation.
type trackingJSON struct {
	Carrier       string `json:"carrier"`
	Number        string `json:"trackingNumber"`
	URL           string `json:"trackingUrl,omitempty"`
	State         string `json:"state,omitempty"`
	ETA           string `json:"eta,omitempty"`
	Delivered     bool   `json:"delivered,omitempty"`
	LastCheckedAt int64  `json:"lastCheckedAt,omitempty"`
}

func toWireTracking(entries []domain.TrackingEntry) []trackingJSON {
	out := make([]trackingJSON, 0, len(entries))
	for _, entry := range entries {
		wire := trackingJSON{
			Carrier:   entry.Carrier,
			Number:    entry.Number,
			URL:       entry.URL,
			State:     entry.State,
			ETA:       entry.ETA,
			Delivered: entry.Delivered,
		}
		if entry.LastCheckedAt != nil {
			wire.LastCheckedAt = timeToMS(*entry.LastCheckedAt)
		}
		out = append(out, wire)
	}
	return out
}

func fromWireTracking(entries []trackingJSON) []domain.TrackingEntry {
	if len(entries) == 0 {
		return nil
	}
	out := make([]domain.TrackingEntry, 0, len(entries))
	for _, wire := range entries {
		entry := domain.TrackingEntry{
			Carrier:   wire.Carrier,
			Number:    wire.Number,
			URL:       wire.URL,
			State:     wire.State,
			ETA:       wire.ETA,
			Delivered: wire.Delivered,
		}
		if wire.LastCheckedAt > 0 {
			checked := msToTime(wire.LastCheckedAt)
			entry.LastCheckedAt = &checked
		}
		out = append(out, entry)
	}
	return out
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}

func timeToMS(t time.Time) int64 {
	return t.UTC().UnixMilli()
}

func msToTime(ms int64) time.Time {
	if ms == 0 {
		return time.Time{}
	}
	return time.UnixMilli(ms).UTC()
}
