package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/hylla/partdesk/internal/app"
	"github.com/hylla/partdesk/internal/domain"
	_ "modernc.org/sqlite"
)

// driverName defines a package constant value.
const driverName = "sqlite"

// Repository is a local workspace backing the Order Service port with a
// sqlite database. It mirrors the hosted backend's observable behavior,
// including pruning groups that lose their last member.
type Repository struct {
	db  *sql.DB
	now func() time.Time
}

// Open opens the workspace database at path, creating it when missing.
func Open(path string) (*Repository, error) {
	if strings.TrimSpace(path) == "" {
		return nil, errors.New("sqlite path is required")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create sqlite dir: %w", err)
	}
	db, err := sql.Open(driverName, path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	// sqlite is single-writer; one pooled connection serializes the
	// parallel bulk-delete fan-out instead of surfacing busy errors.
	db.SetMaxOpenConns(1)
	repo := &Repository{db: db, now: time.Now}
	if err := repo.migrate(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return repo, nil
}

// OpenInMemory opens a throwaway in-memory workspace.
func OpenInMemory() (*Repository, error) {
	db, err := sql.Open(driverName, "file::memory:?cache=shared")
	if err != nil {
		return nil, fmt.Errorf("open sqlite memory: %w", err)
	}
	db.SetMaxOpenConns(1)
	repo := &Repository{db: db, now: time.Now}
	if err := repo.migrate(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return repo, nil
}

// Close closes the database.
func (r *Repository) Close() error {
	return r.db.Close()
}

// migrate handles migrate.
func (r *Repository) migrate(ctx context.Context) error {
	stmts := []string{
		`PRAGMA foreign_keys = ON;`,
		`CREATE TABLE IF NOT EXISTS order_groups (
			id TEXT PRIMARY KEY,
			title TEXT NOT NULL,
			vendor TEXT NOT NULL DEFAULT '',
			status TEXT NOT NULL,
			status_tag TEXT NOT NULL DEFAULT '',
			tracking_json TEXT NOT NULL DEFAULT '[]',
			notes TEXT NOT NULL DEFAULT '',
			requested_display_at TEXT NOT NULL,
			created_at TEXT NOT NULL,
			updated_at TEXT NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS orders (
			id TEXT PRIMARY KEY,
			part_name TEXT NOT NULL,
			part_number TEXT NOT NULL DEFAULT '',
			part_link TEXT NOT NULL DEFAULT '',
			vendor TEXT NOT NULL DEFAULT '',
			quantity INTEGER NOT NULL,
			unit_cost REAL NOT NULL DEFAULT 0,
			total_cost REAL NOT NULL DEFAULT 0,
			status TEXT NOT NULL,
			group_id TEXT NOT NULL DEFAULT '',
			tracking_json TEXT NOT NULL DEFAULT '[]',
			tags_json TEXT NOT NULL DEFAULT '[]',
			approval TEXT NOT NULL DEFAULT 'pending',
			student_name TEXT NOT NULL DEFAULT '',
			notes TEXT NOT NULL DEFAULT '',
			requested_display_at TEXT NOT NULL,
			created_at TEXT NOT NULL,
			updated_at TEXT NOT NULL
		);`,
		`CREATE INDEX IF NOT EXISTS idx_orders_status_display ON orders(status, requested_display_at ASC);`,
		`CREATE INDEX IF NOT EXISTS idx_orders_group ON orders(group_id);`,
		`CREATE INDEX IF NOT EXISTS idx_order_groups_status_display ON order_groups(status, requested_display_at ASC);`,
	}
	for _, stmt := range stmts {
		if _, err := r.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migrate sqlite: %w", err)
		}
	}
	return nil
}

// ListOrders lists every order.
func (r *Repository) ListOrders(ctx context.Context) ([]domain.Order, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT `+orderColumns+`
		FROM orders
		ORDER BY requested_display_at ASC, id ASC
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []domain.Order{}
	for rows.Next() {
		order, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, order)
	}
	return out, rows.Err()
}

// ListGroups lists every vendor group.
func (r *Repository) ListGroups(ctx context.Context) ([]domain.Group, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT `+groupColumns+`
		FROM order_groups
		ORDER BY requested_display_at ASC, id ASC
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []domain.Group{}
	for rows.Next() {
		group, err := scanGroup(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, group)
	}
	return out, rows.Err()
}

// CreateOrder validates the input, assigns an id, and inserts the order.
func (r *Repository) CreateOrder(ctx context.Context, in domain.OrderInput) (string, error) {
	in.ID = uuid.NewString()
	order, err := domain.NewOrder(in, r.now())
	if err != nil {
		return "", err
	}
	trackingJSON, tagsJSON, err := encodeOrderJSON(order)
	if err != nil {
		return "", err
	}
	_, err = r.db.ExecContext(ctx, `
		INSERT INTO orders(`+orderColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		order.ID,
		order.PartName,
		order.PartNumber,
		order.PartLink,
		order.Vendor,
		order.Quantity,
		order.UnitCost,
		order.TotalCost,
		string(order.Status),
		order.GroupID,
		trackingJSON,
		tagsJSON,
		string(order.Approval),
		order.StudentName,
		order.Notes,
		ts(order.RequestedDisplayAt),
		ts(order.CreatedAt),
		ts(order.UpdatedAt),
	)
	if err != nil {
		return "", fmt.Errorf("insert order: %w", err)
	}
	return order.ID, nil
}

// PatchOrder merges a field subset into an existing order.
func (r *Repository) PatchOrder(ctx context.Context, id string, patch domain.OrderPatch) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	order, err := getOrderByID(ctx, tx, id)
	if err != nil {
		return err
	}
	order.Apply(patch, r.now())
	if err = writeOrder(ctx, tx, order); err != nil {
		return err
	}
	err = tx.Commit()
	return err
}

// DeleteOrder removes one order, pruning its group when that was the last
// member.
func (r *Repository) DeleteOrder(ctx context.Context, id string) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	order, err := getOrderByID(ctx, tx, id)
	if err != nil {
		return err
	}
	res, err := tx.ExecContext(ctx, `DELETE FROM orders WHERE id = ?`, id)
	if err != nil {
		return err
	}
	if err = translateNoRows(res); err != nil {
		return err
	}
	if err = pruneGroup(ctx, tx, order.GroupID); err != nil {
		return err
	}
	err = tx.Commit()
	return err
}

// PatchOrderStatus sets the order's status, merging tracking when provided.
func (r *Repository) PatchOrderStatus(ctx context.Context, id string, status domain.Status, tracking []domain.TrackingEntry) error {
	if !status.Valid() {
		return domain.ErrInvalidStatus
	}
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	order, err := getOrderByID(ctx, tx, id)
	if err != nil {
		return err
	}
	order.Status = status
	if len(tracking) > 0 {
		order.Tracking = domain.NormalizeTracking(tracking)
	}
	order.UpdatedAt = r.now().UTC()
	if err = writeOrder(ctx, tx, order); err != nil {
		return err
	}
	if err = syncGroupStatus(ctx, tx, order.GroupID, r.now().UTC()); err != nil {
		return err
	}
	err = tx.Commit()
	return err
}

// AssignOrderGroup sets or clears the order's group reference, pruning the
// group it leaves when emptied.
func (r *Repository) AssignOrderGroup(ctx context.Context, orderID, groupID string) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	order, err := getOrderByID(ctx, tx, orderID)
	if err != nil {
		return err
	}
	previous := order.GroupID
	order.GroupID = strings.TrimSpace(groupID)
	order.UpdatedAt = r.now().UTC()
	if err = writeOrder(ctx, tx, order); err != nil {
		return err
	}
	if previous != order.GroupID {
		if err = pruneGroup(ctx, tx, previous); err != nil {
			return err
		}
		if err = syncGroupStatus(ctx, tx, previous, order.UpdatedAt); err != nil {
			return err
		}
	}
	if err = syncGroupStatus(ctx, tx, order.GroupID, order.UpdatedAt); err != nil {
		return err
	}
	err = tx.Commit()
	return err
}

// CreateGroup validates the input, assigns an id, and inserts the group.
func (r *Repository) CreateGroup(ctx context.Context, in domain.GroupInput) (string, error) {
	in.ID = uuid.NewString()
	group, err := domain.NewGroup(in, r.now())
	if err != nil {
		return "", err
	}
	trackingJSON, err := json.Marshal(group.Tracking)
	if err != nil {
		return "", fmt.Errorf("encode group tracking: %w", err)
	}
	_, err = r.db.ExecContext(ctx, `
		INSERT INTO order_groups(`+groupColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		group.ID,
		group.Title,
		group.Vendor,
		string(group.Status),
		group.StatusTag,
		string(trackingJSON),
		group.Notes,
		ts(group.RequestedDisplayAt),
		ts(group.CreatedAt),
		ts(group.UpdatedAt),
	)
	if err != nil {
		return "", fmt.Errorf("insert group: %w", err)
	}
	return group.ID, nil
}

// PatchGroup merges a field subset into an existing group.
func (r *Repository) PatchGroup(ctx context.Context, id string, patch domain.GroupPatch) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	group, err := getGroupByID(ctx, tx, id)
	if err != nil {
		return err
	}
	group.Apply(patch, r.now())
	if err = writeGroup(ctx, tx, group); err != nil {
		return err
	}
	err = tx.Commit()
	return err
}

// DeleteGroup removes a group and clears member references to it.
func (r *Repository) DeleteGroup(ctx context.Context, id string) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if _, err = tx.ExecContext(ctx, `UPDATE orders SET group_id = '' WHERE group_id = ?`, id); err != nil {
		return err
	}
	if _, err = tx.ExecContext(ctx, `DELETE FROM order_groups WHERE id = ?`, id); err != nil {
		return err
	}
	err = tx.Commit()
	return err
}

const orderColumns = `id, part_name, part_number, part_link, vendor, quantity, unit_cost, total_cost, status, group_id, tracking_json, tags_json, approval, student_name, notes, requested_display_at, created_at, updated_at`

const groupColumns = `id, title, vendor, status, status_tag, tracking_json, notes, requested_display_at, created_at, updated_at`

// queryRower represents a query-only DB contract used by DB and Tx implementations.
type queryRower interface {
	QueryRowContext(context.Context, string, ...any) *sql.Row
}

// execerContext represents a write-only DB contract used by DB and Tx implementations.
type execerContext interface {
	ExecContext(context.Context, string, ...any) (sql.Result, error)
}

// getOrderByID returns one order row.
func getOrderByID(ctx context.Context, q queryRower, id string) (domain.Order, error) {
	row := q.QueryRowContext(ctx, `
		SELECT `+orderColumns+`
		FROM orders
		WHERE id = ?
	`, id)
	return scanOrder(row)
}

// getGroupByID returns one group row.
func getGroupByID(ctx context.Context, q queryRower, id string) (domain.Group, error) {
	row := q.QueryRowContext(ctx, `
		SELECT `+groupColumns+`
		FROM order_groups
		WHERE id = ?
	`, id)
	return scanGroup(row)
}

// writeOrder persists every mutable order column.
func writeOrder(ctx context.Context, execer execerContext, order domain.Order) error {
	trackingJSON, tagsJSON, err := encodeOrderJSON(order)
	if err != nil {
		return err
	}
	res, err := execer.ExecContext(ctx, `
		UPDATE orders
		SET part_name = ?, part_number = ?, part_link = ?, vendor = ?, quantity = ?, unit_cost = ?, total_cost = ?,
		    status = ?, group_id = ?, tracking_json = ?, tags_json = ?, approval = ?, student_name = ?, notes = ?,
		    requested_display_at = ?, updated_at = ?
		WHERE id = ?
	`,
		order.PartName,
		order.PartNumber,
		order.PartLink,
		order.Vendor,
		order.Quantity,
		order.UnitCost,
		order.TotalCost,
		string(order.Status),
		order.GroupID,
		trackingJSON,
		tagsJSON,
		string(order.Approval),
		order.StudentName,
		order.Notes,
		ts(order.RequestedDisplayAt),
		ts(order.UpdatedAt),
		order.ID,
	)
	if err != nil {
		return err
	}
	return translateNoRows(res)
}

// writeGroup persists every mutable group column.
func writeGroup(ctx context.Context, execer execerContext, group domain.Group) error {
	trackingJSON, err := json.Marshal(group.Tracking)
	if err != nil {
		return fmt.Errorf("encode group tracking: %w", err)
	}
	res, err := execer.ExecContext(ctx, `
		UPDATE order_groups
		SET title = ?, vendor = ?, status = ?, status_tag = ?, tracking_json = ?, notes = ?, requested_display_at = ?, updated_at = ?
		WHERE id = ?
	`,
		group.Title,
		group.Vendor,
		string(group.Status),
		group.StatusTag,
		string(trackingJSON),
		group.Notes,
		ts(group.RequestedDisplayAt),
		ts(group.UpdatedAt),
		group.ID,
	)
	if err != nil {
		return err
	}
	return translateNoRows(res)
}

// syncGroupStatus moves a group's status to follow its members once every
// member carries the same status. A split group keeps its current status
// until the stragglers catch up.
func syncGroupStatus(ctx context.Context, tx *sql.Tx, groupID string, now time.Time) error {
	if groupID == "" {
		return nil
	}
	rows, err := tx.QueryContext(ctx, `SELECT DISTINCT status FROM orders WHERE group_id = ?`, groupID)
	if err != nil {
		return err
	}
	defer func() {
		_ = rows.Close()
	}()
	var statuses []string
	for rows.Next() {
		var s string
		if err := rows.Scan(&s); err != nil {
			return err
		}
		statuses = append(statuses, s)
	}
	if err := rows.Err(); err != nil {
		return err
	}
	if len(statuses) != 1 {
		return nil
	}
	_, err = tx.ExecContext(ctx, `UPDATE order_groups SET status = ?, updated_at = ? WHERE id = ?`, statuses[0], ts(now), groupID)
	return err
}

// pruneGroup drops a group once its last member is gone.
func pruneGroup(ctx context.Context, tx *sql.Tx, groupID string) error {
	if groupID == "" {
		return nil
	}
	var remaining int
	if err := tx.QueryRowContext(ctx, `SELECT COUNT(1) FROM orders WHERE group_id = ?`, groupID).Scan(&remaining); err != nil {
		return err
	}
	if remaining > 0 {
		return nil
	}
	_, err := tx.ExecContext(ctx, `DELETE FROM order_groups WHERE id = ?`, groupID)
	return err
}

// encodeOrderJSON marshals the order's JSON columns.
func encodeOrderJSON(order domain.Order) (string, string, error) {
	tracking := order.Tracking
	if tracking == nil {
		tracking = []domain.TrackingEntry{}
	}
	trackingJSON, err := json.Marshal(tracking)
	if err != nil {
		return "", "", fmt.Errorf("encode order tracking: %w", err)
	}
	tags := order.Tags
	if tags == nil {
		tags = []string{}
	}
	tagsJSON, err := json.Marshal(tags)
	if err != nil {
		return "", "", fmt.Errorf("encode order tags: %w", err)
	}
	return string(trackingJSON), string(tagsJSON), nil
}

// scanner represents scanner data used by this package.
type scanner interface {
	Scan(dest ...any) error
}

// scanOrder handles scan order.
func scanOrder(s scanner) (domain.Order, error) {
	var (
		order       domain.Order
		status      string
		approval    string
		trackingRaw string
		tagsRaw     string
		displayRaw  string
		createdRaw  string
		updatedRaw  string
	)
	if err := s.Scan(
		&order.ID,
		&order.PartName,
		&order.PartNumber,
		&order.PartLink,
		&order.Vendor,
		&order.Quantity,
		&order.UnitCost,
		&order.TotalCost,
		&status,
		&order.GroupID,
		&trackingRaw,
		&tagsRaw,
		&approval,
		&order.StudentName,
		&order.Notes,
		&displayRaw,
		&createdRaw,
		&updatedRaw,
	); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Order{}, app.ErrNotFound
		}
		return domain.Order{}, err
	}
	order.Status = domain.Status(status)
	order.Approval = domain.ApprovalStatus(approval)
	if err := json.Unmarshal([]byte(trackingRaw), &order.Tracking); err != nil {
		return domain.Order{}, fmt.Errorf("decode orders.tracking_json: %w", err)
	}
	if err := json.Unmarshal([]byte(tagsRaw), &order.Tags); err != nil {
		return domain.Order{}, fmt.Errorf("decode orders.tags_json: %w", err)
	}
	order.RequestedDisplayAt = parseTS(displayRaw)
	order.CreatedAt = parseTS(createdRaw)
	order.UpdatedAt = parseTS(updatedRaw)
	return order, nil
}

// scanGroup handles scan group.
func scanGroup(s scanner) (domain.Group, error) {
	var (
		group       domain.Group
		status      string
		trackingRaw string
		displayRaw  string
		createdRaw  string
		updatedRaw  string
	)
	if err := s.Scan(
		&group.ID,
		&group.Title,
		&group.Vendor,
		&status,
		&group.StatusTag,
		&trackingRaw,
		&group.Notes,
		&displayRaw,
		&createdRaw,
		&updatedRaw,
	); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Group{}, app.ErrNotFound
		}
		return domain.Group{}, err
	}
	group.Status = domain.Status(status)
	if err := json.Unmarshal([]byte(trackingRaw), &group.Tracking); err != nil {
		return domain.Group{}, fmt.Errorf("decode order_groups.tracking_json: %w", err)
	}
	group.RequestedDisplayAt = parseTS(displayRaw)
	group.CreatedAt = parseTS(createdRaw)
	group.UpdatedAt = parseTS(updatedRaw)
	return group, nil
}

// translateNoRows handles translate no rows.
func translateNoRows(res sql.Result) error {
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return app.ErrNotFound
	}
	return nil
}

// ts handles ts.
func ts(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

// parseTS parses input into a normalized form.
func parseTS(v string) time.Time {
	ts, err := time.Parse(time.RFC3339Nano, v)
	if err != nil {
		return time.Time{}
	}
	return ts.UTC()
}
