// ABOUTME: Lead repository over the seven source tables
// ABOUTME: Active-record reads with joined lookups, per-row column updates and owner lookups
package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/harperreed/leadbook/models"
	"github.com/harperreed/leadbook/sources"
)

var (
	ErrRowNotFound   = errors.New("row not found")
	ErrUnknownTable  = errors.New("unknown table")
	ErrInvalidColumn = errors.New("invalid column name")
)

var identifierPattern = regexp.MustCompile(`^[a-z][a-z0-9_]*$`)

// LeadRepository reads and writes lead rows for every origin.
type LeadRepository struct {
	db     *sql.DB
	driver string
	tables map[string]sources.ColumnMap
}

// NewLeadRepository creates a repository. driver selects placeholder syntax.
func NewLeadRepository(db *sql.DB, driver string) *LeadRepository {
	tables := make(map[string]sources.ColumnMap)
	for _, a := range sources.All() {
		tables[a.Columns.Table] = a.Columns
	}
	return &LeadRepository{db: db, driver: driver, tables: tables}
}

// rebind rewrites ? placeholders to $n for Postgres.
func (r *LeadRepository) rebind(query string) string {
	if r.driver != DriverPostgres {
		return query
	}
	var b strings.Builder
	n := 0
	for _, ch := range query {
		if ch == '?' {
			n++
			b.WriteString("$" + strconv.Itoa(n))
			continue
		}
		b.WriteRune(ch)
	}
	return b.String()
}

func activeQuery(m sources.ColumnMap) string {
	selects := []string{"t.*"}
	var joins []string
	if m.CompanyFK != "" {
		selects = append(selects,
			"co.name AS "+sources.LookupCompanyName,
			"co.revenue AS "+sources.LookupCompanyRevenue)
		joins = append(joins, "LEFT JOIN companies co ON co.id = t."+m.CompanyFK)
	}
	if m.ChannelFK != "" {
		selects = append(selects,
			"ch.name AS "+sources.LookupChannelName,
			"ch.category AS "+sources.LookupChannelCategory)
		joins = append(joins, "LEFT JOIN acquisition_channels ch ON ch.id = t."+m.ChannelFK)
	}
	if m.FormFK != "" {
		selects = append(selects, "lf.name AS "+sources.LookupFormName)
		joins = append(joins, "LEFT JOIN lead_forms lf ON lf.id = t."+m.FormFK)
	}

	return fmt.Sprintf("SELECT %s FROM %s t %s WHERE t.%s = ? ORDER BY t.%s DESC",
		strings.Join(selects, ", "), m.Table, strings.Join(joins, " "), m.Deleted, m.CreatedAt)
}

// SelectActive returns every non-deleted row of origin's table, newest first,
// with linked company, acquisition channel and lead form names joined in.
func (r *LeadRepository) SelectActive(ctx context.Context, origin models.Origin) ([]sources.Record, error) {
	m, err := sources.Columns(origin)
	if err != nil {
		return nil, err
	}

	rows, err := r.db.QueryContext(ctx, r.rebind(activeQuery(m)), false)
	if err != nil {
		return nil, fmt.Errorf("failed to query %s: %w", m.Table, err)
	}
	defer func() { _ = rows.Close() }()

	records, err := scanRecords(rows)
	if err != nil {
		return nil, fmt.Errorf("failed to scan %s: %w", m.Table, err)
	}
	return records, nil
}

func scanRecords(rows *sql.Rows) ([]sources.Record, error) {
	cols, err := rows.Columns()
	if err != nil {
		return nil, err
	}

	var records []sources.Record
	for rows.Next() {
		values := make([]any, len(cols))
		ptrs := make([]any, len(cols))
		for i := range values {
			ptrs[i] = &values[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, err
		}

		rec := make(sources.Record, len(cols))
		for i, col := range cols {
			v := values[i]
			if b, ok := v.([]byte); ok {
				v = string(b)
			}
			rec[col] = v
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

// UpdateRow sets columns on one active row of table.
func (r *LeadRepository) UpdateRow(ctx context.Context, table, id string, columns map[string]any) error {
	m, ok := r.tables[table]
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownTable, table)
	}
	if len(columns) == 0 {
		return nil
	}

	names := make([]string, 0, len(columns))
	for name := range columns {
		if !identifierPattern.MatchString(name) {
			return fmt.Errorf("%w: %q", ErrInvalidColumn, name)
		}
		names = append(names, name)
	}
	sort.Strings(names)

	sets := make([]string, len(names))
	args := make([]any, 0, len(names)+2)
	for i, name := range names {
		sets[i] = name + " = ?"
		args = append(args, columns[name])
	}
	args = append(args, id, false)

	query := fmt.Sprintf("UPDATE %s SET %s WHERE %s = ? AND %s = ?",
		m.Table, strings.Join(sets, ", "), m.ID, m.Deleted)

	res, err := r.db.ExecContext(ctx, r.rebind(query), args...)
	if err != nil {
		return fmt.Errorf("failed to update %s %s: %w", table, id, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("%w: %s %s", ErrRowNotFound, table, id)
	}
	return nil
}

// ResolveOwners looks up display names for a set of profile ids in one query.
func (r *LeadRepository) ResolveOwners(ctx context.Context, ids []string) (map[string]string, error) {
	names := make(map[string]string, len(ids))
	if len(ids) == 0 {
		return names, nil
	}

	placeholders := make([]string, len(ids))
	args := make([]any, len(ids))
	for i, id := range ids {
		placeholders[i] = "?"
		args[i] = id
	}

	query := "SELECT id, full_name FROM profiles WHERE id IN (" + strings.Join(placeholders, ", ") + ")"
	rows, err := r.db.QueryContext(ctx, r.rebind(query), args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query profiles: %w", err)
	}
	defer func() { _ = rows.Close() }()

	for rows.Next() {
		var id, name string
		if err := rows.Scan(&id, &name); err != nil {
			return nil, fmt.Errorf("failed to scan profile: %w", err)
		}
		names[id] = name
	}
	return names, rows.Err()
}

// InsertLead inserts a raw row into origin's table, filling id, created_at and
// is_deleted when absent. Returns the row id.
func (r *LeadRepository) InsertLead(ctx context.Context, origin models.Origin, rec sources.Record) (string, error) {
	m, err := sources.Columns(origin)
	if err != nil {
		return "", err
	}

	row := make(sources.Record, len(rec)+3)
	for k, v := range rec {
		row[k] = v
	}
	if row.String(m.ID) == "" {
		row[m.ID] = uuid.New().String()
	}
	if _, ok := row[m.CreatedAt]; !ok {
		row[m.CreatedAt] = time.Now().UTC()
	}
	if _, ok := row[m.Deleted]; !ok {
		row[m.Deleted] = false
	}

	if err := r.insert(ctx, m.Table, row); err != nil {
		return "", err
	}
	return row.String(m.ID), nil
}

// InsertProfile creates an assignable owner.
func (r *LeadRepository) InsertProfile(ctx context.Context, id, fullName string) error {
	return r.insert(ctx, "profiles", sources.Record{"id": id, "full_name": fullName})
}

// InsertCompany creates a linkable company.
func (r *LeadRepository) InsertCompany(ctx context.Context, id, name string, revenue *float64) error {
	return r.insert(ctx, "companies", sources.Record{"id": id, "name": name, "revenue": revenue})
}

// InsertChannel creates an acquisition channel.
func (r *LeadRepository) InsertChannel(ctx context.Context, id, name, category string) error {
	return r.insert(ctx, "acquisition_channels", sources.Record{"id": id, "name": name, "category": category})
}

// InsertLeadForm creates a lead form.
func (r *LeadRepository) InsertLeadForm(ctx context.Context, id, name string) error {
	return r.insert(ctx, "lead_forms", sources.Record{"id": id, "name": name})
}

func (r *LeadRepository) insert(ctx context.Context, table string, row sources.Record) error {
	names := make([]string, 0, len(row))
	for name := range row {
		if !identifierPattern.MatchString(name) {
			return fmt.Errorf("%w: %q", ErrInvalidColumn, name)
		}
		names = append(names, name)
	}
	sort.Strings(names)

	placeholders := make([]string, len(names))
	args := make([]any, len(names))
	for i, name := range names {
		placeholders[i] = "?"
		args[i] = row[name]
	}

	query := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
		table, strings.Join(names, ", "), strings.Join(placeholders, ", "))
	if _, err := r.db.ExecContext(ctx, r.rebind(query), args...); err != nil {
		return fmt.Errorf("failed to insert into %s: %w", table, err)
	}
	return nil
}
