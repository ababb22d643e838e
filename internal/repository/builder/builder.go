package builder

import (
	"fmt"
	"strings"
)

// PlaceholderFormat controls how "?" markers are rewritten in the final SQL.
type PlaceholderFormat int

const (
	// Dollar rewrites markers to $1, $2, ... (PostgreSQL).
	Dollar PlaceholderFormat = iota
	// Question leaves markers as ? (SQLite, MySQL).
	Question
)

// SQLBuilder helps construct parameterized SQL queries. Values are never
// interpolated into the SQL text; every value travels as an argument.
type SQLBuilder struct {
	format     PlaceholderFormat
	table      string
	columns    []string
	values     []interface{}
	setArgs    []interface{}
	updateCols []string
	where      []condition
	joins      []string
	orderBy    []string
	returning  []string
	limit      int
	offset     int
	isInsert   bool
	isUpdate   bool
	isDelete   bool
	isSelect   bool
}

// condition is a single WHERE term joined to the previous one with its
// connector. A group renders its own terms inside parentheses.
type condition struct {
	connector string
	sql       string
	args      []interface{}
	group     []condition
}

// NewSQLBuilder creates a new instance of SQLBuilder emitting $N placeholders.
func NewSQLBuilder() *SQLBuilder {
	return &SQLBuilder{format: Dollar}
}

// NewSQLBuilderWithFormat creates a builder for the given placeholder format.
func NewSQLBuilderWithFormat(format PlaceholderFormat) *SQLBuilder {
	return &SQLBuilder{format: format}
}

// Select specifies the columns to retrieve.
func (b *SQLBuilder) Select(cols ...string) *SQLBuilder {
	b.isSelect = true
	b.columns = cols
	return b
}

// Insert specifies the table and columns for insertion.
func (b *SQLBuilder) Insert(table string, cols ...string) *SQLBuilder {
	b.isInsert = true
	b.table = table
	b.columns = cols
	return b
}

// Update specifies the table to update.
func (b *SQLBuilder) Update(table string) *SQLBuilder {
	b.isUpdate = true
	b.table = table
	return b
}

// Delete specifies the table to delete from.
func (b *SQLBuilder) Delete(table string) *SQLBuilder {
	b.isDelete = true
	b.table = table
	return b
}

// From specifies the table to select from.
func (b *SQLBuilder) From(table string) *SQLBuilder {
	b.table = table
	return b
}

// Set specifies a column and value for update.
func (b *SQLBuilder) Set(col string, val interface{}) *SQLBuilder {
	b.updateCols = append(b.updateCols, col)
	b.setArgs = append(b.setArgs, val)
	return b
}

// Values specifies the values for insertion.
func (b *SQLBuilder) Values(vals ...interface{}) *SQLBuilder {
	b.values = vals
	return b
}

// Where adds a condition joined to the previous one with AND.
func (b *SQLBuilder) Where(cond string, args ...interface{}) *SQLBuilder {
	b.where = append(b.where, condition{connector: " AND ", sql: cond, args: args})
	return b
}

// Or adds a condition joined to the previous one with OR.
func (b *SQLBuilder) Or(cond string, args ...interface{}) *SQLBuilder {
	b.where = append(b.where, condition{connector: " OR ", sql: cond, args: args})
	return b
}

// WhereGroup adds a grouped (parenthesized) condition joined with AND.
// The provided function receives a new SQLBuilder for building the grouped conditions.
func (b *SQLBuilder) WhereGroup(fn func(*SQLBuilder) *SQLBuilder) *SQLBuilder {
	g := fn(&SQLBuilder{format: b.format})
	if len(g.where) > 0 {
		b.where = append(b.where, condition{connector: " AND ", group: g.where})
	}
	return b
}

// Join adds a JOIN clause.
func (b *SQLBuilder) Join(joinType, table, on string) *SQLBuilder {
	b.joins = append(b.joins, fmt.Sprintf("%s JOIN %s ON %s", joinType, table, on))
	return b
}

// OrderBy adds an ORDER BY clause.
func (b *SQLBuilder) OrderBy(order string) *SQLBuilder {
	b.orderBy = append(b.orderBy, order)
	return b
}

// Limit adds a LIMIT clause.
func (b *SQLBuilder) Limit(limit int) *SQLBuilder {
	b.limit = limit
	return b
}

// Offset adds an OFFSET clause.
func (b *SQLBuilder) Offset(offset int) *SQLBuilder {
	b.offset = offset
	return b
}

// Returning adds a RETURNING clause to INSERT, UPDATE or DELETE.
func (b *SQLBuilder) Returning(cols ...string) *SQLBuilder {
	b.returning = cols
	return b
}

// BuildSafe constructs the final SQL string and arguments with safety validation.
// Returns an error if the number of placeholders doesn't match the number of arguments.
func (b *SQLBuilder) BuildSafe() (string, []interface{}, error) {
	query, args := b.Build()

	placeholderCount := strings.Count(query, "?")
	if b.format == Dollar {
		placeholderCount = 0
		for i := 1; strings.Contains(query, fmt.Sprintf("$%d", i)); i++ {
			placeholderCount++
		}
	}

	if placeholderCount != len(args) {
		return "", nil, fmt.Errorf("placeholder count (%d) does not match argument count (%d)", placeholderCount, len(args))
	}

	return query, args, nil
}

// Build constructs the final SQL string and arguments. It does not mutate the
// builder and may be called repeatedly.
func (b *SQLBuilder) Build() (string, []interface{}) {
	var sb strings.Builder
	var args []interface{}
	argIndex := 1

	switch {
	case b.isSelect:
		sb.WriteString("SELECT ")
		sb.WriteString(strings.Join(b.columns, ", "))
		sb.WriteString(" FROM ")
		sb.WriteString(b.table)
		for _, join := range b.joins {
			sb.WriteString(" ")
			sb.WriteString(join)
		}
	case b.isInsert:
		sb.WriteString("INSERT INTO ")
		sb.WriteString(b.table)
		sb.WriteString(" (")
		sb.WriteString(strings.Join(b.columns, ", "))
		sb.WriteString(") VALUES (")
		placeholders := make([]string, len(b.values))
		for i := range b.values {
			placeholders[i] = b.placeholder(argIndex)
			argIndex++
		}
		sb.WriteString(strings.Join(placeholders, ", "))
		sb.WriteString(")")
		args = append(args, b.values...)
	case b.isUpdate:
		sb.WriteString("UPDATE ")
		sb.WriteString(b.table)
		sb.WriteString(" SET ")
		setClauses := make([]string, len(b.updateCols))
		for i, col := range b.updateCols {
			setClauses[i] = fmt.Sprintf("%s = %s", col, b.placeholder(argIndex))
			argIndex++
		}
		sb.WriteString(strings.Join(setClauses, ", "))
		args = append(args, b.setArgs...)
	case b.isDelete:
		sb.WriteString("DELETE FROM ")
		sb.WriteString(b.table)
	}

	if len(b.where) > 0 && !b.isInsert {
		sb.WriteString(" WHERE ")
		clause, whereArgs := b.renderConditions(b.where, &argIndex)
		sb.WriteString(clause)
		args = append(args, whereArgs...)
	}

	if len(b.orderBy) > 0 {
		sb.WriteString(" ORDER BY ")
		sb.WriteString(strings.Join(b.orderBy, ", "))
	}

	if b.limit > 0 {
		sb.WriteString(fmt.Sprintf(" LIMIT %d", b.limit))
	}

	if b.offset > 0 {
		sb.WriteString(fmt.Sprintf(" OFFSET %d", b.offset))
	}

	if len(b.returning) > 0 {
		sb.WriteString(" RETURNING ")
		sb.WriteString(strings.Join(b.returning, ", "))
	}

	return sb.String(), args
}

func (b *SQLBuilder) renderConditions(conds []condition, argIndex *int) (string, []interface{}) {
	var sb strings.Builder
	var args []interface{}

	for i, c := range conds {
		if i > 0 {
			sb.WriteString(c.connector)
		}
		if len(c.group) > 0 {
			inner, innerArgs := b.renderConditions(c.group, argIndex)
			sb.WriteString("(" + inner + ")")
			args = append(args, innerArgs...)
			continue
		}
		sb.WriteString(b.rewrite(c.sql, argIndex))
		args = append(args, c.args...)
	}

	return sb.String(), args
}

// rewrite replaces each ? marker with the placeholder for the running index.
func (b *SQLBuilder) rewrite(cond string, argIndex *int) string {
	var out strings.Builder
	segments := strings.Split(cond, "?")
	for i, seg := range segments {
		out.WriteString(seg)
		if i < len(segments)-1 {
			out.WriteString(b.placeholder(*argIndex))
			*argIndex++
		}
	}
	return out.String()
}

func (b *SQLBuilder) placeholder(i int) string {
	if b.format == Question {
		return "?"
	}
	return fmt.Sprintf("$%d", i)
}
