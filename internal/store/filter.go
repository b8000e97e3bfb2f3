package store

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/Amir-debuug/cert-verification-sub001/internal/faults"
)

// Clause is one predicate of the filter mini-language: a
// "field:operator:value" triple.
type Clause struct {
	Field string
	Op    string
	Value string
}

// Query carries the pass-through listing parameters handed to Find.
type Query struct {
	Where  []Clause
	Order  string
	Limit  int
	Offset int
}

var (
	fieldPattern = regexp.MustCompile(`^[a-z][a-z0-9_]*$`)

	sqlOps = map[string]string{
		"eq":  "= ?",
		"neq": "<> ?",
		"gt":  "> ?",
		"gte": ">= ?",
		"lt":  "< ?",
		"lte": "<= ?",
	}
)

// ParseFilter compiles a comma-separated list of field:operator:value
// triples into clauses. An empty filter is valid and matches everything.
func ParseFilter(filter string) ([]Clause, error) {
	filter = strings.TrimSpace(filter)
	if filter == "" {
		return nil, nil
	}
	var clauses []Clause
	for _, raw := range strings.Split(filter, ",") {
		parts := strings.SplitN(strings.TrimSpace(raw), ":", 3)
		if len(parts) != 3 {
			return nil, fmt.Errorf("%w: filter term %q is not field:operator:value", faults.ErrValidation, raw)
		}
		c := Clause{Field: parts[0], Op: parts[1], Value: parts[2]}
		if !fieldPattern.MatchString(c.Field) {
			return nil, fmt.Errorf("%w: filter field %q", faults.ErrValidation, c.Field)
		}
		if _, ok := sqlOps[c.Op]; !ok && c.Op != "like" {
			return nil, fmt.Errorf("%w: filter operator %q", faults.ErrValidation, c.Op)
		}
		clauses = append(clauses, c)
	}
	return clauses, nil
}

// ParseOrder compiles a "field" or "field:direction" ordering term into
// an ORDER BY clause. Only whitelisted field names and the directions
// asc/desc survive; everything else is a validation error, never SQL.
func ParseOrder(order string) (string, error) {
	order = strings.TrimSpace(order)
	if order == "" {
		return "", nil
	}
	parts := strings.SplitN(order, ":", 2)
	field := parts[0]
	if !fieldPattern.MatchString(field) {
		return "", fmt.Errorf("%w: order field %q", faults.ErrValidation, field)
	}
	direction := "ASC"
	if len(parts) == 2 {
		switch strings.ToLower(strings.TrimSpace(parts[1])) {
		case "asc":
		case "desc":
			direction = "DESC"
		default:
			return "", fmt.Errorf("%w: order direction %q", faults.ErrValidation, parts[1])
		}
	}
	return field + " " + direction, nil
}

// condition renders the clause into a gorm condition and its argument.
// "like" compiles to a case-insensitive prefix match.
func (c Clause) condition() (string, interface{}) {
	if c.Op == "like" {
		return fmt.Sprintf("LOWER(%s) LIKE ?", c.Field), strings.ToLower(c.Value) + "%"
	}
	return fmt.Sprintf("%s %s", c.Field, sqlOps[c.Op]), c.Value
}
