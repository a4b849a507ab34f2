package persistence

import (
	"fmt"
	"strings"

	"github.com/felixgeelhaar/prioritiai/internal/prioritization/domain"
)

// placeholder renders the n-th (1-based) bind parameter for a driver.
type placeholder func(n int) string

func postgresPlaceholder(n int) string { return fmt.Sprintf("$%d", n) }
func sqlitePlaceholder(int) string     { return "?" }

// whereClause builds the WHERE part of a history listing and its arguments.
func whereClause(filter domain.ListFilter, ph placeholder) (string, []any) {
	var (
		conds []string
		args  []any
	)
	add := func(column string, value any) {
		args = append(args, value)
		conds = append(conds, fmt.Sprintf("%s = %s", column, ph(len(args))))
	}

	if filter.Category != "" {
		add("category", string(filter.Category))
	}
	if filter.UrgencyLevel != "" {
		add("urgency_level", string(filter.UrgencyLevel))
	}
	if filter.Role != "" {
		add("requester_role", string(filter.Role))
	}
	if filter.Locked != nil {
		add("locked", *filter.Locked)
	}

	if len(conds) == 0 {
		return "", args
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}
