package mcp

import (
	"fmt"
	"time"
)

const dateLayout = "2006-01-02"

func parseOptionalTimestamp(field, value string) (*time.Time, error) {
	if value == "" {
		return nil, nil
	}
	if t, err := time.Parse(time.RFC3339, value); err == nil {
		return &t, nil
	}
	t, err := time.Parse(dateLayout, value)
	if err != nil {
		return nil, fmt.Errorf("invalid %s, use RFC3339 or YYYY-MM-DD: %w", field, err)
	}
	return &t, nil
}
