package mcp

import "time"

var testNow = time.Date(2026, time.January, 15, 9, 0, 0, 0, time.UTC)

func ptr[T any](v T) *T { return &v }
