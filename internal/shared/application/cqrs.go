// Package application holds the handler contracts and transaction helper
// shared by the prioritization commands and queries.
package application

import "context"

// Command changes stored state. CommandName is a stable dotted identifier.
type Command interface {
	CommandName() string
}

// CommandHandler executes a command that reports only success or failure.
type CommandHandler[C Command] interface {
	Handle(ctx context.Context, cmd C) error
}

// ResultCommandHandler executes a command and returns what it produced,
// such as the stored result of a scoring run.
type ResultCommandHandler[C Command, R any] interface {
	Handle(ctx context.Context, cmd C) (R, error)
}

// Query reads state without changing it.
type Query interface {
	QueryName() string
}

// QueryHandler answers one query type.
type QueryHandler[Q Query, R any] interface {
	Handle(ctx context.Context, query Q) (R, error)
}
