package app

import (
	"fmt"

	"github.com/felixgeelhaar/prioritiai/internal/prioritization/domain"
	prioritizationPersistence "github.com/felixgeelhaar/prioritiai/internal/prioritization/infrastructure/persistence"
	sharedApplication "github.com/felixgeelhaar/prioritiai/internal/shared/application"
	"github.com/felixgeelhaar/prioritiai/internal/shared/infrastructure/database"
	"github.com/felixgeelhaar/prioritiai/internal/shared/infrastructure/outbox"
	sharedPersistence "github.com/felixgeelhaar/prioritiai/internal/shared/infrastructure/persistence"
)

// Repositories are the driver-specific stores behind the handlers. All of
// them share the connection's native handle, so the unit of work covers
// every write.
type Repositories struct {
	ScoredTasks domain.ScoredTaskRepository
	Audit       domain.PrivacyAuditRepository
	Outbox      outbox.Repository
	UnitOfWork  sharedApplication.UnitOfWork
}

// NewRepositories builds the repositories matching conn's driver.
func NewRepositories(conn database.Connection) (*Repositories, error) {
	switch conn.Driver() {
	case database.DriverPostgres:
		pool, err := database.PostgresPool(conn)
		if err != nil {
			return nil, err
		}
		return &Repositories{
			ScoredTasks: prioritizationPersistence.NewPostgresScoredTaskRepository(pool),
			Audit:       prioritizationPersistence.NewPostgresPrivacyAuditRepository(pool),
			Outbox:      outbox.NewPostgresRepository(pool),
			UnitOfWork:  sharedPersistence.NewPostgresUnitOfWork(pool),
		}, nil

	case database.DriverSQLite:
		db, err := database.SQLiteDB(conn)
		if err != nil {
			return nil, err
		}
		return &Repositories{
			ScoredTasks: prioritizationPersistence.NewSQLiteScoredTaskRepository(db),
			Audit:       prioritizationPersistence.NewSQLitePrivacyAuditRepository(db),
			Outbox:      outbox.NewSQLiteRepository(db),
			UnitOfWork:  sharedPersistence.NewSQLiteUnitOfWork(db),
		}, nil

	default:
		return nil, fmt.Errorf("unsupported driver: %s", conn.Driver())
	}
}
