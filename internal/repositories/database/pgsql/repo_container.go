package pgsql

import (
	"github.com/jackc/pgx/v5/pgxpool"

	portsrepo "github.com/tokosume/toko_backoffice_app/internal/core/ports/repositories"
)

// NewRepositoryProvider wires every repository against one pgx pool.
func NewRepositoryProvider(dbPool *pgxpool.Pool) *portsrepo.RepositoryProvider {
	return &portsrepo.RepositoryProvider{
		JournalRepo: newPgxJournalRepository(dbPool),
	}
}
