package services

import (
	"time"

	"github.com/tokosume/toko_backoffice_app/internal/cache"
	portsrepo "github.com/tokosume/toko_backoffice_app/internal/core/ports/repositories"
	portssvc "github.com/tokosume/toko_backoffice_app/internal/core/ports/services"
	"github.com/tokosume/toko_backoffice_app/internal/factcodec"
)

// ContainerOpts carries the tunables the services need beyond their
// collaborators.
type ContainerOpts struct {
	StockCacheTTL  time.Duration
	CodeMaxRetries int
}

// NewServiceContainer wires every service facade against the repository
// provider and shared collaborators.
func NewServiceContainer(repos *portsrepo.RepositoryProvider, stockCache cache.StockCache, opts ContainerOpts) *portssvc.ServiceContainer {
	codec := factcodec.New()
	codeGen := NewCodeGenService(repos.JournalRepo)

	return &portssvc.ServiceContainer{
		Journal:   NewJournalService(repos.JournalRepo, codeGen, codec, stockCache, opts.CodeMaxRetries),
		Stock:     NewStockService(repos.JournalRepo, codec, stockCache, opts.StockCacheTTL),
		Reporting: NewReportingService(repos.JournalRepo),
	}
}
