// Package di provides dependency injection for repository implementations.
package di

import (
	"github.com/aristath/insights/internal/clientdata"
	"github.com/rs/zerolog"
)

// InitializeRepositories creates all repositories
func InitializeRepositories(container *Container, log zerolog.Logger) {
	container.ClientDataRepo = clientdata.NewRepository(container.ClientDataDB.Conn())

	log.Debug().Msg("Repositories initialized")
}
