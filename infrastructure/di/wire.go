//go:build wireinject
// +build wireinject

package di

import (
	"context"

	"github.com/google/wire"

	"github.com/kyle-mirich/church-fathers-reader/infrastructure/config"
)

// SuperSet is the main provider set containing all providers
var SuperSet = wire.NewSet(
	ProvideLogger,
	ProvideStorage,
	ProvideNoteRepository,
	ProvideHighlightRepository,
	ProvideContentProvider,
	ProvideNoteService,
	ProvideHighlightService,
	ProvideRenderer,
	ProvideErrorHandler,
	ProvideAuthenticator,
	ProvideNoteHandler,
	ProvideHighlightHandler,
	ProvideReaderHandler,
	ProvideRouter,
	wire.Struct(new(Container), "*"),
)

// InitializeContainer creates a fully wired container
func InitializeContainer(ctx context.Context, cfg *config.Config) (*Container, error) {
	wire.Build(SuperSet)
	return nil, nil // Wire will replace this
}
