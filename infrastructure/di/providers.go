// Package di wires the application together.
package di

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/kyle-mirich/church-fathers-reader/application/ports"
	"github.com/kyle-mirich/church-fathers-reader/application/services"
	"github.com/kyle-mirich/church-fathers-reader/domain/services/highlighting"
	"github.com/kyle-mirich/church-fathers-reader/infrastructure/config"
	infcontent "github.com/kyle-mirich/church-fathers-reader/infrastructure/content"
	dynamostore "github.com/kyle-mirich/church-fathers-reader/infrastructure/persistence/dynamodb"
	"github.com/kyle-mirich/church-fathers-reader/infrastructure/persistence/memory"
	"github.com/kyle-mirich/church-fathers-reader/infrastructure/persistence/sqlite"
	"github.com/kyle-mirich/church-fathers-reader/interfaces/http/rest"
	"github.com/kyle-mirich/church-fathers-reader/interfaces/http/rest/handlers"
	"github.com/kyle-mirich/church-fathers-reader/interfaces/http/rest/middleware"
	"github.com/kyle-mirich/church-fathers-reader/pkg/auth"
	pkgerrors "github.com/kyle-mirich/church-fathers-reader/pkg/errors"
)

// Rate limits applied per client IP and per authenticated reader.
const (
	ipBurst         = 120
	ipRefillEvery   = 500 * time.Millisecond
	userBurst       = 60
	userRefillEvery = time.Second
)

// Storage bundles the repositories behind the configured driver with the
// handle needed to shut the backend down.
type Storage struct {
	Notes      ports.NoteRepository
	Highlights ports.HighlightRepository

	closer func() error
}

// Close releases the underlying storage backend, if it holds resources.
func (s *Storage) Close() error {
	if s.closer == nil {
		return nil
	}
	return s.closer()
}

// ProvideLogger creates the application logger per environment and level
func ProvideLogger(cfg *config.Config) (*zap.Logger, error) {
	level, err := zapcore.ParseLevel(cfg.LogLevel)
	if err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", cfg.LogLevel, err)
	}

	var zapCfg zap.Config
	if cfg.IsProduction() {
		zapCfg = zap.NewProductionConfig()
	} else {
		zapCfg = zap.NewDevelopmentConfig()
	}
	zapCfg.Level = zap.NewAtomicLevelAt(level)

	return zapCfg.Build()
}

// ProvideStorage selects and opens the storage backend named by the config
func ProvideStorage(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*Storage, error) {
	switch cfg.StorageDriver {
	case config.StorageSQLite:
		store, err := sqlite.Open(cfg.SQLitePath)
		if err != nil {
			return nil, err
		}
		logger.Info("storage opened",
			zap.String("driver", cfg.StorageDriver),
			zap.String("path", store.Path()),
		)
		return &Storage{
			Notes:      sqlite.NewNoteRepository(store),
			Highlights: sqlite.NewHighlightRepository(store),
			closer:     store.Close,
		}, nil

	case config.StorageDynamoDB:
		client, err := dynamostore.NewClient(ctx, cfg.AWSRegion, cfg.DynamoDBEndpoint)
		if err != nil {
			return nil, err
		}
		logger.Info("storage opened",
			zap.String("driver", cfg.StorageDriver),
			zap.String("table", cfg.DynamoDBTable),
		)
		return &Storage{
			Notes:      dynamostore.NewNoteRepository(client, cfg.DynamoDBTable, logger),
			Highlights: dynamostore.NewHighlightRepository(client, cfg.DynamoDBTable, logger),
		}, nil

	case config.StorageMemory:
		logger.Warn("storage opened", zap.String("driver", cfg.StorageDriver))
		return &Storage{
			Notes:      memory.NewNoteRepository(),
			Highlights: memory.NewHighlightRepository(),
		}, nil

	default:
		return nil, fmt.Errorf("unknown storage driver %q", cfg.StorageDriver)
	}
}

// ProvideNoteRepository exposes the note repository from the storage bundle
func ProvideNoteRepository(s *Storage) ports.NoteRepository {
	return s.Notes
}

// ProvideHighlightRepository exposes the highlight repository from the storage bundle
func ProvideHighlightRepository(s *Storage) ports.HighlightRepository {
	return s.Highlights
}

// ProvideContentProvider loads the reading corpus
func ProvideContentProvider(cfg *config.Config, logger *zap.Logger) (*infcontent.Provider, error) {
	return infcontent.NewProvider(cfg.LibraryPath, logger)
}

// ProvideNoteService creates the note service
func ProvideNoteService(notes ports.NoteRepository, highlights ports.HighlightRepository, logger *zap.Logger) *services.NoteService {
	return services.NewNoteService(notes, highlights, logger)
}

// ProvideHighlightService creates the highlight service
func ProvideHighlightService(highlights ports.HighlightRepository, notes ports.NoteRepository, logger *zap.Logger) *services.HighlightService {
	return services.NewHighlightService(highlights, notes, logger)
}

// ProvideRenderer creates the highlight renderer
func ProvideRenderer(logger *zap.Logger) *highlighting.Renderer {
	return highlighting.NewRenderer(logger)
}

// ProvideErrorHandler creates the HTTP error handler
func ProvideErrorHandler(cfg *config.Config, logger *zap.Logger) *pkgerrors.ErrorHandler {
	return pkgerrors.NewErrorHandler(logger, cfg.IsDevelopment())
}

// ProvideAuthenticator creates the request authenticator. Bare session
// identities are only accepted outside production.
func ProvideAuthenticator(cfg *config.Config, logger *zap.Logger) *middleware.Authenticator {
	validator := auth.NewTokenValidator(cfg.JWTSecret, cfg.JWTIssuer)
	return middleware.NewAuthenticator(
		validator,
		!cfg.IsProduction(),
		auth.NewTokenBucketLimiter(ipBurst, ipRefillEvery),
		auth.NewTokenBucketLimiter(userBurst, userRefillEvery),
		logger,
	)
}

// ProvideNoteHandler creates the note handler
func ProvideNoteHandler(notes *services.NoteService, errHandler *pkgerrors.ErrorHandler, logger *zap.Logger) *handlers.NoteHandler {
	return handlers.NewNoteHandler(notes, errHandler, logger)
}

// ProvideHighlightHandler creates the highlight handler
func ProvideHighlightHandler(highlights *services.HighlightService, errHandler *pkgerrors.ErrorHandler, logger *zap.Logger) *handlers.HighlightHandler {
	return handlers.NewHighlightHandler(highlights, errHandler, logger)
}

// ProvideReaderHandler creates the reader content handler
func ProvideReaderHandler(provider *infcontent.Provider, highlights *services.HighlightService, renderer *highlighting.Renderer, errHandler *pkgerrors.ErrorHandler, logger *zap.Logger) *handlers.ReaderHandler {
	return handlers.NewReaderHandler(provider, highlights, renderer, errHandler, logger)
}

// ProvideRouter creates the HTTP router
func ProvideRouter(
	cfg *config.Config,
	authenticator *middleware.Authenticator,
	notes *handlers.NoteHandler,
	highlights *handlers.HighlightHandler,
	reader *handlers.ReaderHandler,
	logger *zap.Logger,
) *rest.Router {
	return rest.NewRouter(cfg, authenticator, notes, highlights, reader, logger)
}
