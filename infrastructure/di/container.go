package di

import (
	"go.uber.org/zap"

	"github.com/kyle-mirich/church-fathers-reader/application/services"
	"github.com/kyle-mirich/church-fathers-reader/infrastructure/config"
	infcontent "github.com/kyle-mirich/church-fathers-reader/infrastructure/content"
	"github.com/kyle-mirich/church-fathers-reader/interfaces/http/rest"
)

// Container holds all application dependencies
type Container struct {
	Config           *config.Config
	Logger           *zap.Logger
	Storage          *Storage
	ContentProvider  *infcontent.Provider
	NoteService      *services.NoteService
	HighlightService *services.HighlightService
	Router           *rest.Router
}

// Close releases everything the container holds open.
func (c *Container) Close() error {
	if c.ContentProvider != nil {
		c.ContentProvider.Close()
	}
	if c.Storage != nil {
		return c.Storage.Close()
	}
	return nil
}
