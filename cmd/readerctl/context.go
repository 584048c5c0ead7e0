package main

import (
	"github.com/kyle-mirich/church-fathers-reader/infrastructure/config"
	"github.com/kyle-mirich/church-fathers-reader/infrastructure/persistence/sqlite"
)

// commandContext carries the flags shared by every subcommand and opens the
// store lazily, so help and usage never touch the database.
type commandContext struct {
	dbFlag *string
}

func newCommandContext(dbFlag *string) *commandContext {
	return &commandContext{dbFlag: dbFlag}
}

func (c *commandContext) storePath() string {
	if c.dbFlag != nil && *c.dbFlag != "" {
		return *c.dbFlag
	}
	cfg, err := config.Load()
	if err == nil && cfg.SQLitePath != "" {
		return cfg.SQLitePath
	}
	return "data/reader.db"
}

func (c *commandContext) withStore(fn func(*sqlite.Store) error) error {
	store, err := sqlite.Open(c.storePath())
	if err != nil {
		return err
	}
	defer store.Close()
	return fn(store)
}
