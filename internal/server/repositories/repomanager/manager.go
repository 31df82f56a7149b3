package repomanager

import (
	"context"
	"database/sql"

	"github.com/bridgeclub/clubhouse/internal/dbx"
	"github.com/bridgeclub/clubhouse/internal/server/repositories/events"
	"github.com/bridgeclub/clubhouse/internal/server/repositories/groups"
	"github.com/bridgeclub/clubhouse/internal/server/repositories/messages"
	"github.com/bridgeclub/clubhouse/internal/server/repositories/users"
)

type RepositoryManager interface {
	RunMigrations(context.Context, *sql.DB) error
	Users(db dbx.DBTX) users.Repository
	Groups(db dbx.DBTX) groups.Repository
	Events(db dbx.DBTX) events.Repository
	Messages(db dbx.DBTX) messages.Repository
}
