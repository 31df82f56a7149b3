// Package services contains the club's business logic. Services own the
// transaction boundaries and translate repository results into the sentinel
// errors of package common; handlers never talk to repositories directly.
package services

import (
	"context"
	"io"
	"time"

	"github.com/bridgeclub/clubhouse/internal/server/objectstore"
	"github.com/google/uuid"
)

// GroupAccess answers whether a user may touch resources of a group. An
// empty groupID denotes an unscoped resource.
type GroupAccess interface {
	CheckGroupAccess(ctx context.Context, groupID, userID string) (bool, error)
}

// ObjectStore is the subset of objectstore.S3Store used by FileService.
type ObjectStore interface {
	Put(ctx context.Context, key string, body io.Reader, size int64, contentType string) error
	Exists(ctx context.Context, key string) (bool, error)
	List(ctx context.Context, prefix, cursor string, limit int) (objectstore.Page, error)
	PresignGet(ctx context.Context, key string, ttl time.Duration) (string, error)
}

// validID reports whether id can be a database identifier. Ids that are
// not UUIDs cannot exist, so callers report them as not found instead of
// sending them to Postgres.
func validID(id string) bool {
	return uuid.Validate(id) == nil
}
