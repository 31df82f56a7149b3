package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/bridgeclub/clubhouse/internal/common"
	"github.com/bridgeclub/clubhouse/internal/logging"
	"github.com/bridgeclub/clubhouse/internal/server/access"
	"github.com/bridgeclub/clubhouse/internal/server/objectstore"
	"github.com/bridgeclub/clubhouse/internal/server/upload"
)

// DownloadURLTTL is how long a presigned download link stays valid.
const DownloadURLTTL = 60 * time.Second

// unscopedPrefix lists files uploaded without a group.
const unscopedPrefix = "file="

// FileService stores and serves shared files. Every operation is gated by
// group membership before the object store is touched.
type FileService struct {
	groups GroupAccess
	store  ObjectStore
	logger logging.Logger
	now    func() time.Time
}

func NewFileService(groups GroupAccess, store ObjectStore, logger logging.Logger) *FileService {
	return &FileService{
		groups: groups,
		store:  store,
		logger: logger.With("module", "files"),
		now:    time.Now,
	}
}

// Upload validates body and stores it, returning the object key. The order
// is membership, then size, name and content, then the write.
func (s *FileService) Upload(ctx context.Context, userID, groupID, name string, size int64, body io.ReadSeeker) (string, error) {
	if err := s.Authorize(ctx, userID, groupID); err != nil {
		return "", err
	}

	head := make([]byte, upload.SniffLen)
	n, err := io.ReadFull(body, head)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
		return "", fmt.Errorf("error reading upload: %w", err)
	}

	res, err := upload.Validate(size, name, head[:n])
	if err != nil {
		s.logger.Info(ctx, "upload rejected", "user_id", userID, "group_id", groupID, "name", name, "size", size, "error", err)
		return "", err
	}

	if _, err := body.Seek(0, io.SeekStart); err != nil {
		return "", fmt.Errorf("error rewinding upload: %w", err)
	}

	key := upload.NewKey(groupID, res.Extension, s.now())
	if err := s.store.Put(ctx, key, body, size, res.ContentType); err != nil {
		return "", err
	}

	s.logger.Info(ctx, "file uploaded", "user_id", userID, "key", key, "content_type", res.ContentType)
	return key, nil
}

// ResolveDownload returns a short-lived URL for key. Keys under another
// group's prefix yield common.ErrorForbidden, missing objects
// common.ErrorNotFound.
func (s *FileService) ResolveDownload(ctx context.Context, userID, key string) (string, error) {
	groupID, _, err := access.GroupFromKey(key)
	if err != nil {
		return "", err
	}
	if err := s.Authorize(ctx, userID, groupID); err != nil {
		return "", err
	}

	ok, err := s.store.Exists(ctx, key)
	if err != nil {
		return "", err
	}
	if !ok {
		return "", common.ErrorNotFound
	}

	return s.store.PresignGet(ctx, key, DownloadURLTTL)
}

// List pages through the files of a group, or the unscoped files when
// groupID is empty.
func (s *FileService) List(ctx context.Context, userID, groupID, cursor string) (objectstore.Page, error) {
	if err := s.Authorize(ctx, userID, groupID); err != nil {
		return objectstore.Page{}, err
	}

	prefix := access.GroupPrefix(groupID)
	if prefix == "" {
		prefix = unscopedPrefix
	}
	return s.store.List(ctx, prefix, cursor, objectstore.DefaultListLimit)
}

// Authorize returns common.ErrorForbidden unless userID may read and write
// files of groupID.
func (s *FileService) Authorize(ctx context.Context, userID, groupID string) error {
	ok, err := s.groups.CheckGroupAccess(ctx, groupID, userID)
	if err != nil {
		return err
	}
	if !ok {
		return common.ErrorForbidden
	}
	return nil
}
