package services

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/bridgeclub/clubhouse/internal/common"
	"github.com/bridgeclub/clubhouse/internal/logging"
	"github.com/bridgeclub/clubhouse/internal/server/models"
	"github.com/bridgeclub/clubhouse/internal/server/repositories/repomanager"
)

const (
	MaxMessageLength = 2000
	DefaultPageSize  = 50
	MaxPageSize      = 100
)

// MessagePage is one page of a group chat, newest first. NextCursor, when
// set, is passed back as "before" to fetch older messages.
type MessagePage struct {
	Messages   []models.Message `json:"messages"`
	NextCursor string           `json:"nextCursor,omitempty"`
}

type MessageService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	groups      GroupAccess
	logger      logging.Logger
}

func NewMessageService(db *sql.DB, m repomanager.RepositoryManager, groups GroupAccess, logger logging.Logger) *MessageService {
	return &MessageService{
		db:          db,
		repomanager: m,
		groups:      groups,
		logger:      logger.With("module", "messages"),
	}
}

// Post appends a message to the group chat. Only members may post.
func (s *MessageService) Post(ctx context.Context, groupID, userID, body string) (*models.Message, error) {
	body = strings.TrimSpace(body)
	if n := utf8.RuneCountInString(body); n == 0 || n > MaxMessageLength {
		return nil, fmt.Errorf("%w: message must be 1..%d characters", common.ErrorValidation, MaxMessageLength)
	}
	if err := s.requireMember(ctx, groupID, userID); err != nil {
		return nil, err
	}

	m, err := s.repomanager.Messages(s.db).Create(ctx, &models.Message{GroupID: groupID, UserID: userID, Body: body})
	if err != nil {
		return nil, fmt.Errorf("error posting message: %w", err)
	}

	s.logger.Debug(ctx, "message posted", "group_id", groupID, "seq", m.Seq)
	return m, nil
}

// List returns messages older than before (all messages when before is
// empty), newest first.
func (s *MessageService) List(ctx context.Context, groupID, userID, before string, limit int) (*MessagePage, error) {
	var beforeSeq int64
	if before != "" {
		seq, err := strconv.ParseInt(before, 10, 64)
		if err != nil || seq <= 0 {
			return nil, fmt.Errorf("%w: invalid cursor", common.ErrorValidation)
		}
		beforeSeq = seq
	}
	if limit <= 0 {
		limit = DefaultPageSize
	}
	limit = min(limit, MaxPageSize)

	if err := s.requireMember(ctx, groupID, userID); err != nil {
		return nil, err
	}

	msgs, err := s.repomanager.Messages(s.db).ListBefore(ctx, groupID, beforeSeq, limit+1)
	if err != nil {
		return nil, err
	}

	page := &MessagePage{Messages: msgs}
	if len(msgs) > limit {
		page.Messages = msgs[:limit]
		page.NextCursor = strconv.FormatInt(msgs[limit-1].Seq, 10)
	}
	return page, nil
}

func (s *MessageService) requireMember(ctx context.Context, groupID, userID string) error {
	if !validID(groupID) {
		return common.ErrorNotFound
	}
	ok, err := s.groups.CheckGroupAccess(ctx, groupID, userID)
	if err != nil {
		return err
	}
	if !ok {
		return common.ErrorForbidden
	}
	return nil
}
