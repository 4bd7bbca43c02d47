package comments

import (
	"context"
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/retrostore/retrostore-backend/pkg/db/models"
	pkgerrors "github.com/retrostore/retrostore-backend/pkg/errors"
)

// MaxTextLength is measured in characters, not bytes.
const MaxTextLength = 2000

type productLookup interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.Product, error)
}

type Service interface {
	ListComments(ctx context.Context, productID uuid.UUID) ([]CommentDTO, error)
	CreateComment(ctx context.Context, userID, productID uuid.UUID, text string) (*CommentDTO, error)
	DeleteComment(ctx context.Context, userID, productID, commentID uuid.UUID) error
}

type service struct {
	repo     *Repository
	products productLookup
}

func NewService(repo *Repository, products productLookup) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("comments repository required")
	}
	if products == nil {
		return nil, fmt.Errorf("product lookup required")
	}
	return &service{repo: repo, products: products}, nil
}

func (s *service) ListComments(ctx context.Context, productID uuid.UUID) ([]CommentDTO, error) {
	if _, err := s.products.FindByID(ctx, productID); err != nil {
		return nil, err
	}
	rows, err := s.repo.ListByProduct(ctx, productID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list comments")
	}
	out := make([]CommentDTO, 0, len(rows))
	for _, row := range rows {
		out = append(out, NewCommentDTO(row))
	}
	return out, nil
}

func (s *service) CreateComment(ctx context.Context, userID, productID uuid.UUID, text string) (*CommentDTO, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user required")
	}
	text = cleanText(text)
	if n := utf8.RuneCountInString(text); n == 0 || n > MaxTextLength {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("text must be between 1 and %d characters", MaxTextLength))
	}
	if _, err := s.products.FindByID(ctx, productID); err != nil {
		return nil, err
	}
	comment := &models.Comment{ProductID: productID, UserID: userID, Text: text}
	if err := s.repo.Create(ctx, comment); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create comment")
	}
	dto := NewCommentDTO(*comment)
	return &dto, nil
}

// cleanText keeps line breaks and tabs but drops every other control rune,
// NUL included, since Postgres text columns reject it.
func cleanText(text string) string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	return strings.TrimSpace(strings.Map(func(r rune) rune {
		if unicode.IsControl(r) && r != '\n' && r != '\t' {
			return -1
		}
		return r
	}, text))
}

// DeleteComment removes the caller's own comment. Comments are public, so a
// foreign comment yields Forbidden rather than NotFound.
func (s *service) DeleteComment(ctx context.Context, userID, productID, commentID uuid.UUID) error {
	comment, err := s.repo.FindOnProduct(ctx, productID, commentID)
	if err != nil {
		return err
	}
	if comment.UserID != userID {
		return pkgerrors.New(pkgerrors.CodeForbidden, "only the author can delete a comment")
	}
	return s.repo.Delete(ctx, commentID)
}
