package comments

import (
	"time"

	"github.com/google/uuid"

	"github.com/retrostore/retrostore-backend/pkg/db/models"
)

type CommentDTO struct {
	ID        uuid.UUID `json:"id"`
	ProductID uuid.UUID `json:"product_id"`
	UserID    uuid.UUID `json:"user_id"`
	Username  string    `json:"username"`
	Text      string    `json:"text"`
	CreatedAt time.Time `json:"created_at"`
}

func NewCommentDTO(c models.Comment) CommentDTO {
	dto := CommentDTO{
		ID:        c.ID,
		ProductID: c.ProductID,
		UserID:    c.UserID,
		Text:      c.Text,
		CreatedAt: c.CreatedAt,
	}
	if c.User != nil {
		dto.Username = c.User.Username
	}
	return dto
}
