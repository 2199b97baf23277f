package models

import (
	"time"

	"github.com/google/uuid"
)

type Review struct {
	ID        uuid.UUID `json:"id"`
	ProductID uuid.UUID `json:"product_id"`
	UserID    uuid.UUID `json:"user_id"`
	Rating    int       `json:"rating"`
	Title     string    `json:"title"`
	Comment   string    `json:"comment"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type CreateReviewRequest struct {
	Rating  int    `json:"rating" validate:"required,min=1,max=5"`
	Title   string `json:"title" validate:"required,min=3,max=120"`
	Comment string `json:"comment,omitempty" validate:"omitempty,max=2000"`
}

type ReviewListResponse struct {
	Reviews       []Review `json:"reviews"`
	Total         int      `json:"total"`
	AverageRating float64  `json:"average_rating"`
	Page          int      `json:"page"`
	Size          int      `json:"size"`
}
