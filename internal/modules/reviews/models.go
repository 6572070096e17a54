package reviews

import (
	"strings"
	"time"

	"github.com/ahmetcoskunkizilkaya/booker-backend/internal/dto"
	"github.com/ahmetcoskunkizilkaya/booker-backend/internal/models"
	"github.com/ahmetcoskunkizilkaya/booker-backend/internal/modules/catalog"
	"github.com/google/uuid"
)

// Review is one user's opinion of one book; a user may review a book once.
type Review struct {
	ID        uuid.UUID     `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	BookID    uuid.UUID     `gorm:"type:uuid;not null;uniqueIndex:idx_reviews_book_user;index" json:"bookId"`
	UserID    uuid.UUID     `gorm:"type:uuid;not null;uniqueIndex:idx_reviews_book_user" json:"userId"`
	Score     float64       `gorm:"type:numeric(2,1);not null" json:"score"`
	Headline  string        `gorm:"size:50" json:"headline"`
	Text      string        `gorm:"type:text;not null" json:"text"`
	LikeCount int           `gorm:"not null;default:0" json:"likeCount"`
	User      *models.User  `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"-"`
	Book      *catalog.Book `gorm:"foreignKey:BookID;constraint:OnDelete:CASCADE" json:"-"`
	CreatedAt time.Time     `json:"createdAt"`
	UpdatedAt time.Time     `json:"updatedAt"`
}

// --- DTOs ---

type ReviewRequest struct {
	Score    *float64 `json:"score" validate:"required,min=0,max=5,halfstep"`
	Headline string   `json:"headline" validate:"max=50"`
	Text     string   `json:"text" validate:"required,notblank,max=2048"`
}

func (r *ReviewRequest) Validate() dto.FieldErrors {
	r.Headline = strings.TrimSpace(r.Headline)
	r.Text = strings.TrimSpace(r.Text)
	return dto.Struct(r)
}

type Reviewer struct {
	ID       uuid.UUID `json:"id"`
	Name     string    `json:"name"`
	Username string    `json:"username"`
}

type ReviewResponse struct {
	Review
	Reviewer *Reviewer `json:"user,omitempty"`
}

func NewReviewResponse(r Review) ReviewResponse {
	resp := ReviewResponse{Review: r}
	if r.User != nil {
		resp.Reviewer = &Reviewer{ID: r.User.ID, Name: r.User.Name, Username: r.User.Username}
	}
	return resp
}

type ReviewListResponse struct {
	Reviews []ReviewResponse `json:"reviews"`
	Total   int64            `json:"total"`
	Limit   int              `json:"limit"`
	Offset  int              `json:"offset"`
}
