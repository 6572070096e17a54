package catalog

import (
	"strings"
	"time"

	"github.com/ahmetcoskunkizilkaya/booker-backend/internal/dto"
	"github.com/google/uuid"
)

type Genre struct {
	ID        uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	Name      string    `gorm:"size:100;not null;uniqueIndex:idx_genres_name" json:"name"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

type Author struct {
	ID        uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	Name      string    `gorm:"size:200;not null;index" json:"name"`
	Biography string    `gorm:"type:text" json:"biography"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

type Book struct {
	ID        uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	Title     string    `gorm:"size:200;not null;index" json:"title"`
	Synopsis  string    `gorm:"type:text" json:"synopsis"`
	PageCount int       `gorm:"not null" json:"pageCount"`
	AuthorID  uuid.UUID `gorm:"type:uuid;not null;index" json:"authorId"`
	Author    *Author   `gorm:"foreignKey:AuthorID;constraint:OnDelete:RESTRICT" json:"author,omitempty"`
	Genres    []Genre   `gorm:"many2many:book_genres;constraint:OnDelete:CASCADE" json:"genres"`
	CoverURL  string    `gorm:"size:500" json:"coverUrl"`
	CoverKey  string    `gorm:"size:255" json:"-"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// --- DTOs ---

type GenreRequest struct {
	Name string `json:"name" validate:"required,notblank,max=100"`
}

func (r *GenreRequest) Validate() dto.FieldErrors {
	r.Name = strings.TrimSpace(r.Name)
	return dto.Struct(r)
}

type AuthorRequest struct {
	Name      string `json:"name" validate:"required,notblank,max=200"`
	Biography string `json:"biography"`
}

func (r *AuthorRequest) Validate() dto.FieldErrors {
	r.Name = strings.TrimSpace(r.Name)
	return dto.Struct(r)
}

// BookRequest is the full representation used by create and replace.
type BookRequest struct {
	Title     string      `json:"title" validate:"min=2,max=200"`
	Synopsis  string      `json:"synopsis"`
	PageCount int         `json:"pageCount" validate:"gt=0"`
	AuthorID  uuid.UUID   `json:"authorId" validate:"nonzero"`
	GenreIDs  []uuid.UUID `json:"genreIds"`
}

func (r *BookRequest) Validate() dto.FieldErrors {
	r.Title = strings.TrimSpace(r.Title)
	return dto.Struct(r)
}

// BookPatchRequest updates only the fields that are present.
type BookPatchRequest struct {
	Title     *string      `json:"title" validate:"omitnil,min=2,max=200"`
	Synopsis  *string      `json:"synopsis"`
	PageCount *int         `json:"pageCount" validate:"omitnil,gt=0"`
	AuthorID  *uuid.UUID   `json:"authorId" validate:"omitnil,nonzero"`
	GenreIDs  *[]uuid.UUID `json:"genreIds"`
}

func (r *BookPatchRequest) Validate() dto.FieldErrors {
	if r.Title != nil {
		t := strings.TrimSpace(*r.Title)
		r.Title = &t
	}
	return dto.Struct(r)
}

type BookFilter struct {
	Query    string
	AuthorID uuid.UUID
	Limit    int
	Offset   int
}

type BookListResponse struct {
	Books  []Book `json:"books"`
	Total  int64  `json:"total"`
	Limit  int    `json:"limit"`
	Offset int    `json:"offset"`
}

type AuthorListResponse struct {
	Authors []Author `json:"authors"`
	Total   int64    `json:"total"`
	Limit   int      `json:"limit"`
	Offset  int      `json:"offset"`
}
