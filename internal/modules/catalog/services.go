package catalog

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path"
	"strings"

	"github.com/ahmetcoskunkizilkaya/booker-backend/internal/storage"
	"github.com/ahmetcoskunkizilkaya/booker-backend/internal/store"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const MaxCoverBytes = 5 << 20

var (
	ErrGenreNotFound  = errors.New("genre not found")
	ErrGenreExists    = errors.New("genre already exists")
	ErrAuthorNotFound = errors.New("author not found")
	ErrAuthorHasBooks = errors.New("author still has books")
	ErrBookNotFound   = errors.New("book not found")
	ErrUnknownGenre   = errors.New("one or more genres do not exist")
	ErrInvalidCover   = errors.New("cover must be a jpeg, png, webp or gif image up to 5MB")
)

var coverTypes = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/webp": ".webp",
	"image/gif":  ".gif",
}

type CatalogService struct {
	db      *gorm.DB
	storage storage.ObjectStore
}

func NewCatalogService(db *gorm.DB, objects storage.ObjectStore) *CatalogService {
	if objects == nil {
		objects = storage.Disabled{}
	}
	return &CatalogService{db: db, storage: objects}
}

// --- genres ---

func (s *CatalogService) ListGenres(ctx context.Context) ([]Genre, error) {
	var genres []Genre
	if err := s.db.WithContext(ctx).Order("name ASC").Find(&genres).Error; err != nil {
		return nil, err
	}
	return genres, nil
}

func (s *CatalogService) GetGenre(ctx context.Context, id uuid.UUID) (*Genre, error) {
	var genre Genre
	if err := s.db.WithContext(ctx).First(&genre, "id = ?", id).Error; err != nil {
		return nil, notFound(err, ErrGenreNotFound)
	}
	return &genre, nil
}

func (s *CatalogService) CreateGenre(ctx context.Context, req GenreRequest) (*Genre, error) {
	genre := Genre{Name: req.Name}
	if err := s.db.WithContext(ctx).Create(&genre).Error; err != nil {
		if store.IsConflict(err) {
			return nil, ErrGenreExists
		}
		return nil, err
	}
	return &genre, nil
}

func (s *CatalogService) UpdateGenre(ctx context.Context, id uuid.UUID, req GenreRequest) (*Genre, error) {
	genre, err := s.GetGenre(ctx, id)
	if err != nil {
		return nil, err
	}
	genre.Name = req.Name
	if err := s.db.WithContext(ctx).Save(genre).Error; err != nil {
		if store.IsConflict(err) {
			return nil, ErrGenreExists
		}
		return nil, err
	}
	return genre, nil
}

func (s *CatalogService) DeleteGenre(ctx context.Context, id uuid.UUID) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Exec("DELETE FROM book_genres WHERE genre_id = ?", id).Error; err != nil {
			return err
		}
		result := tx.Delete(&Genre{}, "id = ?", id)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return ErrGenreNotFound
		}
		return nil
	})
}

// --- authors ---

func (s *CatalogService) ListAuthors(ctx context.Context, limit, offset int) (*AuthorListResponse, error) {
	var authors []Author
	var total int64

	db := s.db.WithContext(ctx)
	if err := db.Model(&Author{}).Count(&total).Error; err != nil {
		return nil, err
	}
	if err := db.Order("name ASC").Limit(limit).Offset(offset).Find(&authors).Error; err != nil {
		return nil, err
	}

	return &AuthorListResponse{Authors: authors, Total: total, Limit: limit, Offset: offset}, nil
}

func (s *CatalogService) GetAuthor(ctx context.Context, id uuid.UUID) (*Author, error) {
	var author Author
	if err := s.db.WithContext(ctx).First(&author, "id = ?", id).Error; err != nil {
		return nil, notFound(err, ErrAuthorNotFound)
	}
	return &author, nil
}

func (s *CatalogService) CreateAuthor(ctx context.Context, req AuthorRequest) (*Author, error) {
	author := Author{Name: req.Name, Biography: req.Biography}
	if err := s.db.WithContext(ctx).Create(&author).Error; err != nil {
		return nil, err
	}
	return &author, nil
}

func (s *CatalogService) UpdateAuthor(ctx context.Context, id uuid.UUID, req AuthorRequest) (*Author, error) {
	author, err := s.GetAuthor(ctx, id)
	if err != nil {
		return nil, err
	}
	author.Name = req.Name
	author.Biography = req.Biography
	if err := s.db.WithContext(ctx).Save(author).Error; err != nil {
		return nil, err
	}
	return author, nil
}

func (s *CatalogService) DeleteAuthor(ctx context.Context, id uuid.UUID) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var books int64
		if err := tx.Model(&Book{}).Where("author_id = ?", id).Count(&books).Error; err != nil {
			return err
		}
		if books > 0 {
			return ErrAuthorHasBooks
		}
		result := tx.Delete(&Author{}, "id = ?", id)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return ErrAuthorNotFound
		}
		return nil
	})
}

// --- books ---

func (s *CatalogService) ListBooks(ctx context.Context, filter BookFilter) (*BookListResponse, error) {
	var books []Book
	var total int64

	query := s.db.WithContext(ctx).Model(&Book{})
	if q := strings.TrimSpace(filter.Query); q != "" {
		pattern := "%" + escapeLike(q) + "%"
		query = query.Where("title ILIKE ? OR synopsis ILIKE ?", pattern, pattern)
	}
	if filter.AuthorID != uuid.Nil {
		query = query.Where("author_id = ?", filter.AuthorID)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, err
	}
	if err := query.Preload("Author").Preload("Genres").
		Order("created_at DESC").
		Limit(filter.Limit).Offset(filter.Offset).
		Find(&books).Error; err != nil {
		return nil, err
	}

	return &BookListResponse{Books: books, Total: total, Limit: filter.Limit, Offset: filter.Offset}, nil
}

func (s *CatalogService) GetBook(ctx context.Context, id uuid.UUID) (*Book, error) {
	return s.getBook(s.db.WithContext(ctx), id)
}

func (s *CatalogService) CreateBook(ctx context.Context, req BookRequest) (*Book, error) {
	var id uuid.UUID
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := ensureAuthor(tx, req.AuthorID); err != nil {
			return err
		}
		genres, err := loadGenres(tx, req.GenreIDs)
		if err != nil {
			return err
		}

		book := Book{
			Title:     req.Title,
			Synopsis:  req.Synopsis,
			PageCount: req.PageCount,
			AuthorID:  req.AuthorID,
			Genres:    genres,
		}
		if err := tx.Omit("Author", "Genres.*").Create(&book).Error; err != nil {
			return err
		}
		id = book.ID
		return nil
	})
	if err != nil {
		return nil, err
	}
	return s.GetBook(ctx, id)
}

// ReplaceBook overwrites every editable field, including the genre set.
func (s *CatalogService) ReplaceBook(ctx context.Context, id uuid.UUID, req BookRequest) (*Book, error) {
	genreIDs := req.GenreIDs
	if genreIDs == nil {
		genreIDs = []uuid.UUID{}
	}
	return s.PatchBook(ctx, id, BookPatchRequest{
		Title:     &req.Title,
		Synopsis:  &req.Synopsis,
		PageCount: &req.PageCount,
		AuthorID:  &req.AuthorID,
		GenreIDs:  &genreIDs,
	})
}

func (s *CatalogService) PatchBook(ctx context.Context, id uuid.UUID, req BookPatchRequest) (*Book, error) {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		book, err := s.getBook(tx, id)
		if err != nil {
			return err
		}

		if req.Title != nil {
			book.Title = *req.Title
		}
		if req.Synopsis != nil {
			book.Synopsis = *req.Synopsis
		}
		if req.PageCount != nil {
			book.PageCount = *req.PageCount
		}
		if req.AuthorID != nil {
			if err := ensureAuthor(tx, *req.AuthorID); err != nil {
				return err
			}
			book.AuthorID = *req.AuthorID
			book.Author = nil
		}

		if err := tx.Omit(clause.Associations).Save(book).Error; err != nil {
			return err
		}

		if req.GenreIDs != nil {
			genres, err := loadGenres(tx, *req.GenreIDs)
			if err != nil {
				return err
			}
			if err := tx.Model(book).Association("Genres").Replace(genres); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return s.GetBook(ctx, id)
}

func (s *CatalogService) DeleteBook(ctx context.Context, id uuid.UUID) error {
	var coverKey string
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		book, err := s.getBook(tx, id)
		if err != nil {
			return err
		}
		coverKey = book.CoverKey
		if err := tx.Model(book).Association("Genres").Clear(); err != nil {
			return err
		}
		return tx.Delete(&Book{}, "id = ?", id).Error
	})
	if err != nil {
		return err
	}
	s.removeObject(ctx, coverKey)
	return nil
}

// UploadCover stores the image and points the book at it. The previous
// object, if any, is removed after the row is updated.
func (s *CatalogService) UploadCover(ctx context.Context, id uuid.UUID, body io.Reader, size int64, contentType string) (*Book, error) {
	if !s.storage.Enabled() {
		return nil, storage.ErrDisabled
	}
	ext, ok := coverTypes[contentType]
	if !ok || size <= 0 || size > MaxCoverBytes {
		return nil, ErrInvalidCover
	}

	book, err := s.GetBook(ctx, id)
	if err != nil {
		return nil, err
	}

	key := path.Join("books", id.String(), uuid.NewString()+ext)
	if err := s.storage.Upload(ctx, key, body, size, contentType); err != nil {
		return nil, fmt.Errorf("upload cover: %w", err)
	}

	oldKey := book.CoverKey
	book.CoverKey = key
	book.CoverURL = s.storage.PublicURL(key)
	if err := s.db.WithContext(ctx).Model(&Book{}).Where("id = ?", id).
		Updates(map[string]interface{}{"cover_key": book.CoverKey, "cover_url": book.CoverURL}).Error; err != nil {
		s.removeObject(ctx, key)
		return nil, err
	}

	s.removeObject(ctx, oldKey)
	return book, nil
}

func (s *CatalogService) removeObject(ctx context.Context, key string) {
	if key == "" || !s.storage.Enabled() {
		return
	}
	if err := s.storage.Delete(ctx, key); err != nil {
		slog.Warn("cover delete failed", "key", key, "error", err)
	}
}

func (s *CatalogService) getBook(db *gorm.DB, id uuid.UUID) (*Book, error) {
	var book Book
	if err := db.Preload("Author").Preload("Genres").First(&book, "id = ?", id).Error; err != nil {
		return nil, notFound(err, ErrBookNotFound)
	}
	return &book, nil
}

func ensureAuthor(tx *gorm.DB, id uuid.UUID) error {
	var count int64
	if err := tx.Model(&Author{}).Where("id = ?", id).Count(&count).Error; err != nil {
		return err
	}
	if count == 0 {
		return ErrAuthorNotFound
	}
	return nil
}

func loadGenres(tx *gorm.DB, ids []uuid.UUID) ([]Genre, error) {
	ids = uniqueIDs(ids)
	if len(ids) == 0 {
		return []Genre{}, nil
	}
	var genres []Genre
	if err := tx.Where("id IN ?", ids).Find(&genres).Error; err != nil {
		return nil, err
	}
	if len(genres) != len(ids) {
		return nil, ErrUnknownGenre
	}
	return genres, nil
}

func uniqueIDs(ids []uuid.UUID) []uuid.UUID {
	seen := make(map[uuid.UUID]struct{}, len(ids))
	out := make([]uuid.UUID, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}

func notFound(err, sentinel error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return sentinel
	}
	return err
}

func (s *CatalogService) CoversEnabled() bool {
	return s.storage.Enabled()
}
