package reviews

import (
	"context"
	"errors"

	"github.com/ahmetcoskunkizilkaya/booker-backend/internal/moderation"
	"github.com/ahmetcoskunkizilkaya/booker-backend/internal/modules/catalog"
	"github.com/ahmetcoskunkizilkaya/booker-backend/internal/store"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

var (
	ErrReviewNotFound  = errors.New("review not found")
	ErrBookNotFound    = errors.New("book not found")
	ErrAlreadyReviewed = errors.New("you have already reviewed this book")
	ErrNotOwner        = errors.New("you do not own this review")
)

type ReviewService struct {
	db     *gorm.DB
	filter *moderation.Filter
}

// NewReviewService checks review text against filter; nil disables moderation.
func NewReviewService(db *gorm.DB, filter *moderation.Filter) *ReviewService {
	return &ReviewService{db: db, filter: filter}
}

// List returns every review, newest first.
func (s *ReviewService) List(ctx context.Context, limit, offset int) (*ReviewListResponse, error) {
	return s.list(s.db.WithContext(ctx).Model(&Review{}), limit, offset)
}

func (s *ReviewService) ListByBook(ctx context.Context, bookID uuid.UUID, limit, offset int) (*ReviewListResponse, error) {
	db := s.db.WithContext(ctx)
	if err := ensureBook(db, bookID); err != nil {
		return nil, err
	}
	return s.list(db.Model(&Review{}).Where("book_id = ?", bookID), limit, offset)
}

func (s *ReviewService) Get(ctx context.Context, id uuid.UUID) (*Review, error) {
	var review Review
	err := s.db.WithContext(ctx).Preload("User").First(&review, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrReviewNotFound
	}
	if err != nil {
		return nil, err
	}
	return &review, nil
}

func (s *ReviewService) Create(ctx context.Context, userID, bookID uuid.UUID, req ReviewRequest) (*Review, error) {
	if err := s.filter.Check(req.Headline, req.Text); err != nil {
		return nil, err
	}

	review := Review{
		BookID:   bookID,
		UserID:   userID,
		Score:    *req.Score,
		Headline: req.Headline,
		Text:     req.Text,
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := ensureBook(tx, bookID); err != nil {
			return err
		}
		if err := tx.Omit("User", "Book").Create(&review).Error; err != nil {
			if store.IsConflict(err) {
				return ErrAlreadyReviewed
			}
			return err
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return s.Get(ctx, review.ID)
}

// Update overwrites score, headline and text. Callers other than the
// author must pass asAdmin.
func (s *ReviewService) Update(ctx context.Context, id, userID uuid.UUID, asAdmin bool, req ReviewRequest) (*Review, error) {
	if err := s.filter.Check(req.Headline, req.Text); err != nil {
		return nil, err
	}
	review, err := s.owned(ctx, id, userID, asAdmin)
	if err != nil {
		return nil, err
	}

	review.Score = *req.Score
	review.Headline = req.Headline
	review.Text = req.Text
	if err := s.db.WithContext(ctx).Model(&Review{}).Where("id = ?", id).
		Updates(map[string]interface{}{
			"score":    review.Score,
			"headline": review.Headline,
			"text":     review.Text,
		}).Error; err != nil {
		return nil, err
	}
	return s.Get(ctx, id)
}

func (s *ReviewService) Delete(ctx context.Context, id, userID uuid.UUID, asAdmin bool) error {
	if _, err := s.owned(ctx, id, userID, asAdmin); err != nil {
		return err
	}
	return s.db.WithContext(ctx).Delete(&Review{}, "id = ?", id).Error
}

// Like increments the like counter in place.
func (s *ReviewService) Like(ctx context.Context, id uuid.UUID) (*Review, error) {
	result := s.db.WithContext(ctx).Model(&Review{}).Where("id = ?", id).
		UpdateColumn("like_count", gorm.Expr("like_count + ?", 1))
	if result.Error != nil {
		return nil, result.Error
	}
	if result.RowsAffected == 0 {
		return nil, ErrReviewNotFound
	}
	return s.Get(ctx, id)
}

func (s *ReviewService) owned(ctx context.Context, id, userID uuid.UUID, asAdmin bool) (*Review, error) {
	review, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !asAdmin && review.UserID != userID {
		return nil, ErrNotOwner
	}
	return review, nil
}

func (s *ReviewService) list(query *gorm.DB, limit, offset int) (*ReviewListResponse, error) {
	var reviews []Review
	var total int64

	if err := query.Count(&total).Error; err != nil {
		return nil, err
	}
	if err := query.Preload("User").Order("created_at DESC").
		Limit(limit).Offset(offset).Find(&reviews).Error; err != nil {
		return nil, err
	}

	out := make([]ReviewResponse, 0, len(reviews))
	for _, r := range reviews {
		out = append(out, NewReviewResponse(r))
	}
	return &ReviewListResponse{Reviews: out, Total: total, Limit: limit, Offset: offset}, nil
}

func ensureBook(db *gorm.DB, id uuid.UUID) error {
	var count int64
	if err := db.Model(&catalog.Book{}).Where("id = ?", id).Count(&count).Error; err != nil {
		return err
	}
	if count == 0 {
		return ErrBookNotFound
	}
	return nil
}
