package reviews

import (
	"math"
	"strings"
	"testing"

	"github.com/ahmetcoskunkizilkaya/booker-backend/internal/models"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func score(v float64) *float64 { return &v }

func TestReviewRequest_ValidateScore(t *testing.T) {
	for _, s := range []float64{0, 0.5, 1, 3.5, 5} {
		assert.Nil(t, (&ReviewRequest{Score: score(s), Text: "ok"}).Validate(), "%v", s)
	}
	for _, s := range []float64{-0.5, 0.3, 4.75, 5.5, math.NaN(), math.Inf(1)} {
		assert.Contains(t, (&ReviewRequest{Score: score(s), Text: "ok"}).Validate(), "score", "%v", s)
	}

	errs := (&ReviewRequest{Score: score(2.25), Text: "ok"}).Validate()
	assert.Equal(t, "Score must be in steps of 0.5", errs["score"])
	errs = (&ReviewRequest{Text: "ok"}).Validate()
	assert.Equal(t, "Score is required", errs["score"])
}

func TestReviewRequest_Validate(t *testing.T) {
	req := ReviewRequest{Score: score(4.5), Headline: "  Great  ", Text: " Loved it "}
	assert.Nil(t, req.Validate())
	assert.Equal(t, "Great", req.Headline)
	assert.Equal(t, "Loved it", req.Text)

	errs := (&ReviewRequest{Text: "   "}).Validate()
	assert.Contains(t, errs, "score")
	assert.Contains(t, errs, "text")

	errs = (&ReviewRequest{
		Score:    score(6),
		Headline: strings.Repeat("h", 51),
		Text:     strings.Repeat("t", 2049),
	}).Validate()
	assert.Contains(t, errs, "score")
	assert.Contains(t, errs, "headline")
	assert.Contains(t, errs, "text")
}

func TestNewReviewResponse_ExposesReviewerOnly(t *testing.T) {
	user := &models.User{ID: uuid.New(), Name: "Ana", Username: "ana", Email: "ana@example.com", Password: "digest"}
	resp := NewReviewResponse(Review{ID: uuid.New(), UserID: user.ID, User: user})
	if assert.NotNil(t, resp.Reviewer) {
		assert.Equal(t, "ana", resp.Reviewer.Username)
	}

	assert.Nil(t, NewReviewResponse(Review{}).Reviewer)
}
