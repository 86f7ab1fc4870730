package reviews

import (
	"context"
	"errors"
	"testing"

	"github.com/bi-tools/insighthub/pkg/models/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubNarrator struct {
	available bool
	reply     string
	err       error
	prompts   []string
}

func (s *stubNarrator) Available(ctx context.Context) bool { return s.available }

func (s *stubNarrator) Generate(ctx context.Context, prompt string) (string, error) {
	s.prompts = append(s.prompts, prompt)
	return s.reply, s.err
}

func TestQueryService_TopProducts(t *testing.T) {
	svc := NewQueryService(nil, nil)
	answer, err := svc.ProcessQuery(context.Background(), reviewDataset(), "show me the top products")
	require.NoError(t, err)

	assert.Contains(t, answer, "Top Products")
	assert.Contains(t, answer, "**B001** (Electronics): 3 reviews, Avg Rating 3.00")
	assert.Contains(t, answer, "**B002** (Home): 2 reviews")
}

func TestQueryService_AverageRatingByCategory(t *testing.T) {
	svc := NewQueryService(nil, nil)
	answer, err := svc.ProcessQuery(context.Background(), reviewDataset(), "what is the average rating by category?")
	require.NoError(t, err)

	assert.Contains(t, answer, "Average Rating by Category")
	assert.Contains(t, answer, "Home: 4.00/5 (2 reviews)")
	assert.Contains(t, answer, "Electronics: 2.75/5 (4 reviews)")
}

func TestQueryService_Statistics(t *testing.T) {
	svc := NewQueryService(nil, nil)
	answer, err := svc.ProcessQuery(context.Background(), reviewDataset(), "give me the statistics")
	require.NoError(t, err)

	assert.Contains(t, answer, "Total reviews: 6")
	assert.Contains(t, answer, "Unique products: 3")
}

func TestQueryService_Sentiment(t *testing.T) {
	svc := NewQueryService(nil, nil)
	answer, err := svc.ProcessQuery(context.Background(), reviewDataset(), "what is the sentiment?")
	require.NoError(t, err)

	assert.Contains(t, answer, "Sentiment Distribution")
	assert.Contains(t, answer, "Positive: 2 reviews (33.3%)")
}

func TestQueryService_Topics(t *testing.T) {
	svc := NewQueryService(nil, NewAnalyzer())
	answer, err := svc.ProcessQuery(context.Background(), reviewDataset(), "what are the main topics?")
	require.NoError(t, err)

	assert.Contains(t, answer, "Common Topics")
}

func TestQueryService_Overview(t *testing.T) {
	svc := NewQueryService(nil, NewAnalyzer())
	answer, err := svc.ProcessQuery(context.Background(), reviewDataset(), "give me an overview")
	require.NoError(t, err)

	assert.Contains(t, answer, "## Review Data Analysis")
	assert.Contains(t, answer, "Total number of reviews: 6")
}

func TestQueryService_UnknownWithoutNarrator(t *testing.T) {
	svc := NewQueryService(nil, nil)
	answer, err := svc.ProcessQuery(context.Background(), reviewDataset(), "what color is the sky?")
	require.NoError(t, err)

	assert.Equal(t, unknownQueryReply, answer)
}

func TestQueryService_UnknownRoutedToNarrator(t *testing.T) {
	narrator := &stubNarrator{available: true, reply: "The sky is blue."}
	svc := NewQueryService(narrator, nil)

	answer, err := svc.ProcessQuery(context.Background(), reviewDataset(), "what color is the sky?")
	require.NoError(t, err)

	assert.Equal(t, "The sky is blue.", answer)
	require.Len(t, narrator.prompts, 1)
	assert.Contains(t, narrator.prompts[0], "what color is the sky?")
}

func TestQueryService_NarratorFailureFallsBack(t *testing.T) {
	narrator := &stubNarrator{available: true, err: errors.New("connection refused")}
	svc := NewQueryService(narrator, nil)

	answer, err := svc.ProcessQuery(context.Background(), reviewDataset(), "something unroutable")
	require.NoError(t, err)
	assert.Equal(t, unknownQueryReply, answer)
}

func TestQueryService_NoData(t *testing.T) {
	svc := NewQueryService(nil, nil)
	_, err := svc.ProcessQuery(context.Background(), &domain.Dataset{}, "overview")
	assert.ErrorIs(t, err, domain.ErrNoData)
}
