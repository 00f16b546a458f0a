package services

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/refshelf/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/refshelf/internal/core/domain"
)

func newTestClassifier(t *testing.T, vision *mockVision) (*Classifier, *CarouselCache) {
	t.Helper()
	cache, err := NewCarouselCache(context.Background(), memory.NewSideStore())
	require.NoError(t, err)
	settings := domain.ClassifySettings{MaxAttempts: 2, MaxTags: 5}
	return NewClassifier(vision, domain.DefaultVocabulary(), domain.DefaultHierarchy(), settings, cache), cache
}

func TestClassifier_ClassifyText(t *testing.T) {
	tests := []struct {
		name     string
		response string
		want     []domain.Tag
	}{
		{"separator", "TAGS: essay, book", []domain.Tag{"essay", "book"}},
		{"lowercase separator", "Sure! tags: Chair", []domain.Tag{"chair", "furniture"}},
		{"bare list", "interview, magazine", []domain.Tag{"interview", "magazine"}},
		{"unknown tokens dropped", "TAGS: essay, spaceship", []domain.Tag{"essay"}},
		{"none", "TAGS: NONE", []domain.Tag{domain.Uncategorized}},
		{"empty", "", []domain.Tag{domain.Uncategorized}},
		{"capped", "TAGS: book, essay, review, critique, column, editorial", []domain.Tag{"book", "essay", "review", "critique", "column"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, _ := newTestClassifier(t, &mockVision{responses: []string{tt.response}})
			tags, err := c.ClassifyText(context.Background(), "some long enough text about design")
			require.NoError(t, err)
			assert.Equal(t, tt.want, tags)
		})
	}
}

func TestClassifier_ClassifyText_PromptRestrictsVocabulary(t *testing.T) {
	vision := &mockVision{responses: []string{"TAGS: essay"}}
	c, _ := newTestClassifier(t, vision)

	_, err := c.ClassifyText(context.Background(), "a text")
	require.NoError(t, err)

	require.Len(t, vision.calls, 1)
	prompt := vision.calls[0].Prompt
	assert.Contains(t, prompt, "1-5")
	assert.Contains(t, prompt, "floor_plan")
	assert.Contains(t, prompt, "TAGS:")
	assert.Contains(t, prompt, "a text")
	assert.Empty(t, vision.calls[0].Images)
}

func TestClassifier_CustomPromptOpenings(t *testing.T) {
	vision := &mockVision{responses: []string{"TAGS: essay", "A chair. TAGS: chair"}}
	settings := domain.ClassifySettings{
		MaxAttempts: 1,
		MaxTags:     3,
		TextPrompt:  "Read this caption from an architecture archive.",
		ImagePrompt: "  Describe the object in one sentence.  ",
	}
	c := NewClassifier(vision, nil, nil, settings, nil)

	_, err := c.ClassifyText(context.Background(), "caption")
	require.NoError(t, err)
	_, _, err = c.ClassifyImage(context.Background(), "b64", "", "")
	require.NoError(t, err)

	require.Len(t, vision.calls, 2)
	assert.True(t, strings.HasPrefix(vision.calls[0].Prompt, "Read this caption from an architecture archive. Map it to 1-3"))
	assert.True(t, strings.HasPrefix(vision.calls[1].Prompt, "Describe the object in one sentence."))
	assert.Contains(t, vision.calls[1].Prompt, "TAGS:")
}

func TestClassifier_ClassifyImage(t *testing.T) {
	vision := &mockVision{responses: []string{"A plan of a small house.\nTags: floor_plan, residential"}}
	c, _ := newTestClassifier(t, vision)

	desc, tags, err := c.ClassifyImage(context.Background(), "b64", "LIVING ROOM", "my caption")
	require.NoError(t, err)

	assert.Equal(t, "A plan of a small house.", desc)
	assert.Equal(t, []domain.Tag{"floor_plan", "residential", "drawing", "architecture"}, tags)

	require.Len(t, vision.calls, 1)
	assert.Equal(t, []string{"b64"}, vision.calls[0].Images)
	assert.Contains(t, vision.calls[0].Prompt, "LIVING ROOM")
	assert.Contains(t, vision.calls[0].Prompt, "my caption")
}

func TestClassifier_ClassifyImage_NoSeparatorKeepsDescription(t *testing.T) {
	c, _ := newTestClassifier(t, &mockVision{responses: []string{"  Just a photo of a dog.  "}})

	desc, tags, err := c.ClassifyImage(context.Background(), "b64", "", "")
	require.NoError(t, err)

	assert.Equal(t, "Just a photo of a dog.", desc)
	assert.Equal(t, []domain.Tag{domain.Uncategorized}, tags)
}

func TestClassifier_RetriesThenFallsBack(t *testing.T) {
	vision := &mockVision{errs: []error{domain.ErrClassifierUnavailable, domain.ErrClassifierUnavailable}}
	c, _ := newTestClassifier(t, vision)

	desc, tags, err := c.ClassifyImage(context.Background(), "b64", "", "")
	require.NoError(t, err)

	assert.Equal(t, "", desc)
	assert.Equal(t, []domain.Tag{domain.Uncategorized}, tags)
	assert.Equal(t, 2, vision.callCount())
}

func TestClassifier_RetrySucceeds(t *testing.T) {
	vision := &mockVision{
		errs:      []error{domain.ErrClassifierUnavailable},
		responses: []string{"", "TAGS: logo"},
	}
	c, _ := newTestClassifier(t, vision)

	tags, err := c.ClassifyText(context.Background(), "brand identity")
	require.NoError(t, err)

	assert.Equal(t, []domain.Tag{"logo", "branding", "visual_design"}, tags)
	assert.Equal(t, 2, vision.callCount())
}

func TestClassifier_NilModel(t *testing.T) {
	c := NewClassifier(nil, nil, nil, domain.ClassifySettings{}, nil)

	textTags, err := c.ClassifyText(context.Background(), "text")
	require.NoError(t, err)
	assert.Equal(t, []domain.Tag{domain.Uncategorized}, textTags)

	desc, tags, err := c.ClassifyImage(context.Background(), "b64", "", "")
	require.NoError(t, err)
	assert.Empty(t, desc)
	assert.Equal(t, []domain.Tag{domain.Uncategorized}, tags)
}

func TestClassifier_CancelledContextIsAnError(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	t.Run("text", func(t *testing.T) {
		c, _ := newTestClassifier(t, &mockVision{errs: []error{context.Canceled}})
		tags, err := c.ClassifyText(ctx, "some caption")
		assert.ErrorIs(t, err, context.Canceled)
		assert.Nil(t, tags)
	})

	t.Run("image", func(t *testing.T) {
		c, _ := newTestClassifier(t, &mockVision{errs: []error{context.Canceled}})
		desc, tags, err := c.ClassifyImage(ctx, "b64", "", "")
		assert.ErrorIs(t, err, context.Canceled)
		assert.Empty(t, desc)
		assert.Nil(t, tags)
	})

	t.Run("slide", func(t *testing.T) {
		vision := &mockVision{errs: []error{context.Canceled}}
		c, cache := newTestClassifier(t, vision)
		ref := domain.ParsePostRef("ig_P4_20240101_0.jpg")
		_, tags, err := c.ClassifySlide(ctx, ref, func() (string, error) { return "b64", nil }, "", "")
		assert.ErrorIs(t, err, context.Canceled)
		assert.Nil(t, tags)
		assert.Equal(t, 1, vision.callCount())
		_, ok := cache.Lookup(ref)
		assert.False(t, ok)
	})
}

func TestClassifier_ClassifySlide_CarouselInheritance(t *testing.T) {
	vision := &mockVision{responses: []string{"A lounge chair. TAGS: chair"}}
	c, _ := newTestClassifier(t, vision)
	ctx := context.Background()
	encode := func() (string, error) { return "b64", nil }

	_, first, err := c.ClassifySlide(ctx, domain.ParsePostRef("ig_P1_20240101_0.jpg"), encode, "", "")
	require.NoError(t, err)

	desc1, second, err := c.ClassifySlide(ctx, domain.ParsePostRef("ig_P1_20240101_1.jpg"), encode, "", "")
	require.NoError(t, err)
	_, third, err := c.ClassifySlide(ctx, domain.ParsePostRef("ig_P1_20240101_2.jpg"), encode, "", "")
	require.NoError(t, err)

	assert.Equal(t, 1, vision.callCount())
	assert.Equal(t, []domain.Tag{"chair", "furniture"}, first)
	assert.Equal(t, first, second)
	assert.Equal(t, first, third)
	assert.Contains(t, desc1, "Linked slide 1 of post P1.")
	assert.Contains(t, desc1, "A lounge chair.")
}

func TestClassifier_ClassifySlide_DegenerateCacheReclassifies(t *testing.T) {
	vision := &mockVision{responses: []string{"blurry", "A sofa. TAGS: sofa"}}
	c, cache := newTestClassifier(t, vision)
	ctx := context.Background()
	encode := func() (string, error) { return "b64", nil }

	_, tags0, err := c.ClassifySlide(ctx, domain.ParsePostRef("ig_P2_20240101_0.jpg"), encode, "", "")
	require.NoError(t, err)
	assert.Equal(t, []domain.Tag{domain.Uncategorized}, tags0)
	_, cached := cache.Lookup(domain.ParsePostRef("ig_P2_20240101_0.jpg"))
	assert.False(t, cached, "sentinel results are not cached")

	_, tags1, err := c.ClassifySlide(ctx, domain.ParsePostRef("ig_P2_20240101_1.jpg"), encode, "", "")
	require.NoError(t, err)
	assert.Equal(t, []domain.Tag{"sofa", "furniture"}, tags1)
	assert.Equal(t, 2, vision.callCount())

	pc, ok := cache.Lookup(domain.ParsePostRef("ig_P2_20240101_5.jpg"))
	require.True(t, ok)
	assert.Equal(t, []domain.Tag{"sofa", "furniture"}, pc.Tags)
}

func TestClassifier_ClassifySlide_FirstSlideAlwaysClassified(t *testing.T) {
	vision := &mockVision{responses: []string{"TAGS: chair", "TAGS: lighting"}}
	c, _ := newTestClassifier(t, vision)
	ctx := context.Background()
	encode := func() (string, error) { return "b64", nil }

	_, _, err := c.ClassifySlide(ctx, domain.ParsePostRef("ig_P3_20240101_0.jpg"), encode, "", "")
	require.NoError(t, err)
	_, tags, err := c.ClassifySlide(ctx, domain.ParsePostRef("ig_P3_20240101.jpg"), encode, "", "")
	require.NoError(t, err)

	assert.Equal(t, 2, vision.callCount(), "files without a slide index are not followers")
	assert.Equal(t, []domain.Tag{"lighting", "furniture"}, tags)
}

func TestClassifier_ClassifySlide_EncodeError(t *testing.T) {
	vision := &mockVision{}
	c, _ := newTestClassifier(t, vision)

	_, tags, err := c.ClassifySlide(context.Background(), domain.PostRef{},
		func() (string, error) { return "", errors.New("decode") }, "", "")

	require.Error(t, err)
	assert.Equal(t, []domain.Tag{domain.Uncategorized}, tags)
	assert.Equal(t, 0, vision.callCount())
}

func TestIndexFold(t *testing.T) {
	assert.Equal(t, 3, indexFold("abcTaGs: x", "TAGS:"))
	assert.Equal(t, -1, indexFold("no separator", "TAGS:"))
	assert.Equal(t, 7, indexFold("평면 tags:", "TAGS:"))
}
