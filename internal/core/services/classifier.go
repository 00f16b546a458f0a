package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/custodia-labs/refshelf/internal/core/domain"
	"github.com/custodia-labs/refshelf/internal/core/ports/driven"
	"github.com/custodia-labs/refshelf/internal/logger"
)

// tagSeparator precedes the tag list in model responses. Matched case-insensitively.
const tagSeparator = "TAGS:"

// maxPromptText caps the caption/body text injected into a prompt.
const maxPromptText = 2000

// Classifier turns text and images into vocabulary tags via the external
// classification service. Results are always hierarchy-expanded and never empty.
type Classifier struct {
	model     driven.VisionModel
	vocab     *domain.Vocabulary
	hierarchy domain.HierarchyMap
	maxTags   int
	textIntro string
	imgIntro  string
	retry     RetryPolicy
	cache     *CarouselCache
}

// NewClassifier creates a classifier. model may be nil, in which case every
// call yields the sentinel tag. cache may be nil to disable carousel reuse.
func NewClassifier(
	model driven.VisionModel,
	vocab *domain.Vocabulary,
	hierarchy domain.HierarchyMap,
	settings domain.ClassifySettings,
	cache *CarouselCache,
) *Classifier {
	if vocab == nil {
		vocab = domain.DefaultVocabulary()
	}
	if hierarchy == nil {
		hierarchy = domain.DefaultHierarchy()
	}
	maxTags := settings.MaxTags
	if maxTags < 1 {
		maxTags = domain.DefaultMaxTags
	}
	textIntro := strings.TrimSpace(settings.TextPrompt)
	if textIntro == "" {
		textIntro = domain.DefaultTextPrompt
	}
	imgIntro := strings.TrimSpace(settings.ImagePrompt)
	if imgIntro == "" {
		imgIntro = domain.DefaultImagePrompt
	}
	return &Classifier{
		model:     model,
		vocab:     vocab,
		hierarchy: hierarchy,
		maxTags:   maxTags,
		textIntro: textIntro,
		imgIntro:  imgIntro,
		retry: RetryPolicy{
			MaxAttempts: settings.MaxAttempts,
			Delay:       settings.RetryDelay,
		},
		cache: cache,
	}
}

// ClassifyText maps text onto 1..maxTags vocabulary labels. Service
// failures degrade to the sentinel tag; only cancellation of ctx is
// returned as an error.
func (c *Classifier) ClassifyText(ctx context.Context, text string) ([]domain.Tag, error) {
	if c.model == nil || strings.TrimSpace(text) == "" {
		return []domain.Tag{domain.Uncategorized}, nil
	}

	resp, err := c.generate(ctx, driven.GenerateRequest{Prompt: c.textPrompt(text)})
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, fmt.Errorf("classify text: %w", ctxErr)
		}
		logger.Warn("classify text: %v", err)
		return []domain.Tag{domain.Uncategorized}, nil
	}

	_, list := splitResponse(resp)
	return c.finalise(c.vocab.ParseList(list, c.maxTags)), nil
}

// ClassifyImage describes an image and tags it, grounding the model with
// the OCR text and the related post caption. Errors follow ClassifyText.
func (c *Classifier) ClassifyImage(ctx context.Context, image, ocrText, relatedText string) (string, []domain.Tag, error) {
	if c.model == nil || image == "" {
		return "", []domain.Tag{domain.Uncategorized}, nil
	}

	resp, err := c.generate(ctx, driven.GenerateRequest{
		Prompt: c.imagePrompt(ocrText, relatedText),
		Images: []string{image},
	})
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return "", nil, fmt.Errorf("classify image: %w", ctxErr)
		}
		logger.Warn("classify image: %v", err)
		return "", []domain.Tag{domain.Uncategorized}, nil
	}

	idx := indexFold(resp, tagSeparator)
	if idx < 0 {
		// The model ignored the format; keep its prose as the description.
		return strings.TrimSpace(resp), []domain.Tag{domain.Uncategorized}, nil
	}
	description := strings.TrimSpace(resp[:idx])
	list := resp[idx+len(tagSeparator):]
	return description, c.finalise(c.vocab.ParseList(list, c.maxTags)), nil
}

// ClassifySlide classifies one image of a post group. A follower slide whose
// post already has cached tags reuses them without calling the model; encode
// is only invoked when the model is called. A fresh non-degenerate result is
// cached when the post has no usable entry yet. Encode and cache failures
// come back alongside a usable result; cancellation comes back with no tags.
func (c *Classifier) ClassifySlide(
	ctx context.Context,
	ref domain.PostRef,
	encode func() (string, error),
	ocrText, relatedText string,
) (string, []domain.Tag, error) {
	var cached domain.PostContext
	var hasCached bool
	if c.cache != nil {
		cached, hasCached = c.cache.Lookup(ref)
	}

	if ref.IsFollowerSlide() && hasCached && cached.HasTags() {
		logger.Debug("slide %d of post %s reuses cached tags %v", ref.Slide, ref.PostID, cached.Tags)
		description := strings.TrimSpace(linkedSlideDescription(ref) + "\n" + cached.Description)
		return description, append([]domain.Tag(nil), cached.Tags...), nil
	}

	image, err := encode()
	if err != nil {
		return "", []domain.Tag{domain.Uncategorized}, fmt.Errorf("encode image: %w", err)
	}

	description, tags, err := c.ClassifyImage(ctx, image, ocrText, relatedText)
	if err != nil {
		return "", nil, err
	}

	if c.cache != nil && ref.Valid() && !domain.IsDegenerate(tags) && !(hasCached && cached.HasTags()) {
		if err := c.cache.Put(ctx, ref, tags, description); err != nil {
			return description, tags, err
		}
	}
	return description, tags, nil
}

func (c *Classifier) generate(ctx context.Context, req driven.GenerateRequest) (string, error) {
	var resp string
	err := c.retry.Do(ctx, func(ctx context.Context) error {
		out, err := c.model.Generate(ctx, req)
		if err != nil {
			logger.Debug("classification attempt failed: %v", err)
			return err
		}
		resp = out
		return nil
	})
	return resp, err
}

// finalise applies hierarchy expansion and the sentinel fallback.
func (c *Classifier) finalise(tags []domain.Tag) []domain.Tag {
	if len(tags) == 0 {
		return []domain.Tag{domain.Uncategorized}
	}
	expanded := c.hierarchy.Expand(tags)
	out := expanded[:0]
	for _, t := range expanded {
		if c.vocab.Contains(t) && t != domain.Uncategorized {
			out = append(out, t)
		}
	}
	return domain.WithFallback(out)
}

func (c *Classifier) labelList() string {
	labels := c.vocab.Labels()
	parts := make([]string, len(labels))
	for i, l := range labels {
		parts[i] = string(l)
	}
	return strings.Join(parts, ", ")
}

func (c *Classifier) textPrompt(text string) string {
	var b strings.Builder
	b.WriteString(c.textIntro)
	fmt.Fprintf(&b, " Map it to 1-%d of the following strict categories: [%s]. ", c.maxTags, c.labelList())
	fmt.Fprintf(&b, "Respond with exactly '%s' followed by the comma-separated categories and nothing else. ", tagSeparator)
	b.WriteString("If it does not fit any category, respond with 'TAGS: NONE'.\n\nText: ")
	b.WriteString(truncateRunes(text, maxPromptText))
	return b.String()
}

func (c *Classifier) imagePrompt(ocrText, relatedText string) string {
	var b strings.Builder
	b.WriteString(c.imgIntro)
	if t := strings.TrimSpace(ocrText); t != "" {
		b.WriteString("\n\nText recognised inside the image (may contain OCR noise):\n")
		b.WriteString(truncateRunes(t, maxPromptText))
	}
	if t := strings.TrimSpace(relatedText); t != "" {
		b.WriteString("\n\nCaption of the post this image belongs to:\n")
		b.WriteString(truncateRunes(t, maxPromptText))
	}
	if strings.TrimSpace(ocrText) != "" || strings.TrimSpace(relatedText) != "" {
		b.WriteString("\n\nUse the visual content together with this text to decide the categories.")
	}
	fmt.Fprintf(&b, "\n\nAt the very end of your response, write exactly '%s' followed by 1 to %d comma separated "+
		"keywords chosen ONLY from this strict list: [%s]. Do not make up any new tags.",
		tagSeparator, c.maxTags, c.labelList())
	return b.String()
}

// splitResponse separates prose from the tag list. Without a separator the
// whole response is treated as the list.
func splitResponse(resp string) (prose, list string) {
	idx := indexFold(resp, tagSeparator)
	if idx < 0 {
		return "", resp
	}
	return strings.TrimSpace(resp[:idx]), resp[idx+len(tagSeparator):]
}

// indexFold is strings.Index ignoring case.
func indexFold(s, substr string) int {
	n := len(substr)
	for i := 0; i+n <= len(s); i++ {
		if strings.EqualFold(s[i:i+n], substr) {
			return i
		}
	}
	return -1
}

func truncateRunes(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
