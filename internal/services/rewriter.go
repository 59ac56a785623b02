package services

import (
	"context"
	"regexp"
	"strings"

	"github.com/joblens/joblens/internal/logger"
	log "github.com/sirupsen/logrus"
)

const (
	minRewriteLength = 50
	targetMinWords   = 250
	targetMaxWords   = 300

	// The model occasionally lands just outside the requested band; a
	// near-miss is still better than the mechanical fallback.
	acceptedMinWords = targetMinWords * 3 / 5
	acceptedMaxWords = targetMaxWords * 6 / 5
)

const rewriteInstruction = "You rewrite raw job postings into clean summaries. " +
	"Produce a single paragraph of 250 to 300 words covering the role's responsibilities, " +
	"the required technologies and skills, and the qualifications. " +
	"Leave out promotional language, benefits lists and legal boilerplate. " +
	"Respond with the paragraph only."

var (
	whitespaceRun  = regexp.MustCompile(`\s+`)
	disallowedChar = regexp.MustCompile(`[^\p{L}\p{N} .,;:!?()'"/&+#%-]`)
)

type generativeClient interface {
	GenerateText(ctx context.Context, system, prompt string) (string, error)
}

// Rewriter compresses raw job descriptions into a bounded canonical form.
// It always returns usable text: when the model output is invalid or the
// call fails, a deterministic cleanup of the original is used instead.
type Rewriter struct {
	client           generativeClient
	fallbackMaxChars int
}

func NewRewriter(client generativeClient, fallbackMaxChars int) *Rewriter {
	return &Rewriter{client: client, fallbackMaxChars: fallbackMaxChars}
}

func (r *Rewriter) Rewrite(ctx context.Context, raw string) string {

	if len([]rune(raw)) < minRewriteLength {
		return raw
	}

	rewritten, err := r.client.GenerateText(ctx, rewriteInstruction, raw)
	if err != nil {
		log.WithField(logger.ErrorTypeField, logger.ErrorTypeAiApi).
			Errorf("description rewrite failed, falling back: %v", err)
		return r.fallback(raw)
	}

	rewritten = strings.TrimSpace(rewritten)
	words := len(strings.Fields(rewritten))
	if words < acceptedMinWords || words > acceptedMaxWords {
		log.Warnf("rewritten description has %v words, outside accepted band, falling back", words)
		return r.fallback(raw)
	}

	return rewritten
}

// fallback collapses whitespace, strips characters outside the allow-list
// and hard-truncates. The result is non-empty for any non-empty input.
func (r *Rewriter) fallback(raw string) string {

	cleaned := disallowedChar.ReplaceAllString(raw, " ")
	cleaned = whitespaceRun.ReplaceAllString(cleaned, " ")
	cleaned = strings.TrimSpace(cleaned)

	if cleaned == "" {
		cleaned = strings.TrimSpace(raw)
	}

	runes := []rune(cleaned)
	if len(runes) > r.fallbackMaxChars {
		return string(runes[:r.fallbackMaxChars]) + "…"
	}
	return cleaned
}
