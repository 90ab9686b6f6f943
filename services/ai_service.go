package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"golang.org/x/sync/semaphore"
	"google.golang.org/genai"

	"feedback-service-server/config"
	"feedback-service-server/metrics"
	"feedback-service-server/models"
)

const (
	defaultExplanation = "AI prediction"
	instantExplanation = "Prediction approximated from the text sentiment and given rating for a fast response."
	snippetWords       = 18
)

// ContentGenerator sends a prompt to a text model and returns its raw text
type ContentGenerator interface {
	GenerateContent(ctx context.Context, prompt string) (string, error)
}

// GeminiGenerator calls a Gemini or Gemma model through the genai SDK
type GeminiGenerator struct {
	client          *genai.Client
	model           string
	maxOutputTokens int32
}

// NewGeminiGenerator creates a generator for the configured model
func NewGeminiGenerator(ctx context.Context, cfg config.AIConfig) (*GeminiGenerator, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, errors.Wrap(err, "failed to create genai client")
	}
	return &GeminiGenerator{
		client:          client,
		model:           cfg.Model,
		maxOutputTokens: int32(cfg.MaxOutputTokens),
	}, nil
}

// GenerateContent runs one deterministic generation
func (g *GeminiGenerator) GenerateContent(ctx context.Context, prompt string) (string, error) {
	resp, err := g.client.Models.GenerateContent(ctx, g.model, genai.Text(prompt), &genai.GenerateContentConfig{
		Temperature:     genai.Ptr[float32](0),
		TopP:            genai.Ptr[float32](1),
		MaxOutputTokens: g.maxOutputTokens,
	})
	if err != nil {
		return "", err
	}
	return resp.Text(), nil
}

// AIService produces AI packs for reviews. Model calls run on a bounded pool
// and are abandoned once the timeout passes.
type AIService struct {
	generator ContentGenerator
	slots     *semaphore.Weighted
	timeout   time.Duration
}

// NewAIService creates the service. A nil generator means every pack is
// built by the instant heuristic.
func NewAIService(generator ContentGenerator, cfg config.AIConfig) *AIService {
	workers := cfg.MaxWorkers
	if workers < 1 {
		workers = 1
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	if generator == nil {
		log.Warn("⚠️ No model configured, reviews will get instant AI packs")
	}
	return &AIService{
		generator: generator,
		slots:     semaphore.NewWeighted(int64(workers)),
		timeout:   timeout,
	}
}

// ModelEnabled reports whether a model is wired in
func (ai *AIService) ModelEnabled() bool {
	return ai.generator != nil
}

// Generate always returns a complete pack. Model failures of any kind fall
// back to the instant pack.
func (ai *AIService) Generate(ctx context.Context, rating int, reviewText, username string) models.AIPack {
	if ai.generator == nil {
		metrics.AIPacksTotal.WithLabelValues(metrics.PackSourceInstant).Inc()
		return InstantPack(rating, reviewText, username)
	}

	raw, err := ai.callModel(ctx, BuildReviewPrompt(rating, reviewText, username))
	if err != nil {
		source := metrics.PackSourceFallbackError
		if errors.Is(err, ErrUpstreamTimeout) {
			source = metrics.PackSourceFallbackTimeout
		}
		log.WithError(err).Warn("Model call failed, using instant AI pack")
		metrics.AIPacksTotal.WithLabelValues(source).Inc()
		return InstantPack(rating, reviewText, username)
	}

	obj, ok := ExtractJSONObject(raw)
	if !ok {
		log.WithField("raw_length", len(raw)).Warn("Model output had no JSON object, using instant AI pack")
		metrics.AIPacksTotal.WithLabelValues(metrics.PackSourceFallbackInvalid).Inc()
		return InstantPack(rating, reviewText, username)
	}
	out := decodeModelOutput(obj)
	if !out.complete() {
		log.Warn("Model output missing required text fields, using instant AI pack")
		metrics.AIPacksTotal.WithLabelValues(metrics.PackSourceFallbackInvalid).Inc()
		return InstantPack(rating, reviewText, username)
	}

	pack := models.AIPack{
		AIResponse:            out.Response,
		AISummary:             out.Summary,
		AIRecommendedActions:  out.Actions,
		PredictionExplanation: out.Explanation,
	}
	if pack.PredictionExplanation == "" {
		pack.PredictionExplanation = defaultExplanation
	}
	if out.HasStars {
		stars := out.Stars
		pack.PredictedStars = &stars
	} else if stars, ok := ScoreSentiment(rating, reviewText); ok {
		pack.PredictedStars = &stars
	}

	metrics.AIPacksTotal.WithLabelValues(metrics.PackSourceModel).Inc()
	return pack
}

type modelResult struct {
	text string
	err  error
}

// callModel waits for a pool slot and the model answer within one timeout.
// A call that outlives the timeout keeps its slot until it returns and its
// result is dropped.
func (ai *AIService) callModel(parent context.Context, prompt string) (string, error) {
	ctx, cancel := context.WithTimeout(parent, ai.timeout)

	if err := ai.slots.Acquire(ctx, 1); err != nil {
		cancel()
		return "", errors.Wrap(ErrUpstreamTimeout, "waiting for a model worker")
	}

	started := time.Now()
	results := make(chan modelResult, 1)
	go func() {
		defer ai.slots.Release(1)
		defer cancel()
		text, err := ai.generator.GenerateContent(ctx, prompt)
		results <- modelResult{text: text, err: err}
	}()

	select {
	case res := <-results:
		metrics.AIModelLatency.Observe(time.Since(started).Seconds())
		if res.err != nil {
			if ctx.Err() != nil {
				return "", errors.Wrap(ErrUpstreamTimeout, res.err.Error())
			}
			return "", errors.Wrap(ErrUpstreamError, res.err.Error())
		}
		return strings.TrimSpace(res.text), nil
	case <-ctx.Done():
		return "", errors.Wrapf(ErrUpstreamTimeout, "no answer after %s", ai.timeout)
	}
}

// InstantPack builds a deterministic pack from the sentiment heuristic
func InstantPack(rating int, reviewText, username string) models.AIPack {
	name := strings.TrimSpace(username)
	if name == "" {
		name = "there"
	}
	snippet := reviewSnippet(reviewText)

	effective, ok := ScoreSentiment(rating, reviewText)
	if !ok {
		effective = baseRating(rating)
	}

	var pack models.AIPack
	switch {
	case effective <= 2:
		pack.AIResponse = fmt.Sprintf("Hi %s, thank you for telling us about your experience. I'm really sorry things did not go well. "+
			"We take feedback like '%s' seriously and we'll work with our team to fix these issues. "+
			"We hope you'll give us another chance so we can make your next visit much better.",
			name, orDefault(snippet, "your review"))
		pack.AIRecommendedActions = "Here is a quick action plan based on this negative experience:\n" +
			"1. Investigate the specific problems mentioned in the review and document the root causes so the team clearly understands what went wrong.\n" +
			"2. Provide targeted coaching or refresher training for the staff involved, focusing on service recovery, communication, and food quality standards.\n" +
			"3. Proactively follow up with the customer, explain the corrective steps you are taking, and offer a recovery gesture (apology, replacement, or discount) to rebuild trust."
		pack.AISummary = fmt.Sprintf("Customer gave a %d-star rating and the review feels **negative**. Key issue described: **%s**.",
			rating, orDefault(snippet, "no clear details provided"))
	case effective == 3:
		pack.AIResponse = fmt.Sprintf("Thank you %s for the honest and balanced feedback. "+
			"You mentioned '%s', and we'll use this to improve. "+
			"We appreciate you giving us a chance and hope your next visit will feel even better.",
			name, orDefault(snippet, "both positives and negatives"))
		pack.AIRecommendedActions = "Here is a balanced improvement plan for this mixed review:\n" +
			"1. Identify the main friction point mentioned (for example, speed, consistency, or communication) and create a small experiment or SOP change to address it over the next 1-2 weeks.\n" +
			"2. Preserve the strengths the customer liked by sharing those positives with the team and building them into your standard operating procedures.\n" +
			"3. Monitor reviews with similar themes and track before/after ratings so you can confirm whether the changes are actually improving the guest experience."
		pack.AISummary = fmt.Sprintf("Customer gave a %d-star rating and the review sounds **mixed/neutral**. Main points: **%s**.",
			rating, orDefault(snippet, "no clear details provided"))
	default:
		pack.AIResponse = fmt.Sprintf("Thank you %s for such a wonderful review and the %d-star rating! "+
			"We're really happy you enjoyed your visit, especially your note: '%s'. "+
			"We're grateful to have you as a customer and we're still improving our service every day to make your future visits even better.",
			name, rating, orDefault(snippet, "your kind words"))
		pack.AIRecommendedActions = "Here is how you can turn this positive feedback into long-term value:\n" +
			"1. Share this review with the full team to recognize their effort, and call out any specific individuals or shifts that contributed so they feel appreciated.\n" +
			"2. Document what went especially well (speed, flavor, friendliness, ambiance) and turn those behaviors into clear standards or checklists for every shift.\n" +
			"3. Use this review in your marketing or in-store signage (with permission), and train staff to invite similarly satisfied guests to leave their own reviews to build momentum."
		pack.AISummary = fmt.Sprintf("Customer gave a %d-star rating and the review feels **positive**. Key praise: **%s**.",
			rating, orDefault(snippet, "no extra details provided"))
	}

	stars := effective
	if !validStars(stars) {
		stars = 3
	}
	pack.PredictedStars = &stars
	pack.PredictionExplanation = instantExplanation
	return pack
}

// reviewSnippet keeps the first words of the review, marking a cut with "..."
func reviewSnippet(text string) string {
	words := strings.Fields(text)
	if len(words) <= snippetWords {
		return strings.Join(words, " ")
	}
	snippet := strings.Join(words[:snippetWords], " ")
	if !strings.HasSuffix(snippet, ".") && !strings.HasSuffix(snippet, "!") && !strings.HasSuffix(snippet, "?") {
		snippet += "..."
	}
	return snippet
}

func orDefault(value, fallback string) string {
	if value == "" {
		return fallback
	}
	return value
}
