// Package classifier assigns a coarse topic to a question with a small bag-of-words
// feed-forward network, falling back to keyword counts when the network is unsure.
package classifier

import (
	"math"
	"regexp"
	"strings"

	"github.com/rs/zerolog"

	"factory-assistant/internal/model"
)

const (
	DefaultThreshold = 0.4
	// keywordConfidenceCap keeps keyword-derived labels below certainty.
	keywordConfidenceCap = 0.75
)

type keywordSet struct {
	intent   model.Intent
	patterns []*regexp.Regexp
}

var keywordLexicon = []keywordSet{
	{model.IntentPerformance, words("production", "efficiency", "output", "produced", "productivity", "performance", "rate")},
	{model.IntentDefects, words("defects?", "quality", "issues?", "problems?", "loose thread", "mistakes?", "errors?")},
	{model.IntentFailures, words("failures?", "machines?", "breakdowns?", "maintenance", "interventions?", "repairs?", "malfunctions?")},
	{model.IntentOrders, words("orders?", "delivery", "deliveries", "shipments?", "customers?", "clients?")},
}

var entityPattern = regexp.MustCompile(`\b(workshop|machine|order|chain)\s*#?\s*([a-z0-9\-]*\d[a-z0-9\-]*)`)

func words(terms ...string) []*regexp.Regexp {
	out := make([]*regexp.Regexp, 0, len(terms))
	for _, term := range terms {
		out = append(out, regexp.MustCompile(`\b`+term+`\b`))
	}
	return out
}

// Classifier is safe for concurrent use once constructed.
type Classifier struct {
	bundle    *Bundle
	index     map[string]int
	threshold float64
}

// New builds a classifier from a validated bundle. A nil bundle yields a classifier that
// always reports an unknown intent.
func New(bundle *Bundle, threshold float64) *Classifier {
	if threshold <= 0 {
		threshold = DefaultThreshold
		if bundle != nil && bundle.Threshold > 0 {
			threshold = bundle.Threshold
		}
	}
	c := &Classifier{bundle: bundle, threshold: threshold}
	if bundle != nil {
		c.index = make(map[string]int, len(bundle.Vocabulary))
		for i, term := range bundle.Vocabulary {
			c.index[term] = i
		}
	}
	return c
}

// Load reads the bundle at path. Any failure is logged and leaves the classifier
// without a model instead of returning an error.
func Load(path string, threshold float64, log zerolog.Logger) *Classifier {
	bundle, err := LoadBundle(path)
	if err != nil {
		log.Warn().Err(err).Str("path", path).Msg("intent model unavailable, continuing without classifier")
		return New(nil, threshold)
	}
	log.Info().
		Str("path", path).
		Int("vocabulary", len(bundle.Vocabulary)).
		Strs("labels", bundle.Labels).
		Msg("intent model loaded")
	return New(bundle, threshold)
}

func (c *Classifier) Ready() bool {
	return c.bundle != nil
}

func (c *Classifier) Predict(text string) model.Prediction {
	if c.bundle == nil {
		return model.UnknownPrediction()
	}

	probs := c.forward(c.vectorize(text))
	best := 0
	for i, p := range probs {
		if p > probs[best] {
			best = i
		}
	}

	prediction := model.Prediction{
		Intent:     model.Intent(c.bundle.Labels[best]),
		Confidence: probs[best],
		Entities:   extractEntities(text),
	}
	if prediction.Confidence >= c.threshold {
		return prediction
	}

	if intent, hits := keywordIntent(text); hits > 0 {
		prediction.Intent = intent
		prediction.Confidence = math.Min(keywordConfidenceCap, float64(hits)/float64(hits+1))
		return prediction
	}
	prediction.Intent = model.IntentUnknown
	return prediction
}

func (c *Classifier) vectorize(text string) []float64 {
	vec := make([]float64, len(c.bundle.Vocabulary))
	for _, tok := range tokenize(text) {
		if i, ok := c.index[tok]; ok {
			vec[i]++
		}
	}
	if len(c.bundle.IDF) > 0 {
		for i := range vec {
			vec[i] *= c.bundle.IDF[i]
		}
	}
	return vec
}

func (c *Classifier) forward(x []float64) []float64 {
	for _, layer := range c.bundle.Layers {
		out := make([]float64, len(layer.Weights))
		for o, row := range layer.Weights {
			sum := layer.Bias[o]
			for i, w := range row {
				sum += w * x[i]
			}
			if layer.Activation == ActivationReLU && sum < 0 {
				sum = 0
			}
			out[o] = sum
		}
		x = out
	}
	return softmax(x)
}

func softmax(logits []float64) []float64 {
	maxLogit := math.Inf(-1)
	for _, v := range logits {
		maxLogit = math.Max(maxLogit, v)
	}
	out := make([]float64, len(logits))
	var total float64
	for i, v := range logits {
		out[i] = math.Exp(v - maxLogit)
		total += out[i]
	}
	for i := range out {
		out[i] /= total
	}
	return out
}

func keywordIntent(text string) (model.Intent, int) {
	lowered := strings.ToLower(text)
	best, bestHits := model.IntentUnknown, 0
	for _, set := range keywordLexicon {
		hits := 0
		for _, p := range set.patterns {
			hits += len(p.FindAllStringIndex(lowered, -1))
		}
		if hits > bestHits {
			best, bestHits = set.intent, hits
		}
	}
	return best, bestHits
}

func extractEntities(text string) []model.Entity {
	var entities []model.Entity
	for _, m := range entityPattern.FindAllStringSubmatch(strings.ToLower(text), -1) {
		entities = append(entities, model.Entity{Type: m[1], Value: m[2]})
	}
	return entities
}
