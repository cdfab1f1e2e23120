package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"factory-assistant/internal/analyzer"
	"factory-assistant/internal/calc"
	"factory-assistant/internal/db"
	"factory-assistant/internal/executor"
	"factory-assistant/internal/formatter"
	"factory-assistant/internal/model"
	"factory-assistant/internal/planner"
	"factory-assistant/internal/store"
)

var ErrEmptyQuestion = errors.New("question is empty")

// StoreProvider hands out the shared document store and is told when it stops answering.
type StoreProvider interface {
	Store(ctx context.Context) (store.DocumentStore, error)
	MarkUnavailable(err error)
	Available() bool
	LastError() error
}

type Predictor interface {
	Predict(text string) model.Prediction
	Ready() bool
}

type Health struct {
	StoreAvailable  bool   `json:"store_available"`
	StoreError      string `json:"store_error,omitempty"`
	ClassifierReady bool   `json:"classifier_ready"`
}

// Assistant answers one question at a time by running the analysis pipeline end to end.
type Assistant struct {
	analyzer   *analyzer.Analyzer
	classifier Predictor
	planner    *planner.Planner
	executor   *executor.Executor
	engine     *calc.Engine
	formatter  *formatter.Formatter
	stores     StoreProvider
	log        zerolog.Logger
}

func NewAssistant(
	a *analyzer.Analyzer,
	classifier Predictor,
	p *planner.Planner,
	ex *executor.Executor,
	engine *calc.Engine,
	f *formatter.Formatter,
	stores StoreProvider,
	log zerolog.Logger,
) *Assistant {
	return &Assistant{
		analyzer:   a,
		classifier: classifier,
		planner:    p,
		executor:   ex,
		engine:     engine,
		formatter:  f,
		stores:     stores,
		log:        log,
	}
}

// Ask validates the question before answering it.
func (s *Assistant) Ask(ctx context.Context, question string) (string, error) {
	if strings.TrimSpace(question) == "" {
		return "", ErrEmptyQuestion
	}
	return s.Answer(ctx, question), nil
}

// Answer never returns an empty string. Store outages and internal failures are turned
// into fixed apology texts.
func (s *Assistant) Answer(ctx context.Context, question string) (answer string) {
	log := s.logger(ctx)
	ctx = log.WithContext(ctx)

	defer func() {
		if r := recover(); r != nil {
			log.Error().Interface("panic", r).Msg("answer pipeline panicked")
			answer = s.formatter.GenericError()
		}
	}()

	q := model.NewQuestion(question)
	analysis := s.analyzer.Analyze(q)
	prediction := s.classifier.Predict(q.Normalized)
	log.Debug().
		Interface("analysis", analysis).
		Str("intent", string(prediction.Intent)).
		Float64("confidence", prediction.Confidence).
		Msg("question analyzed")

	if analysis.IsConversational() && len(prediction.Intent.Metrics()) == 0 {
		return s.formatter.Conversational()
	}

	plan := s.planner.Plan(analysis, prediction)

	docs, err := s.stores.Store(ctx)
	if err != nil {
		log.Warn().Err(err).Msg("document store not available")
		return s.formatter.Unavailable()
	}

	exec, err := s.executor.Execute(ctx, docs, plan)
	if err != nil {
		if errors.Is(err, executor.ErrStoreUnavailable) || errors.Is(err, db.ErrUnavailable) {
			s.stores.MarkUnavailable(err)
			return s.formatter.Unavailable()
		}
		log.Error().Err(err).Msg("execute plan")
		return s.formatter.GenericError()
	}
	if exec.Absence != nil {
		return s.formatter.Absence(plan, *exec.Absence)
	}

	var result model.CalculationResult
	if plan.Comparison != nil {
		result = s.engine.Compare(plan, exec.A, exec.B)
	} else {
		result = s.engine.Calculate(plan, exec.Records)
	}
	log.Debug().Str("result", fmt.Sprintf("%T", result)).Msg("calculation finished")

	return s.formatter.Format(plan, result)
}

func (s *Assistant) Health() Health {
	h := Health{
		StoreAvailable:  s.stores.Available(),
		ClassifierReady: s.classifier.Ready(),
	}
	if err := s.stores.LastError(); err != nil && !h.StoreAvailable {
		h.StoreError = err.Error()
	}
	return h
}

func (s *Assistant) logger(ctx context.Context) *zerolog.Logger {
	if l := zerolog.Ctx(ctx); l.GetLevel() != zerolog.Disabled {
		return l
	}
	return &s.log
}
