package inference

import (
	"context"
	"image"
	"time"

	"github.com/nvr-ai/wayang/metrics"
	"github.com/nvr-ai/wayang/models"
	"github.com/nvr-ai/wayang/models/model"
	"github.com/nvr-ai/wayang/models/model/preprocess"
	"github.com/nvr-ai/wayang/models/postprocess"
	"github.com/pkg/errors"
)

// TopK is the number of ranked scores returned with every prediction.
const TopK = 5

// Predictor defines the unified classification contract.
type Predictor interface {
	Predict(ctx context.Context, img image.Image, name model.Name) (*Prediction, error)
}

// HandleSource resolves model identifiers to loaded handles. *models.Registry implements it.
type HandleSource interface {
	Get(name model.Name) (model.Handle, error)
}

// Classifier dispatches an image to one of the registered models and formats the result.
type Classifier struct {
	source        HandleSource
	metrics       *metrics.Metrics
	preprocessors map[model.Name]*preprocess.Preprocessor
}

// NewClassifier creates a classifier over the given handle source.
//
// Arguments:
//   - source: Where loaded handles come from, usually a *models.Registry.
//   - m: Metrics to record into. May be nil.
//
// Returns:
//   - *Classifier: The classifier.
func NewClassifier(source HandleSource, m *metrics.Metrics) *Classifier {
	pre := make(map[model.Name]*preprocess.Preprocessor)
	for _, v := range model.Variants() {
		pre[v.Name] = preprocess.NewPreprocessor(v.Pipeline)
	}
	return &Classifier{source: source, metrics: m, preprocessors: pre}
}

// Predict classifies img with the model registered under name.
//
// Arguments:
//   - ctx: Checked before any work starts. Running inference is not interrupted.
//   - img: The decoded image in any color model.
//   - name: The model identifier.
//
// Returns:
//   - *Prediction: The label, its confidence and the ranked scores.
//   - error: *model.UnknownModelError, *model.ModelLoadError or *model.PredictionError.
func (c *Classifier) Predict(ctx context.Context, img image.Image, name model.Name) (*Prediction, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	start := time.Now()

	p, err := c.predict(img, name)
	result := outcome(err)
	label := name.String()
	if result == metrics.OutcomeUnknown {
		// Caller-supplied identifiers must not grow label cardinality.
		label = "unknown"
	}
	c.metrics.ObservePrediction(label, result, time.Since(start))
	if err != nil {
		return nil, err
	}
	p.Duration = time.Since(start)
	return p, nil
}

func (c *Classifier) predict(img image.Image, name model.Name) (*Prediction, error) {
	variant, err := model.Lookup(name)
	if err != nil {
		return nil, err
	}

	handle, err := c.source.Get(name)
	if err != nil {
		return nil, err
	}

	input, err := c.preprocessors[name].Preprocess(img)
	if err != nil {
		return nil, &model.PredictionError{Name: name, Err: err}
	}

	raw, err := run(handle, input.Data, input.Shape)
	if err != nil {
		return nil, &model.PredictionError{Name: name, Err: err}
	}

	probs, err := postprocess.Normalize(raw, variant.Activation, models.Labels.Len())
	if err != nil {
		return nil, &model.PredictionError{Name: name, Err: err}
	}

	best := postprocess.Argmax(probs)
	class, err := models.Labels.Class(best.Class)
	if err != nil {
		return nil, &model.PredictionError{Name: name, Err: err}
	}

	top := postprocess.TopK(probs, TopK)
	scores := make([]ClassScore, 0, len(top))
	for _, r := range top {
		scores = append(scores, ClassScore{
			Label:      models.Labels.Classes[r.Class].Name,
			Confidence: postprocess.Clamp(r.Score),
		})
	}

	return &Prediction{
		Model:       variant.Name,
		DisplayName: variant.DisplayName,
		Label:       class.Name,
		Confidence:  postprocess.Clamp(best.Score),
		Description: class.Description,
		Top:         scores,
	}, nil
}

// run invokes the handle, turning a panic inside the backend into an error.
func run(handle model.Handle, input []float32, shape []int64) (out []float32, err error) {
	defer func() {
		if r := recover(); r != nil {
			out, err = nil, errors.Errorf("panic during inference: %v", r)
		}
	}()
	return handle.Run(input, shape)
}

func outcome(err error) string {
	if err == nil {
		return metrics.OutcomeOK
	}
	var unknown *model.UnknownModelError
	if errors.As(err, &unknown) {
		return metrics.OutcomeUnknown
	}
	var load *model.ModelLoadError
	if errors.As(err, &load) {
		return metrics.OutcomeLoad
	}
	return metrics.OutcomeFailed
}
