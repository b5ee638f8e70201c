// Package controller - Live-frame sessions that route frames to the selected classifier.
package controller

import (
	"context"
	"fmt"
	"image"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/nvr-ai/wayang/images"
	"github.com/nvr-ai/wayang/inference"
	"github.com/nvr-ai/wayang/logger"
	"github.com/nvr-ai/wayang/metrics"
	"github.com/nvr-ai/wayang/models/model"
	"github.com/pkg/errors"
)

// ErrorLabel replaces the label of a frame whose prediction failed.
const ErrorLabel = "Error"

// Options configures new sessions.
type Options struct {
	// Model is the initial selection. Empty selects model.DefaultName.
	Model model.Name
	// JPEGQuality is the quality of re-encoded frames.
	JPEGQuality int
	// Style is the caption style burned into frames.
	Style images.OverlayStyle
	// Metrics receives frame counts. May be nil.
	Metrics *metrics.Metrics
	// IdleTimeout closes sessions that saw no request for this long. Zero keeps them forever.
	IdleTimeout time.Duration
	// MaxSessions caps the number of open sessions. Zero means no cap.
	MaxSessions int
}

// DefaultOptions returns the options used when none are configured.
func DefaultOptions() Options {
	return Options{
		Model:       model.DefaultName,
		JPEGQuality: images.DefaultJPEGQuality,
		Style:       images.DefaultOverlayStyle,
		IdleTimeout: 2 * time.Minute,
		MaxSessions: 64,
	}
}

// FrameResult is the outcome of processing one frame.
type FrameResult struct {
	// Index is the 1-based position of the frame within the session.
	Index uint64
	// Model is the model that was selected when the frame arrived.
	Model model.Name
	// Label is the predicted class, or ErrorLabel.
	Label string
	// Confidence is the probability of Label. Always 0 for ErrorLabel.
	Confidence float32
	// Err holds the prediction failure that was substituted, if any.
	Err error
	// Annotated is the frame with the caption burned in.
	Annotated *image.RGBA
	// JPEG is the encoded annotated frame. Only set by ProcessFrame.
	JPEG []byte
}

// Session holds the model selection of one live stream.
//
// SetModel may race with frame processing; a change applies to the next frame
// that reads the selection.
type Session struct {
	ID      uuid.UUID
	Created time.Time

	predictor inference.Predictor
	opts      Options

	mu      sync.RWMutex
	current model.Name

	frames   atomic.Uint64
	lastSeen atomic.Int64
}

// NewSession creates a session with the initial model from opts.
//
// Arguments:
//   - predictor: The classifier frames are sent to.
//   - opts: Session options.
//
// Returns:
//   - *Session: The session.
//   - error: *model.UnknownModelError if opts.Model is not registered.
func NewSession(predictor inference.Predictor, opts Options) (*Session, error) {
	if opts.Model == "" {
		opts.Model = model.DefaultName
	}
	if _, err := model.Lookup(opts.Model); err != nil {
		return nil, err
	}
	if opts.JPEGQuality <= 0 || opts.JPEGQuality > 100 {
		opts.JPEGQuality = images.DefaultJPEGQuality
	}

	now := time.Now()
	s := &Session{
		ID:        uuid.New(),
		Created:   now,
		predictor: predictor,
		opts:      opts,
		current:   opts.Model,
	}
	s.lastSeen.Store(now.UnixNano())
	return s, nil
}

// LastSeen returns the time of the most recent request on the session.
func (s *Session) LastSeen() time.Time {
	return time.Unix(0, s.lastSeen.Load())
}

func (s *Session) touch() {
	s.lastSeen.Store(time.Now().UnixNano())
}

// Model returns the current selection.
func (s *Session) Model() model.Name {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current
}

// SetModel changes the selection for subsequent frames.
func (s *Session) SetModel(name model.Name) error {
	if _, err := model.Lookup(name); err != nil {
		return err
	}

	s.touch()
	s.mu.Lock()
	prev := s.current
	s.current = name
	s.mu.Unlock()

	if prev != name {
		logger.Info("live", "session %s switched %s -> %s", s.ID, prev, name)
	}
	return nil
}

// Frames returns the number of frames processed so far.
func (s *Session) Frames() uint64 {
	return s.frames.Load()
}

// ProcessImage classifies a decoded frame and burns the caption into a copy of it.
//
// A failed prediction never fails the frame: the label becomes ErrorLabel with
// confidence 0 and the cause is kept in FrameResult.Err.
func (s *Session) ProcessImage(ctx context.Context, img image.Image) *FrameResult {
	s.touch()
	name := s.Model()
	result := &FrameResult{
		Index: s.frames.Add(1),
		Model: name,
	}

	p, err := s.predictor.Predict(ctx, img, name)
	if err != nil {
		logger.Warn("live", "session %s frame %d: %v", s.ID, result.Index, err)
		result.Label, result.Confidence, result.Err = ErrorLabel, 0, err
	} else {
		result.Label, result.Confidence = p.Label, p.Confidence
	}

	result.Annotated = images.Annotate(img, Caption(result.Label, result.Confidence), s.opts.Style)
	s.opts.Metrics.ObserveFrame(result.Err != nil)
	return result
}

// ProcessFrame decodes an encoded frame, processes it and re-encodes the result as JPEG.
//
// Arguments:
//   - ctx: Passed to the predictor.
//   - data: A JPEG, PNG, WebP, BMP or GIF frame.
//
// Returns:
//   - *FrameResult: The annotated frame with JPEG set.
//   - error: Only when the frame cannot be decoded or re-encoded.
func (s *Session) ProcessFrame(ctx context.Context, data []byte) (*FrameResult, error) {
	img, _, err := images.Decode(data)
	if err != nil {
		return nil, err
	}

	result := s.ProcessImage(ctx, images.ToRGB(img))

	encoded, err := images.EncodeJPEG(result.Annotated, s.opts.JPEGQuality)
	if err != nil {
		return nil, errors.Wrap(err, "encoding annotated frame")
	}
	result.JPEG = encoded
	return result, nil
}

// Caption formats a label and confidence the way it is drawn on frames.
func Caption(label string, confidence float32) string {
	return fmt.Sprintf("%s (%.1f%%)", label, confidence*100)
}
