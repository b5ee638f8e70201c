package inference

import (
	"time"

	"github.com/nvr-ai/wayang/models/model"
)

// ClassScore is one entry of the ranked score list.
type ClassScore struct {
	Label      string  `json:"label"`
	Confidence float32 `json:"confidence"`
}

// Prediction is the normalized result of classifying one image.
type Prediction struct {
	// Model is the identifier of the model that produced the result.
	Model model.Name `json:"model"`
	// DisplayName is the human readable model name.
	DisplayName string `json:"display_name"`
	// Label is the winning class name.
	Label string `json:"label"`
	// Confidence is the probability of Label, in [0, 1].
	Confidence float32 `json:"confidence"`
	// Description is a short note about the character.
	Description string `json:"description"`
	// Top holds the highest scores in descending order.
	Top []ClassScore `json:"top"`
	// Duration is the wall time of the call.
	Duration time.Duration `json:"-"`
}
