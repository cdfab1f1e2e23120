package classifier

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
)

var ErrIncompatibleBundle = errors.New("incompatible model bundle")

const (
	ActivationReLU   = "relu"
	ActivationLinear = "linear"
)

type Layer struct {
	Weights    [][]float64 `json:"weights"`
	Bias       []float64   `json:"bias"`
	Activation string      `json:"activation"`
}

// Bundle is the trained artifact: vocabulary, label set and dense layer weights.
type Bundle struct {
	Version    int       `json:"version"`
	Vocabulary []string  `json:"vocabulary"`
	IDF        []float64 `json:"idf,omitempty"`
	Labels     []string  `json:"labels"`
	Layers     []Layer   `json:"layers"`
	Threshold  float64   `json:"threshold,omitempty"`
}

func LoadBundle(path string) (*Bundle, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read model bundle: %w", err)
	}

	var bundle Bundle
	if err := json.Unmarshal(data, &bundle); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrIncompatibleBundle, err)
	}
	if err := bundle.Validate(); err != nil {
		return nil, err
	}
	return &bundle, nil
}

// Validate checks that layer shapes chain from the vocabulary to the label set.
func (b *Bundle) Validate() error {
	if len(b.Vocabulary) == 0 {
		return fmt.Errorf("%w: empty vocabulary", ErrIncompatibleBundle)
	}
	if len(b.Labels) == 0 {
		return fmt.Errorf("%w: empty label set", ErrIncompatibleBundle)
	}
	if len(b.Layers) == 0 {
		return fmt.Errorf("%w: no layers", ErrIncompatibleBundle)
	}
	if len(b.IDF) > 0 && len(b.IDF) != len(b.Vocabulary) {
		return fmt.Errorf("%w: idf has %d entries for %d terms", ErrIncompatibleBundle, len(b.IDF), len(b.Vocabulary))
	}

	in := len(b.Vocabulary)
	for i, layer := range b.Layers {
		switch layer.Activation {
		case "", ActivationReLU, ActivationLinear:
		default:
			return fmt.Errorf("%w: layer %d has unknown activation %q", ErrIncompatibleBundle, i, layer.Activation)
		}
		if len(layer.Weights) == 0 || len(layer.Bias) != len(layer.Weights) {
			return fmt.Errorf("%w: layer %d has %d rows and %d biases", ErrIncompatibleBundle, i, len(layer.Weights), len(layer.Bias))
		}
		for _, row := range layer.Weights {
			if len(row) != in {
				return fmt.Errorf("%w: layer %d expects %d inputs, got row of %d", ErrIncompatibleBundle, i, in, len(row))
			}
		}
		in = len(layer.Weights)
	}
	if in != len(b.Labels) {
		return fmt.Errorf("%w: output size %d does not match %d labels", ErrIncompatibleBundle, in, len(b.Labels))
	}
	return nil
}
