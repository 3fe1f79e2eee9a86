package config

import (
	"errors"
	"fmt"
	"math"
	"math/rand"

	"gopkg.in/yaml.v3"
)

// Range is a closed interval written in YAML as [min, max] or {min: .., max: ..}.
type Range struct {
	Min float64 `yaml:"min" json:"min"`
	Max float64 `yaml:"max" json:"max"`
}

func (r *Range) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind == yaml.SequenceNode {
		var pair []float64
		if err := value.Decode(&pair); err != nil {
			return err
		}
		if len(pair) != 2 {
			return fmt.Errorf("line %d: range needs exactly two values, got %d", value.Line, len(pair))
		}
		r.Min, r.Max = pair[0], pair[1]
		return nil
	}
	type plain Range
	return value.Decode((*plain)(r))
}

func (r Range) within(lo, hi float64) error {
	if math.IsNaN(r.Min) || math.IsNaN(r.Max) {
		return errors.New("bounds must be numbers")
	}
	if r.Min > r.Max {
		return fmt.Errorf("min %v exceeds max %v", r.Min, r.Max)
	}
	if r.Min < lo || r.Max > hi {
		return fmt.Errorf("[%v, %v] is outside [%v, %v]", r.Min, r.Max, lo, hi)
	}
	return nil
}

// Draw returns a uniform value in the range.
func (r Range) Draw(rng *rand.Rand) float64 {
	return r.Min + rng.Float64()*(r.Max-r.Min)
}
