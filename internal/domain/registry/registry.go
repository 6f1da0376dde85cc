// Package registry defines the dimension registries ("curator personas")
// that parameterize scoring. A registry is built once at configuration
// time and is read-only afterwards; every scoring call is bound to
// exactly one registry.
package registry

import (
	"fmt"
	"math"
)

// weightSum is the total the dimension weights of a bound registry must
// reach before scoring. NormalizeWeights rescales to this value.
const weightSum = 100.0

// weightSumTolerance allows for floating-point drift when checking the sum.
const weightSumTolerance = 1e-6

// DimensionSpec describes a single scoring axis.
type DimensionSpec struct {
	// Key is the stable identifier used in score sets and compare lists.
	Key string `koanf:"key" json:"key"`

	// Weight is the dimension's share of the composite. Weights across a
	// registry must sum to 100; use NormalizeWeights to rescale.
	Weight float64 `koanf:"weight" json:"weight"`

	// DisplayName and Description are presentational only.
	DisplayName string `koanf:"display_name" json:"display_name,omitempty"`
	Description string `koanf:"description" json:"description,omitempty"`
}

// Registry is an immutable, validated set of scoring dimensions.
type Registry struct {
	name  string
	dims  []DimensionSpec
	index map[string]int
}

// New validates the dimension specs and builds a Registry.
// It fails if the list is empty, any weight is <= 0 (or not finite),
// keys repeat, or the weights sum to zero.
func New(name string, dims []DimensionSpec) (*Registry, error) {
	if len(dims) == 0 {
		return nil, fmt.Errorf("%w: registry %q has no dimensions", ErrConfig, name)
	}

	index := make(map[string]int, len(dims))
	var sum float64
	for i, d := range dims {
		if d.Key == "" {
			return nil, fmt.Errorf("%w: registry %q dimension %d has empty key", ErrConfig, name, i)
		}
		if _, dup := index[d.Key]; dup {
			return nil, fmt.Errorf("%w: registry %q has duplicate dimension key %q", ErrConfig, name, d.Key)
		}
		if d.Weight <= 0 || math.IsNaN(d.Weight) || math.IsInf(d.Weight, 0) {
			return nil, fmt.Errorf("%w: registry %q dimension %q has non-positive weight %v", ErrConfig, name, d.Key, d.Weight)
		}
		index[d.Key] = i
		sum += d.Weight
	}
	if sum == 0 {
		return nil, fmt.Errorf("%w: registry %q weights sum to zero", ErrConfig, name)
	}

	r := &Registry{
		name:  name,
		dims:  make([]DimensionSpec, len(dims)),
		index: index,
	}
	copy(r.dims, dims)
	return r, nil
}

// Name returns the persona name this registry was built under.
func (r *Registry) Name() string { return r.name }

// Dimensions returns a copy of the dimension specs in declaration order.
func (r *Registry) Dimensions() []DimensionSpec {
	out := make([]DimensionSpec, len(r.dims))
	copy(out, r.dims)
	return out
}

// Keys returns the dimension keys in declaration order.
func (r *Registry) Keys() []string {
	keys := make([]string, len(r.dims))
	for i, d := range r.dims {
		keys[i] = d.Key
	}
	return keys
}

// Weight returns the weight for key and whether the key is registered.
func (r *Registry) Weight(key string) (float64, bool) {
	i, ok := r.index[key]
	if !ok {
		return 0, false
	}
	return r.dims[i].Weight, true
}

// Has reports whether key is a registered dimension.
func (r *Registry) Has(key string) bool {
	_, ok := r.index[key]
	return ok
}

// WeightSum returns the current sum of all dimension weights.
func (r *Registry) WeightSum() float64 {
	var sum float64
	for _, d := range r.dims {
		sum += d.Weight
	}
	return sum
}

// Normalized reports whether the weights already sum to 100 within
// floating-point tolerance.
func (r *Registry) Normalized() bool {
	return math.Abs(r.WeightSum()-weightSum) <= weightSumTolerance
}

// NormalizeWeights rescales all weights so they sum to exactly 100 while
// preserving relative proportions. It is idempotent: normalizing an
// already-normalized registry leaves the weights unchanged (within
// floating-point tolerance).
func (r *Registry) NormalizeWeights() {
	sum := r.WeightSum()
	if sum == 0 {
		return
	}
	for i := range r.dims {
		r.dims[i].Weight = r.dims[i].Weight / sum * weightSum
	}
}
