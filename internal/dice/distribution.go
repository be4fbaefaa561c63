package dice

import "sort"

// Distribution maps an outcome to its probability (or an unnormalized weight).
type Distribution map[int]float64

// Frequencies maps an outcome to the number of times it has been recorded.
type Frequencies map[int]int

// Normalize divides every value of dist by the sum of all values, in place.
// It returns ErrDivideByZero and leaves dist untouched when the sum is 0.
func Normalize(dist Distribution) error {
	var total float64
	for _, v := range dist {
		total += v
	}
	if total == 0 {
		return ErrDivideByZero
	}
	for k := range dist {
		dist[k] /= total
	}
	return nil
}

// Normalized returns a normalized copy of dist. dist is never modified.
func Normalized(dist Distribution) (Distribution, error) {
	out := dist.Clone()
	if err := Normalize(out); err != nil {
		return nil, err
	}
	return out, nil
}

// ClampNegativeToZero replaces every negative value of dist with 0, in place.
func ClampNegativeToZero(dist Distribution) {
	for k, v := range dist {
		if v < 0 {
			dist[k] = 0
		}
	}
}

// Clone returns a copy of d.
func (d Distribution) Clone() Distribution {
	out := make(Distribution, len(d))
	for k, v := range d {
		out[k] = v
	}
	return out
}

// Sum returns the total of all values in d.
func (d Distribution) Sum() float64 {
	var total float64
	for _, v := range d {
		total += v
	}
	return total
}

// Clone returns a copy of f.
func (f Frequencies) Clone() Frequencies {
	out := make(Frequencies, len(f))
	for k, v := range f {
		out[k] = v
	}
	return out
}

// Total returns the number of recorded outcomes.
func (f Frequencies) Total() int {
	total := 0
	for _, v := range f {
		total += v
	}
	return total
}

// fractions returns each outcome's share of the recorded total.
func (f Frequencies) fractions() (Distribution, error) {
	weights := make(Distribution, len(f))
	for k, v := range f {
		weights[k] = float64(v)
	}
	return Normalized(weights)
}

func sortedKeys[V any](m map[int]V) []int {
	keys := make([]int, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Ints(keys)
	return keys
}
