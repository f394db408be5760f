package stats

import (
	"math"
	"testing"
)

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func TestDescribe(t *testing.T) {
	t.Parallel()

	s := Describe([]float64{4, 1, 3, 2})
	checks := []struct {
		name string
		got  float64
		want float64
	}{
		{"mean", s.Mean, 2.5},
		{"std", s.Std, math.Sqrt(5.0 / 3.0)},
		{"min", s.Min, 1},
		{"q25", s.Q25, 1.75},
		{"median", s.Median, 2.5},
		{"q75", s.Q75, 3.25},
		{"max", s.Max, 4},
	}
	if s.Count != 4 {
		t.Fatalf("expected count 4, got %d", s.Count)
	}
	for _, c := range checks {
		if !almostEqual(c.got, c.want) {
			t.Errorf("%s = %v, want %v", c.name, c.got, c.want)
		}
	}
}

func TestDescribeSmallInputs(t *testing.T) {
	t.Parallel()

	single := DescribeInts([]int{7})
	if single.Count != 1 || single.Mean != 7 || single.Median != 7 || !math.IsNaN(single.Std) {
		t.Fatalf("unexpected single-value summary: %+v", single)
	}

	empty := Describe(nil)
	if empty.Count != 0 || !math.IsNaN(empty.Mean) || !math.IsNaN(empty.Max) {
		t.Fatalf("unexpected empty summary: %+v", empty)
	}
}

func TestDescribeDoesNotMutateInput(t *testing.T) {
	t.Parallel()

	in := []float64{3, 1, 2}
	Describe(in)
	if in[0] != 3 || in[1] != 1 || in[2] != 2 {
		t.Fatalf("input mutated: %v", in)
	}
}

func TestPercentile(t *testing.T) {
	t.Parallel()

	tests := []struct {
		p    float64
		want float64
	}{
		{0, 10},
		{50, 25},
		{100, 40},
		{90, 37},
	}
	for _, tt := range tests {
		if got := Percentile([]float64{40, 10, 30, 20}, tt.p); !almostEqual(got, tt.want) {
			t.Errorf("Percentile(%v) = %v, want %v", tt.p, got, tt.want)
		}
	}
}
