package sensor

import (
	"errors"
	"math"
	"testing"

	"github.com/san-kum/hoversim/internal/asteroid"
	"github.com/san-kum/hoversim/internal/dynamo"
	"github.com/san-kum/hoversim/internal/sample"
	"github.com/san-kum/hoversim/internal/vector"
)

func testAsteroid(t *testing.T) *asteroid.Asteroid {
	t.Helper()
	ast, err := asteroid.New(vector.Vector3D{10000, 6000, 3000}, 2000, vector.Vector2D{0.0005, -0.0004}, 1000)
	if err != nil {
		t.Fatalf("asteroid: %v", err)
	}
	return ast
}

func TestDimensions(t *testing.T) {
	ast := testAsteroid(t)
	tests := []struct {
		types []Type
		dim   int
	}{
		{[]Type{RelativePosition}, 3},
		{[]Type{RelativePosition, Velocity}, 6},
		{[]Type{OpticalFlow, Acceleration}, 9},
		{[]Type{Height, Mass, TotalAcceleration}, 5},
		{[]Type{RelativePosition, Velocity, OpticalFlow, Acceleration, TotalAcceleration, Height, Mass}, 20},
	}

	for _, tt := range tests {
		s, err := New(ast, nil, Config{Types: tt.types})
		if err != nil {
			t.Fatalf("%v: %v", tt.types, err)
		}
		if n, err := Dimensions(tt.types); err != nil || n != tt.dim {
			t.Errorf("%v: Dimensions = %d, %v", tt.types, n, err)
		}
		if s.Dimensions() != tt.dim {
			t.Errorf("%v: expected %d dimensions, got %d", tt.types, tt.dim, s.Dimensions())
		}
		out := s.Simulate(dynamo.NewSystemState(vector.Vector3D{15000, 0, 0}, vector.Vector3D{1, 2, 3}, 400), vector.Vector3D{5000, 0, 0}, vector.Vector3D{}, 0, vector.Vector3D{})
		if len(out) != tt.dim {
			t.Errorf("%v: simulate returned %d values, want %d", tt.types, len(out), tt.dim)
		}
	}
}

func TestDimensionsUnknownType(t *testing.T) {
	if _, err := Dimensions([]Type{Velocity, "lidar"}); !errors.Is(err, dynamo.ErrInvalidConfig) {
		t.Errorf("expected ErrInvalidConfig, got %v", err)
	}
}

func TestInvalidConfig(t *testing.T) {
	ast := testAsteroid(t)
	tests := []struct {
		name string
		cfg  Config
	}{
		{"empty", Config{}},
		{"unknown", Config{Types: []Type{"sonar"}}},
		{"duplicate", Config{Types: []Type{Velocity, Velocity}}},
		{"negative noise", Config{Types: []Type{Velocity}, Noise: map[Type]float64{Velocity: -1}}},
		{"noise for unselected", Config{Types: []Type{Velocity}, Noise: map[Type]float64{Mass: 0.1}}},
		{"zero scale", Config{Types: []Type{Velocity}, Transforms: map[Type]Transform{Velocity: {Offset: 1}}}},
		{"transform for unselected", Config{Types: []Type{Velocity}, Transforms: map[Type]Transform{Height: {Scale: 1}}}},
		{"noise without factory", Config{Types: []Type{Velocity}, NoiseEnabled: true}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(ast, nil, tt.cfg)
			if !errors.Is(err, dynamo.ErrInvalidConfig) {
				t.Errorf("expected ErrInvalidConfig, got %v", err)
			}
		})
	}
}

func TestNoiseFreeIsPure(t *testing.T) {
	ast := testAsteroid(t)
	s, err := New(ast, sample.New(1), Config{
		Types:  []Type{RelativePosition, Velocity, OpticalFlow, Acceleration, Height, Mass},
		Target: vector.Vector3D{12000, 100, 0},
	})
	if err != nil {
		t.Fatal(err)
	}

	state := dynamo.NewSystemState(vector.Vector3D{14000, 200, 300}, vector.Vector3D{0.5, -0.2, 0.1}, 480)
	height := ast.HeightAtPosition(state.Position())
	a := s.Simulate(state, height, vector.Vector3D{1e-6, 0, 0}, 50, vector.Vector3D{1, 0, 0})
	b := s.Simulate(state, height, vector.Vector3D{1e-6, 0, 0}, 50, vector.Vector3D{1, 0, 0})
	for i := range a {
		if a[i] != b[i] {
			t.Fatalf("value %d differs between identical calls: %v vs %v", i, a[i], b[i])
		}
	}

	want := []float64{12000 - 14000, 100 - 200, 0 - 300}
	for i, w := range want {
		if a[i] != w {
			t.Errorf("relative position[%d] = %v, want %v", i, a[i], w)
		}
	}
	if a[len(a)-1] != 480 {
		t.Errorf("mass = %v, want 480", a[len(a)-1])
	}
	if h := a[len(a)-2]; math.Abs(h-height.Norm()) > 1e-9 {
		t.Errorf("height = %v, want %v", h, height.Norm())
	}
}

func TestNoiseIsSeeded(t *testing.T) {
	ast := testAsteroid(t)
	state := dynamo.NewSystemState(vector.Vector3D{14000, 0, 0}, vector.Vector3D{1, 1, 1}, 480)
	height := ast.HeightAtPosition(state.Position())

	run := func(seed int64) dynamo.SensorData {
		s, err := New(ast, sample.New(seed), Config{Types: []Type{Velocity}, NoiseEnabled: true})
		if err != nil {
			t.Fatal(err)
		}
		return s.Simulate(state, height, vector.Vector3D{}, 0, vector.Vector3D{})
	}

	a, b := run(5), run(5)
	differs := false
	for i := range a {
		if a[i] != b[i] {
			t.Fatalf("same seed gave different noise at %d", i)
		}
		if a[i] != 1 {
			differs = true
		}
		if math.Abs(a[i]-1) > 0.5 {
			t.Errorf("noise of 5%% moved %v too far", a[i])
		}
	}
	if !differs {
		t.Error("noise enabled but output unchanged")
	}
}

func TestTransform(t *testing.T) {
	ast := testAsteroid(t)
	s, err := New(ast, nil, Config{
		Types:      []Type{Mass},
		Transforms: map[Type]Transform{Mass: {Offset: -450, Scale: 0.02}},
	})
	if err != nil {
		t.Fatal(err)
	}
	out := s.Simulate(dynamo.NewSystemState(vector.Vector3D{20000, 0, 0}, vector.Vector3D{}, 500), vector.Vector3D{10000, 0, 0}, vector.Vector3D{}, 0, vector.Vector3D{})
	if math.Abs(out[0]-1) > 1e-12 {
		t.Errorf("transformed mass = %v, want 1", out[0])
	}
}

func TestOpticalFlowDecomposition(t *testing.T) {
	vel := vector.Vector3D{3, -4, 2}
	height := vector.Vector3D{0, 0, 50}

	flow := opticalFlow(vel, height)
	parallel := vector.Vector3D{flow[0], flow[1], flow[2]}
	perpendicular := vector.Vector3D{flow[3], flow[4], flow[5]}

	sum := parallel.Add(perpendicular).Scale(50)
	if sum.Sub(vel).Norm() > 1e-12 {
		t.Errorf("components do not recombine: %v", sum)
	}
	if math.Abs(perpendicular.Dot(height)) > 1e-12 {
		t.Errorf("perpendicular part not orthogonal to height: %v", perpendicular)
	}
	if math.Abs(parallel[2]-2.0/50) > 1e-12 {
		t.Errorf("parallel part = %v, want 0.04 along z", parallel)
	}

	for _, v := range opticalFlow(vel, vector.Vector3D{}) {
		if v != 0 {
			t.Fatal("zero height must give zero flow")
		}
	}
}
