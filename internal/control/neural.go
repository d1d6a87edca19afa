package control

import (
	"fmt"
	"math"

	"github.com/san-kum/hoversim/internal/dynamo"
	"github.com/san-kum/hoversim/internal/vector"
)

// NeuralNetwork is a fully connected network with one sigmoid hidden layer
// and three sigmoid outputs. Output o maps to thrust (o - 0.5) * 2 * MaxThrust.
//
// Weights are laid out neuron by neuron: every hidden unit has one weight
// per input followed by its bias, then every output unit has one weight per
// hidden unit followed by its bias.
type NeuralNetwork struct {
	MaxThrust float64

	inputs  int
	hidden  int
	weights []float64
	act     []float64
}

func NewNeuralNetwork(inputs, hidden int, maxThrust float64) *NeuralNetwork {
	n := &NeuralNetwork{
		MaxThrust: maxThrust,
		inputs:    inputs,
		hidden:    hidden,
		act:       make([]float64, hidden),
	}
	n.weights = make([]float64, n.Size())
	return n
}

// Size is the number of weights including biases.
func (n *NeuralNetwork) Size() int {
	return n.hidden*(n.inputs+1) + 3*(n.hidden+1)
}

func (n *NeuralNetwork) SetWeights(weights []float64) error {
	if len(weights) != n.Size() {
		return fmt.Errorf("%w: network %d-%d-3 needs %d weights, got %d",
			dynamo.ErrDimensionMismatch, n.inputs, n.hidden, n.Size(), len(weights))
	}
	copy(n.weights, weights)
	return nil
}

func (n *NeuralNetwork) Weights() []float64 {
	out := make([]float64, len(n.weights))
	copy(out, n.weights)
	return out
}

func (n *NeuralNetwork) Act(data dynamo.SensorData) vector.Vector3D {
	w := n.weights
	k := 0
	for h := 0; h < n.hidden; h++ {
		sum := 0.0
		for i := 0; i < n.inputs; i++ {
			if i < len(data) {
				sum += w[k] * data[i]
			}
			k++
		}
		sum += w[k]
		k++
		n.act[h] = sigmoid(sum)
	}

	var thrust vector.Vector3D
	for o := range thrust {
		sum := 0.0
		for h := 0; h < n.hidden; h++ {
			sum += w[k] * n.act[h]
			k++
		}
		sum += w[k]
		k++
		thrust[o] = (sigmoid(sum) - 0.5) * 2 * n.MaxThrust
	}
	return thrust
}

func (n *NeuralNetwork) Dimensions() int { return n.inputs }

func sigmoid(x float64) float64 {
	return 1 / (1 + math.Exp(-x))
}
