package export

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/san-kum/hoversim/internal/dynamo"
	"github.com/san-kum/hoversim/internal/sim"
	"github.com/san-kum/hoversim/internal/vector"
)

// num prints v with ten significant digits.
func num(v float64) string {
	return strconv.FormatFloat(v, 'g', 10, 64)
}

// WriteVisualization writes the trajectory file read by the viewer: a header
// line "a,\tb,\tc,\tfrequency" followed by one "px,\tpy,\tpz,\thx,\thy,\thz"
// line per sample.
func WriteVisualization(w io.Writer, semiAxis vector.Vector3D, controlFrequency float64, rec *sim.Record) error {
	bw := bufio.NewWriter(w)
	fmt.Fprintf(bw, "%s,\t%s,\t%s,\t%s\n", num(semiAxis[0]), num(semiAxis[1]), num(semiAxis[2]), num(controlFrequency))
	for i := range rec.Positions {
		p, h := rec.Positions[i], rec.Heights[i]
		fmt.Fprintf(bw, "%s,\t%s,\t%s,\t%s,\t%s,\t%s \n", num(p[0]), num(p[1]), num(p[2]), num(h[0]), num(h[1]), num(h[2]))
	}
	return bw.Flush()
}

// WriteSensorData writes the observations of a run, one comma separated
// line each, after a commented header describing the scenario.
func WriteSensorData(w io.Writer, sc *sim.Scenario, controlFrequency, horizon float64, observations []dynamo.SensorData) error {
	bw := bufio.NewWriter(w)
	ast := sc.Asteroid
	semi := ast.SemiAxis()
	omega, _ := ast.AngularVelocityAndAccelerationAtTime(0)
	pos, vel := sc.Initial.Position(), sc.Initial.Velocity()

	fmt.Fprintf(bw, "# target position: %s m\n", triple(sc.Target))
	fmt.Fprintln(bw, "#")
	fmt.Fprintf(bw, "# control frequency: %s Hz\n", num(controlFrequency))
	fmt.Fprintf(bw, "# simulation time: %s s\n", num(horizon))
	fmt.Fprintln(bw, "#")
	fmt.Fprintln(bw, "# asteroid:")
	fmt.Fprintf(bw, "#  density: %s kg/m^3\n", num(ast.Density()))
	fmt.Fprintf(bw, "#  time bias: %s s\n", num(ast.TimeBias()))
	fmt.Fprintf(bw, "#  semi axis: %s m\n", triple(semi))
	fmt.Fprintf(bw, "#  angular velocity: %s 1/s\n", triple(omega))
	fmt.Fprintln(bw, "#")
	fmt.Fprintln(bw, "# spacecraft:")
	fmt.Fprintf(bw, "#  mass: %s kg\n", num(sc.Initial.Mass()))
	fmt.Fprintf(bw, "#  specific impulse: %s s\n", num(sc.SpecificImpulse))
	fmt.Fprintf(bw, "#  position: %s m\n", triple(pos))
	fmt.Fprintf(bw, "#  velocity: %s m/s\n", triple(vel))
	fmt.Fprintln(bw, "#")

	for _, data := range observations {
		fields := make([]string, len(data))
		for i, v := range data {
			fields[i] = num(v)
		}
		fmt.Fprintln(bw, strings.Join(fields, ", "))
	}
	return bw.Flush()
}

func triple(v vector.Vector3D) string {
	return num(v[0]) + ", " + num(v[1]) + ", " + num(v[2])
}
