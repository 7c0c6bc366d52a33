package mdo

// Values maps a component's local port names to scalar values.
type Values map[string]float64

// Port declares one named scalar input or output of a component.
type Port struct {
	Name       string
	Unit       string
	Default    float64
	HasDefault bool
}

// In declares a required input port.
func In(name, unit string) Port { return Port{Name: name, Unit: unit} }

// InDefault declares an input port that falls back to def when nothing
// in the model produces or presets its key.
func InDefault(name, unit string, def float64) Port {
	return Port{Name: name, Unit: unit, Default: def, HasDefault: true}
}

// Out declares an output port.
func Out(name, unit string) Port { return Port{Name: name, Unit: unit} }

// Component is a pure, deterministic compute unit. It owns no namespace
// state and must return a value for every declared output. Inputs outside
// the physical domain are reported with a *DomainError.
type Component interface {
	Name() string
	Inputs() []Port
	Outputs() []Port
	Compute(in Values) (Values, error)
}

// ComputeFunc is the signature of a closure-backed component.
type ComputeFunc func(in Values) (Values, error)

type funcComponent struct {
	name    string
	inputs  []Port
	outputs []Port
	fn      ComputeFunc
}

// NewFunc adapts a closure into a Component.
func NewFunc(name string, inputs, outputs []Port, fn ComputeFunc) Component {
	return &funcComponent{name: name, inputs: inputs, outputs: outputs, fn: fn}
}

func (f *funcComponent) Name() string { return f.name }
func (f *funcComponent) Inputs() []Port { return f.inputs }
func (f *funcComponent) Outputs() []Port { return f.outputs }
func (f *funcComponent) Compute(in Values) (Values, error) { return f.fn(in) }
