package mdo

import (
	"fmt"
	"math"
	"strings"
)

// Sense selects whether the objective is minimized or maximized.
type Sense int

const (
	Minimize Sense = iota
	Maximize
)

func (s Sense) String() string {
	if s == Maximize {
		return "maximize"
	}
	return "minimize"
}

// ParseSense accepts "min", "minimize", "max" and "maximize".
func ParseSense(s string) (Sense, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "min", "minimize", "":
		return Minimize, nil
	case "max", "maximize":
		return Maximize, nil
	}
	return Minimize, fmt.Errorf("%w: unknown objective sense %q", ErrInvalidModel, s)
}

// DesignVar is a namespace key owned by the optimizer. Infinite bounds
// are allowed.
type DesignVar struct {
	Name  string
	Lower float64
	Upper float64
}

type Objective struct {
	Name  string
	Sense Sense
}

// Constraint bounds a namespace key. A nil bound is absent; equal bounds
// make an equality constraint.
type Constraint struct {
	Name  string
	Lower *float64
	Upper *float64
}

func AtLeast(name string, lo float64) Constraint {
	return Constraint{Name: name, Lower: &lo}
}

func AtMost(name string, hi float64) Constraint {
	return Constraint{Name: name, Upper: &hi}
}

func Between(name string, lo, hi float64) Constraint {
	return Constraint{Name: name, Lower: &lo, Upper: &hi}
}

func EqualTo(name string, v float64) Constraint {
	return Between(name, v, v)
}

func (c Constraint) IsEquality() bool {
	return c.Lower != nil && c.Upper != nil && *c.Lower == *c.Upper
}

// Violation returns how far v lies outside the bounds, zero when satisfied.
func (c Constraint) Violation(v float64) float64 {
	viol := 0.0
	if c.Lower != nil && v < *c.Lower {
		viol = *c.Lower - v
	}
	if c.Upper != nil && v > *c.Upper {
		viol = math.Max(viol, v-*c.Upper)
	}
	return viol
}

// Evaluation holds the raw objective and constraint values of one pass,
// constraints in declaration order.
type Evaluation struct {
	Objective   float64
	Constraints []float64
}

// DesignSpec names the design variables, the objective and the
// constraints of an optimization problem.
type DesignSpec struct {
	vars        []DesignVar
	objective   *Objective
	constraints []Constraint
}

func NewDesignSpec() *DesignSpec {
	return &DesignSpec{}
}

func (d *DesignSpec) AddDesignVar(name string, lower, upper float64) *DesignSpec {
	d.vars = append(d.vars, DesignVar{Name: name, Lower: lower, Upper: upper})
	return d
}

func (d *DesignSpec) SetObjective(name string, sense Sense) *DesignSpec {
	d.objective = &Objective{Name: name, Sense: sense}
	return d
}

func (d *DesignSpec) AddConstraint(c Constraint) *DesignSpec {
	d.constraints = append(d.constraints, c)
	return d
}

// Clone returns a deep copy.
func (d *DesignSpec) Clone() *DesignSpec {
	c := &DesignSpec{
		vars:        append([]DesignVar(nil), d.vars...),
		constraints: make([]Constraint, len(d.constraints)),
	}
	if d.objective != nil {
		obj := *d.objective
		c.objective = &obj
	}
	for i, con := range d.constraints {
		c.constraints[i] = Constraint{Name: con.Name, Lower: copyBound(con.Lower), Upper: copyBound(con.Upper)}
	}
	return c
}

func copyBound(b *float64) *float64 {
	if b == nil {
		return nil
	}
	v := *b
	return &v
}

func (d *DesignSpec) Vars() []DesignVar {
	return append([]DesignVar(nil), d.vars...)
}

func (d *DesignSpec) Objective() (Objective, bool) {
	if d.objective == nil {
		return Objective{}, false
	}
	return *d.objective, true
}

func (d *DesignSpec) Constraints() []Constraint {
	return append([]Constraint(nil), d.constraints...)
}

// Names returns the design variable keys in declaration order.
func (d *DesignSpec) Names() []string {
	names := make([]string, len(d.vars))
	for i, v := range d.vars {
		names[i] = v.Name
	}
	return names
}

func (d *DesignSpec) Dim() int { return len(d.vars) }

// BoundsVector returns the design variable bounds in declaration order.
func (d *DesignSpec) BoundsVector() (lower, upper []float64) {
	lower = make([]float64, len(d.vars))
	upper = make([]float64, len(d.vars))
	for i, v := range d.vars {
		lower[i], upper[i] = v.Lower, v.Upper
	}
	return lower, upper
}

// Validate checks the design variables, objective and constraints against a
// resolved graph.
func (d *DesignSpec) Validate(g *Graph) error {
	if len(d.vars) == 0 {
		return invalidf("", "", "no design variables")
	}
	for _, v := range d.vars {
		if math.IsNaN(v.Lower) || math.IsNaN(v.Upper) || v.Lower > v.Upper {
			return invalidf("", v.Name, "invalid bounds [%g, %g]", v.Lower, v.Upper)
		}
		if len(g.Consumers(v.Name)) == 0 {
			return invalidf("", v.Name, "design variable is not an input of any component")
		}
		if p, _ := g.Producer(v.Name); p != ProducerDesign {
			return &ModelError{Kind: ErrDuplicateProducer, Component: p, Key: v.Name, Msg: "design variable has another producer"}
		}
	}

	if d.objective == nil {
		return invalidf("", "", "no objective")
	}
	if err := producible(g, d.objective.Name); err != nil {
		return err
	}

	seen := make(map[string]bool, len(d.constraints))
	for _, c := range d.constraints {
		if seen[c.Name] {
			return invalidf("", c.Name, "duplicate constraint")
		}
		seen[c.Name] = true
		if c.Lower == nil && c.Upper == nil {
			return invalidf("", c.Name, "constraint has no bounds")
		}
		if c.Lower != nil && c.Upper != nil && *c.Lower > *c.Upper {
			return invalidf("", c.Name, "constraint bounds are inverted")
		}
		if err := producible(g, c.Name); err != nil {
			return err
		}
	}
	return nil
}

func producible(g *Graph, key string) error {
	p, ok := g.Producer(key)
	if !ok {
		return &ModelError{Kind: ErrUnknownVariable, Key: key, Msg: "not produced by any component"}
	}
	if p == ProducerExternal {
		return invalidf("", key, "key is a fixed external value")
	}
	return nil
}

// Evaluate reads the objective and constraint values from ns.
func (d *DesignSpec) Evaluate(ns *Namespace) (Evaluation, error) {
	if d.objective == nil {
		return Evaluation{}, invalidf("", "", "no objective")
	}
	f, err := ns.Get(d.objective.Name)
	if err != nil {
		return Evaluation{}, err
	}
	cons := make([]float64, len(d.constraints))
	for i, c := range d.constraints {
		if cons[i], err = ns.Get(c.Name); err != nil {
			return Evaluation{}, err
		}
	}
	return Evaluation{Objective: f, Constraints: cons}, nil
}

// MaxViolation returns the largest bound violation of raw constraint values.
func (d *DesignSpec) MaxViolation(cons []float64) float64 {
	worst := 0.0
	for i, c := range d.constraints {
		if i >= len(cons) {
			break
		}
		worst = math.Max(worst, c.Violation(cons[i]))
	}
	return worst
}
