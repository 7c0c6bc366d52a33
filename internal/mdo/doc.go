// Package mdo provides the computational-graph runtime used to couple
// independent physical modules into one optimizable system.
//
// The package defines:
//
//   - [Namespace]: flat mapping from namespace key to scalar value
//   - [Component]: pure compute unit with declared input and output ports
//   - [Model]: component registry with explicit connections and promotions
//   - [Graph]: resolved, validated and topologically ordered model
//   - [Engine]: executes one atomic pass over a [Graph]
//   - [DesignSpec]: design variables, objective and constraints
//   - [Problem]: owns the namespace for one optimization run
//
// # Example
//
//	m := mdo.NewModel()
//	m.Add(physics.NewSun(), mdo.PromoteAll())
//	m.Preset("solar_irradiance", 800)
//
//	d := mdo.NewDesignSpec()
//	d.AddDesignVar("membrane_area", 0.5, 10)
//	d.SetObjective("freshwater_rate", mdo.Maximize)
//
//	p, err := mdo.NewProblem(m, d)
//	ev, err := p.Evaluate([]float64{2.0})
//
// # Thread Safety
//
// A Namespace is not safe for concurrent use. A Problem serializes its
// passes, and a Graph is read-only once built. Components must be
// stateless and may be shared between models.
package mdo
