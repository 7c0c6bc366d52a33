package mdo

import (
	"fmt"
	"sort"
	"strings"
)

type portSet struct {
	inputs  map[string]Port
	outputs map[string]Port
}

// resolve maps every component port onto a namespace key, validates
// producer uniqueness and input resolvability, and orders the components.
func resolve(m *Model, designKeys []string) (*Graph, error) {
	if len(m.entries) == 0 {
		return nil, invalidf("", "", "model has no components")
	}

	design := make(map[string]bool, len(designKeys))
	for _, k := range designKeys {
		if design[k] {
			return nil, invalidf("", k, "duplicate design variable")
		}
		design[k] = true
	}

	ports := make([]portSet, len(m.entries))
	seen := make(map[string]bool, len(m.entries))
	for i, e := range m.entries {
		name := e.comp.Name()
		if name == "" {
			return nil, invalidf("", "", "component %d has an empty name", i)
		}
		if seen[name] {
			return nil, invalidf(name, "", "duplicate component name")
		}
		seen[name] = true

		ps := portSet{inputs: make(map[string]Port), outputs: make(map[string]Port)}
		for _, p := range e.comp.Inputs() {
			if _, dup := ps.inputs[p.Name]; dup {
				return nil, invalidf(name, p.Name, "duplicate input port")
			}
			ps.inputs[p.Name] = p
		}
		for _, p := range e.comp.Outputs() {
			if _, dup := ps.outputs[p.Name]; dup {
				return nil, invalidf(name, p.Name, "duplicate output port")
			}
			if _, clash := ps.inputs[p.Name]; clash {
				return nil, invalidf(name, p.Name, "port declared as both input and output")
			}
			ps.outputs[p.Name] = p
		}
		ports[i] = ps
	}

	keys, explicit, err := promotedKeys(m, ports)
	if err != nil {
		return nil, err
	}
	if err := applyConnections(m, ports, keys, explicit); err != nil {
		return nil, err
	}

	g := &Graph{
		nodes:     make([]*node, len(m.entries)),
		producers: make(map[string]string),
		consumers: make(map[string][]string),
		units:     make(map[string]string),
		defaults:  make(map[string]float64),
		design:    design,
	}

	producedBy := make(map[string]int)
	for i, e := range m.entries {
		n := &node{comp: e.comp, index: i}
		for _, p := range e.comp.Outputs() {
			key := keys[i][p.Name]
			if prev, dup := producedBy[key]; dup {
				return nil, &ModelError{
					Kind: ErrDuplicateProducer, Component: e.comp.Name(), Key: key,
					Msg: fmt.Sprintf("also produced by %s", m.entries[prev].comp.Name()),
				}
			}
			if design[key] {
				return nil, &ModelError{
					Kind: ErrDuplicateProducer, Component: e.comp.Name(), Key: key,
					Msg: "key is a design variable owned by the optimizer",
				}
			}
			producedBy[key] = i
			n.outKeys = append(n.outKeys, key)
			g.producers[key] = e.comp.Name()
			g.units[key] = p.Unit
		}
		g.nodes[i] = n
	}

	for i, e := range m.entries {
		n := g.nodes[i]
		deps := make(map[int]bool)
		for _, p := range e.comp.Inputs() {
			key := keys[i][p.Name]
			n.inKeys = append(n.inKeys, key)
			g.consumers[key] = append(g.consumers[key], e.comp.Name())
			if _, ok := g.units[key]; !ok {
				g.units[key] = p.Unit
			}

			if src, ok := producedBy[key]; ok {
				deps[src] = true
				continue
			}
			if design[key] {
				g.producers[key] = ProducerDesign
				continue
			}
			if _, ok := m.presets[key]; ok {
				g.producers[key] = ProducerExternal
				continue
			}
			if _, ok := g.defaults[key]; ok {
				continue
			}
			if p.HasDefault {
				g.defaults[key] = p.Default
				g.producers[key] = ProducerExternal
				continue
			}
			return nil, &ModelError{Kind: ErrUnresolvedInput, Component: e.comp.Name(), Key: key}
		}
		for d := range deps {
			n.deps = append(n.deps, d)
		}
		sort.Ints(n.deps)
	}

	order, levels, err := topoSort(g.nodes)
	if err != nil {
		return nil, err
	}
	g.order, g.levels = order, levels
	return g, nil
}

func promotedKeys(m *Model, ports []portSet) ([]map[string]string, []map[string]bool, error) {
	keys := make([]map[string]string, len(m.entries))
	explicit := make([]map[string]bool, len(m.entries))
	for i, e := range m.entries {
		name := e.comp.Name()
		keys[i] = make(map[string]string)
		explicit[i] = make(map[string]bool)
		for local := range ports[i].inputs {
			keys[i][local] = name + "." + local
			if e.promoteAllIn {
				keys[i][local] = local
			}
		}
		for local := range ports[i].outputs {
			keys[i][local] = name + "." + local
			if e.promoteAllOut {
				keys[i][local] = local
			}
		}
		for local, key := range e.promoted {
			if _, ok := keys[i][local]; !ok {
				return nil, nil, invalidf(name, local, "promoted port does not exist")
			}
			keys[i][local] = key
			explicit[i][local] = true
		}
	}

	for _, p := range m.promotions {
		idx, ok := m.index[p.Component]
		if !ok {
			return nil, nil, invalidf(p.Component, p.Key, "promotion references unknown component")
		}
		if _, ok := keys[idx][p.Local]; !ok {
			return nil, nil, invalidf(p.Component, p.Local, "promotion references unknown port")
		}
		if strings.TrimSpace(p.Key) == "" {
			return nil, nil, invalidf(p.Component, p.Local, "promotion has an empty key")
		}
		keys[idx][p.Local] = p.Key
		explicit[idx][p.Local] = true
	}
	return keys, explicit, nil
}

func applyConnections(m *Model, ports []portSet, keys []map[string]string, explicit []map[string]bool) error {
	connected := make(map[string]bool)
	for _, c := range m.connections {
		srcComp, srcPort, err := splitPath(c.From)
		if err != nil {
			return invalidf("", c.From, "%v", err)
		}
		dstComp, dstPort, err := splitPath(c.To)
		if err != nil {
			return invalidf("", c.To, "%v", err)
		}
		si, ok := m.index[srcComp]
		if !ok {
			return invalidf(srcComp, c.From, "connection source references unknown component")
		}
		di, ok := m.index[dstComp]
		if !ok {
			return invalidf(dstComp, c.To, "connection target references unknown component")
		}
		if _, ok := ports[si].outputs[srcPort]; !ok {
			return invalidf(srcComp, srcPort, "connection source is not an output")
		}
		if _, ok := ports[di].inputs[dstPort]; !ok {
			return invalidf(dstComp, dstPort, "connection target is not an input")
		}
		if connected[c.To] {
			return invalidf(dstComp, dstPort, "input is connected more than once")
		}
		srcKey := keys[si][srcPort]
		if explicit[di][dstPort] && keys[di][dstPort] != srcKey {
			return invalidf(dstComp, dstPort, "input is promoted as %q and connected to %q", keys[di][dstPort], srcKey)
		}
		keys[di][dstPort] = srcKey
		connected[c.To] = true
	}
	return nil
}

// topoSort runs Kahn's algorithm, always releasing the ready component with
// the lowest declaration index so the order is reproducible.
func topoSort(nodes []*node) ([]int, [][]int, error) {
	indeg := make([]int, len(nodes))
	dependents := make([][]int, len(nodes))
	for _, n := range nodes {
		for _, d := range n.deps {
			if d == n.index {
				return nil, nil, &ModelError{
					Kind: ErrCyclicDependency, Component: n.comp.Name(),
					Msg: "component consumes its own output",
				}
			}
			indeg[n.index]++
			dependents[d] = append(dependents[d], n.index)
		}
	}

	ready := make([]int, 0, len(nodes))
	for i := range nodes {
		if indeg[i] == 0 {
			ready = append(ready, i)
		}
	}

	depth := make([]int, len(nodes))
	order := make([]int, 0, len(nodes))
	for len(ready) > 0 {
		sort.Ints(ready)
		cur := ready[0]
		ready = ready[1:]
		order = append(order, cur)
		for _, next := range dependents[cur] {
			if depth[cur]+1 > depth[next] {
				depth[next] = depth[cur] + 1
			}
			indeg[next]--
			if indeg[next] == 0 {
				ready = append(ready, next)
			}
		}
	}

	if len(order) != len(nodes) {
		var stuck []string
		for i, n := range nodes {
			if indeg[i] > 0 {
				stuck = append(stuck, n.comp.Name())
			}
		}
		return nil, nil, &ModelError{
			Kind: ErrCyclicDependency,
			Msg:  "unordered components: " + strings.Join(stuck, ", "),
		}
	}

	maxDepth := 0
	for _, d := range depth {
		if d > maxDepth {
			maxDepth = d
		}
	}
	levels := make([][]int, maxDepth+1)
	for _, idx := range order {
		levels[depth[idx]] = append(levels[depth[idx]], idx)
	}
	for _, lvl := range levels {
		sort.Ints(lvl)
	}
	return order, levels, nil
}
