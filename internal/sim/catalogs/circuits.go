package catalogs

import "fmt"

type CircuitCatalog struct {
	Defs   map[string]CircuitDef
	Digest string
}

// CircuitDef is a combinational logic puzzle: named gates over input lines,
// evaluated in declaration order so later gates may reference earlier ones.
type CircuitDef struct {
	Name    string       `json:"name"`
	Inputs  int          `json:"inputs"`
	Gates   []Gate       `json:"gates"`
	Outputs []string     `json:"outputs"`
	Solved  *StateEffect `json:"on_solved,omitempty"`
}

type Gate struct {
	Name string   `json:"name"`
	Op   string   `json:"op"`
	In   []string `json:"in"`
}

// Eval computes the output lines for an input bitfield (bit i is line
// "in<i>"). Load guarantees every reference resolves.
func (c *CircuitDef) Eval(inputs uint32) []bool {
	vals := make(map[string]bool, c.Inputs+len(c.Gates))
	for i := 0; i < c.Inputs; i++ {
		vals[fmt.Sprintf("in%d", i)] = inputs&(1<<i) != 0
	}
	for _, g := range c.Gates {
		vals[g.Name] = g.eval(vals)
	}
	out := make([]bool, len(c.Outputs))
	for i, name := range c.Outputs {
		out[i] = vals[name]
	}
	return out
}

// SolvedBy reports whether the inputs drive every output line high.
func (c *CircuitDef) SolvedBy(inputs uint32) bool {
	for _, v := range c.Eval(inputs) {
		if !v {
			return false
		}
	}
	return len(c.Outputs) > 0
}

func (g *Gate) eval(vals map[string]bool) bool {
	switch g.Op {
	case "not":
		return !vals[g.In[0]]
	case "and", "nand":
		acc := true
		for _, in := range g.In {
			acc = acc && vals[in]
		}
		if g.Op == "nand" {
			return !acc
		}
		return acc
	case "or":
		for _, in := range g.In {
			if vals[in] {
				return true
			}
		}
		return false
	case "xor":
		acc := false
		for _, in := range g.In {
			acc = acc != vals[in]
		}
		return acc
	}
	return false
}

func loadCircuits(path string, out *CircuitCatalog) error {
	var defs []CircuitDef
	digest, err := readJSON(path, &defs)
	if err != nil {
		return err
	}
	out.Digest = digest
	out.Defs = make(map[string]CircuitDef, len(defs))

	for _, c := range defs {
		if c.Name == "" {
			return fmt.Errorf("circuits.json: empty circuit name")
		}
		if _, dup := out.Defs[c.Name]; dup {
			return fmt.Errorf("circuits.json: duplicate circuit %q", c.Name)
		}
		if c.Inputs <= 0 || c.Inputs > 32 {
			return fmt.Errorf("circuits.json: circuit %q: inputs must be in 1..32", c.Name)
		}
		known := map[string]bool{}
		for i := 0; i < c.Inputs; i++ {
			known[fmt.Sprintf("in%d", i)] = true
		}
		for _, g := range c.Gates {
			if g.Name == "" {
				return fmt.Errorf("circuits.json: circuit %q: gate with empty name", c.Name)
			}
			if known[g.Name] {
				return fmt.Errorf("circuits.json: circuit %q: duplicate signal %q", c.Name, g.Name)
			}
			if !oneOf(g.Op, "and", "or", "not", "xor", "nand") {
				return fmt.Errorf("circuits.json: circuit %q gate %q: unknown op %q", c.Name, g.Name, g.Op)
			}
			if len(g.In) == 0 || (g.Op == "not" && len(g.In) != 1) {
				return fmt.Errorf("circuits.json: circuit %q gate %q: bad input count", c.Name, g.Name)
			}
			for _, in := range g.In {
				if !known[in] {
					return fmt.Errorf("circuits.json: circuit %q gate %q: unknown input %q", c.Name, g.Name, in)
				}
			}
			known[g.Name] = true
		}
		if len(c.Outputs) == 0 {
			return fmt.Errorf("circuits.json: circuit %q has no outputs", c.Name)
		}
		for _, o := range c.Outputs {
			if !known[o] {
				return fmt.Errorf("circuits.json: circuit %q: unknown output %q", c.Name, o)
			}
		}
		out.Defs[c.Name] = c
	}
	return nil
}
