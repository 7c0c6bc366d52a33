package config

import (
	"errors"
	"fmt"
	"math"
	"os"
	"strings"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

const (
	DefaultStrategy      = "sqp"
	DefaultMaxIterations = 200
	DefaultTolerance     = 1e-8
	DefaultFDStep        = 1e-6
	DefaultPatience      = 2

	EnvPrefix = "FACTORYTWIN"
)

var ErrInvalidConfig = errors.New("config: invalid configuration")

type Config struct {
	Name        string             `yaml:"name" mapstructure:"name"`
	Components  []string           `yaml:"components" mapstructure:"components"`
	Presets     map[string]float64 `yaml:"presets,omitempty" mapstructure:"presets"`
	Connections []Connection       `yaml:"connections,omitempty" mapstructure:"connections"`
	Promotions  []Promotion        `yaml:"promotions,omitempty" mapstructure:"promotions"`
	DesignVars  []DesignVar        `yaml:"design_vars" mapstructure:"design_vars"`
	Objective   Objective          `yaml:"objective" mapstructure:"objective"`
	Constraints []Constraint       `yaml:"constraints,omitempty" mapstructure:"constraints"`
	Solver      Solver             `yaml:"solver" mapstructure:"solver"`
}

// Connection wires a component output ("comp.port") to an input.
type Connection struct {
	From string `yaml:"from" mapstructure:"from"`
	To   string `yaml:"to" mapstructure:"to"`
}

type Promotion struct {
	Component string `yaml:"component" mapstructure:"component"`
	Local     string `yaml:"local" mapstructure:"local"`
	Key       string `yaml:"key" mapstructure:"key"`
}

type DesignVar struct {
	Name    string   `yaml:"name" mapstructure:"name"`
	Lower   float64  `yaml:"lower" mapstructure:"lower"`
	Upper   float64  `yaml:"upper" mapstructure:"upper"`
	Initial *float64 `yaml:"initial,omitempty" mapstructure:"initial"`
}

type Objective struct {
	Name  string `yaml:"name" mapstructure:"name"`
	Sense string `yaml:"sense" mapstructure:"sense"`
}

type Constraint struct {
	Name  string   `yaml:"name" mapstructure:"name"`
	Lower *float64 `yaml:"lower,omitempty" mapstructure:"lower"`
	Upper *float64 `yaml:"upper,omitempty" mapstructure:"upper"`
}

type Solver struct {
	Strategy      string  `yaml:"strategy" mapstructure:"strategy"`
	MaxIterations int     `yaml:"max_iterations" mapstructure:"max_iterations"`
	Tolerance     float64 `yaml:"tolerance" mapstructure:"tolerance"`
	FDStep        float64 `yaml:"fd_step" mapstructure:"fd_step"`
	Patience      int     `yaml:"patience" mapstructure:"patience"`
	GridPoints    int     `yaml:"grid_points,omitempty" mapstructure:"grid_points"`
	Parallel      bool    `yaml:"parallel,omitempty" mapstructure:"parallel"`
}

func DefaultSolver() Solver {
	return Solver{
		Strategy:      DefaultStrategy,
		MaxIterations: DefaultMaxIterations,
		Tolerance:     DefaultTolerance,
		FDStep:        DefaultFDStep,
		Patience:      DefaultPatience,
	}
}

func DefaultConfig() *Config {
	return &Config{
		Presets: map[string]float64{},
		Solver:  DefaultSolver(),
	}
}

// Load reads a config file and applies FACTORYTWIN_* environment overrides,
// e.g. FACTORYTWIN_SOLVER_MAX_ITERATIONS=50.
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	def := DefaultSolver()
	v.SetDefault("solver.strategy", def.Strategy)
	v.SetDefault("solver.max_iterations", def.MaxIterations)
	v.SetDefault("solver.tolerance", def.Tolerance)
	v.SetDefault("solver.fd_step", def.FDStep)
	v.SetDefault("solver.patience", def.Patience)
	v.SetDefault("solver.grid_points", 0)
	v.SetDefault("solver.parallel", false)

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}

	cfg := DefaultConfig()
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("decode config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Parse decodes a YAML document on top of the defaults. No environment
// overrides are applied.
func Parse(data []byte) (*Config, error) {
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

func (c *Config) Validate() error {
	if len(c.Components) == 0 {
		return invalid("no components")
	}
	seen := make(map[string]bool, len(c.Components))
	for _, name := range c.Components {
		if seen[name] {
			return invalid("component %q listed twice", name)
		}
		seen[name] = true
	}
	if len(c.DesignVars) == 0 {
		return invalid("no design variables")
	}
	for _, dv := range c.DesignVars {
		if dv.Name == "" {
			return invalid("design variable without a name")
		}
		if !(dv.Lower <= dv.Upper) {
			return invalid("design variable %s: lower %g above upper %g", dv.Name, dv.Lower, dv.Upper)
		}
		if dv.Initial != nil && (*dv.Initial < dv.Lower || *dv.Initial > dv.Upper) {
			return invalid("design variable %s: initial %g outside [%g, %g]", dv.Name, *dv.Initial, dv.Lower, dv.Upper)
		}
	}
	if c.Objective.Name == "" {
		return invalid("no objective")
	}
	switch strings.ToLower(c.Objective.Sense) {
	case "", "min", "minimize", "max", "maximize":
	default:
		return invalid("unknown objective sense %q", c.Objective.Sense)
	}
	for _, con := range c.Constraints {
		if con.Lower == nil && con.Upper == nil {
			return invalid("constraint %s has no bounds", con.Name)
		}
		if con.Lower != nil && con.Upper != nil && *con.Lower > *con.Upper {
			return invalid("constraint %s: lower %g above upper %g", con.Name, *con.Lower, *con.Upper)
		}
	}
	return c.Solver.Validate()
}

func (s Solver) Validate() error {
	if s.MaxIterations <= 0 {
		return invalid("solver: max_iterations must be positive")
	}
	if !(s.Tolerance > 0) || math.IsInf(s.Tolerance, 0) {
		return invalid("solver: tolerance must be positive")
	}
	if !(s.FDStep > 0) || math.IsInf(s.FDStep, 0) {
		return invalid("solver: fd_step must be positive")
	}
	if s.Patience <= 0 {
		return invalid("solver: patience must be positive")
	}
	if s.GridPoints < 0 || s.GridPoints == 1 {
		return invalid("solver: grid_points must be 0 or at least 2")
	}
	return nil
}

// Clone returns a deep copy.
func (c *Config) Clone() *Config {
	out := *c
	out.Components = append([]string(nil), c.Components...)
	out.Presets = make(map[string]float64, len(c.Presets))
	for k, v := range c.Presets {
		out.Presets[k] = v
	}
	out.Connections = append([]Connection(nil), c.Connections...)
	out.Promotions = append([]Promotion(nil), c.Promotions...)
	out.DesignVars = make([]DesignVar, len(c.DesignVars))
	for i, dv := range c.DesignVars {
		out.DesignVars[i] = dv
		out.DesignVars[i].Initial = copyPtr(dv.Initial)
	}
	out.Constraints = make([]Constraint, len(c.Constraints))
	for i, con := range c.Constraints {
		out.Constraints[i] = Constraint{Name: con.Name, Lower: copyPtr(con.Lower), Upper: copyPtr(con.Upper)}
	}
	return &out
}

func copyPtr(p *float64) *float64 {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidConfig, fmt.Sprintf(format, args...))
}
