package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/hashicorp/go-multierror"
	"gopkg.in/yaml.v3"

	"firestige.xyz/pktforge/internal/core"
)

// Recipe describes packets to craft: a stack of layers with their field
// values, replicated Count times. Recipes are YAML; JSON is accepted too.
type Recipe struct {
	Name     string      `yaml:"name"`
	LinkType string      `yaml:"link_type"`
	Count    int         `yaml:"count"`    // copies, default 1
	Interval string      `yaml:"interval"` // timestamp spacing, e.g. "1ms"
	Start    time.Time   `yaml:"start"`    // first timestamp, default now
	Layers   []LayerSpec `yaml:"layers"`
}

// LayerSpec is one layer of a recipe. Fields are decoded by the layer's
// builder.
type LayerSpec struct {
	Type   string         `yaml:"type"`
	Fields map[string]any `yaml:"fields"`
}

// RecipeLayerTypes lists the layer types a recipe may use.
var RecipeLayerTypes = []string{"ethernet", "ipv4", "udp", "payload", "raw"}

// LoadRecipe reads and validates a recipe file.
func LoadRecipe(path string) (*Recipe, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read recipe file %s: %w", path, err)
	}
	r, err := ParseRecipe(data)
	if err != nil {
		return nil, fmt.Errorf("recipe %s: %w", path, err)
	}
	return r, nil
}

// ParseRecipe parses recipe data from YAML or JSON.
func ParseRecipe(data []byte) (*Recipe, error) {
	var r Recipe
	if err := yaml.Unmarshal(data, &r); err != nil {
		return nil, fmt.Errorf("failed to parse recipe: %w", err)
	}
	if err := r.Validate(); err != nil {
		return nil, err
	}
	return &r, nil
}

// Validate checks the recipe and applies defaults.
func (r *Recipe) Validate() error {
	var result *multierror.Error
	invalid := func(format string, args ...any) {
		result = multierror.Append(result, fmt.Errorf("%w: "+format, append([]any{core.ErrConfigInvalid}, args...)...))
	}

	if r.LinkType == "" {
		r.LinkType = "ethernet"
	}
	if _, err := ParseLinkType(r.LinkType); err != nil {
		invalid("link_type: %v", err)
	}
	if r.Count < 0 {
		invalid("count %d must not be negative", r.Count)
	}
	if r.Count == 0 {
		r.Count = 1
	}
	if r.Interval != "" {
		if d, err := time.ParseDuration(r.Interval); err != nil || d < 0 {
			invalid("interval %q is not a non-negative duration", r.Interval)
		}
	}
	if len(r.Layers) == 0 {
		invalid("at least one layer is required")
	}
	for i := range r.Layers {
		l := &r.Layers[i]
		l.Type = strings.ToLower(l.Type)
		if !isRecipeLayer(l.Type) {
			invalid("layers[%d]: unknown type %q (must be one of %s)", i, l.Type, strings.Join(RecipeLayerTypes, "/"))
		}
	}
	return result.ErrorOrNil()
}

// IntervalDuration returns the parsed timestamp spacing.
func (r *Recipe) IntervalDuration() time.Duration {
	d, _ := time.ParseDuration(r.Interval)
	return d
}

func isRecipeLayer(t string) bool {
	for _, known := range RecipeLayerTypes {
		if t == known {
			return true
		}
	}
	return false
}
