package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/pentaring/meshcore/internal/orientation"
)

// Topology is an optional static override for the default forwarder
// connect-order linearization, loaded from <ASSETS_DIR>/topology.yaml.
type Topology struct {
	ConnectOrder []string `yaml:"connect_order"`
}

// LoadTopology reads topology.yaml from dir, if present. A missing file
// is not an error: callers fall back to the compiled-in default order.
func LoadTopology(dir string) (*Topology, error) {
	path := filepath.Join(dir, "topology.yaml")
	b, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}
	var t Topology
	if err := yaml.Unmarshal(b, &t); err != nil {
		return nil, fmt.Errorf("config: parse %s: %w", path, err)
	}
	return &t, nil
}

// Orientations resolves the topology's connect-order names into
// orientation.Orientation values, in order.
func (t *Topology) Orientations() ([]orientation.Orientation, error) {
	out := make([]orientation.Orientation, 0, len(t.ConnectOrder))
	for _, name := range t.ConnectOrder {
		o, err := orientation.ParseName(name)
		if err != nil {
			return nil, err
		}
		out = append(out, o)
	}
	return out, nil
}
