package latency

import (
	"encoding/json"
	"os"

	"github.com/pkg/errors"
)

// TimingConfig holds execution latency values per operation class.
type TimingConfig struct {
	// AddSubLatency is the latency of ADD and SUB. Default: 2 cycles.
	AddSubLatency uint64 `json:"add_sub_latency"`

	// MultiplyLatency is the latency of MUL. Default: 4 cycles.
	MultiplyLatency uint64 `json:"multiply_latency"`

	// DivideLatency is the latency of DIV. Default: 8 cycles.
	DivideLatency uint64 `json:"divide_latency"`

	// LoadLatency is the latency of LOAD. Default: 3 cycles.
	LoadLatency uint64 `json:"load_latency"`

	// StoreLatency is the latency of STORE address/value capture. The
	// memory write itself happens at commit. Default: 3 cycles.
	StoreLatency uint64 `json:"store_latency"`

	// BranchLatency is the latency of conditional branch resolution.
	// Default: 1 cycle.
	BranchLatency uint64 `json:"branch_latency"`
}

// DefaultTimingConfig returns the default latency values.
func DefaultTimingConfig() *TimingConfig {
	return &TimingConfig{
		AddSubLatency:   2,
		MultiplyLatency: 4,
		DivideLatency:   8,
		LoadLatency:     3,
		StoreLatency:    3,
		BranchLatency:   1,
	}
}

// LoadConfig reads a TimingConfig from a JSON file. Fields omitted from
// the file keep their default values.
func LoadConfig(path string) (*TimingConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "reading timing config")
	}

	config := DefaultTimingConfig()
	if err := json.Unmarshal(data, config); err != nil {
		return nil, errors.Wrapf(err, "parsing timing config %s", path)
	}

	if err := config.Validate(); err != nil {
		return nil, errors.Wrapf(err, "invalid timing config %s", path)
	}

	return config, nil
}

// Validate checks that every latency is at least one cycle.
func (c *TimingConfig) Validate() error {
	values := map[string]uint64{
		"add_sub_latency":  c.AddSubLatency,
		"multiply_latency": c.MultiplyLatency,
		"divide_latency":   c.DivideLatency,
		"load_latency":     c.LoadLatency,
		"store_latency":    c.StoreLatency,
		"branch_latency":   c.BranchLatency,
	}
	for name, v := range values {
		if v == 0 {
			return errors.Errorf("%s must be at least 1 cycle", name)
		}
	}
	return nil
}
