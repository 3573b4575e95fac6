// Package cmn holds the runtime-wide configuration singleton, mirroring
// aistore's cmn.GCO ("global config owner") pattern referenced as
// `cmn.GCO.Get()` in xact/xs/tcb.go.
package cmn

import (
	"time"

	"github.com/ais-project/portalvm/cmn/cos"
	"go.uber.org/atomic"
)

// Config holds host-supplied tunables. The runtime never reads files or
// env vars for these; a host program builds and installs one at startup.
type Config struct {
	// Workers is the number of Runner goroutines driving the Portal.
	Workers int
	// EpochInterval is how often a host-driven ticker should attempt
	// Collector.epoch_change; the runtime itself does not schedule this.
	EpochInterval time.Duration
	// Verbosity is the global FastV threshold (0 = silent, higher = noisier).
	Verbosity int
}

func DefaultConfig() *Config {
	return &Config{
		Workers:       1,
		EpochInterval: 50 * time.Millisecond,
		Verbosity:     0,
	}
}

// gco is the Global Config Owner: an atomically swappable *Config, the same
// shape as cmn.GCO.Get() in teacher code.
type gco struct {
	cfg atomic.Value
}

func (g *gco) Get() *Config {
	v := g.cfg.Load()
	if v == nil {
		return DefaultConfig()
	}
	return v.(*Config)
}

func (g *gco) Put(c *Config) { g.cfg.Store(c) }

var GCO = &gco{}

func init() { GCO.Put(DefaultConfig()) }

// rom ("runtime operating mode") gates verbosity the way teacher's
// cmn.Rom.FastV(level, module) does.
type rom struct{}

func (rom) FastV(level int, _ cos.Smodule) bool {
	return GCO.Get().Verbosity >= level
}

var Rom rom
