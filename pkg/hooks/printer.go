package hooks

import (
	"context"
	"fmt"
	"log/slog"
	"path"
	"sort"
	"strings"
	"sync"

	"github.com/petrijr/treino/pkg/api"
)

// ScalarPrinterOptions filters which scalars reach the log.
type ScalarPrinterOptions struct {
	// Includes are glob patterns a name must match to be printed. Empty
	// means everything.
	Includes []string

	// Excludes are glob patterns that suppress matching names.
	Excludes []string

	Logger *slog.Logger
}

// ScalarPrinter logs the latest value of every scalar recorded since the
// previous trigger, one line per trigger with the names sorted.
type ScalarPrinter struct {
	api.NoopHook
	opts   ScalarPrinterOptions
	logger *slog.Logger

	mu      sync.Mutex
	scalars map[string]float64
}

// NewScalarPrinter builds a printer. The zero options print everything.
func NewScalarPrinter(opts ScalarPrinterOptions) *ScalarPrinter {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &ScalarPrinter{
		opts:    opts,
		logger:  logger,
		scalars: make(map[string]float64),
	}
}

// AddScalar buffers the value, keeping only the newest per name.
func (p *ScalarPrinter) AddScalar(name string, value float64) {
	p.mu.Lock()
	p.scalars[name] = value
	p.mu.Unlock()
}

func (p *ScalarPrinter) TriggerEpoch(ctx context.Context) error { return p.Trigger(ctx) }

func (p *ScalarPrinter) Trigger(ctx context.Context) error {
	p.mu.Lock()
	buffered := p.scalars
	p.scalars = make(map[string]float64)
	p.mu.Unlock()

	names := make([]string, 0, len(buffered))
	for name := range buffered {
		if p.wanted(name) {
			names = append(names, name)
		}
	}
	if len(names) == 0 {
		return nil
	}
	sort.Strings(names)

	parts := make([]string, 0, len(names))
	for _, name := range names {
		parts = append(parts, fmt.Sprintf("%s=%.6g", name, buffered[name]))
	}
	p.logger.Info("scalars", slog.String("values", strings.Join(parts, " ")))
	return nil
}

func (p *ScalarPrinter) wanted(name string) bool {
	if len(p.opts.Includes) > 0 && !matchAny(p.opts.Includes, name) {
		return false
	}
	return !matchAny(p.opts.Excludes, name)
}

func matchAny(patterns []string, name string) bool {
	for _, pat := range patterns {
		if ok, err := path.Match(pat, name); err == nil && ok {
			return true
		}
	}
	return false
}

func (p *ScalarPrinter) String() string { return "ScalarPrinter" }

var _ api.Monitor = (*ScalarPrinter)(nil)
