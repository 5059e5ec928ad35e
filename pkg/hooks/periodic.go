package hooks

import (
	"fmt"

	"github.com/petrijr/treino/pkg/api"
)

// Periodic enables the inner hook's step and epoch notifications on a fixed
// cadence: when the global step is a multiple of EveryKSteps, or when the
// epoch number is a multiple of EveryKEpochs. An epoch period additionally
// enables the closing steps of the final epoch, so a cadence that does not
// divide the epoch range still fires near the end. When EveryKEpochs divides
// MaxEpoch both conditions hold at the boundary and the hook fires on each;
// callers who care must pick a cadence that does not divide the range.
type Periodic struct {
	*EnableIf
	everyKSteps  int
	everyKEpochs int
}

// NewPeriodic wraps inner with the cadence predicate. Panics when neither
// period is set.
func NewPeriodic(inner api.Hook, everyKSteps, everyKEpochs int) *Periodic {
	if everyKSteps <= 0 && everyKEpochs <= 0 {
		panic("treino: periodic requires a step or epoch period")
	}
	p := &Periodic{everyKSteps: everyKSteps, everyKEpochs: everyKEpochs}
	p.EnableIf = NewEnableIf(inner, p.shouldFire)
	return p
}

func (p *Periodic) shouldFire(t api.Trainer) bool {
	if p.everyKSteps > 0 && t.GlobalStep()%p.everyKSteps == 0 {
		return true
	}
	if p.everyKEpochs > 0 {
		if t.EpochNum()%p.everyKEpochs == 0 {
			return true
		}
		if t.LocalStep() == t.StepsPerEpoch()-1 && t.EpochNum() == t.MaxEpoch() {
			return true
		}
	}
	return false
}

func (p *Periodic) String() string {
	return fmt.Sprintf("Periodic(%s)", hookName(p.Inner()))
}
