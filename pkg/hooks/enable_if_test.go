package hooks

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/petrijr/treino/pkg/api"
)

func TestEnableIfRemembersStepPairing(t *testing.T) {
	t.Parallel()

	var events []string
	inner := &scriptedHook{name: "in", log: &events}
	tr := newFakeTrainer()
	enabled := false
	h := NewEnableIf(inner, func(api.Trainer) bool { return enabled })
	require.NoError(t, h.Setup(tr))
	events = events[:0]

	ctx := context.Background()

	// Enabled at BeforeStep, flipped off mid-step: the pair still completes.
	enabled = true
	require.NoError(t, h.BeforeStep(ctx, 1))
	enabled = false
	require.NoError(t, h.AfterStep(ctx, 1, 2))
	require.Equal(t, []string{"in:before_step", "in:after_step"}, events)

	// Disabled at BeforeStep, flipped on mid-step: the pair stays silent.
	events = events[:0]
	require.NoError(t, h.BeforeStep(ctx, 1))
	enabled = true
	require.NoError(t, h.AfterStep(ctx, 1, 2))
	require.Empty(t, events)
}

func TestEnableIfGatesEpochEventsIndependently(t *testing.T) {
	t.Parallel()

	var events []string
	inner := &scriptedHook{name: "in", log: &events}
	tr := newFakeTrainer()
	enabled := false
	h := NewEnableIf(inner, func(api.Trainer) bool { return enabled })
	require.NoError(t, h.Setup(tr))
	events = events[:0]

	ctx := context.Background()
	require.NoError(t, h.BeforeEpoch(ctx))
	require.NoError(t, h.TriggerStep(ctx))
	require.NoError(t, h.AfterEpoch(ctx))
	require.NoError(t, h.TriggerEpoch(ctx))
	require.Empty(t, events)

	enabled = true
	require.NoError(t, h.BeforeEpoch(ctx))
	require.NoError(t, h.TriggerStep(ctx))
	require.NoError(t, h.AfterEpoch(ctx))
	require.NoError(t, h.TriggerEpoch(ctx))
	require.Equal(t, []string{
		"in:before_epoch", "in:trigger_step", "in:after_epoch", "in:trigger_epoch",
	}, events)
}

func TestEnableIfForwardsRunLevelEvents(t *testing.T) {
	t.Parallel()

	var events []string
	inner := &scriptedHook{name: "in", log: &events}
	h := NewEnableIf(inner, func(api.Trainer) bool { return false })
	require.NoError(t, h.Setup(newFakeTrainer()))

	ctx := context.Background()
	require.NoError(t, h.BeforeTrain(ctx))
	require.NoError(t, h.Trigger(ctx))
	require.NoError(t, h.AfterTrain(ctx))
	require.Equal(t, []string{
		"in:setup", "in:before_train", "in:trigger", "in:after_train",
	}, events)
}

func TestNewEnableIfPanicsOnNilPredicate(t *testing.T) {
	t.Parallel()

	require.PanicsWithValue(t, "treino: enable-if requires a predicate",
		func() { NewEnableIf(api.NoopHook{}, nil) })
}
