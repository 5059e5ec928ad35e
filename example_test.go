package treino_test

import (
	"context"
	"fmt"
	"io"
	"log"
	"log/slog"

	"github.com/petrijr/treino"
)

func quiet() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// Example runs a minimal loop: a step runner folding its inputs into a sum,
// repeated over the same three inputs for three epochs.
func Example() {
	sum := 0
	step := treino.StepFunc(func(ctx context.Context, input any) (any, error) {
		sum += input.(int)
		return sum, nil
	})

	loop := treino.New(step).Logger(quiet()).Build()
	opts := treino.TrainOptions{MaxEpoch: 3}
	if err := loop.Train(context.Background(), treino.Slice([]int{1, 2, 3}), opts); err != nil {
		log.Fatal(err)
	}

	fmt.Println("status:", loop.Status())
	fmt.Println("epochs:", loop.EpochNum())
	fmt.Println("steps:", loop.GlobalStep())
	fmt.Println("sum:", sum)
	// Output:
	// status: COMPLETED
	// epochs: 3
	// steps: 9
	// sum: 18
}

// Example_earlyStop ends a run from inside the step runner. StopTraining is
// a graceful exit: Train returns nil and the loop lands on STOPPED.
func Example_earlyStop() {
	v := 1.0
	step := treino.StepFunc(func(ctx context.Context, input any) (any, error) {
		v *= 0.7
		if v < 0.1 {
			return nil, treino.StopTraining("converged")
		}
		return v, nil
	})

	loop := treino.New(step).Logger(quiet()).Build()
	err := loop.Train(context.Background(), treino.Slice([]int{0, 1, 2}), treino.TrainOptions{MaxEpoch: 10})

	fmt.Println("err:", err)
	fmt.Println("status:", loop.Status())
	// Output:
	// err: <nil>
	// status: STOPPED
}

// Example_periodic gates a hook so it only fires on every second epoch.
func Example_periodic() {
	fired := 0
	every2 := treino.NewPeriodicTrigger(&treino.LambdaHook{
		OnTrigger: func(ctx context.Context, h *treino.LambdaHook) error {
			fired++
			return nil
		},
	}, treino.PeriodicTriggerOptions{EveryKEpochs: 2})

	step := treino.StepFunc(func(ctx context.Context, input any) (any, error) {
		return input, nil
	})
	err := treino.New(step).
		Logger(quiet()).
		Hooks(every2).
		MaxEpoch(4).
		Train(context.Background(), treino.Slice([]int{1}))

	fmt.Println("err:", err)
	fmt.Println("fired:", fired)
	// Output:
	// err: <nil>
	// fired: 2
}
