package dataflow

import (
	"context"
	"testing"
)

func TestSliceFlowOrderAndEpochReset(t *testing.T) {
	f := FromSlice([]any{"a", "b", "c"})
	ctx := context.Background()

	if f.Len() != 3 {
		t.Fatalf("Len = %d, want 3", f.Len())
	}

	for _, want := range []string{"a", "b", "c", "a"} {
		got, err := f.Next(ctx)
		if err != nil {
			t.Fatalf("Next failed: %v", err)
		}
		if got != want {
			t.Fatalf("Next = %v, want %v", got, want)
		}
	}

	f.SetEpoch(2)
	got, err := f.Next(ctx)
	if err != nil {
		t.Fatalf("Next after SetEpoch failed: %v", err)
	}
	if got != "a" {
		t.Fatalf("Next after SetEpoch = %v, want a", got)
	}
}

func TestSliceFlowEmpty(t *testing.T) {
	f := FromSlice(nil)
	if f.Len() != 0 {
		t.Fatalf("Len = %d, want 0", f.Len())
	}
	got, err := f.Next(context.Background())
	if err != nil || got != nil {
		t.Fatalf("Next = (%v, %v), want (nil, nil)", got, err)
	}
}

func TestSliceTyped(t *testing.T) {
	f := Slice([]int{7, 8})
	got, err := f.Next(context.Background())
	if err != nil {
		t.Fatalf("Next failed: %v", err)
	}
	if got != 7 {
		t.Fatalf("Next = %v, want 7", got)
	}
}

func TestGenerateFlow(t *testing.T) {
	f := Generate(3, func(i int) any { return i * i })
	ctx := context.Background()

	for _, want := range []int{0, 1, 4, 0} {
		got, err := f.Next(ctx)
		if err != nil {
			t.Fatalf("Next failed: %v", err)
		}
		if got != want {
			t.Fatalf("Next = %v, want %v", got, want)
		}
	}

	f.SetEpoch(1)
	got, _ := f.Next(ctx)
	if got != 0 {
		t.Fatalf("Next after SetEpoch = %v, want 0", got)
	}
}

func TestGeneratePanicsOnNilFunc(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("Generate(nil) did not panic")
		}
	}()
	Generate(3, nil)
}

func TestSliceFlowHonorsCancellation(t *testing.T) {
	f := FromSlice([]any{1})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := f.Next(ctx); err == nil {
		t.Fatal("Next on a cancelled context did not fail")
	}
}
