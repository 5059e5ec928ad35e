package persistence

import (
	"bytes"
	"encoding/gob"
	"errors"
	"testing"
	"time"
)

func TestEncodeDecodeValue_StateMapRoundTrip(t *testing.T) {
	in := map[string]any{
		"epoch_num":   3,
		"global_step": 300,
		"run_id":      "run-1",
	}

	data, err := EncodeValue(in)
	if err != nil {
		t.Fatalf("EncodeValue failed: %v", err)
	}

	out, err := DecodeValue[map[string]any](data)
	if err != nil {
		t.Fatalf("DecodeValue failed: %v", err)
	}
	if out["epoch_num"] != 3 || out["global_step"] != 300 || out["run_id"] != "run-1" {
		t.Fatalf("round trip mismatch: %#v", out)
	}
}

func TestEncodeDecodeValue_SnapshotRoundTrip(t *testing.T) {
	in := &Snapshot{
		RunID:   "run-1",
		Step:    60,
		SavedAt: time.Now(),
		State:   map[string]any{"epoch_num": 2, "local_step": 30},
		Metrics: map[string]float64{"loss": 0.5},
	}

	data, err := EncodeValue(in)
	if err != nil {
		t.Fatalf("EncodeValue failed: %v", err)
	}

	out, err := DecodeValue[*Snapshot](data)
	if err != nil {
		t.Fatalf("DecodeValue failed: %v", err)
	}
	if out.RunID != in.RunID || out.Step != in.Step {
		t.Fatalf("round trip mismatch: %#v", out)
	}
	if !out.SavedAt.Equal(in.SavedAt) {
		t.Fatalf("SavedAt = %v, want %v", out.SavedAt, in.SavedAt)
	}
	if out.Metrics["loss"] != 0.5 {
		t.Fatalf("Metrics = %#v", out.Metrics)
	}
}

func TestDecodeValue_ConcreteEncodedPayload(t *testing.T) {
	// A peer may encode the concrete type directly instead of going
	// through EncodeValue.
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode([]float64{1, 2, 3}); err != nil {
		t.Fatalf("gob encode failed: %v", err)
	}

	out, err := DecodeValue[any](buf.Bytes())
	if err != nil {
		t.Fatalf("DecodeValue failed: %v", err)
	}
	vs, ok := out.([]float64)
	if !ok {
		t.Fatalf("decoded %T, want []float64", out)
	}
	if len(vs) != 3 || vs[2] != 3 {
		t.Fatalf("decoded %v", vs)
	}
}

func TestEncodeDecodeValue_NilAndEmpty(t *testing.T) {
	data, err := EncodeValue(nil)
	if err != nil {
		t.Fatalf("EncodeValue(nil) failed: %v", err)
	}
	if data != nil {
		t.Fatalf("EncodeValue(nil) = %v, want nil", data)
	}

	v, err := DecodeValue[any](nil)
	if err != nil {
		t.Fatalf("DecodeValue(nil) failed: %v", err)
	}
	if v != nil {
		t.Fatalf("DecodeValue(nil) = %v, want nil", v)
	}
}

// mustRetryAsConcrete should detect the specific gob interface/concrete mismatch message.
func TestMustRetryAsConcrete_MatchingGobMessage(t *testing.T) {
	msg := "gob: value can only be decoded from remote interface type; received concrete type main.MyType"
	err := errors.New(msg)

	if !mustRetryAsConcrete(err) {
		t.Fatalf("expected mustRetryAsConcrete to return true for gob interface/concrete mismatch message")
	}
}

func TestMustRetryAsConcrete_NonMatchingErrors(t *testing.T) {
	cases := []struct {
		name string
		err  error
	}{
		{
			name: "unrelated error",
			err:  errors.New("some other failure"),
		},
		{
			name: "only interface substring",
			err:  errors.New("gob: value can only be decoded from remote interface type"),
		},
		{
			name: "only concrete substring",
			err:  errors.New("gob: received concrete type main.MyType"),
		},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			if mustRetryAsConcrete(tc.err) {
				t.Fatalf("expected mustRetryAsConcrete to return false for case %q", tc.name)
			}
		})
	}
}
