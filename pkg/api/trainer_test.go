package api

import (
	"testing"
)

//
// StateDict
//

func TestStateDictIntToleratesNumericWidths(t *testing.T) {
	sd := StateDict{
		"a": 3,
		"b": int64(4),
		"c": float64(5),
		"d": "not a number",
	}

	for key, want := range map[string]int{"a": 3, "b": 4, "c": 5} {
		got, ok := sd.Int(key)
		if !ok {
			t.Fatalf("Int(%q) missed", key)
		}
		if got != want {
			t.Fatalf("Int(%q) = %d, want %d", key, got, want)
		}
	}
	if _, ok := sd.Int("d"); ok {
		t.Fatal("Int should reject a string value")
	}
	if _, ok := sd.Int("missing"); ok {
		t.Fatal("Int should miss on an absent key")
	}
}

func TestStateDictString(t *testing.T) {
	sd := StateDict{StateKeyRunID: "run-42", "n": 7}
	if s, ok := sd.String(StateKeyRunID); !ok || s != "run-42" {
		t.Fatalf("String = %q, ok = %v", s, ok)
	}
	if _, ok := sd.String("n"); ok {
		t.Fatal("String should reject a non-string value")
	}
	if _, ok := sd.String("missing"); ok {
		t.Fatal("String should miss on an absent key")
	}
}

func TestStateDictCloneIsIndependent(t *testing.T) {
	sd := StateDict{StateKeyEpochNum: 3, "extra": "x"}
	cl := sd.Clone()

	cl[StateKeyEpochNum] = 99
	cl["new"] = true

	if v, _ := sd.Int(StateKeyEpochNum); v != 3 {
		t.Fatalf("clone mutation leaked into the original: %d", v)
	}
	if _, ok := sd["new"]; ok {
		t.Fatal("clone mutation leaked a new key into the original")
	}
	if StateDict(nil).Clone() == nil {
		t.Fatal("Clone of nil should allocate an empty dict")
	}
}
