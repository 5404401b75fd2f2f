package llm

import (
	"strings"
	"testing"
)

func TestAccumulator_TextConcatenation(t *testing.T) {
	var acc Accumulator
	for _, fragment := range []string{"The", " quick", "", " brown fox"} {
		acc.Merge(Delta{Text: fragment})
	}
	if got := acc.Content(); got != "The quick brown fox" {
		t.Fatalf("Content() = %q", got)
	}
}

func TestAccumulator_SplitFragmentationInvisible(t *testing.T) {
	// The same logical response, fragmented differently, must finalize
	// identically.
	coarse := []Delta{
		{Text: "Hello world"},
		{Call: &CallDelta{Index: 0, ID: "call_1", Name: "get_weather", Arguments: `{"city":"SF"}`}},
		{FinishReason: FinishReasonToolCalls},
	}
	fine := []Delta{
		{Text: "Hel"},
		{Text: "lo wor"},
		{Call: &CallDelta{Index: 0, ID: "call_1", Name: "get_weather"}},
		{Text: "ld"},
		{Call: &CallDelta{Index: 0, Arguments: `{"ci`}},
		{Call: &CallDelta{Index: 0, Arguments: `ty":"SF"}`}},
		{FinishReason: FinishReasonToolCalls},
	}

	finalize := func(deltas []Delta) *CompleteResponse {
		t.Helper()
		var acc Accumulator
		for _, d := range deltas {
			acc.Merge(d)
		}
		resp, err := acc.Finalize()
		if err != nil {
			t.Fatalf("Finalize: %v", err)
		}
		return resp
	}

	a, b := finalize(coarse), finalize(fine)
	if a.Content != b.Content {
		t.Fatalf("content differs: %q vs %q", a.Content, b.Content)
	}
	if len(a.FunctionCalls) != 1 || len(b.FunctionCalls) != 1 {
		t.Fatalf("call counts differ: %d vs %d", len(a.FunctionCalls), len(b.FunctionCalls))
	}
	if a.FunctionCalls[0] != b.FunctionCalls[0] {
		t.Fatalf("calls differ: %+v vs %+v", a.FunctionCalls[0], b.FunctionCalls[0])
	}
	if a.FinishReason != b.FinishReason {
		t.Fatalf("finish reasons differ: %q vs %q", a.FinishReason, b.FinishReason)
	}
}

func TestAccumulator_CallOrderByFirstAppearance(t *testing.T) {
	var acc Accumulator
	acc.Merge(Delta{Call: &CallDelta{Index: 2, ID: "c", Name: "charlie"}})
	acc.Merge(Delta{Call: &CallDelta{Index: 0, ID: "a", Name: "alpha"}})
	acc.Merge(Delta{Call: &CallDelta{Index: 2, Arguments: "{}"}})
	acc.Merge(Delta{Call: &CallDelta{Index: 1, ID: "b", Name: "bravo"}})

	resp, err := acc.Finalize()
	if err != nil {
		t.Fatalf("Finalize: %v", err)
	}
	var names []string
	for _, c := range resp.FunctionCalls {
		names = append(names, c.Name)
	}
	if got := strings.Join(names, ","); got != "charlie,alpha,bravo" {
		t.Fatalf("call order = %q", got)
	}
}

func TestAccumulator_NameAcrossFragments(t *testing.T) {
	var acc Accumulator
	acc.Merge(Delta{Call: &CallDelta{Index: 0, ID: "call_1", Name: "get_"}})
	acc.Merge(Delta{Call: &CallDelta{Index: 0, Name: "weather"}})
	acc.Merge(Delta{Call: &CallDelta{Index: 0, Arguments: `{"city":"SF"}`}})
	acc.Merge(Delta{FinishReason: FinishReasonToolCalls})

	resp, err := acc.Finalize()
	if err != nil {
		t.Fatalf("Finalize: %v", err)
	}
	if resp.FunctionCalls[0].Name != "get_weather" {
		t.Fatalf("Name = %q", resp.FunctionCalls[0].Name)
	}
}

func TestAccumulator_RepeatedNameNoOp(t *testing.T) {
	var acc Accumulator
	acc.Merge(Delta{Call: &CallDelta{Index: 0, Name: "get_weather"}})
	// Re-delivering the whole name does not extend it.
	acc.Merge(Delta{Call: &CallDelta{Index: 0, Name: "get_weather", Arguments: "{}"}})

	resp, err := acc.Finalize()
	if err != nil {
		t.Fatalf("Finalize: %v", err)
	}
	if resp.FunctionCalls[0].Name != "get_weather" {
		t.Fatalf("Name = %q", resp.FunctionCalls[0].Name)
	}
}

func TestAccumulator_NameConflictIsViolation(t *testing.T) {
	var acc Accumulator
	// Arguments have begun, so the name is complete; a different name after
	// that is a protocol violation, not a continuation.
	acc.Merge(Delta{Call: &CallDelta{Index: 0, Name: "get_weather", Arguments: `{"a":1}`}})
	acc.Merge(Delta{Call: &CallDelta{Index: 0, Name: "get_forecast"}})

	if _, err := acc.Finalize(); err == nil {
		t.Fatal("Finalize succeeded, want violation")
	} else if le, ok := AsLLMError(err); !ok || le.Kind != ErrKindStreaming {
		t.Fatalf("err = %v", err)
	}
}

func TestAccumulator_NamelessCallIsViolation(t *testing.T) {
	var acc Accumulator
	acc.Merge(Delta{Call: &CallDelta{Index: 0, ID: "call_1", Arguments: "{}"}})

	if _, err := acc.Finalize(); err == nil {
		t.Fatal("Finalize succeeded, want violation")
	} else if le, ok := AsLLMError(err); !ok || le.Kind != ErrKindStreaming {
		t.Fatalf("err = %v", err)
	}
}

func TestAccumulator_InvalidArgumentsJSON(t *testing.T) {
	var acc Accumulator
	acc.Merge(Delta{Call: &CallDelta{Index: 0, ID: "c1", Name: "f", Arguments: `{"broken":`}})

	_, err := acc.Finalize()
	if le, ok := AsLLMError(err); !ok || le.Kind != ErrKindSerialization {
		t.Fatalf("err = %v, want serialization error", err)
	}
}

func TestAccumulator_EmptyArgumentsBecomeObject(t *testing.T) {
	var acc Accumulator
	acc.Merge(Delta{Call: &CallDelta{Index: 0, ID: "c1", Name: "noop"}})

	resp, err := acc.Finalize()
	if err != nil {
		t.Fatalf("Finalize: %v", err)
	}
	if resp.FunctionCalls[0].Arguments != "{}" {
		t.Fatalf("Arguments = %q", resp.FunctionCalls[0].Arguments)
	}
}

func TestAccumulator_SynthesizedIDUpgrade(t *testing.T) {
	var acc Accumulator
	// First fragment has no ID yet.
	acc.Merge(Delta{Call: &CallDelta{Index: 0, Name: "f"}})
	acc.Merge(Delta{Call: &CallDelta{Index: 0, ID: "call_real", Arguments: "{}"}})

	resp, err := acc.Finalize()
	if err != nil {
		t.Fatalf("Finalize: %v", err)
	}
	if resp.FunctionCalls[0].ID != "call_real" {
		t.Fatalf("ID = %q", resp.FunctionCalls[0].ID)
	}
}

func TestAccumulator_FinishReasonFirstWins(t *testing.T) {
	var acc Accumulator
	acc.Merge(Delta{FinishReason: FinishReasonLength})
	acc.Merge(Delta{FinishReason: FinishReasonStop})

	resp, err := acc.Finalize()
	if err != nil {
		t.Fatalf("Finalize: %v", err)
	}
	if resp.FinishReason != FinishReasonLength {
		t.Fatalf("FinishReason = %q", resp.FinishReason)
	}
}

func TestAccumulator_DefaultFinishReason(t *testing.T) {
	var acc Accumulator
	acc.Merge(Delta{Text: "hi"})

	resp, err := acc.Finalize()
	if err != nil {
		t.Fatalf("Finalize: %v", err)
	}
	if resp.FinishReason != FinishReasonStop {
		t.Fatalf("FinishReason = %q", resp.FinishReason)
	}
}

func TestAccumulator_UsageLastNonZeroWins(t *testing.T) {
	var acc Accumulator
	acc.Merge(Delta{Usage: &Usage{InputTokens: 10}})
	acc.Merge(Delta{Usage: &Usage{OutputTokens: 3}})
	acc.Merge(Delta{Usage: &Usage{OutputTokens: 7, CachedTokens: 4}})

	resp, err := acc.Finalize()
	if err != nil {
		t.Fatalf("Finalize: %v", err)
	}
	want := Usage{InputTokens: 10, OutputTokens: 7, CachedTokens: 4}
	if resp.Usage != want {
		t.Fatalf("Usage = %+v, want %+v", resp.Usage, want)
	}
}
