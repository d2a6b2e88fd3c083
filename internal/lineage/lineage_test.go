package lineage

import (
	"testing"

	"github.com/tjfontaine/llmtrace/internal/artifact"
)

func req(id string, ts int64, model string, reqMsgs, respMsgs, tools []string) *artifact.CookedRequest {
	return &artifact.CookedRequest{
		ID:               id,
		Timestamp:        ts,
		Model:            model,
		RequestMessages:  reqMsgs,
		ResponseMessages: respMsgs,
		Tools:            tools,
	}
}

func parentOf(t *testing.T, requests []*artifact.CookedRequest, id string) *string {
	t.Helper()
	for _, r := range requests {
		if r.ID == id {
			return r.ParentID
		}
	}
	t.Fatalf("no request with id %q", id)
	return nil
}

func TestAssign_LinearChain(t *testing.T) {
	// r1: [m0], response [m1]. r2 continues the conversation: [m0,m1,m2].
	r1 := req("r1", 1, "gpt-4", []string{"m0"}, []string{"m1"}, nil)
	r2 := req("r2", 2, "gpt-4", []string{"m0", "m1", "m2"}, []string{"m3"}, nil)

	requests := []*artifact.CookedRequest{r1, r2}
	Assign(requests)

	if got := parentOf(t, requests, "r1"); got != nil {
		t.Errorf("r1.ParentID = %v, want nil", got)
	}
	if got := parentOf(t, requests, "r2"); got == nil || *got != "r1" {
		t.Errorf("r2.ParentID = %v, want r1", got)
	}
}

func TestAssign_DifferentModelsNeverLink(t *testing.T) {
	r1 := req("r1", 1, "gpt-4", []string{"m0"}, []string{"m1"}, nil)
	r2 := req("r2", 2, "claude-3", []string{"m0", "m1", "m2"}, []string{"m3"}, nil)

	requests := []*artifact.CookedRequest{r1, r2}
	Assign(requests)

	if got := parentOf(t, requests, "r2"); got != nil {
		t.Errorf("r2.ParentID = %v, want nil (different model than only candidate)", got)
	}
}

func TestAssign_Rewind(t *testing.T) {
	// r1 builds up a long prefix; r2 continues it further; r3 "rewinds" by
	// sharing r1's short prefix exactly rather than r2's longer one.
	r1 := req("r1", 1, "gpt-4", []string{"m0"}, []string{"m1"}, nil)
	r2 := req("r2", 2, "gpt-4", []string{"m0", "m1", "m2"}, []string{"m3"}, nil)
	r3 := req("r3", 3, "gpt-4", []string{"m0", "m1", "m4"}, []string{"m5"}, nil)

	requests := []*artifact.CookedRequest{r1, r2, r3}
	Assign(requests)

	if got := parentOf(t, requests, "r3"); got == nil || *got != "r1" {
		t.Errorf("r3.ParentID = %v, want r1 (rewind should prefer the shorter matching prefix)", got)
	}
}

func TestAssign_DivergentShortPromptBecomesRoot(t *testing.T) {
	r1 := req("r1", 1, "gpt-4", []string{"m0"}, []string{"m1"}, nil)
	r2 := req("r2", 2, "gpt-4", []string{"m9"}, []string{"m10"}, nil)

	requests := []*artifact.CookedRequest{r1, r2}
	Assign(requests)

	if got := parentOf(t, requests, "r2"); got != nil {
		t.Errorf("r2.ParentID = %v, want nil (totally unrelated single-message prompt)", got)
	}
}

func TestAssign_SortsByTimestamp(t *testing.T) {
	r2 := req("r2", 2, "gpt-4", []string{"m0", "m1", "m2"}, []string{"m3"}, nil)
	r1 := req("r1", 1, "gpt-4", []string{"m0"}, []string{"m1"}, nil)

	requests := []*artifact.CookedRequest{r2, r1} // out of order on input
	Assign(requests)

	if got := parentOf(t, requests, "r2"); got == nil || *got != "r1" {
		t.Errorf("r2.ParentID = %v, want r1 even though input order was reversed", got)
	}
}
