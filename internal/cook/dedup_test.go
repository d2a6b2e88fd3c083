package cook

import "testing"

func TestDedup_IdenticalMessagesShareID(t *testing.T) {
	d := newDedupState()
	a := d.messageID(canonMessage{Role: "user", Content: "hello"})
	b := d.messageID(canonMessage{Role: "user", Content: "hello"})
	if a != b {
		t.Errorf("identical messages got different ids: %q vs %q", a, b)
	}
	if len(d.messages) != 1 {
		t.Errorf("len(messages) = %d, want 1", len(d.messages))
	}
}

func TestDedup_DifferentContentDifferentID(t *testing.T) {
	d := newDedupState()
	a := d.messageID(canonMessage{Role: "user", Content: "hello"})
	b := d.messageID(canonMessage{Role: "user", Content: "goodbye"})
	if a == b {
		t.Errorf("distinct messages got the same id: %q", a)
	}
}

func TestDedup_AssignmentOrderIsFirstSeen(t *testing.T) {
	d := newDedupState()
	first := d.messageID(canonMessage{Role: "user", Content: "one"})
	second := d.messageID(canonMessage{Role: "user", Content: "two"})
	d.messageID(canonMessage{Role: "user", Content: "one"}) // repeat, must not move

	if first != "m0" || second != "m1" {
		t.Fatalf("got ids %q, %q, want m0, m1", first, second)
	}
	if d.messages[0].ID != "m0" || d.messages[1].ID != "m1" {
		t.Errorf("messages list not in assignment order: %+v", d.messages)
	}
}

func TestDedup_ToolHashIgnoresKeyOrder(t *testing.T) {
	d := newDedupState()
	a := d.toolID(canonTool{Name: "f", Description: "", Parameters: []byte(`{"a":1,"b":2}`)})
	b := d.toolID(canonTool{Name: "f", Description: "", Parameters: []byte(`{"b":2,"a":1}`)})
	if a != b {
		t.Errorf("semantically identical parameter objects hashed differently: %q vs %q", a, b)
	}
}
