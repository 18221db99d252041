package resolve

import (
	"testing"

	"github.com/cavalo-mORTO/kore-mustach/internal/jsonval"
	"github.com/cavalo-mORTO/kore-mustach/internal/tagexpr"
)

// fakeStack is a minimal Stack implementation for testing FindInStack's
// ancestor walk without going through a full render.State.
type fakeStack struct {
	frames []jsonval.Value
}

func (f fakeStack) Depth() int                           { return len(f.frames) - 1 }
func (f fakeStack) FrameContext(d int) jsonval.Value      { return f.frames[d] }

func TestFindHere_DottedPath(t *testing.T) {
	root, _ := jsonval.Parse([]byte(`{"user":{"name":"Ada"}}`))
	v, ok := FindHere(root, "user/name")
	if !ok || v.String() != "Ada" {
		t.Errorf("got %q, ok=%v", v.String(), ok)
	}
}

func TestFindHere_MissingSegment(t *testing.T) {
	root, _ := jsonval.Parse([]byte(`{"user":{"name":"Ada"}}`))
	_, ok := FindHere(root, "user/age")
	if ok {
		t.Error("expected failure for a missing path segment")
	}
}

func TestFindInStack_CurrentWins(t *testing.T) {
	root, _ := jsonval.Parse([]byte(`{"title":"root-title","item":{"title":"item-title"}}`))
	item, _ := root.FindHere("item")
	stack := fakeStack{frames: []jsonval.Value{root}}

	v, ok := FindInStack(item, stack, "title")
	if !ok || v.String() != "item-title" {
		t.Errorf("got %q, ok=%v, want item-title", v.String(), ok)
	}
}

func TestFindInStack_FallsBackToAncestor(t *testing.T) {
	root, _ := jsonval.Parse([]byte(`{"title":"root-title","item":{"name":"widget"}}`))
	item, _ := root.FindHere("item")
	stack := fakeStack{frames: []jsonval.Value{root}}

	v, ok := FindInStack(item, stack, "title")
	if !ok || v.String() != "root-title" {
		t.Errorf("got %q, ok=%v, want root-title", v.String(), ok)
	}
}

func TestFindInStack_MissingEverywhere(t *testing.T) {
	root, _ := jsonval.Parse([]byte(`{"item":{"name":"widget"}}`))
	item, _ := root.FindHere("item")
	stack := fakeStack{frames: []jsonval.Value{root}}

	_, ok := FindInStack(item, stack, "nonexistent")
	if ok {
		t.Error("expected failure when the key is nowhere in the stack")
	}
}

func TestCompare_Numbers(t *testing.T) {
	root, _ := jsonval.Parse([]byte(`{"age":21}`))
	age, _ := root.FindHere("age")
	if Compare(age, "18") <= 0 {
		t.Error("21 should compare greater than 18")
	}
	if Compare(age, "21") != 0 {
		t.Error("21 should compare equal to 21")
	}
	if Compare(age, "30") >= 0 {
		t.Error("21 should compare less than 30")
	}
}

func TestCompare_Strings(t *testing.T) {
	root, _ := jsonval.Parse([]byte(`{"name":"bob"}`))
	name, _ := root.FindHere("name")
	if Compare(name, "alice") <= 0 {
		t.Error("'bob' should compare greater than 'alice'")
	}
}

func TestCompare_TypeMismatchIsZero(t *testing.T) {
	root, _ := jsonval.Parse([]byte(`{"age":21}`))
	age, _ := root.FindHere("age")
	if Compare(age, "bob") != 0 {
		t.Error("comparing a numeric item against an operand that does not parse as a number should be 0")
	}
}

func TestEvalComparator_Negation(t *testing.T) {
	root, _ := jsonval.Parse([]byte(`{"status":"closed"}`))
	status, _ := root.FindHere("status")

	if !EvalComparator(status, "active", tagexpr.CompEQ, true) {
		t.Error("'closed' != 'active', negated equality should be true")
	}
	if EvalComparator(status, "closed", tagexpr.CompEQ, true) {
		t.Error("'closed' == 'closed', negated equality should be false")
	}
}

func TestEvalComparator_RelationalOperators(t *testing.T) {
	root, _ := jsonval.Parse([]byte(`{"age":21}`))
	age, _ := root.FindHere("age")

	if !EvalComparator(age, "18", tagexpr.CompGT, false) {
		t.Error("21 > 18 should be true")
	}
	if EvalComparator(age, "21", tagexpr.CompGT, false) {
		t.Error("21 > 21 should be false")
	}
	if !EvalComparator(age, "21", tagexpr.CompGE, false) {
		t.Error("21 >= 21 should be true")
	}
}
