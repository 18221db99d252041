package jsonval

import "testing"

func TestParse_EmptyInputIsNullRoot(t *testing.T) {
	v, ok := Parse([]byte(""))
	if !ok {
		t.Fatal("empty input should parse as a valid null root")
	}
	if v.Valid() {
		t.Error("empty input should yield an invalid/null value")
	}
	if v.Kind() != KindNull {
		t.Errorf("expected KindNull, got %v", v.Kind())
	}
}

func TestParse_Object(t *testing.T) {
	v, ok := Parse([]byte(`{"a":1,"b":"x"}`))
	if !ok {
		t.Fatal("Parse failed")
	}
	if v.Kind() != KindObject {
		t.Errorf("expected KindObject, got %v", v.Kind())
	}
}

func TestParse_MalformedJSON(t *testing.T) {
	_, ok := Parse([]byte(`{not json`))
	if ok {
		t.Error("expected Parse to report failure for malformed JSON")
	}
}

func TestKind_Classification(t *testing.T) {
	tests := []struct {
		json string
		want Kind
	}{
		{`{"v":"hi"}`, KindString},
		{`{"v":true}`, KindLiteral},
		{`{"v":false}`, KindLiteral},
		{`{"v":null}`, KindLiteral},
		{`{"v":3.5}`, KindNumber},
		{`{"v":42}`, KindSignedInt},
		{`{"v":-42}`, KindSignedInt},
		{`{"v":18446744073709551615}`, KindUnsignedInt},
		{`{"v":[1,2]}`, KindArray},
		{`{"v":{"x":1}}`, KindObject},
	}

	for _, tt := range tests {
		root, ok := Parse([]byte(tt.json))
		if !ok {
			t.Fatalf("Parse(%q) failed", tt.json)
		}
		child, found := root.FindHere("v")
		if !found {
			t.Fatalf("FindHere(v) failed for %q", tt.json)
		}
		if child.Kind() != tt.want {
			t.Errorf("%q: expected kind %v, got %v", tt.json, tt.want, child.Kind())
		}
	}
}

func TestFindHere_MissingKey(t *testing.T) {
	root, _ := Parse([]byte(`{"a":1}`))
	_, found := root.FindHere("missing")
	if found {
		t.Error("expected FindHere to fail for a missing key")
	}
}

func TestFindHere_NonObjectFails(t *testing.T) {
	root, _ := Parse([]byte(`{"a":[1,2,3]}`))
	arr, _ := root.FindHere("a")
	_, found := arr.FindHere("x")
	if found {
		t.Error("FindHere on a non-object should always fail")
	}
}

func TestChildren_PreservesOrder(t *testing.T) {
	root, _ := Parse([]byte(`{"z":1,"a":2,"m":3}`))
	var names []string
	root.Children(func(c Value) bool {
		names = append(names, c.Name())
		return true
	})
	want := []string{"z", "a", "m"}
	if len(names) != len(want) {
		t.Fatalf("got %v, want %v", names, want)
	}
	for i := range want {
		if names[i] != want[i] {
			t.Errorf("position %d: got %q, want %q", i, names[i], want[i])
		}
	}
}

func TestChildren_StopsOnFalse(t *testing.T) {
	root, _ := Parse([]byte(`{"a":1,"b":2,"c":3}`))
	var seen int
	root.Children(func(c Value) bool {
		seen++
		return seen < 2
	})
	if seen != 2 {
		t.Errorf("expected Children to stop after the callback returns false, visited %d", seen)
	}
}

func TestFirstAndNext_ArrayIteration(t *testing.T) {
	root, _ := Parse([]byte(`{"items":["a","b","c"]}`))
	items, _ := root.FindHere("items")

	first, ok := items.First()
	if !ok || first.String() != "a" {
		t.Fatalf("First: got %q, ok=%v", first.String(), ok)
	}

	second, ok := Next(items, first)
	if !ok || second.String() != "b" {
		t.Fatalf("Next: got %q, ok=%v", second.String(), ok)
	}

	third, ok := Next(items, second)
	if !ok || third.String() != "c" {
		t.Fatalf("Next: got %q, ok=%v", third.String(), ok)
	}

	_, ok = Next(items, third)
	if ok {
		t.Error("Next past the last element should report false")
	}
}

func TestLen(t *testing.T) {
	root, _ := Parse([]byte(`{"items":[1,2,3,4]}`))
	items, _ := root.FindHere("items")
	if got := items.Len(); got != 4 {
		t.Errorf("Len: got %d, want 4", got)
	}
}

func TestSelf_ScalarRoundTrip(t *testing.T) {
	root, _ := Parse([]byte(`{"s":"hi","n":42,"f":3.5,"b":true}`))

	s, _ := root.FindHere("s")
	if s.Self() != "hi" {
		t.Errorf("string Self(): got %q", s.Self())
	}

	n, _ := root.FindHere("n")
	if n.Self() != "42" {
		t.Errorf("int Self(): got %q", n.Self())
	}

	f, _ := root.FindHere("f")
	if f.Self() != "3.5" {
		t.Errorf("float Self(): got %q", f.Self())
	}

	b, _ := root.FindHere("b")
	if b.Self() != "true" {
		t.Errorf("bool Self(): got %q", b.Self())
	}
}

func TestName_RootHasNoName(t *testing.T) {
	root, _ := Parse([]byte(`{"a":1}`))
	if root.Name() != "" {
		t.Errorf("root Name(): expected empty, got %q", root.Name())
	}
}

func TestName_ChildHasParentKey(t *testing.T) {
	root, _ := Parse([]byte(`{"a":{"b":1}}`))
	a, _ := root.FindHere("a")
	if a.Name() != "a" {
		t.Errorf("Name(): expected %q, got %q", "a", a.Name())
	}
}
