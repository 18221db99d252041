package render

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/cavalo-mORTO/kore-mustach/internal/jsonval"
	"github.com/cavalo-mORTO/kore-mustach/internal/lambda"
	"github.com/cavalo-mORTO/kore-mustach/internal/partial"
)

func TestEnter_ObjectSection(t *testing.T) {
	root := parseRoot(t, `{"a":{"b":1}}`)
	s, _ := New(root, 0, nil, nil)
	ok, err := s.Enter("a")
	if err != nil || !ok {
		t.Fatalf("Enter: ok=%v err=%v", ok, err)
	}
	if s.current.Kind() != jsonval.KindObject {
		t.Errorf("expected current to be the entered object, got %v", s.current.Kind())
	}
}

func TestEnter_MissingKeyIsOmitted(t *testing.T) {
	root := parseRoot(t, `{}`)
	s, _ := New(root, 0, nil, nil)
	ok, err := s.Enter("missing")
	if err != nil {
		t.Fatalf("Enter returned an error for a missing key: %v", err)
	}
	if ok {
		t.Error("expected Enter to report omission, not membership")
	}
	if s.Depth() != 0 {
		t.Errorf("expected depth to be restored to 0 on omission, got %d", s.Depth())
	}
}

func TestEnter_FalseLiteralIsOmitted(t *testing.T) {
	root := parseRoot(t, `{"a":false}`)
	s, _ := New(root, 0, nil, nil)
	ok, _ := s.Enter("a")
	if ok {
		t.Error("a false section value should be omitted")
	}
}

func TestEnter_EmptyArrayIsOmitted(t *testing.T) {
	root := parseRoot(t, `{"a":[]}`)
	s, _ := New(root, 0, nil, nil)
	ok, _ := s.Enter("a")
	if ok {
		t.Error("an empty array section should be omitted")
	}
}

func TestEnter_NonEmptyArrayEntersFirstElement(t *testing.T) {
	root := parseRoot(t, `{"a":[1,2,3]}`)
	s, _ := New(root, 0, nil, nil)
	ok, err := s.Enter("a")
	if err != nil || !ok {
		t.Fatalf("Enter: ok=%v err=%v", ok, err)
	}
	if s.current.Float() != 1 {
		t.Errorf("expected current to be the first element, got %v", s.current.Self())
	}
}

func TestEnter_TooDeepFails(t *testing.T) {
	root := parseRoot(t, `{}`)
	s, _ := New(root, 0, nil, nil)
	s.depth = MaxDepth - 1
	_, err := s.Enter("a")
	if err != CodeTooDeep {
		t.Errorf("expected CodeTooDeep, got %v", err)
	}
}

func TestEnter_ObjectIterationWithFlag(t *testing.T) {
	root := parseRoot(t, `{"x":1,"y":2}`)
	s, _ := New(root, FlagObjectIter, nil, nil)
	ok, err := s.Enter("*")
	if err != nil || !ok {
		t.Fatalf("Enter: ok=%v err=%v", ok, err)
	}
	if s.current.Name() != "x" {
		t.Errorf("expected first field 'x', got %q", s.current.Name())
	}
}

func TestEnter_ObjectIterationWithoutFlagFails(t *testing.T) {
	root := parseRoot(t, `{"x":1}`)
	s, _ := New(root, 0, nil, nil)
	ok, err := s.Enter("*")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ok {
		t.Error("object iteration should not trigger without FlagObjectIter")
	}
}

func TestEnter_BadUnescapeIsFatal(t *testing.T) {
	root := parseRoot(t, `{}`)
	s, _ := New(root, FlagJSONPointer, nil, nil)
	_, err := s.Enter("a~")
	if err != CodeBadUnescape {
		t.Errorf("expected CodeBadUnescape, got %v", err)
	}
}

func TestNext_AdvancesArrayIteration(t *testing.T) {
	root := parseRoot(t, `{"a":[1,2]}`)
	s, _ := New(root, 0, nil, nil)
	s.Enter("a")
	if s.current.Float() != 1 {
		t.Fatalf("expected first element 1, got %v", s.current.Self())
	}
	if !s.Next() {
		t.Fatal("expected Next to advance to the second element")
	}
	if s.current.Float() != 2 {
		t.Errorf("expected second element 2, got %v", s.current.Self())
	}
	if s.Next() {
		t.Error("expected Next to report exhaustion after the last element")
	}
}

func TestNext_NonIterateFrameReturnsFalse(t *testing.T) {
	root := parseRoot(t, `{"a":{"b":1}}`)
	s, _ := New(root, 0, nil, nil)
	s.Enter("a")
	if s.Next() {
		t.Error("a non-iterating (plain object) section should not advance")
	}
}

func TestLeave_RestoresContextAndDepth(t *testing.T) {
	root := parseRoot(t, `{"a":{"b":1}}`)
	s, _ := New(root, 0, nil, nil)
	s.Enter("a")
	if err := s.Leave(); err != nil {
		t.Fatalf("Leave: %v", err)
	}
	if s.Depth() != 0 {
		t.Errorf("expected depth 0 after Leave, got %d", s.Depth())
	}
	if s.current.Kind() != jsonval.KindObject || s.current.Name() != "" {
		t.Error("expected current to be restored to the root")
	}
}

func TestLeave_UnderflowIsFatal(t *testing.T) {
	root := parseRoot(t, `{}`)
	s, _ := New(root, 0, nil, nil)
	if err := s.Leave(); err != CodeBadClose {
		t.Errorf("expected CodeBadClose when leaving past the root frame, got %v", err)
	}
}

func TestLeave_FlushesLambdaCapture(t *testing.T) {
	lr := lambda.New()
	lr.Bind("shout", func(root, current jsonval.Value, buf *bytes.Buffer) error {
		buf.Reset()
		buf.WriteString("SHOUTED")
		return nil
	})
	root := parseRoot(t, `{"a":"(=>)"}`)
	s, _ := New(root, 0, nil, lr)
	ok, err := s.Enter("a")
	if err != nil || !ok {
		t.Fatalf("Enter: ok=%v err=%v", ok, err)
	}
	s.Emit([]byte("ignored body"), false)
	if err := s.Leave(); err != nil {
		t.Fatalf("Leave: %v", err)
	}
	if s.Result() == nil || string(s.Result()) != "SHOUTED" {
		t.Errorf("expected the lambda's transformed output, got %q", s.Result())
	}
}

func TestGet_PlainField(t *testing.T) {
	root := parseRoot(t, `{"name":"Ada"}`)
	s, _ := New(root, 0, nil, nil)
	got, err := s.Get("name")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got != "Ada" {
		t.Errorf("got %q", got)
	}
}

func TestGet_MissingFieldIsEmpty(t *testing.T) {
	root := parseRoot(t, `{}`)
	s, _ := New(root, 0, nil, nil)
	got, err := s.Get("missing")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got != "" {
		t.Errorf("expected empty string, got %q", got)
	}
}

func TestGet_SingleDotWithFlag(t *testing.T) {
	root := parseRoot(t, `{"a":[10,20]}`)
	s, _ := New(root, FlagSingleDot, nil, nil)
	s.Enter("a")
	got, err := s.Get(".")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got != "10" {
		t.Errorf("expected self value of the current context, got %q", got)
	}
}

func TestGet_SingleDotWithoutFlagFallsThroughToKeyLookup(t *testing.T) {
	root := parseRoot(t, `{".":"literal-dot-key"}`)
	s, _ := New(root, 0, nil, nil)
	got, err := s.Get(".")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got != "" {
		t.Errorf("expected %q to be parsed as a key path separator, not the literal key or self value, got %q", ".", got)
	}
}

func TestGet_ObjectIterationNameWithFlag(t *testing.T) {
	root := parseRoot(t, `{"x":1}`)
	s, _ := New(root, FlagObjectIter, nil, nil)
	s.Enter("*")
	got, err := s.Get("*")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got != "x" {
		t.Errorf("expected the current field's name 'x', got %q", got)
	}
}

func TestGet_TinyExprFallback(t *testing.T) {
	root := parseRoot(t, `{"a":2,"b":3}`)
	s, _ := New(root, FlagTinyExpr, nil, nil)
	got, err := s.Get("a + b")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got != "5" {
		t.Errorf("expected arithmetic fallback to evaluate to 5, got %q", got)
	}
}

func TestGet_TinyExprDisabledWithoutFlag(t *testing.T) {
	root := parseRoot(t, `{"a":2,"b":3}`)
	s, _ := New(root, 0, nil, nil)
	got, err := s.Get("a + b")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got != "" {
		t.Errorf("expected no arithmetic fallback without FlagTinyExpr, got %q", got)
	}
}

func TestGet_LambdaInvokedForPlainGet(t *testing.T) {
	lr := lambda.New()
	lr.Bind("greet", func(root, current jsonval.Value, buf *bytes.Buffer) error {
		buf.WriteString("hello")
		return nil
	})
	root := parseRoot(t, `{"greet":"(=>)"}`)
	s, _ := New(root, 0, nil, lr)
	got, err := s.Get("greet")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got != "hello" {
		t.Errorf("got %q", got)
	}
}

func TestGet_BadUnescapeIsFatal(t *testing.T) {
	root := parseRoot(t, `{}`)
	s, _ := New(root, FlagJSONPointer, nil, nil)
	_, err := s.Get("a~")
	if err != CodeBadUnescape {
		t.Errorf("expected CodeBadUnescape, got %v", err)
	}
}

func TestPartial_FetchesFromRegistryWithFlag(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "header.mustache")
	if err := os.WriteFile(path, []byte("<h1>hi</h1>"), 0o644); err != nil {
		t.Fatal(err)
	}
	pr := partial.New()
	if err := pr.Bind([]string{path}, partial.BindOptions{}); err != nil {
		t.Fatal(err)
	}

	root := parseRoot(t, `{}`)
	s, _ := New(root, FlagIncPartial, pr, nil)
	text, release, err := s.Partial(path)
	if err != nil {
		t.Fatalf("Partial: %v", err)
	}
	defer release()
	if text != "<h1>hi</h1>" {
		t.Errorf("got %q", text)
	}
}

func TestPartial_RegistryFallbackRequiresFlag(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "header.mustache")
	if err := os.WriteFile(path, []byte("<h1>hi</h1>"), 0o644); err != nil {
		t.Fatal(err)
	}
	pr := partial.New()
	if err := pr.Bind([]string{path}, partial.BindOptions{}); err != nil {
		t.Fatal(err)
	}

	root := parseRoot(t, `{}`)
	s, _ := New(root, 0, pr, nil) // no FlagIncPartial
	text, release, err := s.Partial(path)
	if err != nil {
		t.Fatalf("Partial: %v", err)
	}
	defer release()
	if text != "" {
		t.Errorf("expected the registry fallback to stay disabled without FlagIncPartial, got %q", text)
	}
}

func TestPartial_NotFoundIsNonFatal(t *testing.T) {
	pr := partial.New()
	root := parseRoot(t, `{}`)
	s, _ := New(root, FlagIncPartial, pr, nil)
	text, release, err := s.Partial("/does/not/exist")
	if err != nil {
		t.Fatalf("expected a not-found partial to be non-fatal, got error: %v", err)
	}
	defer release()
	if text != "" {
		t.Errorf("expected empty text for a missing partial, got %q", text)
	}
}

func TestPartial_NilRegistryIsNonFatal(t *testing.T) {
	root := parseRoot(t, `{}`)
	s, _ := New(root, FlagIncPartial, nil, nil)
	text, release, err := s.Partial("anything")
	if err != nil {
		t.Fatalf("expected nil partial registry to be non-fatal, got error: %v", err)
	}
	defer release()
	if text != "" {
		t.Errorf("expected empty text with no registry, got %q", text)
	}
}

func TestPartial_InlineDataLookupIsUnconditional(t *testing.T) {
	root := parseRoot(t, `{"name":"inline body"}`)
	s, _ := New(root, 0, nil, nil) // no FlagIncPartial
	text, release, err := s.Partial("name")
	if err != nil {
		t.Fatalf("Partial: %v", err)
	}
	defer release()
	if text != "inline body" {
		t.Errorf("expected the in-data lookup to run unconditionally, got %q", text)
	}
}

func TestPartial_InlineDataWinsOverRegistry(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "name")
	if err := os.WriteFile(path, []byte("from disk"), 0o644); err != nil {
		t.Fatal(err)
	}
	pr := partial.New()
	if err := pr.Bind([]string{path}, partial.BindOptions{}); err != nil {
		t.Fatal(err)
	}

	root := parseRoot(t, `{"name":"inline body"}`)
	s, _ := New(root, FlagIncPartial, pr, nil)
	text, release, err := s.Partial("name")
	if err != nil {
		t.Fatalf("Partial: %v", err)
	}
	defer release()
	if text != "inline body" {
		t.Errorf("expected the in-data value to win over the filesystem registry, got %q", text)
	}
}

func TestEmit_EscapesWhenRequested(t *testing.T) {
	root := parseRoot(t, `{}`)
	s, _ := New(root, 0, nil, nil)
	s.Emit([]byte("<b>"), true)
	if string(s.Result()) != "&lt;b&gt;" {
		t.Errorf("got %q", s.Result())
	}
}

func TestEmit_PassesThroughUnescaped(t *testing.T) {
	root := parseRoot(t, `{}`)
	s, _ := New(root, 0, nil, nil)
	s.Emit([]byte("<b>"), false)
	if string(s.Result()) != "<b>" {
		t.Errorf("got %q", s.Result())
	}
}

func TestEmit_WritesIntoOpenLambdaCapture(t *testing.T) {
	lr := lambda.New()
	lr.Bind("noop", func(root, current jsonval.Value, buf *bytes.Buffer) error { return nil })
	root := parseRoot(t, `{"a":"(=>)"}`)
	s, _ := New(root, 0, nil, lr)
	s.Enter("a")
	s.Emit([]byte("captured"), false)
	if s.stack[s.depth].lambda.capture.String() != "captured" {
		t.Errorf("expected Emit to target the open lambda's capture buffer")
	}
	s.Leave()
}
