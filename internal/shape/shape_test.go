package shape

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestTS_Rendering(t *testing.T) {
	t.Parallel()
	cases := []struct {
		name string
		in   *Type
		want string
	}{
		{"absent", Absent(), "undefined"},
		{"never", Never(), "never"},
		{"void", Void(), "void"},
		{"literal", Literal("admin"), `"admin"`},
		{"array", ArrayOf(String()), "string[]"},
		{"array of union", ArrayOf(Union(String(), Number())), "(string | number)[]"},
		{"map", MapOf(Number()), "Record<string, number>"},
		{"empty object", Object(), "{}"},
		{"object sorted", Object(
			Field{Name: "name", Type: String()},
			Field{Name: "id", Type: Number()},
			Field{Name: "tag", Type: String(), Optional: true},
		), "{ id: number; name: string; tag?: string }"},
		{"quoted key", Object(Field{Name: "x-total", Type: Number()}), `{ "x-total": number }`},
		{"nullable", Nullable(String()), "string | null"},
		{"ref", Ref("Node"), "Node"},
	}
	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			if got := tc.in.TS(); got != tc.want {
				t.Fatalf("TS() = %q, want %q", got, tc.want)
			}
		})
	}
}

func TestUnion_FlattensAndDedupes(t *testing.T) {
	t.Parallel()
	u := Union(Literal("a"), Union(Literal("b"), Literal("a")), Literal("c"))
	if got := u.TS(); got != `"a" | "b" | "c"` {
		t.Fatalf("unexpected union %q", got)
	}
	if one := Union(String(), String()); one.Kind != KindString {
		t.Fatalf("single-variant union should collapse, got %v", one.Kind)
	}
	if none := Union(); !none.IsNever() {
		t.Fatalf("empty union should be never, got %v", none.Kind)
	}
}

func TestMerge_LaterWinsRequiredUnion(t *testing.T) {
	t.Parallel()
	a := Object(
		Field{Name: "x", Type: String()},
		Field{Name: "y", Type: String(), Optional: true},
	)
	b := Object(
		Field{Name: "x", Type: Number(), Optional: true},
		Field{Name: "z", Type: Boolean()},
	)
	got := Merge(a, b)
	want := Object(
		Field{Name: "x", Type: Number()},
		Field{Name: "y", Type: String(), Optional: true},
		Field{Name: "z", Type: Boolean()},
	)
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("merge mismatch (-want +got):\n%s", diff)
	}
}

func TestCheck_Object(t *testing.T) {
	t.Parallel()
	typ := Object(
		Field{Name: "id", Type: String()},
		Field{Name: "age", Type: Number(), Optional: true},
		Field{Name: "role", Type: Union(Literal("admin"), Literal("member"))},
		Field{Name: "tags", Type: ArrayOf(String()), Optional: true},
	)
	ok := map[string]any{"id": "a1", "role": "admin", "tags": []any{"x"}}
	if err := typ.Check("body", ok); err != nil {
		t.Fatalf("expected valid value, got %v", err)
	}
	bad := map[string]any{"age": "old", "role": "owner", "tags": []any{"x", 1.0}}
	err := typ.Check("body", bad)
	if err == nil {
		t.Fatalf("expected mismatch")
	}
	if !errors.Is(err, ErrMismatch) {
		t.Fatalf("expected ErrMismatch, got %v", err)
	}
	var ms Mismatches
	if !errors.As(err, &ms) {
		t.Fatalf("expected Mismatches, got %T", err)
	}
	joined := strings.Join(ms.Messages(), "\n")
	for _, want := range []string{"body.age", "body.id: expected string, got missing", "body.role", "body.tags[1]"} {
		if !strings.Contains(joined, want) {
			t.Fatalf("expected %q in messages:\n%s", want, joined)
		}
	}
}

func TestCheck_AbsentAndNever(t *testing.T) {
	t.Parallel()
	if err := Absent().Check("params", nil); err != nil {
		t.Fatalf("nil should satisfy absent: %v", err)
	}
	if err := Absent().Check("params", map[string]any{}); err != nil {
		t.Fatalf("empty object should satisfy absent: %v", err)
	}
	if err := Absent().Check("params", map[string]any{"x": 1.0}); err == nil {
		t.Fatalf("non-empty object should not satisfy absent")
	}
	if err := Never().Check("params", nil); err == nil {
		t.Fatalf("never must reject everything")
	}
	if err := Any().Check("params", []any{1.0}); err != nil {
		t.Fatalf("any must accept everything: %v", err)
	}
}

func TestCheckValue_GoStruct(t *testing.T) {
	t.Parallel()
	type params struct {
		ID    string `json:"id"`
		Limit int    `json:"limit,omitempty"`
	}
	typ := Object(
		Field{Name: "id", Type: String()},
		Field{Name: "limit", Type: Number(), Optional: true},
	)
	if err := typ.CheckValue("params", params{ID: "u1", Limit: 5}); err != nil {
		t.Fatalf("check: %v", err)
	}
	if err := typ.CheckValue("params", map[string]any{"id": 3}); err == nil {
		t.Fatalf("expected mismatch for numeric id")
	}
}

func TestJSONValue_UsesNumber(t *testing.T) {
	t.Parallel()
	got, err := JSONValue(map[string]any{"id": int64(9007199254740993), "ratio": 0.5})
	if err != nil {
		t.Fatalf("json value: %v", err)
	}
	want := map[string]any{"id": json.Number("9007199254740993"), "ratio": json.Number("0.5")}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("value (-want +got):\n%s", diff)
	}
	if err := Object(Field{Name: "id", Type: Number()}).Check("params", got); err != nil {
		t.Fatalf("json.Number should satisfy number: %v", err)
	}
	raw, err := JSONValue(json.RawMessage(`[1e3]`))
	if err != nil {
		t.Fatalf("raw: %v", err)
	}
	if diff := cmp.Diff([]any{json.Number("1e3")}, raw); diff != "" {
		t.Fatalf("raw (-want +got):\n%s", diff)
	}
}

func TestType_JSONRoundTrip(t *testing.T) {
	t.Parallel()
	in := Object(
		Field{Name: "items", Type: ArrayOf(Object(Field{Name: "n", Type: Nullable(Number())}))},
		Field{Name: "meta", Type: MapOf(String()), Optional: true},
	)
	b, err := json.Marshal(in)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var out Type
	if err := json.Unmarshal(b, &out); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if !in.Equal(&out) {
		t.Fatalf("round trip changed type: %s vs %s", in.TS(), out.TS())
	}
	if f, ok := out.Field("meta"); !ok || !f.Optional {
		t.Fatalf("expected optional meta field, got %+v %v", f, ok)
	}
}
