package object

import (
	"reflect"
	"testing"
)

func TestDescrValid(t *testing.T) {
	cases := []struct {
		descr string
		want  bool
	}{
		{"i", true},
		{"iub s", false}, // space is not a grammar token
		{"ius", true},
		{"Ai", true},
		{"A", false},
		{"(is)", true},
		{"()", false},
		{"(Ai)", true},
		{"A(is)", true},
		{"(i", false},
		{"i)", false},
		{"", true},
	}
	for _, c := range cases {
		if got := DescrValid(c.descr); got != c.want {
			t.Errorf("DescrValid(%q) = %v, want %v", c.descr, got, c.want)
		}
	}
}

func TestBuildParseRoundTrip(t *testing.T) {
	cases := []struct {
		name  string
		descr string
		args  []any
	}{
		{"scalar", "ius", []any{int32(-5), uint32(5), "hello"}},
		{"byte", "b", []any{byte(0xAB)}},
		{"array", "Ai", []any{Array{int32(1), int32(2), int32(3)}}},
		{"struct", "(is)", []any{Struct{int32(7), "x"}}},
		{"nested", "A(is)", []any{Array{Struct{int32(1), "a"}, Struct{int32(2), "b"}}}},
		{"empty array", "Ai", []any{Array{}}},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			obj, err := Build(c.descr, c.args...)
			if err != nil {
				t.Fatalf("Build: %v", err)
			}
			got, err := obj.Parse(c.descr)
			if err != nil {
				t.Fatalf("Parse: %v", err)
			}
			if !reflect.DeepEqual(got, c.args) {
				t.Errorf("round trip mismatch: got %#v, want %#v", got, c.args)
			}
		})
	}
}

func TestRawDataRoundTrip(t *testing.T) {
	raw := []byte{1, 2, 3, 4, 5}
	o := FromBuf(raw)
	if !reflect.DeepEqual(o.RawData(), raw) {
		t.Errorf("RawData mismatch: got %v, want %v", o.RawData(), raw)
	}
	if o.RawSize() != len(raw) {
		t.Errorf("RawSize = %d, want %d", o.RawSize(), len(raw))
	}
}

func TestBuildWrongArgType(t *testing.T) {
	if _, err := Build("i", "not an int"); err == nil {
		t.Fatal("expected error for mismatched argument type")
	}
}

func TestParseTruncated(t *testing.T) {
	o := FromBuf([]byte{1, 2})
	if _, err := o.Parse("i"); err == nil {
		t.Fatal("expected error parsing truncated buffer")
	}
}

func TestParseUnterminatedString(t *testing.T) {
	o := FromBuf([]byte{'h', 'i'})
	if _, err := o.Parse("s"); err == nil {
		t.Fatal("expected error for unterminated string")
	}
}

func TestRewind(t *testing.T) {
	obj, err := Build("is", int32(42), "hi")
	if err != nil {
		t.Fatal(err)
	}
	first, err := obj.Parse("is")
	if err != nil {
		t.Fatal(err)
	}
	obj.Rewind()
	second, err := obj.Parse("is")
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(first, second) {
		t.Errorf("rewind produced different values: %#v vs %#v", first, second)
	}
}

func TestRepr(t *testing.T) {
	obj, err := Build("isAi", int32(1), "hello", Array{int32(1), int32(2)})
	if err != nil {
		t.Fatal(err)
	}
	got, err := obj.Repr("isAi")
	if err != nil {
		t.Fatal(err)
	}
	want := `(1, "hello", [1, 2])`
	if got != want {
		t.Errorf("Repr = %q, want %q", got, want)
	}
}
