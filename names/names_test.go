package names

import (
	"github.com/rotblauer/trackclust/conceptual"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestSanitizeName(t *testing.T) {
	troublesome := ` QP1A 191005/007:A3 Pixel XL`
	want := "QP1A_191005_007_A3_Pixel_XL"
	got := SanitizeName(troublesome)
	if want != got {
		t.Errorf("got %s, want %s", got, want)
	}
}

func TestSanitizeName_PathElement(t *testing.T) {
	for in, want := range map[string]string{
		"..":       "_",
		"../etc":   "_etc",
		".hidden":  "hidden",
		"":         "_",
		"89c25.ok": "89c25.ok",
	} {
		if got := SanitizeName(in); got != want {
			t.Errorf("SanitizeName(%q) = %q, want %q", in, got, want)
		}
	}
}

// countingResolver counts lookups of the names it wraps.
type countingResolver struct {
	names Map
	calls int
}

func (r *countingResolver) Resolve(id conceptual.ObjectID) (string, bool) {
	r.calls++
	return r.names.Resolve(id)
}

func TestMap(t *testing.T) {
	m := Map{"a": "alpha", "b": ""}
	if name, ok := m.Resolve("a"); !ok || name != "alpha" {
		t.Errorf("got %q %v", name, ok)
	}
	if _, ok := m.Resolve("b"); ok {
		t.Error("empty names should not resolve")
	}
	if name, ok := m.Resolve("c"); ok || name != "" {
		t.Errorf("got %q %v", name, ok)
	}
	if _, ok := (Nop{}).Resolve("a"); ok {
		t.Error("nop resolved")
	}
}

func TestLoadMap(t *testing.T) {
	p := filepath.Join(t.TempDir(), "names.json")
	if err := os.WriteFile(p, []byte(`{"car-1": "Rye", "car-2": "Ia"}`), 0600); err != nil {
		t.Fatal(err)
	}
	m, err := LoadMap(p)
	if err != nil {
		t.Fatal(err)
	}
	if m["car-2"] != "Ia" {
		t.Errorf("got %v", m)
	}

	if err := os.WriteFile(p, []byte(`[1, 2]`), 0600); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadMap(p); err == nil {
		t.Error("expected decode error")
	}
}

func TestCached(t *testing.T) {
	next := &countingResolver{names: Map{"a": "alpha"}}
	c := NewCached(next, time.Minute)
	for i := 0; i < 3; i++ {
		if name, ok := c.Resolve("a"); !ok || name != "alpha" {
			t.Fatalf("got %q %v", name, ok)
		}
		if _, ok := c.Resolve("z"); ok {
			t.Fatal("z resolved")
		}
	}
	if next.calls != 2 {
		t.Errorf("got %d calls to the wrapped resolver, want 2", next.calls)
	}
	if c.Len() != 2 {
		t.Errorf("got %d cached, want 2", c.Len())
	}
}
