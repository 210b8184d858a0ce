package edgewasm

import "testing"

func TestOpenDictionary_NoMatchReturnsInvalid(t *testing.T) {
	i := &Instance{}

	if h := i.openDictionary("missing"); h != handleInvalid {
		t.Errorf("expected handleInvalid, got %d", h)
	}
}

func TestOpenDictionary_SameNameTwiceProducesIndependentSnapshots(t *testing.T) {
	calls := 0
	i := &Instance{
		dictionaryConfig: []namedDictionary{
			{name: "animals", get: func(key string) string {
				calls++
				if key == "dog" {
					return "bark"
				}
				return ""
			}},
		},
	}

	h1 := i.openDictionary("animals")
	h2 := i.openDictionary("animals")

	if h1 == h2 {
		t.Fatalf("expected independent handles for repeated opens, got the same: %d", h1)
	}

	d1 := i.getDictionary(h1)
	d2 := i.getDictionary(h2)
	if d1 == nil || d2 == nil {
		t.Fatal("expected both handles to resolve")
	}
	if d1.get("dog") != "bark" || d2.get("dog") != "bark" {
		t.Errorf("expected both snapshots to answer lookups identically")
	}
}

func TestGetDictionary_OutOfRangeReturnsNil(t *testing.T) {
	i := &Instance{}
	if i.getDictionary(0) != nil {
		t.Errorf("expected nil for an empty session vector")
	}
	if i.getDictionary(-1) != nil {
		t.Errorf("expected nil for a negative handle")
	}
}
