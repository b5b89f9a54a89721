package orientation

import "testing"

func TestParseNameRoundTripsWithName(t *testing.T) {
	for _, o := range All() {
		got, err := ParseName(o.Name())
		if err != nil {
			t.Fatalf("ParseName(%q): %v", o.Name(), err)
		}
		if got != o {
			t.Fatalf("ParseName(%q) = %v, want %v", o.Name(), got, o)
		}
	}
}

func TestParseNameRejectsUnknown(t *testing.T) {
	if _, err := ParseName("nowhere"); err == nil {
		t.Fatal("expected an error for an unknown orientation name")
	}
}
