package adapter

import "testing"

func TestRegistrySources(t *testing.T) {
	reg := NewRegistry()

	for _, source := range []string{"goldsky", "quicknode", "stream"} {
		if _, ok := reg.Get(source); !ok {
			t.Errorf("Get(%q) not registered", source)
		}
	}

	if _, ok := reg.Get("alchemy"); ok {
		t.Error("Get(\"alchemy\") = registered, want missing")
	}

	if _, err := reg.Normalize("alchemy", []byte(`[]`)); err == nil {
		t.Error("Normalize() with unknown source = nil error, want error")
	}
}
