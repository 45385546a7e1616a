package sqlname

import (
	"errors"
	"testing"
)

func TestTable(t *testing.T) {
	valid := []string{"eventqueue_kv", "schema.eventqueue_kv", "KV_1"}
	for _, name := range valid {
		if _, err := Table(name); err != nil {
			t.Fatalf("expected valid name %q: %v", name, err)
		}
	}

	invalid := []string{"kv;drop", "kv-1", "schema..kv", "schema.kv;", "kv name"}
	for _, name := range invalid {
		if _, err := Table(name); !errors.Is(err, ErrInvalid) {
			t.Fatalf("expected invalid name %q, got %v", name, err)
		}
	}

	if _, err := Table(""); !errors.Is(err, ErrRequired) {
		t.Fatalf("expected ErrRequired, got %v", err)
	}
}
