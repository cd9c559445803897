package repl

import (
	"reflect"
	"testing"
)

func TestCompleter_Complete(t *testing.T) {
	c := NewCompleter("models", "models list", "models get", "status", "send pause", "send resume")

	tests := []struct {
		prefix string
		want   []string
	}{
		{"models ", []string{"models get", "models list"}},
		{"send r", []string{"send resume"}},
		{"s", []string{"send pause", "send resume", "status"}},
		{"h", []string{"help", "history"}},
		{"xyz", nil},
	}

	for _, tt := range tests {
		t.Run(tt.prefix, func(t *testing.T) {
			if got := c.Complete(tt.prefix); !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Complete(%q) = %v, want %v", tt.prefix, got, tt.want)
			}
		})
	}
}

func TestCompleter_EmptyPrefixListsAll(t *testing.T) {
	c := NewCompleter("status")
	got := c.Complete("")
	if len(got) != 1+len(builtins) {
		t.Errorf("Complete(\"\") = %v", got)
	}
}
