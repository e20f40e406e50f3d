package vdom

import "testing"

func TestPropsEqual(t *testing.T) {
	tests := []struct {
		name string
		a, b any
		want bool
	}{
		{"same string", "a", "a", true},
		{"different string", "a", "b", false},
		{"int vs float", 1, 1.0, false},
		{"both nil", nil, nil, true},
		{"nil vs value", nil, 0, false},
		{"equal maps", map[string]any{"w": 1}, map[string]any{"w": 1}, true},
		{"different maps", map[string]any{"w": 1}, map[string]any{"w": 2}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := PropsEqual(tt.a, tt.b); got != tt.want {
				t.Errorf("PropsEqual(%v, %v) = %v, want %v", tt.a, tt.b, got, tt.want)
			}
		})
	}
}

func TestShallowEqual(t *testing.T) {
	nested := map[string]any{"x": 1}
	list := []any{1, 2}
	ids := []int{7, 8}

	type query struct {
		name string
		ids  []int
		opts any
	}

	tests := []struct {
		name string
		a, b any
		want bool
	}{
		{"scalars", 3, 3, true},
		{"same contents new map", map[string]any{"a": 1, "b": 2}, map[string]any{"a": 1, "b": 2}, true},
		{"changed value", map[string]any{"a": 1, "b": 2}, map[string]any{"a": 1, "b": 3}, false},
		{"extra key", map[string]any{"a": 1}, map[string]any{"a": 1, "b": 2}, false},
		{"shared nested map", map[string]any{"n": nested}, map[string]any{"n": nested}, true},
		{"equal but distinct nested maps", map[string]any{"n": map[string]any{"x": 1}}, map[string]any{"n": map[string]any{"x": 1}}, false},
		{"slices same contents", []any{1, "a"}, []any{1, "a"}, true},
		{"slices different length", []any{1}, []any{1, 2}, false},
		{"shared nested slice", []any{list}, []any{list}, true},
		{"different types", map[string]any{}, Props{}, false},
		{"struct sharing a slice", query{"a", ids, list}, query{"a", ids, list}, true},
		{"struct with distinct slices", query{"a", []int{7, 8}, nil}, query{"a", []int{7, 8}, nil}, false},
		{"struct field changed", query{"a", ids, nil}, query{"b", ids, nil}, false},
		{"struct interface field", query{opts: 1}, query{opts: 1}, true},
		{"nil vs nil", nil, nil, true},
		{"nil vs map", nil, map[string]any{}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ShallowEqual(tt.a, tt.b); got != tt.want {
				t.Errorf("ShallowEqual() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestIdentical(t *testing.T) {
	m := map[string]any{}
	if !Identical(m, m) {
		t.Error("a map should be identical to itself")
	}
	if Identical(map[string]any{}, map[string]any{}) {
		t.Error("distinct maps should not be identical")
	}

	type holder struct{ v any }
	// == on structs holding uncomparable values panics; Identical must not.
	if Identical(holder{v: []int{1}}, holder{v: []int{1}}) {
		t.Error("structs holding slices should not be identical")
	}
	if !Identical(holder{v: 1}, holder{v: 1}) {
		t.Error("comparable structs with equal fields should be identical")
	}
}
