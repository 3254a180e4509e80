// SPDX-License-Identifier: MPL-2.0

package refgraph

import (
	"errors"
	"reflect"
	"testing"
)

func TestGraph_Order(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		build     func(g *Graph[string])
		want      []string
		wantCycle []string
	}{
		{
			name:  "empty",
			build: func(*Graph[string]) {},
			want:  []string{},
		},
		{
			name: "chain",
			build: func(g *Graph[string]) {
				g.AddEdge("core", "lib")
				g.AddEdge("lib", "app")
			},
			want: []string{"core", "lib", "app"},
		},
		{
			name: "independent nodes keep insertion order",
			build: func(g *Graph[string]) {
				g.AddNode("b")
				g.AddNode("a")
				g.AddNode("c")
				g.AddNode("a")
			},
			want: []string{"b", "a", "c"},
		},
		{
			name: "diamond",
			build: func(g *Graph[string]) {
				g.AddEdge("core", "left")
				g.AddEdge("core", "right")
				g.AddEdge("left", "app")
				g.AddEdge("right", "app")
			},
			want: []string{"core", "left", "right", "app"},
		},
		{
			name: "cycle",
			build: func(g *Graph[string]) {
				g.AddNode("free")
				g.AddEdge("a", "b")
				g.AddEdge("b", "a")
				g.AddEdge("b", "downstream")
			},
			want:      []string{"free"},
			wantCycle: []string{"a", "b", "downstream"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			g := New[string]()
			tt.build(g)
			got, err := g.Order()
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Order() = %v, want %v", got, tt.want)
			}

			if tt.wantCycle == nil {
				if err != nil {
					t.Errorf("Order() unexpected error: %v", err)
				}
				return
			}
			var cycleErr *CycleError[string]
			if !errors.As(err, &cycleErr) {
				t.Fatalf("Order() error = %v, want *CycleError", err)
			}
			if !reflect.DeepEqual(cycleErr.Nodes, tt.wantCycle) {
				t.Errorf("CycleError.Nodes = %v, want %v", cycleErr.Nodes, tt.wantCycle)
			}
		})
	}
}

func TestCycleError_Error(t *testing.T) {
	t.Parallel()

	err := &CycleError[int]{Nodes: []int{1, 2}}
	if got := err.Error(); got != "reference cycle among: 1, 2" {
		t.Errorf("Error() = %q", got)
	}
}
