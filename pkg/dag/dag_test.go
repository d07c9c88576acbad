package dag

import (
	"errors"
	"slices"
	"testing"
)

func build(t *testing.T, ids []string, edges [][2]string) *DAG {
	t.Helper()
	g := New(nil)
	for _, id := range ids {
		if err := g.AddNode(Node{ID: id}); err != nil {
			t.Fatalf("AddNode(%q): %v", id, err)
		}
	}
	for _, e := range edges {
		if err := g.AddEdge(Edge{From: e[0], To: e[1]}); err != nil {
			t.Fatalf("AddEdge(%q, %q): %v", e[0], e[1], err)
		}
	}
	return g
}

func TestAddNode_Errors(t *testing.T) {
	g := New(nil)
	if err := g.AddNode(Node{}); !errors.Is(err, ErrInvalidNodeID) {
		t.Errorf("AddNode(empty) = %v, want ErrInvalidNodeID", err)
	}
	_ = g.AddNode(Node{ID: "a"})
	if err := g.AddNode(Node{ID: "a"}); !errors.Is(err, ErrDuplicateNodeID) {
		t.Errorf("AddNode(dup) = %v, want ErrDuplicateNodeID", err)
	}
	if n, _ := g.Node("a"); n.Meta == nil {
		t.Error("Meta should be initialized")
	}
}

func TestAddEdge_Errors(t *testing.T) {
	g := build(t, []string{"a"}, nil)
	if err := g.AddEdge(Edge{From: "x", To: "a"}); !errors.Is(err, ErrUnknownSourceNode) {
		t.Errorf("AddEdge(unknown from) = %v, want ErrUnknownSourceNode", err)
	}
	if err := g.AddEdge(Edge{From: "a", To: "x"}); !errors.Is(err, ErrUnknownTargetNode) {
		t.Errorf("AddEdge(unknown to) = %v, want ErrUnknownTargetNode", err)
	}
}

func TestAddEdge_Duplicate(t *testing.T) {
	g := build(t, []string{"a", "b"}, [][2]string{{"a", "b"}, {"a", "b"}})
	if g.EdgeCount() != 1 {
		t.Errorf("EdgeCount() = %d, want 1", g.EdgeCount())
	}
	if got := g.Parents("b"); !slices.Equal(got, []string{"a"}) {
		t.Errorf("Parents(b) = %v, want [a]", got)
	}
}

func TestReachable(t *testing.T) {
	tests := []struct {
		name  string
		ids   []string
		edges [][2]string
		from  string
		want  []string
	}{
		{
			name: "chain",
			ids:  []string{"a", "b", "c"},
			edges: [][2]string{
				{"a", "b"}, {"b", "c"},
			},
			from: "a",
			want: []string{"b", "c"},
		},
		{
			name: "diamond",
			ids:  []string{"a", "b", "c", "d"},
			edges: [][2]string{
				{"a", "b"}, {"a", "c"}, {"b", "d"}, {"c", "d"},
			},
			from: "a",
			want: []string{"b", "c", "d"},
		},
		{
			name: "cycle back to root",
			ids:  []string{"a", "b", "c"},
			edges: [][2]string{
				{"a", "b"}, {"b", "c"}, {"c", "a"},
			},
			from: "a",
			want: []string{"b", "c"},
		},
		{
			name: "leaf",
			ids:  []string{"a", "b"},
			edges: [][2]string{
				{"a", "b"},
			},
			from: "b",
			want: nil,
		},
		{
			name: "unknown",
			ids:  []string{"a"},
			from: "zzz",
			want: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := build(t, tt.ids, tt.edges)
			if got := g.Reachable(tt.from); !slices.Equal(got, tt.want) {
				t.Errorf("Reachable(%q) = %v, want %v", tt.from, got, tt.want)
			}
		})
	}
}

func TestSources(t *testing.T) {
	g := build(t, []string{"app", "cli", "shared"}, [][2]string{
		{"app", "shared"}, {"cli", "shared"},
	})
	got := NodeIDs(g.Sources())
	if !slices.Equal(got, []string{"app", "cli"}) {
		t.Errorf("Sources() = %v, want [app cli]", got)
	}
}

func TestValidate(t *testing.T) {
	acyclic := build(t, []string{"a", "b", "c"}, [][2]string{{"a", "b"}, {"b", "c"}})
	if err := acyclic.Validate(); err != nil {
		t.Errorf("Validate() = %v, want nil", err)
	}

	cyclic := build(t, []string{"a", "b"}, [][2]string{{"a", "b"}, {"b", "a"}})
	if err := cyclic.Validate(); !errors.Is(err, ErrGraphHasCycle) {
		t.Errorf("Validate() = %v, want ErrGraphHasCycle", err)
	}
}
