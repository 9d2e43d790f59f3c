package shadermount

import (
	"errors"
	"slices"
	"testing"
)

func updateNames(set UpdateSet) []string {
	var names []string
	for _, u := range set.Updates {
		names = append(names, u.Name)
	}
	return names
}

func TestReconcile(t *testing.T) {
	tex := &TextureBinding{Width: 2, Height: 2}
	slots := NewSlots([]UniformDecl{
		{Name: "u_a", Kind: KindFloat},
		{Name: "u_b", Kind: KindVec2},
		{Name: "u_c", Kind: KindVec4},
		{Name: "u_list", Kind: KindVec4, ArrayLen: 3},
		{Name: "u_listCount", Kind: KindFloat},
		{Name: "u_tex", Kind: KindTexture},
		{Name: "u_time", Kind: KindFloat},
	})
	base := func() *Snapshot {
		s := NewSnapshot()
		s.SetBuiltin("u_time", Float(1))
		s.Set("u_a", Float(1))
		s.Set("u_b", Vec2{1, 2})
		s.Set("u_c", Color{R: 1, A: 1})
		s.Set("u_list", ColorList{{R: 1, A: 1}, {B: 1, A: 1}})
		s.Set("u_tex", tex)
		return s
	}

	tests := []struct {
		name   string
		prev   *Snapshot
		change func(s *Snapshot)
		want   []string
	}{
		{"nil prev uploads all", nil, nil, []string{"u_time", "u_a", "u_b", "u_c", "u_list", "u_tex"}},
		{"no change", base(), nil, nil},
		{"single scalar", base(), func(s *Snapshot) { s.Set("u_a", Float(2)) }, []string{"u_a"}},
		{"vector component", base(), func(s *Snapshot) { s.Set("u_b", Vec2{1, 3}) }, []string{"u_b"}},
		{"color alpha", base(), func(s *Snapshot) { s.Set("u_c", Color{R: 1, A: 0.5}) }, []string{"u_c"}},
		{"equal list new slice", base(), func(s *Snapshot) {
			s.Set("u_list", ColorList{{R: 1, A: 1}, {B: 1, A: 1}})
		}, nil},
		{"list element", base(), func(s *Snapshot) {
			s.Set("u_list", ColorList{{R: 1, A: 1}, {G: 1, A: 1}})
		}, []string{"u_list"}},
		{"list length", base(), func(s *Snapshot) {
			s.Set("u_list", ColorList{{R: 1, A: 1}})
		}, []string{"u_list"}},
		{"new texture binding", base(), func(s *Snapshot) {
			s.Set("u_tex", &TextureBinding{Width: 2, Height: 2})
		}, []string{"u_tex"}},
		{"time and scalar keep next order", base(), func(s *Snapshot) {
			s.Set("u_a", Float(9))
			s.SetBuiltin("u_time", Float(2))
		}, []string{"u_time", "u_a"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			next := base()
			if tt.change != nil {
				tt.change(next)
			}
			set := Reconcile(tt.prev, next, slots)
			if len(set.Warnings) != 0 {
				t.Errorf("warnings = %v", set.Warnings)
			}
			if got := updateNames(set); !slices.Equal(got, tt.want) {
				t.Errorf("updates = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestReconcileColorListCount(t *testing.T) {
	slots := NewSlots([]UniformDecl{
		{Name: "u_list", Kind: KindVec4, ArrayLen: 4},
		{Name: "u_listCount", Kind: KindFloat},
		{Name: "u_other", Kind: KindVec4, ArrayLen: 4},
	})
	next := NewSnapshot()
	next.Set("u_list", ColorList{Black, White})
	next.Set("u_other", ColorList{Black})

	set := Reconcile(nil, next, slots)
	if set.Len() != 2 {
		t.Fatalf("Len = %d, want 2", set.Len())
	}
	u := set.Updates[0]
	if u.Count == nil || u.Count.Name != "u_listCount" || u.CountValue() != 2 {
		t.Errorf("list update = %+v, want count u_listCount = 2", u)
	}
	if set.Updates[1].Count != nil {
		t.Error("list without a count uniform must not carry one")
	}
}

func TestReconcileTruncatesLongList(t *testing.T) {
	slots := NewSlots([]UniformDecl{{Name: "u_list", Kind: KindVec4, ArrayLen: 2}})
	next := NewSnapshot()
	next.Set("u_list", ColorList{Black, White, Transparent})

	set := Reconcile(nil, next, slots)
	if len(set.Warnings) != 1 {
		t.Fatalf("warnings = %v, want 1", set.Warnings)
	}
	if got := set.Updates[0].Value.(ColorList); len(got) != 2 {
		t.Errorf("uploaded %d colors, want 2", len(got))
	}

	// Committing the truncated list makes the next pass a no-op.
	prev := NewSnapshot()
	prev.Set("u_list", set.Updates[0].Value)
	if again := Reconcile(prev, next, slots); again.Len() != 0 {
		t.Errorf("updates after commit = %v", updateNames(again))
	}
}

func TestReconcileWarnings(t *testing.T) {
	slots := NewSlots([]UniformDecl{
		{Name: "u_a", Kind: KindFloat},
		{Name: "u_v", Kind: KindVec4, ArrayLen: 2},
	})
	next := NewSnapshot()
	next.Set("u_missing", Float(1))
	next.SetBuiltin("u_resolution", Vec2{1, 1})
	next.Set("u_a", Vec2{1, 1})
	next.Set("u_v", Black)

	set := Reconcile(nil, next, slots)
	if set.Len() != 0 {
		t.Errorf("updates = %v, want none", updateNames(set))
	}
	if len(set.Warnings) != 3 {
		t.Fatalf("warnings = %v, want 3", set.Warnings)
	}

	var unknown *UnknownUniformError
	if !errors.As(set.Warnings[0], &unknown) || unknown.Name != "u_missing" {
		t.Errorf("warning[0] = %v, want unknown u_missing", set.Warnings[0])
	}
	if !errors.Is(set.Warnings[0], ErrUnknownUniform) {
		t.Error("unknown uniform warning must match ErrUnknownUniform")
	}
	for _, w := range set.Warnings[1:] {
		if !errors.Is(w, ErrUniformType) {
			t.Errorf("warning %v, want ErrUniformType", w)
		}
	}
}

func TestReconcileNilNext(t *testing.T) {
	if set := Reconcile(NewSnapshot(), nil, Slots{}); set.Len() != 0 || set.Warnings != nil {
		t.Errorf("Reconcile(nil next) = %+v", set)
	}
}
