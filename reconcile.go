package shadermount

import "fmt"

// Update is one uniform upload.
type Update struct {
	Name  string
	Decl  UniformDecl
	Value Value

	// Count is set for color lists whose program declares the companion
	// <name>Count uniform. Backends write the array and the count in the same
	// Upload call so the shader never sees them disagree.
	Count *UniformDecl
}

// CountValue returns the active length of a color list update.
func (u Update) CountValue() int {
	if l, ok := u.Value.(ColorList); ok {
		return len(l)
	}
	return 0
}

// UpdateSet is the result of Reconcile.
type UpdateSet struct {
	// Updates are the changed entries, in next's order.
	Updates []Update
	// Warnings are non-fatal problems: unknown uniforms, kind mismatches and
	// truncated lists. Affected entries are skipped, never the whole set.
	Warnings []error
}

// Len returns the number of updates.
func (u UpdateSet) Len() int { return len(u.Updates) }

// Reconcile computes the uploads needed to move a program from prev to next.
//
// Scalars, vectors and colors compare by value, color lists element by
// element, texture bindings by identity. Entries of next without a slot in
// slots are reported as *UnknownUniformError warnings unless they are
// builtins. A nil prev yields a full upload.
func Reconcile(prev, next *Snapshot, slots Slots) UpdateSet {
	var set UpdateSet
	if next == nil {
		return set
	}

	for _, e := range next.entries {
		decl, ok := slots[e.Name]
		if !ok {
			if !e.Builtin {
				set.Warnings = append(set.Warnings, &UnknownUniformError{Name: e.Name})
			}
			continue
		}
		if e.Value == nil || !decl.accepts(e.Value) {
			set.Warnings = append(set.Warnings, uniformTypeError(e, decl))
			continue
		}

		v := e.Value
		if list, ok := v.(ColorList); ok && len(list) > decl.ArrayLen {
			set.Warnings = append(set.Warnings, fmt.Errorf(
				"shadermount: uniform %s: %d colors exceed array length %d, truncated",
				e.Name, len(list), decl.ArrayLen))
			v = list[:decl.ArrayLen]
		}

		if p, ok := prev.Get(e.Name); ok && p.equal(v) {
			continue
		}

		u := Update{Name: e.Name, Decl: decl, Value: v}
		if v.Kind() == KindColorList {
			if cd, ok := slots[e.Name+CountSuffix]; ok {
				u.Count = &cd
			}
		}
		set.Updates = append(set.Updates, u)
	}
	return set
}

func uniformTypeError(e Entry, decl UniformDecl) error {
	got := "nil"
	if e.Value != nil {
		got = e.Value.Kind().String()
	}
	want := decl.Kind.String()
	if decl.ArrayLen > 0 {
		want = fmt.Sprintf("%s[%d]", want, decl.ArrayLen)
	}
	return fmt.Errorf("%w: %s is %s, program declares %s", ErrUniformType, e.Name, got, want)
}
