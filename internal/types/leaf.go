// internal/types/leaf.go
package types

/*
 * Leaf descriptors and container size policy.
 *
 * A Leaf is the compiled accessor for one scalar reachable from a root type:
 * the display name shown to users, the member path from root to leaf and,
 * for every step, the kind of the container that step indexes into. Leaves
 * are produced once by the flattener and reused for every extraction until
 * the type or the policy changes.
 *
 * ContainerPolicy bounds how many elements of any array or sequence are
 * indexed. It applies at every container node, not only the root.
 */

// Leaf identifies one scalar reachable from a root type.
type Leaf struct {
	Name  string     // display name, e.g. root.pose.position[2]
	Path  []MemberID // member/element ids from root to leaf
	Kinds []Kind     // Kinds[i] is the kind of the container Path[i] indexes into
	Kind  Kind       // the leaf's own kind
}

// Depth is the number of container steps from root to leaf.
func (l Leaf) Depth() int { return len(l.Path) }

// Parent returns the member id of the leaf inside its immediate parent.
// Returns false for a leaf with an empty path.
func (l Leaf) Parent() (MemberID, bool) {
	if len(l.Path) == 0 {
		return 0, false
	}
	return l.Path[len(l.Path)-1], true
}

// Equal reports whether two leaves describe the same accessor.
func (l Leaf) Equal(o Leaf) bool {
	if l.Name != o.Name || l.Kind != o.Kind || len(l.Path) != len(o.Path) || len(l.Kinds) != len(o.Kinds) {
		return false
	}
	for i := range l.Path {
		if l.Path[i] != o.Path[i] || l.Kinds[i] != o.Kinds[i] {
			return false
		}
	}
	return true
}

// ContainerPolicy limits the number of indexed elements per array/sequence.
type ContainerPolicy struct {
	MaxSize uint32 // containers with size >= MaxSize are discarded or truncated
	Discard bool   // true = skip the whole container, false = keep the first MaxSize elements
}

// Apply returns how many elements of a container of the given size are
// indexed. keep is false when the container is discarded entirely.
// A container exactly at MaxSize is already over the limit.
func (p ContainerPolicy) Apply(size uint32) (n uint32, keep bool) {
	if size < p.MaxSize {
		return size, true
	}
	if p.Discard {
		return 0, false
	}
	return p.MaxSize, true
}
