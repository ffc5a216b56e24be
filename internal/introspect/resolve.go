// internal/introspect/resolve.go
package introspect

import (
	"fmt"

	"github.com/solatis/datastreamer/internal/types"
)

/*
 * Parent resolution for compiled leaves.
 *
 * Re-descends a leaf's member path in a fresh data instance to find the
 * immediate parent holding the leaf. Every step except the last borrows the
 * child and releases it straight away: the child stays valid for addressing
 * because the root keeps ownership, and the reflection layer is free to lend
 * it again. The last id is left for the typed reader.
 *
 * Resolution never consults the type tree, so per-sample cost is linear in
 * path length. Nothing is cached across samples since sequences may change
 * shape between them.
 */

// ResolveParent returns the instance holding the leaf addressed by path.
// kinds[i] must be the container kind path[i] indexes into.
func ResolveParent(data types.DataInstance, path []types.MemberID, kinds []types.Kind) (types.DataInstance, error) {
	if data == nil {
		return nil, fmt.Errorf("%w: nil data instance", types.ErrResolution)
	}
	if len(path) == 0 {
		return nil, fmt.Errorf("%w: empty member path", types.ErrResolution)
	}
	if len(kinds) != len(path) {
		return nil, fmt.Errorf("%w: path has %d steps but kind chain has %d", types.ErrInconsistency, len(path), len(kinds))
	}
	return resolveRecursive(data, path, kinds, 0)
}

// resolveRecursive walks one step per call; step is the index of the id
// being consumed.
func resolveRecursive(current types.DataInstance, path []types.MemberID, kinds []types.Kind, step int) (types.DataInstance, error) {
	if step == len(path)-1 {
		return current, nil
	}

	switch kinds[step] {
	case types.KindStructure, types.KindArray, types.KindSequence:
		child, err := current.Borrow(path[step])
		if err != nil {
			return nil, fmt.Errorf("step %d (member %d of %s): %w", step, path[step], kinds[step], err)
		}
		if err := current.Release(child); err != nil {
			return nil, fmt.Errorf("step %d (member %d of %s): %w", step, path[step], kinds[step], err)
		}
		return resolveRecursive(child, path, kinds, step+1)

	default:
		return nil, fmt.Errorf("%w: step %d indexes into %s", types.ErrResolution, step, kinds[step])
	}
}
