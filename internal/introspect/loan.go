package introspect

import (
	"errors"
	"fmt"

	"github.com/solatis/datastreamer/internal/types"
)

// loan is a child instance borrowed from its parent. The child stays owned by
// the parent; release hands it back and is idempotent.
type loan struct {
	parent   types.DataInstance
	child    types.DataInstance
	id       types.MemberID
	released bool
}

func borrow(parent types.DataInstance, id types.MemberID) (*loan, error) {
	child, err := parent.Borrow(id)
	if err != nil {
		return nil, fmt.Errorf("borrow member %d: %w", id, err)
	}
	return &loan{parent: parent, child: child, id: id}, nil
}

func (l *loan) release() error {
	if l.released {
		return nil
	}
	l.released = true
	if err := l.parent.Release(l.child); err != nil {
		return fmt.Errorf("release member %d: %w", l.id, err)
	}
	return nil
}

// withLoan runs fn with the child at id and releases it afterwards, also
// when fn fails. A release failure is reported alongside fn's error.
func withLoan(parent types.DataInstance, id types.MemberID, fn func(types.DataInstance) error) (err error) {
	l, err := borrow(parent, id)
	if err != nil {
		return err
	}
	defer func() {
		err = errors.Join(err, l.release())
	}()
	return fn(l.child)
}
