package lifecycle

import (
	"errors"
	"slices"
	"testing"

	"go.uber.org/zap"
)

func TestUnitOfWorkRollsBackInReverse(t *testing.T) {
	u := newUnitOfWork(zap.NewNop())
	var order []string
	for _, name := range []string{"first", "second", "third"} {
		u.onRollback(name, func() error {
			order = append(order, name)
			return nil
		})
	}

	if err := u.rollback(); err != nil {
		t.Fatalf("rollback: %v", err)
	}
	if want := []string{"third", "second", "first"}; !slices.Equal(order, want) {
		t.Errorf("order = %v, want %v", order, want)
	}
}

func TestUnitOfWorkContinuesPastFailures(t *testing.T) {
	u := newUnitOfWork(zap.NewNop())
	boom := errors.New("boom")
	ran := 0
	u.onRollback("a", func() error { ran++; return nil })
	u.onRollback("b", func() error { ran++; return boom })

	cause := errors.New("step failed")
	err := u.fail(cause)
	if ran != 2 {
		t.Errorf("ran %d undo steps, want 2", ran)
	}
	if !errors.Is(err, cause) || !errors.Is(err, boom) {
		t.Errorf("err = %v, want cause and rollback failure", err)
	}
}

func TestUnitOfWorkCommit(t *testing.T) {
	u := newUnitOfWork(zap.NewNop())
	u.onRollback("a", func() error { t.Error("committed step rolled back"); return nil })
	u.commit()
	if err := u.rollback(); err != nil {
		t.Fatal(err)
	}
}
