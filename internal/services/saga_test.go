package services

import (
	"context"
	"errors"
	"testing"
)

func TestSagaRunsStepsInOrder(t *testing.T) {
	var order []string
	workflow := newSaga(nil)
	workflow.addStep("first",
		func(ctx context.Context) error { order = append(order, "first"); return nil },
		func(ctx context.Context) error { order = append(order, "undo first"); return nil })
	workflow.addStep("second",
		func(ctx context.Context) error { order = append(order, "second"); return nil },
		nil)

	if err := workflow.run(context.Background()); err != nil {
		t.Fatalf("run: %v", err)
	}
	if len(order) != 2 || order[0] != "first" || order[1] != "second" {
		t.Fatalf("unexpected order %v", order)
	}
}

func TestSagaUnwindsCompletedStepsOnFailure(t *testing.T) {
	var order []string
	boom := errors.New("step exploded")

	workflow := newSaga(nil)
	workflow.addStep("first",
		func(ctx context.Context) error { order = append(order, "first"); return nil },
		func(ctx context.Context) error { order = append(order, "undo first"); return nil })
	workflow.addStep("second",
		func(ctx context.Context) error { order = append(order, "second"); return nil },
		func(ctx context.Context) error { order = append(order, "undo second"); return nil })
	workflow.addStep("third",
		func(ctx context.Context) error { return boom },
		func(ctx context.Context) error { order = append(order, "undo third"); return nil })

	err := workflow.run(context.Background())
	if !errors.Is(err, boom) {
		t.Fatalf("expected original error, got %v", err)
	}

	want := []string{"first", "second", "undo second", "undo first"}
	if len(order) != len(want) {
		t.Fatalf("unexpected trail %v", order)
	}
	for i := range want {
		if order[i] != want[i] {
			t.Fatalf("expected %v, got %v", want, order)
		}
	}
}

func TestSagaSkipsNilCompensations(t *testing.T) {
	var undone []string
	boom := errors.New("nope")

	workflow := newSaga(nil)
	workflow.addStep("irreversible",
		func(ctx context.Context) error { return nil },
		nil)
	workflow.addStep("reversible",
		func(ctx context.Context) error { return nil },
		func(ctx context.Context) error { undone = append(undone, "reversible"); return nil })
	workflow.addStep("failing",
		func(ctx context.Context) error { return boom },
		nil)

	if err := workflow.run(context.Background()); !errors.Is(err, boom) {
		t.Fatalf("expected failure, got %v", err)
	}
	if len(undone) != 1 || undone[0] != "reversible" {
		t.Fatalf("unexpected compensations %v", undone)
	}
}

func TestSagaCompensationFailureDoesNotMaskOriginal(t *testing.T) {
	original := errors.New("the real failure")

	workflow := newSaga(nil)
	workflow.addStep("first",
		func(ctx context.Context) error { return nil },
		func(ctx context.Context) error { return errors.New("compensation also failed") })
	workflow.addStep("second",
		func(ctx context.Context) error { return original },
		nil)

	if err := workflow.run(context.Background()); !errors.Is(err, original) {
		t.Fatalf("expected original error, got %v", err)
	}
}

func TestSagaUnwindAllReversesEveryStep(t *testing.T) {
	var order []string

	workflow := newSaga(nil)
	workflow.addStep("first",
		func(ctx context.Context) error { return nil },
		func(ctx context.Context) error { order = append(order, "undo first"); return nil })
	workflow.addStep("second",
		func(ctx context.Context) error { return nil },
		func(ctx context.Context) error { order = append(order, "undo second"); return nil })

	if err := workflow.run(context.Background()); err != nil {
		t.Fatalf("run: %v", err)
	}
	workflow.unwindAll(context.Background())

	if len(order) != 2 || order[0] != "undo second" || order[1] != "undo first" {
		t.Fatalf("unexpected unwind order %v", order)
	}
}
