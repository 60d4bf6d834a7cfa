package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"testing"

	platformerrors "luaspark-server/internal/platform/errors"
)

func TestInitGraphOrder(t *testing.T) {
	steps := InitGraph()
	want := []string{
		"config:load",
		"logging:init-provider",
		"storage:init-user-store",
		"session:init-registry",
		"llm:init-provider",
		"chat:init-service",
	}
	if len(steps) != len(want) {
		t.Fatalf("unexpected step count: got %d want %d", len(steps), len(want))
	}
	for i, step := range steps {
		if step.ID != want[i] {
			t.Fatalf("step %d mismatch: got %s want %s", i, step.ID, want[i])
		}
	}
}

func TestInitGraphDependenciesResolvable(t *testing.T) {
	seen := make(map[string]struct{})
	for _, step := range InitGraph() {
		for _, dep := range step.DependsOn {
			if _, ok := seen[dep]; !ok {
				t.Fatalf("step %s depends on %s which is not declared earlier", step.ID, dep)
			}
		}
		seen[step.ID] = struct{}{}
	}
}

func TestExecuteInitStepsRunsInOrder(t *testing.T) {
	var order []string
	record := func(id string) stepFn {
		return func(context.Context, *appState) error {
			order = append(order, id)
			return nil
		}
	}

	steps := []initStep{
		{ID: "a", Execute: record("a")},
		{ID: "b", DependsOn: []string{"a"}, Execute: record("b")},
		{ID: "c", DependsOn: []string{"a", "b"}, Execute: record("c")},
	}
	if err := executeInitSteps(context.Background(), steps, &appState{}); err != nil {
		t.Fatalf("executeInitSteps failed: %v", err)
	}
	if fmt.Sprint(order) != "[a b c]" {
		t.Fatalf("unexpected execution order: %v", order)
	}
}

func TestExecuteInitStepsRejectsUnsatisfiedDependency(t *testing.T) {
	steps := []initStep{
		{ID: "b", DependsOn: []string{"a"}, Execute: func(context.Context, *appState) error { return nil }},
	}
	err := executeInitSteps(context.Background(), steps, &appState{})
	if !platformerrors.IsKind(err, platformerrors.KindBootstrap) {
		t.Fatalf("expected bootstrap error, got %v", err)
	}
}

func TestExecuteInitStepsWrapsStepFailure(t *testing.T) {
	boom := errors.New("boom")
	steps := []initStep{
		{
			ID:      "fail",
			Kind:    platformerrors.KindStorage,
			Execute: func(context.Context, *appState) error { return boom },
		},
	}
	err := executeInitSteps(context.Background(), steps, &appState{})
	if !platformerrors.IsKind(err, platformerrors.KindStorage) {
		t.Fatalf("expected storage kind, got %v", err)
	}
	if !errors.Is(err, boom) {
		t.Fatalf("expected wrapped cause, got %v", err)
	}
}

func TestExecuteInitStepsKeepsTypedErrors(t *testing.T) {
	typed := platformerrors.New(platformerrors.KindConfig, "test", "bad config")
	steps := []initStep{
		{
			ID:      "fail",
			Kind:    platformerrors.KindBootstrap,
			Execute: func(context.Context, *appState) error { return typed },
		},
	}
	err := executeInitSteps(context.Background(), steps, &appState{})
	if !platformerrors.IsKind(err, platformerrors.KindConfig) {
		t.Fatalf("typed error kind must be preserved, got %v", err)
	}
}
