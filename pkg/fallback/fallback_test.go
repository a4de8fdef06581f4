package fallback

import (
	"context"
	"errors"
	"reflect"
	"testing"
)

func fixed(vals ...string) Source[string] {
	return func(ctx context.Context) ([]string, error) {
		return vals, nil
	}
}

func failing() Source[string] {
	return func(ctx context.Context) ([]string, error) {
		return nil, errors.New("boom")
	}
}

func TestFirst(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name    string
		sources []Source[string]
		want    []string
	}{
		{
			name:    "first non-empty wins",
			sources: []Source[string]{fixed(), fixed("a", "b"), fixed("c")},
			want:    []string{"a", "b"},
		},
		{
			name:    "errors are skipped",
			sources: []Source[string]{failing(), fixed("x")},
			want:    []string{"x"},
		},
		{
			name:    "all empty",
			sources: []Source[string]{fixed(), failing()},
			want:    nil,
		},
		{
			name:    "no sources",
			sources: nil,
			want:    nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := First(ctx, tt.sources...)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("First() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestFirstDoesNotCallLaterSources(t *testing.T) {
	ctx := context.Background()
	called := false

	First(ctx,
		fixed("hit"),
		func(ctx context.Context) ([]string, error) {
			called = true
			return []string{"late"}, nil
		},
	)

	if called {
		t.Error("First() must short-circuit after a non-empty result")
	}
}

func TestFirstHonorsCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	got := First(ctx, fixed("a"))
	if got != nil {
		t.Errorf("First() with cancelled ctx = %v, want nil", got)
	}
}

func TestUnion(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name    string
		sources []Source[string]
		want    []string
	}{
		{
			name:    "concatenates disjoint results",
			sources: []Source[string]{fixed("a"), fixed("b", "c")},
			want:    []string{"a", "b", "c"},
		},
		{
			name:    "skips errors and empties",
			sources: []Source[string]{failing(), fixed(), fixed("z")},
			want:    []string{"z"},
		},
		{
			name:    "all empty yields nil",
			sources: []Source[string]{fixed(), fixed()},
			want:    nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Union(ctx, tt.sources...)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Union() = %v, want %v", got, tt.want)
			}
		})
	}
}
