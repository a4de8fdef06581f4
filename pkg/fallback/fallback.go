// Package fallback provides small combinators for ordered fallback chains:
// try a list of sources in order and keep the first one that yields data.
// 태그 후보 목록, 가격 벤더 티어 등 순차 폴백은 전부 이 패키지로 표현한다.
package fallback

import "context"

// Source produces a slice of results. An error or an empty slice both mean
// "nothing here, try the next one".
type Source[T any] func(ctx context.Context) ([]T, error)

// First runs sources in order and returns the first non-empty result.
// Errors are swallowed; callers that care should log inside the source.
// Returns nil when every source comes back empty or failing.
func First[T any](ctx context.Context, sources ...Source[T]) []T {
	for _, src := range sources {
		if ctx.Err() != nil {
			return nil
		}
		out, err := src(ctx)
		if err != nil {
			continue
		}
		if len(out) > 0 {
			return out
		}
	}
	return nil
}

// Union runs every source and concatenates all non-empty results.
// Used where independent taxonomies each contribute a disjoint slice.
func Union[T any](ctx context.Context, sources ...Source[T]) []T {
	var out []T
	for _, src := range sources {
		if ctx.Err() != nil {
			break
		}
		part, err := src(ctx)
		if err != nil {
			continue
		}
		out = append(out, part...)
	}
	return out
}
