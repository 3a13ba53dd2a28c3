package services

import (
	"social-lab/errors"

	"github.com/samber/lo"
)

// window skips left items and takes at most right of the remaining ones.
// Offsets are applied to a snapshot of the list, nothing anchors a page
// when the underlying data changes between calls.
func window[T any](items []T, left, right int) ([]T, error) {
	if left < 0 || right < 0 {
		return nil, errors.InvalidArgument("invalid page window skip=%d take=%d", left, right)
	}
	if left >= len(items) {
		return []T{}, nil
	}
	end := len(items)
	if right < end-left {
		end = left + right
	}
	return lo.Slice(items, left, end), nil
}
