package sqlq

// LimitOffset renders a limit ? offset ? clause. A nil limit means no clause
// at all; callers that want everything simply get everything. Inputs are
// validated as positive by the HTTP layer, not clamped here.
func LimitOffset(limit, offset *int64) (string, []interface{}) {
	if limit == nil {
		return "", nil
	}

	var off int64
	if offset != nil {
		off = *offset
	}

	return "limit ? offset ?", []interface{}{*limit, off}
}

// Page normalizes a 1-indexed (page, limit) pair to limit/offset.
func Page(page, limit *int64) (string, []interface{}) {
	if limit == nil {
		return "", nil
	}

	var offset int64
	if page != nil && *page > 1 {
		offset = (*page - 1) * *limit
	}

	return LimitOffset(limit, &offset)
}
