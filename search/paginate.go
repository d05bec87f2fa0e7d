package search

// PageResult is one page sliced out of an overfetched flat result list.
// It is derived once and never mutated.
type PageResult struct {
	Records []Record `json:"records"`
	Page    int      `json:"page"`
	PerPage int      `json:"per_page"`
	HasMore bool     `json:"has_more"`
}

// Paginate slices page (zero-based) out of all. HasMore is true only when
// results exist beyond the returned slice, so the caller must have fetched
// past the page boundary for it to mean anything; see OverfetchSize.
func Paginate(all []Record, page, perPage int) PageResult {
	if page < 0 {
		page = 0
	}
	if perPage < 1 {
		perPage = 1
	}

	start := page * perPage
	end := start + perPage
	var records []Record
	if start < len(all) {
		if end > len(all) {
			end = len(all)
		}
		records = all[start:end]
	}

	return PageResult{
		Records: records,
		Page:    page,
		PerPage: perPage,
		HasMore: len(all) > start+perPage,
	}
}

// OverfetchSize is how many results to request before paginating: enough
// to see whether anything exists past the requested page, and never less
// than three pages' worth. Fetching fewer silently pins HasMore to false
// even when more results exist upstream.
func OverfetchSize(page, perPage int) int {
	if page < 0 {
		page = 0
	}
	if perPage < 1 {
		perPage = 1
	}
	n := perPage * (page + 2)
	if floor := perPage * 3; n < floor {
		n = floor
	}
	return n
}
