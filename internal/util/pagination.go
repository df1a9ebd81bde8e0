package util

const maxPageSize = 100

// Calculate clamps page/size query values and returns the offset and limit
// to hand to the store. Pages start at 1.
func Calculate(page, size int) (offset, limit int) {
	if page < 1 {
		page = 1
	}
	if size <= 0 || size > maxPageSize {
		size = 10
	}
	return (page - 1) * size, size
}
