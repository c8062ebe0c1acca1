package services

// Page is one fixed-size slice of an ordered result set.
type Page[T any] struct {
	Items  []T
	Count  int64
	Number int
	Size   int
}

func (p Page[T]) HasNext() bool {
	return int64(p.Number)*int64(p.Size) < p.Count
}

func (p Page[T]) HasPrevious() bool {
	return p.Number > 1
}

func pageOffset(number, size int) (int, error) {
	if number < 1 || size < 1 {
		return 0, ErrInvalidPage
	}
	return (number - 1) * size, nil
}

// checkPage rejects pages past the end. Page 1 always exists, even when
// the result set is empty.
func checkPage(number, size int, count int64) error {
	if number == 1 {
		return nil
	}
	if int64(number-1)*int64(size) >= count {
		return ErrInvalidPage
	}
	return nil
}
