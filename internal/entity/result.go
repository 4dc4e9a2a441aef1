package entity

// Result is the outcome of loading an entity by id: either Found or NotFound.
type Result[T any] struct {
	entity *T
}

func Found[T any](e *T) Result[T] {
	return Result[T]{entity: e}
}

func NotFound[T any]() Result[T] {
	return Result[T]{}
}

// Get returns the entity and whether it was found.
func (r Result[T]) Get() (*T, bool) {
	return r.entity, r.entity != nil
}

func (r Result[T]) IsFound() bool {
	return r.entity != nil
}
