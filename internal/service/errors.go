package service

import "errors"

var (
	ErrValidation = errors.New("validation")
	ErrNotFound   = errors.New("not found")
)

type Entity string

const (
	EntityUser     Entity = "User"
	EntityProduct  Entity = "Product"
	EntityCartItem Entity = "Cart item"
)

// NotFoundError names the first missing entity of a ledger lookup.
type NotFoundError struct {
	Entity Entity
}

func (e *NotFoundError) Error() string {
	return string(e.Entity) + " not found"
}

func (e *NotFoundError) Is(target error) bool {
	return target == ErrNotFound
}

func notFound(entity Entity) error {
	return &NotFoundError{Entity: entity}
}

// MissingEntity returns the entity behind a not-found error.
func MissingEntity(err error) (Entity, bool) {
	var nf *NotFoundError
	if errors.As(err, &nf) {
		return nf.Entity, true
	}
	return "", false
}
