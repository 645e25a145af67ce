package cli

import (
	"errors"
	"fmt"

	"ctboard/internal/remote"
)

type notFoundError struct {
	kind string
	id   string
}

func (e notFoundError) Error() string {
	return fmt.Sprintf("%s not found: %s", e.kind, e.id)
}

func errNotFound(kind, id string) error {
	return notFoundError{kind: kind, id: id}
}

func isConfigMissing(err error) bool {
	return errors.Is(err, remote.ErrConfigMissing)
}

// withNotice prefixes err with the user-facing notice when it adds
// something the error text does not already say.
func withNotice(notice string, err error) error {
	if notice == "" || err == nil {
		return err
	}
	return fmt.Errorf("%s: %w", notice, err)
}
