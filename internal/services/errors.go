package services

import (
	"errors"

	"github.com/aurelia-jewels/api/internal/repositories"
)

// Shared sentinel errors mapped to HTTP statuses by the handlers.
var (
	// ErrInvalidInput indicates the caller provided bad or missing data.
	ErrInvalidInput = errors.New("services: invalid input")
	// ErrNotFound indicates a missing local row or remote entity.
	ErrNotFound = errors.New("services: not found")
	// ErrConflict indicates the operation clashes with existing state.
	ErrConflict = errors.New("services: conflict")
	// ErrRemoteFailed indicates a remote catalog call failed; any
	// in-progress saga has been compensated.
	ErrRemoteFailed = errors.New("services: remote mutation failed")
	// ErrPersistenceFailed indicates a local write failed after remote
	// steps succeeded; remote compensation has been attempted.
	ErrPersistenceFailed = errors.New("services: persistence failed")
)

// isNotFound reports whether the error carries not-found repository
// semantics.
func isNotFound(err error) bool {
	var repoErr repositories.RepositoryError
	return errors.As(err, &repoErr) && repoErr.IsNotFound()
}

// isConflict reports whether the error carries conflict repository
// semantics.
func isConflict(err error) bool {
	var repoErr repositories.RepositoryError
	return errors.As(err, &repoErr) && repoErr.IsConflict()
}
