package executor

import (
	"errors"
	"io/fs"
	"net"
	"net/url"
	"os/exec"

	"hotconsole/internal/config"
	"hotconsole/internal/httpx"
	"hotconsole/internal/storage"
)

// Category groups failures by what the user can do about them.
type Category string

const (
	CategoryNone            Category = ""
	CategoryConnectivity    Category = "connectivity"
	CategoryMalformed       Category = "malformed_request"
	CategoryMissingResource Category = "missing_resource"
	CategoryStorage         Category = "storage"
	CategoryUnexpected      Category = "unexpected"
)

// Message is the banner text for the category.
func (c Category) Message() string {
	switch c {
	case CategoryConnectivity:
		return "No connection to the server"
	case CategoryMalformed:
		return "Something is wrong with the request"
	case CategoryMissingResource:
		return "A required file or database was not found on this PC"
	case CategoryStorage:
		return "Could not work with the database"
	default:
		return ""
	}
}

// Classify maps err onto a Category. HTTP status errors win over the
// transport errors they may also wrap.
func Classify(err error) Category {
	if err == nil {
		return CategoryNone
	}
	var statusErr *httpx.StatusError
	if errors.As(err, &statusErr) {
		return CategoryMalformed
	}
	if errors.Is(err, httpx.ErrConnectivity) {
		return CategoryConnectivity
	}
	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		return CategoryConnectivity
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return CategoryConnectivity
	}

	var notFound *config.NotFoundError
	if errors.As(err, &notFound) ||
		errors.Is(err, storage.ErrDatabaseNotFound) ||
		errors.Is(err, exec.ErrNotFound) ||
		errors.Is(err, fs.ErrNotExist) {
		return CategoryMissingResource
	}

	var queryErr *storage.QueryError
	if errors.As(err, &queryErr) || errors.Is(err, storage.ErrNotDatabase) {
		return CategoryStorage
	}
	return CategoryUnexpected
}
