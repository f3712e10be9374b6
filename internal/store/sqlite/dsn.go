package sqlite

import (
	"net/url"
	"path/filepath"
	"strings"

	"github.com/cockroachdb/errors"
)

// parseDSN turns sqlite://path into a path the driver accepts. Relative
// paths are anchored at the working directory.
func parseDSN(dsn string) (string, error) {
	if !strings.HasPrefix(dsn, "sqlite://") {
		return "", errors.New("invalid sqlite DSN scheme, expected sqlite://")
	}

	rest := strings.TrimPrefix(dsn, "sqlite://")
	if rest == "" {
		return "", errors.New("sqlite DSN has no path")
	}

	if rest == ":memory:" {
		return ":memory:", nil
	}

	path, query, hasQuery := strings.Cut(rest, "?")
	unescaped, err := url.PathUnescape(path)
	if err != nil {
		return "", errors.Wrap(err, "unescaping path")
	}
	path = unescaped

	if !filepath.IsAbs(path) && !strings.HasPrefix(path, "./") {
		path = "./" + path
	}
	if hasQuery {
		return path + "?" + query, nil
	}
	return path, nil
}
