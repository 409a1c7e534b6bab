package resolver

import (
	"fmt"
	"os"
)

func fetchFile(uri string) ([]byte, error) {
	u, err := parseURI(uri)
	if err != nil {
		return nil, err
	}
	path := u.Path
	if u.Host != "" {
		path = u.Host + path
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, path)
		}
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return data, nil
}
