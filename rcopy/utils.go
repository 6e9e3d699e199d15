package rcopy

import (
	"net"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// SplitAddress turns HOST or HOST:PORT into a dialable address.
func SplitAddress(dest string, defaultPort int) (string, error) {
	if dest == "" {
		return "", errors.New("no host")
	}
	host, port, err := net.SplitHostPort(dest)
	if err != nil {
		// No port
		return net.JoinHostPort(strings.Trim(dest, "[]"), strconv.Itoa(defaultPort)), nil
	}
	if host == "" {
		return "", errors.Errorf("no host in %q", dest)
	}
	if _, err := strconv.ParseUint(port, 10, 16); err != nil {
		return "", errors.Errorf("wrong port in %q", dest)
	}
	return dest, nil
}

// wirePath names a local object relative to the sync root: the root's basename
// followed by the object's position under it, slash separated.
func wirePath(root, local string) (string, error) {
	rel, err := filepath.Rel(root, local)
	if err != nil {
		return "", err
	}
	return filepath.ToSlash(filepath.Join(filepath.Base(root), rel)), nil
}
