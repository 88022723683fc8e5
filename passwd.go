package pam

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	goerrors "github.com/goliatone/go-errors"
)

// DefaultPasswdFile is the local identity database.
const DefaultPasswdFile = "/etc/passwd"

// PasswdDB resolves accounts from a passwd(5) formatted file.
type PasswdDB struct {
	Path string
}

// LookupAccount implements IdentityDB.
func (p PasswdDB) LookupAccount(name string) (*Account, error) {
	path := p.Path
	if path == "" {
		path = DefaultPasswdFile
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, goerrors.Wrap(err, goerrors.CategoryNotFound, "unable to open passwd file").
			WithMetadata(map[string]any{"path": path})
	}
	defer f.Close()

	return scanPasswd(f, name)
}

func scanPasswd(r io.Reader, name string) (*Account, error) {
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		fields := strings.Split(line, ":")
		if len(fields) != 7 || fields[0] != name {
			continue
		}

		return &Account{
			Name:    fields[0],
			UID:     fields[2],
			GID:     fields[3],
			HomeDir: fields[5],
			Shell:   fields[6],
		}, nil
	}

	if err := scanner.Err(); err != nil {
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "unable to read passwd file")
	}
	return nil, goerrors.New(fmt.Sprintf("user %q not found", name), goerrors.CategoryNotFound).
		WithCode(goerrors.CodeNotFound)
}
