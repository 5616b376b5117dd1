package pathutil

import (
	"fmt"

	"github.com/jhsa24/randomwalk/internal/constants"
)

// reservedNames are subcommands of commands that also take a collection
// name, so a collection with one of these names could not be addressed.
var reservedNames = map[string]bool{
	"list":   true,
	"verify": true,
}

// ValidateName checks a collection name. Names become file names of
// archives, so they are limited to ASCII letters, digits, '-', '_' and '.',
// must not start with '.', and are at most constants.MaxCollectionNameLen
// bytes long. The names of backup subcommands are reserved.
func ValidateName(name string) error {
	if name == "" {
		return fmt.Errorf("collection name is empty")
	}
	if reservedNames[name] {
		return fmt.Errorf("collection name %q is reserved", name)
	}
	if len(name) > constants.MaxCollectionNameLen {
		return fmt.Errorf("collection name longer than %d bytes", constants.MaxCollectionNameLen)
	}
	if name[0] == '.' {
		return fmt.Errorf("collection name %q must not start with '.'", name)
	}
	for i := 0; i < len(name); i++ {
		c := name[i]
		switch {
		case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c >= '0' && c <= '9':
		case c == '-', c == '_', c == '.':
		default:
			return fmt.Errorf("collection name %q contains invalid character %q", name, c)
		}
	}
	return nil
}
