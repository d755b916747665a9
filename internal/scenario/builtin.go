package scenario

import (
	"embed"
	"fmt"
	"io/fs"
	"sort"
	"strings"
	"sync"
)

//go:embed builtin/*.yaml
var builtinFS embed.FS

var (
	builtinOnce sync.Once
	builtinSet  map[string]Descriptor
	builtinErr  error
)

// loadBuiltins parses the embedded catalog once. Built-ins ship inside
// the binary, so a failure here is a packaging defect surfaced as an
// ingestion error.
func loadBuiltins() {
	builtinSet = make(map[string]Descriptor)
	entries, err := fs.ReadDir(builtinFS, "builtin")
	if err != nil {
		builtinErr = fmt.Errorf("scenario: reading built-ins: %w", err)
		return
	}
	for _, e := range entries {
		data, err := builtinFS.ReadFile("builtin/" + e.Name())
		if err != nil {
			builtinErr = fmt.Errorf("scenario: reading built-in %s: %w", e.Name(), err)
			return
		}
		d, err := Parse(data)
		if err != nil {
			builtinErr = fmt.Errorf("built-in %s: %w", e.Name(), err)
			return
		}
		if _, dup := builtinSet[d.Name]; dup {
			builtinErr = fmt.Errorf("%w: built-in name %q appears twice", ErrInvalidScenario, d.Name)
			return
		}
		builtinSet[d.Name] = d
	}
}

// Builtin returns an embedded scenario by name.
func Builtin(name string) (Descriptor, error) {
	builtinOnce.Do(loadBuiltins)
	if builtinErr != nil {
		return Descriptor{}, builtinErr
	}
	d, ok := builtinSet[name]
	if !ok {
		names, _ := BuiltinNames()
		return Descriptor{}, fmt.Errorf("%w: no built-in scenario %q (have: %s)",
			ErrInvalidScenario, name, strings.Join(names, ", "))
	}
	return d, nil
}

// BuiltinNames lists the embedded scenarios in sorted order.
func BuiltinNames() ([]string, error) {
	builtinOnce.Do(loadBuiltins)
	if builtinErr != nil {
		return nil, builtinErr
	}
	names := make([]string, 0, len(builtinSet))
	for name := range builtinSet {
		names = append(names, name)
	}
	sort.Strings(names)
	return names, nil
}
