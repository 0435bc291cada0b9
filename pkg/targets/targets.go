package targets

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"
)

// Parse reads one handle per line. Whitespace and a single leading @ are
// stripped, blank lines and # comments are skipped, and repeated handles
// (case-insensitive) keep their first position.
func Parse(r io.Reader) ([]string, error) {
	var handles []string
	seen := make(map[string]bool)

	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		handles = appendHandle(handles, seen, scanner.Text())
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading target list: %w", err)
	}
	return handles, nil
}

// Load parses the target list file at path
func Load(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening target list: %w", err)
	}
	defer f.Close()
	return Parse(f)
}

// Normalize applies the same cleanup and de-duplication to handles given
// directly, such as command-line arguments
func Normalize(raw []string) []string {
	var handles []string
	seen := make(map[string]bool)
	for _, line := range raw {
		handles = appendHandle(handles, seen, line)
	}
	return handles
}

// Resolve picks the run's targets: explicit handles win, then the inline
// config list, then the list file
func Resolve(args, inline []string, file string) ([]string, error) {
	if len(args) > 0 {
		return Normalize(args), nil
	}
	if len(inline) > 0 {
		return Normalize(inline), nil
	}
	if file == "" {
		return nil, nil
	}
	return Load(file)
}

func appendHandle(handles []string, seen map[string]bool, line string) []string {
	handle := strings.TrimSpace(line)
	if handle == "" || strings.HasPrefix(handle, "#") {
		return handles
	}
	handle = strings.TrimSpace(strings.TrimPrefix(handle, "@"))
	if handle == "" {
		return handles
	}

	key := strings.ToLower(handle)
	if seen[key] {
		return handles
	}
	seen[key] = true
	return append(handles, handle)
}
