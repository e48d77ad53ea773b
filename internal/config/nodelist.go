package config

import (
	"bufio"
	"fmt"
	"os"
	"strings"
)

// ReadNodeList parses the ordered standby list: one fully-qualified hostname
// per line, lowest index = highest priority. Blank lines and lines starting
// with '#' are ignored.
func ReadNodeList(path string) ([]string, error) {
	f, err := os.Open(path) // #nosec G304 - operator-supplied path
	if err != nil {
		return nil, fmt.Errorf("open node list: %w", err)
	}
	defer func() { _ = f.Close() }()

	var nodes []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		nodes = append(nodes, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read node list: %w", err)
	}
	if len(nodes) == 0 {
		return nil, fmt.Errorf("node list %s is empty", path)
	}
	return nodes, nil
}
