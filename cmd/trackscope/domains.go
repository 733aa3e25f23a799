package main

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/user/trackscope/pkg/utils"
)

// parseDomains reads one domain per line. Lines may also be ranked list
// rows such as "1,example.com"; comments and duplicates are dropped and
// order is kept, since it defines the rank.
func parseDomains(r io.Reader) ([]string, error) {
	var out []string
	seen := make(map[string]struct{})
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		if i := strings.LastIndexByte(line, ','); i >= 0 {
			line = line[i+1:]
		}
		d := utils.NormalizeHost(line)
		if d == "" {
			continue
		}
		if _, ok := seen[d]; ok {
			continue
		}
		seen[d] = struct{}{}
		out = append(out, d)
	}
	return out, sc.Err()
}

// loadDomains merges positional arguments with the optional domains file.
func loadDomains(args []string, file string) ([]string, error) {
	src := strings.Join(args, "\n")
	if file != "" {
		data, err := os.ReadFile(file) //nolint:gosec // User-provided path is intentional
		if err != nil {
			return nil, err
		}
		src += "\n" + string(data)
	}
	domains, err := parseDomains(strings.NewReader(src))
	if err != nil {
		return nil, err
	}
	if len(domains) == 0 {
		return nil, fmt.Errorf("no domains given")
	}
	return domains, nil
}
