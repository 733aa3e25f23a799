// Package artifact holds the rules deciding whether a stored result
// document is usable.
package artifact

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/tidwall/gjson"

	"github.com/user/trackscope/internal/repository"
)

// MinLines is the number of lines a document must exceed to be valid.
const MinLines = 10

// DisconnectedError is the browser error that marks a crawl run without
// network connectivity.
const DisconnectedError = "ERR_INTERNET_DISCONNECTED"

// Validate returns an error wrapping repository.ErrCorruptArtifact when data
// is not well-formed JSON, is a bare null, or has MinLines lines or fewer.
func Validate(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return fmt.Errorf("%w: empty file", repository.ErrCorruptArtifact)
	}
	if !gjson.ValidBytes(trimmed) {
		return fmt.Errorf("%w: malformed JSON", repository.ErrCorruptArtifact)
	}
	if string(trimmed) == "null" {
		return fmt.Errorf("%w: null document", repository.ErrCorruptArtifact)
	}
	if n := CountLines(data); n <= MinLines {
		return fmt.Errorf("%w: %d lines", repository.ErrCorruptArtifact, n)
	}
	return nil
}

// CountLines counts physical lines; a trailing newline does not start a new line.
func CountLines(data []byte) int {
	if len(data) == 0 {
		return 0
	}
	n := bytes.Count(data, []byte{'\n'})
	if data[len(data)-1] != '\n' {
		n++
	}
	return n
}

// IsFailedCrawl reports whether every page load of visit 0 failed because
// the browser had no connectivity.
func IsFailedCrawl(data []byte) bool {
	loads := gjson.GetBytes(data, "network_data.0.visited_urls").Array()
	if len(loads) == 0 {
		return false
	}
	for _, l := range loads {
		msg := l.Get("error").String()
		if msg == "" || !strings.Contains(msg, DisconnectedError) {
			return false
		}
	}
	return true
}
