// Package filterlist loads tracker filter lists and organization maps.
package filterlist

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/hashicorp/go-retryablehttp"
	"github.com/tidwall/gjson"
	"go.uber.org/zap"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/user/trackscope/internal/classifier"
)

// FileSuffix marks filter list files inside a directory.
const FileSuffix = "_filter.txt"

// DisplayName turns "easy_privacy_filter.txt" into "Easy Privacy".
func DisplayName(fileName string) string {
	base := strings.TrimSuffix(filepath.Base(fileName), FileSuffix)
	base = strings.TrimSuffix(base, ".txt")
	return cases.Title(language.English).String(strings.ReplaceAll(base, "_", " "))
}

// LoadDir loads every *_filter.txt file of dir into rules and returns the
// number of rules read per list.
func LoadDir(dir string, rules *classifier.FilterRuleSet) (map[string]int, error) {
	matches, err := filepath.Glob(filepath.Join(dir, "*"+FileSuffix))
	if err != nil {
		return nil, err
	}
	sort.Strings(matches)
	counts := make(map[string]int, len(matches))
	for _, m := range matches {
		f, err := os.Open(m)
		if err != nil {
			return counts, err
		}
		name := DisplayName(m)
		n, err := rules.Load(f, name)
		f.Close()
		if err != nil {
			return counts, fmt.Errorf("load %s: %w", m, err)
		}
		counts[name] += n
	}
	return counts, nil
}

// Fetcher downloads filter lists over HTTP with retries.
type Fetcher struct {
	client *retryablehttp.Client
	logger *zap.Logger
}

func NewFetcher(logger *zap.Logger) *Fetcher {
	client := retryablehttp.NewClient()
	client.RetryMax = 3
	client.RetryWaitMin = 500 * time.Millisecond
	client.RetryWaitMax = 5 * time.Second
	client.HTTPClient.Timeout = 60 * time.Second
	client.Logger = leveledLogger{logger.Named("http").Sugar()}
	return &Fetcher{client: client, logger: logger.Named("filterlist")}
}

// Fetch downloads rawURL into dir under a *_filter.txt name and returns
// the written path.
func (f *Fetcher) Fetch(ctx context.Context, rawURL, dir string) (string, error) {
	name, err := fileNameFor(rawURL)
	if err != nil {
		return "", err
	}
	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return "", err
	}
	resp, err := f.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("download %s: %w", rawURL, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("download %s: status %d", rawURL, resp.StatusCode)
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}
	dest := filepath.Join(dir, name)
	tmp, err := os.CreateTemp(dir, ".download-*")
	if err != nil {
		return "", err
	}
	defer os.Remove(tmp.Name())
	n, err := io.Copy(tmp, resp.Body)
	if cerr := tmp.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return "", fmt.Errorf("write %s: %w", dest, err)
	}
	if err := os.Rename(tmp.Name(), dest); err != nil {
		return "", err
	}
	f.logger.Info("Downloaded filter list", zap.String("url", rawURL), zap.String("path", dest), zap.Int64("bytes", n))
	return dest, nil
}

// FetchAll downloads every URL; the first failure stops the run.
func (f *Fetcher) FetchAll(ctx context.Context, urls []string, dir string) ([]string, error) {
	paths := make([]string, 0, len(urls))
	for _, u := range urls {
		p, err := f.Fetch(ctx, u, dir)
		if err != nil {
			return paths, err
		}
		paths = append(paths, p)
	}
	return paths, nil
}

func fileNameFor(rawURL string) (string, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", err
	}
	base := strings.TrimSuffix(path.Base(u.Path), path.Ext(u.Path))
	if base == "" || base == "." || base == "/" {
		base = u.Hostname()
	}
	base = strings.NewReplacer("-", "_", ".", "_").Replace(strings.ToLower(base))
	return strings.TrimSuffix(base, "_filter") + FileSuffix, nil
}

// LoadOrganizations reads a JSON file mapping domains to their owners. Two
// shapes are accepted: {"domain": "Org"} and
// {"id": {"name": "Org", "domains": ["a.com", "b.net"]}}.
func LoadOrganizations(file string) (map[string]string, error) {
	data, err := os.ReadFile(file)
	if err != nil {
		return nil, err
	}
	return ParseOrganizations(data)
}

func ParseOrganizations(data []byte) (map[string]string, error) {
	if !gjson.ValidBytes(data) {
		return nil, fmt.Errorf("organizations: malformed JSON")
	}
	root := gjson.ParseBytes(data)
	if !root.IsObject() {
		return nil, fmt.Errorf("organizations: expected a JSON object")
	}
	orgs := make(map[string]string)
	root.ForEach(func(key, value gjson.Result) bool {
		switch {
		case value.Type == gjson.String:
			orgs[strings.ToLower(key.String())] = value.String()
		case value.IsObject():
			name := value.Get("name").String()
			if name == "" {
				name = key.String()
			}
			for _, d := range value.Get("domains").Array() {
				orgs[strings.ToLower(d.String())] = name
			}
		}
		return true
	})
	return orgs, nil
}

// leveledLogger routes retryablehttp logs to zap.
type leveledLogger struct {
	s *zap.SugaredLogger
}

func (l leveledLogger) Error(msg string, kv ...interface{}) { l.s.Errorw(msg, kv...) }
func (l leveledLogger) Info(msg string, kv ...interface{})  { l.s.Debugw(msg, kv...) }
func (l leveledLogger) Debug(msg string, kv ...interface{}) { l.s.Debugw(msg, kv...) }
func (l leveledLogger) Warn(msg string, kv ...interface{})  { l.s.Warnw(msg, kv...) }
