package classifier

import (
	"bufio"
	"io"
	"path"
	"sort"
	"strings"

	"github.com/user/trackscope/pkg/utils"
)

// Rule is one domain-anchored filter rule.
type Rule struct {
	Host string
	List string
	Raw  string
	// Qualified is set for rules narrowed by a path or an explicit scheme.
	Qualified bool
	Modifiers []string
}

// FilterRuleSet indexes domain-anchored rules by listed hostname. A set is
// built once per run and passed to classifiers explicitly.
type FilterRuleSet struct {
	rules     map[string]Rule
	wildcards []Rule
	perList   map[string]int
}

func NewFilterRuleSet() *FilterRuleSet {
	return &FilterRuleSet{
		rules:   make(map[string]Rule),
		perList: make(map[string]int),
	}
}

// ParseRule parses one AdBlock Plus line. Comments, element hiding rules,
// exceptions and rules without a domain anchor are rejected.
func ParseRule(line string) (Rule, bool) {
	line = strings.TrimSpace(line)
	if line == "" || strings.HasPrefix(line, "!") || strings.HasPrefix(line, "[") || strings.HasPrefix(line, "@@") {
		return Rule{}, false
	}
	if strings.Contains(line, "##") || strings.Contains(line, "#@#") || strings.Contains(line, "#?#") {
		return Rule{}, false
	}

	r := Rule{Raw: line}
	body := line
	if i := strings.IndexByte(body, '$'); i >= 0 {
		for _, m := range strings.Split(body[i+1:], ",") {
			if m = strings.TrimSpace(m); m != "" {
				r.Modifiers = append(r.Modifiers, m)
			}
		}
		body = body[:i]
	}

	switch {
	case strings.HasPrefix(body, "||"):
		body = body[2:]
	case strings.HasPrefix(body, "|"):
		body = body[1:]
		if i := strings.Index(body, "://"); i >= 0 {
			body = body[i+3:]
		}
		r.Qualified = true
	default:
		return Rule{}, false
	}

	end := strings.IndexAny(body, "^/:?|")
	host := body
	rest := ""
	if end >= 0 {
		host, rest = body[:end], body[end:]
	}
	rest = strings.Trim(rest, "^|")
	if strings.Contains(rest, "/") {
		r.Qualified = true
	}

	host = strings.Trim(strings.ToLower(host), ".")
	if host == "" || strings.ContainsAny(host, " \t") {
		return Rule{}, false
	}
	r.Host = host
	return r, true
}

// Add inserts a rule. An unqualified rule replaces a qualified one for the
// same host; otherwise the first rule wins.
func (s *FilterRuleSet) Add(r Rule) {
	if strings.Contains(r.Host, "*") {
		s.wildcards = append(s.wildcards, r)
		s.perList[r.List]++
		return
	}
	existing, ok := s.rules[r.Host]
	if ok && !(existing.Qualified && !r.Qualified) {
		return
	}
	if !ok {
		s.perList[r.List]++
	}
	s.rules[r.Host] = r
}

// Load parses every line of r as a rule of the named list and returns the
// number of rules accepted.
func (s *FilterRuleSet) Load(r io.Reader, list string) (int, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	n := 0
	for scanner.Scan() {
		rule, ok := ParseRule(scanner.Text())
		if !ok {
			continue
		}
		rule.List = list
		s.Add(rule)
		n++
	}
	return n, scanner.Err()
}

// Match returns the most specific rule listing host or one of its parent
// domains. A hostname that merely shares a suffix string does not match.
func (s *FilterRuleSet) Match(host string) (Rule, bool) {
	h := utils.NormalizeHost(host)
	if h == "" {
		return Rule{}, false
	}
	for cur := h; ; {
		if r, ok := s.rules[cur]; ok {
			return r, true
		}
		i := strings.IndexByte(cur, '.')
		if i < 0 {
			break
		}
		cur = cur[i+1:]
	}
	for _, r := range s.wildcards {
		if ok, _ := path.Match(r.Host, h); ok {
			return r, true
		}
		if ok, _ := path.Match("*."+r.Host, h); ok {
			return r, true
		}
	}
	return Rule{}, false
}

// Len returns the number of distinct listed hosts.
func (s *FilterRuleSet) Len() int { return len(s.rules) + len(s.wildcards) }

// Lists returns the sorted names of loaded lists.
func (s *FilterRuleSet) Lists() []string {
	names := make([]string, 0, len(s.perList))
	for name := range s.perList {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// ListSize returns the number of rules contributed by a list.
func (s *FilterRuleSet) ListSize(list string) int { return s.perList[list] }
