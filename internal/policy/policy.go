// Package policy holds the static route policy table: an ordered list
// of path patterns deciding which requests require authentication.
// The table is built once at process start and is read-only afterwards,
// so lookups need no locking.
package policy

import (
	"fmt"
	"strings"
)

// Requirement is what a matched rule demands of the request.
type Requirement int

const (
	// Anonymous routes are served without any token inspection.
	Anonymous Requirement = iota
	// Authenticated routes require a resolvable principal.
	Authenticated
)

func (r Requirement) String() string {
	if r == Anonymous {
		return "anonymous"
	}
	return "authenticated"
}

// Rule pairs a path pattern with its requirement. Patterns are ant
// style: `*` matches within one path segment, `**` matches any number
// of segments including none. More specific patterns should precede
// the `/**` fallback because the first matching rule wins.
type Rule struct {
	Pattern     string
	Requirement Requirement
}

type compiledRule struct {
	segments    []string
	requirement Requirement
}

// Table is the compiled, ordered policy list.
type Table struct {
	rules []compiledRule
}

// New compiles an ordered rule list into a Table.
func New(rules []Rule) (*Table, error) {
	t := &Table{rules: make([]compiledRule, 0, len(rules))}
	for _, r := range rules {
		pattern := strings.TrimSpace(r.Pattern)
		if !strings.HasPrefix(pattern, "/") {
			return nil, fmt.Errorf("policy: pattern %q must start with /", r.Pattern)
		}
		t.rules = append(t.rules, compiledRule{
			segments:    splitPath(pattern),
			requirement: r.Requirement,
		})
	}
	return t, nil
}

// RequirementFor returns the requirement of the first rule matching the
// path. Paths matched by no rule require authentication: the table is
// deny-by-default so a forgotten route never becomes public by accident.
func (t *Table) RequirementFor(path string) Requirement {
	segs := splitPath(path)
	for _, rule := range t.rules {
		if matchSegments(rule.segments, segs) {
			return rule.requirement
		}
	}
	return Authenticated
}

func splitPath(path string) []string {
	path = strings.Trim(path, "/")
	if path == "" {
		return nil
	}
	return strings.Split(path, "/")
}

// matchSegments reports whether the pattern segments cover the path
// segments. `**` may match zero or more segments at any position.
func matchSegments(pattern, path []string) bool {
	if len(pattern) == 0 {
		return len(path) == 0
	}
	if pattern[0] == "**" {
		// Either `**` swallows nothing, or it consumes one segment
		// and stays in play.
		if matchSegments(pattern[1:], path) {
			return true
		}
		return len(path) > 0 && matchSegments(pattern, path[1:])
	}
	if len(path) == 0 {
		return false
	}
	if !matchSegment(pattern[0], path[0]) {
		return false
	}
	return matchSegments(pattern[1:], path[1:])
}

// matchSegment matches a single pattern segment against a single path
// segment, with `*` standing for any run of characters.
func matchSegment(pattern, seg string) bool {
	if pattern == "*" {
		return true
	}
	if !strings.Contains(pattern, "*") {
		return pattern == seg
	}
	parts := strings.Split(pattern, "*")
	if !strings.HasPrefix(seg, parts[0]) {
		return false
	}
	seg = seg[len(parts[0]):]
	for i := 1; i < len(parts)-1; i++ {
		idx := strings.Index(seg, parts[i])
		if idx < 0 {
			return false
		}
		seg = seg[idx+len(parts[i]):]
	}
	return strings.HasSuffix(seg, parts[len(parts)-1])
}
