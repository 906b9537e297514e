/*
Copyright 2025.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

package projects

import (
	"regexp"
	"strings"

	"github.com/go-logr/logr"
)

// MatchKind selects how a rule pattern is compared with a namespace name.
type MatchKind string

const (
	MatchExact  MatchKind = "exact"
	MatchPrefix MatchKind = "prefix"
	MatchRegex  MatchKind = "regex"
	MatchAll    MatchKind = "all"
)

// Wildcard is accepted as a regex pattern meaning "match everything".
// A bare "*" does not compile as a regular expression.
const Wildcard = "*"

// Known reports whether k is one of the supported match kinds.
func (k MatchKind) Known() bool {
	switch k {
	case MatchExact, MatchPrefix, MatchRegex, MatchAll:
		return true
	default:
		return false
	}
}

// matcher is a rule pattern prepared for repeated evaluation.
type matcher struct {
	kind    MatchKind
	pattern string
	re      *regexp.Regexp // nil unless kind is regex and pattern is not the wildcard
}

func newMatcher(kind MatchKind, pattern string) (matcher, error) {
	m := matcher{kind: kind, pattern: pattern}
	if kind == MatchRegex && pattern != Wildcard {
		re, err := regexp.Compile(pattern)
		if err != nil {
			return matcher{}, err
		}
		m.re = re
	}
	return m, nil
}

func (m matcher) matches(log logr.Logger, candidate string) bool {
	switch m.kind {
	case MatchAll:
		log.V(1).Info("match all")
		return true
	case MatchExact:
		log.V(1).Info("exact comparison")
		return m.pattern == candidate
	case MatchPrefix:
		log.V(1).Info("prefix comparison")
		return strings.HasPrefix(candidate, m.pattern)
	case MatchRegex:
		log.V(1).Info("regex comparison")
		if m.re == nil {
			return true
		}
		return m.re.MatchString(candidate)
	default:
		// Unknown kinds never match so that settings written for a newer
		// release do not abort evaluation of the remaining rules.
		log.V(1).Info("unknown match kind, skipping", "kind", string(m.kind))
		return false
	}
}

// Matches evaluates a single pattern against candidate. It returns an
// *InvalidPatternError with Index -1 when a regex pattern does not compile.
func Matches(kind MatchKind, pattern, candidate string) (bool, error) {
	m, err := newMatcher(kind, pattern)
	if err != nil {
		return false, &InvalidPatternError{Index: -1, Pattern: pattern, Err: err}
	}
	return m.matches(logr.Discard(), candidate), nil
}
