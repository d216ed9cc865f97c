// Package rewrite implements rules altering source definitions before they are registered.
//
// A rule is written in a small line oriented language. Each line reads
//
//	field operator value
//
// where operator is one of:
//
//	~   substitute matches of the regular expression value with the template given on the next line
//	=   guard: the field must equal value
//	~=  guard: the field must match the regular expression value
//
// A rule fires only when all its guards match, then applies all its substitutions.
//
// Example: redirect a fork
//
//	url ~ fschulze(/mr.developer.git)
//	me\1
package rewrite

import (
	"bufio"
	"fmt"
	"regexp"
	"strings"

	"github.com/oneconcern/mrdev/pkg/errors"
	"github.com/oneconcern/mrdev/pkg/model"
)

// Operator of a rule clause
type Operator string

// Supported operators
const (
	Substitute Operator = "~"
	Equals     Operator = "="
	Matches    Operator = "~="
)

// Clause is one line of a rule
type Clause struct {
	Field        string
	Operator     Operator
	Value        string
	Substitution string

	re       *regexp.Regexp
	template string
}

// Rule is a set of guards and substitutions, applied together
type Rule struct {
	guards        []Clause
	substitutions []Clause
	text          string
}

// Rules is an ordered collection of rules
type Rules []Rule

var (
	backRef      = regexp.MustCompile(`\\(\d|g<\w+>)`)
	lineSplitter = regexp.MustCompile(`\s+`)
)

// Parse a rule from its textual form
func Parse(text string) (Rule, error) {
	rule := Rule{text: text}

	var lines []string
	scanner := bufio.NewScanner(strings.NewReader(text))
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		lines = append(lines, line)
	}
	if err := scanner.Err(); err != nil {
		return Rule{}, err
	}

	for i := 0; i < len(lines); i++ {
		parts := lineSplitter.Split(lines[i], 3)
		if len(parts) != 3 {
			return Rule{}, parseErrorf("invalid rewrite line %q: expected 'field operator value'", lines[i])
		}
		clause := Clause{Field: parts[0], Operator: Operator(parts[1]), Value: parts[2]}

		switch clause.Operator {
		case Substitute:
			if i+1 >= len(lines) {
				return Rule{}, parseErrorf("missing substitution after rewrite line %q", lines[i])
			}
			i++
			clause.Substitution = lines[i]
			clause.template = goTemplate(clause.Substitution)
			re, err := regexp.Compile(clause.Value)
			if err != nil {
				return Rule{}, parseErrorf("invalid regular expression in rewrite line %q: %v", lines[i-1], err)
			}
			clause.re = re
			rule.substitutions = append(rule.substitutions, clause)

		case Matches:
			re, err := regexp.Compile(clause.Value)
			if err != nil {
				return Rule{}, parseErrorf("invalid regular expression in rewrite line %q: %v", lines[i], err)
			}
			clause.re = re
			rule.guards = append(rule.guards, clause)

		case Equals:
			rule.guards = append(rule.guards, clause)

		default:
			return Rule{}, parseErrorf("unknown operator %q in rewrite line %q", parts[1], lines[i])
		}
	}

	if len(rule.substitutions) == 0 && len(rule.guards) == 0 {
		return Rule{}, parseErrorf("empty rewrite rule")
	}
	return rule, nil
}

// MustParse parses a rule and panics on error
func MustParse(text string) Rule {
	r, err := Parse(text)
	if err != nil {
		panic(err)
	}
	return r
}

// Legacy builds a rule substituting an url prefix
func Legacy(prefix, substitution string) Rule {
	return MustParse(fmt.Sprintf("url ~ ^%s\n%s", regexp.QuoteMeta(prefix), substitution))
}

// ParseLegacy reads a legacy rule written as "prefix substitution"
func ParseLegacy(line string) (Rule, error) {
	parts := strings.Fields(line)
	if len(parts) != 2 {
		return Rule{}, parseErrorf("invalid legacy rewrite %q: expected 'prefix substitution'", line)
	}
	return Legacy(parts[0], parts[1]), nil
}

// Guards of this rule
func (r Rule) Guards() []Clause {
	return r.guards
}

// Substitutions of this rule
func (r Rule) Substitutions() []Clause {
	return r.substitutions
}

func (r Rule) String() string {
	return r.text
}

func (r Rule) matches(src *model.Source) bool {
	for _, guard := range r.guards {
		value, ok := src.Field(guard.Field)
		if !ok {
			return false
		}
		switch guard.Operator {
		case Equals:
			if value != guard.Value {
				return false
			}
		case Matches:
			if !guard.re.MatchString(value) {
				return false
			}
		}
	}
	return true
}

// Apply the rule to a source, in place. It returns true if the rule fired.
func (r Rule) Apply(src *model.Source) bool {
	if !r.matches(src) {
		return false
	}
	for _, sub := range r.substitutions {
		value, ok := src.Field(sub.Field)
		if !ok {
			continue
		}
		src.SetField(sub.Field, sub.re.ReplaceAllString(value, sub.template))
	}
	return true
}

// Apply all rules in order, returning the number of rules which fired
func (rs Rules) Apply(src *model.Source) int {
	var fired int
	for _, r := range rs {
		if r.Apply(src) {
			fired++
		}
	}
	return fired
}

// goTemplate translates \1 and \g<name> back references into the regexp package syntax
func goTemplate(substitution string) string {
	escaped := strings.ReplaceAll(substitution, "$", "$$")
	return backRef.ReplaceAllStringFunc(escaped, func(ref string) string {
		ref = strings.TrimPrefix(ref, `\`)
		if strings.HasPrefix(ref, "g<") {
			ref = strings.TrimSuffix(strings.TrimPrefix(ref, "g<"), ">")
		}
		return "${" + ref + "}"
	})
}

func parseErrorf(format string, args ...interface{}) error {
	return errors.Errorf(format, args...).Wrap(model.ErrConfiguration)
}
