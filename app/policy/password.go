// Package policy implements the password strength rules applied on
// sign-up and password reset.
package policy

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/vibast-solutions/ms-go-segfault/config"
)

// SpecialCharacters is the ASCII punctuation set a password may draw its
// special character from.
const SpecialCharacters = "!\"#$%&'()*+,-./:;<=>?@[\\]^_`{|}~"

// Rule is a single clause of a password policy.
type Rule struct {
	Name  string
	Match func(password string) bool
}

func MinLength(n int) Rule {
	return Rule{
		Name: fmt.Sprintf("at least %d characters", n),
		Match: func(password string) bool {
			return utf8.RuneCountInString(password) >= n
		},
	}
}

func Uppercase() Rule {
	return Rule{Name: "uppercase letter", Match: containsASCII(isUpper)}
}

func Lowercase() Rule {
	return Rule{Name: "lowercase letter", Match: containsASCII(isLower)}
}

func Digit() Rule {
	return Rule{Name: "number", Match: containsASCII(isDigit)}
}

func Special() Rule {
	return Rule{Name: "special character", Match: containsASCII(isSpecial)}
}

// SingleLine rejects line breaks.
func SingleLine() Rule {
	return Rule{
		Name: "no line breaks",
		Match: func(password string) bool {
			return !strings.ContainsAny(password, "\r\n")
		},
	}
}

type PasswordPolicy struct {
	rules []Rule
}

func New(rules ...Rule) *PasswordPolicy {
	return &PasswordPolicy{rules: rules}
}

// FromConfig builds the policy described by the configured knobs.
func FromConfig(cfg config.PasswordPolicy) *PasswordPolicy {
	rules := []Rule{MinLength(cfg.MinLength), SingleLine()}
	if cfg.RequireUppercase {
		rules = append(rules, Uppercase())
	}
	if cfg.RequireLowercase {
		rules = append(rules, Lowercase())
	}
	if cfg.RequireNumber {
		rules = append(rules, Digit())
	}
	if cfg.RequireSpecial {
		rules = append(rules, Special())
	}
	return New(rules...)
}

// Default is the policy used when nothing is configured: 8 characters with
// upper, lower, digit and special.
func Default() *PasswordPolicy {
	return New(MinLength(8), SingleLine(), Uppercase(), Lowercase(), Digit(), Special())
}

// Validate reports whether password satisfies every rule.
func (p *PasswordPolicy) Validate(password string) bool {
	for _, rule := range p.rules {
		if !rule.Match(password) {
			return false
		}
	}
	return true
}

// Check is Validate with the names of the failing rules in the error.
func (p *PasswordPolicy) Check(password string) error {
	var missing []string
	for _, rule := range p.rules {
		if !rule.Match(password) {
			missing = append(missing, rule.Name)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("password must have: %s", strings.Join(missing, ", "))
	}
	return nil
}

func containsASCII(class func(byte) bool) func(string) bool {
	return func(password string) bool {
		for i := 0; i < len(password); i++ {
			if class(password[i]) {
				return true
			}
		}
		return false
	}
}

func isUpper(c byte) bool { return c >= 'A' && c <= 'Z' }

func isLower(c byte) bool { return c >= 'a' && c <= 'z' }

func isDigit(c byte) bool { return c >= '0' && c <= '9' }

func isSpecial(c byte) bool { return strings.IndexByte(SpecialCharacters, c) >= 0 }
