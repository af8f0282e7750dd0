// Package command renders atomic test command templates.
package command

import (
	"fmt"
	"regexp"
	"strings"

	"mvdan.cc/sh/v3/syntax"

	"github.com/smnkrgr/AtomicActions/internal/atomic"
)

var (
	placeholderRegex = regexp.MustCompile(`#\{([^{}]+)\}`)
	lineBreaks       = strings.NewReplacer("\n", "", "\r", "")
)

// Substitute replaces every #{name} with the default of the matching input
// argument, in declaration order, then strips \n and \r. Placeholders
// without an argument are left as they are.
func Substitute(command string, args atomic.InputArguments) string {
	for _, arg := range args {
		command = strings.ReplaceAll(command, "#{"+arg.Name+"}", arg.Default)
	}
	return lineBreaks.Replace(command)
}

// Placeholders returns the distinct placeholder names still present in
// command, in order of first appearance.
func Placeholders(command string) []string {
	var names []string
	seen := make(map[string]bool)
	for _, m := range placeholderRegex.FindAllStringSubmatch(command, -1) {
		if !seen[m[1]] {
			seen[m[1]] = true
			names = append(names, m[1])
		}
	}
	return names
}

// CheckSyntax parses command with the grammar of a POSIX or bash executor.
// Executors that are not a POSIX-family shell are not checked.
func CheckSyntax(command, executor string) error {
	var lang syntax.LangVariant
	switch executor {
	case "sh":
		lang = syntax.LangPOSIX
	case "bash":
		lang = syntax.LangBash
	default:
		return nil
	}

	parser := syntax.NewParser(syntax.KeepComments(false), syntax.Variant(lang))
	if _, err := parser.Parse(strings.NewReader(command), ""); err != nil {
		return fmt.Errorf("%s syntax: %w", executor, err)
	}
	return nil
}
