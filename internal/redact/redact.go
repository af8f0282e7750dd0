// Package redact masks credentials in rendered atomic test commands before
// they are written to the execution log.
package redact

import (
	"regexp"
	"strings"
)

// redactedPlaceholder replaces every match. Patterns with a capture group
// keep group 1 (the flag or key) and mask the rest.
const redactedPlaceholder = "[REDACTED]"

type pattern struct {
	re       *regexp.Regexp
	keepHead bool
}

var sensitivePatterns = []pattern{
	// key=value and key: value assignments
	{regexp.MustCompile(`(?i)((?:password|passwd|pwd|secret|api_?key|access_?token|auth_?token)\s*[=:]\s*)['"]?[^\s'";]{4,}['"]?`), true},

	// PowerShell credential parameters and SecureString literals
	{regexp.MustCompile(`(?i)(-(?:Password|AccountPassword|Credential|Secret|Token)\s+)(?:'[^']*'|"[^"]*"|[^\s;|)]+)`), true},
	{regexp.MustCompile(`(?i)(ConvertTo-SecureString\s+(?:-String\s+)?)(?:'[^']*'|"[^"]*"|[^\s;|)]+)`), true},

	// Windows net.exe / runas style: net user <name> <password> /add
	{regexp.MustCompile(`(?i)(\bnet(?:\.exe)?\s+user\s+\S+\s+)([^\s/]+)`), true},

	// Credential tool switches: /password:x /p:x /ntlm:hash /aes256:key /rc4:hash
	{regexp.MustCompile(`(?i)(/(?:password|pass|p|ntlm|rc4|aes128|aes256|hash):)\S+`), true},

	// Inline passwords on common CLIs
	{regexp.MustCompile(`(\bsshpass\s+-p\s*)\S+`), true},
	{regexp.MustCompile(`(\b(?:mysql|mysqldump)\b[^|;]*?\s-p)\S+`), true},
	{regexp.MustCompile(`(?i)(\bcurl\b[^|;]*?\s(?:-u|--user)\s+[^:\s]+:)\S+`), true},

	// Basic auth in URLs
	{regexp.MustCompile(`(https?://[^:/\s]+:)[^@\s]+@`), true},

	// Cloud and VCS tokens
	{regexp.MustCompile(`AKIA[0-9A-Z]{16}`), false},
	{regexp.MustCompile(`gh[pousr]_[A-Za-z0-9]{36}`), false},
	{regexp.MustCompile(`(?i)bearer\s+[A-Za-z0-9._-]{20,}`), false},

	// Private key blocks
	{regexp.MustCompile(`-----BEGIN (RSA |EC |DSA |OPENSSH |PGP )?PRIVATE KEY-----`), false},
}

// Redact masks credentials in s.
func Redact(s string) string {
	for _, p := range sensitivePatterns {
		if p.keepHead {
			s = p.re.ReplaceAllString(s, "${1}"+redactedPlaceholder)
			continue
		}
		s = p.re.ReplaceAllString(s, redactedPlaceholder)
	}
	return s
}

// sensitiveArgNames are substrings of input argument names whose values are
// masked wherever they appear.
var sensitiveArgNames = []string{"password", "passwd", "pass", "secret", "token", "hash", "key", "credential"}

// IsSensitiveName reports whether an input argument name suggests a
// credential.
func IsSensitiveName(name string) bool {
	lower := strings.ToLower(name)
	for _, s := range sensitiveArgNames {
		if strings.Contains(lower, s) {
			return true
		}
	}
	return false
}

// Values masks every occurrence of the given literal values in s. Values
// shorter than four characters are left alone to avoid shredding the
// command.
func Values(s string, values []string) string {
	for _, v := range values {
		if len(v) < 4 {
			continue
		}
		s = strings.ReplaceAll(s, v, redactedPlaceholder)
	}
	return s
}
