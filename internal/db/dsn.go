package db

import (
	"net/url"
	"regexp"
	"strings"
)

var kvPairRegex = regexp.MustCompile(`(?i)\b(host|user|password|dbname|port|sslmode)=`)

// NormalizeDSN accepts either a URL style DSN (postgres://...) or a lib/pq key=value list.
// It trims quotes and whitespace and, if given key=value form, returns it cleaned.
func NormalizeDSN(raw string) string {
	s := strings.TrimSpace(raw)
	s = strings.Trim(s, "\"'")
	if s == "" {
		return s
	}
	lower := strings.ToLower(s)
	if strings.HasPrefix(lower, "postgres://") || strings.HasPrefix(lower, "postgresql://") {
		return s
	}
	// not key=value pairs either: let the driver report it
	if !kvPairRegex.MatchString(s) {
		return s
	}
	cleaned := strings.Join(strings.Fields(s), " ")
	if !strings.Contains(strings.ToLower(cleaned), "sslmode=") {
		cleaned += " sslmode=disable"
	}
	return cleaned
}

// RedactDSN describes a postgres DSN for logs: key=value lists are rewritten in URL
// form and the password is masked. Input that is neither form yields "<dsn>".
func RedactDSN(dsn string) string {
	lower := strings.ToLower(dsn)
	if strings.HasPrefix(lower, "postgres://") || strings.HasPrefix(lower, "postgresql://") {
		u, err := url.Parse(dsn)
		if err != nil {
			return "<dsn>"
		}
		return u.Redacted()
	}

	params := map[string]string{}
	for _, part := range strings.Fields(dsn) {
		if key, value, ok := strings.Cut(part, "="); ok {
			params[strings.ToLower(key)] = value
		}
	}
	if params["host"] == "" {
		return "<dsn>"
	}
	u := &url.URL{Scheme: "postgres", Host: params["host"], Path: "/" + params["dbname"]}
	if port := params["port"]; port != "" {
		u.Host += ":" + port
	}
	switch {
	case params["password"] != "":
		u.User = url.UserPassword(params["user"], params["password"])
	case params["user"] != "":
		u.User = url.User(params["user"])
	}
	if mode, ok := params["sslmode"]; ok {
		u.RawQuery = url.Values{"sslmode": {mode}}.Encode()
	}
	return u.Redacted()
}
