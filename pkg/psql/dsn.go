package psql

import "net/url"

// SanitizeDSN strips the query component from a URL-style connection
// string. Query parameters such as sslmode or connect_timeout can override
// session behavior, so they are removed before the DSN reaches psql. A DSN
// without a query component is returned unchanged, which also covers
// keyword/value connection strings that are not URLs at all.
func SanitizeDSN(dsn string) string {
	if dsn == "" {
		return dsn
	}
	u, err := url.Parse(dsn)
	if err != nil || u.RawQuery == "" {
		return dsn
	}
	u.RawQuery = ""
	return u.String()
}

// RedactDSN masks the userinfo password in a URL-style connection string.
// The result is for display only (logs, previews, reports) and must never
// be passed to psql.
func RedactDSN(dsn string) string {
	if dsn == "" {
		return dsn
	}
	u, err := url.Parse(dsn)
	if err != nil || u.User == nil {
		return dsn
	}
	if _, has := u.User.Password(); !has {
		return dsn
	}
	u.User = url.UserPassword(u.User.Username(), "xxxxx")
	return u.String()
}
