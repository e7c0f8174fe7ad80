package psql

// PasswordEnv is the variable psql reads a password from instead of
// prompting, which would hang a non-interactive run.
const PasswordEnv = "PGPASSWORD"

// Environ returns base with the psql password appended when non-empty.
// os/exec resolves duplicate keys in favor of the later entry, so
// appending last overrides any inherited PGPASSWORD without scanning for
// it. An empty password returns base untouched.
func Environ(base []string, password string) []string {
	if password == "" {
		return base
	}
	out := make([]string, 0, len(base)+1)
	out = append(out, base...)
	out = append(out, PasswordEnv+"="+password)
	return out
}
