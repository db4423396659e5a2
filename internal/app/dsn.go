package app

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/riskibarqy/futboss/internal/config"
)

type dsnParam struct {
	key   string
	value string
}

// connectionDSN adds the driver parameters the pool relies on. Values already
// present in DB_URL win. Both URL and keyword/value forms are accepted.
func connectionDSN(cfg config.Config) string {
	params := []dsnParam{{key: "application_name", value: cfg.ServiceName}}
	if cfg.DBDisablePreparedBinaryResult {
		params = append(params, dsnParam{key: "disable_prepared_binary_result", value: "yes"})
	}
	return withDSNParams(strings.TrimSpace(cfg.DBURL), params)
}

func withDSNParams(raw string, params []dsnParam) string {
	if u, ok := parseDSNURL(raw); ok {
		query := u.Query()
		changed := false
		for _, p := range params {
			if p.value == "" || query.Has(p.key) {
				continue
			}
			query.Set(p.key, p.value)
			changed = true
		}
		if !changed {
			return raw
		}
		u.RawQuery = query.Encode()
		return u.String()
	}

	existing := keywordDSN(raw)
	var b strings.Builder
	b.WriteString(raw)
	for _, p := range params {
		if _, ok := existing[p.key]; ok || p.value == "" {
			continue
		}
		if b.Len() > 0 {
			b.WriteByte(' ')
		}
		fmt.Fprintf(&b, "%s='%s'", p.key, strings.ReplaceAll(p.value, "'", `\'`))
	}
	return b.String()
}

// databaseName reports the target database for logs and spans.
func databaseName(dsn string) string {
	if u, ok := parseDSNURL(dsn); ok {
		return strings.TrimSpace(strings.Trim(u.Path, "/"))
	}
	return keywordDSN(dsn)["dbname"]
}

func parseDSNURL(raw string) (*url.URL, bool) {
	if !strings.HasPrefix(raw, "postgres://") && !strings.HasPrefix(raw, "postgresql://") {
		return nil, false
	}
	u, err := url.Parse(raw)
	if err != nil {
		return nil, false
	}
	return u, true
}

// keywordDSN reads "key=value" pairs separated by spaces. Quoted values
// containing spaces are not supported.
func keywordDSN(raw string) map[string]string {
	out := make(map[string]string)
	for _, token := range strings.Fields(raw) {
		key, value, ok := strings.Cut(token, "=")
		if !ok {
			continue
		}
		out[strings.TrimSpace(key)] = strings.Trim(strings.TrimSpace(value), `"'`)
	}
	return out
}
