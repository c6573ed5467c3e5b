package transport

import (
	"encoding/json"
	"fmt"
	"net/http"
	"sort"
	"strings"
)

// ParseCookies decodes a cookie document of the form
// [{"name": "value"}, {"other": "value"}].
func ParseCookies(data []byte) ([]map[string]string, error) {
	var cookies []map[string]string
	if err := json.Unmarshal(data, &cookies); err != nil {
		return nil, fmt.Errorf("failed to parse cookies: %w", err)
	}
	return cookies, nil
}

// CookieHeader builds the request header carrying cookies. Invalid cookie
// names are skipped. It returns nil when no cookie survives.
func CookieHeader(cookies []map[string]string) map[string]string {
	var pairs []string

	for _, group := range cookies {
		names := make([]string, 0, len(group))
		for name := range group {
			names = append(names, name)
		}
		sort.Strings(names)

		for _, name := range names {
			c := &http.Cookie{Name: name, Value: group[name]}
			if err := c.Valid(); err != nil {
				continue
			}
			pairs = append(pairs, c.String())
		}
	}

	if len(pairs) == 0 {
		return nil
	}

	return map[string]string{"Cookie": strings.Join(pairs, "; ")}
}
