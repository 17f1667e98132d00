package pathutil

import "strings"

// Unmatched is the label for any path the API does not serve. Scanners
// probing random URLs all land on this one value.
const Unmatched = "/:unmatched"

// staticRoutes are served as-is.
var staticRoutes = map[string]struct{}{
	"/":                {},
	"/entries":         {},
	"/payment-intents": {},
	"/webhook":         {},
	"/health":          {},
	"/ready":           {},
	"/live":            {},
	"/metrics":         {},
}

// route is a templated path split on "/". A segment starting with ":" matches any single non-empty segment.
type route []string

var templates = []route{
	{"admin", "entries", ":id", "review-status"},
	{"entries", ":key"},
	{"files", ":paymentIntentId"},
}

// NormalizePath maps a request path onto the route it belongs to so that
// ids never become metric labels or span names:
//
//	/entries/ent_01j9z3k5 -> /entries/:key
//	/files/pi_3N8/        -> /files/:paymentIntentId
//	/wp-login.php         -> /:unmatched
//
// A query string and one trailing slash are ignored.
func NormalizePath(path string) string {
	if i := strings.IndexByte(path, '?'); i >= 0 {
		path = path[:i]
	}
	if len(path) > 1 {
		path = strings.TrimSuffix(path, "/")
	}
	if _, ok := staticRoutes[path]; ok {
		return path
	}

	segs := strings.Split(strings.TrimPrefix(path, "/"), "/")
	for _, t := range templates {
		if t.matches(segs) {
			return "/" + strings.Join(t, "/")
		}
	}
	return Unmatched
}

func (t route) matches(segs []string) bool {
	if len(segs) != len(t) {
		return false
	}
	for i, want := range t {
		if segs[i] == "" {
			return false
		}
		if !strings.HasPrefix(want, ":") && segs[i] != want {
			return false
		}
	}
	return true
}

// Cardinality is the number of distinct values NormalizePath can return.
func Cardinality() int {
	return len(staticRoutes) + len(templates) + 1
}
