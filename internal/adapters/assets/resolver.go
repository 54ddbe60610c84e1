// Package assets resolves stored image paths into fetchable URLs.
package assets

import "strings"

const listingsRoute = "/uploads/listings/"

// Resolver turns raw stored paths into absolute URLs on the asset host.
type Resolver struct{ base string }

func NewResolver(base string) Resolver {
	return Resolver{base: strings.TrimRight(base, "/")}
}

// Resolve maps a stored path to a fetchable URL. Empty input yields "",
// meaning "render no image". Inputs already carrying an HTTP(S) scheme pass
// through unchanged. Anything else is treated as a filesystem-style path
// whose final component is the filename; both / and \ separators occur in
// stored data. Malformed input degrades to best-effort filename extraction,
// never an error.
func (r Resolver) Resolve(path string) string {
	if path == "" {
		return ""
	}
	if strings.HasPrefix(path, "http://") || strings.HasPrefix(path, "https://") {
		return path
	}
	name := path
	if i := strings.LastIndex(name, "\\"); i >= 0 {
		name = name[i+1:]
	}
	if i := strings.LastIndex(name, "/"); i >= 0 {
		name = name[i+1:]
	}
	return r.base + listingsRoute + name
}

// ResolveAll maps a slice of stored paths, dropping entries that resolve to
// nothing.
func (r Resolver) ResolveAll(paths []string) []string {
	if len(paths) == 0 {
		return nil
	}
	out := make([]string, 0, len(paths))
	for _, p := range paths {
		if u := r.Resolve(p); u != "" {
			out = append(out, u)
		}
	}
	return out
}
