package entity

import (
	"net/url"
	"strings"
)

// ResolveTarget builds the destination string for a job: the reference's base
// target followed by any extra path segments. Segments are percent-encoded
// individually and joined with "/"; when segments are present the base is
// first forced to end with exactly one "/". The function is total over its
// input domain and never fails.
func ResolveTarget(ref Ref, segments ...string) string {
	base := ref.Target()
	if len(segments) == 0 {
		return base
	}

	var b strings.Builder
	b.WriteString(strings.TrimRight(base, "/"))
	b.WriteByte('/')
	for i, seg := range segments {
		if i > 0 {
			b.WriteByte('/')
		}
		b.WriteString(url.PathEscape(seg))
	}
	return b.String()
}
