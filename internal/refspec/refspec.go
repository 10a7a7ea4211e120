package refspec

import (
	"fmt"
	"strings"

	"github.com/lodestar-vc/lodestar/internal/core"
)

// MaxNameLen bounds the length of a transformed reference name. Transforms
// build ordinary strings, so this is a sanity limit rather than a buffer
// size; anything longer is rejected as core.ErrRefNameTooLong.
const MaxNameLen = 1024

// Refspec maps remote reference names to local tracking names via a
// single-wildcard pattern, e.g. "+refs/heads/*:refs/remotes/origin/*".
type Refspec struct {
	Force bool
	src   string
	dst   string
}

// Parse parses a refspec of the form "[+]src:dst". Both sides must either
// contain exactly one "*" or none at all.
func Parse(s string) (*Refspec, error) {
	spec := &Refspec{}

	if strings.HasPrefix(s, "+") {
		spec.Force = true
		s = s[1:]
	}

	colon := strings.IndexByte(s, ':')
	if colon <= 0 || colon == len(s)-1 {
		return nil, fmt.Errorf("%w: %q", core.ErrInvalidRefspec, s)
	}

	spec.src = s[:colon]
	spec.dst = s[colon+1:]

	srcStars := strings.Count(spec.src, "*")
	dstStars := strings.Count(spec.dst, "*")
	if srcStars > 1 || dstStars > 1 || srcStars != dstStars {
		return nil, fmt.Errorf("%w: %q", core.ErrInvalidRefspec, s)
	}

	return spec, nil
}

// Src returns the source pattern.
func (r *Refspec) Src() string {
	return r.src
}

// Dst returns the destination template.
func (r *Refspec) Dst() string {
	return r.dst
}

// MatchSource reports whether a remote reference name matches the source
// pattern.
func (r *Refspec) MatchSource(name string) bool {
	star := strings.IndexByte(r.src, '*')
	if star == -1 {
		return name == r.src
	}

	prefix := r.src[:star]
	suffix := r.src[star+1:]

	return len(name) >= len(prefix)+len(suffix) &&
		strings.HasPrefix(name, prefix) &&
		strings.HasSuffix(name, suffix)
}

// Transform maps a matching remote reference name to its local tracking
// name using the destination template. The name must match the source
// pattern; results longer than MaxNameLen fail with core.ErrRefNameTooLong.
func (r *Refspec) Transform(name string) (string, error) {
	if !r.MatchSource(name) {
		return "", fmt.Errorf("%w: %q does not match %q", core.ErrInvalidRefspec, name, r.src)
	}

	star := strings.IndexByte(r.src, '*')
	if star == -1 {
		return r.dst, nil
	}

	prefix := r.src[:star]
	suffix := r.src[star+1:]
	wild := name[len(prefix) : len(name)-len(suffix)]

	local := strings.Replace(r.dst, "*", wild, 1)
	if len(local) > MaxNameLen {
		return "", fmt.Errorf("%w: %d bytes", core.ErrRefNameTooLong, len(local))
	}

	return local, nil
}

func (r *Refspec) String() string {
	if r.Force {
		return "+" + r.src + ":" + r.dst
	}
	return r.src + ":" + r.dst
}
