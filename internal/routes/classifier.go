// Package routes decides whether a request path requires authentication.
// Classification is a pure function of the configured prefix lists.
package routes

import "strings"

// Classifier holds the configured public and private route prefixes.
type Classifier struct {
	public  []string
	private []string
}

// Decision labels a path. A path may match both lists; RequiresAuth resolves
// the tie in favor of private.
type Decision struct {
	Public  bool
	Private bool
}

// RequiresAuth reports whether the request must carry a valid session.
// Private overrides public: when a path matches both lists it is treated as
// private, a deliberate security-biased tie-break.
func (d Decision) RequiresAuth() bool {
	return d.Private
}

// NewClassifier creates a Classifier over the given prefix lists.
func NewClassifier(public, private []string) *Classifier {
	return &Classifier{public: public, private: private}
}

// Classify labels a path against both prefix lists. A path matches an entry
// if it equals the entry exactly or starts with it.
func (c *Classifier) Classify(path string) Decision {
	return Decision{
		Public:  matchesAny(path, c.public),
		Private: matchesAny(path, c.private),
	}
}

func matchesAny(path string, prefixes []string) bool {
	for _, p := range prefixes {
		if path == p || strings.HasPrefix(path, p) {
			return true
		}
	}
	return false
}
