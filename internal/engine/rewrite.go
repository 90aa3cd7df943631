package engine

import "strings"

// URLRewriter substitutes the engine's container-network address with the
// externally routable one before a URL is handed to a browser. Pure string
// recognition; it never probes reachability.
type URLRewriter struct {
	// InternalHost is the host pattern only resolvable inside the
	// deployment network, e.g. "activepieces:80".
	InternalHost string
	// ExternalURL is the address browsers can reach, e.g.
	// "http://localhost:8080".
	ExternalURL string
}

// Rewrite returns the externally reachable equivalent of instanceURL when it
// contains the internal host pattern, and the URL unchanged otherwise.
func (rw URLRewriter) Rewrite(instanceURL string) string {
	if rw.InternalHost == "" || !strings.Contains(instanceURL, rw.InternalHost) {
		return instanceURL
	}
	return rw.ExternalURL
}
