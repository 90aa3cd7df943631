package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestURLRewriter(t *testing.T) {
	rw := URLRewriter{InternalHost: "activepieces:80", ExternalURL: "http://localhost:8080"}

	cases := []struct {
		name string
		in   string
		want string
	}{
		{"internal host rewritten", "http://activepieces:80", "http://localhost:8080"},
		{"internal host with path", "http://activepieces:80/api", "http://localhost:8080"},
		{"external url untouched", "https://flows.example.com", "https://flows.example.com"},
		{"empty passes through", "", ""},
		{"substring match counts", "http://activepieces:8080", "http://localhost:8080"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, rw.Rewrite(tc.in))
		})
	}
}

func TestURLRewriterUnconfigured(t *testing.T) {
	rw := URLRewriter{}
	assert.Equal(t, "http://activepieces:80", rw.Rewrite("http://activepieces:80"))
}
