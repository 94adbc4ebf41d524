package validation

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestURLValidator_Defaults(t *testing.T) {
	v := NewURLValidator()
	assert.False(t, v.AllowLocalhost)
	assert.False(t, v.AllowPrivateIPs)
	assert.Equal(t, 2048, v.MaxLength)

	p := NewPermissiveURLValidator()
	assert.True(t, p.AllowLocalhost)
	assert.True(t, p.AllowPrivateIPs)
}

func TestURLValidator_Normalize(t *testing.T) {
	v := NewURLValidator()

	tests := []struct {
		name     string
		input    string
		expected string
		errMsg   string
	}{
		{name: "empty", input: "", errMsg: "URL cannot be empty"},
		{name: "whitespace only", input: "   ", errMsg: "URL cannot be empty"},
		{name: "scheme added", input: "github.com/feed", expected: "https://github.com/feed"},
		{name: "http kept", input: "http://github.com/feed", expected: "http://github.com/feed"},
		{name: "trimmed", input: "  https://blog.golang.org/feed.atom \n", expected: "https://blog.golang.org/feed.atom"},
		{name: "query kept", input: "https://news.ycombinator.com/rss?x=1", expected: "https://news.ycombinator.com/rss?x=1"},
		{name: "too long", input: "https://github.com/" + strings.Repeat("a", 3000), errMsg: "URL too long"},
		{name: "markup", input: "https://github.com/<script>", errMsg: "invalid characters"},
		{name: "ftp", input: "ftp://github.com/feed", errMsg: "http or https"},
		{name: "no host", input: "https:///feed", errMsg: "valid hostname"},
		{name: "localhost", input: "http://localhost:8420", errMsg: "localhost"},
		{name: "sub localhost", input: "http://api.localhost/", errMsg: "localhost"},
		{name: "loopback", input: "https://127.0.0.1/feed", errMsg: "localhost"},
		{name: "ipv6 loopback", input: "http://[::1]:80/", errMsg: "localhost"},
		{name: "private v4", input: "https://192.168.1.1/feed", errMsg: "private IP"},
		{name: "private 10/8", input: "https://10.2.3.4/feed", errMsg: "private IP"},
		{name: "link local", input: "http://169.254.169.254/latest", errMsg: "private IP"},
		{name: "unspecified", input: "http://0.0.0.0/", errMsg: "not routable"},
		{name: "traversal", input: "https://github.com/a/../etc", errMsg: "traversal"},
		{name: "public ip", input: "http://8.8.8.8/feed", expected: "http://8.8.8.8/feed"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := v.Normalize(tt.input)
			if tt.errMsg != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.errMsg)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expected, got)
		})
	}
}

func TestURLValidator_Permissive(t *testing.T) {
	v := NewPermissiveURLValidator()

	for _, in := range []string{
		"http://localhost:8420",
		"http://127.0.0.1:38211/api",
		"https://192.168.1.10/feed",
	} {
		t.Run(in, func(t *testing.T) {
			got, err := v.Normalize(in)
			require.NoError(t, err)
			assert.Equal(t, in, got)
		})
	}
}

func TestURLValidator_SentinelErrors(t *testing.T) {
	v := NewURLValidator()

	_, err := v.Normalize("http://localhost/")
	assert.ErrorIs(t, err, ErrLocalhost)

	_, err = v.Normalize("http://172.16.0.5/")
	assert.ErrorIs(t, err, ErrPrivateIP)
}
