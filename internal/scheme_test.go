package seedog

import (
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOptions(t *testing.T) {
	opts := ParseOptions([]string{"method=PUT", "header.X-A=1", "header.X-B=2=3", "follow_redirects"})

	method, ok := opts.Pop("method")
	assert.True(t, ok)
	assert.Equal(t, "PUT", method)

	_, ok = opts.Pop("method")
	assert.False(t, ok)

	assert.Equal(t, map[string]string{"X-A": "1", "X-B": "2=3"}, opts.PopPrefix("header."))

	assert.EqualError(t, opts.Done(), "unknown options: follow_redirects")
	opts.Pop("follow_redirects")
	assert.NoError(t, opts.Done())
}

func TestConfigClone(t *testing.T) {
	cfg := Config{Options: Options{"a": "1"}}
	c := cfg.Clone()
	c.Options.Pop("a")
	assert.Equal(t, Options{"a": "1"}, cfg.Options)
}

func TestSplitURLSubscheme(t *testing.T) {
	u, err := url.Parse("http+graphql://127.0.0.1:8080/graphql")
	require.NoError(t, err)

	base, sub := SplitURLSubscheme(u)
	assert.Equal(t, "http://127.0.0.1:8080/graphql", base.String())
	assert.Equal(t, "graphql", sub)
	assert.Equal(t, "http+graphql", u.Scheme)
}
