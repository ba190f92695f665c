package seedog

import (
	"fmt"
	"net/url"
	"sort"
	"strings"

	seedog_tls "github.com/isobit/seedog/internal/tls"
)

// Scheme binds URL scheme names to a transport for endpoints (Dial) and/or a
// sink for generated records (Open).
type Scheme struct {
	Names       []string
	HiddenNames []string

	Dial func(Config) (Transport, error)
	Open func(Config) (Sink, error)

	Description    string
	DialOptionHelp OptionsHelp
	SinkOptionHelp OptionsHelp
}

type Config struct {
	URL     *url.URL
	Options Options
	TLS     seedog_tls.Config
}

// Clone copies the options map so a scheme can pop from it without affecting
// later dials.
func (cfg Config) Clone() Config {
	c := cfg
	c.Options = make(Options, len(cfg.Options))
	for k, v := range cfg.Options {
		c.Options[k] = v
	}
	return c
}

type Options map[string]string

func ParseOptions(kvs []string) Options {
	opts := Options{}
	for _, s := range kvs {
		key, value, _ := strings.Cut(s, "=")
		opts[key] = value
	}
	return opts
}

func (opts Options) Pop(key string) (string, bool) {
	v, ok := opts[key]
	if ok {
		delete(opts, key)
	}
	return v, ok
}

// PopPrefix removes and returns every option whose key starts with prefix,
// keyed by the remainder of the key.
func (opts Options) PopPrefix(prefix string) map[string]string {
	m := map[string]string{}
	for key, val := range opts {
		if !strings.HasPrefix(key, prefix) {
			continue
		}
		m[strings.TrimPrefix(key, prefix)] = val
		delete(opts, key)
	}
	return m
}

func (opts Options) Done() error {
	if len(opts) == 0 {
		return nil
	}
	keys := []string{}
	for k := range opts {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return fmt.Errorf("unknown options: %s", strings.Join(keys, ", "))
}

type OptionsHelp []OptionHelp

func (oh OptionsHelp) Add(name string, value string, description string) OptionsHelp {
	oh = append(oh, OptionHelp{
		Name:        name,
		Value:       value,
		Description: description,
	})
	return oh
}

type OptionHelp struct {
	Name        string
	Value       string
	Description string
}

func SplitURLSubscheme(url *url.URL) (*url.URL, string) {
	if url == nil {
		return nil, ""
	}
	urlCopy := *url
	scheme, subscheme, _ := strings.Cut(url.Scheme, "+")
	urlCopy.Scheme = scheme
	return &urlCopy, subscheme
}
