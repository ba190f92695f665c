package http

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/isobit/seedog/internal"
	"github.com/isobit/seedog/internal/log"
	"github.com/isobit/seedog/internal/util"
	"github.com/isobit/seedog/internal/version"
)

type dialOptions struct {
	Method          string
	ContentType     string
	Headers         map[string]string
	FollowRedirects bool
	RequestID       bool
}

var dialOptionHelp = seedog.OptionsHelp{}.
	Add("content_type", "<TYPE>", "request Content-Type (default: application/json)").
	Add("follow_redirects", "", "follow redirect responses").
	Add("header.<NAME>", "<VALUE>", "extra request headers to send").
	Add("method", "<METHOD>", "HTTP method to use (default: POST)").
	Add("request_id", "", "send a random X-Request-Id header with each request")

func extractDialOptions(opts seedog.Options) (dialOptions, error) {
	o := dialOptions{
		Method:      http.MethodPost,
		ContentType: "application/json",
		Headers: map[string]string{
			"User-Agent": fmt.Sprintf("seedog/%s", version.Version),
		},
	}

	if val, ok := opts.Pop("method"); ok {
		o.Method = strings.ToUpper(val)
	}

	if val, ok := opts.Pop("content_type"); ok {
		o.ContentType = val
	}

	if _, ok := opts.Pop("follow_redirects"); ok {
		o.FollowRedirects = true
	}

	if _, ok := opts.Pop("request_id"); ok {
		o.RequestID = true
	}

	for key, val := range opts.PopPrefix("header.") {
		o.Headers[key] = val
	}

	return o, opts.Done()
}

type Transport struct {
	url    string
	opts   dialOptions
	client *http.Client
}

func Dial(cfg seedog.Config) (seedog.Transport, error) {
	reqUrl, _ := seedog.SplitURLSubscheme(cfg.URL)

	opts, err := extractDialOptions(cfg.Options)
	if err != nil {
		return nil, err
	}

	tlsConfig, err := cfg.TLS.ClientConfig()
	if err != nil {
		return nil, err
	}

	transport := &http.Transport{
		Proxy:           http.ProxyFromEnvironment,
		TLSClientConfig: tlsConfig,
	}
	client := &http.Client{
		Transport: transport,
	}
	if !opts.FollowRedirects {
		client.CheckRedirect = func(req *http.Request, via []*http.Request) error {
			return http.ErrUseLastResponse
		}
	}

	log.Logf(1, "endpoint: %s %s", opts.Method, reqUrl)
	return &Transport{
		url:    reqUrl.String(),
		opts:   opts,
		client: client,
	}, nil
}

func (t *Transport) Send(ctx context.Context, req seedog.Request) (*seedog.Response, error) {
	bodyData, err := json.Marshal(req)
	if err != nil {
		return nil, err
	}

	httpReq, err := http.NewRequestWithContext(ctx, t.opts.Method, t.url, bytes.NewReader(bodyData))
	if err != nil {
		return nil, err
	}
	for key, val := range t.opts.Headers {
		if strings.EqualFold(key, "host") {
			httpReq.Host = val
		}
		httpReq.Header.Add(key, val)
	}
	if t.opts.ContentType != "" {
		httpReq.Header.Set("Content-Type", t.opts.ContentType)
	}
	if t.opts.RequestID {
		httpReq.Header.Set("X-Request-Id", uuid.NewString())
	}

	log.Logf(2, "request: %s %s", t.opts.Method, httpReq.URL.RequestURI())
	util.LogHeaders(3, "request header: ", httpReq.Header)
	resp, err := t.client.Do(httpReq)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	log.Logf(2, "response: %s", resp.Status)
	util.LogHeaders(3, "response header: ", resp.Header)

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("error reading response: %w", err)
	}

	out := &seedog.Response{
		StatusCode: resp.StatusCode,
		Status:     resp.Status,
	}
	out.DecodeGraphQLResponse(body)
	return out, nil
}

func (t *Transport) Close() error {
	t.client.CloseIdleConnections()
	return nil
}
