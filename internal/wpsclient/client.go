// Copyright 2025 The GeoFlow Authors
// SPDX-License-Identifier: Apache-2.0

// Package wpsclient talks WPS 1.0 to remote providers: capabilities and
// process discovery, execute dispatch, status polling, and the importer that
// synthesizes local packages from remote process descriptions.
package wpsclient

import (
	"bytes"
	"context"
	"encoding/xml"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/geoflow/geoflow/internal/wps"
)

// Default transport policy for remote providers.
const (
	DefaultConnectTimeout = 10 * time.Second
	DefaultReadTimeout    = 60 * time.Second
	DefaultRetries        = 3
	retryInitialInterval  = 2 * time.Second
)

// TransportError marks a retryable remote failure (network error or one of
// the transient HTTP statuses). Exhausted retries surface it to the caller,
// which records a CommunicationFailure exception.
type TransportError struct {
	URL    string
	Status int
	Err    error
}

func (e *TransportError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("provider unreachable at %s: %v", e.URL, e.Err)
	}
	return fmt.Sprintf("provider returned status %d at %s", e.Status, e.URL)
}

func (e *TransportError) Unwrap() error { return e.Err }

func transientStatus(code int) bool {
	switch code {
	case http.StatusRequestTimeout, http.StatusBadGateway,
		http.StatusServiceUnavailable, http.StatusGatewayTimeout:
		return true
	}
	return false
}

// Client is a WPS 1.0 client bound to one provider endpoint.
type Client struct {
	endpoint string
	http     *http.Client
	headers  map[string]string
	retries  uint64
	logger   *slog.Logger
}

// NewClient builds a client for the provider endpoint. A nil httpClient gets
// the default transport policy.
func NewClient(endpoint string, httpClient *http.Client, logger *slog.Logger) *Client {
	if httpClient == nil {
		httpClient = &http.Client{
			Timeout: DefaultReadTimeout,
			Transport: &http.Transport{
				DialContext: (&net.Dialer{Timeout: DefaultConnectTimeout}).DialContext,
			},
		}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		endpoint: endpoint,
		http:     httpClient,
		headers:  map[string]string{},
		retries:  DefaultRetries,
		logger:   logger,
	}
}

// SetHeader attaches a header to every request, e.g. an ESGF api key.
func (c *Client) SetHeader(key, value string) {
	c.headers[key] = value
}

// Endpoint returns the provider URL this client is bound to.
func (c *Client) Endpoint() string { return c.endpoint }

// do runs one HTTP request with exponential-backoff retry on transient
// failures and returns the response body.
func (c *Client) do(ctx context.Context, method, rawURL string, body []byte, contentType string) ([]byte, error) {
	var out []byte
	op := func() error {
		var reader io.Reader
		if body != nil {
			reader = bytes.NewReader(body)
		}
		req, err := http.NewRequestWithContext(ctx, method, rawURL, reader)
		if err != nil {
			return backoff.Permanent(err)
		}
		if contentType != "" {
			req.Header.Set("Content-Type", contentType)
		}
		for k, v := range c.headers {
			req.Header.Set(k, v)
		}

		resp, err := c.http.Do(req)
		if err != nil {
			return &TransportError{URL: rawURL, Err: err}
		}
		defer resp.Body.Close()

		data, err := io.ReadAll(resp.Body)
		if err != nil {
			return &TransportError{URL: rawURL, Err: err}
		}
		if transientStatus(resp.StatusCode) {
			return &TransportError{URL: rawURL, Status: resp.StatusCode}
		}
		if resp.StatusCode >= 400 {
			return backoff.Permanent(remoteError(rawURL, resp.StatusCode, data))
		}
		out = data
		return nil
	}

	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = retryInitialInterval
	err := backoff.Retry(op, backoff.WithContext(backoff.WithMaxRetries(policy, c.retries), ctx))
	return out, err
}

// remoteError surfaces a 4xx/5xx body, preferring the OWS exception text.
func remoteError(rawURL string, status int, body []byte) error {
	var report wps.ExceptionReport
	if err := xml.Unmarshal(body, &report); err == nil && len(report.Exceptions) > 0 {
		exc := report.Exceptions[0]
		text := exc.Code
		if len(exc.Texts) > 0 {
			text = exc.Texts[0]
		}
		return fmt.Errorf("provider error at %s (status %d): %s", rawURL, status, text)
	}
	return fmt.Errorf("provider error at %s: status %d", rawURL, status)
}

func (c *Client) kvpURL(query url.Values) string {
	u, err := url.Parse(c.endpoint)
	if err != nil {
		return c.endpoint
	}
	base := u.Query()
	for k, vs := range query {
		for _, v := range vs {
			base.Set(k, v)
		}
	}
	u.RawQuery = base.Encode()
	return u.String()
}

// GetCapabilities fetches and parses the provider capabilities.
func (c *Client) GetCapabilities(ctx context.Context) (*wps.Capabilities, error) {
	raw, err := c.do(ctx, http.MethodGet, c.kvpURL(url.Values{
		"service": {"WPS"}, "request": {"GetCapabilities"}, "version": {wps.ServiceVersion},
	}), nil, "")
	if err != nil {
		return nil, err
	}
	var caps wps.Capabilities
	if err := xml.Unmarshal(raw, &caps); err != nil {
		return nil, fmt.Errorf("invalid capabilities document from %s: %w", c.endpoint, err)
	}
	return &caps, nil
}

// DescribeProcess fetches the description of one remote process. The
// response must contain exactly one ProcessDescription.
func (c *Client) DescribeProcess(ctx context.Context, processID string) (*wps.ProcessDescription, error) {
	raw, err := c.do(ctx, http.MethodGet, c.kvpURL(url.Values{
		"service": {"WPS"}, "request": {"DescribeProcess"},
		"version": {wps.ServiceVersion}, "identifier": {processID},
	}), nil, "")
	if err != nil {
		return nil, err
	}
	return ParseProcessDescription(raw)
}

// ParseProcessDescription decodes a DescribeProcess body, requiring exactly
// one ProcessDescription element with an identifier.
func ParseProcessDescription(raw []byte) (*wps.ProcessDescription, error) {
	var descs wps.ProcessDescriptions
	if err := xml.Unmarshal(raw, &descs); err != nil {
		return nil, fmt.Errorf("invalid process description document: %w", err)
	}
	if n := len(descs.Processes); n != 1 {
		return nil, fmt.Errorf("expected exactly one process description, got %d", n)
	}
	desc := descs.Processes[0]
	if desc.Identifier == "" {
		return nil, fmt.Errorf("process description without identifier")
	}
	return &desc, nil
}

// ExecuteValue is one input value for a remote execute call, already
// rendered to its transport form.
type ExecuteValue struct {
	ID       string
	Data     string
	Href     string
	MimeType string
}

// ExecuteOutput requests one output, by reference for complex data.
type ExecuteOutput struct {
	ID          string
	AsReference bool
}

// Execute dispatches an asynchronous execute request and returns the parsed
// response, whose statusLocation feeds the poller.
func (c *Client) Execute(ctx context.Context, processID string, inputs []ExecuteValue, outputs []ExecuteOutput) (*wps.ExecuteResponse, error) {
	doc := newExecuteRequest(processID, inputs, outputs)
	body, err := xml.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("cannot encode execute request: %w", err)
	}
	body = append([]byte(xml.Header), body...)

	raw, err := c.do(ctx, http.MethodPost, c.endpoint, body, "application/xml")
	if err != nil {
		return nil, err
	}
	var resp wps.ExecuteResponse
	if err := xml.Unmarshal(raw, &resp); err != nil {
		return nil, fmt.Errorf("invalid execute response from %s: %w", c.endpoint, err)
	}
	return &resp, nil
}

// FetchStatus re-fetches a status document from its status location.
func (c *Client) FetchStatus(ctx context.Context, statusLocation string) (*wps.ExecuteResponse, error) {
	raw, err := c.do(ctx, http.MethodGet, statusLocation, nil, "")
	if err != nil {
		return nil, err
	}
	var resp wps.ExecuteResponse
	if err := xml.Unmarshal(raw, &resp); err != nil {
		return nil, fmt.Errorf("invalid status document at %s: %w", statusLocation, err)
	}
	return &resp, nil
}

// Execute request document.

type executeLiteralXML struct {
	Value string `xml:",chardata"`
}

type executeReferenceXML struct {
	Href     string `xml:"xlink:href,attr"`
	MimeType string `xml:"mimeType,attr,omitempty"`
}

type executeInputXML struct {
	Identifier string               `xml:"ows:Identifier"`
	Reference  *executeReferenceXML `xml:"wps:Reference,omitempty"`
	Literal    *executeLiteralXML   `xml:"wps:Data>wps:LiteralData,omitempty"`
}

type executeOutputXML struct {
	AsReference bool   `xml:"asReference,attr"`
	Identifier  string `xml:"ows:Identifier"`
}

type responseDocumentXML struct {
	StoreExecuteResponse bool               `xml:"storeExecuteResponse,attr"`
	Status               bool               `xml:"status,attr"`
	Outputs              []executeOutputXML `xml:"wps:Output"`
}

type executeRequestXML struct {
	XMLName    xml.Name `xml:"wps:Execute"`
	XMLNSWPS   string   `xml:"xmlns:wps,attr"`
	XMLNSOWS   string   `xml:"xmlns:ows,attr"`
	XMLNSXLink string   `xml:"xmlns:xlink,attr"`
	Service    string   `xml:"service,attr"`
	Version    string   `xml:"version,attr"`
	Identifier string   `xml:"ows:Identifier"`

	Inputs []executeInputXML `xml:"wps:DataInputs>wps:Input"`

	ResponseDocument responseDocumentXML `xml:"wps:ResponseForm>wps:ResponseDocument"`
}

func newExecuteRequest(processID string, inputs []ExecuteValue, outputs []ExecuteOutput) *executeRequestXML {
	req := &executeRequestXML{
		XMLNSWPS:   wps.NamespaceWPS,
		XMLNSOWS:   wps.NamespaceOWS,
		XMLNSXLink: wps.NamespaceXLink,
		Service:    "WPS",
		Version:    wps.ServiceVersion,
		Identifier: processID,
	}
	req.ResponseDocument.StoreExecuteResponse = true
	req.ResponseDocument.Status = true
	for _, in := range inputs {
		entry := executeInputXML{Identifier: in.ID}
		if in.Href != "" {
			entry.Reference = &executeReferenceXML{Href: in.Href, MimeType: in.MimeType}
		} else {
			entry.Literal = &executeLiteralXML{Value: in.Data}
		}
		req.Inputs = append(req.Inputs, entry)
	}
	for _, out := range outputs {
		req.ResponseDocument.Outputs = append(req.ResponseDocument.Outputs, executeOutputXML{
			Identifier:  out.ID,
			AsReference: out.AsReference,
		})
	}
	return req
}
