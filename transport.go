package measurement

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"sync"
	"time"
)

// Transport sends an assembled hit to the collection endpoint.
type Transport interface {
	Post(ctx context.Context, url string, singles map[string]*SingleParameter, compounds map[FieldKind]*CompoundCollection) (*Response, error)
}

// Response wraps the outgoing request and the raw HTTP response.
type Response struct {
	Request      *http.Request
	HTTPResponse *http.Response
	Payload      url.Values
	// Body holds the response body, already read and closed.
	Body []byte
}

// StatusCode returns the HTTP status or 0 when there is no response.
func (r *Response) StatusCode() int {
	if r == nil || r.HTTPResponse == nil {
		return 0
	}
	return r.HTTPResponse.StatusCode
}

// ValidationMessage is one parser message returned by the debug endpoint.
type ValidationMessage struct {
	MessageType string `json:"messageType"`
	Description string `json:"description"`
	Parameter   string `json:"parameter"`
}

// ValidationResult is the debug endpoint's verdict on one hit.
type ValidationResult struct {
	Valid          bool                `json:"valid"`
	ParserMessages []ValidationMessage `json:"parserMessage"`
	Hit            string              `json:"hit"`
}

// Validation decodes the body returned by the debug endpoint.
func (r *Response) Validation() ([]ValidationResult, error) {
	if r == nil || len(r.Body) == 0 {
		return nil, fmt.Errorf("response has no body")
	}
	var decoded struct {
		HitParsingResult []ValidationResult `json:"hitParsingResult"`
	}
	if err := json.Unmarshal(r.Body, &decoded); err != nil {
		return nil, fmt.Errorf("decode validation result: %w", err)
	}
	return decoded.HitParsingResult, nil
}

// BuildPayload flattens singles and compound collections into one wire
// payload. Singles are written first, compound pairs are merged alongside.
func BuildPayload(singles map[string]*SingleParameter, compounds map[FieldKind]*CompoundCollection) url.Values {
	payload := url.Values{}
	for _, param := range singles {
		payload.Set(param.Name(), param.String())
	}

	kinds := make([]string, 0, len(compounds))
	for kind := range compounds {
		kinds = append(kinds, string(kind))
	}
	sort.Strings(kinds)
	for _, kind := range kinds {
		for key, value := range compounds[FieldKind(kind)].Render() {
			payload.Set(key, value)
		}
	}
	return payload
}

// HTTPTransport posts hits over HTTP. The client is created on first use and
// reused afterwards.
type HTTPTransport struct {
	Client    *http.Client
	UserAgent string
	Timeout   time.Duration

	once sync.Once
}

// NewHTTPTransport builds a transport from cfg.
func NewHTTPTransport(cfg *Config) *HTTPTransport {
	t := &HTTPTransport{}
	if cfg != nil {
		t.Client = cfg.HTTPClient
		t.UserAgent = cfg.UserAgent
		t.Timeout = cfg.Timeout
	}
	return t
}

func (t *HTTPTransport) client() *http.Client {
	t.once.Do(func() {
		if t.Client == nil {
			t.Client = &http.Client{}
		}
	})
	return t.Client
}

// Post sends the payload as query parameters of a POST request, the way the
// collection endpoint documents it. A non-2xx answer returns both the
// response and a *StatusError.
func (t *HTTPTransport) Post(ctx context.Context, endpoint string, singles map[string]*SingleParameter, compounds map[FieldKind]*CompoundCollection) (*Response, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	if t.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, t.Timeout)
		defer cancel()
	}

	payload := BuildPayload(singles, compounds)

	u, err := url.Parse(endpoint)
	if err != nil {
		return nil, err
	}
	u.RawQuery = payload.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u.String(), nil)
	if err != nil {
		return nil, err
	}
	if t.UserAgent != "" {
		req.Header.Set("User-Agent", t.UserAgent)
	}

	resp, err := t.client().Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	out := &Response{
		Request:      req,
		HTTPResponse: resp,
		Payload:      payload,
		Body:         body,
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return out, &StatusError{StatusCode: resp.StatusCode, Status: resp.Status}
	}
	return out, nil
}
