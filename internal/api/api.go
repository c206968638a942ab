package api

import (
	"bytes"
	"compress/gzip"
	"context"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/bytedance/sonic"
	"github.com/cockroachdb/errors"

	"livebets/livematch/cmd/config"
	"livebets/livematch/internal/entity"
)

const defaultTimeout = 15 * time.Second

// ErrMalformedPayload means the source answered but the body is not a
// prediction payload.
var ErrMalformedPayload = errors.New("malformed prediction payload")

type API struct {
	cfg    config.PredictionConfig
	client *http.Client
}

func New(cfg config.PredictionConfig) *API {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	client := &http.Client{
		Transport: &http.Transport{Proxy: http.ProxyFromEnvironment},
		Timeout:   timeout,
	}

	return &API{
		cfg:    cfg,
		client: client,
	}
}

// GetPredictions fetches the current prediction payload.
func (api *API) GetPredictions(ctx context.Context) (*entity.PredictionPayload, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, api.cfg.Url, nil)
	if err != nil {
		return nil, errors.Wrap(err, "build prediction request")
	}

	req.Header.Set("Accept", "application/json")
	req.Header.Set("Accept-Encoding", "gzip")
	if api.cfg.Token != "" {
		req.Header.Set("token", api.cfg.Token)
	}

	resp, err := api.client.Do(req)
	if err != nil {
		return nil, errors.Wrap(err, "get predictions")
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, errors.Newf("get predictions: unexpected status %s", resp.Status)
	}

	body, err := readBody(resp)
	if err != nil {
		return nil, err
	}

	body = normalizeBodyJSON(body)
	if len(body) == 0 {
		return nil, errors.Wrap(ErrMalformedPayload, "empty body")
	}

	var result entity.PredictionPayload
	if err = sonic.Unmarshal(body, &result); err != nil {
		return nil, errors.Mark(errors.Wrap(err, "decode predictions"), ErrMalformedPayload)
	}

	return &result, nil
}

// readBody decompresses gzip bodies; the transport leaves them alone because
// Accept-Encoding is set explicitly.
func readBody(resp *http.Response) ([]byte, error) {
	var reader io.Reader = resp.Body
	if resp.Header.Get("Content-Encoding") == "gzip" {
		encodedBody, err := gzip.NewReader(resp.Body)
		if err != nil {
			return nil, errors.Wrap(err, "open gzip body")
		}
		defer encodedBody.Close()
		reader = encodedBody
	}

	body, err := io.ReadAll(reader)
	if err != nil {
		return nil, errors.Wrap(err, "read prediction body")
	}
	return body, nil
}

// normalizeBodyJSON unwraps a payload that was served as a JSON string.
func normalizeBodyJSON(body []byte) []byte {
	body = bytes.TrimSpace(body)
	if len(body) < 2 || body[0] != '"' {
		return body
	}

	unquoted, err := strconv.Unquote(string(body))
	if err != nil {
		return body
	}
	return bytes.TrimSpace([]byte(unquoted))
}
