package exporter

import (
	"net/http"
	"strings"

	"github.com/go-resty/resty/v2"
	"github.com/pkg/errors"
	"github.com/scality/backbeat/shared-loading/pkg/types"
)

// FetchStatus reads the status document of the exporter at baseURL.
func FetchStatus(client *resty.Client, baseURL string) (*types.Status, error) {
	if client == nil {
		client = resty.New()
	}

	resp, err := client.R().
		SetHeader("Accept", "application/json").
		Get(strings.TrimSuffix(baseURL, "/") + StatusPath)
	if err != nil {
		return nil, errors.Wrapf(err, "get %s", baseURL)
	}

	if resp.StatusCode() != http.StatusOK {
		return nil, errors.Errorf("get %s: unexpected status %s", baseURL, resp.Status())
	}

	return types.ParseStatus(resp.Body())
}
