package tokenclient

import (
	"net/http"
	"time"
)

type httpClient struct {
	client *http.Client
}

func newHTTPClient() *httpClient {
	return &httpClient{
		client: &http.Client{
			Timeout: time.Second * 5,
		},
	}
}

func (c *httpClient) Send(req *http.Request) (*http.Response, error) {
	return c.client.Do(req)
}
