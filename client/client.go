package client

//
// Copyright (c) 2019 ARM Limited.
//
// SPDX-License-Identifier: MIT
//
// Permission is hereby granted, free of charge, to any person obtaining a copy
// of this software and associated documentation files (the "Software"), to
// deal in the Software without restriction, including without limitation the
// rights to use, copy, modify, merge, publish, distribute, sublicense, and/or
// sell copies of the Software, and to permit persons to whom the Software is
// furnished to do so, subject to the following conditions:
//
// The above copyright notice and this permission notice shall be included in all
// copies or substantial portions of the Software.
//
// THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
// IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
// FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
// AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
// LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
// OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
// SOFTWARE.
//

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/ioutil"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/PelionIoT/topology/routes"
)

const DefaultClientTimeout = time.Second * 10

var EClientTimeout = errors.New("Client request timed out")
var ENoServers = errors.New("No servers configured")

// ErrorStatusCode is returned for every response whose status is not
// http.StatusOK. Code is the error code reported by the server, if any.
type ErrorStatusCode struct {
	StatusCode int
	Code       string
	Message    string
}

func (errorStatus *ErrorStatusCode) Error() string {
	if errorStatus.Code == "" {
		return fmt.Sprintf("%d: %s", errorStatus.StatusCode, errorStatus.Message)
	}

	return fmt.Sprintf("%d %s: %s", errorStatus.StatusCode, errorStatus.Code, errorStatus.Message)
}

// IsErrorCode returns true if err is an *ErrorStatusCode carrying code
func IsErrorCode(err error, code string) bool {
	var errorStatus *ErrorStatusCode

	return errors.As(err, &errorStatus) && errorStatus.Code == code
}

type APIClientConfig struct {
	// Servers lists host:port pairs. Requests rotate through them.
	Servers []string
	Timeout time.Duration
}

type APIClient struct {
	servers         []string
	nextServerIndex int
	lock            sync.Mutex
	httpClient      *http.Client
}

func New(config APIClientConfig) *APIClient {
	if config.Timeout == 0 {
		config.Timeout = DefaultClientTimeout
	}

	return &APIClient{
		servers: config.Servers,
		httpClient: &http.Client{
			Timeout: config.Timeout,
		},
	}
}

func (client *APIClient) nextServer() (server string) {
	client.lock.Lock()
	defer client.lock.Unlock()

	if len(client.servers) == 0 {
		return
	}

	server = client.servers[client.nextServerIndex]
	client.nextServerIndex = (client.nextServerIndex + 1) % len(client.servers)

	return
}

func (client *APIClient) sendRequest(ctx context.Context, httpVerb string, endpointURL string, body []byte) ([]byte, error) {
	server := client.nextServer()

	if server == "" {
		return nil, ENoServers
	}

	request, err := http.NewRequest(httpVerb, fmt.Sprintf("http://%s%s", server, endpointURL), bytes.NewReader(body))

	if err != nil {
		return nil, err
	}

	request = request.WithContext(ctx)

	if len(body) > 0 {
		request.Header.Set("Content-Type", "application/json")
	}

	resp, err := client.httpClient.Do(request)

	if err != nil {
		if strings.Contains(err.Error(), "Timeout") {
			return nil, EClientTimeout
		}

		return nil, err
	}

	defer resp.Body.Close()

	responseBody, err := ioutil.ReadAll(resp.Body)

	if err != nil {
		return nil, err
	}

	if resp.StatusCode != http.StatusOK {
		var errorResponse routes.ErrorResponse

		if err := json.Unmarshal(responseBody, &errorResponse); err != nil || errorResponse.Code == "" {
			return nil, &ErrorStatusCode{StatusCode: resp.StatusCode, Message: strings.TrimSpace(string(responseBody))}
		}

		return nil, &ErrorStatusCode{StatusCode: resp.StatusCode, Code: errorResponse.Code, Message: errorResponse.Message}
	}

	return responseBody, nil
}

// sendJSON encodes body, if any, sends it and decodes the response into result
func (client *APIClient) sendJSON(ctx context.Context, httpVerb string, endpointURL string, body interface{}, result interface{}) error {
	var encodedBody []byte

	if body != nil {
		encoded, err := json.Marshal(body)

		if err != nil {
			return err
		}

		encodedBody = encoded
	}

	responseBody, err := client.sendRequest(ctx, httpVerb, endpointURL, encodedBody)

	if err != nil {
		return err
	}

	if result == nil {
		return nil
	}

	return json.Unmarshal(responseBody, result)
}
