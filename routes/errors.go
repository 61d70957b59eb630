package routes

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
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/PelionIoT/topology/cluster"
	"github.com/PelionIoT/topology/requests"
)

const (
	CodeInvalidRequest         = "INVALID_REQUEST"
	CodeConcurrentModification = "CONCURRENT_MODIFICATION"
	CodeOperationNotAllowed    = "OPERATION_NOT_ALLOWED"
	CodeNotFound               = "NOT_FOUND"
	CodeInternalError          = "INTERNAL_ERROR"
)

type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (errorResponse ErrorResponse) Error() string {
	return errorResponse.Code + ": " + errorResponse.Message
}

// NewErrorResponse classifies err and returns the HTTP status it is reported with
func NewErrorResponse(err error) (int, ErrorResponse) {
	switch {
	case requests.IsInvalidRequest(err):
		return http.StatusBadRequest, ErrorResponse{Code: CodeInvalidRequest, Message: err.Error()}
	case errors.Is(err, cluster.EChangeInProgress):
		return http.StatusConflict, ErrorResponse{Code: CodeConcurrentModification, Message: err.Error()}
	case errors.Is(err, cluster.EChangeNotFailed):
		return http.StatusConflict, ErrorResponse{Code: CodeOperationNotAllowed, Message: err.Error()}
	case errors.Is(err, cluster.ENoPendingChange), errors.Is(err, cluster.ENoSuchChange):
		return http.StatusNotFound, ErrorResponse{Code: CodeNotFound, Message: err.Error()}
	default:
		return http.StatusInternalServerError, ErrorResponse{Code: CodeInternalError, Message: err.Error()}
	}
}

func writeError(w http.ResponseWriter, err error) {
	status, errorResponse := NewErrorResponse(err)

	writeJSON(w, status, errorResponse)
}

func writeBadRequest(w http.ResponseWriter, message string) {
	writeJSON(w, http.StatusBadRequest, ErrorResponse{Code: CodeInvalidRequest, Message: message})
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	encoded, err := json.Marshal(body)

	if err != nil {
		status = http.StatusInternalServerError
		encoded, _ = json.Marshal(ErrorResponse{Code: CodeInternalError, Message: err.Error()})
	}

	w.Header().Set("Content-Type", "application/json; charset=utf8")
	w.WriteHeader(status)
	io.WriteString(w, string(encoded)+"\n")
}
