/*
Copyright © 2025 Seednode <seednode@seedno.de>
*/

package main

import (
	"errors"
	"fmt"
	"log"
	"net/http"
	"strings"
	"time"
)

func logf(cfg *Config, format string, args ...any) {
	if !cfg.verbose {
		return
	}

	log.Printf("%s | "+format, append([]any{time.Now().Format(logDate)}, args...)...)
}

func newPage(title, body string) string {
	var htmlBody strings.Builder

	htmlBody.WriteString(`<!DOCTYPE html><html lang="en"><head>`)
	htmlBody.WriteString(`<style>`)
	htmlBody.WriteString(`html,body,a{display:block;height:100%;width:100%;text-decoration:none;color:inherit;cursor:auto;}</style>`)
	htmlBody.WriteString(fmt.Sprintf("<title>%s</title></head>", title))
	htmlBody.WriteString(fmt.Sprintf("<body><a href=\"/\">%s</a></body></html>", body))

	return htmlBody.String()
}

// Error categories, mapped onto HTTP status codes in apiError.status().
// Only errStoreUnavailable is worth retrying; the rest repeat their
// outcome unless external state changes first.
type errorKind int

const (
	errValidation errorKind = iota
	errNotFound
	errConflict
	errStoreUnavailable
)

type apiError struct {
	kind errorKind
	code string
	msg  string
}

func (e *apiError) Error() string {
	return e.msg
}

func (e *apiError) status() int {
	switch e.kind {
	case errNotFound:
		return http.StatusNotFound
	case errConflict:
		return http.StatusConflict
	case errStoreUnavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusBadRequest
	}
}

func validationError(code, format string, args ...any) *apiError {
	return &apiError{kind: errValidation, code: code, msg: fmt.Sprintf(format, args...)}
}

func notFoundError(code, format string, args ...any) *apiError {
	return &apiError{kind: errNotFound, code: code, msg: fmt.Sprintf(format, args...)}
}

func conflictError(code, format string, args ...any) *apiError {
	return &apiError{kind: errConflict, code: code, msg: fmt.Sprintf(format, args...)}
}

func storeUnavailableError(format string, args ...any) *apiError {
	return &apiError{kind: errStoreUnavailable, code: "CONCURRENT_ACCESS", msg: fmt.Sprintf(format, args...)}
}

type errorBody struct {
	Error     string `json:"error"`
	ErrorCode string `json:"error_code"`
	Timestamp string `json:"timestamp"`
}

// writeError renders any error as the JSON error shape clients expect.
// Errors that are not apiErrors are reported as opaque server failures.
func writeError(cfg *Config, w http.ResponseWriter, r *http.Request, err error) {
	var apiErr *apiError
	status := http.StatusInternalServerError
	body := errorBody{
		Error:     "An unexpected error occurred. Please try again later.",
		ErrorCode: "INTERNAL_SERVER_ERROR",
		Timestamp: time.Now().Format(time.RFC3339Nano),
	}

	if errors.As(err, &apiErr) {
		status = apiErr.status()
		body.Error = apiErr.msg
		body.ErrorCode = apiErr.code
	}

	logf(cfg, "ERROR: %s %s from %s: %d %s (%s)",
		r.Method,
		r.URL.Path,
		realIP(r),
		status,
		body.ErrorCode,
		body.Error,
	)

	writeJSON(cfg, w, status, body)
}
