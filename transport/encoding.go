package transport

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/url"
	"sort"
	"strings"

	goerrors "github.com/goliatone/go-errors"
)

const (
	ContentTypeJSON = "application/json"
	ContentTypeForm = "application/x-www-form-urlencoded"
)

// EncodeJSON marshals payload. A nil payload yields no body.
func EncodeJSON(payload any) ([]byte, string, error) {
	if payload == nil {
		return nil, ContentTypeJSON, nil
	}
	if raw, ok := payload.(json.RawMessage); ok {
		return append([]byte(nil), raw...), ContentTypeJSON, nil
	}
	encoded, err := json.Marshal(payload)
	if err != nil {
		return nil, "", transportWrapError(
			err,
			goerrors.CategoryBadInput,
			"transport: encode json body",
			http.StatusBadRequest,
			nil,
		)
	}
	return encoded, ContentTypeJSON, nil
}

func EncodeForm(fields map[string]string) ([]byte, string) {
	values := url.Values{}
	for key, value := range fields {
		if strings.TrimSpace(key) == "" {
			continue
		}
		values.Set(key, value)
	}
	return []byte(values.Encode()), ContentTypeForm
}

// EncodeMultipart writes fields as multipart/form-data in key order.
func EncodeMultipart(fields map[string]string) ([]byte, string, error) {
	var buffer bytes.Buffer
	writer := multipart.NewWriter(&buffer)
	keys := make([]string, 0, len(fields))
	for key := range fields {
		if strings.TrimSpace(key) != "" {
			keys = append(keys, key)
		}
	}
	sort.Strings(keys)
	for _, key := range keys {
		if err := writer.WriteField(key, fields[key]); err != nil {
			return nil, "", transportWrapError(err, goerrors.CategoryInternal, "transport: encode multipart field", http.StatusInternalServerError, map[string]any{"field": key})
		}
	}
	if err := writer.Close(); err != nil {
		return nil, "", transportWrapError(err, goerrors.CategoryInternal, "transport: close multipart body", http.StatusInternalServerError, nil)
	}
	return buffer.Bytes(), writer.FormDataContentType(), nil
}
