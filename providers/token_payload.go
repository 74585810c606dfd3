package providers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/lunchpaillola/api-module-library/core"
)

var errEmptyTokenPayload = errors.New("empty payload")

type tokenEndpointPayload struct {
	AccessToken      string
	TokenType        string
	RefreshToken     string
	Scope            string
	ExpiresIn        int64
	ErrorCode        string
	ErrorDescription string
	Raw              map[string]any
}

func (p tokenEndpointPayload) tokenResponse() core.TokenResponse {
	return core.TokenResponse{
		AccessToken:  p.AccessToken,
		RefreshToken: p.RefreshToken,
		TokenType:    p.TokenType,
		Scope:        p.Scope,
		ExpiresIn:    p.ExpiresIn,
		Raw:          p.Raw,
	}
}

func describeTokenError(payload tokenEndpointPayload) string {
	for _, candidate := range []string{payload.ErrorDescription, payload.ErrorCode} {
		if trimmed := strings.TrimSpace(candidate); trimmed != "" {
			return trimmed
		}
	}
	return "unknown error"
}

// parseTokenPayload accepts JSON and form encoded token responses. Vendors
// do not agree on the content type, so JSON is tried first when it is unset.
func parseTokenPayload(body []byte, contentType string) (tokenEndpointPayload, error) {
	contentType = strings.ToLower(strings.TrimSpace(contentType))
	if strings.Contains(contentType, "json") {
		return parseTokenPayloadJSON(body)
	}
	if strings.Contains(contentType, "x-www-form-urlencoded") || strings.Contains(contentType, "text/plain") {
		return parseTokenPayloadForm(body)
	}
	if payload, err := parseTokenPayloadJSON(body); err == nil {
		return payload, nil
	}
	return parseTokenPayloadForm(body)
}

func parseTokenPayloadJSON(body []byte) (tokenEndpointPayload, error) {
	if strings.TrimSpace(string(body)) == "" {
		return tokenEndpointPayload{}, errEmptyTokenPayload
	}
	var decoded map[string]any
	if err := json.Unmarshal(body, &decoded); err != nil {
		return tokenEndpointPayload{}, err
	}
	return payloadFromFields(decoded), nil
}

func parseTokenPayloadForm(body []byte) (tokenEndpointPayload, error) {
	if strings.TrimSpace(string(body)) == "" {
		return tokenEndpointPayload{}, errEmptyTokenPayload
	}
	values, err := url.ParseQuery(string(body))
	if err != nil {
		return tokenEndpointPayload{}, err
	}
	fields := make(map[string]any, len(values))
	for key := range values {
		fields[key] = values.Get(key)
	}
	return payloadFromFields(fields), nil
}

// payloadFromFields reads the RFC 6749 token response members from a
// decoded body. Unknown members stay available through Raw.
func payloadFromFields(fields map[string]any) tokenEndpointPayload {
	return tokenEndpointPayload{
		AccessToken:      readAnyString(fields["access_token"]),
		TokenType:        readAnyString(fields["token_type"]),
		RefreshToken:     readAnyString(fields["refresh_token"]),
		Scope:            readAnyString(fields["scope"]),
		ExpiresIn:        readAnyInt64(fields["expires_in"]),
		ErrorCode:        readAnyString(fields["error"]),
		ErrorDescription: readAnyString(fields["error_description"]),
		Raw:              fields,
	}
}

func readAnyString(value any) string {
	switch typed := value.(type) {
	case string:
		return strings.TrimSpace(typed)
	case json.Number:
		return typed.String()
	case float64:
		return strconv.FormatFloat(typed, 'f', -1, 64)
	case nil:
		return ""
	default:
		return strings.TrimSpace(fmt.Sprint(typed))
	}
}

func readAnyInt64(value any) int64 {
	switch typed := value.(type) {
	case float64:
		return int64(typed)
	case int64:
		return typed
	case int:
		return int64(typed)
	case string:
		parsed, _ := strconv.ParseInt(strings.TrimSpace(typed), 10, 64)
		return parsed
	default:
		return 0
	}
}
