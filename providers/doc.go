// Package providers holds the OAuth2 requester composed by every vendor
// client under providers/<vendor>.
package providers
