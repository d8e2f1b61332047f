package totp

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
)

var (
	ErrInvalidURI    = errors.New("invalid otpauth uri")
	ErrMissingSecret = errors.New("otpauth uri has no secret parameter")
)

// AuthInfo is the account description carried by an otpauth URI.
type AuthInfo struct {
	Issuer      string `json:"issuer"`
	AccountName string `json:"account_name"`
	Secret      string `json:"secret"`
}

// ParseURI parses otpauth://<type>/<label>?secret=...&issuer=...
//
// The label is either "issuer:account" or a bare account. An issuer query
// parameter, when present, overrides the issuer taken from the label.
func ParseURI(raw string) (AuthInfo, error) {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return AuthInfo{}, fmt.Errorf("%w: %v", ErrInvalidURI, err)
	}
	if u.Scheme != "otpauth" {
		return AuthInfo{}, fmt.Errorf("%w: scheme %q", ErrInvalidURI, u.Scheme)
	}

	var info AuthInfo
	label := strings.TrimPrefix(u.Path, "/")
	if issuer, account, ok := strings.Cut(label, ":"); ok {
		info.Issuer = issuer
		info.AccountName = strings.TrimSpace(account)
	} else {
		info.AccountName = label
	}

	q := u.Query()
	if q.Has("issuer") {
		info.Issuer = q.Get("issuer")
	}
	info.Secret = q.Get("secret")
	if info.Secret == "" {
		return AuthInfo{}, ErrMissingSecret
	}
	return info, nil
}
