package validation

import (
	"errors"
	"fmt"
	"net/netip"
	"net/url"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"
)

// URLValidator checks feed and remote-source URLs before kiosk fetches them.
type URLValidator struct {
	// AllowLocalhost permits loopback hosts such as a local "kiosk serve".
	AllowLocalhost bool
	// AllowPrivateIPs permits RFC 1918, link-local and ULA literals.
	AllowPrivateIPs bool
	MaxLength       int
}

// NewURLValidator blocks loopback and private addresses.
func NewURLValidator() *URLValidator {
	return &URLValidator{MaxLength: 2048}
}

// NewPermissiveURLValidator allows local development targets.
func NewPermissiveURLValidator() *URLValidator {
	return &URLValidator{
		AllowLocalhost:  true,
		AllowPrivateIPs: true,
		MaxLength:       2048,
	}
}

var (
	ErrLocalhost = errors.New("localhost URLs are not permitted")
	ErrPrivateIP = errors.New("private IP addresses are not permitted")
)

// Normalize validates input and returns it with an explicit scheme. Inputs
// without one get https.
func (v *URLValidator) Normalize(input string) (string, error) {
	input = strings.TrimSpace(input)

	if err := validation.Validate(input,
		validation.Required.Error("URL cannot be empty"),
		validation.RuneLength(0, v.MaxLength).Error(fmt.Sprintf("URL too long (max %d characters)", v.MaxLength)),
	); err != nil {
		return "", err
	}
	if strings.ContainsAny(input, "<>\"'` ") {
		return "", fmt.Errorf("URL contains invalid characters")
	}

	if !strings.Contains(input, "://") {
		input = "https://" + input
	}

	u, err := url.Parse(input)
	if err != nil {
		return "", fmt.Errorf("invalid URL format: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return "", fmt.Errorf("URL must use http or https, got %q", u.Scheme)
	}
	if u.Hostname() == "" {
		return "", fmt.Errorf("URL must have a valid hostname")
	}
	if err := v.checkHost(u.Hostname()); err != nil {
		return "", err
	}
	if err := validation.Validate(u.String(), is.URL); err != nil {
		return "", fmt.Errorf("invalid URL: %w", err)
	}
	if strings.Contains(u.Path, "..") {
		return "", fmt.Errorf("directory traversal patterns not allowed in URL path")
	}

	return u.String(), nil
}

func (v *URLValidator) checkHost(host string) error {
	host = strings.ToLower(strings.TrimSuffix(host, "."))

	if isLocalhostName(host) {
		if !v.AllowLocalhost {
			return ErrLocalhost
		}
		return nil
	}

	addr, err := netip.ParseAddr(host)
	if err != nil {
		// A hostname, not a literal.
		return nil
	}
	addr = addr.Unmap()

	switch {
	case addr.IsUnspecified() || addr == netip.AddrFrom4([4]byte{255, 255, 255, 255}):
		return fmt.Errorf("address %s is not routable", addr)
	case addr.IsLoopback():
		if !v.AllowLocalhost {
			return ErrLocalhost
		}
	case addr.IsPrivate() || addr.IsLinkLocalUnicast():
		if !v.AllowPrivateIPs {
			return ErrPrivateIP
		}
	}
	return nil
}

func isLocalhostName(host string) bool {
	return host == "localhost" || strings.HasSuffix(host, ".localhost")
}
