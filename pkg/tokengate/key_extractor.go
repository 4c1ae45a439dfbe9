package tokengate

import (
	"fmt"
	"net"
	"net/http"
	"strings"
)

// KeyExtractor derives a rate-limit key from an HTTP request: the identity
// under which the client's bucket is partitioned (IP, API key, user id).
type KeyExtractor func(*http.Request) (string, error)

// ExtractIP keys clients by the connection's remote IP address.
func ExtractIP() KeyExtractor {
	return func(r *http.Request) (string, error) {
		ip, _, err := net.SplitHostPort(r.RemoteAddr)
		if err != nil {
			ip = r.RemoteAddr
		}
		if ip == "" {
			return "", fmt.Errorf("%w: empty remote address", ErrKeyExtractionFailed)
		}
		return "ip:" + ip, nil
	}
}

// ExtractIPWithProxy keys clients by IP, trusting X-Forwarded-For and
// X-Real-IP before falling back to the remote address. Use it when the
// service sits behind a reverse proxy or load balancer.
func ExtractIPWithProxy() KeyExtractor {
	direct := ExtractIP()
	return func(r *http.Request) (string, error) {
		if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
			// The first entry in the list is the original client.
			if ip := strings.TrimSpace(strings.SplitN(xff, ",", 2)[0]); ip != "" {
				return "ip:" + ip, nil
			}
		}
		if xri := r.Header.Get("X-Real-IP"); xri != "" {
			return "ip:" + xri, nil
		}
		return direct(r)
	}
}

// ExtractHeader keys clients by the value of a header, e.g. X-API-Key.
func ExtractHeader(name string) KeyExtractor {
	return func(r *http.Request) (string, error) {
		value := r.Header.Get(name)
		if value == "" {
			return "", fmt.Errorf("%w: header %s missing or empty", ErrKeyExtractionFailed, name)
		}
		return "header:" + name + ":" + value, nil
	}
}

// ExtractBearer keys clients by the token in an "Authorization: Bearer ..."
// header.
func ExtractBearer() KeyExtractor {
	return func(r *http.Request) (string, error) {
		auth := r.Header.Get("Authorization")
		parts := strings.SplitN(auth, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") || parts[1] == "" {
			return "", fmt.Errorf("%w: missing or malformed bearer token", ErrKeyExtractionFailed)
		}
		return "bearer:" + parts[1], nil
	}
}

// ExtractStatic keys every client the same, for a single global limit.
func ExtractStatic(key string) KeyExtractor {
	return func(r *http.Request) (string, error) {
		if key == "" {
			return "", fmt.Errorf("%w: static key is empty", ErrKeyExtractionFailed)
		}
		return key, nil
	}
}

// ParseKeyExtractor builds a KeyExtractor from a config string:
//
//	"ip"                 ExtractIP
//	"ip-proxy"           ExtractIPWithProxy
//	"header:X-API-Key"   ExtractHeader("X-API-Key")
//	"bearer"             ExtractBearer
//	"static:global"      ExtractStatic("global")
func ParseKeyExtractor(spec string) (KeyExtractor, error) {
	kind, arg, hasArg := strings.Cut(spec, ":")

	switch kind {
	case "ip":
		return ExtractIP(), nil
	case "ip-proxy":
		return ExtractIPWithProxy(), nil
	case "bearer":
		return ExtractBearer(), nil
	case "header":
		if !hasArg || arg == "" {
			return nil, fmt.Errorf("%w: header extractor requires 'header:Name'", ErrInvalidConfig)
		}
		return ExtractHeader(arg), nil
	case "static":
		if !hasArg || arg == "" {
			return nil, fmt.Errorf("%w: static extractor requires 'static:key'", ErrInvalidConfig)
		}
		return ExtractStatic(arg), nil
	default:
		return nil, fmt.Errorf("%w: unknown key extractor %q", ErrInvalidConfig, spec)
	}
}
