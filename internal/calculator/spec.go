package calculator

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"
)

// ParseSpec parses one calculator URI. Recognized schemes: sh (local
// shell), ssh, slurm, funz, cache. A bare path with no "://" is treated
// as "cache://<path>" for convenience, matching the shorthand fz's model
// descriptors use for self-referential caches (spec.md §4.3's
// "cache://_" sentinel).
func ParseSpec(raw string) (Spec, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return Spec{}, fmt.Errorf("calculator: empty spec")
	}
	if !strings.Contains(trimmed, "://") {
		trimmed = "cache://" + trimmed
	}
	// A shell command may contain spaces and redirects, which url.Parse
	// rejects in the host part, so sh:// and local:// are split off by hand.
	for _, scheme := range []string{"sh://", "local://"} {
		if strings.HasPrefix(trimmed, scheme) {
			return Spec{Kind: KindLocal, Raw: raw, Command: strings.TrimPrefix(trimmed, scheme)}, nil
		}
	}

	u, err := url.Parse(trimmed)
	if err != nil {
		return Spec{}, fmt.Errorf("calculator: invalid URI %q: %w", raw, err)
	}

	switch u.Scheme {
	case "sh", "local":
		// "sh://<optional command>": everything after the scheme is the
		// command, whether url.Parse placed it in Host, Path, or Opaque.
		command := strings.TrimPrefix(trimmed, u.Scheme+"://")
		return Spec{Kind: KindLocal, Raw: raw, Command: command}, nil

	case "ssh":
		host := u.Hostname()
		if host == "" {
			return Spec{}, fmt.Errorf("calculator: ssh spec %q missing host", raw)
		}
		port := 22
		if p := u.Port(); p != "" {
			n, err := strconv.Atoi(p)
			if err != nil {
				return Spec{}, fmt.Errorf("calculator: ssh spec %q has invalid port: %w", raw, err)
			}
			port = n
		}
		user := ""
		if u.User != nil {
			user = u.User.Username()
		}
		return Spec{Kind: KindSSH, Raw: raw, Host: host, Port: port, User: user, Command: strings.TrimPrefix(u.Path, "/")}, nil

	case "slurm":
		host := u.Hostname()
		q := u.Query()
		return Spec{
			Kind:      KindSlurm,
			Raw:       raw,
			Host:      host,
			User:      userOf(u),
			Partition: q.Get("partition"),
			Account:   q.Get("account"),
			Command:   strings.TrimPrefix(u.Path, "/"),
		}, nil

	case "funz":
		host := u.Hostname()
		if host == "" {
			return Spec{}, fmt.Errorf("calculator: funz spec %q missing host", raw)
		}
		port := 0
		if p := u.Port(); p != "" {
			n, err := strconv.Atoi(p)
			if err != nil {
				return Spec{}, fmt.Errorf("calculator: funz spec %q has invalid port: %w", raw, err)
			}
			port = n
		}
		return Spec{Kind: KindFunz, Raw: raw, Host: host, Port: port, Command: strings.TrimPrefix(u.Path, "/")}, nil

	case "cache":
		path := u.Host + u.Path
		if path == "" {
			path = u.Opaque
		}
		return Spec{Kind: KindCache, Raw: raw, CachePath: path}, nil

	default:
		return Spec{}, fmt.Errorf("calculator: unrecognized scheme %q in %q", u.Scheme, raw)
	}
}

func userOf(u *url.URL) string {
	if u.User == nil {
		return ""
	}
	return u.User.Username()
}

// ParseSpecs parses a list of calculator URIs in order, stopping at the
// first error.
func ParseSpecs(raws []string) ([]Spec, error) {
	specs := make([]Spec, 0, len(raws))
	for _, r := range raws {
		s, err := ParseSpec(r)
		if err != nil {
			return nil, err
		}
		specs = append(specs, s)
	}
	return specs, nil
}
