// Package urlx resolves source map URLs. Source maps reference their
// sources with anything from bare identifiers ("input.js") over relative
// paths with leading parent segments ("../src/a.ts") to scheme-relative
// and fully qualified URLs, and the resolution rules differ from RFC 3986
// in one important way: leading ".." segments of a relative result must be
// preserved, not discarded. net/url's reference resolution drops them, so
// the joining is done here by hand.
package urlx

import (
	"regexp"
	"strings"
)

// kind classifies an input by how much of a URL it carries. Higher kinds
// dominate lower ones when an input is resolved against a base.
type kind int

const (
	kindEmpty kind = iota + 1
	kindHash
	kindQuery
	kindRelativePath
	kindAbsolutePath
	kindSchemeRelative
	kindAbsolute
)

type urlParts struct {
	scheme string // including trailing ':'
	user   string // including trailing '@'
	host   string
	port   string // including leading ':'
	path   string // always begins with '/'
	query  string // including leading '?'
	hash   string // including leading '#'
	kind   kind
}

var (
	schemeRe = regexp.MustCompile(`^[\w+.-]+://`)
	urlRe    = regexp.MustCompile(`^([\w+.-]+:)//([^@/#?]*@)?([^:/#?]*)(:\d+)?(/[^#?]*)?(\?[^#]*)?(#.*)?`)
	fileRe   = regexp.MustCompile(`^(?i:file):(?://([^/#?]*))?(/?[^#?]*)(\?[^#]*)?(#.*)?`)
	driveRe  = regexp.MustCompile(`^[a-zA-Z]:`)
)

func isSchemeRelative(input string) bool { return strings.HasPrefix(input, "//") }
func isAbsolutePath(input string) bool   { return strings.HasPrefix(input, "/") }
func isFileURL(input string) bool {
	return len(input) >= 5 && strings.EqualFold(input[:5], "file:")
}

// isRelative reports whether input starts with '.', '?' or '#': an
// explicitly relative path ("./a", "../a"), a query or a hash. Bare paths
// such as "a/b.js" report false.
func isRelative(input string) bool {
	return input != "" && (input[0] == '.' || input[0] == '?' || input[0] == '#')
}

func parseAbsolute(input string) urlParts {
	m := urlRe.FindStringSubmatch(input)
	path := m[5]
	if path == "" {
		path = "/"
	}
	return urlParts{
		scheme: m[1], user: m[2], host: m[3], port: m[4],
		path: path, query: m[6], hash: m[7],
		kind: kindAbsolute,
	}
}

func parseFile(input string) urlParts {
	m := fileRe.FindStringSubmatch(input)
	host, path := m[1], m[2]
	if driveRe.MatchString(host) {
		// file://c:/dir is a drive path, not a host.
		host, path = "", host+path
	}
	if !isAbsolutePath(path) {
		path = "/" + path
	}
	return urlParts{
		scheme: "file:", host: host,
		path: path, query: m[3], hash: m[4],
		kind: kindAbsolute,
	}
}

func parse(input string) urlParts {
	switch {
	case isSchemeRelative(input):
		url := parseAbsolute("http:" + input)
		url.scheme = ""
		url.kind = kindSchemeRelative
		return url
	case isAbsolutePath(input):
		url := parseAbsolute("http://foo.com" + input)
		url.scheme, url.host = "", ""
		url.kind = kindAbsolutePath
		return url
	case isFileURL(input):
		return parseFile(input)
	case schemeRe.MatchString(input):
		return parseAbsolute(input)
	}

	url := parseAbsolute("http://foo.com/" + input)
	url.scheme, url.host = "", ""
	switch {
	case input == "":
		url.kind = kindEmpty
	case input[0] == '?':
		url.kind = kindQuery
	case input[0] == '#':
		url.kind = kindHash
	default:
		url.kind = kindRelativePath
	}
	return url
}

// stripPathFilename drops the final path component, keeping the trailing
// slash. A path ending in ".." has no filename to strip.
func stripPathFilename(path string) string {
	if strings.HasSuffix(path, "/..") {
		return path
	}
	return path[:strings.LastIndexByte(path, '/')+1]
}

// normalize collapses "." and ".." segments in place. For relative URLs,
// ".." segments that walk above the start are kept.
func normalize(url *urlParts, k kind) {
	rel := k <= kindRelativePath
	pieces := strings.Split(url.path, "/")
	// pieces[0] is the empty string before the leading slash.
	pointer := 1
	positive := 0
	trailingSlash := false
	for i := 1; i < len(pieces); i++ {
		piece := pieces[i]
		if piece == "" {
			trailingSlash = true
			continue
		}
		trailingSlash = false
		if piece == "." {
			continue
		}
		if piece == ".." {
			if positive > 0 {
				trailingSlash = true
				positive--
				pointer--
			} else if rel {
				pieces[pointer] = piece
				pointer++
			}
			continue
		}
		pieces[pointer] = piece
		pointer++
		positive++
	}

	var b strings.Builder
	for i := 1; i < pointer; i++ {
		b.WriteByte('/')
		b.WriteString(pieces[i])
	}
	path := b.String()
	if path == "" || (trailingSlash && !strings.HasSuffix(path, "/..")) {
		path += "/"
	}
	url.path = path
}

func mergePaths(url, base *urlParts) {
	normalize(base, base.kind)
	if url.path == "/" {
		url.path = base.path
	} else {
		url.path = stripPathFilename(base.path) + url.path
	}
}

// Resolve normalizes input against base, following relative-URL semantics
// for the URL shapes that occur in source maps: absolute URLs with a
// scheme, file: URLs, protocol-relative URLs, absolute and relative paths,
// bare identifiers, queries and fragments.
func Resolve(input, base string) string {
	if input == "" && base == "" {
		return ""
	}

	url := parse(input)
	inputKind := url.kind
	if base != "" && inputKind != kindAbsolute {
		baseURL := parse(base)
		baseKind := baseURL.kind
		switch inputKind {
		case kindEmpty:
			url.hash = baseURL.hash
			fallthrough
		case kindHash:
			url.query = baseURL.query
			fallthrough
		case kindQuery, kindRelativePath:
			mergePaths(&url, &baseURL)
			fallthrough
		case kindAbsolutePath:
			url.user = baseURL.user
			url.host = baseURL.host
			url.port = baseURL.port
			fallthrough
		case kindSchemeRelative:
			url.scheme = baseURL.scheme
		}
		if baseKind > inputKind {
			inputKind = baseKind
		}
	}

	normalize(&url, inputKind)

	queryHash := url.query + url.hash
	switch inputKind {
	case kindHash, kindQuery:
		return queryHash
	case kindRelativePath:
		path := url.path[1:]
		if path == "" {
			if queryHash != "" {
				return queryHash
			}
			return "."
		}
		ref := base
		if ref == "" {
			ref = input
		}
		if isRelative(ref) && !isRelative(path) {
			// An explicitly relative base (or input, when there is
			// no base) keeps the result visibly relative.
			return "./" + path + queryHash
		}
		return path + queryHash
	case kindAbsolutePath:
		return url.path + queryHash
	default:
		return url.scheme + "//" + url.user + url.host + url.port + url.path + queryHash
	}
}

// StripFilename removes the final component of a URL or path, keeping the
// trailing slash, so the remainder can serve as a resolution base.
func StripFilename(path string) string {
	if path == "" {
		return ""
	}
	return path[:strings.LastIndexByte(path, '/')+1]
}
