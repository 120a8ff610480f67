// Package stomp implements a minimal STOMP 1.2 client over WebSocket,
// sufficient for the room topics and application destinations the chat
// server exposes.
package stomp

import (
	"bytes"
	"errors"
	"fmt"
	"sort"
	"strings"
)

// Frame commands used by this client.
const (
	CommandConnect    = "CONNECT"
	CommandConnected  = "CONNECTED"
	CommandSubscribe  = "SUBSCRIBE"
	CommandSend       = "SEND"
	CommandMessage    = "MESSAGE"
	CommandError      = "ERROR"
	CommandReceipt    = "RECEIPT"
	CommandDisconnect = "DISCONNECT"
)

// Common header names.
const (
	HeaderAcceptVersion = "accept-version"
	HeaderHost          = "host"
	HeaderHeartBeat     = "heart-beat"
	HeaderAuthorization = "Authorization"
	HeaderDestination   = "destination"
	HeaderID            = "id"
	HeaderAck           = "ack"
	HeaderContentType   = "content-type"
	HeaderContentLength = "content-length"
	HeaderMessage       = "message"
	HeaderSubscription  = "subscription"
	HeaderMessageID     = "message-id"
)

// ErrHeartBeat is returned by Unmarshal for bare EOL keep-alive frames.
var ErrHeartBeat = errors.New("stomp: heart-beat frame")

// Frame is one STOMP frame. Header values are unescaped.
type Frame struct {
	Command string
	Header  map[string]string
	Body    []byte
}

// NewFrame builds a frame from alternating header key/value pairs.
func NewFrame(command string, headers ...string) *Frame {
	f := &Frame{Command: command, Header: make(map[string]string, len(headers)/2)}
	for i := 0; i+1 < len(headers); i += 2 {
		f.Header[headers[i]] = headers[i+1]
	}
	return f
}

// Marshal renders the frame in wire format: command line, header lines, a
// blank line, the body and a NUL terminator. Headers are written in sorted
// key order so output is deterministic.
func (f *Frame) Marshal() []byte {
	var b bytes.Buffer
	b.WriteString(f.Command)
	b.WriteByte('\n')

	keys := make([]string, 0, len(f.Header))
	for k := range f.Header {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	escape := f.escapesHeaders()
	for _, k := range keys {
		v := f.Header[k]
		if escape {
			k = escapeHeader(k)
			v = escapeHeader(v)
		}
		b.WriteString(k)
		b.WriteByte(':')
		b.WriteString(v)
		b.WriteByte('\n')
	}
	b.WriteByte('\n')
	b.Write(f.Body)
	b.WriteByte(0)
	return b.Bytes()
}

// Unmarshal parses one wire-format frame. Leading EOLs are tolerated; a
// buffer containing only EOLs is a heart-beat and yields ErrHeartBeat.
func Unmarshal(data []byte) (*Frame, error) {
	data = bytes.TrimLeft(data, "\r\n")
	if len(data) == 0 {
		return nil, ErrHeartBeat
	}

	head, body, found := cutFrameBody(data)
	if !found {
		return nil, errors.New("stomp: frame missing header terminator")
	}
	if i := bytes.IndexByte(body, 0); i >= 0 {
		body = body[:i]
	}

	lines := strings.Split(strings.ReplaceAll(string(head), "\r\n", "\n"), "\n")
	f := &Frame{Command: lines[0], Header: make(map[string]string, len(lines)-1)}
	if f.Command == "" {
		return nil, errors.New("stomp: empty command")
	}
	escape := f.escapesHeaders()
	for _, line := range lines[1:] {
		if line == "" {
			continue
		}
		k, v, ok := strings.Cut(line, ":")
		if !ok {
			return nil, fmt.Errorf("stomp: malformed header line %q", line)
		}
		if escape {
			var err error
			if k, err = unescapeHeader(k); err != nil {
				return nil, err
			}
			if v, err = unescapeHeader(v); err != nil {
				return nil, err
			}
		}
		// Repeated headers: the first occurrence wins.
		if _, exists := f.Header[k]; !exists {
			f.Header[k] = v
		}
	}
	if len(body) > 0 {
		f.Body = append([]byte(nil), body...)
	}
	return f, nil
}

// cutFrameBody splits a frame at its first blank line. Servers may
// terminate lines with either LF or CRLF, so the header block is scanned
// line by line rather than cut on a fixed delimiter.
func cutFrameBody(data []byte) (head, body []byte, found bool) {
	lineStart := 0
	for i := 0; i < len(data); i++ {
		if data[i] != '\n' {
			continue
		}
		line := data[lineStart:i]
		if len(line) > 0 && line[len(line)-1] == '\r' {
			line = line[:len(line)-1]
		}
		if len(line) == 0 {
			return data[:lineStart], data[i+1:], true
		}
		lineStart = i + 1
	}
	return nil, nil, false
}

// escapesHeaders reports whether header octets are escaped for this frame.
// CONNECT and CONNECTED are exempt per the STOMP 1.2 specification.
func (f *Frame) escapesHeaders() bool {
	return f.Command != CommandConnect && f.Command != CommandConnected
}

func escapeHeader(s string) string {
	var b strings.Builder
	for _, r := range s {
		switch r {
		case '\r':
			b.WriteString(`\r`)
		case '\n':
			b.WriteString(`\n`)
		case ':':
			b.WriteString(`\c`)
		case '\\':
			b.WriteString(`\\`)
		default:
			b.WriteRune(r)
		}
	}
	return b.String()
}

func unescapeHeader(s string) (string, error) {
	if !strings.ContainsRune(s, '\\') {
		return s, nil
	}
	var b strings.Builder
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c != '\\' {
			b.WriteByte(c)
			continue
		}
		i++
		if i >= len(s) {
			return "", errors.New("stomp: dangling escape in header")
		}
		switch s[i] {
		case 'r':
			b.WriteByte('\r')
		case 'n':
			b.WriteByte('\n')
		case 'c':
			b.WriteByte(':')
		case '\\':
			b.WriteByte('\\')
		default:
			return "", fmt.Errorf("stomp: invalid escape sequence \\%c", s[i])
		}
	}
	return b.String(), nil
}
