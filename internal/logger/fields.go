package logger

import (
	"log/slog"
)

// Standard field keys for structured logging. Use these consistently so log
// lines can be filtered by the same key across packages.
const (
	// Tracing
	KeyTraceID = "trace_id"
	KeySpanID  = "span_id"

	// HTTP
	KeyRequestID  = "request_id"
	KeyClientIP   = "client_ip"
	KeyRoute      = "route"
	KeyMethod     = "method"
	KeyPath       = "path"
	KeyStatus     = "status"
	KeyBytes      = "bytes"
	KeyDurationMs = "duration_ms"

	// Authentication. Passwords never have a key.
	KeySubject    = "subject"
	KeyBindDN     = "bind_dn"
	KeyResultCode = "ldap_result_code"
	KeyOutcome    = "outcome"
	KeyTokenID    = "token_id"

	// Object store
	KeyBucket   = "bucket"
	KeyKey      = "key"
	KeyPrefix   = "prefix"
	KeyEntries  = "entries"
	KeyMimeType = "mime_type"
	KeySize     = "size"
	KeyRegion   = "region"
	KeyEndpoint = "endpoint"

	// Generic
	KeyError     = "error"
	KeyOperation = "operation"
	KeyAddress   = "address"
)

// RequestID returns a slog.Attr for the HTTP request id
func RequestID(id string) slog.Attr {
	return slog.String(KeyRequestID, id)
}

// Subject returns a slog.Attr for a session subject
func Subject(s string) slog.Attr {
	return slog.String(KeySubject, s)
}

// BindDN returns a slog.Attr for a directory distinguished name
func BindDN(dn string) slog.Attr {
	return slog.String(KeyBindDN, dn)
}

// ResultCode returns a slog.Attr for an LDAP result code
func ResultCode(code uint16) slog.Attr {
	return slog.Int(KeyResultCode, int(code))
}

// Outcome returns a slog.Attr for an operation outcome label
func Outcome(o string) slog.Attr {
	return slog.String(KeyOutcome, o)
}

func TokenID(id string) slog.Attr {
	return slog.String(KeyTokenID, id)
}

func Bucket(name string) slog.Attr {
	return slog.String(KeyBucket, name)
}

func Key(k string) slog.Attr {
	return slog.String(KeyKey, k)
}

func Prefix(p string) slog.Attr {
	return slog.String(KeyPrefix, p)
}

func Entries(n int) slog.Attr {
	return slog.Int(KeyEntries, n)
}

func Size(n int64) slog.Attr {
	return slog.Int64(KeySize, n)
}

func MimeType(t string) slog.Attr {
	return slog.String(KeyMimeType, t)
}

// Operation returns a slog.Attr for a named operation (login, list_objects, ...)
func Operation(op string) slog.Attr {
	return slog.String(KeyOperation, op)
}

// DurationMs returns a slog.Attr for duration in milliseconds
func DurationMs(ms float64) slog.Attr {
	return slog.Float64(KeyDurationMs, ms)
}

// Err returns a slog.Attr for an error. A nil error yields an empty attr,
// which handlers drop.
func Err(err error) slog.Attr {
	if err == nil {
		return slog.Attr{}
	}
	return slog.String(KeyError, err.Error())
}
