package telemetry

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// Span names
const (
	SpanDirectoryBind   = "directory.bind"
	SpanSessionIssue    = "session.issue"
	SpanSessionVerify   = "session.verify"
	SpanObjectStoreList = "objectstore.list_objects"
	SpanObjectStoreGet  = "objectstore.get_object"
	SpanObjectStoreHead = "objectstore.head_bucket"
)

// Attribute keys
const (
	AttrDirectoryURL    = attribute.Key("directory.url")
	AttrDirectoryDN     = attribute.Key("directory.bind_dn")
	AttrDirectoryResult = attribute.Key("directory.result_code")
	AttrSubject         = attribute.Key("gatehouse.subject")
	AttrTokenID         = attribute.Key("gatehouse.token_id")
	AttrBucket          = attribute.Key("objectstore.bucket")
	AttrKey             = attribute.Key("objectstore.key")
	AttrPrefix          = attribute.Key("objectstore.prefix")
	AttrEntries         = attribute.Key("objectstore.entries")
	AttrBytes           = attribute.Key("objectstore.bytes")
)

func Subject(s string) attribute.KeyValue { return AttrSubject.String(s) }

func TokenID(id string) attribute.KeyValue { return AttrTokenID.String(id) }

func Bucket(name string) attribute.KeyValue { return AttrBucket.String(name) }

func ObjectKey(key string) attribute.KeyValue { return AttrKey.String(key) }

func Prefix(p string) attribute.KeyValue { return AttrPrefix.String(p) }

func Entries(n int) attribute.KeyValue { return AttrEntries.Int(n) }

func Bytes(n int64) attribute.KeyValue { return AttrBytes.Int64(n) }

func DirectoryResult(code uint16) attribute.KeyValue { return AttrDirectoryResult.Int(int(code)) }

// StartDirectorySpan starts a client span around a directory bind.
func StartDirectorySpan(ctx context.Context, url, dn string) (context.Context, trace.Span) {
	return StartSpan(ctx, SpanDirectoryBind,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(AttrDirectoryURL.String(url), AttrDirectoryDN.String(dn)),
	)
}

// StartObjectStoreSpan starts a client span around an object store request.
func StartObjectStoreSpan(ctx context.Context, name, bucket string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	return StartSpan(ctx, name,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(append([]attribute.KeyValue{Bucket(bucket)}, attrs...)...),
	)
}
