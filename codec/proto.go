package codec

import (
	"fmt"
	"time"

	"google.golang.org/protobuf/encoding/protowire"

	"github.com/unkn0wn-root/doccache/repository"
)

// RecordProto encodes records in protobuf wire format without generated code.
// The layout is equivalent to:
//
//	message Record {
//	  string cache_id = 1;
//	  bytes data = 2;
//	  int64 date_added = 3;        // unix seconds
//	  optional int64 lifetime = 4; // seconds
//	  optional int64 ttl = 5;      // unix seconds
//	  int64 hits = 6;
//	  repeated string tags = 7;
//	  int64 object_version = 8;
//	  int32 date_added_nanos = 9;
//	}
//
// Unknown fields are skipped, so newer writers stay readable.
type RecordProto struct{}

var _ Record = RecordProto{}

const (
	fCacheID protowire.Number = iota + 1
	fData
	fDateAdded
	fLifetime
	fTTL
	fHits
	fTags
	fObjectVersion
	fDateAddedNanos
)

func (RecordProto) Encode(r repository.Record) ([]byte, error) {
	b := make([]byte, 0, 64+len(r.Data))

	b = protowire.AppendTag(b, fCacheID, protowire.BytesType)
	b = protowire.AppendString(b, r.CacheID)
	if len(r.Data) > 0 {
		b = protowire.AppendTag(b, fData, protowire.BytesType)
		b = protowire.AppendBytes(b, r.Data)
	}
	b = appendInt(b, fDateAdded, r.DateAdded.Unix())
	if ns := r.DateAdded.Nanosecond(); ns != 0 {
		b = appendInt(b, fDateAddedNanos, int64(ns))
	}
	if r.Lifetime != nil {
		b = appendInt(b, fLifetime, *r.Lifetime)
	}
	if r.TTL != nil {
		b = appendInt(b, fTTL, r.TTL.Unix())
	}
	b = appendInt(b, fHits, r.Hits)
	for _, t := range r.Tags {
		b = protowire.AppendTag(b, fTags, protowire.BytesType)
		b = protowire.AppendString(b, t)
	}
	b = appendInt(b, fObjectVersion, r.ObjectVersion)
	return b, nil
}

func (RecordProto) Decode(b []byte) (repository.Record, error) {
	var (
		r       repository.Record
		sec     int64
		nanos   int64
		ttlSet  bool
		ttlUnix int64
	)
	for len(b) > 0 {
		num, typ, n := protowire.ConsumeTag(b)
		if n < 0 {
			return repository.Record{}, protowire.ParseError(n)
		}
		b = b[n:]

		switch {
		case typ == protowire.BytesType && (num == fCacheID || num == fData || num == fTags):
			v, n := protowire.ConsumeBytes(b)
			if n < 0 {
				return repository.Record{}, protowire.ParseError(n)
			}
			b = b[n:]
			switch num {
			case fCacheID:
				r.CacheID = string(v)
			case fData:
				r.Data = append([]byte(nil), v...)
			case fTags:
				r.Tags = append(r.Tags, string(v))
			}
		case typ == protowire.VarintType && num >= fDateAdded && num <= fDateAddedNanos:
			v, n := protowire.ConsumeVarint(b)
			if n < 0 {
				return repository.Record{}, protowire.ParseError(n)
			}
			b = b[n:]
			iv := int64(v)
			switch num {
			case fDateAdded:
				sec = iv
			case fDateAddedNanos:
				nanos = iv
			case fLifetime:
				r.Lifetime = &iv
			case fTTL:
				ttlSet, ttlUnix = true, iv
			case fHits:
				r.Hits = iv
			case fObjectVersion:
				r.ObjectVersion = iv
			}
		default:
			n := protowire.ConsumeFieldValue(num, typ, b)
			if n < 0 {
				return repository.Record{}, fmt.Errorf("record field %d: %w", num, protowire.ParseError(n))
			}
			b = b[n:]
		}
	}

	r.DateAdded = time.Unix(sec, nanos).UTC()
	if ttlSet {
		t := time.Unix(ttlUnix, 0).UTC()
		r.TTL = &t
	}
	return r, nil
}

func appendInt(b []byte, num protowire.Number, v int64) []byte {
	b = protowire.AppendTag(b, num, protowire.VarintType)
	return protowire.AppendVarint(b, uint64(v))
}
