package brestapp

import (
	"context"
	"io"
	"net/http"
	"strconv"

	"github.com/advdv/brest"
	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/cockroachdb/errors"
	"go.uber.org/zap"
)

// StaticQueue is the worker queue that bucket reads are offloaded to.
const StaticQueue = "static"

// ObjectGetter is the part of the S3 client a static bucket needs.
type ObjectGetter interface {
	GetObject(ctx context.Context, in *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
}

// NewStaticBucket returns a group with a single "GET /*" route that serves the
// objects of 'bucket'. The wildcard remainder is the object key, an empty
// remainder serves "index.html". Byte ranges are passed on to S3. Reads run on
// the [StaticQueue] unless another queue is given with [brest.OnQueue].
func NewStaticBucket(client ObjectGetter, bucket string, opts ...brest.RouteOption) *brest.Group {
	g := brest.NewGroup()
	g.Get("/*", brest.Immediate(func(w brest.ResponseWriter, r *http.Request) {
		serveObject(client, bucket, w, r)
	}), append([]brest.RouteOption{brest.OnQueue(StaticQueue)}, opts...)...)

	return g
}

func serveObject(client ObjectGetter, bucket string, w brest.ResponseWriter, r *http.Request) {
	key := brest.WildcardPath(r)
	if key == "" {
		key = "index.html"
	}

	in := &s3.GetObjectInput{Bucket: aws.String(bucket), Key: aws.String(key)}
	if rng := r.Header.Get("Range"); rng != "" {
		in.Range = aws.String(rng)
	}

	out, err := client.GetObject(r.Context(), in)
	if err != nil {
		var nsk *types.NoSuchKey
		if errors.As(err, &nsk) {
			_ = brest.WriteError(w, http.StatusNotFound, r.Method+" "+r.URL.Path)
			return
		}

		Log(r.Context()).Error("failed to get static object", zap.String("key", key), zap.Error(err))
		_ = brest.WriteError(w, http.StatusBadGateway, http.StatusText(http.StatusBadGateway))

		return
	}
	defer out.Body.Close()

	hdr := w.Header()
	if out.ContentType != nil {
		hdr.Set("Content-Type", *out.ContentType)
	}

	if out.ContentLength != nil {
		hdr.Set("Content-Length", strconv.FormatInt(*out.ContentLength, 10))
	}

	if out.ETag != nil {
		hdr.Set("ETag", *out.ETag)
	}

	if out.LastModified != nil {
		hdr.Set("Last-Modified", out.LastModified.UTC().Format(http.TimeFormat))
	}

	if out.ContentRange != nil {
		hdr.Set("Content-Range", *out.ContentRange)
		w.WriteHeader(http.StatusPartialContent)
	}

	if _, err := io.Copy(w, out.Body); err != nil {
		Log(r.Context()).Error("failed to copy static object", zap.String("key", key), zap.Error(err))
	}
}
