package fetch

import (
	"context"
	"errors"
	"io"
	"os"
	"strings"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/smithy-go"

	"github.com/wharflab/envy/internal/envyerr"
)

// fetchS3 parses s3://bucket/key, loads credentials from the environment
// via the default AWS config chain, and streams the object to disk in
// ≥64 KiB chunks, translating provider errors into a NetworkError that
// carries the AWS exception name and message (§4.3).
func fetchS3(ctx context.Context, req Request) (*Result, error) {
	bucket, key, err := parseS3URI(req.Source)
	if err != nil {
		return nil, err
	}

	optFns := []func(*awsconfig.LoadOptions) error{}
	if req.Region != "" {
		optFns = append(optFns, awsconfig.WithRegion(req.Region))
	}
	cfg, err := awsconfig.LoadDefaultConfig(ctx, optFns...)
	if err != nil {
		return nil, &envyerr.NetworkError{Scheme: "s3", URL: req.Source, Err: err}
	}

	client := s3.NewFromConfig(cfg)
	out, err := client.GetObject(ctx, &s3.GetObjectInput{Bucket: &bucket, Key: &key})
	if err != nil {
		return nil, &envyerr.NetworkError{Scheme: "s3", URL: req.Source, Err: translateAWSError(err)}
	}
	defer out.Body.Close()

	var total *int64
	if out.ContentLength != nil {
		total = out.ContentLength
	}

	f, err := os.OpenFile(req.Destination, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return nil, &envyerr.IOError{Op: "create", Path: req.Destination, Err: err}
	}
	defer f.Close()

	var written int64
	buf := make([]byte, minProgressChunk)
	for {
		n, readErr := out.Body.Read(buf)
		if n > 0 {
			if _, werr := f.Write(buf[:n]); werr != nil {
				os.Remove(req.Destination)
				return nil, &envyerr.IOError{Op: "write", Path: req.Destination, Err: werr}
			}
			written += int64(n)
			if !reportOK(req.Progress, Progress{Transferred: written, Total: total}) {
				os.Remove(req.Destination)
				return nil, &envyerr.UserAbortError{Op: "fetch_s3"}
			}
		}
		if readErr == io.EOF {
			break
		}
		if readErr != nil {
			os.Remove(req.Destination)
			return nil, &envyerr.NetworkError{Scheme: "s3", URL: req.Source, Err: translateAWSError(readErr)}
		}
	}

	return &Result{Destination: req.Destination, BytesWritten: written}, nil
}

func parseS3URI(raw string) (bucket, key string, err error) {
	const prefix = "s3://"
	if !strings.HasPrefix(strings.ToLower(raw), prefix) {
		return "", "", &envyerr.NetworkError{Scheme: "s3", URL: raw, Err: errMalformedS3URI}
	}
	rest := raw[len(prefix):]
	slash := strings.IndexByte(rest, '/')
	if slash <= 0 || slash == len(rest)-1 {
		return "", "", &envyerr.NetworkError{Scheme: "s3", URL: raw, Err: errMalformedS3URI}
	}
	return rest[:slash], rest[slash+1:], nil
}

var errMalformedS3URI = malformedS3URIError{}

type malformedS3URIError struct{}

func (malformedS3URIError) Error() string { return "fetch: malformed s3:// URI, expected s3://bucket/key" }

// translateAWSError preserves the provider's exception name alongside its
// message, as the spec requires for fetch errors.
func translateAWSError(err error) error {
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		return &s3APIError{name: apiErr.ErrorCode(), msg: apiErr.ErrorMessage()}
	}
	return err
}

type s3APIError struct {
	name string
	msg  string
}

func (e *s3APIError) Error() string { return e.name + ": " + e.msg }
