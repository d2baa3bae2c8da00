package blob

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/smithy-go"

	"github.com/vietddude/campusconnect/internal/infra/backend"
	"github.com/vietddude/campusconnect/internal/infra/retry"
)

type stubS3 struct {
	input *s3.PutObjectInput
	body  []byte
	err   error
}

func (s *stubS3) PutObject(
	ctx context.Context,
	params *s3.PutObjectInput,
	optFns ...func(*s3.Options),
) (*s3.PutObjectOutput, error) {
	if s.err != nil {
		return nil, s.err
	}
	s.input = params
	s.body, _ = io.ReadAll(params.Body)
	return &s3.PutObjectOutput{}, nil
}

func TestS3Store_Put(t *testing.T) {
	client := &stubS3{}
	store := newS3Store(client, "campus", "https://cdn.example.com/")

	url, err := store.Put(context.Background(), "groups/g1/cover.jpg", "image/jpeg", strings.NewReader("img"))
	if err != nil {
		t.Fatalf("Put: %v", err)
	}
	if url != "https://cdn.example.com/groups/g1/cover.jpg" {
		t.Errorf("url = %s", url)
	}
	if *client.input.Bucket != "campus" || *client.input.ContentType != "image/jpeg" {
		t.Errorf("unexpected input %+v", client.input)
	}
	if string(client.body) != "img" {
		t.Errorf("body = %q", client.body)
	}
}

func TestS3Store_ErrorMapping(t *testing.T) {
	tests := []struct {
		code string
		kind retry.Kind
	}{
		{"AccessDenied", retry.KindPermissionDenied},
		{"NoSuchBucket", retry.KindNotFound},
		{"SlowDown", retry.KindUnavailable},
		{"RequestTimeout", retry.KindTimeout},
		{"InvalidArgument", retry.KindUnknown},
	}
	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			client := &stubS3{err: &smithy.GenericAPIError{Code: tt.code, Message: "boom"}}
			store := newS3Store(client, "campus", "https://cdn")
			_, err := store.Put(context.Background(), "k", "text/plain", strings.NewReader("x"))
			if got := retry.Classify(err); got != tt.kind {
				t.Errorf("kind = %v, want %v (%v)", got, tt.kind, err)
			}
		})
	}
}

func TestLocalStore_Put(t *testing.T) {
	dir := t.TempDir()
	store, err := NewLocalStore(dir, "http://localhost:8080/files")
	if err != nil {
		t.Fatal(err)
	}

	url, err := store.Put(context.Background(), ObjectKey("users", "u1", "photo.png"), "image/png", bytes.NewReader([]byte("png")))
	if err != nil {
		t.Fatalf("Put: %v", err)
	}
	if url != "http://localhost:8080/files/users/u1/photo.png" {
		t.Errorf("url = %s", url)
	}
	data, err := os.ReadFile(filepath.Join(dir, "users", "u1", "photo.png"))
	if err != nil || string(data) != "png" {
		t.Errorf("file = %q, %v", data, err)
	}
}

func TestPut_RejectsBadKeys(t *testing.T) {
	store, _ := NewLocalStore(t.TempDir(), "")
	for _, key := range []string{"", "../etc/passwd", "/abs"} {
		_, err := store.Put(context.Background(), key, "text/plain", strings.NewReader("x"))
		if backend.ReasonOf(err) != backend.ReasonInvalidArgument {
			t.Errorf("key %q: err = %v", key, err)
		}
	}
}

func TestPut_TooLarge(t *testing.T) {
	store, _ := NewLocalStore(t.TempDir(), "")
	big := bytes.NewReader(make([]byte, MaxUploadSize+1))
	_, err := store.Put(context.Background(), "big.bin", "application/octet-stream", big)
	var be *backend.Error
	if !errors.As(err, &be) || be.Reason != backend.ReasonInvalidArgument {
		t.Errorf("err = %v", err)
	}
}
