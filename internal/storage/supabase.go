package storage

import (
	"context"
	"fmt"
	"io"
	"strings"

	supabasestorage "github.com/supabase-community/storage-go"
)

// Supabase stores blobs in a Supabase Storage bucket.
//
// The bucket must be public: Put hands back the bucket's public URL for the
// object, not a signed one.
type Supabase struct {
	endpoint   string
	serviceKey string
	bucket     string
}

// cacheControl matches what the browser-facing CDN is told to cache for (seconds).
const cacheControl = "3600"

// NewSupabase builds a store for the project at projectURL
// (e.g. https://abc.supabase.co) authenticated with a service key.
func NewSupabase(projectURL, serviceKey, bucket string) *Supabase {
	return &Supabase{
		endpoint:   strings.TrimRight(projectURL, "/") + "/storage/v1",
		serviceKey: serviceKey,
		bucket:     bucket,
	}
}

// client returns a fresh storage-go client. UploadFile writes its file
// options into the client's shared headers, so a client is never reused
// across calls.
func (s *Supabase) client() *supabasestorage.Client {
	return supabasestorage.NewClient(s.endpoint, s.serviceKey, map[string]string{
		"apikey": s.serviceKey,
	})
}

// Put uploads r under key. The storage-go client takes no context, so ctx is
// only checked before the call.
func (s *Supabase) Put(ctx context.Context, key string, r io.Reader, contentType string) (string, error) {
	if err := validateKey(key); err != nil {
		return "", err
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}

	client := s.client()
	upsert := false
	cache := cacheControl
	_, err := client.UploadFile(s.bucket, key, r, supabasestorage.FileOptions{
		ContentType:  &contentType,
		CacheControl: &cache,
		Upsert:       &upsert,
	})
	if err != nil {
		return "", fmt.Errorf("storage: uploading %s to bucket %s: %w", key, s.bucket, err)
	}

	return client.GetPublicUrl(s.bucket, key).SignedURL, nil
}

func (s *Supabase) Delete(ctx context.Context, key string) error {
	if err := validateKey(key); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	if _, err := s.client().RemoveFile(s.bucket, []string{key}); err != nil {
		return fmt.Errorf("storage: removing %s from bucket %s: %w", key, s.bucket, err)
	}
	return nil
}
