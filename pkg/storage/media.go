// Package storage resolves opaque media references to fetchable URLs and
// issues one-time upload targets. It is not a storage engine; blobs live in
// the Firebase/GCS bucket and this package only mints URLs against it.
package storage

import (
	"context"
	"strings"

	"golang.org/x/sync/errgroup"
)

// RefKind tags a media reference as a ready-to-use URL or an opaque
// storage handle that must be resolved before display.
type RefKind string

const (
	KindURL    RefKind = "url"
	KindHandle RefKind = "handle"
)

// MediaRef is the tagged representation of an image/media field. Profile
// and post rows store the raw string; the prefix heuristic lives here and
// nowhere else.
type MediaRef struct {
	Kind  RefKind
	Value string
}

// ParseMediaRef classifies a raw reference. Anything that does not look
// like an http(s) URL is treated as a storage handle.
func ParseMediaRef(raw string) MediaRef {
	if strings.HasPrefix(raw, "http") {
		return MediaRef{Kind: KindURL, Value: raw}
	}
	return MediaRef{Kind: KindHandle, Value: raw}
}

// Resolver turns storage handles into fetchable URLs.
type Resolver interface {
	// ResolveURL resolves a storage handle to a URL.
	ResolveURL(ctx context.Context, handle string) (string, error)
	// GenerateUploadURL returns a one-time upload target and the handle
	// the uploaded object will be addressable by.
	GenerateUploadURL(ctx context.Context) (*UploadTarget, error)
}

// UploadTarget is a one-time upload destination.
type UploadTarget struct {
	UploadURL string `json:"upload_url"`
	Handle    string `json:"handle"`
}

// ResolveRef resolves a single raw reference. References that already are
// URLs pass through unchanged.
func ResolveRef(ctx context.Context, r Resolver, raw string) (string, error) {
	ref := ParseMediaRef(raw)
	if ref.Kind == KindURL {
		return ref.Value, nil
	}
	return r.ResolveURL(ctx, ref.Value)
}

// ResolveAll resolves each reference independently, in parallel, and drops
// entries that fail to resolve. The returned list may be shorter than the
// input; a single bad reference never fails the batch.
func ResolveAll(ctx context.Context, r Resolver, refs []string) []string {
	if len(refs) == 0 {
		return []string{}
	}

	resolved := make([]string, len(refs))
	g, gctx := errgroup.WithContext(ctx)
	for i, raw := range refs {
		g.Go(func() error {
			url, err := ResolveRef(gctx, r, raw)
			if err == nil {
				resolved[i] = url
			}
			return nil
		})
	}
	// Workers never return errors; failures leave an empty slot.
	_ = g.Wait()

	urls := make([]string, 0, len(refs))
	for _, u := range resolved {
		if u != "" {
			urls = append(urls, u)
		}
	}
	return urls
}
