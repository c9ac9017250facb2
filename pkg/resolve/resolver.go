// Package resolve builds child entry references under a base directory
// reference, using the cheapest strategy the reference's shape allows:
// direct path concatenation for filesystem-style refs, provider-convention
// string construction for structured tree refs, and a segment-wise
// directory walk as the fallback of last resort.
package resolve

import (
	"context"
	"fmt"
	"net/url"
	"regexp"
	"strings"

	"go.opentelemetry.io/otel/trace"

	"github.com/scopedfs/scopedfs/internal/logger"
	"github.com/scopedfs/scopedfs/internal/telemetry"
	"github.com/scopedfs/scopedfs/pkg/bridge"
	"github.com/scopedfs/scopedfs/pkg/entry"
)

// treeDocPattern matches structured provider references of the shape
// content://<authority>/tree/<grant>/document/<escaped-path>. The document
// segment encodes a path under the granted tree with %2F separators, which
// is what lets children be constructed by string appends alone.
var treeDocPattern = regexp.MustCompile(`^content://([^/]+)/tree/([^/]+)/document/(.+)$`)

// Resolver builds child refs under base directory refs.
type Resolver struct {
	b bridge.Bridge
}

// New creates a resolver that issues remote lookups through b.
func New(b bridge.Bridge) *Resolver {
	return &Resolver{b: b}
}

// Resolve builds the ref for relPath under base.
//
// want controls post-resolution verification: entry.KindAny skips it (the
// result may denote a nonexistent entry), any other kind issues one type
// probe and fails with ErrTypeMismatch or ErrNotFound.
//
// Plain filesystem refs and structured tree refs resolve with zero bridge
// calls; opaque refs cost one ListDirectory per path segment.
func (r *Resolver) Resolve(ctx context.Context, base entry.Ref, relPath string, want entry.Kind) (entry.Ref, error) {
	ctx, span := telemetry.StartSpan(ctx, telemetry.SpanResolve,
		trace.WithAttributes(telemetry.Ref(base.Reference), telemetry.RelPath(relPath)))
	defer span.End()

	segments, err := splitRelative(relPath)
	if err != nil {
		telemetry.RecordError(ctx, err)
		return entry.Ref{}, err
	}

	var child entry.Ref
	switch {
	case isPlainPath(base.Reference):
		child = joinPlain(base, segments)
	case treeDocPattern.MatchString(base.Reference):
		child = joinTreeDocument(base, segments)
	default:
		child, err = r.walk(ctx, base, segments)
		if err != nil {
			telemetry.RecordError(ctx, err)
			return entry.Ref{}, err
		}
	}

	if want != entry.KindAny {
		if err := r.checkKind(ctx, child, want); err != nil {
			telemetry.RecordError(ctx, err)
			return entry.Ref{}, err
		}
	}

	logger.DebugCtx(ctx, "resolved child ref",
		logger.KeyRef, child.Reference,
		logger.KeyRootGrant, child.RootGrant,
		logger.KeyRelPath, relPath)
	return child, nil
}

// splitRelative validates and splits a relative path. Parent-directory and
// current-directory segments, empty segments, and absolute prefixes are all
// rejected before any remote call.
func splitRelative(relPath string) ([]string, error) {
	if relPath == "" {
		return nil, fmt.Errorf("%w: empty path", ErrInvalidRelativePath)
	}
	if strings.HasPrefix(relPath, "/") {
		return nil, fmt.Errorf("%w: absolute path %q", ErrInvalidRelativePath, relPath)
	}

	segments := strings.Split(relPath, "/")
	for _, seg := range segments {
		switch seg {
		case "":
			return nil, fmt.Errorf("%w: empty segment in %q", ErrInvalidRelativePath, relPath)
		case ".", "..":
			return nil, fmt.Errorf("%w: %q segment in %q", ErrInvalidRelativePath, seg, relPath)
		}
	}
	return segments, nil
}

// isPlainPath reports whether the reference is filesystem-shaped: a file://
// URI or a bare absolute path.
func isPlainPath(reference string) bool {
	return strings.HasPrefix(reference, "file://") || strings.HasPrefix(reference, "/")
}

// joinPlain concatenates path segments onto a filesystem-shaped base.
func joinPlain(base entry.Ref, segments []string) entry.Ref {
	ref := strings.TrimSuffix(base.Reference, "/")
	for _, seg := range segments {
		ref += "/" + seg
	}
	return entry.Ref{Reference: ref, RootGrant: base.RootGrant}
}

// joinTreeDocument appends segments to a structured tree-document ref using
// the provider's %2F concatenation convention.
func joinTreeDocument(base entry.Ref, segments []string) entry.Ref {
	ref := base.Reference
	for _, seg := range segments {
		ref += "%2F" + url.PathEscape(seg)
	}

	grant := base.RootGrant
	if grant == "" {
		// A tree-shaped ref without explicit grant context descends from
		// the grant named in its own tree segment.
		grant = treeDocPattern.FindStringSubmatch(base.Reference)[2]
	}
	return entry.Ref{Reference: ref, RootGrant: grant}
}

// walk resolves one segment at a time by listing directory children and
// matching on name. O(segments) bridge calls.
func (r *Resolver) walk(ctx context.Context, base entry.Ref, segments []string) (entry.Ref, error) {
	current := base
	for i, seg := range segments {
		var resp bridge.ListDirectoryResponse
		req := bridge.ListDirectoryRequest{Reference: current.Reference}
		if err := r.b.Invoke(ctx, bridge.OpListDirectory, req, &resp); err != nil {
			return entry.Ref{}, err
		}

		found := false
		for _, child := range resp.Entries {
			if child.Name == seg {
				current = entry.Ref{Reference: child.Reference, RootGrant: base.RootGrant}
				found = true
				break
			}
		}
		if !found {
			return entry.Ref{}, fmt.Errorf("%w: %q under %q",
				ErrNotFound, strings.Join(segments[:i+1], "/"), base.Reference)
		}
	}
	return current, nil
}

// checkKind issues one type probe and verifies the resolved entry's kind.
func (r *Resolver) checkKind(ctx context.Context, ref entry.Ref, want entry.Kind) error {
	var resp bridge.QueryTypeResponse
	req := bridge.QueryTypeRequest{Reference: ref.Reference}
	if err := r.b.Invoke(ctx, bridge.OpQueryType, req, &resp); err != nil {
		return err
	}

	if resp.Kind == bridge.KindMissing {
		return fmt.Errorf("%w: %q", ErrNotFound, ref.Reference)
	}
	if got := entry.ParseKind(resp.Kind); got != want {
		return fmt.Errorf("%w: %q is a %s, want %s", ErrTypeMismatch, ref.Reference, got, want)
	}
	return nil
}
