package mediagate

import (
	"context"
	"errors"
	"fmt"
)

// Gateway authorizes media requests and reads the requested objects.
//
// Token verification always happens before the store is touched, so a
// rejected request never costs a storage round trip.
type Gateway struct {
	verifier *TokenVerifier
	store    ObjectStore
}

// NewGateway creates a Gateway. Both arguments are required; an unconfigured
// verifier (empty secret) is accepted and denies every request.
func NewGateway(verifier *TokenVerifier, store ObjectStore) (*Gateway, error) {
	if verifier == nil {
		return nil, errors.New("new gateway: verifier is required")
	}
	if store == nil {
		return nil, errors.New("new gateway: object store is required")
	}
	return &Gateway{verifier: verifier, store: store}, nil
}

// Authorize verifies the token of a view request.
func (g *Gateway) Authorize(token string) (Claims, error) {
	claims, err := g.verifier.Verify(token)
	if err != nil {
		return nil, fmt.Errorf("authorize: %w", err)
	}
	return claims, nil
}

// Head authorizes req and returns the object's metadata.
//
// Error types returned:
//   - ErrUnauthorized: the token was rejected
//   - ErrNotFound: the key does not exist
//   - wrapped store errors otherwise
func (g *Gateway) Head(ctx context.Context, req ViewRequest) (ObjectInfo, error) {
	if _, err := g.Authorize(req.Token); err != nil {
		return ObjectInfo{}, err
	}

	if err := ctx.Err(); err != nil {
		return ObjectInfo{}, fmt.Errorf("head object: %w", err)
	}

	info, err := g.store.Head(ctx, req.Key)
	if err != nil {
		return ObjectInfo{}, fmt.Errorf("head object: %w", err)
	}
	return info, nil
}

// Get authorizes req and opens the object, constrained to rangeHeader when
// it is non-empty. The caller must close the returned Body.
//
// Error types returned:
//   - ErrUnauthorized: the token was rejected
//   - ErrNotFound: the key does not exist
//   - ErrRangeNotSatisfiable: the range lies outside the object
//   - wrapped store errors otherwise
func (g *Gateway) Get(ctx context.Context, req ViewRequest, rangeHeader string) (*Object, error) {
	if _, err := g.Authorize(req.Token); err != nil {
		return nil, err
	}

	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("get object: %w", err)
	}

	obj, err := g.store.Get(ctx, req.Key, GetOptions{Range: rangeHeader})
	if err != nil {
		return nil, fmt.Errorf("get object: %w", err)
	}

	if obj.Range != nil && !validServedRange(*obj.Range, obj.Size) {
		_ = obj.Body.Close()
		return nil, fmt.Errorf("get object: store returned range %d-%d (length %d) for size %d",
			obj.Range.Offset, obj.Range.End, obj.Range.Length, obj.Size)
	}

	return obj, nil
}

func validServedRange(r ServedRange, size int64) bool {
	return r.Offset >= 0 && r.End >= r.Offset && r.End < size && r.Length == r.End-r.Offset+1
}

// FileLister enumerates the files backing a store.
type FileLister interface {
	List(ctx context.Context) ([]ObjectEntry, error)
}

// PopulateResult counts the rows touched by Populate.
type PopulateResult struct {
	Created int
	Updated int
}

// Populate synchronizes metadata rows from the files a store holds.
// Existing rows keep their original name.
//
// It processes files sequentially and stops at the first error. The
// operation is not atomic: on failure some rows may already be written.
func Populate(ctx context.Context, lister FileLister, repo MetaDataRepo) (PopulateResult, error) {
	var res PopulateResult

	if err := ctx.Err(); err != nil {
		return res, fmt.Errorf("populate: %w", err)
	}

	files, err := lister.List(ctx)
	if err != nil {
		return res, fmt.Errorf("populate: %w", err)
	}

	for _, file := range files {
		_, created, upsertErr := repo.Upsert(ctx, file)
		if upsertErr != nil {
			return res, fmt.Errorf("populate '%s': %w", file.Path, upsertErr)
		}
		if created {
			res.Created++
		} else {
			res.Updated++
		}
	}

	return res, nil
}
