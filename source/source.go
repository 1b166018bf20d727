// Package source defines the collaborator that supplies the browse
// layer with data: given a browse context and a parent path, a
// ChildSource returns every direct child of that path. Implementations
// live in subpackages, one per storage technology.
package source

import (
	"context"

	"github.com/mwantia/snaptree/data"
)

// ChildSource is the single abstract collaborator of the browse core.
// The cache never needs to know how data was fetched beyond "give me
// the set of children for this path".
type ChildSource interface {
	// Name returns the identifier name defined for this source.
	Name() string

	// Open is part of the lifecycle behaviour and gets called when opening this source.
	Open(ctx context.Context) error

	// Close is part of the lifecycle behaviour and gets called when closing this source.
	Close(ctx context.Context) error

	// FetchImmediateChildren returns every direct child of parentPath
	// under the given browse context, including logically-deleted
	// entries. Filtering deleted items in or out is a view concern.
	FetchImmediateChildren(ctx context.Context, bctx data.BrowseContext, parentPath string) ([]data.Entry, error)
}
