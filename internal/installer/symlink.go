package installer

import (
	"context"
	"os"
)

// SymlinkFixup creates link pointing at target, replacing whatever is at
// link. It behaves like `ln -sf` but swaps the link in with a rename.
type SymlinkFixup struct{}

// Link implements Fixup.
func (SymlinkFixup) Link(ctx context.Context, target, link string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return atomicSymlink(target, link)
}

// atomicSymlink creates the symlink at a temporary name and renames it
// over linkPath, so linkPath never disappears in between.
func atomicSymlink(target, linkPath string) error {
	tmpLink := linkPath + ".tmp"
	os.Remove(tmpLink)

	if err := os.Symlink(target, tmpLink); err != nil {
		return err
	}

	if err := os.Rename(tmpLink, linkPath); err != nil {
		os.Remove(tmpLink)
		return err
	}

	return nil
}
