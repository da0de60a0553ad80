package vfs

import (
	"maps"
	"slices"
	"strings"
)

// index is the hierarchical view derived once from the flat archive
// namelist. It never changes after construction; deletions live in the
// overlay and are applied on read.
type index struct {
	// children maps a canonical directory to its sorted direct child names
	children map[string][]string
	// dirs holds every canonical directory, explicit marker or implied by a
	// deeper entry
	dirs map[string]struct{}
	// files maps canonical file paths to the raw archive name, which is what
	// reads must use
	files map[string]string
	// entries lists every archive entry canonicalized, in archive order
	entries []string
}

func buildIndex(names []string) *index {
	idx := &index{
		children: make(map[string][]string),
		dirs:     make(map[string]struct{}),
		files:    make(map[string]string),
		entries:  make([]string, 0, len(names)),
	}
	kids := make(map[string]map[string]struct{})
	addChild := func(dir, name string) {
		set, ok := kids[dir]
		if !ok {
			set = make(map[string]struct{})
			kids[dir] = set
		}
		set[name] = struct{}{}
	}

	for _, raw := range names {
		isDir := strings.HasSuffix(raw, "/")
		c := canonical(raw)
		if c == "" {
			continue
		}
		idx.entries = append(idx.entries, c)

		segs := strings.Split(c, "/")
		dir := ""
		for i, seg := range segs {
			addChild(dir, seg)
			dir = join(dir, seg)
			if i < len(segs)-1 || isDir {
				idx.dirs[dir] = struct{}{}
			}
		}
		if !isDir {
			if _, dup := idx.files[c]; !dup {
				idx.files[c] = raw
			}
		}
	}

	for dir, set := range kids {
		idx.children[dir] = slices.Sorted(maps.Keys(set))
	}
	return idx
}

func (idx *index) isDir(p string) bool {
	if p == "" {
		return true
	}
	_, ok := idx.dirs[p]
	return ok
}

func (idx *index) rawFile(p string) (string, bool) {
	raw, ok := idx.files[p]
	return raw, ok
}
