package vfs

import "strings"

const (
	treeBranch = "├── "
	treeLast   = "└── "
	treePipe   = "│   "
	treeBlank  = "    "
)

// Tree renders the subtree of p, resolved against the current directory.
// An empty p renders the current directory. Every line ends in a newline.
func (v *VFS) Tree(p string) (string, error) {
	dir := v.cwd
	if p != "" {
		dir = resolve(v.cwd, p)
	}
	if !v.dirLive(dir) {
		return "", newPathError(OpTree, p, ErrNoSuchDirectory)
	}
	var b strings.Builder
	v.renderTree(&b, dir, "")
	return b.String(), nil
}

func (v *VFS) renderTree(b *strings.Builder, dir, prefix string) {
	items := v.ListAt(dir)
	for i, name := range items {
		connector, indent := treeBranch, treePipe
		if i == len(items)-1 {
			connector, indent = treeLast, treeBlank
		}
		b.WriteString(prefix)
		b.WriteString(connector)
		b.WriteString(name)
		b.WriteByte('\n')

		child := join(dir, name)
		if v.dirLive(child) {
			v.renderTree(b, child, prefix+indent)
		}
	}
}
