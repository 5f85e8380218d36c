package viewer

import (
	"fmt"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"
)

// Node is one entry of a language tree.
type Node struct {
	Type     string  `json:"type"` // "directory" or "file"
	Name     string  `json:"name"`
	Path     string  `json:"path"` // slash-separated, relative to the tree root
	Children []*Node `json:"children,omitempty"`
}

// BuildTree lists dir recursively. Directories come before files and names
// are ordered case-insensitively.
func BuildTree(dir string) (*Node, error) {
	root := &Node{Type: "directory", Name: filepath.Base(dir), Path: ""}
	children, err := listDir(dir, "")
	if err != nil {
		return nil, err
	}
	root.Children = children
	return root, nil
}

func listDir(dir, rel string) ([]*Node, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", dir, err)
	}
	sort.SliceStable(entries, func(i, k int) bool {
		di, dk := entries[i].IsDir(), entries[k].IsDir()
		if di != dk {
			return di
		}
		return strings.ToLower(entries[i].Name()) < strings.ToLower(entries[k].Name())
	})

	nodes := make([]*Node, 0, len(entries))
	for _, e := range entries {
		p := path.Join(rel, e.Name())
		switch {
		case e.IsDir():
			children, err := listDir(filepath.Join(dir, e.Name()), p)
			if err != nil {
				return nil, err
			}
			nodes = append(nodes, &Node{Type: "directory", Name: e.Name(), Path: p, Children: children})
		case e.Type().IsRegular():
			nodes = append(nodes, &Node{Type: "file", Name: e.Name(), Path: p})
		}
	}
	return nodes, nil
}
