package xtaf

import (
	"io"
	"reflect"
	"sort"
	"strings"

	"github.com/dsoprea/go-logging"
)

// TreeNode is one file or directory of a loaded tree.
type TreeNode struct {
	name string

	isDirectory bool
	de          *DirectoryEntry

	childrenFolders sort.StringSlice
	childrenFiles   sort.StringSlice

	childrenMap map[string]*TreeNode
}

func NewTreeNode(name string, isDirectory bool, de *DirectoryEntry) (tn *TreeNode) {
	tn = &TreeNode{
		name:        name,
		isDirectory: isDirectory,
		de:          de,

		childrenFolders: make(sort.StringSlice, 0),
		childrenFiles:   make(sort.StringSlice, 0),

		childrenMap: make(map[string]*TreeNode),
	}

	return tn
}

func (tn *TreeNode) Name() string {
	return tn.name
}

// DirectoryEntry returns the entry that the node was loaded from. It's nil
// for the root.
func (tn *TreeNode) DirectoryEntry() *DirectoryEntry {
	return tn.de
}

func (tn *TreeNode) IsDirectory() bool {
	return tn.isDirectory
}

func (tn *TreeNode) ChildFolders() []string {
	return tn.childrenFolders
}

func (tn *TreeNode) ChildFiles() []string {
	return tn.childrenFiles
}

func (tn *TreeNode) GetChild(filename string) *TreeNode {
	return tn.childrenMap[filename]
}

func (tn *TreeNode) Lookup(pathParts []string) *TreeNode {
	if len(pathParts) == 0 {
		// We've reached and found the last part.
		return tn
	}

	childNode := tn.childrenMap[pathParts[0]]
	if childNode == nil {
		// An intermediate part was not found.
		return nil
	}

	return childNode.Lookup(pathParts[1:])
}

// AddChild adds a child node. Children are kept sorted by name.
func (tn *TreeNode) AddChild(name string, isDirectory bool, de *DirectoryEntry) *TreeNode {
	childNode := NewTreeNode(name, isDirectory, de)

	list := tn.childrenFiles
	if isDirectory == true {
		list = tn.childrenFolders
	}

	insertOrEqualAt := list.Search(name)

	if insertOrEqualAt >= len(list) {
		list = append(list, name)
	} else if list[insertOrEqualAt] != name {
		list = append(list, "")
		copy(list[insertOrEqualAt+1:], list[insertOrEqualAt:])
		list[insertOrEqualAt] = name
	}

	if isDirectory == true {
		tn.childrenFolders = list
	} else {
		tn.childrenFiles = list
	}

	tn.childrenMap[name] = childNode

	return childNode
}

// Tree is the full directory hierarchy of one mounted partition.
type Tree struct {
	mp       *MountedPartition
	at       *AllocationTable
	rootNode *TreeNode
}

func NewTree(mp *MountedPartition) *Tree {
	return &Tree{
		mp:       mp,
		at:       NewAllocationTable(mp),
		rootNode: NewTreeNode("", true, nil),
	}
}

func (tree *Tree) loadDirectory(cluster uint32, node *TreeNode, loaded map[uint32]bool) (err error) {
	defer func() {
		if errRaw := recover(); errRaw != nil {
			var ok bool
			if err, ok = errRaw.(error); ok == true {
				err = log.Wrap(err)
			} else {
				err = log.Errorf("Error not an error: [%s] [%v]", reflect.TypeOf(err).Name(), err)
			}
		}
	}()

	if loaded[cluster] == true {
		log.Panicf("directory at cluster (%d) was already loaded", cluster)
	}

	loaded[cluster] = true

	nav := NewNavigator(tree.mp, tree.at, cluster)

	index, err := nav.IndexDirectoryEntries()
	log.PanicIf(err)

	for filename, isDirectory := range index.Filenames() {
		de := index[filename]
		childNode := node.AddChild(filename, isDirectory, de)

		if isDirectory == true && de.FirstCluster != 0 {
			err := tree.loadDirectory(de.FirstCluster, childNode, loaded)
			log.PanicIf(err)
		}
	}

	return nil
}

// Load reads every directory starting from the root.
func (tree *Tree) Load() (err error) {
	defer func() {
		if errRaw := recover(); errRaw != nil {
			var ok bool
			if err, ok = errRaw.(error); ok == true {
				err = log.Wrap(err)
			} else {
				err = log.Errorf("Error not an error: [%s] [%v]", reflect.TypeOf(err).Name(), err)
			}
		}
	}()

	loaded := make(map[uint32]bool)

	err = tree.loadDirectory(tree.mp.RootDirCluster(), tree.rootNode, loaded)
	log.PanicIf(err)

	return nil
}

func (tree *Tree) Lookup(pathParts []string) (node *TreeNode) {
	return tree.rootNode.Lookup(pathParts)
}

type TreeVisitorFunc func(pathParts []string, node *TreeNode) (err error)

// Visit calls the callback for every node, directories before the files
// beside them.
func (tree *Tree) Visit(cb TreeVisitorFunc) (err error) {
	defer func() {
		if errRaw := recover(); errRaw != nil {
			var ok bool
			if err, ok = errRaw.(error); ok == true {
				err = log.Wrap(err)
			} else {
				err = log.Errorf("Error not an error: [%s] [%v]", reflect.TypeOf(err).Name(), err)
			}
		}
	}()

	pathParts := make([]string, 0)

	err = tree.visit(pathParts, tree.rootNode, cb)
	log.PanicIf(err)

	return nil
}

func (tree *Tree) visit(pathParts []string, node *TreeNode, cb TreeVisitorFunc) (err error) {
	err = cb(pathParts, node)
	if err != nil {
		return err
	}

	for _, childFolderName := range node.childrenFolders {
		childPathParts := make([]string, len(pathParts)+1)
		copy(childPathParts, pathParts)
		childPathParts[len(childPathParts)-1] = childFolderName

		err := tree.visit(childPathParts, node.childrenMap[childFolderName], cb)
		if err != nil {
			return err
		}
	}

	for _, childFilename := range node.childrenFiles {
		childPathParts := make([]string, len(pathParts)+1)
		copy(childPathParts, pathParts)
		childPathParts[len(childPathParts)-1] = childFilename

		err := cb(childPathParts, node.childrenMap[childFilename])
		if err != nil {
			return err
		}
	}

	return nil
}

// List returns every path in visiting order, separated with forward-slashes,
// along with a lookup of the nodes.
func (tree *Tree) List() (files []string, nodes map[string]*TreeNode, err error) {
	files = make([]string, 0)
	nodes = make(map[string]*TreeNode)

	cb := func(pathParts []string, node *TreeNode) (err error) {
		if len(pathParts) == 0 {
			return nil
		}

		nodePath := strings.Join(pathParts, "/")

		files = append(files, nodePath)
		nodes[nodePath] = node

		return nil
	}

	err = tree.Visit(cb)
	if err != nil {
		return nil, nil, err
	}

	return files, nodes, nil
}

// WriteFile writes the contents of the file node to `w` by following its
// cluster chain.
func (tree *Tree) WriteFile(node *TreeNode, w io.Writer) (visitedClusters []uint32, err error) {
	defer func() {
		if errRaw := recover(); errRaw != nil {
			var ok bool
			if err, ok = errRaw.(error); ok == true {
				err = log.Wrap(err)
			} else {
				err = log.Errorf("Error not an error: [%s] [%v]", reflect.TypeOf(err).Name(), err)
			}
		}
	}()

	if node.isDirectory == true || node.de == nil {
		log.Panicf("not a file: [%s]", node.name)
	}

	visitedClusters = make([]uint32, 0)

	dataSize := uint64(node.de.FileSize)
	if dataSize == 0 {
		return visitedClusters, nil
	}

	data := make([]byte, tree.mp.Geometry().BytesPerCluster)
	written := uint64(0)

	cb := func(cluster uint32, sector uint64) (doContinue bool, err error) {
		visitedClusters = append(visitedClusters, cluster)

		err = tree.mp.ReadCluster(cluster, data)
		if err != nil {
			return false, err
		}

		chunk := data
		if remaining := dataSize - written; remaining < uint64(len(chunk)) {
			chunk = chunk[:remaining]
		}

		_, err = w.Write(chunk)
		if err != nil {
			return false, err
		}

		written += uint64(len(chunk))

		return written < dataSize, nil
	}

	err = tree.at.EnumerateClusters(node.de.FirstCluster, cb)
	log.PanicIf(err)

	if written != dataSize {
		log.Panicf("written bytes do not equal file-size: (%d) != (%d)", written, dataSize)
	}

	return visitedClusters, nil
}
