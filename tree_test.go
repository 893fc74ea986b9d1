package xtaf

import (
	"bytes"
	"reflect"
	"testing"

	"github.com/dsoprea/go-logging"
)

func TestTree_Load(t *testing.T) {
	_, mp := getTestFilesystem()

	tree := NewTree(mp)

	err := tree.Load()
	log.PanicIf(err)

	files, nodes, err := tree.List()
	log.PanicIf(err)

	expected := []string{
		"Content",
		"Content/save.dat",
		"default.xex",
	}

	if reflect.DeepEqual(files, expected) != true {
		t.Fatalf("Files not correct: %v", files)
	}

	content := nodes["Content"]
	if content.IsDirectory() != true {
		t.Fatalf("Content should be a directory.")
	} else if reflect.DeepEqual(content.ChildFiles(), []string{"save.dat"}) != true {
		t.Fatalf("Content children not correct: %v", content.ChildFiles())
	}

	xex := nodes["default.xex"]
	if xex.IsDirectory() == true {
		t.Fatalf("default.xex should be a file.")
	} else if xex.DirectoryEntry().FileSize != 700 {
		t.Fatalf("FileSize not correct: (%d)", xex.DirectoryEntry().FileSize)
	}
}

func TestTree_Lookup(t *testing.T) {
	_, mp := getTestFilesystem()

	tree := NewTree(mp)

	err := tree.Load()
	log.PanicIf(err)

	node := tree.Lookup([]string{"Content", "save.dat"})
	if node == nil {
		t.Fatalf("Node not found.")
	} else if node.Name() != "save.dat" {
		t.Fatalf("Name not correct: [%s]", node.Name())
	}

	if tree.Lookup([]string{"Content", "missing"}) != nil {
		t.Fatalf("Missing file should not be found.")
	} else if tree.Lookup([]string{"missing", "save.dat"}) != nil {
		t.Fatalf("Missing directory should not be found.")
	}
}

func TestTree_WriteFile(t *testing.T) {
	_, mp := getTestFilesystem()

	tree := NewTree(mp)

	err := tree.Load()
	log.PanicIf(err)

	b := new(bytes.Buffer)

	visitedClusters, err := tree.WriteFile(tree.Lookup([]string{"default.xex"}), b)
	log.PanicIf(err)

	expected := append(bytes.Repeat([]byte{0x33}, 512), bytes.Repeat([]byte{0x44}, 188)...)

	if bytes.Equal(b.Bytes(), expected) != true {
		t.Fatalf("File data not correct: (%d) bytes", b.Len())
	} else if reflect.DeepEqual(visitedClusters, []uint32{3, 4}) != true {
		t.Fatalf("Visited clusters not correct: %v", visitedClusters)
	}

	b = new(bytes.Buffer)

	_, err = tree.WriteFile(tree.Lookup([]string{"Content", "save.dat"}), b)
	log.PanicIf(err)

	if b.String() != "hello save" {
		t.Fatalf("File data not correct: [%s]", b.String())
	}
}

func TestTree_WriteFile_Directory(t *testing.T) {
	_, mp := getTestFilesystem()

	tree := NewTree(mp)

	err := tree.Load()
	log.PanicIf(err)

	_, err = tree.WriteFile(tree.Lookup([]string{"Content"}), new(bytes.Buffer))
	if err == nil {
		t.Fatalf("Expected error for a directory.")
	}
}

func TestTreeNode_AddChild_Sorted(t *testing.T) {
	tn := NewTreeNode("", true, nil)

	tn.AddChild("c", false, nil)
	tn.AddChild("a", false, nil)
	tn.AddChild("b", false, nil)
	tn.AddChild("a", false, nil)
	tn.AddChild("z", true, nil)

	if reflect.DeepEqual(tn.ChildFiles(), []string{"a", "b", "c"}) != true {
		t.Fatalf("Files not correct: %v", tn.ChildFiles())
	} else if reflect.DeepEqual(tn.ChildFolders(), []string{"z"}) != true {
		t.Fatalf("Folders not correct: %v", tn.ChildFolders())
	} else if tn.GetChild("z").IsDirectory() != true {
		t.Fatalf("Child not correct.")
	}
}
