package main

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/Neumenon/clyde/export"
	"github.com/Neumenon/clyde/shadow"
)

// navCommands are the words the inspect shell understands.
var navCommands = []string{"ls", "cd", "up", "pwd", "show", "roots", "help", "exit"}

const navHelp = `commands:
  ls              list the children of the current value
  cd NAME|INDEX   enter a field, element or map entry ("cd .." goes up)
  up              go to the parent
  pwd             print the current path
  show [DEPTH]    print the current value as text
  roots           go back to the decoded values
  help            this text
  exit            leave`

// child is one navigable member of a value.
type child struct {
	name  string
	label string
	value shadow.Value
}

// navigator walks a decoded object graph. The top level is the list of
// decoded values; every other level is a value reached through a child.
type navigator struct {
	roots []shadow.Value
	path  []child
}

func newNavigator(roots []shadow.Value) *navigator {
	return &navigator{roots: roots}
}

func (n *navigator) children() []child {
	if len(n.path) == 0 {
		out := make([]child, len(n.roots))
		for i, v := range n.roots {
			out[i] = child{name: strconv.Itoa(i), value: v}
		}
		return out
	}
	return childrenOf(n.path[len(n.path)-1].value)
}

func childrenOf(v shadow.Value) []child {
	var out []child
	switch v.Kind() {
	case shadow.KindObject:
		in, _ := v.AsObject()
		for _, f := range in.Fields() {
			out = append(out, child{name: f.Name, value: f.Value})
		}
	case shadow.KindArray, shadow.KindPrimitives:
		size, _ := v.Len()
		for i := range size {
			e, _ := v.Index(i)
			out = append(out, child{name: strconv.Itoa(i), value: e})
		}
	case shadow.KindCollection:
		c, _ := v.AsCollection()
		switch c.Type().Kind() {
		case shadow.ContainerList, shadow.ContainerSet:
			for i, e := range c.Elems() {
				out = append(out, child{name: strconv.Itoa(i), value: e})
			}
		case shadow.ContainerMultiset:
			for i, e := range c.Entries() {
				out = append(out, child{name: strconv.Itoa(i), label: e.Key.String() + " x", value: shadow.Int(int32(e.Count))})
			}
		default:
			for i, e := range c.Entries() {
				out = append(out, child{name: strconv.Itoa(i), label: e.Key.String() + " =>", value: e.Value})
			}
		}
	}
	return out
}

func (n *navigator) pwd() string {
	if len(n.path) == 0 {
		return "/"
	}
	var b strings.Builder
	for _, c := range n.path {
		b.WriteByte('/')
		b.WriteString(c.name)
	}
	return b.String()
}

// exec runs one command line and reports whether the shell should exit.
func (n *navigator) exec(line string, w io.Writer) bool {
	words := strings.Fields(line)
	if len(words) == 0 {
		return false
	}
	switch words[0] {
	case "ls":
		for _, c := range n.children() {
			if c.label != "" {
				fmt.Fprintf(w, "%s: %s %s\n", c.name, c.label, c.value)
			} else {
				fmt.Fprintf(w, "%s: %s\n", c.name, c.value)
			}
		}
	case "cd":
		if len(words) < 2 {
			n.path = n.path[:0]
			return false
		}
		if strings.HasPrefix(words[1], "/") {
			n.path = n.path[:0]
		}
		for _, step := range strings.Split(words[1], "/") {
			if err := n.cd(step); err != nil {
				fmt.Fprintln(w, err)
				break
			}
		}
	case "up":
		n.cd("..")
	case "pwd":
		fmt.Fprintln(w, n.pwd())
	case "show":
		depth := 0
		if len(words) > 1 {
			d, err := strconv.Atoi(words[1])
			if err != nil || d < 0 {
				fmt.Fprintf(w, "bad depth %q\n", words[1])
				return false
			}
			depth = d
		}
		n.show(w, depth)
	case "roots":
		n.path = n.path[:0]
	case "help":
		fmt.Fprintln(w, navHelp)
	case "exit", "quit":
		return true
	default:
		fmt.Fprintf(w, "unknown command %q, try help\n", words[0])
	}
	return false
}

func (n *navigator) cd(step string) error {
	switch step {
	case "", ".":
		return nil
	case "..":
		if len(n.path) > 0 {
			n.path = n.path[:len(n.path)-1]
		}
		return nil
	}
	for _, c := range n.children() {
		if c.name == step {
			n.path = append(n.path, c)
			return nil
		}
	}
	return fmt.Errorf("no child %q at %s", step, n.pwd())
}

func (n *navigator) show(w io.Writer, depth int) {
	opts := export.TextOptions{MaxDepth: depth}
	if len(n.path) == 0 {
		if err := export.Text(w, n.roots, opts); err != nil {
			fmt.Fprintln(w, err)
		}
		return
	}
	fmt.Fprintln(w, export.TextString(n.path[len(n.path)-1].value, opts))
}
