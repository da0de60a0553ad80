package shell

import (
	"errors"
	"fmt"
	"strings"

	"github.com/brettbedarf/shellfs/vfs"
)

type BuiltinVerb = string

const (
	VerbLs    BuiltinVerb = "ls"
	VerbCd    BuiltinVerb = "cd"
	VerbPwd   BuiltinVerb = "pwd"
	VerbTree  BuiltinVerb = "tree"
	VerbCat   BuiltinVerb = "cat"
	VerbRmdir BuiltinVerb = "rmdir"
	VerbRm    BuiltinVerb = "rm"
	VerbExit  BuiltinVerb = "exit"
)

var builtins = map[BuiltinVerb]Command{
	VerbLs:    ls,
	VerbCd:    cd,
	VerbPwd:   pwd,
	VerbTree:  tree,
	VerbCat:   cat,
	VerbRmdir: rmdir,
	VerbRm:    rm,
	VerbExit:  exit,
}

// RegisterBuiltins registers every built-in verb by default or only the
// listed ones
func RegisterBuiltins(r *Registry, verbs ...BuiltinVerb) {
	if len(verbs) == 0 {
		for verb, cmd := range builtins {
			r.Register(verb, cmd)
		}
		return
	}
	for _, verb := range verbs {
		if cmd, ok := builtins[verb]; ok {
			r.Register(verb, cmd)
		}
	}
}

func firstArg(args []string) string {
	if len(args) == 0 {
		return ""
	}
	return args[0]
}

func ls(v *vfs.VFS, args []string) Result {
	p := firstArg(args)
	names, err := v.List(p)
	if err != nil {
		return Result{Output: fmt.Sprintf("ls: cannot access '%s': No such file or directory", p)}
	}
	return Result{Output: strings.Join(names, "\n")}
}

func cd(v *vfs.VFS, args []string) Result {
	p := firstArg(args)
	if p == "" {
		p = "/"
	}
	if err := v.ChangeDirectory(p); err != nil {
		return Result{Output: fmt.Sprintf("cd: %s: No such file or directory", p)}
	}
	return Result{}
}

func pwd(v *vfs.VFS, _ []string) Result {
	return Result{Output: DisplayPath(v.CurrentPath())}
}

func tree(v *vfs.VFS, args []string) Result {
	p := firstArg(args)
	out, err := v.Tree(p)
	if err != nil {
		return Result{Output: fmt.Sprintf("tree: %s: No such file or directory", p)}
	}
	return Result{Output: strings.TrimRight(out, "\n")}
}

func cat(v *vfs.VFS, args []string) Result {
	name := firstArg(args)
	if name == "" {
		return Result{Output: "cat: missing file name"}
	}
	content, err := v.ReadFile(name)
	switch {
	case err == nil:
		return Result{Output: content}
	case errors.Is(err, vfs.ErrDecode):
		return Result{Output: fmt.Sprintf("cat: %s: %s", name, vfs.ErrDecode)}
	default:
		return Result{Output: fmt.Sprintf("cat: %s: %s", name, Reason(err))}
	}
}

func rmdir(v *vfs.VFS, args []string) Result {
	p := firstArg(args)
	if p == "" {
		return Result{Output: "rmdir: missing operand"}
	}
	if err := v.RemoveDirectory(p); err != nil {
		return Result{Output: fmt.Sprintf("rmdir: failed to remove '%s': %s", p, Reason(err))}
	}
	return Result{}
}

func rm(v *vfs.VFS, args []string) Result {
	p := firstArg(args)
	if p == "" {
		return Result{Output: "rm: missing operand"}
	}
	if err := v.RemoveFile(p); err != nil {
		return Result{Output: fmt.Sprintf("rm: cannot remove '%s': %s", p, Reason(err))}
	}
	return Result{}
}

func exit(*vfs.VFS, []string) Result {
	return Result{Exit: true}
}
