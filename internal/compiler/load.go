package compiler

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"cuelang.org/go/cue/load"
)

// LoadResult is a compiled score directory.
type LoadResult struct {
	Definition *ScoreDefinition
	CUEValue   cue.Value // the raw CUE value, before schema unification
	Files      []string  // CUE files found under the directory
}

// Load compiles the CUE files of a score directory.
//
// All .cue files directly in dir are loaded as one instance, so a score can
// keep its manifests, template and segments in separate files.
func Load(dir string) (*LoadResult, error) {
	info, err := os.Stat(dir)
	if err != nil {
		return nil, &CompileError{Field: "dir", Message: fmt.Sprintf("score directory: %v", err)}
	}
	if !info.IsDir() {
		return nil, &CompileError{Field: "dir", Message: fmt.Sprintf("not a directory: %s", dir)}
	}

	files, err := FindCUEFiles(dir)
	if err != nil {
		return nil, &CompileError{Field: "dir", Message: fmt.Sprintf("scan %s: %v", dir, err)}
	}
	if len(files) == 0 {
		return nil, &CompileError{Field: "dir", Message: fmt.Sprintf("no CUE files found in %s", dir)}
	}

	ctx := cuecontext.New()
	instances := load.Instances([]string{"."}, &load.Config{Dir: dir})
	if len(instances) == 0 {
		return nil, &CompileError{Field: "load", Message: "no CUE instances loaded"}
	}
	inst := instances[0]
	if inst.Err != nil {
		return nil, formatCUEError(inst.Err)
	}

	value := ctx.BuildInstance(inst)
	if err := value.Err(); err != nil {
		return nil, formatCUEError(err)
	}

	def, err := CompileScore(value)
	if err != nil {
		return nil, err
	}
	return &LoadResult{Definition: def, CUEValue: value, Files: files}, nil
}

// FindCUEFiles returns the .cue files directly inside dir, sorted.
// Subdirectories belong to other packages and are not descended into.
func FindCUEFiles(dir string) ([]string, error) {
	var files []string
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if path != dir {
				return filepath.SkipDir
			}
			return nil
		}
		if filepath.Ext(path) == ".cue" {
			files = append(files, path)
		}
		return nil
	})
	return files, err
}
