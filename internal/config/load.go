package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	cueerrors "cuelang.org/go/cue/errors"
	"cuelang.org/go/cue/token"
	"gopkg.in/yaml.v3"
)

func readSource(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &LoadError{Code: ErrCodeNotFound, Message: fmt.Sprintf("reading config: %v", err)}
	}
	return data, nil
}

func loadYAML(path string) (*File, error) {
	data, err := readSource(path)
	if err != nil {
		return nil, err
	}

	var f File
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&f); err != nil {
		if errors.Is(err, io.EOF) {
			return &f, nil
		}
		return nil, &LoadError{Code: ErrCodeParse, Message: fmt.Sprintf("parsing YAML: %v", err)}
	}
	return &f, nil
}

func loadCUE(path string) (*File, error) {
	data, err := readSource(path)
	if err != nil {
		return nil, err
	}

	ctx := cuecontext.New()
	v := ctx.CompileBytes(data, cue.Filename(path))
	if err := v.Err(); err != nil {
		return nil, cueLoadError("compiling CUE", err)
	}
	if err := v.Validate(cue.Concrete(true)); err != nil {
		return nil, cueLoadError("validating CUE", err)
	}

	var f File
	if err := v.Decode(&f); err != nil {
		return nil, cueLoadError("decoding CUE", err)
	}
	return &f, nil
}

// cueLoadError keeps the position of the first CUE error.
func cueLoadError(what string, err error) *LoadError {
	le := &LoadError{Code: ErrCodeParse, Message: fmt.Sprintf("%s: %v", what, err)}
	for _, e := range cueerrors.Errors(err) {
		if p := e.Position(); p != token.NoPos {
			le.Pos = p
			break
		}
	}
	return le
}
