// Copyright (c) 2025 BVK Chaitanya

// Package envfile loads KEY=VALUE assignments from a dot-env style file into
// the process environment.
//
// Blank lines and lines starting with # are ignored. An optional "export "
// prefix is accepted and a value wrapped in a matching pair of single or
// double quotes is unquoted. No other shell escaping or expansion is
// performed.
package envfile

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"os/user"
	"path/filepath"
	"strings"
)

type options struct {
	variableNamePrefix string

	searchCurrentDirectory bool

	scanParentDirectories bool

	overwriteIfExists bool

	searchDirs []string
}

// Variable is a single assignment read from an env file.
type Variable struct {
	Name  string
	Value string
}

// Parse reads all variable assignments from the reader in file order.
func Parse(r io.Reader) ([]Variable, error) {
	var vars []Variable
	scanner := bufio.NewScanner(r)
	for i := 1; scanner.Scan(); i++ {
		line := strings.TrimSpace(scanner.Text())
		if len(line) == 0 || strings.HasPrefix(line, "#") {
			continue
		}
		line = strings.TrimPrefix(line, "export ")
		p := strings.IndexRune(line, '=')
		if p == -1 {
			return nil, fmt.Errorf("invalid/unrecognized variable assignment on line %d: %w", i, os.ErrInvalid)
		}
		key, value := strings.TrimSpace(line[:p]), strings.TrimSpace(line[p+1:])
		if !prefixRe.MatchString(key) {
			return nil, fmt.Errorf("invalid environment variable name %q on line %d: %w", key, i, os.ErrInvalid)
		}
		if n := len(value); n >= 2 && (value[0] == '"' || value[0] == '\'') && value[n-1] == value[0] {
			value = value[1 : n-1]
		}
		vars = append(vars, Variable{Name: key, Value: value})
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return vars, nil
}

// UpdateEnv updates current process's environment with the values read from
// the first env file found in the search path. By default only the user's
// home directory is searched; options can change the search path and other
// behaviors.
//
// Returns the names of the variables that were set.
func UpdateEnv(filename string, opts ...Option) ([]string, error) {
	if strings.ContainsRune(filename, os.PathSeparator) {
		return nil, fmt.Errorf("file name contains path separator: %w", os.ErrInvalid)
	}
	var fopts options
	for _, v := range opts {
		if err := v.apply(&fopts); err != nil {
			return nil, err
		}
	}

	fpaths, err := searchPaths(filename, &fopts)
	if err != nil {
		return nil, err
	}

	for _, fpath := range fpaths {
		data, err := os.ReadFile(fpath)
		if err != nil {
			if !errors.Is(err, os.ErrNotExist) {
				return nil, err
			}
			continue
		}

		vars, err := Parse(strings.NewReader(string(data)))
		if err != nil {
			return nil, fmt.Errorf("could not parse env file %q: %w", fpath, err)
		}

		var names []string
		for _, v := range vars {
			key := fopts.variableNamePrefix + v.Name
			if len(os.Getenv(key)) != 0 && !fopts.overwriteIfExists {
				continue
			}
			if err := os.Setenv(key, v.Value); err != nil {
				return nil, fmt.Errorf("could not set environment variable %q: %w", key, err)
			}
			names = append(names, key)
		}
		return names, nil
	}
	return nil, nil
}

func searchPaths(filename string, fopts *options) ([]string, error) {
	var fpaths []string
	for _, dir := range fopts.searchDirs {
		fpaths = append(fpaths, filepath.Join(dir, filename))
	}
	if fopts.searchCurrentDirectory {
		cwd, err := os.Getwd()
		if err != nil {
			return nil, err
		}
		fpaths = append(fpaths, filepath.Join(cwd, filename))
		if fopts.scanParentDirectories {
			last, dir := cwd, filepath.Dir(cwd)
			for dir != last {
				fpaths = append(fpaths, filepath.Join(dir, filename))
				last, dir = dir, filepath.Dir(dir)
			}
		}
	}
	if len(fpaths) == 0 {
		user, err := user.Current()
		if err != nil {
			return nil, err
		}
		if len(user.HomeDir) == 0 {
			return nil, fmt.Errorf("could not determine current user's home directory")
		}
		fpaths = []string{filepath.Join(user.HomeDir, filename)}
	}
	return fpaths, nil
}
