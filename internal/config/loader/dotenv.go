package loader

import (
	"bytes"

	"github.com/joho/godotenv"
)

// DotenvLoader reads a .env file and maps its prefixed variables like EnvLoader.
// The file is parsed only; the process environment is left untouched.
type DotenvLoader struct {
	fs   FileSystem
	path string
	env  *EnvLoader
}

// NewDotenvLoader creates a loader for the .env file at path.
func NewDotenvLoader(path, prefix string) *DotenvLoader {
	return NewDotenvLoaderWithFS(DefaultFS(), path, prefix)
}

// NewDotenvLoaderWithFS creates a .env loader with a custom file system.
func NewDotenvLoaderWithFS(fs FileSystem, path, prefix string) *DotenvLoader {
	return &DotenvLoader{
		fs:   fs,
		path: path,
		env:  NewEnvLoader(prefix),
	}
}

// Load reads the .env file. A missing file yields nil, nil.
func (l *DotenvLoader) Load() (map[string]any, error) {
	data, err := readOptional(l.fs, l.path)
	if err != nil || data == nil {
		return nil, err
	}

	vars, err := godotenv.Parse(bytes.NewReader(data))
	if err != nil {
		return nil, &ParseError{
			Path:    l.path,
			Message: err.Error(),
			Err:     err,
		}
	}
	return l.env.FromMap(vars), nil
}
