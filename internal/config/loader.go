package config

import (
	"io/fs"
	"path"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
	"go.uber.org/zap"
)

var ErrRootConfigNotFound = errors.New("root configuration file not found")

const (
	FileName = "bew"
	FileType = "yaml"
)

// Loader finds bew.yaml files in a file system. A root file applies to the
// whole tree and nested files apply to the documents below them.
type Loader struct {
	// configRootPath holds the root configuration file, typically the
	// current working directory.
	configRootPath fs.FS

	// configName is a name of the configuration file.
	configName string

	// configType is a type of the configuration file.
	// Together with configName it forms a configFile.
	configType string

	// documentsRootPath, if set, is searched for nested configuration
	// files instead of configRootPath.
	documentsRootPath fs.FS

	logger *zap.Logger
}

type LoaderOption func(*Loader)

func WithLogger(logger *zap.Logger) LoaderOption {
	return func(l *Loader) {
		l.logger = logger
	}
}

func WithDocumentsRootPath(documentsRootPath fs.FS) LoaderOption {
	return func(l *Loader) {
		l.documentsRootPath = documentsRootPath
	}
}

func NewLoader(configName, configType string, configRootPath fs.FS, opts ...LoaderOption) *Loader {
	if configName == "" {
		panic("config name is not set")
	}

	l := &Loader{
		configRootPath: configRootPath,
		configName:     configName,
		configType:     configType,
	}

	for _, opt := range opts {
		opt(l)
	}

	if l.logger == nil {
		l.logger = zap.NewNop()
	}

	return l
}

func (l *Loader) configFullName() string {
	if l.configType == "" {
		return l.configName
	}
	return l.configName + "." + l.configType
}

// Load returns the configuration that applies to path: the defaults
// overridden by every file of the chain leading to it.
func (l *Loader) Load(path string) (*Config, error) {
	chain, err := l.FindConfigChain(path)
	if err != nil {
		return nil, err
	}
	cfg, err := ParseYAMLChain(chain...)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to load configuration for %q", path)
	}
	return cfg, nil
}

// FindConfigChain returns the contents of the configuration files applying
// to path, from the root file down to the one closest to path.
func (l *Loader) FindConfigChain(path string) ([][]byte, error) {
	paths, err := l.findConfigFilesOnPath(path)
	if err != nil {
		return nil, err
	}
	return l.readFiles(paths...)
}

func (l *Loader) RootConfig() ([]byte, error) {
	data, err := fs.ReadFile(l.configRootPath, l.configFullName())
	if err != nil {
		return nil, ErrRootConfigNotFound
	}
	return data, nil
}

func (l *Loader) findConfigFilesOnPath(name string) ([]string, error) {
	dir, err := l.parsePath(name)
	if err != nil {
		return nil, err
	}
	l.logger.Debug("finding config files", zap.String("dir", dir))

	file := l.configFullName()

	var result []string
	found, err := exists(l.configRootPath, file)
	if err != nil {
		return nil, err
	}
	if found {
		result = append(result, file)
	}

	// Nested files use slash paths so that they work with any fs.FS.
	cur := ""
	for _, fragment := range strings.Split(filepath.ToSlash(dir), "/") {
		if fragment == "." || fragment == "" {
			continue
		}
		cur = path.Join(cur, fragment)
		candidate := path.Join(cur, file)
		found, err := exists(l.documentsFS(), candidate)
		if err != nil {
			return nil, err
		}
		if found {
			result = append(result, candidate)
		}
	}

	l.logger.Debug("found config files", zap.String("dir", dir), zap.Strings("files", result))
	return result, nil
}

// documentsFS is where nested configuration files and documents live.
func (l *Loader) documentsFS() fs.FS {
	if l.documentsRootPath != nil {
		return l.documentsRootPath
	}
	return l.configRootPath
}

func exists(fsys fs.FS, name string) (bool, error) {
	_, err := fs.Stat(fsys, name)
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, fs.ErrNotExist):
		return false, nil
	}
	return false, errors.Wrapf(err, "failed to stat %q", name)
}

// parsePath returns the directory whose chain applies to name.
func (l *Loader) parsePath(name string) (string, error) {
	if name == "" {
		return ".", nil
	}
	info, err := fs.Stat(l.documentsFS(), name)
	if err != nil {
		return "", errors.Wrapf(err, "failed to get the path info for %q", name)
	}
	if info.IsDir() {
		return filepath.Clean(name), nil
	}
	return filepath.Dir(name), nil
}

// readFiles reads the root file from the config root and nested files from
// the documents root.
func (l *Loader) readFiles(paths ...string) ([][]byte, error) {
	var result [][]byte
	for i, p := range paths {
		fsys := l.documentsFS()
		if i == 0 && p == l.configFullName() {
			fsys = l.configRootPath
		}
		data, err := fs.ReadFile(fsys, p)
		if err != nil {
			return nil, errors.Wrapf(err, "failed to read %q", p)
		}
		result = append(result, data)
	}
	return result, nil
}
