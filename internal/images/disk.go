package images

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"
)

// DiskStore keeps images as files in a directory served under URLPrefix.
type DiskStore struct {
	dir       string
	urlPrefix string
}

func NewDiskStore(dir, urlPrefix string) (*DiskStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, storageErr("create image dir", err)
	}
	return &DiskStore{dir: dir, urlPrefix: "/" + strings.Trim(urlPrefix, "/")}, nil
}

// URLPrefix is the path the files are published under.
func (d *DiskStore) URLPrefix() string {
	return d.urlPrefix
}

// Dir returns the directory holding the files.
func (d *DiskStore) Dir() string {
	return d.dir
}

func (d *DiskStore) Put(_ context.Context, name, _ string, data []byte) (string, error) {
	if name != filepath.Base(name) {
		return "", storageErr("put image", fmt.Errorf("invalid name %q", name))
	}
	tmp, err := os.CreateTemp(d.dir, ".upload-*")
	if err != nil {
		return "", storageErr("put image", err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return "", storageErr("write image", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return "", storageErr("close image", err)
	}
	if err := os.Rename(tmpName, filepath.Join(d.dir, name)); err != nil {
		os.Remove(tmpName)
		return "", storageErr("rename image", err)
	}
	return path.Join(d.urlPrefix, name), nil
}

func (d *DiskStore) Delete(_ context.Context, publicPath string) error {
	name, err := d.fileName(publicPath)
	if err != nil {
		return storageErr("delete image", err)
	}
	if err := os.Remove(filepath.Join(d.dir, name)); err != nil && !errors.Is(err, os.ErrNotExist) {
		return storageErr("delete image", err)
	}
	return nil
}

// FilePath maps a public path to the file on disk.
func (d *DiskStore) FilePath(publicPath string) (string, error) {
	name, err := d.fileName(publicPath)
	if err != nil {
		return "", err
	}
	return filepath.Join(d.dir, name), nil
}

func (d *DiskStore) fileName(publicPath string) (string, error) {
	prefix := d.urlPrefix + "/"
	if !strings.HasPrefix(publicPath, prefix) {
		return "", fmt.Errorf("path %q is outside %s", publicPath, d.urlPrefix)
	}
	name := strings.TrimPrefix(publicPath, prefix)
	if name == "" || name == "." || name == ".." || name != filepath.Base(name) {
		return "", fmt.Errorf("invalid image path %q", publicPath)
	}
	return name, nil
}
