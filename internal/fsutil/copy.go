package fsutil

import (
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
)

// Filter reports whether an entry should be skipped. rel is the slash-form
// path relative to the copy root.
type Filter func(rel string, d fs.DirEntry) bool

// SkipNames returns a Filter that skips entries whose base name is in names,
// at any depth.
func SkipNames(names ...string) Filter {
	set := make(map[string]bool, len(names))
	for _, n := range names {
		set[n] = true
	}
	return func(_ string, d fs.DirEntry) bool {
		return set[d.Name()]
	}
}

// SkipRootNames returns a Filter that skips the named entries only directly
// under the copy root.
func SkipRootNames(names ...string) Filter {
	set := make(map[string]bool, len(names))
	for _, n := range names {
		set[n] = true
	}
	return func(rel string, _ fs.DirEntry) bool {
		return set[rel]
	}
}

// CopyDir recursively copies src into dst, creating dst if needed. Regular
// files keep their permissions and symlinks are recreated as links.
func CopyDir(src, dst string, skip Filter) error {
	_, err := MergeDir(src, dst, skip)
	return err
}

// MergeDir copies every entry of src over dst. Existing files in dst are
// overwritten; entries that exist only in dst are left alone. It returns the
// number of files written.
func MergeDir(src, dst string, skip Filter) (int, error) {
	srcInfo, err := os.Stat(src)
	if err != nil {
		return 0, err
	}
	if !srcInfo.IsDir() {
		return 0, fmt.Errorf("%s is not a directory", src)
	}
	if err := os.MkdirAll(dst, srcInfo.Mode().Perm()); err != nil {
		return 0, err
	}

	written := 0
	err = filepath.WalkDir(src, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if path == src {
			return nil
		}

		rel, err := filepath.Rel(src, path)
		if err != nil {
			return err
		}
		if skip != nil && skip(filepath.ToSlash(rel), d) {
			if d.IsDir() {
				return fs.SkipDir
			}
			return nil
		}

		target := filepath.Join(dst, rel)

		switch {
		case d.IsDir():
			info, err := d.Info()
			if err != nil {
				return err
			}
			if err := replaceNonDir(target); err != nil {
				return err
			}
			return os.MkdirAll(target, info.Mode().Perm())

		case d.Type()&fs.ModeSymlink != 0:
			link, err := os.Readlink(path)
			if err != nil {
				return err
			}
			if err := removeIfExists(target); err != nil {
				return err
			}
			if err := os.Symlink(link, target); err != nil {
				return err
			}
			written++

		case d.Type().IsRegular():
			if err := removeIfDir(target); err != nil {
				return err
			}
			if err := copyFile(path, target); err != nil {
				return err
			}
			written++
		}
		// Sockets, devices and pipes are not part of an application tree.
		return nil
	})
	if err != nil {
		return written, fmt.Errorf("copying %s to %s: %w", src, dst, err)
	}
	return written, nil
}

// copyFile copies a single file from src to dst, preserving permissions.
func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	info, err := in.Stat()
	if err != nil {
		return err
	}

	out, err := os.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, info.Mode().Perm())
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	if err := out.Close(); err != nil {
		return err
	}
	// OpenFile only applies the mode on creation.
	return os.Chmod(dst, info.Mode().Perm())
}

func replaceNonDir(path string) error {
	info, err := os.Lstat(path)
	if err != nil || info.IsDir() {
		return nil
	}
	return os.Remove(path)
}

func removeIfDir(path string) error {
	info, err := os.Lstat(path)
	if err != nil || !info.IsDir() {
		return nil
	}
	return os.RemoveAll(path)
}

func removeIfExists(path string) error {
	if _, err := os.Lstat(path); err != nil {
		return nil
	}
	return os.RemoveAll(path)
}
