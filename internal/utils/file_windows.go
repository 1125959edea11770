//go:build windows

package utils

import (
	"path/filepath"
	"strings"

	"golang.org/x/sys/windows"
)

// IsHiddenFile checks if a file is hidden on Windows systems. Dot-files
// count as hidden too, matching what most tools ported from Unix expect.
func IsHiddenFile(path string) bool {
	name := filepath.Base(path)
	if name != "." && name != ".." && strings.HasPrefix(name, ".") {
		return true
	}

	pointer, err := windows.UTF16PtrFromString(path)
	if err != nil {
		return false
	}
	attributes, err := windows.GetFileAttributes(pointer)
	if err != nil {
		return false
	}
	return attributes&windows.FILE_ATTRIBUTE_HIDDEN != 0
}
