package errors

import (
	"strings"
	"unicode"
)

// ValidatePackageName validates a package name decoded from resolver output.
// It rejects names that could be used for path traversal or injection when
// the name later ends up in cache keys or file names.
//
// The validation rules are intentionally conservative:
//   - No empty names
//   - No control characters
//   - No path traversal sequences (.., //, etc.)
//   - Maximum length of 256 characters
func ValidatePackageName(name string) error {
	if name == "" {
		return New(ErrCodeInvalidPackage, "package name cannot be empty")
	}

	if len(name) > 256 {
		return New(ErrCodeInvalidPackage, "package name too long (max 256 characters)")
	}

	for _, r := range name {
		if unicode.IsControl(r) {
			return New(ErrCodeInvalidPackage, "package name contains invalid control characters")
		}
	}

	dangerousPatterns := []string{
		"..",   // Parent directory
		"//",   // Double slash
		"\x00", // Null byte
		"\\",   // Backslash (Windows path)
	}

	for _, pattern := range dangerousPatterns {
		if strings.Contains(name, pattern) {
			return New(ErrCodeInvalidPackage, "package name contains invalid characters: %q", pattern)
		}
	}

	return nil
}

// ValidateVersion validates a package version string.
// Versions are opaque to depweight; only emptiness and control characters
// are rejected.
func ValidateVersion(version string) error {
	if version == "" {
		return New(ErrCodeInvalidPackage, "package version cannot be empty")
	}
	for _, r := range version {
		if unicode.IsControl(r) || unicode.IsSpace(r) {
			return New(ErrCodeInvalidPackage, "package version contains invalid characters: %q", version)
		}
	}
	return nil
}

// ValidateManifestPath validates a manifest path reported by the resolver.
// Manifest paths must name a Cargo.toml file.
func ValidateManifestPath(path string) error {
	if path == "" {
		return New(ErrCodeInvalidManifest, "manifest path cannot be empty")
	}
	if strings.ContainsRune(path, '\x00') {
		return New(ErrCodeInvalidManifest, "manifest path contains a null byte")
	}
	if !strings.HasSuffix(path, "Cargo.toml") {
		return New(ErrCodeInvalidManifest, "manifest path must name a Cargo.toml: %q", path)
	}
	return nil
}
