package loc

import (
	"path/filepath"
	"strings"
)

// Language describes how to recognise comments in one language.
type Language struct {
	Name       string
	Line       []string // Line comment markers
	BlockStart string
	BlockEnd   string
	Nested     bool // Block comments nest

	// Quotes open string literals closed by the same byte; a backslash
	// escapes the next byte. Comment markers inside them are not comments.
	Quotes    string
	// Multiline strings stay open across line ends.
	Multiline bool
	// Raw enables Rust raw strings (r"..", r#".."#, br#".."#) and char
	// literals, which share the apostrophe with lifetimes.
	Raw       bool
}

// Rust is the default primary language.
const Rust = "Rust"

var (
	cStyle = Language{Line: []string{"//"}, BlockStart: "/*", BlockEnd: "*/", Quotes: `"'`}
	hashed = Language{Line: []string{"#"}, Quotes: `"'`}
)

func lang(name string, base Language) *Language {
	base.Name = name
	return &base
}

var byExtension = map[string]*Language{
	".rs": {
		Name: Rust, Line: []string{"//"}, BlockStart: "/*", BlockEnd: "*/", Nested: true,
		Quotes: `"`, Multiline: true, Raw: true,
	},
	".c":     lang("C", cStyle),
	".h":     lang("C Header", cStyle),
	".cc":    lang("C++", cStyle),
	".cpp":   lang("C++", cStyle),
	".cxx":   lang("C++", cStyle),
	".hpp":   lang("C++ Header", cStyle),
	".hh":    lang("C++ Header", cStyle),
	".go":    lang("Go", cStyle),
	".js":    lang("JavaScript", cStyle),
	".ts":    lang("TypeScript", cStyle),
	".java":  lang("Java", cStyle),
	".proto": lang("Protocol Buffers", cStyle),
	".S":     lang("Assembly", Language{Line: []string{"//", "#"}, BlockStart: "/*", BlockEnd: "*/"}),
	".s":     lang("Assembly", Language{Line: []string{";", "#"}}),
	".asm":   lang("Assembly", Language{Line: []string{";"}}),
	".py":    lang("Python", hashed),
	".sh":    lang("Shell", hashed),
	".toml":  lang("TOML", hashed),
	".yml":   lang("YAML", hashed),
	".yaml":  lang("YAML", hashed),
	".pest":  lang("Pest", Language{Line: []string{"//"}, Quotes: `"'`}),
}

// ForPath returns the language of a file, or nil if it is not counted.
func ForPath(path string) *Language {
	ext := filepath.Ext(path)
	if l, ok := byExtension[ext]; ok {
		return l
	}
	// Extensions are case-sensitive only where it matters (.S vs .s).
	return byExtension[strings.ToLower(ext)]
}
