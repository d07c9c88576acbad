package loc

import (
	"bufio"
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"unicode"
	"unicode/utf8"

	ignore "github.com/sabhiram/go-gitignore"

	"github.com/matzehuels/depweight/pkg/errors"
	"github.com/matzehuels/depweight/pkg/metrics"
)

var skipDirs = map[string]struct{}{
	"target": {},
	".git":   {},
	".hg":    {},
	".svn":   {},
	".jj":    {},
}

// Walker counts lines by walking the file tree.
// The zero value counts Rust as the primary language.
type Walker struct {
	// Primary is the language reported as LanguageLOC. Defaults to Rust.
	Primary string
}

// NewWalker returns a Walker with Rust as the primary language.
func NewWalker() *Walker { return &Walker{Primary: Rust} }

// Count implements Counter.
func (w *Walker) Count(ctx context.Context, dir string) (metrics.LOCReport, error) {
	primary := w.Primary
	if primary == "" {
		primary = Rust
	}

	info, err := os.Stat(dir)
	if err != nil {
		return metrics.LOCReport{}, errors.Wrap(errors.ErrCodeIO, err, "stat %s", dir)
	}
	if !info.IsDir() {
		return metrics.LOCReport{}, errors.New(errors.ErrCodeIO, "%s is not a directory", dir)
	}

	gi := loadGitignore(dir)
	perLang := make(map[string]uint64)

	err = filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if path == dir {
				return nil
			}
			if err := ctx.Err(); err != nil {
				return err
			}
			if _, skip := skipDirs[d.Name()]; skip {
				return filepath.SkipDir
			}
			if gi != nil && gi.MatchesPath(rel(dir, path)+"/") {
				return filepath.SkipDir
			}
			return nil
		}
		if !d.Type().IsRegular() {
			return nil
		}
		l := ForPath(path)
		if l == nil {
			return nil
		}
		if gi != nil && gi.MatchesPath(rel(dir, path)) {
			return nil
		}
		n, err := countFile(path, l)
		if err != nil {
			return err
		}
		perLang[l.Name] += n
		return nil
	})
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return metrics.LOCReport{}, ctxErr
		}
		return metrics.LOCReport{}, errors.Wrap(errors.ErrCodeIO, err, "walk %s", dir)
	}

	var report metrics.LOCReport
	for name, n := range perLang {
		report.TotalLOC += n
		if name == primary {
			report.LanguageLOC += n
		}
	}
	return report, nil
}

func rel(root, path string) string {
	r, err := filepath.Rel(root, path)
	if err != nil {
		return path
	}
	return filepath.ToSlash(r)
}

func loadGitignore(root string) *ignore.GitIgnore {
	gi, err := ignore.CompileIgnoreFile(filepath.Join(root, ".gitignore"))
	if err != nil {
		return nil
	}
	return gi
}

func countFile(path string, l *Language) (uint64, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, err
	}
	defer f.Close()

	var (
		n  uint64
		st scanState
	)
	sc := bufio.NewScanner(f)
	sc.Buffer(make([]byte, 64*1024), 4*1024*1024)
	for sc.Scan() {
		var code bool
		code, st = scanLine(sc.Text(), l, st)
		if code {
			n++
		}
	}
	return n, sc.Err()
}

// scanState is what a line leaves open for the next one.
type scanState struct {
	depth  int  // open block comments
	quote  byte // delimiter of an open string, 0 outside one
	raw    bool // the open string is a raw string
	hashes int  // '#' count closing an open raw string
}

// scanLine reports whether line holds code, given the state at its start,
// and returns the state at its end. Comment markers inside string and char
// literals are code.
func scanLine(line string, l *Language, st scanState) (bool, scanState) {
	code := false
	for i := 0; i < len(line); {
		rest := line[i:]
		c := line[i]
		if st.quote != 0 {
			if !unicode.IsSpace(rune(c)) {
				code = true
			}
			switch {
			case st.raw:
				if c == '"' && hasHashes(line[i+1:], st.hashes) {
					st.quote, st.raw = 0, false
					i += 1 + st.hashes
					continue
				}
				i++
			case c == '\\':
				i += 2
			case c == st.quote:
				st.quote = 0
				i++
			default:
				i++
			}
			continue
		}
		if st.depth > 0 {
			switch {
			case strings.HasPrefix(rest, l.BlockEnd):
				st.depth--
				i += len(l.BlockEnd)
			case l.Nested && strings.HasPrefix(rest, l.BlockStart):
				st.depth++
				i += len(l.BlockStart)
			default:
				i++
			}
			continue
		}
		if hasAnyPrefix(rest, l.Line) {
			break
		}
		if l.BlockStart != "" && strings.HasPrefix(rest, l.BlockStart) {
			st.depth++
			i += len(l.BlockStart)
			continue
		}
		if l.Raw {
			if n, hashes, ok := rawStringStart(line, i); ok {
				st.quote, st.raw, st.hashes = '"', true, hashes
				code = true
				i += n
				continue
			}
			if c == '\'' {
				// A lifetime is a lone apostrophe.
				code = true
				if n := charLiteralLen(rest); n > 0 {
					i += n
				} else {
					i++
				}
				continue
			}
		}
		if strings.IndexByte(l.Quotes, c) >= 0 {
			st.quote, st.raw = c, false
			code = true
			i++
			continue
		}
		if !unicode.IsSpace(rune(c)) {
			code = true
		}
		i++
	}
	if st.quote != 0 && !l.Multiline {
		st.quote, st.raw = 0, false
	}
	return code, st
}

// rawStringStart matches r"", r#""#, br"" and br#""# openers at line[i],
// returning the opener length and its '#' count.
func rawStringStart(line string, i int) (int, int, bool) {
	if i > 0 && isIdentByte(line[i-1]) {
		return 0, 0, false
	}
	j := i
	if j < len(line) && line[j] == 'b' {
		j++
	}
	if j >= len(line) || line[j] != 'r' {
		return 0, 0, false
	}
	j++
	hashes := 0
	for j < len(line) && line[j] == '#' {
		hashes++
		j++
	}
	if j >= len(line) || line[j] != '"' {
		return 0, 0, false
	}
	return j + 1 - i, hashes, true
}

// charLiteralLen returns the length of the char literal opening s, or 0 when
// the apostrophe starts a lifetime or label.
func charLiteralLen(s string) int {
	if len(s) < 3 {
		return 0
	}
	if s[1] == '\\' {
		if end := strings.IndexByte(s[3:], '\''); end >= 0 {
			return 3 + end + 1
		}
		return 0
	}
	r, size := utf8.DecodeRuneInString(s[1:])
	if r == '\'' || 1+size >= len(s) || s[1+size] != '\'' {
		return 0
	}
	return 2 + size
}

func hasHashes(s string, n int) bool {
	if len(s) < n {
		return false
	}
	for i := 0; i < n; i++ {
		if s[i] != '#' {
			return false
		}
	}
	return true
}

func isIdentByte(c byte) bool {
	return c == '_' || c >= '0' && c <= '9' || c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z'
}

func hasAnyPrefix(s string, prefixes []string) bool {
	for _, p := range prefixes {
		if strings.HasPrefix(s, p) {
			return true
		}
	}
	return false
}

var _ Counter = (*Walker)(nil)
