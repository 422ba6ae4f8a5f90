package audio

import (
	"errors"
	"fmt"
	"io/fs"
	"math/rand/v2"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/sahilm/fuzzy"
	"golang.org/x/text/cases"
)

var (
	// ErrNoFiles is returned when a kind has no file to pick from.
	ErrNoFiles = errors.New("no audio files available")

	// ErrNotFound is returned when a specific taunt or civilization is missing.
	ErrNotFound = errors.New("audio file not found")
)

// Kind is a category of audio file.
type Kind int

const (
	Sound Kind = iota
	Taunt
	Civilization
)

var kindNames = map[Kind]string{
	Sound:        "sounds",
	Taunt:        "taunts",
	Civilization: "civilizations",
}

// Pattern returns the file name pattern of the kind, in filepath.Match syntax.
func (k Kind) Pattern() string {
	switch k {
	case Taunt:
		return "[0-9][0-9] *.mp3"
	case Civilization:
		return "[A-Z][a-z]*.mp3"
	default:
		return "*.wav"
	}
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// ParseKind accepts the plural names used by String and their singulars.
func ParseKind(s string) (Kind, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	for k, name := range kindNames {
		if s == name || s+"s" == name {
			return k, nil
		}
	}
	return 0, fmt.Errorf("unknown audio kind %q", s)
}

// Kinds lists every kind in display order.
func Kinds() []Kind {
	return []Kind{Sound, Taunt, Civilization}
}

// TauntEntry is one line of the taunt listing.
type TauntEntry struct {
	Number string
	Text   string
}

// Library looks up audio files in one directory. It holds no state besides
// the directory, so every call sees the current content.
type Library struct {
	dir  string
	pick func(n int) int
}

// NewLibrary returns a library reading from dir.
func NewLibrary(dir string) *Library {
	return &Library{
		dir:  dir,
		pick: rand.IntN,
	}
}

// Dir returns the audio directory.
func (l *Library) Dir() string {
	return l.dir
}

// Files returns the full paths of the files of kind, sorted by name. A
// missing directory yields no files.
func (l *Library) Files(kind Kind) ([]string, error) {
	return l.match(kind.Pattern())
}

// Names returns the stems of the files of kind, sorted.
func (l *Library) Names(kind Kind) ([]string, error) {
	files, err := l.Files(kind)
	if err != nil {
		return nil, err
	}
	names := make([]string, len(files))
	for i, f := range files {
		names[i] = Stem(f)
	}
	return names, nil
}

// Random returns a uniformly chosen file of kind.
func (l *Library) Random(kind Kind) (string, error) {
	files, err := l.Files(kind)
	if err != nil {
		return "", err
	}
	if len(files) == 0 {
		log.Warn("No files found", "kind", kind, "dir", l.dir)
		return "", fmt.Errorf("%w: %s", ErrNoFiles, kind)
	}

	selected := files[l.pick(len(files))]
	log.Debug("Selected random file", "kind", kind, "file", selected)
	return selected, nil
}

// Taunt returns the file of taunt number n. Numbers below ten are zero
// padded, so Taunt(1) looks for "01 *.mp3".
func (l *Library) Taunt(n int) (string, error) {
	if n < 0 {
		return "", fmt.Errorf("%w: taunt %d", ErrNotFound, n)
	}

	files, err := l.match(fmt.Sprintf("%02d *.mp3", n))
	if err != nil {
		return "", err
	}
	if len(files) == 0 {
		return "", fmt.Errorf("%w: taunt %02d", ErrNotFound, n)
	}
	return files[0], nil
}

// TauntNumbers returns the sorted, distinct taunt numbers found on disk.
func (l *Library) TauntNumbers() ([]int, error) {
	entries, err := l.Taunts()
	if err != nil {
		return nil, err
	}

	var numbers []int
	for _, e := range entries {
		n, err := strconv.Atoi(e.Number)
		if err != nil {
			continue
		}
		numbers = append(numbers, n)
	}
	slices.Sort(numbers)
	return slices.Compact(numbers), nil
}

// Taunts splits every taunt stem into its number and its text. Stems whose
// first word is not a number are skipped.
func (l *Library) Taunts() ([]TauntEntry, error) {
	names, err := l.Names(Taunt)
	if err != nil {
		return nil, err
	}

	entries := make([]TauntEntry, 0, len(names))
	for _, name := range names {
		fields := strings.Fields(name)
		if len(fields) == 0 || !isDigits(fields[0]) {
			continue
		}
		entries = append(entries, TauntEntry{
			Number: fields[0],
			Text:   strings.Join(fields[1:], " "),
		})
	}
	return entries, nil
}

// Civilization returns the civilization file whose stem equals name,
// ignoring case.
func (l *Library) Civilization(name string) (string, error) {
	files, err := l.Files(Civilization)
	if err != nil {
		return "", err
	}

	// Casers are stateful and cannot be shared between goroutines.
	fold := cases.Fold()
	want := fold.String(name)
	for _, f := range files {
		if fold.String(Stem(f)) == want {
			return f, nil
		}
	}
	return "", fmt.Errorf("%w: civilization %s", ErrNotFound, name)
}

// Suggest returns up to n stems of kind that fuzzily match query, best
// match first. Errors reading the directory yield no suggestion.
func (l *Library) Suggest(kind Kind, query string, n int) []string {
	names, err := l.Names(kind)
	if err != nil || query == "" || n <= 0 {
		return nil
	}

	fold := cases.Fold()
	matches := fuzzy.Find(fold.String(query), foldAll(fold, names))
	if len(matches) > n {
		matches = matches[:n]
	}

	suggestions := make([]string, len(matches))
	for i, m := range matches {
		suggestions[i] = names[m.Index]
	}
	return suggestions
}

// match returns the regular files of the directory whose name matches
// pattern. Matching names rather than globbing the joined path keeps glob
// metacharacters in the directory name literal.
func (l *Library) match(pattern string) ([]string, error) {
	entries, err := os.ReadDir(l.dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			log.Debug("Audio directory does not exist", "dir", l.dir)
			return nil, nil
		}
		return nil, fmt.Errorf("reading audio directory: %w", err)
	}

	var files []string
	for _, e := range entries {
		ok, err := filepath.Match(pattern, e.Name())
		if err != nil {
			return nil, fmt.Errorf("bad pattern %q: %w", pattern, err)
		}
		if !ok || !l.isRegular(e) {
			continue
		}
		files = append(files, filepath.Join(l.dir, e.Name()))
	}
	return files, nil
}

func (l *Library) isRegular(e fs.DirEntry) bool {
	if e.Type().IsRegular() {
		return true
	}
	if e.Type()&fs.ModeSymlink == 0 {
		return false
	}
	info, err := os.Stat(filepath.Join(l.dir, e.Name()))
	return err == nil && info.Mode().IsRegular()
}

// Stem returns the base name of path without its extension.
func Stem(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

func foldAll(c cases.Caser, names []string) []string {
	folded := make([]string, len(names))
	for i, n := range names {
		folded[i] = c.String(n)
	}
	return folded
}
