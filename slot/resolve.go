package slot

import (
	"fmt"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/samber/lo"

	"github.com/rise-and-shine/projectdocs/recordstore"
)

// fallbackExt is used when neither the filename nor the content type gives an extension.
const fallbackExt = ".bin"

// Mode tells the synchronizer how to build the new field value.
type Mode int

const (
	// ModeReplace writes a single-element list.
	ModeReplace Mode = iota
	// ModeAppend concatenates with the current field value.
	ModeAppend
)

func (m Mode) String() string {
	if m == ModeAppend {
		return "append"
	}
	return "replace"
}

// File is the client-provided part of an upload.
type File struct {
	Filename    string
	ContentType string
}

// Resolution is the outcome of Resolve.
type Resolution struct {
	Filename string
	// Version is zero for non-versioned slots.
	Version int
	Mode    Mode
}

// Resolve computes the stored filename, the version and the write mode of a new
// attachment. current is the slot's field value, counter the value of the
// slot's version counter field (zero when unused).
//
// Versions are max(len(current), highest parsed version, counter) + 1, so a
// number is never issued twice as long as the counter is written back.
func Resolve(def Definition, current []recordstore.Attachment, counter int, file File) Resolution {
	switch def.Cardinality {
	case MultiVersioned:
		version := lo.Max([]int{len(current), highestVersion(def.Key, current), counter}) + 1
		return Resolution{
			Filename: VersionedName(def.Key, version, Extension(file)),
			Version:  version,
			Mode:     ModeAppend,
		}
	case MultiAppend:
		return Resolution{Filename: plainName(def.Key, file), Mode: ModeAppend}
	default:
		return Resolution{Filename: plainName(def.Key, file), Mode: ModeReplace}
	}
}

// ResolveReplace names the file replacing replaced at index. A versioned slot
// keeps the version of the replaced entry, or index+1 when it has none.
func ResolveReplace(def Definition, replaced recordstore.Attachment, index int, file File) Resolution {
	if def.Cardinality != MultiVersioned {
		return Resolution{Filename: plainName(def.Key, file), Mode: ModeReplace}
	}

	version, ok := ParseVersion(def.Key, replaced.Filename)
	if !ok {
		version = index + 1
	}
	return Resolution{
		Filename: VersionedName(def.Key, version, Extension(file)),
		Version:  version,
		Mode:     ModeReplace,
	}
}

// VersionedName returns "{key}_v{version}{ext}".
func VersionedName(key Key, version int, ext string) string {
	return fmt.Sprintf("%s_v%d%s", key, version, ext)
}

// ParseVersion extracts N from a "{key}_v{N}..." filename.
func ParseVersion(key Key, filename string) (int, bool) {
	re := regexp.MustCompile(`^` + regexp.QuoteMeta(string(key)) + `_v(\d+)(?:\.|$)`)
	m := re.FindStringSubmatch(filename)
	if m == nil {
		return 0, false
	}
	v, err := strconv.Atoi(m[1])
	if err != nil {
		return 0, false
	}
	return v, true
}

// Extension returns the lowercased filename extension, else the extension of
// the content type, else ".bin".
func Extension(file File) string {
	if ext := strings.ToLower(filepath.Ext(file.Filename)); ext != "" && ext != "." {
		return ext
	}

	ct := strings.TrimSpace(strings.SplitN(file.ContentType, ";", 2)[0])
	if ct != "" {
		if m := mimetype.Lookup(ct); m != nil && m.Extension() != "" {
			return m.Extension()
		}
	}
	return fallbackExt
}

func highestVersion(key Key, current []recordstore.Attachment) int {
	versions := lo.FilterMap(current, func(a recordstore.Attachment, _ int) (int, bool) {
		return ParseVersion(key, a.Filename)
	})
	return lo.Max(versions)
}

func plainName(key Key, file File) string {
	name := filepath.Base(file.Filename)
	if name == "" || name == "." || name == "/" {
		return string(key) + Extension(file)
	}
	return name
}
