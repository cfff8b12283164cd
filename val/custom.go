package val

import (
	"path/filepath"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"
)

const (
	tagSafeFilename = "safe_filename"
	tagSeasonName   = "season_name"
)

var seasonNameRe = regexp.MustCompile(`^[\p{L}\p{N}][\p{L}\p{N} \-–—/]{0,63}$`) //nolint:gochecknoglobals // compiled once

func customValidations() map[string]validator.Func {
	return map[string]validator.Func{
		tagSafeFilename: func(fl validator.FieldLevel) bool { return IsSafeFilename(fl.Field().String()) },
		tagSeasonName:   func(fl validator.FieldLevel) bool { return IsSeasonName(fl.Field().String()) },
	}
}

// IsSafeFilename reports whether name is a bare file name: non-empty, no directory parts.
func IsSafeFilename(name string) bool {
	if strings.TrimSpace(name) == "" || name == "." || name == ".." {
		return false
	}
	return filepath.Base(name) == name && !strings.ContainsAny(name, `/\`)
}

// IsSeasonName reports whether name looks like a season label such as "24-25" or "Spring 2025".
func IsSeasonName(name string) bool {
	return seasonNameRe.MatchString(strings.TrimSpace(name))
}
