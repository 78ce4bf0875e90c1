package database

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/dbroute/dbroute/common"
)

const (
	DefaultPageLimit = 100
	MaxPageLimit     = 10000
)

var orderByPattern = regexp.MustCompile(`(?i)\border\s+by\b`)

// ParsePage turns the raw limit and offset query values into integers. An
// empty limit falls back to DefaultPageLimit, an empty offset to zero.
func ParsePage(limit, offset string) (int, int, error) {
	l, o := DefaultPageLimit, 0
	var err error
	if limit = strings.TrimSpace(limit); limit != "" {
		if l, err = strconv.Atoi(limit); err != nil {
			return 0, 0, common.NewValidationError("limit %q is not an integer", limit)
		}
	}
	if offset = strings.TrimSpace(offset); offset != "" {
		if o, err = strconv.Atoi(offset); err != nil {
			return 0, 0, common.NewValidationError("offset %q is not an integer", offset)
		}
	}
	if err = checkPage(l, o); err != nil {
		return 0, 0, err
	}
	return l, o, nil
}

func checkPage(limit, offset int) error {
	if limit <= 0 || limit > MaxPageLimit {
		return common.NewValidationError("limit must be between 1 and %d, got %d", MaxPageLimit, limit)
	}
	if offset < 0 {
		return common.NewValidationError("offset must not be negative, got %d", offset)
	}
	return nil
}

// Paginate wraps base into the page window of the dialect. Only integers
// that passed checkPage are ever interpolated.
func Paginate(base string, d Dialect, limit, offset int) (string, error) {
	if err := checkPage(limit, offset); err != nil {
		return "", err
	}
	return d.Paginate(TrimStatement(base), limit, offset), nil
}

// TrimStatement drops surrounding blanks and trailing semicolons.
func TrimStatement(query string) string {
	return strings.TrimRight(strings.TrimSpace(query), "; \t\r\n")
}

func LimitOffset(base string, limit, offset int) string {
	return fmt.Sprintf("%s LIMIT %d OFFSET %d", base, limit, offset)
}

// RowNumWindow is the ROWNUM window for targets without OFFSET support. Row
// numbers start at 1.
func RowNumWindow(base string, limit, offset int) string {
	return fmt.Sprintf("SELECT * FROM (SELECT a.*, ROWNUM rnum FROM (%s) a WHERE ROWNUM <= %d) WHERE rnum > %d",
		base, offset+limit, offset)
}

// OffsetFetch needs an ORDER BY, a constant one is added when base has none.
func OffsetFetch(base string, limit, offset int) string {
	if !orderByPattern.MatchString(base) {
		base += " ORDER BY (SELECT NULL)"
	}
	return fmt.Sprintf("%s OFFSET %d ROWS FETCH NEXT %d ROWS ONLY", base, offset, limit)
}
