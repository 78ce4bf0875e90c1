package common

import (
	"bytes"
	"encoding/gob"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"unicode"

	"github.com/pkg/errors"
	"golang.org/x/crypto/bcrypt"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var (
	identifierRegexp = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_$#]*(\.[A-Za-z_][A-Za-z0-9_$#]*)?$`)
	slugSeparators   = regexp.MustCompile(`[^a-z0-9]+`)
)

func GetWorkDirectory() string {
	dir, err := filepath.Abs(filepath.Dir(os.Args[0]))
	if err != nil {
		return ""
	}

	return strings.Replace(filepath.Dir(dir), "\\", "/", -1)
}

func GetStringwithDefault(value, defaul string) string {
	if value == "" {
		return defaul
	}
	return value
}

func GetIntegerwithDefault(value, defaul int) int {
	if value == 0 {
		return defaul
	}
	return value
}

func MaxInt(x, y int) int {
	if x > y {
		return x
	}
	return y
}

func MinInt(x, y int) int {
	if x < y {
		return x
	}
	return y
}

// ArrayDistinct keeps the first occurrence of every element.
func ArrayDistinct(arr []string) []string {
	set := make(map[string]struct{}, len(arr))
	var out []string
	for _, s := range arr {
		if _, ok := set[s]; ok {
			continue
		}
		set[s] = struct{}{}
		out = append(out, s)
	}
	return out
}

func ArraySearchFold(target string, arr []string) bool {
	for _, s := range arr {
		if strings.EqualFold(s, target) {
			return true
		}
	}
	return false
}

// Slugify folds name to ASCII and lower snake case:
// "Relatório Diário de Vendas" -> "relatorio_diario_de_vendas".
func Slugify(name string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	folded, _, err := transform.String(t, name)
	if err != nil {
		folded = name
	}
	folded = strings.ToLower(folded)
	folded = slugSeparators.ReplaceAllString(folded, "_")
	return strings.Trim(folded, "_")
}

// ValidIdentifier is the allow-list every table, column or sequence name must
// pass before it is interpolated into SQL text.
func ValidIdentifier(name string) bool {
	return len(name) <= 128 && identifierRegexp.MatchString(name)
}

func EnsureIdentifiers(names ...string) error {
	for _, name := range names {
		if !ValidIdentifier(name) {
			return NewValidationError("identifier %q is not allowed", name)
		}
	}
	return nil
}

func VerifyPassword(pwd string) error {
	var hasNumber, hasUpperCase, hasLowercase, hasSpecial bool

	if len(pwd) < 8 {
		return errors.Errorf("password is only %d characters long", len(pwd))
	}

	for _, c := range pwd {
		switch {
		case unicode.IsNumber(c):
			hasNumber = true
		case unicode.IsUpper(c):
			hasUpperCase = true
		case unicode.IsLower(c):
			hasLowercase = true
		case unicode.IsPunct(c) || unicode.IsSymbol(c):
			hasSpecial = true
		}
	}

	typeNum := 0
	for _, has := range []bool{hasNumber, hasLowercase, hasUpperCase, hasSpecial} {
		if has {
			typeNum++
		}
	}
	if typeNum < 3 {
		return errors.Errorf("password don't contain at least three character categories")
	}

	return nil
}

func HashPassword(pwd string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(pwd), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

func ComparePassword(hashedPwd string, plainPwd string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(hashedPwd), []byte(plainPwd))
	return err == nil
}

// DeepCopyByGob copies src into dst through a gob round trip.
func DeepCopyByGob(dst, src interface{}) error {
	var buffer bytes.Buffer
	if err := gob.NewEncoder(&buffer).Encode(src); err != nil {
		return errors.Wrap(err, "")
	}
	return errors.Wrap(gob.NewDecoder(&buffer).Decode(dst), "")
}
