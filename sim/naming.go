package sim

import (
	"strconv"
	"strings"
)

// A Named object is an object that has a name.
type Named interface {
	Name() string
}

// NameMustBeValid panics if the name does not follow the naming convention.
//
// A name is a dot-separated hierarchy such as "K10.Xbar.Target[1]". Every
// element must be non-empty, start with a capital letter, and must not contain
// underscores, dashes or quotes. Elements in a series carry an integer index
// in square brackets.
func NameMustBeValid(name string) {
	for _, elem := range strings.Split(name, ".") {
		if msg := checkNameElem(elem); msg != "" {
			panic("Name " + name + " is not valid: " + msg)
		}
	}
}

func checkNameElem(elem string) string {
	base, rest, hasIndex := strings.Cut(elem, "[")
	if base == "" {
		return "name element must not be empty"
	}

	if strings.ContainsAny(base, "_-\"'") {
		return "name element must not contain _ - \" or '"
	}

	if base[0] < 'A' || base[0] > 'Z' {
		return "name element must start with a capital letter"
	}

	if !hasIndex {
		if strings.Contains(elem, "]") {
			return "name bracket must match"
		}

		return ""
	}

	for _, idx := range strings.Split(rest, "[") {
		num, ok := strings.CutSuffix(idx, "]")
		if !ok || strings.ContainsAny(num, "[]") {
			return "name bracket must match"
		}

		if _, err := strconv.Atoi(num); err != nil {
			return "name index must be integer"
		}
	}

	return ""
}

// BuildName builds a name from a parent name and an element name.
func BuildName(parentName, elementName string) string {
	if parentName == "" {
		return elementName
	}

	return parentName + "." + elementName
}

// BuildNameWithIndex builds a name from a parent name, an element name and an
// index.
func BuildNameWithIndex(parentName, elementName string, index int) string {
	return BuildName(parentName, elementName+"["+strconv.Itoa(index)+"]")
}
