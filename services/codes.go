// Package services holds the estimate core: hierarchy codes, the group/
// section/subsection tree, amount aggregation, the mutation operations and
// the spreadsheet import/export logic. Everything here is plain in-memory
// data; persistence is the caller's concern.
package services

import (
	"strconv"
	"strings"
)

// MaxCodeDepth is the deepest level a hierarchy code can address:
// 1 = group, 2 = section, 3 = subsection.
const MaxCodeDepth = 3

// DepthOf returns the number of dot-separated segments in a code.
// Codes with no segments, blank segments or more than MaxCodeDepth
// segments are rejected with an InvalidCodeError.
func DepthOf(code string) (int, error) {
	code = strings.TrimSpace(code)
	if code == "" {
		return 0, &InvalidCodeError{Code: code, Reason: "code is empty"}
	}

	segments := strings.Split(code, ".")
	if len(segments) > MaxCodeDepth {
		return 0, &InvalidCodeError{
			Code:   code,
			Reason: "expected at most " + strconv.Itoa(MaxCodeDepth) + " segments",
		}
	}
	for _, s := range segments {
		if strings.TrimSpace(s) == "" {
			return 0, &InvalidCodeError{Code: code, Reason: "code has a blank segment"}
		}
	}
	return len(segments), nil
}

// ParentOf returns the code with its last segment removed, or "" for a
// group-level code.
func ParentOf(code string) string {
	i := strings.LastIndex(code, ".")
	if i < 0 {
		return ""
	}
	return code[:i]
}

// NextChildCode allocates the next code under parentCode given the codes of
// the existing children: max numeric suffix + 1, starting at 1.
func NextChildCode(parentCode string, existing []string) string {
	return parentCode + "." + strconv.Itoa(nextSuffix(existing))
}

// NextGroupCode allocates the next top-level code given the existing group codes.
func NextGroupCode(existing []string) string {
	return strconv.Itoa(nextSuffix(existing))
}

// nextSuffix picks the next numeric suffix for a sibling list. Non-numeric
// suffixes (letter codes like "A") don't participate in the max; if the list
// has only such codes the suffix falls back to count + 1.
func nextSuffix(existing []string) int {
	max := 0
	numeric := false
	for _, code := range existing {
		seg := code
		if i := strings.LastIndex(code, "."); i >= 0 {
			seg = code[i+1:]
		}
		n, err := strconv.Atoi(seg)
		if err != nil {
			continue
		}
		numeric = true
		if n > max {
			max = n
		}
	}
	if !numeric {
		return len(existing) + 1
	}
	return max + 1
}
