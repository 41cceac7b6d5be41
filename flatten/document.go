package flatten

import (
	"regexp"
	"strings"
)

const mixedLicenseHeader = "// SPDX-License-Identifier: MIXED\n\n"

var (
	spdxMarkerPattern     = regexp.MustCompile(`SPDX-License-Identifier:`)
	abiEncoderV2Pattern   = regexp.MustCompile(`pragma experimental ABIEncoderV2;\n`)
	abicoderV2Pattern     = regexp.MustCompile(`pragma abicoder v2;\n`)
	pragmaSolidityPattern = regexp.MustCompile(`(?m)pragma solidity .*$\n`)
)

// normalizeDocument renames every SPDX marker, declares a single mixed license and
// keeps only the first of each repeated pragma.
//
// The first "pragma solidity" line wins even when later files require a different
// compiler version.
func normalizeDocument(document string) string {
	document = spdxMarkerPattern.ReplaceAllLiteralString(document, "License-Identifier:")
	document = mixedLicenseHeader + document

	document = keepFirstMatch(document, abiEncoderV2Pattern)
	document = keepFirstMatch(document, abicoderV2Pattern)
	document = keepFirstMatch(document, pragmaSolidityPattern)

	return strings.TrimSpace(document)
}

// keepFirstMatch removes every match of pattern except the first.
func keepFirstMatch(document string, pattern *regexp.Regexp) string {
	seen := false
	return pattern.ReplaceAllStringFunc(document, func(match string) string {
		if seen {
			return ""
		}
		seen = true
		return match
	})
}
