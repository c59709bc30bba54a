package featuregate

import (
	"fmt"
	"runtime/debug"
)

// getUserAgent returns the User-Agent header value in the format
// "featuregate-go-sdk/<version>". If the version cannot be determined
// (e.g., during development), it returns "featuregate-go-sdk/unknown".
func getUserAgent() string {
	const sdkName = "featuregate-go-sdk"
	const unknownVersion = "unknown"

	info, ok := debug.ReadBuildInfo()
	if !ok {
		return fmt.Sprintf("%s/%s", sdkName, unknownVersion)
	}

	version := info.Main.Version
	if version == "" || version == "(devel)" {
		return fmt.Sprintf("%s/%s", sdkName, unknownVersion)
	}

	return fmt.Sprintf("%s/%s", sdkName, version)
}
