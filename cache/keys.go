package cache

import (
	"strconv"
	"strings"

	"github.com/cespare/xxhash/v2"
)

// maxRawSubkey bounds the subkey portion of a composite key. Longer
// subkeys are replaced by their xxhash digest so keys stay short in the
// shared store regardless of what callers pass in.
const maxRawSubkey = 128

// subkeySeparator joins a subkey with its locale variant.
const subkeySeparator = ":"

// composeSubkey folds the locale variant into the subkey. The composed
// subkey is what travels in invalidation events.
func composeSubkey(subkey, locale string) string {
	subkey = normalizeSubkey(subkey)
	if locale == "" {
		return subkey
	}
	return subkey + subkeySeparator + normalizeSubkey(locale)
}

// versionedKey builds the composite key for one entry. The version is
// the namespace's version at construction time; the key never changes
// after that, which is what lets stale entries coexist harmlessly until
// TTL expiry.
func versionedKey(namespace string, version int64, subkey string) string {
	var b strings.Builder
	b.Grow(len(namespace) + len(subkey) + 24)
	b.WriteString(namespace)
	b.WriteString(":v")
	b.WriteString(strconv.FormatInt(version, 10))
	b.WriteString(":")
	b.WriteString(subkey)
	return b.String()
}

// namespacePattern matches every shared-tier key of a namespace, across
// all versions.
func namespacePattern(namespace string) string {
	return namespace + ":v*"
}

func normalizeSubkey(subkey string) string {
	if len(subkey) <= maxRawSubkey {
		return subkey
	}
	return "x" + strconv.FormatUint(xxhash.Sum64String(subkey), 16)
}
