package world

import (
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

const idSuffixLen = 9

// newEntityID builds "<prefix>_<unix ms>_<9 random chars>". Player ids stay
// under 32 bytes so they fit the socket clients' fixed id buffer.
func newEntityID(prefix string, now time.Time) string {
	suffix := strings.ReplaceAll(uuid.NewString(), "-", "")[:idSuffixLen]

	var b strings.Builder
	b.Grow(len(prefix) + 15 + idSuffixLen)
	b.WriteString(prefix)
	b.WriteByte('_')
	b.WriteString(strconv.FormatInt(now.UnixMilli(), 10))
	b.WriteByte('_')
	b.WriteString(suffix)
	return b.String()
}
