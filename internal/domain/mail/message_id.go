package mail

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Tracking tags embedded in generated Message-Id headers
const (
	TagPrivate = "private"
	TagReplyTo = "reply_to"
)

// TrackingTag returns the tag identifying what a message is attached to:
// "reply_to" when thread linking is disabled, "<res_id>-<model>" for a
// document and "private" otherwise.
func TrackingTag(ref DocumentRef, noAutoThread bool) string {
	switch {
	case noAutoThread:
		return TagReplyTo
	case !ref.IsZero():
		return fmt.Sprintf("%d-%s", ref.ResID, ref.Model)
	default:
		return TagPrivate
	}
}

// GenerateTrackingMessageID builds a unique Message-Id header of the form
// <random.timestamp-openerp-TAG@host>.
func GenerateTrackingMessageID(tag, host string) string {
	rnd := strings.ReplaceAll(uuid.New().String(), "-", "")[:16]
	ts := float64(time.Now().UnixNano()) / float64(time.Second)
	return fmt.Sprintf("<%s.%.6f-openerp-%s@%s>", rnd, ts, tag, host)
}
