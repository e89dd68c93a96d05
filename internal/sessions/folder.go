package sessions

import (
	"fmt"
	"time"

	"interview-backend/internal/shared/util"
)

// FolderName computes the deterministic per-session folder name: the
// creation time rendered in the operational time zone plus the folded
// candidate name, e.g. "07_03_2026_14_05_Nguyen_Van_A".
func FolderName(t time.Time, loc *time.Location, candidate string) string {
	local := t.In(loc)
	return fmt.Sprintf("%02d_%02d_%04d_%02d_%02d_%s",
		local.Day(), int(local.Month()), local.Year(),
		local.Hour(), local.Minute(),
		util.FoldNameForFolder(candidate))
}
