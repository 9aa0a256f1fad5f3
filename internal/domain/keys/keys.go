// Package keys decides where artifacts live in the object store.
package keys

import (
	"fmt"
	"path"
	"strings"

	"github.com/google/uuid"
)

const publicPrefix = "public/videos"

// Source returns the key for an uploaded long-form source video.
func Source(userID, ext string) string {
	ext = cleanExt(ext)
	if userID != "" {
		return path.Join("users", userID, "videos", uuid.NewString()+ext)
	}
	return path.Join(publicPrefix, uuid.NewString()+ext)
}

// Short returns the video and thumbnail keys for the short with the given
// attempt index. Both keys share the user namespace when userID is set and
// the anonymous one otherwise.
func Short(userID string, index int) (videoKey, thumbKey string) {
	if userID != "" {
		id := fmt.Sprintf("short-%d-%s", index, uuid.NewString())
		dir := path.Join("users", userID, "shorts")
		return path.Join(dir, id+"-video.mp4"), path.Join(dir, id+"-thumbnail.jpg")
	}
	return path.Join(publicPrefix, uuid.NewString()+".mp4"), path.Join(publicPrefix, uuid.NewString()+".jpg")
}

func cleanExt(ext string) string {
	ext = strings.ToLower(strings.TrimSpace(ext))
	if ext == "" {
		return ".mp4"
	}
	if !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}
	return ext
}
