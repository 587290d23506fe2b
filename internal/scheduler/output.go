package scheduler

import (
	"fmt"
	"os"
	"path/filepath"

	"whisperd/internal/common/fsutil"
)

// transcriptName builds the output file name from the input stem and a
// short job id prefix, e.g. interview_3b241101.txt.
func transcriptName(input, jobID string) string {
	short := jobID
	if len(short) > 8 {
		short = short[:8]
	}
	return fmt.Sprintf("%s_%s.txt", fsutil.Stem(input), short)
}

// writeTranscript stores a finished transcript under dir and returns its
// path. The directory is created when absent.
func writeTranscript(dir, input, jobID, text string) (string, error) {
	if err := fsutil.EnsureDir(dir); err != nil {
		return "", err
	}
	path := filepath.Join(dir, transcriptName(input, jobID))
	if err := os.WriteFile(path, []byte(text), 0o644); err != nil {
		return "", err
	}
	return path, nil
}
