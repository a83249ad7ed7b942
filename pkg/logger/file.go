package logger

import (
	"path/filepath"
	"time"

	rotatelogs "github.com/lestrrat-go/file-rotatelogs"
)

const defaultLogMaxAge = 7 * 24 * time.Hour

// newRotatingFile writes to path.YYYYMMDD and keeps path itself as a symlink
// to the current file.
func newRotatingFile(path string, maxAge time.Duration) (*rotatelogs.RotateLogs, error) {
	if maxAge <= 0 {
		maxAge = defaultLogMaxAge
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, err
	}
	return rotatelogs.New(
		abs+".%Y%m%d",
		rotatelogs.WithLinkName(abs),
		rotatelogs.WithMaxAge(maxAge),
		rotatelogs.WithRotationTime(24*time.Hour),
	)
}
