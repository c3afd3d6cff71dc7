package store

import (
	"bufio"
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"regexp"
	"strings"
	"time"
)

// headingPattern matches the daily heading line "# YYYY-MM-DD (Weekday)".
var headingPattern = regexp.MustCompile(`^# (\d{4}-\d{2}-\d{2}) \(`)

// ConstraintsLog is the append-only text file of user-supplied
// constraint lines, grouped under daily date headings.
type ConstraintsLog struct {
	path   string
	lock   *FileLock
	backup *BackupRotator
}

// NewConstraintsLog returns a log at path, backed up via backup before
// every mutating write.
func NewConstraintsLog(path string, backup *BackupRotator) *ConstraintsLog {
	return &ConstraintsLog{path: path, lock: NewFileLock(path), backup: backup}
}

// AppendLine appends userText under today's heading, inserting a new
// heading first if the last heading in the file isn't today's date.
// The whole operation runs under the lock so concurrent appenders
// never interleave within a line or duplicate a heading.
func (c *ConstraintsLog) AppendLine(userText string, now time.Time) error {
	return c.lock.WithLock(os.O_RDWR, 0640, func(f *os.File) error {
		if err := c.backup.SnapshotBeforeWrite(c.path, now); err != nil {
			return err
		}

		content, err := io.ReadAll(f)
		if err != nil {
			return err
		}

		today := now.Format("2006-01-02")
		lastHeading := lastHeadingDate(content)

		var b strings.Builder
		if lastHeading != today {
			if len(content) > 0 && !bytes.HasSuffix(content, []byte("\n")) {
				b.WriteString("\n")
			}
			if len(content) > 0 {
				b.WriteString("\n")
			}
			b.WriteString(fmt.Sprintf("# %s (%s)\n", today, now.Format("Monday")))
		}
		b.WriteString(now.Format("1504"))
		b.WriteString(" ")
		b.WriteString(userText)
		b.WriteString("\n")

		if _, err := f.Write([]byte(b.String())); err != nil {
			return err
		}
		return nil
	})
}

// lastHeadingDate scans content for the most recent daily heading and
// returns its YYYY-MM-DD date, or "" if there is none.
func lastHeadingDate(content []byte) string {
	scanner := bufio.NewScanner(bytes.NewReader(content))
	scanner.Buffer(make([]byte, 0, 64*1024), 10*1024*1024)
	last := ""
	for scanner.Scan() {
		if m := headingPattern.FindSubmatch(scanner.Bytes()); m != nil {
			last = string(m[1])
		}
	}
	return last
}

// Tail returns the last n physical lines of the log, read without the
// lock per the spec's unlocked-reader allowance. If the file has fewer
// than n lines, the whole file is returned.
func (c *ConstraintsLog) Tail(n int) (string, error) {
	data, err := os.ReadFile(c.path)
	if err != nil {
		if os.IsNotExist(err) {
			return "", nil
		}
		return "", err
	}
	lines := strings.Split(strings.TrimSuffix(string(data), "\n"), "\n")
	if len(data) == 0 {
		return "", nil
	}
	if n <= 0 {
		n = 200
	}
	if n >= len(lines) {
		return strings.Join(lines, "\n") + "\n", nil
	}
	return strings.Join(lines[len(lines)-n:], "\n") + "\n", nil
}

// Read returns the full current content, or "" if the file doesn't
// exist yet.
func (c *ConstraintsLog) Read() (string, error) {
	data, err := os.ReadFile(c.path)
	if err != nil {
		if os.IsNotExist(err) {
			return "", nil
		}
		return "", err
	}
	return string(data), nil
}

// Hash returns a stable digest of the full file content, used by the
// iteration controller to detect CHANGE triggers.
func (c *ConstraintsLog) Hash() (string, error) {
	content, err := c.Read()
	if err != nil {
		return "", err
	}
	return HashString(content), nil
}

// HashString is the digest function shared by every hash() operation
// named in the data model (constraints, artifact-in, artifact-out).
func HashString(s string) string {
	sum := sha256.Sum256([]byte(s))
	return hex.EncodeToString(sum[:])
}
