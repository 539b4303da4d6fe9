package memory

import (
	"fmt"
	"os"
	"path/filepath"
)

// userProfileTemplate seeds memory/system/USER.md on first run. The
// core only ever reads this file; operators edit it by hand.
const userProfileTemplate = `# User Preferences

_Read-only to the platform. Edit by hand; changes apply on next read._

- default_channel:
- timezone:
- notify_on: compliance_alert, breaking_news
`

// userProfilePath returns memory/system/USER.md under dir.
func userProfilePath(dir string) string {
	return filepath.Join(dir, "system", "USER.md")
}

// EnsureUserProfile creates the USER.md template if the file does not
// exist yet. Existing content is never touched.
func EnsureUserProfile(dir string) error {
	path := userProfilePath(dir)
	if _, err := os.Stat(path); err == nil {
		return nil
	} else if !os.IsNotExist(err) {
		return fmt.Errorf("memory: stat %s: %w", path, err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("memory: create system dir: %w", err)
	}
	if err := os.WriteFile(path, []byte(userProfileTemplate), 0o644); err != nil {
		return fmt.Errorf("memory: write %s: %w", path, err)
	}
	return nil
}

// ReadUserProfile returns the USER.md content, or "" when absent.
func ReadUserProfile(dir string) string {
	body, err := os.ReadFile(userProfilePath(dir))
	if err != nil {
		return ""
	}
	return string(body)
}
