package session

import (
	"fmt"
	"os"
	"strings"

	"github.com/google/uuid"
)

// Identity holds the durable identity of a session: the sender/target
// CompIDs and a UUID that uniquely names this session across process
// restarts, used as the session_id component of every store key.
type Identity struct {
	SenderCompID string
	TargetCompID string
	UUID         string
}

// LoadOrCreateUUID reads the session UUID from path if it already exists
// (resuming a prior session), or generates a fresh one and writes it to
// path, created with O_EXCL so a race between two processes racing to
// create the same session-id file fails loudly instead of one silently
// clobbering the other's value.
func LoadOrCreateUUID(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err == nil {
		id := strings.TrimSpace(string(data))
		if id == "" {
			return "", fmt.Errorf("session: %s exists but is empty", path)
		}
		return id, nil
	}
	if !os.IsNotExist(err) {
		return "", fmt.Errorf("session: read %s: %w", path, err)
	}

	id := uuid.New().String()
	f, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
	if err != nil {
		return "", fmt.Errorf("session: create %s: %w", path, err)
	}
	defer f.Close()

	if _, err := f.WriteString(id); err != nil {
		return "", fmt.Errorf("session: write %s: %w", path, err)
	}
	return id, nil
}

// NewIdentity constructs an Identity, loading or creating its UUID from
// sessionIDFile.
func NewIdentity(senderCompID, targetCompID, sessionIDFile string) (*Identity, error) {
	id, err := LoadOrCreateUUID(sessionIDFile)
	if err != nil {
		return nil, err
	}
	return &Identity{SenderCompID: senderCompID, TargetCompID: targetCompID, UUID: id}, nil
}
