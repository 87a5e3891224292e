package observability

import (
	"fmt"
	"os"
	"syscall"
)

// lockFile takes an exclusive advisory lock on f so that several scrum
// processes (chat and mcp serve, say) can append to one event log without
// interleaving lines. The returned function releases the lock and leaves f
// open.
func lockFile(f *os.File) (unlock func() error, err error) {
	if err := syscall.Flock(int(f.Fd()), syscall.LOCK_EX); err != nil {
		return nil, fmt.Errorf("acquiring event log lock: %w", err)
	}
	return func() error {
		return syscall.Flock(int(f.Fd()), syscall.LOCK_UN)
	}, nil
}
