package scanner

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
)

var (
	// ErrModuleTimeout is reported when parallel module processing does not
	// finish within the configured timeout.
	ErrModuleTimeout = errors.New("module processing timed out")
	// ErrProviderNotThreadSafe is reported when parallel processing is
	// requested with a provider that cannot be used concurrently.
	ErrProviderNotThreadSafe = errors.New("provider is not thread-safe")
)

// ConfigError rejects a walker configuration before any traversal starts.
type ConfigError struct {
	Reason string
	Err    error
}

func (e *ConfigError) Error() string {
	if e.Err == nil {
		return "invalid scan configuration: " + e.Reason
	}
	if e.Reason == "" {
		return fmt.Sprintf("invalid scan configuration: %v", e.Err)
	}
	return fmt.Sprintf("invalid scan configuration: %s: %v", e.Reason, e.Err)
}

func (e *ConfigError) Unwrap() error { return e.Err }

// ModuleError is the failure of one module processed in parallel.
type ModuleError struct {
	Module string
	// Failed is the number of modules of the batch that failed.
	Failed int
	Err    error
}

func (e *ModuleError) Error() string {
	if e.Failed > 1 {
		return fmt.Sprintf("module %s failed (%d modules failed): %v", e.Module, e.Failed, e.Err)
	}
	return fmt.Sprintf("module %s failed: %v", e.Module, e.Err)
}

func (e *ModuleError) Unwrap() error { return e.Err }

// IO reports whether the failure was caused by the file system rather than
// by processing.
func (e *ModuleError) IO() bool {
	var pathErr *fs.PathError
	var sysErr *os.SyscallError
	return errors.As(e.Err, &pathErr) || errors.As(e.Err, &sysErr)
}
