//go:build windows

package cmd

import "golang.org/x/sys/windows"

// exitCodeStillActive is the exit code Windows reports for a live process.
const exitCodeStillActive = 259

func isProcessRunning(pid int) bool {
	h, err := windows.OpenProcess(windows.PROCESS_QUERY_LIMITED_INFORMATION, false, uint32(pid))
	if err != nil {
		return false
	}
	defer windows.CloseHandle(h)
	var code uint32
	if err := windows.GetExitCodeProcess(h, &code); err != nil {
		return false
	}
	return code == exitCodeStillActive
}
