// Package testutil — общие утилиты тестов.
package testutil

import (
	"bytes"
	"os"
	"testing"

	"github.com/stretchr/testify/require"
)

// CaptureStdout выполняет fn, перехватывая os.Stdout.
func CaptureStdout(t *testing.T, fn func()) string {
	t.Helper()
	return capture(t, &os.Stdout, fn)
}

// CaptureStderr выполняет fn, перехватывая os.Stderr.
// Нужен для проверки deprecation warning'ов.
func CaptureStderr(t *testing.T, fn func()) string {
	t.Helper()
	return capture(t, &os.Stderr, fn)
}

func capture(t *testing.T, target **os.File, fn func()) string {
	t.Helper()
	r, w, err := os.Pipe()
	require.NoError(t, err, "не удалось создать pipe")

	old := *target
	*target = w
	defer func() { *target = old }()

	done := make(chan string, 1)
	go func() {
		var buf bytes.Buffer
		_, _ = buf.ReadFrom(r) //nolint:errcheck // test helper
		done <- buf.String()
	}()

	fn()

	_ = w.Close() //nolint:errcheck // test helper
	return <-done
}
