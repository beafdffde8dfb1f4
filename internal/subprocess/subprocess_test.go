package subprocess

import (
	"context"
	"runtime"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/linuxmatters/intronaut/internal/introerr"
)

func echoSpec(args ...string) Spec {
	if runtime.GOOS == "windows" {
		return Spec{Name: "cmd", Args: append([]string{"/C", "echo"}, args...)}
	}
	return Spec{Name: "echo", Args: args}
}

func TestRunCapturesStdout(t *testing.T) {
	result, err := Run(context.Background(), echoSpec("hello"), "test", introerr.KindDecode)
	assert.NoError(t, err)
	assert.Contains(t, string(result.Stdout), "hello")
}

func TestRunMapsExitCodeFailure(t *testing.T) {
	spec := Spec{Name: "false"}
	if runtime.GOOS == "windows" {
		t.Skip("false(1) not available on windows")
	}

	_, err := Run(context.Background(), spec, "test", introerr.KindRenderer)
	assert.Error(t, err)

	kind, ok := introerr.As(err)
	assert.True(t, ok)
	assert.Equal(t, introerr.KindRenderer, kind)
}

func TestRunTimesOut(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("sleep not available on windows")
	}

	spec := Spec{Name: "sleep", Args: []string{"2"}, Timeout: 10 * time.Millisecond}
	_, err := Run(context.Background(), spec, "test", introerr.KindDecode)
	assert.Error(t, err)

	kind, ok := introerr.As(err)
	assert.True(t, ok)
	assert.Equal(t, introerr.KindTimeout, kind)
}

func TestRunUnknownBinaryFails(t *testing.T) {
	spec := Spec{Name: "intronaut-nonexistent-binary-xyz"}
	_, err := Run(context.Background(), spec, "test", introerr.KindDecode)
	assert.Error(t, err)
}

func TestRemovePartialEmptyPathIsNoop(t *testing.T) {
	RemovePartial("")
}

func TestRemovePartialMissingFileIsNoop(t *testing.T) {
	RemovePartial("/tmp/intronaut-does-not-exist-xyz")
}
