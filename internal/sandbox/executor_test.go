package sandbox

import (
	"testing"

	"yantra/internal/config"

	"github.com/stretchr/testify/assert"
)

func TestBuildRunArgsAssertsIsolationContract(t *testing.T) {
	e := &Executor{cfg: config.SandboxConfig{Runtime: "runsc", MountPath: "/data"}}

	args := e.buildRunArgs("yantra-python-3.12:latest", []string{"python3", "/sandbox/main.py"}, Limits{Memory: "512m", CPU: "1"}, "/tmp/executor_jobs/abc123")

	assert.Contains(t, args, "--runtime=runsc")
	assert.Contains(t, args, "--rm")
	assert.Contains(t, args, "--network=none")
	assert.Contains(t, args, "--memory=512m")
	assert.Contains(t, args, "--cpus=1")
	assert.Contains(t, args, "--read-only")
	assert.Contains(t, args, "-i")

	for i, a := range args {
		if a == "-w" {
			assert.Equal(t, "/sandbox", args[i+1])
		}
	}
	assert.Contains(t, args, "-v")
	idx := indexOf(args, "-v")
	assert.Equal(t, "/tmp/executor_jobs/abc123:/data:ro", args[idx+1])

	assert.Equal(t, "yantra-python-3.12:latest", args[idx+2])
	assert.Equal(t, []string{"python3", "/sandbox/main.py"}, args[idx+3:])
}

func TestBuildRunArgsWithoutJobDirOmitsMount(t *testing.T) {
	e := &Executor{cfg: config.SandboxConfig{}}
	args := e.buildRunArgs("yantra-go-1.22:latest", []string{"/sandbox/app"}, Limits{Memory: "256m", CPU: "0.5"}, "")

	assert.NotContains(t, args, "-v")
	assert.Contains(t, args, "--runtime=runsc")
}

func indexOf(ss []string, target string) int {
	for i, s := range ss {
		if s == target {
			return i
		}
	}
	return -1
}
