package scripts

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"sort"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// Config holds the configuration for the ScriptRunner
type Config struct {
	UVPath      string   // Path to the uv executable
	ScriptsPath string   // Directory holding the Python scripts
	Required    []string // Scripts that must exist at startup
	Environment []string // Additional environment variables
}

type ScriptRunner struct {
	config Config
}

func NewScriptRunner(cfg Config) (*ScriptRunner, error) {
	if err := validateConfig(cfg); err != nil {
		return nil, err
	}
	if cfg.UVPath == "" {
		cfg.UVPath = "uv"
	}
	return &ScriptRunner{config: cfg}, nil
}

func validateConfig(cfg Config) error {
	if _, err := os.Stat(cfg.ScriptsPath); os.IsNotExist(err) {
		return errors.Errorf("scripts directory does not exist: %s", cfg.ScriptsPath)
	}

	for _, script := range cfg.Required {
		scriptPath := filepath.Join(cfg.ScriptsPath, script)
		if _, err := os.Stat(scriptPath); os.IsNotExist(err) {
			return errors.Errorf("required script not found: %s", scriptPath)
		}
	}
	return nil
}

// RunScript executes scriptName with uv and returns its stdout, which must be
// valid JSON.
func (r *ScriptRunner) RunScript(
	ctx context.Context,
	scriptName string,
	args map[string]string,
	flags []string,
) ([]byte, error) {
	const op = "ScriptRunner.RunScript"
	logger := logrus.WithFields(logrus.Fields{
		"script": scriptName,
		"args":   args,
		"flags":  flags,
	})
	logger.Debug("Executing script")

	cmdArgs := append([]string{"run", scriptName}, buildCommandArgs(args, flags)...)
	cmd := exec.CommandContext(ctx, r.config.UVPath, cmdArgs...)
	cmd.Dir = r.config.ScriptsPath
	cmd.Env = append(os.Environ(), r.config.Environment...)

	output, err := executeCommand(cmd, logger)
	if err != nil {
		return nil, newScriptError(op, err, "script execution failed")
	}

	return output, nil
}

// buildCommandArgs renders args as --key=value pairs in key order, followed by
// bare --flag switches. Empty values are dropped.
func buildCommandArgs(args map[string]string, flags []string) []string {
	keys := make([]string, 0, len(args))
	for k, v := range args {
		if v != "" {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)

	cmdArgs := make([]string, 0, len(keys)+len(flags))
	for _, k := range keys {
		cmdArgs = append(cmdArgs, fmt.Sprintf("--%s=%s", k, args[k]))
	}
	for _, flag := range flags {
		cmdArgs = append(cmdArgs, fmt.Sprintf("--%s", flag))
	}
	return cmdArgs
}

func executeCommand(cmd *exec.Cmd, logger *logrus.Entry) ([]byte, error) {
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		stderrOutput := stderr.String()
		logger.WithError(err).WithField("stderr", stderrOutput).Error("Script execution failed")
		return nil, errors.Wrapf(err, "stderr: %s", stderrOutput)
	}

	output := stdout.Bytes()
	if err := validateJSONOutput(output); err != nil {
		logger.WithError(err).WithField("output", string(output)).Error("Invalid JSON output")
		return nil, err
	}

	return output, nil
}

// Unmarshal decodes script output into v.
func Unmarshal(data []byte, v interface{}) error {
	if err := json.Unmarshal(data, v); err != nil {
		return errors.Wrap(err, "failed to unmarshal result")
	}
	return nil
}

func validateJSONOutput(output []byte) error {
	if !json.Valid(bytes.TrimSpace(output)) {
		return errors.New("invalid JSON output")
	}
	return nil
}
