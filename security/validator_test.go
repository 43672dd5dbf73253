package security

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateDenyPatterns(t *testing.T) {
	v := New(10000)

	testCases := []struct {
		name   string
		source string
		reason string
	}{
		{"JavaRuntimeExec", `Runtime.getRuntime().exec("ls");`, "Runtime.getRuntime"},
		{"JavaProcessBuilder", `new ProcessBuilder("ls").start();`, "ProcessBuilder"},
		{"JavaSystemExit", `System.exit(1);`, "System.exit"},
		{"JavaReflection", `import java.lang.reflect.Method;`, "reflection"},
		{"JavaFile", `new java.io.File("/etc/passwd");`, "file access"},
		{"JavaNet", `import java.net.Socket;`, "network"},
		{"PythonSubprocess", `import subprocess`, "subprocess"},
		{"PythonOsSystem", `os.system("rm -rf /")`, "os.system"},
		{"PythonEval", `eval(user_input)`, "eval"},
		{"PythonExec", `exec(payload)`, "exec"},
		{"PythonDunderImport", `__import__("os")`, "dynamic imports"},
		{"PythonImportlib", `import importlib`, "dynamic imports"},
		{"PythonUrllib", `import urllib.request`, "network"},
		{"PythonShutil", `import shutil`, "file access"},
		{"NodeChildProcess", `const cp = require("child_process");`, "child_process"},
		{"NodeFsRequire", `const fs = require('fs');`, "file access"},
		{"NodeProcessExit", `process.exit(0);`, "process.exit"},
		{"NodeFetch", `fetch("http://example.com")`, "network"},
		{"CppSystem", `system("sh");`, "system()"},
		{"CppPopen", `FILE *p = popen("ls", "r");`, "popen"},
		{"CppFork", `pid_t pid = fork();`, "forking"},
		{"ShellBinSh", `"/bin/sh -c id"`, "shell escape"},
		{"Backticks", "x = `id`", "command substitution"},
		{"CaseInsensitive", `RUNTIME.GETRUNTIME().EXEC("ls")`, "Runtime.getRuntime"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			violation := v.Validate(tc.source)
			require.NotNil(t, violation, "expected %q to be rejected", tc.source)
			assert.Contains(t, violation.Reason, tc.reason)
		})
	}
}

func TestValidateCleanSubmissions(t *testing.T) {
	v := New(10000)

	testCases := []struct {
		name   string
		source string
	}{
		{"PythonHelloWorld", `print("Hello, World!")`},
		{"JavaHelloWorld", "public class Main {\n  public static void main(String[] args) {\n    System.out.println(\"Hello\");\n  }\n}"},
		{"NodeHelloWorld", `console.log("Hello");`},
		{"CppHelloWorld", "#include <iostream>\nint main() { std::cout << \"Hello\"; return 0; }"},
		{"PythonArithmetic", "total = sum(range(100))\nprint(total)"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Nil(t, v.Validate(tc.source))
		})
	}
}

func TestValidateMaxLength(t *testing.T) {
	v := New(100)

	t.Run("AtLimit", func(t *testing.T) {
		assert.Nil(t, v.Validate(strings.Repeat("a", 100)))
	})

	t.Run("OverLimit", func(t *testing.T) {
		violation := v.Validate(strings.Repeat("a", 101))
		require.NotNil(t, violation)
		assert.Contains(t, violation.Reason, "maximum allowed length")
	})

	t.Run("CountedInCharactersNotBytes", func(t *testing.T) {
		// 100 characters of multi-byte text is twice that in bytes and
		// must still pass.
		assert.Nil(t, v.Validate(strings.Repeat("é", 100)))

		violation := v.Validate(strings.Repeat("é", 101))
		require.NotNil(t, violation)
		assert.Contains(t, violation.Reason, "maximum allowed length")
	})

	t.Run("DenyPatternCheckedBeforeLength", func(t *testing.T) {
		long := strings.Repeat("a", 200) + "\nimport subprocess"
		violation := v.Validate(long)
		require.NotNil(t, violation)
		assert.Contains(t, violation.Reason, "subprocess")
	})

	assert.Equal(t, 100, v.MaxSourceLen())
}
