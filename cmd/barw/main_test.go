package main

import (
	"bytes"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/cobra"

	"github.com/jhsa24/randomwalk/internal/timeline"
)

// newTestRootCmd creates a root command with persistent flags for testing subcommands
func newTestRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:          "barw",
		SilenceUsage: true,
	}
	rootCmd.PersistentFlags().Bool("json", false, "Output as JSON")
	rootCmd.PersistentFlags().String("root", ".", "Project root directory")
	rootCmd.PersistentFlags().String("config", "", "Config file")
	return rootCmd
}

// isolateHome sets HOME to a temp directory to avoid touching real ~/.barw/
// and clears BARW_* overrides. MUST be called for any test that opens a store.
func isolateHome(t *testing.T, tmpDir string) {
	t.Helper()
	tmpHome := filepath.Join(tmpDir, "home")
	if err := os.MkdirAll(tmpHome, 0700); err != nil {
		t.Fatalf("Failed to create temp home: %v", err)
	}
	t.Setenv("HOME", tmpHome)
	for _, name := range []string{
		"BARW_STEPS", "BARW_SAMPLES", "BARW_WORKERS", "BARW_SEED",
		"BARW_RADIUS", "BARW_LOG_LEVEL", "BARW_STORAGE_BACKEND",
	} {
		t.Setenv(name, "")
	}
}

// execute runs the full command tree against root and returns stdout.
func execute(t *testing.T, root string, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(io.Discard)
	cmd.SetArgs(append(args, "--root", root))
	err := cmd.Execute()
	return out.String(), err
}

// mustJSON runs a command with --json and decodes its output.
func mustJSON(t *testing.T, root string, args ...string) map[string]any {
	t.Helper()
	out, err := execute(t, root, append(args, "--json")...)
	if err != nil {
		t.Fatalf("barw %s: %v", strings.Join(args, " "), err)
	}
	var result map[string]any
	if err := json.Unmarshal([]byte(out), &result); err != nil {
		t.Fatalf("barw %s: invalid JSON %q: %v", strings.Join(args, " "), out, err)
	}
	return result
}

// setupProject initializes a project and saves a small collection "demo".
func setupProject(t *testing.T) string {
	t.Helper()
	tmpDir := t.TempDir()
	isolateHome(t, tmpDir)
	root := filepath.Join(tmpDir, "project")
	if err := os.MkdirAll(root, 0700); err != nil {
		t.Fatal(err)
	}
	if _, err := execute(t, root, "init"); err != nil {
		t.Fatalf("init: %v", err)
	}
	mustJSON(t, root, "run", "--name", "demo", "--steps", "30", "--samples", "2", "--workers", "1")
	return root
}

func TestNewCommands(t *testing.T) {
	tests := []struct {
		cmd   *cobra.Command
		use   string
		flags []string
	}{
		{newVersionCmd(), "version", nil},
		{newInitCmd(), "init", []string{"global", "force"}},
		{newRunCmd(), "run", []string{"name", "samples", "steps", "seed", "workers", "radius", "arrow", "metrics-file", "replace"}},
		{newListCmd(), "list", nil},
		{newShowCmd(), "show <name>", []string{"snapshot"}},
		{newExportCmd(), "export <name>", []string{"out", "sample"}},
		{newBackupCmd(), "backup <name>", []string{"out"}},
		{newImportCmd(), "import <file>", []string{"name", "replace"}},
		{newDeleteCmd(), "delete <name>", nil},
		{newConfigCmd(), "config", nil},
	}
	for _, tt := range tests {
		t.Run(tt.use, func(t *testing.T) {
			if tt.cmd.Use != tt.use {
				t.Errorf("Use = %q, want %q", tt.cmd.Use, tt.use)
			}
			for _, f := range tt.flags {
				if tt.cmd.Flags().Lookup(f) == nil {
					t.Errorf("missing --%s flag", f)
				}
			}
		})
	}

	analyze := newAnalyzeCmd()
	if !strings.HasPrefix(analyze.Use, "analyze <name>") {
		t.Errorf("analyze Use = %q", analyze.Use)
	}
}

func TestVersionCmd(t *testing.T) {
	rootCmd := newTestRootCmd()
	rootCmd.AddCommand(newVersionCmd())
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetArgs([]string{"version", "--json"})
	if err := rootCmd.Execute(); err != nil {
		t.Fatalf("version: %v", err)
	}
	var got map[string]string
	if err := json.Unmarshal(out.Bytes(), &got); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if got["version"] != version {
		t.Errorf("version = %q, want %q", got["version"], version)
	}
}

func TestInitCmd(t *testing.T) {
	tmpDir := t.TempDir()
	isolateHome(t, tmpDir)

	result := mustJSON(t, tmpDir, "init")
	if result["status"] != "initialized" {
		t.Errorf("status = %v, want initialized", result["status"])
	}
	if _, err := os.Stat(filepath.Join(tmpDir, ".barw", "config.yaml")); err != nil {
		t.Errorf("config.yaml not created: %v", err)
	}

	result = mustJSON(t, tmpDir, "init")
	if result["status"] != "exists" {
		t.Errorf("second init status = %v, want exists", result["status"])
	}

	result = mustJSON(t, tmpDir, "init", "--global")
	if result["scope"] != "global" {
		t.Errorf("scope = %v, want global", result["scope"])
	}
	if _, err := os.Stat(filepath.Join(tmpDir, "home", ".barw", "config.yaml")); err != nil {
		t.Errorf("global config.yaml not created: %v", err)
	}
}

func TestRunListShow(t *testing.T) {
	root := setupProject(t)

	list := mustJSON(t, root, "list")
	if list["count"] != float64(1) {
		t.Errorf("list count = %v, want 1", list["count"])
	}

	show := mustJSON(t, root, "show", "demo", "--snapshot")
	samples, ok := show["samples"].([]any)
	if !ok || len(samples) != 2 {
		t.Fatalf("show samples = %v, want 2 entries", show["samples"])
	}
	first := samples[0].(map[string]any)
	if first["roots"] != float64(1) || first["walkers"].(float64) < 1 {
		t.Errorf("sample 0 stats = %v", first)
	}
	if cfg, _ := show["config"].(string); !strings.Contains(cfg, "steps: 30") {
		t.Errorf("config snapshot missing overridden steps: %q", cfg)
	}

	if _, err := execute(t, root, "run", "--name", "demo", "--steps", "5"); err == nil {
		t.Error("expected error when re-running an existing name without --replace")
	}
	if _, err := execute(t, root, "run", "--name", "demo", "--steps", "5", "--replace"); err != nil {
		t.Errorf("run --replace: %v", err)
	}

	out, err := execute(t, root, "show", "demo")
	if err != nil {
		t.Fatalf("show: %v", err)
	}
	if !strings.Contains(out, "Collection demo") {
		t.Errorf("show output = %q", out)
	}
}

func TestRun_Errors(t *testing.T) {
	tmpDir := t.TempDir()
	isolateHome(t, tmpDir)

	tests := []struct {
		name string
		args []string
		want string
	}{
		{"missing name", []string{"run"}, "name"},
		{"bad name", []string{"run", "--name", "a/b"}, "invalid character"},
		{"reserved name", []string{"run", "--name", "verify"}, "reserved"},
		{"zero steps", []string{"run", "--name", "x", "--steps", "0"}, "invalid configuration"},
		{"negative radius", []string{"run", "--name", "x", "--radius", "-1"}, "invalid configuration"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := execute(t, tmpDir, tt.args...)
			if err == nil || !strings.Contains(strings.ToLower(err.Error()), tt.want) {
				t.Errorf("error = %v, want it to mention %q", err, tt.want)
			}
		})
	}
}

func TestRun_ArrowAndMetrics(t *testing.T) {
	tmpDir := t.TempDir()
	isolateHome(t, tmpDir)
	arrowPath := filepath.Join(tmpDir, "run.arrow")
	metricsPath := filepath.Join(tmpDir, "run.prom")

	mustJSON(t, tmpDir, "run", "--name", "files", "--steps", "20", "--samples", "3",
		"--arrow", arrowPath, "--metrics-file", metricsPath)

	f, err := os.Open(arrowPath)
	if err != nil {
		t.Fatalf("arrow file: %v", err)
	}
	defer f.Close()
	tl, err := timeline.ReadArrow(f)
	if err != nil {
		t.Fatalf("ReadArrow: %v", err)
	}
	if tl.SampleCount() != 3 {
		t.Errorf("arrow samples = %d, want 3", tl.SampleCount())
	}

	data, err := os.ReadFile(metricsPath)
	if err != nil {
		t.Fatalf("metrics file: %v", err)
	}
	if !strings.Contains(string(data), "barw_samples_total 3") {
		t.Errorf("metrics file missing samples counter:\n%s", data)
	}
}

func TestAnalyzeCmd(t *testing.T) {
	root := setupProject(t)

	for _, kind := range analyses {
		t.Run(kind, func(t *testing.T) {
			result := mustJSON(t, root, "analyze", "demo", kind)
			if result["analysis"] != kind || result["result"] == nil {
				t.Errorf("analyze %s = %v", kind, result)
			}
		})
	}

	hist := mustJSON(t, root, "analyze", "demo", "angles", "--bins", "8")
	density := hist["result"].(map[string]any)["density"].([]any)
	if len(density) != 8 {
		t.Errorf("angle bins = %d, want 8", len(density))
	}

	window := mustJSON(t, root, "analyze", "demo", "msd", "--sample", "1", "--from", "5", "--to", "10")
	iters := window["result"].(map[string]any)["iterations"].([]any)
	for _, it := range iters {
		if v := it.(float64); v < 5 || v > 10 {
			t.Errorf("iteration %v outside window", v)
		}
	}

	if _, err := execute(t, root, "analyze", "demo", "fractal"); err == nil {
		t.Error("expected error for unknown analysis")
	}
	if _, err := execute(t, root, "analyze", "demo", "msd", "--sample", "9"); err == nil {
		t.Error("expected error for out-of-range sample")
	}
	if _, err := execute(t, root, "analyze", "ghost", "msd"); err == nil {
		t.Error("expected error for unknown collection")
	}

	out, err := execute(t, root, "analyze", "demo", "lengths")
	if err != nil || !strings.Contains(out, "INDEX") || !strings.Contains(out, "POSITIONS") {
		t.Errorf("text output = %q, err = %v", out, err)
	}
}

func TestAnalyzeCmd_WalkersAt(t *testing.T) {
	root := setupProject(t)

	start := mustJSON(t, root, "analyze", "demo", "walkers-at", "--sample", "1", "--iteration", "0")
	snap := start["result"].(map[string]any)
	if snap["sample"].(float64) != 1 || snap["iteration"].(float64) != 0 {
		t.Errorf("snapshot header = %v", snap)
	}
	positions := snap["positions"].([]any)
	if len(positions) == 0 {
		t.Fatal("no walkers at iteration 0")
	}
	lo := snap["min"].(map[string]any)
	hi := snap["max"].(map[string]any)
	for _, raw := range positions {
		p := raw.(map[string]any)
		for _, axis := range []string{"x", "y"} {
			if p[axis].(float64) < lo[axis].(float64) || p[axis].(float64) > hi[axis].(float64) {
				t.Errorf("position %v outside extent %v..%v", p, lo, hi)
			}
		}
	}

	last := mustJSON(t, root, "analyze", "demo", "walkers-at")
	if it := last["result"].(map[string]any)["iteration"].(float64); it < 1 {
		t.Errorf("default iteration = %v, want the last one", it)
	}

	past := mustJSON(t, root, "analyze", "demo", "walkers-at", "--iteration", "100000")
	if n := len(past["result"].(map[string]any)["positions"].([]any)); n != 0 {
		t.Errorf("walkers after the run ended = %d, want 0", n)
	}

	out, err := execute(t, root, "analyze", "demo", "walkers-at", "--iteration", "0")
	if err != nil || !strings.Contains(out, "Extent:") {
		t.Errorf("text output = %q, err = %v", out, err)
	}
}

func TestExportCmd(t *testing.T) {
	root := setupProject(t)
	outPath := filepath.Join(t.TempDir(), "demo.arrow")

	result := mustJSON(t, root, "export", "demo", "--out", outPath, "--sample", "0")
	f, err := os.Open(outPath)
	if err != nil {
		t.Fatalf("export file: %v", err)
	}
	defer f.Close()
	tl, err := timeline.ReadArrow(f)
	if err != nil {
		t.Fatalf("ReadArrow: %v", err)
	}
	if float64(tl.Len()) != result["rows"] {
		t.Errorf("rows = %d, reported %v", tl.Len(), result["rows"])
	}
	if tl.SampleCount() != 1 {
		t.Errorf("samples = %d, want 1", tl.SampleCount())
	}
}

func TestBackupImportDelete(t *testing.T) {
	root := setupProject(t)

	archived := mustJSON(t, root, "backup", "demo")
	path, _ := archived["path"].(string)
	if !strings.HasPrefix(path, filepath.Join(root, ".barw", "backups")) {
		t.Errorf("archive path = %q, want under project backups", path)
	}

	verified := mustJSON(t, root, "backup", "verify", path)
	if verified["valid"] != true {
		t.Errorf("verify = %v", verified)
	}
	listed := mustJSON(t, root, "backup", "list")
	if listed["total_count"] != float64(1) {
		t.Errorf("backup list count = %v, want 1", listed["total_count"])
	}

	mustJSON(t, root, "delete", "demo")
	if list := mustJSON(t, root, "list"); list["count"] != float64(0) {
		t.Errorf("list after delete = %v", list["count"])
	}
	if _, err := execute(t, root, "delete", "demo"); err == nil {
		t.Error("expected error deleting a missing collection")
	}

	imported := mustJSON(t, root, "import", path)
	if imported["name"] != "demo" || imported["samples"] != float64(2) {
		t.Errorf("import = %v", imported)
	}
	if _, err := execute(t, root, "import", path); err == nil {
		t.Error("expected error importing over an existing collection")
	}
	if copied := mustJSON(t, root, "import", path, "--name", "demo-copy"); copied["name"] != "demo-copy" {
		t.Errorf("import --name = %v", copied)
	}

	outside := filepath.Join(t.TempDir(), "escape.barw.gz")
	if _, err := execute(t, root, "backup", "demo", "--out", outside); err == nil {
		t.Error("expected backup outside archive directories to be rejected")
	}
	if _, err := execute(t, root, "import", outside); err == nil {
		t.Error("expected import outside archive directories to be rejected")
	}
}

func TestConfigShow(t *testing.T) {
	tmpDir := t.TempDir()
	isolateHome(t, tmpDir)

	out, err := execute(t, tmpDir, "config", "show")
	if err != nil {
		t.Fatalf("config show: %v", err)
	}
	if !strings.Contains(out, "steps: 200") {
		t.Errorf("default config output missing steps:\n%s", out)
	}

	t.Setenv("BARW_STEPS", "12")
	result := mustJSON(t, tmpDir, "config", "show")
	sim := result["simulation"].(map[string]any)
	if sim["steps"] != float64(12) {
		t.Errorf("steps = %v, want 12 from environment", sim["steps"])
	}

	cfgPath := filepath.Join(tmpDir, "custom.yaml")
	if err := os.WriteFile(cfgPath, []byte("simulation:\n  radius: 0.25\n"), 0600); err != nil {
		t.Fatal(err)
	}
	out, err = execute(t, tmpDir, "config", "show", "--config", cfgPath)
	if err != nil || !strings.Contains(out, "radius: 0.25") {
		t.Errorf("explicit config not used: %q, %v", out, err)
	}
}
