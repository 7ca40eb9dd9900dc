// Command awpctl is a thin operations binary over an AWP workspace: init a
// new workspace, generate an agent identity, check on-disk artifacts
// against the schema registry, dry-run a sync pull, and analyze a project's task
// dependency graph. A single -action flag dispatches to package-level
// helpers; -json toggles machine-readable output.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/awp-dev/awpengine/internal/artifact"
	"github.com/awp-dev/awpengine/internal/config"
	"github.com/awp-dev/awpengine/internal/identity"
	"github.com/awp-dev/awpengine/internal/project"
	"github.com/awp-dev/awpengine/internal/storage"
	"github.com/awp-dev/awpengine/internal/sync"
	"github.com/awp-dev/awpengine/internal/sync/transport/localfs"
)

func main() {
	workspaceRoot := flag.String("workspace", ".", "Path to the AWP workspace root")
	action := flag.String("action", "", "Action to perform: init, identity, schema-check, sync-dry-run, analyze-graph")
	remoteName := flag.String("remote", "", "Remote name (sync-dry-run)")
	projectSlug := flag.String("project", "", "Project slug (analyze-graph)")
	jsonOutput := flag.Bool("json", false, "Output as JSON")

	flag.Parse()

	if *action == "" {
		fmt.Fprintf(os.Stderr, "Usage: awpctl -workspace <path> -action <action> [-remote <name>] [-project <slug>] [-json]\n")
		fmt.Fprintf(os.Stderr, "Actions: init, identity, schema-check, sync-dry-run, analyze-graph\n")
		os.Exit(1)
	}

	var err error
	switch *action {
	case "init":
		err = runInit(*workspaceRoot, *jsonOutput)
	case "identity":
		err = runIdentity(*workspaceRoot, *jsonOutput)
	case "schema-check":
		err = runSchemaCheck(*workspaceRoot, *jsonOutput)
	case "sync-dry-run":
		err = runSyncDryRun(*workspaceRoot, *remoteName, *jsonOutput)
	case "analyze-graph":
		err = runAnalyzeGraph(*workspaceRoot, *projectSlug, *jsonOutput)
	default:
		fmt.Fprintf(os.Stderr, "Unknown action: %s\n", *action)
		os.Exit(1)
	}

	if err != nil {
		fmt.Fprintf(os.Stderr, "awpctl %s: %v\n", *action, err)
		os.Exit(1)
	}
}

// runInit lays out a fresh workspace's directory structure and default
// config, mirroring the on-disk layout the rest of the engines expect
// (artifacts/, .awp/schema, .awp/sync, awp.yaml).
func runInit(workspaceRoot string, jsonOutput bool) error {
	dirs := []string{
		filepath.Join(workspaceRoot, "artifacts"),
		filepath.Join(workspaceRoot, "projects"),
		filepath.Join(workspaceRoot, "reputation"),
		filepath.Join(workspaceRoot, ".awp", "schema"),
		filepath.Join(workspaceRoot, ".awp", "sync", "state"),
		filepath.Join(workspaceRoot, ".awp", "sync", "conflicts"),
	}
	for _, d := range dirs {
		if err := os.MkdirAll(d, 0o755); err != nil {
			return fmt.Errorf("create %s: %w", d, err)
		}
	}

	configPath := filepath.Join(workspaceRoot, "awp.yaml")
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		if err := storage.AtomicWrite(configPath, []byte(defaultConfigYAML), 0o644); err != nil {
			return fmt.Errorf("write awp.yaml: %w", err)
		}
	}

	if jsonOutput {
		return json.NewEncoder(os.Stdout).Encode(map[string]interface{}{
			"success":       true,
			"workspaceRoot": workspaceRoot,
		})
	}
	fmt.Printf("Initialized AWP workspace at %s\n", workspaceRoot)
	return nil
}

const defaultConfigYAML = `reputation:
  alpha: 0.15
  decay_rate: 0.02
  baseline: 0.5
lock:
  timeout_seconds: 10
schema:
  dir: .awp/schema
stats:
  alpha: 0.05
`

// runIdentity generates a new ed25519 keypair and prints its did:key.
func runIdentity(workspaceRoot string, jsonOutput bool) error {
	kp, err := identity.Generate()
	if err != nil {
		return fmt.Errorf("generate keypair: %w", err)
	}

	if jsonOutput {
		return json.NewEncoder(os.Stdout).Encode(map[string]interface{}{
			"did": kp.DID,
		})
	}
	fmt.Println(kp.DID)
	return nil
}

// runSchemaCheck loads the configured schema registry and validates every
// artifact currently on disk against it, reporting violations.
func runSchemaCheck(workspaceRoot string, jsonOutput bool) error {
	cfg, err := config.Load(filepath.Join(workspaceRoot, "awp.yaml"))
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	registry := storage.DefaultRegistry()
	schemaDir := filepath.Join(workspaceRoot, cfg.Schema.Dir)
	if _, statErr := os.Stat(schemaDir); statErr == nil {
		if err := registry.LoadDir(schemaDir); err != nil {
			return fmt.Errorf("load schema dir: %w", err)
		}
	}

	artifacts := artifact.NewEngine(workspaceRoot, registry)
	list, err := artifacts.List()
	if err != nil {
		return fmt.Errorf("list artifacts: %w", err)
	}

	violations := map[string]string{}
	for _, a := range list {
		fm := map[string]interface{}{
			"title":      a.Title,
			"tags":       a.Tags,
			"confidence": a.Confidence,
			"version":    a.Version,
			"authors":    a.Authors,
			"provenance": a.Provenance,
		}
		// Round-trip through JSON so typed slices and structs reach the
		// validator as the generic values it checks, as the engines' saves do.
		encoded, err := json.Marshal(fm)
		if err != nil {
			return fmt.Errorf("encode %s frontmatter: %w", a.Slug, err)
		}
		var generic map[string]interface{}
		if err := json.Unmarshal(encoded, &generic); err != nil {
			return fmt.Errorf("decode %s frontmatter: %w", a.Slug, err)
		}
		if verr := registry.Validate("artifact", generic); verr != nil {
			violations[a.Slug] = verr.Error()
		}
	}

	if jsonOutput {
		return json.NewEncoder(os.Stdout).Encode(map[string]interface{}{
			"checked":    len(list),
			"violations": violations,
		})
	}
	fmt.Printf("Checked %d artifacts, %d violation(s)\n", len(list), len(violations))
	for slug, msg := range violations {
		fmt.Printf("  %s: %s\n", slug, msg)
	}
	return nil
}

// runSyncDryRun diffs against a configured remote without writing
// anything, a read-only preview of what a real pull would do.
func runSyncDryRun(workspaceRoot, remoteName string, jsonOutput bool) error {
	if remoteName == "" {
		return fmt.Errorf("-remote is required for sync-dry-run")
	}

	remotes, err := sync.ListRemotes(workspaceRoot)
	if err != nil {
		return fmt.Errorf("list remotes: %w", err)
	}
	var remote *sync.Remote
	for i := range remotes {
		if remotes[i].Name == remoteName {
			remote = &remotes[i]
			break
		}
	}
	if remote == nil {
		return fmt.Errorf("unknown remote %q", remoteName)
	}
	if remote.Kind != "local-fs" {
		return fmt.Errorf("sync-dry-run currently supports local-fs remotes only, got %q", remote.Kind)
	}

	registry := storage.DefaultRegistry()
	artifacts := artifact.NewEngine(workspaceRoot, registry)
	transport := localfs.New(remote.Name, remote.Address)

	result, err := sync.Pull(workspaceRoot, artifacts, transport, remote.Name, sync.PullOptions{DryRun: true}, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("dry-run pull: %w", err)
	}

	if jsonOutput {
		return json.NewEncoder(os.Stdout).Encode(result)
	}
	fmt.Printf("Would import: %d, fast-forward: %d, merge: %d, skip: %d, conflicts: %d\n",
		len(result.Imported), len(result.FastForwarded), len(result.Merged), len(result.Skipped), len(result.Conflicts))
	return nil
}

// runAnalyzeGraph loads a project's tasks and reports whether their
// dependency graph is acyclic, along with a topological order, critical
// path, and blocked-task map when it is.
func runAnalyzeGraph(workspaceRoot, projectSlug string, jsonOutput bool) error {
	if projectSlug == "" {
		return fmt.Errorf("-project is required for analyze-graph")
	}

	registry := storage.DefaultRegistry()
	projects := project.NewEngine(workspaceRoot, registry)
	tasks := project.NewTaskEngine(workspaceRoot, registry, projects)

	taskList, err := tasks.List(projectSlug)
	if err != nil {
		return fmt.Errorf("list tasks: %w", err)
	}

	result := project.AnalyzeGraph(projectSlug, taskList)

	if jsonOutput {
		return json.NewEncoder(os.Stdout).Encode(result)
	}
	if !result.IsValid {
		fmt.Printf("INVALID: %d cycle(s) found\n", len(result.Cycles))
		for _, cycle := range result.Cycles {
			fmt.Printf("  cycle: %v\n", cycle)
		}
		return nil
	}
	fmt.Printf("VALID\norder: %v\ncritical path: %v\n", result.TopoOrder, result.CriticalPath)
	for slug, blockers := range result.Blocked {
		fmt.Printf("  %s blocked by: %v\n", slug, blockers)
	}
	return nil
}
