// Command tracectl queries the hosted workflow-trace API.
//
// Usage:
//
//	tracectl list-projects
//	tracectl project-exists <name>
//
// The service URL and API key come from TRACE_API_URL and TRACE_API_KEY.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"

	"github.com/prizmhq/contractor-flow/trace"
)

// errProjectNotFound signals a clean exit with a non-zero status: the
// query succeeded but the project is not registered.
var errProjectNotFound = errors.New("project not found")

func main() {
	if err := run(os.Args[1:]); err != nil {
		if !errors.Is(err, errProjectNotFound) {
			fmt.Fprintf(os.Stderr, "tracectl: %v\n", err)
		}
		os.Exit(1)
	}
}

func run(args []string) error {
	_ = godotenv.Load()

	baseURL := os.Getenv("TRACE_API_URL")
	if baseURL == "" {
		return fmt.Errorf("TRACE_API_URL is not set")
	}
	client := trace.NewClient(baseURL, os.Getenv("TRACE_API_KEY"))

	if len(args) == 0 {
		return fmt.Errorf("usage: tracectl <list-projects|project-exists> [args]")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	switch args[0] {
	case "list-projects":
		return listProjects(ctx, client)
	case "project-exists":
		if len(args) < 2 {
			return fmt.Errorf("usage: tracectl project-exists <name>")
		}
		return projectExists(ctx, client, args[1])
	default:
		return fmt.Errorf("unknown command: %s", args[0])
	}
}

func listProjects(ctx context.Context, client *trace.Client) error {
	projects, err := client.ListProjects(ctx)
	if err != nil {
		return err
	}

	if len(projects) == 0 {
		fmt.Println("no projects")
		return nil
	}
	for _, p := range projects {
		fmt.Printf("%s\t%s\n", p.ID, p.Name)
	}
	return nil
}

func projectExists(ctx context.Context, client *trace.Client, name string) error {
	exists, err := client.ProjectExists(ctx, name)
	if err != nil {
		return err
	}

	if exists {
		fmt.Printf("project %q exists\n", name)
		return nil
	}
	fmt.Printf("project %q not found\n", name)
	return errProjectNotFound
}
