package project

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/paularlott/cli"

	"github.com/martinsuchenak/avtrackd/internal/model"
)

func serverURL(cmd *cli.Command) string {
	if url := cmd.GetString("server"); url != "" {
		return url
	}
	if url := os.Getenv("AVT_SERVER_URL"); url != "" {
		return url
	}
	return "http://localhost:8080"
}

func httpClient() *http.Client {
	return &http.Client{Timeout: 30 * time.Second}
}

// Commands returns the project management commands
func Commands() []*cli.Command {
	return []*cli.Command{
		addCommand(),
		listCommand(),
		getCommand(),
		cloneCommand(),
		deleteCommand(),
	}
}

func addCommand() *cli.Command {
	return &cli.Command{
		Name:        "add",
		Usage:       "Add a new project",
		Description: "Create a new project on the server",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "name", Usage: "Project name", Required: true},
			&cli.StringFlag{Name: "client", Usage: "Client name"},
			&cli.StringFlag{Name: "site-address", Usage: "Site address"},
			&cli.StringFlag{Name: "status", Usage: "Project status (quoted, active, on_hold, handover, closed)"},
			&cli.StringFlag{Name: "description", Usage: "Project description"},
		},
		Run: func(ctx context.Context, cmd *cli.Command) error {
			project := &model.Project{
				Name:        cmd.GetString("name"),
				Client:      cmd.GetString("client"),
				SiteAddress: cmd.GetString("site-address"),
				Status:      cmd.GetString("status"),
				Description: cmd.GetString("description"),
			}

			data, err := json.Marshal(project)
			if err != nil {
				return err
			}

			resp, err := httpClient().Post(serverURL(cmd)+"/api/projects", "application/json", bytes.NewReader(data))
			if err != nil {
				return fmt.Errorf("failed to connect to server: %w", err)
			}
			defer resp.Body.Close()

			if resp.StatusCode != http.StatusCreated {
				body, _ := io.ReadAll(resp.Body)
				return fmt.Errorf("server error: %s", string(body))
			}

			if err := json.NewDecoder(resp.Body).Decode(project); err != nil {
				return err
			}
			fmt.Printf("Project created: %s (ID: %s)\n", project.Name, project.ID)
			return nil
		},
	}
}

func listCommand() *cli.Command {
	return &cli.Command{
		Name:        "list",
		Usage:       "List projects",
		Description: "List projects, optionally filtered by status or client",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "status", Usage: "Filter by status"},
			&cli.StringFlag{Name: "client", Usage: "Filter by client"},
		},
		Run: func(ctx context.Context, cmd *cli.Command) error {
			url := serverURL(cmd) + "/api/projects?status=" + cmd.GetString("status") + "&client=" + cmd.GetString("client")
			resp, err := httpClient().Get(url)
			if err != nil {
				return fmt.Errorf("failed to connect to server: %w", err)
			}
			defer resp.Body.Close()

			if resp.StatusCode != http.StatusOK {
				body, _ := io.ReadAll(resp.Body)
				return fmt.Errorf("server error: %s", string(body))
			}

			var projects []model.Project
			if err := json.NewDecoder(resp.Body).Decode(&projects); err != nil {
				return err
			}

			if len(projects) == 0 {
				fmt.Println("No projects found")
				return nil
			}
			for _, p := range projects {
				fmt.Printf("%s  %-30s %-20s %s\n", p.ID, p.Name, p.Client, p.Status)
			}
			return nil
		},
	}
}

func getCommand() *cli.Command {
	return &cli.Command{
		Name:        "get",
		Usage:       "Get a project",
		Description: "Show a project and its devices",
		Arguments: []cli.Argument{
			&cli.StringArg{Name: "id", Required: true},
		},
		Run: func(ctx context.Context, cmd *cli.Command) error {
			id := cmd.GetStringArg("id")

			resp, err := httpClient().Get(serverURL(cmd) + "/api/projects/" + id)
			if err != nil {
				return fmt.Errorf("failed to connect to server: %w", err)
			}
			defer resp.Body.Close()

			if resp.StatusCode != http.StatusOK {
				body, _ := io.ReadAll(resp.Body)
				return fmt.Errorf("server error: %s", string(body))
			}

			var project model.Project
			if err := json.NewDecoder(resp.Body).Decode(&project); err != nil {
				return err
			}

			fmt.Printf("Name:    %s\n", project.Name)
			fmt.Printf("ID:      %s\n", project.ID)
			fmt.Printf("Client:  %s\n", project.Client)
			fmt.Printf("Site:    %s\n", project.SiteAddress)
			fmt.Printf("Status:  %s\n", project.Status)
			if project.Description != "" {
				fmt.Printf("Notes:   %s\n", project.Description)
			}

			resp, err = httpClient().Get(serverURL(cmd) + "/api/projects/" + id + "/devices")
			if err != nil {
				return nil
			}
			defer resp.Body.Close()

			var devices []model.Device
			if err := json.NewDecoder(resp.Body).Decode(&devices); err != nil {
				return nil
			}
			if len(devices) > 0 {
				fmt.Printf("\nDevices (%d):\n", len(devices))
				for _, d := range devices {
					fmt.Printf("  %-30s %-16s VLAN %-4d %s\n", d.Name, d.IPAddress, d.VLANID, d.Room)
				}
			}
			return nil
		},
	}
}

func cloneCommand() *cli.Command {
	return &cli.Command{
		Name:        "clone",
		Usage:       "Clone a project",
		Description: "Copy a project and its devices, allocating fresh addresses",
		Arguments: []cli.Argument{
			&cli.StringArg{Name: "id", Required: true},
		},
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "name", Usage: "Name for the new project", Required: true},
			&cli.StringFlag{Name: "client", Usage: "Client for the new project"},
			&cli.StringFlag{Name: "site-address", Usage: "Site address for the new project"},
		},
		Run: func(ctx context.Context, cmd *cli.Command) error {
			payload := map[string]string{
				"name":         cmd.GetString("name"),
				"client":       cmd.GetString("client"),
				"site_address": cmd.GetString("site-address"),
			}
			data, err := json.Marshal(payload)
			if err != nil {
				return err
			}

			resp, err := httpClient().Post(serverURL(cmd)+"/api/projects/"+cmd.GetStringArg("id")+"/clone",
				"application/json", bytes.NewReader(data))
			if err != nil {
				return fmt.Errorf("failed to connect to server: %w", err)
			}
			defer resp.Body.Close()

			if resp.StatusCode != http.StatusCreated {
				body, _ := io.ReadAll(resp.Body)
				return fmt.Errorf("server error: %s", string(body))
			}

			var result struct {
				Project  model.Project  `json:"project"`
				Devices  []model.Device `json:"devices"`
				Warnings []string       `json:"warnings"`
			}
			if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
				return err
			}

			fmt.Printf("Project cloned: %s (ID: %s, %d devices)\n", result.Project.Name, result.Project.ID, len(result.Devices))
			for _, w := range result.Warnings {
				fmt.Printf("Warning: %s\n", w)
			}
			return nil
		},
	}
}

func deleteCommand() *cli.Command {
	return &cli.Command{
		Name:        "delete",
		Usage:       "Delete a project",
		Description: "Delete a project and all of its devices",
		Arguments: []cli.Argument{
			&cli.StringArg{Name: "id", Required: true},
		},
		Run: func(ctx context.Context, cmd *cli.Command) error {
			req, err := http.NewRequestWithContext(ctx, http.MethodDelete,
				serverURL(cmd)+"/api/projects/"+cmd.GetStringArg("id"), nil)
			if err != nil {
				return err
			}

			resp, err := httpClient().Do(req)
			if err != nil {
				return fmt.Errorf("failed to connect to server: %w", err)
			}
			defer resp.Body.Close()

			if resp.StatusCode != http.StatusNoContent {
				body, _ := io.ReadAll(resp.Body)
				return fmt.Errorf("server error: %s", string(body))
			}

			fmt.Println("Project deleted")
			return nil
		},
	}
}
