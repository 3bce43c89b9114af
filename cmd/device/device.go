package device

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
	"github.com/martinsuchenak/avtrackd/internal/netplan"
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

// Commands returns the device management commands
func Commands() []*cli.Command {
	return []*cli.Command{
		addCommand(),
		listCommand(),
		getCommand(),
		deleteCommand(),
		nextAddressCommand(),
		searchCommand(),
	}
}

func addCommand() *cli.Command {
	return &cli.Command{
		Name:        "add",
		Usage:       "Add a new device",
		Description: "Create a device. Without --ip the server assigns the next free address for the type or category.",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "name", Usage: "Device name", Required: true},
			&cli.StringFlag{Name: "project", Usage: "Project ID", Required: true},
			&cli.StringFlag{Name: "type", Usage: "Device type (e.g., camera, nvr, touch_panel)"},
			&cli.StringFlag{Name: "category", Usage: "Device category (e.g., camera, network, control)"},
			&cli.StringFlag{Name: "make-model", Usage: "Make and model"},
			&cli.StringFlag{Name: "room", Usage: "Room or location"},
			&cli.StringFlag{Name: "ip", Usage: "Explicit IP address (skips auto-assignment)"},
			&cli.StringFlag{Name: "mac", Usage: "MAC address"},
			&cli.StringFlag{Name: "notes", Usage: "Free-form notes"},
		},
		Run: func(ctx context.Context, cmd *cli.Command) error {
			device := &model.Device{
				Name:       cmd.GetString("name"),
				ProjectID:  cmd.GetString("project"),
				DeviceType: cmd.GetString("type"),
				Category:   cmd.GetString("category"),
				MakeModel:  cmd.GetString("make-model"),
				Room:       cmd.GetString("room"),
				IPAddress:  cmd.GetString("ip"),
				MACAddress: cmd.GetString("mac"),
				Notes:      cmd.GetString("notes"),
			}

			data, err := json.Marshal(device)
			if err != nil {
				return err
			}

			resp, err := httpClient().Post(serverURL(cmd)+"/api/devices", "application/json", bytes.NewReader(data))
			if err != nil {
				return fmt.Errorf("failed to connect to server: %w", err)
			}
			defer resp.Body.Close()

			if resp.StatusCode != http.StatusCreated {
				body, _ := io.ReadAll(resp.Body)
				return fmt.Errorf("server error: %s", string(body))
			}

			var created struct {
				model.Device
				Warning string `json:"warning"`
			}
			if err := json.NewDecoder(resp.Body).Decode(&created); err != nil {
				return err
			}

			fmt.Printf("Device created: %s (ID: %s, IP: %s, VLAN: %d)\n",
				created.Name, created.ID, created.IPAddress, created.VLANID)
			if created.Warning != "" {
				fmt.Printf("Warning: %s\n", created.Warning)
			}
			return nil
		},
	}
}

func listCommand() *cli.Command {
	return &cli.Command{
		Name:        "list",
		Usage:       "List devices",
		Description: "List devices, optionally filtered by project or category",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "project", Usage: "Filter by project ID"},
			&cli.StringFlag{Name: "category", Usage: "Filter by category"},
		},
		Run: func(ctx context.Context, cmd *cli.Command) error {
			url := serverURL(cmd) + "/api/devices?project_id=" + cmd.GetString("project") + "&category=" + cmd.GetString("category")
			resp, err := httpClient().Get(url)
			if err != nil {
				return fmt.Errorf("failed to connect to server: %w", err)
			}
			defer resp.Body.Close()

			if resp.StatusCode != http.StatusOK {
				body, _ := io.ReadAll(resp.Body)
				return fmt.Errorf("server error: %s", string(body))
			}

			var devices []model.Device
			if err := json.NewDecoder(resp.Body).Decode(&devices); err != nil {
				return err
			}
			printDevices(devices)
			return nil
		},
	}
}

func getCommand() *cli.Command {
	return &cli.Command{
		Name:        "get",
		Usage:       "Get a device",
		Description: "Show a device by ID",
		Arguments: []cli.Argument{
			&cli.StringArg{Name: "id", Required: true},
		},
		Run: func(ctx context.Context, cmd *cli.Command) error {
			resp, err := httpClient().Get(serverURL(cmd) + "/api/devices/" + cmd.GetStringArg("id"))
			if err != nil {
				return fmt.Errorf("failed to connect to server: %w", err)
			}
			defer resp.Body.Close()

			if resp.StatusCode != http.StatusOK {
				body, _ := io.ReadAll(resp.Body)
				return fmt.Errorf("server error: %s", string(body))
			}

			var device model.Device
			if err := json.NewDecoder(resp.Body).Decode(&device); err != nil {
				return err
			}

			fmt.Printf("Name:       %s\n", device.Name)
			fmt.Printf("ID:         %s\n", device.ID)
			fmt.Printf("Project:    %s\n", device.ProjectID)
			fmt.Printf("Type:       %s\n", device.DeviceType)
			fmt.Printf("Category:   %s\n", device.Category)
			fmt.Printf("Make/Model: %s\n", device.MakeModel)
			fmt.Printf("Room:       %s\n", device.Room)
			fmt.Printf("IP:         %s (VLAN %d)\n", device.IPAddress, device.VLANID)
			if device.MACAddress != "" {
				fmt.Printf("MAC:        %s\n", device.MACAddress)
			}
			if device.Notes != "" {
				fmt.Printf("Notes:      %s\n", device.Notes)
			}
			return nil
		},
	}
}

func deleteCommand() *cli.Command {
	return &cli.Command{
		Name:        "delete",
		Usage:       "Delete a device",
		Description: "Delete a device by ID",
		Arguments: []cli.Argument{
			&cli.StringArg{Name: "id", Required: true},
		},
		Run: func(ctx context.Context, cmd *cli.Command) error {
			req, err := http.NewRequestWithContext(ctx, http.MethodDelete,
				serverURL(cmd)+"/api/devices/"+cmd.GetStringArg("id"), nil)
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

			fmt.Println("Device deleted")
			return nil
		},
	}
}

func nextAddressCommand() *cli.Command {
	return &cli.Command{
		Name:        "next-address",
		Usage:       "Preview the next free address",
		Description: "Show the address a device of the given type or category would receive, without reserving it",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "project", Usage: "Project ID", Required: true},
			&cli.StringFlag{Name: "type", Usage: "Device type"},
			&cli.StringFlag{Name: "category", Usage: "Device category"},
		},
		Run: func(ctx context.Context, cmd *cli.Command) error {
			url := serverURL(cmd) + "/api/projects/" + cmd.GetString("project") +
				"/next-address?device_type=" + cmd.GetString("type") + "&category=" + cmd.GetString("category")
			resp, err := httpClient().Get(url)
			if err != nil {
				return fmt.Errorf("failed to connect to server: %w", err)
			}
			defer resp.Body.Close()

			if resp.StatusCode != http.StatusOK {
				body, _ := io.ReadAll(resp.Body)
				return fmt.Errorf("server error: %s", string(body))
			}

			var result netplan.AllocationResult
			if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
				return err
			}

			fmt.Printf("Next address: %s (VLAN %d, %s match)\n", result.Address, result.VLANID, result.Resolution)
			if result.Warning != "" {
				fmt.Printf("Warning: %s\n", result.Warning)
			}
			return nil
		},
	}
}

func searchCommand() *cli.Command {
	return &cli.Command{
		Name:        "search",
		Usage:       "Search devices",
		Description: "Search devices by name, make/model, room, IP or notes",
		Arguments: []cli.Argument{
			&cli.StringArg{Name: "query", Required: true},
		},
		Run: func(ctx context.Context, cmd *cli.Command) error {
			resp, err := httpClient().Get(serverURL(cmd) + "/api/search?q=" + cmd.GetStringArg("query"))
			if err != nil {
				return fmt.Errorf("failed to connect to server: %w", err)
			}
			defer resp.Body.Close()

			if resp.StatusCode != http.StatusOK {
				body, _ := io.ReadAll(resp.Body)
				return fmt.Errorf("server error: %s", string(body))
			}

			var devices []model.Device
			if err := json.NewDecoder(resp.Body).Decode(&devices); err != nil {
				return err
			}
			printDevices(devices)
			return nil
		},
	}
}

func printDevices(devices []model.Device) {
	if len(devices) == 0 {
		fmt.Println("No devices found")
		return
	}
	for _, d := range devices {
		fmt.Printf("%s  %-30s %-16s VLAN %-4d %s\n", d.ID, d.Name, d.IPAddress, d.VLANID, d.Room)
	}
}
