package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"github.com/spf13/cobra"
)

var usersCmd = &cobra.Command{
	Use:   "users",
	Short: "Browse and follow other members",
}

var searchQuery string

var listUsersCmd = &cobra.Command{
	Use:   "list",
	Short: "List members, optionally filtered by --query",
	RunE: func(cmd *cobra.Command, args []string) error {
		path := "/api/v1/users"
		if searchQuery != "" {
			path += "?q=" + url.QueryEscape(searchQuery)
		}

		body, err := apiRequest("GET", path, nil)
		if err != nil {
			return err
		}

		if output == "json" {
			fmt.Println(string(body))
			return nil
		}

		resp, err := decodeBody(body)
		if err != nil {
			return err
		}
		users, _ := resp["users"].([]interface{})
		if len(users) == 0 {
			fmt.Println("No users found")
			return nil
		}

		for _, u := range users {
			user, ok := u.(map[string]interface{})
			if !ok {
				continue
			}
			username, _ := user["username"].(string)
			headline, _ := user["headline"].(string)
			id, _ := user["id"].(string)
			fmt.Printf("@%-20s %s\n", username, headline)
			fmt.Printf("  id: %s\n", id)
		}
		return nil
	},
}

var followCmd = &cobra.Command{
	Use:   "follow <user-id>",
	Short: "Follow a member",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		body, err := apiRequest("POST", "/api/v1/users/"+args[0]+"/follow", nil)
		if err != nil {
			return err
		}
		if output == "json" {
			fmt.Println(string(body))
		} else {
			fmt.Println("Following", args[0])
		}
		return nil
	},
}

var unfollowCmd = &cobra.Command{
	Use:   "unfollow <user-id>",
	Short: "Unfollow a member",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		body, err := apiRequest("DELETE", "/api/v1/users/"+args[0]+"/follow", nil)
		if err != nil {
			return err
		}
		if output == "json" {
			fmt.Println(string(body))
		} else {
			fmt.Println("Unfollowed", args[0])
		}
		return nil
	},
}

var deleteUserCmd = &cobra.Command{
	Use:   "delete <user-id>",
	Short: "Delete a member account and their content (admin)",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		body, err := apiRequest("DELETE", "/api/v1/users/"+args[0], nil)
		if err != nil {
			return err
		}
		if output == "json" {
			fmt.Println(string(body))
		} else {
			fmt.Println("Deleted", args[0])
		}
		return nil
	},
}

var purgeUsersCmd = &cobra.Command{
	Use:   "purge",
	Short: "Delete every non-admin account (admin)",
	RunE: func(cmd *cobra.Command, args []string) error {
		body, err := apiRequest("DELETE", "/api/v1/users", nil)
		if err != nil {
			return err
		}
		if output == "json" {
			fmt.Println(string(body))
			return nil
		}
		resp, err := decodeBody(body)
		if err != nil {
			return err
		}
		if count, ok := resp["count"].(float64); ok {
			fmt.Printf("Purged %d accounts\n", int(count))
		} else {
			fmt.Println("Purged")
		}
		return nil
	},
}

func init() {
	listUsersCmd.Flags().StringVar(&searchQuery, "query", "", "Substring to match against usernames and names")

	usersCmd.AddCommand(listUsersCmd)
	usersCmd.AddCommand(followCmd)
	usersCmd.AddCommand(unfollowCmd)
	usersCmd.AddCommand(deleteUserCmd)
	usersCmd.AddCommand(purgeUsersCmd)
}

// apiRequest performs an authenticated JSON request against the API
func apiRequest(method, path string, payload interface{}) ([]byte, error) {
	var reqBody io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("failed to encode request: %w", err)
		}
		reqBody = bytes.NewReader(data)
	}

	req, err := http.NewRequest(method, apiURL+path, reqBody)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Authorization", "Bearer "+authToken)
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	client := &http.Client{}
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to make request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var errResp map[string]interface{}
		json.Unmarshal(body, &errResp)
		if msg, ok := errResp["error"].(string); ok {
			return nil, fmt.Errorf("API error: %s", msg)
		}
		return nil, fmt.Errorf("API error: status %d", resp.StatusCode)
	}

	return body, nil
}

func decodeBody(body []byte) (map[string]interface{}, error) {
	var out map[string]interface{}
	if err := json.Unmarshal(body, &out); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}
	return out, nil
}
