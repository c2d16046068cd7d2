package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var presenceCmd = &cobra.Command{
	Use:   "presence",
	Short: "Check who is online",
}

var onlineCmd = &cobra.Command{
	Use:   "online",
	Short: "Show currently online members",
	RunE: func(cmd *cobra.Command, args []string) error {
		body, err := apiRequest("GET", "/api/v1/ws/metrics", nil)
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

		count, _ := resp["online_count"].(float64)
		fmt.Printf("Online members: %d\n", int(count))

		if users, ok := resp["online_users"].([]interface{}); ok {
			for _, u := range users {
				if id, ok := u.(string); ok {
					fmt.Printf("  %s\n", id)
				}
			}
		}
		return nil
	},
}

var checkCmd = &cobra.Command{
	Use:   "check <user-id> [user-id...]",
	Short: "Check whether specific members are online",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		body, err := apiRequest("POST", "/api/v1/ws/online", map[string]interface{}{
			"user_ids": args,
		})
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

		statuses, _ := resp["statuses"].(map[string]interface{})
		for _, id := range args {
			state := "offline"
			if online, ok := statuses[id].(bool); ok && online {
				state = "online"
			}
			fmt.Printf("%s: %s\n", id, state)
		}
		return nil
	},
}

func init() {
	presenceCmd.AddCommand(onlineCmd)
	presenceCmd.AddCommand(checkCmd)
}
