package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var profileCmd = &cobra.Command{
	Use:   "profile",
	Short: "Manage your profile",
	Long:  "Commands for viewing and editing your Voisoc profile",
}

var getProfileCmd = &cobra.Command{
	Use:   "get",
	Short: "Show your current profile",
	RunE: func(cmd *cobra.Command, args []string) error {
		return getProfile()
	},
}

var (
	updateHeadline string
	updateAbout    string
	updateLocation string
)

var updateProfileCmd = &cobra.Command{
	Use:   "update",
	Short: "Update profile fields",
	Long:  "Update headline, about, or location. Only flags you pass change.",
	RunE: func(cmd *cobra.Command, args []string) error {
		payload := map[string]interface{}{}
		if cmd.Flags().Changed("headline") {
			payload["headline"] = updateHeadline
		}
		if cmd.Flags().Changed("about") {
			payload["about"] = updateAbout
		}
		if cmd.Flags().Changed("location") {
			payload["location"] = updateLocation
		}
		if len(payload) == 0 {
			return fmt.Errorf("nothing to update, pass --headline, --about or --location")
		}
		return updateProfile(payload)
	},
}

func init() {
	updateProfileCmd.Flags().StringVar(&updateHeadline, "headline", "", "Profile headline")
	updateProfileCmd.Flags().StringVar(&updateAbout, "about", "", "About text")
	updateProfileCmd.Flags().StringVar(&updateLocation, "location", "", "Location")

	profileCmd.AddCommand(getProfileCmd)
	profileCmd.AddCommand(updateProfileCmd)
}

func getProfile() error {
	body, err := apiRequest("GET", "/api/v1/auth/me", nil)
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
	profile, _ := resp["user"].(map[string]interface{})
	if profile == nil {
		return fmt.Errorf("unexpected response shape")
	}

	fmt.Printf("\nProfile Information\n")
	fmt.Printf("--------------------------------\n")
	printField(profile, "username", "Username")
	printField(profile, "first_name", "First name")
	printField(profile, "last_name", "Last name")
	printField(profile, "country", "Country")
	printField(profile, "headline", "Headline")
	printField(profile, "location", "Location")
	if count, ok := profile["follower_count"].(float64); ok {
		fmt.Printf("Followers: %d\n", int(count))
	}
	if count, ok := profile["following_count"].(float64); ok {
		fmt.Printf("Following: %d\n", int(count))
	}
	fmt.Printf("\n")

	return nil
}

func updateProfile(payload map[string]interface{}) error {
	body, err := apiRequest("PUT", "/api/v1/users/me", payload)
	if err != nil {
		return err
	}

	if output == "json" {
		fmt.Println(string(body))
	} else {
		fmt.Println("Profile updated")
	}
	return nil
}

func printField(m map[string]interface{}, key, label string) {
	if v, ok := m[key].(string); ok && v != "" {
		fmt.Printf("%s: %s\n", label, v)
	}
}
