package main

import (
	"os"
	"os/exec"
	"strings"

	"github.com/alfredjeanlab/hackops/internal/client"
	"github.com/alfredjeanlab/hackops/internal/ui"
	"github.com/spf13/cobra"
)

var (
	httpURL    string
	authToken  string
	operator   string
	jsonOutput bool
	noColor    bool

	hkClient client.HackopsClient
)

// defaultOperator names the console operator; transfer sessions are keyed
// by it.
func defaultOperator() string {
	if s := os.Getenv("HK_OPERATOR"); s != "" {
		return s
	}
	if op := loadActiveRemote().Operator; op != "" {
		return op
	}
	out, err := exec.Command("git", "config", "user.email").Output()
	if err == nil {
		if email := strings.TrimSpace(string(out)); email != "" {
			return email
		}
	}
	return "unknown"
}

func defaultHTTPURL() string {
	if s := os.Getenv("HK_HTTP_URL"); s != "" {
		return s
	}
	if u := activeRemoteURL(); u != "" {
		return u
	}
	return "http://localhost:8080"
}

func defaultToken() string {
	if s := os.Getenv("HK_AUTH_TOKEN"); s != "" {
		return s
	}
	return activeRemoteToken()
}

var rootCmd = &cobra.Command{
	Use:          "hk <command>",
	Short:        "Operator console for the hackops service",
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if noColor {
			ui.ForceNoColor()
		}
		hkClient = client.NewHTTPClient(httpURL, authToken, operator)
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if hkClient != nil {
			hkClient.Close()
		}
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&httpURL, "http-url", defaultHTTPURL(), "HTTP server URL")
	rootCmd.PersistentFlags().StringVar(&authToken, "token", defaultToken(), "bearer token")
	rootCmd.PersistentFlags().StringVar(&operator, "operator", defaultOperator(), "operator identity for transfers and audit events")
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "output as JSON")
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "disable colored output")

	rootCmd.AddGroup(
		&cobra.Group{ID: "hackathons", Title: "Hackathons:"},
		&cobra.Group{ID: "review", Title: "Review:"},
		&cobra.Group{ID: "teams", Title: "Teams:"},
		&cobra.Group{ID: "system", Title: "System:"},
	)

	cobra.EnableCommandSorting = false
	rootCmd.SetHelpFunc(colorizedHelpFunc())

	// Hackathons
	rootCmd.AddCommand(hackathonCmd)
	rootCmd.AddCommand(participantCmd)
	rootCmd.AddCommand(formCmd)

	// Review
	rootCmd.AddCommand(rulesCmd)
	rootCmd.AddCommand(classifyCmd)

	// Teams
	rootCmd.AddCommand(planCmd)
	rootCmd.AddCommand(teamCmd)
	rootCmd.AddCommand(transferCmd)

	// System
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(healthCmd)
	rootCmd.AddCommand(watchCmd)
	rootCmd.AddCommand(exportCmd)
	rootCmd.AddCommand(remoteCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
